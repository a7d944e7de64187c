package hostenv

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"

	"github.com/qiniu/x/log"
)

// toolProbes maps a developer tool name to the command proving its presence.
var toolProbes = map[string]string{
	"xcode": "xcodebuild",
	"clang": "clang",
	"make":  "make",
}

const (
	xcodeDir        = "/Applications/Xcode.app/Contents/Developer"
	cltDir          = "/Library/Developer/CommandLineTools"
	systemPythonDir = "/System/Library/Frameworks/Python.framework/Versions/Current"
)

// Detect takes a snapshot of the running host. prefix is the package
// manager root whose opt/ directory holds installed packages.
func Detect(prefix string) (*Snapshot, error) {
	s := &Snapshot{
		Version:      hostOSVersion(),
		Architecture: archOf(runtime.GOARCH),
		Root:         prefix,
	}

	names := make([]string, 0, len(toolProbes))
	for name := range toolProbes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		bin, err := exec.LookPath(toolProbes[name])
		if err != nil {
			continue
		}
		s.AddTool(name, toolPrefix(name, bin))
	}
	if isDir(cltDir) {
		s.AddTool("clt", cltDir)
	}

	entries, err := os.ReadDir(filepath.Join(prefix, "opt"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		dir := filepath.Join(prefix, "opt", e.Name())
		s.AddPackage(e.Name(), Package{
			Prefix:    dir,
			Framework: isDir(filepath.Join(dir, "Frameworks")),
		})
	}
	if _, ok := s.Lookup("python"); !ok && isDir(systemPythonDir) {
		s.AddPackage("python", Package{Prefix: systemPythonDir, Framework: true, System: true})
	}

	log.Debugf("hostenv: detected os %s (%s) arch %s, %d tools, %d packages",
		s.Version, ReleaseName(s.Version), s.Architecture, len(s.Tools), len(s.Packages))
	return s, nil
}

// toolPrefix returns the install prefix of a tool found at bin:
// <prefix>/bin/<tool>. Xcode lives in its developer directory instead.
func toolPrefix(name, bin string) string {
	if name == "xcode" {
		if dir := os.Getenv("DEVELOPER_DIR"); dir != "" {
			return dir
		}
		if isDir(xcodeDir) {
			return xcodeDir
		}
	}
	return filepath.Dir(filepath.Dir(bin))
}

func archOf(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i386"
	}
	return goarch
}

var leadingVersion = regexp.MustCompile(`^\d+(\.\d+){0,2}`)

// trimVersion keeps the leading dotted number of a release string such as
// "6.1.0-13-amd64".
func trimVersion(release string) string {
	return leadingVersion.FindString(release)
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
