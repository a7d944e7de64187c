// Package autotools carries out build plans with the classic
// configure/make/make-install workflow.
package autotools

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/llbrew/pkgs/buildsys"
	"github.com/qiniu/x/log"
)

// AutoTools drives Autotools-style builds inside a source tree. Environment
// changes stay private to the commands it spawns.
type AutoTools struct {
	sourceDir string
	env       map[string]string
	unset     map[string]bool
	dryRun    bool

	Stdout io.Writer
	Stderr io.Writer
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns an AutoTools working in sourceDir. With dryRun set, steps are
// only logged.
func New(sourceDir string, dryRun bool) *AutoTools {
	return &AutoTools{
		sourceDir: sourceDir,
		env:       make(map[string]string),
		unset:     make(map[string]bool),
		dryRun:    dryRun,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Source overrides the source directory.
func (a *AutoTools) Source(dir string) { a.sourceDir = dir }

// Env applies op to key for every command spawned later.
func (a *AutoTools) Env(op buildsys.EnvOp, key, value string) {
	switch op {
	case buildsys.EnvUnset:
		delete(a.env, key)
		a.unset[key] = true
	case buildsys.EnvPrepend:
		if cur := a.lookupEnv(key); cur != "" {
			value += " " + cur
		}
		fallthrough
	default:
		a.env[key] = value
		delete(a.unset, key)
	}
}

// Environ returns the environment commands run with, sorted by key.
func (a *AutoTools) Environ() []string {
	return mergeEnv(os.Environ(), a.env, a.unset)
}

func (a *AutoTools) lookupEnv(key string) string {
	if v, ok := a.env[key]; ok {
		return v
	}
	if a.unset[key] {
		return ""
	}
	return os.Getenv(key)
}

// Configure runs the configure script of the source tree with args.
func (a *AutoTools) Configure(script string, args ...string) error {
	return a.run("", script, args)
}

// Run runs args[0] with the remaining arguments in dir.
func (a *AutoTools) Run(dir string, args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("run %s: empty command", dir)
	}
	return a.run(dir, args[0], args[1:])
}

// Patch applies a ReplaceInFile step to its file in place.
func (a *AutoTools) Patch(step buildsys.ReplaceInFile) error {
	file := a.path(step.File)
	if a.dryRun {
		log.Infof("would patch %s", file)
		return nil
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	patched, err := step.Apply(content)
	if err != nil {
		return err
	}
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	return os.WriteFile(file, patched, fi.Mode().Perm())
}

// Install copies src, file or tree, into the directory dst.
func (a *AutoTools) Install(src, dst string) error {
	from := a.path(src)
	to := filepath.Join(dst, filepath.Base(from))
	if a.dryRun {
		log.Infof("would install %s to %s", from, to)
		return nil
	}
	fi, err := os.Stat(from)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	if fi.IsDir() {
		if err := os.RemoveAll(to); err != nil {
			return err
		}
		return os.CopyFS(to, os.DirFS(from))
	}
	return copyFile(from, to, fi.Mode().Perm())
}

// Link creates link pointing at target, replacing an existing link.
func (a *AutoTools) Link(target, link string) error {
	if a.dryRun {
		log.Infof("would link %s -> %s", link, target)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	if fi, err := os.Lstat(link); err == nil {
		if fi.Mode()&fs.ModeSymlink == 0 {
			return fmt.Errorf("link %s: file exists", link)
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(target, link)
}

func (a *AutoTools) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(a.sourceDir, filepath.FromSlash(rel))
}

func (a *AutoTools) run(dir, name string, args []string) error {
	workDir := a.path(dir)
	if a.dryRun {
		log.Infof("would run [%s] %s %s", workDir, name, strings.Join(args, " "))
		return nil
	}
	cmd := exec.Command(name, args...)
	cmd.Dir = workDir
	cmd.Stdout = a.Stdout
	cmd.Stderr = a.Stderr
	cmd.Env = a.Environ()
	return cmd.Run()
}

// mergeEnv returns base with every key in overrides replaced or appended
// and every key in unset removed, sorted by key.
func mergeEnv(base []string, overrides map[string]string, unset map[string]bool) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}
	for k := range unset {
		delete(envMap, k)
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
