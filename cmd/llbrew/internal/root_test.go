package internal

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/internal/compiler"
	"github.com/goplus/llbrew/pkgs/buildsys"
	"github.com/qiniu/x/log"
)

const snapshot = `os_version: mavericks
arch: x86_64
prefix: /usr/local
tools:
  xcode: /Applications/Xcode.app/Contents/Developer
  clt: ""
packages:
  cscope:
    prefix: /usr/local/opt/cscope
  python:
    prefix: /usr/local/opt/python/Frameworks/Python.framework/Versions/2.7
    framework: true
  python3:
    prefix: /usr/local/opt/python3/Frameworks/Python.framework/Versions/3.4
    framework: true
`

// run executes the root command with a fresh set of globals.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runOn(t, snapshot, args...)
}

// runOn is run against the host described by snap.
func runOn(t *testing.T, snap string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	envPath := filepath.Join(dir, "host.yml")
	if err := os.WriteFile(envPath, []byte(snap), 0o644); err != nil {
		t.Fatal(err)
	}
	configFile, envFile, formulaDir, prefix, verbose = "", "", "", "", false
	planRaw, installDryRun, installForce = false, false, false
	workspaceDir = filepath.Join(dir, "build")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.yml"),
		"--env", envPath,
		"--formula-dir", filepath.Join(dir, "formulas"),
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := run(t, "plan", "--raw", "macvim")
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	for _, want := range []string{
		"env unset PYTHONPATH\n",
		"flag --enable-cscope\n",
		"flag --enable-pythoninterp\n",
		"configure ./configure\n",
		"link /usr/local/Cellar/macvim/7.4-72/bin/gvim -> /usr/local/Cellar/macvim/7.4-72/bin/mvim\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output lacks %q:\n%s", want, out)
		}
	}
}

func TestPlanCommandRawWarnings(t *testing.T) {
	var logged bytes.Buffer
	log.SetOutput(&logged)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	noCscope := strings.Replace(snapshot, "  cscope:\n    prefix: /usr/local/opt/cscope\n", "", 1)
	out, err := runOn(t, noCscope, "plan", "--raw", "macvim")
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	if strings.Contains(out, "--enable-cscope") || strings.Contains(out, "Warning") {
		t.Errorf("raw plan output:\n%s", out)
	}
	if !strings.Contains(logged.String(), "macvim: recommended dependency cscope not found") {
		t.Errorf("warning not logged:\n%s", logged.String())
	}
}

func TestCommandErrorsNotPrinted(t *testing.T) {
	out, err := run(t, "plan", "macvim", "with-perl")
	if err == nil {
		t.Fatal("plan with-perl succeeded")
	}
	if out != "" {
		t.Errorf("error printed by the command itself:\n%s", out)
	}
}

func TestRenderInfoConflicts(t *testing.T) {
	var out bytes.Buffer
	d := &formula.Descriptor{
		Name:    "demo",
		Version: "1.0",
		Conflicts: []formula.Conflict{
			{Names: []string{"openssl", "libressl"}, Reason: "one TLS library"},
		},
	}
	if err := newRenderer(&out).info(d); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Conflicts: openssl, libressl (one TLS library)\n") {
		t.Errorf("info output:\n%s", out.String())
	}
}

func TestPlanCommandStyled(t *testing.T) {
	out, err := run(t, "plan", "macvim", "with-python3")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.HasPrefix(out, "macvim 7.4-72\n") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "--enable-python3interp=dynamic") {
		t.Errorf("dual python flags missing:\n%s", out)
	}
}

func TestPlanCommandErrors(t *testing.T) {
	_, err := run(t, "plan", "macvim", "with-lua")
	if !errors.Is(err, compiler.ErrMissingDependency) {
		t.Errorf("with-lua = %v, want ErrMissingDependency", err)
	}
	_, err = run(t, "plan", "macvim", "with-perl")
	if !errors.Is(err, compiler.ErrUnknownToggle) {
		t.Errorf("with-perl = %v, want ErrUnknownToggle", err)
	}
	if _, err = run(t, "plan", "nonexistent"); err == nil {
		t.Error("plan of an unknown formula succeeded")
	}
}

func TestCaveatsCommand(t *testing.T) {
	out, err := run(t, "caveats", "macvim")
	if err != nil {
		t.Fatalf("caveats: %v", err)
	}
	if !strings.Contains(out, "MacVim.app installed to:\n  /usr/local/Cellar/macvim/7.4-72\n") {
		t.Errorf("caveats = %q", out)
	}
	if strings.Contains(out, "dynamic libraries") {
		t.Errorf("dual python notice without python3:\n%s", out)
	}
}

func TestInfoCommand(t *testing.T) {
	out, err := run(t, "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "macvim\n") {
		t.Errorf("info lacks macvim:\n%s", out)
	}

	out, err = run(t, "info", "macvim")
	if err != nil {
		t.Fatalf("info macvim: %v", err)
	}
	for _, want := range []string{"macvim 7.4-72", "override-system-vim", "python3", "luajit"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}
}

func TestMatrixCommand(t *testing.T) {
	out, err := run(t, "matrix", "macvim")
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	// 2 options and 5 non-required dependencies
	if !strings.Contains(out, "128 combinations") {
		t.Errorf("matrix summary missing:\n%s", out)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "OK") {
		t.Errorf("matrix should report both outcomes:\n%s", out)
	}
}

func TestRenderPlan(t *testing.T) {
	var out bytes.Buffer
	p := &buildsys.Plan{Name: "demo", Version: "1.0", Warnings: []string{"cscope dependency cscope not found"}}
	p.Add(buildsys.AppendFlag{Flag: "--x"}, buildsys.RunConfigure{Script: "./configure"})
	if err := newRenderer(&out).plan(p); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"demo 1.0\n", "  1 flag", "--x\n", "  2 configure", "Warning: cscope"} {
		if !strings.Contains(got, want) {
			t.Errorf("render lacks %q:\n%s", want, got)
		}
	}
}

func TestInstallCommandDryRun(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	body := []byte("hello\n")
	if err := tw.WriteHeader(&tar.Header{Name: "hello-1.0/hello.txt", Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body))}); err != nil {
		t.Fatal(err)
	}
	tw.Write(body)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	archive := filepath.Join(dir, "hello-1.0.tar")
	if err := os.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(buf.Bytes())

	formulas := filepath.Join(dir, "formulas")
	if err := os.MkdirAll(formulas, 0o755); err != nil {
		t.Fatal(err)
	}
	desc := `name: hello
url: https://example.org/hello-1.0.tar
version: "1.0"
checksum: sha256:` + hex.EncodeToString(sum[:]) + `
install:
  - {src: hello.txt, dst: "{{.Prefix}}"}
caveats:
  - text: hello is installed to {{.Prefix}}
`
	if err := os.WriteFile(filepath.Join(formulas, "hello.yml"), []byte(desc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--formula-dir", formulas, "install", "--dry-run", "hello", archive)
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hello is installed to /usr/local/Cellar/hello/1.0") {
		t.Errorf("caveats missing:\n%s", out)
	}

	_, err = run(t, "--formula-dir", formulas, "install", "--dry-run", "hello", filepath.Join(dir, "missing.tar"))
	if err == nil {
		t.Error("install of a missing archive succeeded")
	}
}
