package hostenv

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSnapshot(t *testing.T) {
	s, err := LoadSnapshot("host.yml", []byte(`
os_version: mountain_lion
arch: x86_64
prefix: /usr/local
tools:
  xcode: /Applications/Xcode.app/Contents/Developer
  clt:
packages:
  python:
    prefix: /System/Library/Frameworks/Python.framework/Versions/2.7
    framework: true
    system: true
    archs: [i386, x86_64]
`))
	require.NoError(t, err)

	var env Environment = s
	assert.Equal(t, "10.8", env.OSVersion())
	assert.Equal(t, "x86_64", env.Arch())
	assert.Equal(t, "/usr/local", env.Prefix())
	assert.True(t, env.HasTool("clt"))
	assert.False(t, env.HasTool("make"))
	assert.Equal(t, "/Applications/Xcode.app/Contents/Developer", env.ToolPrefix("xcode"))

	p, ok := env.Lookup("python")
	require.True(t, ok)
	assert.True(t, p.System)
	assert.Equal(t, "/System/Library/Frameworks/Python.framework/Versions/2.7/lib", p.LibDir())
	assert.Equal(t, "/System/Library/Frameworks/Python.framework/Versions/2.7/Frameworks", p.FrameworkDir())

	assert.True(t, p.Supports("x86_64"))
	assert.False(t, p.Supports("arm64"))
	assert.True(t, Package{}.Supports("arm64"))

	_, ok = env.Lookup("lua")
	assert.False(t, ok)
}

func TestLoadSnapshotErrors(t *testing.T) {
	_, err := LoadSnapshot("host.yml", []byte("os_version: someday\n"))
	assert.Error(t, err)

	_, err = LoadSnapshot("host.yml", []byte("osversion: 10.9\n"))
	assert.Error(t, err)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.yml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetect(t *testing.T) {
	prefix := t.TempDir()
	for _, dir := range []string{
		"opt/cscope/bin",
		"opt/python/Frameworks/Python.framework",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(prefix, filepath.FromSlash(dir)), 0o755))
	}

	s, err := Detect(prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix, s.Prefix())
	assert.Equal(t, archOf(runtime.GOARCH), s.Arch())

	cscope, ok := s.Lookup("cscope")
	require.True(t, ok)
	assert.False(t, cscope.Framework)
	assert.Equal(t, filepath.Join(prefix, "opt", "cscope"), cscope.Prefix)

	python, ok := s.Lookup("python")
	require.True(t, ok)
	assert.True(t, python.Framework)
	assert.False(t, python.System)
}

func TestDetectMissingOpt(t *testing.T) {
	s, err := Detect(filepath.Join(t.TempDir(), "nothing"))
	require.NoError(t, err)
	_, ok := s.Lookup("cscope")
	assert.False(t, ok)
}

func TestArchOf(t *testing.T) {
	assert.Equal(t, "x86_64", archOf("amd64"))
	assert.Equal(t, "i386", archOf("386"))
	assert.Equal(t, "arm64", archOf("arm64"))
}

func TestTrimVersion(t *testing.T) {
	assert.Equal(t, "6.1.0", trimVersion("6.1.0-13-amd64"))
	assert.Equal(t, "10.9.5", trimVersion("10.9.5"))
	assert.Equal(t, "23.1", trimVersion("23.1"))
	assert.Equal(t, "", trimVersion("unknown"))
}
