package env

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the user cache and config directories at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("LocalAppData", filepath.Join(dir, "cache"))
	t.Setenv("AppData", filepath.Join(dir, "config"))
	return dir
}

func TestFormulaDir(t *testing.T) {
	isolate(t)

	formulaDir, err := FormulaDir()
	if err != nil {
		t.Fatalf("FormulaDir() returned error: %v", err)
	}

	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		t.Fatalf("os.UserCacheDir() returned error: %v", err)
	}
	expectedDir := filepath.Join(userCacheDir, ".llbrew", "formulas")
	if formulaDir != expectedDir {
		t.Errorf("FormulaDir() = %q, want %q", formulaDir, expectedDir)
	}

	info, err := os.Stat(formulaDir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("FormulaDir() created a file instead of a directory")
	}
	if mode := info.Mode().Perm(); mode != 0700 {
		t.Errorf("Directory has permissions %v, want %v", mode, os.FileMode(0700))
	}
}

// TestFormulaDirIdempotent verifies that multiple calls return the same
// result without side effects.
func TestFormulaDirIdempotent(t *testing.T) {
	isolate(t)

	dir1, err := FormulaDir()
	if err != nil {
		t.Fatalf("First FormulaDir() call failed: %v", err)
	}
	dir2, err := FormulaDir()
	if err != nil {
		t.Fatalf("Second FormulaDir() call failed: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("FormulaDir() not idempotent: first call = %q, second call = %q", dir1, dir2)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if conf.Prefix != DefaultPrefix || conf.LogLevel != "info" || conf.FormulaDir != "" {
		t.Errorf("defaults = %+v", conf)
	}
}

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	data := "prefix: /opt/homebrew\nformula_dir: /tmp/formulas\nlog_level: debug\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Config{Prefix: "/opt/homebrew", FormulaDir: "/tmp/formulas", LogLevel: "debug"}
	if *conf != want {
		t.Errorf("LoadConfig = %+v, want %+v", *conf, want)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if conf.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %q", conf.Prefix)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field": "prefx: /opt\n",
		"bad level":     "log_level: loud\n",
	} {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(file); err == nil {
				t.Error("LoadConfig succeeded")
			}
		})
	}
}
