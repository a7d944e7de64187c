// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
package env

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const appName = ".llbrew"

func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, appName), nil
}

// FormulaDir returns <WorkDir>/formulas, creating it with 0700 permissions
// if it doesn't exist.
func FormulaDir() (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	formulaDir := filepath.Join(workDir, "formulas")
	if err := os.MkdirAll(formulaDir, 0700); err != nil {
		return "", err
	}
	return formulaDir, nil
}

// ConfigFile returns the default location of the user configuration.
func ConfigFile() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "llbrew", "config.yml"), nil
}

// Config holds user settings. Command-line flags take precedence.
type Config struct {
	// Prefix is the install root, "/usr/local" when empty.
	Prefix string `yaml:"prefix,omitempty"`
	// FormulaDir holds local descriptors shadowing the built-in ones.
	FormulaDir string `yaml:"formula_dir,omitempty"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`
}

const DefaultPrefix = "/usr/local"

// LoadConfig reads the configuration at path. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	conf := &Config{Prefix: DefaultPrefix, LogLevel: "info"}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	switch conf.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%s: unknown log_level %q", path, conf.LogLevel)
	}
	if conf.Prefix == "" {
		conf.Prefix = DefaultPrefix
	}
	return conf, nil
}
