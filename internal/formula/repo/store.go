// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/formulas"
	"github.com/goplus/llbrew/internal/env"
	"github.com/qiniu/x/log"
)

// ErrNotFound is returned when no descriptor carries the requested name.
var ErrNotFound = errors.New("formula not found")

const ext = ".yml"

// Store resolves descriptors by name. Files in the local formula directory
// shadow the descriptors embedded in the binary.
type Store struct {
	dir string
}

// New creates a new Store rooted at dir. An empty dir only serves the
// embedded descriptors.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the local formula directory.
func (s *Store) Dir() string { return s.dir }

// Load returns the validated descriptor named name.
func (s *Store) Load(name string) (*formula.Descriptor, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid formula name %q", name)
	}
	if s.dir != "" {
		file := filepath.Join(s.dir, name+ext)
		data, err := os.ReadFile(file)
		switch {
		case err == nil:
			log.Debugf("repo: loading %s", file)
			return formula.Parse(file, data)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}
	d, err := formulas.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, err
}

// Names returns the names of every known descriptor, sorted.
func (s *Store) Names() ([]string, error) {
	seen := map[string]bool{}
	for _, n := range formulas.Names() {
		seen[n] = true
	}
	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		for _, e := range entries {
			if name, ok := strings.CutSuffix(e.Name(), ext); ok && !e.IsDir() {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// DefaultDir returns the default directory of local descriptors.
// It creates the directory with 0700 permissions if it doesn't exist.
func DefaultDir() (string, error) {
	return env.FormulaDir()
}
