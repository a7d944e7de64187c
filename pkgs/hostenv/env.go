// Package hostenv describes the host a build plan is compiled for.
package hostenv

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"slices"

	"gopkg.in/yaml.v3"
)

// Environment is a read-only view of the build host. Implementations must
// return the same answers for the whole lifetime of a compilation.
type Environment interface {
	// OSVersion returns the dotted OS version, e.g. "10.9".
	OSVersion() string
	// Arch returns the preferred CPU architecture, e.g. "x86_64".
	Arch() string
	// Prefix returns the root of the package manager, e.g. "/usr/local".
	Prefix() string

	HasTool(name string) bool
	ToolPrefix(name string) string

	// Lookup returns the installed package called name.
	Lookup(name string) (Package, bool)
}

// Package is an installed dependency.
type Package struct {
	Prefix    string `yaml:"prefix"`
	Framework bool   `yaml:"framework,omitempty"` // framework-style install
	System    bool   `yaml:"system,omitempty"`    // provided by the OS, not brewed

	// Archs lists the architectures the package is built for, empty when
	// unknown.
	Archs []string `yaml:"archs,omitempty"`
}

// Supports reports whether the package can be loaded on arch. A package
// with unknown architectures is assumed to support every arch.
func (p Package) Supports(arch string) bool {
	return len(p.Archs) == 0 || slices.Contains(p.Archs, arch)
}

// LibDir returns the library directory of the package.
func (p Package) LibDir() string {
	return path.Join(p.Prefix, "lib")
}

// FrameworkDir returns the directory holding the package's frameworks.
func (p Package) FrameworkDir() string {
	return path.Join(p.Prefix, "Frameworks")
}

// Snapshot is a value implementation of Environment.
type Snapshot struct {
	Version      string             `yaml:"os_version"`
	Architecture string             `yaml:"arch"`
	Root         string             `yaml:"prefix"`
	Tools        map[string]string  `yaml:"tools,omitempty"` // name -> prefix, may be empty
	Packages     map[string]Package `yaml:"packages,omitempty"`
}

var _ Environment = (*Snapshot)(nil)

func (s *Snapshot) OSVersion() string { return s.Version }
func (s *Snapshot) Arch() string      { return s.Architecture }
func (s *Snapshot) Prefix() string    { return s.Root }

func (s *Snapshot) HasTool(name string) bool {
	_, ok := s.Tools[name]
	return ok
}

func (s *Snapshot) ToolPrefix(name string) string {
	return s.Tools[name]
}

func (s *Snapshot) Lookup(name string) (Package, bool) {
	p, ok := s.Packages[name]
	return p, ok
}

// AddTool records a developer tool.
func (s *Snapshot) AddTool(name, prefix string) {
	if s.Tools == nil {
		s.Tools = map[string]string{}
	}
	s.Tools[name] = prefix
}

// AddPackage records an installed package.
func (s *Snapshot) AddPackage(name string, p Package) {
	if s.Packages == nil {
		s.Packages = map[string]Package{}
	}
	s.Packages[name] = p
}

// LoadSnapshot reads a snapshot from either provided data or a file path.
// The OS version may be given as a release name ("mavericks").
func LoadSnapshot(file string, data []byte) (*Snapshot, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewReader(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		reader = f
	}

	var s Snapshot
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if s.Version != "" {
		v, err := NormalizeOS(s.Version)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		s.Version = v
	}
	return &s, nil
}
