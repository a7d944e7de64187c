// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/pkgs/hostenv"
)

// depState is the resolution of one dependency.
type depState struct {
	spec     *formula.Dependency
	level    formula.Level
	explicit bool // named by the request
	active   bool // its when predicate holds on this host
	enabled  bool
	present  bool
	pkg      hostenv.Package
}

// state is everything resolved from (descriptor, request, environment).
// It is built once per compilation and only read afterwards.
type state struct {
	desc *formula.Descriptor
	env  hostenv.Environment

	osVersion string
	host      *semver.Version

	opts map[string]bool
	deps map[string]*depState
	dual map[string]bool

	warnings []string
}

func resolve(desc *formula.Descriptor, req formula.Request, env hostenv.Environment) (*state, error) {
	s := &state{
		desc: desc,
		env:  env,
		opts: make(map[string]bool, len(desc.Options)),
		deps: make(map[string]*depState, len(desc.Dependencies)),
		dual: make(map[string]bool, len(desc.Bindings)),
	}
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkHost(); err != nil {
		return nil, err
	}
	for _, o := range desc.Options {
		s.opts[o.Name] = o.Default
		if on, ok := req.Options[o.Name]; ok {
			s.opts[o.Name] = on
		}
	}
	if err := s.resolveDeps(req); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(); err != nil {
		return nil, err
	}
	for _, b := range desc.Bindings {
		s.dual[b.Name] = s.allEnabled(b.Members)
	}
	return s, nil
}

// checkRequest rejects toggles the descriptor does not declare, and
// required dependencies turned off.
func (s *state) checkRequest(req formula.Request) error {
	for _, name := range sortedKeys(req.Options) {
		if _, ok := s.desc.Option(name); !ok {
			return s.fail(ErrUnknownToggle, name, "no such option")
		}
	}
	for _, name := range sortedKeys(req.Deps) {
		dep, ok := s.desc.Dependency(name)
		if !ok {
			return s.fail(ErrUnknownToggle, name, "no such dependency")
		}
		t := req.Deps[name]
		level := dep.Level
		if t.Level != 0 {
			level = t.Level
		}
		if level == formula.Required && !t.With {
			return s.fail(ErrConflictingOptions, name, "a required dependency cannot be turned off")
		}
	}
	return nil
}

func (s *state) checkHost() error {
	raw := s.env.OSVersion()
	if raw == "" {
		return s.fail(ErrUnsupportedEnvironment, "", "host OS version is unknown")
	}
	v, err := hostenv.NormalizeOS(raw)
	if err != nil {
		return s.fail(ErrUnsupportedEnvironment, "", "%v", err)
	}
	if s.desc.MinOS != "" {
		floor, err := hostenv.NormalizeOS(s.desc.MinOS)
		if err != nil {
			return s.fail(ErrInvalidDescriptor, "", "min_os: %v", err)
		}
		if hostenv.CompareOS(v, floor) < 0 {
			return s.fail(ErrUnsupportedEnvironment, "", "requires OS %s or newer, host is %s", floor, v)
		}
	}
	if s.env.Arch() == "" {
		return s.fail(ErrUnsupportedEnvironment, "", "host architecture is unknown")
	}
	if s.env.Prefix() == "" {
		return s.fail(ErrUnsupportedEnvironment, "", "package manager prefix is unknown")
	}
	if s.host, err = semver.NewVersion(hostenv.MajorMinor(v)); err != nil {
		return s.fail(ErrUnsupportedEnvironment, "", "%v", err)
	}
	s.osVersion = v
	return nil
}

func (s *state) resolveDeps(req formula.Request) error {
	for i := range s.desc.Dependencies {
		dep := &s.desc.Dependencies[i]
		d := &depState{spec: dep, level: dep.Level}
		s.deps[dep.Name] = d

		t, explicit := req.Deps[dep.Name]
		d.explicit = explicit
		if explicit && t.Level != 0 {
			d.level = t.Level
		}

		active, err := s.match(dep.When)
		if err != nil {
			return err
		}
		d.active = active
		if !active {
			if explicit && t.With {
				return s.fail(ErrUnsupportedEnvironment, dep.Name, "dependency is not available on this host")
			}
			continue
		}

		switch {
		case d.level == formula.Required:
			d.enabled = true
		case explicit:
			d.enabled = t.With
		default:
			d.enabled = d.level == formula.Recommended
		}
		if !d.enabled {
			continue
		}
		if dep.IsTool() {
			d.present = s.env.HasTool(dep.Name)
		} else {
			d.pkg, d.present = s.env.Lookup(dep.Name)
		}
	}

	missing := func(d *depState) bool { return d.enabled && !d.present }

	for _, dep := range s.desc.Dependencies {
		if d := s.deps[dep.Name]; missing(d) && d.level == formula.Required {
			return s.fail(ErrMissingDependency, dep.Name, "required %s not found", kindOf(d.spec))
		}
	}
	for _, b := range s.desc.Bindings {
		if !s.allEnabled(b.Members) {
			continue
		}
		if !slices.ContainsFunc(b.Members, func(m string) bool { return s.deps[m].present }) {
			return s.fail(ErrUnsupportedEnvironment, b.Name,
				"%s requested together but none is installed", strings.Join(b.Members, " and "))
		}
	}
	for _, dep := range s.desc.Dependencies {
		d := s.deps[dep.Name]
		if !missing(d) {
			continue
		}
		if d.explicit {
			return s.fail(ErrMissingDependency, dep.Name, "requested %s not found", kindOf(d.spec))
		}
		d.enabled = false
		s.warnings = append(s.warnings,
			fmt.Sprintf("%s dependency %s not found; building without it", d.level, dep.Name))
	}
	return nil
}

func (s *state) checkConflicts() error {
	for _, c := range s.desc.Conflicts {
		if !s.allEnabled(c.Names) {
			continue
		}
		detail := strings.Join(c.Names, ", ") + " cannot be enabled together"
		if c.Reason != "" {
			detail += ": " + c.Reason
		}
		return s.fail(ErrConflictingOptions, c.Names[0], "%s", detail)
	}
	return nil
}

// enabled reports whether the option or dependency called name is on.
func (s *state) enabled(name string) bool {
	if d, ok := s.deps[name]; ok {
		return d.enabled
	}
	return s.opts[name]
}

func (s *state) allEnabled(names []string) bool {
	for _, n := range names {
		if !s.enabled(n) {
			return false
		}
	}
	return len(names) > 0
}

// installed returns the package of an enabled, present formula dependency.
func (s *state) installed(name string) (hostenv.Package, bool) {
	d, ok := s.deps[name]
	if !ok || !d.enabled || !d.present || d.spec.IsTool() {
		return hostenv.Package{}, false
	}
	return d.pkg, true
}

// match evaluates a condition against the resolved state. A nil condition
// always holds.
func (s *state) match(c *formula.Condition) (bool, error) {
	if c == nil {
		return true, nil
	}
	if c.OS != "" {
		con, err := semver.NewConstraint(c.OS)
		if err != nil {
			return false, s.fail(ErrInvalidDescriptor, "", "os constraint %q: %v", c.OS, err)
		}
		if !con.Check(s.host) {
			return false, nil
		}
	}
	holds := func(entries []string, test func(name string) bool) bool {
		for _, e := range entries {
			name, neg := formula.Negated(e)
			if test(name) == neg {
				return false
			}
		}
		return true
	}
	isFramework := func(name string) bool {
		p, ok := s.installed(name)
		return ok && p.Framework
	}
	isSystem := func(name string) bool {
		p, ok := s.installed(name)
		return ok && p.System
	}
	isForeign := func(name string) bool {
		p, ok := s.installed(name)
		return ok && !p.Supports(s.env.Arch())
	}
	return holds(c.Tools, s.env.HasTool) &&
		holds(c.With, s.enabled) &&
		holds(c.Options, func(name string) bool { return s.opts[name] }) &&
		holds(c.Framework, isFramework) &&
		holds(c.System, isSystem) &&
		holds(c.Dual, func(name string) bool { return s.dual[name] }) &&
		holds(c.ForeignArch, isForeign), nil
}

func kindOf(dep *formula.Dependency) string {
	if dep.IsTool() {
		return "tool"
	}
	return "package"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
