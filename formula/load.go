package formula

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goplus/llbrew/pkgs/hostenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a descriptor that fails validation.
var ErrInvalid = errors.New("invalid descriptor")

// Parse reads and validates a descriptor from either provided data or a file path.
// If data is non-nil, it is used directly and the file parameter is only used
// in error messages. Otherwise, the file is read from the provided path.
func Parse(file string, data []byte) (*Descriptor, error) {
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

	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return &d, nil
}

// Validate checks the descriptor for structural problems. All problems are
// reported at once, wrapped in ErrInvalid.
func (d *Descriptor) Validate() error {
	v := &validator{d: d, names: map[string]string{}}
	v.run()
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(v.problems, "; "))
}

type validator struct {
	d        *Descriptor
	names    map[string]string // toggle name -> "option" or "dependency"
	problems []string
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) run() {
	d := v.d
	if d.Name == "" {
		v.addf("name is empty")
	}
	if d.URL == "" {
		v.addf("url is empty")
	}
	if d.Version == "" {
		v.addf("version is empty")
	}
	if d.MinOS != "" {
		if _, err := hostenv.NormalizeOS(d.MinOS); err != nil {
			v.addf("min_os: %v", err)
		}
	}

	for _, o := range d.Options {
		v.declare(o.Name, "option")
	}
	for _, dep := range d.Dependencies {
		v.declare(dep.Name, "dependency")
		if dep.Level == 0 {
			v.addf("dependency %s: level is missing", dep.Name)
		}
		if dep.Kind != "" && dep.Kind != KindFormula && dep.Kind != KindTool {
			v.addf("dependency %s: unknown kind %q", dep.Name, dep.Kind)
		}
		if dep.When != nil {
			if !dep.When.HostOnly() {
				v.addf("dependency %s: when may only test os and tools", dep.Name)
			}
			v.condition("dependency "+dep.Name, dep.When)
		}
	}

	for _, c := range d.Conflicts {
		if len(c.Names) < 2 {
			v.addf("conflict %v: needs at least two names", c.Names)
		}
		for _, name := range c.Names {
			if _, ok := v.names[name]; !ok {
				v.addf("conflict: unknown name %q", name)
			}
		}
	}
	v.bindings()

	for _, e := range d.Env {
		switch e.Op {
		case "", EnvSet, EnvUnset, EnvPrepend:
		default:
			v.addf("env %s: unknown op %q", e.Key, e.Op)
		}
		if e.Key == "" {
			v.addf("env: key is empty")
		}
		v.condition("env "+e.Key, e.When)
	}
	for _, f := range d.Flags {
		if f.Value == "" {
			v.addf("flags: empty flag")
		}
		v.condition("flag "+f.Value, f.When)
	}
	for _, p := range d.Patches {
		v.patch(p)
	}
	if a := d.Artifacts; a != nil {
		v.option("artifacts", a.Option)
		if len(a.Build.Args) == 0 {
			v.addf("artifacts: build command is empty")
		}
		if len(a.Skip) == 0 {
			v.addf("artifacts: skip patches are empty")
		}
		for _, p := range a.Skip {
			v.patch(p)
		}
	}
	for _, in := range d.Install {
		if in.Src == "" || in.Dst == "" {
			v.addf("install: src and dst are required")
		}
	}
	for _, l := range d.Links {
		v.link("links", l)
	}
	if o := d.Override; o != nil {
		v.option("override", o.Option)
		v.link("override", o.Link)
	}
	for _, n := range d.Caveats {
		v.condition("caveat", n.When)
	}
	for _, n := range d.Warnings {
		v.condition("warning", n.When)
	}
}

func (v *validator) declare(name, what string) {
	if name == "" {
		v.addf("%s with empty name", what)
		return
	}
	if prev, ok := v.names[name]; ok {
		v.addf("%s %s: name already used by a %s", what, name, prev)
		return
	}
	v.names[name] = what
}

func (v *validator) option(where, name string) {
	if v.names[name] != "option" {
		v.addf("%s: unknown option %q", where, name)
	}
}

func (v *validator) bindings() {
	seen := map[string]bool{}
	for _, b := range v.d.Bindings {
		if b.Name == "" {
			v.addf("binding with empty name")
		}
		if seen[b.Name] {
			v.addf("binding %s: duplicated", b.Name)
		}
		seen[b.Name] = true
		if len(b.Members) < 2 {
			v.addf("binding %s: needs at least two members", b.Name)
		}
		if len(b.Flags) == 0 {
			v.addf("binding %s: flags are empty", b.Name)
		}
		for _, m := range b.Members {
			dep, ok := v.d.Dependency(m)
			if !ok {
				v.addf("binding %s: unknown member %q", b.Name, m)
				continue
			}
			if dep.Level == Required {
				v.addf("binding %s: member %s is required", b.Name, m)
			}
		}
	}
}

func (v *validator) patch(p Patch) {
	where := "patch " + p.File
	if p.File == "" || p.Pattern == "" {
		v.addf("patch: file and pattern are required")
		return
	}
	switch p.Phase {
	case "", PhaseBuild, PhaseInstall:
	default:
		v.addf("%s: unknown phase %q", where, p.Phase)
	}
	if p.Regexp {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			v.addf("%s: %v", where, err)
		}
	}
	v.condition(where, p.When)
}

func (v *validator) link(where string, l Link) {
	if l.Dir == "" || l.Target == "" || len(l.Names) == 0 {
		v.addf("%s: dir, target and names are required", where)
	}
	if slices.Contains(l.Names, "") {
		v.addf("%s: empty link name", where)
	}
}

func (v *validator) condition(where string, c *Condition) {
	if c == nil {
		return
	}
	if c.OS != "" {
		if _, err := semver.NewConstraint(c.OS); err != nil {
			v.addf("%s: os constraint %q: %v", where, c.OS, err)
		}
	}
	check := func(clause string, entries []string, want func(name string) bool) {
		for _, e := range entries {
			name, _ := Negated(e)
			if !want(name) {
				v.addf("%s: %s: unknown name %q", where, clause, name)
			}
		}
	}
	isDep := func(name string) bool { return v.names[name] == "dependency" }
	check("with", c.With, isDep)
	check("framework", c.Framework, isDep)
	check("system", c.System, isDep)
	check("foreign_arch", c.ForeignArch, isDep)
	check("options", c.Options, func(name string) bool { return v.names[name] == "option" })
	check("dual", c.Dual, func(name string) bool {
		_, ok := v.d.Binding(name)
		return ok
	})
	check("tools", c.Tools, func(name string) bool { return name != "" })
}
