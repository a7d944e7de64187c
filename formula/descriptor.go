// Package formula defines the declarative build recipe of a package and the
// toggles a caller may request when compiling it into a build plan.
package formula

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Level is the requirement level of a dependency.
type Level int

const (
	Required Level = iota + 1
	Recommended
	Optional
)

var levelNames = map[Level]string{
	Required:    "required",
	Recommended: "recommended",
	Optional:    "optional",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses "required", "recommended" or "optional".
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown dependency level %q", s)
}

func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	lvl, err := ParseLevel(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*l = lvl
	return nil
}

func (l Level) MarshalYAML() (any, error) {
	return l.String(), nil
}

// Kind tells where a dependency is looked up on the host.
type Kind string

const (
	KindFormula Kind = "formula" // package inventory
	KindTool    Kind = "tool"    // command-line developer tools
)

// EnvOp is the operation of an environment rule.
type EnvOp string

const (
	EnvSet     EnvOp = "set"
	EnvUnset   EnvOp = "unset"
	EnvPrepend EnvOp = "prepend"
)

// Phase places a patch in the build timeline.
type Phase string

const (
	PhaseBuild   Phase = "build"   // after configure, before the build tool runs
	PhaseInstall Phase = "install" // after the build, before files are installed
)

// -----------------------------------------------------------------------------

// Descriptor is the build recipe of a single package. It is created once by
// Parse and must be treated as read-only afterwards.
type Descriptor struct {
	Name     string `yaml:"name"`
	Homepage string `yaml:"homepage,omitempty"`
	URL      string `yaml:"url"`
	Version  string `yaml:"version"`
	Checksum string `yaml:"checksum"`
	Head     Head   `yaml:"head,omitempty"`

	// MinOS is the oldest host OS version the recipe supports.
	MinOS string `yaml:"min_os,omitempty"`

	Options      []Option     `yaml:"options,omitempty"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
	Conflicts    []Conflict   `yaml:"conflicts,omitempty"`
	Bindings     []Binding    `yaml:"bindings,omitempty"`

	Env       []EnvRule  `yaml:"env,omitempty"`
	Flags     []FlagRule `yaml:"flags,omitempty"`
	Configure string     `yaml:"configure,omitempty"`
	Build     []string   `yaml:"build,omitempty"`
	Artifacts *Artifacts `yaml:"artifacts,omitempty"`
	Patches   []Patch    `yaml:"patches,omitempty"`
	Install   []Install  `yaml:"install,omitempty"`
	Links     []Link     `yaml:"links,omitempty"`
	Override  *Override  `yaml:"override,omitempty"`

	Caveats  []Notice `yaml:"caveats,omitempty"`
	Warnings []Notice `yaml:"warnings,omitempty"`
}

// Head points at the development branch of the source.
type Head struct {
	URL    string `yaml:"url,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// Option is a named on/off feature switch.
type Option struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Default     bool   `yaml:"default,omitempty"`
}

// Dependency is a package or tool the build may use.
type Dependency struct {
	Name  string     `yaml:"name"`
	Level Level      `yaml:"level"`
	Kind  Kind       `yaml:"kind,omitempty"`
	When  *Condition `yaml:"when,omitempty"`
	Flags []string   `yaml:"flags,omitempty"`
}

// IsTool reports whether d is looked up among developer tools.
func (d *Dependency) IsTool() bool {
	return d.Kind == KindTool
}

// Conflict lists names that cannot all be enabled together.
type Conflict struct {
	Names  []string `yaml:"names"`
	Reason string   `yaml:"reason,omitempty"`
}

// Binding groups alternative runtime bindings. When every member is
// enabled the members' own flags are replaced by Flags.
type Binding struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
	Flags   []string `yaml:"flags"`
}

// EnvRule mutates one environment variable before configure runs.
type EnvRule struct {
	Key   string     `yaml:"key"`
	Value string     `yaml:"value,omitempty"`
	Op    EnvOp      `yaml:"op,omitempty"`
	When  *Condition `yaml:"when,omitempty"`
}

// FlagRule is a configure flag, unconditional when When is nil.
// A plain YAML string is accepted as an unconditional flag.
type FlagRule struct {
	Value string     `yaml:"value"`
	When  *Condition `yaml:"when,omitempty"`
}

func (f *FlagRule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Value = value.Value
		return nil
	}
	type plain FlagRule
	return value.Decode((*plain)(f))
}

// Command is an external tool invocation.
type Command struct {
	Dir  string   `yaml:"dir,omitempty"`
	Args []string `yaml:"args"`
}

// Artifacts is an optional artifact generation switched by Option: Build
// runs when the option is on, Skip patches the build when it is off.
type Artifacts struct {
	Option string  `yaml:"option"`
	Build  Command `yaml:"build"`
	Skip   []Patch `yaml:"skip"`
}

// Patch is a textual replacement in a source or generated file.
type Patch struct {
	File        string     `yaml:"file"`
	Pattern     string     `yaml:"pattern"`
	Replacement string     `yaml:"replacement"`
	Regexp      bool       `yaml:"regexp,omitempty"`
	Optional    bool       `yaml:"optional,omitempty"` // a missing pattern is not an error
	Phase       Phase      `yaml:"phase,omitempty"`
	When        *Condition `yaml:"when,omitempty"`
}

// Install copies a build output into the keg.
type Install struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// Link creates one symlink per name in Dir, all pointing at Target.
type Link struct {
	Dir    string   `yaml:"dir"`
	Target string   `yaml:"target"`
	Names  []string `yaml:"names"`
}

// Override adds alias links over conventional tool names when Option is on.
type Override struct {
	Option string `yaml:"option"`
	Link   `yaml:",inline"`
}

// Notice is a piece of user-facing text.
type Notice struct {
	Text string     `yaml:"text"`
	When *Condition `yaml:"when,omitempty"`
}

// Condition holds when every non-empty clause holds. List entries may be
// negated with a leading "!".
type Condition struct {
	OS        string   `yaml:"os,omitempty"` // semver constraint, e.g. "<= 10.6"
	Tools     []string `yaml:"tools,omitempty"`
	With      []string `yaml:"with,omitempty"`
	Options   []string `yaml:"options,omitempty"`
	Framework []string `yaml:"framework,omitempty"`
	System    []string `yaml:"system,omitempty"`
	Dual      []string `yaml:"dual,omitempty"`

	// ForeignArch holds for enabled dependencies not built for the host
	// architecture.
	ForeignArch []string `yaml:"foreign_arch,omitempty"`
}

// HostOnly reports whether c only looks at the host.
func (c *Condition) HostOnly() bool {
	return len(c.With) == 0 && len(c.Options) == 0 && len(c.Framework) == 0 &&
		len(c.System) == 0 && len(c.Dual) == 0 && len(c.ForeignArch) == 0
}

// Negated splits a condition entry into its name and negation.
func Negated(entry string) (name string, neg bool) {
	if name, ok := strings.CutPrefix(entry, "!"); ok {
		return name, true
	}
	return entry, false
}

// -----------------------------------------------------------------------------

// Option returns the option named name.
func (d *Descriptor) Option(name string) (*Option, bool) {
	for i := range d.Options {
		if d.Options[i].Name == name {
			return &d.Options[i], true
		}
	}
	return nil, false
}

// Dependency returns the dependency named name.
func (d *Descriptor) Dependency(name string) (*Dependency, bool) {
	for i := range d.Dependencies {
		if d.Dependencies[i].Name == name {
			return &d.Dependencies[i], true
		}
	}
	return nil, false
}

// Binding returns the binding named name.
func (d *Descriptor) Binding(name string) (*Binding, bool) {
	for i := range d.Bindings {
		if d.Bindings[i].Name == name {
			return &d.Bindings[i], true
		}
	}
	return nil, false
}

// ConfigureScript returns the configure script, "./configure" by default.
func (d *Descriptor) ConfigureScript() string {
	if d.Configure == "" {
		return "./configure"
	}
	return d.Configure
}

// BuildCommand returns the build invocation, "make" by default.
func (d *Descriptor) BuildCommand() []string {
	if len(d.Build) == 0 {
		return []string{"make"}
	}
	return d.Build
}
