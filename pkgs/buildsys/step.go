package buildsys

import (
	"strconv"
	"strings"
)

// Kind tags the variant of a Step.
type Kind int

const (
	KindSetEnvVar Kind = iota + 1
	KindAppendFlag
	KindRunConfigure
	KindRunTool
	KindReplaceInFile
	KindInstallPath
	KindCreateLink
)

var kindNames = [...]string{
	KindSetEnvVar:     "env",
	KindAppendFlag:    "flag",
	KindRunConfigure:  "configure",
	KindRunTool:       "run",
	KindReplaceInFile: "inreplace",
	KindInstallPath:   "install",
	KindCreateLink:    "link",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Step is one literal instruction for an executor. The set of steps is
// closed: only the types in this package implement it.
type Step interface {
	Kind() Kind
	// String renders the step on one line. Equal steps render equally.
	String() string

	isStep()
}

// EnvOp is the operation of a SetEnvVar step.
type EnvOp string

const (
	EnvSet     EnvOp = "set"
	EnvUnset   EnvOp = "unset"
	EnvPrepend EnvOp = "prepend" // space-separated, like compiler flags
)

// SetEnvVar changes one variable of the build environment.
type SetEnvVar struct {
	Key   string
	Value string
	Op    EnvOp
}

// AppendFlag adds one argument to the next RunConfigure.
type AppendFlag struct {
	Flag string
}

// RunConfigure runs the configure script with every flag appended so far.
type RunConfigure struct {
	Script string
}

// RunTool runs a command in Dir, relative to the source tree.
type RunTool struct {
	Dir  string
	Args []string
}

// ReplaceInFile replaces every match of Pattern in File. With MustMatch a
// missing pattern fails the step instead of leaving the file alone.
type ReplaceInFile struct {
	File        string
	Pattern     string
	Replacement string
	Regexp      bool
	MustMatch   bool
}

// InstallPath copies Src, relative to the source tree, to Dst.
type InstallPath struct {
	Src string
	Dst string
}

// CreateLink creates a symlink at Link pointing to Target.
type CreateLink struct {
	Target string
	Link   string
}

func (SetEnvVar) Kind() Kind     { return KindSetEnvVar }
func (AppendFlag) Kind() Kind    { return KindAppendFlag }
func (RunConfigure) Kind() Kind  { return KindRunConfigure }
func (RunTool) Kind() Kind       { return KindRunTool }
func (ReplaceInFile) Kind() Kind { return KindReplaceInFile }
func (InstallPath) Kind() Kind   { return KindInstallPath }
func (CreateLink) Kind() Kind    { return KindCreateLink }

func (SetEnvVar) isStep()     {}
func (AppendFlag) isStep()    {}
func (RunConfigure) isStep()  {}
func (RunTool) isStep()       {}
func (ReplaceInFile) isStep() {}
func (InstallPath) isStep()   {}
func (CreateLink) isStep()    {}

func (s SetEnvVar) String() string {
	if s.Op == EnvUnset {
		return "env unset " + s.Key
	}
	op := s.Op
	if op == "" {
		op = EnvSet
	}
	return "env " + string(op) + " " + s.Key + "=" + strconv.Quote(s.Value)
}

func (s AppendFlag) String() string {
	return "flag " + s.Flag
}

func (s RunConfigure) String() string {
	return "configure " + s.Script
}

func (s RunTool) String() string {
	var b strings.Builder
	b.WriteString("run ")
	if s.Dir != "" {
		b.WriteString("[" + s.Dir + "] ")
	}
	quoted := make([]string, len(s.Args))
	for i, a := range s.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		quoted[i] = a
	}
	b.WriteString(strings.Join(quoted, " "))
	return b.String()
}

func (s ReplaceInFile) String() string {
	kind := "text"
	if s.Regexp {
		kind = "regexp"
	}
	return "inreplace " + s.File + " " + kind + " " + strconv.Quote(s.Pattern) + " -> " + strconv.Quote(s.Replacement)
}

func (s InstallPath) String() string {
	return "install " + s.Src + " -> " + s.Dst
}

func (s CreateLink) String() string {
	return "link " + s.Link + " -> " + s.Target
}
