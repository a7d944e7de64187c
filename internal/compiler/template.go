package compiler

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/goplus/llbrew/pkgs/hostenv"
)

// templateData is the dot of every descriptor template.
type templateData struct {
	Name      string
	Version   string
	Arch      string
	OSVersion string // major.minor
	Root      string // package manager prefix
	Prefix    string // keg of this formula: <Root>/Cellar/<Name>/<Version>
	Bin       string
}

// expander expands descriptor strings. The first failure sticks; later
// calls return their input unchanged.
type expander struct {
	s     *state
	data  templateData
	funcs template.FuncMap
	err   error
}

func newExpander(s *state) *expander {
	keg := path.Join(s.env.Prefix(), "Cellar", s.desc.Name, s.desc.Version)
	x := &expander{
		s: s,
		data: templateData{
			Name:      s.desc.Name,
			Version:   s.desc.Version,
			Arch:      s.env.Arch(),
			OSVersion: hostenv.MajorMinor(s.osVersion),
			Root:      s.env.Prefix(),
			Prefix:    keg,
			Bin:       path.Join(keg, "bin"),
		},
	}
	x.funcs = template.FuncMap{
		"dep":   x.dep,
		"tool":  x.tool,
		"quote": regexp.QuoteMeta,
	}
	return x
}

func (x *expander) dep(name string) (hostenv.Package, error) {
	p, ok := x.s.installed(name)
	if !ok {
		return hostenv.Package{}, fmt.Errorf("dependency %s is not enabled", name)
	}
	return p, nil
}

func (x *expander) tool(name string) (string, error) {
	if !x.s.env.HasTool(name) {
		return "", fmt.Errorf("tool %s is not installed", name)
	}
	return x.s.env.ToolPrefix(name), nil
}

func (x *expander) expand(text string) string {
	if x.err != nil || !strings.Contains(text, "{{") {
		return text
	}
	t, err := template.New(x.s.desc.Name).Option("missingkey=error").Funcs(x.funcs).Parse(text)
	if err == nil {
		var b strings.Builder
		if err = t.Execute(&b, x.data); err == nil {
			return b.String()
		}
	}
	x.err = x.s.fail(ErrInvalidDescriptor, "", "template %q: %v", text, err)
	return text
}

func (x *expander) expandAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = x.expand(t)
	}
	return out
}
