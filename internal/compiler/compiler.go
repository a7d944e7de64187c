// Package compiler turns a formula descriptor, the toggles requested for it
// and a host snapshot into an ordered build plan. Compilation is a pure
// computation: nothing is executed and the environment is only read.
package compiler

import (
	"path"
	"strings"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/pkgs/buildsys"
	"github.com/goplus/llbrew/pkgs/hostenv"
)

// Compile returns the build plan of desc for the requested toggles on env.
// Identical inputs always yield identical plans. On error no plan is
// returned.
func Compile(desc *formula.Descriptor, req formula.Request, env hostenv.Environment) (*buildsys.Plan, error) {
	s, err := resolve(desc, req, env)
	if err != nil {
		return nil, err
	}
	e := &emitter{
		state: s,
		x:     newExpander(s),
		plan:  &buildsys.Plan{Name: desc.Name, Version: desc.Version},
	}
	e.emit()
	if e.err != nil {
		return nil, e.err
	}
	if e.x.err != nil {
		return nil, e.x.err
	}
	return e.plan, nil
}

// Caveats returns the post-install notice of desc for the requested
// toggles on env.
func Caveats(desc *formula.Descriptor, req formula.Request, env hostenv.Environment) (string, error) {
	s, err := resolve(desc, req, env)
	if err != nil {
		return "", err
	}
	x := newExpander(s)
	texts, err := notices(s, x, desc.Caveats)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", nil
	}
	return strings.Join(texts, "\n\n") + "\n", nil
}

func notices(s *state, x *expander, list []formula.Notice) ([]string, error) {
	var texts []string
	for _, n := range list {
		ok, err := s.match(n.When)
		if err != nil {
			return nil, err
		}
		if ok {
			texts = append(texts, strings.TrimRight(x.expand(n.Text), "\n"))
		}
	}
	return texts, x.err
}

type emitter struct {
	*state
	x    *expander
	plan *buildsys.Plan
	err  error
}

func (e *emitter) add(steps ...buildsys.Step) {
	e.plan.Add(steps...)
}

// when evaluates c, recording the first failure.
func (e *emitter) when(c *formula.Condition) bool {
	if e.err != nil {
		return false
	}
	ok, err := e.match(c)
	if err != nil {
		e.err = err
	}
	return ok
}

func (e *emitter) emit() {
	d := e.desc

	e.environment()
	e.flags()
	e.add(buildsys.RunConfigure{Script: d.ConfigureScript()})
	e.patches(formula.PhaseBuild)
	e.artifacts()
	e.add(buildsys.RunTool{Args: e.x.expandAll(d.BuildCommand())})
	e.patches(formula.PhaseInstall)
	for _, in := range d.Install {
		e.add(buildsys.InstallPath{Src: e.x.expand(in.Src), Dst: e.x.expand(in.Dst)})
	}
	for _, l := range d.Links {
		e.links(l)
	}
	if o := d.Override; o != nil && e.opts[o.Option] {
		e.links(o.Link)
	}

	e.plan.Warnings = append(e.plan.Warnings, e.warnings...)
	texts, err := notices(e.state, e.x, d.Warnings)
	if err != nil && e.err == nil {
		e.err = err
	}
	e.plan.Warnings = append(e.plan.Warnings, texts...)
}

var envOps = map[formula.EnvOp]buildsys.EnvOp{
	"":                 buildsys.EnvSet,
	formula.EnvSet:     buildsys.EnvSet,
	formula.EnvUnset:   buildsys.EnvUnset,
	formula.EnvPrepend: buildsys.EnvPrepend,
}

func (e *emitter) environment() {
	for _, r := range e.desc.Env {
		if e.when(r.When) {
			e.add(buildsys.SetEnvVar{Key: r.Key, Value: e.x.expand(r.Value), Op: envOps[r.Op]})
		}
	}
}

// flags emits the baseline flags, then the flags of enabled dependencies,
// then dual-binding flags in place of their members' own, then the
// conditional flags. A flag is emitted at most once.
func (e *emitter) flags() {
	seen := make(map[string]bool)
	add := func(raw string) {
		f := e.x.expand(raw)
		if seen[f] {
			return
		}
		seen[f] = true
		e.add(buildsys.AppendFlag{Flag: f})
	}

	for _, f := range e.desc.Flags {
		if f.When == nil {
			add(f.Value)
		}
	}
	inDual := make(map[string]bool)
	for _, b := range e.desc.Bindings {
		if e.dual[b.Name] {
			for _, m := range b.Members {
				inDual[m] = true
			}
		}
	}
	for _, dep := range e.desc.Dependencies {
		if e.deps[dep.Name].enabled && !inDual[dep.Name] {
			for _, f := range dep.Flags {
				add(f)
			}
		}
	}
	for _, b := range e.desc.Bindings {
		if e.dual[b.Name] {
			for _, f := range b.Flags {
				add(f)
			}
		}
	}
	for _, f := range e.desc.Flags {
		if f.When != nil && e.when(f.When) {
			add(f.Value)
		}
	}
}

func (e *emitter) patches(phase formula.Phase) {
	for _, p := range e.desc.Patches {
		pp := p.Phase
		if pp == "" {
			pp = formula.PhaseBuild
		}
		if pp == phase && e.when(p.When) {
			e.patch(p)
		}
	}
}

// artifacts emits exactly one of the extra build invocation and the
// patches skipping it.
func (e *emitter) artifacts() {
	a := e.desc.Artifacts
	if a == nil {
		return
	}
	if e.opts[a.Option] {
		e.add(buildsys.RunTool{Dir: e.x.expand(a.Build.Dir), Args: e.x.expandAll(a.Build.Args)})
		return
	}
	for _, p := range a.Skip {
		e.patch(p)
	}
}

func (e *emitter) patch(p formula.Patch) {
	step := buildsys.ReplaceInFile{
		File:        e.x.expand(p.File),
		Pattern:     e.x.expand(p.Pattern),
		Replacement: e.x.expand(p.Replacement),
		Regexp:      p.Regexp,
		MustMatch:   !p.Optional,
	}
	again, err := step.Rematches()
	if err != nil || again {
		if e.err == nil {
			detail := "replacement matches the pattern again"
			if err != nil {
				detail = err.Error()
			}
			e.err = e.fail(ErrInvalidDescriptor, "", "patch %s: %s", step.File, detail)
		}
		return
	}
	e.add(step)
}

func (e *emitter) links(l formula.Link) {
	dir := e.x.expand(l.Dir)
	target := e.x.expand(l.Target)
	if !path.IsAbs(target) {
		target = path.Join(dir, target)
	}
	for _, name := range l.Names {
		e.add(buildsys.CreateLink{Target: target, Link: path.Join(dir, e.x.expand(name))})
	}
}
