package buildsys

import (
	"strings"
)

// Plan is an ordered list of steps. Executors must run the steps strictly
// in order: later steps rely on the effects of earlier ones.
type Plan struct {
	Name    string
	Version string
	Steps   []Step

	// Warnings are non-fatal findings made while compiling the plan.
	Warnings []string
}

// Add appends steps to the plan.
func (p *Plan) Add(steps ...Step) {
	p.Steps = append(p.Steps, steps...)
}

// ConfigureArgs returns the flags passed to the first RunConfigure.
func (p *Plan) ConfigureArgs() []string {
	var args []string
	for _, s := range p.Steps {
		switch s := s.(type) {
		case AppendFlag:
			args = append(args, s.Flag)
		case RunConfigure:
			return args
		}
	}
	return args
}

// StepsOf returns the steps of the given kind, in plan order.
func (p *Plan) StepsOf(k Kind) []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Kind() == k {
			out = append(out, s)
		}
	}
	return out
}

// String renders one step per line.
func (p *Plan) String() string {
	var b strings.Builder
	for _, s := range p.Steps {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
