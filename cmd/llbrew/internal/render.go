package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/pkgs/buildsys"
)

type styles struct {
	title   lipgloss.Style
	kind    lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	caveats lipgloss.Style
}

// renderer prints plans and formulas for humans. Styling is dropped when
// out is not a terminal.
type renderer struct {
	out   io.Writer
	style styles
}

func newRenderer(out io.Writer) *renderer {
	r := lipgloss.NewRenderer(out)
	return &renderer{
		out: out,
		style: styles{
			title:   r.NewStyle().Bold(true),
			kind:    r.NewStyle().Foreground(lipgloss.Color("39")).Width(10),
			muted:   r.NewStyle().Faint(true),
			ok:      r.NewStyle().Foreground(lipgloss.Color("42")),
			warn:    r.NewStyle().Foreground(lipgloss.Color("214")), // orange-ish
			err:     r.NewStyle().Foreground(lipgloss.Color("196")), // red
			caveats: r.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		},
	}
}

func (r *renderer) plan(p *buildsys.Plan) error {
	var b strings.Builder
	b.WriteString(r.style.title.Render(fmt.Sprintf("%s %s", p.Name, p.Version)))
	b.WriteByte('\n')
	for i, s := range p.Steps {
		kind, rest, _ := strings.Cut(s.String(), " ")
		fmt.Fprintf(&b, "%s %s %s\n", r.style.muted.Render(fmt.Sprintf("%3d", i+1)), r.style.kind.Render(kind), rest)
	}
	for _, w := range p.Warnings {
		b.WriteString(r.style.warn.Render("Warning: " + w))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *renderer) info(d *formula.Descriptor) error {
	var b strings.Builder
	b.WriteString(r.style.title.Render(fmt.Sprintf("%s %s", d.Name, d.Version)))
	b.WriteByte('\n')
	if d.Homepage != "" {
		b.WriteString(d.Homepage + "\n")
	}
	if d.MinOS != "" {
		fmt.Fprintf(&b, "Requires OS %s or newer\n", d.MinOS)
	}
	if len(d.Dependencies) > 0 {
		b.WriteString(r.style.title.Render("Dependencies") + "\n")
		for _, dep := range d.Dependencies {
			kind := string(dep.Kind)
			if kind == "" {
				kind = string(formula.KindFormula)
			}
			fmt.Fprintf(&b, "  %-12s %-12s %s\n", dep.Name, dep.Level, r.style.muted.Render(kind))
		}
	}
	if len(d.Options) > 0 {
		b.WriteString(r.style.title.Render("Options") + "\n")
		for _, o := range d.Options {
			def := ""
			if o.Default {
				def = r.style.muted.Render(" (default)")
			}
			fmt.Fprintf(&b, "  %-22s %s%s\n", o.Name, o.Description, def)
		}
	}
	for _, c := range d.Conflicts {
		fmt.Fprintf(&b, "Conflicts: %s", strings.Join(c.Names, ", "))
		if c.Reason != "" {
			b.WriteString(" (" + c.Reason + ")")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *renderer) combination(req string, err error) {
	if req == "" {
		req = "(defaults)"
	}
	if err != nil {
		fmt.Fprintf(r.out, "%s %s\n  %s\n", r.style.err.Render("FAIL"), req, r.style.muted.Render(err.Error()))
		return
	}
	fmt.Fprintf(r.out, "%s   %s\n", r.style.ok.Render("OK"), req)
}

func (r *renderer) caveats(text string) error {
	_, err := fmt.Fprintln(r.out, r.style.title.Render("Caveats")+"\n"+r.style.caveats.Render(strings.TrimRight(text, "\n")))
	return err
}
