package compiler

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/goplus/llbrew/formula"
	"github.com/goplus/llbrew/pkgs/buildsys"
	"github.com/goplus/llbrew/pkgs/hostenv"
	"pgregory.net/rapid"
)

var sentinels = []error{
	ErrMissingDependency,
	ErrUnsupportedEnvironment,
	ErrConflictingOptions,
	ErrUnknownToggle,
	ErrInvalidDescriptor,
}

// drawHost draws a host with a random OS and a random set of packages.
func drawHost(t *rapid.T) *hostenv.Snapshot {
	s := &hostenv.Snapshot{
		Version:      rapid.SampledFrom([]string{"10.5", "10.6", "10.6.8", "10.7", "10.9", "10.10", "11"}).Draw(t, "os"),
		Architecture: rapid.SampledFrom([]string{"x86_64", "i386", "arm64"}).Draw(t, "arch"),
		Root:         "/usr/local",
	}
	if rapid.Bool().Draw(t, "xcode") {
		s.AddTool("xcode", developer)
	}
	if rapid.Bool().Draw(t, "clt") {
		s.AddTool("clt", "/Library/Developer/CommandLineTools")
	}
	for _, name := range []string{"cscope", "lua", "luajit", "python", "python3"} {
		if !rapid.Bool().Draw(t, "has-"+name) {
			continue
		}
		s.AddPackage(name, hostenv.Package{
			Prefix:    "/usr/local/opt/" + name,
			Framework: rapid.Bool().Draw(t, "framework-"+name),
			System:    rapid.Bool().Draw(t, "system-"+name),
		})
	}
	return s
}

// drawRequest picks a subset of the toggle matrix.
func drawRequest(t *rapid.T, d *formula.Descriptor) formula.Request {
	var r formula.Request
	for _, o := range d.Options {
		if rapid.Bool().Draw(t, "set-"+o.Name) {
			r.SetOption(o.Name, rapid.Bool().Draw(t, o.Name))
		}
	}
	for _, dep := range d.Dependencies {
		if dep.Level == formula.Required || !rapid.Bool().Draw(t, "set-"+dep.Name) {
			continue
		}
		r.SetDep(dep.Name, formula.DepToggle{With: rapid.Bool().Draw(t, dep.Name)})
	}
	return r
}

func TestCompileDeterministic(t *testing.T) {
	d := macvim(t)
	rapid.Check(t, func(t *rapid.T) {
		env := drawHost(t)
		req := drawRequest(t, d)

		p1, err1 := Compile(d, req, env)
		p2, err2 := Compile(d, req, env)
		if fmt.Sprint(err1) != fmt.Sprint(err2) {
			t.Fatalf("errors differ: %v vs %v", err1, err2)
		}
		if err1 != nil {
			if !slices.ContainsFunc(sentinels, func(e error) bool { return errors.Is(err1, e) }) {
				t.Fatalf("unexpected error kind: %v", err1)
			}
			if p1 != nil {
				t.Fatalf("plan returned with error %v", err1)
			}
			return
		}
		if p1.String() != p2.String() || !slices.Equal(p1.Warnings, p2.Warnings) {
			t.Fatalf("plans differ:\n%s\n---\n%s", p1, p2)
		}
	})
}

func TestPlanInvariants(t *testing.T) {
	d := macvim(t)
	rapid.Check(t, func(t *rapid.T) {
		env := drawHost(t)
		req := drawRequest(t, d)
		p, err := Compile(d, req, env)
		if err != nil {
			return
		}

		configures := 0
		seen := map[string]bool{}
		iconsBuilt, iconsSkipped := false, 0
		for _, s := range p.Steps {
			switch s := s.(type) {
			case buildsys.RunConfigure:
				configures++
			case buildsys.AppendFlag:
				if configures > 0 {
					t.Fatalf("flag %s after configure", s.Flag)
				}
				if seen[s.Flag] {
					t.Fatalf("flag %s emitted twice", s.Flag)
				}
				seen[s.Flag] = true
			case buildsys.ReplaceInFile:
				again, err := s.Rematches()
				if err != nil || again {
					t.Fatalf("patch %s may apply twice", s)
				}
				if s.File == "src/MacVim/icons/Makefile" || s.File == "src/MacVim/icons/make_icons.py" {
					iconsSkipped++
				}
			case buildsys.RunTool:
				if s.Dir == "src/MacVim/icons" {
					iconsBuilt = true
				}
			}
		}
		if configures != 1 {
			t.Fatalf("%d configure steps", configures)
		}
		if iconsBuilt == (iconsSkipped == 2) || (iconsSkipped != 0 && iconsSkipped != 2) {
			t.Fatalf("icons built %v, skip patches %d", iconsBuilt, iconsSkipped)
		}

		// the dynamic pair replaces the members' own flags
		if seen["--enable-pythoninterp=dynamic"] {
			if seen["--enable-pythoninterp"] || seen["--enable-python3interp"] {
				t.Fatalf("member flags next to dual flags: %v", p.ConfigureArgs())
			}
			if !seen["--enable-python3interp=dynamic"] {
				t.Fatal("dual flags incomplete")
			}
		}
		if seen["--enable-luainterp"] && seen["--with-luajit"] && !req.Deps["luajit"].With {
			t.Fatal("luajit flags without luajit")
		}

		links := len(p.StepsOf(buildsys.KindCreateLink))
		want := 7
		if req.Options["override-system-vim"] {
			want = 12
		}
		if links != want {
			t.Fatalf("%d links, want %d", links, want)
		}
	})
}
