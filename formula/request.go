package formula

import (
	"fmt"
	"sort"
	"strings"
)

// DepToggle turns a dependency on or off. A non-zero Level overrides the
// level declared by the descriptor.
type DepToggle struct {
	With  bool
	Level Level
}

// Request is the set of toggles a caller asks for. Names not present keep
// their descriptor defaults.
type Request struct {
	Options map[string]bool
	Deps    map[string]DepToggle
}

// SetOption records an option toggle.
func (r *Request) SetOption(name string, on bool) {
	if r.Options == nil {
		r.Options = map[string]bool{}
	}
	r.Options[name] = on
}

// SetDep records a dependency toggle.
func (r *Request) SetDep(name string, t DepToggle) {
	if r.Deps == nil {
		r.Deps = map[string]DepToggle{}
	}
	r.Deps[name] = t
}

// String renders the request in the token syntax understood by
// ParseRequest, sorted by name.
func (r Request) String() string {
	tokens := make([]string, 0, len(r.Options)+len(r.Deps))
	for name, on := range r.Options {
		if on {
			tokens = append(tokens, name)
		} else {
			tokens = append(tokens, "no-"+name)
		}
	}
	for name, t := range r.Deps {
		switch {
		case !t.With:
			tokens = append(tokens, "without-"+name)
		case t.Level != 0:
			tokens = append(tokens, "with-"+name+"="+t.Level.String())
		default:
			tokens = append(tokens, "with-"+name)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// ParseRequest parses Homebrew style toggles. Leading dashes are ignored.
//
//	NAME             turn option NAME on
//	no-NAME          turn option NAME off
//	with-NAME        build with dependency NAME
//	with-NAME=LEVEL  same, overriding its level
//	without-NAME     build without dependency NAME
func ParseRequest(args []string) (Request, error) {
	var r Request
	for _, arg := range args {
		tok := strings.TrimLeft(arg, "-")
		if tok == "" {
			return Request{}, fmt.Errorf("invalid toggle %q", arg)
		}
		switch {
		case strings.HasPrefix(tok, "without-"):
			r.SetDep(strings.TrimPrefix(tok, "without-"), DepToggle{})
		case strings.HasPrefix(tok, "with-"):
			name, level, hasLevel := strings.Cut(strings.TrimPrefix(tok, "with-"), "=")
			t := DepToggle{With: true}
			if hasLevel {
				lvl, err := ParseLevel(level)
				if err != nil {
					return Request{}, fmt.Errorf("toggle %q: %w", arg, err)
				}
				t.Level = lvl
			}
			r.SetDep(name, t)
		case strings.HasPrefix(tok, "no-"):
			r.SetOption(strings.TrimPrefix(tok, "no-"), false)
		default:
			r.SetOption(tok, true)
		}
	}
	return r, nil
}
