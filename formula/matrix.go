package formula

import (
	"sort"
)

// Matrix lists the values every toggle of a descriptor may take.
type Matrix struct {
	Options map[string][]bool
	Deps    map[string][]bool
}

// Matrix returns the toggle matrix of d: every option and every
// non-required dependency, each both off and on.
func (d *Descriptor) Matrix() Matrix {
	m := Matrix{
		Options: make(map[string][]bool, len(d.Options)),
		Deps:    make(map[string][]bool, len(d.Dependencies)),
	}
	for _, o := range d.Options {
		m.Options[o.Name] = []bool{false, true}
	}
	for _, dep := range d.Dependencies {
		if dep.Level != Required {
			m.Deps[dep.Name] = []bool{false, true}
		}
	}
	return m
}

type axis struct {
	dep  bool
	name string
	vals []bool
}

// axes returns options then dependencies, each sorted alphabetically.
func (m *Matrix) axes() []axis {
	sorted := func(kvs map[string][]bool, dep bool) []axis {
		keys := make([]string, 0, len(kvs))
		for k := range kvs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]axis, 0, len(keys))
		for _, k := range keys {
			out = append(out, axis{dep: dep, name: k, vals: kvs[k]})
		}
		return out
	}
	return append(sorted(m.Options, false), sorted(m.Deps, true)...)
}

// Combinations returns the cartesian product of the matrix as requests.
// Axes are options then dependencies, alphabetically, and the first axis
// varies slowest.
func (m *Matrix) Combinations() []Request {
	axes := m.axes()
	if len(axes) == 0 {
		return nil
	}

	result := []Request{{}}
	for _, ax := range axes {
		next := make([]Request, 0, len(result)*len(ax.vals))
		for _, prev := range result {
			for _, v := range ax.vals {
				r := prev.clone()
				if ax.dep {
					r.SetDep(ax.name, DepToggle{With: v})
				} else {
					r.SetOption(ax.name, v)
				}
				next = append(next, r)
			}
		}
		result = next
	}
	return result
}

// CombinationCount returns the total number of cartesian product combinations.
func (m *Matrix) CombinationCount() int {
	axes := m.axes()
	if len(axes) == 0 {
		return 0
	}
	count := 1
	for _, ax := range axes {
		count *= len(ax.vals)
	}
	return count
}

func (r Request) clone() Request {
	var out Request
	for k, v := range r.Options {
		out.SetOption(k, v)
	}
	for k, v := range r.Deps {
		out.SetDep(k, v)
	}
	return out
}
