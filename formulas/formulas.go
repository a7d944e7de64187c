// Package formulas embeds the built-in formula descriptors.
package formulas

import (
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/goplus/llbrew/formula"
)

const ext = ".yml"

//go:embed *.yml
var FS embed.FS

// Names returns the names of the built-in formulas, sorted.
func Names() []string {
	entries, _ := fs.ReadDir(FS, ".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ext); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Load parses the built-in formula called name.
func Load(name string) (*formula.Descriptor, error) {
	data, err := FS.ReadFile(name + ext)
	if err != nil {
		return nil, err
	}
	return formula.Parse(name+ext, data)
}
