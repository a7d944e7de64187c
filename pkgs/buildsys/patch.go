package buildsys

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

// ErrPatternNotFound is returned when a ReplaceInFile step must match but
// its pattern does not occur in the file.
var ErrPatternNotFound = errors.New("pattern not found")

// Apply returns content with every match of the pattern replaced. The
// replacement is literal, also in regexp mode.
func (s ReplaceInFile) Apply(content []byte) ([]byte, error) {
	if s.Regexp {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("inreplace %s: %w", s.File, err)
		}
		if !re.Match(content) {
			return s.notFound(content)
		}
		return re.ReplaceAllLiteral(content, []byte(s.Replacement)), nil
	}
	if !bytes.Contains(content, []byte(s.Pattern)) {
		return s.notFound(content)
	}
	return bytes.ReplaceAll(content, []byte(s.Pattern), []byte(s.Replacement)), nil
}

// Rematches reports whether a second application could patch the file
// again: the replacement matches the pattern on its own, or next to the
// leftover part of a match on either side of it. Regexp patterns are
// probed across edges only when they are plain literals.
func (s ReplaceInFile) Rematches() (bool, error) {
	match := func(b []byte) bool { return bytes.Contains(b, []byte(s.Pattern)) }
	sample := s.Pattern
	if s.Regexp {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return false, err
		}
		match = re.Match
		lit, complete := re.LiteralPrefix()
		sample = ""
		if complete {
			sample = lit
		}
	}
	if match([]byte(s.Replacement)) {
		return true, nil
	}

	once := s
	once.MustMatch = false
	for k := 1; k < len(sample); k++ {
		for _, before := range []string{sample[:k] + sample, sample + sample[k:]} {
			after, err := once.Apply([]byte(before))
			if err != nil {
				return false, err
			}
			if match(after) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s ReplaceInFile) notFound(content []byte) ([]byte, error) {
	if s.MustMatch {
		return nil, fmt.Errorf("inreplace %s: %q: %w", s.File, s.Pattern, ErrPatternNotFound)
	}
	return content, nil
}
