// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"errors"
	"fmt"

	"github.com/goplus/llbrew/formula"
)

var (
	// ErrMissingDependency indicates a required or requested dependency is
	// absent from the host.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrUnsupportedEnvironment indicates the host cannot build the formula.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")

	// ErrConflictingOptions indicates toggles that cannot be reconciled.
	ErrConflictingOptions = errors.New("conflicting options")

	// ErrUnknownToggle indicates a request naming no option or dependency.
	ErrUnknownToggle = errors.New("unknown toggle")

	// ErrInvalidDescriptor indicates a descriptor that cannot be compiled.
	ErrInvalidDescriptor = formula.ErrInvalid
)

// Error wraps a compilation failure with the formula and the offending name.
type Error struct {
	Formula string // Formula being compiled
	Name    string // Option, dependency or binding if applicable
	Err     error  // One of the sentinel errors above
	Detail  string
}

func (e *Error) Error() string {
	msg := e.Formula + ": "
	if e.Name != "" {
		msg += e.Name + ": "
	}
	msg += e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (s *state) fail(err error, name, format string, args ...any) error {
	return &Error{Formula: s.desc.Name, Name: name, Err: err, Detail: fmt.Sprintf(format, args...)}
}
