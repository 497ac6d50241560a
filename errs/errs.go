// Package errs defines the error taxonomy shared across the compiler and the
// runtime (spec §7). Every kind is a gopkg.in/src-d/go-errors.v1 Kind, the
// same pattern the teacher uses for its own SQL errors (sql.ErrTableNotFound,
// sql.ErrInvalidType, ...): a package-level Kind wraps a message template,
// and call sites build a concrete *errors.Error with .New(args...).
package errs

import (
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Compile-time errors.
var (
	ErrUnknownTable    = goerrors.NewKind("table %q not cataloged")
	ErrColumnNotFound  = goerrors.NewKind("column %q not found in any table")
	ErrColumnAmbiguous = goerrors.NewKind("column %q found in multiple tables")
	ErrInvalidOption   = goerrors.NewKind("invalid option %q")
)

// Evaluation errors.
var (
	ErrTypeMismatch = goerrors.NewKind("type mismatch: %s")
	ErrDivByZero    = goerrors.NewKind("division by zero")
	ErrParseError   = goerrors.NewKind("cannot parse %q as %s")
)

// I/O errors.
var ErrIO = goerrors.NewKind("io error: %s")

// Internal consistency errors.
var (
	ErrCyclicGraph   = goerrors.NewKind("adding node would introduce a cycle")
	ErrSerialization = goerrors.NewKind("serialization error: %s")
)

// Worker errors.
var ErrWorkerPanic = goerrors.NewKind("worker panic: %v")

var allKinds = []*goerrors.Kind{
	ErrUnknownTable, ErrColumnNotFound, ErrColumnAmbiguous, ErrInvalidOption,
	ErrTypeMismatch, ErrDivByZero, ErrParseError,
	ErrIO,
	ErrCyclicGraph, ErrSerialization,
	ErrWorkerPanic,
}

// Kind returns the go-errors.v1 Kind backing err, or nil if err was not
// raised through one of this package's Kinds. Used to build the single
// failure message spec §7 requires: "kind and a terse context".
func Kind(err error) *goerrors.Kind {
	for _, k := range allKinds {
		if k.Is(err) {
			return k
		}
	}
	return nil
}
