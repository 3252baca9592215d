package bico

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is the kind of every constructor argument error.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput is the kind of every rejected point. The engine state is
	// unchanged when an insert fails with this kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange is returned for bad indexes into a Solution and for
	// undersized output buffers.
	ErrOutOfRange = errors.New("out of range")

	// ErrClosed is returned when an engine is used after Close.
	ErrClosed = errors.New("engine closed")
)

// ErrInvalidParameter indicates an out-of-range constructor argument.
//
// It matches ErrInvalidConfiguration with errors.Is.
type ErrInvalidParameter struct {
	Name   string
	Value  any
	Reason string
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Name, e.Value, e.Reason)
}

func (e *ErrInvalidParameter) Unwrap() error { return ErrInvalidConfiguration }

// ErrDimensionMismatch indicates a point whose dimensionality differs from
// the engine's.
//
// It matches ErrInvalidInput with errors.Is.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return ErrInvalidInput }

// ErrInvalidPoint indicates a point with non-finite coordinates or an
// unusable weight.
//
// It matches ErrInvalidInput with errors.Is.
type ErrInvalidPoint struct {
	Row    int // row within a batch, -1 for single inserts
	Reason string
}

func (e *ErrInvalidPoint) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("invalid point at row %d: %s", e.Row, e.Reason)
	}
	return "invalid point: " + e.Reason
}

func (e *ErrInvalidPoint) Unwrap() error { return ErrInvalidInput }

// ErrIndexOutOfRange indicates an index outside [0, Size) of a Solution.
//
// It matches ErrOutOfRange with errors.Is.
type ErrIndexOutOfRange struct {
	Index int
	Size  int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Size)
}

func (e *ErrIndexOutOfRange) Unwrap() error { return ErrOutOfRange }

// ErrBufferTooSmall indicates a caller-supplied output buffer that cannot
// hold the coreset.
//
// It matches ErrOutOfRange with errors.Is.
type ErrBufferTooSmall struct {
	Buffer string
	Need   int
	Got    int
}

func (e *ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("%s buffer too small: need %d, got %d", e.Buffer, e.Need, e.Got)
}

func (e *ErrBufferTooSmall) Unwrap() error { return ErrOutOfRange }
