package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCorrupt       = errors.New("corrupt compressed input")
	ErrUnsupported   = errors.New("unsupported format")
	ErrTooFewFields  = errors.New("too few fields")
	ErrEmptyResult   = errors.New("no valid records")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotNumeric    = errors.New("column is not numeric")
)

// DecodeKind classifies a DecodeError.
type DecodeKind int

const (
	DecodeCorrupt DecodeKind = iota
	DecodeUnsupported
)

// DecodeError is returned when a blob cannot be turned into text.
type DecodeError struct {
	Kind   DecodeKind
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeUnsupported:
		return fmt.Sprintf("decode %q: %v", e.Format, ErrUnsupported)
	default:
		if e.Err != nil {
			return fmt.Sprintf("decode %s: %v: %v", e.Format, ErrCorrupt, e.Err)
		}
		return fmt.Sprintf("decode %s: %v", e.Format, ErrCorrupt)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrCorrupt:
		return e.Kind == DecodeCorrupt
	case ErrUnsupported:
		return e.Kind == DecodeUnsupported
	}
	return false
}

// SchemaError is returned for a data line that cannot be mapped onto the
// metadata schema.
type SchemaError struct {
	Got  int
	Want int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: got %d tokens, want at least %d", ErrTooFewFields, e.Got, e.Want)
}

func (e *SchemaError) Is(target error) bool { return target == ErrTooFewFields }

// EmptyResultError is returned when a load produced zero records. The
// summary is attached so callers can tell a wrong marker from a wrong file.
type EmptyResultError struct {
	Summary LoadSummary
}

func (e *EmptyResultError) Error() string {
	s := e.Summary
	return fmt.Sprintf("%v in %q: scanned %d lines, data start %d (marker found: %t), %d candidate lines, %d dropped",
		ErrEmptyResult, s.Source, s.LinesScanned, s.DataStart, s.MarkerFound, s.CandidateLines, s.RecordsDropped)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }
