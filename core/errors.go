package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a classified line whose required fields are
	// missing or not parseable.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDanglingReference marks a beam record whose satellite or user
	// index does not resolve against the parsed position lists.
	ErrDanglingReference = errors.New("dangling reference")
)

// RecordError pinpoints the input line that aborted a scene load.
type RecordError struct {
	Source string // "positions" or "beams"
	Line   int    // 1-based
	Field  string
	Text   string // offending raw value or line
	Err    error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d: field %s %q: %v", e.Source, e.Line, e.Field, e.Text, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
