package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals that the source file does not exist. Non-retryable.
var ErrNotFound = errors.New("source file not found")

// SchemaError reports every required column missing from the header. The
// load halts without partial progress when any column is absent.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError wraps a malformed-content failure from the CSV reader.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse source: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// StatusForError maps a terminal build error to its dataset Status.
func StatusForError(err error) Status {
	var schemaErr *SchemaError
	var parseErr *ParseError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.As(err, &schemaErr):
		return StatusSchemaError
	case errors.As(err, &parseErr):
		return StatusParseError
	default:
		return StatusParseError
	}
}
