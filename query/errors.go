package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse failures.
type ErrorKind uint8

const (
	// ParseFormat means a required field is missing or the document shape is wrong.
	ParseFormat ErrorKind = iota
	// ParseValue means a field is present but its value is outside the allowed set.
	ParseValue
)

// String returns the kind name.
func (k ErrorKind) String() string {
	if k == ParseValue {
		return "value"
	}
	return "format"
}

// Sentinel errors for errors.Is checks against *ParseError and Validate.
var (
	ErrFormat  = errors.New("query: format error")
	ErrValue   = errors.New("query: value error")
	ErrCycle   = errors.New("query: filter tree contains a cycle")
	ErrTooDeep = errors.New("query: filter tree too deep")
)

// ParseError describes why a filter document was rejected.
type ParseError struct {
	Kind      ErrorKind
	FieldName string
	// Fragment is the JSON text of the offending value, or of the object
	// missing the field for format errors.
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query: %s error in field %q: %s: %s", e.Kind, e.FieldName, e.Reason, e.Fragment)
}

// Is matches ErrFormat or ErrValue according to Kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrFormat:
		return e.Kind == ParseFormat
	case ErrValue:
		return e.Kind == ParseValue
	}
	return false
}

func formatError(field string, fragment any, reason string) *ParseError {
	return &ParseError{Kind: ParseFormat, FieldName: field, Fragment: fragmentOf(fragment), Reason: reason}
}

func valueError(field string, fragment any, reason string) *ParseError {
	return &ParseError{Kind: ParseValue, FieldName: field, Fragment: fragmentOf(fragment), Reason: reason}
}
