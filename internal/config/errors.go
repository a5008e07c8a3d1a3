package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat indicates a config file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalid is matched by every ValidationError.
	ErrInvalid = errors.New("invalid configuration")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path (or source name) that failed to parse.
	Path string
	// Line is the 1-based line number, or 0 when unknown.
	Line int
	// Column is the 1-based column number, or 0 when unknown.
	Column int
	// Message is the decoder's description of the problem.
	Message string
	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	// Path is the dotted setting path, e.g. "script.timeout".
	Path string
	// Message describes the problem.
	Message string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
