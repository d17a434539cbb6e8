// Package errors defines the error taxonomy of a sketchdoc build: structured
// SketchError values for failures and BuildError diagnostics collected per
// document.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeContent marks a directive with missing or invalid content.
	ErrorTypeContent ErrorType = "content"
	// ErrorTypeRender marks a drawing engine failure.
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeFormat marks an output format the renderer cannot produce.
	ErrorTypeFormat ErrorType = "format"

	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes shared across packages.
const (
	CodeEmptyContent      = "EMPTY_CONTENT"
	CodeInvalidOption     = "INVALID_OPTION"
	CodeRenderFailed      = "RENDER_FAILED"
	CodeNoOutput          = "NO_OUTPUT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidConfig     = "INVALID_CONFIG"
)

// SketchError is a structured error type with context.
type SketchError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Directive string
	FilePath  string
	Line      int
}

// Error implements the error interface.
func (e *SketchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	if e.Directive != "" {
		parts = append(parts, e.Directive+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SketchError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *SketchError) Is(target error) bool {
	var t *SketchError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SketchError) WithContext(key string, value interface{}) *SketchError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *SketchError) WithLocation(filePath string, line int) *SketchError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithDirective records which directive raised the error.
func (e *SketchError) WithDirective(name string) *SketchError {
	e.Directive = name

	return e
}

// NewContentError creates an error for missing or malformed directive content.
func NewContentError(code, message string) *SketchError {
	return &SketchError{
		Type:    ErrorTypeContent,
		Code:    code,
		Message: message,
	}
}

// NewRenderError wraps a drawing engine failure.
func NewRenderError(code, message string, cause error) *SketchError {
	return &SketchError{
		Type:    ErrorTypeRender,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewFormatError creates an unsupported output format error.
func NewFormatError(format string, supported []string) *SketchError {
	return &SketchError{
		Type:    ErrorTypeFormat,
		Code:    CodeUnsupportedFormat,
		Message: fmt.Sprintf("output format must be one of %s, but is %q", strings.Join(supported, ", "), format),
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SketchError {
	return &SketchError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SketchError {
	return &SketchError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SketchError {
	return &SketchError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the ErrorType of the first SketchError in err's chain, or ""
// when there is none.
func TypeOf(err error) ErrorType {
	var se *SketchError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}

// IsRenderError checks if an error came from a drawing engine.
func IsRenderError(err error) bool {
	return TypeOf(err) == ErrorTypeRender
}

// IsFormatError checks if an error is an unsupported format error.
func IsFormatError(err error) bool {
	return TypeOf(err) == ErrorTypeFormat
}

// IsContentError checks if an error is about directive content.
func IsContentError(err error) bool {
	return TypeOf(err) == ErrorTypeContent
}
