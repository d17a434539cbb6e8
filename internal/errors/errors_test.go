package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverityFatal, "fatal"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestBuildErrorError(t *testing.T) {
	err := BuildError{
		Directive: "shoebot",
		File:      "guide/index.md",
		Line:      10,
		Message:   "invalid canvas size",
		Severity:  ErrorSeverityError,
	}

	assert.Equal(t, "guide/index.md:10: error: shoebot: invalid canvas size", err.Error())
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.False(t, collector.HasErrors())

	collector.Add(BuildError{File: "a.md", Line: 1, Message: "empty", Severity: ErrorSeverityWarning})
	assert.False(t, collector.HasErrors(), "warnings alone are not errors")
	assert.Equal(t, 1, collector.Count(ErrorSeverityWarning))

	collector.Add(BuildError{File: "b.md", Line: 4, Message: "boom", Severity: ErrorSeverityError})
	assert.True(t, collector.HasErrors())

	all := collector.GetErrors()
	require.Len(t, all, 2)
	assert.False(t, all[0].Timestamp.IsZero())

	assert.Len(t, collector.GetErrorsByFile("b.md"), 1)

	collector.ClearFile("b.md")
	assert.False(t, collector.HasErrors())
	assert.Len(t, collector.GetErrors(), 1)

	collector.Clear()
	assert.Empty(t, collector.GetErrors())
}

func TestErrorOverlay(t *testing.T) {
	collector := NewErrorCollector()
	assert.Empty(t, collector.ErrorOverlay())

	collector.Add(BuildError{File: "a.md", Line: 3, Message: "<bad> size", Severity: ErrorSeverityError})
	overlay := collector.ErrorOverlay()

	assert.Contains(t, overlay, "sketchdoc-error-overlay")
	assert.Contains(t, overlay, "&lt;bad&gt; size")
	assert.Contains(t, overlay, "a.md:3")
}

func TestSketchErrorFormatting(t *testing.T) {
	cause := errors.New("line 1: invalid canvas size -1x-1")
	err := NewRenderError(CodeRenderFailed, "shoebot render failed", cause).
		WithLocation("index.md", 7).
		WithDirective("shoebot")

	assert.Equal(t, "[RENDER_FAILED] index.md:7 shoebot: shoebot render failed: line 1: invalid canvas size -1x-1", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRenderError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsFormatError(err))
}

func TestSketchErrorIs(t *testing.T) {
	a := NewFormatError("gif", []string{"png", "svg"})
	b := &SketchError{Type: ErrorTypeFormat, Code: CodeUnsupportedFormat}

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NewContentError(CodeEmptyContent, "empty")))
	assert.Contains(t, a.Error(), `"gif"`)
	assert.Contains(t, a.Error(), "png, svg")
}

func TestWithContext(t *testing.T) {
	err := NewIOError("WRITE", "write failed", nil).WithContext("path", "/tmp/x")
	assert.Equal(t, "/tmp/x", err.Context["path"])
	assert.Equal(t, ErrorTypeIO, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
