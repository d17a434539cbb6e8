package errors

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
)

// BuildError is a diagnostic raised while building a single document.
type BuildError struct {
	Directive string
	File      string
	Line      int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (be *BuildError) Error() string {
	if be.Directive != "" {
		return fmt.Sprintf("%s:%d: %s: %s: %s", be.File, be.Line, be.Severity, be.Directive, be.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", be.File, be.Line, be.Severity, be.Message)
}

// ErrorCollector collects the diagnostics of one build.
type ErrorCollector struct {
	buildErrors []BuildError
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		buildErrors: make([]BuildError, 0),
	}
}

// Add adds a build error to the collector
func (ec *ErrorCollector) Add(err BuildError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.buildErrors = append(ec.buildErrors, err)
}

// GetErrors returns all collected build errors
func (ec *ErrorCollector) GetErrors() []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]BuildError, len(ec.buildErrors))
	copy(result, ec.buildErrors)
	return result
}

// Count returns how many diagnostics of the given severity were collected.
func (ec *ErrorCollector) Count(severity ErrorSeverity) int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	n := 0
	for _, err := range ec.buildErrors {
		if err.Severity == severity {
			n++
		}
	}
	return n
}

// HasErrors reports whether anything at error severity or above was collected.
// Warnings alone do not count.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	for _, err := range ec.buildErrors {
		if err.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.buildErrors = ec.buildErrors[:0]
}

// ClearFile drops the diagnostics of one document, used before rebuilding it.
func (ec *ErrorCollector) ClearFile(file string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	kept := ec.buildErrors[:0]
	for _, err := range ec.buildErrors {
		if err.File != file {
			kept = append(kept, err)
		}
	}
	ec.buildErrors = kept
}

// GetErrorsByFile returns errors for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []BuildError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []BuildError
	for _, err := range ec.buildErrors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}

// ErrorOverlay generates the HTML overlay shown by the dev server when the
// last build produced errors. It returns "" when there is nothing to show.
func (ec *ErrorCollector) ErrorOverlay() string {
	if !ec.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="sketchdoc-error-overlay" style="position:fixed;top:0;left:0;width:100%;height:100%;` +
		`background:rgba(0,0,0,0.85);color:#fff;font-family:monospace;font-size:14px;z-index:9999;` +
		`padding:20px;box-sizing:border-box;overflow:auto;">`)
	b.WriteString(`<div style="max-width:1000px;margin:0 auto;">`)
	b.WriteString(`<h2 style="color:#ff6b6b;">Build Errors</h2>`)
	b.WriteString(`<button onclick="document.getElementById('sketchdoc-error-overlay').style.display='none'">Close</button>`)

	ec.mutex.RLock()
	for _, err := range ec.buildErrors {
		if err.Severity < ErrorSeverityError {
			continue
		}
		fmt.Fprintf(&b, `<div style="background:#2d3748;padding:15px;margin:15px 0;border-left:4px solid #ff6b6b;">`+
			`<div><strong>%s</strong></div><div style="color:#a0aec0;">%s:%d</div></div>`,
			html.EscapeString(err.Message), html.EscapeString(err.File), err.Line)
	}
	ec.mutex.RUnlock()

	b.WriteString(`</div></div>`)
	return b.String()
}
