// Package diag implements the engine's error taxonomy: a dedicated type
// per error class instead of ad hoc exceptions, and a carrier that lets
// the walker keep going and still report everything it saw.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tag identifies which taxonomy entry a Diagnostic belongs to.
type Tag string

const (
	TagInputError        Tag = "input-error"
	TagAnalysis          Tag = "analysis"
	TagResolutionMiss    Tag = "resolution-miss"
	TagEvalOddity        Tag = "eval-oddity"
	TagCacheStoreFailure Tag = "cache-store-failure"
	TagExternalTool      Tag = "external-tool"
)

// Severity distinguishes diagnostics that should fail the run from ones
// that are reported but survived.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

// Diagnostic is the structured unit returned to callers, carrying enough
// context (file, line, stable tag) to be machine-actionable as well as
// human-readable.
type Diagnostic struct {
	Tag      Tag
	File     string
	Line     int
	Message  string
	Severity Severity
	Cause    error
}

func (d *Diagnostic) Error() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.File, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s", d.Tag, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", loc, d.Tag, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// New builds a warning-severity Diagnostic.
func New(tag Tag, file string, line int, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Tag:      tag,
		File:     file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	}
}

// Fatal builds a fatal-severity Diagnostic.
func Fatal(tag Tag, file string, line int, format string, args ...interface{}) *Diagnostic {
	d := New(tag, file, line, format, args...)
	d.Severity = SeverityFatal
	return d
}

// Wrap attaches tag/file/line context to an underlying error, using
// pkg/errors so the original error chain (e.g. an *os.PathError from a
// failed pkg-config invocation) remains inspectable via errors.Cause.
func Wrap(cause error, tag Tag, file string, line int, message string) *Diagnostic {
	return &Diagnostic{
		Tag:      tag,
		File:     file,
		Line:     line,
		Message:  message,
		Severity: SeverityFatal,
		Cause:    errors.Wrap(cause, message),
	}
}

// Bag accumulates diagnostics across a run without aborting it, matching
// the spec's "walker always attempts to produce as complete a result as
// possible" propagation policy.
type Bag struct {
	items []*Diagnostic
}

// Add appends d to the bag. A nil Diagnostic is ignored, so callers can
// write `bag.Add(maybeDiag)` without a nil-check at each call site.
func (b *Bag) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	b.items = append(b.items, d)
}

// Items returns all accumulated diagnostics in order.
func (b *Bag) Items() []*Diagnostic {
	return b.items
}

// HasFatal reports whether any accumulated diagnostic is fatal-severity.
func (b *Bag) HasFatal() bool {
	for _, d := range b.items {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}
