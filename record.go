package dexc

import (
	"path/filepath"
	"strings"
)

// RecordKind tags the variant of an ErrorRecord: a plain error, a
// group bundling independent sub-errors, or a syntax failure carrying
// its own location instead of a call stack.
type RecordKind uint8

const (
	RecordSimple RecordKind = iota
	RecordGroup
	RecordSyntax
)

func (k RecordKind) String() string {
	switch k {
	case RecordSimple:
		return "simple"
	case RecordGroup:
		return "group"
	case RecordSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// RawFrame is one call-stack entry as delivered by the capture
// boundary. It is immutable once constructed: the pipeline never holds
// a live, runtime-owned stack reference.
//
// Line numbers are 1-based. Columns are 1-based byte offsets with an
// exclusive end; a zero column means the coordinate is unknown.
// EndLine of zero means the frame spans a single line.
type RawFrame struct {
	Function string
	File     string
	Line     int
	EndLine  int
	ColStart int
	ColEnd   int
}

// FuncBase returns the function name without its package path
// qualifier directory, e.g. "dexc.Capture" for
// "github.com/slietar/dexc.Capture".
func (f RawFrame) FuncBase() string {
	name := f.Function
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (f RawFrame) endLine() int {
	if f.EndLine > f.Line {
		return f.EndLine
	}
	return f.Line
}

// SyntaxDetail locates the offending text of a parse failure. Text is
// optional: it is used in place of the file contents when the source
// unit cannot be read back.
type SyntaxDetail struct {
	File     string
	Line     int
	EndLine  int
	ColStart int
	ColEnd   int
	Text     string
}

// ErrorRecord is one captured error instance, constructed once at
// capture time and immutable thereafter. A record owns its frame list
// and its links; the rendering call that captured it discards the whole
// tree when it completes.
type ErrorRecord struct {
	Kind     RecordKind
	TypeName string
	Message  string

	// Frames is the record's call sequence in call order, oldest
	// frame first. Display order (most recent first) is a reducer
	// concern.
	Frames []RawFrame

	// Cause is the explicit causal predecessor ("raise from"
	// equivalent). ExplicitCause is false when the link is a bare
	// re-signal of the same error with no new context attached.
	Cause         *ErrorRecord
	ExplicitCause bool

	// Context is the error that was being handled when this one
	// occurred; it is followed only when not suppressed, and only
	// when no Cause is present.
	Context           *ErrorRecord
	ContextSuppressed bool

	// Sub holds the sub-errors of a group record, in their original
	// collection order.
	Sub []*ErrorRecord

	// Syntax is present only on RecordSyntax records.
	Syntax *SyntaxDetail
}

// Header is the record's one-line description: "TypeName: message", or
// just the type name when the message is empty.
func (r *ErrorRecord) Header() string {
	if r.Message == "" {
		return r.TypeName
	}
	if r.TypeName == "" {
		return r.Message
	}
	return r.TypeName + ": " + r.Message
}

// subErrors returns the renderable sub-errors of a claimed group. A
// group with no sub-errors is an unsupported record shape: we render
// what is available rather than failing the chain.
func (r *ErrorRecord) subErrors() []*ErrorRecord {
	if r.Kind != RecordGroup {
		return nil
	}
	subs := make([]*ErrorRecord, 0, len(r.Sub))
	for _, sub := range r.Sub {
		if sub != nil {
			subs = append(subs, sub)
		}
	}
	return subs
}

// syntaxFrame converts a syntax detail into a displayable pseudo-frame
// named after the offending file.
func (d *SyntaxDetail) syntaxFrame() RawFrame {
	return RawFrame{
		Function: filepath.Base(d.File),
		File:     d.File,
		Line:     d.Line,
		EndLine:  d.EndLine,
		ColStart: d.ColStart,
		ColEnd:   d.ColEnd,
	}
}
