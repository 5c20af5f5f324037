package dexc

import (
	stderrors "errors"
	"fmt"
	"go/scanner"
	"reflect"
	"strings"

	"github.com/slietar/dexc/internal/runtime"
)

// Capture converts a live error into an immutable ErrorRecord tree:
// unwrap chains become causal links, joined errors become groups,
// go/scanner failures become syntax records, and frame annotations
// (this package's or pkg/errors-style stack tracers) become the
// per-record frame sequences. The record tree holds no reference to
// the live error afterwards.
func Capture(err error) *ErrorRecord {
	if isNil(err) {
		return nil
	}
	return capture(err, make(map[error]bool))
}

// CaptureValue converts an arbitrary recovered panic value.
func CaptureValue(v interface{}) *ErrorRecord {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok && !isNil(err) {
		return Capture(err)
	}
	return &ErrorRecord{
		Kind:     RecordSimple,
		TypeName: typeName(v),
		Message:  fmt.Sprint(v),
	}
}

// capturePanic converts a panic value and, when the value carries no
// trace of its own, attaches the current stack (which still includes
// the panic site while a recover is in flight).
func capturePanic(v interface{}, skip int) *ErrorRecord {
	rec := CaptureValue(v)
	if rec != nil && len(rec.Frames) == 0 {
		rec.Frames = rawFromRuntime(runtime.Stack(skip + 1))
	}
	return rec
}

func capture(err error, seen map[error]bool) *ErrorRecord {
	if isNil(err) {
		return nil
	}
	// Slice-backed errors such as scanner.ErrorList are not hashable
	// and would panic as map keys; they also cannot form identity
	// cycles, so the seen set only tracks comparable errors.
	if reflect.TypeOf(err).Comparable() {
		if seen[err] {
			return nil
		}
		seen[err] = true
	}

	switch e := err.(type) {
	case *scanner.Error:
		return syntaxRecord(*e)
	case scanner.Error:
		return syntaxRecord(e)
	case scanner.ErrorList:
		return captureErrorList(e)
	}

	if subs := subErrorsOf(err); len(subs) > 0 {
		rec := &ErrorRecord{
			Kind:     RecordGroup,
			TypeName: typeName(err),
			Message:  groupMessage(err, len(subs)),
			Frames:   framesOf(err),
		}
		for _, sub := range subs {
			if s := capture(sub, seen); s != nil {
				rec.Sub = append(rec.Sub, s)
			}
		}
		if len(rec.Sub) == 0 {
			// A claimed group with nothing in it: render what
			// is available as a plain record.
			rec.Kind = RecordSimple
			rec.Message = err.Error()
		}
		return rec
	}

	rec := &ErrorRecord{
		Kind:     RecordSimple,
		TypeName: typeName(err),
		Message:  err.Error(),
		Frames:   framesOf(err),
	}

	if cause := stderrors.Unwrap(err); cause != nil {
		crec := capture(cause, seen)
		if crec != nil {
			explicit := err.Error() != cause.Error()
			if !explicit && mergeable(crec) {
				// A wrapper that only adds frames is the
				// same failure continuing: one record, one
				// concatenated trace.
				rec.Frames = append(append([]RawFrame(nil), crec.Frames...), rec.Frames...)
				rec.Cause = crec.Cause
				rec.ExplicitCause = crec.ExplicitCause
				rec.Context = crec.Context
				rec.ContextSuppressed = crec.ContextSuppressed
				return rec
			}
			rec.Cause = crec
			rec.ExplicitCause = explicit
		}
	}
	return rec
}

// mergeable reports whether a same-message cause record can be folded
// into its wrapper instead of rendered as a separate trace.
func mergeable(rec *ErrorRecord) bool {
	return rec.Kind == RecordSimple && len(rec.Sub) == 0 && rec.Syntax == nil
}

func captureErrorList(list scanner.ErrorList) *ErrorRecord {
	switch len(list) {
	case 0:
		return nil
	case 1:
		return syntaxRecord(*list[0])
	}
	rec := &ErrorRecord{
		Kind:     RecordGroup,
		TypeName: "SyntaxErrors",
		Message:  fmt.Sprintf("%d syntax errors", len(list)),
	}
	for _, e := range list {
		rec.Sub = append(rec.Sub, syntaxRecord(*e))
	}
	return rec
}

func syntaxRecord(e scanner.Error) *ErrorRecord {
	return &ErrorRecord{
		Kind:     RecordSyntax,
		TypeName: "SyntaxError",
		Message:  e.Msg,
		Syntax: &SyntaxDetail{
			File:     e.Pos.Filename,
			Line:     e.Pos.Line,
			ColStart: e.Pos.Column,
		},
	}
}

// subErrorsOf recognizes both the standard library's multi-unwrap
// convention and the Errors() accessor used by multierror packages.
func subErrorsOf(err error) []error {
	if m, ok := err.(interface{ Unwrap() []error }); ok {
		return m.Unwrap()
	}
	if m, ok := err.(interface{ Errors() []error }); ok {
		return m.Errors()
	}
	return nil
}

// framesOf extracts the frames annotated on this error alone (not its
// chain), in call order.
func framesOf(err error) []RawFrame {
	if f, ok := err.(framer); ok {
		return append([]RawFrame(nil), f.TraceFrames()...)
	}
	if st, ok := err.(stackTracer); ok {
		return rawFromRuntime(runtime.Expand(st.StackTrace()))
	}
	return nil
}

// groupMessage avoids the newline-joined message errors.Join
// produces; a group's sub-errors speak for themselves.
func groupMessage(err error, n int) string {
	msg := err.Error()
	if strings.ContainsRune(msg, '\n') {
		noun := "errors"
		if n == 1 {
			noun = "error"
		}
		return fmt.Sprintf("%d %s", n, noun)
	}
	return msg
}

// typeName names the dynamic type of a value for the record header,
// hiding the stdlib's unexported wrapper types, which would read as
// noise.
func typeName(v interface{}) string {
	name := fmt.Sprintf("%T", v)
	name = strings.TrimPrefix(name, "*")
	switch name {
	case "errors.errorString", "fmt.wrapError", "fmt.wrapErrors",
		"dexc.withFrames", "dexc.wrapped":
		return "error"
	case "errors.joinError":
		return "errors"
	}
	return name
}

func isNil(err error) bool {
	if err == nil {
		return true
	}
	switch reflect.TypeOf(err).Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return reflect.ValueOf(err).IsNil()
	default:
		return false
	}
}
