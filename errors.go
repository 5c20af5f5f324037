package dexc

import (
	stdruntime "runtime"

	"github.com/slietar/dexc/internal/runtime"
)

// Interop interfaces recognized by the capture boundary.

// framer exposes frames already materialized as values. Errors built
// by Trace, Here, and Wrap implement it.
type framer interface {
	TraceFrames() []RawFrame
}

// stackTracer exposes a stack as raw program counters; it is the
// convention used by pkg/errors-style libraries and by Sentry, so
// errors annotated elsewhere still render with their traces.
type stackTracer interface {
	StackTrace() []uintptr
}

// Trace annotates err with the caller's full stack. The capture
// boundary turns the annotation into the error's frame sequence.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	return &withFrames{err: err, frames: rawFromRuntime(runtime.Stack(1))}
}

// Here annotates err with the single frame of the caller. Successive
// Here annotations accumulate into one sequence at capture time.
func Here(err error) error {
	if err == nil {
		return nil
	}
	var frames []RawFrame
	if fr, ok := runtime.Caller(1); ok {
		frames = rawFromRuntime([]stdruntime.Frame{fr})
	}
	return &withFrames{err: err, frames: frames}
}

// Wrap builds an explicit causal link: a new error with its own
// message and the caller's frame, caused by err. Renders as two
// records joined by a cause separator, never as a bare reraise.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var frames []RawFrame
	if fr, ok := runtime.Caller(1); ok {
		frames = rawFromRuntime([]stdruntime.Frame{fr})
	}
	return &wrapped{msg: msg, err: err, frames: frames}
}

// withFrames annotates an error with frames without changing its
// message: a bare re-signal of the same failure.
type withFrames struct {
	err    error
	frames []RawFrame
}

var _ interface { // Assert interface implementation.
	error
	framer
} = (*withFrames)(nil)

func (w *withFrames) Error() string { return w.err.Error() }
func (w *withFrames) Unwrap() error { return w.err }
func (w *withFrames) TraceFrames() []RawFrame { return w.frames }

// wrapped is an error with its own message wrapping a cause.
type wrapped struct {
	msg    string
	err    error
	frames []RawFrame
}

var _ interface { // Assert interface implementation.
	error
	framer
} = (*wrapped)(nil)

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }
func (w *wrapped) TraceFrames() []RawFrame { return w.frames }

// rawFromRuntime converts runtime frames (newest first) into
// RawFrames in call order, oldest first.
func rawFromRuntime(ff []stdruntime.Frame) []RawFrame {
	if len(ff) == 0 {
		return nil
	}
	out := make([]RawFrame, len(ff))
	for i, fr := range ff {
		out[len(ff)-1-i] = RawFrame{
			Function: fr.Function,
			File:     fr.File,
			Line:     fr.Line,
		}
	}
	return out
}
