// Package runtime adapts the host runtime's live call stack into
// plain frame values so the rest of the module never holds a
// runtime-owned reference.
package runtime

import (
	"runtime"
	"strings"
)

const maxDepth = 64

// Stack captures the caller's stack, skipping the given number of
// frames, trimmed of the runtime's own scaffolding (panic machinery
// at the head, process bootstrap at the tail).
func Stack(skip int) []runtime.Frame {
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	return trim(expand(pcs[:n]))
}

// Caller returns the single frame of the caller at the given skip.
func Caller(skip int) (runtime.Frame, bool) {
	var pcs [3]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return runtime.Frame{}, false
	}
	frames := expand(pcs[:1])
	if len(frames) == 0 {
		return runtime.Frame{}, false
	}
	return frames[0], true
}

// Expand resolves raw program counters (for example from an error's
// StackTrace method) into frames.
func Expand(pcs []uintptr) []runtime.Frame {
	return trim(expand(pcs))
}

func expand(pcs []uintptr) []runtime.Frame {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	ff := make([]runtime.Frame, 0, len(pcs))
	for {
		fr, more := frames.Next()
		if fr.PC != 0 || fr.Function != "" {
			ff = append(ff, fr)
		}
		if !more {
			break
		}
	}
	return ff
}

// trim removes panic-dispatch frames from the head and the goroutine
// bootstrap from the tail: neither tells the reader anything about
// their own code.
func trim(ff []runtime.Frame) []runtime.Frame {
	for len(ff) > 0 && isPanicFrame(ff[0].Function) {
		ff = ff[1:]
	}
	for len(ff) > 0 && isBootstrapFrame(ff[len(ff)-1].Function) {
		ff = ff[:len(ff)-1]
	}
	return ff
}

func isPanicFrame(name string) bool {
	return name == "runtime.gopanic" || name == "runtime.panicmem" ||
		strings.HasPrefix(name, "runtime.goPanic")
}

func isBootstrapFrame(name string) bool {
	switch name {
	case "runtime.main", "runtime.goexit", "testing.tRunner":
		return true
	}
	return false
}
