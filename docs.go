// Package dexc renders an error chain as a readable, optionally
// colorized, terminal-oriented report: per-frame source excerpts with
// the responsible sub-expression underlined, de-emphasized and
// collapsed infrastructure frames, cause and group structure laid out
// explicitly, and catch-and-reraise seams marked as one continuous
// failure.
//
// # Capturing
//
// Rendering starts from an immutable ErrorRecord tree. Capture builds
// one from a live error:
//
//	rec := dexc.Capture(err)
//
// Unwrap chains become causal links, errors.Join results (and any
// Unwrap() []error or Errors() []error implementation) become groups,
// and go/scanner failures become syntax records that print the
// offending line instead of a call stack.
//
// Frames come from annotations. Errors created with Trace, Here, or
// Wrap carry them; so do errors from libraries following the
// pkg/errors StackTrace convention:
//
//	if err != nil {
//	    return dexc.Wrap(err, "loading profile")
//	}
//
// Records can also arrive from outside the process: RecordFromJSON
// decodes the JSON report shape, and ParsePanicText reads the text a
// crashing Go program prints.
//
// # Rendering
//
// Dump is the usual entry point; it captures, assembles, and writes
// in one call:
//
//	opts := dexc.DefaultOptions()
//	opts.Color = dexc.ColorEnabled(os.Stderr)
//	_ = dexc.Dump(err, os.Stderr, opts)
//
// The pipeline underneath is exposed for callers who want the
// intermediate model: Walk orders the chain oldest cause first,
// reduceable frame sequences are classified (user, infrastructure, or
// this package's own elidable internals) and truncated, DetectBoundary
// flags bare re-raises, and Render serializes the assembled
// RenderModel. Render never classifies or reduces on its own, and a
// render call never crashes the program it is reporting on: internal
// failures degrade to a raw dump plus ErrRenderFailure.
//
// For a whole program, Hook installs the renderer as a deferred panic
// handler:
//
//	func main() {
//	    defer dexc.Hook(os.Stderr, dexc.DefaultOptions())()
//	    ...
//	}
//
// # Styling
//
// Output is styled with lipgloss. Styling is purely a function of
// Options.Color: with color off the output is byte-identical to the
// colored output minus the escape sequences. The package never reads
// the environment to decide; ColorEnabled implements the usual
// NO_COLOR-plus-tty convention for callers who want it.
package dexc
