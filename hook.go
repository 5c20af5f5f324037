package dexc

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Dump renders err's full chain to w. It is the single entry point
// most callers need:
//
//	if err := run(); err != nil {
//	    opts := dexc.DefaultOptions()
//	    opts.Color = dexc.ColorEnabled(os.Stderr)
//	    _ = dexc.Dump(err, os.Stderr, opts)
//	}
//
// The output is never empty for a non-nil error: on an internal
// render failure a raw dump is written and ErrRenderFailure returned.
func Dump(err error, w io.Writer, opts Options) error {
	return dumpRecord(Capture(err), w, opts)
}

// DumpValue renders a recovered panic value.
func DumpValue(v interface{}, w io.Writer, opts Options) error {
	return dumpRecord(CaptureValue(v), w, opts)
}

// DumpRecord renders an already-captured record, for example one
// decoded from a JSON report or parsed from panic text.
func DumpRecord(rec *ErrorRecord, w io.Writer, opts Options) error {
	return dumpRecord(rec, w, opts)
}

func dumpRecord(rec *ErrorRecord, w io.Writer, opts Options) error {
	if rec == nil {
		return nil
	}
	out, rerr := Render(BuildModel(rec, opts), opts)
	if _, werr := io.WriteString(w, out); werr != nil {
		return werr
	}
	return rerr
}

// Hook returns a function to defer at the top of main: it intercepts
// an otherwise-fatal panic, renders it to f, and exits with status 2.
// Color and width are resolved from f unless the options already set
// them; set Options.NoColor to keep styling off even when f is a
// terminal.
//
//	func main() {
//	    defer dexc.Hook(os.Stderr, dexc.DefaultOptions())()
//	    ...
//	}
func Hook(f *os.File, opts Options) func() {
	if !opts.Color && !opts.NoColor {
		opts.Color = ColorEnabled(f)
	}
	if opts.Width == 0 {
		opts.Width = Width(f)
	}
	return func() {
		v := recover()
		if v == nil {
			return
		}
		rec := capturePanic(v, 2)
		if err := dumpRecord(rec, f, opts); err != nil {
			fmt.Fprintf(f, "dexc: %v\n", err)
		}
		os.Exit(2)
	}
}

// ColorEnabled resolves the color mode for a destination file: styling
// is off when the NO_COLOR convention is in effect or the file is not
// a terminal. The renderer itself never reads the environment; pass
// the result through Options.Color.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width resolves the output width for a destination file, falling
// back to the default when it is not a terminal.
func Width(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultOptions().Width
}
