package dexc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ErrRenderFailure reports an internal invariant violation inside the
// renderer. Even then the returned text is a usable raw dump of the
// error chain: the output of a failure reporter must never be empty.
var ErrRenderFailure = errors.New("dexc: render failure")

// invariantViolation is panicked (and recovered) when the model
// breaks one of its guarantees mid-render.
type invariantViolation struct {
	msg string
}

func (v invariantViolation) Error() string { return v.msg }

// Render serializes an assembled model to text. It is deterministic:
// the same model and options yield byte-identical output, and the
// styled output stripped of escape sequences equals the unstyled one.
//
// On an internal failure Render degrades to a raw, unstyled dump of
// the chain and reports ErrRenderFailure alongside it.
func Render(model *RenderModel, opts Options) (out string, err error) {
	opts = opts.sanitized()
	r := &renderer{
		opts:   opts,
		styles: newStyles(opts.Color),
	}
	if wd, werr := os.Getwd(); werr == nil {
		r.cwd = wd
	}

	defer func() {
		if p := recover(); p != nil {
			out = rawDump(model.Root)
			err = fmt.Errorf("%w: %v", ErrRenderFailure, p)
		}
	}()

	r.writeModel(model)
	return r.buf.String(), nil
}

type renderer struct {
	buf    strings.Builder
	opts   Options
	styles styleSet
	cwd    string
}

const frameIndent = "    "

func (r *renderer) writeModel(model *RenderModel) {
	if model == nil || len(model.Entries) == 0 {
		return
	}
	depth := 0
	for i, entry := range model.Entries {
		if !entry.Seq.conserved() {
			panic(invariantViolation{msg: "frame count not conserved for " + entry.Record.Header()})
		}

		switch {
		case entry.Depth > depth:
			// First sub-error of a group: open its rail.
			r.rail(entry.Depth-1, true)
		case entry.Depth < depth:
			for d := depth; d > entry.Depth; d-- {
				r.rail(d-1, false)
			}
			if entry.Link == LinkGroup {
				// The previous sibling sub-error ends here
				// too.
				r.rail(entry.Depth-1, false)
			}
		case entry.Link == LinkGroup && i > 0:
			// Next sub-error at the same depth: close the
			// previous one's rail.
			r.rail(entry.Depth-1, false)
		}
		depth = entry.Depth

		skipHeader := false
		if i > 0 && (entry.Link == LinkCause || entry.Link == LinkContext) {
			if entry.Boundary.IsBareReraise {
				// One continuous failure: mark the seam
				// without a blank separator.
				r.line(depth, r.styles.italic.Render("[re-raised]"))
				prev := model.Entries[i-1].Record
				skipHeader = prev.TypeName == entry.Record.TypeName &&
					prev.Message == entry.Record.Message
			} else {
				marker := "[Direct cause of the following]"
				if entry.Link == LinkContext {
					marker = "[Raised while handling the above]"
				}
				r.line(depth, "")
				r.line(depth, r.styles.italic.Render(marker))
				r.line(depth, "")
			}
		}

		r.writeRecord(entry, skipHeader)
	}
	for d := depth; d > 0; d-- {
		r.rail(d-1, false)
	}
}

func (r *renderer) writeRecord(entry ModelEntry, skipHeader bool) {
	rec := entry.Record
	if !skipHeader {
		r.line(entry.Depth, rec.Header())
	}

	if rec.Kind == RecordSyntax {
		if entry.SyntaxFrame != nil {
			r.writeFrame(entry.Depth, entry.SyntaxFrame, 0)
		}
		return
	}

	index := 0
	for _, it := range entry.Seq.Items {
		if it.Elision != nil {
			r.writeElision(entry.Depth, it.Elision)
			continue
		}
		r.writeFrame(entry.Depth, it.Frame, index)
		index++
	}
}

func (r *renderer) writeElision(depth int, el *Elision) {
	noun := "frames"
	if el.Count == 1 {
		noun = "frame"
	}
	text := fmt.Sprintf("  ... %d %s omitted", el.Count, noun)
	if el.First != "" {
		if el.Last != "" && el.Last != el.First {
			text += fmt.Sprintf(": %s ... %s", el.First, el.Last)
		} else {
			text += ": " + el.First
		}
	}
	r.line(depth, r.styles.dim.Render(text))
}

func (r *renderer) writeFrame(depth int, fr *ClassifiedFrame, index int) {
	dimmed := fr.Minimized && index != 0

	name := fr.FuncBase()
	if fr.Window != nil {
		name = r.styles.underline.Render(name)
	}
	header := "  at " + name + " (" + r.location(fr.RawFrame) + ")"
	if fr.Reraise {
		header += " [re-raise]"
	}
	if dimmed {
		header = r.styles.dim.Render(header)
	}
	r.line(depth, header)

	if fr.Window != nil {
		r.writeWindow(depth, fr.Window)
	}
}

func (r *renderer) location(f RawFrame) string {
	unit := r.displayPath(f.File)
	if f.Line > 0 && !strings.HasPrefix(f.File, "<") {
		return fmt.Sprintf("%s:%d", unit, f.Line)
	}
	return unit
}

// displayPath shortens a source unit for display, preferring a path
// relative to the working directory when that is actually shorter.
func (r *renderer) displayPath(path string) string {
	if path == "" {
		return "<unknown>"
	}
	if r.cwd != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(r.cwd, path); err == nil &&
			!strings.HasPrefix(rel, "..") && len(rel) < len(path) {
			return rel
		}
	}
	return path
}

func (r *renderer) writeWindow(depth int, w *ContextWindow) {
	maxText := r.opts.Width - r.prefixWidth(depth) - len(frameIndent) - w.NumberWidth - 1
	if maxText < 8 {
		maxText = 8
	}

	for i, line := range w.Before {
		r.contextLine(depth, w.BeforeStart+i, w.NumberWidth, line, maxText)
	}

	for i, line := range w.Target {
		line = cut(line, maxText)
		r.line(depth, fmt.Sprintf("%s%*d %s", frameIndent, w.NumberWidth, w.TargetStart+i, line))
		if i < len(w.Anchors) {
			r.caretLine(depth, w.NumberWidth, w.Anchors[i], len(line))
		}
	}
	if w.Omitted > 0 {
		pad := strings.Repeat(" ", w.NumberWidth+1)
		r.line(depth, fmt.Sprintf("%s%s[%d more lines]", frameIndent, pad, w.Omitted))
	}

	for i, line := range w.After {
		r.contextLine(depth, w.AfterStart+i, w.NumberWidth, line, maxText)
	}
	r.line(depth, "")
}

func (r *renderer) contextLine(depth, number, numberWidth int, line string, maxText int) {
	text := fmt.Sprintf("%s%*d %s", frameIndent, numberWidth, number, cut(line, maxText))
	// Trim before styling: escape sequences would shield trailing
	// spaces from the final trim and break the styled/plain parity.
	text = strings.TrimRight(text, " ")
	r.line(depth, r.styles.dim.Render(text))
}

// caretLine underlines an anchor span with carets, clamped to the
// displayed (possibly cut) line width.
func (r *renderer) caretLine(depth, numberWidth int, anchor Span, lineWidth int) {
	start, end := anchor.Start, anchor.End
	if start > lineWidth+1 {
		start = lineWidth + 1
	}
	if end > lineWidth+1 {
		end = lineWidth + 1
	}
	if end <= start {
		return
	}
	pad := strings.Repeat(" ", numberWidth+1+start-1)
	carets := strings.Repeat("^", end-start)
	r.line(depth, frameIndent+pad+r.styles.red.Render(carets))
}

// rail draws a group border: the opening rail carries the joint that
// the sub-errors hang from, the closing rail ends one sub-error.
func (r *renderer) rail(depth int, open bool) {
	head := r.prefix(depth)
	if open {
		head += "  +--+"
	} else {
		head += "  +"
	}
	width := r.opts.Width - lipgloss.Width(head)
	if width < 0 {
		width = 0
	}
	r.buf.WriteString(head + strings.Repeat("-", width) + "\n")
}

func (r *renderer) prefix(depth int) string {
	return strings.Repeat("  | ", depth)
}

func (r *renderer) prefixWidth(depth int) int {
	return 4 * depth
}

// line writes one prefixed output line, trimming the trailing spaces
// a blank prefixed line would otherwise carry.
func (r *renderer) line(depth int, text string) {
	out := r.prefix(depth) + text
	out = strings.TrimRight(out, " ")
	r.buf.WriteString(out + "\n")
}

// cut hard-truncates a line to the given display width.
func cut(line string, max int) string {
	if lipgloss.Width(line) <= max {
		return line
	}
	runes := []rune(line)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

// rawDump is the last-resort formatter: a plain, unstyled rendition
// of the chain used when the renderer itself fails.
func rawDump(root *ErrorRecord) string {
	var buf strings.Builder
	var dump func(rec *ErrorRecord, indent string)
	seen := map[*ErrorRecord]bool{}
	dump = func(rec *ErrorRecord, indent string) {
		if rec == nil || seen[rec] {
			return
		}
		seen[rec] = true
		buf.WriteString(indent + rec.Header() + "\n")
		for i := len(rec.Frames) - 1; i >= 0; i-- {
			f := rec.Frames[i]
			fmt.Fprintf(&buf, "%s  %s\n", indent, f.Function)
			fmt.Fprintf(&buf, "%s  \t%s:%d\n", indent, f.File, f.Line)
		}
		for _, sub := range rec.Sub {
			dump(sub, indent+"  ")
		}
		if rec.Cause != nil {
			buf.WriteString(indent + "caused by:\n")
			dump(rec.Cause, indent)
		} else if rec.Context != nil && !rec.ContextSuppressed {
			buf.WriteString(indent + "while handling:\n")
			dump(rec.Context, indent)
		}
	}
	dump(root, "")
	if buf.Len() == 0 {
		return "error: (unavailable)\n"
	}
	return buf.String()
}
