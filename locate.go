package dexc

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// Span is a half-open column range on a single source line, 1-based.
type Span struct {
	Start int
	End   int
}

// ContextWindow is the source excerpt displayed under a frame header:
// a few context lines, the target line(s) with caret anchors, and a
// few trailing context lines. All lines are pre-dedented.
type ContextWindow struct {
	// Before holds the context lines preceding the target;
	// BeforeStart is the 1-based file line number of Before[0].
	Before      []string
	BeforeStart int

	// Target holds the displayed target lines (possibly cut);
	// TargetStart numbers Target[0]. Anchors carries one caret span
	// per target line, aligned with Target.
	Target      []string
	TargetStart int
	Anchors     []Span

	// Omitted counts target lines cut by the display limit.
	Omitted int

	// After holds the context lines following the full target;
	// AfterStart numbers After[0].
	After      []string
	AfterStart int

	// NumberWidth is the digit width of the largest displayed line
	// number.
	NumberWidth int
}

// sourceInfo is the locator's result for one frame.
type sourceInfo struct {
	window  *ContextWindow
	reraise bool
}

// sourceUnit is one cached source file. The parse is attempted only
// for Go sources; other units still provide text windows.
type sourceUnit struct {
	lines []string
	fset  *token.FileSet
	file  *ast.File
	tok   *token.File
	err   error
}

// locator reads and parses source units, caching them for the
// lifetime of a single render call.
type locator struct {
	cache map[string]*sourceUnit
	opts  Options
}

func newLocator(opts Options) *locator {
	return &locator{cache: make(map[string]*sourceUnit), opts: opts}
}

// unit returns the cached source unit for a path, reading and parsing
// it on first use. Failures are cached too so a missing file is only
// stat'd once per render.
func (l *locator) unit(path string) *sourceUnit {
	if u, ok := l.cache[path]; ok {
		return u
	}
	u := &sourceUnit{}
	l.cache[path] = u
	if path == "" || strings.HasPrefix(path, "<") {
		u.err = os.ErrNotExist
		return u
	}
	data, err := os.ReadFile(path)
	if err != nil {
		u.err = err
		return u
	}
	u.lines = splitLines(string(data))
	if strings.HasSuffix(path, ".go") {
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, data, parser.SkipObjectResolution)
		if err == nil && file != nil {
			u.fset = fset
			u.file = file
			u.tok = fset.File(file.Pos())
		}
	}
	return u
}

// locate resolves a frame's source window and caret anchors. The
// second result is false when the source unit is unavailable or the
// frame has no usable line: callers treat that as "no context", never
// as an error.
func (l *locator) locate(f RawFrame) (sourceInfo, bool) {
	u := l.unit(f.File)
	if u.err != nil || f.Line < 1 || f.Line > len(u.lines) {
		return sourceInfo{}, false
	}

	lineStart := f.Line
	lineEnd := f.endLine()
	if lineEnd > len(u.lines) {
		lineEnd = len(u.lines)
	}

	colStart, colEnd := f.ColStart, f.ColEnd
	var reraise bool
	if u.file != nil {
		node, path := u.enclosingNode(lineStart, lineEnd, colStart, colEnd)
		reraise = isReraiseSite(path)
		if colStart == 0 && node != nil {
			start := u.fset.Position(node.Pos())
			end := u.fset.Position(node.End())
			if start.Line == lineStart && end.Line >= lineStart && end.Line <= lineStart+l.opts.MaxTargetLines {
				colStart, colEnd = start.Column, end.Column
				if end.Line > lineEnd {
					lineEnd = end.Line
				}
				if end.Line > lineStart {
					// End column belongs to the node's last line.
					colEnd = end.Column
				}
			}
		}
	}

	w := l.window(u.lines, lineStart, lineEnd, colStart, colEnd)
	return sourceInfo{window: w, reraise: reraise}, true
}

// enclosingNode finds the smallest AST node covering the frame's
// location: the exact column span when available, otherwise the
// non-blank extent of the target line.
func (u *sourceUnit) enclosingNode(lineStart, lineEnd, colStart, colEnd int) (ast.Node, []ast.Node) {
	if u.tok == nil || lineStart > u.tok.LineCount() {
		return nil, nil
	}
	var start, end token.Pos
	if colStart > 0 {
		start = u.linePos(lineStart, colStart)
		if colEnd > colStart && lineEnd <= u.tok.LineCount() {
			end = u.linePos(lineEnd, colEnd)
		} else {
			end = start
		}
	} else {
		line := u.lines[lineStart-1]
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		start = u.linePos(lineStart, indent+1)
		end = u.linePos(lineStart, len(strings.TrimRight(line, " \t")))
		if end < start {
			end = start
		}
	}
	path, _ := astutil.PathEnclosingInterval(u.file, start, end)
	if len(path) == 0 {
		return nil, nil
	}
	return path[0], path
}

// linePos converts a 1-based line and column to a token.Pos, clamping
// the column to the line's extent.
func (u *sourceUnit) linePos(line, col int) token.Pos {
	pos := u.tok.LineStart(line)
	width := len(u.lines[line-1])
	if col > width+1 {
		col = width + 1
	}
	if col < 1 {
		col = 1
	}
	return pos + token.Pos(col-1)
}

// isReraiseSite reports whether the located node sits in a statement
// that re-propagates an error: a return statement or a panic call.
func isReraiseSite(path []ast.Node) bool {
	for _, n := range path {
		switch n := n.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.CallExpr:
			if id, ok := n.Fun.(*ast.Ident); ok && id.Name == "panic" {
				return true
			}
		case *ast.FuncDecl, *ast.FuncLit:
			return false
		}
	}
	return false
}

// window assembles the displayed excerpt around a target line range.
// Column coordinates outside the line are clamped, never indexed.
func (l *locator) window(lines []string, lineStart, lineEnd, colStart, colEnd int) *ContextWindow {
	opts := l.opts

	// Cut overlong targets; the cut marker always stands in for at
	// least two lines.
	lineEndCut := lineEnd
	if lineEnd-lineStart+1 > opts.MaxTargetLines {
		lineEndCut = lineStart + opts.MaxTargetLines - 2
	}

	ctxStart := lineStart - opts.ContextBefore
	if ctxStart < 1 {
		ctxStart = 1
	}
	ctxEnd := lineEnd + opts.ContextAfter
	if ctxEnd > len(lines) {
		ctxEnd = len(lines)
	}
	for ctxStart < lineStart && strings.TrimSpace(lines[ctxStart-1]) == "" {
		ctxStart++
	}
	for ctxEnd > lineEnd && strings.TrimSpace(lines[ctxEnd-1]) == "" {
		ctxEnd--
	}

	common := 0
	if opts.RemoveCommonIndent {
		common = commonIndent(lines[ctxStart-1 : ctxEnd])
	}

	w := &ContextWindow{
		BeforeStart: ctxStart,
		TargetStart: lineStart,
		Omitted:     lineEnd - lineEndCut,
		AfterStart:  lineEnd + 1,
		NumberWidth: digits(ctxEnd),
	}
	for _, line := range lines[ctxStart-1 : lineStart-1] {
		w.Before = append(w.Before, dedent(line, common))
	}
	for n := lineStart; n <= lineEndCut; n++ {
		line := lines[n-1]
		w.Target = append(w.Target, dedent(line, common))
		w.Anchors = append(w.Anchors, targetAnchor(line, n, lineStart, lineEnd, colStart, colEnd, common, opts))
	}
	if lineEnd < ctxEnd {
		for _, line := range lines[lineEnd:ctxEnd] {
			w.After = append(w.After, dedent(line, common))
		}
	}
	return w
}

// targetAnchor computes the caret span for one displayed target line,
// clamped to the line's dedented extent.
func targetAnchor(line string, n, lineStart, lineEnd, colStart, colEnd, common int, opts Options) Span {
	indent := 0
	if opts.SkipIndentHighlight {
		indent = lineIndent(line)
	}

	var start, end int
	switch {
	case n == lineStart:
		start = colStart
		if start < 1 {
			start = indent + 1
		}
		if lineStart == lineEnd && colEnd >= start {
			end = colEnd
		} else {
			end = len(line) + 1
		}
	case n == lineEnd:
		start = indent + 1
		end = colEnd
	default:
		start = indent + 1
		end = len(line) + 1
	}

	// Clamp to line bounds, then shift for removed indentation.
	if start > len(line)+1 {
		start = len(line) + 1
	}
	if start < 1 {
		start = 1
	}
	if end > len(line)+1 {
		end = len(line) + 1
	}
	if end <= start && len(strings.TrimSpace(line)) > 0 && start <= len(line) {
		end = start + 1
	}
	s := start - common
	e := end - common
	if s < 1 {
		s = 1
	}
	if e < s {
		e = s
	}
	return Span{Start: s, End: e}
}

// syntaxFallbackWindow builds a window from a syntax detail's own
// text when the offending file is unavailable.
func syntaxFallbackWindow(d *SyntaxDetail, opts Options) *ContextWindow {
	lines := splitLines(d.Text)
	if len(lines) == 0 || d.Line < 1 {
		return nil
	}
	lineStart := d.Line
	lineEnd := lineStart + len(lines) - 1
	w := &ContextWindow{
		TargetStart: lineStart,
		BeforeStart: lineStart,
		AfterStart:  lineEnd + 1,
		NumberWidth: digits(lineEnd),
	}
	for i, line := range lines {
		w.Target = append(w.Target, line)
		w.Anchors = append(w.Anchors, targetAnchor(
			line, lineStart+i, lineStart, lineEnd, d.ColStart, d.ColEnd, 0, opts))
	}
	return w
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func lineIndent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// commonIndent returns the indentation shared by every non-blank line.
func commonIndent(lines []string) int {
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := lineIndent(line); common < 0 || n < common {
			common = n
		}
	}
	if common < 0 {
		return 0
	}
	return common
}

func dedent(line string, n int) string {
	if n <= 0 {
		return line
	}
	if n > len(line) {
		return ""
	}
	return line[n:]
}

func digits(n int) int {
	w := 1
	for n >= 10 {
		n /= 10
		w++
	}
	return w
}
