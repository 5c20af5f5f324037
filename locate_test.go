package dexc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const locateSource = `package demo

func add(a, b int) int {
	sum := a + b
	return sum
}
`

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLocate(t *testing.T) {
	path := writeSource(t, "demo.go", locateSource)
	loc := newLocator(DefaultOptions())

	t.Run("resolves a window around the target", func(t *testing.T) {
		info, ok := loc.locate(RawFrame{File: path, Line: 4})
		require.True(t, ok)
		w := info.window
		require.NotNil(t, w)

		assert.Equal(t, 4, w.TargetStart)
		require.Len(t, w.Target, 1)
		assert.Equal(t, "\tsum := a + b", w.Target[0])
		assert.Equal(t, 1, w.BeforeStart)
		assert.Equal(t, []string{"package demo", "", "func add(a, b int) int {"}, w.Before)
		assert.Equal(t, []string{"\treturn sum", "}"}, w.After)
		assert.Equal(t, 0, w.Omitted)
	})

	t.Run("derives column anchors from the syntax tree", func(t *testing.T) {
		info, ok := loc.locate(RawFrame{File: path, Line: 4})
		require.True(t, ok)
		require.Len(t, info.window.Anchors, 1)
		anchor := info.window.Anchors[0]
		// The assignment statement starts after the tab and spans
		// the whole expression.
		assert.Equal(t, 2, anchor.Start)
		assert.Equal(t, len("\tsum := a + b")+1, anchor.End)
	})

	t.Run("marks return statements as re-raise sites", func(t *testing.T) {
		info, ok := loc.locate(RawFrame{File: path, Line: 5})
		require.True(t, ok)
		assert.True(t, info.reraise)

		info, ok = loc.locate(RawFrame{File: path, Line: 4})
		require.True(t, ok)
		assert.False(t, info.reraise)
	})

	t.Run("clamps out-of-range columns", func(t *testing.T) {
		info, ok := loc.locate(RawFrame{File: path, Line: 4, ColStart: 99, ColEnd: 120})
		require.True(t, ok)
		anchor := info.window.Anchors[0]
		width := len("\tsum := a + b")
		assert.LessOrEqual(t, anchor.Start, width+1)
		assert.GreaterOrEqual(t, anchor.End, anchor.Start)
		assert.LessOrEqual(t, anchor.End, width+1)
	})

	t.Run("explicit columns pass through", func(t *testing.T) {
		info, ok := loc.locate(RawFrame{File: path, Line: 4, ColStart: 2, ColEnd: 5})
		require.True(t, ok)
		assert.Equal(t, Span{Start: 2, End: 5}, info.window.Anchors[0])
	})

	t.Run("unavailable sources yield no context", func(t *testing.T) {
		_, ok := loc.locate(RawFrame{File: filepath.Join(t.TempDir(), "gone.go"), Line: 1})
		assert.False(t, ok)

		_, ok = loc.locate(RawFrame{File: "<generated>", Line: 1})
		assert.False(t, ok)

		_, ok = loc.locate(RawFrame{File: path, Line: 0})
		assert.False(t, ok)

		_, ok = loc.locate(RawFrame{File: path, Line: 999})
		assert.False(t, ok)
	})

	t.Run("non-Go sources still get text windows", func(t *testing.T) {
		py := writeSource(t, "app.py", "def run():\n    raise ValueError('boom')\n")
		info, ok := loc.locate(RawFrame{File: py, Line: 2})
		require.True(t, ok)
		require.Len(t, info.window.Target, 1)
		assert.Equal(t, "    raise ValueError('boom')", info.window.Target[0])
		assert.False(t, info.reraise)
	})
}

func TestWindow(t *testing.T) {
	t.Run("trims blank context edges", func(t *testing.T) {
		loc := newLocator(DefaultOptions())
		lines := []string{"", "", "target()", "after()", "", ""}
		w := loc.window(lines, 3, 3, 0, 0)
		assert.Empty(t, w.Before)
		assert.Equal(t, 3, w.BeforeStart)
		assert.Equal(t, []string{"after()"}, w.After)
	})

	t.Run("cuts overlong targets", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxTargetLines = 3
		loc := newLocator(opts)
		lines := []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7"}
		w := loc.window(lines, 1, 6, 0, 0)
		// The cut marker always stands in for at least two lines.
		assert.Equal(t, []string{"l1", "l2"}, w.Target)
		assert.Equal(t, 4, w.Omitted)
		assert.Equal(t, []string{"l7"}, w.After)
		assert.Equal(t, 7, w.AfterStart)
	})

	t.Run("removes common indentation", func(t *testing.T) {
		loc := newLocator(DefaultOptions())
		lines := []string{"\t\tfirst()", "\t\t\tsecond()", "\t\tthird()"}
		w := loc.window(lines, 2, 2, 0, 0)
		assert.Equal(t, []string{"first()"}, w.Before)
		assert.Equal(t, []string{"\tsecond()"}, w.Target)
		assert.Equal(t, []string{"third()"}, w.After)
	})

	t.Run("keeps indentation when disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.RemoveCommonIndent = false
		loc := newLocator(opts)
		lines := []string{"\t\tfirst()", "\t\tsecond()"}
		w := loc.window(lines, 1, 1, 0, 0)
		assert.Equal(t, []string{"\t\tfirst()"}, w.Target)
	})
}

func TestTargetAnchor(t *testing.T) {
	opts := DefaultOptions()

	t.Run("single line span", func(t *testing.T) {
		got := targetAnchor("\traise(err)", 5, 5, 5, 2, 8, 0, opts)
		assert.Equal(t, Span{Start: 2, End: 8}, got)
	})

	t.Run("unknown columns anchor past the indent", func(t *testing.T) {
		got := targetAnchor("\traise(err)", 5, 5, 5, 0, 0, 0, opts)
		assert.Equal(t, 2, got.Start)
		assert.Equal(t, len("\traise(err)")+1, got.End)
	})

	t.Run("first line of a multi-line target runs to the end", func(t *testing.T) {
		got := targetAnchor("\tcall(", 5, 5, 7, 2, 4, 0, opts)
		assert.Equal(t, Span{Start: 2, End: len("\tcall(") + 1}, got)
	})

	t.Run("last line stops at the end column", func(t *testing.T) {
		got := targetAnchor("\t)", 7, 5, 7, 2, 3, 0, opts)
		assert.Equal(t, 2, got.Start)
		assert.Equal(t, 3, got.End)
	})

	t.Run("shifts for removed indentation", func(t *testing.T) {
		got := targetAnchor("\t\traise(err)", 5, 5, 5, 3, 9, 2, opts)
		assert.Equal(t, Span{Start: 1, End: 7}, got)
	})

	t.Run("blank line yields an empty span", func(t *testing.T) {
		got := targetAnchor("", 6, 5, 7, 0, 0, 0, opts)
		assert.Equal(t, got.Start, got.End)
	})
}

func TestSyntaxFallbackWindow(t *testing.T) {
	opts := DefaultOptions()

	t.Run("builds a window from the detail text", func(t *testing.T) {
		d := &SyntaxDetail{Line: 3, ColStart: 2, ColEnd: 6, Text: "badline"}
		w := syntaxFallbackWindow(d, opts)
		require.NotNil(t, w)
		assert.Equal(t, 3, w.TargetStart)
		assert.Equal(t, []string{"badline"}, w.Target)
		assert.Equal(t, Span{Start: 2, End: 6}, w.Anchors[0])
	})

	t.Run("no text, no window", func(t *testing.T) {
		assert.Nil(t, syntaxFallbackWindow(&SyntaxDetail{Line: 3}, opts))
	})
}

func TestLineHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", ""}, splitLines("a\n\n"))
	assert.Empty(t, splitLines(""))

	assert.Equal(t, 2, lineIndent("\t\tx"))
	assert.Equal(t, 0, lineIndent("x"))

	assert.Equal(t, 1, commonIndent([]string{"\ta", "", "\t\tb"}))
	assert.Equal(t, 0, commonIndent([]string{"", ""}))

	assert.Equal(t, "a", dedent("\ta", 1))
	assert.Equal(t, "", dedent("\t", 2))

	assert.Equal(t, 1, digits(9))
	assert.Equal(t, 2, digits(10))
	assert.Equal(t, 3, digits(100))
}
