package dexc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleRecord(msg string) *ErrorRecord {
	return &ErrorRecord{Kind: RecordSimple, TypeName: "error", Message: msg}
}

func TestWalk(t *testing.T) {
	t.Run("nil root", func(t *testing.T) {
		assert.Nil(t, Walk(nil))
	})

	t.Run("single record", func(t *testing.T) {
		entries := Walk(simpleRecord("boom"))
		require.Len(t, entries, 1)
		assert.Equal(t, LinkRoot, entries[0].Link)
		assert.Equal(t, 0, entries[0].Depth)
	})

	t.Run("cause chain emits oldest first", func(t *testing.T) {
		root := simpleRecord("root cause")
		mid := simpleRecord("mid")
		mid.Cause, mid.ExplicitCause = root, false
		top := simpleRecord("top")
		top.Cause, top.ExplicitCause = mid, true

		entries := Walk(top)
		require.Len(t, entries, 3)

		assert.Equal(t, "root cause", entries[0].Record.Message)
		assert.Equal(t, LinkRoot, entries[0].Link)

		assert.Equal(t, "mid", entries[1].Record.Message)
		assert.Equal(t, LinkCause, entries[1].Link)
		assert.False(t, entries[1].ExplicitLink)

		assert.Equal(t, "top", entries[2].Record.Message)
		assert.Equal(t, LinkCause, entries[2].Link)
		assert.True(t, entries[2].ExplicitLink)
	})

	t.Run("context is followed when not suppressed", func(t *testing.T) {
		handled := simpleRecord("original")
		rec := simpleRecord("while handling")
		rec.Context = handled

		entries := Walk(rec)
		require.Len(t, entries, 2)
		assert.Equal(t, "original", entries[0].Record.Message)
		assert.Equal(t, LinkContext, entries[1].Link)
	})

	t.Run("suppressed context is skipped", func(t *testing.T) {
		rec := simpleRecord("boom")
		rec.Context = simpleRecord("hidden")
		rec.ContextSuppressed = true

		entries := Walk(rec)
		require.Len(t, entries, 1)
		assert.Equal(t, "boom", entries[0].Record.Message)
	})

	t.Run("cause takes precedence over context", func(t *testing.T) {
		rec := simpleRecord("boom")
		rec.Cause = simpleRecord("the cause")
		rec.ExplicitCause = true
		rec.Context = simpleRecord("the context")

		entries := Walk(rec)
		require.Len(t, entries, 2)
		assert.Equal(t, "the cause", entries[0].Record.Message)
	})

	t.Run("group sub-errors follow depth-first in order", func(t *testing.T) {
		first := simpleRecord("first")
		first.Cause = simpleRecord("first cause")
		first.ExplicitCause = true

		inner := &ErrorRecord{
			Kind:     RecordGroup,
			TypeName: "errors",
			Message:  "1 error",
			Sub:      []*ErrorRecord{simpleRecord("nested")},
		}
		group := &ErrorRecord{
			Kind:     RecordGroup,
			TypeName: "errors",
			Message:  "2 errors",
			Sub:      []*ErrorRecord{first, inner},
		}

		entries := Walk(group)
		require.Len(t, entries, 5)

		assert.Equal(t, "2 errors", entries[0].Record.Message)
		assert.Equal(t, 0, entries[0].Depth)

		assert.Equal(t, "first cause", entries[1].Record.Message)
		assert.Equal(t, 1, entries[1].Depth)
		assert.Equal(t, LinkGroup, entries[1].Link)

		assert.Equal(t, "first", entries[2].Record.Message)
		assert.Equal(t, 1, entries[2].Depth)
		assert.Equal(t, LinkCause, entries[2].Link)

		assert.Equal(t, "1 error", entries[3].Record.Message)
		assert.Equal(t, 1, entries[3].Depth)
		assert.Equal(t, LinkGroup, entries[3].Link)

		assert.Equal(t, "nested", entries[4].Record.Message)
		assert.Equal(t, 2, entries[4].Depth)
		assert.Equal(t, LinkGroup, entries[4].Link)
	})

	t.Run("cyclic links terminate", func(t *testing.T) {
		a := simpleRecord("a")
		b := simpleRecord("b")
		a.Cause, b.Cause = b, a

		entries := Walk(a)
		require.Len(t, entries, 2)
		assert.Equal(t, "b", entries[0].Record.Message)
		assert.Equal(t, "a", entries[1].Record.Message)
	})

	t.Run("sub-error linking back to its group terminates", func(t *testing.T) {
		sub := simpleRecord("worker failed")
		group := &ErrorRecord{
			Kind:     RecordGroup,
			TypeName: "errors",
			Message:  "1 error",
			Sub:      []*ErrorRecord{sub},
		}
		sub.Cause, sub.ExplicitCause = group, true

		entries := Walk(group)
		require.Len(t, entries, 2)
		assert.Equal(t, "1 error", entries[0].Record.Message)
		assert.Equal(t, "worker failed", entries[1].Record.Message)
		assert.Equal(t, 1, entries[1].Depth)
		assert.Equal(t, LinkGroup, entries[1].Link)
	})
}
