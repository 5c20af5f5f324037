package runtime

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func stackCaller(skip int) []runtime.Frame {
	return Stack(skip)
}

//go:noinline
func frameCaller(skip int) (runtime.Frame, bool) {
	return Caller(skip)
}

func TestStack(t *testing.T) {
	t.Run("starts at the caller", func(t *testing.T) {
		ff := stackCaller(0)
		require.NotEmpty(t, ff)
		assert.Contains(t, ff[0].Function, "stackCaller")
	})

	t.Run("skip drops the nearest frames", func(t *testing.T) {
		ff := stackCaller(1)
		require.NotEmpty(t, ff)
		assert.NotContains(t, ff[0].Function, "stackCaller")
		assert.Contains(t, ff[0].Function, "TestStack")
	})

	t.Run("trims the test harness from the tail", func(t *testing.T) {
		ff := stackCaller(0)
		require.NotEmpty(t, ff)
		last := ff[len(ff)-1].Function
		assert.NotEqual(t, "testing.tRunner", last)
		assert.NotEqual(t, "runtime.goexit", last)
	})
}

func TestCaller(t *testing.T) {
	fr, ok := frameCaller(0)
	require.True(t, ok)
	assert.Contains(t, fr.Function, "frameCaller")
	assert.True(t, strings.HasSuffix(fr.File, "runtime_test.go"))

	fr, ok = frameCaller(1)
	require.True(t, ok)
	assert.Contains(t, fr.Function, "TestCaller")
}

func TestExpand(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, Expand(nil))
	})

	t.Run("resolves program counters", func(t *testing.T) {
		var pcs [8]uintptr
		n := runtime.Callers(1, pcs[:])
		require.Greater(t, n, 0)
		ff := Expand(pcs[:n])
		require.NotEmpty(t, ff)
		assert.Contains(t, ff[0].Function, "TestExpand")
	})
}

func TestTrim(t *testing.T) {
	ff := []runtime.Frame{
		{Function: "runtime.gopanic"},
		{Function: "example.boom"},
		{Function: "example.main"},
		{Function: "runtime.main"},
		{Function: "runtime.goexit"},
	}
	got := trim(ff)
	require.Len(t, got, 2)
	assert.Equal(t, "example.boom", got[0].Function)
	assert.Equal(t, "example.main", got[1].Function)
}
