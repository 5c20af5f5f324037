package dexc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const panicText = `panic: something broke

goroutine 1 [running]:
main.(*server).handle(0x0?)
	/src/app/main.go:42 +0x1c
main.run(0x14000104000)
	/src/app/main.go:30 +0x88
main.main()
	/src/app/main.go:12 +0x64
`

func TestParsePanicText(t *testing.T) {
	t.Run("full report", func(t *testing.T) {
		rec, err := ParsePanicText([]byte(panicText))
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.Equal(t, "panic", rec.TypeName)
		assert.Equal(t, "something broke", rec.Message)

		require.Len(t, rec.Frames, 3)
		// Oldest first.
		assert.Equal(t, "main.main", rec.Frames[0].Function)
		assert.Equal(t, 12, rec.Frames[0].Line)
		assert.Equal(t, "main.run", rec.Frames[1].Function)
		assert.Equal(t, "main.(*server).handle", rec.Frames[2].Function)
		assert.Equal(t, "/src/app/main.go", rec.Frames[2].File)
		assert.Equal(t, 42, rec.Frames[2].Line)
	})

	t.Run("recovered marker is stripped", func(t *testing.T) {
		text := "panic: boom [recovered]\n\ngoroutine 7 [running]:\nmain.main()\n\t/src/m.go:3 +0x10\n"
		rec, err := ParsePanicText([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, "boom", rec.Message)
	})

	t.Run("fatal error header", func(t *testing.T) {
		text := "fatal error: all goroutines are asleep - deadlock!\n\ngoroutine 1 [running]:\nmain.main()\n\t/src/m.go:9 +0x20\n"
		rec, err := ParsePanicText([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, "fatal error", rec.TypeName)
		assert.Equal(t, "all goroutines are asleep - deadlock!", rec.Message)
		require.Len(t, rec.Frames, 1)
	})

	t.Run("signal banner is skipped", func(t *testing.T) {
		text := "panic: runtime error: invalid memory address or nil pointer dereference\n" +
			"[signal SIGSEGV: segmentation violation code=0x1 addr=0x0 pc=0x104]\n\n" +
			"goroutine 1 [running]:\nmain.main()\n\t/src/m.go:5 +0x18\n"
		rec, err := ParsePanicText([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, "runtime error: invalid memory address or nil pointer dereference", rec.Message)
		require.Len(t, rec.Frames, 1)
	})

	t.Run("only the first goroutine is read", func(t *testing.T) {
		text := panicText +
			"\ngoroutine 18 [select]:\nnet/http.(*Server).Serve(0x0)\n\t/goroot/src/net/http/server.go:3031 +0x30\n"
		rec, err := ParsePanicText([]byte(text))
		require.NoError(t, err)
		assert.Len(t, rec.Frames, 3)
	})

	t.Run("created-by trailer stops the stack", func(t *testing.T) {
		text := panicText +
			"created by main.spawn in goroutine 1\n\t/src/app/main.go:8 +0x44\n"
		rec, err := ParsePanicText([]byte(text))
		require.NoError(t, err)
		assert.Len(t, rec.Frames, 3)
	})

	t.Run("dangling function line is malformed", func(t *testing.T) {
		text := "panic: boom\n\ngoroutine 1 [running]:\nmain.main()\n"
		rec, err := ParsePanicText([]byte(text))
		assert.ErrorIs(t, err, ErrMalformedTrace)
		// The header was still recovered.
		require.NotNil(t, rec)
		assert.Equal(t, "boom", rec.Message)
	})

	t.Run("unrecognizable input", func(t *testing.T) {
		rec, err := ParsePanicText([]byte("not a trace at all\n"))
		assert.ErrorIs(t, err, ErrMalformedTrace)
		assert.Nil(t, rec)
	})
}

func TestTrimCallArgs(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"main.main()", "main.main"},
		{"main.run(0x14000104000)", "main.run"},
		{"main.(*server).handle(0x0?)", "main.(*server).handle"},
		{"main.Do[go.shape.int](0x1)", "main.Do[go.shape.int]"},
		{"main.noArgs", "main.noArgs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, trimCallArgs(tt.in), tt.in)
	}
}

func TestParseLocation(t *testing.T) {
	file, line, err := parseLocation("/src/app/main.go:42 +0x1c")
	require.NoError(t, err)
	assert.Equal(t, "/src/app/main.go", file)
	assert.Equal(t, 42, line)

	file, line, err = parseLocation("/src/app/main.go:7")
	require.NoError(t, err)
	assert.Equal(t, "/src/app/main.go", file)
	assert.Equal(t, 7, line)

	_, _, err = parseLocation("no-line-number")
	assert.ErrorIs(t, err, ErrMalformedTrace)
}
