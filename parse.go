package dexc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTrace reports panic-trace text this parser could not
// follow. A partially parsed record is still returned alongside it
// when any frames were recovered.
var ErrMalformedTrace = errors.New("dexc: malformed trace text")

// ParsePanicText parses the report a Go program writes on a crash:
//
//	panic: something broke
//
//	goroutine 1 [running]:
//	main.(*server).handle(0x0?)
//		/src/app/main.go:42 +0x1c
//	main.main()
//		/src/app/main.go:12 +0x64
//
// Only the first goroutine's stack is read; "created by" trailers and
// signal banners are skipped. The resulting record renders like a
// locally captured panic, source windows included when the referenced
// files are readable.
func ParsePanicText(data []byte) (*ErrorRecord, error) {
	lines := splitLines(strings.ReplaceAll(string(data), "\r\n", "\n"))

	rec := &ErrorRecord{Kind: RecordSimple, TypeName: "panic"}
	var frames []RawFrame // newest first, as printed
	var parseErr error
	inStack := false

scan:
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "panic: "):
			rec.Message = strings.TrimSuffix(strings.TrimPrefix(trimmed, "panic: "), " [recovered]")
		case strings.HasPrefix(trimmed, "fatal error: "):
			rec.TypeName = "fatal error"
			rec.Message = strings.TrimPrefix(trimmed, "fatal error: ")
		case strings.HasPrefix(trimmed, "[signal "):
			continue
		case strings.HasPrefix(trimmed, "goroutine "):
			if inStack {
				// Only the first goroutine is rendered.
				break scan
			}
			inStack = true
		case strings.HasPrefix(trimmed, "created by "):
			// Trailer names the spawning call.
			break scan
		case inStack:
			// A frame is a function line followed by an
			// indented location line.
			if i+1 >= len(lines) {
				parseErr = fmt.Errorf("%w: dangling function line %q", ErrMalformedTrace, line)
				break scan
			}
			loc := lines[i+1]
			if !strings.HasPrefix(loc, "\t") && !strings.HasPrefix(loc, "    ") {
				parseErr = fmt.Errorf("%w: missing location for %q", ErrMalformedTrace, line)
				break scan
			}
			file, lineNo, err := parseLocation(strings.TrimSpace(loc))
			if err != nil {
				parseErr = err
				break scan
			}
			frames = append(frames, RawFrame{
				Function: trimCallArgs(trimmed),
				File:     file,
				Line:     lineNo,
			})
			i++
		}
	}

	// Stored oldest first.
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	rec.Frames = frames

	if len(frames) == 0 && rec.Message == "" {
		if parseErr == nil {
			parseErr = fmt.Errorf("%w: no frames found", ErrMalformedTrace)
		}
		return nil, parseErr
	}
	return rec, parseErr
}

// trimCallArgs strips the argument list the runtime appends to a
// function line, keeping generic instantiations intact.
func trimCallArgs(line string) string {
	if !strings.HasSuffix(line, ")") {
		return line
	}
	depth := 0
	for i := len(line) - 1; i >= 0; i-- {
		switch line[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return line[:i]
			}
		}
	}
	return line
}

// parseLocation splits "/path/file.go:12 +0x1c" into path and line.
func parseLocation(loc string) (string, int, error) {
	if i := strings.Index(loc, " +0x"); i >= 0 {
		loc = loc[:i]
	}
	colon := strings.LastIndexByte(loc, ':')
	if colon <= 0 {
		return "", 0, fmt.Errorf("%w: unparsable location %q", ErrMalformedTrace, loc)
	}
	lineNo, err := strconv.Atoi(loc[colon+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: unparsable line number in %q", ErrMalformedTrace, loc)
	}
	return loc[:colon], lineNo, nil
}
