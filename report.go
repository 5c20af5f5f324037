package dexc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// The JSON report shape lets crashes captured elsewhere (another
// process, another runtime) be rendered here. It carries the full
// record tree, including links Go errors cannot express natively,
// such as a suppressed handling context.

// ErrBadReport reports a JSON document that does not describe an
// error record.
var ErrBadReport = errors.New("dexc: bad report")

type reportRecord struct {
	Type              string          `json:"type,omitempty"`
	Message           string          `json:"message,omitempty"`
	Frames            []reportFrame   `json:"frames,omitempty"`
	Cause             *reportRecord   `json:"cause,omitempty"`
	ExplicitCause     *bool           `json:"explicit_cause,omitempty"`
	Context           *reportRecord   `json:"context,omitempty"`
	ContextSuppressed bool            `json:"context_suppressed,omitempty"`
	Group             []*reportRecord `json:"group,omitempty"`
	Syntax            *reportSyntax   `json:"syntax,omitempty"`
}

// reportFrame lists frames in call order, oldest first, matching
// ErrorRecord.Frames.
type reportFrame struct {
	Function string `json:"function,omitempty"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	EndLine  int    `json:"end_line,omitempty"`
	ColStart int    `json:"col_start,omitempty"`
	ColEnd   int    `json:"col_end,omitempty"`
}

type reportSyntax struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	EndLine  int    `json:"end_line,omitempty"`
	ColStart int    `json:"col_start,omitempty"`
	ColEnd   int    `json:"col_end,omitempty"`
	Text     string `json:"text,omitempty"`
}

// RecordFromJSON decodes an error report. Malformed shapes degrade
// rather than fail where possible: a claimed group without sub-errors
// decodes as a plain record.
func RecordFromJSON(data []byte) (*ErrorRecord, error) {
	var raw reportRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReport, err)
	}
	rec := raw.record()
	if rec == nil {
		return nil, fmt.Errorf("%w: empty record", ErrBadReport)
	}
	return rec, nil
}

func (r *reportRecord) record() *ErrorRecord {
	if r == nil {
		return nil
	}
	rec := &ErrorRecord{
		Kind:              RecordSimple,
		TypeName:          r.Type,
		Message:           r.Message,
		Cause:             r.Cause.record(),
		ExplicitCause:     true,
		Context:           r.Context.record(),
		ContextSuppressed: r.ContextSuppressed,
	}
	if r.ExplicitCause != nil {
		rec.ExplicitCause = *r.ExplicitCause
	}
	for _, f := range r.Frames {
		rec.Frames = append(rec.Frames, RawFrame{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
			EndLine:  f.EndLine,
			ColStart: f.ColStart,
			ColEnd:   f.ColEnd,
		})
	}
	for _, sub := range r.Group {
		if s := sub.record(); s != nil {
			rec.Sub = append(rec.Sub, s)
		}
	}
	if len(rec.Sub) > 0 {
		rec.Kind = RecordGroup
	}
	if r.Syntax != nil {
		rec.Kind = RecordSyntax
		rec.Syntax = &SyntaxDetail{
			File:     r.Syntax.File,
			Line:     r.Syntax.Line,
			EndLine:  r.Syntax.EndLine,
			ColStart: r.Syntax.ColStart,
			ColEnd:   r.Syntax.ColEnd,
			Text:     r.Syntax.Text,
		}
	}
	if rec.TypeName == "" && rec.Message == "" && len(rec.Frames) == 0 &&
		rec.Kind == RecordSimple && rec.Cause == nil && rec.Context == nil {
		return nil
	}
	return rec
}

// MarshalJSON encodes the record tree in the report shape, so a crash
// rendered here can also be forwarded elsewhere.
func (r *ErrorRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.report())
}

func (r *ErrorRecord) report() *reportRecord {
	if r == nil {
		return nil
	}
	raw := &reportRecord{
		Type:              r.TypeName,
		Message:           r.Message,
		Cause:             r.Cause.report(),
		Context:           r.Context.report(),
		ContextSuppressed: r.ContextSuppressed,
	}
	if r.Cause != nil && !r.ExplicitCause {
		explicit := false
		raw.ExplicitCause = &explicit
	}
	for _, f := range r.Frames {
		raw.Frames = append(raw.Frames, reportFrame{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
			EndLine:  f.EndLine,
			ColStart: f.ColStart,
			ColEnd:   f.ColEnd,
		})
	}
	for _, sub := range r.Sub {
		raw.Group = append(raw.Group, sub.report())
	}
	if r.Syntax != nil {
		raw.Syntax = &reportSyntax{
			File:     r.Syntax.File,
			Line:     r.Syntax.Line,
			EndLine:  r.Syntax.EndLine,
			ColStart: r.Syntax.ColStart,
			ColEnd:   r.Syntax.ColEnd,
			Text:     r.Syntax.Text,
		}
	}
	return raw
}
