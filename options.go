package dexc

// Options tunes rendering. Zero values are not useful: start from
// DefaultOptions and adjust.
type Options struct {
	// ContextBefore and ContextAfter bound the number of source
	// lines shown around a frame's target lines.
	ContextBefore int
	ContextAfter  int

	// MaxTargetLines caps how many lines of a multi-line target are
	// shown before a "[k more lines]" marker.
	MaxTargetLines int

	// SkipIndentHighlight starts caret anchors after a continuation
	// line's indentation instead of at column one.
	SkipIndentHighlight bool

	// RemoveCommonIndent strips the indentation shared by every
	// displayed line of a context window.
	RemoveCommonIndent bool

	// CollapseThreshold is the largest run of consecutive
	// infrastructure or elidable frames shown (de-emphasized)
	// instead of collapsed into an elision marker.
	CollapseThreshold int

	// MaxFrames caps the frames displayed for one record; longer
	// sequences are truncated from the middle.
	MaxFrames int

	// ContextDepth is how many of the most recent frames are
	// eligible for a context window (the most recent frame always
	// gets one when its source is available).
	ContextDepth int

	// Width is the output width used for group rails and source
	// line truncation.
	Width int

	// Color enables ANSI styling. Resolution of the enabled state
	// from the environment belongs to the caller; see ColorEnabled.
	Color bool

	// NoColor forces styling off. It wins over Color and stops Hook
	// from resolving the enabled state on its own.
	NoColor bool

	// Rules configures the frame classifier.
	Rules Rules
}

// DefaultOptions returns the options used by Dump when none are
// supplied.
func DefaultOptions() Options {
	return Options{
		ContextBefore:       3,
		ContextAfter:        2,
		MaxTargetLines:      5,
		SkipIndentHighlight: true,
		RemoveCommonIndent:  true,
		CollapseThreshold:   3,
		MaxFrames:           32,
		ContextDepth:        3,
		Width:               80,
	}
}

// sanitized fills in unusable option values so the pipeline never has
// to guard against zero or negative limits.
func (o Options) sanitized() Options {
	def := DefaultOptions()
	if o.NoColor {
		o.Color = false
	}
	if o.MaxTargetLines < 2 {
		o.MaxTargetLines = def.MaxTargetLines
	}
	if o.CollapseThreshold < 1 {
		o.CollapseThreshold = def.CollapseThreshold
	}
	if o.MaxFrames < 2 {
		o.MaxFrames = def.MaxFrames
	}
	if o.ContextDepth < 1 {
		o.ContextDepth = def.ContextDepth
	}
	if o.Width < 20 {
		o.Width = def.Width
	}
	if o.ContextBefore < 0 {
		o.ContextBefore = 0
	}
	if o.ContextAfter < 0 {
		o.ContextAfter = 0
	}
	return o
}
