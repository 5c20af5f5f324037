package dexc

// ModelEntry pairs a walked chain entry with its reduced sequence and
// the boundary flag toward the previous entry.
type ModelEntry struct {
	ChainEntry
	Seq      *ReducedSequence
	Boundary BoundaryFlag

	// SyntaxFrame is the resolved pseudo-frame of a syntax-failure
	// record: the offending line with its column span, shown in
	// place of a call-frame list.
	SyntaxFrame *ClassifiedFrame
}

// RenderModel is the fully assembled input to the renderer: the walked
// chain with reduced sequences, resolved source windows, and boundary
// flags. It carries no styling decisions.
type RenderModel struct {
	Root    *ErrorRecord
	Entries []ModelEntry
}

// BuildModel runs the capture-independent half of the pipeline: walk
// the chain, classify and reduce every sequence, resolve source
// windows for the frames that earn one, and flag re-raise boundaries.
// Source reads are cached for the duration of this call only.
func BuildModel(root *ErrorRecord, opts Options) *RenderModel {
	opts = opts.sanitized()
	model := &RenderModel{Root: root}
	if root == nil {
		return model
	}

	classifier := NewClassifier(opts.Rules)
	loc := newLocator(opts)

	for _, ce := range Walk(root) {
		entry := ModelEntry{ChainEntry: ce}
		entry.Seq = reduceFrames(ce.Record.Frames, classifier.Classify, opts)
		attachWindows(entry.Seq, loc, opts)
		if ce.Record.Kind == RecordSyntax && ce.Record.Syntax != nil {
			entry.SyntaxFrame = syntaxFrame(ce.Record.Syntax, loc, opts)
		}

		if n := len(model.Entries); n > 0 && (ce.Link == LinkCause || ce.Link == LinkContext) {
			prev := model.Entries[n-1]
			if prev.Depth == ce.Depth {
				entry.Boundary = DetectBoundary(prev.Seq, entry.Seq, ce.ExplicitLink)
			}
		}
		model.Entries = append(model.Entries, entry)
	}
	return model
}

// attachWindows resolves source context for the displayed frames that
// warrant it: the most recent frame always, and the next few user
// frames. Unavailable sources simply leave the frame without context.
func attachWindows(seq *ReducedSequence, loc *locator, opts Options) {
	index := 0
	for _, it := range seq.Items {
		if it.Frame == nil {
			continue
		}
		fr := it.Frame
		if index == 0 || (fr.Kind == KindUser && index < opts.ContextDepth) {
			if info, ok := loc.locate(fr.RawFrame); ok {
				fr.Window = info.window
				// The most recent frame is where the error was born;
				// only callers above it can be re-raise sites.
				fr.Reraise = info.reraise && index > 0
				if len(info.window.Anchors) > 0 {
					anchor := info.window.Anchors[0]
					fr.Highlight = &anchor
				}
			}
		}
		index++
	}
}

// syntaxFrame resolves the pseudo-frame for a syntax failure. When
// the offending file cannot be read back, the detail's own text (if
// any) stands in for it.
func syntaxFrame(d *SyntaxDetail, loc *locator, opts Options) *ClassifiedFrame {
	fr := &ClassifiedFrame{RawFrame: d.syntaxFrame(), Kind: KindUser}
	if info, ok := loc.locate(fr.RawFrame); ok {
		fr.Window = info.window
	} else if w := syntaxFallbackWindow(d, opts); w != nil {
		fr.Window = w
	}
	if fr.Window != nil && len(fr.Window.Anchors) > 0 {
		anchor := fr.Window.Anchors[0]
		fr.Highlight = &anchor
	}
	return fr
}
