package dexc

// ClassifiedFrame is a RawFrame joined with its classification and,
// once the model is assembled, its resolved source context.
type ClassifiedFrame struct {
	RawFrame
	Kind Kind

	// Minimized frames are shown de-emphasized rather than elided.
	Minimized bool

	// Window and Highlight are attached during model assembly for
	// the frames that earn a source excerpt. Highlight, when
	// present, is the caret span of the window's first target line
	// and always falls within that line's bounds.
	Window    *ContextWindow
	Highlight *Span

	// Reraise marks frames whose located statement re-propagates an
	// error (a return or panic site).
	Reraise bool
}

// Elision stands in for a run of omitted frames.
type Elision struct {
	Count int
	// First and Last name the first and last collapsed frame in
	// display order.
	First string
	Last  string
}

// DisplayItem is one entry of a reduced sequence: exactly one of
// Frame or Elision is set.
type DisplayItem struct {
	Frame   *ClassifiedFrame
	Elision *Elision
}

// ReducedSequence is a record's frame sequence in final display order,
// most recent call first, with elision markers in place of omitted
// runs. Displayed frames plus elided counts always total Total.
type ReducedSequence struct {
	Items []DisplayItem
	Total int
}

// Displayed counts the frames shown (not elided).
func (s *ReducedSequence) Displayed() int {
	n := 0
	for _, it := range s.Items {
		if it.Frame != nil {
			n++
		}
	}
	return n
}

// conserved verifies the frame-count invariant.
func (s *ReducedSequence) conserved() bool {
	n := 0
	for _, it := range s.Items {
		if it.Frame != nil {
			n++
		} else if it.Elision != nil {
			n += it.Elision.Count
		}
	}
	return n == s.Total
}

// newestFrame returns the first displayed frame (most recent call).
func (s *ReducedSequence) newestFrame() *ClassifiedFrame {
	for _, it := range s.Items {
		if it.Frame != nil {
			return it.Frame
		}
	}
	return nil
}

// oldestFrame returns the last displayed frame (oldest call).
func (s *ReducedSequence) oldestFrame() *ClassifiedFrame {
	for i := len(s.Items) - 1; i >= 0; i-- {
		if it := s.Items[i]; it.Frame != nil {
			return it.Frame
		}
	}
	return nil
}

// reduceFrames classifies a record's raw frames (given oldest first),
// reverses them into display order, collapses long infrastructure
// runs into elision markers, and truncates overlong sequences from
// the middle.
func reduceFrames(raw []RawFrame, classify func(string) Kind, opts Options) *ReducedSequence {
	seq := &ReducedSequence{Total: len(raw)}
	if len(raw) == 0 {
		return seq
	}

	// Display order: most recent call first.
	frames := make([]*ClassifiedFrame, len(raw))
	for i, rf := range raw {
		frames[len(raw)-1-i] = &ClassifiedFrame{RawFrame: rf, Kind: classify(rf.File)}
	}

	// A sequence that is entirely this package's internals still
	// gets one marker: never an empty display.
	if allElidable(frames) {
		seq.Items = []DisplayItem{{Elision: &Elision{
			Count: len(frames),
			First: frames[0].FuncBase(),
			Last:  frames[len(frames)-1].FuncBase(),
		}}}
		return seq
	}

	for i := 0; i < len(frames); {
		if frames[i].Kind == KindUser {
			seq.Items = append(seq.Items, DisplayItem{Frame: frames[i]})
			i++
			continue
		}
		// Maximal run of non-user frames.
		j := i
		for j < len(frames) && frames[j].Kind != KindUser {
			j++
		}
		run := frames[i:j]
		if len(run) > opts.CollapseThreshold {
			seq.Items = append(seq.Items, DisplayItem{Elision: &Elision{
				Count: len(run),
				First: run[0].FuncBase(),
				Last:  run[len(run)-1].FuncBase(),
			}})
		} else {
			for _, fr := range run {
				fr.Minimized = true
				seq.Items = append(seq.Items, DisplayItem{Frame: fr})
			}
		}
		i = j
	}

	truncateMiddle(seq, opts.MaxFrames)
	return seq
}

// truncateMiddle bounds the displayed frame count by max, keeping the
// head and tail and folding everything between, markers included, into
// a single elision. This pass is independent of infrastructure
// collapsing and applies to all-user sequences too.
func truncateMiddle(seq *ReducedSequence, max int) {
	if seq.Displayed() <= max {
		return
	}
	head := (max + 1) / 2
	tail := max - head

	var items []DisplayItem
	mid := &Elision{}
	shown := 0
	remaining := seq.Displayed()
	for _, it := range seq.Items {
		switch {
		case it.Frame != nil && shown < head:
			items = append(items, it)
			shown++
			remaining--
		case it.Frame != nil && remaining <= tail:
			if mid.Count > 0 {
				items = append(items, DisplayItem{Elision: mid})
				mid = &Elision{}
			}
			items = append(items, it)
			remaining--
		case it.Frame != nil:
			if mid.First == "" {
				mid.First = it.Frame.FuncBase()
			}
			mid.Last = it.Frame.FuncBase()
			mid.Count++
			remaining--
		case it.Elision != nil && shown >= head && remaining > tail:
			// Marker inside the truncated middle: merge it.
			if mid.First == "" {
				mid.First = it.Elision.First
			}
			mid.Last = it.Elision.Last
			mid.Count += it.Elision.Count
		default:
			// A marker carried into the tail still follows the
			// middle fold it comes after.
			if mid.Count > 0 {
				items = append(items, DisplayItem{Elision: mid})
				mid = &Elision{}
			}
			items = append(items, it)
		}
	}
	if mid.Count > 0 {
		items = append(items, DisplayItem{Elision: mid})
	}
	seq.Items = items
}

func allElidable(frames []*ClassifiedFrame) bool {
	for _, fr := range frames {
		if fr.Kind != KindElidable {
			return false
		}
	}
	return true
}
