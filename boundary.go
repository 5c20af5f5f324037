package dexc

// BoundaryFlag sits between two adjacent rendered tracebacks of a
// causal chain.
type BoundaryFlag struct {
	// IsBareReraise is true when the two traces are one continuous
	// failure concatenated by a catch-and-reraise of the unchanged
	// error, rather than two independent causes.
	IsBareReraise bool
}

// DetectBoundary inspects the seam between two adjacent sequences of
// the causal chain. earlier is the cause's trace (printed first),
// later the trace of the error that continued it. explicitLink is true
// when the later error was constructed by a distinct expression (a
// "raise new from old" equivalent); such a seam is never a bare
// reraise.
//
// A bare reraise is recognized when the later sequence's oldest frame
// picks up where the earlier sequence's newest frame left off: the
// same source unit and function, with the catch site at or after the
// raise line.
func DetectBoundary(earlier, later *ReducedSequence, explicitLink bool) BoundaryFlag {
	if explicitLink || earlier == nil || later == nil {
		return BoundaryFlag{}
	}
	raise := earlier.newestFrame()
	catch := later.oldestFrame()
	if raise == nil || catch == nil {
		return BoundaryFlag{}
	}
	if catch.File != raise.File || catch.File == "" {
		return BoundaryFlag{}
	}
	if catch.Function != raise.Function {
		return BoundaryFlag{}
	}
	if catch.Line > 0 && raise.Line > 0 && catch.Line < raise.Line {
		return BoundaryFlag{}
	}
	return BoundaryFlag{IsBareReraise: true}
}
