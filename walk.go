package dexc

// LinkKind describes how a chain entry relates to the entry printed
// just before it.
type LinkKind uint8

const (
	// LinkRoot marks the head of a causal chain.
	LinkRoot LinkKind = iota
	// LinkCause marks an entry caused by the previous entry.
	LinkCause
	// LinkContext marks an entry raised while the previous entry
	// was being handled.
	LinkContext
	// LinkGroup marks the head of a group sub-error's chain.
	LinkGroup
)

// ChainEntry is one error of the flattened causal narrative, tagged
// with its group nesting depth.
type ChainEntry struct {
	Record *ErrorRecord
	Depth  int

	// Link relates this entry to the previous one; ExplicitLink is
	// meaningful for LinkCause and LinkContext and is false for a
	// bare re-signal of the same error.
	Link         LinkKind
	ExplicitLink bool
}

// Walk flattens an error record into causal order: for each chain the
// oldest cause comes first and the final error last. Group sub-errors
// follow their group record depth-first, in collection order, tagged
// with their nesting depth.
func Walk(root *ErrorRecord) []ChainEntry {
	if root == nil {
		return nil
	}
	var out []ChainEntry
	walkInto(root, 0, LinkRoot, map[*ErrorRecord]bool{}, &out)
	return out
}

// The seen set is shared across the whole traversal, group recursion
// included: a sub-error linking back to its group must not reenter it.
func walkInto(rec *ErrorRecord, depth int, head LinkKind, seen map[*ErrorRecord]bool, out *[]ChainEntry) {
	if seen[rec] {
		return
	}
	seen[rec] = true

	// Collect the causal predecessors, newest first. Cause takes
	// precedence over context so a single narrative is told, and a
	// suppressed context is not followed.
	type link struct {
		rec      *ErrorRecord
		kind     LinkKind
		explicit bool
	}
	chain := []link{{rec: rec, kind: head, explicit: true}}
	for cur := rec; ; {
		var next *ErrorRecord
		var kind LinkKind
		explicit := true
		switch {
		case cur.Cause != nil:
			next, kind, explicit = cur.Cause, LinkCause, cur.ExplicitCause
		case cur.Context != nil && !cur.ContextSuppressed:
			next, kind = cur.Context, LinkContext
		}
		if next == nil || seen[next] {
			break
		}
		seen[next] = true
		chain = append(chain, link{rec: next, kind: kind, explicit: explicit})
		cur = next
	}

	// Emit oldest first. The link between adjacent entries was
	// collected on the newer side of each pair: chain[i+1] holds how
	// it precedes chain[i].
	for i := len(chain) - 1; i >= 0; i-- {
		entry := ChainEntry{Record: chain[i].rec, Depth: depth, Link: head}
		if i < len(chain)-1 {
			entry.Link = chain[i+1].kind
			entry.ExplicitLink = chain[i+1].explicit
		}
		*out = append(*out, entry)

		if entry.Record.Kind == RecordGroup {
			for _, sub := range entry.Record.subErrors() {
				walkInto(sub, depth+1, LinkGroup, seen, out)
			}
		}
	}
}
