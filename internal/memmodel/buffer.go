package memmodel

import (
	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
)

// Entry is one pending write sitting in a store buffer.
type Entry struct {
	Loc   ir.LocID
	Value ir.Value
	Mode  ir.AccessMode

	// Origin is the write event appended when the store issued.
	Origin graph.EventID

	// Index is the originating store's instruction index, kept for menu
	// and diagnostic rendering.
	Index int

	// Seq is the global enqueue sequence number; older entries have
	// smaller Seq. Orders buffer heads across PSO buckets.
	Seq int
}

// fifo is a FIFO queue of pending writes. Push appends at the tail,
// propagation pops the head; forwarding scans from the tail for the newest
// matching location.
type fifo struct {
	entries []Entry
}

func (b *fifo) push(e Entry) {
	b.entries = append(b.entries, e)
}

// head returns the oldest pending entry.
func (b *fifo) head() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[0], true
}

// pop removes and returns the oldest pending entry.
func (b *fifo) pop() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e, true
}

// forward returns the newest pending entry for loc, if any.
// This is the store-forwarding lookup: a thread's own loads see its most
// recent buffered write ahead of memory.
func (b *fifo) forward(loc ir.LocID) (Entry, bool) {
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].Loc == loc {
			return b.entries[i], true
		}
	}
	return Entry{}, false
}

func (b *fifo) len() int { return len(b.entries) }
