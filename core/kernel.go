package core

import (
	"sort"

	"github.com/signalsfoundry/detector-navigator/model"
)

// Kernel holds the accepted candidates for one object kind, sorted by
// path, together with a cursor to the next untried candidate. A cursor
// equal to the number of candidates means the kernel is exhausted.
type Kernel struct {
	kind       model.ObjectKind
	candidates []Intersection
	next       int
	link       uint32
}

func newKernel(kind model.ObjectKind) Kernel {
	return Kernel{kind: kind, link: model.InvalidIndex}
}

// Kind returns the object kind the kernel navigates.
func (k *Kernel) Kind() model.ObjectKind { return k.kind }

// Empty reports whether the kernel holds no candidates.
func (k *Kernel) Empty() bool { return len(k.candidates) == 0 }

// Clear drops all candidates, moves the cursor to the end and forgets the
// cached link.
func (k *Kernel) Clear() {
	k.candidates = k.candidates[:0]
	k.next = 0
	k.link = model.InvalidIndex
}

// Exhausted reports whether the cursor has run past the last candidate.
// An empty kernel is always exhausted.
func (k *Kernel) Exhausted() bool { return k.next >= len(k.candidates) }

// Len returns the number of candidates.
func (k *Kernel) Len() int { return len(k.candidates) }

// Cursor returns the position of the next untried candidate.
func (k *Kernel) Cursor() int { return k.next }

// Next returns the candidate under the cursor.
func (k *Kernel) Next() (Intersection, bool) {
	if k.Exhausted() {
		return Intersection{}, false
	}
	return k.candidates[k.next], true
}

// Link returns the link of the most recently validated leading candidate.
// For the portal kernel it names the volume entered on a crossing.
func (k *Kernel) Link() uint32 { return k.link }

// Candidates returns a copy of the candidate sequence.
func (k *Kernel) Candidates() []Intersection {
	return append([]Intersection(nil), k.candidates...)
}

func (k *Kernel) sort() {
	sort.Slice(k.candidates, func(i, j int) bool {
		return k.candidates[i].Before(k.candidates[j])
	})
}

func (k *Kernel) exhaust() { k.next = len(k.candidates) }

// towards and on map the kernel kind onto the matching status values.
func (k *Kernel) towards() Status {
	if k.kind == model.KindPortal {
		return StatusTowardsPortal
	}
	return StatusTowardsSurface
}

func (k *Kernel) on() Status {
	if k.kind == model.KindPortal {
		return StatusOnPortal
	}
	return StatusOnSurface
}
