package queue

// Handle is the element type of a queue: an arena slot index.
type Handle interface {
	~int32
}

// link is the per-element linkage. owner is a diagnostic tag naming the
// queue the element was last inserted into; nil when unlinked.
type link[H Handle] struct {
	prev  H
	next  H
	owner *Queue[H]
}

// Linkage holds one link slot for every element of an arena.
type Linkage[H Handle] struct {
	links []link[H]
}

// nilHandle marks the absence of a neighbour.
func nilHandle[H Handle]() H { return H(-1) }

// NewLinkage returns a Linkage for an arena of n elements, all unlinked.
func NewLinkage[H Handle](n int) *Linkage[H] {
	l := &Linkage[H]{links: make([]link[H], n)}
	for i := range l.links {
		l.Clear(H(i))
	}
	return l
}

// Len returns the arena size the Linkage was built for.
func (l *Linkage[H]) Len() int { return len(l.links) }

// Clear drops e's link fields and owner tag without touching its former
// neighbours. It is meant for resetting an element that is known to be
// detached, or whose former queue has itself been reset.
func (l *Linkage[H]) Clear(e H) {
	l.links[e] = link[H]{prev: nilHandle[H](), next: nilHandle[H]()}
}

// Linked reports whether e is tagged as a member of some queue.
func (l *Linkage[H]) Linked(e H) bool {
	return l.valid(e) && l.links[e].owner != nil
}

// Owner returns the queue e was last inserted into, or nil.
func (l *Linkage[H]) Owner(e H) *Queue[H] {
	if !l.valid(e) {
		return nil
	}
	return l.links[e].owner
}

func (l *Linkage[H]) valid(e H) bool {
	return e >= 0 && int(e) < len(l.links)
}
