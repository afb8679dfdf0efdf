package queue

import "iter"

// Queue is an ordered container of arena elements. The zero value is not
// usable; build one with NewQueue or Init.
type Queue[H Handle] struct {
	linkage *Linkage[H]
	head    H
	tail    H
	n       int
}

// NewQueue returns an empty queue over l.
func NewQueue[H Handle](l *Linkage[H]) *Queue[H] {
	q := &Queue[H]{}
	q.Init(l)
	return q
}

// Init binds q to l and empties it. It lets queues be embedded by value in
// arena-sized slices.
func (q *Queue[H]) Init(l *Linkage[H]) {
	q.linkage = l
	q.Reset()
}

// Reset empties q in O(1). Former members keep stale link fields until they
// are cleared or reinserted; callers reset a queue only when its members are
// being discarded with it.
func (q *Queue[H]) Reset() {
	q.head = nilHandle[H]()
	q.tail = nilHandle[H]()
	q.n = 0
}

// IsEmpty reports whether q has no elements.
func (q *Queue[H]) IsEmpty() bool { return q.n == 0 }

// Len returns the number of elements in q.
func (q *Queue[H]) Len() int { return q.n }

// EnqueueTail inserts e at the tail of q.
func (q *Queue[H]) EnqueueTail(e H) {
	q.checkInsert(e)
	ln := &q.linkage.links[e]
	ln.prev = q.tail
	ln.next = nilHandle[H]()
	ln.owner = q
	if q.n == 0 {
		q.head = e
	} else {
		q.linkage.links[q.tail].next = e
	}
	q.tail = e
	q.n++
}

// EnqueueHead inserts e at the head of q.
func (q *Queue[H]) EnqueueHead(e H) {
	q.checkInsert(e)
	ln := &q.linkage.links[e]
	ln.prev = nilHandle[H]()
	ln.next = q.head
	ln.owner = q
	if q.n == 0 {
		q.tail = e
	} else {
		q.linkage.links[q.head].prev = e
	}
	q.head = e
	q.n++
}

// PeekHead returns the head of q without removing it.
func (q *Queue[H]) PeekHead() (H, bool) {
	if q.n == 0 {
		return nilHandle[H](), false
	}
	return q.head, true
}

// DequeueHead removes and returns the head of q.
func (q *Queue[H]) DequeueHead() (H, bool) {
	if q.n == 0 {
		return nilHandle[H](), false
	}
	e := q.head
	q.unlink(e)
	return e, true
}

// Remove unlinks e if it is a member of q. It scans from the head, so an
// element that belongs to another queue, or to none, reports false.
func (q *Queue[H]) Remove(e H) bool {
	if !q.linkage.valid(e) {
		return false
	}
	for cur := q.head; cur != nilHandle[H](); cur = q.linkage.links[cur].next {
		if cur == e {
			q.unlink(e)
			return true
		}
	}
	return false
}

// RemoveFunc removes and returns the first element, in head-to-tail order,
// for which match returns true.
func (q *Queue[H]) RemoveFunc(match func(H) bool) (H, bool) {
	for cur := q.head; cur != nilHandle[H](); cur = q.linkage.links[cur].next {
		if match(cur) {
			q.unlink(cur)
			return cur, true
		}
	}
	return nilHandle[H](), false
}

// Owns reports whether e carries q's owner tag. It is O(1) and meant for
// diagnostics; Remove does not rely on it.
func (q *Queue[H]) Owns(e H) bool {
	return q.linkage.Owner(e) == q
}

// All yields the elements of q from head to tail. The queue must not be
// modified during iteration.
func (q *Queue[H]) All() iter.Seq[H] {
	return func(yield func(H) bool) {
		for cur := q.head; cur != nilHandle[H](); cur = q.linkage.links[cur].next {
			if !yield(cur) {
				return
			}
		}
	}
}

// unlink removes member e from q and clears its link.
func (q *Queue[H]) unlink(e H) {
	ln := q.linkage.links[e]
	if ln.prev == nilHandle[H]() {
		q.head = ln.next
	} else {
		q.linkage.links[ln.prev].next = ln.next
	}
	if ln.next == nilHandle[H]() {
		q.tail = ln.prev
	} else {
		q.linkage.links[ln.next].prev = ln.prev
	}
	q.linkage.Clear(e)
	q.n--
}
