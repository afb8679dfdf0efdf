package pcb

import (
	"iter"

	"github.com/mesh-intelligence/kernelpool/pkg/queue"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Queue is a flat process queue, such as a scheduler's ready or blocked
// queue. A descriptor is in at most one Queue (or the free list) at a time.
type Queue struct {
	q queue.Queue[types.ProcHandle]
}

// NewQueue returns an empty flat process queue over this pool's descriptors.
func (p *Pool) NewQueue() *Queue {
	q := &Queue{}
	q.q.Init(p.flat)
	return q
}

// IsEmpty reports whether q holds no processes.
func (q *Queue) IsEmpty() bool { return q.q.IsEmpty() }

// Len returns the number of queued processes.
func (q *Queue) Len() int { return q.q.Len() }

// Insert appends h at the tail.
func (q *Queue) Insert(h types.ProcHandle) { q.q.EnqueueTail(h) }

// Push inserts h at the head.
func (q *Queue) Push(h types.ProcHandle) { q.q.EnqueueHead(h) }

// Head returns the first process without removing it.
func (q *Queue) Head() (types.ProcHandle, error) {
	h, ok := q.q.PeekHead()
	if !ok {
		return types.NoProc, types.ErrQueueEmpty
	}
	return h, nil
}

// RemoveHead removes and returns the first process.
func (q *Queue) RemoveHead() (types.ProcHandle, error) {
	h, ok := q.q.DequeueHead()
	if !ok {
		return types.NoProc, types.ErrQueueEmpty
	}
	return h, nil
}

// Remove unlinks h from any position in q. Returns ErrNotFound if h is not
// queued here, whether it sits in another queue or in none.
func (q *Queue) Remove(h types.ProcHandle) (types.ProcHandle, error) {
	if !q.q.Remove(h) {
		return types.NoProc, types.ErrNotFound
	}
	return h, nil
}

// Contains reports whether h carries this queue's membership tag.
func (q *Queue) Contains(h types.ProcHandle) bool { return q.q.Owns(h) }

// All yields queued processes from head to tail.
func (q *Queue) All() iter.Seq[types.ProcHandle] { return q.q.All() }
