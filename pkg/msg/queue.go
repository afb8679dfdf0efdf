package msg

import (
	"iter"

	"github.com/mesh-intelligence/kernelpool/pkg/queue"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Queue is a message queue such as a process inbox. Messages keep delivery
// order; Push lets a message jump the line.
type Queue struct {
	pool *Pool
	q    queue.Queue[types.MsgHandle]
}

// Init binds q to pool and empties it.
func (q *Queue) Init(pool *Pool) {
	q.pool = pool
	q.q.Init(pool.links)
}

// Reset empties q. Messages still in q are abandoned, not released.
func (q *Queue) Reset() { q.q.Reset() }

// IsEmpty reports whether q holds no messages.
func (q *Queue) IsEmpty() bool { return q.q.IsEmpty() }

// Len returns the number of queued messages.
func (q *Queue) Len() int { return q.q.Len() }

// Insert appends m at the tail.
func (q *Queue) Insert(m types.MsgHandle) { q.q.EnqueueTail(m) }

// Push inserts m at the head, so it is observed before anything already
// queued.
func (q *Queue) Push(m types.MsgHandle) { q.q.EnqueueHead(m) }

// Head returns the first message without removing it.
func (q *Queue) Head() (types.MsgHandle, error) {
	m, ok := q.q.PeekHead()
	if !ok {
		return types.NoMsg, types.ErrQueueEmpty
	}
	return m, nil
}

// Pop removes the first message, in queue order, sent by sender. With
// sender == NoProc it removes the head whatever its sender.
// Returns ErrQueueEmpty on an empty queue and ErrNotFound when no message
// matches.
func (q *Queue) Pop(sender types.ProcHandle) (types.MsgHandle, error) {
	if q.q.IsEmpty() {
		return types.NoMsg, types.ErrQueueEmpty
	}
	if sender == types.NoProc {
		m, _ := q.q.DequeueHead()
		return m, nil
	}
	m, ok := q.q.RemoveFunc(func(m types.MsgHandle) bool {
		return q.pool.table[m].Sender == sender
	})
	if !ok {
		return types.NoMsg, types.ErrNotFound
	}
	return m, nil
}

// Remove unlinks m from q. Returns ErrNotFound if m is not queued here.
func (q *Queue) Remove(m types.MsgHandle) error {
	if !q.q.Remove(m) {
		return types.ErrNotFound
	}
	return nil
}

// All yields queued messages from head to tail.
func (q *Queue) All() iter.Seq[types.MsgHandle] { return q.q.All() }
