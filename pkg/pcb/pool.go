package pcb

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kernelpool/pkg/msg"
	"github.com/mesh-intelligence/kernelpool/pkg/queue"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Pool is a fixed arena of process descriptors with a free list.
type Pool struct {
	table []types.PCB

	// flat links a descriptor into the free list or a scheduler queue;
	// sib links it into its parent's child list.
	flat *queue.Linkage[types.ProcHandle]
	sib  *queue.Linkage[types.ProcHandle]

	free     queue.Queue[types.ProcHandle]
	children []queue.Queue[types.ProcHandle]
	inbox    []msg.Queue

	msgs    *msg.Pool
	nextPID types.PID

	log  *zap.Logger
	sink types.EventSink
}

// NewPool builds a pool of capacity descriptors whose inboxes draw on msgs.
// Every slot starts free with neutral fields and a sequential PID, linked
// into the free list in arena order. It panics if capacity is not positive
// or msgs is nil.
func NewPool(capacity int, msgs *msg.Pool, opts ...Option) *Pool {
	if capacity <= 0 {
		panic(fmt.Sprintf("pcb: invalid pool capacity %d", capacity))
	}
	if msgs == nil {
		panic("pcb: nil message pool")
	}
	p := &Pool{
		table:    make([]types.PCB, capacity),
		flat:     queue.NewLinkage[types.ProcHandle](capacity),
		sib:      queue.NewLinkage[types.ProcHandle](capacity),
		children: make([]queue.Queue[types.ProcHandle], capacity),
		inbox:    make([]msg.Queue, capacity),
		msgs:     msgs,
		nextPID:  1,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.free.Init(p.flat)
	for i := range p.table {
		h := types.ProcHandle(i)
		p.table[i].Reset()
		p.table[i].PID = p.issuePID()
		p.children[i].Init(p.sib)
		p.inbox[i].Init(msgs)
		p.free.EnqueueTail(h)
	}
	return p
}

// Capacity returns the fixed number of descriptors in the pool.
func (p *Pool) Capacity() int { return len(p.table) }

// Available returns the number of descriptors on the free list.
func (p *Pool) Available() int { return p.free.Len() }

// Messages returns the message pool the inboxes draw on.
func (p *Pool) Messages() *msg.Pool { return p.msgs }

// Allocate removes the head of the free list, resets every field, clears
// any stale child list, sibling linkage and inbox, assigns the next PID and
// returns the descriptor. Returns ErrPoolExhausted when the free list is
// empty.
//
// Clearing the inbox forgets its messages without returning them to the
// message pool. Messages left queued by the previous owner stay out of the
// message free list for the life of the pool.
func (p *Pool) Allocate() (types.ProcHandle, error) {
	h, ok := p.free.DequeueHead()
	if !ok {
		p.log.Debug("pcb pool exhausted", zap.Int("capacity", len(p.table)))
		p.emit(types.EventExhausted, types.NoProc)
		return types.NoProc, types.ErrPoolExhausted
	}
	pcb := &p.table[h]
	pcb.Reset()
	pcb.PID = p.issuePID()
	p.children[h].Reset()
	p.sib.Clear(h)
	p.inbox[h].Reset()
	p.emit(types.EventAlloc, h)
	return h, nil
}

// Release appends h to the tail of the free list. h must already be out of
// every scheduler queue and detached from its parent. Release does not touch
// the inbox: drain it and release each message first, or those messages are
// abandoned when h is next allocated.
func (p *Pool) Release(h types.ProcHandle) {
	if queue.Assertions {
		p.checkRelease(h)
	}
	p.free.EnqueueTail(h)
	p.emit(types.EventRelease, h)
}

// Get returns the descriptor for h. The pointer stays valid for the life of
// the pool; its contents change when h is reallocated.
func (p *Pool) Get(h types.ProcHandle) *types.PCB {
	return &p.table[h]
}

// Inbox returns the private message queue of h.
func (p *Pool) Inbox(h types.ProcHandle) *msg.Queue {
	return &p.inbox[h]
}

// Charge adds dt to the accumulated time of h.
func (p *Pool) Charge(h types.ProcHandle, dt int64) {
	p.table[h].Time += dt
}

// Lookup finds the allocated descriptor carrying pid. It scans the arena.
func (p *Pool) Lookup(pid types.PID) (types.ProcHandle, bool) {
	for i := range p.table {
		h := types.ProcHandle(i)
		if p.table[i].PID == pid && !p.free.Owns(h) {
			return h, true
		}
	}
	return types.NoProc, false
}

// Queued reports whether h is linked into any flat queue, the free list
// included.
func (p *Pool) Queued(h types.ProcHandle) bool {
	return p.flat.Linked(h)
}

// IsFree reports whether h sits on the free list.
func (p *Pool) IsFree(h types.ProcHandle) bool {
	return p.free.Owns(h)
}

func (p *Pool) issuePID() types.PID {
	pid := p.nextPID
	p.nextPID++
	return pid
}

func (p *Pool) checkRelease(h types.ProcHandle) {
	switch {
	case p.flat.Linked(h):
		panic(fmt.Sprintf("pcb: release of process %d still in a flat queue", h))
	case p.table[h].Parent != types.NoProc:
		panic(fmt.Sprintf("pcb: release of process %d still attached to parent %d", h, p.table[h].Parent))
	}
}

func (p *Pool) emit(kind string, h types.ProcHandle) {
	if p.sink == nil {
		return
	}
	ev := types.Event{
		Kind: kind,
		Pool: types.PoolPCB,
		Slot: int32(h),
		At:   time.Now(),
	}
	if h != types.NoProc {
		ev.PID = p.table[h].PID
	}
	p.sink.Record(ev)
}
