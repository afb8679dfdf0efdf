package msg

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kernelpool/pkg/queue"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Pool is a fixed arena of message descriptors with a free list.
type Pool struct {
	table []types.Message
	links *queue.Linkage[types.MsgHandle]
	free  queue.Queue[types.MsgHandle]

	log  *zap.Logger
	sink types.EventSink
}

// NewPool builds a pool of capacity messages, all free with neutral fields,
// linked into the free list in arena order. It panics if capacity is not
// positive; capacities are validated by types.Config beforehand.
func NewPool(capacity int, opts ...Option) *Pool {
	if capacity <= 0 {
		panic(fmt.Sprintf("msg: invalid pool capacity %d", capacity))
	}
	p := &Pool{
		table: make([]types.Message, capacity),
		links: queue.NewLinkage[types.MsgHandle](capacity),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.free.Init(p.links)
	for i := range p.table {
		p.table[i].Reset()
		p.free.EnqueueTail(types.MsgHandle(i))
	}
	return p
}

// Capacity returns the fixed number of descriptors in the pool.
func (p *Pool) Capacity() int { return len(p.table) }

// Available returns the number of descriptors on the free list.
func (p *Pool) Available() int { return p.free.Len() }

// Allocate removes the head of the free list, resets it and returns it.
// Returns ErrPoolExhausted when the free list is empty.
func (p *Pool) Allocate() (types.MsgHandle, error) {
	m, ok := p.free.DequeueHead()
	if !ok {
		p.log.Debug("message pool exhausted", zap.Int("capacity", len(p.table)))
		p.emit(types.EventExhausted, -1)
		return types.NoMsg, types.ErrPoolExhausted
	}
	p.table[m].Reset()
	p.emit(types.EventAlloc, m)
	return m, nil
}

// Release appends m to the tail of the free list. m must already be out of
// every inbox.
func (p *Pool) Release(m types.MsgHandle) {
	if queue.Assertions && p.links.Linked(m) {
		panic(fmt.Sprintf("msg: release of message %d still linked in a queue", m))
	}
	p.free.EnqueueTail(m)
	p.emit(types.EventRelease, m)
}

// Get returns the descriptor for m. The pointer stays valid for the life of
// the pool; its contents change when m is reallocated.
func (p *Pool) Get(m types.MsgHandle) *types.Message {
	return &p.table[m]
}

// NewQueue returns an empty message queue backed by this pool's linkage.
func (p *Pool) NewQueue() *Queue {
	q := &Queue{}
	q.Init(p)
	return q
}

func (p *Pool) emit(kind string, m types.MsgHandle) {
	if p.sink == nil {
		return
	}
	p.sink.Record(types.Event{
		Kind: kind,
		Pool: types.PoolMessage,
		Slot: int32(m),
		At:   time.Now(),
	})
}
