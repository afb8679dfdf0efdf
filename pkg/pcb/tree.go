package pcb

import (
	"fmt"
	"iter"

	"github.com/mesh-intelligence/kernelpool/pkg/queue"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// HasChildren reports whether h has at least one child.
func (p *Pool) HasChildren(h types.ProcHandle) bool {
	return !p.children[h].IsEmpty()
}

// Parent returns the parent of h, or NoProc.
func (p *Pool) Parent(h types.ProcHandle) types.ProcHandle {
	return p.table[h].Parent
}

// InsertChild makes child the youngest child of parent. child must not be
// attached to another parent.
func (p *Pool) InsertChild(parent, child types.ProcHandle) {
	if queue.Assertions && p.table[child].Parent != types.NoProc {
		panic(fmt.Sprintf("pcb: process %d already has parent %d", child, p.table[child].Parent))
	}
	p.children[parent].EnqueueTail(child)
	p.table[child].Parent = parent
}

// RemoveChild detaches and returns the oldest child of h. The child's
// Parent is cleared, as with OutChild. Returns ErrNoChildren if h has none.
func (p *Pool) RemoveChild(h types.ProcHandle) (types.ProcHandle, error) {
	child, ok := p.children[h].DequeueHead()
	if !ok {
		return types.NoProc, types.ErrNoChildren
	}
	p.table[child].Parent = types.NoProc
	return child, nil
}

// OutChild detaches h from its parent wherever it sits among its siblings.
// Returns ErrNotAttached if h has no parent, and ErrNotFound if the parent's
// child list does not hold h.
func (p *Pool) OutChild(h types.ProcHandle) (types.ProcHandle, error) {
	parent := p.table[h].Parent
	if parent == types.NoProc {
		return types.NoProc, types.ErrNotAttached
	}
	if !p.children[parent].Remove(h) {
		return types.NoProc, types.ErrNotFound
	}
	p.table[h].Parent = types.NoProc
	return h, nil
}

// Children yields the children of h from oldest to youngest.
func (p *Pool) Children(h types.ProcHandle) iter.Seq[types.ProcHandle] {
	return p.children[h].All()
}
