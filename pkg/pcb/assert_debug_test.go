//go:build kpooldebug

package pcb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMisuseAssertions(t *testing.T) {
	p := newTestPool(t, 3)
	ready := p.NewQueue()
	parent, child := allocate(t, p), allocate(t, p)

	ready.Insert(child)
	assert.Panics(t, func() { p.Release(child) }, "release while queued")

	_, _ = ready.Remove(child)
	p.InsertChild(parent, child)
	assert.Panics(t, func() { p.Release(child) }, "release while attached")
	assert.Panics(t, func() { p.InsertChild(parent, child) }, "insert already attached child")
}
