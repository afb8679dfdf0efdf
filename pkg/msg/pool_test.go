package msg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

func TestNewPool(t *testing.T) {
	p := NewPool(3)

	assert.Equal(t, 3, p.Capacity())
	assert.Equal(t, 3, p.Available())
	for i := range 3 {
		m := p.Get(types.MsgHandle(i))
		assert.Equal(t, types.NoProc, m.Sender)
		assert.Zero(t, m.Payload)
	}
}

func TestNewPoolRejectsInvalidCapacity(t *testing.T) {
	assert.Panics(t, func() { NewPool(0) })
}

func TestAllocateInArenaOrder(t *testing.T) {
	p := NewPool(3)

	for want := range 3 {
		m, err := p.Allocate()
		require.NoError(t, err)
		assert.Equal(t, types.MsgHandle(want), m)
	}
}

func TestCapacityBound(t *testing.T) {
	const n = 5
	p := NewPool(n)

	var got []types.MsgHandle
	for range n {
		m, err := p.Allocate()
		require.NoError(t, err)
		got = append(got, m)
	}
	assert.Equal(t, 0, p.Available())

	m, err := p.Allocate()
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
	assert.Equal(t, types.NoMsg, m)

	p.Release(got[2])
	m, err = p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, got[2], m)

	_, err = p.Allocate()
	assert.ErrorIs(t, err, types.ErrPoolExhausted)
}

func TestReleaseAppendsToTail(t *testing.T) {
	p := NewPool(2)
	a, err := p.Allocate()
	require.NoError(t, err)

	p.Release(a)

	next, err := p.Allocate()
	require.NoError(t, err)
	assert.NotEqual(t, a, next, "released message goes behind the remaining free one")
}

func TestCleanReuse(t *testing.T) {
	p := NewPool(1)
	m, err := p.Allocate()
	require.NoError(t, err)
	p.Get(m).Sender = 4
	p.Get(m).Payload = 0xdead

	p.Release(m)
	again, err := p.Allocate()
	require.NoError(t, err)

	require.Equal(t, m, again)
	assert.Equal(t, types.NoProc, p.Get(again).Sender)
	assert.Zero(t, p.Get(again).Payload)
}

func TestPoolEvents(t *testing.T) {
	var events []types.Event
	p := NewPool(1, WithEventSink(types.EventFunc(func(ev types.Event) {
		events = append(events, ev)
	})))

	m, err := p.Allocate()
	require.NoError(t, err)
	_, err = p.Allocate()
	require.Error(t, err)
	p.Release(m)

	require.Len(t, events, 3)
	assert.Equal(t, types.EventAlloc, events[0].Kind)
	assert.Equal(t, types.PoolMessage, events[0].Pool)
	assert.Equal(t, int32(m), events[0].Slot)
	assert.Equal(t, types.EventExhausted, events[1].Kind)
	assert.Equal(t, int32(-1), events[1].Slot)
	assert.Equal(t, types.EventRelease, events[2].Kind)
}
