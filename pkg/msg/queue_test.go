package msg

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// send allocates a message from sender carrying payload and appends it to q.
func send(t *testing.T, p *Pool, q *Queue, sender types.ProcHandle, payload uint32) types.MsgHandle {
	t.Helper()
	m, err := p.Allocate()
	require.NoError(t, err)
	p.Get(m).Sender = sender
	p.Get(m).Payload = payload
	q.Insert(m)
	return m
}

func TestEmptyQueue(t *testing.T) {
	p := NewPool(2)
	q := p.NewQueue()

	assert.True(t, q.IsEmpty())
	_, err := q.Head()
	assert.ErrorIs(t, err, types.ErrQueueEmpty)
	_, err = q.Pop(types.NoProc)
	assert.ErrorIs(t, err, types.ErrQueueEmpty)
	_, err = q.Pop(3)
	assert.ErrorIs(t, err, types.ErrQueueEmpty)
}

func TestInsertPreservesDeliveryOrder(t *testing.T) {
	p := NewPool(3)
	q := p.NewQueue()
	m1 := send(t, p, q, 1, 10)
	m2 := send(t, p, q, 1, 20)

	got, err := q.Pop(types.NoProc)
	require.NoError(t, err)
	assert.Equal(t, m1, got)
	got, err = q.Pop(types.NoProc)
	require.NoError(t, err)
	assert.Equal(t, m2, got)
}

func TestPushJumpsTheLine(t *testing.T) {
	p := NewPool(3)
	q := p.NewQueue()
	send(t, p, q, 1, 10)
	urgent, err := p.Allocate()
	require.NoError(t, err)

	q.Push(urgent)

	head, err := q.Head()
	require.NoError(t, err)
	assert.Equal(t, urgent, head)
	assert.Equal(t, 2, q.Len(), "Head does not remove")
}

func TestPopBySender(t *testing.T) {
	const (
		a types.ProcHandle = 1
		b types.ProcHandle = 2
		c types.ProcHandle = 3
	)

	tests := []struct {
		name        string
		sender      types.ProcHandle
		wantPayload uint32
		wantErr     error
		wantLeft    []uint32
	}{
		{
			name:        "first message from A",
			sender:      a,
			wantPayload: 1,
			wantLeft:    []uint32{2, 3},
		},
		{
			name:        "message from B in the middle",
			sender:      b,
			wantPayload: 2,
			wantLeft:    []uint32{1, 3},
		},
		{
			name:        "any sender takes the head",
			sender:      types.NoProc,
			wantPayload: 1,
			wantLeft:    []uint32{2, 3},
		},
		{
			name:     "no message from C",
			sender:   c,
			wantErr:  types.ErrNotFound,
			wantLeft: []uint32{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(4)
			q := p.NewQueue()
			send(t, p, q, a, 1)
			send(t, p, q, b, 2)
			send(t, p, q, a, 3)

			m, err := q.Pop(tt.sender)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, types.NoMsg, m)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPayload, p.Get(m).Payload)
			}
			var left []uint32
			for m := range q.All() {
				left = append(left, p.Get(m).Payload)
			}
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestPopUnattributedMessageByAnySender(t *testing.T) {
	p := NewPool(2)
	q := p.NewQueue()
	m := send(t, p, q, types.NoProc, 7)

	got, err := q.Pop(types.NoProc)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestRemove(t *testing.T) {
	p := NewPool(3)
	q := p.NewQueue()
	other := p.NewQueue()
	m1 := send(t, p, q, 1, 1)
	m2 := send(t, p, q, 1, 2)

	assert.ErrorIs(t, other.Remove(m1), types.ErrNotFound)
	require.NoError(t, q.Remove(m1))
	assert.ErrorIs(t, q.Remove(m1), types.ErrNotFound)
	assert.Equal(t, []types.MsgHandle{m2}, slices.Collect(q.All()))
}

func TestReleasedMessageReturnsToPool(t *testing.T) {
	p := NewPool(1)
	q := p.NewQueue()
	m := send(t, p, q, 1, 5)

	got, err := q.Pop(1)
	require.NoError(t, err)
	p.Release(got)

	assert.Equal(t, 1, p.Available())
	again, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, m, again)
	assert.Zero(t, p.Get(again).Payload)
}
