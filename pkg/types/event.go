package types

import "time"

// Event kinds emitted by the pools.
const (
	EventAlloc     = "alloc"
	EventRelease   = "release"
	EventExhausted = "exhausted"
)

// Pool names carried on events.
const (
	PoolPCB     = "pcb"
	PoolMessage = "msg"
)

// Event describes one allocation-layer transition. Slot is -1 for
// EventExhausted; PID is zero for message events.
type Event struct {
	Kind string    `json:"kind"`
	Pool string    `json:"pool"`
	Slot int32     `json:"slot"`
	PID  PID       `json:"pid,omitempty"`
	At   time.Time `json:"at"`
}

// EventSink receives pool events. Implementations must not call back into
// the pool that emitted the event.
type EventSink interface {
	Record(ev Event)
}

// EventFunc adapts a function to EventSink.
type EventFunc func(ev Event)

// Record calls f(ev).
func (f EventFunc) Record(ev Event) { f(ev) }
