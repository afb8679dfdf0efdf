// Package core owns one PCB pool and one message pool sized from a
// types.Config, and is the single serialization point for callers that
// share them across goroutines.
//
// The pools themselves do no locking. Core.Do runs a callback with both
// pools under one mutex; callers that confine the pools to a single
// goroutine may use Pools directly instead.
package core

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kernelpool/internal/journal"
	"github.com/mesh-intelligence/kernelpool/pkg/msg"
	"github.com/mesh-intelligence/kernelpool/pkg/pcb"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Core holds the pools between Attach and Detach.
type Core struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	procs    *pcb.Pool
	msgs     *msg.Pool
	journal  *journal.Journal
	log      *zap.Logger
	sinks    []types.EventSink
}

// Option configures a Core.
type Option func(c *Core)

// WithLogger sets the logger handed to the pools and the journal.
func WithLogger(log *zap.Logger) Option {
	return func(c *Core) {
		if log != nil {
			c.log = log
		}
	}
}

// WithEventSink adds a sink that receives every pool event, alongside the
// journal when one is enabled.
func WithEventSink(sink types.EventSink) Option {
	return func(c *Core) { c.sinks = append(c.sinks, sink) }
}

// New creates a detached Core.
func New(opts ...Option) *Core {
	c := &Core{log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach validates config, builds both pools at the configured capacities
// and opens the journal when enabled. Returns ErrAlreadyAttached if called
// while attached.
func (c *Core) Attach(config types.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	sinks := c.sinks
	var j *journal.Journal
	if config.Journal.Enabled {
		var err error
		j, err = journal.Open(config.Journal, c.log)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		if _, err := j.Begin(); err != nil {
			j.Close()
			return fmt.Errorf("begin journal session: %w", err)
		}
		sinks = append(append([]types.EventSink(nil), sinks...), j)
	}
	sink := fanout(sinks)

	c.msgs = msg.NewPool(config.MaxMessages, msg.WithLogger(c.log), msg.WithEventSink(sink))
	c.procs = pcb.NewPool(config.MaxProc, c.msgs, pcb.WithLogger(c.log), pcb.WithEventSink(sink))
	c.journal = j
	c.config = config
	c.attached = true

	c.log.Info("pools attached",
		zap.Int("max_proc", config.MaxProc),
		zap.Int("max_messages", config.MaxMessages),
		zap.Bool("journal", j != nil))
	return nil
}

// Detach drops the pools and closes the journal. Detach is idempotent.
func (c *Core) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil
	}

	var err error
	if c.journal != nil {
		if dropped := c.journal.Dropped(); dropped > 0 {
			c.log.Warn("journal dropped events", zap.Int("dropped", dropped))
		}
		err = c.journal.Close()
		c.journal = nil
	}
	c.procs = nil
	c.msgs = nil
	c.attached = false
	if err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

// Do runs fn with both pools while holding the core's lock.
// Returns ErrDetached if the core is not attached; otherwise fn's error.
func (c *Core) Do(fn func(procs *pcb.Pool, msgs *msg.Pool) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return types.ErrDetached
	}
	return fn(c.procs, c.msgs)
}

// Pools returns both pools without locking, for callers that confine the
// core to one goroutine.
func (c *Core) Pools() (*pcb.Pool, *msg.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil, nil, types.ErrDetached
	}
	return c.procs, c.msgs, nil
}

// Config returns the configuration of the current attachment.
func (c *Core) Config() types.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// JournalSession returns the active journal session ID, or "" when the
// journal is disabled or the core is detached.
func (c *Core) JournalSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return ""
	}
	return c.journal.Session()
}

// fanout combines sinks into one; nil when there are none.
func fanout(sinks []types.EventSink) types.EventSink {
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	}
	return types.EventFunc(func(ev types.Event) {
		for _, s := range sinks {
			s.Record(ev)
		}
	})
}
