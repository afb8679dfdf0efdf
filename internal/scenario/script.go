// Package scenario runs YAML scripts of pool operations against a core.
//
// A script names processes through aliases and drives allocation, process
// queues, the process tree and inboxes one step at a time. Steps may state
// the result or error they expect; the run stops at the first step whose
// outcome differs.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Step operations.
const (
	OpAllocPCB    = "alloc_pcb"
	OpReleasePCB  = "release_pcb"
	OpSend        = "send"
	OpRecv        = "recv"
	OpInsertChild = "insert_child"
	OpRemoveChild = "remove_child"
	OpDetach      = "detach"
	OpReady       = "ready"
	OpDispatch    = "dispatch"
	OpUnready     = "unready"
	OpCharge      = "charge"
)

// DefaultQueue is the scheduler queue used when a step names none.
const DefaultQueue = "ready"

// Script parse errors.
var (
	ErrEmptyScript   = errors.New("script has no steps")
	ErrUnknownOp     = errors.New("unknown operation")
	ErrMissingField  = errors.New("missing required field")
	ErrUnknownErrTag = errors.New("unknown expect_error value")
)

// errorTags maps expect_error values to the sentinels they stand for.
var errorTags = map[string]error{
	"exhausted":    types.ErrPoolExhausted,
	"empty":        types.ErrQueueEmpty,
	"not_found":    types.ErrNotFound,
	"no_children":  types.ErrNoChildren,
	"not_attached": types.ErrNotAttached,
	"misuse":       ErrMisuse,
}

// Script is a named sequence of steps. MaxProc and MaxMessages, when set,
// override the configured pool capacities.
type Script struct {
	Name        string `yaml:"name"`
	MaxProc     int    `yaml:"max_proc,omitempty"`
	MaxMessages int    `yaml:"max_messages,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one pool operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// As binds the process produced by the step to an alias.
	As string `yaml:"as,omitempty"`
	// Ref names the process the step acts on.
	Ref    string `yaml:"ref,omitempty"`
	Parent string `yaml:"parent,omitempty"`
	Child  string `yaml:"child,omitempty"`
	// From and To name sender and receiver for send; From filters recv.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
	// Queue names a scheduler queue; DefaultQueue when empty.
	Queue   string `yaml:"queue,omitempty"`
	Payload uint32 `yaml:"payload,omitempty"`
	// Urgent makes send push the message at the head of the inbox.
	Urgent bool  `yaml:"urgent,omitempty"`
	Time   int64 `yaml:"time,omitempty"`

	// Expect is the alias of the process the step should yield; for recv
	// it names the expected sender.
	Expect        string  `yaml:"expect,omitempty"`
	ExpectPayload *uint32 `yaml:"expect_payload,omitempty"`
	ExpectError   string  `yaml:"expect_error,omitempty"`
}

// required lists the fields each operation needs.
var required = map[string][]string{
	OpAllocPCB:    {"as"},
	OpReleasePCB:  {"ref"},
	OpSend:        {"to"},
	OpRecv:        {"ref"},
	OpInsertChild: {"parent", "child"},
	OpRemoveChild: {"parent"},
	OpDetach:      {"child"},
	OpReady:       {"ref"},
	OpDispatch:    {},
	OpUnready:     {"ref"},
	OpCharge:      {"ref"},
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML script and validates every step. Unknown YAML keys
// are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks operations, required fields and expect_error tags.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	for i, st := range s.Steps {
		fields, ok := required[st.Op]
		if !ok {
			return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownOp, st.Op)
		}
		for _, f := range fields {
			if st.field(f) == "" {
				return fmt.Errorf("step %d (%s): %w %q", i+1, st.Op, ErrMissingField, f)
			}
		}
		if st.ExpectError != "" {
			if _, ok := errorTags[st.ExpectError]; !ok {
				return fmt.Errorf("step %d (%s): %w %q", i+1, st.Op, ErrUnknownErrTag, st.ExpectError)
			}
		}
	}
	return nil
}

// Apply returns cfg with the script's capacity overrides applied.
func (s *Script) Apply(cfg types.Config) types.Config {
	if s.MaxProc > 0 {
		cfg.MaxProc = s.MaxProc
	}
	if s.MaxMessages > 0 {
		cfg.MaxMessages = s.MaxMessages
	}
	return cfg
}

func (st Step) field(name string) string {
	switch name {
	case "as":
		return st.As
	case "ref":
		return st.Ref
	case "parent":
		return st.Parent
	case "child":
		return st.Child
	case "to":
		return st.To
	}
	return ""
}

func (st Step) queueName() string {
	if st.Queue == "" {
		return DefaultQueue
	}
	return st.Queue
}
