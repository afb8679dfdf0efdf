package scenario

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kernelpool/internal/core"
	"github.com/mesh-intelligence/kernelpool/pkg/msg"
	"github.com/mesh-intelligence/kernelpool/pkg/pcb"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Run errors.
var (
	ErrExpectation  = errors.New("expectation failed")
	ErrUnknownAlias = errors.New("unknown process alias")
	// ErrMisuse reports a step that would break a pool precondition, such
	// as queueing a process twice or releasing one that is still linked.
	ErrMisuse = errors.New("pool misuse")
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Index  int    `json:"index"`
	Op     string `json:"op"`
	Result string `json:"result,omitempty"`
	Err    string `json:"error,omitempty"`
	OK     bool   `json:"ok"`
}

// Report collects the results of a run. Steps holds every executed step,
// including the failing one.
type Report struct {
	Name   string       `json:"name"`
	Steps  []StepResult `json:"steps"`
	Failed bool         `json:"failed"`
}

// runner holds per-run state: alias bindings and named scheduler queues.
type runner struct {
	procs   *pcb.Pool
	msgs    *msg.Pool
	aliases map[string]types.ProcHandle
	queues  map[string]*pcb.Queue
	log     *zap.Logger
}

// Run executes s against c, holding the core's lock for the whole run.
// It stops at the first step whose outcome differs from its expectation and
// returns the report with an error wrapping ErrExpectation, or ErrMisuse
// when a step would break a pool precondition. Context
// cancellation is checked between steps.
func Run(ctx context.Context, c *core.Core, s *Script, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	report := &Report{Name: s.Name}

	err := c.Do(func(procs *pcb.Pool, msgs *msg.Pool) error {
		r := &runner{
			procs:   procs,
			msgs:    msgs,
			aliases: make(map[string]types.ProcHandle),
			queues:  make(map[string]*pcb.Queue),
			log:     log,
		}
		for i, st := range s.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := StepResult{Index: i + 1, Op: st.Op}
			result, opErr := r.exec(st)
			res.Result = result
			if opErr != nil {
				res.Err = opErr.Error()
			}
			checkErr := check(st, opErr)
			res.OK = checkErr == nil
			report.Steps = append(report.Steps, res)

			log.Debug("scenario step",
				zap.Int("index", res.Index),
				zap.String("op", st.Op),
				zap.String("result", result),
				zap.Bool("ok", res.OK))

			if checkErr != nil {
				report.Failed = true
				return fmt.Errorf("step %d (%s): %w", res.Index, st.Op, checkErr)
			}
		}
		return nil
	})
	return report, err
}

// check compares an operation outcome with the step's expect_error.
func check(st Step, opErr error) error {
	if errors.Is(opErr, ErrUnknownAlias) || errors.Is(opErr, ErrExpectation) {
		return opErr
	}
	if errors.Is(opErr, ErrMisuse) && st.ExpectError != "misuse" {
		return opErr
	}
	if st.ExpectError == "" {
		if opErr != nil {
			return fmt.Errorf("%w: unexpected error: %v", ErrExpectation, opErr)
		}
		return nil
	}
	want := errorTags[st.ExpectError]
	if !errors.Is(opErr, want) {
		return fmt.Errorf("%w: want error %q, got %v", ErrExpectation, st.ExpectError, opErr)
	}
	return nil
}

func (r *runner) exec(st Step) (string, error) {
	switch st.Op {
	case OpAllocPCB:
		h, err := r.procs.Allocate()
		if err != nil {
			return "", err
		}
		r.aliases[st.As] = h
		return r.describe(h), nil

	case OpReleasePCB:
		h, err := r.live(st.Ref)
		if err != nil {
			return "", err
		}
		switch {
		case r.procs.Queued(h):
			return "", r.misuse(h, "still in a process queue")
		case r.procs.Parent(h) != types.NoProc:
			return "", r.misuse(h, "still attached to a parent")
		}
		r.procs.Release(h)
		delete(r.aliases, st.Ref)
		return r.describe(h), nil

	case OpSend:
		to, err := r.live(st.To)
		if err != nil {
			return "", err
		}
		from := types.NoProc
		if st.From != "" {
			if from, err = r.live(st.From); err != nil {
				return "", err
			}
		}
		m, err := r.msgs.Allocate()
		if err != nil {
			return "", err
		}
		rec := r.msgs.Get(m)
		rec.Sender = from
		rec.Payload = st.Payload
		if st.Urgent {
			r.procs.Inbox(to).Push(m)
		} else {
			r.procs.Inbox(to).Insert(m)
		}
		return fmt.Sprintf("msg %d", m), nil

	case OpRecv:
		at, err := r.live(st.Ref)
		if err != nil {
			return "", err
		}
		from := types.NoProc
		if st.From != "" {
			if from, err = r.lookup(st.From); err != nil {
				return "", err
			}
		}
		m, err := r.procs.Inbox(at).Pop(from)
		if err != nil {
			return "", err
		}
		got := *r.msgs.Get(m)
		r.msgs.Release(m)
		result := "payload " + strconv.FormatUint(uint64(got.Payload), 10)
		if st.ExpectPayload != nil && *st.ExpectPayload != got.Payload {
			return result, fmt.Errorf("%w: want payload %d, got %d", ErrExpectation, *st.ExpectPayload, got.Payload)
		}
		if st.Expect != "" {
			if err := r.expect(st.Expect, got.Sender); err != nil {
				return result, err
			}
		}
		return result, nil

	case OpInsertChild:
		parent, err := r.live(st.Parent)
		if err != nil {
			return "", err
		}
		child, err := r.live(st.Child)
		if err != nil {
			return "", err
		}
		if p := r.procs.Parent(child); p != types.NoProc {
			return "", r.misuse(child, "already a child of "+r.describe(p))
		}
		r.procs.InsertChild(parent, child)
		return r.describe(child), nil

	case OpRemoveChild:
		parent, err := r.live(st.Parent)
		if err != nil {
			return "", err
		}
		child, err := r.procs.RemoveChild(parent)
		if err != nil {
			return "", err
		}
		return r.bind(st, child)

	case OpDetach:
		child, err := r.live(st.Child)
		if err != nil {
			return "", err
		}
		if _, err := r.procs.OutChild(child); err != nil {
			return "", err
		}
		return r.describe(child), nil

	case OpReady:
		h, err := r.live(st.Ref)
		if err != nil {
			return "", err
		}
		if r.procs.Queued(h) {
			return "", r.misuse(h, "already in a process queue")
		}
		r.queue(st.queueName()).Insert(h)
		return r.describe(h), nil

	case OpDispatch:
		h, err := r.queue(st.queueName()).RemoveHead()
		if err != nil {
			return "", err
		}
		return r.bind(st, h)

	case OpUnready:
		h, err := r.live(st.Ref)
		if err != nil {
			return "", err
		}
		if _, err := r.queue(st.queueName()).Remove(h); err != nil {
			return "", err
		}
		return r.describe(h), nil

	case OpCharge:
		h, err := r.live(st.Ref)
		if err != nil {
			return "", err
		}
		r.procs.Charge(h, st.Time)
		return "time " + strconv.FormatInt(r.procs.Get(h).Time, 10), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
}

// bind records h under st.As and checks st.Expect.
func (r *runner) bind(st Step, h types.ProcHandle) (string, error) {
	if st.As != "" {
		r.aliases[st.As] = h
	}
	result := r.describe(h)
	if st.Expect != "" {
		if err := r.expect(st.Expect, h); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *runner) expect(alias string, got types.ProcHandle) error {
	want, err := r.lookup(alias)
	if err != nil {
		return err
	}
	if want != got {
		return fmt.Errorf("%w: want %s (%s), got %s", ErrExpectation, alias, r.describe(want), r.describe(got))
	}
	return nil
}

func (r *runner) lookup(alias string) (types.ProcHandle, error) {
	h, ok := r.aliases[alias]
	if !ok {
		return types.NoProc, fmt.Errorf("%w %q", ErrUnknownAlias, alias)
	}
	return h, nil
}

// live resolves alias to a process that is currently allocated. Another
// alias may still name a slot that was released under a different one.
func (r *runner) live(alias string) (types.ProcHandle, error) {
	h, err := r.lookup(alias)
	if err != nil {
		return h, err
	}
	if r.procs.IsFree(h) {
		return types.NoProc, fmt.Errorf("%w: %s names released %s", ErrMisuse, alias, r.describe(h))
	}
	return h, nil
}

func (r *runner) misuse(h types.ProcHandle, what string) error {
	return fmt.Errorf("%w: %s %s", ErrMisuse, r.describe(h), what)
}

func (r *runner) queue(name string) *pcb.Queue {
	q, ok := r.queues[name]
	if !ok {
		q = r.procs.NewQueue()
		r.queues[name] = q
	}
	return q
}

func (r *runner) describe(h types.ProcHandle) string {
	if h == types.NoProc {
		return "none"
	}
	return fmt.Sprintf("proc %d pid %d", h, r.procs.Get(h).PID)
}
