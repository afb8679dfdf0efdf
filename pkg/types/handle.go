package types

// ProcHandle is the arena slot index of a process descriptor.
// NoProc stands for "no process".
type ProcHandle int32

// MsgHandle is the arena slot index of a message descriptor.
// NoMsg stands for "no message".
type MsgHandle int32

// Null handles.
const (
	NoProc ProcHandle = -1
	NoMsg  MsgHandle  = -1
)

// PID is a process identifier. PIDs are issued by a PCB pool in strictly
// increasing order and are never reused for the lifetime of the pool.
type PID int64

// IsNil reports whether h is NoProc.
func (h ProcHandle) IsNil() bool { return h == NoProc }

// IsNil reports whether h is NoMsg.
func (h MsgHandle) IsNil() bool { return h == NoMsg }
