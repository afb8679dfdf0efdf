package types

// PCB is a process control block: the kernel's descriptor for one process.
//
// The children list, the sibling linkage, the flat-queue linkage and the
// inbox are kept by the owning pcb.Pool alongside the arena and are reached
// through pool methods; only the scalar fields live here.
type PCB struct {
	// PID is assigned on allocation.
	PID PID

	// Parent is a weak reference to the parent descriptor, NoProc if none.
	// Parent != NoProc iff the descriptor is linked into a child list.
	Parent ProcHandle

	// Time is the accumulated time usage of the process.
	Time int64

	// Support is an opaque extension record owned by higher layers. The
	// pool only nils it on allocation.
	Support any
}

// Reset sets every field to its neutral default. The PID is left for the
// pool to assign.
func (p *PCB) Reset() {
	p.Parent = NoProc
	p.Time = 0
	p.Support = nil
}
