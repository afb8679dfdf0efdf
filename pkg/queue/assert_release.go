//go:build !kpooldebug

package queue

// Assertions reports whether misuse assertions are compiled in.
const Assertions = false

func (q *Queue[H]) checkInsert(H) {}
