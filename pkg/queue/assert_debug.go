//go:build kpooldebug

package queue

import "fmt"

// Assertions reports whether misuse assertions are compiled in.
const Assertions = true

func (q *Queue[H]) checkInsert(e H) {
	if !q.linkage.valid(e) {
		panic(fmt.Sprintf("queue: element %d outside arena of %d", e, len(q.linkage.links)))
	}
	if owner := q.linkage.links[e].owner; owner != nil {
		panic(fmt.Sprintf("queue: element %d is already linked (same queue: %t)", e, owner == q))
	}
}
