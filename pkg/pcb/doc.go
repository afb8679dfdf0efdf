// Package pcb provides the fixed-capacity process control block pool, the
// flat process queues a scheduler keeps its ready and blocked processes in,
// and the parent/child/sibling process tree.
//
// Every descriptor has two independent linkage roles. The flat linkage puts
// it in exactly one flat queue at a time: the free list, or a queue obtained
// from Pool.NewQueue. The sibling linkage puts it in at most one parent's
// child list. Moving a process between scheduler queues never disturbs the
// tree, and reparenting never disturbs scheduler queues.
//
// Each descriptor also owns a private inbox, a msg.Queue over the message
// pool handed to NewPool.
//
// Misuse such as double release, releasing a linked descriptor, or inserting
// a child that already has a parent is a caller error. It is only detected
// when built with the kpooldebug tag.
package pcb
