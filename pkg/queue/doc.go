// Package queue implements doubly linked queues over a fixed arena.
//
// Elements are arena slot indices. Link fields live in a Linkage, one link
// slot per arena element, so an element carries its own linkage without any
// per-insert allocation. An arena that needs several independent membership
// roles (a PCB in a scheduler queue and in its parent's child list at the
// same time) keeps one Linkage per role.
//
// Insertion at either end and removal of the head are O(1). Removal of an
// arbitrary element scans from the head to confirm membership and is O(n).
//
// Nothing here is safe for concurrent use.
package queue
