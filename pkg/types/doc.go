// Package types defines the descriptor records, handles, configuration, and
// standard errors shared by the kernelpool packages.
//
// Descriptors live in fixed arenas owned by the pools in pkg/pcb and pkg/msg.
// Callers hold handles (arena slot indices), never pointers, so a parent or
// sender reference is a plain non-owning value.
package types
