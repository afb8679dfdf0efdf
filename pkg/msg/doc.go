// Package msg provides the fixed-capacity message pool and the message queue
// operations used for process inboxes.
//
// A Pool is populated once by NewPool and never grows. Allocate hands out a
// message with neutral fields; Release returns it to the tail of the free
// list without clearing it. Releasing a message that is still linked into an
// inbox is a caller error and is not detected in release builds.
package msg
