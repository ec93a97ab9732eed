// Package execlog records tool executions as a write-only side channel.
//
// Invariants:
// - The executor enqueues and never awaits a write.
// - A full queue drops entries; a failed write is logged and swallowed.
// - Entries are immutable after enqueue.
package execlog
