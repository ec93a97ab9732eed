// Package registry is the cached read path over the tool catalog.
//
// Invariants:
// - Disabled tools are excluded from every query except GetToolByName.
// - The cache holds one wholesale snapshot; invalidation discards it
//   entirely, never partially.
// - A stale read within the TTL window is an accepted trade-off, not a
//   bug; a missed invalidation is a correctness bug in the caller.
package registry
