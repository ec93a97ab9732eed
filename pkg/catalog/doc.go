// Package catalog defines the persistent tool catalog for the AI
// orchestration layer.
//
// Invariants:
// - Tool names are unique; a tool is addressable only by name.
// - Endpoint type is fixed at creation and selects the execution strategy.
// - FindMany results are ordered by (category, display_name) ascending.
//
// The catalog is read through pkg/registry, which adds caching; code
// mutating the catalog must invalidate the registry cache afterwards.
package catalog
