// Package graph records the execution graph of an interpreter session.
//
// The graph is an append-only arena of events indexed by monotonically
// increasing EventID, plus separate edge sets per kind. Events are never
// removed or mutated; derived edges (fr) are recomputed from rf and mo on
// demand rather than stored, so there is no cache to invalidate.
//
// Edge kinds:
//   - po: program order, within a thread, in issue order
//   - rf: reads-from, from the write a read observed
//   - mo: modification order, per location, over writes that reached memory
//   - sw: synchronizes-with, release-write to acquire-read rf pairs
//   - fr: from-read, derived from rf and mo
package graph
