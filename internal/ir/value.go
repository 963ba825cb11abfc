package ir

// Value is the only machine word type: a 64-bit signed integer.
// Uninitialized registers and memory locations read as 0.
type Value = int64

// ThreadID identifies a thread by its position in the launch list.
type ThreadID = int

// RegID names a per-thread local register, e.g. "r1".
type RegID string

// LocID names a shared memory location, e.g. "mx" for "#mx" in source.
// Locations are abstract: the set of locations is the union of those
// appearing in the launched programs, with no address arithmetic.
type LocID string
