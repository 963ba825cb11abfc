// Package ir provides the program representation for weft.
//
// This package contains the instruction set and program types only. The
// other internal packages build on ir; ir imports nothing internal. This
// ensures the program model remains the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Values are int64 everywhere; registers and memory default to 0
//   - Programs are immutable after parse
//   - Instruction and expression variants are sealed interfaces
package ir
