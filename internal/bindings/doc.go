// Package bindings compiles parsed keybinding presets into flat,
// conflict-free binding tables ready for a dispatcher to load.
//
// # Pipeline
//
// Compilation is a fixed sequence of stages, each consuming the previous
// stage's output:
//
//  1. Hierarchical defaults are resolved into complete partial bindings
//     and merged under each raw entry.
//  2. foreach tables expand into one copy per parameter combination,
//     with {{...}} templates substituted and defined command references
//     spliced in.
//  3. Each raw entry is validated into a typed item; malformed entries
//     are reported and dropped.
//  4. Key sequences are rewritten into single-key bindings chained by
//     prefix codes.
//  5. Items are expanded per resolved mode, including implicit fallback
//     copies.
//  6. Documentation fields merge across bindings sharing a slot.
//  7. Conflicting bindings collapse to one survivor per slot.
//
// # Problems
//
// The compiler never fails on a bad binding. Every recoverable fault is
// appended to the supplied problem list and compilation continues with
// the entry dropped or adjusted, so one typo cannot take down the rest
// of a preset. Compile returns an error only for faults that make the
// whole run meaningless.
//
// # Determinism
//
// Compiling the same preset twice produces identical tables: stages
// iterate in declaration order, foreach parameters expand in sorted
// order, and prefix codes are assigned on first use during a fixed walk.
package bindings
