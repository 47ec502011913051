// Package expression provides the sandboxed expression engine used by the
// binding compiler and, later, by binding dispatch for computed arguments.
//
// Expressions are small, side-effect-free programs evaluated against a
// read-only variable scope (mode, count, prefix state, user definitions).
// They are compiled with expr-lang and memoized by exact source text, so a
// guard that appears on hundreds of bindings is compiled once.
//
// # Assignment Guard
//
// Evaluated code can never mutate the scope: the compiler rejects any
// source containing a bare assignment operator before it reaches the
// expression parser. The check is purely syntactic, looking for a single
// '=' that is not part of "==", "!=", "<=", ">=", or "=>", which means an
// '=' inside a string literal is also rejected. That trade-off keeps the
// guard simple and the error immediate.
//
// # Templates
//
// SubstituteTemplates replaces each non-greedy "{{ ... }}" span in a string
// with the stringified value of the inner expression. A span that fails to
// evaluate, or evaluates to no value, is left in place literally and the
// failure is recorded.
//
// # Error Accumulation
//
// Evaluation failures are recorded on the Evaluator rather than aborting
// the surrounding compile. TakeErrors drains the accumulated messages;
// callers typically surface only the first few per reporting cycle.
package expression
