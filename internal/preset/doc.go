// Package preset defines the binding preset document model and the parsing
// layers that take a structurally-decoded document (maps, arrays, scalars)
// into typed form.
//
// A preset document has six top-level sections:
//
//   - header: schema version, display name, required extensions
//   - mode:   named input modes (vim-like), exactly one marked default
//   - kind:   documentation-only binding categories
//   - default: hierarchical partial bindings addressed by dot-path ids
//   - define: a free-form symbol table of reusable values and command lists
//   - bind:   the raw binding entries themselves
//
// # Versions
//
// The current schema is major version 2. Documents with a 1.x header are
// structurally rewritten by Upgrade before parsing; the rewrite is a
// declarative rule list applied by a generic tree walk, so individual
// migration rules stay auditable and testable in isolation.
//
// # Problems
//
// Schema and semantic issues that do not invalidate the whole document are
// accumulated as ordered problem strings rather than errors; compilation
// proceeds best-effort. Only a malformed header aborts parsing.
package preset
