package bindings

import (
	"slices"

	"github.com/dshills/keyforge/internal/key"
	"github.com/dshills/keyforge/internal/preset"
)

// prefixTable assigns dense codes to literal prefixes in first-use order.
// Code 0 is always the empty prefix.
type prefixTable struct {
	codes map[string]int
	names []string
}

func newPrefixTable() *prefixTable {
	t := &prefixTable{codes: map[string]int{}}
	t.code("")
	return t
}

// code returns the code for a prefix, assigning the next one on first use.
func (t *prefixTable) code(prefix string) int {
	if c, ok := t.codes[prefix]; ok {
		return c
	}
	c := len(t.names)
	t.codes[prefix] = c
	t.names = append(t.names, prefix)
	return c
}

func (t *prefixTable) list() []string {
	return slices.Clone(t.names)
}

func joinPrefix(prefix, tok string) string {
	if prefix == "" {
		return tok
	}
	return prefix + " " + tok
}

// prefixState carries the in-progress output of prefix compilation: the
// emitted items plus the position of each user-authored prefix command,
// so automated steps for the same (prefix, key) slot in ahead of it.
type prefixState struct {
	table    *prefixTable
	out      []item
	manualAt map[string]int
	probs    *preset.Problems
}

func manualKey(prefix, tok string) string {
	return prefix + "\x00" + tok
}

// compilePrefixes rewrites key sequences into prefix-coded single-key
// bindings. A sequence of n tokens becomes n-1 automated prefix-advance
// steps plus a final binding constrained to the accumulated prefix. When
// the author already declared a prefix command for a step, later
// automated steps for the same step are inserted immediately before it,
// so conflict resolution keeps the author's entry.
func compilePrefixes(items []item, probs *preset.Problems) ([]item, *prefixTable) {
	st := &prefixState{
		table:    newPrefixTable(),
		out:      make([]item, 0, len(items)),
		manualAt: map[string]int{},
		probs:    probs,
	}

	for i := range items {
		it := items[i]
		multi := len(it.keys) > 1

		// A lone ignore binding with no author constraint swallows its
		// key under any pending prefix.
		if !multi && it.isIgnore() && (!it.prefixesSet || it.allPrefixes) {
			cp := it.clone()
			cp.prefixes = nil
			cp.allPrefixes = true
			st.out = append(st.out, cp)
			continue
		}

		constraints := it.prefixes
		if it.allPrefixes {
			switch {
			case multi:
				probs.Addf("bind[%d] %q: %s cannot apply to a key sequence", it.index, key.Join(it.keys), AllPrefixesSentinel)
				constraints = []string{""}
			case it.command == CommandPrefix:
				probs.Addf("bind[%d] %q: a prefix command requires concrete prefixes", it.index, key.Join(it.keys))
				constraints = []string{""}
			default:
				cp := it.clone()
				cp.prefixes = nil
				st.out = append(st.out, cp)
				continue
			}
		}

		for _, p := range constraints {
			if !multi {
				st.emitSingle(it, p)
				continue
			}
			acc := p
			for _, tok := range it.keys[:len(it.keys)-1] {
				next := joinPrefix(acc, tok)
				st.place(st.advanceStep(&it, tok, acc, next), acc, tok)
				acc = next
			}
			final := it.clone()
			final.keys = []string{it.keys[len(it.keys)-1]}
			st.emitSingle(final, acc)
		}
	}
	return st.out, st.table
}

// emitSingle appends a single-key binding constrained to prefix p. A
// user-authored prefix command additionally gets its target code merged
// into its args and its position recorded for later automated inserts.
func (st *prefixState) emitSingle(it item, p string) {
	cp := it.clone()
	cp.allPrefixes = false
	cp.prefixes = []string{p}
	cp.prefixCode = st.table.code(p)
	if cp.command == CommandPrefix && !cp.automated {
		if cp.args == nil {
			cp.args = map[string]any{}
		}
		cp.args["code"] = st.table.code(joinPrefix(p, cp.keys[0]))
		cp.args["automated"] = false
		cp.finalKey = false
		st.manualAt[manualKey(p, cp.keys[0])] = len(st.out)
	}
	st.out = append(st.out, cp)
}

// place appends an automated step, or splices it in just before the
// user-authored prefix command occupying the same (prefix, key) step.
func (st *prefixState) place(step item, prefix, tok string) {
	at, ok := st.manualAt[manualKey(prefix, tok)]
	if !ok {
		st.out = append(st.out, step)
		return
	}
	st.out = append(st.out, item{})
	copy(st.out[at+1:], st.out[at:])
	st.out[at] = step
	for k, pos := range st.manualAt {
		if pos >= at {
			st.manualAt[k] = pos + 1
		}
	}
}

// advanceStep builds the synthetic binding that consumes one token of a
// sequence and advances the pending prefix from atPrefix to next. It
// inherits the guards, mode selector, and priority of its parent so the
// advance is available exactly where the full sequence is.
func (st *prefixState) advanceStep(parent *item, tok, atPrefix, next string) item {
	return item{
		index:      parent.index,
		keys:       []string{tok},
		guards:     slices.Clone(parent.guards),
		selector:   parent.selector.clone(),
		priority:   parent.priority,
		prefixes:   []string{atPrefix},
		prefixCode: st.table.code(atPrefix),
		command:    CommandPrefix,
		args:       map[string]any{"code": st.table.code(next), "automated": true},
		automated:  true,
		doc:        Doc{HideInPalette: true, HideInDocs: true},
	}
}
