package bindings

import (
	"fmt"
	"strings"

	"github.com/dshills/keyforge/internal/preset"
)

type keep uint8

const (
	keepExisting keep = iota
	keepIncoming
)

// conflictRule is one precedence rule consulted when two bindings land
// on the same fingerprint. Rules are tried in order; the first whose
// applies reports true decides the survivor.
type conflictRule struct {
	name    string
	applies func(existing, incoming *item) bool
	resolve func(existing, incoming *item, probs *preset.Problems) keep
}

var conflictRules = []conflictRule{
	{
		// Structurally identical declarations collapse silently.
		name: "identical",
		applies: func(a, b *item) bool {
			return a.canonicalString() == b.canonicalString()
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			return keepExisting
		},
	},
	{
		// An ignore binding yields to anything that does work.
		name: "ignore-loses",
		applies: func(a, b *item) bool {
			return a.isIgnore() != b.isIgnore()
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			if a.isIgnore() {
				return keepIncoming
			}
			return keepExisting
		},
	},
	{
		// A user-authored prefix command beats the compiler-generated
		// advance for the same step, whichever arrived first.
		name: "manual-prefix",
		applies: func(a, b *item) bool {
			return a.command == CommandPrefix && b.command == CommandPrefix &&
				a.automated != b.automated
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			if a.automated {
				return keepIncoming
			}
			return keepExisting
		},
	},
	{
		// An explicit mode binding beats an implicit fallback copy.
		name: "implicit-loses",
		applies: func(a, b *item) bool {
			return a.implicit != b.implicit
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			if a.implicit {
				return keepIncoming
			}
			return keepExisting
		},
	},
	{
		name: "priority",
		applies: func(a, b *item) bool {
			return a.priority != b.priority
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			if b.priority > a.priority {
				return keepIncoming
			}
			return keepExisting
		},
	},
	{
		// A genuine duplicate: report it, let the later declaration win,
		// but keep the earlier declaration's position in the table.
		name: "duplicate",
		applies: func(a, b *item) bool {
			return true
		},
		resolve: func(a, b *item, probs *preset.Problems) keep {
			probs.Add(duplicateMessage(a, b))
			return keepIncoming
		},
	},
}

func duplicateMessage(a, b *item) string {
	var loc strings.Builder
	fmt.Fprintf(&loc, "key %q", strings.Join(b.keys, " "))
	if b.modeResolved {
		fmt.Fprintf(&loc, " in mode %q", b.mode)
	}
	if b.allPrefixes {
		loc.WriteString(" under all prefixes")
	} else if len(b.prefixes) == 1 && b.prefixes[0] != "" {
		fmt.Fprintf(&loc, " under prefix %q", b.prefixes[0])
	}
	return fmt.Sprintf("duplicate binding for %s: entries %d and %d collide; the later one wins", loc.String(), a.index, b.index)
}

// resolveConflicts collapses items that share a fingerprint down to one
// survivor each, consulting the rule table. The survivor occupies the
// slot of the first arrival, so output order follows first declaration.
func resolveConflicts(items []item, probs *preset.Problems) []item {
	out := make([]item, 0, len(items))
	slots := map[string]int{}
	for i := range items {
		it := items[i]
		fp := it.fingerprint()
		at, seen := slots[fp]
		if !seen {
			slots[fp] = len(out)
			out = append(out, it)
			continue
		}
		for _, rule := range conflictRules {
			if !rule.applies(&out[at], &it) {
				continue
			}
			if rule.resolve(&out[at], &it, probs) == keepIncoming {
				out[at] = it
			}
			break
		}
	}
	return out
}
