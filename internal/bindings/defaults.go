package bindings

import (
	"slices"
	"strings"

	"github.com/dshills/keyforge/internal/preset"
)

// defaultsTable holds the resolved dot-path hierarchy of partial bindings.
// Each id maps to the fully-merged field set inherited along its path,
// plus the accumulated appendWhen guard chain.
type defaultsTable struct {
	partial map[string]map[string]any
	chains  map[string][]string
}

// resolveDefaults folds the declared default entries, in document order,
// into complete partial bindings. A multi-segment id inherits from its
// immediate parent, which must appear earlier in the document; a missing
// parent is reported and the entry starts from an empty base.
func resolveDefaults(entries []preset.DefaultEntry, probs *preset.Problems) *defaultsTable {
	t := &defaultsTable{
		partial: map[string]map[string]any{"": {}},
		chains:  map[string][]string{},
	}
	for _, e := range entries {
		base := map[string]any{}
		var chain []string
		if i := strings.LastIndex(e.ID, "."); i >= 0 {
			parent := e.ID[:i]
			if p, ok := t.partial[parent]; ok {
				base = preset.Clone(p)
				chain = slices.Clone(t.chains[parent])
			} else {
				probs.Addf("default %q: parent %q is not defined earlier in the document", e.ID, parent)
			}
		}
		base = preset.DeepMerge(base, e.Default)
		if e.AppendWhen != "" {
			chain = append(chain, e.AppendWhen)
		}
		t.partial[e.ID] = base
		t.chains[e.ID] = chain
	}
	return t
}

// apply merges a raw binding over the partial it references via its
// defaults field (the root partial when absent). The binding's own fields
// win; appendWhen guards inherited along the path are appended to the
// binding's when clause rather than replacing it.
func (t *defaultsTable) apply(idx int, fields map[string]any, probs *preset.Problems) map[string]any {
	ref := ""
	if v, present := fields["defaults"]; present {
		s, ok := v.(string)
		if !ok {
			probs.Addf("bind[%d].defaults: expected a string id", idx)
		} else {
			ref = s
		}
	}

	own := preset.Clone(fields)
	delete(own, "defaults")

	partial, ok := t.partial[ref]
	if !ok {
		probs.Addf("bind[%d]: unknown defaults reference %q", idx, ref)
		partial = nil
	}

	merged := preset.Clone(partial)
	if merged == nil {
		merged = map[string]any{}
	}
	merged = preset.DeepMerge(merged, own)

	for _, guard := range t.chains[ref] {
		merged["when"] = appendWhen(merged["when"], guard)
	}
	return merged
}

// appendWhen adds one guard to an existing when value, normalizing it to
// a list. Malformed existing values are kept for validation to report.
func appendWhen(existing any, guard string) []any {
	switch w := existing.(type) {
	case nil:
		return []any{guard}
	case []any:
		return append(slices.Clone(w), guard)
	default:
		return []any{w, guard}
	}
}
