package bindings

import (
	"sort"
	"strings"
)

// mergeDocGroups fills each binding's documentation fields from the
// other members of its (key, mode, prefix) group, so palettes and docs
// show one coherent entry when several declarations land on the same
// slot. For every string field the first non-empty value in emission
// order wins; hide flags combine with OR. Automated prefix-advance steps
// keep their own hidden docs.
func mergeDocGroups(items []item) {
	groups := map[string][]int{}
	var order []string
	for i := range items {
		if items[i].automated {
			continue
		}
		k := docGroupKey(&items[i])
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	for _, k := range order {
		idxs := groups[k]
		if len(idxs) < 2 {
			continue
		}
		var merged Doc
		for _, i := range idxs {
			merged = mergeDoc(merged, items[i].doc)
		}
		for _, i := range idxs {
			items[i].doc = merged
		}
	}
}

func docGroupKey(it *item) string {
	prefix := strings.Join(it.prefixes, " ")
	if it.allPrefixes {
		prefix = "<all>"
	}
	return strings.Join(it.keys, " ") + fpSep + it.mode + fpSep + prefix
}

func mergeDoc(dst, src Doc) Doc {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.CombinedName == "" {
		dst.CombinedName = src.CombinedName
	}
	if dst.CombinedKey == "" {
		dst.CombinedKey = src.CombinedKey
	}
	if dst.CombinedDescription == "" {
		dst.CombinedDescription = src.CombinedDescription
	}
	if dst.Kind == "" {
		dst.Kind = src.Kind
	}
	dst.HideInPalette = dst.HideInPalette || src.HideInPalette
	dst.HideInDocs = dst.HideInDocs || src.HideInDocs
	return dst
}

// DocEntry is one row of user-facing binding documentation, grouping the
// compiled bindings that came from a single declaration.
type DocEntry struct {
	Key         string   `json:"key"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Modes       []string `json:"modes,omitempty"`
	Prefix      string   `json:"prefix,omitempty"`
}

// DocEntries flattens a compiled table into documentation rows. Bindings
// hidden from docs, implicit mode copies, and automated prefix steps are
// omitted. Combined fields, when present, replace the per-binding key
// and name, and rows resolving to the same key and name collapse into
// one entry, so a multi-part family (such as a motion pair) documents
// once with its modes collected.
func DocEntries(t *Table) []DocEntry {
	type group struct {
		entry DocEntry
		first int
		seen  map[string]bool
	}
	byID := map[string]*group{}
	var order []string

	for i := range t.Bindings {
		b := &t.Bindings[i]
		if b.Doc.HideInDocs || b.Implicit {
			continue
		}
		if len(b.Commands) == 1 && b.Commands[0].Command == CommandPrefix {
			if auto, _ := b.Commands[0].Args["automated"].(bool); auto {
				continue
			}
		}

		e := DocEntry{
			Key:         b.Key,
			Name:        b.Doc.Name,
			Description: b.Doc.Description,
			Kind:        b.Doc.Kind,
			Prefix:      b.Prefix,
		}
		if b.Doc.CombinedKey != "" {
			e.Key = b.Doc.CombinedKey
		}
		if b.Doc.CombinedName != "" {
			e.Name = b.Doc.CombinedName
		}
		if b.Doc.CombinedDescription != "" {
			e.Description = b.Doc.CombinedDescription
		}

		id := e.Key + fpSep + e.Name
		g, ok := byID[id]
		if !ok {
			g = &group{entry: e, first: b.Index, seen: map[string]bool{}}
			byID[id] = g
			order = append(order, id)
		}
		if b.Mode != "" && !g.seen[b.Mode] {
			g.seen[b.Mode] = true
			g.entry.Modes = append(g.entry.Modes, b.Mode)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byID[order[i]].first < byID[order[j]].first
	})
	out := make([]DocEntry, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id].entry)
	}
	return out
}
