package bindings

import (
	"strings"

	"github.com/dshills/keyforge/internal/key"
	"github.com/dshills/keyforge/internal/preset"
)

// expandModes replaces each item with one copy per resolved mode. A
// preset with no declared modes leaves bindings global. Modes whose
// fallbackBindings name another mode additionally receive an implicit
// copy of every binding resolved to that mode; implicit copies lose
// conflicts against anything explicit.
func expandModes(items []item, modes []preset.Mode, probs *preset.Problems) []item {
	if len(modes) == 0 {
		return items
	}

	declared := make([]string, len(modes))
	known := make(map[string]bool, len(modes))
	defaultMode := ""
	fallbackFor := map[string][]string{}
	for i, m := range modes {
		declared[i] = m.Name
		known[m.Name] = true
		if m.Default && defaultMode == "" {
			defaultMode = m.Name
		}
	}
	if defaultMode == "" {
		defaultMode = declared[0]
	}
	for _, m := range modes {
		if m.FallbackBindings != "" {
			fallbackFor[m.FallbackBindings] = append(fallbackFor[m.FallbackBindings], m.Name)
		}
	}

	out := make([]item, 0, len(items))
	for i := range items {
		it := items[i]
		for _, name := range resolveSelector(&it, declared, known, defaultMode, probs) {
			cp := it.clone()
			cp.mode = name
			cp.modeResolved = true
			out = append(out, cp)
			for _, faller := range fallbackFor[name] {
				fb := it.clone()
				fb.mode = faller
				fb.modeResolved = true
				fb.implicit = true
				out = append(out, fb)
			}
		}
	}
	return out
}

// resolveSelector turns an item's mode field into a concrete mode list.
// An absent selector means the default mode. Exclusions ("!name") select
// the complement in declaration order; mixing exclusions with plain
// names is reported and only the exclusions are honored.
func resolveSelector(it *item, declared []string, known map[string]bool, defaultMode string, probs *preset.Problems) []string {
	if !it.selector.set || len(it.selector.names) == 0 {
		return []string{defaultMode}
	}

	var plain, excluded []string
	for _, name := range it.selector.names {
		if strings.HasPrefix(name, "!") {
			excluded = append(excluded, strings.TrimPrefix(name, "!"))
		} else {
			plain = append(plain, name)
		}
	}
	if len(excluded) > 0 && len(plain) > 0 {
		probs.Addf("bind[%d] %q: cannot mix '!' exclusions with plain mode names; honoring only the exclusions", it.index, key.Join(it.keys))
		plain = nil
	}

	if len(excluded) > 0 {
		skip := make(map[string]bool, len(excluded))
		for _, name := range excluded {
			if !known[name] {
				probs.Addf("bind[%d] %q: unknown mode %q", it.index, key.Join(it.keys), name)
				continue
			}
			skip[name] = true
		}
		var out []string
		for _, name := range declared {
			if !skip[name] {
				out = append(out, name)
			}
		}
		return out
	}

	var out []string
	seen := map[string]bool{}
	for _, name := range plain {
		if !known[name] {
			probs.Addf("bind[%d] %q: unknown mode %q", it.index, key.Join(it.keys), name)
			continue
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
