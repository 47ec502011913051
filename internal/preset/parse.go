package preset

import (
	"fmt"
	"sort"
	"strings"
)

// Parse converts a structurally-decoded document into a Spec. A missing or
// malformed header (including an unsupported version) aborts with an error;
// every other issue is recorded on probs and parsing continues best-effort.
// Legacy 1.x documents must be passed through Upgrade first.
func Parse(doc map[string]any, probs *Problems) (*Spec, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidHeader)
	}
	doc = normalizeMap(doc)

	header, err := parseHeader(doc["header"], probs)
	if err != nil {
		return nil, err
	}

	spec := &Spec{Header: header}
	spec.Modes = parseModes(doc["mode"], probs)
	spec.Kinds = parseKinds(doc["kind"], probs)
	spec.Defaults = parseDefaults(doc["default"], probs)
	spec.Binds = parseBinds(doc["bind"], probs)

	if define, ok := doc["define"].(map[string]any); ok {
		spec.Define = define
	} else if _, present := doc["define"]; present {
		probs.Add("define: expected a table")
	}

	known := map[string]bool{
		"header": true, "mode": true, "kind": true,
		"default": true, "define": true, "bind": true,
	}
	for _, k := range sortedKeys(doc) {
		if !known[k] {
			probs.Addf("unknown top-level section %q", k)
		}
	}

	return spec, nil
}

func parseHeader(v any, probs *Problems) (Header, error) {
	var h Header

	raw, ok := v.(map[string]any)
	if !ok {
		return h, fmt.Errorf("%w: header section is required", ErrInvalidHeader)
	}

	version, ok := raw["version"].(string)
	if !ok || version == "" {
		return h, fmt.Errorf("%w: header.version is required", ErrInvalidHeader)
	}
	ver, err := ParseVersion(version)
	if err != nil {
		return h, fmt.Errorf("%w: header.version: %v", ErrInvalidHeader, err)
	}
	if ver.Major != 2 {
		return h, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	h.Version = version

	h.Name = optionalString(raw, "name", "header", probs)
	h.Description = optionalString(raw, "description", "header", probs)

	if exts, present := raw["requiredExtensions"]; present {
		list, ok := exts.([]any)
		if !ok {
			probs.Add("header.requiredExtensions: expected an array of strings")
		} else {
			for i, e := range list {
				s, ok := e.(string)
				if !ok {
					probs.Addf("header.requiredExtensions[%d]: expected a string", i)
					continue
				}
				h.RequiredExtensions = append(h.RequiredExtensions, s)
			}
		}
	}

	known := map[string]bool{
		"version": true, "name": true, "description": true,
		"requiredExtensions": true,
	}
	for _, k := range sortedKeys(raw) {
		if !known[k] {
			probs.Addf("header: unknown field %q", k)
		}
	}

	return h, nil
}

func parseModes(v any, probs *Problems) []Mode {
	items, present := sectionList(v, "mode", probs)
	if !present {
		return nil
	}

	var modes []Mode
	seen := map[string]bool{}
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			probs.Addf("mode[%d]: expected a table", i)
			continue
		}

		ctx := fmt.Sprintf("mode[%d]", i)
		m := Mode{Name: optionalString(raw, "name", ctx, probs)}
		if m.Name == "" {
			probs.Addf("%s: name is required", ctx)
			continue
		}
		if seen[m.Name] {
			probs.Addf("%s: duplicate mode name %q", ctx, m.Name)
			continue
		}
		seen[m.Name] = true
		ctx = fmt.Sprintf("mode[%d] %q", i, m.Name)

		m.Default = optionalBool(raw, "default", ctx, probs)
		m.RecordEdits = optionalBool(raw, "recordEdits", ctx, probs)
		m.FallbackBindings = optionalString(raw, "fallbackBindings", ctx, probs)

		highlight, ok := highlightFromName(optionalString(raw, "highlight", ctx, probs))
		if !ok {
			probs.Addf("%s: unknown highlight %q", ctx, raw["highlight"])
		}
		m.Highlight = highlight

		cursor, ok := cursorStyleFromName(optionalString(raw, "cursorShape", ctx, probs))
		if !ok {
			probs.Addf("%s: unknown cursorShape %q", ctx, raw["cursorShape"])
		}
		m.Cursor = cursor

		if onType, present := raw["onType"]; present {
			list, ok := onType.([]any)
			if !ok {
				probs.Addf("%s: onType must be an array of commands", ctx)
			} else {
				for j, e := range list {
					cm, ok := e.(map[string]any)
					if !ok {
						probs.Addf("%s: onType[%d]: expected a table", ctx, j)
						continue
					}
					cmd, err := ParseCommand(cm)
					if err != nil {
						probs.Addf("%s: onType[%d]: %v", ctx, j, err)
						continue
					}
					m.OnType = append(m.OnType, cmd)
				}
			}
		}

		known := map[string]bool{
			"name": true, "default": true, "highlight": true,
			"recordEdits": true, "cursorShape": true, "onType": true,
			"fallbackBindings": true,
		}
		for _, k := range sortedKeys(raw) {
			if !known[k] {
				probs.Addf("%s: unknown field %q", ctx, k)
			}
		}

		modes = append(modes, m)
	}

	// Fallback targets must name a declared mode.
	for i := range modes {
		if fb := modes[i].FallbackBindings; fb != "" && !seen[fb] {
			probs.Addf("mode %q: fallbackBindings references unknown mode %q", modes[i].Name, fb)
			modes[i].FallbackBindings = ""
		}
	}

	// Exactly one mode is the default.
	if len(modes) > 0 {
		defaults := 0
		for i := range modes {
			if modes[i].Default {
				defaults++
				if defaults > 1 {
					modes[i].Default = false
				}
			}
		}
		switch {
		case defaults == 0:
			probs.Addf("no mode is marked default; treating %q as default", modes[0].Name)
			modes[0].Default = true
		case defaults > 1:
			probs.Addf("%d modes are marked default; keeping the first", defaults)
		}
	}

	return modes
}

func parseKinds(v any, probs *Problems) []Kind {
	items, present := sectionList(v, "kind", probs)
	if !present {
		return nil
	}

	var kinds []Kind
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			probs.Addf("kind[%d]: expected a table", i)
			continue
		}
		ctx := fmt.Sprintf("kind[%d]", i)
		k := Kind{
			Name:        optionalString(raw, "name", ctx, probs),
			Description: optionalString(raw, "description", ctx, probs),
		}
		if k.Name == "" {
			probs.Addf("%s: name is required", ctx)
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}

func parseDefaults(v any, probs *Problems) []DefaultEntry {
	items, present := sectionList(v, "default", probs)
	if !present {
		return nil
	}

	var entries []DefaultEntry
	seen := map[string]bool{}
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			probs.Addf("default[%d]: expected a table", i)
			continue
		}

		ctx := fmt.Sprintf("default[%d]", i)
		id := optionalString(raw, "id", ctx, probs)
		if !validDefaultID(id) {
			probs.Addf("%s: invalid id %q (dot-separated alphanumeric/_/- segments)", ctx, id)
			continue
		}
		if seen[id] {
			probs.Addf("%s: duplicate default id %q", ctx, id)
			continue
		}
		seen[id] = true
		ctx = fmt.Sprintf("default %q", id)

		entry := DefaultEntry{ID: id, AppendWhen: optionalString(raw, "appendWhen", ctx, probs)}
		if d, ok := raw["default"].(map[string]any); ok {
			entry.Default = d
		} else if _, present := raw["default"]; present {
			probs.Addf("%s: default must be a table", ctx)
		}

		known := map[string]bool{"id": true, "default": true, "appendWhen": true}
		for _, k := range sortedKeys(raw) {
			if !known[k] {
				probs.Addf("%s: unknown field %q", ctx, k)
			}
		}

		entries = append(entries, entry)
	}
	return entries
}

func parseBinds(v any, probs *Problems) []map[string]any {
	items, present := sectionList(v, "bind", probs)
	if !present {
		return nil
	}

	var binds []map[string]any
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			probs.Addf("bind[%d]: expected a table", i)
			continue
		}
		binds = append(binds, raw)
	}
	return binds
}

// validDefaultID reports whether id is one or more dot-separated segments
// of alphanumerics, underscores, and hyphens.
func validDefaultID(id string) bool {
	if id == "" {
		return false
	}
	for _, seg := range strings.Split(id, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
				r >= '0' && r <= '9', r == '_', r == '-':
			default:
				return false
			}
		}
	}
	return true
}

func sectionList(v any, section string, probs *Problems) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		probs.Addf("%s: expected an array of tables", section)
		return nil, false
	}
	return list, true
}

func optionalString(m map[string]any, field, ctx string, probs *Problems) string {
	v, present := m[field]
	if !present {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		probs.Addf("%s.%s: expected a string", ctx, field)
		return ""
	}
	return s
}

func optionalBool(m map[string]any, field, ctx string, probs *Problems) bool {
	v, present := m[field]
	if !present {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		probs.Addf("%s.%s: expected a boolean", ctx, field)
		return false
	}
	return b
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeMap rebuilds a decoded document so that every nested list is a
// plain []any. Decoders differ on whether arrays of tables come back as
// []any or []map[string]any; the compiler only deals with the former.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeMap(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
