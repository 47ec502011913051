package bindings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/keyforge/internal/key"
	"github.com/dshills/keyforge/internal/preset"
)

// AllPrefixesSentinel in a prefixes field lifts the concrete-prefix
// requirement: the binding fires whatever prefix is pending.
const AllPrefixesSentinel = "<all-prefixes>"

// bindFields is the set of recognized binding fields. defaults and
// foreach are consumed by earlier stages and only tolerated here.
var bindFields = map[string]bool{
	"key": true, "when": true, "mode": true, "priority": true,
	"defaults": true, "foreach": true, "prefixes": true,
	"finalKey": true, "computedRepeat": true, "whenComputed": true,
	"command": true, "args": true, "computedArgs": true,
	"name": true, "description": true, "kind": true,
	"combinedName": true, "combinedKey": true, "combinedDescription": true,
	"hideInPalette": true, "hideInDocs": true,
}

// validateBinding converts one raw field map into a typed item. Unknown
// fields and malformed optional fields are reported and skipped; a
// missing key or command makes the binding unusable, so it reports and
// drops the whole entry.
func validateBinding(r rawItem, probs *preset.Problems) (item, bool) {
	fields := r.fields
	it := item{index: r.index, finalKey: true}

	for _, name := range unknownFields(fields) {
		probs.Addf("bind[%d]: unknown field %q", r.index, name)
	}

	keyStr, _ := fields["key"].(string)
	it.keys = key.Split(keyStr)
	if len(it.keys) == 0 {
		probs.Addf("bind[%d].key: required non-empty string", r.index)
		return it, false
	}

	it.command, _ = fields["command"].(string)
	if it.command == "" {
		probs.Addf("bind[%d] %q: command is required", r.index, keyStr)
		return it, false
	}

	it.guards = parseGuards(r.index, fields["when"], probs)
	it.selector = parseSelector(r.index, fields["mode"], probs)
	it.priority = intField(fields["priority"])
	parsePrefixes(r.index, keyStr, fields, &it, probs)

	if v, present := fields["finalKey"]; present {
		b, ok := v.(bool)
		if !ok {
			probs.Addf("bind[%d].finalKey: expected a boolean", r.index)
		} else {
			it.finalKey = b
		}
	}

	switch v := fields["computedRepeat"].(type) {
	case nil:
	case string:
		it.computedRepeat = v
	case int64:
		it.computedRepeat = strconv.FormatInt(v, 10)
	case int:
		it.computedRepeat = strconv.Itoa(v)
	default:
		probs.Addf("bind[%d].computedRepeat: expected a count or expression", r.index)
	}

	if v, present := fields["whenComputed"]; present {
		s, ok := v.(string)
		if !ok {
			probs.Addf("bind[%d].whenComputed: expected a string expression", r.index)
		} else {
			it.whenComputed = s
		}
	}

	if v, present := fields["args"]; present {
		m, ok := v.(map[string]any)
		if !ok {
			probs.Addf("bind[%d].args: expected a table", r.index)
		} else {
			it.args = m
		}
	}
	it.computedArgs = parseComputedArgs(r.index, fields["computedArgs"], probs)

	it.doc = Doc{
		Name:                stringField(fields, "name"),
		Description:         stringField(fields, "description"),
		CombinedName:        stringField(fields, "combinedName"),
		CombinedKey:         stringField(fields, "combinedKey"),
		CombinedDescription: stringField(fields, "combinedDescription"),
		Kind:                stringField(fields, "kind"),
		HideInPalette:       boolField(fields, "hideInPalette"),
		HideInDocs:          boolField(fields, "hideInDocs"),
	}

	if it.command == CommandRunCommands {
		if len(it.computedArgs) > 0 {
			probs.Addf("bind[%d] %q: computedArgs on a runCommands binding is ignored; set them on individual entries", r.index, keyStr)
			it.computedArgs = nil
		}
		cmds, ok := parseSubCommands(r.index, keyStr, it.args, probs)
		if !ok {
			return it, false
		}
		it.subCommands = cmds
	}

	return it, true
}

func unknownFields(fields map[string]any) []string {
	var out []string
	for name := range fields {
		if !bindFields[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// parseGuards normalizes a when field to a guard list: a string is a
// single guard, a list contributes one guard per string entry. Blank
// entries are dropped.
func parseGuards(idx int, v any, probs *preset.Problems) []Guard {
	var out []Guard
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, newGuard(s))
		}
	}
	switch w := v.(type) {
	case nil:
	case string:
		add(w)
	case []any:
		for i, entry := range w {
			s, ok := entry.(string)
			if !ok {
				probs.Addf("bind[%d].when[%d]: expected a string clause", idx, i)
				continue
			}
			add(s)
		}
	default:
		probs.Addf("bind[%d].when: expected a string or list of strings", idx)
	}
	return out
}

func parseSelector(idx int, v any, probs *preset.Problems) modeSelector {
	switch m := v.(type) {
	case nil:
		return modeSelector{}
	case string:
		return modeSelector{set: true, names: []string{m}}
	case []any:
		sel := modeSelector{set: true}
		for i, entry := range m {
			s, ok := entry.(string)
			if !ok {
				probs.Addf("bind[%d].mode[%d]: expected a mode name", idx, i)
				continue
			}
			sel.names = append(sel.names, s)
		}
		return sel
	default:
		probs.Addf("bind[%d].mode: expected a string or list of strings", idx)
		return modeSelector{}
	}
}

// parsePrefixes fills the item's prefix constraint. The sentinel may
// stand alone as a string or single-element list; mixing it with
// concrete prefixes keeps the concrete ones and reports the mix.
func parsePrefixes(idx int, keyStr string, fields map[string]any, it *item, probs *preset.Problems) {
	v, present := fields["prefixes"]
	if !present {
		it.prefixes = []string{""}
		return
	}
	it.prefixesSet = true

	switch p := v.(type) {
	case string:
		if p == AllPrefixesSentinel {
			it.allPrefixes = true
			return
		}
		it.prefixes = []string{p}
	case []any:
		var concrete []string
		sentinel := false
		for i, entry := range p {
			s, ok := entry.(string)
			if !ok {
				probs.Addf("bind[%d].prefixes[%d]: expected a string", idx, i)
				continue
			}
			if s == AllPrefixesSentinel {
				sentinel = true
				continue
			}
			concrete = append(concrete, s)
		}
		switch {
		case sentinel && len(concrete) > 0:
			probs.Addf("bind[%d] %q: %s cannot be mixed with concrete prefixes; keeping the concrete ones", idx, keyStr, AllPrefixesSentinel)
			it.prefixes = concrete
		case sentinel:
			it.allPrefixes = true
		case len(concrete) > 0:
			it.prefixes = concrete
		default:
			it.prefixes = []string{""}
		}
	default:
		probs.Addf("bind[%d].prefixes: expected a string or list of strings", idx)
		it.prefixes = []string{""}
		it.prefixesSet = false
	}
}

func parseComputedArgs(idx int, v any, probs *preset.Problems) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			probs.Addf("bind[%d].computedArgs: expected a table of expressions", idx)
		}
		return nil
	}
	out := make(map[string]string, len(m))
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, ok := m[name].(string)
		if !ok {
			probs.Addf("bind[%d].computedArgs.%s: expected a string expression", idx, name)
			continue
		}
		out[name] = s
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseSubCommands validates and parses a runCommands entry list. Bad
// entries are reported and skipped; with no usable entries left the
// binding is dropped.
func parseSubCommands(idx int, keyStr string, args map[string]any, probs *preset.Problems) ([]preset.Command, bool) {
	list, ok := args["commands"].([]any)
	if !ok || len(list) == 0 {
		probs.Addf("bind[%d] %q: runCommands requires a non-empty args.commands list", idx, keyStr)
		return nil, false
	}
	out := make([]preset.Command, 0, len(list))
	for i, entry := range list {
		switch e := entry.(type) {
		case string:
			out = append(out, preset.Command{Command: e})
		case map[string]any:
			cmd, err := preset.ParseCommand(e)
			if err != nil {
				probs.Addf("bind[%d].args.commands[%d]: %v", idx, i, err)
				continue
			}
			out = append(out, cmd)
		default:
			probs.Addf("bind[%d].args.commands[%d]: expected a command name or table", idx, i)
		}
	}
	if len(out) == 0 {
		probs.Addf("bind[%d] %q: no usable commands remain", idx, keyStr)
		return nil, false
	}
	return out, true
}

func intField(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func boolField(fields map[string]any, name string) bool {
	b, _ := fields[name].(bool)
	return b
}
