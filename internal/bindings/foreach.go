package bindings

import (
	"sort"

	"github.com/dshills/keyforge/internal/expression"
	"github.com/dshills/keyforge/internal/key"
	"github.com/dshills/keyforge/internal/preset"
)

// rawItem pairs a raw binding field map with its declaration index, which
// expansion preserves so problems and output order stay traceable.
type rawItem struct {
	index  int
	fields map[string]any
}

// expandForeach replaces a binding carrying a foreach table with one copy
// per combination of parameter values, taken as a cartesian product in
// sorted parameter order. Each copy has its templates substituted against
// the define table overlaid with that combination, then has its defined
// command references spliced in. Bindings without foreach pass through
// after the define splice alone.
func expandForeach(eval *expression.Evaluator, it rawItem, define map[string]any, probs *preset.Problems) []rawItem {
	fields := it.fields
	raw, has := fields["foreach"]
	if !has {
		resolveDefined(it.index, fields, define, probs)
		return []rawItem{it}
	}
	delete(fields, "foreach")

	params, ok := raw.(map[string]any)
	if !ok {
		probs.Addf("bind[%d].foreach: expected a table of value lists", it.index)
		resolveDefined(it.index, fields, define, probs)
		return []rawItem{it}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([][]any, len(names))
	for i, name := range names {
		values[i] = paramValues(it.index, name, params[name], probs)
	}

	var out []rawItem
	combo := expression.Scope{}
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(names) {
			scope := expression.Scope{}
			for k, v := range define {
				scope[k] = v
			}
			for k, v := range combo {
				scope[k] = v
			}
			expanded, ok := eval.SubstituteDeep(fields, scope).(map[string]any)
			if !ok {
				return
			}
			out = append(out, rawItem{index: it.index, fields: expanded})
			return
		}
		for _, v := range values[depth] {
			combo[names[depth]] = v
			walk(depth + 1)
		}
		delete(combo, names[depth])
	}
	walk(0)

	for _, r := range out {
		resolveDefined(r.index, r.fields, define, probs)
	}
	return out
}

// paramValues normalizes one foreach parameter: scalars become
// singletons, and string entries in key-macro form expand to every
// matching key name from the catalog.
func paramValues(idx int, name string, v any, probs *preset.Problems) []any {
	var out []any
	for _, entry := range asList(v) {
		s, isString := entry.(string)
		if !isString {
			out = append(out, entry)
			continue
		}
		matched, isMacro, err := key.ExpandMacro(s)
		if err != nil {
			probs.Addf("bind[%d].foreach.%s: %v", idx, name, err)
			continue
		}
		if !isMacro {
			out = append(out, entry)
			continue
		}
		for _, k := range matched {
			out = append(out, k)
		}
	}
	return out
}

// resolveDefined splices define-table entries referenced from a
// runCommands binding's command list. References must resolve to plain
// command tables; nesting another reference or runCommands inside a
// defined entry is reported and the entry dropped.
func resolveDefined(idx int, fields map[string]any, define map[string]any, probs *preset.Problems) {
	if fields["command"] != CommandRunCommands {
		return
	}
	args, ok := fields["args"].(map[string]any)
	if !ok {
		return
	}
	list, ok := args["commands"].([]any)
	if !ok {
		return
	}

	out := make([]any, 0, len(list))
	for j, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			out = append(out, entry)
			continue
		}
		ref, has := m["defined"]
		if !has {
			out = append(out, entry)
			continue
		}
		name, ok := ref.(string)
		if !ok {
			probs.Addf("bind[%d].args.commands[%d].defined: expected a string", idx, j)
			continue
		}
		val, ok := define[name]
		if !ok {
			probs.Addf("bind[%d]: defined command %q is not in the define table", idx, name)
			continue
		}
		for _, sv := range asList(val) {
			sm, ok := sv.(map[string]any)
			if !ok {
				if s, isString := sv.(string); isString {
					out = append(out, s)
					continue
				}
				probs.Addf("bind[%d]: defined command %q: entries must be command tables", idx, name)
				continue
			}
			if _, nested := sm["defined"]; nested || sm["command"] == CommandRunCommands {
				probs.Addf("bind[%d]: defined command %q: nested references are not permitted", idx, name)
				continue
			}
			out = append(out, preset.Clone(sm))
		}
	}
	args["commands"] = out
}

// asList normalizes a value to a slice: lists pass through, nil yields
// nil, and anything else becomes a singleton.
func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case nil:
		return nil
	default:
		return []any{v}
	}
}
