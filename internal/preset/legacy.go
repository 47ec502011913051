package preset

import (
	"fmt"
	"regexp"
)

// Version is a parsed schema version number.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion extracts a version from strings like "2.0.1", "2.0", or "2".
func ParseVersion(s string) (Version, error) {
	var v Version

	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err == nil {
		return v, nil
	}
	if _, err := fmt.Sscanf(s, "%d.%d", &v.Major, &v.Minor); err == nil {
		return v, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &v.Major); err == nil {
		return v, nil
	}

	return v, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	return sign(v.Patch - other.Patch)
}

// String returns the version in major.minor.patch form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// NeedsUpgrade reports whether a decoded document carries a 1.x header.
func NeedsUpgrade(doc map[string]any) bool {
	header, ok := doc["header"].(map[string]any)
	if !ok {
		return false
	}
	version, ok := header["version"].(string)
	if !ok {
		return false
	}
	v, err := ParseVersion(version)
	return err == nil && v.Major == 1
}

// Upgrade rewrites a 1.x document into the current schema and reports
// whether a rewrite happened. Non-legacy documents pass through untouched.
// The input is never mutated.
func Upgrade(doc map[string]any) (map[string]any, bool) {
	if !NeedsUpgrade(doc) {
		return doc, false
	}

	// normalizeMap rebuilds every container, so the rewrite below cannot
	// alias the caller's tree.
	out := normalizeMap(doc)
	result := rewrite(nil, out, upgradeRules)
	return result.(map[string]any), true
}

// rewriteRule is one declarative migration step: a path pattern, an
// optional value predicate, and the transform for matching nodes.
type rewriteRule struct {
	// pattern matches the node's path. "*" matches any single segment;
	// a trailing "**" matches any non-empty remainder.
	pattern []string

	// when further restricts the rule to nodes satisfying the predicate.
	when func(v any) bool

	// apply returns the replacement node.
	apply func(v any) any
}

// upgradeRules is the ordered 1.x → 2.0 migration table. Every rule whose
// pattern (and predicate) matches a node is applied in order, then the
// node's children are walked.
var upgradeRules = []rewriteRule{
	{
		pattern: []string{"header", "version"},
		apply:   func(any) any { return CurrentVersion },
	},
	{
		pattern: []string{"bind", "*"},
		apply: renameKeys(map[string]string{
			"path":           "defaults",
			"resetTransient": "finalKey",
			"repeat":         "computedRepeat",
			"if":             "whenComputed",
		}),
	},
	{
		pattern: []string{"bind", "*"},
		when:    commandIs("storeNamed", "restoreNamed"),
		apply:   renameArgs(map[string]string{"name": "register"}),
	},
	{
		pattern: []string{"bind", "*"},
		when:    commandIs("replayFromHistory"),
		apply:   renameArgs(map[string]string{"at": "index"}),
	},
	{
		pattern: []string{"bind", "*"},
		when:    commandIs("pushHistoryToStack"),
		apply:   foldArgsRange,
	},
	{
		pattern: []string{"bind", "*", "args", "commands", "*"},
		when:    commandIs("storeNamed", "restoreNamed"),
		apply:   renameArgs(map[string]string{"name": "register"}),
	},
	{
		pattern: []string{"bind", "*", "args", "commands", "*"},
		when:    commandIs("replayFromHistory"),
		apply:   renameArgs(map[string]string{"at": "index"}),
	},
	{
		pattern: []string{"bind", "*", "args", "commands", "*"},
		when:    commandIs("pushHistoryToStack"),
		apply:   foldArgsRange,
	},
	{
		pattern: []string{"bind", "*", "foreach", "*", "*"},
		apply:   doubleBraces,
	},
	{
		pattern: []string{"bind", "*", "args", "**"},
		apply:   doubleBraces,
	},
}

// rewrite walks the document applying every matching rule at each node,
// then descends into the (possibly replaced) node's children.
func rewrite(path []any, v any, rules []rewriteRule) any {
	node := v
	for _, r := range rules {
		if !matchPath(r.pattern, path) {
			continue
		}
		if r.when != nil && !r.when(node) {
			continue
		}
		node = r.apply(node)
	}

	switch n := node.(type) {
	case map[string]any:
		for k, child := range n {
			childPath := append(append([]any{}, path...), k)
			n[k] = rewrite(childPath, child, rules)
		}
	case []any:
		for i, child := range n {
			childPath := append(append([]any{}, path...), i)
			n[i] = rewrite(childPath, child, rules)
		}
	}

	return node
}

// matchPath reports whether pattern matches the full node path.
func matchPath(pattern []string, path []any) bool {
	for i, seg := range pattern {
		if seg == "**" {
			return len(path) > i
		}
		if i >= len(path) {
			return false
		}
		if seg == "*" {
			continue
		}
		name, ok := path[i].(string)
		if !ok || name != seg {
			return false
		}
	}
	return len(path) == len(pattern)
}

func commandIs(names ...string) func(v any) bool {
	return func(v any) bool {
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		cmd, _ := m["command"].(string)
		for _, n := range names {
			if cmd == n {
				return true
			}
		}
		return false
	}
}

func renameKeys(renames map[string]string) func(v any) any {
	return func(v any) any {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		for from, to := range renames {
			if val, present := m[from]; present {
				if _, taken := m[to]; !taken {
					m[to] = val
				}
				delete(m, from)
			}
		}
		return m
	}
}

func renameArgs(renames map[string]string) func(v any) any {
	rename := renameKeys(renames)
	return func(v any) any {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		if args, ok := m["args"].(map[string]any); ok {
			m["args"] = rename(args)
		}
		return m
	}
}

// foldArgsRange rewrites pushHistoryToStack's flat from/to arguments into
// the v2 range table.
func foldArgsRange(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	args, ok := m["args"].(map[string]any)
	if !ok {
		return m
	}

	from, hasFrom := args["from"]
	to, hasTo := args["to"]
	if !hasFrom && !hasTo {
		return m
	}

	rng, ok := args["range"].(map[string]any)
	if !ok {
		rng = map[string]any{}
	}
	if hasFrom {
		rng["from"] = from
		delete(args, "from")
	}
	if hasTo {
		rng["to"] = to
		delete(args, "to")
	}
	args["range"] = rng
	return m
}

// singleBraceRE matches either a double-brace span (left alone) or a bare
// single-brace placeholder. Alternation order makes the double form win.
var singleBraceRE = regexp.MustCompile(`\{\{[^{}]*\}\}|\{[^{}]*\}`)

// doubleBraces rewrites 1.x single-brace placeholders like {x} to the
// current {{x}} template form. Strings inside nested structures are
// handled by the walk, so only direct string values are touched here.
func doubleBraces(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return singleBraceRE.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) >= 4 && m[1] == '{' {
			return m
		}
		return "{" + m + "}"
	})
}
