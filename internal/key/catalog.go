// Package key provides the catalog of physical key identifiers that binding
// specifications may refer to, plus helpers for multi-key sequence tokens.
//
// Catalog names come in two forms: layout-dependent single characters
// ("a", "7", "[", "$") and layout-independent spellings of named keys
// ("escape", "f3", "pageup"). The catalog order is fixed so that pattern
// expansion is deterministic.
package key

import (
	"fmt"
	"regexp"
	"strings"
)

// names is the full key catalog in expansion order.
var names = buildNames()

func buildNames() []string {
	var out []string

	// Layout-dependent: letters, digits, then printable symbols in
	// keyboard row order, unshifted before shifted.
	for c := 'a'; c <= 'z'; c++ {
		out = append(out, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		out = append(out, string(c))
	}
	out = append(out,
		"`", "-", "=", "[", "]", "\\", ";", "'", ",", ".", "/",
		"~", "!", "@", "#", "$", "%", "^", "&", "*", "(", ")",
		"_", "+", "{", "}", "|", ":", "\"", "<", ">", "?",
	)

	// Layout-independent named keys.
	out = append(out,
		"space", "escape", "enter", "tab", "backspace", "delete",
		"insert", "home", "end", "pageup", "pagedown",
		"up", "down", "left", "right",
	)
	for i := 1; i <= 12; i++ {
		out = append(out, fmt.Sprintf("f%d", i))
	}

	return out
}

// Names returns the catalog in its fixed expansion order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Matching returns every catalog name whose full name matches pattern. The
// match is anchored and case-insensitive.
func Matching(pattern string) ([]string, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("key pattern %q: %w", pattern, err)
	}

	var out []string
	for _, name := range names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// macroRE recognizes the whole-value form "{{key: <pattern>}}".
var macroRE = regexp.MustCompile(`^\{\{\s*key:\s*(.*?)\s*\}\}$`)

// ExpandMacro expands a "{{key: <pattern>}}" value into the matching
// catalog names. The second result reports whether raw was a key macro at
// all; a non-macro value is returned untouched for verbatim use.
func ExpandMacro(raw string) ([]string, bool, error) {
	m := macroRE.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, false, nil
	}

	matched, err := Matching(m[1])
	if err != nil {
		return nil, true, err
	}
	return matched, true, nil
}

// Split breaks a key specification into its sequence tokens. A single-key
// binding yields one token; "g g" yields two.
func Split(spec string) []string {
	return strings.Fields(spec)
}

// Join renders sequence tokens back into the canonical space-joined form.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}
