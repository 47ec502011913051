package bindings

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// fpSep separates fingerprint fields; it cannot occur in key tokens,
// mode names, or guard identifiers.
const fpSep = "\x1f"

// guardID derives a short stable identifier from a guard's source text.
func guardID(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

func newGuard(source string) Guard {
	return Guard{Source: source, ID: guardID(source)}
}

// fingerprint identifies the slot a binding occupies: key, mode, guard
// set, and prefix constraint. Two items with equal fingerprints would
// both fire on the same keypress, so they conflict. Implicit copies share
// the slot of an explicit binding with the same coordinates.
func (it *item) fingerprint() string {
	ids := make([]string, len(it.guards))
	for i, g := range it.guards {
		ids[i] = g.ID
	}
	sort.Strings(ids)

	prefix := strings.Join(it.prefixes, " ")
	if it.allPrefixes {
		prefix = "<all>"
	}

	parts := []string{
		strings.Join(it.keys, " "),
		it.mode,
		strings.Join(ids, ","),
		prefix,
	}
	return strings.Join(parts, fpSep)
}

// canonicalString renders every behavioral field of an item in a stable
// order, so structural identity can be tested with string equality.
func (it *item) canonicalString() string {
	var b strings.Builder
	b.WriteString(strings.Join(it.keys, " "))
	b.WriteString(fpSep)
	b.WriteString(it.mode)
	b.WriteString(fpSep)
	b.WriteString(strconv.FormatBool(it.implicit))
	b.WriteString(fpSep)
	for _, g := range it.guards {
		b.WriteString(g.ID)
		b.WriteByte(',')
	}
	b.WriteString(fpSep)
	fmt.Fprintf(&b, "%d%s%v%s%s", it.priority, fpSep, it.allPrefixes, fpSep, strings.Join(it.prefixes, " "))
	b.WriteString(fpSep)
	fmt.Fprintf(&b, "%v%s%s%s%s", it.finalKey, fpSep, it.computedRepeat, fpSep, it.whenComputed)
	b.WriteString(fpSep)
	b.WriteString(it.command)
	b.WriteString(fpSep)
	canonicalValue(&b, it.args)
	b.WriteString(fpSep)
	canonicalStringMap(&b, it.computedArgs)
	b.WriteString(fpSep)
	for _, c := range it.subCommands {
		b.WriteString(c.Command)
		b.WriteByte('(')
		canonicalValue(&b, c.Args)
		b.WriteByte(';')
		canonicalStringMap(&b, c.ComputedArgs)
		b.WriteByte(')')
	}
	b.WriteString(fpSep)
	fmt.Fprintf(&b, "%v", it.automated)
	return b.String()
}

// canonicalValue writes v with map keys sorted, so semantically equal
// trees render identically regardless of construction order.
func canonicalValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for _, k := range keys {
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			canonicalValue(b, val[k])
			b.WriteByte(',')
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for _, e := range val {
			canonicalValue(b, e)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case string:
		b.WriteString(strconv.Quote(val))
	case nil:
		b.WriteString("null")
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

func canonicalStringMap(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(m[k]))
		b.WriteByte(',')
	}
	b.WriteByte('}')
}
