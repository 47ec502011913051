package bindings

import (
	"fmt"
	"maps"
	"strings"

	"github.com/dshills/keyforge/internal/preset"
)

// assemble converts the surviving items into the output table, rendering
// each item's final when clause.
func assemble(items []item, codes *prefixTable) *Table {
	t := &Table{
		Bindings:    make([]Binding, 0, len(items)),
		PrefixCodes: codes.list(),
	}
	for i := range items {
		it := &items[i]
		b := Binding{
			Key:            strings.Join(it.keys, " "),
			Mode:           it.mode,
			Implicit:       it.implicit,
			When:           buildWhen(it),
			Guards:         it.guards,
			Commands:       commandsOf(it),
			FinalKey:       it.finalKey,
			ComputedRepeat: it.computedRepeat,
			WhenComputed:   it.whenComputed,
			Priority:       it.priority,
			Index:          it.index,
			Doc:            it.doc,
		}
		if it.allPrefixes {
			b.AllPrefixes = true
		} else {
			b.Prefix = it.prefixes[0]
			b.PrefixCode = it.prefixCode
		}
		t.Bindings = append(t.Bindings, b)
	}
	return t
}

// buildWhen renders an item's complete activation condition: each guard
// parenthesized, a mode-equality clause when modes are in play, and a
// prefix-code clause unless the binding accepts all prefixes, joined
// with &&.
func buildWhen(it *item) string {
	var parts []string
	for _, g := range it.guards {
		parts = append(parts, "("+g.Source+")")
	}
	if it.modeResolved {
		parts = append(parts, fmt.Sprintf("mode == '%s'", it.mode))
	}
	if !it.allPrefixes {
		parts = append(parts, fmt.Sprintf("prefixCode == %d", it.prefixCode))
	}
	return strings.Join(parts, " && ")
}

// commandsOf renders an item's command list: the parsed entries for
// runCommands, otherwise the single command with its args.
func commandsOf(it *item) []preset.Command {
	if it.subCommands != nil {
		return cloneCommands(it.subCommands)
	}
	cmd := preset.Command{Command: it.command}
	if len(it.args) > 0 {
		cmd.Args = preset.Clone(it.args)
	}
	if len(it.computedArgs) > 0 {
		cmd.ComputedArgs = maps.Clone(it.computedArgs)
	}
	return []preset.Command{cmd}
}
