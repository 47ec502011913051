package bindings

import (
	"maps"
	"slices"

	"github.com/dshills/keyforge/internal/preset"
)

// Command names with compiler-level meaning.
const (
	// CommandPrefix advances the pending key prefix. Its args carry the
	// assigned prefix code and whether the step was compiler-generated.
	CommandPrefix = "prefix"

	// CommandIgnore swallows a key press without running anything.
	CommandIgnore = "ignore"

	// CommandRunCommands runs an ordered list of commands; entries may
	// reference the preset's define table.
	CommandRunCommands = "runCommands"
)

// Guard is one user-authored when clause plus its content-derived
// identifier. The identifier is used for fingerprinting, never execution.
type Guard struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// Doc carries the documentation-only fields of a binding.
type Doc struct {
	Name                string `json:"name,omitempty"`
	Description         string `json:"description,omitempty"`
	CombinedName        string `json:"combinedName,omitempty"`
	CombinedKey         string `json:"combinedKey,omitempty"`
	CombinedDescription string `json:"combinedDescription,omitempty"`
	Kind                string `json:"kind,omitempty"`
	HideInPalette       bool   `json:"hideInPalette,omitempty"`
	HideInDocs          bool   `json:"hideInDocs,omitempty"`
}

// Binding is one concrete, fully-resolved key binding.
type Binding struct {
	// Key is the single key token this binding fires on.
	Key string `json:"key"`

	// Mode is the resolved input mode; empty means the binding is global
	// (the preset declares no modes).
	Mode string `json:"mode,omitempty"`

	// Implicit marks a copy produced by a mode's fallbackBindings rather
	// than an explicit selector entry.
	Implicit bool `json:"implicit,omitempty"`

	// When is the assembled guard: the original guards AND a mode-equality
	// clause AND a prefix-code clause, as applicable.
	When string `json:"when,omitempty"`

	// Guards are the original guard expressions before assembly.
	Guards []Guard `json:"guards,omitempty"`

	// Commands is the ordered command sequence to execute.
	Commands []preset.Command `json:"commands"`

	// FinalKey is false for bindings that keep transient state (pending
	// prefix, count) alive, such as prefix-advance steps.
	FinalKey bool `json:"finalKey"`

	// ComputedRepeat is an expression for the repeat count, if any.
	ComputedRepeat string `json:"computedRepeat,omitempty"`

	// WhenComputed is an extra condition evaluated at keypress time.
	WhenComputed string `json:"whenComputed,omitempty"`

	Priority int `json:"priority,omitempty"`

	// Prefix is the literal pending-prefix this binding requires, with
	// PrefixCode its table code. AllPrefixes bindings fire under any
	// pending prefix instead.
	Prefix      string `json:"prefix,omitempty"`
	PrefixCode  int    `json:"prefixCode"`
	AllPrefixes bool   `json:"allPrefixes,omitempty"`

	// Index is the declaration index of the originating entry, used to
	// correlate compiled bindings back to source order for documentation.
	Index int `json:"index"`

	Doc Doc `json:"doc,omitempty"`
}

// Table is one compile's output: the flat binding list plus the dense
// prefix-code table (PrefixCodes[code] = literal prefix, code 0 = "").
// Tables are immutable value objects; a recompile produces a new Table.
type Table struct {
	Bindings    []Binding `json:"bindings"`
	PrefixCodes []string  `json:"prefixCodes"`
}

// modeSelector is a binding's raw mode field before expansion.
type modeSelector struct {
	set   bool
	names []string
}

func (s modeSelector) clone() modeSelector {
	return modeSelector{set: s.set, names: slices.Clone(s.names)}
}

// item is a binding in flight through the compiler stages. Stages clone
// items before mutating them, so expansions never alias each other.
type item struct {
	index int

	keys     []string
	guards   []Guard
	selector modeSelector

	// Filled by mode expansion.
	mode         string
	modeResolved bool
	implicit     bool

	priority int

	// Prefix constraint. prefixesSet records whether the author wrote the
	// field; after prefix compilation, constrained items have exactly one
	// entry and prefixCode holds its table code.
	prefixes    []string
	prefixesSet bool
	allPrefixes bool
	prefixCode  int

	finalKey       bool
	computedRepeat string
	whenComputed   string

	command      string
	args         map[string]any
	computedArgs map[string]string

	// subCommands holds the parsed entries of a runCommands binding.
	subCommands []preset.Command

	// automated marks compiler-generated prefix-advance steps.
	automated bool

	doc Doc
}

func (it item) clone() item {
	cp := it
	cp.keys = slices.Clone(it.keys)
	cp.guards = slices.Clone(it.guards)
	cp.selector = it.selector.clone()
	cp.prefixes = slices.Clone(it.prefixes)
	cp.args = preset.Clone(it.args)
	cp.computedArgs = maps.Clone(it.computedArgs)
	cp.subCommands = cloneCommands(it.subCommands)
	return cp
}

func (it *item) isIgnore() bool {
	return it.command == CommandIgnore
}

func cloneCommands(cmds []preset.Command) []preset.Command {
	if cmds == nil {
		return nil
	}
	out := make([]preset.Command, len(cmds))
	for i, c := range cmds {
		out[i] = preset.Command{
			Command:      c.Command,
			Args:         preset.Clone(c.Args),
			ComputedArgs: maps.Clone(c.ComputedArgs),
		}
	}
	return out
}
