package preset

import "fmt"

// CurrentVersion is the schema version this compiler targets.
const CurrentVersion = "2.0"

// Spec is a fully parsed preset document ready for compilation. Binding
// entries stay in raw map form because several compiler stages (defaults,
// foreach) operate structurally before per-item validation.
type Spec struct {
	Header   Header
	Binds    []map[string]any
	Modes    []Mode
	Kinds    []Kind
	Defaults []DefaultEntry
	Define   map[string]any
}

// Header identifies a preset document.
type Header struct {
	// Version is the schema version string, e.g. "2.0".
	Version string

	// Name is the display name of the preset.
	Name string

	// Description documents the preset for pickers and docs.
	Description string

	// RequiredExtensions lists host extension ids this preset depends on.
	RequiredExtensions []string
}

// Mode is one named input mode (vim-like).
type Mode struct {
	// Name uniquely identifies the mode.
	Name string

	// Default marks the mode entered when no other is active. Exactly one
	// mode carries this flag.
	Default bool

	// Highlight is how prominently the active mode is surfaced in the UI.
	Highlight Highlight

	// RecordEdits indicates the mode captures raw typed text instead of
	// dispatching bindings.
	RecordEdits bool

	// Cursor is the cursor shape shown while the mode is active.
	Cursor CursorStyle

	// OnType runs for key presses no binding recognizes.
	OnType []Command

	// FallbackBindings names another mode whose bindings implicitly apply
	// in this mode when it defines none of its own for a key.
	FallbackBindings string
}

// Kind is a documentation-only binding category.
type Kind struct {
	Name        string
	Description string
}

// DefaultEntry is a hierarchically-inheritable partial binding addressed by
// a dot-path id.
type DefaultEntry struct {
	// ID is the dot-delimited path; each parent path must be declared
	// earlier in the document.
	ID string

	// Default holds the partial binding fields merged into referers.
	Default map[string]any

	// AppendWhen is a guard expression AND-chained onto every binding that
	// references this entry or a descendant.
	AppendWhen string
}

// Command is one invocation in an ordered command sequence.
type Command struct {
	// Command is the command name.
	Command string `json:"command"`

	// Args are fixed arguments passed as-is.
	Args map[string]any `json:"args,omitempty"`

	// ComputedArgs are expression-valued arguments evaluated at keypress
	// time against the dispatcher's state snapshot.
	ComputedArgs map[string]string `json:"computedArgs,omitempty"`
}

// ParseCommand converts a command-shaped map into a Command. The map needs
// a non-empty "command" string; args and computedArgs are optional.
func ParseCommand(data map[string]any) (Command, error) {
	var cmd Command

	name, ok := data["command"].(string)
	if !ok || name == "" {
		return cmd, fmt.Errorf("command entry requires a non-empty \"command\" string")
	}
	cmd.Command = name

	if args, ok := data["args"].(map[string]any); ok {
		cmd.Args = Clone(args)
	} else if _, present := data["args"]; present {
		return cmd, fmt.Errorf("command %q: args must be a table", name)
	}

	if raw, present := data["computedArgs"]; present {
		m, ok := raw.(map[string]any)
		if !ok {
			return cmd, fmt.Errorf("command %q: computedArgs must be a table", name)
		}
		cmd.ComputedArgs = make(map[string]string, len(m))
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return cmd, fmt.Errorf("command %q: computedArgs.%s must be an expression string", name, k)
			}
			cmd.ComputedArgs[k] = s
		}
	}

	return cmd, nil
}

// Highlight is how prominently a mode is surfaced in the UI.
type Highlight uint8

const (
	// HighlightNone shows the mode without emphasis.
	HighlightNone Highlight = iota
	// HighlightWarn shows the mode with a warning accent.
	HighlightWarn
	// HighlightAlert shows the mode with an alert accent.
	HighlightAlert
)

// String returns a human-readable name for the highlight level.
func (h Highlight) String() string {
	switch h {
	case HighlightNone:
		return "none"
	case HighlightWarn:
		return "warn"
	case HighlightAlert:
		return "alert"
	default:
		return "unknown"
	}
}

func highlightFromName(name string) (Highlight, bool) {
	switch name {
	case "none", "":
		return HighlightNone, true
	case "warn":
		return HighlightWarn, true
	case "alert":
		return HighlightAlert, true
	default:
		return HighlightNone, false
	}
}

// CursorStyle defines the visual appearance of the cursor.
type CursorStyle uint8

const (
	// CursorBlock is a full block cursor.
	CursorBlock CursorStyle = iota
	// CursorBar is a thin vertical bar cursor.
	CursorBar
	// CursorUnderline is an underline cursor.
	CursorUnderline
	// CursorHidden hides the cursor.
	CursorHidden
)

// String returns a human-readable name for the cursor style.
func (c CursorStyle) String() string {
	switch c {
	case CursorBlock:
		return "block"
	case CursorBar:
		return "bar"
	case CursorUnderline:
		return "underline"
	case CursorHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

func cursorStyleFromName(name string) (CursorStyle, bool) {
	switch name {
	case "block", "":
		return CursorBlock, true
	case "bar":
		return CursorBar, true
	case "underline":
		return CursorUnderline, true
	case "hidden":
		return CursorHidden, true
	default:
		return CursorBlock, false
	}
}

// DefaultMode returns the mode marked default, or "" when the preset
// declares no modes.
func (s *Spec) DefaultMode() string {
	for _, m := range s.Modes {
		if m.Default {
			return m.Name
		}
	}
	return ""
}

// ModeNames returns the declared mode names in declaration order.
func (s *Spec) ModeNames() []string {
	out := make([]string, len(s.Modes))
	for i, m := range s.Modes {
		out[i] = m.Name
	}
	return out
}
