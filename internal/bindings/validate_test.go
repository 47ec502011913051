package bindings

import (
	"testing"

	"github.com/dshills/keyforge/internal/preset"
)

func TestValidateBindingMinimal(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{index: 0, fields: map[string]any{
		"key":     "j",
		"command": "cursorDown",
	}}, probs)
	if !ok {
		t.Fatalf("binding rejected: %v", probs.List())
	}
	if probs.Len() != 0 {
		t.Errorf("problems = %v, want none", probs.List())
	}
	if len(it.keys) != 1 || it.keys[0] != "j" {
		t.Errorf("keys = %v, want [j]", it.keys)
	}
	if !it.finalKey {
		t.Error("finalKey should default to true")
	}
	if it.prefixesSet {
		t.Error("prefixesSet should be false when the field is absent")
	}
	if len(it.prefixes) != 1 || it.prefixes[0] != "" {
		t.Errorf("prefixes = %v, want [\"\"]", it.prefixes)
	}
}

func TestValidateBindingDropped(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		problem string
	}{
		{"missing key", map[string]any{"command": "x"}, "key: required"},
		{"blank key", map[string]any{"key": "   ", "command": "x"}, "key: required"},
		{"missing command", map[string]any{"key": "a"}, "command is required"},
		{
			"runCommands without commands",
			map[string]any{"key": "a", "command": CommandRunCommands},
			"requires a non-empty args.commands list",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := &preset.Problems{}
			_, ok := validateBinding(rawItem{fields: tt.fields}, probs)
			if ok {
				t.Fatal("binding accepted, want dropped")
			}
			if !hasProblem(probs, tt.problem) {
				t.Errorf("problems = %v, want one containing %q", probs.List(), tt.problem)
			}
		})
	}
}

func TestValidateBindingUnknownField(t *testing.T) {
	probs := &preset.Problems{}
	_, ok := validateBinding(rawItem{index: 5, fields: map[string]any{
		"key":     "a",
		"command": "x",
		"zzz":     1,
	}}, probs)
	if !ok {
		t.Fatal("binding rejected, want accepted with a problem")
	}
	if !hasProblem(probs, `unknown field "zzz"`) {
		t.Errorf("problems = %v, want unknown-field report", probs.List())
	}
}

func TestValidateBindingGuards(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{fields: map[string]any{
		"key":     "a",
		"command": "x",
		"when":    []any{"editorFocus", "  ", int64(3), "mode != 'insert'"},
	}}, probs)
	if !ok {
		t.Fatal("binding rejected")
	}
	if len(it.guards) != 2 {
		t.Fatalf("guards = %v, want 2 (blank and non-string skipped)", it.guards)
	}
	if it.guards[0].Source != "editorFocus" || it.guards[1].Source != "mode != 'insert'" {
		t.Errorf("guard sources = %v, want the two string clauses", it.guards)
	}
	if it.guards[0].ID == "" || it.guards[0].ID == it.guards[1].ID {
		t.Errorf("guard IDs = %q, %q; want distinct non-empty", it.guards[0].ID, it.guards[1].ID)
	}
	if !hasProblem(probs, "when[2]: expected a string") {
		t.Errorf("problems = %v, want non-string clause report", probs.List())
	}
}

func TestValidateBindingPrefixes(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		wantAll     bool
		wantList    []string
		wantProblem string
	}{
		{"sentinel string", AllPrefixesSentinel, true, nil, ""},
		{"sentinel list", []any{AllPrefixesSentinel}, true, nil, ""},
		{"single string", "g", false, []string{"g"}, ""},
		{"list", []any{"g", "g w"}, false, []string{"g", "g w"}, ""},
		{
			"mixed sentinel and concrete",
			[]any{AllPrefixesSentinel, "g"},
			false, []string{"g"},
			"cannot be mixed with concrete prefixes",
		},
		{"empty list", []any{}, false, []string{""}, ""},
		{"wrong type", int64(1), false, []string{""}, "expected a string or list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := &preset.Problems{}
			it, ok := validateBinding(rawItem{fields: map[string]any{
				"key":      "a",
				"command":  "x",
				"prefixes": tt.value,
			}}, probs)
			if !ok {
				t.Fatal("binding rejected")
			}
			if it.allPrefixes != tt.wantAll {
				t.Errorf("allPrefixes = %v, want %v", it.allPrefixes, tt.wantAll)
			}
			if len(it.prefixes) != len(tt.wantList) {
				t.Fatalf("prefixes = %v, want %v", it.prefixes, tt.wantList)
			}
			for i := range tt.wantList {
				if it.prefixes[i] != tt.wantList[i] {
					t.Errorf("prefixes[%d] = %q, want %q", i, it.prefixes[i], tt.wantList[i])
				}
			}
			if tt.wantProblem != "" && !hasProblem(probs, tt.wantProblem) {
				t.Errorf("problems = %v, want one containing %q", probs.List(), tt.wantProblem)
			}
		})
	}
}

func TestValidateBindingComputedRepeat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"expression", "count - 1", "count - 1"},
		{"integer", int64(3), "3"},
		{"int", 4, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := &preset.Problems{}
			it, ok := validateBinding(rawItem{fields: map[string]any{
				"key":            "a",
				"command":        "x",
				"computedRepeat": tt.value,
			}}, probs)
			if !ok {
				t.Fatal("binding rejected")
			}
			if it.computedRepeat != tt.want {
				t.Errorf("computedRepeat = %q, want %q", it.computedRepeat, tt.want)
			}
		})
	}
}

func TestValidateBindingRunCommands(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{fields: map[string]any{
		"key":     "s",
		"command": CommandRunCommands,
		"args": map[string]any{"commands": []any{
			"simple",
			map[string]any{"command": "withArgs", "args": map[string]any{"n": int64(1)}},
			map[string]any{"args": map[string]any{}},
			int64(9),
		}},
	}}, probs)
	if !ok {
		t.Fatalf("binding rejected: %v", probs.List())
	}
	if len(it.subCommands) != 2 {
		t.Fatalf("subCommands = %v, want 2 parsed entries", it.subCommands)
	}
	if it.subCommands[0].Command != "simple" || it.subCommands[1].Command != "withArgs" {
		t.Errorf("subCommands = %v, want simple then withArgs", it.subCommands)
	}
	if probs.Len() != 2 {
		t.Errorf("problems = %v, want 2 (nameless table, non-command entry)", probs.List())
	}
}

func TestValidateBindingComputedArgs(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{fields: map[string]any{
		"key":          "a",
		"command":      "x",
		"computedArgs": map[string]any{"count": "count + 1", "bad": int64(2)},
	}}, probs)
	if !ok {
		t.Fatal("binding rejected")
	}
	if len(it.computedArgs) != 1 || it.computedArgs["count"] != "count + 1" {
		t.Errorf("computedArgs = %v, want only count", it.computedArgs)
	}
	if !hasProblem(probs, "computedArgs.bad: expected a string expression") {
		t.Errorf("problems = %v, want bad-value report", probs.List())
	}
}

func TestValidateBindingComputedArgsOnRunCommands(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{fields: map[string]any{
		"key":          "s",
		"command":      CommandRunCommands,
		"args":         map[string]any{"commands": []any{"one"}},
		"computedArgs": map[string]any{"n": "1"},
	}}, probs)
	if !ok {
		t.Fatal("binding rejected")
	}
	if it.computedArgs != nil {
		t.Errorf("computedArgs = %v, want cleared", it.computedArgs)
	}
	if !hasProblem(probs, "computedArgs on a runCommands binding is ignored") {
		t.Errorf("problems = %v, want ignored report", probs.List())
	}
}

func TestValidateBindingDocFields(t *testing.T) {
	probs := &preset.Problems{}
	it, ok := validateBinding(rawItem{fields: map[string]any{
		"key":           "h",
		"command":       "left",
		"name":          "left",
		"description":   "move left",
		"kind":          "motion",
		"combinedKey":   "h/l",
		"combinedName":  "left/right",
		"hideInPalette": true,
	}}, probs)
	if !ok {
		t.Fatal("binding rejected")
	}
	want := Doc{
		Name: "left", Description: "move left", Kind: "motion",
		CombinedKey: "h/l", CombinedName: "left/right", HideInPalette: true,
	}
	if it.doc != want {
		t.Errorf("doc = %+v, want %+v", it.doc, want)
	}
}
