package preset

import (
	"errors"
	"strings"
	"testing"
)

func validDoc() map[string]any {
	return map[string]any{
		"header": map[string]any{
			"version": "2.0",
			"name":    "Test bindings",
		},
		"mode": []any{
			map[string]any{"name": "normal", "default": true},
			map[string]any{"name": "insert", "cursorShape": "bar", "recordEdits": true},
		},
		"bind": []any{
			map[string]any{"key": "h", "command": "cursorMove"},
		},
	}
}

func TestParse(t *testing.T) {
	var probs Problems
	spec, err := Parse(validDoc(), &probs)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if spec.Header.Version != "2.0" {
		t.Errorf("Header.Version = %q, want 2.0", spec.Header.Version)
	}
	if spec.Header.Name != "Test bindings" {
		t.Errorf("Header.Name = %q, want Test bindings", spec.Header.Name)
	}
	if len(spec.Modes) != 2 {
		t.Fatalf("got %d modes, want 2", len(spec.Modes))
	}
	if !spec.Modes[0].Default || spec.Modes[1].Default {
		t.Error("default flag not on the first mode only")
	}
	if spec.Modes[1].Cursor != CursorBar {
		t.Errorf("insert cursor = %v, want bar", spec.Modes[1].Cursor)
	}
	if !spec.Modes[1].RecordEdits {
		t.Error("insert.RecordEdits = false, want true")
	}
	if got := spec.DefaultMode(); got != "normal" {
		t.Errorf("DefaultMode() = %q, want normal", got)
	}
	if len(spec.Binds) != 1 {
		t.Errorf("got %d binds, want 1", len(spec.Binds))
	}
	if probs.Len() != 0 {
		t.Errorf("unexpected problems: %v", probs.List())
	}
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]any
		wantErr error
	}{
		{
			name:    "missing header",
			doc:     map[string]any{"bind": []any{}},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "missing version",
			doc:     map[string]any{"header": map[string]any{"name": "x"}},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "unparseable version",
			doc:     map[string]any{"header": map[string]any{"version": "abc"}},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "unsupported major",
			doc:     map[string]any{"header": map[string]any{"version": "3.0"}},
			wantErr: ErrUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probs Problems
			if _, err := Parse(tt.doc, &probs); !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseModeProblems(t *testing.T) {
	tests := []struct {
		name     string
		modes    []any
		wantIn   string
		wantLen  int
		checkOut func(t *testing.T, modes []Mode)
	}{
		{
			name: "duplicate name",
			modes: []any{
				map[string]any{"name": "normal", "default": true},
				map[string]any{"name": "normal"},
			},
			wantIn:  "duplicate mode name",
			wantLen: 1,
		},
		{
			name: "no default mode",
			modes: []any{
				map[string]any{"name": "normal"},
				map[string]any{"name": "insert"},
			},
			wantIn:  "no mode is marked default",
			wantLen: 2,
			checkOut: func(t *testing.T, modes []Mode) {
				if !modes[0].Default {
					t.Error("first declared mode was not promoted to default")
				}
			},
		},
		{
			name: "two default modes",
			modes: []any{
				map[string]any{"name": "normal", "default": true},
				map[string]any{"name": "insert", "default": true},
			},
			wantIn:  "marked default",
			wantLen: 2,
			checkOut: func(t *testing.T, modes []Mode) {
				if !modes[0].Default || modes[1].Default {
					t.Error("default flag not reduced to the first mode")
				}
			},
		},
		{
			name: "unknown fallback target",
			modes: []any{
				map[string]any{"name": "normal", "default": true},
				map[string]any{"name": "visual", "fallbackBindings": "nosuch"},
			},
			wantIn:  "references unknown mode",
			wantLen: 2,
			checkOut: func(t *testing.T, modes []Mode) {
				if modes[1].FallbackBindings != "" {
					t.Error("unknown fallback target was not cleared")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{
				"header": map[string]any{"version": "2.0"},
				"mode":   tt.modes,
			}
			var probs Problems
			spec, err := Parse(doc, &probs)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if len(spec.Modes) != tt.wantLen {
				t.Fatalf("got %d modes, want %d", len(spec.Modes), tt.wantLen)
			}
			if !containsProblem(probs, tt.wantIn) {
				t.Errorf("problems %v missing %q", probs.List(), tt.wantIn)
			}
			if tt.checkOut != nil {
				tt.checkOut(t, spec.Modes)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	doc := map[string]any{
		"header": map[string]any{"version": "2.0"},
		"default": []any{
			map[string]any{"id": "motion", "default": map[string]any{"kind": "motion"}},
			map[string]any{"id": "motion.word", "appendWhen": "editorFocus"},
			map[string]any{"id": "bad id!"},
			map[string]any{"id": "motion"},
		},
	}

	var probs Problems
	spec, err := Parse(doc, &probs)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(spec.Defaults) != 2 {
		t.Fatalf("got %d defaults, want 2", len(spec.Defaults))
	}
	if spec.Defaults[1].AppendWhen != "editorFocus" {
		t.Errorf("AppendWhen = %q, want editorFocus", spec.Defaults[1].AppendWhen)
	}
	if !containsProblem(probs, "invalid id") {
		t.Errorf("problems %v missing invalid id", probs.List())
	}
	if !containsProblem(probs, "duplicate default id") {
		t.Errorf("problems %v missing duplicate id", probs.List())
	}
}

func TestParseUnknownSections(t *testing.T) {
	doc := validDoc()
	doc["bogus"] = map[string]any{}

	var probs Problems
	if _, err := Parse(doc, &probs); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !containsProblem(probs, `unknown top-level section "bogus"`) {
		t.Errorf("problems %v missing unknown section", probs.List())
	}
}

func TestParseNormalizesTableArrays(t *testing.T) {
	// Some decoders produce []map[string]any for arrays of tables.
	doc := map[string]any{
		"header": map[string]any{"version": "2.0"},
		"bind": []map[string]any{
			{"key": "h", "command": "cursorMove"},
		},
	}

	var probs Problems
	spec, err := Parse(doc, &probs)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(spec.Binds) != 1 {
		t.Fatalf("got %d binds, want 1", len(spec.Binds))
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(map[string]any{
		"command":      "cursorMove",
		"args":         map[string]any{"to": "left"},
		"computedArgs": map[string]any{"value": "count + 1"},
	})
	if err != nil {
		t.Fatalf("ParseCommand error: %v", err)
	}
	if cmd.Command != "cursorMove" {
		t.Errorf("Command = %q", cmd.Command)
	}
	if cmd.Args["to"] != "left" {
		t.Errorf("Args = %v", cmd.Args)
	}
	if cmd.ComputedArgs["value"] != "count + 1" {
		t.Errorf("ComputedArgs = %v", cmd.ComputedArgs)
	}

	if _, err := ParseCommand(map[string]any{"args": map[string]any{}}); err == nil {
		t.Error("ParseCommand accepted a nameless command")
	}
	if _, err := ParseCommand(map[string]any{"command": "x", "computedArgs": map[string]any{"v": 1}}); err == nil {
		t.Error("ParseCommand accepted a non-string computed argument")
	}
}

func containsProblem(probs Problems, substr string) bool {
	for _, p := range probs.List() {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}
