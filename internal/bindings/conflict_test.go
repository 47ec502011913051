package bindings

import (
	"testing"

	"github.com/dshills/keyforge/internal/preset"
)

// slotItem builds a minimal item occupying the normal-mode slot for key k.
func slotItem(index int, k, command string) item {
	return item{
		index:        index,
		keys:         []string{k},
		command:      command,
		mode:         "normal",
		modeResolved: true,
		prefixes:     []string{""},
		finalKey:     true,
	}
}

func TestResolveConflictsIdenticalCollapse(t *testing.T) {
	probs := &preset.Problems{}
	a := slotItem(0, "x", "doit")
	b := slotItem(0, "x", "doit")
	out := resolveConflicts([]item{a, b}, probs)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want identical declarations collapsed", len(out))
	}
	if probs.Len() != 0 {
		t.Errorf("problems = %v, want silent collapse", probs.List())
	}
}

func TestResolveConflictsIgnoreLoses(t *testing.T) {
	tests := []struct {
		name  string
		first string
		want  string
	}{
		{"ignore first", CommandIgnore, "work"},
		{"ignore second", "work", "work"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := &preset.Problems{}
			second := "work"
			if tt.first == "work" {
				second = CommandIgnore
			}
			out := resolveConflicts([]item{
				slotItem(0, "x", tt.first),
				slotItem(1, "x", second),
			}, probs)
			if len(out) != 1 || out[0].command != tt.want {
				t.Fatalf("out = %+v, want only %q", out, tt.want)
			}
			if probs.Len() != 0 {
				t.Errorf("problems = %v, want silent resolution", probs.List())
			}
		})
	}
}

func TestResolveConflictsManualPrefixWins(t *testing.T) {
	auto := slotItem(1, "g", CommandPrefix)
	auto.automated = true
	auto.args = map[string]any{"code": 1, "automated": true}
	auto.finalKey = false
	manual := slotItem(0, "g", CommandPrefix)
	manual.args = map[string]any{"code": 1, "automated": false, "flash": true}
	manual.finalKey = false

	// Arrival order must not matter.
	for name, order := range map[string][]item{
		"automated first": {auto, manual},
		"manual first":    {manual, auto},
	} {
		t.Run(name, func(t *testing.T) {
			probs := &preset.Problems{}
			out := resolveConflicts(order, probs)
			if len(out) != 1 {
				t.Fatalf("len(out) = %d, want 1", len(out))
			}
			if out[0].automated {
				t.Error("automated step survived over the user-authored prefix command")
			}
			if out[0].args["flash"] != true {
				t.Error("survivor lost the user-authored args")
			}
		})
	}
}

func TestResolveConflictsExplicitBeatsImplicit(t *testing.T) {
	implicit := slotItem(0, "h", "left")
	implicit.implicit = true
	explicit := slotItem(1, "h", "fancyLeft")

	probs := &preset.Problems{}
	out := resolveConflicts([]item{implicit, explicit}, probs)
	if len(out) != 1 || out[0].command != "fancyLeft" {
		t.Fatalf("out = %+v, want the explicit binding", out)
	}
	if probs.Len() != 0 {
		t.Errorf("problems = %v, want silent resolution", probs.List())
	}
}

func TestResolveConflictsPriority(t *testing.T) {
	low := slotItem(0, "x", "cheap")
	high := slotItem(1, "x", "fancy")
	high.priority = 10

	probs := &preset.Problems{}
	out := resolveConflicts([]item{high, low}, probs)
	if len(out) != 1 || out[0].command != "fancy" {
		t.Fatalf("out = %+v, want the higher-priority binding regardless of order", out)
	}
}

func TestResolveConflictsGenuineDuplicate(t *testing.T) {
	probs := &preset.Problems{}
	first := slotItem(0, "x", "one")
	other := slotItem(1, "y", "unrelated")
	second := slotItem(2, "x", "two")

	out := resolveConflicts([]item{first, other, second}, probs)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	// Later declaration wins but keeps the earlier declaration's slot.
	if out[0].command != "two" {
		t.Errorf("out[0].command = %q, want two (later wins in place)", out[0].command)
	}
	if out[1].command != "unrelated" {
		t.Errorf("out[1].command = %q, want unrelated", out[1].command)
	}
	if probs.Len() != 1 || !hasProblem(probs, "duplicate binding") {
		t.Errorf("problems = %v, want one duplicate report", probs.List())
	}
	if !hasProblem(probs, `key "x"`) || !hasProblem(probs, `mode "normal"`) {
		t.Errorf("problems = %v, want key and mode named", probs.List())
	}
}

func TestResolveConflictsDistinctGuardsBothSurvive(t *testing.T) {
	probs := &preset.Problems{}
	a := slotItem(0, "x", "one")
	a.guards = []Guard{newGuard("editorFocus")}
	b := slotItem(1, "x", "two")
	b.guards = []Guard{newGuard("panelFocus")}

	out := resolveConflicts([]item{a, b}, probs)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want both guarded bindings kept", len(out))
	}
	if probs.Len() != 0 {
		t.Errorf("problems = %v, want none", probs.List())
	}
}

func TestResolveConflictsGuardOrderIrrelevant(t *testing.T) {
	probs := &preset.Problems{}
	a := slotItem(0, "x", "one")
	a.guards = []Guard{newGuard("p"), newGuard("q")}
	b := slotItem(1, "x", "two")
	b.guards = []Guard{newGuard("q"), newGuard("p")}

	out := resolveConflicts([]item{a, b}, probs)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want guard order ignored for slot identity", len(out))
	}
	if !hasProblem(probs, "duplicate binding") {
		t.Errorf("problems = %v, want duplicate report", probs.List())
	}
}
