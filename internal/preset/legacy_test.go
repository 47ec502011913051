package preset

import (
	"reflect"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "2.0", want: Version{Major: 2}},
		{in: "1.2.3", want: Version{Major: 1, Minor: 2, Patch: 3}},
		{in: "2", want: Version{Major: 2}},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{1, 0, 0}, Version{2, 0, 0}, -1},
		{Version{2, 1, 0}, Version{2, 0, 9}, 1},
		{Version{2, 0, 1}, Version{2, 0, 1}, 0},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want bool
	}{
		{
			name: "v1 document",
			doc:  map[string]any{"header": map[string]any{"version": "1.2"}},
			want: true,
		},
		{
			name: "v2 document",
			doc:  map[string]any{"header": map[string]any{"version": "2.0"}},
			want: false,
		},
		{
			name: "no header",
			doc:  map[string]any{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsUpgrade(tt.doc); got != tt.want {
				t.Errorf("NeedsUpgrade = %v, want %v", got, tt.want)
			}
		})
	}
}

func legacyDoc() map[string]any {
	return map[string]any{
		"header": map[string]any{"version": "1.0"},
		"bind": []any{
			map[string]any{
				"key":            "m",
				"command":        "storeNamed",
				"path":           "actions",
				"resetTransient": false,
				"repeat":         "count",
				"if":             "count > 0",
				"args":           map[string]any{"name": "{register}"},
			},
			map[string]any{
				"key":     "q",
				"command": "pushHistoryToStack",
				"args":    map[string]any{"from": "commandHistory.length", "to": "position"},
			},
			map[string]any{
				"key":     "r",
				"command": "replayFromHistory",
				"foreach": map[string]any{"n": []any{"{key: [0-9]}"}},
				"args":    map[string]any{"at": 1},
			},
			map[string]any{
				"key":     "s",
				"command": "runCommands",
				"args": map[string]any{
					"commands": []any{
						map[string]any{"command": "restoreNamed", "args": map[string]any{"name": "x"}},
					},
				},
			},
		},
	}
}

func TestUpgrade(t *testing.T) {
	got, upgraded := Upgrade(legacyDoc())
	if !upgraded {
		t.Fatal("Upgrade did not recognize a 1.x document")
	}

	header := got["header"].(map[string]any)
	if header["version"] != CurrentVersion {
		t.Errorf("header.version = %v, want %s", header["version"], CurrentVersion)
	}

	binds := got["bind"].([]any)

	first := binds[0].(map[string]any)
	if first["defaults"] != "actions" {
		t.Errorf("path was not renamed to defaults: %v", first)
	}
	if first["finalKey"] != false {
		t.Errorf("resetTransient was not renamed to finalKey: %v", first)
	}
	if first["computedRepeat"] != "count" {
		t.Errorf("repeat was not renamed to computedRepeat: %v", first)
	}
	if first["whenComputed"] != "count > 0" {
		t.Errorf("if was not renamed to whenComputed: %v", first)
	}
	for _, gone := range []string{"path", "resetTransient", "repeat", "if"} {
		if _, present := first[gone]; present {
			t.Errorf("legacy field %q survived the upgrade", gone)
		}
	}
	firstArgs := first["args"].(map[string]any)
	if firstArgs["register"] != "{{register}}" {
		t.Errorf("storeNamed args = %v, want register={{register}}", firstArgs)
	}

	second := binds[1].(map[string]any)
	secondArgs := second["args"].(map[string]any)
	wantRange := map[string]any{"from": "commandHistory.length", "to": "position"}
	if !reflect.DeepEqual(secondArgs["range"], wantRange) {
		t.Errorf("pushHistoryToStack args = %v, want range=%v", secondArgs, wantRange)
	}
	if _, present := secondArgs["from"]; present {
		t.Error("pushHistoryToStack kept its flat from argument")
	}

	third := binds[2].(map[string]any)
	thirdArgs := third["args"].(map[string]any)
	if thirdArgs["index"] != int(1) && thirdArgs["index"] != int64(1) {
		t.Errorf("replayFromHistory args = %v, want index=1", thirdArgs)
	}
	foreachN := third["foreach"].(map[string]any)["n"].([]any)
	if foreachN[0] != "{{key: [0-9]}}" {
		t.Errorf("foreach pattern = %v, want {{key: [0-9]}}", foreachN[0])
	}

	fourth := binds[3].(map[string]any)
	nested := fourth["args"].(map[string]any)["commands"].([]any)[0].(map[string]any)
	nestedArgs := nested["args"].(map[string]any)
	if nestedArgs["register"] != "x" {
		t.Errorf("nested restoreNamed args = %v, want register=x", nestedArgs)
	}
}

func TestUpgradeDoesNotMutateInput(t *testing.T) {
	doc := legacyDoc()
	_, _ = Upgrade(doc)

	first := doc["bind"].([]any)[0].(map[string]any)
	if _, present := first["path"]; !present {
		t.Error("Upgrade mutated its input document")
	}
	if doc["header"].(map[string]any)["version"] != "1.0" {
		t.Error("Upgrade mutated the input header")
	}
}

func TestUpgradePassthrough(t *testing.T) {
	doc := map[string]any{"header": map[string]any{"version": "2.0"}}
	got, upgraded := Upgrade(doc)
	if upgraded {
		t.Fatal("Upgrade rewrote a current document")
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("passthrough changed the document: %v", got)
	}
}

func TestDoubleBraces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "{x}", want: "{{x}}"},
		{in: "{{x}}", want: "{{x}}"},
		{in: "a{b}c{d}", want: "a{{b}}c{{d}}"},
		{in: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := doubleBraces(tt.in); got != tt.want {
				t.Errorf("doubleBraces(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern []string
		path    []any
		want    bool
	}{
		{name: "exact", pattern: []string{"header", "version"}, path: []any{"header", "version"}, want: true},
		{name: "wildcard index", pattern: []string{"bind", "*"}, path: []any{"bind", 3}, want: true},
		{name: "too short", pattern: []string{"bind", "*"}, path: []any{"bind"}, want: false},
		{name: "too long", pattern: []string{"bind", "*"}, path: []any{"bind", 0, "key"}, want: false},
		{name: "rest matches deep", pattern: []string{"bind", "*", "args", "**"}, path: []any{"bind", 0, "args", "a", "b"}, want: true},
		{name: "rest needs depth", pattern: []string{"bind", "*", "args", "**"}, path: []any{"bind", 0, "args"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchPath(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPath(%v, %v) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
