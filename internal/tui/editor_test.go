package tui

import (
	"testing"

	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

func TestParseEdit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, d wizard.Data)
	}{
		{
			name:  "block mapping",
			input: "protocol: fast",
			check: func(t *testing.T, d wizard.Data) {
				if d["protocol"] != "fast" {
					t.Errorf("protocol = %v", d["protocol"])
				}
			},
		},
		{
			name:  "flow mapping with nesting",
			input: "{properties: {bands: true}, maxElectronSteps: 100}",
			check: func(t *testing.T, d wizard.Data) {
				props, ok := d["properties"].(map[string]any)
				if !ok || props["bands"] != true {
					t.Errorf("properties = %v", d["properties"])
				}
				if d["maxElectronSteps"] != 100 {
					t.Errorf("maxElectronSteps = %v", d["maxElectronSteps"])
				}
			},
		},
		{name: "empty", input: "   ", wantErr: true},
		{name: "scalar", input: "fast", wantErr: true},
		{name: "sequence", input: "[a, b]", wantErr: true},
		{name: "empty mapping", input: "{}", wantErr: true},
		{name: "malformed", input: "{a: [1, 2}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseEdit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEdit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestEditSeed_RoundTrips(t *testing.T) {
	data := wizard.Data{
		"protocol":   "moderate",
		"properties": map[string]any{"bands": false, "pdos": true},
		"codes":      []any{"pw", "dos"},
	}
	seed := editSeed(data)
	if seed == "" {
		t.Fatal("editSeed returned an empty string")
	}
	for _, r := range seed {
		if r == '\n' {
			t.Fatalf("seed should be a single line, got %q", seed)
		}
	}

	back, err := ParseEdit(seed)
	if err != nil {
		t.Fatalf("ParseEdit(%q) error = %v", seed, err)
	}
	props, _ := back["properties"].(map[string]any)
	if back["protocol"] != "moderate" || props["pdos"] != true || len(back["codes"].([]any)) != 2 {
		t.Errorf("round trip lost data: %v", back)
	}
}

func TestEditSeed_Empty(t *testing.T) {
	if got := editSeed(nil); got != "" {
		t.Errorf("editSeed(nil) = %q, want empty", got)
	}
}
