package compose

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

func text(s string) wizard.Content {
	return wizard.ContentFunc(func(wizard.RenderContext) string { return s })
}

func settingsPlugin(id, title string) *plugin.Descriptor {
	m := &plugin.Manifest{ID: id, Title: title, Setting: &plugin.Unit{}}
	return m.Descriptor()
}

func seedProperties(plugins []*plugin.Descriptor) map[string]wizard.Data {
	props := map[string]any{}
	for _, p := range plugins {
		props[p.ID] = false
	}
	return map[string]wizard.Data{"Basic Settings": {"properties": props}}
}

func testBlueprint() Blueprint {
	return Blueprint{Steps: []StepTemplate{
		{ID: "structure", Title: "Select Structure", Tabs: []wizard.Tab{{Title: "Upload", Content: text("upload")}}, Dependents: []int{1, 2}, ButtonLabel: "Confirm"},
		{
			ID:    "workflow",
			Title: "Configure Workflow",
			Tabs: []wizard.Tab{
				{Title: "Basic Settings", Content: text("basic")},
				{Title: "Advanced Settings", Content: text("advanced")},
			},
			Slot:        SlotSettings,
			TabSuffix:   "Settings",
			Dependents:  []int{2},
			ButtonLabel: "Confirm",
			Seed:        seedProperties,
		},
		{
			ID:         "status",
			Title:      "Status & Results",
			Tabs:       []wizard.Tab{{Title: "Job Status", Content: text("status")}},
			Slot:       SlotResults,
			TabSuffix:  "Results",
			Visibility: &wizard.Ref{Step: "workflow", Tab: "Basic Settings", Key: "properties"},
		},
	}}
}

func tabTitles(s wizard.Step) []string {
	var out []string
	for _, t := range s.Tabs {
		out = append(out, t.Title)
	}
	return out
}

func TestCompose_BandsSettings(t *testing.T) {
	steps, err := Compose(testBlueprint(), []*plugin.Descriptor{settingsPlugin("bands", "Bands")})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	wf := steps[1]
	if got, want := strings.Join(tabTitles(wf), "|"), "Basic Settings|Advanced Settings|Bands Settings"; got != want {
		t.Errorf("workflow tabs = %s, want %s", got, want)
	}
	if wf.Tabs[2].ID != "bands" {
		t.Errorf("plugin tab id = %q, want bands", wf.Tabs[2].ID)
	}
	props := wizard.Properties(wf.Data["Basic Settings"]["properties"])
	if len(props) != 1 || props["bands"] != false {
		t.Errorf("properties = %v, want {bands: false}", props)
	}

	// Settings-only plugin contributes nothing to the results slot.
	if got := tabTitles(steps[2]); len(got) != 1 {
		t.Errorf("status tabs = %v, want only Job Status", got)
	}
	if steps[2].Visibility == nil || steps[2].Visibility.Step != "workflow" {
		t.Errorf("status visibility = %+v", steps[2].Visibility)
	}
}

func TestCompose_TabsHaveData(t *testing.T) {
	steps, err := Compose(testBlueprint(), nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for _, s := range steps {
		for _, tab := range s.Tabs {
			if s.Data[tab.Title] == nil {
				t.Errorf("step %s tab %s has nil data", s.ID, tab.Title)
			}
		}
	}
}

func TestCompose_PluginOrderAndUnavailable(t *testing.T) {
	plugins := []*plugin.Descriptor{
		settingsPlugin("xps", "XPS"),
		plugin.UnavailableDescriptor("pdos", errors.New("offline")),
		settingsPlugin("bands", "Bands"),
	}
	steps, err := Compose(testBlueprint(), plugins)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	got := strings.Join(tabTitles(steps[1]), "|")
	want := "Basic Settings|Advanced Settings|XPS Settings|pdos Settings|Bands Settings"
	if got != want {
		t.Errorf("tabs = %s, want %s", got, want)
	}
}

func TestCompose_DuplicateTitleReplacedInPlace(t *testing.T) {
	first := settingsPlugin("bands", "Bands")
	second := settingsPlugin("bands2", "Bands")
	steps, err := Compose(testBlueprint(), []*plugin.Descriptor{first, settingsPlugin("xps", "XPS"), second})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	tabs := steps[1].Tabs
	if len(tabs) != 4 {
		t.Fatalf("len(tabs) = %d, want 4", len(tabs))
	}
	if tabs[2].Title != "Bands Settings" || tabs[2].ID != "bands2" {
		t.Errorf("tabs[2] = %s/%s, want the later plugin in the earlier position", tabs[2].ID, tabs[2].Title)
	}
}

func TestCompose_BuiltinTitleConflict(t *testing.T) {
	basic := &plugin.Manifest{ID: "basic", Title: "Basic", Setting: &plugin.Unit{Fields: []plugin.Field{{Key: "x", Default: 1}}}}
	plugins := []*plugin.Descriptor{basic.Descriptor(), settingsPlugin("bands", "Bands")}

	steps, err := Compose(testBlueprint(), plugins)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	wf := steps[1]
	if got, want := strings.Join(tabTitles(wf), "|"), "Basic Settings|Advanced Settings|basic Settings|Bands Settings"; got != want {
		t.Errorf("workflow tabs = %s, want %s", got, want)
	}
	if wf.Tabs[0].ID != "" {
		t.Errorf("built-in tab id = %q, want it untouched", wf.Tabs[0].ID)
	}
	props := wizard.Properties(wf.Data["Basic Settings"]["properties"])
	if _, ok := props["bands"]; !ok {
		t.Errorf("properties map lost from Basic Settings: %v", wf.Data["Basic Settings"])
	}
	if _, ok := wf.Data["Basic Settings"]["x"]; ok {
		t.Error("plugin defaults leaked into the built-in tab")
	}
	if plugins[0].Unavailable() {
		t.Error("Compose must not modify the caller's descriptors")
	}
}

func TestWithoutConflicts(t *testing.T) {
	plugins := []*plugin.Descriptor{settingsPlugin("advanced", "Advanced"), settingsPlugin("bands", "Bands")}
	got := withoutConflicts(testBlueprint(), plugins)

	if !got[0].Unavailable() {
		t.Fatal("conflicting plugin should be unavailable")
	}
	var compErr *errors.CompositionError
	if !errors.As(got[0].Err, &compErr) || !errors.Is(got[0].Err, errors.ErrTabConflict) {
		t.Fatalf("Err = %v, want a CompositionError wrapping ErrTabConflict", got[0].Err)
	}
	if compErr.PluginID != "advanced" || compErr.StepID != "workflow" {
		t.Errorf("error context = plugin %q step %q", compErr.PluginID, compErr.StepID)
	}
	if got[1] != plugins[1] {
		t.Error("non-conflicting plugins should pass through")
	}

	clean := []*plugin.Descriptor{settingsPlugin("bands", "Bands")}
	if out := withoutConflicts(testBlueprint(), clean); &out[0] != &clean[0] {
		t.Error("a conflict-free list should be returned as is")
	}
}

func TestCompose_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Blueprint)
		wantErr string
	}{
		{"missing id", func(bp *Blueprint) { bp.Steps[0].ID = "" }, "has no id"},
		{"duplicate id", func(bp *Blueprint) { bp.Steps[1].ID = "structure" }, "duplicate step id"},
		{"missing title", func(bp *Blueprint) { bp.Steps[1].Title = "" }, "no title"},
		{"dependent upstream", func(bp *Blueprint) { bp.Steps[1].Dependents = []int{0} }, "dependent 0"},
		{"dependent out of range", func(bp *Blueprint) { bp.Steps[0].Dependents = []int{7} }, "dependent 7"},
		{"unknown ref step", func(bp *Blueprint) { bp.Steps[2].Visibility = &wizard.Ref{Step: "nope", Tab: "x"} }, "unknown step"},
		{"unknown ref tab", func(bp *Blueprint) {
			bp.Steps[2].Visibility = &wizard.Ref{Step: "workflow", Tab: "Missing", Key: "properties"}
		}, "unknown tab"},
		{"downstream ref", func(bp *Blueprint) {
			bp.Steps[1].Visibility = &wizard.Ref{Step: "status", Tab: "Job Status"}
		}, "downstream step"},
		{"seed for unknown tab", func(bp *Blueprint) {
			bp.Steps[0].Seed = func([]*plugin.Descriptor) map[string]wizard.Data {
				return map[string]wizard.Data{"Nope": {}}
			}
		}, "unknown tab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := testBlueprint()
			tt.mutate(&bp)
			_, err := Compose(bp, nil)
			if err == nil {
				t.Fatalf("Compose() = nil, want error containing %q", tt.wantErr)
			}
			var ce *errors.CompositionError
			if !errors.As(err, &ce) {
				t.Errorf("error %T is not a CompositionError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestComposer_Recompose(t *testing.T) {
	c := NewComposer(testBlueprint())
	bands := []*plugin.Descriptor{settingsPlugin("bands", "Bands")}

	_, changed, err := c.Recompose(bands)
	if err != nil || !changed {
		t.Fatalf("first Recompose() changed=%v err=%v, want rebuild", changed, err)
	}
	fp := c.Fingerprint()

	_, changed, _ = c.Recompose([]*plugin.Descriptor{settingsPlugin("bands", "Bands")})
	if changed {
		t.Error("same plugin list should not rebuild")
	}

	steps, changed, _ := c.Recompose(append(bands, settingsPlugin("xps", "XPS")))
	if !changed {
		t.Error("new plugin should rebuild")
	}
	if c.Fingerprint() == fp {
		t.Error("fingerprint should change")
	}
	if len(steps[1].Tabs) != 4 {
		t.Errorf("len(tabs) = %d, want 4", len(steps[1].Tabs))
	}
}

func TestSlotString(t *testing.T) {
	tests := map[Slot]string{SlotNone: "none", SlotSettings: "settings", SlotResources: "resources", SlotResults: "results"}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Slot(%d).String() = %q, want %q", s, got, want)
		}
	}
}
