package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/calcwizard/internal/calc"
	"github.com/Iron-Ham/calcwizard/internal/jobs"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
	"github.com/Iron-Ham/calcwizard/internal/session"
	"github.com/Iron-Ham/calcwizard/internal/testutil"
	"github.com/Iron-Ham/calcwizard/internal/tui/keymap"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

func newTestModel(t *testing.T) (Model, *session.Session, *testutil.JobService) {
	t.Helper()
	svc := testutil.NewJobService(t)
	client, err := jobs.NewClient(svc.URL())
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(plugin.NewStaticSource(testutil.BandsManifest().Descriptor()), client,
		session.WithMonitorInterval(time.Hour))
	t.Cleanup(sess.Close)
	if err := sess.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := NewModel(context.Background(), sess, Options{ShowHelp: true})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), sess, svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends keys and runs any returned command once, feeding its message
// back into the model.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(Model)
		if cmd == nil {
			continue
		}
		if msg := cmd(); msg != nil {
			if _, isQuit := msg.(tea.QuitMsg); isQuit {
				continue
			}
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestModel_InitialView(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()
	for _, want := range []string{"calcwizard", "1. Select Structure", "Structure Selection", "No structure selected.", "5. Status & Results"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_EditAndConfirm(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = press(t, m, "e")
	if m.mode != keymap.ModeEdit {
		t.Fatalf("mode = %s, want edit", m.mode)
	}
	m.input.SetValue("")
	m = typeText(m, "selectedStructure: {symbols: [Si, Si]}")
	m = press(t, m, "enter")
	if m.mode != keymap.ModeNormal {
		t.Fatalf("mode = %s after apply, want normal (error %q)", m.mode, m.errorMessage)
	}
	if !strings.Contains(m.View(), "Selected structure: Si2") {
		t.Errorf("structure not rendered:\n%s", m.View())
	}

	m = press(t, m, "c")
	if m.cursor != calc.IndexWorkflow || sess.Machine().ActiveStep() != calc.IndexWorkflow {
		t.Errorf("cursor = %d, active = %d, want %d", m.cursor, sess.Machine().ActiveStep(), calc.IndexWorkflow)
	}
	if !strings.Contains(m.View(), "(confirmed)") {
		t.Error("confirmed step should be marked")
	}
}

func TestModel_InvalidEditKeepsEditor(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "e")
	m.input.SetValue("")
	m = typeText(m, "just text")
	m = press(t, m, "enter")
	if m.mode != keymap.ModeEdit {
		t.Errorf("mode = %s, want edit", m.mode)
	}
	if m.errorMessage == "" {
		t.Error("expected an error message")
	}
	m = press(t, m, "esc")
	if m.mode != keymap.ModeNormal {
		t.Errorf("mode = %s after cancel, want normal", m.mode)
	}
}

func TestModel_LockedStep(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "j", "j")
	if !strings.Contains(m.View(), "Confirm the previous steps") {
		t.Errorf("locked step should say so:\n%s", m.View())
	}
	m = press(t, m, "e")
	if m.mode != keymap.ModeNormal || m.errorMessage == "" {
		t.Error("editing a locked step should be refused")
	}
}

func TestModel_PropertyTogglesTabs(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_ = sess.SetTabData(calc.IndexStructure, calc.TabStructure, wizard.Data{calc.KeyStructure: map[string]any{"symbols": []any{"Si"}}})
	m = press(t, m, "c")

	if strings.Contains(m.View(), "Bands Settings") {
		t.Error("bands tab should be hidden while its property is off")
	}
	m = press(t, m, "e")
	m.input.SetValue("")
	m = typeText(m, "properties: {bands: true}")
	m = press(t, m, "enter")
	if !strings.Contains(m.View(), "Bands Settings") {
		t.Errorf("bands tab should appear:\n%s", m.View())
	}

	visible := sess.Machine().VisibleTabs(calc.IndexWorkflow)
	if len(visible) != 3 {
		t.Fatalf("visible tabs = %d, want 3", len(visible))
	}
	m = press(t, m, "tab", "tab")
	if got := m.selectedTab(calc.IndexWorkflow); got != visible[2].Title {
		t.Errorf("selected tab = %q, want %q", got, visible[2].Title)
	}
	m = press(t, m, "tab")
	if got := m.selectedTab(calc.IndexWorkflow); got != visible[0].Title {
		t.Errorf("tab cycling should wrap, got %q", got)
	}
}

func TestModel_SubmitFlow(t *testing.T) {
	m, sess, svc := newTestModel(t)
	_ = sess.SetTabData(calc.IndexStructure, calc.TabStructure, wizard.Data{calc.KeyStructure: map[string]any{"symbols": []any{"Si"}}})
	m = press(t, m, "c", "c", "c")
	if m.cursor != calc.IndexReview {
		t.Fatalf("cursor = %d, want review", m.cursor)
	}
	if !strings.Contains(m.View(), "press c to submit") {
		t.Errorf("review should offer submit:\n%s", m.View())
	}

	m = press(t, m, "c")
	if m.errorMessage != "" {
		t.Fatalf("submit error: %s", m.errorMessage)
	}
	if len(svc.Submitted()) != 1 {
		t.Fatalf("service received %d payloads, want 1", len(svc.Submitted()))
	}
	if !strings.Contains(m.status, "Submitted job 101") {
		t.Errorf("status = %q", m.status)
	}
	if m.cursor != calc.IndexStatus {
		t.Errorf("cursor = %d, want status step", m.cursor)
	}
	if !strings.Contains(m.View(), "job 101") {
		t.Error("header should show the job id")
	}
}

func TestModel_SubmitRejected(t *testing.T) {
	m, sess, svc := newTestModel(t)
	svc.RejectSubmissions(500, "")
	_ = sess.SetTabData(calc.IndexStructure, calc.TabStructure, wizard.Data{calc.KeyStructure: map[string]any{"symbols": []any{"Si"}}})
	m = press(t, m, "c", "c", "c", "c")
	if !strings.HasPrefix(m.errorMessage, "Error submitting data: Server responded with 500") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestModel_PreviewAndModify(t *testing.T) {
	m, sess, _ := newTestModel(t)
	_ = sess.SetTabData(calc.IndexStructure, calc.TabStructure, wizard.Data{calc.KeyStructure: map[string]any{"symbols": []any{"Si"}}})
	m = press(t, m, "c")

	m = press(t, m, "p")
	if m.mode != keymap.ModePreview || !strings.Contains(m.View(), "workflow_settings:") {
		t.Errorf("preview should show the renamed payload:\n%s", m.View())
	}
	m = press(t, m, "esc", "k", "m")
	if sess.Machine().ActiveStep() != calc.IndexStructure {
		t.Errorf("ActiveStep() = %d after modify, want 0", sess.Machine().ActiveStep())
	}
}

func TestModel_ResetMessage(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "j")
	next, _ := m.Update(resetMsg{})
	m = next.(Model)
	if m.cursor != 0 || !strings.Contains(m.status, "Plugins changed") {
		t.Errorf("cursor = %d, status = %q", m.cursor, m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should return tea.Quit")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
