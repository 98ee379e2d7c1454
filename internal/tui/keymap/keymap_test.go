package keymap

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGetBinding(t *testing.T) {
	km := Default()
	tests := []struct {
		name string
		msg  tea.KeyMsg
		mode Mode
		want Command
		ok   bool
	}{
		{"j moves down", runes("j"), ModeNormal, CmdNextStep, true},
		{"arrow moves down", tea.KeyMsg{Type: tea.KeyDown}, ModeNormal, CmdNextStep, true},
		{"tab cycles tabs", tea.KeyMsg{Type: tea.KeyTab}, ModeNormal, CmdNextTab, true},
		{"c confirms", runes("c"), ModeNormal, CmdConfirm, true},
		{"enter applies edit", tea.KeyMsg{Type: tea.KeyEnter}, ModeEdit, CmdApply, true},
		{"q is text while editing", runes("q"), ModeEdit, "", false},
		{"esc closes preview", tea.KeyMsg{Type: tea.KeyEsc}, ModePreview, CmdCancel, true},
		{"alt is ignored", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j"), Alt: true}, ModeNormal, "", false},
		{"unknown mode", runes("j"), Mode("other"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := km.GetBinding(tt.msg, tt.mode)
			if got != tt.want || ok != tt.ok {
				t.Errorf("GetBinding() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestHelp_FirstBindingPerCommand(t *testing.T) {
	help := Default().Help(ModeNormal)
	seen := make(map[Command]bool)
	for _, b := range help {
		if seen[b.Command] {
			t.Errorf("command %q listed twice", b.Command)
		}
		seen[b.Command] = true
	}
	if help[0].String() != "j" {
		t.Errorf("first help entry = %q, want j", help[0].String())
	}
}

func TestKeyBinding_String(t *testing.T) {
	if got := (KeyBinding{KeyType: tea.KeyRunes, Rune: ' '}).String(); got != "space" {
		t.Errorf("String() = %q, want space", got)
	}
	if got := (KeyBinding{KeyType: tea.KeyEnter}).String(); got != "enter" {
		t.Errorf("String() = %q, want enter", got)
	}
}
