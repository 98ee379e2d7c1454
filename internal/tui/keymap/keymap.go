// Package keymap provides key binding definitions and lookup for the TUI.
package keymap

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Mode represents the current input mode of the TUI.
// Different modes have different key bindings active.
type Mode string

const (
	ModeNormal  Mode = "normal"  // Navigating steps and tabs
	ModeEdit    Mode = "edit"    // Typing a YAML mapping into the editor
	ModePreview Mode = "preview" // Viewing the submission payload
)

// Command represents a named action that can be triggered by a key binding.
type Command string

// Normal mode commands
const (
	CmdNextStep   Command = "next_step"
	CmdPrevStep   Command = "prev_step"
	CmdNextTab    Command = "next_tab"
	CmdPrevTab    Command = "prev_tab"
	CmdEdit       Command = "edit"
	CmdConfirm    Command = "confirm"
	CmdModify     Command = "modify"
	CmdPreview    Command = "preview"
	CmdToggleHelp Command = "toggle_help"
	CmdQuit       Command = "quit"
)

// Edit and preview mode commands
const (
	CmdApply  Command = "apply"
	CmdCancel Command = "cancel"
)

// KeyBinding represents a single key binding configuration.
type KeyBinding struct {
	// KeyType is the key for this binding. For rune keys, use tea.KeyRunes
	// and set Rune.
	KeyType tea.KeyType

	// Rune is the character for rune-based keys (when KeyType is tea.KeyRunes).
	Rune rune

	// Command is the action to execute when this binding is triggered.
	Command Command

	// Description is a human-readable description for help display.
	Description string
}

// Matches checks if a tea.KeyMsg matches this binding.
func (kb KeyBinding) Matches(msg tea.KeyMsg) bool {
	if msg.Alt {
		return false
	}
	if kb.KeyType != tea.KeyRunes {
		return msg.Type == kb.KeyType
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return false
	}
	return msg.Runes[0] == kb.Rune
}

// String returns a human-readable representation of the key binding.
func (kb KeyBinding) String() string {
	if kb.KeyType != tea.KeyRunes {
		return kb.KeyType.String()
	}
	if kb.Rune == ' ' {
		return "space"
	}
	return string(kb.Rune)
}

// Keymap contains all key bindings organized by mode.
type Keymap struct {
	Modes map[Mode][]KeyBinding
}

// GetBinding looks up a command for a key in a specific mode.
// Returns the command and true if found, or empty command and false if not.
func (km *Keymap) GetBinding(msg tea.KeyMsg, mode Mode) (Command, bool) {
	for _, b := range km.Modes[mode] {
		if b.Matches(msg) {
			return b.Command, true
		}
	}
	return "", false
}

// Help returns the first binding of each command in mode, in binding order.
func (km *Keymap) Help(mode Mode) []KeyBinding {
	seen := make(map[Command]bool)
	var out []KeyBinding
	for _, b := range km.Modes[mode] {
		if seen[b.Command] {
			continue
		}
		seen[b.Command] = true
		out = append(out, b)
	}
	return out
}

// Default returns the default key bindings.
func Default() *Keymap {
	return &Keymap{Modes: map[Mode][]KeyBinding{
		ModeNormal: {
			{KeyType: tea.KeyRunes, Rune: 'j', Command: CmdNextStep, Description: "next step"},
			{KeyType: tea.KeyDown, Command: CmdNextStep, Description: "next step"},
			{KeyType: tea.KeyRunes, Rune: 'k', Command: CmdPrevStep, Description: "previous step"},
			{KeyType: tea.KeyUp, Command: CmdPrevStep, Description: "previous step"},
			{KeyType: tea.KeyTab, Command: CmdNextTab, Description: "next tab"},
			{KeyType: tea.KeyRunes, Rune: 'l', Command: CmdNextTab, Description: "next tab"},
			{KeyType: tea.KeyRight, Command: CmdNextTab, Description: "next tab"},
			{KeyType: tea.KeyShiftTab, Command: CmdPrevTab, Description: "previous tab"},
			{KeyType: tea.KeyRunes, Rune: 'h', Command: CmdPrevTab, Description: "previous tab"},
			{KeyType: tea.KeyLeft, Command: CmdPrevTab, Description: "previous tab"},
			{KeyType: tea.KeyRunes, Rune: 'e', Command: CmdEdit, Description: "edit tab"},
			{KeyType: tea.KeyEnter, Command: CmdEdit, Description: "edit tab"},
			{KeyType: tea.KeyRunes, Rune: 'c', Command: CmdConfirm, Description: "confirm / submit"},
			{KeyType: tea.KeyRunes, Rune: 'm', Command: CmdModify, Description: "modify step"},
			{KeyType: tea.KeyRunes, Rune: 'p', Command: CmdPreview, Description: "preview payload"},
			{KeyType: tea.KeyRunes, Rune: '?', Command: CmdToggleHelp, Description: "help"},
			{KeyType: tea.KeyRunes, Rune: 'q', Command: CmdQuit, Description: "quit"},
			{KeyType: tea.KeyCtrlC, Command: CmdQuit, Description: "quit"},
		},
		ModeEdit: {
			{KeyType: tea.KeyEnter, Command: CmdApply, Description: "apply"},
			{KeyType: tea.KeyEsc, Command: CmdCancel, Description: "cancel"},
			{KeyType: tea.KeyCtrlC, Command: CmdQuit, Description: "quit"},
		},
		ModePreview: {
			{KeyType: tea.KeyEsc, Command: CmdCancel, Description: "close"},
			{KeyType: tea.KeyRunes, Rune: 'p', Command: CmdCancel, Description: "close"},
			{KeyType: tea.KeyRunes, Rune: 'q', Command: CmdQuit, Description: "quit"},
			{KeyType: tea.KeyCtrlC, Command: CmdQuit, Description: "quit"},
		},
	}}
}
