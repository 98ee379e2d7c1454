// Package tui is the interactive terminal front end of the wizard: an
// accordion of steps, a tab bar per step, and a one-line YAML editor for the
// selected tab.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/calcwizard/internal/calc"
	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/session"
	"github.com/Iron-Ham/calcwizard/internal/tui/keymap"
	"github.com/Iron-Ham/calcwizard/internal/tui/styles"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// Options configures the UI.
type Options struct {
	Styles        *styles.Styles
	Keymap        *keymap.Keymap
	ShowHelp      bool
	PreviewFormat string // "yaml" or "json"
	WatchPlugins  bool   // Restart the wizard when the plugin set changes
}

// Messages

type refreshMsg struct{}
type resetMsg struct{}
type submitResultMsg struct {
	jobID string
	err   error
}

// Model holds the TUI application state
type Model struct {
	ctx  context.Context
	sess *session.Session

	keymap        *keymap.Keymap
	styles        *styles.Styles
	previewFormat string

	// UI state
	mode         keymap.Mode
	cursor       int
	tabs         map[int]string // Selected tab title per step
	editTab      string
	input        textinput.Model
	spinner      spinner.Model
	width        int
	height       int
	showHelp     bool
	submitting   bool
	quitting     bool
	status       string
	errorMessage string
}

// NewModel creates a new TUI model over a started session.
func NewModel(ctx context.Context, sess *session.Session, opts Options) Model {
	if opts.Styles == nil {
		opts.Styles = styles.New(nil)
	}
	if opts.Keymap == nil {
		opts.Keymap = keymap.Default()
	}
	if opts.PreviewFormat == "" {
		opts.PreviewFormat = "yaml"
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "key: value"
	input.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.HelpKey

	return Model{
		ctx:           ctx,
		sess:          sess,
		keymap:        opts.Keymap,
		styles:        opts.Styles,
		previewFormat: opts.PreviewFormat,
		mode:          keymap.ModeNormal,
		cursor:        sess.Machine().ActiveStep(),
		tabs:          make(map[int]string),
		input:         input,
		spinner:       sp,
		showHelp:      opts.ShowHelp,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		return m, nil

	case resetMsg:
		m.cursor = m.sess.Machine().ActiveStep()
		m.tabs = make(map[int]string)
		m.mode = keymap.ModeNormal
		m.status = "Plugins changed, wizard restarted."
		return m, nil

	case submitResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errorMessage = errors.UserMessage(msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.status = fmt.Sprintf("Submitted job %s.", msg.jobID)
		m.cursor = m.sess.Machine().ActiveStep()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, ok := m.keymap.GetBinding(msg, m.mode)

	switch m.mode {
	case keymap.ModeEdit:
		if !ok {
			var c tea.Cmd
			m.input, c = m.input.Update(msg)
			return m, c
		}
		switch cmd {
		case keymap.CmdApply:
			m.applyEdit()
		case keymap.CmdCancel:
			m.closeEditor()
		case keymap.CmdQuit:
			return m.quit()
		}
		return m, nil

	case keymap.ModePreview:
		switch cmd {
		case keymap.CmdCancel:
			m.mode = keymap.ModeNormal
		case keymap.CmdQuit:
			return m.quit()
		}
		return m, nil
	}

	if !ok {
		return m, nil
	}
	m.errorMessage = ""
	switch cmd {
	case keymap.CmdNextStep:
		m.cursor = min(m.cursor+1, m.sess.Machine().Len()-1)
	case keymap.CmdPrevStep:
		m.cursor = max(m.cursor-1, 0)
	case keymap.CmdNextTab:
		m.cycleTab(1)
	case keymap.CmdPrevTab:
		m.cycleTab(-1)
	case keymap.CmdEdit:
		return m.openEditor()
	case keymap.CmdConfirm:
		return m.confirm()
	case keymap.CmdModify:
		if m.sess.Modify(m.cursor) {
			m.status = "Step reopened; later steps were reset."
		}
	case keymap.CmdPreview:
		m.mode = keymap.ModePreview
	case keymap.CmdToggleHelp:
		m.showHelp = !m.showHelp
	case keymap.CmdQuit:
		return m.quit()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// selectedTab returns the selected visible tab of a step, or "".
func (m Model) selectedTab(step int) string {
	return wizard.SelectTab(m.sess.Machine().VisibleTabs(step), m.tabs[step])
}

func (m *Model) cycleTab(delta int) {
	visible := m.sess.Machine().VisibleTabs(m.cursor)
	if len(visible) == 0 {
		return
	}
	current := m.selectedTab(m.cursor)
	idx := 0
	for i, t := range visible {
		if t.Title == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(visible)) % len(visible)
	m.tabs[m.cursor] = visible[idx].Title
}

// editable reports whether the step under the cursor accepts edits.
func (m Model) editable(step int) bool {
	s, ok := m.sess.Machine().Step(step)
	return ok && m.sess.Machine().Actionable(step) && !s.Confirmed && s.Confirmable()
}

func (m Model) openEditor() (tea.Model, tea.Cmd) {
	tab := m.selectedTab(m.cursor)
	if tab == "" || !m.editable(m.cursor) {
		m.errorMessage = "This step cannot be edited now."
		return m, nil
	}
	data, _ := m.sess.Machine().TabData(m.cursor, tab)
	m.editTab = tab
	m.input.SetValue(editSeed(data))
	m.input.CursorEnd()
	m.mode = keymap.ModeEdit
	return m, m.input.Focus()
}

func (m *Model) closeEditor() {
	m.input.Blur()
	m.input.Reset()
	m.editTab = ""
	m.mode = keymap.ModeNormal
}

func (m *Model) applyEdit() {
	data, err := ParseEdit(m.input.Value())
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	if err := m.sess.SetTabData(m.cursor, m.editTab, data); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.status = fmt.Sprintf("Updated %s.", m.editTab)
	m.errorMessage = ""
	m.closeEditor()
}

func (m Model) confirm() (tea.Model, tea.Cmd) {
	if m.cursor == m.sess.Machine().StepIndex(calc.StepReview) {
		if m.submitting {
			return m, nil
		}
		if !m.editable(m.cursor) {
			m.errorMessage = "Confirm the earlier steps before submitting."
			return m, nil
		}
		m.submitting = true
		m.status = "Submitting..."
		ctx, sess := m.ctx, m.sess
		return m, func() tea.Msg {
			id, err := sess.Submit(ctx)
			return submitResultMsg{jobID: id, err: err}
		}
	}

	if !m.sess.Confirm(m.cursor) {
		m.errorMessage = "This step cannot be confirmed now."
		return m, nil
	}
	m.status = ""
	m.cursor = m.sess.Machine().ActiveStep()
	return m, nil
}
