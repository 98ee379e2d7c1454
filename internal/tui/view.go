package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/calcwizard/internal/calc"
	"github.com/Iron-Ham/calcwizard/internal/jobstatus"
	"github.com/Iron-Ham/calcwizard/internal/tui/keymap"
	"github.com/Iron-Ham/calcwizard/internal/tui/styles"
	"github.com/Iron-Ham/calcwizard/internal/util"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

const defaultWidth = 80

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.mode == keymap.ModePreview {
		b.WriteString(m.renderPreview())
	} else {
		b.WriteString(m.renderSteps())
	}

	if line := m.renderStatusLine(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("calcwizard")
	if id := m.sess.JobID(); id != "" {
		title += "  " + m.styles.Subtitle.Render("job "+id)
	}
	return title
}

func (m Model) stepState(i int, s wizard.Step) styles.StepState {
	mc := m.sess.Machine()
	switch {
	case s.Confirmed:
		return styles.StepConfirmed
	case i == mc.ActiveStep():
		return styles.StepActive
	case mc.Actionable(i):
		return styles.StepOpen
	default:
		return styles.StepLocked
	}
}

func (m Model) renderSteps() string {
	var b strings.Builder
	for i, s := range m.sess.Machine().Steps() {
		state := m.stepState(i, s)
		header := fmt.Sprintf("%s %d. %s", styles.StepIcon(state), i+1, s.Title)
		if s.Confirmed {
			header += "  (confirmed)"
		}
		if i == m.cursor {
			b.WriteString(m.styles.StepHeaderActive.Render(header))
			b.WriteString("\n")
			b.WriteString(m.renderStepBody(i, s))
		} else {
			b.WriteString(m.styles.StepHeader.Foreground(m.styles.StepColor(state)).Render(header))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStepBody(i int, s wizard.Step) string {
	mc := m.sess.Machine()
	if !mc.Actionable(i) {
		return m.styles.Muted.Render("  Confirm the previous steps to unlock this one.") + "\n"
	}

	visible := mc.VisibleTabs(i)
	if len(visible) == 0 {
		return m.styles.Muted.Render("  "+wizard.EmptyTabsMessage) + "\n"
	}

	selected := m.selectedTab(i)
	tabs := make([]string, len(visible))
	for j, t := range visible {
		if t.Title == selected {
			tabs[j] = m.styles.TabActive.Render(t.Title)
		} else {
			tabs[j] = m.styles.TabInactive.Render(t.Title)
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	width := m.contentWidth() - 6
	var content string
	for _, t := range visible {
		if t.Title == selected && t.Content != nil {
			content = t.Content.View(mc.RenderContext(i, selected, width))
		}
	}
	if i == mc.StepIndex(calc.StepStatus) && m.sess.Monitor().State() == jobstatus.StatePolling {
		content = m.spinner.View() + " Polling job status...\n" + content
	}
	b.WriteString(m.styles.ContentBox.Render(util.TruncateLines(content, width)))
	b.WriteString("\n")

	if m.mode == keymap.ModeEdit && i == m.cursor {
		b.WriteString(m.styles.Editor.Render("Editing " + m.editTab + "\n" + m.input.View()))
		b.WriteString("\n")
	}
	if s.ButtonLabel != "" && m.editable(i) {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  press c to %s", strings.ToLower(s.ButtonLabel))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPreview() string {
	payload := m.sess.Payload()
	var (
		out string
		err error
	)
	if m.previewFormat == "json" {
		out, err = payload.JSON()
	} else {
		out, err = payload.YAML()
	}
	if err != nil {
		return m.styles.ErrorMsg.Render("Cannot render payload: " + err.Error())
	}
	width := m.contentWidth() - 6
	return m.styles.Subtitle.Render("Submission payload") + "\n" +
		m.styles.ContentBox.Render(util.TruncateLines(strings.TrimRight(out, "\n"), width))
}

func (m Model) renderStatusLine() string {
	switch {
	case m.errorMessage != "":
		return m.styles.ErrorMsg.Render(m.errorMessage)
	case m.submitting:
		return m.spinner.View() + " " + m.styles.WarningMsg.Render(m.status)
	case m.status != "":
		return m.styles.SuccessMsg.Render(m.status)
	}
	return ""
}

func (m Model) renderHelp() string {
	bindings := m.keymap.Help(m.mode)
	parts := make([]string, len(bindings))
	for i, kb := range bindings {
		parts[i] = m.styles.HelpKey.Render(kb.String()) + " " + kb.Description
	}
	return m.styles.HelpBar.Render(strings.Join(parts, "  "))
}
