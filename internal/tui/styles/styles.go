// Package styles holds the lipgloss styles of the wizard UI and the color
// themes they are built from.
package styles

import "github.com/charmbracelet/lipgloss"

// StepState is how a step is drawn in the accordion.
type StepState int

// Step states.
const (
	StepLocked    StepState = iota // An earlier step is unconfirmed
	StepOpen                       // Actionable but not confirmed
	StepActive                     // The step being edited
	StepConfirmed                  // Confirmed and read-only
)

// Styles is the full set of styles for one palette.
type Styles struct {
	Palette *ColorPalette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style

	// Tab styles
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Step headers in the accordion
	StepHeader       lipgloss.Style
	StepHeaderActive lipgloss.Style

	ContentBox lipgloss.Style
	Editor     lipgloss.Style

	// Help bar
	HelpBar lipgloss.Style
	HelpKey lipgloss.Style

	StatusBar  lipgloss.Style
	ErrorMsg   lipgloss.Style
	SuccessMsg lipgloss.Style
	WarningMsg lipgloss.Style
}

// New builds the styles for p. A nil palette uses DefaultPalette.
func New(p *ColorPalette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}
	return &Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),
		Muted: lipgloss.NewStyle().Foreground(p.Muted),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 2),

		StepHeader: lipgloss.NewStyle().
			Padding(0, 1),
		StepHeaderActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 1),

		ContentBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 2),
		Editor: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 1).
			MarginTop(1),

		HelpBar: lipgloss.NewStyle().
			Foreground(p.Muted).
			MarginTop(1),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),
		ErrorMsg: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),
		SuccessMsg: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Bold(true),
		WarningMsg: lipgloss.NewStyle().
			Foreground(p.Warning).
			Bold(true),
	}
}

// StepColor returns the color for a step state.
func (s *Styles) StepColor(state StepState) lipgloss.Color {
	switch state {
	case StepActive:
		return s.Palette.Primary
	case StepConfirmed:
		return s.Palette.Secondary
	case StepOpen:
		return s.Palette.Warning
	default:
		return s.Palette.Muted
	}
}

// StepIcon returns an icon for a step state.
func StepIcon(state StepState) string {
	switch state {
	case StepActive:
		return "●"
	case StepConfirmed:
		return "✓"
	case StepOpen:
		return "○"
	default:
		return "·"
	}
}
