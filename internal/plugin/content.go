package plugin

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

type unitKind int

const (
	unitSettings unitKind = iota
	unitResources
	unitResults
)

// unitContent renders a manifest unit as a field list.
type unitContent struct {
	kind  unitKind
	title string
	unit  Unit
}

func (c *unitContent) SettingsTab() wizard.Content  { return c }
func (c *unitContent) ResourcesTab() wizard.Content { return c }
func (c *unitContent) ResultsTab() wizard.Content   { return c }

// SettingsDefaults returns the unit's field defaults, used to seed the
// plugin's settings tab.
func (c *unitContent) SettingsDefaults() map[string]any {
	return c.unit.Defaults()
}

// View lists each field with its current value, or its default when the tab
// data has none. Results stay hidden until the job has finished.
func (c *unitContent) View(ctx wizard.RenderContext) string {
	if c.kind == unitResults && !ctx.Finished() {
		return fmt.Sprintf("%s results will be available once the job has finished.", c.title)
	}

	var sb strings.Builder
	if c.unit.Note != "" {
		sb.WriteString(c.unit.Note)
		sb.WriteString("\n\n")
	}
	if len(c.unit.Fields) == 0 {
		sb.WriteString("No options.")
		return sb.String()
	}
	for _, f := range c.unit.Fields {
		value, set := ctx.Data[f.Key]
		suffix := ""
		if !set {
			value = f.Default
			suffix = " (default)"
		}
		fmt.Fprintf(&sb, "%s: %s%s\n", f.DisplayLabel(), formatValue(value), suffix)
		if len(f.Options) > 0 {
			opts := make([]string, len(f.Options))
			for i, o := range f.Options {
				opts[i] = formatValue(o)
			}
			fmt.Fprintf(&sb, "  options: %s\n", strings.Join(opts, ", "))
		}
		if f.Help != "" {
			fmt.Fprintf(&sb, "  %s\n", f.Help)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
