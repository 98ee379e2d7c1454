package calc

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/calcwizard/internal/util"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// Formula returns the chemical formula of a symbol list, elements in order
// of first appearance: ["Si", "Si", "O"] is "Si2O".
func Formula(symbols []string) string {
	counts := make(map[string]int, len(symbols))
	var order []string
	for _, s := range symbols {
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	var sb strings.Builder
	for _, s := range order {
		sb.WriteString(s)
		if counts[s] > 1 {
			fmt.Fprintf(&sb, "%d", counts[s])
		}
	}
	return sb.String()
}

// Symbols extracts the "symbols" list of a structure value.
func Symbols(structure any) []string {
	m, ok := structure.(map[string]any)
	if !ok {
		return nil
	}
	switch raw := m["symbols"].(type) {
	case []string:
		return append([]string(nil), raw...)
	case []any:
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// DefaultLabel is the job label suggested for the selected structure.
func DefaultLabel(steps []wizard.Step) string {
	for _, s := range steps {
		if s.ID == StepStructure {
			return Formula(Symbols(s.Data[TabStructure][KeyStructure]))
		}
	}
	return ""
}

func structureView(ctx wizard.RenderContext) string {
	structure, ok := ctx.Data[KeyStructure]
	if !ok || structure == nil {
		return "No structure selected.\nEnter a structure as YAML or JSON, e.g.\n  selectedStructure: {symbols: [Si, Si], cell: [[...]], positions: [[...]]}"
	}
	return describeStructure("Selected structure", structure)
}

func describeStructure(heading string, structure any) string {
	symbols := Symbols(structure)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", heading, Formula(symbols))
	fmt.Fprintf(&sb, "Atoms: %d", len(symbols))
	if m, ok := structure.(map[string]any); ok {
		if pbc, ok := m["pbc"]; ok {
			fmt.Fprintf(&sb, "\nPeriodic: %v", pbc)
		}
	}
	return sb.String()
}

func basicSettingsView(ctx wizard.RenderContext) string {
	var sb strings.Builder
	for _, k := range []string{"relaxType", "electronicType", "spinType", "protocol"} {
		fmt.Fprintf(&sb, "%s: %v\n", k, ctx.Data[k])
	}

	props := wizard.Properties(ctx.Data[KeyProperties])
	plugins, _ := ctx.Data[KeyPlugins].([]any)
	if len(plugins) == 0 {
		sb.WriteString("\nNo plugin properties available.")
		return sb.String()
	}
	sb.WriteString("\nProperties:\n")
	for _, p := range plugins {
		entry, _ := p.(map[string]any)
		id, _ := entry["id"].(string)
		outline, _ := entry["outline"].(string)
		if outline == "" {
			outline = id
		}
		mark := "[ ]"
		if on, _ := props[id].(bool); on {
			mark = "[x]"
		}
		fmt.Fprintf(&sb, "  %s %s (%s)\n", mark, outline, id)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func keyValueView(empty string) func(wizard.RenderContext) string {
	return func(ctx wizard.RenderContext) string {
		if len(ctx.Data) == 0 {
			return empty
		}
		var sb strings.Builder
		for _, k := range util.SortedKeys(ctx.Data) {
			fmt.Fprintf(&sb, "%s: %v\n", k, ctx.Data[k])
		}
		return strings.TrimRight(sb.String(), "\n")
	}
}

func resourcesView(ctx wizard.RenderContext) string {
	if len(ctx.Data) == 0 {
		return "No codes selected."
	}
	var sb strings.Builder
	for _, name := range util.SortedKeys(ctx.Data) {
		code, ok := ctx.Data[name].(map[string]any)
		if !ok {
			fmt.Fprintf(&sb, "%s: %v\n", name, ctx.Data[name])
			continue
		}
		fmt.Fprintf(&sb, "%s: %v (nodes %v, cpus %v)\n", name, code["code"], code["nodes"], code["cpus"])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func labelView(ctx wizard.RenderContext) string {
	label, _ := ctx.Data[KeyLabel].(string)
	if label == "" {
		if def := DefaultLabel(ctx.Steps); def != "" {
			label = def + " (default)"
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Label: %s\n", label)
	if desc, _ := ctx.Data["description"].(string); desc != "" {
		fmt.Fprintf(&sb, "Description: %s\n", desc)
	}
	if id, ok := ctx.Data[KeyJobID]; ok && id != nil && id != "" {
		fmt.Fprintf(&sb, "Submitted as job %v", id)
	} else {
		sb.WriteString("Not submitted yet.")
	}
	return sb.String()
}

func reviewView(ctx wizard.RenderContext) string {
	out, err := wizard.Accumulate(ctx.Steps, false, false).YAML()
	if err != nil {
		return "Cannot render settings: " + err.Error()
	}
	return strings.TrimRight(out, "\n")
}

func jobStatusView(ctx wizard.RenderContext) string {
	if msg, _ := ctx.Data[KeyError].(string); msg != "" {
		return "Error: " + msg
	}
	var lines []string
	switch raw := ctx.Data[KeyLines].(type) {
	case []string:
		lines = raw
	case []any:
		for _, l := range raw {
			lines = append(lines, fmt.Sprint(l))
		}
	}
	if len(lines) == 0 {
		return "No job status available."
	}
	header := "Job Status"
	if ctx.Finished() {
		header += " (finished)"
	}
	return header + "\n" + strings.Join(lines, "\n")
}

func finalStructureView(ctx wizard.RenderContext) string {
	if !ctx.Finished() {
		return "The final structure will be available once the job has finished."
	}
	structure, ok := ctx.Data[KeyFinal]
	if !ok || structure == nil {
		return "No output structure was produced."
	}
	return describeStructure("Final structure", structure)
}
