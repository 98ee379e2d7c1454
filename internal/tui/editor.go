package tui

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// ParseEdit parses an editor line into the data merged into a tab. The line
// is a YAML mapping in block or flow form, e.g. "protocol: fast" or
// "{properties: {bands: true}, protocol: fast}".
func ParseEdit(input string) (wizard.Data, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("nothing to apply")
	}
	var raw any
	if err := yaml.Unmarshal([]byte(input), &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, fmt.Errorf("expected key: value pairs")
	}
	return wizard.Data(m), nil
}

// editSeed renders data as a single-line flow mapping for the editor.
func editSeed(data wizard.Data) string {
	if len(data) == 0 {
		return ""
	}
	var node yaml.Node
	if err := node.Encode(map[string]any(data)); err != nil {
		return ""
	}
	setFlow(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style |= yaml.FlowStyle
	}
	for _, c := range n.Content {
		setFlow(c)
	}
}
