package wizard

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Payload maps a step key (id or title) to that step's tab data.
type Payload map[string]map[string]Data

// Accumulate flattens every step's data into a Payload. The first step is
// included only when includeFirstStep is set; keys are step ids when
// useStepIDAsKey is set, titles otherwise. Confirmation bookkeeping never
// appears in the output and all data is deep-copied.
func Accumulate(steps []Step, includeFirstStep, useStepIDAsKey bool) Payload {
	out := make(Payload, len(steps))
	for i, s := range steps {
		if i == 0 && !includeFirstStep {
			continue
		}
		key := s.Title
		if useStepIDAsKey {
			key = s.ID
		}
		out[key] = cloneStepData(s.Data)
	}
	return out
}

// RenameKeys returns a copy of p with top-level keys renamed through table.
// Keys absent from the table pass through unchanged.
func RenameKeys(p Payload, table map[string]string) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if renamed, ok := table[k]; ok {
			k = renamed
		}
		out[k] = cloneStepData(v)
	}
	return out
}

// YAML renders the payload for the human-editable preview.
func (p Payload) YAML() (string, error) {
	b, err := yaml.Marshal(map[string]map[string]Data(p))
	if err != nil {
		return "", fmt.Errorf("render payload: %w", err)
	}
	return string(b), nil
}

// JSON renders the payload as indented JSON.
func (p Payload) JSON() (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render payload: %w", err)
	}
	return string(b), nil
}

// PayloadFromMap converts a decoded {step: {tab: {...}}} document into a
// Payload. Entries that are not objects are skipped.
func PayloadFromMap(raw map[string]any) Payload {
	out := make(Payload, len(raw))
	for stepKey, v := range raw {
		tabs, ok := v.(map[string]any)
		if !ok {
			continue
		}
		stepData := make(map[string]Data, len(tabs))
		for title, tv := range tabs {
			if d, ok := tv.(map[string]any); ok {
				stepData[title] = Data(d).Clone()
			}
		}
		out[stepKey] = stepData
	}
	return out
}
