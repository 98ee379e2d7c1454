package wizard

import (
	"maps"
)

// Keys of the job status marker written into the status tab on completion.
const (
	StatusKey      = "jobStatus"
	StatusFinished = "finished"
)

// Data is one tab's opaque data object.
type Data map[string]any

// Clone returns a deep copy of d. Nested maps and slices are copied; other
// values are copied by assignment.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge shallow-merges src into d, copying each value.
func (d Data) Merge(src Data) {
	for k, v := range src {
		d[k] = cloneValue(v)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Data:
		return t.Clone()
	case map[string]any:
		return map[string]any(Data(t).Clone())
	case map[string]bool:
		return maps.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = map[string]any(Data(e).Clone())
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	default:
		return v
	}
}

func cloneStepData(data map[string]Data) map[string]Data {
	out := make(map[string]Data, len(data))
	for title, d := range data {
		out[title] = d.Clone()
	}
	return out
}

// Content renders one tab. Implementations must not retain or mutate the
// RenderContext's data.
type Content interface {
	View(ctx RenderContext) string
}

// ContentFunc adapts a function to Content.
type ContentFunc func(ctx RenderContext) string

// View calls f.
func (f ContentFunc) View(ctx RenderContext) string { return f(ctx) }

// RenderContext is what a tab's Content sees when it renders.
type RenderContext struct {
	StepIndex int
	Tab       string
	Data      Data   // Copy of the tab's data
	Steps     []Step // Read-only snapshot of every step
	Width     int
}

// StepData returns a tab's data from the snapshot, looked up by step id.
func (c RenderContext) StepData(stepID, tab string) Data {
	for _, s := range c.Steps {
		if s.ID == stepID {
			return s.Data[tab]
		}
	}
	return nil
}

// Finished reports whether any tab of the rendering step carries the
// finished job marker.
func (c RenderContext) Finished() bool {
	if c.StepIndex < 0 || c.StepIndex >= len(c.Steps) {
		return false
	}
	for _, d := range c.Steps[c.StepIndex].Data {
		if d[StatusKey] == StatusFinished {
			return true
		}
	}
	return false
}

// Tab is a unit of configurable data within a step.
type Tab struct {
	// ID controls visibility when referenced by a property map. Optional.
	ID string
	// Title is unique within its step and keys the tab's data.
	Title   string
	Content Content
}

// Ref points at steps[ID == Step].Data[Tab][Key].
type Ref struct {
	Step string
	Tab  string
	Key  string
}

// Step is one stage of the wizard.
type Step struct {
	ID          string
	Title       string
	Tabs        []Tab
	Confirmed   bool
	Modified    bool
	Data        map[string]Data // Tab title -> tab data
	Dependents  []int           // Downstream steps invalidated on modify
	ButtonLabel string          // Empty means the step cannot be confirmed
	Visibility  *Ref            // Property map this step's tabs are filtered by
}

// Clone returns a deep copy of s. Tab contents are shared.
func (s Step) Clone() Step {
	out := s
	out.Tabs = append([]Tab(nil), s.Tabs...)
	out.Data = cloneStepData(s.Data)
	out.Dependents = append([]int(nil), s.Dependents...)
	if s.Visibility != nil {
		ref := *s.Visibility
		out.Visibility = &ref
	}
	return out
}

// HasTab reports whether the step has a tab with the given title.
func (s Step) HasTab(title string) bool {
	return s.TabIndex(title) >= 0
}

// TabIndex returns the index of the tab with the given title, or -1.
func (s Step) TabIndex(title string) int {
	for i, t := range s.Tabs {
		if t.Title == title {
			return i
		}
	}
	return -1
}

// Confirmable reports whether the step has a confirm action.
func (s Step) Confirmable() bool {
	return s.ButtonLabel != ""
}

// CloneSteps deep-copies a step list.
func CloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}
