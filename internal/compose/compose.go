// Package compose builds the wizard's step list from a blueprint and the
// resolved plugin list.
package compose

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// Slot names the plugin capability a step collects tabs from.
type Slot int

// Plugin slots.
const (
	SlotNone Slot = iota
	SlotSettings
	SlotResources
	SlotResults
)

// String returns the slot name.
func (s Slot) String() string {
	switch s {
	case SlotSettings:
		return "settings"
	case SlotResources:
		return "resources"
	case SlotResults:
		return "results"
	default:
		return "none"
	}
}

// content returns the tab d contributes to the slot, or nil.
func (s Slot) content(d *plugin.Descriptor) wizard.Content {
	switch s {
	case SlotSettings:
		if d.Settings != nil {
			return d.Settings.SettingsTab()
		}
	case SlotResources:
		if d.Resources != nil {
			return d.Resources.ResourcesTab()
		}
	case SlotResults:
		if d.Results != nil {
			return d.Results.ResultsTab()
		}
	}
	return nil
}

// SeedFunc produces a step's initial data (tab title to data) from the
// plugin list.
type SeedFunc func(plugins []*plugin.Descriptor) map[string]wizard.Data

// StepTemplate describes one step of a blueprint.
type StepTemplate struct {
	ID          string
	Title       string
	Tabs        []wizard.Tab // Built-in tabs, shown before plugin tabs
	Slot        Slot
	TabSuffix   string // Plugin tab title is "{plugin title} {suffix}"
	Dependents  []int
	ButtonLabel string
	Visibility  *wizard.Ref
	Seed        SeedFunc
}

// Blueprint is the ordered list of step templates.
type Blueprint struct {
	Steps []StepTemplate
}

// Validate checks the parts of the blueprint that do not depend on plugins:
// ids are present and unique and every dependent index points downstream.
func (bp Blueprint) Validate() error {
	seen := make(map[string]bool, len(bp.Steps))
	for i, st := range bp.Steps {
		if st.ID == "" {
			return invalid(fmt.Sprintf("step %d has no id", i), "")
		}
		if seen[st.ID] {
			return invalid("duplicate step id", st.ID)
		}
		seen[st.ID] = true
		if st.Title == "" {
			return invalid("step has no title", st.ID)
		}
		for _, dep := range st.Dependents {
			if dep <= i || dep >= len(bp.Steps) {
				return invalid(fmt.Sprintf("dependent %d must be a later step in 0..%d", dep, len(bp.Steps)-1), st.ID)
			}
		}
	}
	return nil
}

func invalid(msg, stepID string) error {
	return errors.NewCompositionError(msg, errors.ErrInvalidBlueprint).WithStepID(stepID)
}

// Compose builds the step list. Each step gets its built-in tabs, then one
// tab per plugin exposing the step's slot, in plugin order. A plugin tab
// whose title matches an earlier plugin tab replaces it in place. A plugin
// whose tab would take a built-in tab's title is composed as unavailable.
// Visibility refs are checked against the composed steps and must point at
// the same step or an upstream one.
func Compose(bp Blueprint, plugins []*plugin.Descriptor) ([]wizard.Step, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	plugins = withoutConflicts(bp, plugins)

	steps := make([]wizard.Step, len(bp.Steps))
	index := make(map[string]int, len(bp.Steps))
	for i, st := range bp.Steps {
		tabs := append([]wizard.Tab(nil), st.Tabs...)
		if st.Slot != SlotNone {
			for _, p := range plugins {
				c := st.Slot.content(p)
				if c == nil {
					continue
				}
				tabs = addTab(tabs, len(st.Tabs), wizard.Tab{
					ID:      p.ID,
					Title:   PluginTabTitle(p.Title, st.TabSuffix),
					Content: c,
				})
			}
		}

		data := make(map[string]wizard.Data, len(tabs))
		if st.Seed != nil {
			for title, d := range st.Seed(plugins) {
				data[title] = d.Clone()
			}
		}
		step := wizard.Step{
			ID:          st.ID,
			Title:       st.Title,
			Tabs:        tabs,
			Data:        data,
			Dependents:  append([]int(nil), st.Dependents...),
			ButtonLabel: st.ButtonLabel,
		}
		for title := range data {
			if !step.HasTab(title) {
				return nil, errors.NewCompositionError(
					fmt.Sprintf("seeded data for unknown tab %q", title), errors.ErrUnknownTab).WithStepID(st.ID)
			}
		}
		for _, t := range tabs {
			if data[t.Title] == nil {
				data[t.Title] = wizard.Data{}
			}
		}
		steps[i] = step
		index[st.ID] = i
	}

	for i, st := range bp.Steps {
		if st.Visibility == nil {
			continue
		}
		ref := *st.Visibility
		j, ok := index[ref.Step]
		if !ok {
			return nil, invalid(fmt.Sprintf("visibility refers to unknown step %q", ref.Step), st.ID)
		}
		if j > i {
			return nil, invalid(fmt.Sprintf("visibility refers to downstream step %q", ref.Step), st.ID)
		}
		if !steps[j].HasTab(ref.Tab) {
			return nil, invalid(fmt.Sprintf("visibility refers to unknown tab %q of step %q", ref.Tab, ref.Step), st.ID)
		}
		steps[i].Visibility = &ref
	}
	return steps, nil
}

// PluginTabTitle is the title of the tab a plugin titled title contributes
// to a step with the given suffix.
func PluginTabTitle(title, suffix string) string {
	if suffix == "" {
		return title
	}
	return title + " " + suffix
}

// addTab appends t, or replaces the plugin tab with the same title. The
// first builtin tabs are never replaced; a title clash with one of them
// drops t.
func addTab(tabs []wizard.Tab, builtin int, t wizard.Tab) []wizard.Tab {
	for i := range tabs {
		if tabs[i].Title != t.Title {
			continue
		}
		if i >= builtin {
			tabs[i] = t
		}
		return tabs
	}
	return append(tabs, t)
}

// withoutConflicts swaps every plugin whose tab would take a built-in tab's
// title for an unavailable placeholder. The input slice is not modified.
func withoutConflicts(bp Blueprint, plugins []*plugin.Descriptor) []*plugin.Descriptor {
	var out []*plugin.Descriptor
	for i, p := range plugins {
		if p.Unavailable() {
			continue
		}
		for _, st := range bp.Steps {
			if st.Slot == SlotNone || st.Slot.content(p) == nil {
				continue
			}
			title := PluginTabTitle(p.Title, st.TabSuffix)
			if !builtinTitle(st.Tabs, title) {
				continue
			}
			if out == nil {
				out = append([]*plugin.Descriptor(nil), plugins...)
			}
			cause := errors.NewCompositionError(
				fmt.Sprintf("tab %q is already defined", title), errors.ErrTabConflict).
				WithPluginID(p.ID).WithStepID(st.ID)
			out[i] = plugin.UnavailableDescriptor(p.ID, cause)
			break
		}
	}
	if out == nil {
		return plugins
	}
	return out
}

func builtinTitle(tabs []wizard.Tab, title string) bool {
	for _, t := range tabs {
		if t.Title == title {
			return true
		}
	}
	return false
}

// Composer recomposes the step list only when the plugin list changes
// identity.
type Composer struct {
	bp Blueprint

	mu          sync.Mutex
	fingerprint string
	composed    bool
	steps       []wizard.Step
}

// NewComposer creates a composer for bp.
func NewComposer(bp Blueprint) *Composer {
	return &Composer{bp: bp}
}

// Recompose returns the step list for plugins and whether it was rebuilt.
// When the plugin fingerprint matches the previous call the cached steps are
// returned with changed false.
func (c *Composer) Recompose(plugins []*plugin.Descriptor) (steps []wizard.Step, changed bool, err error) {
	fp := plugin.Fingerprint(plugins)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.composed && fp == c.fingerprint {
		return wizard.CloneSteps(c.steps), false, nil
	}
	steps, err = Compose(c.bp, plugins)
	if err != nil {
		return nil, false, err
	}
	c.steps = steps
	c.fingerprint = fp
	c.composed = true
	return wizard.CloneSteps(steps), true, nil
}

// Fingerprint returns the fingerprint of the last composed plugin list.
func (c *Composer) Fingerprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fingerprint
}
