package plugin

import (
	"fmt"

	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// SettingsProvider contributes a tab to the workflow configuration step.
type SettingsProvider interface {
	SettingsTab() wizard.Content
}

// ResultsProvider contributes a tab to the status and results step.
type ResultsProvider interface {
	ResultsTab() wizard.Content
}

// ResourceProvider contributes a tab to the computational resources step.
type ResourceProvider interface {
	ResourcesTab() wizard.Content
}

// Descriptor describes one plugin.
type Descriptor struct {
	ID      string
	Title   string
	Outline string

	Settings  SettingsProvider
	Results   ResultsProvider
	Resources ResourceProvider

	// Err is set on placeholders for plugins that failed to load.
	Err error
}

// Unavailable reports whether d is a placeholder for a failed load.
func (d *Descriptor) Unavailable() bool {
	return d.Err != nil
}

// Capabilities lists the capabilities d exposes, in step order.
func (d *Descriptor) Capabilities() []string {
	var caps []string
	if d.Settings != nil {
		caps = append(caps, "settings")
	}
	if d.Resources != nil {
		caps = append(caps, "resources")
	}
	if d.Results != nil {
		caps = append(caps, "results")
	}
	return caps
}

// UnavailableDescriptor builds the placeholder for a plugin that failed to
// load. It contributes a single settings tab explaining the failure, so the
// plugin's property flag still has a tab to control.
func UnavailableDescriptor(id string, err error) *Descriptor {
	d := &Descriptor{
		ID:    id,
		Title: id,
		Err:   err,
	}
	d.Settings = unavailableContent{id: id, err: err}
	return d
}

type unavailableContent struct {
	id  string
	err error
}

func (u unavailableContent) SettingsTab() wizard.Content { return u }

func (u unavailableContent) View(wizard.RenderContext) string {
	return fmt.Sprintf("Plugin %q is unavailable: %v", u.id, u.err)
}
