// Package calc defines the calculation wizard: its five steps, the built-in
// tabs of each step, and the key rename table used on submission.
package calc

import (
	"github.com/Iron-Ham/calcwizard/internal/compose"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// Step ids.
const (
	StepStructure = "structure"
	StepWorkflow  = "workflow_settings"
	StepResources = "computational_resources"
	StepReview    = "review_submit"
	StepStatus    = "status_results"
)

// Step indices, in blueprint order.
const (
	IndexStructure = iota
	IndexWorkflow
	IndexResources
	IndexReview
	IndexStatus
)

// Built-in tab titles.
const (
	TabStructure      = "Structure Selection"
	TabBasic          = "Basic Settings"
	TabAdvanced       = "Advanced Settings"
	TabResources      = "Basic Resource Settings"
	TabLabel          = "Label and Submit"
	TabReview         = "Review Settings"
	TabJobStatus      = "Job Status"
	TabFinalStructure = "Final Structure"
)

// Plugin tab title suffixes, per slot.
const (
	SuffixSettings  = "Settings"
	SuffixResources = "Resource Settings"
	SuffixResults   = "Results"
)

// Data keys read across steps.
const (
	KeyStructure  = "selectedStructure"
	KeyPlugins    = "plugins"
	KeyProperties = "properties"
	KeyLabel      = "label"
	KeyJobID      = "jobId"
	KeyLines      = "processStatus"
	KeyError      = "error"
	KeyFinal      = "structure"
)

// PropertiesRef is the property map that filters the workflow, resources
// and results tabs.
var PropertiesRef = wizard.Ref{Step: StepWorkflow, Tab: TabBasic, Key: KeyProperties}

// JobRef locates the id of the submitted job.
var JobRef = wizard.Ref{Step: StepReview, Tab: TabLabel, Key: KeyJobID}

// StructureRef locates the selected input structure.
var StructureRef = wizard.Ref{Step: StepStructure, Tab: TabStructure, Key: KeyStructure}

// RenameTable maps step titles to the keys the job service expects.
var RenameTable = map[string]string{
	"Select Structure":               StepStructure,
	"Configure Workflow":             StepWorkflow,
	"Choose Computational Resources": StepResources,
	"Review and Submit":              StepReview,
	"Status & Results":               StepStatus,
}

// Blueprint returns the calculation wizard's steps.
func Blueprint() compose.Blueprint {
	ref := PropertiesRef
	return compose.Blueprint{Steps: []compose.StepTemplate{
		{
			ID:    StepStructure,
			Title: "Select Structure",
			Tabs: []wizard.Tab{
				{ID: "structure", Title: TabStructure, Content: wizard.ContentFunc(structureView)},
			},
			Dependents:  []int{IndexWorkflow, IndexResources, IndexReview},
			ButtonLabel: "Confirm",
		},
		{
			ID:    StepWorkflow,
			Title: "Configure Workflow",
			Tabs: []wizard.Tab{
				{ID: "basic", Title: TabBasic, Content: wizard.ContentFunc(basicSettingsView)},
				{ID: "advanced", Title: TabAdvanced, Content: wizard.ContentFunc(keyValueView("No advanced settings."))},
			},
			Slot:        compose.SlotSettings,
			TabSuffix:   SuffixSettings,
			Dependents:  []int{IndexResources, IndexReview},
			ButtonLabel: "Confirm",
			Visibility:  &ref,
			Seed:        seedWorkflow,
		},
		{
			ID:    StepResources,
			Title: "Choose Computational Resources",
			Tabs: []wizard.Tab{
				{ID: "basic", Title: TabResources, Content: wizard.ContentFunc(resourcesView)},
			},
			Slot:        compose.SlotResources,
			TabSuffix:   SuffixResources,
			Dependents:  []int{IndexReview},
			ButtonLabel: "Confirm",
			Visibility:  &ref,
			Seed:        seedResources,
		},
		{
			ID:    StepReview,
			Title: "Review and Submit",
			Tabs: []wizard.Tab{
				{ID: "submit", Title: TabLabel, Content: wizard.ContentFunc(labelView)},
				{ID: "review", Title: TabReview, Content: wizard.ContentFunc(reviewView)},
			},
			ButtonLabel: "Submit",
			Seed:        seedReview,
		},
		{
			ID:    StepStatus,
			Title: "Status & Results",
			Tabs: []wizard.Tab{
				{ID: "status", Title: TabJobStatus, Content: wizard.ContentFunc(jobStatusView)},
				{ID: "final_structure", Title: TabFinalStructure, Content: wizard.ContentFunc(finalStructureView)},
			},
			Slot:       compose.SlotResults,
			TabSuffix:  SuffixResults,
			Visibility: &ref,
		},
	}}
}

// DefaultBasicSettings are the workflow defaults before plugins are added.
func DefaultBasicSettings() wizard.Data {
	return wizard.Data{
		"relaxType":      "positions",
		"electronicType": "metal",
		"spinType":       "none",
		"protocol":       "moderate",
	}
}

// DefaultAdvancedSettings are the advanced workflow defaults.
func DefaultAdvancedSettings() wizard.Data {
	return wizard.Data{
		"cleanUp":           false,
		"forceConvergence":  0.0001,
		"energyConvergence": 0.00001,
		"scfConvergence":    2e-10,
		"maxElectronSteps":  80,
		"smearingType":      "cold",
		"smearingWidth":     0.01,
		"kPointsDistance":   0.15,
		"hubbard":           "off",
		"spinOrbit":         "off",
	}
}

// DefaultCode is the code the resources step starts with.
func DefaultCode() wizard.Data {
	return wizard.Data{
		"pw": map[string]any{
			"code":         "qe-7.2-pw@localhost",
			"input_plugin": "quantumespresso.pw",
			"nodes":        1,
			"cpus":         1,
		},
	}
}

// seedWorkflow lists every settings plugin with its outline and starts each
// plugin's property switched off.
func seedWorkflow(plugins []*plugin.Descriptor) map[string]wizard.Data {
	basic := DefaultBasicSettings()
	list := make([]any, 0, len(plugins))
	props := make(map[string]any, len(plugins))
	for _, p := range plugins {
		if p.Settings == nil {
			continue
		}
		list = append(list, map[string]any{"id": p.ID, "outline": p.Outline})
		props[p.ID] = false
	}
	basic[KeyPlugins] = list
	basic[KeyProperties] = props

	out := map[string]wizard.Data{
		TabBasic:    basic,
		TabAdvanced: DefaultAdvancedSettings(),
	}
	for _, p := range plugins {
		if p.Settings == nil || p.Unavailable() {
			continue
		}
		if m, ok := p.Settings.(interface{ SettingsDefaults() map[string]any }); ok {
			out[compose.PluginTabTitle(p.Title, SuffixSettings)] = wizard.Data(m.SettingsDefaults()).Clone()
		}
	}
	return out
}

func seedResources([]*plugin.Descriptor) map[string]wizard.Data {
	return map[string]wizard.Data{TabResources: DefaultCode()}
}

func seedReview([]*plugin.Descriptor) map[string]wizard.Data {
	return map[string]wizard.Data{TabLabel: {KeyLabel: "", "description": ""}}
}

// SubmissionPayload accumulates every step keyed by title and renames the
// keys for the job service.
func SubmissionPayload(steps []wizard.Step) wizard.Payload {
	return wizard.RenameKeys(wizard.Accumulate(steps, true, false), RenameTable)
}
