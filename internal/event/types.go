package event

import "time"

// Wildcard is the event type used by SubscribeAll.
const Wildcard = "*"

// Event type identifiers.
const (
	TypeStepConfirmed     = "step.confirmed"
	TypeStepModified      = "step.modified"
	TypeTabUpdated        = "tab.updated"
	TypeWizardHydrated    = "wizard.hydrated"
	TypeWizardReset       = "wizard.reset"
	TypePluginsResolved   = "plugin.resolved"
	TypePluginUnavailable = "plugin.unavailable"
	TypeJobSubmitted      = "job.submitted"
	TypeJobStatus         = "job.status"
	TypeJobFinished       = "job.finished"
	TypeJobFailed         = "job.failed"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "step.confirmed", "job.finished")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Wizard Transition Events
// -----------------------------------------------------------------------------

// StepConfirmedEvent is emitted when a step is confirmed.
type StepConfirmedEvent struct {
	baseEvent
	StepIndex  int
	StepID     string
	ActiveStep int // Active step after the transition
}

// NewStepConfirmedEvent creates a StepConfirmedEvent.
func NewStepConfirmedEvent(index int, stepID string, active int) StepConfirmedEvent {
	return StepConfirmedEvent{
		baseEvent:  newBaseEvent(TypeStepConfirmed),
		StepIndex:  index,
		StepID:     stepID,
		ActiveStep: active,
	}
}

// StepModifiedEvent is emitted when a step is reopened for editing.
type StepModifiedEvent struct {
	baseEvent
	StepIndex   int
	StepID      string
	Invalidated []int // Downstream steps whose data was reset
	Dependents  []int // Downstream steps the step declared
}

// NewStepModifiedEvent creates a StepModifiedEvent.
func NewStepModifiedEvent(index int, stepID string, invalidated, dependents []int) StepModifiedEvent {
	return StepModifiedEvent{
		baseEvent:   newBaseEvent(TypeStepModified),
		StepIndex:   index,
		StepID:      stepID,
		Invalidated: invalidated,
		Dependents:  dependents,
	}
}

// TabUpdatedEvent is emitted after tab data is merged.
type TabUpdatedEvent struct {
	baseEvent
	StepIndex int
	Tab       string
	Keys      []string // Keys merged into the tab data
}

// NewTabUpdatedEvent creates a TabUpdatedEvent.
func NewTabUpdatedEvent(index int, tab string, keys []string) TabUpdatedEvent {
	return TabUpdatedEvent{
		baseEvent: newBaseEvent(TypeTabUpdated),
		StepIndex: index,
		Tab:       tab,
		Keys:      keys,
	}
}

// WizardHydratedEvent is emitted when step data is loaded from a job record.
type WizardHydratedEvent struct {
	baseEvent
	JobID string
}

// NewWizardHydratedEvent creates a WizardHydratedEvent.
func NewWizardHydratedEvent(jobID string) WizardHydratedEvent {
	return WizardHydratedEvent{
		baseEvent: newBaseEvent(TypeWizardHydrated),
		JobID:     jobID,
	}
}

// WizardResetEvent is emitted when the step list is replaced, discarding edits.
type WizardResetEvent struct {
	baseEvent
	StepCount int
}

// NewWizardResetEvent creates a WizardResetEvent.
func NewWizardResetEvent(stepCount int) WizardResetEvent {
	return WizardResetEvent{
		baseEvent: newBaseEvent(TypeWizardReset),
		StepCount: stepCount,
	}
}

// -----------------------------------------------------------------------------
// Plugin Events
// -----------------------------------------------------------------------------

// PluginsResolvedEvent is emitted when the plugin list has been resolved.
type PluginsResolvedEvent struct {
	baseEvent
	PluginIDs   []string
	Fingerprint string
}

// NewPluginsResolvedEvent creates a PluginsResolvedEvent.
func NewPluginsResolvedEvent(ids []string, fingerprint string) PluginsResolvedEvent {
	return PluginsResolvedEvent{
		baseEvent:   newBaseEvent(TypePluginsResolved),
		PluginIDs:   ids,
		Fingerprint: fingerprint,
	}
}

// PluginUnavailableEvent is emitted when one plugin fails to load.
type PluginUnavailableEvent struct {
	baseEvent
	PluginID string
	Error    string
}

// NewPluginUnavailableEvent creates a PluginUnavailableEvent.
func NewPluginUnavailableEvent(pluginID, errMsg string) PluginUnavailableEvent {
	return PluginUnavailableEvent{
		baseEvent: newBaseEvent(TypePluginUnavailable),
		PluginID:  pluginID,
		Error:     errMsg,
	}
}

// -----------------------------------------------------------------------------
// Job Events
// -----------------------------------------------------------------------------

// JobSubmittedEvent is emitted when the job service accepts a submission.
type JobSubmittedEvent struct {
	baseEvent
	JobID string
}

// NewJobSubmittedEvent creates a JobSubmittedEvent.
func NewJobSubmittedEvent(jobID string) JobSubmittedEvent {
	return JobSubmittedEvent{
		baseEvent: newBaseEvent(TypeJobSubmitted),
		JobID:     jobID,
	}
}

// JobStatusEvent is emitted after every successful status poll.
type JobStatusEvent struct {
	baseEvent
	JobID    string
	Lines    []string // Rendered status tree
	Finished bool
}

// NewJobStatusEvent creates a JobStatusEvent.
func NewJobStatusEvent(jobID string, lines []string, finished bool) JobStatusEvent {
	return JobStatusEvent{
		baseEvent: newBaseEvent(TypeJobStatus),
		JobID:     jobID,
		Lines:     lines,
		Finished:  finished,
	}
}

// JobFinishedEvent is emitted once when the monitor observes a finished tree.
type JobFinishedEvent struct {
	baseEvent
	JobID string
}

// NewJobFinishedEvent creates a JobFinishedEvent.
func NewJobFinishedEvent(jobID string) JobFinishedEvent {
	return JobFinishedEvent{
		baseEvent: newBaseEvent(TypeJobFinished),
		JobID:     jobID,
	}
}

// JobFailedEvent is emitted once when a status query fails and polling halts.
type JobFailedEvent struct {
	baseEvent
	JobID string
	Error string
}

// NewJobFailedEvent creates a JobFailedEvent.
func NewJobFailedEvent(jobID, errMsg string) JobFailedEvent {
	return JobFailedEvent{
		baseEvent: newBaseEvent(TypeJobFailed),
		JobID:     jobID,
		Error:     errMsg,
	}
}
