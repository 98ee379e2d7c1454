package wizard

import (
	"sort"
	"sync"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/event"
	"github.com/Iron-Ham/calcwizard/internal/logging"
)

// Machine owns the step list and the active step pointer. Every transition
// runs to completion under the machine's mutex and either fully applies or
// leaves the state untouched. Callers only ever receive deep copies.
type Machine struct {
	mu     sync.Mutex
	steps  []Step
	seeds  []map[string]Data // Composer-seeded data per step
	active int
	jobID  string

	bus    *event.Bus
	logger *logging.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithEventBus publishes a transition event after every committed transition.
func WithEventBus(bus *event.Bus) Option {
	return func(m *Machine) {
		m.bus = bus
	}
}

// WithLogger sets the machine's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMachine creates a machine over a composed step list. The steps' data
// becomes the seeded default that Modify restores downstream. All steps
// start unconfirmed with step 0 active.
func NewMachine(steps []Step, opts ...Option) *Machine {
	m := &Machine{logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(m)
	}
	m.load(steps)
	return m
}

func (m *Machine) load(steps []Step) {
	m.steps = CloneSteps(steps)
	m.seeds = make([]map[string]Data, len(m.steps))
	for i := range m.steps {
		s := &m.steps[i]
		if s.Data == nil {
			s.Data = make(map[string]Data)
		}
		s.Confirmed = false
		s.Modified = false
		m.seeds[i] = cloneStepData(s.Data)
	}
	m.active = 0
	m.jobID = ""
}

// Reset replaces the step list, discarding every in-progress edit. Used when
// the plugin list changes identity and the steps are recomposed.
func (m *Machine) Reset(steps []Step) {
	m.mu.Lock()
	m.load(steps)
	n := len(m.steps)
	m.mu.Unlock()

	m.logger.Info("wizard reset", "steps", n)
	m.publish(event.NewWizardResetEvent(n))
}

// SetTabData merges value into the data of the given step's tab. It does not
// change confirmation or the active step.
func (m *Machine) SetTabData(stepIndex int, tab string, value Data) error {
	m.mu.Lock()
	if !m.inRange(stepIndex) {
		m.mu.Unlock()
		return errors.Wrapf(errors.ErrUnknownStep, "step %d", stepIndex)
	}
	s := &m.steps[stepIndex]
	if !s.HasTab(tab) {
		m.mu.Unlock()
		return errors.Wrapf(errors.ErrUnknownTab, "step %q tab %q", s.ID, tab)
	}
	d := s.Data[tab]
	if d == nil {
		d = make(Data, len(value))
		s.Data[tab] = d
	}
	d.Merge(value)
	m.mu.Unlock()

	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m.publish(event.NewTabUpdatedEvent(stepIndex, tab, keys))
	return nil
}

// Confirm locks in a step's data and advances to the next step. It reports
// false, leaving the state untouched, when the step does not exist, has no
// confirm action, or its predecessor is unconfirmed.
func (m *Machine) Confirm(stepIndex int) bool {
	m.mu.Lock()
	if reason := m.confirmBlocked(stepIndex); reason != "" {
		m.mu.Unlock()
		m.logger.Debug("confirm ignored", "step", stepIndex, "reason", reason)
		return false
	}
	s := &m.steps[stepIndex]
	s.Confirmed = true
	if stepIndex < len(m.steps)-1 {
		m.active = stepIndex + 1
	}
	id, active := s.ID, m.active
	m.mu.Unlock()

	m.logger.WithStep(id).Info("step confirmed", "active_step", active)
	m.publish(event.NewStepConfirmedEvent(stepIndex, id, active))
	return true
}

func (m *Machine) confirmBlocked(stepIndex int) string {
	switch {
	case !m.inRange(stepIndex):
		return "unknown step"
	case !m.steps[stepIndex].Confirmable():
		return "step has no confirm action"
	case stepIndex > 0 && !m.steps[stepIndex-1].Confirmed:
		return "predecessor unconfirmed"
	}
	return ""
}

// Modify reopens a step for editing. The step and every later step become
// unconfirmed and modified; later steps get their seeded data back.
func (m *Machine) Modify(stepIndex int) bool {
	m.mu.Lock()
	if !m.inRange(stepIndex) {
		m.mu.Unlock()
		m.logger.Debug("modify ignored", "step", stepIndex, "reason", "unknown step")
		return false
	}
	s := &m.steps[stepIndex]
	s.Confirmed = false
	s.Modified = true

	var invalidated []int
	for j := stepIndex + 1; j < len(m.steps); j++ {
		later := &m.steps[j]
		later.Confirmed = false
		later.Modified = true
		later.Data = cloneStepData(m.seeds[j])
		invalidated = append(invalidated, j)
	}
	m.active = stepIndex
	id := s.ID
	dependents := append([]int(nil), s.Dependents...)
	m.mu.Unlock()

	m.logger.WithStep(id).Info("step modified", "invalidated", invalidated)
	m.publish(event.NewStepModifiedEvent(stepIndex, id, invalidated, dependents))
	return true
}

// Hydrate loads a previously submitted job read-only. Every step but the last
// is confirmed, each step's data comes from record[step.ID] (empty when
// absent), and the last step becomes active. Calling it again with the same
// arguments yields the same state.
func (m *Machine) Hydrate(jobID string, record Payload) {
	m.mu.Lock()
	last := len(m.steps) - 1
	for i := range m.steps {
		s := &m.steps[i]
		if stepData, ok := record[s.ID]; ok {
			s.Data = cloneStepData(stepData)
		} else {
			s.Data = make(map[string]Data)
		}
		s.Confirmed = i < last
		s.Modified = false
	}
	if last >= 0 {
		m.active = last
	}
	m.jobID = jobID
	m.mu.Unlock()

	m.logger.WithJob(jobID).Info("wizard hydrated", "steps", last+1)
	m.publish(event.NewWizardHydratedEvent(jobID))
}

// SetActive moves the active step pointer. Only actionable steps can be made
// active.
func (m *Machine) SetActive(stepIndex int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.actionable(stepIndex) {
		return false
	}
	m.active = stepIndex
	return true
}

// ActiveStep returns the index of the active step.
func (m *Machine) ActiveStep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// JobID returns the job id passed to the last Hydrate, if any.
func (m *Machine) JobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobID
}

// Len returns the number of steps.
func (m *Machine) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Steps returns a deep copy of the step list.
func (m *Machine) Steps() []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CloneSteps(m.steps)
}

// Step returns a deep copy of one step.
func (m *Machine) Step(stepIndex int) (Step, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(stepIndex) {
		return Step{}, false
	}
	return m.steps[stepIndex].Clone(), true
}

// StepIndex returns the index of the step with the given id, or -1.
func (m *Machine) StepIndex(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(id)
}

// Actionable reports whether every step before stepIndex is confirmed.
func (m *Machine) Actionable(stepIndex int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actionable(stepIndex)
}

// TabData returns a copy of one tab's data.
func (m *Machine) TabData(stepIndex int, tab string) (Data, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(stepIndex) {
		return nil, false
	}
	d, ok := m.steps[stepIndex].Data[tab]
	return d.Clone(), ok
}

// Seed returns a copy of a step's seeded default data.
func (m *Machine) Seed(stepIndex int) map[string]Data {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(stepIndex) {
		return nil
	}
	return cloneStepData(m.seeds[stepIndex])
}

// Lookup resolves ref against the current data regardless of confirmation.
func (m *Machine) Lookup(ref Ref) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(ref)
}

// RenderContext builds the context a tab's Content renders with.
func (m *Machine) RenderContext(stepIndex int, tab string, width int) RenderContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx := RenderContext{
		StepIndex: stepIndex,
		Tab:       tab,
		Steps:     CloneSteps(m.steps),
		Width:     width,
	}
	if m.inRange(stepIndex) {
		ctx.Data = m.steps[stepIndex].Data[tab].Clone()
	}
	if ctx.Data == nil {
		ctx.Data = Data{}
	}
	return ctx
}

func (m *Machine) inRange(stepIndex int) bool {
	return stepIndex >= 0 && stepIndex < len(m.steps)
}

func (m *Machine) actionable(stepIndex int) bool {
	if !m.inRange(stepIndex) {
		return false
	}
	for i := 0; i < stepIndex; i++ {
		if !m.steps[i].Confirmed {
			return false
		}
	}
	return true
}

func (m *Machine) indexOf(id string) int {
	for i, s := range m.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (m *Machine) lookup(ref Ref) (any, bool) {
	i := m.indexOf(ref.Step)
	if i < 0 {
		return nil, false
	}
	d, ok := m.steps[i].Data[ref.Tab]
	if !ok {
		return nil, false
	}
	if ref.Key == "" {
		return d.Clone(), true
	}
	v, ok := d[ref.Key]
	return cloneValue(v), ok
}

func (m *Machine) publish(e event.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}
