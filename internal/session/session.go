// Package session wires the calculation wizard together for one interactive
// run: plugin resolution and composition, the wizard machine, job submission
// and resume, and the status monitor that follows the submitted job.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/calcwizard/internal/calc"
	"github.com/Iron-Ham/calcwizard/internal/compose"
	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/event"
	"github.com/Iron-Ham/calcwizard/internal/jobs"
	"github.com/Iron-Ham/calcwizard/internal/jobstatus"
	"github.com/Iron-Ham/calcwizard/internal/logging"
	"github.com/Iron-Ham/calcwizard/internal/plugin"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// ErrNotReady is returned by Submit when an earlier step is unconfirmed.
var ErrNotReady = errors.New("wizard is not ready to submit")

// recordTimeout bounds the record fetch made when a job finishes.
const recordTimeout = 30 * time.Second

// JobService is the part of the job service a session uses.
type JobService interface {
	GetJob(ctx context.Context, id string) (*jobs.Record, error)
	ProcessStatus(ctx context.Context, id string) (*jobstatus.Tree, error)
	Submit(ctx context.Context, payload wizard.Payload) (string, error)
}

// Watcher is implemented by plugin sources that can report changes.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Session owns the wizard machine and the status monitor for one run.
type Session struct {
	id     string
	logger *logging.Logger
	bus    *event.Bus

	source   plugin.Source
	registry *plugin.Registry
	composer *compose.Composer
	machine  *wizard.Machine
	jobs     JobService
	monitor  *jobstatus.Monitor

	interval    time.Duration
	maxDepth    int
	loadTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	plugins   []*plugin.Descriptor
	monitored string
	closed    bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger. The session id is attached to it.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventBus sets the bus every component publishes to.
func WithEventBus(bus *event.Bus) Option {
	return func(s *Session) {
		s.bus = bus
	}
}

// WithMonitorInterval sets the status polling interval.
func WithMonitorInterval(d time.Duration) Option {
	return func(s *Session) {
		s.interval = d
	}
}

// WithMaxTreeDepth bounds the status tree walk.
func WithMaxTreeDepth(depth int) Option {
	return func(s *Session) {
		s.maxDepth = depth
	}
}

// WithLoadTimeout bounds each plugin load.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.loadTimeout = d
	}
}

// New creates a session resolving plugins from source and talking to svc.
// Call Start before using the machine.
func New(source plugin.Source, svc JobService, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		logger:      logging.NopLogger(),
		source:      source,
		jobs:        svc,
		interval:    jobstatus.DefaultInterval,
		maxDepth:    jobstatus.DefaultMaxDepth,
		loadTimeout: plugin.DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = event.NewBus(s.logger)
	}
	s.logger = s.logger.WithSession(s.id)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.registry = plugin.NewRegistry(source,
		plugin.WithLoadTimeout(s.loadTimeout),
		plugin.WithRegistryLogger(s.logger),
		plugin.WithRegistryBus(s.bus),
	)
	s.composer = compose.NewComposer(calc.Blueprint())
	s.machine = wizard.NewMachine(nil, wizard.WithEventBus(s.bus), wizard.WithLogger(s.logger))
	s.monitor = jobstatus.NewMonitor(svc,
		jobstatus.WithInterval(s.interval),
		jobstatus.WithMaxDepth(s.maxDepth),
		jobstatus.WithLogger(s.logger),
		jobstatus.WithEventBus(s.bus),
		jobstatus.OnUpdate(s.onStatus),
		jobstatus.OnError(s.onStatusError),
		jobstatus.OnFinished(s.onFinished),
	)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Bus returns the session's event bus.
func (s *Session) Bus() *event.Bus { return s.bus }

// Machine returns the wizard machine.
func (s *Session) Machine() *wizard.Machine { return s.machine }

// Monitor returns the status monitor.
func (s *Session) Monitor() *jobstatus.Monitor { return s.monitor }

// Plugins returns the plugin list the steps were last composed from.
func (s *Session) Plugins() []*plugin.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*plugin.Descriptor(nil), s.plugins...)
}

// Start resolves the plugins and composes a fresh wizard.
func (s *Session) Start(ctx context.Context) error {
	plugins, err := s.registry.Resolve(ctx)
	if err != nil {
		return err
	}
	steps, _, err := s.composer.Recompose(plugins)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.plugins = plugins
	s.mu.Unlock()

	s.machine.Reset(steps)
	s.syncMonitor()
	s.logger.Info("session started", "plugins", len(plugins), "steps", len(steps))
	return nil
}

// Refresh re-resolves the plugins. When the plugin list changed identity the
// steps are recomposed and every in-progress edit is discarded. It reports
// whether the wizard was reset.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	s.registry.Invalidate()
	plugins, err := s.registry.Resolve(ctx)
	if err != nil {
		return false, err
	}
	steps, changed, err := s.composer.Recompose(plugins)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	s.mu.Lock()
	s.plugins = plugins
	s.mu.Unlock()

	s.machine.Reset(steps)
	s.syncMonitor()
	s.logger.Info("plugins changed, wizard recomposed", "fingerprint", s.composer.Fingerprint())
	return true, nil
}

// Watch refreshes the session whenever the plugin source reports a change,
// calling onReset after each recomposition. Sources that cannot watch are
// ignored.
func (s *Session) Watch(ctx context.Context, onReset func()) error {
	w, ok := s.source.(Watcher)
	if !ok {
		s.logger.Debug("plugin source does not support watching")
		return nil
	}
	return w.Watch(ctx, func() {
		changed, err := s.Refresh(ctx)
		if err != nil {
			s.logger.Warn("plugin refresh failed", "error", err.Error())
			return
		}
		if changed && onReset != nil {
			onReset()
		}
	})
}

// Resume loads a submitted job read-only and follows its status. The session
// must have been started.
func (s *Session) Resume(ctx context.Context, jobID string) error {
	rec, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	s.machine.Hydrate(jobID, rec.StepsData)

	review := s.machine.StepIndex(calc.StepReview)
	if err := s.machine.SetTabData(review, calc.TabLabel, wizard.Data{calc.KeyJobID: jobID}); err != nil {
		return fmt.Errorf("record job id: %w", err)
	}
	status := s.machine.StepIndex(calc.StepStatus)
	if rec.ProcessStatus != nil {
		_ = s.machine.SetTabData(status, calc.TabJobStatus, wizard.Data{calc.KeyLines: rec.ProcessStatus.Lines()})
	}
	if rec.Structure != nil {
		_ = s.machine.SetTabData(status, calc.TabFinalStructure, wizard.Data{calc.KeyFinal: rec.Structure})
	}

	s.logger.WithJob(jobID).Info("job resumed", "finished", rec.Finished())
	s.syncMonitor()
	return nil
}

// SetTabData merges data into a tab. Changing the job id restarts the
// monitor.
func (s *Session) SetTabData(stepIndex int, tab string, data wizard.Data) error {
	if err := s.machine.SetTabData(stepIndex, tab, data); err != nil {
		return err
	}
	s.syncMonitor()
	return nil
}

// Confirm confirms a step. When the review step becomes active its label
// defaults to the formula of the selected structure.
func (s *Session) Confirm(stepIndex int) bool {
	if !s.machine.Confirm(stepIndex) {
		return false
	}
	review := s.machine.StepIndex(calc.StepReview)
	if s.machine.ActiveStep() == review {
		s.fillDefaultLabel(review)
	}
	return true
}

// Modify reopens a step. Reopening a step upstream of the submission drops
// the job id, which stops the monitor.
func (s *Session) Modify(stepIndex int) bool {
	if !s.machine.Modify(stepIndex) {
		return false
	}
	s.syncMonitor()
	return true
}

// Payload returns what Submit would send.
func (s *Session) Payload() wizard.Payload {
	return calc.SubmissionPayload(s.machine.Steps())
}

// Submit sends the wizard to the job service, records the job id, confirms
// the review step and starts following the job.
func (s *Session) Submit(ctx context.Context) (string, error) {
	review := s.machine.StepIndex(calc.StepReview)
	if !s.machine.Actionable(review) {
		return "", ErrNotReady
	}
	if id := s.JobID(); id != "" {
		return "", fmt.Errorf("already submitted as job %s: %w", id, ErrNotReady)
	}
	s.fillDefaultLabel(review)

	jobID, err := s.jobs.Submit(ctx, s.Payload())
	if err != nil {
		s.logger.Warn("submission failed", "error", err.Error())
		return "", err
	}

	if err := s.machine.SetTabData(review, calc.TabLabel, wizard.Data{calc.KeyJobID: jobID}); err != nil {
		return jobID, fmt.Errorf("record job id: %w", err)
	}
	s.machine.Confirm(review)
	s.logger.WithJob(jobID).Info("job submitted")
	s.bus.Publish(event.NewJobSubmittedEvent(jobID))
	s.syncMonitor()
	return jobID, nil
}

// JobID returns the id of the submitted job, or "".
func (s *Session) JobID() string {
	v, ok := s.machine.Lookup(calc.JobRef)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Close stops the monitor. The session cannot be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.monitor.Stop()
	s.logger.Info("session closed")
}

func (s *Session) fillDefaultLabel(review int) {
	d, _ := s.machine.TabData(review, calc.TabLabel)
	if label, _ := d[calc.KeyLabel].(string); label != "" {
		return
	}
	if def := calc.DefaultLabel(s.machine.Steps()); def != "" {
		_ = s.machine.SetTabData(review, calc.TabLabel, wizard.Data{calc.KeyLabel: def})
	}
}

// syncMonitor points the monitor at the current job id.
func (s *Session) syncMonitor() {
	id := s.JobID()

	s.mu.Lock()
	if s.closed || id == s.monitored {
		s.mu.Unlock()
		return
	}
	s.monitored = id
	s.mu.Unlock()

	s.monitor.Start(id)
}

func (s *Session) current(jobID string) (int, bool) {
	s.mu.Lock()
	same := jobID == s.monitored
	s.mu.Unlock()
	if !same {
		return 0, false
	}
	i := s.machine.StepIndex(calc.StepStatus)
	return i, i >= 0
}

func (s *Session) onStatus(jobID string, tree *jobstatus.Tree) {
	status, ok := s.current(jobID)
	if !ok {
		return
	}
	_ = s.machine.SetTabData(status, calc.TabJobStatus, wizard.Data{calc.KeyLines: tree.Lines()})
}

func (s *Session) onStatusError(jobID string, err error) {
	status, ok := s.current(jobID)
	if !ok {
		return
	}
	_ = s.machine.SetTabData(status, calc.TabJobStatus, wizard.Data{
		calc.KeyError: "Failed to fetch job status: " + err.Error(),
	})
}

func (s *Session) onFinished(jobID string, _ *jobstatus.Tree) {
	status, ok := s.current(jobID)
	if !ok {
		return
	}
	_ = s.machine.SetTabData(status, calc.TabJobStatus, wizard.Data{wizard.StatusKey: wizard.StatusFinished})

	ctx, cancel := context.WithTimeout(s.ctx, recordTimeout)
	defer cancel()
	rec, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		s.logger.WithJob(jobID).Warn("final record fetch failed", "error", err.Error())
		return
	}
	if rec.Structure != nil {
		_ = s.machine.SetTabData(status, calc.TabFinalStructure, wizard.Data{calc.KeyFinal: rec.Structure})
	}
}
