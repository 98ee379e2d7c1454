package jobstatus

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/calcwizard/internal/event"
	"github.com/Iron-Ham/calcwizard/internal/logging"
)

// DefaultInterval is the time between status queries.
const DefaultInterval = 5 * time.Second

// State is the monitor's lifecycle state.
type State int

// Monitor states.
const (
	StateIdle State = iota
	StatePolling
	StateFinished
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Fetcher queries the current status tree of a job.
type Fetcher interface {
	ProcessStatus(ctx context.Context, jobID string) (*Tree, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, jobID string) (*Tree, error)

// ProcessStatus calls f.
func (f FetchFunc) ProcessStatus(ctx context.Context, jobID string) (*Tree, error) {
	return f(ctx, jobID)
}

// Monitor polls one job at a time. A started job is queried immediately
// and then every interval until its tree is finished, a query fails, or the
// monitor is stopped or restarted. A failed query is reported once and not
// retried.
//
// Callbacks run on the polling goroutine and must not call Start or Stop.
type Monitor struct {
	fetcher  Fetcher
	interval time.Duration
	maxDepth int
	logger   *logging.Logger
	bus      *event.Bus

	onUpdate   func(jobID string, tree *Tree)
	onError    func(jobID string, err error)
	onFinished func(jobID string, tree *Tree)

	ctl sync.Mutex // serializes Start and Stop

	mu     sync.Mutex
	state  State
	jobID  string
	last   *Tree
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMaxDepth sets the depth bound of the finished check.
func WithMaxDepth(depth int) MonitorOption {
	return func(m *Monitor) {
		m.maxDepth = depth
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(l *logging.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEventBus publishes job events on bus.
func WithEventBus(bus *event.Bus) MonitorOption {
	return func(m *Monitor) {
		m.bus = bus
	}
}

// OnUpdate is called after every successful query.
func OnUpdate(fn func(jobID string, tree *Tree)) MonitorOption {
	return func(m *Monitor) {
		m.onUpdate = fn
	}
}

// OnError is called once when a query fails.
func OnError(fn func(jobID string, err error)) MonitorOption {
	return func(m *Monitor) {
		m.onError = fn
	}
}

// OnFinished is called once when the job's tree is finished.
func OnFinished(fn func(jobID string, tree *Tree)) MonitorOption {
	return func(m *Monitor) {
		m.onFinished = fn
	}
}

// NewMonitor creates an idle monitor.
func NewMonitor(fetcher Fetcher, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		fetcher:  fetcher,
		interval: DefaultInterval,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins monitoring jobID, stopping any current poll first. An empty
// jobID only stops the monitor.
func (m *Monitor) Start(jobID string) {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	m.stop()
	if jobID == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.state = StatePolling
	m.jobID = jobID
	m.last = nil
	m.err = nil
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.logger.WithJob(jobID).Info("status monitor started", "interval", m.interval.String())
	go m.run(ctx, jobID, done)
}

// Stop cancels the current poll and waits for it to exit. Safe to call
// repeatedly and on an idle monitor.
func (m *Monitor) Stop() {
	m.ctl.Lock()
	defer m.ctl.Unlock()
	m.stop()
}

func (m *Monitor) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	if m.state == StatePolling {
		m.state = StateIdle
	}
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done returns a channel closed when the current poll exits, or nil when
// nothing has been started.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// State returns the monitor's state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// JobID returns the job being (or last) monitored.
func (m *Monitor) JobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobID
}

// Last returns the most recent tree, or nil.
func (m *Monitor) Last() *Tree {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Err returns the error that halted polling, or nil.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Monitor) run(ctx context.Context, jobID string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if m.poll(ctx, jobID) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll runs one query and reports whether polling should end.
func (m *Monitor) poll(ctx context.Context, jobID string) bool {
	logger := m.logger.WithJob(jobID)
	tree, err := m.fetcher.ProcessStatus(ctx, jobID)
	if ctx.Err() != nil {
		return true
	}

	if err != nil {
		m.mu.Lock()
		m.state = StateFailed
		m.err = err
		m.mu.Unlock()

		logger.Warn("status query failed, polling halted", "error", err.Error())
		if m.bus != nil {
			m.bus.Publish(event.NewJobFailedEvent(jobID, err.Error()))
		}
		if m.onError != nil {
			m.onError(jobID, err)
		}
		return true
	}

	finished := IsFinished(tree, m.maxDepth)
	m.mu.Lock()
	m.last = tree
	if finished {
		m.state = StateFinished
	}
	m.mu.Unlock()

	logger.Debug("status polled", "finished", finished)
	if m.bus != nil {
		m.bus.Publish(event.NewJobStatusEvent(jobID, tree.Lines(), finished))
	}
	if m.onUpdate != nil {
		m.onUpdate(jobID, tree)
	}
	if !finished {
		return false
	}

	logger.Info("job finished")
	if m.bus != nil {
		m.bus.Publish(event.NewJobFinishedEvent(jobID))
	}
	if m.onFinished != nil {
		m.onFinished(jobID, tree)
	}
	return true
}
