package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salient/internal/config"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/metrics"
	"salient/internal/notifications"
	"salient/internal/stage"
)

// StageSet bundles the handlers the manager orchestrates.
type StageSet struct {
	Analyzer stage.Handler
}

// Manager coordinates job processing across a pool of workers.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	notifier     notifications.Service
	metrics      *metrics.Metrics
	heartbeat    *HeartbeatMonitor
	pollInterval time.Duration
	workers      int

	analyzer stage.Handler
	wake     chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *jobs.Job

	queueActive bool
	queueStart  time.Time
	batchDone   int
	batchFailed int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notification service built from config.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = collector
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifications.NewService(cfg),
		pollInterval: cfg.PollInterval(),
		workers:      cfg.Workflow.Workers,
		heartbeat:    NewHeartbeatMonitor(store, logger, cfg.HeartbeatInterval(), cfg.HeartbeatTimeout()),
		wake:         make(chan struct{}, 1),
	}
	if m.workers <= 0 {
		m.workers = 1
	}
	if m.pollInterval <= 0 {
		m.pollInterval = time.Second
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConfigureStages registers the stage handlers.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzer = set.Analyzer
}

// Notify wakes an idle worker so a freshly queued job starts without waiting
// for the next poll.
func (m *Manager) Notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
