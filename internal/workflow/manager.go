package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"newscast/internal/catalog"
	"newscast/internal/config"
	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/notifications"
	"newscast/internal/services"
)

// Manager runs episode requests through collection, scripting, narration, and
// assembly. Each episode is owned by a single run loop; segment workers
// report transitions to that loop over a channel.
type Manager struct {
	cfg      *config.Config
	stages   Stages
	store    *episode.Store
	catalog  *catalog.Store
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*run
	closed bool
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a manager over the given stages. The catalog store
// stays owned by the caller.
func NewManager(cfg *config.Config, stages Stages, store *catalog.Store, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("workflow: catalog store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	baseCtx, stop := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		stages:   stages,
		store:    episode.NewStore(episode.Layout{Root: cfg.Paths.EpisodesDir}, cfg.LockPath()),
		catalog:  store,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "workflow-manager"),
		now:      time.Now,
		baseCtx:  baseCtx,
		stop:     stop,
		runs:     make(map[string]*run),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// StartEpisode allocates an episode for topic with the given segment count and
// begins generating it in the background. The episode is persisted in
// running state before the request id is returned.
func (m *Manager) StartEpisode(ctx context.Context, topic episode.TopicSpec, segments int) (string, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return "", errors.New("workflow: manager is closed")
	}

	req, err := episode.NewRequest(topic, segments, m.now())
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "workflow", "start", "invalid episode request", err)
	}
	number, err := m.store.Allocate()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "workflow", "start", "allocate episode number", err)
	}
	layout := m.store.Layout()
	lock := flock.New(layout.RunLockPath(number))
	if ok, err := lock.TryLock(); err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("%s is locked by another process", episode.EpisodeID(number))
		}
		return "", services.Wrap(services.ErrConfiguration, "workflow", "start", "lock episode", err)
	}

	ep := episode.New(req, number, layout, m.now())
	if err := m.store.Save(ep); err != nil {
		_ = lock.Unlock()
		return "", services.Wrap(services.ErrConfiguration, "workflow", "start", "write episode info", err)
	}
	if err := m.catalog.Upsert(ctx, ep.Snapshot()); err != nil {
		_ = lock.Unlock()
		return "", services.Wrap(services.ErrConfiguration, "workflow", "start", "index episode", err)
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	r := &run{
		requestID: req.RequestID,
		number:    number,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.publish(ep)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		_ = lock.Unlock()
		return "", errors.New("workflow: manager is closed")
	}
	m.runs[req.RequestID] = r
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer func() { _ = lock.Unlock() }()
		m.execute(runCtx, r, ep)
	}()
	return req.RequestID, nil
}

// Cancel abandons in-flight work for requestID. Finished segments are still
// assembled. Cancelling a finished episode is a no-op.
func (m *Manager) Cancel(requestID string) error {
	m.mu.Lock()
	r, ok := m.runs[requestID]
	m.mu.Unlock()
	if ok {
		r.cancel()
		return nil
	}
	if _, err := m.Status(context.Background(), requestID); err != nil {
		return err
	}
	return nil
}

// Close cancels every in-flight episode and waits for each to reach a
// terminal state.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()
}

func (m *Manager) forget(r *run) {
	m.mu.Lock()
	delete(m.runs, r.requestID)
	m.mu.Unlock()
}

func (m *Manager) active(requestID string) (*run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[requestID]
	return r, ok
}
