package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/arcade/internal/catalog"
	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/logger"
)

// subscriberBuffer bounds how far a slow watcher may lag before events are dropped.
const subscriberBuffer = 32

// Catalog resolves game ids for new sessions.
type Catalog interface {
	GetByID(ctx context.Context, id string) (domain.Game, catalog.Source, error)
}

// ManagerOptions tune a Manager.
type ManagerOptions struct {
	// FrameLoadGrace infers a successful load when no frame error arrives in
	// time. Zero disables inference.
	FrameLoadGrace time.Duration
	Now            func() time.Time
}

// Manager owns the live sessions of the process.
//
// Lock order is session -> subsMu/timersMu. The manager never calls into a
// session while holding one of its own locks.
type Manager struct {
	catalog  Catalog
	resolver *domain.EmbedResolver
	logger   logger.Logger
	grace    time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*handle

	subsMu  sync.Mutex
	subs    map[string]map[uint64]chan Event
	nextSub uint64

	timersMu sync.Mutex
	timers   map[string]graceTimer

	resolving sync.WaitGroup
}

// graceTimer is the pending inferred load of one loading attempt.
type graceTimer struct {
	timer   *time.Timer
	attempt uint64
}

type handle struct {
	session *Session
	cancel  context.CancelFunc
}

// NewManager creates a session manager.
func NewManager(cat Catalog, resolver *domain.EmbedResolver, log logger.Logger, opts ManagerOptions) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		catalog:  cat,
		resolver: resolver,
		logger:   log,
		grace:    opts.FrameLoadGrace,
		now:      opts.Now,
		sessions: make(map[string]*handle),
		subs:     make(map[string]map[uint64]chan Event),
		timers:   make(map[string]graceTimer),
	}
}

// Create opens a session for gameID and resolves it in the background.
// The returned snapshot is in the resolving state.
func (m *Manager) Create(gameID string) Snapshot {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s := New(id, gameID, Config{
		Resolver: m.resolver,
		Listener: func(ev Event) { m.dispatch(id, ev) },
		Now:      m.now,
	})

	m.mu.Lock()
	m.sessions[id] = &handle{session: s, cancel: cancel}
	m.mu.Unlock()

	m.logger.Info("session created",
		logger.String("session_id", id),
		logger.String("game_id", gameID))

	m.resolving.Add(1)
	go func() {
		defer m.resolving.Done()
		m.resolve(ctx, s)
	}()

	return s.Snapshot()
}

func (m *Manager) resolve(ctx context.Context, s *Session) {
	game, source, err := m.catalog.GetByID(ctx, s.GameID())
	if ctx.Err() != nil {
		return
	}

	log := m.logger.With(logger.String("session_id", s.ID()), logger.String("game_id", s.GameID()))

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("game lookup failed", logger.Error(err))
		}
		if err := s.ResolveNotFound(); err != nil && !errors.Is(err, ErrClosed) {
			log.Warn("failed to mark session not found", logger.Error(err))
		}
		return
	}

	if err := s.Resolve(game); err != nil && !errors.Is(err, ErrClosed) {
		log.Warn("failed to resolve session", logger.Error(err))
		return
	}

	snap := s.Snapshot()
	log.Info("session resolved",
		logger.String("source", string(source)),
		logger.String("state", string(snap.State)),
		logger.Bool("external_opened", snap.ExternalOpened))
}

// Wait blocks until every pending resolution has finished.
func (m *Manager) Wait() {
	m.resolving.Wait()
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	h, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return h.session, nil
}

// Close ends a session and releases its watchers.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	h, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	h.cancel()
	h.session.Close()
	m.stopTimer(id)
	m.dropSubscribers(id)

	m.logger.Debug("session closed", logger.String("session_id", id))
	return nil
}

// CloseAll ends every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CollectIdle closes sessions without activity for longer than ttl.
// Sessions with a live watcher are kept.
func (m *Manager) CollectIdle(now time.Time, ttl time.Duration) int {
	m.mu.RLock()
	candidates := make([]*handle, 0, len(m.sessions))
	for _, h := range m.sessions {
		candidates = append(candidates, h)
	}
	m.mu.RUnlock()

	collected := 0
	for _, h := range candidates {
		id := h.session.ID()
		if m.watched(id) {
			continue
		}
		if now.Sub(h.session.Snapshot().UpdatedAt) <= ttl {
			continue
		}
		if err := m.Close(id); err == nil {
			collected++
		}
	}
	return collected
}

// Subscribe streams the events of a session. The returned function
// unsubscribes; the channel is closed when the session is closed.
func (m *Manager) Subscribe(id string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	// Registering under m.mu orders it against Close: either the session is
	// gone and nothing is registered, or dropSubscribers sees the channel.
	m.mu.RLock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.RUnlock()
		return nil, nil, ErrSessionNotFound
	}
	m.subsMu.Lock()
	m.nextSub++
	subID := m.nextSub
	if m.subs[id] == nil {
		m.subs[id] = make(map[uint64]chan Event)
	}
	m.subs[id][subID] = ch
	m.subsMu.Unlock()
	m.mu.RUnlock()

	unsubscribe := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if c, ok := m.subs[id][subID]; ok {
			delete(m.subs[id], subID)
			if len(m.subs[id]) == 0 {
				delete(m.subs, id)
			}
			close(c)
		}
	}

	return ch, unsubscribe, nil
}

func (m *Manager) watched(id string) bool {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	return len(m.subs[id]) > 0
}

func (m *Manager) dropSubscribers(id string) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, c := range m.subs[id] {
		close(c)
	}
	delete(m.subs, id)
}

// dispatch runs under the session lock.
func (m *Manager) dispatch(id string, ev Event) {
	if ev.Kind == EventState {
		m.armTimer(id, ev.Snapshot)
	}

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, c := range m.subs[id] {
		select {
		case c <- ev:
		default:
			m.logger.Debug("dropping session event for slow watcher",
				logger.String("session_id", id),
				logger.String("kind", string(ev.Kind)))
		}
	}
}

// armTimer schedules the inferred load for a fresh loading attempt.
// Further events of the same loading attempt (a fullscreen toggle) keep
// the running timer.
func (m *Manager) armTimer(id string, snap Snapshot) {
	if m.grace <= 0 {
		return
	}

	m.timersMu.Lock()
	defer m.timersMu.Unlock()

	loading := snap.State == StateLoading && !snap.Closed
	if gt, ok := m.timers[id]; ok {
		if loading && gt.attempt == snap.Attempt {
			return
		}
		gt.timer.Stop()
		delete(m.timers, id)
	}
	if !loading {
		return
	}

	attempt := snap.Attempt
	t := time.AfterFunc(m.grace, func() {
		s, err := m.Get(id)
		if err != nil {
			return
		}
		if s.FrameSettled(attempt) {
			m.logger.Debug("frame load inferred",
				logger.String("session_id", id),
				logger.Uint64("attempt", attempt))
		}
	})
	m.timers[id] = graceTimer{timer: t, attempt: attempt}
}

func (m *Manager) stopTimer(id string) {
	m.timersMu.Lock()
	defer m.timersMu.Unlock()
	if gt, ok := m.timers[id]; ok {
		gt.timer.Stop()
		delete(m.timers, id)
	}
}
