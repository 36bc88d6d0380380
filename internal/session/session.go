package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// Config wires a Session to its collaborators.
type Config struct {
	Resolver *domain.EmbedResolver
	Listener Listener
	Now      func() time.Time
}

// Session drives the lifecycle of one game view.
//
// Every transition is serialised by mu. Frame signals carry the attempt id
// they were issued for; signals for a superseded attempt are ignored.
type Session struct {
	mu       sync.Mutex
	id       string
	gameID   string
	resolver *domain.EmbedResolver
	listener Listener
	now      func() time.Time

	state      State
	reason     Reason
	game       *domain.Game
	attempt    uint64
	fullscreen bool
	autoOpened bool
	closed     bool
	updatedAt  time.Time
}

// New returns a session in the resolving state.
func New(id, gameID string, cfg Config) *Session {
	if cfg.Resolver == nil {
		cfg.Resolver = domain.NewEmbedResolver(domain.DefaultEmbedDenylist)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Session{
		id:        id,
		gameID:    gameID,
		resolver:  cfg.Resolver,
		listener:  cfg.Listener,
		now:       cfg.Now,
		state:     StateResolving,
		updatedAt: cfg.Now(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) GameID() string { return s.gameID }

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Resolve hands the looked-up record to the session and runs the embed preflight.
//
// Resolving again with the same embed URL is a no-op. A different embed URL
// starts a fresh attempt.
func (s *Session) Resolve(game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state.terminal() {
		return fmt.Errorf("resolve from %s: %w", s.state, ErrInvalidTransition)
	}
	if s.state != StateResolving && s.game != nil && s.game.EmbedURL == game.EmbedURL {
		return nil
	}

	g := game
	s.game = &g
	s.preflightLocked()
	return nil
}

// ResolveNotFound records that the game id matches no record.
func (s *Session) ResolveNotFound() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != StateResolving {
		return fmt.Errorf("not found from %s: %w", s.state, ErrInvalidTransition)
	}

	s.setStateLocked(StateNotFound, "")
	return nil
}

// FrameLoaded reports the explicit load signal of the embedded frame.
func (s *Session) FrameLoaded(attempt uint64) bool {
	return s.settle(attempt, StatePlaying, "")
}

// FrameSettled reports that the frame stayed up for the load grace period
// without an error. It counts as a successful load.
func (s *Session) FrameSettled(attempt uint64) bool {
	return s.settle(attempt, StatePlaying, "")
}

// FrameFailed reports the error signal of the embedded frame.
// There is no automatic retry.
func (s *Session) FrameFailed(attempt uint64) bool {
	return s.settle(attempt, StateFailed, ReasonFrameLoadFailed)
}

func (s *Session) settle(attempt uint64, next State, reason Reason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateLoading || attempt != s.attempt {
		return false
	}

	if next == StateFailed {
		s.exitFullscreenLocked()
	}
	s.setStateLocked(next, reason)
	return true
}

// Reload remounts the frame under a new attempt id. The preflight runs
// again, but the automatic external open never fires twice.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	switch s.state {
	case StateFailed, StatePlaying, StateLoading:
	default:
		return fmt.Errorf("reload from %s: %w", s.state, ErrInvalidTransition)
	}

	s.preflightLocked()
	return nil
}

// ToggleFullscreen flips the fullscreen flag while the frame is mounted.
func (s *Session) ToggleFullscreen() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if !s.state.framed() {
		return false, fmt.Errorf("fullscreen from %s: %w", s.state, ErrInvalidTransition)
	}

	s.fullscreen = !s.fullscreen
	s.touchLocked()
	s.emitLocked(EventState, "")
	return s.fullscreen, nil
}

// OpenExternal is the user-initiated "open in new tab" action.
// It is available in every state once a record is resolved.
func (s *Session) OpenExternal() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	if s.game == nil {
		return "", fmt.Errorf("open external from %s: %w", s.state, ErrInvalidTransition)
	}

	s.touchLocked()
	s.emitLocked(EventOpenExternal, s.game.EmbedURL)
	return s.game.EmbedURL, nil
}

// Close ends the session. The in-flight attempt is cancelled and every
// later signal is ignored. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.exitFullscreenLocked()
	s.closed = true
	s.attempt++
	s.touchLocked()
	s.emitLocked(EventState, "")
}

func (s *Session) preflightLocked() {
	s.attempt++

	if !s.resolver.IsBlocked(s.game.EmbedURL) {
		s.setStateLocked(StateLoading, "")
		return
	}

	s.setStateLocked(StatePreflightRedirected, "")
	if !s.autoOpened {
		s.autoOpened = true
		s.emitLocked(EventOpenExternal, s.game.EmbedURL)
	}
	s.exitFullscreenLocked()
	s.setStateLocked(StateFailed, ReasonEmbedBlocked)
}

func (s *Session) exitFullscreenLocked() {
	if !s.fullscreen {
		return
	}
	s.fullscreen = false
	s.emitLocked(EventExitFullscreen, "")
}

func (s *Session) setStateLocked(state State, reason Reason) {
	s.state = state
	s.reason = reason
	s.touchLocked()
	s.emitLocked(EventState, "")
}

func (s *Session) touchLocked() {
	s.updatedAt = s.now()
}

func (s *Session) emitLocked(kind EventKind, url string) {
	if s.listener == nil {
		return
	}
	s.listener(Event{Kind: kind, URL: url, Snapshot: s.snapshotLocked()})
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		GameID:         s.gameID,
		State:          s.state,
		Reason:         s.reason,
		Attempt:        s.attempt,
		Fullscreen:     s.fullscreen,
		ExternalOpened: s.autoOpened,
		Closed:         s.closed,
		UpdatedAt:      s.updatedAt,
	}
	if s.game != nil {
		g := *s.game
		snap.Game = &g
	}
	return snap
}
