package session

import (
	"errors"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// State is the phase of a play session.
type State string

const (
	StateResolving           State = "resolving"
	StateNotFound            State = "not_found"
	StatePreflightRedirected State = "preflight_redirected"
	StateLoading             State = "loading"
	StatePlaying             State = "playing"
	StateFailed              State = "failed"
)

// Reason explains a failed session.
type Reason string

const (
	ReasonEmbedBlocked    Reason = "embed_blocked"
	ReasonFrameLoadFailed Reason = "frame_load_failed"
)

// EventKind tells listeners what happened.
type EventKind string

const (
	// EventState is emitted after every state change.
	EventState EventKind = "state"
	// EventOpenExternal asks the viewer to open URL in a new browsing context.
	EventOpenExternal EventKind = "open_external"
	// EventExitFullscreen asks the viewer to leave fullscreen.
	EventExitFullscreen EventKind = "exit_fullscreen"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrClosed is returned for actions on a session the viewer navigated away from.
	ErrClosed = errors.New("session closed")
	// ErrSessionNotFound is returned by the manager for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID             string       `json:"id"`
	GameID         string       `json:"gameId"`
	Game           *domain.Game `json:"game,omitempty"`
	State          State        `json:"state"`
	Reason         Reason       `json:"reason,omitempty"`
	Attempt        uint64       `json:"attempt"`
	Fullscreen     bool         `json:"fullscreen"`
	ExternalOpened bool         `json:"externalOpened"`
	Closed         bool         `json:"closed"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Event is delivered to a session listener, in transition order.
type Event struct {
	Kind     EventKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	Snapshot Snapshot  `json:"session"`
}

// Listener receives session events. It runs while the session is locked
// and must not call back into the session.
type Listener func(Event)

// terminal reports whether no transition other than Close leaves s.
func (s State) terminal() bool {
	return s == StateNotFound
}

// framed reports whether the embed is mounted.
func (s State) framed() bool {
	return s == StateLoading || s == StatePlaying
}
