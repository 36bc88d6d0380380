package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/session"
)

type createSessionRequest struct {
	GameID string `json:"gameId"`
}

type frameRequest struct {
	Attempt uint64 `json:"attempt"`
	Event   string `json:"event"` // "load" | "error"
}

type frameResponse struct {
	Accepted bool             `json:"accepted"`
	Session  session.Snapshot `json:"session"`
}

type fullscreenResponse struct {
	Fullscreen bool             `json:"fullscreen"`
	Session    session.Snapshot `json:"session"`
}

type openExternalResponse struct {
	URL     string           `json:"url"`
	Session session.Snapshot `json:"session"`
}

// CreateSession opens a play session for a game. Resolution runs in the
// background; watch the session to follow it.
func CreateSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.GameID = strings.TrimSpace(req.GameID)
		if req.GameID == "" {
			writeError(w, http.StatusBadRequest, "gameId is required")
			return
		}

		snap := d.Sessions.Create(req.GameID)
		w.Header().Set("Location", "/api/sessions/"+snap.ID)
		writeJSON(w, http.StatusCreated, snap)
	}
}

// GetSession returns the current snapshot of a session.
func GetSession(d deps.Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

// CloseSession is the viewer navigating away.
func CloseSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sessions.Close(chi.URLParam(r, "id")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReloadSession remounts the embed under a new attempt.
func ReloadSession(d deps.Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		if err := s.Reload(); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

// ToggleFullscreen flips the fullscreen flag of a mounted embed.
func ToggleFullscreen(d deps.Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		on, err := s.ToggleFullscreen()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fullscreenResponse{Fullscreen: on, Session: s.Snapshot()})
	})
}

// OpenExternal is the manual "open in new tab" action.
func OpenExternal(d deps.Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		url, err := s.OpenExternal()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, openExternalResponse{URL: url, Session: s.Snapshot()})
	})
}

// FrameSignal relays the load or error signal of the embedded frame.
// Signals for a superseded attempt are answered with accepted=false.
func FrameSignal(d deps.Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		var req frameRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var accepted bool
		switch req.Event {
		case "load":
			accepted = s.FrameLoaded(req.Attempt)
		case "error":
			accepted = s.FrameFailed(req.Attempt)
		default:
			writeError(w, http.StatusBadRequest, `event must be "load" or "error"`)
			return
		}

		writeJSON(w, http.StatusOK, frameResponse{Accepted: accepted, Session: s.Snapshot()})
	})
}

func withSession(d deps.Deps, next func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		next(w, r, s)
	}
}
