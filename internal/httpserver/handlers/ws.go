package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/session"
)

const wsWriteTimeout = 5 * time.Second

// SessionEvents streams the events of a session over a WebSocket.
// The first message is the current state; the stream ends when the session closes.
func SessionEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s, err := d.Sessions.Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}

		events, unsubscribe, err := d.Sessions.Subscribe(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		defer unsubscribe()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     d.AllowedHosts,
			InsecureSkipVerify: len(d.AllowedHosts) == 0,
		})
		if err != nil {
			d.Logger.Debug("websocket accept failed",
				logger.String("session_id", id),
				logger.Error(err))
			return
		}
		defer conn.Close(websocket.StatusInternalError, "")

		// Viewers only listen; CloseRead handles control frames and
		// cancels ctx when the peer goes away.
		ctx := conn.CloseRead(r.Context())

		if err := writeEvent(ctx, conn, session.Event{Kind: session.EventState, Snapshot: s.Snapshot()}); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "session closed")
					return
				}
				if err := writeEvent(ctx, conn, ev); err != nil {
					if !errors.Is(err, context.Canceled) {
						d.Logger.Debug("websocket write failed",
							logger.String("session_id", id),
							logger.Error(err))
					}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev session.Event) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
