package catalog

import (
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// Status tells whether a query has resolved yet.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
)

// Source tells which collaborator produced a result.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Kind names a list query that can be peeked without blocking.
type Kind string

const (
	KindAll      Kind = "all"
	KindFeatured Kind = "featured"
)

// Snapshot is the observable state of one list query.
//
// A pending snapshot carries no games. A ready snapshot always carries a
// non-nil slice, possibly empty.
type Snapshot struct {
	Status    Status        `json:"status"`
	Source    Source        `json:"source,omitempty"`
	Games     []domain.Game `json:"games"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Stale     bool          `json:"stale"`
}

// pending is returned by Peek before the first resolution.
func pending() Snapshot {
	return Snapshot{Status: StatusPending, Games: []domain.Game{}}
}

// entry is one resolved query kept in memory.
type entry struct {
	games     []domain.Game
	source    Source
	fetchedAt time.Time
}

func (e entry) snapshot(now time.Time, window time.Duration) Snapshot {
	games := make([]domain.Game, len(e.games))
	copy(games, e.games)
	return Snapshot{
		Status:    StatusReady,
		Source:    e.source,
		Games:     games,
		FetchedAt: e.fetchedAt,
		Stale:     now.Sub(e.fetchedAt) > window,
	}
}

// gameEntry is one resolved by-id lookup kept in memory.
type gameEntry struct {
	game      domain.Game
	source    Source
	fetchedAt time.Time
}
