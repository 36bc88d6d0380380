package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	redisstore "github.com/MrSnakeDoc/arcade/internal/store/redis"
)

const (
	// DefaultFreshnessWindow applies to list queries.
	DefaultFreshnessWindow = 5 * time.Minute
	// DefaultByIDFreshnessWindow applies to single game lookups.
	DefaultByIDFreshnessWindow = 10 * time.Minute
	// DefaultFetchTimeout bounds one shared fetch (cache and remote round trips).
	DefaultFetchTimeout = 10 * time.Second
)

// Remote is the backend catalog service. Any error counts as unavailable.
type Remote interface {
	GetAllGames(ctx context.Context) ([]domain.Game, error)
	GetFeaturedGames(ctx context.Context) ([]domain.Game, error)
	GetGameByID(ctx context.Context, id string) (domain.Game, error)
	SearchGames(ctx context.Context, term string) ([]domain.Game, error)
}

// Fallback is the static local set served when the remote has nothing.
type Fallback interface {
	Games() []domain.Game
	GetGame(id string) (domain.Game, bool)
}

// SharedCache mirrors remote results across instances.
type SharedCache interface {
	GetGames(ctx context.Context, key string) ([]domain.Game, bool, error)
	SaveGames(ctx context.Context, key string, games []domain.Game, ttl time.Duration) error
	GetGame(ctx context.Context, id string) (domain.Game, bool, error)
	SaveGame(ctx context.Context, game domain.Game, ttl time.Duration) error
}

// Options tune a Store. Zero values select the defaults.
type Options struct {
	FreshnessWindow     time.Duration
	ByIDFreshnessWindow time.Duration
	FetchTimeout        time.Duration
	Cache               SharedCache
	Now                 func() time.Time
}

// Store holds the best-known catalog. Every read succeeds: remote failures
// degrade to the fallback set and are only logged.
type Store struct {
	remote   Remote
	fallback Fallback
	cache    SharedCache
	logger   logger.Logger

	freshness     time.Duration
	byIDFreshness time.Duration
	fetchTimeout  time.Duration
	now           func() time.Time

	group singleflight.Group
	bg    sync.WaitGroup

	// gen is bumped by Invalidate. Fetches started under an older
	// generation never write their result.
	mu    sync.RWMutex
	gen   uint64
	lists map[string]entry
	games map[string]gameEntry
}

// NewStore creates a catalog store. remote may be nil, in which case every
// query resolves from the fallback.
func NewStore(remote Remote, fallback Fallback, log logger.Logger, opts Options) *Store {
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = DefaultFreshnessWindow
	}
	if opts.ByIDFreshnessWindow <= 0 {
		opts.ByIDFreshnessWindow = DefaultByIDFreshnessWindow
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		remote:        remote,
		fallback:      fallback,
		cache:         opts.Cache,
		logger:        log,
		freshness:     opts.FreshnessWindow,
		byIDFreshness: opts.ByIDFreshnessWindow,
		fetchTimeout:  opts.FetchTimeout,
		now:           opts.Now,
		lists:         make(map[string]entry),
		games:         make(map[string]gameEntry),
	}
}

// ListAll returns the remote list when it is non-empty, else the whole fallback set.
// When ctx ends before a fetch completes, the last known result is returned,
// or a pending snapshot when there is none; the fetch itself carries on.
func (s *Store) ListAll(ctx context.Context) Snapshot {
	return s.list(ctx, redisstore.AllGamesKey(), s.fetchAll)
}

// ListFeatured returns the remote featured list when it is non-empty,
// else the featured subset of the fallback set.
func (s *Store) ListFeatured(ctx context.Context) Snapshot {
	return s.list(ctx, redisstore.FeaturedGamesKey(), s.fetchFeatured)
}

// Search returns the remote search result when it is non-empty, else the
// fallback set filtered by term. A blank term lists everything.
func (s *Store) Search(ctx context.Context, term string) Snapshot {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListAll(ctx)
	}
	return s.list(ctx, redisstore.SearchKey(term), func(ctx context.Context) entry {
		return s.fetchSearch(ctx, term)
	})
}

// Peek returns the current state of a list query without blocking.
//
// Before the first resolution it reports pending and starts a fetch in the
// background. A stale result is returned as is and refreshed in the background.
func (s *Store) Peek(kind Kind) Snapshot {
	key, fetch := s.kind(kind)

	s.mu.RLock()
	e, ok := s.lists[key]
	s.mu.RUnlock()

	if !ok {
		s.refresh(key, fetch)
		return pending()
	}

	snap := e.snapshot(s.now(), s.freshness)
	if snap.Stale {
		s.refresh(key, fetch)
	}
	return snap
}

// GetByID looks the game up remotely first, then in the fallback set.
// It returns domain.ErrNotFound only when both miss, and ctx.Err() when the
// caller gives up before the lookup completes.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Game, Source, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Game{}, "", domain.ErrNotFound
	}

	s.mu.RLock()
	e, ok := s.games[id]
	s.mu.RUnlock()
	if ok && s.now().Sub(e.fetchedAt) <= s.byIDFreshness {
		return e.game, e.source, nil
	}

	v, err := s.shared(ctx, "id:"+id, func(ctx context.Context, gen uint64) (interface{}, error) {
		return s.fetchByID(ctx, gen, id)
	})
	if err != nil {
		return domain.Game{}, "", err
	}

	ge := v.(gameEntry)
	return ge.game, ge.source, nil
}

// Warm fetches the list queries again regardless of freshness so views
// are neither pending nor stale.
func (s *Store) Warm(ctx context.Context) {
	all, ok := s.resolve(ctx, redisstore.AllGamesKey(), s.fetchAll)
	if !ok {
		return
	}
	featured, ok := s.resolve(ctx, redisstore.FeaturedGamesKey(), s.fetchFeatured)
	if !ok {
		return
	}

	s.logger.Info("catalog warmed",
		logger.String("source", string(all.source)),
		logger.Int("games", len(all.games)),
		logger.Int("featured", len(featured.games)))
}

// Invalidate drops every locally cached result. The next reads fetch again,
// and fetches already in flight are not recorded.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.lists = make(map[string]entry)
	s.games = make(map[string]gameEntry)
}

// Wait blocks until background refreshes started by Peek have finished.
func (s *Store) Wait() {
	s.bg.Wait()
}

func (s *Store) kind(kind Kind) (string, func(context.Context) entry) {
	if kind == KindFeatured {
		return redisstore.FeaturedGamesKey(), s.fetchFeatured
	}
	return redisstore.AllGamesKey(), s.fetchAll
}

func (s *Store) list(ctx context.Context, key string, fetch func(context.Context) entry) Snapshot {
	s.mu.RLock()
	e, ok := s.lists[key]
	s.mu.RUnlock()

	now := s.now()
	if ok && now.Sub(e.fetchedAt) <= s.freshness {
		return e.snapshot(now, s.freshness)
	}

	resolved, done := s.resolve(ctx, key, fetch)
	switch {
	case done:
		return resolved.snapshot(s.now(), s.freshness)
	case ok:
		return e.snapshot(s.now(), s.freshness)
	default:
		return pending()
	}
}

// resolve runs fetch once per key at a time and records the result.
// It reports false when ctx ended before the fetch completed.
func (s *Store) resolve(ctx context.Context, key string, fetch func(context.Context) entry) (entry, bool) {
	v, err := s.shared(ctx, key, func(ctx context.Context, gen uint64) (interface{}, error) {
		e := fetch(ctx)
		s.record(gen, func() { s.lists[key] = e })
		return e, nil
	})
	if err != nil {
		return entry{}, false
	}
	return v.(entry), true
}

// shared runs fn once per key and generation. fn runs detached from the
// caller's cancellation, bounded by the fetch timeout, so a caller that
// leaves never changes what the others receive. Each caller stops waiting
// when its own ctx ends.
func (s *Store) shared(ctx context.Context, key string, fn func(context.Context, uint64) (interface{}, error)) (interface{}, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	ch := s.group.DoChan(strconv.FormatUint(gen, 10)+":"+key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return fn(fetchCtx, gen)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// record applies write unless Invalidate ran since gen was read.
func (s *Store) record(gen uint64, write func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		write()
	}
}

func (s *Store) refresh(key string, fetch func(context.Context) entry) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.resolve(context.Background(), key, fetch)
	}()
}

func (s *Store) fetchAll(ctx context.Context) entry {
	games := s.remoteList(ctx, redisstore.AllGamesKey(), func(ctx context.Context) ([]domain.Game, error) {
		return s.remote.GetAllGames(ctx)
	})
	if len(games) > 0 {
		return s.entry(games, SourceRemote)
	}
	return s.entry(s.fallback.Games(), SourceFallback)
}

func (s *Store) fetchFeatured(ctx context.Context) entry {
	games := s.remoteList(ctx, redisstore.FeaturedGamesKey(), func(ctx context.Context) ([]domain.Game, error) {
		return s.remote.GetFeaturedGames(ctx)
	})
	if len(games) > 0 {
		return s.entry(games, SourceRemote)
	}
	return s.entry(domain.FeaturedOnly(s.fallback.Games()), SourceFallback)
}

func (s *Store) fetchSearch(ctx context.Context, term string) entry {
	games := s.remoteList(ctx, redisstore.SearchKey(term), func(ctx context.Context) ([]domain.Game, error) {
		return s.remote.SearchGames(ctx, term)
	})
	if len(games) > 0 {
		return s.entry(games, SourceRemote)
	}
	return s.entry(domain.Filter(s.fallback.Games(), term, domain.CategoryAll), SourceFallback)
}

// remoteList asks the shared cache, then the remote. Errors are logged and
// reported as an empty result so the caller falls back.
func (s *Store) remoteList(ctx context.Context, key string, call func(context.Context) ([]domain.Game, error)) []domain.Game {
	if s.remote == nil {
		return nil
	}

	if s.cache != nil {
		games, ok, err := s.cache.GetGames(ctx, key)
		if err != nil {
			s.logger.Warn("failed to read shared catalog cache",
				logger.String("key", key),
				logger.Error(err))
		} else if ok && len(games) > 0 {
			return domain.UniqueByID(games)
		}
	}

	games, err := call(ctx)
	if err != nil {
		s.logger.Warn("remote catalog unavailable, serving fallback",
			logger.String("key", key),
			logger.Error(err))
		return nil
	}

	games = domain.UniqueByID(games)
	if len(games) > 0 && s.cache != nil {
		if err := s.cache.SaveGames(ctx, key, games, s.freshness); err != nil {
			s.logger.Warn("failed to write shared catalog cache",
				logger.String("key", key),
				logger.Error(err))
		}
	}

	return games
}

func (s *Store) fetchByID(ctx context.Context, gen uint64, id string) (gameEntry, error) {
	game, ok := s.remoteGame(ctx, id)
	source := SourceRemote
	if !ok {
		game, ok = s.fallback.GetGame(id)
		source = SourceFallback
	}
	if !ok {
		return gameEntry{}, fmt.Errorf("game %q: %w", id, domain.ErrNotFound)
	}

	ge := gameEntry{game: game, source: source, fetchedAt: s.now()}
	s.record(gen, func() { s.games[id] = ge })

	return ge, nil
}

func (s *Store) remoteGame(ctx context.Context, id string) (domain.Game, bool) {
	if s.remote == nil {
		return domain.Game{}, false
	}

	if s.cache != nil {
		game, ok, err := s.cache.GetGame(ctx, id)
		if err != nil {
			s.logger.Warn("failed to read shared catalog cache",
				logger.String("game_id", id),
				logger.Error(err))
		} else if ok {
			return game, true
		}
	}

	game, err := s.remote.GetGameByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("game absent from remote catalog", logger.String("game_id", id))
		} else {
			s.logger.Warn("remote catalog unavailable, trying fallback",
				logger.String("game_id", id),
				logger.Error(err))
		}
		return domain.Game{}, false
	}

	if s.cache != nil {
		if err := s.cache.SaveGame(ctx, game, s.byIDFreshness); err != nil {
			s.logger.Warn("failed to write shared catalog cache",
				logger.String("game_id", id),
				logger.Error(err))
		}
	}

	return game, true
}

func (s *Store) entry(games []domain.Game, source Source) entry {
	if games == nil {
		games = []domain.Game{}
	}
	return entry{games: games, source: source, fetchedAt: s.now()}
}
