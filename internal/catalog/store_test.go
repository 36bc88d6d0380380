package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/index"
	"github.com/MrSnakeDoc/arcade/internal/logger"
)

type fakeRemote struct {
	mu       sync.Mutex
	all      []domain.Game
	featured []domain.Game
	search   []domain.Game
	err      error
	calls    map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{calls: make(map[string]int)}
}

func (f *fakeRemote) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) GetAllGames(ctx context.Context) ([]domain.Game, error) {
	if err := f.record("all"); err != nil {
		return nil, err
	}
	return f.all, nil
}

func (f *fakeRemote) GetFeaturedGames(ctx context.Context) ([]domain.Game, error) {
	if err := f.record("featured"); err != nil {
		return nil, err
	}
	return f.featured, nil
}

func (f *fakeRemote) GetGameByID(ctx context.Context, id string) (domain.Game, error) {
	if err := f.record("id"); err != nil {
		return domain.Game{}, err
	}
	if g, ok := domain.FindByID(f.all, id); ok {
		return g, nil
	}
	return domain.Game{}, fmt.Errorf("remote: %w", domain.ErrNotFound)
}

func (f *fakeRemote) SearchGames(ctx context.Context, term string) ([]domain.Game, error) {
	if err := f.record("search"); err != nil {
		return nil, err
	}
	return f.search, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeCache struct {
	mu    sync.Mutex
	lists map[string][]domain.Game
	games map[string]domain.Game
	ttls  map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		lists: make(map[string][]domain.Game),
		games: make(map[string]domain.Game),
		ttls:  make(map[string]time.Duration),
	}
}

func (c *fakeCache) GetGames(ctx context.Context, key string) ([]domain.Game, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.lists[key]
	return g, ok, nil
}

func (c *fakeCache) SaveGames(ctx context.Context, key string, games []domain.Game, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = games
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) GetGame(ctx context.Context, id string) (domain.Game, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.games[id]
	return g, ok, nil
}

func (c *fakeCache) SaveGame(ctx context.Context, game domain.Game, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.games[game.ID] = game
	c.ttls["game:"+game.ID] = ttl
	return nil
}

var (
	remoteGames = []domain.Game{
		{ID: "r1", Name: "Remote One", Category: "Action", Featured: true, EmbedURL: "https://games.example.com/r1"},
		{ID: "r2", Name: "Remote Two", Category: "Puzzle", EmbedURL: "https://games.example.com/r2"},
	}
	fallbackGames = []domain.Game{
		{ID: "f1", Name: "Fallback One", Category: "Word", Featured: true, EmbedURL: "https://static.example.com/f1"},
		{ID: "f2", Name: "Fallback Two", Description: "a puzzle about tiles", Category: "Puzzle", EmbedURL: "https://static.example.com/f2"},
		{ID: "f3", Name: "Fallback Three", Category: "Idle", Featured: true, EmbedURL: "https://static.example.com/f3"},
	}
)

func newFallback() *index.MemoryIndex {
	idx := index.NewMemoryIndex()
	idx.UpdateGames(fallbackGames, "test")
	return idx
}

func newTestStore(remote Remote, clock *fakeClock, cache SharedCache) *Store {
	opts := Options{Cache: cache}
	if clock != nil {
		opts.Now = clock.Now
	}
	return NewStore(remote, newFallback(), logger.NewNop(), opts)
}

func ids(games []domain.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.ID
	}
	return out
}

func equalIDs(t *testing.T, got []domain.Game, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got ids %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got ids %v, want %v", gotIDs, want)
		}
	}
}

func TestListAll(t *testing.T) {
	tests := []struct {
		name       string
		remote     func() Remote
		wantSource Source
		wantIDs    []string
	}{
		{
			name: "remote non-empty",
			remote: func() Remote {
				r := newFakeRemote()
				r.all = remoteGames
				return r
			},
			wantSource: SourceRemote,
			wantIDs:    []string{"r1", "r2"},
		},
		{
			name:       "remote empty",
			remote:     func() Remote { return newFakeRemote() },
			wantSource: SourceFallback,
			wantIDs:    []string{"f1", "f2", "f3"},
		},
		{
			name: "remote error",
			remote: func() Remote {
				r := newFakeRemote()
				r.err = domain.ErrRemoteUnavailable
				return r
			},
			wantSource: SourceFallback,
			wantIDs:    []string{"f1", "f2", "f3"},
		},
		{
			name:       "no remote configured",
			remote:     func() Remote { return nil },
			wantSource: SourceFallback,
			wantIDs:    []string{"f1", "f2", "f3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(tt.remote(), nil, nil)
			snap := s.ListAll(context.Background())

			if snap.Status != StatusReady {
				t.Errorf("Status = %q, want ready", snap.Status)
			}
			if snap.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", snap.Source, tt.wantSource)
			}
			equalIDs(t, snap.Games, tt.wantIDs...)
		})
	}
}

func TestListAllDeduplicatesRemote(t *testing.T) {
	r := newFakeRemote()
	r.all = append(append([]domain.Game{}, remoteGames...), domain.Game{ID: "r1", Name: "dup"})

	snap := newTestStore(r, nil, nil).ListAll(context.Background())
	equalIDs(t, snap.Games, "r1", "r2")
	if snap.Games[0].Name != "Remote One" {
		t.Errorf("first occurrence should win, got %q", snap.Games[0].Name)
	}
}

func TestListFeatured(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		r := newFakeRemote()
		r.featured = remoteGames[:1]
		snap := newTestStore(r, nil, nil).ListFeatured(context.Background())
		if snap.Source != SourceRemote {
			t.Errorf("Source = %q, want remote", snap.Source)
		}
		equalIDs(t, snap.Games, "r1")
	})

	t.Run("fallback featured subset", func(t *testing.T) {
		r := newFakeRemote()
		r.err = errors.New("timeout")
		snap := newTestStore(r, nil, nil).ListFeatured(context.Background())
		if snap.Source != SourceFallback {
			t.Errorf("Source = %q, want fallback", snap.Source)
		}
		equalIDs(t, snap.Games, "f1", "f3")
	})
}

func TestGetByID(t *testing.T) {
	r := newFakeRemote()
	r.all = remoteGames
	s := newTestStore(r, nil, nil)
	ctx := context.Background()

	g, src, err := s.GetByID(ctx, "r2")
	if err != nil || src != SourceRemote || g.ID != "r2" {
		t.Errorf("GetByID(r2) = %v, %q, %v", g.ID, src, err)
	}

	g, src, err = s.GetByID(ctx, "f2")
	if err != nil || src != SourceFallback || g.ID != "f2" {
		t.Errorf("GetByID(f2) = %v, %q, %v", g.ID, src, err)
	}

	_, _, err = s.GetByID(ctx, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	_, _, err = s.GetByID(ctx, "  ")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(blank) error = %v, want ErrNotFound", err)
	}
}

func TestGetByIDRemoteDown(t *testing.T) {
	r := newFakeRemote()
	r.err = domain.ErrRemoteUnavailable
	s := newTestStore(r, nil, nil)

	g, src, err := s.GetByID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if src != SourceFallback || g.ID != "f1" {
		t.Errorf("GetByID() = %q from %q, want f1 from fallback", g.ID, src)
	}
}

func TestGetByIDFreshness(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := newFakeRemote()
	r.all = remoteGames
	s := newTestStore(r, clock, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := s.GetByID(ctx, "r1"); err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
	}
	if got := r.count("id"); got != 1 {
		t.Errorf("remote calls = %d, want 1 within the window", got)
	}

	clock.Advance(DefaultByIDFreshnessWindow + time.Second)
	if _, _, err := s.GetByID(ctx, "r1"); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got := r.count("id"); got != 2 {
		t.Errorf("remote calls = %d, want 2 after the window", got)
	}
}

func TestSearch(t *testing.T) {
	t.Run("remote result", func(t *testing.T) {
		r := newFakeRemote()
		r.search = remoteGames[1:]
		snap := newTestStore(r, nil, nil).Search(context.Background(), "two")
		if snap.Source != SourceRemote {
			t.Errorf("Source = %q, want remote", snap.Source)
		}
		equalIDs(t, snap.Games, "r2")
	})

	t.Run("fallback filter", func(t *testing.T) {
		r := newFakeRemote()
		r.err = errors.New("boom")
		snap := newTestStore(r, nil, nil).Search(context.Background(), "  PUZZLE ")
		if snap.Source != SourceFallback {
			t.Errorf("Source = %q, want fallback", snap.Source)
		}
		equalIDs(t, snap.Games, "f2")
	})

	t.Run("blank term lists all", func(t *testing.T) {
		r := newFakeRemote()
		snap := newTestStore(r, nil, nil).Search(context.Background(), "   ")
		equalIDs(t, snap.Games, "f1", "f2", "f3")
		if got := r.count("search"); got != 0 {
			t.Errorf("remote search calls = %d, want 0", got)
		}
	})

	t.Run("no match is empty not pending", func(t *testing.T) {
		snap := newTestStore(nil, nil, nil).Search(context.Background(), "zzz")
		if snap.Status != StatusReady || snap.Games == nil || len(snap.Games) != 0 {
			t.Errorf("got %+v, want ready with empty games", snap)
		}
	})
}

func TestListFreshnessWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := newFakeRemote()
	r.all = remoteGames
	s := newTestStore(r, clock, nil)
	ctx := context.Background()

	s.ListAll(ctx)
	clock.Advance(4 * time.Minute)
	s.ListAll(ctx)
	if got := r.count("all"); got != 1 {
		t.Errorf("remote calls = %d, want 1 inside the window", got)
	}

	clock.Advance(2 * time.Minute)
	snap := s.ListAll(ctx)
	if got := r.count("all"); got != 2 {
		t.Errorf("remote calls = %d, want 2 after the window", got)
	}
	if snap.Stale {
		t.Error("freshly fetched snapshot should not be stale")
	}
}

func TestPeek(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := newFakeRemote()
	r.all = remoteGames
	s := newTestStore(r, clock, nil)

	first := s.Peek(KindAll)
	if first.Status != StatusPending {
		t.Fatalf("first Peek status = %q, want pending", first.Status)
	}
	if len(first.Games) != 0 {
		t.Errorf("pending snapshot carries %d games", len(first.Games))
	}

	s.Wait()

	ready := s.Peek(KindAll)
	if ready.Status != StatusReady || ready.Source != SourceRemote || ready.Stale {
		t.Fatalf("second Peek = %+v, want fresh ready remote", ready)
	}
	equalIDs(t, ready.Games, "r1", "r2")

	clock.Advance(DefaultFreshnessWindow + time.Second)
	stale := s.Peek(KindAll)
	if stale.Status != StatusReady || !stale.Stale {
		t.Errorf("Peek after window = %+v, want ready and stale", stale)
	}
	s.Wait()

	if got := r.count("all"); got != 2 {
		t.Errorf("remote calls = %d, want 2 (initial + refresh)", got)
	}
	if after := s.Peek(KindAll); after.Stale {
		t.Error("Peek after refresh should be fresh")
	}
}

func TestPeekEmptyResolvedIsReady(t *testing.T) {
	idx := index.NewMemoryIndex()
	s := NewStore(nil, idx, logger.NewNop(), Options{})

	s.Peek(KindFeatured)
	s.Wait()

	snap := s.Peek(KindFeatured)
	if snap.Status != StatusReady {
		t.Errorf("Status = %q, want ready", snap.Status)
	}
	if snap.Games == nil || len(snap.Games) != 0 {
		t.Errorf("Games = %v, want empty non-nil", snap.Games)
	}
}

func TestInvalidate(t *testing.T) {
	r := newFakeRemote()
	r.all = remoteGames
	s := newTestStore(r, nil, nil)
	ctx := context.Background()

	s.ListAll(ctx)
	s.Invalidate()
	s.ListAll(ctx)

	if got := r.count("all"); got != 2 {
		t.Errorf("remote calls = %d, want 2 after Invalidate", got)
	}
	if snap := s.Peek(KindFeatured); snap.Status != StatusPending {
		t.Errorf("featured should be pending after Invalidate, got %q", snap.Status)
	}
	s.Wait()
}

func TestSharedCache(t *testing.T) {
	cache := newFakeCache()
	r := newFakeRemote()
	r.all = remoteGames
	ctx := context.Background()

	first := newTestStore(r, nil, cache)
	first.ListAll(ctx)
	if _, _, err := first.GetByID(ctx, "r1"); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got := cache.ttls["arcade:catalog:all"]; got != DefaultFreshnessWindow {
		t.Errorf("list ttl = %v, want %v", got, DefaultFreshnessWindow)
	}
	if got := cache.ttls["game:r1"]; got != DefaultByIDFreshnessWindow {
		t.Errorf("game ttl = %v, want %v", got, DefaultByIDFreshnessWindow)
	}

	// A second instance is served by the shared cache.
	second := newTestStore(r, nil, cache)
	snap := second.ListAll(ctx)
	if snap.Source != SourceRemote {
		t.Errorf("Source = %q, want remote", snap.Source)
	}
	if _, src, err := second.GetByID(ctx, "r1"); err != nil || src != SourceRemote {
		t.Errorf("GetByID() = %q, %v", src, err)
	}
	if got := r.count("all"); got != 1 {
		t.Errorf("remote list calls = %d, want 1", got)
	}
	if got := r.count("id"); got != 1 {
		t.Errorf("remote id calls = %d, want 1", got)
	}
}

func TestConcurrentListAllCollapses(t *testing.T) {
	r := &blockingRemote{fakeRemote: newFakeRemote(), release: make(chan struct{})}
	r.all = remoteGames
	s := newTestStore(r, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ListAll(context.Background())
		}()
	}

	// Give the callers time to pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	wg.Wait()

	if got := r.count("all"); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
}

type blockingRemote struct {
	*fakeRemote
	release chan struct{}
}

func (b *blockingRemote) GetAllGames(ctx context.Context) ([]domain.Game, error) {
	<-b.release
	return b.fakeRemote.GetAllGames(ctx)
}

func TestWarmRefetches(t *testing.T) {
	r := newFakeRemote()
	r.all = remoteGames
	r.featured = remoteGames[:1]
	s := newTestStore(r, nil, nil)

	s.Warm(context.Background())
	s.Warm(context.Background())

	if got := r.count("all"); got != 2 {
		t.Errorf("remote list calls = %d, want 2", got)
	}
	if got := r.count("featured"); got != 2 {
		t.Errorf("remote featured calls = %d, want 2", got)
	}
	if snap := s.Peek(KindFeatured); snap.Status != StatusReady {
		t.Errorf("featured status = %q, want ready after Warm", snap.Status)
	}
}

// ctxRemote honours ctx like a real HTTP client: it fails as soon as the
// context it was called with ends, and otherwise blocks until released.
type ctxRemote struct {
	*fakeRemote
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newCtxRemote() *ctxRemote {
	r := &ctxRemote{fakeRemote: newFakeRemote(), started: make(chan struct{}), release: make(chan struct{})}
	r.all = remoteGames
	return r
}

func (r *ctxRemote) wait(ctx context.Context) error {
	r.once.Do(func() { close(r.started) })
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *ctxRemote) GetAllGames(ctx context.Context) ([]domain.Game, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.fakeRemote.GetAllGames(ctx)
}

func (r *ctxRemote) GetGameByID(ctx context.Context, id string) (domain.Game, error) {
	if err := r.wait(ctx); err != nil {
		return domain.Game{}, err
	}
	return r.fakeRemote.GetGameByID(ctx, id)
}

func TestGetByIDCancelledCallerDoesNotAffectOthers(t *testing.T) {
	r := newCtxRemote()
	s := newTestStore(r, nil, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, _, err := s.GetByID(ctxA, "r1")
		errA <- err
	}()
	<-r.started

	type result struct {
		game   domain.Game
		source Source
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		g, src, err := s.GetByID(context.Background(), "r1")
		resB <- result{g, src, err}
	}()

	// Let B join the in-flight lookup before A leaves.
	time.Sleep(20 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}
	close(r.release)
	got := <-resB
	if got.err != nil {
		t.Fatalf("live caller error = %v", got.err)
	}
	if got.game.ID != "r1" || got.source != SourceRemote {
		t.Errorf("live caller got %q from %q, want r1 from remote", got.game.ID, got.source)
	}

	// The game stays resolvable afterwards.
	if _, src, err := s.GetByID(context.Background(), "r1"); err != nil || src != SourceRemote {
		t.Errorf("later GetByID() = %q, %v; want remote", src, err)
	}
}

func TestListAllCancelledCallerKeepsRemote(t *testing.T) {
	r := newCtxRemote()
	close(r.release)
	s := newTestStore(r, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := s.ListAll(ctx)
	if first.Source == SourceFallback {
		t.Errorf("cancelled caller recorded the fallback: %v", ids(first.Games))
	}

	snap := s.ListAll(context.Background())
	if snap.Source != SourceRemote {
		t.Fatalf("source = %q, want remote", snap.Source)
	}
	equalIDs(t, snap.Games, "r1", "r2")
}

func TestListAllExpiredCallerGetsLastKnown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := newCtxRemote()
	close(r.release)
	s := newTestStore(r, clock, nil)

	equalIDs(t, s.ListAll(context.Background()).Games, "r1", "r2")

	clock.Advance(DefaultFreshnessWindow + time.Second)
	r.mu.Lock()
	r.all = remoteGames[:1]
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := s.ListAll(ctx)
	if snap.Status != StatusReady || snap.Source != SourceRemote {
		t.Errorf("snapshot = %q/%q, want ready from remote", snap.Status, snap.Source)
	}
}

// gatedFallback hands out the set it read, but only after gate opens on
// its first call.
type gatedFallback struct {
	*index.MemoryIndex
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (f *gatedFallback) Games() []domain.Game {
	games := f.MemoryIndex.Games()
	f.once.Do(func() {
		close(f.entered)
		<-f.gate
	})
	return games
}

func TestInvalidateFencesInFlightFetch(t *testing.T) {
	fb := &gatedFallback{MemoryIndex: newFallback(), entered: make(chan struct{}), gate: make(chan struct{})}
	s := NewStore(nil, fb, logger.NewNop(), Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.ListAll(context.Background())
	}()
	<-fb.entered

	fb.UpdateGames(fallbackGames[:1], "reloaded")
	s.Invalidate()
	close(fb.gate)
	<-done

	equalIDs(t, s.ListAll(context.Background()).Games, "f1")
}
