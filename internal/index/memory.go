package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// MemoryIndex holds the static fallback catalog in memory.
// It keeps the file order for listing and an id map for lookups.
type MemoryIndex struct {
	mu         sync.RWMutex
	games      []domain.Game          // file order
	byID       map[string]domain.Game // ID -> Game
	lastReload time.Time              // Timestamp of last fallback reload
	source     string                 // where the current set came from
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]domain.Game),
	}
}

// UpdateGames replaces the whole fallback set.
// Duplicate ids are dropped, the first occurrence wins.
func (idx *MemoryIndex) UpdateGames(games []domain.Game, source string) {
	unique := domain.UniqueByID(games)

	byID := make(map[string]domain.Game, len(unique))
	for _, g := range unique {
		byID[g.ID] = g
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.games = unique
	idx.byID = byID
	idx.source = source
	idx.lastReload = time.Now()
}

// Games returns the fallback set in file order.
// The returned slice is a copy; callers may keep it.
func (idx *MemoryIndex) Games() []domain.Game {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Game, len(idx.games))
	copy(out, idx.games)
	return out
}

// GetGame retrieves a game by ID
func (idx *MemoryIndex) GetGame(id string) (domain.Game, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	g, ok := idx.byID[id]
	return g, ok
}

// Count returns the number of games in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.games)
}

// GetLastReload returns the timestamp of the last reload
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// Source returns where the current set was loaded from (file path or "embedded").
func (idx *MemoryIndex) Source() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.source
}
