package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store mirrors remote catalog results in Redis so several arcade
// instances share one view of the remote backend.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// SaveGames stores a list result under key for ttl
func (s *Store) SaveGames(ctx context.Context, key string, games []domain.Game, ttl time.Duration) error {
	data, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save games: %w", err)
	}

	return nil
}

// GetGames retrieves a list result. The boolean is false on a cache miss.
func (s *Store) GetGames(ctx context.Context, key string) ([]domain.Game, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get games: %w", err)
	}

	var games []domain.Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal games: %w", err)
	}

	return games, true, nil
}

// SaveGame stores a single by-id lookup for ttl
func (s *Store) SaveGame(ctx context.Context, game domain.Game, ttl time.Duration) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	if err := s.client.Set(ctx, GameKey(game.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

// GetGame retrieves a single game. The boolean is false on a cache miss.
func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, bool, error) {
	data, err := s.client.Get(ctx, GameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Game{}, false, nil
		}
		return domain.Game{}, false, fmt.Errorf("failed to get game: %w", err)
	}

	var game domain.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return domain.Game{}, false, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return game, true, nil
}
