package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// maxBodyBytes bounds a single remote response.
const maxBodyBytes = 4 << 20

// Client talks to the remote catalog backend over HTTP/JSON.
//
// The backend exposes four read-only queries:
//
//	GET {base}/games
//	GET {base}/games/featured
//	GET {base}/games/{id}            404 when absent
//	GET {base}/games/search?term=...
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a remote catalog client.
// timeout bounds every request, including body read.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAllGames lists every game known to the backend.
func (c *Client) GetAllGames(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.get(ctx, "/games", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GetFeaturedGames lists the featured games.
func (c *Client) GetFeaturedGames(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.get(ctx, "/games/featured", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// GetGameByID fetches one game. It returns domain.ErrNotFound when the
// backend does not know the id.
func (c *Client) GetGameByID(ctx context.Context, id string) (domain.Game, error) {
	var game domain.Game
	if err := c.get(ctx, "/games/"+url.PathEscape(id), nil, &game); err != nil {
		return domain.Game{}, err
	}
	if game.ID == "" {
		return domain.Game{}, fmt.Errorf("game %s: %w", id, domain.ErrNotFound)
	}
	return game, nil
}

// SearchGames runs the backend-side search.
func (c *Client) SearchGames(ctx context.Context, term string) ([]domain.Game, error) {
	var games []domain.Game
	if err := c.get(ctx, "/games/search", url.Values{"term": {term}}, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s returned %d", domain.ErrRemoteUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s returned an empty body", domain.ErrRemoteUnavailable, path)
		}
		return fmt.Errorf("%w: failed to decode %s: %v", domain.ErrRemoteUnavailable, path, err)
	}

	return nil
}
