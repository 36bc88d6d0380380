package fallback

import (
	"testing"
)

func TestMapperMapGames(t *testing.T) {
	file := CatalogFile{
		Games: []GameEntry{
			{ID: "tetris", Name: " Tetris ", Category: "Puzzle", Featured: true, EmbedURL: "https://tetris.com/play-tetris"},
			{ID: "chess", Name: "Chess", Category: "Strategy", EmbedURL: "https://www.chess.com/play/computer"},
		},
	}

	games, err := NewMapper().MapGames(file)
	if err != nil {
		t.Fatalf("MapGames() error = %v", err)
	}

	if len(games) != 2 {
		t.Fatalf("MapGames() returned %v games, want 2", len(games))
	}
	if games[0].ID != "tetris" || games[0].Name != "Tetris" || !games[0].Featured {
		t.Errorf("MapGames() first game = %+v", games[0])
	}
	if games[1].ID != "chess" {
		t.Errorf("MapGames() should keep file order, got %v second", games[1].ID)
	}
}

func TestMapperMapGamesEmptyConfig(t *testing.T) {
	games, err := NewMapper().MapGames(CatalogFile{})

	if err == nil {
		t.Error("MapGames() with empty config should return error")
	}
	if games != nil {
		t.Errorf("MapGames() with empty config should return nil games, got %v", len(games))
	}
}

func TestMapperMapGamesSkipsInvalidEntries(t *testing.T) {
	file := CatalogFile{
		Games: []GameEntry{
			{ID: "", Name: "No ID", EmbedURL: "https://example.com"},
			{ID: "no-name", EmbedURL: "https://example.com"},
			{ID: "relative", Name: "Relative", EmbedURL: "/games/relative"},
			{ID: "ftp", Name: "FTP", EmbedURL: "ftp://example.com/game"},
			{ID: "ok", Name: "OK", EmbedURL: "https://example.com/ok"},
		},
	}

	games, err := NewMapper().MapGames(file)
	if err != nil {
		t.Fatalf("MapGames() error = %v", err)
	}
	if len(games) != 1 || games[0].ID != "ok" {
		t.Errorf("MapGames() = %+v, want only ok", games)
	}
}

func TestMapperMapGamesDuplicateIDs(t *testing.T) {
	file := CatalogFile{
		Games: []GameEntry{
			{ID: "dup", Name: "First", EmbedURL: "https://example.com/1"},
			{ID: "dup", Name: "Second", EmbedURL: "https://example.com/2"},
		},
	}

	games, err := NewMapper().MapGames(file)
	if err != nil {
		t.Fatalf("MapGames() error = %v", err)
	}
	if len(games) != 1 || games[0].Name != "First" {
		t.Errorf("MapGames() = %+v, want the first dup only", games)
	}
}
