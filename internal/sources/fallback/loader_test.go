package fallback

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "games.yaml")

	yamlContent := `---
games:
  - id: tetris
    name: Tetris
    category: Puzzle
    featured: true
    embedUrl: https://tetris.com/play-tetris
`

	err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644)
	if err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	file, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file.Games) != 1 {
		t.Fatalf("Load() returned %d games, want 1", len(file.Games))
	}
	if !file.Games[0].Featured || file.Games[0].EmbedURL != "https://tetris.com/play-tetris" {
		t.Errorf("Load() parsed %+v", file.Games[0])
	}
	if loader.Source() != yamlPath {
		t.Errorf("Source() = %q, want %q", loader.Source(), yamlPath)
	}
}

func TestLoaderLoadEmbedded(t *testing.T) {
	loader := NewLoader("")
	file, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file.Games) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	if loader.Source() != SourceEmbedded {
		t.Errorf("Source() = %q, want %q", loader.Source(), SourceEmbedded)
	}

	games, err := NewMapper().MapGames(file)
	if err != nil {
		t.Fatalf("embedded catalog does not map: %v", err)
	}
	if len(games) != len(file.Games) {
		t.Errorf("embedded catalog has %d invalid entries", len(file.Games)-len(games))
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/games.yaml")
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "games.yaml")
	if err := os.WriteFile(yamlPath, []byte("games: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	if _, err := NewLoader(yamlPath).Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}
