package fallback

// CatalogFile is the root structure of the fallback catalog YAML.
//
//	games:
//	  - id: tetris
//	    name: Tetris
//	    category: Puzzle
//	    embedUrl: https://...
type CatalogFile struct {
	Games []GameEntry `yaml:"games"`
}

// GameEntry is one game as written in the YAML file.
type GameEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	Category     string `yaml:"category"`
	Featured     bool   `yaml:"featured,omitempty"`
	ThumbnailURL string `yaml:"thumbnailUrl,omitempty"`
	EmbedURL     string `yaml:"embedUrl"`
}
