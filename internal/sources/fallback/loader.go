package fallback

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceEmbedded names the built-in catalog in logs and /infra.
const SourceEmbedded = "embedded"

//go:embed games.yaml
var embeddedCatalog []byte

// Loader handles loading and parsing of the fallback catalog file.
// An empty path selects the catalog compiled into the binary.
type Loader struct {
	filePath string
}

// NewLoader creates a new fallback loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Source returns the file path, or SourceEmbedded.
func (l *Loader) Source() string {
	if l.filePath == "" {
		return SourceEmbedded
	}
	return l.filePath
}

// Load reads and parses the catalog file
func (l *Loader) Load() (CatalogFile, error) {
	data := embeddedCatalog
	if l.filePath != "" {
		var err error
		data, err = os.ReadFile(l.filePath)
		if err != nil {
			return CatalogFile{}, fmt.Errorf("failed to read fallback catalog: %w", err)
		}
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return CatalogFile{}, fmt.Errorf("failed to parse fallback catalog yaml: %w", err)
	}

	return file, nil
}
