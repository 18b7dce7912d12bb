package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/relscope/internal/catalog"
)

// loadCatalog loads a catalog file, picking the loader from the extension:
// .cue compiles through CUE, .db/.sqlite/.sqlite3 introspects a SQLite
// database, anything else parses as YAML.
func loadCatalog(path string) (*catalog.Mem, error) {
	if path == "" {
		return nil, fmt.Errorf("no catalog: --catalog is required")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		return catalog.CompileCUEString(string(src))
	case ".db", ".sqlite", ".sqlite3":
		return catalog.OpenSQLite(path)
	default:
		return catalog.LoadYAMLFile(path)
	}
}
