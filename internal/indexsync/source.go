// Package indexsync copies Jellyfin library items into the search index.
package indexsync

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoSourceStore is returned when neither Jellyfin database exists. The
// run fails rather than leaving an index that looks like an empty library.
var ErrNoSourceStore = errors.New("no Jellyfin library database found")

// Schema describes one generation of the Jellyfin item table.
type Schema struct {
	Name      string
	File      string
	Table     string
	KeyColumn string
	TypeCol   string
}

var (
	// LegacySchema is the library.db layout used before Jellyfin 10.11.
	LegacySchema = Schema{Name: "legacy", File: "library.db", Table: "TypedBaseItems", KeyColumn: "guid", TypeCol: "type"}
	// CurrentSchema is the EF Core jellyfin.db layout.
	CurrentSchema = Schema{Name: "current", File: "jellyfin.db", Table: "BaseItems", KeyColumn: "id", TypeCol: "Type"}
)

// schemas in preference order.
var schemas = []Schema{LegacySchema, CurrentSchema}

// Source is a detected item store.
type Source struct {
	Path   string
	Schema Schema
}

// Candidate is a probed database location.
type Candidate struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// DetectSource probes configDir for the item databases in preference order.
func DetectSource(configDir string) (Source, []Candidate, error) {
	var candidates []Candidate
	var found *Source
	for _, schema := range schemas {
		p := filepath.Join(configDir, "data", schema.File)
		exists := fileExists(p)
		candidates = append(candidates, Candidate{Path: p, Exists: exists})
		if exists && found == nil {
			found = &Source{Path: p, Schema: schema}
		}
	}

	if found == nil {
		return Source{}, candidates, ErrNoSourceStore
	}
	return *found, candidates, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
