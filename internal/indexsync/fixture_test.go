package indexsync

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var fixtureColumns = []string{
	"ParentId", "CommunityRating", "Name", "Overview", "ProductionYear",
	"Genres", "Studios", "Tags", "IsFolder", "CriticRating", "OriginalTitle",
	"SeriesName", "Artists", "AlbumArtists", "TopParentId",
}

// fixtureRow maps column names to values; the key and type columns use the
// keys "key" and "type" whatever the schema calls them.
type fixtureRow map[string]any

// writeStore creates {configDir}/data/{schema.File} holding rows.
func writeStore(t *testing.T, configDir string, schema Schema, rows []fixtureRow) string {
	t.Helper()

	dir := filepath.Join(configDir, "data")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, schema.File)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	keyType := "TEXT"
	if schema.Name == LegacySchema.Name {
		keyType = "BLOB"
	}
	ddl := fmt.Sprintf(`CREATE TABLE %s (%s %s, %s TEXT, ParentId TEXT, CommunityRating REAL, Name TEXT,
		Overview TEXT, ProductionYear INT, Genres TEXT, Studios TEXT, Tags TEXT, IsFolder INT,
		CriticRating REAL, OriginalTitle TEXT, SeriesName TEXT, Artists TEXT, AlbumArtists TEXT,
		TopParentId TEXT)`, schema.Table, schema.KeyColumn, keyType, schema.TypeCol)
	_, err = db.Exec(ddl)
	require.NoError(t, err)

	cols := append([]string{schema.KeyColumn, schema.TypeCol}, fixtureColumns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", schema.Table, strings.Join(cols, ", "), placeholders)

	for _, row := range rows {
		args := []any{row["key"], row["type"]}
		for _, c := range fixtureColumns {
			args = append(args, row[c])
		}
		_, err := db.Exec(insert, args...)
		require.NoError(t, err)
	}
	return path
}

func movieRow(id, name string) fixtureRow {
	return fixtureRow{
		"key":         id,
		"type":        "MediaBrowser.Controller.Entities.Movies.Movie",
		"Name":        name,
		"TopParentId": "f137a2dd-21bb-c1b9-9aa5-c0f6bf02a805",
		"IsFolder":    0,
	}
}
