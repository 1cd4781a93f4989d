package indexsync

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // SQLite driver
)

// Column order of every row read from the item table.
const (
	colID = iota
	colType
	colParentID
	colCommunityRating
	colName
	colOverview
	colProductionYear
	colGenres
	colStudios
	colTags
	colIsFolder
	colCriticRating
	colOriginalTitle
	colSeriesName
	colArtists
	colAlbumArtists
	colTopParentID
	columnCount
)

// rawRow holds column values as the driver returned them. Columns are read
// untyped so a badly typed value fails only its own row.
type rawRow [columnCount]any

type sqliteReader struct {
	db     *sql.DB
	source Source
}

func newSQLiteReader(source Source) (*sqliteReader, error) {
	dsn := "file:" + (&url.URL{Path: source.Path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &sqliteReader{db: db, source: source}, nil
}

func (r *sqliteReader) Validate(ctx context.Context) error {
	var name string
	err := r.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", r.source.Schema.Table).Scan(&name)
	if err != nil {
		return fmt.Errorf("table %q not found in %s: %w", r.source.Schema.Table, r.source.Path, err)
	}
	return nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func (r *sqliteReader) query() string {
	s := r.source.Schema
	return fmt.Sprintf(`SELECT %s, %s, ParentId, CommunityRating, Name, Overview, ProductionYear,
		Genres, Studios, Tags, IsFolder, CriticRating, OriginalTitle, SeriesName,
		Artists, AlbumArtists, TopParentId FROM %s`, s.KeyColumn, s.TypeCol, s.Table)
}

// Each streams every item row to fn with its zero-based ordinal. A scan
// failure is passed to fn as scanErr and reading continues.
func (r *sqliteReader) Each(ctx context.Context, fn func(ordinal int, row rawRow, scanErr error) error) error {
	rows, err := r.db.QueryContext(ctx, r.query())
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	ordinal := 0
	for rows.Next() {
		var row rawRow
		dest := make([]any, columnCount)
		for i := range row {
			dest[i] = &row[i]
		}
		scanErr := rows.Scan(dest...)
		if err := fn(ordinal, row, scanErr); err != nil {
			return err
		}
		ordinal++
	}
	return rows.Err()
}
