package indexsync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
	"github.com/jellysearch/jellysearch/internal/search"
)

const listSeparator = "|"

var (
	errInvalidID   = errors.New("row has no parseable identifier")
	errMissingType = errors.New("row has no item type")
)

// convertRow maps one item row to a document. Null columns become absent
// fields. When the identifier parses but a later column does not, the
// returned item still carries the ID so the caller knows the row exists.
func convertRow(row rawRow) (search.Item, error) {
	id, ok := parseID(row[colID])
	if !ok {
		return search.Item{}, fmt.Errorf("%w: %v", errInvalidID, describe(row[colID]))
	}
	item := search.Item{ID: id}

	itemType, err := optionalString(row[colType])
	if err != nil {
		return item, fmt.Errorf("type: %w", err)
	}
	if itemType == nil || *itemType == "" {
		return item, errMissingType
	}
	item.Type = *itemType

	texts := []struct {
		col  int
		name string
		dst  **string
	}{
		{colName, "name", &item.Name},
		{colOverview, "overview", &item.Overview},
		{colOriginalTitle, "originalTitle", &item.OriginalTitle},
		{colSeriesName, "seriesName", &item.SeriesName},
	}
	for _, t := range texts {
		if *t.dst, err = optionalString(row[t.col]); err != nil {
			return item, fmt.Errorf("%s: %w", t.name, err)
		}
	}

	item.ParentID = optionalID(row[colParentID])
	item.TopParentID = optionalID(row[colTopParentID])

	if item.CommunityRating, err = optionalFloat(row[colCommunityRating]); err != nil {
		return item, fmt.Errorf("communityRating: %w", err)
	}
	if item.CriticRating, err = optionalFloat(row[colCriticRating]); err != nil {
		return item, fmt.Errorf("criticRating: %w", err)
	}
	if item.ProductionYear, err = optionalInt(row[colProductionYear]); err != nil {
		return item, fmt.Errorf("productionYear: %w", err)
	}
	if item.IsFolder, err = optionalInt(row[colIsFolder]); err != nil {
		return item, fmt.Errorf("isFolder: %w", err)
	}

	lists := []struct {
		col  int
		name string
		dst  *[]string
	}{
		{colGenres, "genres", &item.Genres},
		{colStudios, "studios", &item.Studios},
		{colTags, "tags", &item.Tags},
		{colArtists, "artists", &item.Artists},
		{colAlbumArtists, "albumArtists", &item.AlbumArtists},
	}
	for _, l := range lists {
		s, err := optionalString(row[l.col])
		if err != nil {
			return item, fmt.Errorf("%s: %w", l.name, err)
		}
		*l.dst = splitList(s)
	}

	return item, nil
}

// rowName returns the item name for log context, if readable.
func rowName(row rawRow) string {
	s, err := optionalString(row[colName])
	if err != nil || s == nil {
		return ""
	}
	return *s
}

// parseID accepts .NET GUID blobs and GUID text in any common form.
func parseID(v any) (string, bool) {
	switch val := v.(type) {
	case []byte:
		return jellyfin.IDFromBytes(val)
	case string:
		return jellyfin.NormalizeID(val)
	default:
		return "", false
	}
}

func optionalID(v any) *string {
	id, ok := parseID(v)
	if !ok {
		return nil
	}
	return &id
}

func optionalString(v any) (*string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &val, nil
	case []byte:
		s := string(val)
		return &s, nil
	default:
		return nil, fmt.Errorf("expected text, got %T", v)
	}
}

func optionalFloat(v any) (*float64, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = val
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("expected number, got %T", v)
	}
	return &f, nil
}

func optionalInt(v any) (*int, error) {
	var n int
	switch val := v.(type) {
	case nil:
		return nil, nil
	case int64:
		n = int(val)
	case bool:
		if val {
			n = 1
		}
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("expected integer, got %v", val)
		}
		n = int(val)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
	return &n, nil
}

// splitList splits a multi-valued column, dropping empty segments.
func splitList(s *string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func describe(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("%d byte blob", len(val))
	default:
		return fmt.Sprintf("%q", fmt.Sprint(val))
	}
}
