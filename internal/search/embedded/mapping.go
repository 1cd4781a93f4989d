package embedded

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/jellysearch/jellysearch/internal/search"
)

const textAnalyzer = "item_text"

var (
	// textFields are tokenized for full-text matching.
	textFields = []string{
		search.FieldName,
		search.FieldArtists,
		search.FieldAlbumArtists,
		search.FieldOriginalTitle,
		search.FieldSeriesName,
		search.FieldGenres,
		search.FieldTags,
		search.FieldStudios,
		search.FieldOverview,
	}

	// keywordFields are indexed verbatim for exact filtering.
	keywordFields = []string{
		search.FieldID,
		search.FieldType,
		search.FieldParentID,
		search.FieldTopParentID,
	}

	numericFields = []string{
		search.FieldIsFolder,
		search.FieldProductionYear,
		search.FieldCommunityRating,
		search.FieldCriticRating,
	}

	// prefixFields also match on word prefixes so partially typed titles hit.
	prefixFields = map[string]bool{
		search.FieldName:          true,
		search.FieldOriginalTitle: true,
		search.FieldSeriesName:    true,
		search.FieldArtists:       true,
		search.FieldAlbumArtists:  true,
	}
)

func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	// Lowercased unicode words, no stemming or stop words, so prefix
	// queries see the same terms the user typed
	err := indexMapping.AddCustomAnalyzer(textAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}
	indexMapping.DefaultAnalyzer = textAnalyzer

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	for _, field := range textFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = textAnalyzer
		fm.Store = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	for _, field := range keywordFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	for _, field := range numericFields {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

func isFilterable(field string) bool {
	for _, f := range keywordFields {
		if f == field {
			return true
		}
	}
	for _, f := range numericFields {
		if f == field {
			return true
		}
	}
	return false
}

func isText(field string) bool {
	for _, f := range textFields {
		if f == field {
			return true
		}
	}
	return false
}
