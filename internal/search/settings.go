package search

// IndexSettings is the schema declared on the index before every sync.
type IndexSettings struct {
	FilterableAttributes []string
	SortableAttributes   []string
	SearchableAttributes []string
	DisplayedAttributes  []string
	RankingRules         []string
}

// DefaultIndexSettings returns the item index schema. Searchable attributes
// are listed in priority order.
func DefaultIndexSettings() IndexSettings {
	return IndexSettings{
		FilterableAttributes: []string{
			FieldType,
			FieldParentID,
			FieldTopParentID,
			FieldIsFolder,
		},
		SortableAttributes: []string{
			FieldCommunityRating,
			FieldCriticRating,
		},
		SearchableAttributes: []string{
			FieldName,
			FieldArtists,
			FieldAlbumArtists,
			FieldOriginalTitle,
			FieldProductionYear,
			FieldSeriesName,
			FieldGenres,
			FieldTags,
			FieldStudios,
			FieldOverview,
		},
		DisplayedAttributes: []string{
			FieldID,
			FieldName,
		},
		RankingRules: []string{
			"words",
			"typo",
			"proximity",
			"attribute",
			"sort",
			"exactness",
			FieldCommunityRating + ":desc",
			FieldCriticRating + ":desc",
		},
	}
}
