package search

// Document field names. The filter vocabulary emitted by FilterBuilder and
// the schema declared by DefaultIndexSettings both use these.
const (
	FieldID              = "id"
	FieldType            = "type"
	FieldName            = "name"
	FieldOverview        = "overview"
	FieldOriginalTitle   = "originalTitle"
	FieldSeriesName      = "seriesName"
	FieldParentID        = "parentId"
	FieldTopParentID     = "topParentId"
	FieldIsFolder        = "isFolder"
	FieldProductionYear  = "productionYear"
	FieldCommunityRating = "communityRating"
	FieldCriticRating    = "criticRating"
	FieldGenres          = "genres"
	FieldStudios         = "studios"
	FieldTags            = "tags"
	FieldArtists         = "artists"
	FieldAlbumArtists    = "albumArtists"
)

// Item is a document stored in the search index. Optional fields are
// pointers or nil slices so an absent column never turns into a zero value.
type Item struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Name            *string  `json:"name,omitempty"`
	Overview        *string  `json:"overview,omitempty"`
	OriginalTitle   *string  `json:"originalTitle,omitempty"`
	SeriesName      *string  `json:"seriesName,omitempty"`
	ParentID        *string  `json:"parentId,omitempty"`
	TopParentID     *string  `json:"topParentId,omitempty"`
	IsFolder        *int     `json:"isFolder,omitempty"`
	ProductionYear  *int     `json:"productionYear,omitempty"`
	CommunityRating *float64 `json:"communityRating,omitempty"`
	CriticRating    *float64 `json:"criticRating,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Studios         []string `json:"studios,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Artists         []string `json:"artists,omitempty"`
	AlbumArtists    []string `json:"albumArtists,omitempty"`
}

// DisplayName returns the item name or an empty string.
func (i Item) DisplayName() string {
	if i.Name == nil {
		return ""
	}
	return *i.Name
}
