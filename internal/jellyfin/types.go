package jellyfin

// Fully qualified item types as stored in the Jellyfin library database.
const (
	TypeMovie       = "MediaBrowser.Controller.Entities.Movies.Movie"
	TypeBoxSet      = "MediaBrowser.Controller.Entities.Movies.BoxSet"
	TypeEpisode     = "MediaBrowser.Controller.Entities.TV.Episode"
	TypeSeries      = "MediaBrowser.Controller.Entities.TV.Series"
	TypeSeason      = "MediaBrowser.Controller.Entities.TV.Season"
	TypePlaylist    = "MediaBrowser.Controller.Playlists.Playlist"
	TypeMusicAlbum  = "MediaBrowser.Controller.Entities.Audio.MusicAlbum"
	TypeAudio       = "MediaBrowser.Controller.Entities.Audio.Audio"
	TypeMusicArtist = "MediaBrowser.Controller.Entities.Audio.MusicArtist"
	TypeMusicVideo  = "MediaBrowser.Controller.Entities.MusicVideo"
	TypeVideo       = "MediaBrowser.Controller.Entities.Video"
	TypeTrailer     = "MediaBrowser.Controller.Entities.Trailer"
	TypePerson      = "MediaBrowser.Controller.Entities.Person"
	TypeGenre       = "MediaBrowser.Controller.Entities.Genre"
)

// itemTypes maps the short names clients send in IncludeItemTypes.
var itemTypes = map[string]string{
	"Movie":       TypeMovie,
	"BoxSet":      TypeBoxSet,
	"Episode":     TypeEpisode,
	"Series":      TypeSeries,
	"Season":      TypeSeason,
	"Playlist":    TypePlaylist,
	"MusicAlbum":  TypeMusicAlbum,
	"Audio":       TypeAudio,
	"MusicArtist": TypeMusicArtist,
	"MusicVideo":  TypeMusicVideo,
	"Video":       TypeVideo,
	"Trailer":     TypeTrailer,
	"Person":      TypePerson,
	"Genre":       TypeGenre,
}

// unsupportedItemTypes are valid Jellyfin types that are not searchable yet.
var unsupportedItemTypes = map[string]bool{
	"LiveTvProgram":   true,
	"AudioBook":       true,
	"AudioBookBoxSet": true,
	"TvChannel":       true,
	"PhotoAlbum":      true,
	"Photo":           true,
}

// ResolveItemType returns the fully qualified type for a short item type name.
// Unknown and unsupported names both report false.
func ResolveItemType(short string) (string, bool) {
	full, ok := itemTypes[short]
	return full, ok
}

// IsUnsupportedItemType reports whether a short name is a known Jellyfin
// type that search does not cover.
func IsUnsupportedItemType(short string) bool {
	return unsupportedItemTypes[short]
}
