package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
)

func TestEndpointFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Endpoint
	}{
		{"/Items", EndpointItems},
		{"/Users/abc/Items", EndpointItems},
		{"/Persons", EndpointPersons},
		{"/Artists", EndpointArtists},
		{"/Artists/AlbumArtists", EndpointAlbumArtists},
		{"/artists/albumartists/", EndpointAlbumArtists},
		{"/Genres", EndpointGenres},
		{"/something/else", EndpointItems},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, EndpointFromPath(tt.path))
		})
	}
}

func TestBuild_ExplicitTypesKeepInputOrder(t *testing.T) {
	plan := NewFilterBuilder().Build([]string{"Series", "Movie", "Episode"}, EndpointItems)

	assert.True(t, plan.Explicit)
	assert.Equal(t, []string{jellyfin.TypeSeries, jellyfin.TypeMovie, jellyfin.TypeEpisode}, plan.Types)
	assert.Equal(t,
		`type = "`+jellyfin.TypeSeries+`" OR type = "`+jellyfin.TypeMovie+`" OR type = "`+jellyfin.TypeEpisode+`"`,
		Render(plan.Filter()))
}

func TestBuild_DuplicateTypesCollapse(t *testing.T) {
	plan := NewFilterBuilder().Build([]string{"Movie", "Audio", "Movie", "Audio"}, EndpointItems)

	assert.Equal(t, []string{jellyfin.TypeMovie, jellyfin.TypeAudio}, plan.Types)
	or, ok := plan.Filter().(Or)
	require.True(t, ok)
	assert.Len(t, or, 2)
}

func TestBuild_UnresolvableTypesSkipped(t *testing.T) {
	plan := NewFilterBuilder().Build([]string{"Photo", "Movie", "Spaceship"}, EndpointItems)

	assert.Equal(t, []string{jellyfin.TypeMovie}, plan.Types)
	assert.Equal(t, []string{"Photo", "Spaceship"}, plan.Unresolved)
	assert.Equal(t, `type = "`+jellyfin.TypeMovie+`"`, Render(plan.Filter()))
}

func TestBuild_AllUnresolvableIsUnscoped(t *testing.T) {
	plan := NewFilterBuilder().Build([]string{"Photo"}, EndpointItems)

	assert.Empty(t, plan.Types)
	assert.Nil(t, plan.Filter())
}

func TestBuild_ItemsWithoutTypesHasNoFilter(t *testing.T) {
	plan := NewFilterBuilder().Build(nil, EndpointItems)

	assert.False(t, plan.Explicit)
	assert.Empty(t, plan.Types)
	assert.Nil(t, plan.Filter())
}

func TestBuild_ImplicitEndpointTypes(t *testing.T) {
	tests := []struct {
		endpoint Endpoint
		want     string
	}{
		{EndpointPersons, `type = "` + jellyfin.TypePerson + `"`},
		{EndpointArtists, `type = "` + jellyfin.TypeMusicArtist + `"`},
		{EndpointGenres, `type = "` + jellyfin.TypeGenre + `"`},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint.String(), func(t *testing.T) {
			plan := NewFilterBuilder().Build(nil, tt.endpoint)
			assert.False(t, plan.Explicit)
			assert.Equal(t, tt.want, Render(plan.Filter()))
		})
	}
}

func TestBuild_AlbumArtistsAddsFolderConstraint(t *testing.T) {
	plan := NewFilterBuilder().Build(nil, EndpointAlbumArtists)

	assert.Equal(t, `type = "`+jellyfin.TypeMusicArtist+`" AND isFolder = 1`, Render(plan.Filter()))

	and, ok := plan.Filter().(And)
	require.True(t, ok)
	assert.Contains(t, and, Expr(Eq{Field: FieldType, Value: jellyfin.TypeMusicArtist}))
	assert.Contains(t, and, Expr(Eq{Field: FieldIsFolder, Value: 1}))
}

func TestBuild_ExtraConstraintsConjoined(t *testing.T) {
	scope := In{Field: FieldTopParentID, Values: []string{"lib1", "lib2"}}
	plan := NewFilterBuilder().Build([]string{"Movie", "Series"}, EndpointItems, scope, nil)

	assert.Equal(t,
		`(type = "`+jellyfin.TypeMovie+`" OR type = "`+jellyfin.TypeSeries+`") AND topParentId IN ["lib1", "lib2"]`,
		Render(plan.Filter()))
	assert.Equal(t,
		`type = "`+jellyfin.TypeSeries+`" AND topParentId IN ["lib1", "lib2"]`,
		Render(plan.TypeFilter(jellyfin.TypeSeries)))
}

func TestPlan_WithConstraintDoesNotAlias(t *testing.T) {
	base := NewFilterBuilder().Build(nil, EndpointAlbumArtists)
	scoped := base.WithConstraint(In{Field: FieldTopParentID, Values: []string{"x"}})

	assert.Len(t, base.Constraints, 1)
	assert.Len(t, scoped.Constraints, 2)
	assert.Equal(t, base, base.WithConstraint(nil))
}
