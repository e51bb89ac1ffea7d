package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trackarr/internal/apperr"
	"trackarr/internal/db"
	"trackarr/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))
	return NewStore(database.DB)
}

func seedItem(t *testing.T, store *Store, title, imdbID string, mediaType models.MediaType) *models.MediaItem {
	t.Helper()
	item := &models.MediaItem{
		ID:        uuid.New(),
		IMDBID:    imdbID,
		Title:     title,
		MediaType: mediaType,
	}
	require.NoError(t, store.InsertMediaItem(item))
	return item
}

func seedSeason(t *testing.T, store *Store, mediaID uuid.UUID, number int) *models.Season {
	t.Helper()
	season := &models.Season{ID: uuid.New(), MediaItemID: mediaID, SeasonNumber: number}
	require.NoError(t, store.InsertSeason(season))
	return season
}

func seedEpisode(t *testing.T, store *Store, seasonID uuid.UUID, number int, title string, watched bool) *models.Episode {
	t.Helper()
	e := &models.Episode{ID: uuid.New(), SeasonID: seasonID, EpisodeNumber: number, Title: title, Watched: watched}
	require.NoError(t, store.InsertEpisode(e))
	return e
}

func TestMediaItemRoundTrip(t *testing.T) {
	store := newTestStore(t)

	year := 2008
	rating := "9.5"
	item := &models.MediaItem{
		ID:        uuid.New(),
		IMDBID:    "tt0903747",
		Title:     "Breaking Bad",
		MediaType: models.MediaTypeSeries,
		Year:      &year,
		Rating:    &rating,
	}
	require.NoError(t, store.InsertMediaItem(item))
	require.False(t, item.CreatedAt.IsZero())

	got, err := store.GetMediaItem(item.ID)
	require.NoError(t, err)
	require.Equal(t, "Breaking Bad", got.Title)
	require.Equal(t, models.MediaTypeSeries, got.MediaType)
	require.NotNil(t, got.Year)
	require.Equal(t, 2008, *got.Year)
	require.NotNil(t, got.Rating)
	require.Equal(t, "9.5", *got.Rating)
	require.False(t, got.Watched)

	byIMDB, err := store.GetMediaItemByIMDBID("tt0903747")
	require.NoError(t, err)
	require.Equal(t, item.ID, byIMDB.ID)

	_, err = store.GetMediaItem(uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = store.GetMediaItemByIMDBID("tt0000000")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInsertDuplicateIMDBID(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "Heat", "tt0113277", models.MediaTypeMovie)

	dup := &models.MediaItem{ID: uuid.New(), IMDBID: "tt0113277", Title: "Heat again", MediaType: models.MediaTypeMovie}
	err := store.InsertMediaItem(dup)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestListMediaItemsFilters(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "Alien", "tt0078748", models.MediaTypeMovie)
	watchedMovie := seedItem(t, store, "Blade Runner", "tt0083658", models.MediaTypeMovie)
	seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)
	require.NoError(t, store.SetMediaWatched(watchedMovie.ID, true))

	all, err := store.ListMediaItems(MediaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by title.
	require.Equal(t, "Alien", all[0].Title)
	require.Equal(t, "Dark", all[2].Title)

	movie := models.MediaTypeMovie
	movies, err := store.ListMediaItems(MediaFilter{MediaType: &movie})
	require.NoError(t, err)
	require.Len(t, movies, 2)

	watched := true
	watchedOnly, err := store.ListMediaItems(MediaFilter{Watched: &watched})
	require.NoError(t, err)
	require.Len(t, watchedOnly, 1)
	require.Equal(t, watchedMovie.ID, watchedOnly[0].ID)

	both, err := store.ListMediaItems(MediaFilter{MediaType: &movie, Watched: &watched})
	require.NoError(t, err)
	require.Len(t, both, 1)
}

func TestDeleteMediaItemCascades(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)
	season := seedSeason(t, store, item.ID, 1)
	seedEpisode(t, store, season.ID, 1, "Secrets", false)

	require.NoError(t, store.DeleteMediaItem(item.ID))

	seasons, err := store.SeasonsWithEpisodes(item.ID)
	require.NoError(t, err)
	require.Empty(t, seasons)

	require.ErrorIs(t, store.DeleteMediaItem(item.ID), apperr.ErrNotFound)
}

func TestSetWatchedFlags(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Severance", "tt11280740", models.MediaTypeSeries)
	season := seedSeason(t, store, item.ID, 1)
	episode := seedEpisode(t, store, season.ID, 1, "Good News About Hell", false)

	require.NoError(t, store.SetMediaWatched(item.ID, true))
	require.NoError(t, store.SetSeasonWatched(season.ID, true))
	require.NoError(t, store.SetEpisodeWatched(episode.ID, true))

	got, err := store.GetMediaItem(item.ID)
	require.NoError(t, err)
	require.True(t, got.Watched)

	seasons, err := store.SeasonsWithEpisodes(item.ID)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	require.True(t, seasons[0].Watched)
	require.Len(t, seasons[0].Episodes, 1)
	require.True(t, seasons[0].Episodes[0].Watched)

	require.ErrorIs(t, store.SetMediaWatched(uuid.New(), true), apperr.ErrNotFound)
	require.ErrorIs(t, store.SetSeasonWatched(uuid.New(), true), apperr.ErrNotFound)
	require.ErrorIs(t, store.SetEpisodeWatched(uuid.New(), true), apperr.ErrNotFound)
}

func TestWatchedEpisodeKeys(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)
	s1 := seedSeason(t, store, item.ID, 1)
	s2 := seedSeason(t, store, item.ID, 2)
	seedEpisode(t, store, s1.ID, 1, "Secrets", true)
	seedEpisode(t, store, s1.ID, 2, "Lies", false)
	seedEpisode(t, store, s2.ID, 1, "Beginnings and Endings", true)

	// Another item's watched episodes must not leak in.
	other := seedItem(t, store, "Severance", "tt11280740", models.MediaTypeSeries)
	os1 := seedSeason(t, store, other.ID, 1)
	seedEpisode(t, store, os1.ID, 1, "Good News About Hell", true)

	keys, err := store.WatchedEpisodeKeys(item.ID)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.True(t, keys[EpisodeKey{Season: 1, Episode: 1}])
	require.True(t, keys[EpisodeKey{Season: 2, Episode: 1}])
	require.False(t, keys[EpisodeKey{Season: 1, Episode: 2}])
}

func TestDeleteEpisodeTreeInTransaction(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)
	season := seedSeason(t, store, item.ID, 1)
	seedEpisode(t, store, season.ID, 1, "Secrets", true)

	t.Run("rollback reverts deletions", func(t *testing.T) {
		tx, err := store.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.DeleteEpisodeTree(item.ID))
		require.NoError(t, tx.Rollback())

		seasons, err := store.SeasonsWithEpisodes(item.ID)
		require.NoError(t, err)
		require.Len(t, seasons, 1)
		require.Len(t, seasons[0].Episodes, 1)
	})

	t.Run("commit removes the tree", func(t *testing.T) {
		tx, err := store.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.DeleteEpisodeTree(item.ID))
		require.NoError(t, tx.Commit())

		seasons, err := store.SeasonsWithEpisodes(item.ID)
		require.NoError(t, err)
		require.Empty(t, seasons)
	})
}

func TestSeasonUniquePerItem(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)
	seedSeason(t, store, item.ID, 1)

	err := store.InsertSeason(&models.Season{ID: uuid.New(), MediaItemID: item.ID, SeasonNumber: 1})
	require.ErrorIs(t, err, ErrDuplicate)

	// The same number under a different item is fine.
	other := seedItem(t, store, "Severance", "tt11280740", models.MediaTypeSeries)
	require.NoError(t, store.InsertSeason(&models.Season{ID: uuid.New(), MediaItemID: other.ID, SeasonNumber: 1}))
}

func TestSetGuideURL(t *testing.T) {
	store := newTestStore(t)
	item := seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)

	require.NoError(t, store.SetGuideURL(item.ID, "https://epguides.com/Dark/"))

	got, err := store.GetMediaItem(item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.GuideURL)
	require.Equal(t, "https://epguides.com/Dark/", *got.GuideURL)
}

func TestTitleSet(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "Breaking Bad", "tt0903747", models.MediaTypeSeries)
	seedItem(t, store, "Heat", "tt0113277", models.MediaTypeMovie)

	set, err := store.TitleSet()
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Contains(t, set, "breaking bad")
	require.Contains(t, set, "heat")
}

func TestCountByType(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, "Heat", "tt0113277", models.MediaTypeMovie)
	seedItem(t, store, "Alien", "tt0078748", models.MediaTypeMovie)
	seedItem(t, store, "Dark", "tt5753856", models.MediaTypeSeries)

	counts, err := store.CountByType()
	require.NoError(t, err)
	require.Equal(t, 2, counts["movie"])
	require.Equal(t, 1, counts["series"])
}
