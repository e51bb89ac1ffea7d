package repository

import (
	"fmt"

	"github.com/google/uuid"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

// EpisodeKey identifies an episode across re-syncs. The external guide may
// renumber episodes; only (season number, episode number) is stable enough
// to carry watched state forward.
type EpisodeKey struct {
	Season  int
	Episode int
}

func insertSeason(q querier, s *models.Season) error {
	_, err := q.Exec(`
		INSERT INTO seasons (id, media_item_id, season_number, year, watched)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.MediaItemID, s.SeasonNumber, s.Year, s.Watched,
	)
	if err != nil {
		return fmt.Errorf("insert season %d: %w", s.SeasonNumber, mapSQLiteError(err))
	}
	return nil
}

func (s *Store) InsertSeason(season *models.Season) error { return insertSeason(s.db, season) }
func (t *Tx) InsertSeason(season *models.Season) error    { return insertSeason(t.tx, season) }

func insertEpisode(q querier, e *models.Episode) error {
	_, err := q.Exec(`
		INSERT INTO episodes (id, season_id, episode_number, title, air_date, watched)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SeasonID, e.EpisodeNumber, e.Title, e.AirDate, e.Watched,
	)
	if err != nil {
		return fmt.Errorf("insert episode %d: %w", e.EpisodeNumber, mapSQLiteError(err))
	}
	return nil
}

func (s *Store) InsertEpisode(e *models.Episode) error { return insertEpisode(s.db, e) }
func (t *Tx) InsertEpisode(e *models.Episode) error    { return insertEpisode(t.tx, e) }

func watchedEpisodeKeys(q querier, mediaID uuid.UUID) (map[EpisodeKey]bool, error) {
	rows, err := q.Query(`
		SELECT s.season_number, e.episode_number
		FROM episodes e
		JOIN seasons s ON e.season_id = s.id
		WHERE s.media_item_id = ? AND e.watched = 1`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[EpisodeKey]bool)
	for rows.Next() {
		var k EpisodeKey
		if err := rows.Scan(&k.Season, &k.Episode); err != nil {
			return nil, err
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// WatchedEpisodeKeys snapshots the (season, episode) pairs currently marked
// watched for one media item.
func (s *Store) WatchedEpisodeKeys(mediaID uuid.UUID) (map[EpisodeKey]bool, error) {
	return watchedEpisodeKeys(s.db, mediaID)
}
func (t *Tx) WatchedEpisodeKeys(mediaID uuid.UUID) (map[EpisodeKey]bool, error) {
	return watchedEpisodeKeys(t.tx, mediaID)
}

func deleteEpisodesForMedia(q querier, mediaID uuid.UUID) error {
	_, err := q.Exec(`
		DELETE FROM episodes WHERE season_id IN
		(SELECT id FROM seasons WHERE media_item_id = ?)`, mediaID)
	if err != nil {
		return fmt.Errorf("delete episodes: %w", err)
	}
	return nil
}

func deleteSeasonsForMedia(q querier, mediaID uuid.UUID) error {
	_, err := q.Exec(`DELETE FROM seasons WHERE media_item_id = ?`, mediaID)
	if err != nil {
		return fmt.Errorf("delete seasons: %w", err)
	}
	return nil
}

// DeleteEpisodeTree removes all episodes, then all seasons, for one item.
func (t *Tx) DeleteEpisodeTree(mediaID uuid.UUID) error {
	if err := deleteEpisodesForMedia(t.tx, mediaID); err != nil {
		return err
	}
	return deleteSeasonsForMedia(t.tx, mediaID)
}

func seasonsWithEpisodes(q querier, mediaID uuid.UUID) ([]*models.Season, error) {
	rows, err := q.Query(`
		SELECT id, media_item_id, season_number, year, watched
		FROM seasons WHERE media_item_id = ? ORDER BY season_number`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []*models.Season
	index := make(map[uuid.UUID]*models.Season)
	for rows.Next() {
		season := &models.Season{}
		if err := rows.Scan(&season.ID, &season.MediaItemID, &season.SeasonNumber,
			&season.Year, &season.Watched); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
		index[season.ID] = season
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	epRows, err := q.Query(`
		SELECT e.id, e.season_id, e.episode_number, e.title, e.air_date, e.watched
		FROM episodes e
		JOIN seasons s ON e.season_id = s.id
		WHERE s.media_item_id = ?
		ORDER BY s.season_number, e.episode_number`, mediaID)
	if err != nil {
		return nil, err
	}
	defer epRows.Close()

	for epRows.Next() {
		e := &models.Episode{}
		if err := epRows.Scan(&e.ID, &e.SeasonID, &e.EpisodeNumber, &e.Title,
			&e.AirDate, &e.Watched); err != nil {
			return nil, err
		}
		if season, ok := index[e.SeasonID]; ok {
			season.Episodes = append(season.Episodes, e)
		}
	}
	return seasons, epRows.Err()
}

// SeasonsWithEpisodes loads the ordered season/episode tree for one item.
func (s *Store) SeasonsWithEpisodes(mediaID uuid.UUID) ([]*models.Season, error) {
	return seasonsWithEpisodes(s.db, mediaID)
}

func (s *Store) SetSeasonWatched(id uuid.UUID, watched bool) error {
	result, err := s.db.Exec(`UPDATE seasons SET watched = ? WHERE id = ?`, watched, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) SetEpisodeWatched(id uuid.UUID, watched bool) error {
	result, err := s.db.Exec(`UPDATE episodes SET watched = ? WHERE id = ?`, watched, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
