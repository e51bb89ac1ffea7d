package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

func insertMediaItem(q querier, m *models.MediaItem) error {
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO media_items (id, imdb_id, title, media_type, poster_url, description, year, rating, watched, guide_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.IMDBID, m.Title, m.MediaType, m.PosterURL, m.Description,
		m.Year, m.Rating, m.Watched, m.GuideURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert media item: %w", mapSQLiteError(err))
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// InsertMediaItem persists a new media item. The id and imdb_id must be set.
func (s *Store) InsertMediaItem(m *models.MediaItem) error { return insertMediaItem(s.db, m) }
func (t *Tx) InsertMediaItem(m *models.MediaItem) error    { return insertMediaItem(t.tx, m) }

const mediaItemColumns = `id, imdb_id, title, media_type, poster_url, description, year, rating, watched, guide_url, created_at, updated_at`

func scanMediaItem(row interface{ Scan(...any) error }) (*models.MediaItem, error) {
	m := &models.MediaItem{}
	err := row.Scan(&m.ID, &m.IMDBID, &m.Title, &m.MediaType, &m.PosterURL,
		&m.Description, &m.Year, &m.Rating, &m.Watched, &m.GuideURL,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return m, nil
}

func getMediaItem(q querier, id uuid.UUID) (*models.MediaItem, error) {
	return scanMediaItem(q.QueryRow(`SELECT `+mediaItemColumns+` FROM media_items WHERE id = ?`, id))
}

func (s *Store) GetMediaItem(id uuid.UUID) (*models.MediaItem, error) { return getMediaItem(s.db, id) }
func (t *Tx) GetMediaItem(id uuid.UUID) (*models.MediaItem, error)    { return getMediaItem(t.tx, id) }

func getMediaItemByIMDBID(q querier, imdbID string) (*models.MediaItem, error) {
	return scanMediaItem(q.QueryRow(`SELECT `+mediaItemColumns+` FROM media_items WHERE imdb_id = ?`, imdbID))
}

// GetMediaItemByIMDBID returns apperr.ErrNotFound when no item carries the
// external id.
func (s *Store) GetMediaItemByIMDBID(imdbID string) (*models.MediaItem, error) {
	return getMediaItemByIMDBID(s.db, imdbID)
}
func (t *Tx) GetMediaItemByIMDBID(imdbID string) (*models.MediaItem, error) {
	return getMediaItemByIMDBID(t.tx, imdbID)
}

// MediaFilter narrows ListMediaItems.
type MediaFilter struct {
	MediaType *models.MediaType
	Watched   *bool
}

func (s *Store) ListMediaItems(f MediaFilter) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items`
	var conds []string
	var args []any
	if f.MediaType != nil {
		conds = append(conds, "media_type = ?")
		args = append(args, *f.MediaType)
	}
	if f.Watched != nil {
		conds = append(conds, "watched = ?")
		args = append(args, *f.Watched)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		m, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *Store) DeleteMediaItem(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) SetMediaWatched(id uuid.UUID, watched bool) error {
	result, err := s.db.Exec(`UPDATE media_items SET watched = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, watched, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func setGuideURL(q querier, id uuid.UUID, guideURL string) error {
	_, err := q.Exec(`UPDATE media_items SET guide_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, guideURL, id)
	return err
}

// SetGuideURL caches the resolved episode-guide location on the item.
func (s *Store) SetGuideURL(id uuid.UUID, guideURL string) error {
	return setGuideURL(s.db, id, guideURL)
}
func (t *Tx) SetGuideURL(id uuid.UUID, guideURL string) error {
	return setGuideURL(t.tx, id, guideURL)
}

// TitleSet returns every stored title, lower-cased, for the discovery
// aggregator's owned-title exclusion. Computed once per discovery call.
func (s *Store) TitleSet() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT title FROM media_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		set[strings.ToLower(title)] = struct{}{}
	}
	return set, rows.Err()
}

// GetMediaDetail assembles the full closure for one item: genres, actors,
// seasons with episodes, tags, and streaming links.
func (s *Store) GetMediaDetail(id uuid.UUID) (*models.MediaItem, error) {
	m, err := getMediaItem(s.db, id)
	if err != nil {
		return nil, err
	}
	if m.Genres, err = genresForMedia(s.db, id); err != nil {
		return nil, err
	}
	if m.Actors, err = actorsForMedia(s.db, id); err != nil {
		return nil, err
	}
	if m.Seasons, err = seasonsWithEpisodes(s.db, id); err != nil {
		return nil, err
	}
	if m.Tags, err = tagsForMedia(s.db, id); err != nil {
		return nil, err
	}
	if m.StreamingLinks, err = linksForMedia(s.db, id); err != nil {
		return nil, err
	}
	return m, nil
}

// CountByType powers the status endpoint.
func (s *Store) CountByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT media_type, COUNT(*) FROM media_items GROUP BY media_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mediaType string
		var count int
		if err := rows.Scan(&mediaType, &count); err != nil {
			return nil, err
		}
		counts[mediaType] = count
	}
	return counts, rows.Err()
}
