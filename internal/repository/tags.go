package repository

import (
	"time"

	"github.com/google/uuid"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

// Tag CRUD is a thin collaborator surface; the ingest pipeline never
// touches these tables.

func (s *Store) CreateTag(t *models.Tag) error {
	t.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO tags (id, name, sort_position, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.SortPosition, t.CreatedAt)
	return mapSQLiteError(err)
}

func (s *Store) ListTags() ([]*models.Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, sort_position, created_at FROM tags ORDER BY sort_position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.SortPosition, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) UpdateTag(t *models.Tag) error {
	result, err := s.db.Exec(`UPDATE tags SET name = ?, sort_position = ? WHERE id = ?`,
		t.Name, t.SortPosition, t.ID)
	if err != nil {
		return mapSQLiteError(err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTag(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) AssignTag(mediaID, tagID uuid.UUID) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO media_tags (media_item_id, tag_id) VALUES (?, ?)`, mediaID, tagID)
	return err
}

func (s *Store) RemoveTag(mediaID, tagID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM media_tags WHERE media_item_id = ? AND tag_id = ?`, mediaID, tagID)
	return err
}

func tagsForMedia(q querier, mediaID uuid.UUID) ([]*models.Tag, error) {
	rows, err := q.Query(`
		SELECT t.id, t.name, t.sort_position, t.created_at FROM tags t
		JOIN media_tags mt ON mt.tag_id = t.id
		WHERE mt.media_item_id = ? ORDER BY t.sort_position, t.name`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.SortPosition, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// MediaGroup is one bucket of the grouped-by-genre home view.
type MediaGroup struct {
	Name  string              `json:"name"`
	Items []*models.MediaItem `json:"items"`
}

// GroupedByGenre returns media items bucketed by genre name, ordered by
// genre then title. Items without any genre land in an "Uncategorized"
// trailing bucket.
func (s *Store) GroupedByGenre() ([]*MediaGroup, error) {
	rows, err := s.db.Query(`
		SELECT g.name, m.id, m.imdb_id, m.title, m.media_type, m.poster_url, m.description, m.year, m.rating, m.watched, m.guide_url, m.created_at, m.updated_at
		FROM genres g
		JOIN media_genres mg ON mg.genre_id = g.id
		JOIN media_items m ON m.id = mg.media_item_id
		ORDER BY g.name, m.title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*MediaGroup
	index := make(map[string]*MediaGroup)
	for rows.Next() {
		var genreName string
		m := &models.MediaItem{}
		if err := rows.Scan(&genreName, &m.ID, &m.IMDBID, &m.Title, &m.MediaType,
			&m.PosterURL, &m.Description, &m.Year, &m.Rating, &m.Watched,
			&m.GuideURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		group, ok := index[genreName]
		if !ok {
			group = &MediaGroup{Name: genreName}
			index[genreName] = group
			groups = append(groups, group)
		}
		group.Items = append(group.Items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orphanRows, err := s.db.Query(`
		SELECT ` + mediaItemColumns + ` FROM media_items m
		WHERE NOT EXISTS (SELECT 1 FROM media_genres mg WHERE mg.media_item_id = m.id)
		ORDER BY m.title`)
	if err != nil {
		return nil, err
	}
	defer orphanRows.Close()

	var orphans []*models.MediaItem
	for orphanRows.Next() {
		m, err := scanMediaItem(orphanRows)
		if err != nil {
			return nil, err
		}
		orphans = append(orphans, m)
	}
	if err := orphanRows.Err(); err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		groups = append(groups, &MediaGroup{Name: "Uncategorized", Items: orphans})
	}
	return groups, nil
}
