package repository

import (
	"time"

	"github.com/google/uuid"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

// Streaming-link CRUD is a thin collaborator surface.

func (s *Store) CreateStreamingLink(l *models.StreamingLink) error {
	l.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO streaming_links (id, media_item_id, platform, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.MediaItemID, l.Platform, l.URL, l.CreatedAt)
	return mapSQLiteError(err)
}

func (s *Store) DeleteStreamingLink(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM streaming_links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func linksForMedia(q querier, mediaID uuid.UUID) ([]*models.StreamingLink, error) {
	rows, err := q.Query(`
		SELECT id, media_item_id, platform, url, created_at
		FROM streaming_links WHERE media_item_id = ? ORDER BY platform`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.StreamingLink
	for rows.Next() {
		l := &models.StreamingLink{}
		if err := rows.Scan(&l.ID, &l.MediaItemID, &l.Platform, &l.URL, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// LinksForMedia lists the streaming links attached to one item.
func (s *Store) LinksForMedia(mediaID uuid.UUID) ([]*models.StreamingLink, error) {
	return linksForMedia(s.db, mediaID)
}
