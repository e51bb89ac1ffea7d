package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trackarr/internal/models"
)

// Genres and actors are global lookup tables. Lookups are case-sensitive
// exact matches on the decoded name; dedup against the table happens here,
// not at extraction time.

func findOrCreateGenre(q querier, name string) (*models.Genre, error) {
	g := &models.Genre{}
	err := q.QueryRow(`SELECT id, name FROM genres WHERE name = ?`, name).Scan(&g.ID, &g.Name)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup genre %q: %w", name, err)
	}
	g.ID = uuid.New()
	g.Name = name
	if _, err := q.Exec(`INSERT INTO genres (id, name) VALUES (?, ?)`, g.ID, g.Name); err != nil {
		return nil, fmt.Errorf("insert genre %q: %w", name, mapSQLiteError(err))
	}
	return g, nil
}

func (s *Store) FindOrCreateGenre(name string) (*models.Genre, error) {
	return findOrCreateGenre(s.db, name)
}
func (t *Tx) FindOrCreateGenre(name string) (*models.Genre, error) {
	return findOrCreateGenre(t.tx, name)
}

func findOrCreateActor(q querier, name string) (*models.Actor, error) {
	a := &models.Actor{}
	err := q.QueryRow(`SELECT id, name FROM actors WHERE name = ?`, name).Scan(&a.ID, &a.Name)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup actor %q: %w", name, err)
	}
	a.ID = uuid.New()
	a.Name = name
	if _, err := q.Exec(`INSERT INTO actors (id, name) VALUES (?, ?)`, a.ID, a.Name); err != nil {
		return nil, fmt.Errorf("insert actor %q: %w", name, mapSQLiteError(err))
	}
	return a, nil
}

func (s *Store) FindOrCreateActor(name string) (*models.Actor, error) {
	return findOrCreateActor(s.db, name)
}
func (t *Tx) FindOrCreateActor(name string) (*models.Actor, error) {
	return findOrCreateActor(t.tx, name)
}

func linkGenre(q querier, mediaID, genreID uuid.UUID) error {
	// A page may repeat a genre; the link is idempotent.
	_, err := q.Exec(`INSERT OR IGNORE INTO media_genres (media_item_id, genre_id) VALUES (?, ?)`, mediaID, genreID)
	return err
}

func (s *Store) LinkGenre(mediaID, genreID uuid.UUID) error { return linkGenre(s.db, mediaID, genreID) }
func (t *Tx) LinkGenre(mediaID, genreID uuid.UUID) error    { return linkGenre(t.tx, mediaID, genreID) }

func linkActor(q querier, mediaID, actorID uuid.UUID) error {
	_, err := q.Exec(`INSERT OR IGNORE INTO media_actors (media_item_id, actor_id) VALUES (?, ?)`, mediaID, actorID)
	return err
}

func (s *Store) LinkActor(mediaID, actorID uuid.UUID) error { return linkActor(s.db, mediaID, actorID) }
func (t *Tx) LinkActor(mediaID, actorID uuid.UUID) error    { return linkActor(t.tx, mediaID, actorID) }

func genresForMedia(q querier, mediaID uuid.UUID) ([]*models.Genre, error) {
	rows, err := q.Query(`
		SELECT g.id, g.name FROM genres g
		JOIN media_genres mg ON mg.genre_id = g.id
		WHERE mg.media_item_id = ? ORDER BY g.name`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []*models.Genre
	for rows.Next() {
		g := &models.Genre{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func actorsForMedia(q querier, mediaID uuid.UUID) ([]*models.Actor, error) {
	rows, err := q.Query(`
		SELECT a.id, a.name FROM actors a
		JOIN media_actors ma ON ma.actor_id = a.id
		WHERE ma.media_item_id = ? ORDER BY a.name`, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []*models.Actor
	for rows.Next() {
		a := &models.Actor{}
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}
