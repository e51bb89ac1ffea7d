package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

func (t MediaType) Valid() bool {
	return t == MediaTypeMovie || t == MediaTypeSeries
}

// ──────────────────── Media ────────────────────

type MediaItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	IMDBID      string    `json:"imdb_id" db:"imdb_id"`
	Title       string    `json:"title" db:"title"`
	MediaType   MediaType `json:"media_type" db:"media_type"`
	PosterURL   *string   `json:"poster_url,omitempty" db:"poster_url"`
	Description *string   `json:"description,omitempty" db:"description"`
	Year        *int      `json:"year,omitempty" db:"year"`
	Rating      *string   `json:"rating,omitempty" db:"rating"`
	Watched     bool      `json:"watched" db:"watched"`
	GuideURL    *string   `json:"guide_url,omitempty" db:"guide_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Populated on detail reads only.
	Genres         []*Genre         `json:"genres,omitempty" db:"-"`
	Actors         []*Actor         `json:"actors,omitempty" db:"-"`
	Seasons        []*Season        `json:"seasons,omitempty" db:"-"`
	Tags           []*Tag           `json:"tags,omitempty" db:"-"`
	StreamingLinks []*StreamingLink `json:"streaming_links,omitempty" db:"-"`
}

// Season number 0 is reserved for specials.
type Season struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MediaItemID  uuid.UUID `json:"media_item_id" db:"media_item_id"`
	SeasonNumber int       `json:"season_number" db:"season_number"`
	Year         *int      `json:"year,omitempty" db:"year"`
	Watched      bool      `json:"watched" db:"watched"`

	Episodes []*Episode `json:"episodes,omitempty" db:"-"`
}

type Episode struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	SeasonID      uuid.UUID  `json:"season_id" db:"season_id"`
	EpisodeNumber int        `json:"episode_number" db:"episode_number"`
	Title         string     `json:"title" db:"title"`
	AirDate       *time.Time `json:"air_date,omitempty" db:"air_date"`
	Watched       bool       `json:"watched" db:"watched"`
}

// ──────────────────── Lookup entities ────────────────────

// Genre and Actor are global deduplicated lookups keyed by exact name.
type Genre struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

type Actor struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// ──────────────────── Collaborator entities ────────────────────

// Tags and streaming links are user-managed; the ingest pipeline never
// touches them.
type Tag struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SortPosition int       `json:"sort_position" db:"sort_position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type StreamingLink struct {
	ID          uuid.UUID `json:"id" db:"id"`
	MediaItemID uuid.UUID `json:"media_item_id" db:"media_item_id"`
	Platform    string    `json:"platform" db:"platform"`
	URL         string    `json:"url" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Discovery ────────────────────

// DiscoverItem is a catalog entry surfaced by the discovery aggregator.
// It is never persisted.
type DiscoverItem struct {
	CatalogID int       `json:"catalog_id"`
	Title     string    `json:"title"`
	MediaType MediaType `json:"media_type"`
	PosterURL string    `json:"poster_url"`
	Overview  string    `json:"overview,omitempty"`
	Year      *int      `json:"year,omitempty"`
	Rating    float64   `json:"rating"`
}
