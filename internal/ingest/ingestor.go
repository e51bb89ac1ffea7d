// Package ingest owns the atomic write path for external metadata: initial
// ingest of a media item and episode re-sync with watched-state
// reconciliation.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trackarr/internal/apperr"
	"trackarr/internal/metadata"
	"trackarr/internal/models"
	"trackarr/internal/repository"
)

// PrimaryExtractor pulls the flat entity from the primary source.
type PrimaryExtractor interface {
	Extract(ctx context.Context, imdbID string) (*metadata.PrimaryMetadata, error)
}

// EpisodeGuide locates and parses the secondary-source episode guide.
type EpisodeGuide interface {
	GuideURL(title string) string
	Fetch(ctx context.Context, url string) ([]*metadata.ParsedSeason, error)
}

// AddRequest carries the user-supplied identifier: a primary-source URL or
// a (catalog id, kind) pair.
type AddRequest struct {
	PrimaryURL string
	CatalogID  *int
	MediaType  models.MediaType
}

type Ingestor struct {
	store     *repository.Store
	resolver  *metadata.Resolver
	extractor PrimaryExtractor
	guide     EpisodeGuide
	logger    *logrus.Logger
}

func NewIngestor(store *repository.Store, resolver *metadata.Resolver, extractor PrimaryExtractor, guide EpisodeGuide, logger *logrus.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		guide:     guide,
		logger:    logger,
	}
}

// Ingest resolves the identifier, extracts primary metadata and commits the
// entity graph in one transaction. A duplicate external id comes back as
// *apperr.ConflictError carrying the existing internal id. Episode-guide
// failures are swallowed: the item still commits, with zero seasons.
func (ing *Ingestor) Ingest(ctx context.Context, req AddRequest) (*models.MediaItem, error) {
	imdbID, err := ing.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := ing.store.GetMediaItemByIMDBID(imdbID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if existing != nil {
		return nil, &apperr.ConflictError{ExistingID: existing.ID}
	}

	meta, err := ing.extractor.Extract(ctx, imdbID)
	if err != nil {
		return nil, err
	}

	tx, err := ing.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item := &models.MediaItem{
		ID:          uuid.New(),
		IMDBID:      meta.IMDBID,
		Title:       meta.Title,
		MediaType:   meta.MediaType,
		PosterURL:   meta.PosterURL,
		Description: meta.Description,
		Year:        meta.Year,
		Rating:      meta.Rating,
	}
	if err := tx.InsertMediaItem(item); err != nil {
		return nil, err
	}

	for _, name := range meta.Genres {
		genre, err := tx.FindOrCreateGenre(name)
		if err != nil {
			return nil, err
		}
		if err := tx.LinkGenre(item.ID, genre.ID); err != nil {
			return nil, err
		}
	}
	for _, name := range meta.Actors {
		actor, err := tx.FindOrCreateActor(name)
		if err != nil {
			return nil, err
		}
		if err := tx.LinkActor(item.ID, actor.ID); err != nil {
			return nil, err
		}
	}

	if item.MediaType == models.MediaTypeSeries {
		// Partial metadata beats no metadata: a missing or unparseable
		// guide must not cost us the item itself. Only the fetch is
		// optional; once episodes are being written, a failure aborts the
		// whole transaction.
		guideURL := ing.guide.GuideURL(item.Title)
		seasons, err := ing.guide.Fetch(ctx, guideURL)
		if err != nil {
			ing.logger.WithError(err).WithField("imdb_id", item.IMDBID).
				Warn("Episode guide unavailable, committing without episodes")
		} else {
			if err := insertEpisodeTree(tx, item.ID, seasons, nil); err != nil {
				return nil, err
			}
			if err := tx.SetGuideURL(item.ID, guideURL); err != nil {
				return nil, err
			}
			item.GuideURL = &guideURL
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingest: %w", err)
	}
	return item, nil
}

func (ing *Ingestor) resolve(ctx context.Context, req AddRequest) (string, error) {
	switch {
	case req.PrimaryURL != "":
		return ing.resolver.ResolveURL(req.PrimaryURL)
	case req.CatalogID != nil:
		if !req.MediaType.Valid() {
			return "", fmt.Errorf("%w: media type required with catalog id", apperr.ErrInvalidIdentifier)
		}
		return ing.resolver.ResolveCatalogID(ctx, req.MediaType, *req.CatalogID)
	default:
		return "", fmt.Errorf("%w: primary url or catalog id required", apperr.ErrInvalidIdentifier)
	}
}

// Resync replaces a series' episode tree from a fresh guide parse,
// carrying watched flags across on (season number, episode number) keys.
// Unlike initial ingest, any guide failure aborts the whole transaction:
// the pre-sync tree survives intact.
func (ing *Ingestor) Resync(ctx context.Context, mediaID uuid.UUID, guideURL string) error {
	item, err := ing.store.GetMediaItem(mediaID)
	if err != nil {
		return err
	}
	if item.MediaType != models.MediaTypeSeries {
		return fmt.Errorf("%w: cannot re-sync episodes for a %s", apperr.ErrUnsupportedOperation, item.MediaType)
	}

	// Explicit URL wins, then the cached location, then re-derivation.
	cache := false
	switch {
	case guideURL != "":
	case item.GuideURL != nil && *item.GuideURL != "":
		guideURL = *item.GuideURL
	default:
		guideURL = ing.guide.GuideURL(item.Title)
		cache = true
	}

	tx, err := ing.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	watched, err := tx.WatchedEpisodeKeys(mediaID)
	if err != nil {
		return fmt.Errorf("snapshot watched state: %w", err)
	}
	if err := tx.DeleteEpisodeTree(mediaID); err != nil {
		return err
	}

	seasons, err := ing.guide.Fetch(ctx, guideURL)
	if err != nil {
		return err
	}
	if err := insertEpisodeTree(tx, mediaID, seasons, watched); err != nil {
		return err
	}
	if cache {
		if err := tx.SetGuideURL(mediaID, guideURL); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit re-sync: %w", err)
	}
	return nil
}

// insertEpisodeTree persists a parsed season/episode tree for one item.
// watched restores flags by (season, episode) key; keys absent from the
// fresh parse silently lose their state.
func insertEpisodeTree(tx *repository.Tx, mediaID uuid.UUID, seasons []*metadata.ParsedSeason, watched map[repository.EpisodeKey]bool) error {
	for _, parsed := range seasons {
		season := &models.Season{
			ID:           uuid.New(),
			MediaItemID:  mediaID,
			SeasonNumber: parsed.Number,
			Year:         parsed.Year,
		}
		if err := tx.InsertSeason(season); err != nil {
			return err
		}
		for _, ep := range parsed.Episodes {
			episode := &models.Episode{
				ID:            uuid.New(),
				SeasonID:      season.ID,
				EpisodeNumber: ep.EpisodeNumber,
				Title:         ep.Title,
				AirDate:       ep.AirDate,
				Watched:       watched[repository.EpisodeKey{Season: parsed.Number, Episode: ep.EpisodeNumber}],
			}
			if err := tx.InsertEpisode(episode); err != nil {
				return err
			}
		}
	}
	return nil
}
