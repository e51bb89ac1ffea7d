// Package discovery aggregates paged catalog listings into a deduplicated
// suggestion feed, excluding titles already in the library.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"trackarr/internal/apperr"
	"trackarr/internal/catalog"
	"trackarr/internal/models"
	"trackarr/internal/repository"
)

type Filter string

const (
	FilterTrending       Filter = "trending"
	FilterTopRatedMovies Filter = "top-rated-movies"
	FilterTopRatedTV     Filter = "top-rated-tv"
	FilterUpcoming       Filter = "upcoming"
	FilterNowPlaying     Filter = "now-playing"
	FilterPopularTV      Filter = "popular-tv"
	FilterFamilyMovies   Filter = "family-movies"
	FilterFamilyTV       Filter = "family-tv"
	FilterDocumentaries  Filter = "documentaries"
	FilterComedy         Filter = "comedy"
	FilterRomCom         Filter = "rom-com"
)

// searchResultLimit caps the remote search response.
const searchResultLimit = 10

// upcomingWindowDays is the rolling release-date window for the upcoming
// filter.
const upcomingWindowDays = 90

// endpoint describes the catalog request behind one filter. impliedType is
// the kind of every entry from that endpoint; trending mixes kinds and
// leaves it empty so the per-item media_type decides.
type endpoint struct {
	path        string
	params      url.Values
	impliedType models.MediaType
}

func endpointFor(filter Filter, now time.Time) (endpoint, error) {
	discover := func(kind string, genres string) endpoint {
		implied := models.MediaTypeMovie
		if kind == "tv" {
			implied = models.MediaTypeSeries
		}
		params := url.Values{}
		params.Set("with_genres", genres)
		params.Set("sort_by", "popularity.desc")
		return endpoint{path: "/discover/" + kind, params: params, impliedType: implied}
	}

	switch filter {
	case FilterTrending:
		return endpoint{path: "/trending/all/week"}, nil
	case FilterTopRatedMovies:
		return endpoint{path: "/movie/top_rated", impliedType: models.MediaTypeMovie}, nil
	case FilterTopRatedTV:
		return endpoint{path: "/tv/top_rated", impliedType: models.MediaTypeSeries}, nil
	case FilterUpcoming:
		params := url.Values{}
		params.Set("primary_release_date.gte", now.Format("2006-01-02"))
		params.Set("primary_release_date.lte", now.AddDate(0, 0, upcomingWindowDays).Format("2006-01-02"))
		params.Set("sort_by", "popularity.desc")
		return endpoint{path: "/discover/movie", params: params, impliedType: models.MediaTypeMovie}, nil
	case FilterNowPlaying:
		return endpoint{path: "/movie/now_playing", impliedType: models.MediaTypeMovie}, nil
	case FilterPopularTV:
		return endpoint{path: "/tv/popular", impliedType: models.MediaTypeSeries}, nil
	case FilterFamilyMovies:
		return discover("movie", "10751"), nil
	case FilterFamilyTV:
		return discover("tv", "10751"), nil
	case FilterDocumentaries:
		return discover("movie", "99"), nil
	case FilterComedy:
		return discover("movie", "35"), nil
	case FilterRomCom:
		return discover("movie", "10749,35"), nil
	default:
		return endpoint{}, fmt.Errorf("%w: unknown filter %q", apperr.ErrInvalidIdentifier, filter)
	}
}

type Service struct {
	catalog *catalog.Client
	store   *repository.Store
	logger  *logrus.Logger
}

func NewService(catalogClient *catalog.Client, store *repository.Store, logger *logrus.Logger) *Service {
	return &Service{catalog: catalogClient, store: store, logger: logger}
}

// Discover fetches pageCount pages starting at startPage concurrently,
// merges them in page order, deduplicates by catalog id (first seen wins)
// and drops entries without a poster, entries of non-title kinds, and
// titles already present locally. A single failed page fails the call.
func (s *Service) Discover(ctx context.Context, filter Filter, startPage, pageCount int) ([]*models.DiscoverItem, error) {
	if !s.catalog.Configured() {
		return nil, apperr.ErrServiceNotConfigured
	}
	ep, err := endpointFor(filter, time.Now())
	if err != nil {
		return nil, err
	}
	if startPage < 1 {
		startPage = 1
	}
	if pageCount < 1 {
		pageCount = 1
	}

	owned, err := s.store.TitleSet()
	if err != nil {
		return nil, fmt.Errorf("load owned titles: %w", err)
	}

	pages := make([][]catalog.Item, pageCount)
	p := pool.New().WithErrors().WithMaxGoroutines(pageCount)
	for i := 0; i < pageCount; i++ {
		i := i
		p.Go(func() error {
			items, err := s.catalog.ListPage(ctx, ep.path, ep.params, startPage+i)
			if err != nil {
				return err
			}
			pages[i] = items
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	seen := make(map[int]bool)
	var out []*models.DiscoverItem
	for _, page := range pages {
		for _, item := range page {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true

			mapped, ok := mapItem(item, ep.impliedType)
			if !ok {
				continue
			}
			if _, taken := owned[strings.ToLower(mapped.Title)]; taken {
				continue
			}
			out = append(out, mapped)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"filter": filter,
		"pages":  pageCount,
		"items":  len(out),
	}).Debug("Discovery aggregation complete")
	return out, nil
}

// Search runs a remote cross-media search, keeping only titled entries
// with posters and capping the result count.
func (s *Service) Search(ctx context.Context, query string) ([]*models.DiscoverItem, error) {
	if !s.catalog.Configured() {
		return nil, apperr.ErrServiceNotConfigured
	}
	items, err := s.catalog.SearchMulti(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	var out []*models.DiscoverItem
	for _, item := range items {
		mapped, ok := mapItem(item, "")
		if !ok {
			continue
		}
		out = append(out, mapped)
		if len(out) == searchResultLimit {
			break
		}
	}
	return out, nil
}

// mapItem converts a catalog entry to the local taxonomy. Entries that are
// neither movies nor series (e.g. "person" from cross-media search) and
// entries without a poster are discarded.
func mapItem(item catalog.Item, implied models.MediaType) (*models.DiscoverItem, bool) {
	mediaType := implied
	switch item.MediaType {
	case "movie":
		mediaType = models.MediaTypeMovie
	case "tv":
		mediaType = models.MediaTypeSeries
	case "":
		// list endpoints carry no media_type; trust the endpoint's kind
	default:
		return nil, false
	}
	if !mediaType.Valid() {
		return nil, false
	}
	poster := item.PosterURL()
	if poster == "" {
		return nil, false
	}
	return &models.DiscoverItem{
		CatalogID: item.ID,
		Title:     item.DisplayTitle(),
		MediaType: mediaType,
		PosterURL: poster,
		Overview:  item.Overview,
		Year:      item.Year(),
		Rating:    item.VoteAverage,
	}, true
}
