package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trackarr/internal/apperr"
	"trackarr/internal/catalog"
	"trackarr/internal/db"
	"trackarr/internal/models"
	"trackarr/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	database, err := db.Connect(":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewStore(database.DB)
}

func newService(t *testing.T, handler http.HandlerFunc) (*Service, *repository.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := newTestStore(t)
	return NewService(catalog.NewClientWithBase("test-key", srv.URL), store, testLogger()), store
}

func TestEndpointFor(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := map[Filter]struct {
		path    string
		implied models.MediaType
	}{
		FilterTrending:       {path: "/trending/all/week"},
		FilterTopRatedMovies: {path: "/movie/top_rated", implied: models.MediaTypeMovie},
		FilterTopRatedTV:     {path: "/tv/top_rated", implied: models.MediaTypeSeries},
		FilterNowPlaying:     {path: "/movie/now_playing", implied: models.MediaTypeMovie},
		FilterPopularTV:      {path: "/tv/popular", implied: models.MediaTypeSeries},
		FilterFamilyMovies:   {path: "/discover/movie", implied: models.MediaTypeMovie},
		FilterFamilyTV:       {path: "/discover/tv", implied: models.MediaTypeSeries},
		FilterDocumentaries:  {path: "/discover/movie", implied: models.MediaTypeMovie},
		FilterComedy:         {path: "/discover/movie", implied: models.MediaTypeMovie},
		FilterRomCom:         {path: "/discover/movie", implied: models.MediaTypeMovie},
	}
	for filter, tc := range tests {
		ep, err := endpointFor(filter, now)
		if err != nil {
			t.Errorf("endpointFor(%s) failed: %v", filter, err)
			continue
		}
		if ep.path != tc.path {
			t.Errorf("endpointFor(%s).path = %s, want %s", filter, ep.path, tc.path)
		}
		if ep.impliedType != tc.implied {
			t.Errorf("endpointFor(%s).impliedType = %q, want %q", filter, ep.impliedType, tc.implied)
		}
	}

	ep, err := endpointFor(FilterUpcoming, now)
	if err != nil {
		t.Fatalf("endpointFor(upcoming) failed: %v", err)
	}
	if got := ep.params.Get("primary_release_date.gte"); got != "2026-03-01" {
		t.Errorf("gte = %s", got)
	}
	if got := ep.params.Get("primary_release_date.lte"); got != "2026-05-30" {
		t.Errorf("lte = %s", got)
	}

	if _, err := endpointFor("bogus", now); !errors.Is(err, apperr.ErrInvalidIdentifier) {
		t.Errorf("unknown filter error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestDiscoverNotConfigured(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(catalog.NewClient(""), store, testLogger())

	if _, err := svc.Discover(context.Background(), FilterTrending, 1, 1); !errors.Is(err, apperr.ErrServiceNotConfigured) {
		t.Fatalf("error = %v, want ErrServiceNotConfigured", err)
	}
	if _, err := svc.Search(context.Background(), "dark"); !errors.Is(err, apperr.ErrServiceNotConfigured) {
		t.Fatalf("error = %v, want ErrServiceNotConfigured", err)
	}
}

func TestDiscoverMergesAndFilters(t *testing.T) {
	svc, store := newService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"results":[
				{"id":1,"title":"Fresh Pick","poster_path":"/a.jpg","release_date":"2024-01-01","vote_average":7.5},
				{"id":2,"title":"No Poster","release_date":"2024-01-01"},
				{"id":3,"title":"Owned Already","poster_path":"/c.jpg"}
			]}`)
		case "2":
			fmt.Fprint(w, `{"results":[
				{"id":1,"title":"Fresh Pick","poster_path":"/a.jpg"},
				{"id":4,"title":"Second Page","poster_path":"/d.jpg"}
			]}`)
		default:
			http.NotFound(w, r)
		}
	})

	// Title matching against the library is case-insensitive.
	owned := &models.MediaItem{ID: uuid.New(), IMDBID: "tt0000001", Title: "owned already", MediaType: models.MediaTypeMovie}
	if err := store.InsertMediaItem(owned); err != nil {
		t.Fatalf("seed: %v", err)
	}

	items, err := svc.Discover(context.Background(), FilterTopRatedMovies, 1, 2)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].CatalogID != 1 || items[1].CatalogID != 4 {
		t.Errorf("merge order wrong: %d then %d", items[0].CatalogID, items[1].CatalogID)
	}
	if items[0].MediaType != models.MediaTypeMovie {
		t.Errorf("implied type = %q", items[0].MediaType)
	}
	if items[0].Rating != 7.5 {
		t.Errorf("rating = %v", items[0].Rating)
	}
}

func TestDiscoverFailedPageFailsCall(t *testing.T) {
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":1,"title":"Fine","poster_path":"/a.jpg"}]}`)
	})

	_, err := svc.Discover(context.Background(), FilterTopRatedMovies, 1, 3)
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestDiscoverTrendingUsesPerItemType(t *testing.T) {
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/week" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"results":[
			{"id":10,"title":"A Movie","media_type":"movie","poster_path":"/m.jpg"},
			{"id":11,"name":"A Show","media_type":"tv","poster_path":"/t.jpg"},
			{"id":12,"name":"Somebody Famous","media_type":"person","poster_path":"/p.jpg"}
		]}`)
	})

	items, err := svc.Discover(context.Background(), FilterTrending, 1, 1)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (person discarded)", len(items))
	}
	if items[0].MediaType != models.MediaTypeMovie || items[1].MediaType != models.MediaTypeSeries {
		t.Errorf("types = %q, %q", items[0].MediaType, items[1].MediaType)
	}
	if items[1].Title != "A Show" {
		t.Errorf("tv title = %q", items[1].Title)
	}
}

func TestSearchCapsResults(t *testing.T) {
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("query"); got != "the" {
			t.Errorf("query = %q", got)
		}
		fmt.Fprint(w, `{"results":[`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"title":"Movie %d","media_type":"movie","poster_path":"/m%d.jpg"}`, i+1, i+1, i+1)
		}
		fmt.Fprint(w, `]}`)
	})

	items, err := svc.Search(context.Background(), "the")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(items) != searchResultLimit {
		t.Fatalf("got %d items, want %d", len(items), searchResultLimit)
	}
}
