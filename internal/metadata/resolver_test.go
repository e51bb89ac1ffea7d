package metadata

import (
	"context"
	"errors"
	"testing"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

type fakeLookup struct {
	configured bool
	imdbID     string
	err        error
}

func (f *fakeLookup) Configured() bool { return f.configured }

func (f *fakeLookup) ExternalIMDBID(ctx context.Context, mediaType models.MediaType, catalogID int) (string, error) {
	return f.imdbID, f.err
}

func TestResolveURL(t *testing.T) {
	r := NewResolver(&fakeLookup{})

	tests := map[string]struct {
		url     string
		want    string
		wantErr bool
	}{
		"canonical":         {url: "https://www.imdb.com/title/tt0903747/", want: "tt0903747"},
		"no trailing slash": {url: "https://www.imdb.com/title/tt0903747", want: "tt0903747"},
		"with query":        {url: "https://www.imdb.com/title/tt0903747/?ref_=hm", want: "tt0903747"},
		"mobile host":       {url: "https://m.imdb.com/title/tt1234567/episodes", want: "tt1234567"},
		"no title segment":  {url: "https://www.imdb.com/name/nm0000001/", wantErr: true},
		"empty":             {url: "", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := r.ResolveURL(tc.url)
			if tc.wantErr {
				if !errors.Is(err, apperr.ErrInvalidIdentifier) {
					t.Fatalf("ResolveURL(%q) error = %v, want ErrInvalidIdentifier", tc.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveURL(%q) failed: %v", tc.url, err)
			}
			if got != tc.want {
				t.Errorf("ResolveURL(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestResolveCatalogID(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		r := NewResolver(&fakeLookup{configured: false})
		_, err := r.ResolveCatalogID(ctx, models.MediaTypeMovie, 550)
		if !errors.Is(err, apperr.ErrServiceNotConfigured) {
			t.Fatalf("error = %v, want ErrServiceNotConfigured", err)
		}
	})

	t.Run("lookup error", func(t *testing.T) {
		r := NewResolver(&fakeLookup{configured: true, err: errors.New("boom")})
		_, err := r.ResolveCatalogID(ctx, models.MediaTypeMovie, 550)
		if !errors.Is(err, apperr.ErrUpstream) {
			t.Fatalf("error = %v, want ErrUpstream", err)
		}
	})

	t.Run("no external id", func(t *testing.T) {
		r := NewResolver(&fakeLookup{configured: true, imdbID: ""})
		_, err := r.ResolveCatalogID(ctx, models.MediaTypeSeries, 1396)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("resolved", func(t *testing.T) {
		r := NewResolver(&fakeLookup{configured: true, imdbID: "tt0903747"})
		got, err := r.ResolveCatalogID(ctx, models.MediaTypeSeries, 1396)
		if err != nil {
			t.Fatalf("ResolveCatalogID failed: %v", err)
		}
		if got != "tt0903747" {
			t.Errorf("got %q, want tt0903747", got)
		}
	})
}
