// Package catalog wraps the TMDB API: external-id resolution for the
// ingest pipeline and the paged list/search endpoints behind discovery.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"trackarr/internal/models"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	// TMDB allows ~50 req/s per key; stay under it even when discovery
	// fans out.
	limiter *rate.Limiter
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.themoviedb.org/3",
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(40), 40),
	}
}

// NewClientWithBase is used by tests to point at a fake server.
func NewClientWithBase(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Item is one entry of a TMDB result list. Movie and TV payloads use
// different field names for the same things; both are decoded.
type Item struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// DisplayTitle returns the movie or TV title, whichever is present.
func (i Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Name
}

// PosterURL returns the full poster image URL, or "" when the entry has no
// poster.
func (i Item) PosterURL() string {
	if i.PosterPath == "" {
		return ""
	}
	return posterBaseURL + i.PosterPath
}

// Year parses the release year out of whichever date field is set.
func (i Item) Year() *int {
	dateStr := i.ReleaseDate
	if dateStr == "" {
		dateStr = i.FirstAirDate
	}
	if len(dateStr) < 4 {
		return nil
	}
	year, err := strconv.Atoi(dateStr[:4])
	if err != nil {
		return nil
	}
	return &year
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog response %s: %w", path, err)
	}
	return nil
}

// ExternalIMDBID resolves a catalog numeric id to its primary-source id.
// Returns "" when the catalog has no mapping.
func (c *Client) ExternalIMDBID(ctx context.Context, mediaType models.MediaType, catalogID int) (string, error) {
	kind := "movie"
	if mediaType == models.MediaTypeSeries {
		kind = "tv"
	}
	var result struct {
		IMDBID string `json:"imdb_id"`
	}
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/external_ids", kind, catalogID), nil, &result); err != nil {
		return "", err
	}
	return result.IMDBID, nil
}

// ListPage fetches one page of a list endpoint (e.g. /movie/top_rated,
// /discover/tv).
func (c *Client) ListPage(ctx context.Context, path string, params url.Values, page int) ([]Item, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("page", strconv.Itoa(page))

	var result struct {
		Results []Item `json:"results"`
	}
	if err := c.get(ctx, path, merged, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// SearchMulti runs a cross-media search. Entries keep their media_type so
// the caller can discard non-title kinds (e.g. "person").
func (c *Client) SearchMulti(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{}
	params.Set("query", query)

	var result struct {
		Results []Item `json:"results"`
	}
	if err := c.get(ctx, "/search/multi", params, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}
