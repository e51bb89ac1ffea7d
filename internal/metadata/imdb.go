package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

// IMDb serves a minimal shell page to non-browser clients, so requests carry
// a desktop browser identity and a fixed language preference.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptLanguage   = "en-US,en;q=0.9"
)

// PrimaryMetadata is the flat entity extracted from one primary-source page.
type PrimaryMetadata struct {
	IMDBID      string
	Title       string
	Year        *int
	Description *string
	PosterURL   *string
	Rating      *string
	Genres      []string
	Actors      []string
	MediaType   models.MediaType
}

type IMDBExtractor struct {
	baseURL string
	client  *http.Client
}

func NewIMDBExtractor() *IMDBExtractor {
	return &IMDBExtractor{
		baseURL: "https://www.imdb.com",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewIMDBExtractorWithBase is used by tests to point at a fake server.
func NewIMDBExtractorWithBase(baseURL string) *IMDBExtractor {
	e := NewIMDBExtractor()
	e.baseURL = baseURL
	return e
}

// Extract fetches the title page for imdbID and pulls the flat metadata out
// of it. It fails with apperr.ErrExtractionFailed only when no title can be
// recovered; every other field degrades to nil/empty.
func (e *IMDBExtractor) Extract(ctx context.Context, imdbID string) (*PrimaryMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/title/"+imdbID+"/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch title page: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: title page returned %d", apperr.ErrUpstream, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse title page: %v", apperr.ErrUpstream, err)
	}

	meta := &PrimaryMetadata{IMDBID: imdbID}

	meta.Title = strings.TrimSpace(doc.Find(`h1[data-testid="hero__pageTitle"]`).First().Text())
	if meta.Title == "" {
		meta.Title = titleFromDocumentTitle(doc)
	}
	if meta.Title == "" {
		return nil, fmt.Errorf("%w: no title on page for %s", apperr.ErrExtractionFailed, imdbID)
	}

	if yearText := strings.TrimSpace(doc.Find(`a[href*="releaseinfo"]`).First().Text()); yearText != "" {
		if year, err := strconv.Atoi(yearText); err == nil {
			meta.Year = &year
		}
	}

	if desc := strings.TrimSpace(doc.Find(`span[data-testid="plot-xl"]`).First().Text()); desc != "" {
		meta.Description = &desc
	} else if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			meta.Description = &desc
		}
	}
	if poster, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && poster != "" {
		meta.PosterURL = &poster
	}

	rawRating := doc.Find(`div[data-testid="hero-rating-bar__aggregate-rating__score"] span`).First().Text()
	meta.Rating = normalizeRating(rawRating)

	doc.Find(`div[data-testid="genres"] a`).Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			meta.Genres = append(meta.Genres, name)
		}
	})
	doc.Find(`a[data-testid="title-cast-item__actor"]`).Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			meta.Actors = append(meta.Actors, name)
		}
	})

	// A title page with an episodes link is a series. Heuristic, not a field.
	if doc.Find(`a[href*="episodes"]`).Length() > 0 {
		meta.MediaType = models.MediaTypeSeries
	} else {
		meta.MediaType = models.MediaTypeMovie
	}

	return meta, nil
}

// titleFromDocumentTitle is the fallback when the hero heading is missing:
// everything in <title> before the first literal "(".
func titleFromDocumentTitle(doc *goquery.Document) string {
	text := doc.Find("title").First().Text()
	if idx := strings.Index(text, "("); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// normalizeRating reduces the raw score text to a short numeric string.
// Ratings with more than two dot-separated segments are truncated to the
// first three characters of the raw text; anything else keeps the part
// before the first "/". Inherited behavior, pinned by tests; do not "fix".
func normalizeRating(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var normalized string
	if len(strings.Split(raw, ".")) > 2 {
		normalized = raw
		if len(normalized) > 3 {
			normalized = normalized[:3]
		}
	} else {
		normalized = strings.TrimSpace(strings.SplitN(raw, "/", 2)[0])
	}
	if normalized == "" {
		return nil
	}
	return &normalized
}
