package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trackarr/internal/apperr"
)

var (
	// tvSeriesSuffix matches a trailing "(TV Series 2008)" or
	// "(TV Series 2008–2013)" marker (en dash).
	tvSeriesSuffix = regexp.MustCompile(`\(TV Series \d{4}(?:–\d{4})?\)\s*$`)
	nonAlnum       = regexp.MustCompile(`[^a-zA-Z0-9]`)

	seasonHeaderPattern = regexp.MustCompile(`Season (\d+)`)
	// specialPattern matches episode codes of the shape "S1. ... -3" carrying
	// an explicit season, independent of the running header counter.
	specialPattern = regexp.MustCompile(`S(\d+)\..*-(\d+)`)
	regularPattern = regexp.MustCompile(`(\d+)-(\d+)`)
)

// GuideSlug derives the episode-guide slug from a series title: drop a
// trailing "(TV Series YYYY[–YYYY])" suffix, drop a trailing "(US)" marker,
// then remove every non-alphanumeric character. Case is preserved.
func GuideSlug(title string) string {
	t := tvSeriesSuffix.ReplaceAllString(title, "")
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "(US)")
	return nonAlnum.ReplaceAllString(t, "")
}

// ParsedEpisode is one row of the episode-guide table.
type ParsedEpisode struct {
	SeasonNumber  int
	EpisodeNumber int
	Title         string
	AirDate       *time.Time
}

// ParsedSeason groups episodes under a season number; number 0 is specials.
type ParsedSeason struct {
	Number   int
	Year     *int
	Episodes []*ParsedEpisode
}

type GuideClient struct {
	baseURL string
	client  *http.Client
}

func NewGuideClient() *GuideClient {
	return &GuideClient{
		baseURL: "https://epguides.com",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewGuideClientWithBase is used by tests to point at a fake server.
func NewGuideClientWithBase(baseURL string) *GuideClient {
	g := NewGuideClient()
	g.baseURL = baseURL
	return g
}

// GuideURL builds the guide location for a series title.
func (g *GuideClient) GuideURL(title string) string {
	return g.baseURL + "/" + GuideSlug(title) + "/"
}

// Fetch retrieves and parses the episode guide at url. Fetch failures and
// guides with no parseable rows both come back as apperr.ErrNoEpisodeData;
// callers decide whether that is fatal.
func (g *GuideClient) Fetch(ctx context.Context, url string) ([]*ParsedSeason, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch guide: %v", apperr.ErrNoEpisodeData, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: guide returned %d", apperr.ErrNoEpisodeData, resp.StatusCode)
	}

	seasons, err := ParseGuide(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("%w: no parseable rows at %s", apperr.ErrNoEpisodeData, url)
	}
	return seasons, nil
}

// ParseGuide walks the guide's table rows once, left to right. Season
// headers move a running counter; data rows attach to the season named in
// their episode code. Seasons are created on first encounter, so each
// number is inserted exactly once however many rows reference it.
func ParseGuide(r io.Reader) ([]*ParsedSeason, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse guide document: %v", apperr.ErrNoEpisodeData, err)
	}

	var seasons []*ParsedSeason
	index := make(map[int]*ParsedSeason)
	seasonFor := func(number int) *ParsedSeason {
		if s, ok := index[number]; ok {
			return s
		}
		s := &ParsedSeason{Number: number}
		index[number] = s
		seasons = append(seasons, s)
		return s
	}

	current := -1 // no active season yet; 0 is a valid (specials) counter

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if header := row.Find(`td[colspan="4"] b`).First(); header.Length() > 0 {
			text := strings.TrimSpace(header.Text())
			if m := seasonHeaderPattern.FindStringSubmatch(text); m != nil {
				current, _ = strconv.Atoi(m[1])
			} else if strings.Contains(text, "Specials") {
				current = 0
			}
			return
		}
		if current < 0 {
			return
		}

		cells := row.Find("td")
		if cells.Length() != 4 {
			return
		}
		code := strings.TrimSpace(cells.Eq(1).Text())

		var seasonNumber, episodeNumber int
		if m := specialPattern.FindStringSubmatch(code); m != nil {
			seasonNumber, _ = strconv.Atoi(m[1])
			episodeNumber, _ = strconv.Atoi(m[2])
		} else if m := regularPattern.FindStringSubmatch(code); m != nil {
			seasonNumber, _ = strconv.Atoi(m[1])
			episodeNumber, _ = strconv.Atoi(m[2])
			// Counter 0 acts as a wildcard so specials tables with regular
			// codes still land somewhere; otherwise a mismatch skips the row.
			if current != 0 && seasonNumber != current {
				return
			}
		} else {
			return
		}

		episode := &ParsedEpisode{
			SeasonNumber:  seasonNumber,
			EpisodeNumber: episodeNumber,
			Title:         strings.TrimSpace(cells.Eq(3).Find("a").First().Text()),
			AirDate:       parseAirDate(strings.TrimSpace(cells.Eq(2).Text())),
		}
		season := seasonFor(seasonNumber)
		season.Episodes = append(season.Episodes, episode)
		if season.Year == nil && episode.AirDate != nil {
			year := episode.AirDate.Year()
			season.Year = &year
		}
	})

	return seasons, nil
}

// parseAirDate parses "D Mon YY" dates. Two-digit years are assumed to be
// in the 2000s. Anything that doesn't split into exactly three fields, or
// doesn't parse, yields nil rather than a default date.
func parseAirDate(text string) *time.Time {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return nil
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil
	}
	if year < 100 {
		year += 2000
	}
	parsed, err := time.Parse("2 Jan 2006", fields[0]+" "+fields[1]+" "+strconv.Itoa(year))
	if err != nil {
		return nil
	}
	return &parsed
}
