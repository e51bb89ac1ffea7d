// Package metadata implements the external ingestion pipeline: identifier
// resolution, primary-source extraction and episode-guide parsing.
package metadata

import (
	"context"
	"fmt"
	"regexp"

	"trackarr/internal/apperr"
	"trackarr/internal/models"
)

// titlePattern extracts the canonical identifier from a primary-source URL:
// the alphanumeric token following the /title/ path segment.
var titlePattern = regexp.MustCompile(`/title/([a-zA-Z0-9]+)`)

// ExternalIDLookup is the catalog-side id resolution, implemented by the
// catalog client.
type ExternalIDLookup interface {
	Configured() bool
	ExternalIMDBID(ctx context.Context, mediaType models.MediaType, catalogID int) (string, error)
}

type Resolver struct {
	catalog ExternalIDLookup
}

func NewResolver(catalog ExternalIDLookup) *Resolver {
	return &Resolver{catalog: catalog}
}

// ResolveURL extracts the canonical identifier from a primary-source URL.
func (r *Resolver) ResolveURL(rawURL string) (string, error) {
	m := titlePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("%w: no title id in %q", apperr.ErrInvalidIdentifier, rawURL)
	}
	return m[1], nil
}

// ResolveCatalogID looks up the primary-source identifier for a catalog
// numeric id of the given kind.
func (r *Resolver) ResolveCatalogID(ctx context.Context, mediaType models.MediaType, catalogID int) (string, error) {
	if !r.catalog.Configured() {
		return "", apperr.ErrServiceNotConfigured
	}
	imdbID, err := r.catalog.ExternalIMDBID(ctx, mediaType, catalogID)
	if err != nil {
		return "", fmt.Errorf("%w: external id lookup: %v", apperr.ErrUpstream, err)
	}
	if imdbID == "" {
		return "", fmt.Errorf("%w: catalog id %d has no primary-source id", apperr.ErrNotFound, catalogID)
	}
	return imdbID, nil
}
