package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trackarr/internal/discovery"
	"trackarr/internal/httputil"
)

// maxDiscoverPages caps the catalog pages one request may fan out to.
const maxDiscoverPages = 5

type DiscoveryHandler struct {
	svc *discovery.Service
}

func NewDiscoveryHandler(svc *discovery.Service) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc}
}

// Register attaches the discovery routes to an existing router. They sit
// beside /media rather than under their own mount because the surface is
// two endpoints.
func (h *DiscoveryHandler) Register(r chi.Router) {
	r.Get("/discover", h.discover)
	r.Get("/search", h.search)
}

func (h *DiscoveryHandler) discover(w http.ResponseWriter, r *http.Request) {
	filter := discovery.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = discovery.FilterTrending
	}
	page := queryInt(r, "page", 1)
	count := queryInt(r, "count", 1)
	if count > maxDiscoverPages {
		count = maxDiscoverPages
	}

	items, err := h.svc.Discover(r.Context(), filter, page, count)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *DiscoveryHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_QUERY", "q parameter is required")
		return
	}
	items, err := h.svc.Search(r.Context(), query)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
