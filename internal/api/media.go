package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trackarr/internal/apperr"
	"trackarr/internal/httputil"
	"trackarr/internal/ingest"
	"trackarr/internal/models"
	"trackarr/internal/repository"
)

// MediaHandler serves the library: ingest, listing, detail, watched state,
// episode re-sync, tag assignment and streaming links.
type MediaHandler struct {
	store    *repository.Store
	ingestor *ingest.Ingestor
	logger   *logrus.Logger
}

func NewMediaHandler(store *repository.Store, ingestor *ingest.Ingestor, logger *logrus.Logger) *MediaHandler {
	return &MediaHandler{store: store, ingestor: ingestor, logger: logger}
}

func (h *MediaHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.addMedia)
	r.Get("/", h.listMedia)
	r.Get("/groups", h.groupedByGenre)
	r.Get("/{id}", h.getMedia)
	r.Delete("/{id}", h.deleteMedia)
	r.Post("/{id}/resync", h.resync)
	r.Put("/{id}/watched", h.setMediaWatched)
	r.Put("/seasons/{id}/watched", h.setSeasonWatched)
	r.Put("/episodes/{id}/watched", h.setEpisodeWatched)
	r.Post("/{id}/tags/{tagID}", h.assignTag)
	r.Delete("/{id}/tags/{tagID}", h.removeTag)
	r.Post("/{id}/links", h.createLink)
	r.Delete("/links/{id}", h.deleteLink)
	return r
}

type addMediaRequest struct {
	URL       string `json:"url"`
	CatalogID *int   `json:"catalog_id"`
	MediaType string `json:"media_type"`
}

func (h *MediaHandler) addMedia(w http.ResponseWriter, r *http.Request) {
	var req addMediaRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	item, err := h.ingestor.Ingest(r.Context(), ingest.AddRequest{
		PrimaryURL: req.URL,
		CatalogID:  req.CatalogID,
		MediaType:  models.MediaType(req.MediaType),
	})
	if err != nil {
		if existingID, ok := apperr.IsConflict(err); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(httputil.Response{
				Status: "error",
				Data:   map[string]string{"existing_id": existingID.String()},
				Error: &httputil.ErrorBody{
					Code:    "DUPLICATE_ITEM",
					Message: "item already in library",
				},
			})
			return
		}
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *MediaHandler) listMedia(w http.ResponseWriter, r *http.Request) {
	var filter repository.MediaFilter
	if t := r.URL.Query().Get("type"); t != "" {
		mt := models.MediaType(t)
		if !mt.Valid() {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_TYPE", "type must be movie or series")
			return
		}
		filter.MediaType = &mt
	}
	if ws := r.URL.Query().Get("watched"); ws != "" {
		watched := ws == "true"
		filter.Watched = &watched
	}

	items, err := h.store.ListMediaItems(filter)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) groupedByGenre(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.GroupedByGenre()
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

func (h *MediaHandler) getMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}
	item, err := h.store.GetMediaDetail(id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *MediaHandler) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}
	if err := h.store.DeleteMediaItem(id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resyncRequest struct {
	GuideURL string `json:"guide_url"`
}

func (h *MediaHandler) resync(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}

	var req resyncRequest
	if r.ContentLength > 0 {
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}

	if err := h.ingestor.Resync(r.Context(), id, req.GuideURL); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type watchedRequest struct {
	Watched bool `json:"watched"`
}

func (h *MediaHandler) setMediaWatched(w http.ResponseWriter, r *http.Request) {
	h.setWatched(w, r, h.store.SetMediaWatched)
}

func (h *MediaHandler) setSeasonWatched(w http.ResponseWriter, r *http.Request) {
	h.setWatched(w, r, h.store.SetSeasonWatched)
}

func (h *MediaHandler) setEpisodeWatched(w http.ResponseWriter, r *http.Request) {
	h.setWatched(w, r, h.store.SetEpisodeWatched)
}

func (h *MediaHandler) setWatched(w http.ResponseWriter, r *http.Request, update func(uuid.UUID, bool) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id")
		return
	}
	var req watchedRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := update(id, req.Watched); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"watched": req.Watched})
}

func (h *MediaHandler) assignTag(w http.ResponseWriter, r *http.Request) {
	mediaID, tagID, ok := h.parsePair(w, r)
	if !ok {
		return
	}
	if err := h.store.AssignTag(mediaID, tagID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) removeTag(w http.ResponseWriter, r *http.Request) {
	mediaID, tagID, ok := h.parsePair(w, r)
	if !ok {
		return
	}
	if err := h.store.RemoveTag(mediaID, tagID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) parsePair(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	mediaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return uuid.Nil, uuid.Nil, false
	}
	tagID, err := uuid.Parse(chi.URLParam(r, "tagID"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tag id")
		return uuid.Nil, uuid.Nil, false
	}
	return mediaID, tagID, true
}

type createLinkRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

func (h *MediaHandler) createLink(w http.ResponseWriter, r *http.Request) {
	mediaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}
	var req createLinkRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if req.Platform == "" || req.URL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_LINK", "platform and url are required")
		return
	}

	link := &models.StreamingLink{
		ID:          uuid.New(),
		MediaItemID: mediaID,
		Platform:    req.Platform,
		URL:         req.URL,
	}
	if err := h.store.CreateStreamingLink(link); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, link)
}

func (h *MediaHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid link id")
		return
	}
	if err := h.store.DeleteStreamingLink(id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
