package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trackarr/internal/httputil"
	"trackarr/internal/models"
	"trackarr/internal/repository"
)

type TagHandler struct {
	store *repository.Store
}

func NewTagHandler(store *repository.Store) *TagHandler {
	return &TagHandler{store: store}
}

func (h *TagHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listTags)
	r.Post("/", h.createTag)
	r.Put("/{id}", h.updateTag)
	r.Delete("/{id}", h.deleteTag)
	return r
}

func (h *TagHandler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags()
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) createTag(w http.ResponseWriter, r *http.Request) {
	var t models.Tag
	if err := httputil.ReadJSON(r, &t); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if t.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_TAG", "name is required")
		return
	}
	t.ID = uuid.New()
	if err := h.store.CreateTag(&t); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *TagHandler) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tag id")
		return
	}
	var t models.Tag
	if err := httputil.ReadJSON(r, &t); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	t.ID = id
	if err := h.store.UpdateTag(&t); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *TagHandler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid tag id")
		return
	}
	if err := h.store.DeleteTag(id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
