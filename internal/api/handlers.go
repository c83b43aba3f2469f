package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wanikanji/internal/apperr"
	"github.com/starford/wanikanji/internal/catalog"
	"github.com/starford/wanikanji/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *catalog.Service
	notes Notes
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service, notes Notes) *Handler {
	return &Handler{svc: svc, notes: notes}
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		internalError(w, "status failed", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Variants: st})
}

// ListSnapshots handles GET /api/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	metas, err := h.svc.Snapshots(r.Context())
	if err != nil {
		internalError(w, "list snapshots failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotListResponse{Snapshots: metas})
}

// SnapshotMeta handles GET /api/snapshots/{key}/meta.
func (h *Handler) SnapshotMeta(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	meta, err := h.svc.SnapshotMeta(r.Context(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("snapshot not found"))
			return
		}
		internalError(w, "snapshot meta failed", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// LookupSubject handles GET /api/subjects/{variant}/{ref}, where ref is
// the characters, slug or subject id.
func (h *Handler) LookupSubject(w http.ResponseWriter, r *http.Request) {
	variant, ok := variantParam(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Lookup(r.Context(), variant, refParam(r))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PreviewNote handles GET /api/subjects/{variant}/{ref}/note, where ref is the subject id.
func (h *Handler) PreviewNote(w http.ResponseWriter, r *http.Request) {
	variant, ok := variantParam(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "ref"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be a number"))
		return
	}
	model, deck := h.notes.KanjiModel, h.notes.KanjiDeck
	if variant == models.VariantVocabulary {
		model, deck = h.notes.VocabularyModel, h.notes.VocabularyDeck
	}
	note, err := h.svc.PreviewNote(r.Context(), variant, id, model, deck)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// History handles GET /api/installs?variant=&limit=.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := h.svc.History(r.Context(), q.Get("variant"), limit)
	if err != nil {
		internalError(w, "install history failed", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Installs: entries})
}

// Totals handles GET /api/installs/totals?variant=.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Totals(r.Context(), r.URL.Query().Get("variant"))
	if err != nil {
		internalError(w, "install totals failed", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func variantParam(w http.ResponseWriter, r *http.Request) (models.Variant, bool) {
	v, err := models.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return "", false
	}
	return v, true
}

// refParam decodes the subject reference, which arrives percent-encoded
// when it holds Japanese characters.
func refParam(r *http.Request) string {
	raw := chi.URLParam(r, "ref")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("subject not found"))
	case errors.Is(err, apperr.ErrCacheMissing):
		writeJSON(w, http.StatusNotFound, errorBody("variant has not been fetched"))
	case errors.Is(err, apperr.ErrInvariantViolation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		internalError(w, "subject lookup failed", err)
	}
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
