package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wanikanji/internal/catalog"
)

// Notes holds the model and deck names used for note previews.
type Notes struct {
	KanjiModel      string
	KanjiDeck       string
	VocabularyModel string
	VocabularyDeck  string
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *catalog.Service, notes Notes, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, notes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/status", h.Status)

	r.Get("/snapshots", h.ListSnapshots)
	r.Get("/snapshots/{key}/meta", h.SnapshotMeta)

	r.Get("/subjects/{variant}/{ref}", h.LookupSubject)
	r.Get("/subjects/{variant}/{ref}/note", h.PreviewNote)

	r.Get("/installs", h.History)
	r.Get("/installs/totals", h.Totals)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
