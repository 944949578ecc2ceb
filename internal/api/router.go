package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recordbook/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// backupDir confines the files named by backup and restore requests.
func NewRouter(svc *recordservice.Service, authEnabled bool, token string, sseHandler http.Handler, backupDir string) chi.Router {
	h := NewHandler(svc, backupDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Records CRUD.
	r.Get("/records", h.ListRecords)
	r.Post("/records", h.CreateRecord)
	r.Delete("/records", h.DeleteRecords)
	r.Get("/records/{id}", h.GetRecord)
	r.Patch("/records/{id}", h.EditRecord)
	r.Delete("/records/{id}", h.DeleteRecord)

	// Whole-file operations.
	r.Post("/backup", h.Backup)
	r.Post("/restore", h.Restore)
	r.Get("/export", h.Export)

	// Journal.
	r.Get("/history", h.History)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
