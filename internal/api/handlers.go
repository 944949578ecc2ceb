package api

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recordbook/internal/apperr"
	"github.com/starford/recordbook/internal/models"
	"github.com/starford/recordbook/internal/parser"
	"github.com/starford/recordbook/internal/recordservice"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler holds API route handlers.
type Handler struct {
	svc       *recordservice.Service
	backupDir string
}

// NewHandler creates a new Handler.
func NewHandler(svc *recordservice.Service, backupDir string) *Handler {
	return &Handler{svc: svc, backupDir: backupDir}
}

func recordID(r *http.Request) (int, error) {
	return parser.ParseID(chi.URLParam(r, "id"))
}

// backupPath resolves name inside the backup directory and rejects
// anything that would escape it.
func (h *Handler) backupPath(name string) (string, error) {
	if h.backupDir == "" {
		return "", fmt.Errorf("%w: backups are not configured", apperr.ErrInvalidInput)
	}
	if name == "" || filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid file name %q", apperr.ErrInvalidInput, name)
	}
	root, err := filepath.Abs(h.backupDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	return filepath.Join(root, name), nil
}

// ListRecords handles GET /api/records.
//
//	@Summary		List all records, or those whose field equals value
//	@Tags			records
//	@Produce		json
//	@Param			field	query		string	false	"Field to match"	Enums(id, name, age, address)
//	@Param			value	query		string	false	"Exact value"
//	@Success		200		{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		recs []models.Record
		err  error
	)
	if q.Has("field") {
		recs, err = h.svc.Find(r.Context(), q.Get("field"), q.Get("value"))
	} else {
		recs, err = h.svc.List(r.Context())
	}
	if err != nil {
		writeError(w, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs, Total: len(recs)})
}

// GetRecord handles GET /api/records/{id}.
//
//	@Summary		Get a record by id
//	@Tags			records
//	@Produce		json
//	@Param			id	path		int	true	"Record id"
//	@Success		200	{object}	Record
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{id} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, "get record", err)
		return
	}
	recs, err := h.svc.Find(r.Context(), models.FieldID, strconv.Itoa(id))
	if err != nil {
		writeError(w, "get record", err)
		return
	}
	if len(recs) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, recs[0])
}

// CreateRecord handles POST /api/records.
//
//	@Summary		Add a record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRecordRequest	true	"Record to add"
//	@Success		201		{object}	Record
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records [post]
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == nil || req.Age == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("id and age are required"))
		return
	}
	rec, err := h.svc.Add(r.Context(), models.Record{
		ID:      *req.ID,
		Name:    req.Name,
		Age:     *req.Age,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, "create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// EditRecord handles PATCH /api/records/{id}.
//
//	@Summary		Change the name, age or address of a record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Record id"
//	@Param			body	body		EditRecordRequest	true	"Field and new value"
//	@Success		200		{object}	Record
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{id} [patch]
func (h *Handler) EditRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, "edit record", err)
		return
	}
	var req EditRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Field == models.FieldID {
		writeJSON(w, http.StatusBadRequest, errorBody("the id cannot be edited"))
		return
	}
	rec, err := h.svc.Edit(r.Context(), id, req.Field, req.Value)
	if err != nil {
		writeError(w, "edit record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecords handles DELETE /api/records?field=&value=.
//
//	@Summary		Delete every record whose field equals value
//	@Tags			records
//	@Produce		json
//	@Param			field	query		string	true	"Field to match"	Enums(id, name, age, address)
//	@Param			value	query		string	true	"Exact value"
//	@Success		200		{object}	DeleteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records [delete]
func (h *Handler) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("field") || !q.Has("value") {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'field' and 'value' are required"))
		return
	}
	h.deleteBy(w, r, q.Get("field"), q.Get("value"))
}

// DeleteRecord handles DELETE /api/records/{id}.
//
//	@Summary		Delete a record by id
//	@Tags			records
//	@Produce		json
//	@Param			id	path		int	true	"Record id"
//	@Success		200	{object}	DeleteResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{id} [delete]
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, "delete record", err)
		return
	}
	h.deleteBy(w, r, models.FieldID, strconv.Itoa(id))
}

func (h *Handler) deleteBy(w http.ResponseWriter, r *http.Request, field, value string) {
	n, err := h.svc.Delete(r.Context(), field, value)
	if err != nil {
		writeError(w, "delete records", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// Backup handles POST /api/backup.
//
//	@Summary		Copy the backing file into the backup directory
//	@Tags			files
//	@Accept			json
//	@Param			body	body	FileRequest	true	"Backup file name"
//	@Success		204		"Backup written"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backup [post]
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	path, ok := h.fileRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.Backup(r.Context(), path); err != nil {
		writeError(w, "backup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/restore.
//
//	@Summary		Replace the backing file with a backup
//	@Tags			files
//	@Accept			json
//	@Param			body	body	FileRequest	true	"Backup file name"
//	@Success		204		"Backup restored"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/restore [post]
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	path, ok := h.fileRequest(w, r)
	if !ok {
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("backup not found"))
		return
	}
	if err := h.svc.Restore(r.Context(), path); err != nil {
		writeError(w, "restore", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fileRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req FileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return "", false
	}
	path, err := h.backupPath(req.Name)
	if err != nil {
		writeError(w, "resolve backup path", err)
		return "", false
	}
	return path, true
}

// Export handles GET /api/export.
//
//	@Summary		Download all records as an xlsx workbook
//	@Tags			files
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success		200	{file}	binary
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportTo(r.Context(), &buf); err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="records.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// History handles GET /api/history.
//
//	@Summary		Recent journaled operations, newest first
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}
