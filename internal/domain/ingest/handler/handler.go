// Package handler exposes the upload ingestion HTTP endpoints.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/parser"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/platform"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/service"
	"github.com/FACorreiaa/income-tracker/pkg/storage"
)

// maxUploadBytes bounds in-memory parsing cost per request.
const maxUploadBytes = 10 << 20 // 10MB

// IngestHandler implements the upload preview and import endpoints
type IngestHandler struct {
	svc    *service.Service
	store  storage.Storage
	logger *slog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(svc *service.Service, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, logger: logger}
}

// WithStorage enables retention of successfully imported uploads for audit.
func (h *IngestHandler) WithStorage(store storage.Storage) *IngestHandler {
	h.store = store
	return h
}

// Preview handles POST /csv/preview: parse the uploaded file and return
// headers, sample rows, the detected platform, and a suggested mapping.
func (h *IngestHandler) Preview(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	previewSize := 0
	if raw := r.FormValue("preview_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			api.WriteError(w, http.StatusBadRequest, "preview_size must be a non-negative integer")
			return
		}
		previewSize = size
	}

	result, err := h.svc.Preview(r.Context(), filename, data, previewSize)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, result)
}

// Import handles POST /csv/import: build income records from the uploaded
// file and persist them under the named source.
func (h *IngestHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filename, data, readOK := h.readUpload(w, r)
	if !readOK {
		return
	}

	sourceName := r.FormValue("source_name")

	var mapping *platform.ColumnMapping
	if raw := r.FormValue("mapping"); raw != "" {
		mapping = &platform.ColumnMapping{}
		if err := json.Unmarshal([]byte(raw), mapping); err != nil {
			api.WriteError(w, http.StatusBadRequest, "mapping must be valid JSON")
			return
		}
	}

	summary, err := h.svc.Import(r.Context(), userID, filename, sourceName, data, mapping)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.retainUpload(r.Context(), userID, filename, data)

	api.WriteMessage(w, http.StatusOK, summary, importMessage(summary))
}

// Platforms handles GET /csv/platforms: the static list of known platform
// signatures and their expected columns.
func (h *IngestHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, http.StatusOK, h.svc.Platforms())
}

func (h *IngestHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("failed to parse multipart form", "error", err)
		api.WriteError(w, http.StatusBadRequest, "file too large or invalid form")
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "file field is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to read file")
		return "", nil, false
	}
	if len(data) > maxUploadBytes {
		api.WriteError(w, http.StatusBadRequest, "file exceeds the 10MB upload limit")
		return "", nil, false
	}
	return header.Filename, data, true
}

// retainUpload keeps a copy of the imported file for audit. Retention
// failures are logged, never surfaced.
func (h *IngestHandler) retainUpload(ctx context.Context, userID uuid.UUID, filename string, data []byte) {
	if h.store == nil {
		return
	}
	if _, err := h.store.Save(ctx, userID, filename, bytes.NewReader(data)); err != nil {
		h.logger.Warn("failed to retain uploaded file", "filename", filename, "error", err)
	}
}

// writeServiceError maps parse and validation failures to 400 and everything
// else to 500.
func (h *IngestHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrSourceNameRequired),
		errors.Is(err, service.ErrMappingIncomplete),
		errors.Is(err, service.ErrNoRecords),
		errors.Is(err, parser.ErrEmptyFile),
		errors.Is(err, parser.ErrMalformedCSV),
		errors.Is(err, parser.ErrNoSheets),
		errors.Is(err, parser.ErrNoRows):
		api.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("ingest request failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "import failed, please try again")
	}
}

func importMessage(summary *service.ImportSummary) string {
	switch {
	case summary.Imported == 0 && summary.DuplicatesSkipped > 0:
		return "all records were already imported"
	case summary.DuplicatesSkipped > 0:
		return strconv.Itoa(summary.Imported) + " records imported, " +
			strconv.Itoa(summary.DuplicatesSkipped) + " duplicates skipped"
	default:
		return strconv.Itoa(summary.Imported) + " records imported"
	}
}
