// Package handler exposes the income record HTTP endpoints.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/service"
)

// IncomeHandler implements the income record endpoints
type IncomeHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewIncomeHandler creates a new income handler
func NewIncomeHandler(svc *service.Service, logger *slog.Logger) *IncomeHandler {
	return &IncomeHandler{svc: svc, logger: logger}
}

// Create handles POST /income
func (h *IncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input service.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.svc.CreateRecord(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, err, http.StatusBadRequest)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, record)
}

// Get handles GET /income/{id}
func (h *IncomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	record, err := h.svc.GetRecord(r.Context(), userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	api.WriteSuccess(w, http.StatusOK, record)
}

type updateRequest struct {
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	TransactionDate *string          `json:"transaction_date,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Customer        *string          `json:"customer,omitempty"`
	Category        *string          `json:"category,omitempty"`
}

// Update handles PATCH /income/{id}
func (h *IncomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.svc.UpdateRecord(r.Context(), userID, id, req.Amount, req.TransactionDate, req.Description, req.Customer, req.Category)
	if errors.Is(err, sql.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		h.writeError(w, err, http.StatusBadRequest)
		return
	}
	api.WriteSuccess(w, http.StatusOK, record)
}

// Delete handles DELETE /income/{id}
func (h *IncomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	err = h.svc.DeleteRecord(r.Context(), userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	api.WriteMessage(w, http.StatusOK, nil, "record deleted")
}

// List handles GET /income
func (h *IncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.svc.ListRecords(r.Context(), userID, params)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	api.WriteSuccess(w, http.StatusOK, page)
}

// Sources handles GET /income/sources
func (h *IncomeHandler) Sources(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sources, err := h.svc.ListSources(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	api.WriteSuccess(w, http.StatusOK, sources)
}

// Summary handles GET /income/summary
func (h *IncomeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	from, to, err := parseDateWindow(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.Summary(r.Context(), userID, from, to)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	api.WriteSuccess(w, http.StatusOK, summary)
}

func (h *IncomeHandler) writeError(w http.ResponseWriter, err error, status int) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("income request failed", "error", err)
		api.WriteError(w, status, "request failed, please try again")
		return
	}
	api.WriteError(w, status, err.Error())
}

func parseListParams(r *http.Request) (service.ListParams, error) {
	var params service.ListParams
	q := r.URL.Query()

	if raw := q.Get("source_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, errors.New("source_id must be a UUID")
		}
		params.SourceID = &id
	}
	if raw := q.Get("category"); raw != "" {
		params.Category = &raw
	}
	var err error
	params.From, params.To, err = parseDateWindow(r)
	if err != nil {
		return params, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return params, errors.New("limit must be a non-negative integer")
		}
		params.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return params, errors.New("offset must be a non-negative integer")
		}
		params.Offset = offset
	}
	return params, nil
}

func parseDateWindow(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, errors.New("from must be YYYY-MM-DD")
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, errors.New("to must be YYYY-MM-DD")
		}
		to = &t
	}
	return from, to, nil
}
