// Package handler exposes the insights report over HTTP.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/insights"
)

// InsightsHandler serves GET /api/insights.
type InsightsHandler struct {
	svc    *insights.Service
	logger *slog.Logger
}

// NewInsightsHandler constructs a new handler.
func NewInsightsHandler(svc *insights.Service, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{svc: svc, logger: logger}
}

// Report returns the insight report for the authenticated user. Optional
// from/to query parameters (YYYY-MM-DD) bound the period.
func (h *InsightsHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Report(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("failed to build insights report",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "failed to build insights report")
		return
	}

	api.WriteSuccess(w, http.StatusOK, report)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return &t, nil
}
