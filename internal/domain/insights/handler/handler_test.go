package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	"github.com/FACorreiaa/income-tracker/internal/domain/insights"
)

type stubRepo struct {
	lastFrom *time.Time
	lastTo   *time.Time
}

func (s *stubRepo) Summary(_ context.Context, _ uuid.UUID, from, to *time.Time) (*repository.Summary, error) {
	s.lastFrom = from
	s.lastTo = to
	return &repository.Summary{RecordCount: 0}, nil
}

func newHandler(repo *stubRepo) *InsightsHandler {
	logger := slog.New(slog.DiscardHandler)
	return NewInsightsHandler(insights.NewService(repo, logger), logger)
}

func authedRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(auth.ContextWithUserID(req.Context(), uuid.New()))
}

func TestReport(t *testing.T) {
	h := newHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.Report(rec, authedRequest("/api/insights"))

	require.Equal(t, http.StatusOK, rec.Code)

	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	payload, err := json.Marshal(env.Data)
	require.NoError(t, err)

	var report insights.Report
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.Equal(t, "No income was recorded in this period.", report.Narrative)
	assert.False(t, report.AIGenerated)
}

func TestReport_WindowPassedToRepository(t *testing.T) {
	repo := &stubRepo{}
	h := newHandler(repo)

	rec := httptest.NewRecorder()
	h.Report(rec, authedRequest("/api/insights?from=2026-01-01&to=2026-06-30"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.lastFrom)
	require.NotNil(t, repo.lastTo)
	assert.Equal(t, "2026-01-01", repo.lastFrom.Format("2006-01-02"))
	assert.Equal(t, "2026-06-30", repo.lastTo.Format("2006-01-02"))
}

func TestReport_BadDate(t *testing.T) {
	h := newHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.Report(rec, authedRequest("/api/insights?from=January"))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "YYYY-MM-DD")
}

func TestReport_Unauthenticated(t *testing.T) {
	h := newHandler(&stubRepo{})

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/insights", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
