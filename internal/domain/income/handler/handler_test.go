package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/service"
)

type fakeRepo struct {
	repository.IncomeRepository

	records    map[uuid.UUID]*repository.Record
	sources    []*repository.Source
	lastFilter repository.ListFilter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]*repository.Record)}
}

func (f *fakeRepo) FindOrCreateSource(_ context.Context, userID uuid.UUID, name string, platform *string) (*repository.Source, error) {
	for _, s := range f.sources {
		if s.UserID == userID && s.Name == name {
			return s, nil
		}
	}
	source := &repository.Source{ID: uuid.New(), UserID: userID, Name: name, Platform: platform}
	f.sources = append(f.sources, source)
	return source, nil
}

func (f *fakeRepo) ListSources(_ context.Context, userID uuid.UUID) ([]*repository.Source, error) {
	var out []*repository.Source
	for _, s := range f.sources {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateRecord(_ context.Context, record *repository.Record) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records[record.ID] = record
	return nil
}

func (f *fakeRepo) GetRecordByID(_ context.Context, userID, id uuid.UUID) (*repository.Record, error) {
	record, ok := f.records[id]
	if !ok || record.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (f *fakeRepo) UpdateRecord(_ context.Context, record *repository.Record) error {
	if _, ok := f.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	record.UpdatedAt = time.Now()
	f.records[record.ID] = record
	return nil
}

func (f *fakeRepo) DeleteRecord(_ context.Context, userID, id uuid.UUID) error {
	record, ok := f.records[id]
	if !ok || record.UserID != userID {
		return sql.ErrNoRows
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) ListRecords(_ context.Context, userID uuid.UUID, filter repository.ListFilter) ([]*repository.Record, int, error) {
	f.lastFilter = filter
	var out []*repository.Record
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func newTestHandler(repo repository.IncomeRepository) *IncomeHandler {
	return NewIncomeHandler(service.NewService(repo), slog.New(slog.DiscardHandler))
}

func authed(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestCreateRecord(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)
	userID := uuid.New()

	body := `{"source_name":"Consulting","amount":1500.50,"transaction_date":"2024-05-01","customer":"Acme"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(body)), userID)
	rec := httptest.NewRecorder()

	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Success bool              `json:"success"`
		Data    repository.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.True(t, envelope.Data.Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "USD", envelope.Data.CurrencyCode)
	require.NotNil(t, envelope.Data.Customer)
	assert.Equal(t, "Acme", *envelope.Data.Customer)

	require.Len(t, repo.sources, 1)
	assert.Equal(t, "Consulting", repo.sources[0].Name)
}

func TestCreateRecord_Validation(t *testing.T) {
	h := newTestHandler(newFakeRepo())
	userID := uuid.New()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing source", body: `{"amount":10,"transaction_date":"2024-05-01"}`},
		{name: "zero amount", body: `{"source_name":"X","amount":0,"transaction_date":"2024-05-01"}`},
		{name: "bad date", body: `{"source_name":"X","amount":10,"transaction_date":"05/01/2024"}`},
		{name: "not json", body: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(tt.body)), userID)
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	h := newTestHandler(newFakeRepo())

	req := authed(httptest.NewRequest(http.MethodGet, "/income/"+uuid.NewString(), nil), uuid.New())
	req.SetPathValue("id", uuid.NewString())
	rec := httptest.NewRecorder()

	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecord_OtherUsersRecordHidden(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)

	owner := uuid.New()
	record := &repository.Record{ID: uuid.New(), UserID: owner, Amount: decimal.NewFromInt(5), CurrencyCode: "USD", TransactionDate: time.Now()}
	repo.records[record.ID] = record

	req := authed(httptest.NewRequest(http.MethodGet, "/income/"+record.ID.String(), nil), uuid.New())
	req.SetPathValue("id", record.ID.String())
	rec := httptest.NewRecorder()

	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRecords_FilterParsing(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)

	sourceID := uuid.New()
	url := "/income?source_id=" + sourceID.String() + "&category=Freelance&from=2024-01-01&to=2024-06-30&limit=10&offset=20"
	req := authed(httptest.NewRequest(http.MethodGet, url, nil), uuid.New())
	rec := httptest.NewRecorder()

	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, repo.lastFilter.SourceID)
	assert.Equal(t, sourceID, *repo.lastFilter.SourceID)
	require.NotNil(t, repo.lastFilter.Category)
	assert.Equal(t, "Freelance", *repo.lastFilter.Category)
	require.NotNil(t, repo.lastFilter.From)
	assert.Equal(t, 10, repo.lastFilter.Limit)
	assert.Equal(t, 20, repo.lastFilter.Offset)
}

func TestListRecords_BadQuery(t *testing.T) {
	h := newTestHandler(newFakeRepo())

	for _, url := range []string{
		"/income?source_id=notauuid",
		"/income?from=01/01/2024",
		"/income?limit=-1",
	} {
		req := authed(httptest.NewRequest(http.MethodGet, url, nil), uuid.New())
		rec := httptest.NewRecorder()
		h.List(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestUpdateRecord(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)
	userID := uuid.New()

	record := &repository.Record{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), CurrencyCode: "USD", TransactionDate: time.Now()}
	repo.records[record.ID] = record

	body := `{"amount":25.75,"category":"Consulting"}`
	req := authed(httptest.NewRequest(http.MethodPatch, "/income/"+record.ID.String(), strings.NewReader(body)), userID)
	req.SetPathValue("id", record.ID.String())
	rec := httptest.NewRecorder()

	h.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.records[record.ID].Amount.Equal(decimal.RequireFromString("25.75")))
	require.NotNil(t, repo.records[record.ID].Category)
	assert.Equal(t, "Consulting", *repo.records[record.ID].Category)
}

func TestDeleteRecord(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)
	userID := uuid.New()

	record := &repository.Record{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), CurrencyCode: "USD", TransactionDate: time.Now()}
	repo.records[record.ID] = record

	req := authed(httptest.NewRequest(http.MethodDelete, "/income/"+record.ID.String(), nil), userID)
	req.SetPathValue("id", record.ID.String())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.records)
}

func TestExport(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(repo)
	userID := uuid.New()

	source := &repository.Source{ID: uuid.New(), UserID: userID, Name: "Gumroad"}
	repo.sources = append(repo.sources, source)
	category := "Product Sales"
	record := &repository.Record{
		ID:              uuid.New(),
		UserID:          userID,
		SourceID:        &source.ID,
		Amount:          decimal.RequireFromString("19.99"),
		CurrencyCode:    "USD",
		TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Category:        &category,
	}
	repo.records[record.ID] = record

	req := authed(httptest.NewRequest(http.MethodGet, "/income/export", nil), userID)
	rec := httptest.NewRecorder()

	h.Export(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,amount,currency,source,category,customer,description", lines[0])
	assert.Contains(t, lines[1], "2024-03-01")
	assert.Contains(t, lines[1], "19.99")
	assert.Contains(t, lines[1], "Gumroad")
	assert.Contains(t, lines[1], "Product Sales")
}

func TestUnauthenticated(t *testing.T) {
	h := newTestHandler(newFakeRepo())

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"create", h.Create},
		{"get", h.Get},
		{"update", h.Update},
		{"delete", h.Delete},
		{"list", h.List},
		{"sources", h.Sources},
		{"summary", h.Summary},
		{"export", h.Export},
	}
	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/income", nil)
			rec := httptest.NewRecorder()
			ep.handler(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
