package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/service"
	"github.com/FACorreiaa/income-tracker/pkg/storage"
)

const gumroadCSV = `Product,Price,Email,Created At,Order Number
Ebook,$19.00,alice@example.com,2024-03-01,1001
Course,"$249.00",bob@example.com,2024-03-02,1002
`

type stubRepo struct {
	repository.IncomeRepository
	inserted []*repository.Record
}

func (s *stubRepo) FindOrCreateSource(_ context.Context, userID uuid.UUID, name string, platform *string) (*repository.Source, error) {
	return &repository.Source{ID: uuid.New(), UserID: userID, Name: name, Platform: platform}, nil
}

func (s *stubRepo) BulkInsertRecords(_ context.Context, records []*repository.Record) (int, error) {
	s.inserted = records
	return len(records), nil
}

func newTestHandler(repo repository.IncomeRepository) *IngestHandler {
	logger := slog.New(slog.DiscardHandler)
	return NewIngestHandler(service.NewService(repo, logger), logger)
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestPreviewEndpoint(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "sales.csv", []byte(gumroadCSV), map[string]string{"preview_size": "1"})
	req := httptest.NewRequest(http.MethodPost, "/csv/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Preview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "gumroad", data["detectedPlatform"])
	assert.Equal(t, "csv", data["fileType"])

	preview := data["preview"].(map[string]any)
	assert.Equal(t, float64(2), preview["totalRows"])
	assert.Len(t, preview["rows"], 1)

	mapping := data["suggestedMapping"].(map[string]any)
	assert.Equal(t, "Price", mapping["amount"])
	assert.Equal(t, "Created At", mapping["date"])
}

func TestPreviewEndpoint_MissingFile(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "", nil, map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/csv/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Preview(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "file field is required", envelope["error"])
}

func TestPreviewEndpoint_MalformedCSV(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "broken.csv", []byte("a,b\n\"unterminated,1\n"), nil)
	req := httptest.NewRequest(http.MethodPost, "/csv/preview", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Preview(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func authedRequest(t *testing.T, req *http.Request, userID uuid.UUID) *http.Request {
	t.Helper()
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestImportEndpoint(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)
	userID := uuid.New()

	body, contentType := multipartBody(t, "sales.csv", []byte(gumroadCSV), map[string]string{
		"source_name": "Gumroad",
	})
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, userID)
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "2 records imported", envelope["message"])

	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(2), data["imported"])
	assert.Equal(t, float64(0), data["duplicatesSkipped"])
	assert.Equal(t, float64(2), data["totalInFile"])

	require.Len(t, repo.inserted, 2)
	assert.Equal(t, userID, repo.inserted[0].UserID)
}

func TestImportEndpoint_CustomMapping(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)

	csv := "Total,When,Who\n$50.00,2024-04-01,Acme Corp\n"
	mapping, err := json.Marshal(map[string]string{
		"amount":   "Total",
		"date":     "When",
		"customer": "Who",
	})
	require.NoError(t, err)

	body, contentType := multipartBody(t, "invoices.csv", []byte(csv), map[string]string{
		"source_name": "Consulting",
		"mapping":     string(mapping),
	})
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, uuid.New())
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.inserted, 1)
	require.NotNil(t, repo.inserted[0].Customer)
	assert.Equal(t, "Acme Corp", *repo.inserted[0].Customer)
}

func TestImportEndpoint_Unauthenticated(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "sales.csv", []byte(gumroadCSV), map[string]string{"source_name": "Gumroad"})
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestImportEndpoint_MissingSourceName(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "sales.csv", []byte(gumroadCSV), nil)
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, uuid.New())
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Contains(t, envelope["error"], "source name")
}

func TestImportEndpoint_BadMappingJSON(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	body, contentType := multipartBody(t, "sales.csv", []byte(gumroadCSV), map[string]string{
		"source_name": "Gumroad",
		"mapping":     "{not json",
	})
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, uuid.New())
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatformsEndpoint(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/csv/platforms", nil)
	rec := httptest.NewRecorder()

	h.Platforms(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	platforms := envelope["data"].([]any)
	require.Len(t, platforms, 4)
	first := platforms[0].(map[string]any)
	assert.Equal(t, "patreon", first["name"])
}

func TestImportEndpoint_RetainsUpload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	h := newTestHandler(&stubRepo{}).WithStorage(store)

	userID := uuid.New()
	body, contentType := multipartBody(t, "gumroad.csv", []byte(gumroadCSV), map[string]string{
		"source_name": "Gumroad Store",
	})
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, userID)
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	files, err := store.List(req.Context(), userID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "gumroad.csv", files[0].Name)
}

func TestImportEndpoint_RejectedUploadNotRetained(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	h := newTestHandler(&stubRepo{}).WithStorage(store)

	userID := uuid.New()
	body, contentType := multipartBody(t, "gumroad.csv", []byte(gumroadCSV), nil)
	req := httptest.NewRequest(http.MethodPost, "/csv/import", body)
	req.Header.Set("Content-Type", contentType)
	req = authedRequest(t, req, userID)
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	files, err := store.List(req.Context(), userID)
	require.NoError(t, err)
	assert.Empty(t, files)
}
