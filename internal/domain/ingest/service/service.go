// Package service provides the upload ingestion orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/parser"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/platform"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type: only .csv and .xlsx are accepted")
	ErrSourceNameRequired  = errors.New("source name is required")
	ErrMappingIncomplete   = errors.New("mapping must include amount and date columns")
	ErrNoRecords           = errors.New("no importable records found in file")
)

const (
	defaultPreviewSize = 5
	maxPreviewSize     = 50

	// minConfidence is the threshold below which a suggested category is
	// discarded in favor of the default.
	minConfidence = 0.5

	defaultCategory = "Other"
)

// CategorizationItem is one uncategorized record sent to the categorizer.
type CategorizationItem struct {
	Description string
	Amount      decimal.Decimal
	Source      string
}

// CategorizationResult holds a suggested category and the categorizer's
// confidence in it.
type CategorizationResult struct {
	Category   string
	Confidence float64
}

// CategorizationService defines the interface for batch income categorization.
// Results align by index with the input items.
type CategorizationService interface {
	CategorizeBatch(ctx context.Context, items []CategorizationItem) ([]CategorizationResult, error)
}

// Preview is the parsed shape of an uploaded file before import.
type Preview struct {
	Headers   []string     `json:"headers"`
	Rows      []parser.Row `json:"rows"`
	TotalRows int          `json:"totalRows"`
}

// PreviewResult is the response payload for a preview request.
type PreviewResult struct {
	Preview          *Preview                `json:"preview"`
	DetectedPlatform *string                 `json:"detectedPlatform"`
	SuggestedMapping *platform.ColumnMapping `json:"suggestedMapping"`
	FileType         parser.FileType         `json:"fileType"`
}

// ImportSummary is the response payload for an import request. Imported and
// DuplicatesSkipped always partition TotalInFile exactly.
type ImportSummary struct {
	Source            *repository.Source `json:"source"`
	Imported          int                `json:"imported"`
	DuplicatesSkipped int                `json:"duplicatesSkipped"`
	TotalInFile       int                `json:"totalInFile"`
	AICategorized     int                `json:"aiCategorized"`
}

// Service orchestrates file preview and import operations
type Service struct {
	repo       repository.IncomeRepository
	catService CategorizationService // Optional: nil if categorization not available
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService creates a new ingest service
func NewService(repo repository.IncomeRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("ingest"),
	}
}

// WithCategorizationService adds categorization support to the ingest service
func (s *Service) WithCategorizationService(catService CategorizationService) *Service {
	s.catService = catService
	return s
}

// Preview parses an uploaded file and returns its headers, the first
// previewSize rows, the detected platform, and a suggested column mapping.
// Nothing is persisted.
func (s *Service) Preview(ctx context.Context, filename string, data []byte, previewSize int) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Preview")
	defer span.End()

	doc, fileType, err := s.parseUpload(filename, data)
	if err != nil {
		return nil, err
	}

	if previewSize <= 0 {
		previewSize = defaultPreviewSize
	}
	if previewSize > maxPreviewSize {
		previewSize = maxPreviewSize
	}
	sample := doc.Rows
	if len(sample) > previewSize {
		sample = sample[:previewSize]
	}

	result := &PreviewResult{
		Preview: &Preview{
			Headers:   doc.Headers,
			Rows:      sample,
			TotalRows: doc.TotalRows(),
		},
		FileType: fileType,
	}

	if detected := platform.Detect(doc.Headers); detected != nil {
		result.DetectedPlatform = &detected.Name
		result.SuggestedMapping = platform.SuggestedMapping(detected.Name)
	} else if guessed := platform.SuggestColumns(doc.Headers); guessed.Valid() {
		result.SuggestedMapping = &guessed
	}

	span.SetAttributes(
		attribute.Int("ingest.total_rows", result.Preview.TotalRows),
		attribute.Bool("ingest.platform_detected", result.DetectedPlatform != nil),
	)
	return result, nil
}

// Import parses the full file, builds candidate records with the supplied or
// derived mapping, categorizes unlabeled rows, and bulk-inserts the batch
// with duplicate rows skipped.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, filename, sourceName string, data []byte, mapping *platform.ColumnMapping) (*ImportSummary, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Import")
	defer span.End()

	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		return nil, ErrSourceNameRequired
	}

	doc, _, err := s.parseUpload(filename, data)
	if err != nil {
		return nil, err
	}

	detected := platform.Detect(doc.Headers)
	resolved, err := resolveMapping(mapping, detected)
	if err != nil {
		return nil, err
	}

	records := buildRecords(userID, doc.Rows, resolved)
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	var platformName *string
	if detected != nil {
		platformName = &detected.Name
	}
	source, err := s.repo.FindOrCreateSource(ctx, userID, sourceName, platformName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve income source: %w", err)
	}

	aiCategorized := s.categorize(ctx, records, source.Name)

	for _, record := range records {
		id := source.ID
		record.SourceID = &id
	}

	inserted, err := s.repo.BulkInsertRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to insert records: %w", err)
	}

	summary := &ImportSummary{
		Source:            source,
		Imported:          inserted,
		DuplicatesSkipped: len(records) - inserted,
		TotalInFile:       len(records),
		AICategorized:     aiCategorized,
	}

	span.SetAttributes(
		attribute.Int("ingest.imported", summary.Imported),
		attribute.Int("ingest.duplicates_skipped", summary.DuplicatesSkipped),
		attribute.Int("ingest.ai_categorized", summary.AICategorized),
	)
	s.logger.Info("import completed",
		"user_id", userID,
		"source", source.Name,
		"imported", summary.Imported,
		"duplicates_skipped", summary.DuplicatesSkipped,
		"total_in_file", summary.TotalInFile,
		"ai_categorized", summary.AICategorized,
	)
	return summary, nil
}

// Platforms returns the static list of known platform signatures.
func (s *Service) Platforms() []platform.Signature {
	return platform.All()
}

func (s *Service) parseUpload(filename string, data []byte) (*parser.Document, parser.FileType, error) {
	fileType, ok := parser.FileTypeFromName(filename)
	if !ok {
		return nil, "", ErrUnsupportedFileType
	}
	doc, err := parser.Parse(data, fileType)
	if err != nil {
		return nil, "", err
	}
	return doc, fileType, nil
}

// resolveMapping prefers the caller-supplied mapping, falling back to the
// detected platform's default.
func resolveMapping(supplied *platform.ColumnMapping, detected *platform.Signature) (platform.ColumnMapping, error) {
	if supplied != nil {
		if !supplied.Valid() {
			return platform.ColumnMapping{}, ErrMappingIncomplete
		}
		return *supplied, nil
	}
	if detected != nil {
		if m := platform.SuggestedMapping(detected.Name); m != nil {
			return *m, nil
		}
	}
	return platform.ColumnMapping{}, ErrMappingIncomplete
}

// categorize requests categories for records that lack a meaningful one.
// Suggestions are applied only above the confidence threshold. Failures are
// logged and swallowed: categorization never blocks an import.
func (s *Service) categorize(ctx context.Context, records []*repository.Record, sourceName string) int {
	if s.catService == nil {
		return 0
	}

	var indexes []int
	var items []CategorizationItem
	for i, record := range records {
		if record.Category != nil && *record.Category != "" && *record.Category != defaultCategory {
			continue
		}
		description := ""
		if record.Description != nil {
			description = *record.Description
		}
		indexes = append(indexes, i)
		items = append(items, CategorizationItem{
			Description: description,
			Amount:      record.Amount,
			Source:      sourceName,
		})
	}
	if len(items) == 0 {
		return 0
	}

	results, err := s.catService.CategorizeBatch(ctx, items)
	if err != nil {
		s.logger.Warn("categorization failed, keeping default categories", "error", err)
		return 0
	}
	if len(results) != len(items) {
		s.logger.Warn("categorization returned mismatched result count",
			"want", len(items), "got", len(results))
		return 0
	}

	applied := 0
	for j, result := range results {
		if result.Confidence <= minConfidence || result.Category == "" {
			continue
		}
		category := result.Category
		records[indexes[j]].Category = &category
		applied++
	}
	return applied
}
