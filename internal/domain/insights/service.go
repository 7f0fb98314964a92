package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

// SummaryRepository is the slice of the income repository this service needs.
type SummaryRepository interface {
	Summary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*repository.Summary, error)
}

// defaultPeriodMonths is how far back a report looks when no window is given.
const defaultPeriodMonths = 6

// Service builds insight reports.
type Service struct {
	repo   SummaryRepository
	model  NarrativeModel
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an insights service without a narrative model; reports
// fall back to a deterministic narrative.
func NewService(repo SummaryRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithNarrativeModel attaches a model for AI-written narratives.
func (s *Service) WithNarrativeModel(model NarrativeModel) *Service {
	s.model = model
	return s
}

// Report builds the insight report for a period. A nil from defaults to six
// months back, a nil to defaults to today. A failing narrative model degrades
// to the deterministic narrative, never to an error.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*Report, error) {
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, -defaultPeriodMonths, 0)
	if from != nil {
		start = *from
	}

	summary, err := s.repo.Summary(ctx, userID, &start, &end)
	if err != nil {
		return nil, err
	}

	report := &Report{
		From:       start.Format("2006-01-02"),
		To:         end.Format("2006-01-02"),
		Summary:    summary,
		Highlights: computeHighlights(summary),
	}

	if s.model == nil || summary.RecordCount == 0 {
		report.Narrative = fallbackNarrative(summary)
		return report, nil
	}

	narrative, err := s.model.GenerateText(ctx, narrativePrompt(report, summary))
	if err != nil {
		s.logger.Warn("narrative generation failed, using fallback",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		report.Narrative = fallbackNarrative(summary)
		return report, nil
	}

	report.Narrative = narrative
	report.AIGenerated = true
	return report, nil
}
