package main

import (
	"context"

	"github.com/FACorreiaa/income-tracker/internal/domain/categorization"
	ingestservice "github.com/FACorreiaa/income-tracker/internal/domain/ingest/service"
)

// categorizationAdapter adapts categorization.Service to the ingest service's
// CategorizationService interface.
type categorizationAdapter struct {
	svc *categorization.Service
}

func newCategorizationAdapter(svc *categorization.Service) ingestservice.CategorizationService {
	return &categorizationAdapter{svc: svc}
}

// CategorizeBatch implements ingestservice.CategorizationService.
func (a *categorizationAdapter) CategorizeBatch(ctx context.Context, items []ingestservice.CategorizationItem) ([]ingestservice.CategorizationResult, error) {
	batch := make([]categorization.Item, len(items))
	for i, item := range items {
		batch[i] = categorization.Item{
			Description: item.Description,
			Amount:      item.Amount,
			Source:      item.Source,
		}
	}

	matches, err := a.svc.CategorizeBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	results := make([]ingestservice.CategorizationResult, len(matches))
	for i, m := range matches {
		results[i] = ingestservice.CategorizationResult{
			Category:   m.Category,
			Confidence: m.Confidence,
		}
	}
	return results, nil
}
