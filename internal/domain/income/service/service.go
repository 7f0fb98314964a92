// Package service provides business logic for income records and sources.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
)

// RecordInput carries caller-supplied fields for creating or updating a
// record by hand, outside of the upload flow.
type RecordInput struct {
	SourceName      string          `json:"source_name"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyCode    string          `json:"currency_code"`
	TransactionDate string          `json:"transaction_date"`
	Description     *string         `json:"description,omitempty"`
	Customer        *string         `json:"customer,omitempty"`
	Category        *string         `json:"category,omitempty"`
}

// ListParams narrows and paginates record listings.
type ListParams struct {
	SourceID *uuid.UUID
	Category *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// RecordPage is one page of records plus the total count for pagination.
type RecordPage struct {
	Records []*repository.Record `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Service provides income record management business logic
type Service struct {
	repo repository.IncomeRepository
}

// NewService creates a new income service
func NewService(repo repository.IncomeRepository) *Service {
	return &Service{repo: repo}
}

// CreateRecord adds a manually entered income record
func (s *Service) CreateRecord(ctx context.Context, userID uuid.UUID, input RecordInput) (*repository.Record, error) {
	if input.SourceName == "" {
		return nil, fmt.Errorf("source name is required")
	}
	if input.Amount.IsZero() {
		return nil, fmt.Errorf("amount must be non-zero")
	}
	date, err := time.Parse("2006-01-02", input.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("transaction_date must be YYYY-MM-DD")
	}

	source, err := s.repo.FindOrCreateSource(ctx, userID, input.SourceName, nil)
	if err != nil {
		return nil, err
	}

	currency := input.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	record := &repository.Record{
		ID:              uuid.New(),
		UserID:          userID,
		SourceID:        &source.ID,
		Amount:          input.Amount,
		CurrencyCode:    currency,
		TransactionDate: date,
		Description:     input.Description,
		Customer:        input.Customer,
		Category:        input.Category,
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord retrieves a record by ID
func (s *Service) GetRecord(ctx context.Context, userID, id uuid.UUID) (*repository.Record, error) {
	return s.repo.GetRecordByID(ctx, userID, id)
}

// UpdateRecord applies partial updates to an existing record
func (s *Service) UpdateRecord(ctx context.Context, userID, id uuid.UUID, amount *decimal.Decimal, transactionDate *string, description, customer, category *string) (*repository.Record, error) {
	record, err := s.repo.GetRecordByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if amount != nil {
		record.Amount = *amount
	}
	if transactionDate != nil {
		date, err := time.Parse("2006-01-02", *transactionDate)
		if err != nil {
			return nil, fmt.Errorf("transaction_date must be YYYY-MM-DD")
		}
		record.TransactionDate = date
	}
	if description != nil {
		record.Description = description
	}
	if customer != nil {
		record.Customer = customer
	}
	if category != nil {
		record.Category = category
	}

	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record
func (s *Service) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, userID, id)
}

// ListRecords retrieves a filtered page of records
func (s *Service) ListRecords(ctx context.Context, userID uuid.UUID, params ListParams) (*RecordPage, error) {
	if params.Limit <= 0 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	records, total, err := s.repo.ListRecords(ctx, userID, repository.ListFilter{
		SourceID: params.SourceID,
		Category: params.Category,
		From:     params.From,
		To:       params.To,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*repository.Record{}
	}
	return &RecordPage{Records: records, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// ListSources retrieves the user's income sources
func (s *Service) ListSources(ctx context.Context, userID uuid.UUID) ([]*repository.Source, error) {
	return s.repo.ListSources(ctx, userID)
}

// Summary computes aggregate totals for an optional date window
func (s *Service) Summary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*repository.Summary, error) {
	return s.repo.Summary(ctx, userID, from, to)
}
