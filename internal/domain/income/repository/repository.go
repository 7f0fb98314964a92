// Package repository provides database operations for income records and sources.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source is a named origin of income, typically one per platform
// (Patreon, Gumroad, ...) or per client for manual entries.
type Source struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Platform  *string   `json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a single income transaction.
type Record struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"user_id"`
	SourceID              *uuid.UUID        `json:"source_id,omitempty"`
	ExternalTransactionID *string           `json:"external_transaction_id,omitempty"`
	Amount                decimal.Decimal   `json:"amount"`
	CurrencyCode          string            `json:"currency_code"`
	TransactionDate       time.Time         `json:"transaction_date"`
	Description           *string           `json:"description,omitempty"`
	Customer              *string           `json:"customer,omitempty"`
	Category              *string           `json:"category,omitempty"`
	RawData               map[string]string `json:"raw_data,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// ListFilter narrows ListRecords results. Nil fields are ignored.
type ListFilter struct {
	SourceID *uuid.UUID
	Category *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// SourceTotal aggregates income per source.
type SourceTotal struct {
	SourceID   uuid.UUID       `json:"source_id"`
	SourceName string          `json:"source_name"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// CategoryTotal aggregates income per category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MonthTotal aggregates income per calendar month (YYYY-MM).
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Summary is the aggregate view over a user's records in a date window.
type Summary struct {
	TotalAmount decimal.Decimal  `json:"total_amount"`
	RecordCount int              `json:"record_count"`
	BySource    []*SourceTotal   `json:"by_source"`
	ByCategory  []*CategoryTotal `json:"by_category"`
	ByMonth     []*MonthTotal    `json:"by_month"`
}

// IncomeRepository defines the interface for income persistence operations
type IncomeRepository interface {
	// Source operations
	FindOrCreateSource(ctx context.Context, userID uuid.UUID, name string, platform *string) (*Source, error)
	ListSources(ctx context.Context, userID uuid.UUID) ([]*Source, error)

	// Record operations
	CreateRecord(ctx context.Context, record *Record) error
	GetRecordByID(ctx context.Context, userID, id uuid.UUID) (*Record, error)
	UpdateRecord(ctx context.Context, record *Record) error
	DeleteRecord(ctx context.Context, userID, id uuid.UUID) error
	ListRecords(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Record, int, error)

	// BulkInsertRecords inserts records in one round trip, skipping rows
	// that collide with an existing record on the dedup key. Returns the
	// number actually inserted.
	BulkInsertRecords(ctx context.Context, records []*Record) (int, error)

	// Aggregations
	Summary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*Summary, error)
}
