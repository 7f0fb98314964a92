package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/parser"
	"github.com/FACorreiaa/income-tracker/internal/domain/ingest/platform"
)

// buildRecords converts parsed rows into candidate income records using the
// resolved column mapping. Rows with a missing or unparseable amount or date
// are skipped without error; exports commonly carry blank trailing rows and
// subtotal lines, and one bad row must not fail the whole upload. Output
// order preserves input row order.
func buildRecords(userID uuid.UUID, rows []parser.Row, mapping platform.ColumnMapping) []*repository.Record {
	var records []*repository.Record
	for _, row := range rows {
		record := buildRecord(userID, row, mapping)
		if record != nil {
			records = append(records, record)
		}
	}
	return records
}

func buildRecord(userID uuid.UUID, row parser.Row, mapping platform.ColumnMapping) *repository.Record {
	rawAmount := row.Get(mapping.Amount)
	rawDate := row.Get(mapping.Date)
	if rawAmount == "" || rawDate == "" {
		return nil
	}

	amount, err := normalizer.Amount(rawAmount)
	if err != nil {
		return nil
	}
	isoDate, ok := normalizer.Date(rawDate)
	if !ok {
		return nil
	}
	transactionDate, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return nil
	}

	currency := "USD"
	if mapping.Currency != "" {
		currency = normalizer.CurrencyCode(row.Get(mapping.Currency))
	}

	record := &repository.Record{
		UserID:                userID,
		Amount:                amount,
		CurrencyCode:          currency,
		TransactionDate:       transactionDate,
		Description:           optionalField(row, mapping.Description),
		Category:              optionalField(row, mapping.Category),
		Customer:              optionalField(row, mapping.Customer),
		ExternalTransactionID: optionalField(row, mapping.TransactionID),
		RawData:               map[string]string(row),
	}
	return record
}

func optionalField(row parser.Row, header string) *string {
	if header == "" {
		return nil
	}
	value := strings.TrimSpace(row.Get(header))
	if value == "" {
		return nil
	}
	return &value
}
