package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock provides the
// same surface, which lets the tests run without a database.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresIncomeRepository implements IncomeRepository using PostgreSQL
type PostgresIncomeRepository struct {
	pool DB
}

// NewPostgresIncomeRepository creates a new PostgreSQL income repository
func NewPostgresIncomeRepository(pool DB) *PostgresIncomeRepository {
	return &PostgresIncomeRepository{pool: pool}
}

// FindOrCreateSource returns the user's source with the given name, creating
// it if missing. The upsert keeps repeated imports from the same platform
// pointing at one source row.
func (r *PostgresIncomeRepository) FindOrCreateSource(ctx context.Context, userID uuid.UUID, name string, platform *string) (*Source, error) {
	query := `
		INSERT INTO income_sources (id, user_id, name, platform)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO UPDATE SET platform = COALESCE(income_sources.platform, EXCLUDED.platform)
		RETURNING id, user_id, name, platform, created_at`

	source := &Source{}
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID, name, platform).Scan(
		&source.ID,
		&source.UserID,
		&source.Name,
		&source.Platform,
		&source.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create source: %w", err)
	}
	return source, nil
}

// ListSources retrieves all income sources for a user
func (r *PostgresIncomeRepository) ListSources(ctx context.Context, userID uuid.UUID) ([]*Source, error) {
	query := `
		SELECT id, user_id, name, platform, created_at
		FROM income_sources
		WHERE user_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		source := &Source{}
		err := rows.Scan(
			&source.ID,
			&source.UserID,
			&source.Name,
			&source.Platform,
			&source.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

const recordColumns = `id, user_id, source_id, external_transaction_id, amount, currency_code, transaction_date, description, customer, category, raw_data, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	record := &Record{}
	var amount string
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.SourceID,
		&record.ExternalTransactionID,
		&amount,
		&record.CurrencyCode,
		&record.TransactionDate,
		&record.Description,
		&record.Customer,
		&record.Category,
		&record.RawData,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount: %w", err)
	}
	return record, nil
}

// CreateRecord inserts a single income record
func (r *PostgresIncomeRepository) CreateRecord(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO income_records (id, user_id, source_id, external_transaction_id, amount, currency_code, transaction_date, description, customer, category, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.SourceID,
		record.ExternalTransactionID,
		record.Amount.String(),
		record.CurrencyCode,
		record.TransactionDate,
		record.Description,
		record.Customer,
		record.Category,
		record.RawData,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// GetRecordByID retrieves a record owned by the given user
func (r *PostgresIncomeRepository) GetRecordByID(ctx context.Context, userID, id uuid.UUID) (*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM income_records
		WHERE id = $1 AND user_id = $2`

	record, err := scanRecord(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// UpdateRecord updates an existing record
func (r *PostgresIncomeRepository) UpdateRecord(ctx context.Context, record *Record) error {
	query := `
		UPDATE income_records
		SET source_id = $3, amount = $4, currency_code = $5, transaction_date = $6, description = $7, customer = $8, category = $9
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.SourceID,
		record.Amount.String(),
		record.CurrencyCode,
		record.TransactionDate,
		record.Description,
		record.Customer,
		record.Category,
	).Scan(&record.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// DeleteRecord removes a record owned by the given user
func (r *PostgresIncomeRepository) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM income_records WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecords retrieves a filtered, paginated page of records plus the total
// count matching the filter.
func (r *PostgresIncomeRepository) ListRecords(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Record, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.SourceID != nil {
		args = append(args, *filter.SourceID)
		where += fmt.Sprintf(" AND source_id = $%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM income_records` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM income_records` + where +
		` ORDER BY transaction_date DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, total, nil
}

// BulkInsertRecords inserts all records in one batch. Rows whose dedup key
// (user, source, external transaction id, date, amount) already exists are
// skipped by ON CONFLICT DO NOTHING; the return value counts rows actually
// written.
func (r *PostgresIncomeRepository) BulkInsertRecords(ctx context.Context, records []*Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO income_records (id, user_id, source_id, external_transaction_id, amount, currency_code, transaction_date, description, customer, category, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`

	batch := &pgx.Batch{}
	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		batch.Queue(query,
			record.ID,
			record.UserID,
			record.SourceID,
			record.ExternalTransactionID,
			record.Amount.String(),
			record.CurrencyCode,
			record.TransactionDate,
			record.Description,
			record.Customer,
			record.Category,
			record.RawData,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to bulk insert records: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Summary computes aggregate totals for a user's records within an optional
// date window.
func (r *PostgresIncomeRepository) Summary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*Summary, error) {
	where := ` WHERE r.user_id = $1`
	args := []interface{}{userID}
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND r.transaction_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND r.transaction_date <= $%d", len(args))
	}

	summary := &Summary{
		TotalAmount: decimal.Zero,
		BySource:    []*SourceTotal{},
		ByCategory:  []*CategoryTotal{},
		ByMonth:     []*MonthTotal{},
	}

	totalQuery := `SELECT COALESCE(SUM(r.amount), 0)::text, COUNT(*) FROM income_records r` + where
	var total string
	if err := r.pool.QueryRow(ctx, totalQuery, args...).Scan(&total, &summary.RecordCount); err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	var err error
	if summary.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to parse total amount: %w", err)
	}

	sourceQuery := `
		SELECT s.id, s.name, SUM(r.amount)::text, COUNT(*)
		FROM income_records r
		JOIN income_sources s ON s.id = r.source_id` + where + `
		GROUP BY s.id, s.name
		ORDER BY SUM(r.amount) DESC`
	if err := r.queryTotals(ctx, sourceQuery, args, func(rows pgx.Rows) error {
		st := &SourceTotal{}
		var amount string
		if err := rows.Scan(&st.SourceID, &st.SourceName, &amount, &st.Count); err != nil {
			return err
		}
		if st.Total, err = decimal.NewFromString(amount); err != nil {
			return err
		}
		summary.BySource = append(summary.BySource, st)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to aggregate by source: %w", err)
	}

	categoryQuery := `
		SELECT COALESCE(r.category, 'Other'), SUM(r.amount)::text, COUNT(*)
		FROM income_records r` + where + `
		GROUP BY COALESCE(r.category, 'Other')
		ORDER BY SUM(r.amount) DESC`
	if err := r.queryTotals(ctx, categoryQuery, args, func(rows pgx.Rows) error {
		ct := &CategoryTotal{}
		var amount string
		if err := rows.Scan(&ct.Category, &amount, &ct.Count); err != nil {
			return err
		}
		if ct.Total, err = decimal.NewFromString(amount); err != nil {
			return err
		}
		summary.ByCategory = append(summary.ByCategory, ct)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to aggregate by category: %w", err)
	}

	monthQuery := `
		SELECT to_char(r.transaction_date, 'YYYY-MM'), SUM(r.amount)::text, COUNT(*)
		FROM income_records r` + where + `
		GROUP BY 1
		ORDER BY 1 ASC`
	if err := r.queryTotals(ctx, monthQuery, args, func(rows pgx.Rows) error {
		mt := &MonthTotal{}
		var amount string
		if err := rows.Scan(&mt.Month, &amount, &mt.Count); err != nil {
			return err
		}
		if mt.Total, err = decimal.NewFromString(amount); err != nil {
			return err
		}
		summary.ByMonth = append(summary.ByMonth, mt)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to aggregate by month: %w", err)
	}

	return summary, nil
}

func (r *PostgresIncomeRepository) queryTotals(ctx context.Context, query string, args []interface{}, scan func(pgx.Rows) error) error {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
