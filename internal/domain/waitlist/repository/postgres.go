// Package repository provides data access for waitlist entries.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Status is the lifecycle state of a waitlist entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusInvited Status = "invited"
	StatusJoined  Status = "joined"
)

// Entry is a single waitlist signup.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Status     Status     `json:"status"`
	InviteCode *string    `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	InvitedAt  *time.Time `json:"invited_at,omitempty"`
	JoinedAt   *time.Time `json:"joined_at,omitempty"`
}

// Stats holds aggregate waitlist metrics.
type Stats struct {
	TotalSignups    int `json:"total_signups"`
	PendingCount    int `json:"pending_count"`
	InvitedCount    int `json:"invited_count"`
	JoinedCount     int `json:"joined_count"`
	SignupsToday    int `json:"signups_today"`
	SignupsThisWeek int `json:"signups_this_week"`
}

// WaitlistRepository defines the interface for waitlist persistence.
type WaitlistRepository interface {
	Add(ctx context.Context, email string) (*Entry, error)
	GetByEmail(ctx context.Context, email string) (*Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByInviteCode(ctx context.Context, code string) (*Entry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, inviteCode *string) error
	Position(ctx context.Context, id uuid.UUID) (int, error)
	Stats(ctx context.Context) (*Stats, error)
}

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresWaitlistRepository implements WaitlistRepository on PostgreSQL.
type PostgresWaitlistRepository struct {
	pool DB
}

// NewPostgresWaitlistRepository creates a PostgreSQL-backed waitlist repository.
func NewPostgresWaitlistRepository(pool DB) *PostgresWaitlistRepository {
	return &PostgresWaitlistRepository{pool: pool}
}

const entryColumns = `id, email, status, invite_code, created_at, invited_at, joined_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Email, &e.Status, &e.InviteCode, &e.CreatedAt, &e.InvitedAt, &e.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Add inserts an email into the waitlist. Signing up twice is not an error;
// the existing entry comes back instead.
func (r *PostgresWaitlistRepository) Add(ctx context.Context, email string) (*Entry, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query := `
		INSERT INTO waitlist (email, status)
		VALUES ($1, 'pending')
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add to waitlist: %w", err)
	}
	return entry, nil
}

// GetByEmail returns the entry for an email, or nil when absent.
func (r *PostgresWaitlistRepository) GetByEmail(ctx context.Context, email string) (*Entry, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query := `SELECT ` + entryColumns + ` FROM waitlist WHERE email = $1`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry by email: %w", err)
	}
	return entry, nil
}

// GetByID returns the entry with the given id, or nil when absent.
func (r *PostgresWaitlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist WHERE id = $1`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return entry, nil
}

// GetByInviteCode returns the entry carrying the invite code, or nil.
func (r *PostgresWaitlistRepository) GetByInviteCode(ctx context.Context, code string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM waitlist WHERE invite_code = $1`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry by invite code: %w", err)
	}
	return entry, nil
}

// UpdateStatus moves an entry through the lifecycle, stamping the transition
// time for invites and joins.
func (r *PostgresWaitlistRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, inviteCode *string) error {
	var query string
	var args []any

	switch status {
	case StatusInvited:
		query = `UPDATE waitlist SET status = $2, invite_code = $3, invited_at = NOW() WHERE id = $1`
		args = []any{id, status, inviteCode}
	case StatusJoined:
		query = `UPDATE waitlist SET status = $2, joined_at = NOW() WHERE id = $1`
		args = []any{id, status}
	default:
		query = `UPDATE waitlist SET status = $2 WHERE id = $1`
		args = []any{id, status}
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update waitlist status: %w", err)
	}
	return nil
}

// Position returns the 1-based queue position among pending signups.
func (r *PostgresWaitlistRepository) Position(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) + 1
		FROM waitlist
		WHERE created_at < (SELECT created_at FROM waitlist WHERE id = $1)
		AND status = 'pending'`

	var position int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&position); err != nil {
		return 0, fmt.Errorf("failed to get waitlist position: %w", err)
	}
	return position, nil
}

// Stats returns aggregate signup metrics.
func (r *PostgresWaitlistRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'invited'),
			COUNT(*) FILTER (WHERE status = 'joined'),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '7 days')
		FROM waitlist`

	var stats Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalSignups, &stats.PendingCount, &stats.InvitedCount,
		&stats.JoinedCount, &stats.SignupsToday, &stats.SignupsThisWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist stats: %w", err)
	}
	return &stats, nil
}
