package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	quoteNotFoundMsg      = "quote not found"
	itemNotFoundMsg       = "quote item not found"
	quotePromoNotFoundMsg = "quote promotion not found"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository provides database operations for quotes
type Repository struct {
	pool *pgxpool.Pool
	db   DBTX
}

var _ ports.Store = (*Repository)(nil)

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx runs fn inside a transaction. A repository that is already bound to
// a transaction runs fn directly against it.
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NextQuoteNumber atomically generates the next quote number for a year
func (r *Repository) NextQuoteNumber(ctx context.Context, year int) (string, error) {
	var nextNum int
	query := `
		INSERT INTO quote_counters (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.db.QueryRow(ctx, query, year).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}

	return fmt.Sprintf("Q-%d-%04d", year, nextNum), nil
}

const quoteColumns = `
	id, quote_number, customer_id, lead_id, status,
	subtotal, discount_total, tax_total, total,
	notes, terms, expires_at, sent_at, accepted_at, accepted_by,
	declined_at, declined_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var q domain.Quote
	var status string
	if err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.CustomerID, &q.LeadID, &status,
		&q.Subtotal, &q.DiscountTotal, &q.TaxTotal, &q.Total,
		&q.Notes, &q.Terms, &q.ExpiresAt, &q.SentAt, &q.AcceptedAt, &q.AcceptedBy,
		&q.DeclinedAt, &q.DeclinedReason, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	q.Status = domain.Status(status)
	return &q, nil
}

func scanQuoteRow(row pgx.Row, op string) (*domain.Quote, error) {
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return q, nil
}

// CreateQuote inserts a new quote header
func (r *Repository) CreateQuote(ctx context.Context, q *domain.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Exec(ctx, query,
		q.ID, q.QuoteNumber, q.CustomerID, q.LeadID, string(q.Status),
		q.Subtotal, q.DiscountTotal, q.TaxTotal, q.Total,
		q.Notes, q.Terms, q.ExpiresAt, q.SentAt, q.AcceptedAt, q.AcceptedBy,
		q.DeclinedAt, q.DeclinedReason, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return apperr.Conflict("quote number already in use")
		}
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetQuote retrieves a quote by its ID
func (r *Repository) GetQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	return scanQuoteRow(r.db.QueryRow(ctx, query, id), "get quote")
}

func (r *Repository) LockQuote(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM quotes WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to lock quote: %w", err)
	}
	return nil
}

// UpdateQuoteFields patches the header fields set in patch
func (r *Repository) UpdateQuoteFields(ctx context.Context, id uuid.UUID, patch domain.QuotePatch, updatedAt time.Time) (*domain.Quote, error) {
	query := `
		UPDATE quotes SET
			notes = COALESCE($2, notes),
			terms = COALESCE($3, terms),
			expires_at = COALESCE($4, expires_at),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + quoteColumns

	row := r.db.QueryRow(ctx, query, id, patch.Notes, patch.Terms, patch.ExpiresAt, updatedAt)
	return scanQuoteRow(row, "update quote")
}

// UpdateStatus writes a status together with the timestamps of its transition
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, change domain.StatusChange, updatedAt time.Time) (*domain.Quote, error) {
	query := `
		UPDATE quotes SET
			status = $2,
			sent_at = COALESCE($3, sent_at),
			accepted_at = COALESCE($4, accepted_at),
			accepted_by = COALESCE($5, accepted_by),
			declined_at = COALESCE($6, declined_at),
			declined_reason = COALESCE($7, declined_reason),
			updated_at = $8
		WHERE id = $1
		RETURNING ` + quoteColumns

	row := r.db.QueryRow(ctx, query, id, string(change.Status),
		change.SentAt, change.AcceptedAt, change.AcceptedBy,
		change.DeclinedAt, change.DeclinedReason, updatedAt,
	)
	return scanQuoteRow(row, "update quote status")
}

// UpdateTotals writes the four monetary fields in one statement
func (r *Repository) UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.Totals, updatedAt time.Time) (*domain.Quote, error) {
	query := `
		UPDATE quotes SET
			subtotal = $2, discount_total = $3, tax_total = $4, total = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + quoteColumns

	row := r.db.QueryRow(ctx, query, id,
		totals.Subtotal, totals.DiscountTotal, totals.TaxTotal, totals.Total, updatedAt,
	)
	return scanQuoteRow(row, "update quote totals")
}

// DeleteQuote removes a quote (cascade deletes items and applied promotions)
func (r *Repository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// ListQuotes retrieves quotes with filtering and pagination. The status
// filter matches the effective status, so "expired" finds sent quotes past
// their expiry.
func (r *Repository) ListQuotes(ctx context.Context, params domain.ListParams, now time.Time) (*domain.ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}

	var customerParam interface{}
	if params.CustomerID != nil {
		customerParam = *params.CustomerID
	}

	var leadParam interface{}
	if params.LeadID != nil {
		leadParam = *params.LeadID
	}

	baseQuery := `
		FROM quotes
		WHERE ($1::uuid IS NULL OR customer_id = $1)
			AND ($2::uuid IS NULL OR lead_id = $2)
			AND ($3::text IS NULL OR
				(CASE WHEN status = 'sent' AND expires_at <= $5 THEN 'expired' ELSE status END) = $3)
			AND ($4::text IS NULL OR quote_number ILIKE $4 OR notes ILIKE $4)
	`
	args := []interface{}{customerParam, leadParam, statusParam, searchParam, now}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `
		SELECT ` + quoteColumns + `
		` + baseQuery + `
		ORDER BY
			CASE WHEN $6 = 'quoteNumber' AND $7 = 'asc' THEN quote_number END ASC,
			CASE WHEN $6 = 'quoteNumber' AND $7 = 'desc' THEN quote_number END DESC,
			CASE WHEN $6 = 'status' AND $7 = 'asc' THEN status END ASC,
			CASE WHEN $6 = 'status' AND $7 = 'desc' THEN status END DESC,
			CASE WHEN $6 = 'total' AND $7 = 'asc' THEN total END ASC,
			CASE WHEN $6 = 'total' AND $7 = 'desc' THEN total END DESC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'asc' THEN created_at END ASC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'desc' THEN created_at END DESC,
			CASE WHEN $6 = 'expiresAt' AND $7 = 'asc' THEN expires_at END ASC,
			CASE WHEN $6 = 'expiresAt' AND $7 = 'desc' THEN expires_at END DESC,
			created_at DESC
		LIMIT $8 OFFSET $9`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	return &domain.ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "quoteNumber", "status", "total", "createdAt", "expiresAt":
		return sortBy, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
