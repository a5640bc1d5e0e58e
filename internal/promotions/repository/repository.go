package repository

import (
	"context"
	"errors"
	"fmt"

	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const promotionNotFoundMsg = "promotion not found"

const promotionColumns = `
	id, promotion_code, name, discount_type, discount_amount,
	valid_from, valid_until, status, created_at, updated_at`

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// New creates a new promotions repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPromotion(row rowScanner) (Promotion, error) {
	var p Promotion
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountAmount,
		&p.ValidFrom, &p.ValidUntil, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *Repo) getOne(ctx context.Context, query string, arg interface{}) (Promotion, error) {
	p, err := scanPromotion(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Promotion{}, apperr.NotFound(promotionNotFoundMsg)
		}
		return Promotion{}, fmt.Errorf("failed to get promotion: %w", err)
	}
	return p, nil
}

// GetByID retrieves a promotion by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Promotion, error) {
	return r.getOne(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
}

// GetByCode retrieves a promotion by its promotion code.
func (r *Repo) GetByCode(ctx context.Context, code string) (Promotion, error) {
	return r.getOne(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE promotion_code = $1`, code)
}

// List retrieves promotions with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListPromotionsParams) ([]Promotion, int, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, 0, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, 0, err
	}

	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}
	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}
	var activeAtParam interface{}
	if params.ActiveAt != nil {
		activeAtParam = *params.ActiveAt
	}

	baseQuery := `
		FROM promotions
		WHERE ($1::text IS NULL OR name ILIKE $1 OR promotion_code ILIKE $1)
			AND ($2::text IS NULL OR status = $2)
			AND ($3::timestamptz IS NULL OR (
				status = 'active'
				AND (valid_from IS NULL OR valid_from <= $3)
				AND (valid_until IS NULL OR valid_until >= $3)))
	`
	args := []interface{}{searchParam, statusParam, activeAtParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count promotions: %w", err)
	}

	query := `
		SELECT ` + promotionColumns + `
		` + baseQuery + `
		ORDER BY
			CASE WHEN $4 = 'name' AND $5 = 'asc' THEN name END ASC,
			CASE WHEN $4 = 'name' AND $5 = 'desc' THEN name END DESC,
			CASE WHEN $4 = 'validUntil' AND $5 = 'asc' THEN valid_until END ASC,
			CASE WHEN $4 = 'validUntil' AND $5 = 'desc' THEN valid_until END DESC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'asc' THEN created_at END ASC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'desc' THEN created_at END DESC,
			created_at DESC
		LIMIT $6 OFFSET $7`
	args = append(args, sortBy, sortOrder, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	items := make([]Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan promotion: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate promotions: %w", err)
	}
	return items, total, nil
}

// Create inserts a new promotion.
func (r *Repo) Create(ctx context.Context, params CreatePromotionParams) (Promotion, error) {
	query := `
		INSERT INTO promotions (id, promotion_code, name, discount_type, discount_amount, valid_from, valid_until, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + promotionColumns

	p, err := scanPromotion(r.pool.QueryRow(ctx, query,
		uuid.New(), params.Code, params.Name, params.DiscountType, params.DiscountAmount,
		params.ValidFrom, params.ValidUntil, params.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Promotion{}, apperr.Conflict("promotion code already in use")
		}
		return Promotion{}, fmt.Errorf("failed to create promotion: %w", err)
	}
	return p, nil
}

// Update patches a promotion. Discount terms are immutable once created.
func (r *Repo) Update(ctx context.Context, params UpdatePromotionParams) (Promotion, error) {
	query := `
		UPDATE promotions SET
			name = COALESCE($2, name),
			valid_from = COALESCE($3, valid_from),
			valid_until = COALESCE($4, valid_until),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + promotionColumns

	p, err := scanPromotion(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.ValidFrom, params.ValidUntil, params.Status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Promotion{}, apperr.NotFound(promotionNotFoundMsg)
		}
		return Promotion{}, fmt.Errorf("failed to update promotion: %w", err)
	}
	return p, nil
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "name", "validUntil", "createdAt":
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
