package repository

import (
	"context"
	"fmt"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
)

const quotePromotionColumns = `id, quote_id, promotion_id, discount_type, discount_amount, created_at`

// InsertQuotePromotion attaches a promotion snapshot to a quote
func (r *Repository) InsertQuotePromotion(ctx context.Context, qp *domain.QuotePromotion) error {
	query := `
		INSERT INTO quote_promotions (` + quotePromotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		qp.ID, qp.QuoteID, qp.PromotionID, string(qp.DiscountType), qp.DiscountAmount, qp.CreatedAt,
	)
	if err != nil {
		switch {
		case isPgError(err, pgUniqueViolation):
			return apperr.Conflict("promotion already applied to quote")
		case isPgError(err, pgForeignKeyViolation):
			return apperr.NotFound("quote or promotion not found")
		}
		return fmt.Errorf("failed to insert quote promotion: %w", err)
	}
	return nil
}

// ListQuotePromotions retrieves the promotions applied to a quote
func (r *Repository) ListQuotePromotions(ctx context.Context, quoteID uuid.UUID) ([]domain.QuotePromotion, error) {
	query := `SELECT ` + quotePromotionColumns + ` FROM quote_promotions WHERE quote_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote promotions: %w", err)
	}
	defer rows.Close()

	var promos []domain.QuotePromotion
	for rows.Next() {
		var qp domain.QuotePromotion
		var discountType string
		if err := rows.Scan(&qp.ID, &qp.QuoteID, &qp.PromotionID, &discountType, &qp.DiscountAmount, &qp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote promotion: %w", err)
		}
		qp.DiscountType = domain.DiscountType(discountType)
		promos = append(promos, qp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quote promotions: %w", err)
	}
	return promos, nil
}

// DeleteQuotePromotion detaches an applied promotion from its quote
func (r *Repository) DeleteQuotePromotion(ctx context.Context, quoteID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM quote_promotions WHERE id = $1 AND quote_id = $2`, id, quoteID)
	if err != nil {
		return fmt.Errorf("failed to delete quote promotion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quotePromoNotFoundMsg)
	}
	return nil
}
