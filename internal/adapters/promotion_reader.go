package adapters

import (
	"context"
	"fmt"

	promorepo "linkos_backend/internal/promotions/repository"
	promosvc "linkos_backend/internal/promotions/service"
	"linkos_backend/internal/quotes/domain"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
)

// PromotionReader adapts the promotions repository for the quotes domain,
// satisfying ports.PromotionReader.
type PromotionReader struct {
	repo promorepo.Reader
}

// NewPromotionReader creates a new promotion reader adapter.
func NewPromotionReader(repo promorepo.Reader) *PromotionReader {
	return &PromotionReader{repo: repo}
}

// GetPromotion returns the promotion with the given ID.
func (a *PromotionReader) GetPromotion(ctx context.Context, id uuid.UUID) (*domain.Promotion, error) {
	p, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapPromotionErr("get promotion", err)
	}
	return toQuotePromotion(p), nil
}

// GetPromotionByCode returns the promotion redeemable under code.
func (a *PromotionReader) GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	normalized := promosvc.NormalizeCode(code)
	if normalized == "" {
		return nil, apperr.Validation("promotion code is required")
	}

	p, err := a.repo.GetByCode(ctx, normalized)
	if err != nil {
		return nil, wrapPromotionErr("get promotion by code", err)
	}
	return toQuotePromotion(p), nil
}

// Typed errors pass through so the HTTP layer keeps their status.
func wrapPromotionErr(op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return fmt.Errorf("promotion adapter: %s: %w", op, err)
}

func toQuotePromotion(p promorepo.Promotion) *domain.Promotion {
	return &domain.Promotion{
		ID:             p.ID,
		Code:           p.Code,
		DiscountType:   domain.DiscountType(p.DiscountType),
		DiscountAmount: p.DiscountAmount,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
		Active:         p.Status == promorepo.StatusActive,
	}
}
