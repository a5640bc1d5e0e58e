package ports

import (
	"context"

	"linkos_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

// PromotionReader looks up promotions owned by the promotions module.
// Implemented by an adapter in internal/adapters.
type PromotionReader interface {
	GetPromotion(ctx context.Context, id uuid.UUID) (*domain.Promotion, error)
	GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error)
}

// RecalculationScheduler defers a pricing recompute to the background worker.
type RecalculationScheduler interface {
	EnqueueQuoteRecalculation(ctx context.Context, quoteID uuid.UUID) error
}
