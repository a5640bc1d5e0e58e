package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Promotion is a discount offer that can be attached to quotes.
type Promotion struct {
	ID             uuid.UUID       `json:"id"`
	Code           *string         `json:"code,omitempty"`
	Name           string          `json:"name"`
	DiscountType   string          `json:"discountType"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ValidFrom      *time.Time      `json:"validFrom,omitempty"`
	ValidUntil     *time.Time      `json:"validUntil,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreatePromotionParams contains data for creating a promotion.
type CreatePromotionParams struct {
	Code           *string
	Name           string
	DiscountType   string
	DiscountAmount decimal.Decimal
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Status         string
}

// UpdatePromotionParams contains data for updating a promotion.
// Nil fields are left unchanged.
type UpdatePromotionParams struct {
	ID         uuid.UUID
	Name       *string
	ValidFrom  *time.Time
	ValidUntil *time.Time
	Status     *string
}

// ListPromotionsParams defines filters for listing promotions.
type ListPromotionsParams struct {
	Search    string
	Status    *string
	ActiveAt  *time.Time
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

// Reader is the read side of the promotion store.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Promotion, error)
	GetByCode(ctx context.Context, code string) (Promotion, error)
}

// Repository defines the promotion data access contract.
type Repository interface {
	Reader
	List(ctx context.Context, params ListPromotionsParams) ([]Promotion, int, error)
	Create(ctx context.Context, params CreatePromotionParams) (Promotion, error)
	Update(ctx context.Context, params UpdatePromotionParams) (Promotion, error)
}
