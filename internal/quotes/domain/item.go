package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType selects which catalogue entity a quote item references.
type ItemType string

const (
	ItemTypeInventory ItemType = "inventory"
	ItemTypePlan      ItemType = "plan"
)

// QuoteItem is a priced line owned by one quote. UnitPrice is a snapshot
// taken when the item was added.
type QuoteItem struct {
	ID          uuid.UUID
	QuoteID     uuid.UUID
	ItemType    ItemType
	InventoryID *uuid.UUID
	PlanID      *uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// LineSubtotal returns quantity * unitPrice.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// DiscountType is how a promotion reduces the subtotal.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeDollar  DiscountType = "dollar"
)

// IsValid reports whether d is a known discount type.
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercent || d == DiscountTypeDollar
}

// QuotePromotion links a quote to a promotion and snapshots its discount.
type QuotePromotion struct {
	ID             uuid.UUID
	QuoteID        uuid.UUID
	PromotionID    uuid.UUID
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time
}

// Promotion is the read view of a promotion as the quote core needs it.
type Promotion struct {
	ID             uuid.UUID
	Code           *string
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         bool
}

// IsApplicable reports whether the promotion is active and inside its
// validity window at now. Open bounds are unbounded.
func (p *Promotion) IsApplicable(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}
