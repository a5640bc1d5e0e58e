package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits stored for amounts.
const MoneyPlaces = 2

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 1_000_000

// MaxMoney is the largest amount the NUMERIC(14,2) money columns hold.
var MaxMoney = decimal.RequireFromString("999999999999.99")

// Quote is a priced offer addressed to exactly one customer or lead.
type Quote struct {
	ID             uuid.UUID
	QuoteNumber    string
	CustomerID     *uuid.UUID
	LeadID         *uuid.UUID
	Status         Status
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	Total          decimal.Decimal
	Notes          *string
	Terms          *string
	ExpiresAt      time.Time
	SentAt         *time.Time
	AcceptedAt     *time.Time
	AcceptedBy     *string
	DeclinedAt     *time.Time
	DeclinedReason *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpired reports the read-time expiry: a sent quote whose expires_at has
// passed. The stored status is not changed by this check.
func (q *Quote) IsExpired(now time.Time) bool {
	return q.Status == StatusSent && !now.Before(q.ExpiresAt)
}

// EffectiveStatus is the status to display at time now.
func (q *Quote) EffectiveStatus(now time.Time) Status {
	if q.IsExpired(now) {
		return StatusExpired
	}
	return q.Status
}

// Totals holds the four monetary fields written by the pricing engine.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
}

// Rounded returns the totals rounded to MoneyPlaces. Total is derived from
// the rounded components so the stored fields always add up.
func (t Totals) Rounded() Totals {
	subtotal := t.Subtotal.Round(MoneyPlaces)
	discount := t.DiscountTotal.Round(MoneyPlaces)
	tax := t.TaxTotal.Round(MoneyPlaces)
	return Totals{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		TaxTotal:      tax,
		Total:         subtotal.Sub(discount).Add(tax),
	}
}

// QuotePatch carries the header fields a generic update may change.
// Nil fields are left untouched.
type QuotePatch struct {
	Notes     *string
	Terms     *string
	ExpiresAt *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p QuotePatch) IsEmpty() bool {
	return p.Notes == nil && p.Terms == nil && p.ExpiresAt == nil
}

// StatusChange is a status write together with the timestamps the matching
// transition sets. Nil timestamps are left untouched.
type StatusChange struct {
	Status         Status
	SentAt         *time.Time
	AcceptedAt     *time.Time
	AcceptedBy     *string
	DeclinedAt     *time.Time
	DeclinedReason *string
}

// ListParams contains parameters for listing quotes
type ListParams struct {
	Status     *Status
	CustomerID *uuid.UUID
	LeadID     *uuid.UUID
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// ListResult contains the paginated result of listing quotes
type ListResult struct {
	Items      []Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
