// Package ports defines the interfaces the quotes domain requires from
// persistence and from neighbouring modules. The service depends only on
// these, which keeps it testable with in-memory fakes.
package ports

import (
	"context"
	"time"

	"linkos_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

// Store is the record store behind quotes, their items and applied
// promotions. Single calls are atomic; WithTx groups several calls.
type Store interface {
	// NextQuoteNumber returns a quote number unique across all quotes.
	NextQuoteNumber(ctx context.Context, year int) (string, error)

	CreateQuote(ctx context.Context, quote *domain.Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error)
	// LockQuote holds the quote row until the surrounding transaction ends.
	LockQuote(ctx context.Context, id uuid.UUID) error
	UpdateQuoteFields(ctx context.Context, id uuid.UUID, patch domain.QuotePatch, updatedAt time.Time) (*domain.Quote, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, change domain.StatusChange, updatedAt time.Time) (*domain.Quote, error)
	// UpdateTotals writes all four monetary fields in a single statement.
	UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.Totals, updatedAt time.Time) (*domain.Quote, error)
	DeleteQuote(ctx context.Context, id uuid.UUID) error
	ListQuotes(ctx context.Context, params domain.ListParams, now time.Time) (*domain.ListResult, error)

	InsertItem(ctx context.Context, item *domain.QuoteItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.QuoteItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error)

	InsertQuotePromotion(ctx context.Context, qp *domain.QuotePromotion) error
	ListQuotePromotions(ctx context.Context, quoteID uuid.UUID) ([]domain.QuotePromotion, error)
	DeleteQuotePromotion(ctx context.Context, quoteID, id uuid.UUID) error

	// WithTx runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
