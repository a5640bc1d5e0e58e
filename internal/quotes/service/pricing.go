package service

import (
	"context"
	"fmt"
	"time"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/internal/quotes/transport"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type pricedQuote struct {
	quote  *domain.Quote
	items  []domain.QuoteItem
	promos []domain.QuotePromotion
}

func (p *pricedQuote) response(now time.Time) *transport.QuoteDetailResponse {
	resp := transport.ToQuoteDetailResponse(p.quote, p.items, p.promos, now)
	return &resp
}

// Recalculate recomputes subtotal, discount, tax and total from the quote's
// current items and promotions and writes all four in a single update.
// Running it twice without intervening changes yields the same values.
func (s *Service) Recalculate(ctx context.Context, quoteID uuid.UUID) (*transport.QuoteDetailResponse, error) {
	result, err := s.recalculate(ctx, s.store, quoteID, true)
	if err != nil {
		return nil, err
	}
	return result.response(s.now()), nil
}

// RecalculateAsync hands the recompute to the background worker. Without a
// scheduler the recompute runs inline.
func (s *Service) RecalculateAsync(ctx context.Context, quoteID uuid.UUID) (*transport.RecalculationQueuedResponse, error) {
	if _, err := s.store.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}

	if s.scheduler == nil {
		if _, err := s.recalculate(ctx, s.store, quoteID, true); err != nil {
			return nil, err
		}
		return &transport.RecalculationQueuedResponse{QuoteID: quoteID, Status: transport.RecalculationCompleted}, nil
	}

	if err := s.scheduler.EnqueueQuoteRecalculation(ctx, quoteID); err != nil {
		return nil, fmt.Errorf("enqueue quote recalculation: %w", err)
	}
	return &transport.RecalculationQueuedResponse{QuoteID: quoteID, Status: transport.RecalculationQueued}, nil
}

// RecalculateQuote is the worker entry point for deferred recomputes. The
// quote row stays locked for the whole read and write, so a follow-up run
// that overlaps an earlier one for the same quote writes last.
func (s *Service) RecalculateQuote(ctx context.Context, quoteID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx ports.Store) error {
		if err := tx.LockQuote(ctx, quoteID); err != nil {
			return err
		}
		_, err := s.recalculate(ctx, tx, quoteID, false)
		return err
	})
}

func (s *Service) recalculate(ctx context.Context, store ports.Store, quoteID uuid.UUID, parallel bool) (*pricedQuote, error) {
	items, promos, err := loadPricingInputs(ctx, store, quoteID, parallel)
	if err != nil {
		return nil, err
	}

	totals, err := CalculateTotals(items, promos)
	if err != nil {
		return nil, fmt.Errorf("recalculate quote %s: %w", quoteID, err)
	}
	if totals.Subtotal.GreaterThan(domain.MaxMoney) || totals.Total.GreaterThan(domain.MaxMoney) {
		return nil, apperr.Validationf("quote total exceeds %s", domain.MaxMoney.StringFixed(domain.MoneyPlaces))
	}

	quote, err := store.UpdateTotals(ctx, quoteID, totals.Rounded(), s.now())
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Debug("quote_recalculated",
		"quote_id", quoteID.String(),
		"subtotal", quote.Subtotal.String(),
		"discount_total", quote.DiscountTotal.String(),
		"total", quote.Total.String(),
	)

	return &pricedQuote{quote: quote, items: items, promos: promos}, nil
}

// loadPricingInputs reads items and promotions. A transaction is bound to a
// single connection, so its reads must not overlap and parallel is false.
func loadPricingInputs(ctx context.Context, store ports.Store, quoteID uuid.UUID, parallel bool) ([]domain.QuoteItem, []domain.QuotePromotion, error) {
	if !parallel {
		items, err := store.ListItems(ctx, quoteID)
		if err != nil {
			return nil, nil, err
		}
		promos, err := store.ListQuotePromotions(ctx, quoteID)
		if err != nil {
			return nil, nil, err
		}
		return items, promos, nil
	}

	var (
		items  []domain.QuoteItem
		promos []domain.QuotePromotion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = store.ListItems(gctx, quoteID)
		return err
	})
	g.Go(func() error {
		var err error
		promos, err = store.ListQuotePromotions(gctx, quoteID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return items, promos, nil
}
