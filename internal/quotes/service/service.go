package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/internal/quotes/transport"
	"linkos_backend/platform/apperr"
	"linkos_backend/platform/logger"
	"linkos_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultValidity is how long a new quote stays valid when the caller does
// not choose an expiry.
const DefaultValidity = 30 * 24 * time.Hour

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// Service provides business logic for quotes
type Service struct {
	store      ports.Store
	promotions ports.PromotionReader
	scheduler  ports.RecalculationScheduler // optional, nil runs recalculation inline
	log        *logger.Logger
	validity   time.Duration
	now        func() time.Time
}

// New creates a new quotes service
func New(store ports.Store, promotions ports.PromotionReader, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		promotions: promotions,
		log:        log,
		validity:   DefaultValidity,
		now:        time.Now,
	}
}

// SetValidity overrides the default quote validity window.
func (s *Service) SetValidity(d time.Duration) {
	if d > 0 {
		s.validity = d
	}
}

// SetScheduler injects the background recalculation scheduler.
func (s *Service) SetScheduler(scheduler ports.RecalculationScheduler) {
	s.scheduler = scheduler
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create creates a new draft quote with zero totals
func (s *Service) Create(ctx context.Context, req transport.CreateQuoteRequest) (*transport.QuoteResponse, error) {
	customerID, leadID, err := normalizeSubject(req.CustomerID, req.LeadID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.validity)
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, apperr.Validation("expiresAt must be in the future")
		}
		expiresAt = *req.ExpiresAt
	}

	// Generate the quote number atomically
	quoteNumber, err := s.store.NextQuoteNumber(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("generate quote number: %w", err)
	}

	quote := &domain.Quote{
		ID:            uuid.New(),
		QuoteNumber:   quoteNumber,
		CustomerID:    customerID,
		LeadID:        leadID,
		Status:        domain.StatusDraft,
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		Total:         decimal.Zero,
		Notes:         sanitize.OptionalText(req.Notes),
		Terms:         sanitize.OptionalText(req.Terms),
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("quote_created",
		"quote_id", quote.ID.String(),
		"quote_number", quote.QuoteNumber,
	)

	resp := transport.ToQuoteResponse(quote, now)
	return &resp, nil
}

// Update patches notes, terms and expiry. Totals and status are never touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateQuoteRequest) (*transport.QuoteResponse, error) {
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, apperr.Validation("expiresAt must be in the future")
	}

	patch := domain.QuotePatch{
		Notes:     sanitize.TextPtr(req.Notes),
		Terms:     sanitize.TextPtr(req.Terms),
		ExpiresAt: req.ExpiresAt,
	}

	var (
		quote *domain.Quote
		err   error
	)
	if patch.IsEmpty() {
		quote, err = s.store.GetQuote(ctx, id)
	} else {
		quote, err = s.store.UpdateQuoteFields(ctx, id, patch, now)
	}
	if err != nil {
		return nil, err
	}

	resp := transport.ToQuoteResponse(quote, now)
	return &resp, nil
}

// GetByID returns a quote with its items and applied promotions
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.QuoteDetailResponse, error) {
	var (
		quote  *domain.Quote
		items  []domain.QuoteItem
		promos []domain.QuotePromotion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = s.store.GetQuote(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.store.ListItems(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		promos, err = s.store.ListQuotePromotions(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := transport.ToQuoteDetailResponse(quote, items, promos, s.now())
	return &resp, nil
}

// List retrieves quotes with filtering and pagination
func (s *Service) List(ctx context.Context, req transport.ListQuotesRequest) (*transport.QuoteListResponse, error) {
	params := domain.ListParams{
		Search:    strings.TrimSpace(req.Search),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if params.Page < 1 {
		params.Page = defaultPage
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}

	if req.Status != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, apperr.Validationf("unknown status %q", req.Status)
		}
		params.Status = &status
	}

	var err error
	if params.CustomerID, err = parseOptionalUUID(req.CustomerID, "customerId"); err != nil {
		return nil, err
	}
	if params.LeadID, err = parseOptionalUUID(req.LeadID, "leadId"); err != nil {
		return nil, err
	}

	now := s.now()
	result, err := s.store.ListQuotes(ctx, params, now)
	if err != nil {
		return nil, err
	}

	items := make([]transport.QuoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, transport.ToQuoteResponse(&result.Items[i], now))
	}

	return &transport.QuoteListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Delete removes a quote together with its items and applied promotions
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteQuote(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("quote_deleted", "quote_id", id.String())
	return nil
}

// normalizeSubject enforces that a quote addresses exactly one customer or lead.
func normalizeSubject(customerID, leadID *uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	customerID = nilIfZeroUUID(customerID)
	leadID = nilIfZeroUUID(leadID)

	switch {
	case customerID != nil && leadID != nil:
		return nil, nil, apperr.Validation("a quote is for either a customer or a lead, not both")
	case customerID == nil && leadID == nil:
		return nil, nil, apperr.Validation("customerId or leadId is required")
	}
	return customerID, leadID, nil
}

func parseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validationf("invalid %s", field)
	}
	return &id, nil
}

func nilIfZeroUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

func nilIfEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
