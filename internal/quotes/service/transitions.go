package service

import (
	"context"
	"fmt"
	"strings"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/transport"
	"linkos_backend/platform/apperr"
	"linkos_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Send moves a draft quote to sent. Sending a quote that is already sent is a
// no-op and keeps the original sent_at.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (*transport.QuoteResponse, error) {
	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if quote.Status == domain.StatusSent {
		resp := transport.ToQuoteResponse(quote, now)
		return &resp, nil
	}

	return s.transition(ctx, quote, domain.StatusChange{
		Status: domain.StatusSent,
		SentAt: &now,
	})
}

// Accept records the acting user's acceptance of a sent quote. A sent quote
// past its expiry can no longer be accepted.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actorID string) (*transport.QuoteResponse, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, apperr.Validation("acting user id is required")
	}

	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if quote.IsExpired(now) {
		return nil, apperr.Gone(fmt.Sprintf("quote %s expired at %s", quote.QuoteNumber, quote.ExpiresAt.Format("2006-01-02 15:04")))
	}

	return s.transition(ctx, quote, domain.StatusChange{
		Status:     domain.StatusAccepted,
		AcceptedAt: &now,
		AcceptedBy: &actorID,
	})
}

// Decline marks a sent quote as declined with an optional reason.
func (s *Service) Decline(ctx context.Context, id uuid.UUID, reason *string) (*transport.QuoteResponse, error) {
	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return s.transition(ctx, quote, domain.StatusChange{
		Status:         domain.StatusDeclined,
		DeclinedAt:     &now,
		DeclinedReason: sanitize.OptionalText(reason),
	})
}

// Convert marks an accepted quote as converted.
func (s *Service) Convert(ctx context.Context, id uuid.UUID) (*transport.QuoteResponse, error) {
	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, quote, domain.StatusChange{Status: domain.StatusConverted})
}

// OverrideStatus force-sets a status without transition guards. Totals and
// lifecycle timestamps are left as they are.
func (s *Service) OverrideStatus(ctx context.Context, id uuid.UUID, rawStatus string) (*transport.QuoteResponse, error) {
	status, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return nil, apperr.Validationf("unknown status %q", rawStatus)
	}

	quote, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.store.UpdateStatus(ctx, id, domain.StatusChange{Status: status}, now)
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).QuoteTransition(id.String(), quote.QuoteNumber, quote.Status.String(), status.String(), true)

	resp := transport.ToQuoteResponse(updated, now)
	return &resp, nil
}

func (s *Service) transition(ctx context.Context, quote *domain.Quote, change domain.StatusChange) (*transport.QuoteResponse, error) {
	if !quote.Status.CanTransitionTo(change.Status) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move quote from %s to %s", quote.Status, change.Status))
	}

	now := s.now()
	updated, err := s.store.UpdateStatus(ctx, quote.ID, change, now)
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).QuoteTransition(quote.ID.String(), quote.QuoteNumber, quote.Status.String(), change.Status.String(), false)

	resp := transport.ToQuoteResponse(updated, now)
	return &resp, nil
}
