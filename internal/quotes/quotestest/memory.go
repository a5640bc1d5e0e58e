// Package quotestest provides in-memory implementations of the quotes ports
// for tests.
package quotestest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
)

type memState struct {
	counters map[int]int
	quotes   map[uuid.UUID]domain.Quote
	items    map[uuid.UUID]domain.QuoteItem
	promos   map[uuid.UUID]domain.QuotePromotion
}

func (s memState) clone() memState {
	c := memState{
		counters: make(map[int]int, len(s.counters)),
		quotes:   make(map[uuid.UUID]domain.Quote, len(s.quotes)),
		items:    make(map[uuid.UUID]domain.QuoteItem, len(s.items)),
		promos:   make(map[uuid.UUID]domain.QuotePromotion, len(s.promos)),
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.promos {
		c.promos[k] = v
	}
	return c
}

// Store is an in-memory ports.Store. WithTx snapshots the state and
// restores it when fn fails.
type Store struct {
	mu    sync.Mutex
	state memState
	seq   int

	failUpdateTotals  error
	failListPromos    error
	updateTotalsCalls int
	lockCalls         int
}

var _ ports.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: memState{}.clone()}
}

// FailUpdateTotals makes every UpdateTotals call return err. Nil clears it.
func (f *Store) FailUpdateTotals(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failUpdateTotals = err
}

// FailListQuotePromotions makes every ListQuotePromotions call return err.
func (f *Store) FailListQuotePromotions(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failListPromos = err
}

// UpdateTotalsCalls reports how often UpdateTotals was called.
func (f *Store) UpdateTotalsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateTotalsCalls
}

func (f *Store) NextQuoteNumber(_ context.Context, year int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.counters[year]++
	return fmt.Sprintf("Q-%d-%04d", year, f.state.counters[year]), nil
}

func (f *Store) CreateQuote(_ context.Context, q *domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.quotes {
		if existing.QuoteNumber == q.QuoteNumber {
			return apperr.Conflict("quote number already in use")
		}
	}
	f.state.quotes[q.ID] = *q
	return nil
}

func (f *Store) GetQuote(_ context.Context, id uuid.UUID) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.state.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	return &q, nil
}

func (f *Store) LockQuote(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.quotes[id]; !ok {
		return apperr.NotFound("quote not found")
	}
	f.lockCalls++
	return nil
}

// LockCalls reports how often LockQuote succeeded.
func (f *Store) LockCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockCalls
}

func (f *Store) UpdateQuoteFields(_ context.Context, id uuid.UUID, patch domain.QuotePatch, updatedAt time.Time) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.state.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	if patch.Notes != nil {
		q.Notes = patch.Notes
	}
	if patch.Terms != nil {
		q.Terms = patch.Terms
	}
	if patch.ExpiresAt != nil {
		q.ExpiresAt = *patch.ExpiresAt
	}
	q.UpdatedAt = updatedAt
	f.state.quotes[id] = q
	return &q, nil
}

func (f *Store) UpdateStatus(_ context.Context, id uuid.UUID, change domain.StatusChange, updatedAt time.Time) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.state.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	q.Status = change.Status
	if change.SentAt != nil {
		q.SentAt = change.SentAt
	}
	if change.AcceptedAt != nil {
		q.AcceptedAt = change.AcceptedAt
	}
	if change.AcceptedBy != nil {
		q.AcceptedBy = change.AcceptedBy
	}
	if change.DeclinedAt != nil {
		q.DeclinedAt = change.DeclinedAt
	}
	if change.DeclinedReason != nil {
		q.DeclinedReason = change.DeclinedReason
	}
	q.UpdatedAt = updatedAt
	f.state.quotes[id] = q
	return &q, nil
}

func (f *Store) UpdateTotals(_ context.Context, id uuid.UUID, totals domain.Totals, updatedAt time.Time) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTotalsCalls++
	if f.failUpdateTotals != nil {
		return nil, f.failUpdateTotals
	}
	q, ok := f.state.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	q.Subtotal = totals.Subtotal
	q.DiscountTotal = totals.DiscountTotal
	q.TaxTotal = totals.TaxTotal
	q.Total = totals.Total
	q.UpdatedAt = updatedAt
	f.state.quotes[id] = q
	return &q, nil
}

func (f *Store) DeleteQuote(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.quotes[id]; !ok {
		return apperr.NotFound("quote not found")
	}
	delete(f.state.quotes, id)
	for itemID, it := range f.state.items {
		if it.QuoteID == id {
			delete(f.state.items, itemID)
		}
	}
	for qpID, qp := range f.state.promos {
		if qp.QuoteID == id {
			delete(f.state.promos, qpID)
		}
	}
	return nil
}

func (f *Store) ListQuotes(_ context.Context, params domain.ListParams, now time.Time) (*domain.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Quote
	for _, q := range f.state.quotes {
		if params.Status != nil && q.EffectiveStatus(now) != *params.Status {
			continue
		}
		if params.CustomerID != nil && (q.CustomerID == nil || *q.CustomerID != *params.CustomerID) {
			continue
		}
		if params.LeadID != nil && (q.LeadID == nil || *q.LeadID != *params.LeadID) {
			continue
		}
		matched = append(matched, q)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].QuoteNumber < matched[j].QuoteNumber })

	total := len(matched)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return &domain.ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: (total + params.PageSize - 1) / params.PageSize,
	}, nil
}

func (f *Store) InsertItem(_ context.Context, it *domain.QuoteItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.quotes[it.QuoteID]; !ok {
		return apperr.NotFound("quote not found")
	}
	f.seq++
	stored := *it
	stored.CreatedAt = stored.CreatedAt.Add(time.Duration(f.seq))
	f.state.items[it.ID] = stored
	return nil
}

func (f *Store) GetItem(_ context.Context, id uuid.UUID) (*domain.QuoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.state.items[id]
	if !ok {
		return nil, apperr.NotFound("quote item not found")
	}
	return &it, nil
}

func (f *Store) DeleteItem(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.items[id]; !ok {
		return apperr.NotFound("quote item not found")
	}
	delete(f.state.items, id)
	return nil
}

func (f *Store) ListItems(_ context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.QuoteItem
	for _, it := range f.state.items {
		if it.QuoteID == quoteID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (f *Store) InsertQuotePromotion(_ context.Context, qp *domain.QuotePromotion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.promos {
		if existing.QuoteID == qp.QuoteID && existing.PromotionID == qp.PromotionID {
			return apperr.Conflict("promotion already applied to quote")
		}
	}
	f.state.promos[qp.ID] = *qp
	return nil
}

func (f *Store) ListQuotePromotions(_ context.Context, quoteID uuid.UUID) ([]domain.QuotePromotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failListPromos != nil {
		return nil, f.failListPromos
	}
	var promos []domain.QuotePromotion
	for _, qp := range f.state.promos {
		if qp.QuoteID == quoteID {
			promos = append(promos, qp)
		}
	}
	return promos, nil
}

func (f *Store) DeleteQuotePromotion(_ context.Context, quoteID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	qp, ok := f.state.promos[id]
	if !ok || qp.QuoteID != quoteID {
		return apperr.NotFound("quote promotion not found")
	}
	delete(f.state.promos, id)
	return nil
}

func (f *Store) WithTx(_ context.Context, fn func(tx ports.Store) error) error {
	f.mu.Lock()
	snapshot := f.state.clone()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.state = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

// PutQuote seeds a quote directly.
func (f *Store) PutQuote(q domain.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.quotes[q.ID] = q
}

// ItemCount reports how many items belong to quoteID.
func (f *Store) ItemCount(quoteID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, it := range f.state.items {
		if it.QuoteID == quoteID {
			n++
		}
	}
	return n
}

// Promotions is an in-memory ports.PromotionReader.
type Promotions struct {
	byID map[uuid.UUID]domain.Promotion
}

var _ ports.PromotionReader = (*Promotions)(nil)

// NewPromotions returns a reader serving promos.
func NewPromotions(promos ...domain.Promotion) *Promotions {
	f := &Promotions{byID: make(map[uuid.UUID]domain.Promotion)}
	for _, p := range promos {
		f.byID[p.ID] = p
	}
	return f
}

func (f *Promotions) GetPromotion(_ context.Context, id uuid.UUID) (*domain.Promotion, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("promotion not found")
	}
	return &p, nil
}

func (f *Promotions) GetPromotionByCode(_ context.Context, code string) (*domain.Promotion, error) {
	for _, p := range f.byID {
		if p.Code != nil && *p.Code == code {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("promotion not found")
}

// Scheduler records enqueued recalculations.
type Scheduler struct {
	mu     sync.Mutex
	queued []uuid.UUID
}

var _ ports.RecalculationScheduler = (*Scheduler)(nil)

func (f *Scheduler) EnqueueQuoteRecalculation(_ context.Context, quoteID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, quoteID)
	return nil
}

// Queued returns the quote ids enqueued so far.
func (f *Scheduler) Queued() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.queued...)
}
