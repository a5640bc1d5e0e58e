package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/quotestest"
	"linkos_backend/internal/quotes/transport"
	"linkos_backend/platform/apperr"
	"linkos_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, promos ...domain.Promotion) (*Service, *quotestest.Store) {
	t.Helper()
	store := quotestest.NewStore()
	svc := New(store, quotestest.NewPromotions(promos...), logger.Discard())
	svc.SetClock(func() time.Time { return testNow })
	return svc, store
}

func createDraft(t *testing.T, svc *Service) *transport.QuoteResponse {
	t.Helper()
	customerID := uuid.New()
	resp, err := svc.Create(context.Background(), transport.CreateQuoteRequest{CustomerID: &customerID})
	require.NoError(t, err)
	return resp
}

func addLine(t *testing.T, svc *Service, quoteID uuid.UUID, qty int, price string) *transport.QuoteItemResponse {
	t.Helper()
	planID := uuid.New()
	resp, err := svc.AddItem(context.Background(), quoteID, transport.AddItemRequest{
		ItemType:  string(domain.ItemTypePlan),
		PlanID:    &planID,
		Quantity:  qty,
		UnitPrice: money(price),
	})
	require.NoError(t, err)
	return resp
}

func activePromotion(discountType domain.DiscountType, amount string, code string) domain.Promotion {
	p := domain.Promotion{
		ID:             uuid.New(),
		DiscountType:   discountType,
		DiscountAmount: money(amount),
		Active:         true,
	}
	if code != "" {
		p.Code = &code
	}
	return p
}

func TestCreate_SubjectExclusivity(t *testing.T) {
	svc, _ := newTestService(t)
	customerID := uuid.New()
	leadID := uuid.New()
	zero := uuid.Nil

	tests := []struct {
		name    string
		req     transport.CreateQuoteRequest
		wantErr bool
	}{
		{name: "customer only", req: transport.CreateQuoteRequest{CustomerID: &customerID}},
		{name: "lead only", req: transport.CreateQuoteRequest{LeadID: &leadID}},
		{name: "both", req: transport.CreateQuoteRequest{CustomerID: &customerID, LeadID: &leadID}, wantErr: true},
		{name: "neither", req: transport.CreateQuoteRequest{}, wantErr: true},
		{name: "nil uuid counts as absent", req: transport.CreateQuoteRequest{CustomerID: &zero}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.True(t, (resp.CustomerID == nil) != (resp.LeadID == nil))
		})
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	resp := createDraft(t, svc)

	assert.Equal(t, "Q-2026-0001", resp.QuoteNumber)
	assert.Equal(t, string(domain.StatusDraft), resp.Status)
	assert.Equal(t, testNow.Add(DefaultValidity), resp.ExpiresAt)
	assert.True(t, resp.Subtotal.IsZero())
	assert.True(t, resp.DiscountTotal.IsZero())
	assert.True(t, resp.TaxTotal.IsZero())
	assert.True(t, resp.Total.IsZero())
	assert.Nil(t, resp.SentAt)
}

func TestCreate_RejectsPastExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	customerID := uuid.New()
	past := testNow.Add(-time.Minute)

	_, err := svc.Create(context.Background(), transport.CreateQuoteRequest{CustomerID: &customerID, ExpiresAt: &past})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(context.Background(), transport.CreateQuoteRequest{CustomerID: &customerID, ExpiresAt: &testNow})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "expiry equal to now is not in the future")
}

func TestCreate_ConcurrentNumbersAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	const n = 50

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, n)
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			leadID := uuid.New()
			resp, err := svc.Create(context.Background(), transport.CreateQuoteRequest{LeadID: &leadID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[resp.QuoteNumber] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, n)
}

func TestUpdate_PatchesHeaderOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "10.00")
	_, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)

	notes := "call back next week"
	later := testNow.Add(72 * time.Hour)
	resp, err := svc.Update(ctx, quote.ID, transport.UpdateQuoteRequest{Notes: &notes, ExpiresAt: &later})
	require.NoError(t, err)

	require.NotNil(t, resp.Notes)
	assert.Equal(t, notes, *resp.Notes)
	assert.Equal(t, later, resp.ExpiresAt)
	assertMoney(t, "total", "10.00", resp.Total)
	assert.Equal(t, string(domain.StatusDraft), resp.Status)

	past := testNow.Add(-time.Hour)
	_, err = svc.Update(ctx, quote.ID, transport.UpdateQuoteRequest{ExpiresAt: &past})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecalculate_SubtotalAndRemoval(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)

	twenty := addLine(t, svc, quote.ID, 2, "10.00")
	addLine(t, svc, quote.ID, 1, "25.50")

	resp, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)
	assertMoney(t, "subtotal", "45.50", resp.Subtotal)
	assert.Len(t, resp.Items, 2)

	require.NoError(t, svc.RemoveItem(ctx, quote.ID, twenty.ID))

	// removal alone does not recompute
	got, err := svc.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assertMoney(t, "subtotal", "45.50", got.Subtotal)

	resp, err = svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)
	assertMoney(t, "subtotal", "25.50", resp.Subtotal)
	assertMoney(t, "total", "25.50", resp.Total)
}

func TestRecalculate_DiscountAdditivity(t *testing.T) {
	percent := activePromotion(domain.DiscountTypePercent, "10", "")
	dollar := activePromotion(domain.DiscountTypeDollar, "5", "FIVEOFF")
	svc, _ := newTestService(t, percent, dollar)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "100.00")

	_, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &percent.ID})
	require.NoError(t, err)
	code := "FIVEOFF"
	applied, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, dollar.ID, applied.PromotionID)
	assert.Equal(t, string(domain.DiscountTypeDollar), applied.DiscountType)

	resp, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)

	assertMoney(t, "subtotal", "100.00", resp.Subtotal)
	assertMoney(t, "discount", "15.00", resp.DiscountTotal)
	assertMoney(t, "tax", "0", resp.TaxTotal)
	assertMoney(t, "total", "85.00", resp.Total)
	assert.Len(t, resp.Promotions, 2)
}

func TestRecalculate_Idempotent(t *testing.T) {
	percent := activePromotion(domain.DiscountTypePercent, "12.5", "")
	svc, _ := newTestService(t, percent)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 3, "19.99")
	_, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &percent.ID})
	require.NoError(t, err)

	first, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)
	second, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DiscountTotal.Equal(second.DiscountTotal))
	assert.True(t, first.TaxTotal.Equal(second.TaxTotal))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestRecalculate_NegativeTotalIsKept(t *testing.T) {
	dollar := activePromotion(domain.DiscountTypeDollar, "50.00", "")
	svc, _ := newTestService(t, dollar)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "20.00")
	_, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &dollar.ID})
	require.NoError(t, err)

	resp, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)
	assertMoney(t, "total", "-30.00", resp.Total)
}

func TestRecalculate_StoreFailureWritesNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "10.00")

	store.FailListQuotePromotions(errors.New("connection reset"))
	_, err := svc.Recalculate(ctx, quote.ID)
	require.Error(t, err)
	assert.Equal(t, 0, store.UpdateTotalsCalls())

	store.FailListQuotePromotions(nil)
	got, err := svc.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.IsZero())
}

func TestRecalculate_MalformedPromotionFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "10.00")

	require.NoError(t, store.InsertQuotePromotion(ctx, &domain.QuotePromotion{
		ID:             uuid.New(),
		QuoteID:        quote.ID,
		PromotionID:    uuid.New(),
		DiscountType:   "mystery",
		DiscountAmount: decimal.NewFromInt(5),
	}))

	_, err := svc.Recalculate(ctx, quote.ID)
	require.ErrorIs(t, err, ErrMalformedPromotion)
	assert.Equal(t, 0, store.UpdateTotalsCalls())
}

func TestAddItemAndRecalculate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	inventoryID := uuid.New()

	resp, err := svc.AddItemAndRecalculate(ctx, quote.ID, transport.AddItemRequest{
		ItemType:    string(domain.ItemTypeInventory),
		InventoryID: &inventoryID,
		Quantity:    4,
		UnitPrice:   money("2.25"),
	})
	require.NoError(t, err)

	assertMoney(t, "subtotal", "9.00", resp.Subtotal)
	assertMoney(t, "total", "9.00", resp.Total)
	require.Len(t, resp.Items, 1)
	assertMoney(t, "item subtotal", "9.00", resp.Items[0].Subtotal)

	removed, err := svc.RemoveItemAndRecalculate(ctx, quote.ID, resp.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Items)
	assert.True(t, removed.Total.IsZero())
}

func TestAddItemAndRecalculate_RollsBackOnFailure(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	planID := uuid.New()

	store.FailUpdateTotals(errors.New("write timeout"))
	_, err := svc.AddItemAndRecalculate(ctx, quote.ID, transport.AddItemRequest{
		ItemType:  string(domain.ItemTypePlan),
		PlanID:    &planID,
		Quantity:  1,
		UnitPrice: money("10.00"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, store.ItemCount(quote.ID))
}

func TestAddItemAndRecalculate_QuoteTotalOutOfRange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "600000000000.00")
	planID := uuid.New()

	_, err := svc.AddItemAndRecalculate(ctx, quote.ID, transport.AddItemRequest{
		ItemType:  string(domain.ItemTypePlan),
		PlanID:    &planID,
		Quantity:  1,
		UnitPrice: money("600000000000.00"),
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 1, store.ItemCount(quote.ID))
	assert.Equal(t, 0, store.UpdateTotalsCalls())
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	quote := createDraft(t, svc)
	inventoryID := uuid.New()
	planID := uuid.New()

	tests := []struct {
		name string
		req  transport.AddItemRequest
	}{
		{"unknown type", transport.AddItemRequest{ItemType: "bundle", PlanID: &planID, Quantity: 1}},
		{"plan without plan id", transport.AddItemRequest{ItemType: "plan", Quantity: 1}},
		{"plan with inventory id", transport.AddItemRequest{ItemType: "plan", PlanID: &planID, InventoryID: &inventoryID, Quantity: 1}},
		{"inventory without inventory id", transport.AddItemRequest{ItemType: "inventory", PlanID: &planID, Quantity: 1}},
		{"zero quantity", transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: 0}},
		{"negative price", transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: 1, UnitPrice: money("-0.01")}},
		{"quantity over cap", transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: domain.MaxQuantity + 1, UnitPrice: money("1.00")}},
		{"line subtotal out of range", transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: 1000, UnitPrice: money("1000000000.00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(context.Background(), quote.ID, tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}

	_, err := svc.AddItem(context.Background(), uuid.New(), transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMutations_RequireDraft(t *testing.T) {
	promo := activePromotion(domain.DiscountTypeDollar, "5", "")
	svc, _ := newTestService(t, promo)
	ctx := context.Background()
	quote := createDraft(t, svc)
	line := addLine(t, svc, quote.ID, 1, "10.00")
	applied, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &promo.ID})
	require.NoError(t, err)

	_, err = svc.Send(ctx, quote.ID)
	require.NoError(t, err)

	planID := uuid.New()
	_, err = svc.AddItem(ctx, quote.ID, transport.AddItemRequest{ItemType: "plan", PlanID: &planID, Quantity: 1})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "add item")

	err = svc.RemoveItem(ctx, quote.ID, line.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "remove item")

	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &promo.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "apply promotion")

	err = svc.RemovePromotion(ctx, quote.ID, applied.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "remove promotion")
}

func TestRemoveItem_ScopedToQuote(t *testing.T) {
	svc, _ := newTestService(t)
	first := createDraft(t, svc)
	second := createDraft(t, svc)
	line := addLine(t, svc, first.ID, 1, "10.00")

	err := svc.RemoveItem(context.Background(), second.ID, line.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.RemoveItem(context.Background(), first.ID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApplyPromotion_Rules(t *testing.T) {
	inactive := activePromotion(domain.DiscountTypeDollar, "5", "")
	inactive.Active = false
	ended := activePromotion(domain.DiscountTypeDollar, "5", "")
	yesterday := testNow.Add(-24 * time.Hour)
	ended.ValidUntil = &yesterday
	valid := activePromotion(domain.DiscountTypePercent, "10", "")

	svc, _ := newTestService(t, inactive, ended, valid)
	ctx := context.Background()
	quote := createDraft(t, svc)

	_, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &inactive.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "inactive")

	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &ended.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "ended")

	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "neither id nor code")

	unknown := uuid.New()
	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &unknown})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "unknown promotion")

	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &valid.ID})
	require.NoError(t, err)
	_, err = svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &valid.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "applied twice")
}

func TestStatusFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)

	sent, err := svc.Send(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusSent), sent.Status)
	require.NotNil(t, sent.SentAt)
	firstSentAt := *sent.SentAt

	svc.SetClock(func() time.Time { return testNow.Add(time.Hour) })
	resent, err := svc.Send(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, firstSentAt, *resent.SentAt, "re-sending keeps the original sent_at")

	accepted, err := svc.Accept(ctx, quote.ID, "user-42")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAccepted), accepted.Status)
	require.NotNil(t, accepted.AcceptedBy)
	assert.Equal(t, "user-42", *accepted.AcceptedBy)
	require.NotNil(t, accepted.AcceptedAt)

	converted, err := svc.Convert(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConverted), converted.Status)

	_, err = svc.Send(ctx, quote.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestTransitionGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	draft := createDraft(t, svc)
	_, err := svc.Accept(ctx, draft.ID, "user-1")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "accept draft")
	_, err = svc.Decline(ctx, draft.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "decline draft")
	_, err = svc.Convert(ctx, draft.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "convert draft")

	_, err = svc.Accept(ctx, draft.ID, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "missing actor")

	_, err = svc.Send(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "unknown quote")
}

func TestAccept_DeclinedQuoteRequiresOverride(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	_, err := svc.Send(ctx, quote.ID)
	require.NoError(t, err)

	reason := "  too expensive "
	declined, err := svc.Decline(ctx, quote.ID, &reason)
	require.NoError(t, err)
	require.NotNil(t, declined.DeclinedReason)
	assert.Equal(t, "too expensive", *declined.DeclinedReason)
	assert.NotNil(t, declined.DeclinedAt)

	_, err = svc.Accept(ctx, quote.ID, "user-7")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	overridden, err := svc.OverrideStatus(ctx, quote.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAccepted), overridden.Status)
	assert.Nil(t, overridden.AcceptedAt, "override leaves lifecycle timestamps alone")
}

func TestAccept_ExpiredQuoteIsGone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	_, err := svc.Send(ctx, quote.ID)
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return testNow.Add(DefaultValidity + time.Minute) })

	_, err = svc.Accept(ctx, quote.ID, "user-1")
	assert.True(t, apperr.Is(err, apperr.KindGone))

	got, err := svc.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusSent), got.Status)
	assert.Equal(t, string(domain.StatusExpired), got.EffectiveStatus)
	assert.True(t, got.IsExpired)

	expired := string(domain.StatusExpired)
	list, err := svc.List(ctx, transport.ListQuotesRequest{Status: expired})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, quote.ID, list.Items[0].ID)
}

func TestOverrideStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 2, "7.50")
	_, err := svc.Recalculate(ctx, quote.ID)
	require.NoError(t, err)

	resp, err := svc.OverrideStatus(ctx, quote.ID, "expired")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusExpired), resp.Status)
	assertMoney(t, "total", "15.00", resp.Total)

	_, err = svc.OverrideStatus(ctx, quote.ID, "archived")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecalculateAsync(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "3.00")

	inline, err := svc.RecalculateAsync(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, transport.RecalculationCompleted, inline.Status)

	sched := &quotestest.Scheduler{}
	svc.SetScheduler(sched)
	queued, err := svc.RecalculateAsync(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, transport.RecalculationQueued, queued.Status)
	assert.Equal(t, []uuid.UUID{quote.ID}, sched.Queued())

	_, err = svc.RecalculateAsync(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecalculateQuote_LocksQuoteRow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 2, "7.25")

	require.NoError(t, svc.RecalculateQuote(ctx, quote.ID))
	assert.Equal(t, 1, store.LockCalls())

	got, err := svc.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assertMoney(t, "total", "14.50", got.Total)

	err = svc.RecalculateQuote(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 1, store.UpdateTotalsCalls())
}

func TestDelete_CascadesToChildren(t *testing.T) {
	promo := activePromotion(domain.DiscountTypeDollar, "1", "")
	svc, store := newTestService(t, promo)
	ctx := context.Background()
	quote := createDraft(t, svc)
	addLine(t, svc, quote.ID, 1, "10.00")
	_, err := svc.ApplyPromotion(ctx, quote.ID, transport.ApplyPromotionRequest{PromotionID: &promo.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, quote.ID))
	assert.Equal(t, 0, store.ItemCount(quote.ID))

	_, err = svc.GetByID(ctx, quote.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.Delete(ctx, quote.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestList_FiltersAndPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	customerID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, transport.CreateQuoteRequest{CustomerID: &customerID})
		require.NoError(t, err)
	}
	createDraft(t, svc)

	page, err := svc.List(ctx, transport.ListQuotesRequest{CustomerID: customerID.String(), PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	all, err := svc.List(ctx, transport.ListQuotesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
	assert.Equal(t, defaultPageSize, all.PageSize)

	_, err = svc.List(ctx, transport.ListQuotesRequest{LeadID: "not-a-uuid"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
