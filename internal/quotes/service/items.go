package service

import (
	"context"

	"linkos_backend/internal/quotes/domain"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/internal/quotes/transport"
	"linkos_backend/platform/apperr"

	"github.com/google/uuid"
)

const msgQuoteNotDraft = "quote can only be changed while in draft"

// AddItem attaches a priced line to a draft quote. Totals are not recomputed.
func (s *Service) AddItem(ctx context.Context, quoteID uuid.UUID, req transport.AddItemRequest) (*transport.QuoteItemResponse, error) {
	item, err := s.buildItem(quoteID, req)
	if err != nil {
		return nil, err
	}

	if err := addItem(ctx, s.store, item); err != nil {
		return nil, err
	}

	resp := transport.ToQuoteItemResponse(item)
	return &resp, nil
}

// RemoveItem deletes a line from a draft quote. Totals are not recomputed.
func (s *Service) RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) error {
	return removeItem(ctx, s.store, quoteID, itemID)
}

// AddItemAndRecalculate adds a line and recomputes totals in one transaction.
func (s *Service) AddItemAndRecalculate(ctx context.Context, quoteID uuid.UUID, req transport.AddItemRequest) (*transport.QuoteDetailResponse, error) {
	item, err := s.buildItem(quoteID, req)
	if err != nil {
		return nil, err
	}

	var result *pricedQuote
	err = s.store.WithTx(ctx, func(tx ports.Store) error {
		if err := addItem(ctx, tx, item); err != nil {
			return err
		}
		var err error
		result, err = s.recalculate(ctx, tx, quoteID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result.response(s.now()), nil
}

// RemoveItemAndRecalculate removes a line and recomputes totals in one transaction.
func (s *Service) RemoveItemAndRecalculate(ctx context.Context, quoteID, itemID uuid.UUID) (*transport.QuoteDetailResponse, error) {
	var result *pricedQuote
	err := s.store.WithTx(ctx, func(tx ports.Store) error {
		if err := removeItem(ctx, tx, quoteID, itemID); err != nil {
			return err
		}
		var err error
		result, err = s.recalculate(ctx, tx, quoteID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result.response(s.now()), nil
}

// ApplyPromotion snapshots a promotion's discount onto a draft quote. The
// promotion is looked up by id or by code and must currently be applicable.
func (s *Service) ApplyPromotion(ctx context.Context, quoteID uuid.UUID, req transport.ApplyPromotionRequest) (*transport.QuotePromotionResponse, error) {
	promotionID := nilIfZeroUUID(req.PromotionID)
	code := nilIfEmpty(req.Code)
	if (promotionID == nil) == (code == nil) {
		return nil, apperr.Validation("exactly one of promotionId or code is required")
	}

	quote, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !quote.Status.IsEditable() {
		return nil, apperr.Conflict(msgQuoteNotDraft)
	}

	var promo *domain.Promotion
	if promotionID != nil {
		promo, err = s.promotions.GetPromotion(ctx, *promotionID)
	} else {
		promo, err = s.promotions.GetPromotionByCode(ctx, *code)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !promo.IsApplicable(now) {
		return nil, apperr.Conflict("promotion is not active")
	}

	qp := &domain.QuotePromotion{
		ID:             uuid.New(),
		QuoteID:        quoteID,
		PromotionID:    promo.ID,
		DiscountType:   promo.DiscountType,
		DiscountAmount: promo.DiscountAmount,
		CreatedAt:      now,
	}
	if err := s.store.InsertQuotePromotion(ctx, qp); err != nil {
		return nil, err
	}

	resp := transport.ToQuotePromotionResponse(qp)
	return &resp, nil
}

// RemovePromotion detaches an applied promotion from a draft quote.
func (s *Service) RemovePromotion(ctx context.Context, quoteID, quotePromotionID uuid.UUID) error {
	quote, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if !quote.Status.IsEditable() {
		return apperr.Conflict(msgQuoteNotDraft)
	}
	return s.store.DeleteQuotePromotion(ctx, quoteID, quotePromotionID)
}

func (s *Service) buildItem(quoteID uuid.UUID, req transport.AddItemRequest) (*domain.QuoteItem, error) {
	itemType := domain.ItemType(req.ItemType)
	inventoryID := nilIfZeroUUID(req.InventoryID)
	planID := nilIfZeroUUID(req.PlanID)

	switch itemType {
	case domain.ItemTypeInventory:
		if inventoryID == nil || planID != nil {
			return nil, apperr.Validation("inventory items require inventoryId and no planId")
		}
	case domain.ItemTypePlan:
		if planID == nil || inventoryID != nil {
			return nil, apperr.Validation("plan items require planId and no inventoryId")
		}
	default:
		return nil, apperr.Validationf("unknown item type %q", req.ItemType)
	}

	if req.Quantity < 1 || req.Quantity > domain.MaxQuantity {
		return nil, apperr.Validationf("quantity must be between 1 and %d", domain.MaxQuantity)
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unitPrice must not be negative")
	}

	unitPrice := req.UnitPrice.Round(domain.MoneyPlaces)
	subtotal := domain.LineSubtotal(req.Quantity, unitPrice)
	if subtotal.GreaterThan(domain.MaxMoney) {
		return nil, apperr.Validationf("line subtotal exceeds %s", domain.MaxMoney.StringFixed(domain.MoneyPlaces))
	}
	return &domain.QuoteItem{
		ID:          uuid.New(),
		QuoteID:     quoteID,
		ItemType:    itemType,
		InventoryID: inventoryID,
		PlanID:      planID,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
		Subtotal:    subtotal,
		CreatedAt:   s.now(),
	}, nil
}

func addItem(ctx context.Context, store ports.Store, item *domain.QuoteItem) error {
	quote, err := store.GetQuote(ctx, item.QuoteID)
	if err != nil {
		return err
	}
	if !quote.Status.IsEditable() {
		return apperr.Conflict(msgQuoteNotDraft)
	}
	return store.InsertItem(ctx, item)
}

func removeItem(ctx context.Context, store ports.Store, quoteID, itemID uuid.UUID) error {
	item, err := store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.QuoteID != quoteID {
		return apperr.NotFound("quote item not found")
	}

	quote, err := store.GetQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if !quote.Status.IsEditable() {
		return apperr.Conflict(msgQuoteNotDraft)
	}
	return store.DeleteItem(ctx, itemID)
}
