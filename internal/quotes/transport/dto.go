package transport

import (
	"time"

	"linkos_backend/internal/quotes/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateQuoteRequest is the payload for creating a draft quote.
// Exactly one of CustomerID and LeadID must be set.
type CreateQuoteRequest struct {
	CustomerID *uuid.UUID `json:"customerId" validate:"required_without=LeadID,excluded_with=LeadID"`
	LeadID     *uuid.UUID `json:"leadId" validate:"required_without=CustomerID,excluded_with=CustomerID"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	Notes      *string    `json:"notes" validate:"omitempty,max=5000"`
	Terms      *string    `json:"terms" validate:"omitempty,max=10000"`
}

// UpdateQuoteRequest patches quote header fields. Absent fields are unchanged.
type UpdateQuoteRequest struct {
	Notes     *string    `json:"notes" validate:"omitempty,max=5000"`
	Terms     *string    `json:"terms" validate:"omitempty,max=10000"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// DeclineQuoteRequest carries the optional decline reason.
type DeclineQuoteRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=2000"`
}

// OverrideStatusRequest is the administrative status override payload.
type OverrideStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent accepted declined expired converted"`
}

// AddItemRequest adds a priced line to a draft quote.
type AddItemRequest struct {
	ItemType    string          `json:"itemType" validate:"required,oneof=inventory plan"`
	InventoryID *uuid.UUID      `json:"inventoryId"`
	PlanID      *uuid.UUID      `json:"planId"`
	Quantity    int             `json:"quantity" validate:"required,min=1,max=1000000"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"money"`
}

// ApplyPromotionRequest attaches a promotion by id or by promotion code.
type ApplyPromotionRequest struct {
	PromotionID *uuid.UUID `json:"promotionId" validate:"required_without=Code,excluded_with=Code"`
	Code        *string    `json:"code" validate:"omitempty,min=1,max=100"`
}

// ListQuotesRequest contains the query parameters for listing quotes.
type ListQuotesRequest struct {
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	LeadID     string `form:"leadId" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,oneof=draft sent accepted declined expired converted"`
	Search     string `form:"search" validate:"omitempty,max=100"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=quoteNumber status total createdAt expiresAt"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteResponse is the read model of a quote header. Status is the stored
// status; EffectiveStatus reports "expired" for sent quotes past ExpiresAt.
type QuoteResponse struct {
	ID              uuid.UUID       `json:"id"`
	QuoteNumber     string          `json:"quoteNumber"`
	CustomerID      *uuid.UUID      `json:"customerId,omitempty"`
	LeadID          *uuid.UUID      `json:"leadId,omitempty"`
	Status          string          `json:"status"`
	EffectiveStatus string          `json:"effectiveStatus"`
	IsExpired       bool            `json:"isExpired"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discountTotal"`
	TaxTotal        decimal.Decimal `json:"taxTotal"`
	Total           decimal.Decimal `json:"total"`
	Notes           *string         `json:"notes,omitempty"`
	Terms           *string         `json:"terms,omitempty"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	SentAt          *time.Time      `json:"sentAt,omitempty"`
	AcceptedAt      *time.Time      `json:"acceptedAt,omitempty"`
	AcceptedBy      *string         `json:"acceptedBy,omitempty"`
	DeclinedAt      *time.Time      `json:"declinedAt,omitempty"`
	DeclinedReason  *string         `json:"declinedReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// QuoteItemResponse is the read model of a quote line.
type QuoteItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	QuoteID     uuid.UUID       `json:"quoteId"`
	ItemType    string          `json:"itemType"`
	InventoryID *uuid.UUID      `json:"inventoryId,omitempty"`
	PlanID      *uuid.UUID      `json:"planId,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// QuotePromotionResponse is the read model of an applied promotion.
type QuotePromotionResponse struct {
	ID             uuid.UUID       `json:"id"`
	QuoteID        uuid.UUID       `json:"quoteId"`
	PromotionID    uuid.UUID       `json:"promotionId"`
	DiscountType   string          `json:"discountType"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// QuoteDetailResponse is a quote with its items and applied promotions.
type QuoteDetailResponse struct {
	QuoteResponse
	Items      []QuoteItemResponse      `json:"items"`
	Promotions []QuotePromotionResponse `json:"promotions"`
}

// QuoteListResponse is a page of quotes.
type QuoteListResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// Recalculation outcomes reported by the async endpoint.
const (
	RecalculationQueued    = "queued"
	RecalculationCompleted = "completed"
)

// RecalculationQueuedResponse acknowledges a deferred recompute.
type RecalculationQueuedResponse struct {
	QuoteID uuid.UUID `json:"quoteId"`
	Status  string    `json:"status"`
}

// ── Mapping ───────────────────────────────────────────────────────────────────

// ToQuoteResponse maps a quote to its read model as seen at now.
func ToQuoteResponse(q *domain.Quote, now time.Time) QuoteResponse {
	return QuoteResponse{
		ID:              q.ID,
		QuoteNumber:     q.QuoteNumber,
		CustomerID:      q.CustomerID,
		LeadID:          q.LeadID,
		Status:          string(q.Status),
		EffectiveStatus: string(q.EffectiveStatus(now)),
		IsExpired:       q.IsExpired(now),
		Subtotal:        q.Subtotal,
		DiscountTotal:   q.DiscountTotal,
		TaxTotal:        q.TaxTotal,
		Total:           q.Total,
		Notes:           q.Notes,
		Terms:           q.Terms,
		ExpiresAt:       q.ExpiresAt,
		SentAt:          q.SentAt,
		AcceptedAt:      q.AcceptedAt,
		AcceptedBy:      q.AcceptedBy,
		DeclinedAt:      q.DeclinedAt,
		DeclinedReason:  q.DeclinedReason,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

// ToQuoteItemResponse maps a quote item to its read model.
func ToQuoteItemResponse(it *domain.QuoteItem) QuoteItemResponse {
	return QuoteItemResponse{
		ID:          it.ID,
		QuoteID:     it.QuoteID,
		ItemType:    string(it.ItemType),
		InventoryID: it.InventoryID,
		PlanID:      it.PlanID,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		Subtotal:    it.Subtotal,
		CreatedAt:   it.CreatedAt,
	}
}

// ToQuotePromotionResponse maps an applied promotion to its read model.
func ToQuotePromotionResponse(qp *domain.QuotePromotion) QuotePromotionResponse {
	return QuotePromotionResponse{
		ID:             qp.ID,
		QuoteID:        qp.QuoteID,
		PromotionID:    qp.PromotionID,
		DiscountType:   string(qp.DiscountType),
		DiscountAmount: qp.DiscountAmount,
		CreatedAt:      qp.CreatedAt,
	}
}

// ToQuoteDetailResponse maps a quote with its children.
func ToQuoteDetailResponse(q *domain.Quote, items []domain.QuoteItem, promos []domain.QuotePromotion, now time.Time) QuoteDetailResponse {
	resp := QuoteDetailResponse{
		QuoteResponse: ToQuoteResponse(q, now),
		Items:         make([]QuoteItemResponse, 0, len(items)),
		Promotions:    make([]QuotePromotionResponse, 0, len(promos)),
	}
	for i := range items {
		resp.Items = append(resp.Items, ToQuoteItemResponse(&items[i]))
	}
	for i := range promos {
		resp.Promotions = append(resp.Promotions, ToQuotePromotionResponse(&promos[i]))
	}
	return resp
}
