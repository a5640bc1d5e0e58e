package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePromotionRequest is the payload for creating a promotion.
type CreatePromotionRequest struct {
	Code           *string         `json:"code" validate:"omitempty,min=2,max=50,alphanum"`
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	DiscountType   string          `json:"discountType" validate:"required,oneof=percent dollar"`
	DiscountAmount decimal.Decimal `json:"discountAmount" validate:"money"`
	ValidFrom      *time.Time      `json:"validFrom"`
	ValidUntil     *time.Time      `json:"validUntil"`
	Status         string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdatePromotionRequest patches a promotion. Discount terms cannot change
// because applied quotes hold snapshots of them.
type UpdatePromotionRequest struct {
	Name       *string    `json:"name" validate:"omitempty,min=1,max=200"`
	ValidFrom  *time.Time `json:"validFrom"`
	ValidUntil *time.Time `json:"validUntil"`
	Status     *string    `json:"status" validate:"omitempty,oneof=active inactive"`
}

// ListPromotionsRequest contains the query parameters for listing promotions.
type ListPromotionsRequest struct {
	Search     string `form:"search" validate:"omitempty,max=100"`
	Status     string `form:"status" validate:"omitempty,oneof=active inactive"`
	ActiveOnly bool   `form:"activeOnly"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=name validUntil createdAt"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// PromotionResponse is the read model of a promotion.
type PromotionResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           *string         `json:"code,omitempty"`
	Name           string          `json:"name"`
	DiscountType   string          `json:"discountType"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	ValidFrom      *time.Time      `json:"validFrom,omitempty"`
	ValidUntil     *time.Time      `json:"validUntil,omitempty"`
	Status         string          `json:"status"`
	IsApplicable   bool            `json:"isApplicable"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PromotionListResponse is a page of promotions.
type PromotionListResponse struct {
	Items      []PromotionResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
}
