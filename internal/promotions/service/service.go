package service

import (
	"context"
	"strings"
	"time"

	"linkos_backend/internal/promotions/repository"
	"linkos_backend/internal/promotions/transport"
	"linkos_backend/platform/apperr"
	"linkos_backend/platform/logger"
	"linkos_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	discountTypePercent = "percent"
	discountTypeDollar  = "dollar"
)

var maxPercent = decimal.NewFromInt(100)

// Service provides business logic for promotions.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new promotions service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetByID retrieves a promotion by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.PromotionResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.PromotionResponse{}, err
	}
	return s.toResponse(p), nil
}

// GetByCode retrieves a promotion by its code. Codes are case-insensitive.
func (s *Service) GetByCode(ctx context.Context, code string) (transport.PromotionResponse, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return transport.PromotionResponse{}, apperr.Validation("promotion code is required")
	}

	p, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		return transport.PromotionResponse{}, err
	}
	return s.toResponse(p), nil
}

// List retrieves promotions with search and pagination.
func (s *Service) List(ctx context.Context, req transport.ListPromotionsRequest) (transport.PromotionListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListPromotionsParams{
		Search:    strings.TrimSpace(req.Search),
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.ActiveOnly {
		now := s.now()
		params.ActiveAt = &now
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.PromotionListResponse{}, err
	}

	resp := make([]transport.PromotionResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, s.toResponse(p))
	}

	return transport.PromotionListResponse{
		Items:      resp,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Create creates a new promotion.
func (s *Service) Create(ctx context.Context, req transport.CreatePromotionRequest) (transport.PromotionResponse, error) {
	if err := validateDiscount(req.DiscountType, req.DiscountAmount); err != nil {
		return transport.PromotionResponse{}, err
	}
	if err := validateWindow(req.ValidFrom, req.ValidUntil); err != nil {
		return transport.PromotionResponse{}, err
	}

	var code *string
	if req.Code != nil {
		if normalized := NormalizeCode(*req.Code); normalized != "" {
			code = &normalized
		}
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.PromotionResponse{}, apperr.Validation("name must not be empty")
	}

	status := req.Status
	if status == "" {
		status = repository.StatusActive
	}

	p, err := s.repo.Create(ctx, repository.CreatePromotionParams{
		Code:           code,
		Name:           name,
		DiscountType:   req.DiscountType,
		DiscountAmount: req.DiscountAmount.Round(2),
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		Status:         status,
	})
	if err != nil {
		return transport.PromotionResponse{}, err
	}

	s.log.WithContext(ctx).Info("promotion_created", "promotion_id", p.ID.String(), "discount_type", p.DiscountType)
	return s.toResponse(p), nil
}

// Update patches the name, validity window or status of a promotion.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdatePromotionRequest) (transport.PromotionResponse, error) {
	if req.ValidFrom != nil || req.ValidUntil != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return transport.PromotionResponse{}, err
		}
		from, until := current.ValidFrom, current.ValidUntil
		if req.ValidFrom != nil {
			from = req.ValidFrom
		}
		if req.ValidUntil != nil {
			until = req.ValidUntil
		}
		if err := validateWindow(from, until); err != nil {
			return transport.PromotionResponse{}, err
		}
	}

	var name *string
	if req.Name != nil {
		trimmed := sanitize.Text(*req.Name)
		if trimmed == "" {
			return transport.PromotionResponse{}, apperr.Validation("name must not be empty")
		}
		name = &trimmed
	}

	p, err := s.repo.Update(ctx, repository.UpdatePromotionParams{
		ID:         id,
		Name:       name,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		Status:     req.Status,
	})
	if err != nil {
		return transport.PromotionResponse{}, err
	}
	return s.toResponse(p), nil
}

// NormalizeCode canonicalises a promotion code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsApplicable reports whether p is active and inside its validity window.
func IsApplicable(p repository.Promotion, now time.Time) bool {
	if p.Status != repository.StatusActive {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

func validateDiscount(discountType string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Validation("discountAmount must not be negative")
	}
	switch discountType {
	case discountTypePercent:
		if amount.GreaterThan(maxPercent) {
			return apperr.Validation("percent discounts cannot exceed 100")
		}
	case discountTypeDollar:
	default:
		return apperr.Validationf("unknown discount type %q", discountType)
	}
	return nil
}

func validateWindow(from, until *time.Time) error {
	if from != nil && until != nil && until.Before(*from) {
		return apperr.Validation("validUntil must not be before validFrom")
	}
	return nil
}

func (s *Service) toResponse(p repository.Promotion) transport.PromotionResponse {
	return transport.PromotionResponse{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		DiscountType:   p.DiscountType,
		DiscountAmount: p.DiscountAmount,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
		Status:         p.Status,
		IsApplicable:   IsApplicable(p, s.now()),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
