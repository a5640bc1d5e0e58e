package service

import (
	"context"
	"testing"
	"time"

	"linkos_backend/internal/promotions/repository"
	"linkos_backend/internal/promotions/transport"
	"linkos_backend/platform/apperr"
	"linkos_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	promos map[uuid.UUID]repository.Promotion
}

func newMemRepo() *memRepo {
	return &memRepo{promos: make(map[uuid.UUID]repository.Promotion)}
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Promotion, error) {
	p, ok := r.promos[id]
	if !ok {
		return repository.Promotion{}, apperr.NotFound("promotion not found")
	}
	return p, nil
}

func (r *memRepo) GetByCode(_ context.Context, code string) (repository.Promotion, error) {
	for _, p := range r.promos {
		if p.Code != nil && *p.Code == code {
			return p, nil
		}
	}
	return repository.Promotion{}, apperr.NotFound("promotion not found")
}

func (r *memRepo) List(_ context.Context, params repository.ListPromotionsParams) ([]repository.Promotion, int, error) {
	var out []repository.Promotion
	for _, p := range r.promos {
		if params.ActiveAt != nil && !IsApplicable(p, *params.ActiveAt) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memRepo) Create(_ context.Context, params repository.CreatePromotionParams) (repository.Promotion, error) {
	for _, p := range r.promos {
		if p.Code != nil && params.Code != nil && *p.Code == *params.Code {
			return repository.Promotion{}, apperr.Conflict("promotion code already in use")
		}
	}
	p := repository.Promotion{
		ID:             uuid.New(),
		Code:           params.Code,
		Name:           params.Name,
		DiscountType:   params.DiscountType,
		DiscountAmount: params.DiscountAmount,
		ValidFrom:      params.ValidFrom,
		ValidUntil:     params.ValidUntil,
		Status:         params.Status,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	r.promos[p.ID] = p
	return p, nil
}

func (r *memRepo) Update(_ context.Context, params repository.UpdatePromotionParams) (repository.Promotion, error) {
	p, ok := r.promos[params.ID]
	if !ok {
		return repository.Promotion{}, apperr.NotFound("promotion not found")
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.ValidFrom != nil {
		p.ValidFrom = params.ValidFrom
	}
	if params.ValidUntil != nil {
		p.ValidUntil = params.ValidUntil
	}
	if params.Status != nil {
		p.Status = *params.Status
	}
	r.promos[p.ID] = p
	return p, nil
}

func newTestService() *Service {
	svc := New(newMemRepo(), logger.Discard())
	svc.SetClock(func() time.Time { return testNow })
	return svc
}

func strPtr(s string) *string { return &s }

func TestCreate_NormalizesCodeAndDefaultsToActive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, transport.CreatePromotionRequest{
		Code:           strPtr(" summer25 "),
		Name:           "<b>Summer</b>",
		DiscountType:   "percent",
		DiscountAmount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.NotNil(t, created.Code)
	assert.Equal(t, "SUMMER25", *created.Code)
	assert.Equal(t, "Summer", created.Name)
	assert.Equal(t, repository.StatusActive, created.Status)
	assert.True(t, created.IsApplicable)

	found, err := svc.GetByCode(ctx, "Summer25")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()
	from := testNow
	until := testNow.Add(-time.Hour)

	tests := []struct {
		name string
		req  transport.CreatePromotionRequest
	}{
		{"percent over 100", transport.CreatePromotionRequest{Name: "x", DiscountType: "percent", DiscountAmount: decimal.NewFromInt(101)}},
		{"negative amount", transport.CreatePromotionRequest{Name: "x", DiscountType: "dollar", DiscountAmount: decimal.NewFromInt(-1)}},
		{"unknown type", transport.CreatePromotionRequest{Name: "x", DiscountType: "bogo", DiscountAmount: decimal.NewFromInt(1)}},
		{"inverted window", transport.CreatePromotionRequest{Name: "x", DiscountType: "dollar", DiscountAmount: decimal.NewFromInt(1), ValidFrom: &from, ValidUntil: &until}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestUpdate_ChecksWindowAgainstStoredValues(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	until := testNow.Add(48 * time.Hour)

	created, err := svc.Create(ctx, transport.CreatePromotionRequest{
		Name:           "Weekend",
		DiscountType:   "dollar",
		DiscountAmount: decimal.NewFromInt(5),
		ValidUntil:     &until,
	})
	require.NoError(t, err)

	lateStart := testNow.Add(72 * time.Hour)
	_, err = svc.Update(ctx, created.ID, transport.UpdatePromotionRequest{ValidFrom: &lateStart})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	updated, err := svc.Update(ctx, created.ID, transport.UpdatePromotionRequest{Status: strPtr(repository.StatusInactive)})
	require.NoError(t, err)
	assert.False(t, updated.IsApplicable)
}

func TestGetByCode_RequiresCode(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetByCode(context.Background(), "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.GetByCode(context.Background(), "NOPE")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestIsApplicable(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name  string
		promo repository.Promotion
		want  bool
	}{
		{"active no window", repository.Promotion{Status: repository.StatusActive}, true},
		{"inactive", repository.Promotion{Status: repository.StatusInactive}, false},
		{"not started", repository.Promotion{Status: repository.StatusActive, ValidFrom: &future}, false},
		{"ended", repository.Promotion{Status: repository.StatusActive, ValidUntil: &past}, false},
		{"inside", repository.Promotion{Status: repository.StatusActive, ValidFrom: &past, ValidUntil: &future}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsApplicable(tt.promo, testNow))
		})
	}
}

func TestList_ActiveOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, transport.CreatePromotionRequest{Name: "a", DiscountType: "dollar", DiscountAmount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, transport.CreatePromotionRequest{Name: "b", DiscountType: "dollar", DiscountAmount: decimal.NewFromInt(1), Status: repository.StatusInactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, transport.ListPromotionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	active, err := svc.List(ctx, transport.ListPromotionsRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, active.Total)
	assert.Equal(t, 20, active.PageSize)
}
