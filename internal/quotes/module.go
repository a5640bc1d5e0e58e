// Package quotes provides the quote pricing and lifecycle module.
package quotes

import (
	apphttp "linkos_backend/internal/http"
	"linkos_backend/internal/quotes/handler"
	"linkos_backend/internal/quotes/ports"
	"linkos_backend/internal/quotes/repository"
	"linkos_backend/internal/quotes/service"
	"linkos_backend/platform/config"
	"linkos_backend/platform/logger"
	"linkos_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, promotions ports.PromotionReader, val *validator.Validator, log *logger.Logger, cfg config.QuoteConfig) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, promotions, log)
	svc.SetValidity(cfg.GetQuoteValidity())

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// SetScheduler enables deferred recalculation through the task queue.
func (m *Module) SetScheduler(scheduler ports.RecalculationScheduler) {
	m.service.SetScheduler(scheduler)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotes"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/quotes"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
