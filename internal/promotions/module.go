// Package promotions provides the promotion catalogue module.
package promotions

import (
	apphttp "linkos_backend/internal/http"
	"linkos_backend/internal/promotions/handler"
	"linkos_backend/internal/promotions/repository"
	"linkos_backend/internal/promotions/service"
	"linkos_backend/platform/config"
	"linkos_backend/platform/logger"
	"linkos_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the promotions module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the promotions module. Lookups are cached
// in Redis when a client is supplied.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, val *validator.Validator, log *logger.Logger, cfg config.CacheConfig) *Module {
	var repo repository.Repository = repository.New(pool)
	if rdb != nil {
		cache := repository.NewCache(rdb, cfg.GetPromotionCacheTTL())
		repo = repository.NewCachedRepository(repo, cache, log)
	}

	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "promotions"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the (possibly cached) repository for cross-module readers.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts promotion routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/promotions", m.handler.List)
	ctx.Protected.GET("/promotions/:id", m.handler.GetByID)
	ctx.Protected.GET("/promotions/code/:code", m.handler.GetByCode)

	adminGroup := ctx.Admin.Group("/promotions")
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
