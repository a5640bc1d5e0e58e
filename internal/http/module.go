// Package http holds the pieces shared by the API router and the quote and
// promotion modules that plug into it.
package http

import "github.com/gin-gonic/gin"

// Module is a feature area (quotes, promotions) that mounts its own
// endpoints under /api/v1.
type Module interface {
	// Name is used in startup logs.
	Name() string
	RegisterRoutes(groups *RouterContext)
}

// RouterContext carries the route groups a module may mount on. Both groups
// already run JWT authentication; Admin additionally requires the admin role.
type RouterContext struct {
	// Protected is /api/v1 for any authenticated caller.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, used for status overrides and promotion upserts.
	Admin *gin.RouterGroup
}
