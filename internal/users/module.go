// Package users provides the user-management bounded context module.
package users

import (
	apphttp "accounts_backend/internal/http"
	"accounts_backend/internal/users/domain"
	"accounts_backend/internal/users/handler"
	"accounts_backend/internal/users/repository"
	"accounts_backend/internal/users/service"
	"accounts_backend/platform/httpkit"
	"accounts_backend/platform/logger"
	"accounts_backend/platform/validator"
)

// Module is the user-management bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the users module with all its dependencies.
func NewModule(store repository.Store, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// RegisterRoutes mounts user routes. Listing and deletion are admin-gated;
// reads and updates require any authenticated role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/users")
	group.GET("", httpkit.RequireRole(string(domain.RoleAdmin)), m.handler.ListUsers)
	group.GET("/:id", m.handler.GetUser)
	group.PUT("/:id", m.handler.UpdateUser)
	group.DELETE("/:id", httpkit.RequireRole(string(domain.RoleAdmin)), m.handler.DeleteUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
