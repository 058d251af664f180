// Package auth provides the authentication bounded context module.
package auth

import (
	"accounts_backend/internal/auth/handler"
	"accounts_backend/internal/auth/service"
	"accounts_backend/internal/auth/token"
	apphttp "accounts_backend/internal/http"
	"accounts_backend/internal/users/repository"
	"accounts_backend/platform/config"
	"accounts_backend/platform/logger"
	"accounts_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(store repository.Store, codec *token.Codec, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, codec, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for use by the seeding path.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public.Group("/auth"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
