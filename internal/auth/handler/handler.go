package handler

import (
	"net/http"

	"accounts_backend/internal/auth/service"
	"accounts_backend/internal/auth/transport"
	"accounts_backend/internal/users/domain"
	"accounts_backend/platform/httpkit"
	"accounts_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/reset-password/request", h.RequestPasswordReset)
	rg.POST("/reset-password", h.ResetPassword)
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, validator.Collect(err))
		return
	}

	// Role is never caller-controlled here; registration always yields a
	// plain user.
	user, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, domain.RoleUser)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"user": user.Public()})
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, validator.Collect(err))
		return
	}

	sessionToken, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"token": sessionToken, "user": user.Public()})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req transport.ResetPasswordRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, validator.Collect(err))
		return
	}

	resetToken, err := h.svc.RequestPasswordReset(c.Request.Context(), req.Username)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"message":    service.MsgResetIssued,
		"resetToken": resetToken,
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req transport.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, validator.Collect(err))
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "Password has been reset successfully"})
}
