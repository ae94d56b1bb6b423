package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	authsvc "github.com/jevencare/api/internal/service/auth"
	"github.com/jevencare/api/pkg/httputil"
)

type Handler struct {
	service *authsvc.Service
}

func NewHandler(service *authsvc.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /auth. otpLimit guards the endpoints that send SMS.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware, otpLimit gin.HandlerFunc) {
	g := r.Group("/auth")
	{
		g.POST("/register", otpLimit, h.Register)
		g.POST("/send-otp", otpLimit, h.SendOTP)
		g.POST("/verify-otp", otpLimit, h.VerifyOTP)
		g.POST("/refresh-token", h.RefreshToken)
	}

	protected := g.Group("", authMw.Authenticate())
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.PUT("/profile", h.UpdateProfile)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, "User registered successfully. OTP sent to your phone.", gin.H{
		"userId": user.ID,
		"phone":  user.Phone,
		"role":   user.Role,
	})
}

func (h *Handler) SendOTP(c *gin.Context) {
	var req model.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.service.SendOTP(c.Request.Context(), req.Phone); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "OTP sent successfully!", nil)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	resp, err := h.service.VerifyOTP(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Login successful!", resp)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Token refreshed successfully", resp)
}

func (h *Handler) Logout(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	if err := h.service.Logout(c.Request.Context(), id.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) Me(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	resp, err := h.service.Me(c.Request.Context(), id.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", resp)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	id, _ := middleware.IdentityFrom(c)
	user, err := h.service.UpdateProfile(c.Request.Context(), id.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Profile updated successfully", user)
}
