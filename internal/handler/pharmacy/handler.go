package pharmacy

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/service/pharmacy"
	"github.com/jevencare/api/pkg/httputil"
	"github.com/jevencare/api/pkg/pagination"
)

type Handler struct {
	service *pharmacy.Service
}

func NewHandler(service *pharmacy.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	g := r.Group("/pharmacies")
	{
		g.GET("", h.List)
		g.GET("/my-profile", authMw.Authenticate(), authMw.RequireRole(model.RolePharmacy), h.MyProfile)
		g.PUT("/profile", authMw.Authenticate(), authMw.RequireRole(model.RolePharmacy), h.UpdateProfile)
		g.GET("/:id", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	isOpen, err := httputil.QueryBool(c, "isOpen")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filter := model.PharmacyFilter{Search: c.Query("search"), IsOpen: isOpen}
	list, meta, err := h.service.List(c.Request.Context(), filter, pagination.FromContext(c, pagination.DefaultLimit))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, list, meta)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", p)
}

func (h *Handler) MyProfile(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)
	p, err := h.service.MyProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdatePharmacyProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	p, err := h.service.UpdateProfile(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Pharmacy profile updated successfully", p)
}
