package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/service/doctor"
	"github.com/jevencare/api/pkg/httputil"
	"github.com/jevencare/api/pkg/pagination"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	g := r.Group("/doctors")
	{
		g.GET("", h.List)
		g.GET("/specializations", h.Specializations)
		g.GET("/my-profile", authMw.Authenticate(), authMw.RequireRole(model.RoleDoctor), h.MyProfile)
		g.PUT("/profile", authMw.Authenticate(), authMw.RequireRole(model.RoleDoctor), h.UpdateProfile)
		g.GET("/:id", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	minFee, err := httputil.QueryFloat(c, "minFee")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	maxFee, err := httputil.QueryFloat(c, "maxFee")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filter := model.DoctorFilter{
		Specialization: c.Query("specialization"),
		Language:       c.Query("language"),
		Search:         c.Query("search"),
		MinFee:         minFee,
		MaxFee:         maxFee,
	}
	doctors, meta, err := h.service.List(c.Request.Context(), filter, pagination.FromContext(c, pagination.DefaultLimit))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, doctors, meta)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", d)
}

func (h *Handler) Specializations(c *gin.Context) {
	specs, err := h.service.Specializations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", specs)
}

func (h *Handler) MyProfile(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)
	d, err := h.service.MyProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", d)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateDoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	d, err := h.service.UpdateProfile(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Profile updated successfully", d)
}
