package medicine

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/service/medicine"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/httputil"
	"github.com/jevencare/api/pkg/pagination"
)

type Handler struct {
	service *medicine.Service
}

func NewHandler(service *medicine.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	g := r.Group("/medicines")

	catalog := g.Group("", middleware.PublicCache(middleware.CatalogCacheAge))
	{
		catalog.GET("", h.List)
		catalog.GET("/categories", h.Categories)
		catalog.GET("/:id", h.Get)
	}

	owner := g.Group("", authMw.Authenticate(), authMw.RequireRole(model.RolePharmacy))
	{
		owner.POST("", h.Create)
		owner.PUT("/:id", h.Update)
		owner.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	meds, meta, err := h.service.List(c.Request.Context(), filter, pagination.FromContext(c, medicine.DefaultLimit))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, meds, meta)
}

func parseFilter(c *gin.Context) (model.MedicineFilter, error) {
	f := model.MedicineFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}

	if raw := c.Query("pharmacyId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperrors.BadRequest("invalid pharmacyId", err)
		}
		f.PharmacyID = &id
	}

	var err error
	if f.MinPrice, err = httputil.QueryFloat(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = httputil.QueryFloat(c, "maxPrice"); err != nil {
		return f, err
	}
	inStock, err := httputil.QueryBool(c, "inStock")
	if err != nil {
		return f, err
	}
	f.InStock = inStock != nil && *inStock
	return f, nil
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", m)
}

func (h *Handler) Categories(c *gin.Context) {
	cats, err := h.service.Categories(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", cats)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	m, err := h.service.Create(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Medicine added successfully", m)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	m, err := h.service.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Medicine updated successfully", m)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	if err := h.service.Delete(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Medicine deleted successfully", nil)
}
