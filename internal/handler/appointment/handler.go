package appointment

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/service/appointment"
	"github.com/jevencare/api/pkg/httputil"
	"github.com/jevencare/api/pkg/pagination"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	g := r.Group("/appointments", authMw.Authenticate())
	{
		g.POST("", authMw.RequireRole(model.RolePatient), h.Book)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.GET("/:id/events", h.Events)
		g.GET("/:id/call", h.JoinCall)
		g.PUT("/:id/cancel", h.Cancel)
		g.PUT("/:id/status", authMw.RequireRole(model.RoleDoctor), h.UpdateStatus)
		g.PUT("/:id/prescription", authMw.RequireRole(model.RoleDoctor), h.AttachPrescription)
	}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	apt, err := h.service.Book(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Appointment booked successfully", apt)
}

func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)
	page := pagination.FromContext(c, pagination.DefaultLimit)

	apts, meta, err := h.service.List(c.Request.Context(), caller, c.Query("status"), page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, apts, meta)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	apt, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", apt)
}

func (h *Handler) Events(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	events, err := h.service.Events(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", events)
}

func (h *Handler) JoinCall(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	session, err := h.service.JoinCall(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", session)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CancelAppointmentRequest
	// an empty body, sized or chunked, means the default reason
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	apt, err := h.service.Cancel(c.Request.Context(), caller, id, req.CancelReason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Appointment cancelled successfully", apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	apt, err := h.service.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Appointment status updated", apt)
}

func (h *Handler) AttachPrescription(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	apt, err := h.service.AttachPrescription(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "Prescription added successfully", apt)
}
