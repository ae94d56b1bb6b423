package record

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/service/record"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/httputil"
	"github.com/jevencare/api/pkg/pagination"
)

// multipartOverhead is allowed on top of the file size for the form fields.
const multipartOverhead = 1 << 20

type Handler struct {
	service     *record.Service
	maxFileSize int64
}

func NewHandler(service *record.Service, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = record.DefaultMaxFileSize
	}
	return &Handler{service: service, maxFileSize: maxFileSize}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	g := r.Group("/records", authMw.Authenticate())
	{
		g.POST("", authMw.RequireRole(model.RolePatient), middleware.BodyLimit(h.maxFileSize+multipartOverhead), h.Upload)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.DELETE("/:id", authMw.RequireRole(model.RolePatient), h.Delete)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	var req model.CreateRecordRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			httputil.RespondWithError(c, h.sizeError(err))
			return
		}
		httputil.RespondWithBindError(c, err)
		return
	}

	file, err := h.readFile(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	rec, err := h.service.Upload(c.Request.Context(), caller, &req, file)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Health record uploaded successfully", rec)
}

// readFile returns nil when the form has no file part.
func (h *Handler) readFile(c *gin.Context) (*model.UploadedFile, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		if tooLarge(err) {
			return nil, h.sizeError(err)
		}
		return nil, apperrors.BadRequest("invalid file upload", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if err := h.service.ValidateFile(fh.Filename, contentType, fh.Size); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &model.UploadedFile{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func (h *Handler) sizeError(err error) error {
	return apperrors.BadRequest(fmt.Sprintf("File exceeds the %d MB limit", h.maxFileSize>>20), err)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.IdentityFrom(c)
	recs, meta, err := h.service.List(c.Request.Context(), caller, c.Query("type"), pagination.FromContext(c, pagination.DefaultLimit))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, recs, meta)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := httputil.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	caller, _ := middleware.IdentityFrom(c)
	rec, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", rec)
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
	httputil.RespondWithSuccess(c, http.StatusOK, "Health record deleted successfully", nil)
}
