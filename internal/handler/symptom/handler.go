package symptom

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/middleware"
	"github.com/jevencare/api/internal/service/symptom"
	"github.com/jevencare/api/pkg/httputil"
)

type Handler struct {
	analyzer symptom.Analyzer
}

func NewHandler(analyzer symptom.Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	r.POST("/symptoms/analyze", authMw.Authenticate(), h.Analyze)
}

func (h *Handler) Analyze(c *gin.Context) {
	var req symptom.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", analysis)
}
