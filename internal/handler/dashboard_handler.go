package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/middleware"
	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/internal/service"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/response"
)

// DashboardHandler serves the admin and student landing payloads.
type DashboardHandler struct {
	dashboards *service.DashboardService
	logger     *zap.Logger
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(dashboards *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboards: dashboards, logger: logger}
}

// Admin handles GET /admin/dashboard.
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.dashboards.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Student handles GET /students/me/dashboard. The principal must be a
// student; the record is resolved from the token.
func (h *DashboardHandler) Student(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.Role != models.RoleStudent {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	dashboard, err := h.dashboards.Student(c.Request.Context(), claims.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
