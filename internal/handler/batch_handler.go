package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/middleware"
	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/internal/service"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/response"
)

// BatchHandler exposes batch CRUD. Centre staff are confined to their own
// centre; admins see everything.
type BatchHandler struct {
	batches *service.BatchService
	logger  *zap.Logger
}

// NewBatchHandler constructs the batch handler.
func NewBatchHandler(batches *service.BatchService, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{batches: batches, logger: logger}
}

// List handles GET /batches.
func (h *BatchHandler) List(c *gin.Context) {
	filter := models.BatchFilter{
		CentreCode: c.Query("centre_code"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if claims, ok := middleware.ClaimsFrom(c); ok && claims.Role == models.RoleCentre {
		filter.CentreCode = claims.CentreCode
	}

	batches, pagination, err := h.batches.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, pagination)
}

// Get handles GET /batches/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !batchVisible(c, batch) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Create handles POST /batches.
func (h *BatchHandler) Create(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if claims, ok := middleware.ClaimsFrom(c); ok && claims.Role == models.RoleCentre {
		req.CentreCode = claims.CentreCode
	}

	batch, err := h.batches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Update handles PUT /batches/:id.
func (h *BatchHandler) Update(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	existing, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !batchVisible(c, existing) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	batch, err := h.batches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Delete handles DELETE /batches/:id.
func (h *BatchHandler) Delete(c *gin.Context) {
	existing, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !batchVisible(c, existing) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	if err := h.batches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func batchVisible(c *gin.Context, batch *models.Batch) bool {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return false
	}
	if claims.Role == models.RoleCentre {
		return claims.CentreCode == batch.CentreCode
	}
	return claims.Role == models.RoleAdmin
}
