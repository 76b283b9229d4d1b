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

// StudentHandler exposes student CRUD, qualifications and exam marks.
type StudentHandler struct {
	students *service.StudentService
	logger   *zap.Logger
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(students *service.StudentService, logger *zap.Logger) *StudentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentHandler{students: students, logger: logger}
}

// List handles GET /students.
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:           c.Query("search"),
		CentreCode:       c.Query("centre_code"),
		BatchID:          c.Query("batch_id"),
		HallTicketStatus: models.HallTicketStatus(c.Query("hall_ticket_status")),
		Page:             queryInt(c, "page", 1),
		PageSize:         queryInt(c, "page_size", 20),
		SortBy:           c.Query("sort_by"),
		SortOrder:        c.Query("sort_order"),
	}
	if claims, ok := middleware.ClaimsFrom(c); ok && claims.Role == models.RoleCentre {
		filter.CentreCode = claims.CentreCode
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get handles GET /students/:id.
func (h *StudentHandler) Get(c *gin.Context) {
	detail, err := h.loadVisible(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create handles POST /students.
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	detail, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !studentVisible(c, detail) {
		// The batch resolved to a centre outside the caller's scope;
		// remove the record again and reject.
		if delErr := h.students.Delete(c.Request.Context(), detail.ID); delErr != nil {
			h.logger.Error("failed to roll back out-of-scope student", zap.String("student_id", detail.ID), zap.Error(delErr))
		}
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.Created(c, detail)
}

// Update handles PUT /students/:id.
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if _, err := h.loadVisible(c); err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete handles DELETE /students/:id.
func (h *StudentHandler) Delete(c *gin.Context) {
	if _, err := h.loadVisible(c); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Qualifications handles GET /students/:id/qualifications.
func (h *StudentHandler) Qualifications(c *gin.Context) {
	if _, err := h.loadVisible(c); err != nil {
		response.Error(c, err)
		return
	}
	quals, err := h.students.Qualifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quals, nil)
}

// RecordMark handles POST /students/:id/marks.
func (h *StudentHandler) RecordMark(c *gin.Context) {
	var req service.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if _, err := h.loadVisible(c); err != nil {
		response.Error(c, err)
		return
	}

	mark, err := h.students.RecordMark(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark)
}

// Marks handles GET /students/:id/marks.
func (h *StudentHandler) Marks(c *gin.Context) {
	if _, err := h.loadVisible(c); err != nil {
		response.Error(c, err)
		return
	}
	marks, err := h.students.Marks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// loadVisible fetches the path student and enforces the caller's scope.
func (h *StudentHandler) loadVisible(c *gin.Context) (*models.StudentDetail, error) {
	detail, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !studentVisible(c, detail) {
		return nil, appErrors.ErrForbidden
	}
	return detail, nil
}

func studentVisible(c *gin.Context, detail *models.StudentDetail) bool {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return false
	}
	switch claims.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCentre:
		return claims.CentreCode == detail.CentreCode
	case models.RoleStudent:
		return claims.SubjectID == detail.ID
	}
	return false
}
