package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/internal/service"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/response"
)

// HallTicketHandler exposes the hall-ticket lifecycle: students apply and
// download, admins review and approve.
type HallTicketHandler struct {
	hallTickets *service.HallTicketService
	students    *service.StudentService
	logger      *zap.Logger
}

// NewHallTicketHandler constructs the hall-ticket handler.
func NewHallTicketHandler(hallTickets *service.HallTicketService, students *service.StudentService, logger *zap.Logger) *HallTicketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HallTicketHandler{hallTickets: hallTickets, students: students, logger: logger}
}

// Apply handles POST /students/:id/hall-ticket/apply.
func (h *HallTicketHandler) Apply(c *gin.Context) {
	id, err := h.scopedStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.hallTickets.Apply(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Status handles GET /students/:id/hall-ticket.
func (h *HallTicketHandler) Status(c *gin.Context) {
	id, err := h.scopedStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	panel, err := h.hallTickets.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panel, nil)
}

// Download handles GET /students/:id/hall-ticket/download, streaming the
// rendered PDF.
func (h *HallTicketHandler) Download(c *gin.Context) {
	id, err := h.scopedStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pdf, err := h.hallTickets.Document(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=hall-ticket-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListPending handles GET /admin/hall-tickets.
func (h *HallTicketHandler) ListPending(c *gin.Context) {
	filter := models.StudentFilter{
		CentreCode: c.Query("centre_code"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}

	pending, total, err := h.hallTickets.ListPending(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Approve handles POST /admin/hall-tickets/:id/approve.
func (h *HallTicketHandler) Approve(c *gin.Context) {
	detail, err := h.hallTickets.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// scopedStudentID resolves the path student and enforces that a student
// principal can only act on their own record.
func (h *HallTicketHandler) scopedStudentID(c *gin.Context) (string, error) {
	id := c.Param("id")
	detail, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		return "", err
	}
	if !studentVisible(c, detail) {
		return "", appErrors.ErrForbidden
	}
	return id, nil
}
