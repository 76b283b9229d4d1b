package handler

import (
	"io"
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

// CentreHandler exposes centre registration and the option lists.
type CentreHandler struct {
	centres     *service.CentreService
	maxLogoSize int64
	logger      *zap.Logger
}

// NewCentreHandler constructs the centre handler.
func NewCentreHandler(centres *service.CentreService, maxLogoSize int64, logger *zap.Logger) *CentreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogoSize <= 0 {
		maxLogoSize = 2 * 1024 * 1024
	}
	return &CentreHandler{centres: centres, maxLogoSize: maxLogoSize, logger: logger}
}

// List handles GET /admin/centres.
func (h *CentreHandler) List(c *gin.Context) {
	filter := models.CentreFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	centres, pagination, err := h.centres.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centres, pagination)
}

// Get handles GET /admin/centres/:code. Centre staff may read their own
// centre only.
func (h *CentreHandler) Get(c *gin.Context) {
	code := c.Param("code")
	if claims, ok := middleware.ClaimsFrom(c); ok && claims.Role == models.RoleCentre && claims.CentreCode != code {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	centre, err := h.centres.Get(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centre, nil)
}

// Create handles POST /admin/centres.
func (h *CentreHandler) Create(c *gin.Context) {
	var req service.CentreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	centre, err := h.centres.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, centre)
}

// Update handles PUT /admin/centres/:code.
func (h *CentreHandler) Update(c *gin.Context) {
	var req service.CentreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	centre, err := h.centres.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centre, nil)
}

// UploadLogos handles POST /admin/centres/:code/logos with multipart form
// fields "logo" and "dept_logo", either of which may be absent.
func (h *CentreHandler) UploadLogos(c *gin.Context) {
	logo, logoName, err := h.formFile(c, "logo")
	if err != nil {
		response.Error(c, err)
		return
	}
	deptLogo, deptLogoName, err := h.formFile(c, "dept_logo")
	if err != nil {
		response.Error(c, err)
		return
	}

	centre, err := h.centres.UploadLogos(c.Request.Context(), c.Param("code"), logo, deptLogo, logoName, deptLogoName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centre, nil)
}

// Delete handles DELETE /admin/centres/:code.
func (h *CentreHandler) Delete(c *gin.Context) {
	if err := h.centres.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Options handles GET /admin/centre-options/:kind.
func (h *CentreHandler) Options(c *gin.Context) {
	options, err := h.centres.Options(c.Request.Context(), models.OptionKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// AddOption handles POST /admin/centre-options/:kind.
func (h *CentreHandler) AddOption(c *gin.Context) {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	option, err := h.centres.AddOption(c.Request.Context(), models.OptionKind(c.Param("kind")), body.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, option)
}

func (h *CentreHandler) formFile(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	if header.Size > h.maxLogoSize {
		return nil, "", appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" exceeds the maximum upload size")
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, h.maxLogoSize+1))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return data, header.Filename, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
