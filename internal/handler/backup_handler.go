package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/service"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/jobs"
	"github.com/examcell/centre-portal-api/pkg/response"
)

// BackupHandler exposes the marks export download and the Drive backup
// trigger. The backup runs on the background queue; the endpoint returns
// as soon as the job is accepted.
type BackupHandler struct {
	backups *service.BackupService
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewBackupHandler constructs the backup handler.
func NewBackupHandler(backups *service.BackupService, queue *jobs.Queue, logger *zap.Logger) *BackupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupHandler{backups: backups, queue: queue, logger: logger}
}

// Download handles GET /admin/backup/export, streaming the marks CSV.
func (h *BackupHandler) Download(c *gin.Context) {
	data, _, err := h.backups.RenderCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("marks-export-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// Trigger handles POST /admin/backup, enqueueing one backup run.
func (h *BackupHandler) Trigger(c *gin.Context) {
	if h.queue == nil {
		response.Error(c, appErrors.New(appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "drive backup is not configured"))
		return
	}

	job := service.NewBackupJob()
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue backup"))
		return
	}

	h.logger.Info("marks backup enqueued", zap.String("job_id", job.ID))
	response.JSON(c, http.StatusAccepted, gin.H{"job_id": job.ID, "status": "queued"}, nil)
}
