package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/export"
	"github.com/examcell/centre-portal-api/pkg/jobs"
)

// backupHeaders is the fixed CSV column order of the marks export.
var backupHeaders = []string{"Reg No", "Student Name", "Centre Code", "Subject", "Attempt", "Marks"}

type backupMarkReader interface {
	AllRows(ctx context.Context) ([]models.ExamMarkRow, error)
}

type backupStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
	Delete(filename string) error
}

type driveUploader interface {
	UploadCSV(ctx context.Context, localPath, name string) (string, error)
	ConvertToSpreadsheet(ctx context.Context, fileID, name string) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// BackupResult summarises one completed backup run.
type BackupResult struct {
	FileName      string    `json:"file_name"`
	RowCount      int       `json:"row_count"`
	SpreadsheetID string    `json:"spreadsheet_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// BackupService exports all exam marks to CSV and ships them to Drive as a
// spreadsheet. The flow is upload raw CSV, copy-convert to a spreadsheet,
// then delete the raw upload; a conversion failure aborts the run and
// leaves the raw file behind on Drive.
type BackupService struct {
	marks    backupMarkReader
	exporter *export.CSVExporter
	store    backupStore
	drive    driveUploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewBackupService constructs the backup service. A nil drive client keeps
// the CSV download working while disabling remote backups.
func NewBackupService(marks backupMarkReader, store backupStore, drive driveUploader, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		marks:    marks,
		exporter: export.NewCSVExporter(),
		store:    store,
		drive:    drive,
		logger:   logger,
		now:      time.Now,
	}
}

// RenderCSV builds the full marks export, one row per subject per attempt.
func (s *BackupService) RenderCSV(ctx context.Context) ([]byte, int, error) {
	rows, err := s.marks.AllRows(ctx)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam marks")
	}

	dataset := export.Dataset{Headers: backupHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reg No":       row.RegNo,
			"Student Name": row.StudentName,
			"Centre Code":  row.CentreCode,
			"Subject":      row.Subject,
			"Attempt":      string(row.Attempt),
			"Marks":        strconv.Itoa(row.Marks),
		})
	}

	data, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render backup csv")
	}
	return data, len(rows), nil
}

// Run executes one full backup cycle and returns its summary.
func (s *BackupService) Run(ctx context.Context) (*BackupResult, error) {
	if s.drive == nil {
		return nil, appErrors.New(appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "drive backup is not configured")
	}

	data, rowCount, err := s.RenderCSV(ctx)
	if err != nil {
		return nil, err
	}

	stamp := s.now().UTC()
	name := fmt.Sprintf("marks-backup-%s", stamp.Format("20060102-150405"))
	filename := name + ".csv"

	if _, err := s.store.Save(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write backup file")
	}

	rawID, err := s.drive.UploadCSV(ctx, s.store.Path(filename), filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upload backup")
	}

	sheetID, err := s.drive.ConvertToSpreadsheet(ctx, rawID, name)
	if err != nil {
		// The raw CSV stays on Drive; the retry uploads a fresh copy
		// under a new timestamp rather than reusing this one.
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to convert backup to spreadsheet")
	}

	if err := s.drive.Delete(ctx, rawID); err != nil {
		s.logger.Warn("failed to remove raw backup from drive", zap.String("file_id", rawID), zap.Error(err))
	}
	if err := s.store.Delete(filename); err != nil {
		s.logger.Warn("failed to remove local backup file", zap.String("file", filename), zap.Error(err))
	}

	result := &BackupResult{
		FileName:      name,
		RowCount:      rowCount,
		SpreadsheetID: sheetID,
		CompletedAt:   stamp,
	}
	s.logger.Info("marks backup completed",
		zap.String("spreadsheet_id", sheetID),
		zap.Int("rows", rowCount))
	return result, nil
}

// JobHandler adapts Run for the background queue.
func (s *BackupService) JobHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		_, err := s.Run(ctx)
		return err
	}
}

// NewBackupJob builds a queue entry for one backup run.
func NewBackupJob() jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Type: "marks-backup"}
}
