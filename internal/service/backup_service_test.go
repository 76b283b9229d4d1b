package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

type stubBackupMarks struct {
	rows []models.ExamMarkRow
}

func (s *stubBackupMarks) AllRows(_ context.Context) ([]models.ExamMarkRow, error) {
	return s.rows, nil
}

type stubBackupStore struct {
	saved   map[string][]byte
	deleted []string
}

func (s *stubBackupStore) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *stubBackupStore) Path(filename string) string {
	return "/tmp/backups/" + filename
}

func (s *stubBackupStore) Delete(filename string) error {
	s.deleted = append(s.deleted, filename)
	return nil
}

type fakeDrive struct {
	calls      []string
	convertErr error
	deleted    []string
}

func (f *fakeDrive) UploadCSV(_ context.Context, _, name string) (string, error) {
	f.calls = append(f.calls, "upload:"+name)
	return "raw-file-id", nil
}

func (f *fakeDrive) ConvertToSpreadsheet(_ context.Context, fileID, name string) (string, error) {
	f.calls = append(f.calls, "convert:"+fileID)
	if f.convertErr != nil {
		return "", f.convertErr
	}
	return "sheet-id", nil
}

func (f *fakeDrive) Delete(_ context.Context, fileID string) error {
	f.calls = append(f.calls, "delete:"+fileID)
	f.deleted = append(f.deleted, fileID)
	return nil
}

func backupRows() []models.ExamMarkRow {
	return []models.ExamMarkRow{
		{RegNo: "REG-1001", StudentName: "Student One", CentreCode: "TC-001", Subject: "Mathematics", Attempt: models.AttemptRegular, Marks: 74},
		{RegNo: "REG-1001", StudentName: "Student One", CentreCode: "TC-001", Subject: "Mathematics", Attempt: models.AttemptSupply, Marks: 81},
	}
}

func TestBackupServiceRenderCSV(t *testing.T) {
	svc := NewBackupService(&stubBackupMarks{rows: backupRows()}, &stubBackupStore{}, nil, nil)

	data, rowCount, err := svc.RenderCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rowCount)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Reg No,Student Name,Centre Code,Subject,Attempt,Marks", lines[0])
	assert.Equal(t, "REG-1001,Student One,TC-001,Mathematics,REGULAR,74", lines[1])
	assert.Equal(t, "REG-1001,Student One,TC-001,Mathematics,SUPPLY,81", lines[2])
}

func TestBackupServiceRun(t *testing.T) {
	store := &stubBackupStore{}
	drive := &fakeDrive{}
	svc := NewBackupService(&stubBackupMarks{rows: backupRows()}, store, drive, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "marks-backup-20260315-103000", result.FileName)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "sheet-id", result.SpreadsheetID)

	// Raw upload, then convert, then the raw copy is discarded.
	assert.Equal(t, []string{
		"upload:marks-backup-20260315-103000.csv",
		"convert:raw-file-id",
		"delete:raw-file-id",
	}, drive.calls)
	assert.Equal(t, []string{"marks-backup-20260315-103000.csv"}, store.deleted)
}

func TestBackupServiceRunConversionFailureKeepsRawCopy(t *testing.T) {
	store := &stubBackupStore{}
	drive := &fakeDrive{convertErr: errors.New("quota exceeded")}
	svc := NewBackupService(&stubBackupMarks{rows: backupRows()}, store, drive, nil)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, drive.deleted)
	assert.Empty(t, store.deleted)
}

func TestBackupServiceRunWithoutDrive(t *testing.T) {
	svc := NewBackupService(&stubBackupMarks{}, &stubBackupStore{}, nil, nil)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestNewBackupJob(t *testing.T) {
	job := NewBackupJob()
	assert.Equal(t, "marks-backup", job.Type)
	assert.NotEmpty(t, job.ID)
}
