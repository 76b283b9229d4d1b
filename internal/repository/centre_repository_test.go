package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func centreRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "name", "address", "director", "email", "scheme", "college",
		"sector", "department", "course", "logo_path", "dept_logo_path", "created_at", "updated_at",
	}).AddRow("c1", "TC-001", "City Centre", "1 Main St", "A Director", "centre@example.com",
		"Scheme A", "City College", "Public", "Computing", "Diploma CS", "", "", time.Now(), time.Now())
}

func TestCentreRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + centreColumns + " FROM centres WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(centreRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM centres WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CentreFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCentreRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectQuery("SELECT .+ FROM centres WHERE 1=1 AND \\(LOWER\\(name\\) LIKE \\$1 OR LOWER\\(code\\) LIKE \\$1\\)").
		WithArgs("%city%").
		WillReturnRows(centreRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%city%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, _, err := repo.List(context.Background(), models.CentreFilter{Search: "City"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCentreRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectQuery("SELECT .+ FROM centres WHERE code = \\$1 LIMIT 1").
		WithArgs("TC-001").
		WillReturnRows(centreRows())

	centre, err := repo.FindByCode(context.Background(), "TC-001")
	require.NoError(t, err)
	assert.Equal(t, "City Centre", centre.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCentreRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectExec("INSERT INTO centres").
		WillReturnResult(sqlmock.NewResult(1, 1))

	centre := &models.Centre{Code: "TC-002", Name: "North Centre"}
	require.NoError(t, repo.Create(context.Background(), centre))
	assert.NotEmpty(t, centre.ID)
	assert.False(t, centre.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCentreRepositoryUpdateLogos(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectExec("UPDATE centres SET logo_path").
		WithArgs("TC-001", "centres/TC-001/logo.png", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateLogos(context.Background(), "TC-001", "centres/TC-001/logo.png", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCentreRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCentreRepository(db)

	mock.ExpectExec("DELETE FROM centres WHERE code = \\$1").
		WithArgs("TC-001").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "TC-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
