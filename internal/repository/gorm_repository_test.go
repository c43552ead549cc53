package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestNoteRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notes`")).WillReturnResult(sqlmock.NewResult(0, 1))

	note := &model.Note{Title: "Manual Note", Summary: "s", Content: "c"}
	require.NoError(t, repo.Create(context.Background(), note))
	assert.Len(t, note.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notes` WHERE id = ?")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notes` WHERE id = ?")).
		WithArgs("present").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), apperr.ErrNotFound)
	assert.NoError(t, repo.Delete(context.Background(), "present"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryGetByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `notes` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	note, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryListSearchAndPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	created := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `notes` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))
	mock.ExpectQuery("SELECT \\* FROM `notes` WHERE .*LOWER\\(title\\) LIKE .*ORDER BY created_at DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "summary", "content", "questions", "created_at", "updated_at"}).
			AddRow("n1", "Cells", "cell summary", "", `[{"question":"What is ATP?","answer":"Energy"}]`, created, created))

	notes, total, err := repo.List(context.Background(), NoteFilter{Query: "Cell", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, notes, 1)
	assert.Equal(t, "n1", notes[0].ID)
	require.Len(t, notes[0].Questions, 1)
	assert.Equal(t, "Energy", notes[0].Questions[0].Answer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMaterialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `study_materials` WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "x"), apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `profiles` WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "notify_study_reminders", "notify_weekly_reports"}).
			AddRow("p1", "ada@example.com", "Ada", true, false))

	profile, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Ada", profile.Name)
	assert.True(t, profile.NotificationPreferences.StudyReminders)
	assert.False(t, profile.NotificationPreferences.WeeklyReports)
	assert.NoError(t, mock.ExpectationsWereMet())
}
