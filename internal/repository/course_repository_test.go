package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebioudaniel/family-academy-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func courseRows(courses ...models.Course) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "video_url", "notes", "status",
		"published_at", "scheduled_at", "teacher_id", "created_at", "updated_at",
	})
	for _, c := range courses {
		rows.AddRow(c.ID, c.Title, c.Description, c.VideoURL, c.Notes, c.Status,
			c.PublishedAt, c.ScheduledAt, c.TeacherID, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

func TestCourseRepositoryListByTeacher(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, video_url, notes, status, published_at, scheduled_at, teacher_id, created_at, updated_at FROM courses WHERE teacher_id = $1 ORDER BY created_at DESC")).
		WithArgs("teacher-1").
		WillReturnRows(courseRows(models.Course{
			ID: "course-1", Title: "Algebra Basics", Status: models.StatusDraft,
			TeacherID: "teacher-1", CreatedAt: now, UpdatedAt: now,
		}))

	courses, err := repo.ListByTeacher(context.Background(), "teacher-1", "")
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, "course-1", courses[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByTeacherWithTitleFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND LOWER(title) LIKE $2")).
		WithArgs("teacher-1", "%algebra%").
		WillReturnRows(courseRows())

	_, err := repo.ListByTeacher(context.Background(), "teacher-1", "Algebra")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByTeacherEscapesLikeInput(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND LOWER(title) LIKE $2")).
		WithArgs("teacher-1", `%\%\_100\\%`).
		WillReturnRows(courseRows())

	_, err := repo.ListByTeacher(context.Background(), "teacher-1", `%_100\`)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListPublishedFiltersStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "video_url", "notes", "status",
		"published_at", "scheduled_at", "teacher_id", "created_at", "updated_at", "teacher_name",
	})
	now := time.Now().UTC()
	rows.AddRow("course-1", "Algebra Basics", "desc", "https://v/1.mp4", nil,
		models.StatusPublished, &now, nil, "teacher-1", now, now, "Marta Bekele")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.status = $1")).
		WithArgs(models.StatusPublished).
		WillReturnRows(rows)

	courses, err := repo.ListPublished(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, "Marta Bekele", courses[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindPublishedByIDMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = $1 AND c.status = $2")).
		WithArgs("course-1", models.StatusPublished).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPublishedByID(context.Background(), "course-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindOwnedScopesByTeacher(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND teacher_id = $2")).
		WithArgs("course-1", "teacher-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindOwned(context.Background(), "course-1", "teacher-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{
		Title:     "Algebra Basics",
		Status:    models.StatusDraft,
		TeacherID: "teacher-1",
	}
	err := repo.Create(context.Background(), course)
	require.NoError(t, err)

	assert.NotEmpty(t, course.ID)
	assert.False(t, course.CreatedAt.IsZero())
	assert.False(t, course.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateNoRowsMeansNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Course{
		ID: "course-1", TeacherID: "teacher-2", Status: models.StatusDraft,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteNoRowsMeansNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1 AND teacher_id = $2")).
		WithArgs("course-1", "teacher-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "course-1", "teacher-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryStatsByTeacher(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"total", "published", "scheduled"}).AddRow(5, 3, 1)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("teacher-1").
		WillReturnRows(rows)

	stats, err := repo.StatsByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Published)
	assert.Equal(t, 1, stats.Scheduled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryPromoteDueScheduled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE courses SET status").
		WithArgs(models.StatusPublished, now, models.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 2))

	promoted, err := repo.PromoteDueScheduled(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, int64(2), promoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
