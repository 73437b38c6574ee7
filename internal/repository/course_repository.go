package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nebioudaniel/family-academy-api/internal/models"
)

const courseColumns = "id, title, description, video_url, notes, status, published_at, scheduled_at, teacher_id, created_at, updated_at"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters in the input treated literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByTeacher returns all of a teacher's courses regardless of status,
// newest first, optionally narrowed by a case-insensitive title substring.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID, title string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE teacher_id = $1", courseColumns)
	args := []interface{}{teacherID}

	if title != "" {
		query += fmt.Sprintf(" AND LOWER(title) LIKE $%d", len(args)+1)
		args = append(args, likePattern(title))
	}
	query += " ORDER BY created_at DESC"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher courses: %w", err)
	}
	return courses, nil
}

// ListPublished returns published courses for the public catalog, most
// recently published first.
func (r *CourseRepository) ListPublished(ctx context.Context, search string) ([]models.CourseWithTeacher, error) {
	query := `SELECT c.id, c.title, c.description, c.video_url, c.notes, c.status, c.published_at, c.scheduled_at, c.teacher_id, c.created_at, c.updated_at, u.name AS teacher_name
		FROM courses c JOIN users u ON u.id = c.teacher_id
		WHERE c.status = $1`
	args := []interface{}{models.StatusPublished}

	if search != "" {
		query += fmt.Sprintf(" AND (LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, likePattern(search))
	}
	query += " ORDER BY c.published_at DESC"

	var courses []models.CourseWithTeacher
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return courses, nil
}

// ListAll returns every course with its teacher's name for admin oversight.
func (r *CourseRepository) ListAll(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithTeacher, error) {
	query := `SELECT c.id, c.title, c.description, c.video_url, c.notes, c.status, c.published_at, c.scheduled_at, c.teacher_id, c.created_at, c.updated_at, u.name AS teacher_name
		FROM courses c JOIN users u ON u.id = c.teacher_id
		WHERE 1=1`
	var args []interface{}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND c.status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, likePattern(filter.Search))
	}
	query += " ORDER BY c.created_at DESC"

	var courses []models.CourseWithTeacher
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return courses, nil
}

// FindPublishedByID fetches a course for the public detail view. A course
// that exists but is not published behaves exactly like a missing row.
func (r *CourseRepository) FindPublishedByID(ctx context.Context, id string) (*models.CourseWithTeacher, error) {
	const query = `SELECT c.id, c.title, c.description, c.video_url, c.notes, c.status, c.published_at, c.scheduled_at, c.teacher_id, c.created_at, c.updated_at, u.name AS teacher_name
		FROM courses c JOIN users u ON u.id = c.teacher_id
		WHERE c.id = $1 AND c.status = $2`
	var course models.CourseWithTeacher
	if err := r.db.GetContext(ctx, &course, query, id, models.StatusPublished); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindOwned fetches a course scoped jointly by id and owning teacher, so a
// non-owner's lookup finds no row.
func (r *CourseRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 AND teacher_id = $2", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, teacherID); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, title, description, video_url, notes, status, published_at, scheduled_at, teacher_id, created_at, updated_at)
		VALUES (:id, :title, :description, :video_url, :notes, :status, :published_at, :scheduled_at, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course, scoped to the owning teacher. Returns
// sql.ErrNoRows when the row does not exist under that scope.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, video_url = :video_url, notes = :notes, status = :status, published_at = :published_at, scheduled_at = :scheduled_at, updated_at = :updated_at
		WHERE id = :id AND teacher_id = :teacher_id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course, scoped to the owning teacher.
func (r *CourseRepository) Delete(ctx context.Context, id, teacherID string) error {
	const query = `DELETE FROM courses WHERE id = $1 AND teacher_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, teacherID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByTeacher removes every course owned by the teacher and returns the
// video URLs of the removed rows so remote assets can be released.
func (r *CourseRepository) DeleteByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	const query = `DELETE FROM courses WHERE teacher_id = $1 RETURNING video_url`
	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query, teacherID); err != nil {
		return nil, fmt.Errorf("delete teacher courses: %w", err)
	}
	return urls, nil
}

// StatsByTeacher aggregates course counts for a teacher's dashboard.
func (r *CourseRepository) StatsByTeacher(ctx context.Context, teacherID string) (*models.TeacherCourseStats, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'PUBLISHED') AS published,
		COUNT(*) FILTER (WHERE status = 'SCHEDULED') AS scheduled
		FROM courses WHERE teacher_id = $1`
	var stats models.TeacherCourseStats
	if err := r.db.GetContext(ctx, &stats, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher course stats: %w", err)
	}
	return &stats, nil
}

// CountByStatus returns total courses plus per-status counts platform-wide.
func (r *CourseRepository) CountByStatus(ctx context.Context) (*models.TeacherCourseStats, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'PUBLISHED') AS published,
		COUNT(*) FILTER (WHERE status = 'SCHEDULED') AS scheduled
		FROM courses`
	var stats models.TeacherCourseStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("platform course stats: %w", err)
	}
	return &stats, nil
}

// PromoteDueScheduled flips scheduled courses whose publish time has passed
// to published and returns how many rows changed.
func (r *CourseRepository) PromoteDueScheduled(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE courses SET status = $1, published_at = $2, scheduled_at = NULL, updated_at = $2
		WHERE status = $3 AND scheduled_at <= $2`
	res, err := r.db.ExecContext(ctx, query, models.StatusPublished, now, models.StatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("promote scheduled courses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote scheduled rows: %w", err)
	}
	return affected, nil
}
