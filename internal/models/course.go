package models

import "time"

// CourseStatus governs course visibility.
type CourseStatus string

const (
	StatusDraft     CourseStatus = "DRAFT"
	StatusPublished CourseStatus = "PUBLISHED"
	StatusScheduled CourseStatus = "SCHEDULED"
)

// Valid reports whether the value is a known course status.
func (s CourseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled:
		return true
	}
	return false
}

// Course represents a hosted course owned by a teacher.
//
// Invariants maintained by the publication logic: PublishedAt is non-nil
// exactly when Status is PUBLISHED, and ScheduledAt is non-nil exactly when
// Status is SCHEDULED.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	VideoURL    string       `db:"video_url" json:"video_url"`
	Notes       *string      `db:"notes" json:"notes,omitempty"`
	Status      CourseStatus `db:"status" json:"status"`
	PublishedAt *time.Time   `db:"published_at" json:"published_at,omitempty"`
	ScheduledAt *time.Time   `db:"scheduled_at" json:"scheduled_at,omitempty"`
	TeacherID   string       `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseWithTeacher joins the owning teacher's name for oversight and
// catalog listings.
type CourseWithTeacher struct {
	Course
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// CourseFilter captures admin oversight filtering: substring search over
// title/description plus an optional exact status match.
type CourseFilter struct {
	Search string
	Status *CourseStatus
}

// TeacherCourseStats aggregates a teacher's course counts for the dashboard.
type TeacherCourseStats struct {
	Total     int `db:"total" json:"total"`
	Published int `db:"published" json:"published"`
	Scheduled int `db:"scheduled" json:"scheduled"`
}

// PlatformStats aggregates platform-wide counts for the admin dashboard.
type PlatformStats struct {
	Teachers  int `json:"teachers"`
	Courses   int `json:"courses"`
	Published int `json:"published"`
	Scheduled int `json:"scheduled"`
}
