package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
)

type mockCourseRepository struct {
	courses map[string]*models.Course

	createErr error
	updateErr error
	deleteErr error

	lastCreated *models.Course
	lastUpdated *models.Course
	deletedIDs  []string
}

func newMockCourseRepository() *mockCourseRepository {
	return &mockCourseRepository{courses: make(map[string]*models.Course)}
}

func (m *mockCourseRepository) ListByTeacher(_ context.Context, teacherID, title string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	_ = title
	return out, nil
}

func (m *mockCourseRepository) ListPublished(_ context.Context, _ string) ([]models.CourseWithTeacher, error) {
	var out []models.CourseWithTeacher
	for _, c := range m.courses {
		if c.Status == models.StatusPublished {
			out = append(out, models.CourseWithTeacher{Course: *c, TeacherName: "Teacher"})
		}
	}
	return out, nil
}

func (m *mockCourseRepository) ListAll(_ context.Context, _ models.CourseFilter) ([]models.CourseWithTeacher, error) {
	var out []models.CourseWithTeacher
	for _, c := range m.courses {
		out = append(out, models.CourseWithTeacher{Course: *c, TeacherName: "Teacher"})
	}
	return out, nil
}

func (m *mockCourseRepository) FindPublishedByID(_ context.Context, id string) (*models.CourseWithTeacher, error) {
	c, ok := m.courses[id]
	if !ok || c.Status != models.StatusPublished {
		return nil, sql.ErrNoRows
	}
	return &models.CourseWithTeacher{Course: *c, TeacherName: "Teacher"}, nil
}

func (m *mockCourseRepository) FindOwned(_ context.Context, id, teacherID string) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok || c.TeacherID != teacherID {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *mockCourseRepository) Create(_ context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = "course-1"
	m.lastCreated = course
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepository) Update(_ context.Context, course *models.Course) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.courses[course.ID]
	if !ok || existing.TeacherID != course.TeacherID {
		return sql.ErrNoRows
	}
	m.lastUpdated = course
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepository) Delete(_ context.Context, id, teacherID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	existing, ok := m.courses[id]
	if !ok || existing.TeacherID != teacherID {
		return sql.ErrNoRows
	}
	m.deletedIDs = append(m.deletedIDs, id)
	delete(m.courses, id)
	return nil
}

type mockAssetDestroyer struct {
	destroyed []string
	err       error
}

func (m *mockAssetDestroyer) Destroy(_ context.Context, publicID string) error {
	m.destroyed = append(m.destroyed, publicID)
	return m.err
}

func newTestCourseService(repo *mockCourseRepository, assets *mockAssetDestroyer) *CourseService {
	svc := NewCourseService(repo, assets, nil, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validCreateRequest() CreateCourseRequest {
	return CreateCourseRequest{
		Title:        "Introduction to Algebra",
		Description:  "A complete walkthrough of linear equations for beginners.",
		VideoURL:     "https://res.cloudinary.com/demo/video/upload/v1/course_videos/intro.mp4",
		StatusChoice: ChoicePublish,
	}
}

func TestCourseServiceCreatePublishes(t *testing.T) {
	repo := newMockCourseRepository()
	svc := newTestCourseService(repo, nil)

	course, err := svc.Create(context.Background(), "teacher-1", validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, course.Status)
	require.NotNil(t, course.PublishedAt)
	assert.True(t, course.PublishedAt.Equal(fixedNow))
	assert.Nil(t, course.ScheduledAt)
	assert.Equal(t, "teacher-1", course.TeacherID)
	require.NotNil(t, repo.lastCreated)
}

func TestCourseServiceCreateDraftHasNoTimestamps(t *testing.T) {
	repo := newMockCourseRepository()
	svc := newTestCourseService(repo, nil)

	req := validCreateRequest()
	req.StatusChoice = ChoiceDraft

	course, err := svc.Create(context.Background(), "teacher-1", req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, course.Status)
	assert.Nil(t, course.PublishedAt)
	assert.Nil(t, course.ScheduledAt)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	repo := newMockCourseRepository()
	svc := newTestCourseService(repo, nil)

	tests := []struct {
		name   string
		mutate func(*CreateCourseRequest)
	}{
		{"short title", func(r *CreateCourseRequest) { r.Title = "Hi" }},
		{"short description", func(r *CreateCourseRequest) { r.Description = "too short" }},
		{"missing video", func(r *CreateCourseRequest) { r.VideoURL = "" }},
		{"bad video ref", func(r *CreateCourseRequest) { r.VideoURL = "not-a-url" }},
		{"unknown status", func(r *CreateCourseRequest) { r.StatusChoice = "archived" }},
		{"schedule without date", func(r *CreateCourseRequest) { r.StatusChoice = ChoiceSchedule }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), "teacher-1", req)
			require.Error(t, err)
			assert.Nil(t, repo.lastCreated)
		})
	}
}

func TestCourseServiceCreateScheduled(t *testing.T) {
	repo := newMockCourseRepository()
	svc := newTestCourseService(repo, nil)

	req := validCreateRequest()
	req.StatusChoice = ChoiceSchedule
	req.ScheduledDate = "2026-04-01T08:00"

	course, err := svc.Create(context.Background(), "teacher-1", req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusScheduled, course.Status)
	assert.Nil(t, course.PublishedAt)
	require.NotNil(t, course.ScheduledAt)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), course.ScheduledAt.UTC())
}

func TestCourseServiceGetHidesForeignCourse(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-9"] = &models.Course{ID: "course-9", TeacherID: "teacher-1", Status: models.StatusDraft}
	svc := newTestCourseService(repo, nil)

	_, err := svc.Get(context.Background(), "teacher-2", "course-9")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceUpdatePreservesStatusWithoutChoice(t *testing.T) {
	repo := newMockCourseRepository()
	published := fixedNow.Add(-24 * time.Hour)
	repo.courses["course-1"] = &models.Course{
		ID:          "course-1",
		Title:       "Old Title Goes Here",
		Description: "An existing description that is long enough to pass.",
		VideoURL:    "https://example.com/video.mp4",
		Status:      models.StatusPublished,
		PublishedAt: &published,
		TeacherID:   "teacher-1",
	}
	svc := newTestCourseService(repo, nil)

	course, err := svc.Update(context.Background(), "teacher-1", "course-1", UpdateCourseRequest{
		Title:       "A Brand New Title",
		Description: "An updated description that is also long enough to pass.",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, course.Status)
	require.NotNil(t, course.PublishedAt)
	assert.True(t, course.PublishedAt.Equal(published))
	assert.Equal(t, "https://example.com/video.mp4", course.VideoURL)
}

func TestCourseServiceUpdateRepublishRefreshesTimestamp(t *testing.T) {
	repo := newMockCourseRepository()
	published := fixedNow.Add(-48 * time.Hour)
	repo.courses["course-1"] = &models.Course{
		ID:          "course-1",
		Status:      models.StatusPublished,
		PublishedAt: &published,
		VideoURL:    "https://example.com/video.mp4",
		TeacherID:   "teacher-1",
	}
	svc := newTestCourseService(repo, nil)

	course, err := svc.Update(context.Background(), "teacher-1", "course-1", UpdateCourseRequest{
		Title:        "A Brand New Title",
		Description:  "An updated description that is also long enough to pass.",
		StatusChoice: ChoicePublish,
	})
	require.NoError(t, err)

	require.NotNil(t, course.PublishedAt)
	assert.True(t, course.PublishedAt.Equal(fixedNow))
}

func TestCourseServiceUpdateForeignCourseNotFound(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-1"] = &models.Course{ID: "course-1", TeacherID: "teacher-1", VideoURL: "https://example.com/v.mp4"}
	svc := newTestCourseService(repo, nil)

	_, err := svc.Update(context.Background(), "teacher-2", "course-1", UpdateCourseRequest{
		Title:       "A Brand New Title",
		Description: "An updated description that is also long enough to pass.",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Nil(t, repo.lastUpdated)
}

func TestCourseServiceDeleteReleasesAsset(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-1"] = &models.Course{
		ID:        "course-1",
		TeacherID: "teacher-1",
		VideoURL:  "https://res.cloudinary.com/demo/video/upload/v1700000000/course_videos/intro-1700000000.mp4",
	}
	assets := &mockAssetDestroyer{}
	svc := newTestCourseService(repo, assets)

	course, err := svc.Delete(context.Background(), "teacher-1", "course-1")
	require.NoError(t, err)

	assert.Equal(t, "course-1", course.ID)
	assert.Equal(t, []string{"course-1"}, repo.deletedIDs)
	assert.Equal(t, []string{"course_videos/intro-1700000000"}, assets.destroyed)
}

func TestCourseServiceDeleteSurvivesAssetFailure(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-1"] = &models.Course{
		ID:        "course-1",
		TeacherID: "teacher-1",
		VideoURL:  "https://res.cloudinary.com/demo/video/upload/v1/course_videos/intro.mp4",
	}
	assets := &mockAssetDestroyer{err: errors.New("provider down")}
	svc := newTestCourseService(repo, assets)

	_, err := svc.Delete(context.Background(), "teacher-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1"}, repo.deletedIDs)
}

func TestCourseServiceDeleteForeignCourseNotFound(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-1"] = &models.Course{ID: "course-1", TeacherID: "teacher-1"}
	assets := &mockAssetDestroyer{}
	svc := newTestCourseService(repo, assets)

	_, err := svc.Delete(context.Background(), "teacher-2", "course-1")
	require.Error(t, err)
	assert.Empty(t, repo.deletedIDs)
	assert.Empty(t, assets.destroyed)
}

func TestCourseServiceGetPublishedHidesDraft(t *testing.T) {
	repo := newMockCourseRepository()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Status: models.StatusDraft, TeacherID: "teacher-1"}
	svc := newTestCourseService(repo, nil)

	_, err := svc.GetPublished(context.Background(), "course-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceListPublishedFiltersByStatus(t *testing.T) {
	repo := newMockCourseRepository()
	now := fixedNow
	repo.courses["a"] = &models.Course{ID: "a", Status: models.StatusPublished, PublishedAt: &now, TeacherID: "t1"}
	repo.courses["b"] = &models.Course{ID: "b", Status: models.StatusDraft, TeacherID: "t1"}
	repo.courses["c"] = &models.Course{ID: "c", Status: models.StatusScheduled, TeacherID: "t1"}
	svc := newTestCourseService(repo, nil)

	courses, err := svc.ListPublished(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, "a", courses[0].ID)
}

func TestCourseServiceListAllRejectsUnknownStatus(t *testing.T) {
	repo := newMockCourseRepository()
	svc := newTestCourseService(repo, nil)

	bad := models.CourseStatus("ARCHIVED")
	_, err := svc.ListAll(context.Background(), models.CourseFilter{Status: &bad})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
