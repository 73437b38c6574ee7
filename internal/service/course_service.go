package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
	"github.com/nebioudaniel/family-academy-api/pkg/media"
)

type courseRepository interface {
	ListByTeacher(ctx context.Context, teacherID, title string) ([]models.Course, error)
	ListPublished(ctx context.Context, search string) ([]models.CourseWithTeacher, error)
	ListAll(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithTeacher, error)
	FindPublishedByID(ctx context.Context, id string) (*models.CourseWithTeacher, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id, teacherID string) error
}

type assetDestroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// CreateCourseRequest represents payload for creating a course. The video
// reference is mandatory: a course without one never reaches the store.
type CreateCourseRequest struct {
	Title         string  `json:"title" validate:"required,min=5"`
	Description   string  `json:"description" validate:"required,min=20"`
	VideoURL      string  `json:"video_url" validate:"required"`
	Notes         *string `json:"notes" validate:"omitempty,max=20000"`
	StatusChoice  string  `json:"status_choice" validate:"required,oneof=draft publish schedule"`
	ScheduledDate string  `json:"scheduled_date" validate:"omitempty"`
}

// UpdateCourseRequest represents payload for editing a course. An empty
// status choice keeps the current status and timestamps untouched; a
// non-empty one goes through the same transition rules as creation.
type UpdateCourseRequest struct {
	Title         string  `json:"title" validate:"required,min=5"`
	Description   string  `json:"description" validate:"required,min=20"`
	VideoURL      string  `json:"video_url" validate:"omitempty"`
	Notes         *string `json:"notes" validate:"omitempty,max=20000"`
	StatusChoice  string  `json:"status_choice" validate:"omitempty,oneof=draft publish schedule"`
	ScheduledDate string  `json:"scheduled_date" validate:"omitempty"`
}

const (
	catalogListKeyPrefix = "catalog:list:"
	catalogCourseKey     = "catalog:course:"
)

// CourseService orchestrates course operations for teachers, admins and the
// public catalog.
type CourseService struct {
	repo      courseRepository
	media     assetDestroyer
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, assets assetDestroyer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:      repo,
		media:     assets,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the payload, resolves the publication transition and
// persists the new course under the acting teacher.
func (s *CourseService) Create(ctx context.Context, teacherID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if !validVideoRef(req.VideoURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "video reference must be a URL or internal video path")
	}

	scheduledAt, err := ParseScheduleDate(req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	transition, err := ResolveTransition(req.StatusChoice, scheduledAt, s.now())
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		VideoURL:    strings.TrimSpace(req.VideoURL),
		Notes:       normalizeOptional(req.Notes),
		TeacherID:   teacherID,
	}
	transition.Apply(course)

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateVisibility(ctx)
	return course, nil
}

// Get returns a teacher's own course for the edit form. Non-owners see
// not-found, never forbidden.
func (s *CourseService) Get(ctx context.Context, teacherID, id string) (*models.Course, error) {
	course, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Update edits a course owned by the acting teacher. The lookup is scoped
// jointly by id and teacher so a non-owner's request finds no row.
func (s *CourseService) Update(ctx context.Context, teacherID, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.VideoURL != "" && !validVideoRef(req.VideoURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "video reference must be a URL or internal video path")
	}

	course, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = strings.TrimSpace(req.Description)
	if v := strings.TrimSpace(req.VideoURL); v != "" {
		course.VideoURL = v
	}
	course.Notes = normalizeOptional(req.Notes)

	if req.StatusChoice != "" {
		scheduledAt, err := ParseScheduleDate(req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		transition, err := ResolveTransition(req.StatusChoice, scheduledAt, s.now())
		if err != nil {
			return nil, err
		}
		transition.Apply(course)
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateVisibility(ctx)
	return course, nil
}

// Delete removes a course owned by the acting teacher and releases its
// remote video asset. Asset cleanup failures are logged, never fatal: the
// row is gone and an orphaned remote file is an accepted degraded state.
func (s *CourseService) Delete(ctx context.Context, teacherID, id string) (*models.Course, error) {
	course, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	s.releaseAsset(ctx, course.VideoURL)

	if err := s.repo.Delete(ctx, id, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateVisibility(ctx)
	return course, nil
}

// ListByTeacher returns all of a teacher's courses regardless of status,
// optionally filtered by a case-insensitive title substring.
func (s *CourseService) ListByTeacher(ctx context.Context, teacherID, title string) ([]models.Course, error) {
	courses, err := s.repo.ListByTeacher(ctx, teacherID, strings.TrimSpace(title))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListPublished returns the public catalog: published courses only, newest
// publication first. Results are cached per search term.
func (s *CourseService) ListPublished(ctx context.Context, search string) ([]models.CourseWithTeacher, error) {
	search = strings.TrimSpace(search)
	cacheKey := catalogListKeyPrefix + strings.ToLower(search)

	var cached []models.CourseWithTeacher
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	courses, err := s.repo.ListPublished(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list published courses")
	}

	if err := s.cache.Set(ctx, cacheKey, courses, 0); err != nil {
		s.logger.Debug("catalog cache set failed", zap.Error(err))
	}
	return courses, nil
}

// GetPublished returns a published course for the public detail view. An
// unpublished or missing course yields the same not-found outcome.
func (s *CourseService) GetPublished(ctx context.Context, id string) (*models.CourseWithTeacher, error) {
	cacheKey := catalogCourseKey + id
	var cached models.CourseWithTeacher
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	course, err := s.repo.FindPublishedByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.cache.Set(ctx, cacheKey, course, 0); err != nil {
		s.logger.Debug("catalog cache set failed", zap.Error(err))
	}
	return course, nil
}

// ListAll returns every course for admin oversight with optional search and
// status filters.
func (s *CourseService) ListAll(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithTeacher, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", *filter.Status))
	}
	filter.Search = strings.TrimSpace(filter.Search)

	courses, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

func (s *CourseService) releaseAsset(ctx context.Context, videoURL string) {
	if s.media == nil || videoURL == "" {
		return
	}
	publicID, ok := media.PublicIDFromURL(videoURL)
	if !ok {
		return
	}
	if err := s.media.Destroy(ctx, publicID); err != nil {
		s.logger.Warn("failed to release video asset",
			zap.String("public_id", publicID),
			zap.Error(err))
	}
}

func (s *CourseService) invalidateVisibility(ctx context.Context) {
	s.cache.Invalidate(ctx, catalogListKeyPrefix+"*")
	s.cache.Invalidate(ctx, catalogCourseKey+"*")
	s.cache.Invalidate(ctx, dashboardKeyPrefix+"*")
}

func validVideoRef(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return strings.HasPrefix(raw, "/videos/") ||
		strings.HasPrefix(raw, "http://") ||
		strings.HasPrefix(raw, "https://")
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
