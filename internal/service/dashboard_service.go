package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
)

const dashboardKeyPrefix = "dashboard:"

type courseStatsRepository interface {
	StatsByTeacher(ctx context.Context, teacherID string) (*models.TeacherCourseStats, error)
	CountByStatus(ctx context.Context) (*models.TeacherCourseStats, error)
}

type userCountRepository interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

// DashboardService aggregates counters for the teacher and admin dashboards.
type DashboardService struct {
	courses courseStatsRepository
	users   userCountRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(courses courseStatsRepository, users userCountRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{courses: courses, users: users, cache: cache, metrics: metrics, logger: logger}
}

// Teacher returns course counters scoped to one teacher.
func (s *DashboardService) Teacher(ctx context.Context, teacherID string) (*models.TeacherCourseStats, error) {
	cacheKey := dashboardKeyPrefix + "teacher:" + teacherID

	var cached models.TeacherCourseStats
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	stats, err := s.courses.StatsByTeacher(ctx, teacherID)
	s.observeQuery("stats_by_teacher", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher stats")
	}

	if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
		s.logger.Debug("dashboard cache set failed", zap.Error(err))
	}
	return stats, nil
}

// Admin returns platform-wide counters.
func (s *DashboardService) Admin(ctx context.Context) (*models.PlatformStats, error) {
	cacheKey := dashboardKeyPrefix + "admin"

	var cached models.PlatformStats
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	teachers, err := s.users.CountByRole(ctx, models.RoleTeacher)
	s.observeQuery("count_teachers", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}

	start = time.Now()
	counts, err := s.courses.CountByStatus(ctx)
	s.observeQuery("count_courses_by_status", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}

	stats := &models.PlatformStats{
		Teachers:  teachers,
		Courses:   counts.Total,
		Published: counts.Published,
		Scheduled: counts.Scheduled,
	}

	if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
		s.logger.Debug("dashboard cache set failed", zap.Error(err))
	}
	return stats, nil
}

func (s *DashboardService) observeQuery(query string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDBQuery(query, time.Since(start))
}
