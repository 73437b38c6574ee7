package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
	"github.com/nebioudaniel/family-academy-api/pkg/media"
)

type teacherRepository interface {
	FindByIDAndRole(ctx context.Context, id string, role models.UserRole) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	DeleteByRole(ctx context.Context, id string, role models.UserRole) error
}

type teacherCourseCleaner interface {
	DeleteByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

// CreateTeacherRequest is the admin payload for provisioning a teacher
// account.
type CreateTeacherRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateTeacherRequest edits an existing teacher account. A non-empty
// password resets the credential.
type UpdateTeacherRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// TeacherService manages teacher accounts on behalf of admins. Every lookup
// is role-scoped so admin and student rows are unreachable through it.
type TeacherService struct {
	users     teacherRepository
	courses   teacherCourseCleaner
	media     assetDestroyer
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(users teacherRepository, courses teacherCourseCleaner, assets assetDestroyer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		users:     users,
		courses:   courses,
		media:     assets,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create provisions a teacher account. The role is fixed server-side.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	email := normalizeEmail(req.Email)
	taken, err := s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleTeacher,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.cache.Invalidate(ctx, dashboardKeyPrefix+"*")
	return user, nil
}

// Get returns a single teacher account.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByIDAndRole(ctx, id, models.RoleTeacher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return user, nil
}

// List returns teacher accounts with optional search and pagination.
func (s *TeacherService) List(ctx context.Context, search string, page, pageSize int) ([]models.User, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	role := models.RoleTeacher
	users, total, err := s.users.List(ctx, models.UserFilter{
		Role:     &role,
		Search:   strings.TrimSpace(search),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}
	return users, pagination, nil
}

// Update edits a teacher account and optionally resets its password.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	user, err := s.users.FindByIDAndRole(ctx, id, models.RoleTeacher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	email := normalizeEmail(req.Email)
	if email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		if err := s.users.UpdatePassword(ctx, id, string(hash), time.Now().UTC()); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
		}
	}
	return user, nil
}

// Delete removes a teacher account together with all of their courses and
// releases the courses' video assets.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.users.FindByIDAndRole(ctx, id, models.RoleTeacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	videoURLs, err := s.courses.DeleteByTeacher(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher courses")
	}
	s.releaseAssets(ctx, videoURLs)

	if err := s.users.DeleteByRole(ctx, id, models.RoleTeacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.cache.Invalidate(ctx, catalogListKeyPrefix+"*")
	s.cache.Invalidate(ctx, catalogCourseKey+"*")
	s.cache.Invalidate(ctx, dashboardKeyPrefix+"*")
	return nil
}

func (s *TeacherService) releaseAssets(ctx context.Context, videoURLs []string) {
	if s.media == nil {
		return
	}
	for _, url := range videoURLs {
		publicID, ok := media.PublicIDFromURL(url)
		if !ok {
			continue
		}
		if err := s.media.Destroy(ctx, publicID); err != nil {
			s.logger.Warn("failed to release video asset",
				zap.String("public_id", publicID),
				zap.Error(err))
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
