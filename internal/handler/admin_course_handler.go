package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	"github.com/nebioudaniel/family-academy-api/internal/service"
	"github.com/nebioudaniel/family-academy-api/pkg/response"
)

// AdminCourseHandler exposes the admin oversight view over every course on
// the platform, regardless of owner or status.
type AdminCourseHandler struct {
	courses *service.CourseService
}

// NewAdminCourseHandler constructs AdminCourseHandler.
func NewAdminCourseHandler(courses *service.CourseService) *AdminCourseHandler {
	return &AdminCourseHandler{courses: courses}
}

// List godoc
// @Summary List all courses across teachers
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search title and description"
// @Param status query string false "Filter by status (DRAFT, PUBLISHED, SCHEDULED)"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *AdminCourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{Search: strings.TrimSpace(c.Query("search"))}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := models.CourseStatus(raw)
		filter.Status = &status
	}

	courses, err := h.courses.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
