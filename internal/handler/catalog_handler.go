package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nebioudaniel/family-academy-api/internal/service"
	"github.com/nebioudaniel/family-academy-api/pkg/response"
)

// CatalogHandler serves the public course catalog. No authentication: only
// published courses are ever visible through it.
type CatalogHandler struct {
	courses *service.CourseService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(courses *service.CourseService) *CatalogHandler {
	return &CatalogHandler{courses: courses}
}

// List godoc
// @Summary Browse published courses
// @Tags Catalog
// @Produce json
// @Param search query string false "Search title and description"
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	courses, err := h.courses.ListPublished(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get godoc
// @Summary View a published course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	course, err := h.courses.GetPublished(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
