package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nebioudaniel/family-academy-api/internal/service"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
	"github.com/nebioudaniel/family-academy-api/pkg/response"
)

// UploadHandler hands out signed parameters for direct video uploads.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

type signUploadRequest struct {
	FileName string `json:"file_name"`
}

// Sign godoc
// @Summary Sign a direct video upload
// @Tags Uploads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body signUploadRequest true "Upload payload"
// @Success 200 {object} response.Envelope
// @Router /uploads/signature [post]
func (h *UploadHandler) Sign(c *gin.Context) {
	var req signUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file_name is required"))
		return
	}

	sig, err := h.uploads.Sign(req.FileName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sig, nil)
}
