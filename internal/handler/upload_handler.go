package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clumsypasta/abans-form/internal/service"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/response"
)

// UploadHandler exposes the photo and document slot endpoints.
type UploadHandler struct {
	sessions *service.SessionService
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(sessions *service.SessionService) *UploadHandler {
	return &UploadHandler{sessions: sessions}
}

// UploadPhoto godoc
// @Summary Attach the applicant photo
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Photo file"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/photo [post]
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a file is required"))
		return
	}
	upload, closeFn, err := openUpload(header)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	state, err := h.sessions.StagePhoto(c.Param("id"), upload)
	if err != nil {
		respondWithState(c, state, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// RemovePhoto godoc
// @Summary Remove the staged applicant photo
// @Tags Uploads
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/photo [delete]
func (h *UploadHandler) RemovePhoto(c *gin.Context) {
	state, err := h.sessions.RemovePhoto(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// UploadDocuments godoc
// @Summary Attach one or more files to a document slot
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param slot path string true "Document slot key"
// @Param files formData file true "Document files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/documents/{slot} [post]
func (h *UploadHandler) UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form expected"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no files provided"))
		return
	}

	uploads := make([]service.FileUpload, 0, len(headers))
	closers := make([]func(), 0, len(headers))
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()
	for _, header := range headers {
		upload, closeFn, err := openUpload(header)
		if err != nil {
			response.Error(c, err)
			return
		}
		closers = append(closers, closeFn)
		uploads = append(uploads, upload)
	}

	state, err := h.sessions.StageDocuments(c.Param("id"), c.Param("slot"), uploads)
	if err != nil {
		respondWithState(c, state, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// RemoveDocuments godoc
// @Summary Clear a document slot and delete its staged files
// @Tags Uploads
// @Produce json
// @Param id path string true "Session ID"
// @Param slot path string true "Document slot key"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/documents/{slot} [delete]
func (h *UploadHandler) RemoveDocuments(c *gin.Context) {
	state, err := h.sessions.RemoveDocuments(c.Param("id"), c.Param("slot"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

func openUpload(header *multipart.FileHeader) (service.FileUpload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return service.FileUpload{}, nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read upload")
	}
	upload := service.FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Content:  file,
	}
	return upload, func() { _ = file.Close() }, nil
}
