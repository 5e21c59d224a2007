package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/service"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/response"
)

// AdminHandler exposes the reviewer login and submission review endpoints.
type AdminHandler struct {
	auth  *service.AuthService
	admin *service.AdminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *service.AuthService, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{auth: auth, admin: admin}
}

// Login godoc
// @Summary Authenticate the reviewer account
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List submitted records
// @Tags Admin
// @Produce json
// @Param search query string false "Search by name or email"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/submissions [get]
func (h *AdminHandler) List(c *gin.Context) {
	var query dto.SubmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	query.Search = strings.TrimSpace(query.Search)
	rows, pagination, err := h.admin.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &pagination)
}

// ExportCSV godoc
// @Summary Export the submission roster as CSV
// @Tags Admin
// @Produce text/csv
// @Param search query string false "Search by name or email"
// @Param department query string false "Filter by department"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /admin/submissions/export [get]
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	var query dto.SubmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	query.Search = strings.TrimSpace(query.Search)
	data, err := h.admin.ExportCSV(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="submissions.csv"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", data)
}

// Get godoc
// @Summary Get a submitted record
// @Tags Admin
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/submissions/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	sub, err := h.admin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// SummaryLink godoc
// @Summary Issue a short-lived signed link for the PDF summary
// @Tags Admin
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/submissions/{id}/summary-link [get]
func (h *AdminHandler) SummaryLink(c *gin.Context) {
	link, err := h.admin.SummaryDownloadLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadSummary godoc
// @Summary Download the PDF summary via signed token
// @Tags Admin
// @Produce octet-stream
// @Param id path string true "Submission ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /admin/submissions/{id}/summary [get]
func (h *AdminHandler) DownloadSummary(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.admin.OpenSummary(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read summary file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", result.File, nil)
}
