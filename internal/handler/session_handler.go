package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/service"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/response"
)

// SessionHandler exposes the form session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open godoc
// @Summary Start or resume a form session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest false "Optional session id to resume"
// @Success 200 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	state, err := h.sessions.Open(c.Request.Context(), req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Get godoc
// @Summary Get the current session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	state, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// UpdateFields godoc
// @Summary Apply a partial field update to the draft record
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.FieldPatch true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/fields [patch]
func (h *SessionHandler) UpdateFields(c *gin.Context) {
	var patch dto.FieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.sessions.UpdateFields(c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Navigate godoc
// @Summary Jump to a section by id
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.NavigateRequest true "Target section"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/navigate [post]
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req dto.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.sessions.Navigate(c.Param("id"), req.Section)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Proceed godoc
// @Summary Validate the current section and advance
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/proceed [post]
func (h *SessionHandler) Proceed(c *gin.Context) {
	state, err := h.sessions.Proceed(c.Param("id"))
	if err != nil {
		respondWithState(c, state, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Submit godoc
// @Summary Submit the completed form
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	state, err := h.sessions.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithState(c, state, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Drop godoc
// @Summary Discard a live session and its staged uploads
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Drop(c *gin.Context) {
	if err := h.sessions.Drop(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respondWithState reports a failed session operation. Validation failures
// carry the refreshed session state so the client can render notices and
// per-field errors without a second request.
func respondWithState(c *gin.Context, state *dto.SessionResponse, err error) {
	appErr := appErrors.FromError(err)
	if state == nil {
		response.Error(c, appErr)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, response.Envelope{Data: state, Error: appErr})
}
