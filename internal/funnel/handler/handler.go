// Package handler exposes the funnel session API over HTTP.
package handler

import (
	"errors"
	"net/http"

	"quiz_funnel_backend/internal/funnel/domain"
	"quiz_funnel_backend/internal/funnel/service"
	"quiz_funnel_backend/internal/funnel/transport"
	"quiz_funnel_backend/platform/emailaddr"
	"quiz_funnel_backend/platform/httpkit"
	"quiz_funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest   = "invalid request body"
	errValidation       = "validation error"
	errInvalidSessionID = "invalid session ID"
)

// Handler handles funnel session HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new funnel handler.
func NewHandler(service *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleCreateSession creates a session at the welcome screen. Influencer
// attribution comes from query parameters the embed SDK copies off the
// host page URL.
// POST /api/v1/funnel/sessions
func (h *Handler) HandleCreateSession(c *gin.Context) {
	attribution := domain.Attribution{
		Influencer: c.Query("influencer"),
		Discount:   c.Query("discount"),
		Code:       c.Query("code"),
		Image:      c.Query("image"),
	}

	view, err := h.service.CreateSession(c.Request.Context(), attribution)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, view)
}

// HandleGetSession returns the current renderable state.
// GET /api/v1/funnel/sessions/:sessionId
func (h *Handler) HandleGetSession(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	view, err := h.service.GetSession(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleStart moves from the welcome screen to segmentation.
// POST /api/v1/funnel/sessions/:sessionId/start
func (h *Handler) HandleStart(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	view, err := h.service.Start(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleAnswer records a single-select answer and advances.
// POST /api/v1/funnel/sessions/:sessionId/answer
func (h *Handler) HandleAnswer(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req transport.AnswerRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.Answer(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleToggleSelection toggles one option in a multi-select question's
// pending set.
// POST /api/v1/funnel/sessions/:sessionId/selections/toggle
func (h *Handler) HandleToggleSelection(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req transport.ToggleRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.ToggleSelection(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleConfirmSelections commits the pending multi-select set.
// POST /api/v1/funnel/sessions/:sessionId/selections/confirm
func (h *Handler) HandleConfirmSelections(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req transport.ConfirmRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	view, err := h.service.ConfirmSelections(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleGoBack returns to the previous step.
// POST /api/v1/funnel/sessions/:sessionId/back
func (h *Handler) HandleGoBack(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	view, err := h.service.GoBack(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleCaptureLead submits the lead capture form.
// POST /api/v1/funnel/sessions/:sessionId/lead
func (h *Handler) HandleCaptureLead(c *gin.Context) {
	id, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req transport.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		// Email gets its reason-specific message so the form can tell the
		// visitor what to fix; other fields keep the generic response.
		var ve *emailaddr.ValidationError
		if emailErr := emailaddr.Validate(req.Email); errors.As(emailErr, &ve) {
			httpkit.Error(c, http.StatusBadRequest, ve.Message(),
				map[string]string{"field": "email", "reason": string(ve.Reason)})
			return
		}
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	view, err := h.service.CaptureLead(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

func (h *Handler) parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidSessionID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}
