package handler

import (
	"github.com/finsite/backend/internal/application/intake"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/wizard"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WizardHandler drives the application wizard. Each browser tab holds
// one wizard session addressed by its ID.
type WizardHandler struct {
	BaseHandler
	wizards *intake.WizardService
}

// NewWizardHandler creates a new WizardHandler
func NewWizardHandler(wizards *intake.WizardService) *WizardHandler {
	return &WizardHandler{wizards: wizards}
}

// WizardResponse is a wizard session with its current state
type WizardResponse struct {
	ID    uuid.UUID    `json:"id"`
	State wizard.State `json:"state"`
}

// SelectTrackRequest is the step 1 body
type SelectTrackRequest struct {
	Track string `json:"track" binding:"required"`
}

// SelectSubtypeRequest is the step 2 body
type SelectSubtypeRequest struct {
	Subtype string `json:"subtype" binding:"required"`
}

// Open handles POST /wizard
//
// @Summary Open a funding wizard
// @Tags wizard
// @Produce json
// @Success 201 {object} dto.Response{data=WizardResponse}
// @Router /wizard [post]
func (h *WizardHandler) Open(c *gin.Context) {
	id, state := h.wizards.Open()
	h.Created(c, WizardResponse{ID: id, State: state})
}

// Get handles GET /wizard/:id
//
// @Summary Get wizard state
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard session ID"
// @Success 200 {object} dto.Response{data=WizardResponse}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id} [get]
func (h *WizardHandler) Get(c *gin.Context) {
	h.act(c, func(id uuid.UUID) (wizard.State, error) {
		return h.wizards.Get(id)
	})
}

// Close handles DELETE /wizard/:id
//
// @Summary Close a wizard
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard session ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id} [delete]
func (h *WizardHandler) Close(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	h.wizards.Close(id)
	h.NoContent(c)
}

// SelectTrack handles POST /wizard/:id/track
//
// @Summary Choose the funding track
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard session ID"
// @Param request body SelectTrackRequest true "Request body"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/track [post]
func (h *WizardHandler) SelectTrack(c *gin.Context) {
	var req SelectTrackRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.act(c, func(id uuid.UUID) (wizard.State, error) {
		return h.wizards.SelectTrack(id, lead.Track(req.Track))
	})
}

// SelectSubtype handles POST /wizard/:id/subtype. The call returns once
// the cosmetic advance delay has elapsed.
//
// @Summary Choose the funding subtype
// @Description Returns once the advance delay has elapsed.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard session ID"
// @Param request body SelectSubtypeRequest true "Request body"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/subtype [post]
func (h *WizardHandler) SelectSubtype(c *gin.Context) {
	var req SelectSubtypeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.act(c, func(id uuid.UUID) (wizard.State, error) {
		return h.wizards.SelectSubtype(c.Request.Context(), id, req.Subtype)
	})
}

// Next handles POST /wizard/:id/next
//
// @Summary Advance to the next step
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard session ID"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	h.act(c, h.wizards.Next)
}

// Back handles POST /wizard/:id/back
//
// @Summary Return to the previous step
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard session ID"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	h.act(c, h.wizards.Back)
}

// UpdateProfile handles PUT /wizard/:id/profile
//
// @Summary Update the business profile
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard session ID"
// @Param request body wizard.Profile true "Request body"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/profile [put]
func (h *WizardHandler) UpdateProfile(c *gin.Context) {
	var req wizard.Profile
	if !h.BindJSON(c, &req) {
		return
	}
	h.act(c, func(id uuid.UUID) (wizard.State, error) {
		return h.wizards.UpdateProfile(id, req)
	})
}

// UpdateContact handles PUT /wizard/:id/contact. Contact fields are only
// validated on submit, so partial input is accepted here.
//
// @Summary Update contact details
// @Description Partial input is accepted; fields are validated on submit.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard session ID"
// @Param request body wizard.Contact true "Request body"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/contact [put]
func (h *WizardHandler) UpdateContact(c *gin.Context) {
	var req wizard.Contact
	if !h.BindJSON(c, &req) {
		return
	}
	h.act(c, func(id uuid.UUID) (wizard.State, error) {
		return h.wizards.UpdateContact(id, req)
	})
}

// Submit handles POST /wizard/:id/submit. A failed submission keeps the
// wizard on the contact step and the state carries the inline error.
//
// @Summary Submit the application
// @Description A failed submission keeps the wizard on the contact step and the state carries the inline error.
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard session ID"
// @Success 200 {object} dto.Response{data=wizard.State}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Router /wizard/{id}/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	state, err := h.wizards.Submit(c.Request.Context(), id)
	if err != nil && state.Step != 0 {
		h.HandleErrorWithData(c, err, state)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

func (h *WizardHandler) act(c *gin.Context, fn func(id uuid.UUID) (wizard.State, error)) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	state, err := fn(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// sessionID parses the :id parameter and tags the request context with it
func (h *WizardHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.HandleError(c, intake.ErrWizardNotFound)
		return uuid.Nil, false
	}
	c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), id.String()))
	return id, true
}

// RegisterRoutes registers the /wizard routes
func (h *WizardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/wizard")
	group.POST("", h.Open)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Close)
	group.POST("/:id/track", h.SelectTrack)
	group.POST("/:id/subtype", h.SelectSubtype)
	group.POST("/:id/next", h.Next)
	group.POST("/:id/back", h.Back)
	group.PUT("/:id/profile", h.UpdateProfile)
	group.PUT("/:id/contact", h.UpdateContact)
	group.POST("/:id/submit", h.Submit)
}
