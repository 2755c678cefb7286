package handler

import (
	"github.com/finsite/backend/internal/application/intake"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/gin-gonic/gin"
)

// LeadHandler handles the public contact form and newsletter signup
type LeadHandler struct {
	BaseHandler
	contact *intake.ContactService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(contact *intake.ContactService) *LeadHandler {
	return &LeadHandler{contact: contact}
}

// SubscribeRequest is the newsletter signup body
type SubscribeRequest struct {
	Email string `json:"email"`
}

// ContactRequest is the contact form body
type ContactRequest struct {
	FullName string `json:"fullName" binding:"max=200"`
	Email    string `json:"email" binding:"required"`
	Subject  string `json:"subject" binding:"max=200"`
	Message  string `json:"message" binding:"required,max=5000"`
}

// Subscribe handles POST /newsletter. The write outcome is returned with
// its own status, so a duplicate signup answers 409.
//
// @Summary Subscribe to the newsletter
// @Description The write outcome is returned with its own status; a duplicate signup answers 409.
// @Tags leads
// @Accept json
// @Produce json
// @Param request body SubscribeRequest true "Request body"
// @Success 200 {object} dto.Response{data=shared.WriteResult}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Router /newsletter [post]
func (h *LeadHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, _ := h.contact.Subscribe(c.Request.Context(), req.Email)
	h.WriteResult(c, result)
}

// SubmitInquiry handles POST /contact
//
// @Summary Submit a contact inquiry
// @Tags leads
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Request body"
// @Success 201 {object} dto.Response{data=lead.ContactInquiry}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Router /contact [post]
func (h *LeadHandler) SubmitInquiry(c *gin.Context) {
	var req ContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	saved, err := h.contact.SubmitInquiry(c.Request.Context(), lead.ContactInquiry{
		FullName: req.FullName,
		Email:    req.Email,
		Subject:  req.Subject,
		Message:  req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, saved)
}

// RegisterRoutes registers the lead capture routes
func (h *LeadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/newsletter", h.Subscribe)
	rg.POST("/contact", h.SubmitInquiry)
}
