package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/finsite/backend/internal/application/console"
	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/infrastructure/media"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/finsite/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// UploadField is the multipart field carrying an image upload
const UploadField = "file"

// StatusRequest is the application triage body
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Pending Approved Declined"`
}

// FormResponse is the state of one content editor
type FormResponse struct {
	Kind           content.Kind `json:"kind"`
	Open           bool         `json:"open"`
	Working        any          `json:"working"`
	SupportsImages bool         `json:"supportsImages"`
}

// Snapshot handles GET /admin/snapshot
//
// @Summary Get the console snapshot
// @Description Refreshes every tab before answering.
// @Tags admin
// @Produce json
// @Success 200 {object} dto.Response{data=console.Snapshot}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/snapshot [get]
func (h *AdminHandler) Snapshot(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	h.Success(c, cons.Snapshot())
}

// View handles GET /admin/views/:tab
//
// @Summary Get one console view
// @Tags admin
// @Produce json
// @Param tab path string true "Console tab (overview, applications, inquiries, articles, team, carousel, ticker)"
// @Success 200 {object} dto.Response{data=console.View}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/views/{tab} [get]
func (h *AdminHandler) View(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	view, err := cons.View(console.Tab(c.Param("tab")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Refresh handles POST /admin/refresh. Entity fetch failures are reported
// per tab in the snapshot, not as an error.
//
// @Summary Refresh the console
// @Description Entity fetch failures are reported per tab in the snapshot.
// @Tags admin
// @Produce json
// @Success 200 {object} dto.Response{data=console.Snapshot}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	if err := cons.Refresh(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cons.Snapshot())
}

// OpenApplication handles GET /admin/applications/:id and binds the detail overlay
//
// @Summary Open a loan application
// @Description Binds the detail overlay.
// @Tags admin
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.Response{data=lead.LoanApplication}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/applications/{id} [get]
func (h *AdminHandler) OpenApplication(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	app, err := cons.OpenApplication(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// SetApplicationStatus handles PATCH /admin/applications/:id/status
//
// @Summary Set a loan application status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body StatusRequest true "Request body"
// @Success 200 {object} dto.Response{data=lead.LoanApplication}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/applications/{id}/status [patch]
func (h *AdminHandler) SetApplicationStatus(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	app, err := cons.SetApplicationStatus(c.Request.Context(), c.Param("id"), lead.ApplicationStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// OpenInquiry handles GET /admin/inquiries/:id and binds the detail overlay
//
// @Summary Open a contact inquiry
// @Description Binds the detail overlay.
// @Tags admin
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.Response{data=lead.ContactInquiry}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/inquiries/{id} [get]
func (h *AdminHandler) OpenInquiry(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	inq, err := cons.OpenInquiry(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inq)
}

// MarkInquiryReplied handles POST /admin/inquiries/:id/replied
//
// @Summary Mark an inquiry as replied
// @Tags admin
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.Response{data=lead.ContactInquiry}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/inquiries/{id}/replied [post]
func (h *AdminHandler) MarkInquiryReplied(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	inq, err := cons.MarkInquiryReplied(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inq)
}

// Detail handles GET /admin/detail
//
// @Summary Get the detail overlay
// @Tags admin
// @Produce json
// @Success 200 {object} dto.Response{data=console.Detail}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/detail [get]
func (h *AdminHandler) Detail(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	h.Success(c, cons.Detail())
}

// CloseDetail handles DELETE /admin/detail
//
// @Summary Close the detail overlay
// @Tags admin
// @Produce json
// @Success 204 "No Content"
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/detail [delete]
func (h *AdminHandler) CloseDetail(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	cons.CloseDetail()
	h.NoContent(c)
}

// Delete handles DELETE /admin/records/:kind/:id?confirm=true. Without
// confirm=true nothing is deleted and 428 is returned.
//
// @Summary Delete a record
// @Description Nothing is deleted without confirm=true.
// @Tags admin
// @Produce json
// @Param kind path string true "Record kind (applications, inquiries, articles, team, carousel, ticker)"
// @Param id path string true "Record ID"
// @Param confirm query boolean true "Must be true"
// @Success 204 "No Content"
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 428 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/records/{kind}/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	cons, ok := h.console(c)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	err := cons.Delete(c.Request.Context(), console.RecordKind(c.Param("kind")), c.Param("id"), console.Confirmed(confirmed))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetForm handles GET /admin/forms/:kind
//
// @Summary Get an editor
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind} [get]
func (h *AdminHandler) GetForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	h.Success(c, formResponse(form))
}

// BeginCreate handles POST /admin/forms/:kind and opens the form with defaults
//
// @Summary Open an editor for a new record
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind} [post]
func (h *AdminHandler) BeginCreate(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	form.BeginCreate()
	h.Success(c, formResponse(form))
}

// BeginEdit handles POST /admin/forms/:kind/edit/:id
//
// @Summary Open an editor on an existing record
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Param id path string true "Record ID"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind}/edit/{id} [post]
func (h *AdminHandler) BeginEdit(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if _, err := form.BeginEdit(c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, formResponse(form))
}

// PatchForm handles PATCH /admin/forms/:kind. The body is a partial JSON
// object merged onto the working copy.
//
// @Summary Patch the working copy
// @Description The body is a partial JSON object merged onto the working copy.
// @Tags admin-forms
// @Accept json
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Param request body object true "Request body"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 413 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind} [patch]
func (h *AdminHandler) PatchForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	if _, err := form.Patch(body); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, formResponse(form))
}

// SaveForm handles POST /admin/forms/:kind/save. A failed save keeps the
// form open with the working copy intact.
//
// @Summary Save the working copy
// @Description A failed save keeps the form open with the working copy intact.
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Success 200 {object} dto.Response{data=object}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind}/save [post]
func (h *AdminHandler) SaveForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	saved, err := form.Save(c.Request.Context())
	if err != nil {
		h.HandleErrorWithData(c, err, formResponse(form))
		return
	}
	h.Success(c, saved)
}

// CancelForm handles DELETE /admin/forms/:kind
//
// @Summary Discard the working copy
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Success 204 "No Content"
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind} [delete]
func (h *AdminHandler) CancelForm(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	form.Cancel()
	h.NoContent(c)
}

// GenerateImage handles POST /admin/forms/:kind/image/generate
//
// @Summary Generate a cover image
// @Tags admin-forms
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind}/image/generate [post]
func (h *AdminHandler) GenerateImage(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	if _, err := form.GenerateImage(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, formResponse(form))
}

// UploadImage handles POST /admin/forms/:kind/image/upload (multipart, field "file")
//
// @Summary Upload a cover image
// @Tags admin-forms
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "Content kind (articles, team, carousel, ticker)"
// @Param file formData file true "Image file (png, jpeg, webp)"
// @Success 200 {object} dto.Response{data=FormResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/forms/{kind}/image/upload [post]
func (h *AdminHandler) UploadImage(c *gin.Context) {
	form, ok := h.form(c)
	if !ok {
		return
	}
	header, err := c.FormFile(UploadField)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationRequired, "Choose an image to upload")
		return
	}
	if header.Size > media.MaxImageBytes {
		h.HandleError(c, media.ErrTooLarge)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxImageBytes+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if _, err := form.AttachUpload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, formResponse(form))
}

func formResponse(form console.Form) FormResponse {
	working, open := form.Working()
	return FormResponse{
		Kind:           form.Kind(),
		Open:           open,
		Working:        working,
		SupportsImages: form.SupportsImages(),
	}
}

// console returns the console resolved by the AdminSession middleware
func (h *AdminHandler) console(c *gin.Context) (*console.Console, bool) {
	cons, ok := middleware.ConsoleFrom(c)
	if !ok {
		h.Unauthorized(c, "Please sign in to continue")
		return nil, false
	}
	return cons, true
}

func (h *AdminHandler) form(c *gin.Context) (console.Form, bool) {
	cons, ok := h.console(c)
	if !ok {
		return nil, false
	}
	form, err := cons.Form(content.Kind(c.Param("kind")))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return form, true
}

func (h *AdminHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body too large")
			return nil, false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
		return nil, false
	}
	return body, true
}

// RegisterRoutes registers the /admin routes. Everything but the
// credential routes requires an authenticated console session.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")

	auth := admin.Group("", h.authMiddleware...)
	auth.POST("/login", h.Login)
	auth.POST("/verify", h.Verify)
	if h.sessions.DevLoginAvailable() {
		auth.POST("/dev-login", h.DevLogin)
	}
	admin.POST("/logout", h.Logout)

	authed := admin.Group("", middleware.AdminSession(h.sessions), middleware.TracingAttributeInjector())
	authed.GET("/session", h.Session)
	authed.GET("/snapshot", h.Snapshot)
	authed.GET("/views/:tab", h.View)
	authed.POST("/refresh", h.Refresh)

	authed.GET("/applications/:id", h.OpenApplication)
	authed.PATCH("/applications/:id/status", h.SetApplicationStatus)
	authed.GET("/inquiries/:id", h.OpenInquiry)
	authed.POST("/inquiries/:id/replied", h.MarkInquiryReplied)
	authed.GET("/detail", h.Detail)
	authed.DELETE("/detail", h.CloseDetail)
	authed.DELETE("/records/:kind/:id", h.Delete)

	forms := authed.Group("/forms/:kind")
	forms.GET("", h.GetForm)
	forms.POST("", h.BeginCreate)
	forms.POST("/edit/:id", h.BeginEdit)
	forms.PATCH("", h.PatchForm)
	forms.POST("/save", h.SaveForm)
	forms.DELETE("", h.CancelForm)
	forms.POST("/image/generate", h.GenerateImage)
	forms.POST("/image/upload", h.UploadImage)
}
