package handler

import (
	"errors"

	"github.com/finsite/backend/internal/application/console"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/finsite/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the staff console. Sessions are addressed by the
// bearer session ID returned from login; the Persistence Service token
// stays on the server.
type AdminHandler struct {
	BaseHandler
	sessions *console.Manager

	authMiddleware []gin.HandlerFunc
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sessions *console.Manager) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// UseAuthMiddleware adds middleware, such as a rate limit, to the
// credential routes only
func (h *AdminHandler) UseAuthMiddleware(mw ...gin.HandlerFunc) *AdminHandler {
	h.authMiddleware = append(h.authMiddleware, mw...)
	return h
}

// LoginRequest is the staff login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyRequest is the second-factor body
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// LoginResponse carries the session after a login step
type LoginResponse struct {
	Session           console.Session `json:"session"`
	DevLoginAvailable bool            `json:"devLoginAvailable"`
	Message           string          `json:"message,omitempty"`
}

// Login handles POST /admin/login. An account with a second factor comes
// back awaiting verification; call /admin/verify with the same bearer ID.
//
// @Summary Sign in to the console
// @Description An account with a second factor comes back awaiting verification.
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Request body"
// @Success 200 {object} dto.Response{data=LoginResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sess, result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.loginFailed(c, err, result.Message)
		return
	}
	h.Success(c, LoginResponse{Session: sess, DevLoginAvailable: h.sessions.DevLoginAvailable(), Message: result.Message})
}

// Verify handles POST /admin/verify
//
// @Summary Verify the second factor
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Request body"
// @Success 200 {object} dto.Response{data=LoginResponse}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/verify [post]
func (h *AdminHandler) Verify(c *gin.Context) {
	sessionID := middleware.BearerToken(c)
	if sessionID == "" {
		h.Unauthorized(c, "Please sign in to continue")
		return
	}
	var req VerifyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sess, result, err := h.sessions.Verify(c.Request.Context(), sessionID, req.Code)
	if err != nil {
		h.loginFailed(c, err, result.Message)
		return
	}
	h.Success(c, LoginResponse{Session: sess, Message: result.Message})
}

// DevLogin handles POST /admin/dev-login. The route only exists when the
// local dev provider is configured.
//
// @Summary Sign in with the local dev provider
// @Description Only registered when dev login is configured.
// @Tags admin-auth
// @Produce json
// @Success 200 {object} dto.Response{data=LoginResponse}
// @Failure 403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /admin/dev-login [post]
func (h *AdminHandler) DevLogin(c *gin.Context) {
	sess, err := h.sessions.DevLogin(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LoginResponse{Session: sess, DevLoginAvailable: true})
}

// Logout handles POST /admin/logout
//
// @Summary Sign out
// @Tags admin-auth
// @Produce json
// @Success 204 "No Content"
// @Failure 502 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/logout [post]
func (h *AdminHandler) Logout(c *gin.Context) {
	sessionID := middleware.BearerToken(c)
	if sessionID == "" {
		h.NoContent(c)
		return
	}
	if err := h.sessions.Logout(c.Request.Context(), sessionID); err != nil {
		// The session is already gone from memory; only the token delete failed
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Session handles GET /admin/session
//
// @Summary Get the current console session
// @Tags admin-auth
// @Produce json
// @Success 200 {object} dto.Response{data=LoginResponse}
// @Failure 401 {object} dto.Response{error=dto.ErrorInfo}
// @Security BearerAuth
// @Router /admin/session [get]
func (h *AdminHandler) Session(c *gin.Context) {
	sess, _ := middleware.ConsoleSessionFrom(c)
	h.Success(c, LoginResponse{Session: sess, DevLoginAvailable: h.sessions.DevLoginAvailable()})
}

// loginFailed answers a rejected login step. Rejected credentials use the
// upstream message so the form can show it inline.
func (h *AdminHandler) loginFailed(c *gin.Context, err error, message string) {
	if errors.Is(err, console.ErrSessionNotFound) {
		h.Unauthorized(c, "Your sign-in has expired, please start again")
		return
	}
	status, resp := h.errorResponse(c, err)
	if message != "" && resp.Error != nil && resp.Error.Code == dto.ErrCodeUnauthorized {
		resp.Error.Message = message
	}
	c.JSON(status, resp)
}
