package handler

import (
	insightapp "github.com/finsite/backend/internal/application/insight"
	"github.com/finsite/backend/internal/domain/insight"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InsightHandler serves the AI news digest and the advisor chat
type InsightHandler struct {
	BaseHandler
	news *insightapp.NewsService
	chat *insightapp.ChatService

	chatMiddleware []gin.HandlerFunc
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(news *insightapp.NewsService, chat *insightapp.ChatService) *InsightHandler {
	return &InsightHandler{news: news, chat: chat}
}

// ChatSessionResponse is the body of an opened chat session
type ChatSessionResponse struct {
	ID         uuid.UUID             `json:"id"`
	Transcript []insight.ChatMessage `json:"transcript"`
}

// SendMessageRequest is one user turn
type SendMessageRequest struct {
	Text string `json:"text"`
}

// News handles GET /insights/news. The digest falls back to static items
// when the AI is unavailable, so this route does not fail upstream.
//
// @Summary Get the market news digest
// @Description Falls back to static items when the AI is unavailable.
// @Tags insights
// @Produce json
// @Success 200 {object} dto.Response{data=[]insight.NewsItem}
// @Router /insights/news [get]
func (h *InsightHandler) News(c *gin.Context) {
	h.Success(c, h.news.Digest(c.Request.Context()))
}

// OpenChat handles POST /chat/sessions
//
// @Summary Open a chat session
// @Tags chat
// @Produce json
// @Success 201 {object} dto.Response{data=ChatSessionResponse}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /chat/sessions [post]
func (h *InsightHandler) OpenChat(c *gin.Context) {
	h.Created(c, ChatSessionResponse{ID: h.chat.Open(), Transcript: []insight.ChatMessage{}})
}

// Transcript handles GET /chat/sessions/:id
//
// @Summary Get a chat transcript
// @Tags chat
// @Produce json
// @Param id path string true "Chat session ID"
// @Success 200 {object} dto.Response{data=ChatSessionResponse}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /chat/sessions/{id} [get]
func (h *InsightHandler) Transcript(c *gin.Context) {
	id, ok := h.chatID(c)
	if !ok {
		return
	}
	transcript, err := h.chat.Transcript(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ChatSessionResponse{ID: id, Transcript: transcript})
}

// Send handles POST /chat/sessions/:id/messages and returns the reply
//
// @Summary Send a chat message
// @Description Returns the assistant reply.
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Chat session ID"
// @Param request body SendMessageRequest true "Request body"
// @Success 200 {object} dto.Response{data=insight.ChatMessage}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /chat/sessions/{id}/messages [post]
func (h *InsightHandler) Send(c *gin.Context) {
	id, ok := h.chatID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reply, err := h.chat.Send(c.Request.Context(), id, req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reply)
}

// CloseChat handles DELETE /chat/sessions/:id
//
// @Summary Close a chat session
// @Tags chat
// @Produce json
// @Param id path string true "Chat session ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure 429 {object} dto.Response{error=dto.ErrorInfo}
// @Router /chat/sessions/{id} [delete]
func (h *InsightHandler) CloseChat(c *gin.Context) {
	id, ok := h.chatID(c)
	if !ok {
		return
	}
	h.chat.Close(id)
	h.NoContent(c)
}

func (h *InsightHandler) chatID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.HandleError(c, insightapp.ErrChatNotFound)
		return uuid.Nil, false
	}
	c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), id.String()))
	return id, true
}

// UseChatMiddleware adds middleware, such as a rate limit, to the chat routes only
func (h *InsightHandler) UseChatMiddleware(mw ...gin.HandlerFunc) *InsightHandler {
	h.chatMiddleware = append(h.chatMiddleware, mw...)
	return h
}

// RegisterRoutes registers the news and chat routes
func (h *InsightHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/insights/news", h.News)

	group := rg.Group("/chat", h.chatMiddleware...)
	group.POST("/sessions", h.OpenChat)
	group.GET("/sessions/:id", h.Transcript)
	group.POST("/sessions/:id/messages", h.Send)
	group.DELETE("/sessions/:id", h.CloseChat)
}
