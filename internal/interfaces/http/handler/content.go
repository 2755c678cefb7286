package handler

import (
	contentapp "github.com/finsite/backend/internal/application/content"
	"github.com/finsite/backend/internal/domain/content"
	"github.com/gin-gonic/gin"
)

// ContentHandler serves the public marketing content. Lists fall back to
// seed data when the Persistence Service is unavailable, so these routes
// do not fail on upstream errors.
type ContentHandler struct {
	BaseHandler
	service *contentapp.Service
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(svc *contentapp.Service) *ContentHandler {
	return &ContentHandler{service: svc}
}

// Articles handles GET /content/articles
//
// @Summary List news articles
// @Description Published articles, newest first. Falls back to seeded content when the persistence service is down.
// @Tags content
// @Produce json
// @Success 200 {object} dto.Response{data=[]content.Article}
// @Router /content/articles [get]
func (h *ContentHandler) Articles(c *gin.Context) {
	h.Success(c, h.service.Articles(c.Request.Context()))
}

// Team handles GET /content/team
//
// @Summary List team members
// @Tags content
// @Produce json
// @Success 200 {object} dto.Response{data=[]content.TeamMember}
// @Router /content/team [get]
func (h *ContentHandler) Team(c *gin.Context) {
	h.Success(c, h.service.Team(c.Request.Context()))
}

// Carousel handles GET /content/carousel
//
// @Summary List carousel slides
// @Tags content
// @Produce json
// @Success 200 {object} dto.Response{data=[]content.CarouselItem}
// @Router /content/carousel [get]
func (h *ContentHandler) Carousel(c *gin.Context) {
	h.Success(c, h.service.Carousel(c.Request.Context()))
}

// Ticker handles GET /content/ticker?category=Urgent
//
// @Summary List ticker items
// @Description Items for one category, or every category when none is given.
// @Tags content
// @Produce json
// @Param category query string false "Ticker category (Urgent, Market, Company)"
// @Success 200 {object} dto.Response{data=[]content.TickerItem}
// @Failure 400 {object} dto.Response{error=dto.ErrorInfo}
// @Router /content/ticker [get]
func (h *ContentHandler) Ticker(c *gin.Context) {
	category := content.TickerCategory(c.Query("category"))
	if category != "" && !category.IsValid() {
		h.BadRequest(c, "Unknown ticker category")
		return
	}
	h.Success(c, h.service.Ticker(c.Request.Context(), category))
}

// RegisterRoutes registers the /content routes
func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/content")
	group.GET("/articles", h.Articles)
	group.GET("/team", h.Team)
	group.GET("/carousel", h.Carousel)
	group.GET("/ticker", h.Ticker)
}
