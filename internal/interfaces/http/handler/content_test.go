package handler

import (
	"context"
	"net/http"
	"testing"

	contentapp "github.com/finsite/backend/internal/application/content"
	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockContentReader is a mock implementation of contentapp.Reader
type MockContentReader struct {
	mock.Mock
}

func (m *MockContentReader) GetArticles(ctx context.Context) ([]content.Article, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]content.Article)
	return items, args.Error(1)
}

func (m *MockContentReader) GetTeam(ctx context.Context) ([]content.TeamMember, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]content.TeamMember)
	return items, args.Error(1)
}

func (m *MockContentReader) GetCarousel(ctx context.Context) ([]content.CarouselItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]content.CarouselItem)
	return items, args.Error(1)
}

func (m *MockContentReader) GetTicker(ctx context.Context) ([]content.TickerItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]content.TickerItem)
	return items, args.Error(1)
}

func contentRouter(reader contentapp.Reader) *gin.Engine {
	router := gin.New()
	NewContentHandler(contentapp.NewService(reader, nil)).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestContentHandler_Articles(t *testing.T) {
	t.Run("returns stored articles", func(t *testing.T) {
		reader := new(MockContentReader)
		reader.On("GetArticles", mock.Anything).Return([]content.Article{
			{ID: "a1", Title: "Cash flow basics", Category: content.CategoryGuide},
		}, nil)

		w := doJSON(t, contentRouter(reader), http.MethodGet, "/api/v1/content/articles", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var articles []content.Article
		resp := decode(t, w, &articles)
		assert.True(t, resp.Success)
		require.Len(t, articles, 1)
		assert.Equal(t, "a1", articles[0].ID)
		reader.AssertExpectations(t)
	})

	t.Run("serves seed articles when upstream is down", func(t *testing.T) {
		reader := new(MockContentReader)
		reader.On("GetArticles", mock.Anything).
			Return(nil, shared.NewTransportError("articles.list", assert.AnError))

		w := doJSON(t, contentRouter(reader), http.MethodGet, "/api/v1/content/articles", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var articles []content.Article
		decode(t, w, &articles)
		assert.Len(t, articles, len(content.SeedArticles()))
	})
}

func TestContentHandler_TeamAndCarousel(t *testing.T) {
	reader := new(MockContentReader)
	reader.On("GetTeam", mock.Anything).Return([]content.TeamMember{}, nil)
	reader.On("GetCarousel", mock.Anything).Return([]content.CarouselItem{{ID: "c1", Title: "Grow"}}, nil)
	router := contentRouter(reader)

	w := doJSON(t, router, http.MethodGet, "/api/v1/content/team", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var team []content.TeamMember
	decode(t, w, &team)
	assert.Len(t, team, len(content.SeedTeam()), "empty list falls back to seed")

	w = doJSON(t, router, http.MethodGet, "/api/v1/content/carousel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var slides []content.CarouselItem
	decode(t, w, &slides)
	require.Len(t, slides, 1)
	assert.Equal(t, "c1", slides[0].ID)
}

func TestContentHandler_Ticker(t *testing.T) {
	items := []content.TickerItem{
		{ID: "t1", Text: "Rates steady", Category: content.TickerMarket},
		{ID: "t2", Text: "Portal maintenance", Category: content.TickerUrgent},
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{"all items", "", http.StatusOK, []string{"t1", "t2"}},
		{"filtered by category", "?category=Urgent", http.StatusOK, []string{"t2"}},
		{"category with no items", "?category=Corporate", http.StatusOK, []string{}},
		{"unknown category", "?category=Gossip", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockContentReader)
			reader.On("GetTicker", mock.Anything).Return(items, nil).Maybe()

			w := doJSON(t, contentRouter(reader), http.MethodGet, "/api/v1/content/ticker"+tt.query, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantIDs == nil {
				return
			}
			var got []content.TickerItem
			decode(t, w, &got)
			ids := make([]string, 0, len(got))
			for _, item := range got {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
