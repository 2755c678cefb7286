// Package content serves the public site's marketing content.
package content

import (
	"context"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Reader is the read side of the data-access layer used by the public site
type Reader interface {
	GetArticles(ctx context.Context) ([]content.Article, error)
	GetTeam(ctx context.Context) ([]content.TeamMember, error)
	GetCarousel(ctx context.Context) ([]content.CarouselItem, error)
	GetTicker(ctx context.Context) ([]content.TickerItem, error)
}

// Service serves public content. It never fails: when a read errors or
// returns nothing, the bundled seed content is served instead.
type Service struct {
	reader Reader
	logger *zap.Logger
}

// NewService creates a new content service
func NewService(reader Reader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reader: reader, logger: logger.Named("content")}
}

// Articles returns the published articles or the seed articles
func (s *Service) Articles(ctx context.Context) []content.Article {
	return withFallback(ctx, s.logger, content.KindArticle, s.reader.GetArticles, content.SeedArticles)
}

// Team returns the team members or the seed team
func (s *Service) Team(ctx context.Context) []content.TeamMember {
	return withFallback(ctx, s.logger, content.KindTeam, s.reader.GetTeam, content.SeedTeam)
}

// Carousel returns the carousel slides or the seed slides
func (s *Service) Carousel(ctx context.Context) []content.CarouselItem {
	return withFallback(ctx, s.logger, content.KindCarousel, s.reader.GetCarousel, content.SeedCarousel)
}

// Ticker returns ticker items, optionally filtered by category. The filter
// is applied after the fallback, so a filter may yield an empty list.
func (s *Service) Ticker(ctx context.Context, category content.TickerCategory) []content.TickerItem {
	items := withFallback(ctx, s.logger, content.KindTicker, s.reader.GetTicker, content.SeedTicker)
	return content.FilterTicker(items, category)
}

func withFallback[T any](
	ctx context.Context,
	log *zap.Logger,
	kind content.Kind,
	fetch func(context.Context) ([]T, error),
	seed func() []T,
) []T {
	items, err := fetch(ctx)
	if err != nil {
		logger.WithLogger(ctx, log).Warn("Serving seed content after read failure",
			append(logger.ErrorFields(err), zap.String("kind", string(kind)))...)
		return seed()
	}
	if len(items) == 0 {
		logger.WithLogger(ctx, log).Debug("Serving seed content for empty list", zap.String("kind", string(kind)))
		return seed()
	}
	return items
}
