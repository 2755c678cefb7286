// Package insight serves the AI-backed features of the public site and the
// console: the market news digest, the chat assistant and image generation.
package insight

import (
	"context"
	"sync"
	"time"

	"github.com/finsite/backend/internal/domain/insight"
	"github.com/finsite/backend/internal/infrastructure/genai"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TextGenerator generates text, optionally grounded with web search
type TextGenerator interface {
	GenerateText(ctx context.Context, req genai.TextRequest) (genai.TextResult, error)
}

// ImageGenerator renders a prompt to an image reference
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

const newsSystemPrompt = "You are a markets desk editor for a Nigerian financial-services firm. " +
	"You write short, factual summaries of the day's business news for SME owners."

const newsPrompt = "Find the four most important business and financial news stories from the last 24 hours " +
	"that matter to small and medium businesses in Nigeria. For each story judge the likely market impact.\n\n" +
	genai.DigestFormat

// NewsService produces the market news digest. Digests are cached for the
// configured TTL and concurrent cold loads share one AI call.
type NewsService struct {
	ai     TextGenerator
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	cached   []insight.NewsItem
	cachedAt time.Time
}

// NewNewsService creates a news service. A zero ttl disables caching.
func NewNewsService(ai TextGenerator, ttl time.Duration, logger *zap.Logger) *NewsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{
		ai:     ai,
		ttl:    ttl,
		logger: logger.Named("news"),
		now:    time.Now,
	}
}

// Digest returns the current news digest. It never fails; any AI failure or
// an unparseable reply yields the static fallback list, which is not cached.
func (s *NewsService) Digest(ctx context.Context) []insight.NewsItem {
	if items, ok := s.fromCache(); ok {
		return items
	}

	v, _, _ := s.group.Do("digest", func() (any, error) {
		// Shared by every waiting caller, so no single caller may cancel it
		items, err := s.generate(context.WithoutCancel(ctx))
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Serving fallback news", logger.ErrorFields(err)...)
			return insight.FallbackNews(), nil
		}
		s.mu.Lock()
		s.cached, s.cachedAt = items, s.now()
		s.mu.Unlock()
		return items, nil
	})
	return clone(v.([]insight.NewsItem))
}

// Invalidate drops the cached digest
func (s *NewsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached, s.cachedAt = nil, time.Time{}
}

func (s *NewsService) fromCache() ([]insight.NewsItem, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || s.now().Sub(s.cachedAt) >= s.ttl {
		return nil, false
	}
	return clone(s.cached), true
}

func (s *NewsService) generate(ctx context.Context) ([]insight.NewsItem, error) {
	result, err := s.ai.GenerateText(ctx, genai.TextRequest{
		System:     newsSystemPrompt,
		Prompt:     newsPrompt,
		WithSearch: true,
	})
	if err != nil {
		return nil, err
	}
	items := genai.ParseDigest(result.Text)
	if len(items) == 0 {
		return nil, genai.ErrEmptyResponse
	}
	for i := range items {
		items[i].Sources = result.Sources
	}
	return items, nil
}

func clone(items []insight.NewsItem) []insight.NewsItem {
	out := make([]insight.NewsItem, len(items))
	copy(out, items)
	return out
}
