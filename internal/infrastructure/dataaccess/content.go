package dataaccess

import (
	"context"
	"net/http"
	"net/url"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/infrastructure/restclient"
)

// resource describes one CRUD collection on the persistence service
type resource[D content.Entity[D], W any] struct {
	name     string // op prefix, e.g. "articles"
	path     string
	fromWire func(W) D
	toWire   func(D) W
}

var (
	articleResource  = resource[content.Article, articleWire]{"articles", "/article", articleFromWire, articleToWire}
	teamResource     = resource[content.TeamMember, teamWire]{"team", "/team", teamFromWire, teamToWire}
	carouselResource = resource[content.CarouselItem, carouselWire]{"carousel", "/carousel", carouselFromWire, carouselToWire}
	tickerResource   = resource[content.TickerItem, tickerWire]{"ticker", "/ticker", tickerFromWire, tickerToWire}
)

func (r resource[D, W]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func listResource[D content.Entity[D], W any](ctx context.Context, s *Store, r resource[D, W]) ([]D, error) {
	op := r.name + ".list"
	resp, err := s.call(ctx, op, restclient.Request{Method: http.MethodGet, Path: r.path})
	if err != nil {
		return nil, err
	}
	wires, err := decodeList[W](resp.Body)
	if err != nil {
		return nil, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	out := make([]D, 0, len(wires))
	for _, w := range wires {
		out = append(out, r.fromWire(w))
	}
	return out, nil
}

// writeResource sends item and returns the stored record. When the service
// answers with an empty body, item is returned as-is.
func writeResource[D content.Entity[D], W any](ctx context.Context, s *Store, r resource[D, W], op, method, path string, item D) (D, error) {
	resp, err := s.call(ctx, op, restclient.Request{Method: method, Path: path, Body: r.toWire(item)})
	if err != nil {
		return item, err
	}
	w, ok, err := decodeOne[W](resp.Body)
	if err != nil {
		return item, s.decodeFailure(ctx, op, resp.StatusCode, err)
	}
	if !ok {
		return item, nil
	}
	stored := r.fromWire(w)
	if stored.GetID() == "" {
		stored = stored.WithID(item.GetID())
	}
	return stored, nil
}

func createResource[D content.Entity[D], W any](ctx context.Context, s *Store, r resource[D, W], item D) (D, error) {
	return writeResource(ctx, s, r, r.name+".create", http.MethodPost, r.path, item)
}

func updateResource[D content.Entity[D], W any](ctx context.Context, s *Store, r resource[D, W], id string, item D) (D, error) {
	return writeResource(ctx, s, r, r.name+".update", http.MethodPatch, r.itemPath(id), item)
}

func deleteResource[D content.Entity[D], W any](ctx context.Context, s *Store, r resource[D, W], id string) error {
	_, err := s.call(ctx, r.name+".delete", restclient.Request{Method: http.MethodDelete, Path: r.itemPath(id)})
	return err
}

// GetArticles lists all articles
func (s *Store) GetArticles(ctx context.Context) ([]content.Article, error) {
	return listResource(ctx, s, articleResource)
}

// CreateArticle stores a new article
func (s *Store) CreateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	return createResource(ctx, s, articleResource, a)
}

// UpdateArticle overwrites the article with a.ID
func (s *Store) UpdateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	return updateResource(ctx, s, articleResource, a.ID, a)
}

// DeleteArticle removes an article
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	return deleteResource(ctx, s, articleResource, id)
}

// GetTeam lists all team members
func (s *Store) GetTeam(ctx context.Context) ([]content.TeamMember, error) {
	return listResource(ctx, s, teamResource)
}

// CreateTeamMember stores a new team member
func (s *Store) CreateTeamMember(ctx context.Context, m content.TeamMember) (content.TeamMember, error) {
	return createResource(ctx, s, teamResource, m)
}

// UpdateTeamMember overwrites the team member with m.ID
func (s *Store) UpdateTeamMember(ctx context.Context, m content.TeamMember) (content.TeamMember, error) {
	return updateResource(ctx, s, teamResource, m.ID, m)
}

// DeleteTeamMember removes a team member
func (s *Store) DeleteTeamMember(ctx context.Context, id string) error {
	return deleteResource(ctx, s, teamResource, id)
}

// GetCarousel lists all carousel items
func (s *Store) GetCarousel(ctx context.Context) ([]content.CarouselItem, error) {
	return listResource(ctx, s, carouselResource)
}

// CreateCarouselItem stores a new carousel item
func (s *Store) CreateCarouselItem(ctx context.Context, c content.CarouselItem) (content.CarouselItem, error) {
	return createResource(ctx, s, carouselResource, c)
}

// UpdateCarouselItem overwrites the carousel item with c.ID
func (s *Store) UpdateCarouselItem(ctx context.Context, c content.CarouselItem) (content.CarouselItem, error) {
	return updateResource(ctx, s, carouselResource, c.ID, c)
}

// DeleteCarouselItem removes a carousel item
func (s *Store) DeleteCarouselItem(ctx context.Context, id string) error {
	return deleteResource(ctx, s, carouselResource, id)
}

// GetTicker lists all ticker items
func (s *Store) GetTicker(ctx context.Context) ([]content.TickerItem, error) {
	return listResource(ctx, s, tickerResource)
}

// CreateTickerItem stores a new ticker item
func (s *Store) CreateTickerItem(ctx context.Context, t content.TickerItem) (content.TickerItem, error) {
	return createResource(ctx, s, tickerResource, t)
}

// UpdateTickerItem overwrites the ticker item with t.ID
func (s *Store) UpdateTickerItem(ctx context.Context, t content.TickerItem) (content.TickerItem, error) {
	return updateResource(ctx, s, tickerResource, t.ID, t)
}

// DeleteTickerItem removes a ticker item
func (s *Store) DeleteTickerItem(ctx context.Context, id string) error {
	return deleteResource(ctx, s, tickerResource, id)
}
