package console

import (
	"context"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
)

// Backend is the authenticated data-access surface one console session uses
type Backend interface {
	GetArticles(ctx context.Context) ([]content.Article, error)
	CreateArticle(ctx context.Context, a content.Article) (content.Article, error)
	UpdateArticle(ctx context.Context, a content.Article) (content.Article, error)
	DeleteArticle(ctx context.Context, id string) error

	GetTeam(ctx context.Context) ([]content.TeamMember, error)
	CreateTeamMember(ctx context.Context, m content.TeamMember) (content.TeamMember, error)
	UpdateTeamMember(ctx context.Context, m content.TeamMember) (content.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error

	GetCarousel(ctx context.Context) ([]content.CarouselItem, error)
	CreateCarouselItem(ctx context.Context, c content.CarouselItem) (content.CarouselItem, error)
	UpdateCarouselItem(ctx context.Context, c content.CarouselItem) (content.CarouselItem, error)
	DeleteCarouselItem(ctx context.Context, id string) error

	GetTicker(ctx context.Context) ([]content.TickerItem, error)
	CreateTickerItem(ctx context.Context, t content.TickerItem) (content.TickerItem, error)
	UpdateTickerItem(ctx context.Context, t content.TickerItem) (content.TickerItem, error)
	DeleteTickerItem(ctx context.Context, id string) error

	GetApplications(ctx context.Context) ([]lead.LoanApplication, error)
	UpdateApplicationStatus(ctx context.Context, origin lead.Origin, id string, status lead.ApplicationStatus) error
	DeleteApplication(ctx context.Context, origin lead.Origin, id string) error

	GetInquiries(ctx context.Context) ([]lead.ContactInquiry, error)
	UpdateInquiryStatus(ctx context.Context, id string, status lead.InquiryStatus) error
	DeleteInquiry(ctx context.Context, id string) error
}

// BackendFactory binds a Backend to a bearer token
type BackendFactory func(token string) Backend

// ImageGenerator renders an illustration for a content title
type ImageGenerator interface {
	Generate(ctx context.Context, subject string) (string, error)
}

// Confirmer answers the blocking yes/no prompt shown before a delete
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed is a Confirmer that answers with a fixed value
type Confirmed bool

// Confirm returns c
func (c Confirmed) Confirm(string) bool { return bool(c) }
