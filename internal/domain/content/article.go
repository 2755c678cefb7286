package content

import (
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
)

// ArticleCategory is the editorial category of an article
type ArticleCategory string

const (
	CategoryStrategy   ArticleCategory = "Strategy"
	CategoryRealEstate ArticleCategory = "Real Estate"
	CategoryEcoFinance ArticleCategory = "Eco-Finance"
	CategoryGuide      ArticleCategory = "Guide"
	CategoryTech       ArticleCategory = "Tech"
)

// IsValid checks if the category is one of the known categories
func (c ArticleCategory) IsValid() bool {
	switch c {
	case CategoryStrategy, CategoryRealEstate, CategoryEcoFinance, CategoryGuide, CategoryTech:
		return true
	}
	return false
}

// String returns the string representation of ArticleCategory
func (c ArticleCategory) String() string {
	return string(c)
}

// Article is a published insight piece
type Article struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Excerpt       string          `json:"excerpt"`
	Category      ArticleCategory `json:"category"`
	Author        string          `json:"author"`
	Date          string          `json:"date"`
	ReadTime      string          `json:"readTime"`
	ImageGradient string          `json:"imageGradient"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Content       string          `json:"content,omitempty"`
}

// NewArticleDraft returns the defaults loaded into an empty article form
func NewArticleDraft() Article {
	return Article{
		Category:      CategoryStrategy,
		Date:          Today(),
		ReadTime:      "5 min read",
		ImageGradient: DefaultGradient,
	}
}

// Validate checks the fields required by the console form
func (a Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Article title cannot be empty")
	}
	if strings.TrimSpace(a.Excerpt) == "" {
		return shared.NewDomainError("INVALID_EXCERPT", "Article excerpt cannot be empty")
	}
	if !a.Category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Unknown article category: "+a.Category.String())
	}
	if a.Date != "" && !IsCalendarDate(a.Date) {
		return shared.NewDomainError("INVALID_DATE", "Article date must be YYYY-MM-DD")
	}
	return nil
}

// Label returns the text used as an image generation prompt
func (a Article) Label() string {
	return a.Title
}

// GetID returns the record identifier
func (a Article) GetID() string {
	return a.ID
}

// WithID returns a copy tagged with id
func (a Article) WithID(id string) Article {
	a.ID = id
	return a
}

// WithImage returns a copy with ImageURL set
func (a Article) WithImage(url string) Article {
	a.ImageURL = url
	return a
}
