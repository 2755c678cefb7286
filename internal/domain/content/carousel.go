package content

import (
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
)

// CarouselType is the kind of card shown in the homepage showcase
type CarouselType string

const (
	CarouselAdvert   CarouselType = "advert"
	CarouselProduct  CarouselType = "product"
	CarouselCustomer CarouselType = "customer"
	CarouselNews     CarouselType = "news"
)

// IsValid checks if the carousel type is known
func (t CarouselType) IsValid() bool {
	switch t {
	case CarouselAdvert, CarouselProduct, CarouselCustomer, CarouselNews:
		return true
	}
	return false
}

// CarouselItem is a promotional content card
type CarouselItem struct {
	ID            string       `json:"id"`
	Type          CarouselType `json:"type"`
	Title         string       `json:"title"`
	Summary       string       `json:"summary"`
	Tag           string       `json:"tag"`
	LinkText      string       `json:"linkText"`
	ImageGradient string       `json:"imageGradient"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	StatLabel     string       `json:"statLabel,omitempty"`
	StatValue     string       `json:"statValue,omitempty"`
}

// NewCarouselDraft returns the defaults loaded into an empty carousel form
func NewCarouselDraft() CarouselItem {
	return CarouselItem{
		Type:          CarouselAdvert,
		LinkText:      "Learn More",
		ImageGradient: DefaultGradient,
	}
}

// Validate checks the fields required by the console form
func (c CarouselItem) Validate() error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("INVALID_TYPE", "Unknown carousel type: "+string(c.Type))
	}
	if strings.TrimSpace(c.Title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Carousel title cannot be empty")
	}
	// A stat is shown as a pair
	if (c.StatLabel == "") != (c.StatValue == "") {
		return shared.NewDomainError("INVALID_STAT", "Stat label and value must be set together")
	}
	return nil
}

func (c CarouselItem) Label() string { return c.Title }

func (c CarouselItem) GetID() string { return c.ID }

func (c CarouselItem) WithID(id string) CarouselItem {
	c.ID = id
	return c
}

func (c CarouselItem) WithImage(url string) CarouselItem {
	c.ImageURL = url
	return c
}
