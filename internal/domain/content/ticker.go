package content

import (
	"strings"
	"unicode/utf8"

	"github.com/finsite/backend/internal/domain/shared"
)

// TickerTextMaxLength is the longest alert the console accepts
const TickerTextMaxLength = 120

// TickerCategory is the severity of a ticker alert
type TickerCategory string

const (
	TickerUrgent    TickerCategory = "Urgent"
	TickerMarket    TickerCategory = "Market"
	TickerCorporate TickerCategory = "Corporate"
)

// IsValid checks if the category is known
func (c TickerCategory) IsValid() bool {
	switch c {
	case TickerUrgent, TickerMarket, TickerCorporate:
		return true
	}
	return false
}

// TickerItem is a short scrolling alert string
type TickerItem struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Category TickerCategory `json:"category"`
	IsManual bool           `json:"isManual"`
}

// IsUrgent reports whether the item gets the urgent treatment
func (t TickerItem) IsUrgent() bool {
	return t.Category == TickerUrgent
}

// NewTickerDraft returns the defaults loaded into an empty ticker form
func NewTickerDraft() TickerItem {
	return TickerItem{Category: TickerMarket, IsManual: true}
}

// Validate checks the fields required by the console form
func (t TickerItem) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return shared.NewDomainError("INVALID_TEXT", "Ticker text cannot be empty")
	}
	if utf8.RuneCountInString(t.Text) > TickerTextMaxLength {
		return shared.NewDomainError("TEXT_TOO_LONG", "Ticker text cannot exceed 120 characters")
	}
	if !t.Category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Unknown ticker category: "+string(t.Category))
	}
	return nil
}

func (t TickerItem) Label() string { return t.Text }

func (t TickerItem) GetID() string { return t.ID }

func (t TickerItem) WithID(id string) TickerItem {
	t.ID = id
	return t
}

// WithImage is a no-op, ticker items carry no image
func (t TickerItem) WithImage(string) TickerItem {
	return t
}

// FilterTicker returns the items in category, or all items when category is empty
func FilterTicker(items []TickerItem, category TickerCategory) []TickerItem {
	if category == "" {
		return items
	}
	out := make([]TickerItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}
