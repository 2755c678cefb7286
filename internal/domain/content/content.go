// Package content holds the editorial entities managed from the staff
// console and rendered on the public site.
package content

import "time"

// DefaultGradient is the presentational token used when none is chosen
const DefaultGradient = "from-slate-800 to-slate-900"

// DateLayout is the calendar date format used on the wire and in the model
const DateLayout = "2006-01-02"

// Kind names a console-managed entity collection
type Kind string

const (
	KindArticle  Kind = "articles"
	KindTeam     Kind = "team"
	KindCarousel Kind = "carousel"
	KindTicker   Kind = "ticker"
)

// IsValid checks if the kind is a managed collection
func (k Kind) IsValid() bool {
	switch k {
	case KindArticle, KindTeam, KindCarousel, KindTicker:
		return true
	}
	return false
}

// Entity is implemented by every console-editable record
type Entity[T any] interface {
	GetID() string
	WithID(id string) T
	WithImage(url string) T
	Label() string
	Validate() error
}

// Today returns the current date in DateLayout
func Today() string {
	return time.Now().Format(DateLayout)
}

// IsCalendarDate reports whether s parses as DateLayout
func IsCalendarDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
