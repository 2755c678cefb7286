package console

import (
	"time"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
)

// Tab is one of the console views
type Tab string

const (
	TabOverview     Tab = "overview"
	TabApplications Tab = "applications"
	TabInquiries    Tab = "inquiries"
	TabTeam         Tab = "team"
	TabTicker       Tab = "ticker"
	TabArticles     Tab = "articles"
	TabCarousel     Tab = "carousel"
)

// Tabs lists every view in display order
var Tabs = []Tab{TabOverview, TabApplications, TabInquiries, TabTeam, TabTicker, TabArticles, TabCarousel}

// ErrUnknownTab is returned by View for a tab outside Tabs
var ErrUnknownTab = shared.NewDomainError("UNKNOWN_TAB", "Unknown console view")

// IsValid checks if the tab is a known view
func (t Tab) IsValid() bool {
	for _, tab := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

// Snapshot is the result of the latest full refresh. A failed fetch leaves
// its list empty and records the error under the entity's tab.
type Snapshot struct {
	Articles     []content.Article      `json:"articles"`
	Team         []content.TeamMember   `json:"team"`
	Carousel     []content.CarouselItem `json:"carousel"`
	Ticker       []content.TickerItem   `json:"ticker"`
	Applications []lead.LoanApplication `json:"applications"`
	Inquiries    []lead.ContactInquiry  `json:"inquiries"`
	Errors       map[Tab]string         `json:"errors,omitempty"`
	RefreshedAt  time.Time              `json:"refreshedAt"`
}

// Overview is the summary shown on the overview tab
type Overview struct {
	PendingApplications int                    `json:"pendingApplications"`
	UnreadInquiries     int                    `json:"unreadInquiries"`
	UrgentTicker        int                    `json:"urgentTicker"`
	TotalApplications   int                    `json:"totalApplications"`
	TotalInquiries      int                    `json:"totalInquiries"`
	TotalArticles       int                    `json:"totalArticles"`
	TotalTeam           int                    `json:"totalTeam"`
	TotalCarousel       int                    `json:"totalCarousel"`
	TotalTicker         int                    `json:"totalTicker"`
	RecentApplications  []lead.LoanApplication `json:"recentApplications"`
}

// recentLimit bounds the overview's recent applications list
const recentLimit = 5

// View is one rendered tab
type View struct {
	Tab         Tab       `json:"tab"`
	Overview    *Overview `json:"overview,omitempty"`
	Items       any       `json:"items,omitempty"`
	Error       string    `json:"error,omitempty"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

func (s Snapshot) overview() *Overview {
	o := &Overview{
		TotalApplications: len(s.Applications),
		TotalInquiries:    len(s.Inquiries),
		TotalArticles:     len(s.Articles),
		TotalTeam:         len(s.Team),
		TotalCarousel:     len(s.Carousel),
		TotalTicker:       len(s.Ticker),
	}
	for _, app := range s.Applications {
		if app.Status == lead.ApplicationPending {
			o.PendingApplications++
		}
	}
	for _, inq := range s.Inquiries {
		if inq.Status == lead.InquiryUnread {
			o.UnreadInquiries++
		}
	}
	for _, item := range s.Ticker {
		if item.IsUrgent() {
			o.UrgentTicker++
		}
	}
	n := min(len(s.Applications), recentLimit)
	o.RecentApplications = cloneList(s.Applications[:n])
	return o
}

func (s Snapshot) render(tab Tab) (View, error) {
	v := View{Tab: tab, RefreshedAt: s.RefreshedAt, Error: s.Errors[tab]}
	switch tab {
	case TabOverview:
		v.Overview = s.overview()
		if len(s.Errors) > 0 {
			v.Error = "Some data could not be loaded"
		}
	case TabApplications:
		v.Items = s.Applications
	case TabInquiries:
		v.Items = s.Inquiries
	case TabTeam:
		v.Items = s.Team
	case TabTicker:
		v.Items = s.Ticker
	case TabArticles:
		v.Items = s.Articles
	case TabCarousel:
		v.Items = s.Carousel
	default:
		return View{}, ErrUnknownTab
	}
	return v, nil
}

func (s Snapshot) clone() Snapshot {
	cp := s
	cp.Articles = cloneList(s.Articles)
	cp.Team = cloneList(s.Team)
	cp.Carousel = cloneList(s.Carousel)
	cp.Ticker = cloneList(s.Ticker)
	cp.Applications = cloneList(s.Applications)
	cp.Inquiries = cloneList(s.Inquiries)
	cp.Errors = make(map[Tab]string, len(s.Errors))
	for k, v := range s.Errors {
		cp.Errors[k] = v
	}
	return cp
}

func cloneList[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func findByID[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, item := range items {
		if idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
