package dataaccess

import (
	"strings"
	"time"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
)

// wireID accepts both Mongo-style "_id" and plain "id"
type wireID struct {
	MongoID string `json:"_id,omitempty"`
	ID      string `json:"id,omitempty"`
}

func (w wireID) resolve() string {
	if w.MongoID != "" {
		return w.MongoID
	}
	return w.ID
}

// normalizeDate trims timestamps such as 2024-01-03T10:00:00.000Z to the calendar date
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(content.DateLayout) {
		if _, err := time.Parse(content.DateLayout, s[:len(content.DateLayout)]); err == nil {
			return s[:len(content.DateLayout)]
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type articleWire struct {
	wireID
	Headline  string `json:"headline"`
	Excerpt   string `json:"excerpt"`
	Category  string `json:"category"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt,omitempty"`
	ReadTime  string `json:"readTime"`
	Gradient  string `json:"gradient"`
	Image     string `json:"image,omitempty"`
	Content   string `json:"content,omitempty"`
}

func articleFromWire(w articleWire) content.Article {
	return content.Article{
		ID:            w.resolve(),
		Title:         w.Headline,
		Excerpt:       w.Excerpt,
		Category:      content.ArticleCategory(titleCase(w.Category)),
		Author:        w.Author,
		Date:          normalizeDate(firstNonEmpty(w.Date, w.CreatedAt)),
		ReadTime:      w.ReadTime,
		ImageGradient: w.Gradient,
		ImageURL:      w.Image,
		Content:       w.Content,
	}
}

func articleToWire(a content.Article) articleWire {
	return articleWire{
		Headline: a.Title,
		Excerpt:  a.Excerpt,
		Category: string(a.Category),
		Author:   a.Author,
		Date:     a.Date,
		ReadTime: a.ReadTime,
		Gradient: a.ImageGradient,
		Image:    a.ImageURL,
		Content:  a.Content,
	}
}

type teamWire struct {
	wireID
	Name           string `json:"name"`
	Role           string `json:"role"`
	Bio            string `json:"bio"`
	Specialization string `json:"specialization"`
	Gradient       string `json:"gradient"`
	Image          string `json:"image,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Email          string `json:"email,omitempty"`
}

func teamFromWire(w teamWire) content.TeamMember {
	return content.TeamMember{
		ID:             w.resolve(),
		Name:           w.Name,
		Role:           w.Role,
		Bio:            w.Bio,
		Specialization: w.Specialization,
		ImageGradient:  w.Gradient,
		ImageURL:       w.Image,
		LinkedIn:       w.LinkedIn,
		Twitter:        w.Twitter,
		Email:          w.Email,
	}
}

func teamToWire(m content.TeamMember) teamWire {
	return teamWire{
		Name:           m.Name,
		Role:           m.Role,
		Bio:            m.Bio,
		Specialization: m.Specialization,
		Gradient:       m.ImageGradient,
		Image:          m.ImageURL,
		LinkedIn:       m.LinkedIn,
		Twitter:        m.Twitter,
		Email:          m.Email,
	}
}

type carouselWire struct {
	wireID
	Type      string `json:"type"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Tag       string `json:"tag"`
	LinkText  string `json:"linkText"`
	Gradient  string `json:"gradient"`
	Image     string `json:"image,omitempty"`
	StatLabel string `json:"statLabel,omitempty"`
	StatValue string `json:"statValue,omitempty"`
}

func carouselFromWire(w carouselWire) content.CarouselItem {
	return content.CarouselItem{
		ID:            w.resolve(),
		Type:          content.CarouselType(strings.ToLower(strings.TrimSpace(w.Type))),
		Title:         w.Title,
		Summary:       w.Summary,
		Tag:           w.Tag,
		LinkText:      w.LinkText,
		ImageGradient: w.Gradient,
		ImageURL:      w.Image,
		StatLabel:     w.StatLabel,
		StatValue:     w.StatValue,
	}
}

func carouselToWire(c content.CarouselItem) carouselWire {
	return carouselWire{
		Type:      string(c.Type),
		Title:     c.Title,
		Summary:   c.Summary,
		Tag:       c.Tag,
		LinkText:  c.LinkText,
		Gradient:  c.ImageGradient,
		Image:     c.ImageURL,
		StatLabel: c.StatLabel,
		StatValue: c.StatValue,
	}
}

type tickerWire struct {
	wireID
	Text     string `json:"text"`
	Category string `json:"category"`
	IsManual bool   `json:"isManual"`
}

func tickerFromWire(w tickerWire) content.TickerItem {
	return content.TickerItem{
		ID:       w.resolve(),
		Text:     w.Text,
		Category: content.TickerCategory(titleCase(w.Category)),
		IsManual: w.IsManual,
	}
}

func tickerToWire(t content.TickerItem) tickerWire {
	return tickerWire{
		Text:     t.Text,
		Category: string(t.Category),
		IsManual: t.IsManual,
	}
}

// applicationWire covers both the finance and support resources; which of
// LoanType/ServiceType is populated depends on the resource.
type applicationWire struct {
	wireID
	Date         string `json:"date,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	LoanType     string `json:"loanType,omitempty"`
	ServiceType  string `json:"serviceType,omitempty"`
	BusinessName string `json:"businessName"`
	CACNumber    string `json:"cacNumber"`
	Industry     string `json:"industry"`
	FullName     string `json:"fullName"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Description  string `json:"description"`
	Status       string `json:"status"`
}

func applicationFromWire(w applicationWire, origin lead.Origin) lead.LoanApplication {
	app := lead.LoanApplication{
		ID:           w.resolve(),
		Date:         normalizeDate(firstNonEmpty(w.Date, w.CreatedAt)),
		BusinessName: w.BusinessName,
		CACNumber:    w.CACNumber,
		Industry:     w.Industry,
		FullName:     w.FullName,
		Role:         w.Role,
		Email:        w.Email,
		Phone:        w.Phone,
		Description:  w.Description,
		Status:       lead.ApplicationStatus(titleCase(w.Status)),
	}
	if app.Status == "" {
		app.Status = lead.ApplicationPending
	}
	// The origin resource is the discriminator
	if origin == lead.OriginSupport {
		app.Type = lead.TrackBusinessSupport
		app.ServiceType = firstNonEmpty(w.ServiceType, w.LoanType)
	} else {
		app.Type = lead.TrackFinancial
		app.LoanType = firstNonEmpty(w.LoanType, w.ServiceType)
	}
	return app
}

func applicationToWire(a lead.LoanApplication) applicationWire {
	w := applicationWire{
		Date:         a.Date,
		BusinessName: a.BusinessName,
		CACNumber:    a.CACNumber,
		Industry:     a.Industry,
		FullName:     a.FullName,
		Role:         a.Role,
		Email:        a.Email,
		Phone:        a.Phone,
		Description:  a.Description,
		Status:       string(a.Status),
	}
	if a.Type == lead.TrackBusinessSupport {
		w.ServiceType = a.ServiceType
	} else {
		w.LoanType = a.LoanType
	}
	return w
}

type inquiryWire struct {
	wireID
	Date      string `json:"date,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Status    string `json:"status"`
}

func inquiryFromWire(w inquiryWire) lead.ContactInquiry {
	inq := lead.ContactInquiry{
		ID:       w.resolve(),
		Date:     normalizeDate(firstNonEmpty(w.Date, w.CreatedAt)),
		FullName: w.FullName,
		Email:    w.Email,
		Subject:  w.Subject,
		Message:  w.Message,
		Status:   lead.InquiryStatus(titleCase(w.Status)),
	}
	if inq.Status == "" {
		inq.Status = lead.InquiryUnread
	}
	return inq
}

func inquiryToWire(c lead.ContactInquiry) inquiryWire {
	return inquiryWire{
		Date:     c.Date,
		FullName: c.FullName,
		Email:    c.Email,
		Subject:  c.Subject,
		Message:  c.Message,
		Status:   string(c.Status),
	}
}
