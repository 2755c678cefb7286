// Package console implements the staff back-office session: login, the
// polling refresh loop, tab views, the detail overlay and the CRUD editors.
package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/media"
	"github.com/finsite/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Console errors
var (
	ErrClosed         = shared.NewDomainError("CONSOLE_CLOSED", "Console session has ended")
	ErrRecordNotFound = shared.NewDomainError("RECORD_NOT_FOUND", "Record not found in the current view")
	ErrNotConfirmed   = shared.NewDomainError("DELETE_NOT_CONFIRMED", "Delete was not confirmed")
	ErrUnknownKind    = shared.NewDomainError("UNKNOWN_KIND", "Unknown record kind")
)

// RecordKind names anything the console can delete
type RecordKind string

const (
	KindApplications RecordKind = "applications"
	KindInquiries    RecordKind = "inquiries"
	KindArticles     RecordKind = RecordKind(content.KindArticle)
	KindTeam         RecordKind = RecordKind(content.KindTeam)
	KindCarousel     RecordKind = RecordKind(content.KindCarousel)
	KindTicker       RecordKind = RecordKind(content.KindTicker)
)

// Detail is the record bound to the detail overlay
type Detail struct {
	Application *lead.LoanApplication `json:"application,omitempty"`
	Inquiry     *lead.ContactInquiry  `json:"inquiry,omitempty"`
}

// Console is the authenticated workspace of one console session. It owns
// the polling goroutine, the latest snapshot and the open editors.
type Console struct {
	backend  Backend
	interval time.Duration
	metrics  *telemetry.ConsoleMetrics
	logger   *zap.Logger

	// Serializes refreshes, so a write followed by a refresh is observed in order
	refreshMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot
	detail   Detail
	closed   bool

	runMu     sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool

	Articles *Editor[content.Article]
	Team     *Editor[content.TeamMember]
	Carousel *Editor[content.CarouselItem]
	Ticker   *Editor[content.TickerItem]
}

// Options configures a Console
type Options struct {
	PollInterval time.Duration
	Images       ImageGenerator
	Sink         media.ImageSink
	Metrics      *telemetry.ConsoleMetrics
	Logger       *zap.Logger
}

// New creates a stopped console over backend
func New(backend Backend, opts Options) *Console {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.Sink == nil {
		opts.Sink = media.NewDataURISink()
	}
	c := &Console{
		backend:  backend,
		interval: opts.PollInterval,
		metrics:  opts.Metrics,
		logger:   opts.Logger.Named("console"),
		snapshot: Snapshot{Errors: map[Tab]string{}},
	}

	assist := imageAssist{images: opts.Images, sink: opts.Sink}
	c.Articles = newEditor(c, content.KindArticle, content.NewArticleDraft,
		func(s Snapshot) []content.Article { return s.Articles },
		backend.CreateArticle, backend.UpdateArticle, assist)
	c.Team = newEditor(c, content.KindTeam, content.NewTeamMemberDraft,
		func(s Snapshot) []content.TeamMember { return s.Team },
		backend.CreateTeamMember, backend.UpdateTeamMember, assist)
	c.Carousel = newEditor(c, content.KindCarousel, content.NewCarouselDraft,
		func(s Snapshot) []content.CarouselItem { return s.Carousel },
		backend.CreateCarouselItem, backend.UpdateCarouselItem, assist)
	c.Ticker = newEditor(c, content.KindTicker, content.NewTickerDraft,
		func(s Snapshot) []content.TickerItem { return s.Ticker },
		backend.CreateTickerItem, backend.UpdateTickerItem, imageAssist{})
	return c
}

// Start performs an immediate full refresh in the background and then
// refreshes on every poll interval until Stop
func (c *Console) Start(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.isRunning {
		return
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.poll(ctx)
	c.metrics.SessionStarted(ctx)
	c.logger.Debug("Console polling started", zap.Duration("interval", c.interval))
}

// Stop cancels polling and waits for an in-flight refresh to finish. No
// refresh result is applied after Stop returns.
func (c *Console) Stop() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.runMu.Lock()
	if !c.isRunning {
		c.runMu.Unlock()
		return
	}
	c.isRunning = false
	c.cancel()
	c.runMu.Unlock()

	c.wg.Wait()
	c.metrics.SessionEnded(context.Background())
	c.logger.Debug("Console polling stopped")
}

func (c *Console) poll(ctx context.Context) {
	defer c.wg.Done()

	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

type fetchResult struct {
	tab Tab
	err error
}

// Refresh fetches all six collections in parallel and swaps in the new
// snapshot. Individual fetch failures are recorded per tab and do not fail
// the refresh.
func (c *Console) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.isClosed() {
		return ErrClosed
	}

	ctx, span := telemetry.StartSpan(ctx, "console", "refresh")
	start := time.Now()

	var next Snapshot
	results := make([]fetchResult, 6)
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(i int, tab Tab, fn func(context.Context) error) {
		g.Go(func() error {
			results[i] = fetchResult{tab: tab, err: fn(gctx)}
			return nil
		})
	}
	fetch(0, TabArticles, func(ctx context.Context) (err error) {
		next.Articles, err = c.backend.GetArticles(ctx)
		return err
	})
	fetch(1, TabApplications, func(ctx context.Context) (err error) {
		next.Applications, err = c.backend.GetApplications(ctx)
		return err
	})
	fetch(2, TabInquiries, func(ctx context.Context) (err error) {
		next.Inquiries, err = c.backend.GetInquiries(ctx)
		return err
	})
	fetch(3, TabTicker, func(ctx context.Context) (err error) {
		next.Ticker, err = c.backend.GetTicker(ctx)
		return err
	})
	fetch(4, TabCarousel, func(ctx context.Context) (err error) {
		next.Carousel, err = c.backend.GetCarousel(ctx)
		return err
	})
	fetch(5, TabTeam, func(ctx context.Context) (err error) {
		next.Team, err = c.backend.GetTeam(ctx)
		return err
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		telemetry.End(span, err)
		return err
	}

	next.Errors = make(map[Tab]string)
	var failed []string
	for _, r := range results {
		if r.err != nil {
			next.Errors[r.tab] = errorMessage(r.err)
			failed = append(failed, string(r.tab))
		}
	}
	next = next.clone()
	next.RefreshedAt = time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		telemetry.End(span, ErrClosed)
		return ErrClosed
	}
	c.snapshot = next
	c.mu.Unlock()

	c.metrics.RecordRefresh(ctx, time.Since(start), failed)
	if len(failed) > 0 {
		logger.WithLogger(ctx, c.logger).Warn("Console refresh incomplete", zap.Strings("failed", failed))
	}
	telemetry.End(span, nil)
	return nil
}

// Snapshot returns a copy of the latest snapshot
func (c *Console) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone()
}

// View renders one tab from the latest snapshot
func (c *Console) View(tab Tab) (View, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone().render(tab)
}

// OpenApplication binds the detail overlay to an application
func (c *Console) OpenApplication(id string) (lead.LoanApplication, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	app, ok := findByID(c.snapshot.Applications, id, applicationID)
	if !ok {
		return lead.LoanApplication{}, ErrRecordNotFound
	}
	c.detail = Detail{Application: &app}
	return app, nil
}

// OpenInquiry binds the detail overlay to an inquiry
func (c *Console) OpenInquiry(id string) (lead.ContactInquiry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inq, ok := findByID(c.snapshot.Inquiries, id, inquiryID)
	if !ok {
		return lead.ContactInquiry{}, ErrRecordNotFound
	}
	c.detail = Detail{Inquiry: &inq}
	return inq, nil
}

// Detail returns the record bound to the overlay
func (c *Console) Detail() Detail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := Detail{}
	if c.detail.Application != nil {
		app := *c.detail.Application
		d.Application = &app
	}
	if c.detail.Inquiry != nil {
		inq := *c.detail.Inquiry
		d.Inquiry = &inq
	}
	return d
}

// CloseDetail unbinds the overlay
func (c *Console) CloseDetail() {
	c.mu.Lock()
	c.detail = Detail{}
	c.mu.Unlock()
}

// SetApplicationStatus writes the status to the application's origin
// resource, patches the open detail and refreshes. The write error is
// returned to the caller.
func (c *Console) SetApplicationStatus(ctx context.Context, id string, status lead.ApplicationStatus) (lead.LoanApplication, error) {
	app, err := c.application(id)
	if err != nil {
		return lead.LoanApplication{}, err
	}
	if err := app.ChangeStatus(status); err != nil {
		return lead.LoanApplication{}, err
	}

	if err := c.backend.UpdateApplicationStatus(ctx, app.Origin(), id, status); err != nil {
		return lead.LoanApplication{}, err
	}

	c.mu.Lock()
	if c.detail.Application != nil && c.detail.Application.ID == id {
		c.detail.Application.Status = status
	}
	c.mu.Unlock()

	c.refreshAfterWrite(ctx)
	return app, nil
}

// MarkInquiryReplied writes the replied status, patches the open detail
// and refreshes
func (c *Console) MarkInquiryReplied(ctx context.Context, id string) (lead.ContactInquiry, error) {
	c.mu.RLock()
	inq, ok := findByID(c.snapshot.Inquiries, id, inquiryID)
	if !ok && c.detail.Inquiry != nil && c.detail.Inquiry.ID == id {
		inq, ok = *c.detail.Inquiry, true
	}
	c.mu.RUnlock()
	if !ok {
		return lead.ContactInquiry{}, ErrRecordNotFound
	}
	if err := inq.MarkReplied(); err != nil {
		return lead.ContactInquiry{}, err
	}

	if err := c.backend.UpdateInquiryStatus(ctx, id, lead.InquiryReplied); err != nil {
		return lead.ContactInquiry{}, err
	}

	c.mu.Lock()
	if c.detail.Inquiry != nil && c.detail.Inquiry.ID == id {
		c.detail.Inquiry.Status = lead.InquiryReplied
	}
	c.mu.Unlock()

	c.refreshAfterWrite(ctx)
	return inq, nil
}

// Delete removes one record after confirm answers yes, then refreshes
func (c *Console) Delete(ctx context.Context, kind RecordKind, id string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm("Are you sure you want to delete this "+singular(kind)+"?") {
		return ErrNotConfirmed
	}

	var err error
	switch kind {
	case KindApplications:
		var app lead.LoanApplication
		if app, err = c.application(id); err == nil {
			err = c.backend.DeleteApplication(ctx, app.Origin(), id)
		}
	case KindInquiries:
		err = c.backend.DeleteInquiry(ctx, id)
	case KindArticles:
		err = c.backend.DeleteArticle(ctx, id)
	case KindTeam:
		err = c.backend.DeleteTeamMember(ctx, id)
	case KindCarousel:
		err = c.backend.DeleteCarouselItem(ctx, id)
	case KindTicker:
		err = c.backend.DeleteTickerItem(ctx, id)
	default:
		return ErrUnknownKind
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	if (c.detail.Application != nil && c.detail.Application.ID == id) || (c.detail.Inquiry != nil && c.detail.Inquiry.ID == id) {
		c.detail = Detail{}
	}
	c.mu.Unlock()

	c.refreshAfterWrite(ctx)
	return nil
}

// Form returns the editor for a content kind
func (c *Console) Form(kind content.Kind) (Form, error) {
	switch kind {
	case content.KindArticle:
		return c.Articles.Form(), nil
	case content.KindTeam:
		return c.Team.Form(), nil
	case content.KindCarousel:
		return c.Carousel.Form(), nil
	case content.KindTicker:
		return c.Ticker.Form(), nil
	}
	return nil, ErrUnknownKind
}

func (c *Console) application(id string) (lead.LoanApplication, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if app, ok := findByID(c.snapshot.Applications, id, applicationID); ok {
		return app, nil
	}
	if c.detail.Application != nil && c.detail.Application.ID == id {
		return *c.detail.Application, nil
	}
	return lead.LoanApplication{}, ErrRecordNotFound
}

func (c *Console) refreshAfterWrite(ctx context.Context) {
	if err := c.Refresh(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrClosed) {
		logger.WithLogger(ctx, c.logger).Warn("Refresh after write failed", logger.ErrorFields(err)...)
	}
}

func (c *Console) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func applicationID(a lead.LoanApplication) string { return a.ID }

func inquiryID(i lead.ContactInquiry) string { return i.ID }

func singular(kind RecordKind) string {
	switch kind {
	case KindApplications:
		return "application"
	case KindInquiries:
		return "inquiry"
	case KindArticles:
		return "article"
	case KindTeam:
		return "team member"
	case KindCarousel:
		return "carousel item"
	case KindTicker:
		return "ticker item"
	}
	return "record"
}

func errorMessage(err error) string {
	var accessErr *shared.AccessError
	if errors.As(err, &accessErr) && accessErr.Message != "" {
		return accessErr.Message
	}
	return err.Error()
}
