package console

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend that counts calls
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error

	articles     []content.Article
	team         []content.TeamMember
	carousel     []content.CarouselItem
	ticker       []content.TickerItem
	applications []lead.LoanApplication
	inquiries    []lead.ContactInquiry

	statusWrites []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeBackend) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) setFail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func list[T any](f *fakeBackend, name string, items []T) ([]T, error) {
	if err := f.hit(name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneList(items), nil
}

func (f *fakeBackend) GetArticles(context.Context) ([]content.Article, error) {
	return list(f, "GetArticles", f.articles)
}

func (f *fakeBackend) CreateArticle(_ context.Context, a content.Article) (content.Article, error) {
	if err := f.hit("CreateArticle"); err != nil {
		return content.Article{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = "new-article"
	f.articles = append(f.articles, a)
	return a, nil
}

func (f *fakeBackend) UpdateArticle(_ context.Context, a content.Article) (content.Article, error) {
	if err := f.hit("UpdateArticle"); err != nil {
		return content.Article{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.articles {
		if f.articles[i].ID == a.ID {
			f.articles[i] = a
		}
	}
	return a, nil
}

func (f *fakeBackend) DeleteArticle(context.Context, string) error { return f.hit("DeleteArticle") }

func (f *fakeBackend) GetTeam(context.Context) ([]content.TeamMember, error) {
	return list(f, "GetTeam", f.team)
}

func (f *fakeBackend) CreateTeamMember(_ context.Context, m content.TeamMember) (content.TeamMember, error) {
	return m, f.hit("CreateTeamMember")
}

func (f *fakeBackend) UpdateTeamMember(_ context.Context, m content.TeamMember) (content.TeamMember, error) {
	return m, f.hit("UpdateTeamMember")
}

func (f *fakeBackend) DeleteTeamMember(context.Context, string) error { return f.hit("DeleteTeamMember") }

func (f *fakeBackend) GetCarousel(context.Context) ([]content.CarouselItem, error) {
	return list(f, "GetCarousel", f.carousel)
}

func (f *fakeBackend) CreateCarouselItem(_ context.Context, c content.CarouselItem) (content.CarouselItem, error) {
	return c, f.hit("CreateCarouselItem")
}

func (f *fakeBackend) UpdateCarouselItem(_ context.Context, c content.CarouselItem) (content.CarouselItem, error) {
	return c, f.hit("UpdateCarouselItem")
}

func (f *fakeBackend) DeleteCarouselItem(context.Context, string) error {
	return f.hit("DeleteCarouselItem")
}

func (f *fakeBackend) GetTicker(context.Context) ([]content.TickerItem, error) {
	return list(f, "GetTicker", f.ticker)
}

func (f *fakeBackend) CreateTickerItem(_ context.Context, t content.TickerItem) (content.TickerItem, error) {
	return t, f.hit("CreateTickerItem")
}

func (f *fakeBackend) UpdateTickerItem(_ context.Context, t content.TickerItem) (content.TickerItem, error) {
	return t, f.hit("UpdateTickerItem")
}

func (f *fakeBackend) DeleteTickerItem(context.Context, string) error { return f.hit("DeleteTickerItem") }

func (f *fakeBackend) GetApplications(context.Context) ([]lead.LoanApplication, error) {
	return list(f, "GetApplications", f.applications)
}

func (f *fakeBackend) UpdateApplicationStatus(_ context.Context, origin lead.Origin, id string, status lead.ApplicationStatus) error {
	if err := f.hit("UpdateApplicationStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusWrites = append(f.statusWrites, string(origin)+"/"+id+"="+string(status))
	for i := range f.applications {
		if f.applications[i].ID == id {
			f.applications[i].Status = status
		}
	}
	return nil
}

func (f *fakeBackend) DeleteApplication(_ context.Context, origin lead.Origin, id string) error {
	if err := f.hit("DeleteApplication"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusWrites = append(f.statusWrites, "delete "+string(origin)+"/"+id)
	return nil
}

func (f *fakeBackend) GetInquiries(context.Context) ([]lead.ContactInquiry, error) {
	return list(f, "GetInquiries", f.inquiries)
}

func (f *fakeBackend) UpdateInquiryStatus(_ context.Context, id string, status lead.InquiryStatus) error {
	if err := f.hit("UpdateInquiryStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.inquiries {
		if f.inquiries[i].ID == id {
			f.inquiries[i].Status = status
		}
	}
	return nil
}

func (f *fakeBackend) DeleteInquiry(context.Context, string) error { return f.hit("DeleteInquiry") }

// MockImages is a mock implementation of ImageGenerator
type MockImages struct {
	mock.Mock
}

func (m *MockImages) Generate(ctx context.Context, subject string) (string, error) {
	args := m.Called(ctx, subject)
	return args.String(0), args.Error(1)
}

func seededBackend() *fakeBackend {
	f := newFakeBackend()
	f.articles = []content.Article{{ID: "a1", Title: "Rates", Excerpt: "Why rates move", Category: content.CategoryStrategy}}
	f.ticker = []content.TickerItem{
		{ID: "t1", Text: "Office closed", Category: content.TickerUrgent},
		{ID: "t2", Text: "Rates flat", Category: content.TickerMarket},
	}
	f.applications = []lead.LoanApplication{
		{ID: "f1", Type: lead.TrackFinancial, LoanType: "Working Capital", Status: lead.ApplicationPending},
		{ID: "s1", Type: lead.TrackBusinessSupport, ServiceType: "Market Expansion", Status: lead.ApplicationApproved},
	}
	f.inquiries = []lead.ContactInquiry{
		{ID: "i1", Email: "a@example.com", Message: "Hi", Status: lead.InquiryUnread},
		{ID: "i2", Email: "b@example.com", Message: "Yo", Status: lead.InquiryReplied},
	}
	return f
}

func TestConsole_PollsImmediatelyThenOnInterval(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, Options{PollInterval: 50 * time.Millisecond})
	c.Start(context.Background())

	require.Eventually(t, func() bool { return backend.count("GetArticles") >= 1 }, 40*time.Millisecond, time.Millisecond,
		"first refresh must not wait for the interval")
	for _, name := range []string{"GetApplications", "GetInquiries", "GetTicker", "GetCarousel", "GetTeam"} {
		require.Eventually(t, func() bool { return backend.count(name) >= 1 }, 40*time.Millisecond, time.Millisecond, name)
	}
	require.Eventually(t, func() bool { return backend.count("GetArticles") >= 3 }, time.Second, 5*time.Millisecond)

	c.Stop()
	after := backend.count("GetArticles")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, backend.count("GetArticles"), "no fetch after stop")
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
}

func TestConsole_RefreshRecordsPerTabErrors(t *testing.T) {
	backend := seededBackend()
	backend.setFail("GetInquiries", &shared.AccessError{Op: "inquiries.list", Kind: shared.KindServerError, StatusCode: 500, Message: "Internal Server Error"})

	c := New(backend, Options{})
	require.NoError(t, c.Refresh(context.Background()))

	view, err := c.View(TabInquiries)
	require.NoError(t, err)
	assert.Equal(t, "Internal Server Error", view.Error)
	assert.Empty(t, view.Items)

	view, err = c.View(TabArticles)
	require.NoError(t, err)
	assert.Empty(t, view.Error)
	assert.Len(t, view.Items, 1)

	overview, err := c.View(TabOverview)
	require.NoError(t, err)
	require.NotNil(t, overview.Overview)
	assert.Equal(t, 1, overview.Overview.PendingApplications)
	assert.Equal(t, 0, overview.Overview.UnreadInquiries)
	assert.Equal(t, 1, overview.Overview.UrgentTicker)
	assert.Equal(t, 2, overview.Overview.TotalApplications)
	assert.NotEmpty(t, overview.Error)

	_, err = c.View(Tab("billing"))
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestConsole_SetApplicationStatus(t *testing.T) {
	backend := seededBackend()
	c := New(backend, Options{})
	require.NoError(t, c.Refresh(context.Background()))

	_, err := c.OpenApplication("s1")
	require.NoError(t, err)
	refreshes := backend.count("GetApplications")

	_, err = c.SetApplicationStatus(context.Background(), "s1", lead.ApplicationDeclined)
	require.NoError(t, err)

	assert.Equal(t, []string{"support/s1=Declined"}, backend.statusWrites)
	assert.Equal(t, lead.ApplicationDeclined, c.Detail().Application.Status)
	assert.Equal(t, refreshes+1, backend.count("GetApplications"))

	t.Run("write error is returned and detail untouched", func(t *testing.T) {
		backend.setFail("UpdateApplicationStatus", shared.NewStatusError("applications.update_status.support", http.StatusUnauthorized, ""))
		_, err := c.SetApplicationStatus(context.Background(), "s1", lead.ApplicationApproved)
		assert.True(t, shared.IsKind(err, shared.KindUnauthorized))
		assert.Equal(t, lead.ApplicationDeclined, c.Detail().Application.Status)
	})

	t.Run("invalid transition is rejected before writing", func(t *testing.T) {
		_, err := c.SetApplicationStatus(context.Background(), "f1", lead.ApplicationPending)
		var domainErr *shared.DomainError
		assert.True(t, errors.As(err, &domainErr))
	})
}

func TestConsole_MarkInquiryReplied(t *testing.T) {
	backend := seededBackend()
	c := New(backend, Options{})
	require.NoError(t, c.Refresh(context.Background()))
	_, err := c.OpenInquiry("i1")
	require.NoError(t, err)

	_, err = c.MarkInquiryReplied(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, lead.InquiryReplied, c.Detail().Inquiry.Status)

	_, err = c.MarkInquiryReplied(context.Background(), "i2")
	assert.Error(t, err, "already replied")
	_, err = c.MarkInquiryReplied(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestConsole_DeleteRequiresConfirmation(t *testing.T) {
	backend := seededBackend()
	c := New(backend, Options{})
	require.NoError(t, c.Refresh(context.Background()))

	err := c.Delete(context.Background(), KindArticles, "a1", Confirmed(false))
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 0, backend.count("DeleteArticle"))

	var prompt string
	err = c.Delete(context.Background(), KindArticles, "a1", ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	}))
	require.NoError(t, err)
	assert.Contains(t, prompt, "article")
	assert.Equal(t, 1, backend.count("DeleteArticle"))

	require.NoError(t, c.Delete(context.Background(), KindApplications, "f1", Confirmed(true)))
	assert.Contains(t, backend.statusWrites, "delete finance/f1")

	assert.ErrorIs(t, c.Delete(context.Background(), RecordKind("users"), "x", Confirmed(true)), ErrUnknownKind)
}

func TestEditor_CreateAndEdit(t *testing.T) {
	backend := seededBackend()
	c := New(backend, Options{})
	require.NoError(t, c.Refresh(context.Background()))

	draft := c.Articles.BeginCreate()
	assert.Empty(t, draft.ID)
	assert.Equal(t, content.CategoryStrategy, draft.Category)

	_, err := c.Articles.Save(context.Background())
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "empty title fails validation")
	_, open := c.Articles.Working()
	assert.True(t, open, "form stays open after a failed save")

	_, err = c.Articles.Update(func(a *content.Article) {
		a.Title = "Working Capital 101"
		a.Excerpt = "A primer"
		a.ID = "ignored"
	})
	require.NoError(t, err)
	saved, err := c.Articles.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-article", saved.ID)
	assert.Equal(t, 1, backend.count("CreateArticle"))

	working, open := c.Articles.Working()
	assert.False(t, open)
	assert.Empty(t, working.Title, "working copy resets to defaults")
	assert.Len(t, c.Snapshot().Articles, 2, "save triggers a refresh")

	edit, err := c.Articles.BeginEdit("a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", edit.ID)
	_, err = c.Articles.Update(func(a *content.Article) { a.Title = "Rates, revisited" })
	require.NoError(t, err)
	_, err = c.Articles.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("UpdateArticle"))
	assert.Equal(t, 1, backend.count("CreateArticle"))

	_, err = c.Articles.BeginEdit("missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestEditor_ImageAssist(t *testing.T) {
	images := new(MockImages)
	images.On("Generate", mock.Anything, "Green Bonds").Return("data:image/png;base64,AAAA", nil)
	images.On("Generate", mock.Anything, "Broken").Return("", errors.New("quota exceeded"))

	c := New(seededBackend(), Options{Images: images})

	c.Articles.BeginCreate()
	_, err := c.Articles.Update(func(a *content.Article) { a.Title = "Green Bonds" })
	require.NoError(t, err)
	got, err := c.Articles.GenerateImage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", got.ImageURL)

	_, err = c.Articles.Update(func(a *content.Article) { a.Title = "Broken" })
	require.NoError(t, err)
	_, err = c.Articles.GenerateImage(context.Background())
	require.Error(t, err)
	working, _ := c.Articles.Working()
	assert.Equal(t, "data:image/png;base64,AAAA", working.ImageURL, "failure leaves the field untouched")

	png := []byte("\x89PNG\r\n\x1a\n0000")
	got, err = c.Articles.AttachUpload(context.Background(), "cover.png", "image/png", png)
	require.NoError(t, err)
	assert.Contains(t, got.ImageURL, "data:image/png;base64,")

	_, err = c.Ticker.Form().GenerateImage(context.Background())
	assert.ErrorIs(t, err, ErrNoImageField)
	assert.False(t, c.Ticker.Form().SupportsImages())
}

func TestForm_Patch(t *testing.T) {
	c := New(seededBackend(), Options{})
	form, err := c.Form(content.KindTicker)
	require.NoError(t, err)

	_, err = form.Patch([]byte(`{"text":"x"}`))
	assert.ErrorIs(t, err, ErrNoForm)

	form.BeginCreate()
	item, err := form.Patch([]byte(`{"text":"Holiday notice","category":"Urgent"}`))
	require.NoError(t, err)
	assert.Equal(t, "Holiday notice", item.(content.TickerItem).Text)

	_, err = form.Patch([]byte(`{"text":`))
	require.Error(t, err)
	working, _ := form.Working()
	assert.Equal(t, "Holiday notice", working.(content.TickerItem).Text, "malformed patch is not applied")

	_, err = c.Form(content.Kind("users"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}
