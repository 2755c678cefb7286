package dataaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/restclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArticles is an in-memory /article resource speaking the wire format
type fakeArticles struct {
	mu      sync.Mutex
	records map[string]map[string]any
	nextID  int
	auth    []string
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{records: map[string]map[string]any{}}
}

func (f *fakeArticles) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/article"), "/")
	switch {
	case r.Method == http.MethodGet && id == "":
		list := make([]map[string]any, 0, len(f.records))
		for _, rec := range f.records {
			list = append(list, rec)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": list})
	case r.Method == http.MethodPost:
		var rec map[string]any
		json.NewDecoder(r.Body).Decode(&rec)
		f.nextID++
		rec["_id"] = fmt.Sprintf("art-%d", f.nextID)
		f.records[rec["_id"].(string)] = rec
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodPatch:
		if _, ok := f.records[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Article not found"})
			return
		}
		var rec map[string]any
		json.NewDecoder(r.Body).Decode(&rec)
		rec["_id"] = id
		f.records[id] = rec
		json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodDelete:
		delete(f.records, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := restclient.New(restclient.Config{
		BaseURL:    server.URL + "/api",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return New(client, nil)
}

func TestStore_ArticleRoundTrip(t *testing.T) {
	fake := newFakeArticles()
	mux := http.NewServeMux()
	mux.Handle("/api/article", fake)
	mux.Handle("/api/article/", fake)
	store := newStore(t, mux).WithToken("admin-token")
	ctx := context.Background()

	draft := content.NewArticleDraft()
	draft.Title = "T"
	draft.Excerpt = "E"
	draft.Category = content.CategoryStrategy

	created, err := store.CreateArticle(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "art-1", created.ID)

	// The wire uses headline, not title
	assert.Equal(t, "T", fake.records["art-1"]["headline"])
	assert.NotContains(t, fake.records["art-1"], "title")

	articles, err := store.GetArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "T", articles[0].Title)
	assert.Equal(t, "E", articles[0].Excerpt)
	assert.Equal(t, content.CategoryStrategy, articles[0].Category)

	created.Title = "T2"
	updated, err := store.UpdateArticle(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "art-1", updated.ID)

	require.NoError(t, store.DeleteArticle(ctx, "art-1"))
	articles, err = store.GetArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)

	for _, header := range fake.auth {
		assert.Equal(t, "Bearer admin-token", header)
	}
}

func TestStore_UpdateMissingArticleIsNotFound(t *testing.T) {
	fake := newFakeArticles()
	mux := http.NewServeMux()
	mux.Handle("/api/article/", fake)
	store := newStore(t, mux)

	_, err := store.UpdateArticle(context.Background(), content.Article{ID: "nope", Title: "x"})

	var accessErr *shared.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, shared.KindNotFound, accessErr.Kind)
	assert.Equal(t, http.StatusNotFound, accessErr.StatusCode)
	assert.Equal(t, "Article not found", accessErr.Message)
	assert.Equal(t, "articles.update", accessErr.Op)
}

func TestStore_ListMapping(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/article":
			w.Write([]byte(`[{"_id":"a1","headline":"H","image":"https://img/x.png","gradient":"g","category":"real estate","createdAt":"2024-03-01T09:30:00.000Z"}]`))
		case "/api/ticker":
			w.Write([]byte(`{"data":[{"id":"t1","text":"Alert","category":"URGENT","isManual":true},{"id":"t2","text":"Rates","category":"market"}]}`))
		case "/api/carousel":
			w.Write([]byte(`[{"id":"c1","type":"Product","title":"Card","statLabel":"Rate","statValue":"9%"}]`))
		case "/api/team":
			w.Write([]byte(`null`))
		}
	}))
	ctx := context.Background()

	articles, err := store.GetArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, content.Article{
		ID:            "a1",
		Title:         "H",
		Category:      content.CategoryRealEstate,
		Date:          "2024-03-01",
		ImageGradient: "g",
		ImageURL:      "https://img/x.png",
	}, articles[0])

	ticker, err := store.GetTicker(ctx)
	require.NoError(t, err)
	require.Len(t, ticker, 2)
	assert.Equal(t, content.TickerUrgent, ticker[0].Category)
	assert.True(t, ticker[0].IsManual)
	assert.Equal(t, content.TickerMarket, ticker[1].Category)

	carousel, err := store.GetCarousel(ctx)
	require.NoError(t, err)
	assert.Equal(t, content.CarouselProduct, carousel[0].Type)
	assert.Equal(t, "9%", carousel[0].StatValue)

	team, err := store.GetTeam(ctx)
	require.NoError(t, err)
	assert.Empty(t, team)
}

func TestStore_GetApplications_MergesAndSorts(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/finance":
			w.Write([]byte(`[{"_id":"f1","date":"2024-01-02","loanType":"Working Capital","fullName":"A","status":"pending"},
				{"_id":"f0","date":"2023-12-30","loanType":"Trade Finance","status":"Approved"}]`))
		case "/api/support":
			w.Write([]byte(`{"data":[{"_id":"s1","date":"2024-01-03","serviceType":"Business Advisory","fullName":"B"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	apps, err := store.GetApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)

	assert.Equal(t, "s1", apps[0].ID)
	assert.Equal(t, lead.TrackBusinessSupport, apps[0].Type)
	assert.Equal(t, "Business Advisory", apps[0].ServiceType)
	assert.Equal(t, lead.ApplicationPending, apps[0].Status)
	assert.Equal(t, lead.OriginSupport, apps[0].Origin())

	assert.Equal(t, "f1", apps[1].ID)
	assert.Equal(t, lead.TrackFinancial, apps[1].Type)
	assert.Equal(t, "Working Capital", apps[1].LoanType)
	assert.Equal(t, lead.ApplicationPending, apps[1].Status)

	assert.Equal(t, "f0", apps[2].ID)
	assert.Equal(t, lead.ApplicationApproved, apps[2].Status)
}

func TestStore_GetApplications_FailsWhenOneResourceFails(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/support" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))

	apps, err := store.GetApplications(context.Background())
	assert.Nil(t, apps)
	assert.True(t, shared.IsKind(err, shared.KindServerError))
}

func TestStore_ApplicationWritesHitOneOrigin(t *testing.T) {
	var mu sync.Mutex
	var hits []string
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"data":{"_id":"new-1"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	ctx := context.Background()

	require.NoError(t, store.UpdateApplicationStatus(ctx, lead.OriginSupport, "s1", lead.ApplicationApproved))
	require.NoError(t, store.DeleteApplication(ctx, lead.OriginFinance, "f1"))

	saved, err := store.SaveApplication(ctx, lead.LoanApplication{
		Type:        lead.TrackBusinessSupport,
		ServiceType: "Market Expansion",
		FullName:    "B",
		Email:       "b@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", saved.ID)
	assert.Equal(t, lead.ApplicationPending, saved.Status)
	assert.NotEmpty(t, saved.Date)

	assert.Equal(t, []string{"PATCH /api/support/s1", "DELETE /api/finance/f1", "POST /api/support"}, hits)
}

func TestStore_SaveApplication_RejectsInvalid(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("service must not be called")
	}))

	_, err := store.SaveApplication(context.Background(), lead.LoanApplication{Type: lead.TrackFinancial})
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestStore_Newsletter(t *testing.T) {
	t.Run("conflict passes server message through", func(t *testing.T) {
		store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "/api/contact", r.URL.Path)
			assert.Equal(t, lead.NewsletterSubject, body["subject"])
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"Email already subscribed"}`))
		}))

		result, err := store.SaveNewsletterSubscription(context.Background(), lead.NewsletterSubscription{Email: "dup@example.com"})
		assert.Error(t, err)
		assert.Equal(t, shared.WriteResult{Success: false, Message: "Email already subscribed", StatusCode: http.StatusConflict}, result)
	})

	t.Run("success", func(t *testing.T) {
		store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

		result, err := store.SaveNewsletterSubscription(context.Background(), lead.NewsletterSubscription{Email: "new@example.com"})
		require.NoError(t, err)
		assert.True(t, result.Success)
	})
}

func TestStore_Inquiries(t *testing.T) {
	var patched map[string]string
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"_id":"i1","createdAt":"2024-02-01T00:00:00Z","email":"a@b.c","subject":"Hi","status":"unread"},
				{"_id":"i2","date":"2024-02-03","email":"c@d.e","subject":"Newsletter Subscription","status":"Replied"}]`))
		case http.MethodPatch:
			assert.Equal(t, "/api/contact/i1", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&patched)
		}
	}))
	ctx := context.Background()

	inquiries, err := store.GetInquiries(ctx)
	require.NoError(t, err)
	require.Len(t, inquiries, 2)
	assert.Equal(t, "i2", inquiries[0].ID)
	assert.True(t, inquiries[0].IsNewsletter())
	assert.Equal(t, lead.InquiryUnread, inquiries[1].Status)
	assert.Equal(t, "2024-02-01", inquiries[1].Date)

	require.NoError(t, store.UpdateInquiryStatus(ctx, "i1", lead.InquiryReplied))
	assert.Equal(t, "Replied", patched["status"])
}

func TestStore_Login(t *testing.T) {
	store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/auth/login":
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Invalid credentials"}`))
				return
			}
			w.Write([]byte(`{"requires2FA":true,"tempToken":"tmp-1","message":"Code sent"}`))
		case "/api/auth/verify-2fa":
			if body["tempToken"] != "tmp-1" || body["code"] != "123456" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"Invalid code"}`))
				return
			}
			w.Write([]byte(`{"accessToken":"jwt-1"}`))
		}
	}))
	ctx := context.Background()

	t.Run("invalid credentials", func(t *testing.T) {
		result, err := store.Login(ctx, "staff@example.com", "wrong")
		assert.True(t, shared.IsKind(err, shared.KindUnauthorized))
		assert.False(t, result.Success)
		assert.Equal(t, http.StatusUnauthorized, result.StatusCode)
		assert.Equal(t, "Invalid credentials", result.Message)
	})

	t.Run("second factor flow", func(t *testing.T) {
		result, err := store.Login(ctx, "staff@example.com", "secret")
		require.NoError(t, err)
		assert.True(t, result.RequiresSecondFactor)
		assert.Equal(t, "tmp-1", result.TempToken)
		assert.Empty(t, result.AccessToken)

		verified, err := store.VerifySecondFactor(ctx, result.TempToken, "123456")
		require.NoError(t, err)
		assert.Equal(t, "jwt-1", verified.AccessToken)

		_, err = store.VerifySecondFactor(ctx, result.TempToken, "000000")
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})
}

func TestStore_ErrorKinds(t *testing.T) {
	t.Run("network unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := restclient.New(restclient.Config{BaseURL: url, Timeout: time.Second, RetryDelay: time.Millisecond})
		require.NoError(t, err)
		_, err = New(client, nil).GetTicker(context.Background())
		assert.True(t, shared.IsKind(err, shared.KindNetworkUnavailable))
	})

	t.Run("undecodable body", func(t *testing.T) {
		store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}))
		_, err := store.GetTeam(context.Background())
		assert.True(t, shared.IsKind(err, shared.KindUnknown))
	})

	t.Run("forbidden", func(t *testing.T) {
		store := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		err := store.DeleteTickerItem(context.Background(), "t1")
		assert.True(t, shared.IsKind(err, shared.KindUnauthorized))
	})
}
