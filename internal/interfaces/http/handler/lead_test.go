package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/finsite/backend/internal/application/intake"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInquirySaver is a mock implementation of intake.InquirySaver
type MockInquirySaver struct {
	mock.Mock
}

func (m *MockInquirySaver) SaveInquiry(ctx context.Context, inq lead.ContactInquiry) (lead.ContactInquiry, error) {
	args := m.Called(ctx, inq)
	return args.Get(0).(lead.ContactInquiry), args.Error(1)
}

func (m *MockInquirySaver) SaveNewsletterSubscription(ctx context.Context, sub lead.NewsletterSubscription) (shared.WriteResult, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(shared.WriteResult), args.Error(1)
}

func leadRouter(saver intake.InquirySaver) *gin.Engine {
	router := gin.New()
	NewLeadHandler(intake.NewContactService(saver, nil)).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestLeadHandler_Subscribe(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		result      shared.WriteResult
		err         error
		wantStatus  int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "subscribed",
			email:       "ada@example.com",
			result:      shared.WriteResult{Success: true, Message: "Subscribed", StatusCode: http.StatusOK},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: "Subscribed",
		},
		{
			name:        "already subscribed",
			email:       "ada@example.com",
			result:      shared.WriteResult{Success: false, Message: "Already subscribed", StatusCode: http.StatusConflict},
			err:         shared.NewStatusError("newsletter.create", http.StatusConflict, "Already subscribed"),
			wantStatus:  http.StatusConflict,
			wantMessage: "Already subscribed",
		},
		{
			name:        "invalid email never reaches the saver",
			email:       "not-an-email",
			wantStatus:  http.StatusBadRequest,
			wantMessage: intake.ErrInvalidEmail.Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := new(MockInquirySaver)
			saver.On("SaveNewsletterSubscription", mock.Anything, lead.NewsletterSubscription{Email: tt.email}).
				Return(tt.result, tt.err).Maybe()

			w := doJSON(t, leadRouter(saver), http.MethodPost, "/api/v1/newsletter", SubscribeRequest{Email: tt.email})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w, nil)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			if tt.wantStatus == http.StatusBadRequest {
				saver.AssertNotCalled(t, "SaveNewsletterSubscription", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestLeadHandler_SubmitInquiry(t *testing.T) {
	t.Run("stores an unread inquiry", func(t *testing.T) {
		saver := new(MockInquirySaver)
		saver.On("SaveInquiry", mock.Anything, mock.MatchedBy(func(inq lead.ContactInquiry) bool {
			return inq.Email == "ada@example.com" && inq.Status == lead.InquiryUnread && inq.Date != ""
		})).Return(lead.ContactInquiry{ID: "inq-1", Email: "ada@example.com", Status: lead.InquiryUnread}, nil)

		w := doJSON(t, leadRouter(saver), http.MethodPost, "/api/v1/contact", ContactRequest{
			FullName: "Ada Obi",
			Email:    " ada@example.com ",
			Subject:  "Loan question",
			Message:  "Do you fund equipment?",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		var saved lead.ContactInquiry
		decode(t, w, &saved)
		assert.Equal(t, "inq-1", saved.ID)
		saver.AssertExpectations(t)
	})

	t.Run("missing message is a validation error", func(t *testing.T) {
		saver := new(MockInquirySaver)

		w := doJSON(t, leadRouter(saver), http.MethodPost, "/api/v1/contact", map[string]string{"email": "ada@example.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		saver.AssertNotCalled(t, "SaveInquiry", mock.Anything, mock.Anything)
	})

	t.Run("malformed email", func(t *testing.T) {
		saver := new(MockInquirySaver)

		w := doJSON(t, leadRouter(saver), http.MethodPost, "/api/v1/contact", ContactRequest{Email: "nope", Message: "hi"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidationFormat, decode(t, w, nil).Error.Code)
	})

	t.Run("upstream unreachable", func(t *testing.T) {
		saver := new(MockInquirySaver)
		saver.On("SaveInquiry", mock.Anything, mock.Anything).
			Return(lead.ContactInquiry{}, shared.NewTransportError("inquiries.create", assert.AnError))

		w := doJSON(t, leadRouter(saver), http.MethodPost, "/api/v1/contact", ContactRequest{Email: "ada@example.com", Message: "hi"})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUpstreamUnavailable, decode(t, w, nil).Error.Code)
	})
}
