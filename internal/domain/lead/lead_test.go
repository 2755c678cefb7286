package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() LoanApplication {
	return LoanApplication{
		ID:       "a1",
		Date:     "2024-01-02",
		Type:     TrackFinancial,
		LoanType: "Working Capital",
		FullName: "Ada Obi",
		Email:    "ada@example.com",
		Status:   ApplicationPending,
	}
}

func TestTrack_Origin(t *testing.T) {
	assert.Equal(t, OriginFinance, TrackFinancial.Origin())
	assert.Equal(t, OriginSupport, TrackBusinessSupport.Origin())

	app := validApplication()
	assert.Equal(t, OriginFinance, app.Origin())
}

func TestTrack_Subtypes(t *testing.T) {
	assert.Len(t, TrackFinancial.Subtypes(), 4)
	assert.Len(t, TrackBusinessSupport.Subtypes(), 4)
	assert.True(t, TrackFinancial.HasSubtype("Trade Finance"))
	assert.False(t, TrackFinancial.HasSubtype("Business Advisory"))
	assert.Nil(t, Track("other").Subtypes())
}

func TestLoanApplication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *LoanApplication)
		wantErr bool
	}{
		{"valid financial", func(a *LoanApplication) {}, false},
		{"valid support", func(a *LoanApplication) {
			a.Type = TrackBusinessSupport
			a.LoanType = ""
			a.ServiceType = "Market Expansion"
		}, false},
		{"both subtypes", func(a *LoanApplication) { a.ServiceType = "Market Expansion" }, true},
		{"mismatched subtype", func(a *LoanApplication) { a.LoanType = "Business Advisory" }, true},
		{"support with loan type", func(a *LoanApplication) { a.Type = TrackBusinessSupport }, true},
		{"unknown track", func(a *LoanApplication) { a.Type = "other" }, true},
		{"missing email", func(a *LoanApplication) { a.Email = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			if tt.wantErr {
				assert.Error(t, app.Validate())
			} else {
				assert.NoError(t, app.Validate())
			}
		})
	}
}

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, ApplicationPending.CanTransitionTo(ApplicationApproved))
	assert.True(t, ApplicationPending.CanTransitionTo(ApplicationDeclined))
	assert.True(t, ApplicationApproved.CanTransitionTo(ApplicationDeclined))
	assert.True(t, ApplicationDeclined.CanTransitionTo(ApplicationApproved))
	assert.False(t, ApplicationApproved.CanTransitionTo(ApplicationPending))
	assert.False(t, ApplicationPending.CanTransitionTo(ApplicationPending))
}

func TestLoanApplication_ChangeStatus(t *testing.T) {
	app := validApplication()
	require.NoError(t, app.ChangeStatus(ApplicationApproved))
	assert.Equal(t, ApplicationApproved, app.Status)

	assert.Error(t, app.ChangeStatus(ApplicationPending))
	assert.Error(t, app.ChangeStatus("Archived"))
}

func TestContactInquiry_MarkReplied(t *testing.T) {
	inq := ContactInquiry{Email: "a@b.c", Message: "hi", Status: InquiryUnread}
	require.NoError(t, inq.MarkReplied())
	assert.Equal(t, InquiryReplied, inq.Status)
	assert.Error(t, inq.MarkReplied())
}

func TestNewsletterSubscription_ToInquiry(t *testing.T) {
	inq := NewsletterSubscription{Email: "reader@example.com"}.ToInquiry("2024-05-01")
	assert.True(t, inq.IsNewsletter())
	assert.Equal(t, NewsletterSubject, inq.Subject)
	assert.Equal(t, InquiryUnread, inq.Status)
	assert.NoError(t, inq.Validate())
}
