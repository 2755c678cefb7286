package intake

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidEmail is returned for a missing or malformed email address
var ErrInvalidEmail = shared.NewDomainError("INVALID_EMAIL", "Please enter a valid email address")

// InquirySaver persists contact inquiries and newsletter signups
type InquirySaver interface {
	SaveInquiry(ctx context.Context, inq lead.ContactInquiry) (lead.ContactInquiry, error)
	SaveNewsletterSubscription(ctx context.Context, sub lead.NewsletterSubscription) (shared.WriteResult, error)
}

// ContactService handles the public contact form and newsletter signup
type ContactService struct {
	saver    InquirySaver
	validate *validator.Validate
	logger   *zap.Logger
}

// NewContactService creates a contact service
func NewContactService(saver InquirySaver, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		saver:    saver,
		validate: validator.New(),
		logger:   logger.Named("contact"),
	}
}

// SubmitInquiry stores a contact form message as an unread inquiry
func (s *ContactService) SubmitInquiry(ctx context.Context, inq lead.ContactInquiry) (lead.ContactInquiry, error) {
	inq.FullName = strings.TrimSpace(inq.FullName)
	inq.Email = strings.TrimSpace(inq.Email)
	inq.Subject = strings.TrimSpace(inq.Subject)
	inq.Message = strings.TrimSpace(inq.Message)
	inq.ID = ""
	inq.Status = lead.InquiryUnread
	if inq.Date == "" {
		inq.Date = content.Today()
	}

	if err := inq.Validate(); err != nil {
		return lead.ContactInquiry{}, err
	}
	if err := s.validate.Var(inq.Email, "email"); err != nil {
		return lead.ContactInquiry{}, ErrInvalidEmail
	}

	saved, err := s.saver.SaveInquiry(ctx, inq)
	if err != nil {
		return lead.ContactInquiry{}, err
	}
	logger.WithLogger(ctx, s.logger).Info("Inquiry received", zap.String("inquiry_id", saved.ID))
	return saved, nil
}

// Subscribe adds email to the newsletter. The WriteResult is always
// populated, including on validation failure and on a 409 duplicate.
func (s *ContactService) Subscribe(ctx context.Context, email string) (shared.WriteResult, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return shared.WriteResult{Success: false, Message: ErrInvalidEmail.Message, StatusCode: http.StatusBadRequest}, ErrInvalidEmail
	}
	return s.saver.SaveNewsletterSubscription(ctx, lead.NewsletterSubscription{Email: email})
}
