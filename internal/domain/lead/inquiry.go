package lead

import (
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
)

// NewsletterSubject is the synthetic subject that marks a newsletter signup
const NewsletterSubject = "Newsletter Subscription"

// InquiryStatus is the triage state of a contact inquiry
type InquiryStatus string

const (
	InquiryUnread  InquiryStatus = "Unread"
	InquiryReplied InquiryStatus = "Replied"
)

// IsValid checks if the status is known
func (s InquiryStatus) IsValid() bool {
	return s == InquiryUnread || s == InquiryReplied
}

// CanTransitionTo checks if the status can transition to the target status
func (s InquiryStatus) CanTransitionTo(target InquiryStatus) bool {
	return s == InquiryUnread && target == InquiryReplied
}

// ContactInquiry is a message from the public contact form
type ContactInquiry struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	FullName string        `json:"fullName"`
	Email    string        `json:"email"`
	Subject  string        `json:"subject"`
	Message  string        `json:"message"`
	Status   InquiryStatus `json:"status"`
}

// IsNewsletter reports whether the inquiry is a newsletter signup
func (c ContactInquiry) IsNewsletter() bool {
	return c.Subject == NewsletterSubject
}

// Validate checks the required contact fields
func (c ContactInquiry) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if !c.IsNewsletter() && strings.TrimSpace(c.Message) == "" {
		return shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	return nil
}

// MarkReplied moves an unread inquiry to replied
func (c *ContactInquiry) MarkReplied() error {
	if !c.Status.CanTransitionTo(InquiryReplied) {
		return shared.NewDomainError("INVALID_STATE", "Inquiry is already replied")
	}
	c.Status = InquiryReplied
	return nil
}

// NewsletterSubscription is a newsletter signup
type NewsletterSubscription struct {
	Email string `json:"email"`
}

// ToInquiry converts the signup into the inquiry it is stored as
func (n NewsletterSubscription) ToInquiry(date string) ContactInquiry {
	return ContactInquiry{
		Date:     date,
		FullName: "Newsletter Subscriber",
		Email:    n.Email,
		Subject:  NewsletterSubject,
		Message:  "Please subscribe " + n.Email + " to the newsletter.",
		Status:   InquiryUnread,
	}
}
