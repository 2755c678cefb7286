// Package lead models inbound funding/advisory applications and contact
// inquiries captured from the public site.
package lead

import (
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
)

// Track is the top-level branch of an application
type Track string

const (
	TrackFinancial       Track = "financial"
	TrackBusinessSupport Track = "business_support"
)

// IsValid checks if the track is known
func (t Track) IsValid() bool {
	return t == TrackFinancial || t == TrackBusinessSupport
}

// String returns the string representation of Track
func (t Track) String() string {
	return string(t)
}

// Subtypes returns the fixed product/service options of the track
func (t Track) Subtypes() []string {
	switch t {
	case TrackFinancial:
		return []string{"Commercial Real Estate", "Working Capital", "Equipment Financing", "Trade Finance"}
	case TrackBusinessSupport:
		return []string{"Business Advisory", "Market Expansion", "Regulatory Compliance", "Digital Transformation"}
	}
	return nil
}

// HasSubtype reports whether s is one of the track's subtypes
func (t Track) HasSubtype(s string) bool {
	for _, candidate := range t.Subtypes() {
		if candidate == s {
			return true
		}
	}
	return false
}

// Origin is the persistence resource an application lives in
type Origin string

const (
	OriginFinance Origin = "finance"
	OriginSupport Origin = "support"
)

// Origin returns the resource for applications on this track
func (t Track) Origin() Origin {
	if t == TrackBusinessSupport {
		return OriginSupport
	}
	return OriginFinance
}

// ApplicationStatus is the triage state of an application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationDeclined ApplicationStatus = "Declined"
)

// IsValid checks if the status is known
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationDeclined:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	switch s {
	case ApplicationPending:
		return target == ApplicationApproved || target == ApplicationDeclined
	case ApplicationApproved:
		return target == ApplicationDeclined
	case ApplicationDeclined:
		return target == ApplicationApproved
	}
	return false
}

// LoanApplication is a lead captured by the wizard. Exactly one of
// LoanType and ServiceType is set, matching Type.
type LoanApplication struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Type         Track             `json:"type"`
	LoanType     string            `json:"loanType,omitempty"`
	ServiceType  string            `json:"serviceType,omitempty"`
	BusinessName string            `json:"businessName"`
	CACNumber    string            `json:"cacNumber"`
	Industry     string            `json:"industry"`
	FullName     string            `json:"fullName"`
	Role         string            `json:"role"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Description  string            `json:"description"`
	Status       ApplicationStatus `json:"status"`
}

// Origin returns the persistence resource holding the application
func (a LoanApplication) Origin() Origin {
	return a.Type.Origin()
}

// Subtype returns whichever of LoanType/ServiceType applies
func (a LoanApplication) Subtype() string {
	if a.Type == TrackBusinessSupport {
		return a.ServiceType
	}
	return a.LoanType
}

// Validate enforces the discriminated sub-field invariant
func (a LoanApplication) Validate() error {
	if !a.Type.IsValid() {
		return shared.NewDomainError("INVALID_TRACK", "Unknown application type: "+a.Type.String())
	}
	switch a.Type {
	case TrackFinancial:
		if a.LoanType == "" || a.ServiceType != "" {
			return shared.NewDomainError("INVALID_SUBTYPE", "Financial applications carry a loan type only")
		}
	case TrackBusinessSupport:
		if a.ServiceType == "" || a.LoanType != "" {
			return shared.NewDomainError("INVALID_SUBTYPE", "Business support applications carry a service type only")
		}
	}
	if !a.Type.HasSubtype(a.Subtype()) {
		return shared.NewDomainError("INVALID_SUBTYPE", "Unknown subtype for track: "+a.Subtype())
	}
	if a.Status != "" && !a.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown application status: "+string(a.Status))
	}
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Email) == "" {
		return shared.NewDomainError("INVALID_CONTACT", "Applicant name and email are required")
	}
	return nil
}

// ChangeStatus moves the application to target when allowed
func (a *LoanApplication) ChangeStatus(target ApplicationStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown application status: "+string(target))
	}
	if !a.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move application from "+string(a.Status)+" to "+string(target))
	}
	a.Status = target
	return nil
}
