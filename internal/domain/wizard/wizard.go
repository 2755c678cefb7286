// Package wizard implements the multi-step application flow: track, subtype,
// business profile, contact details, then submission. It performs no I/O of
// its own beyond the injected Submitter.
package wizard

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/lead"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Step is a wizard state
type Step int

const (
	StepChoosingTrack   Step = 1
	StepChoosingSubtype Step = 2
	StepBusinessProfile Step = 3
	StepContactInfo     Step = 4
	StepSubmitted       Step = 5
)

// String returns the state name
func (s Step) String() string {
	switch s {
	case StepChoosingTrack:
		return "choosing_track"
	case StepChoosingSubtype:
		return "choosing_subtype"
	case StepBusinessProfile:
		return "business_profile"
	case StepContactInfo:
		return "contact_info"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Wizard errors
var (
	ErrWrongStep       = shared.NewDomainError("WIZARD_WRONG_STEP", "Action not available at the current step")
	ErrUnknownTrack    = shared.NewDomainError("WIZARD_UNKNOWN_TRACK", "Unknown application track")
	ErrUnknownSubtype  = shared.NewDomainError("WIZARD_UNKNOWN_SUBTYPE", "Subtype is not offered on the selected track")
	ErrSubtypeRequired = shared.NewDomainError("WIZARD_SUBTYPE_REQUIRED", "Select an option to continue")
)

// Profile is the business profile collected at step 3
type Profile struct {
	BusinessName string `json:"businessName"`
	CACNumber    string `json:"cacNumber"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
}

// Contact is the applicant contact block collected at step 4
type Contact struct {
	FullName string `json:"fullName" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
}

// FieldError describes one failed contact field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by Submit when required contact fields are missing
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid contact details: " + strings.Join(names, ", ")
}

// Submitter persists a completed application and returns its ID
type Submitter interface {
	SubmitApplication(ctx context.Context, app lead.LoanApplication) (string, error)
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, app lead.LoanApplication) (string, error)

// SubmitApplication calls f
func (f SubmitterFunc) SubmitApplication(ctx context.Context, app lead.LoanApplication) (string, error) {
	return f(ctx, app)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// State is a read-only view of the wizard
type State struct {
	Step          Step       `json:"step"`
	StepName      string     `json:"stepName"`
	Track         lead.Track `json:"track,omitempty"`
	Subtype       string     `json:"subtype,omitempty"`
	Subtypes      []string   `json:"subtypes,omitempty"`
	Profile       Profile    `json:"profile"`
	Contact       Contact    `json:"contact"`
	CanAdvance    bool       `json:"canAdvance"`
	ApplicationID string     `json:"applicationId,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Wizard is one open application session. It is not safe for concurrent use.
type Wizard struct {
	step          Step
	track         lead.Track
	subtype       string
	profile       Profile
	contact       Contact
	applicationID string
	lastError     string
}

// New returns a wizard at step 1 with no data
func New() *Wizard {
	w := &Wizard{}
	w.Open()
	return w
}

// Open resets the wizard to step 1, discarding all entered data
func (w *Wizard) Open() {
	*w = Wizard{step: StepChoosingTrack}
}

// Close discards all entered data
func (w *Wizard) Close() {
	w.Open()
}

// Return closes a submitted wizard
func (w *Wizard) Return() {
	w.Open()
}

// Step returns the current state
func (w *Wizard) Step() Step {
	return w.step
}

// SelectTrack sets the track and advances to step 2
func (w *Wizard) SelectTrack(t lead.Track) error {
	if w.step != StepChoosingTrack {
		return ErrWrongStep
	}
	if !t.IsValid() {
		return ErrUnknownTrack
	}
	w.track = t
	w.step = StepChoosingSubtype
	return nil
}

// SelectSubtype records one of the track's subtypes and advances to step 3
func (w *Wizard) SelectSubtype(s string) error {
	if w.step != StepChoosingSubtype {
		return ErrWrongStep
	}
	if !w.track.HasSubtype(s) {
		return ErrUnknownSubtype
	}
	w.subtype = s
	w.step = StepBusinessProfile
	return nil
}

// CanAdvance reports whether Next is enabled
func (w *Wizard) CanAdvance() bool {
	switch w.step {
	case StepChoosingSubtype:
		return w.subtype != ""
	case StepBusinessProfile:
		return true
	}
	return false
}

// Next advances 2→3 (subtype required) and 3→4
func (w *Wizard) Next() error {
	switch w.step {
	case StepChoosingSubtype:
		if w.subtype == "" {
			return ErrSubtypeRequired
		}
		w.step = StepBusinessProfile
	case StepBusinessProfile:
		w.step = StepContactInfo
	default:
		return ErrWrongStep
	}
	return nil
}

// Back returns 3→2 and 4→3, preserving all values
func (w *Wizard) Back() error {
	switch w.step {
	case StepBusinessProfile:
		w.step = StepChoosingSubtype
	case StepContactInfo:
		w.step = StepBusinessProfile
	default:
		return ErrWrongStep
	}
	w.lastError = ""
	return nil
}

// UpdateProfile replaces the business profile
func (w *Wizard) UpdateProfile(p Profile) error {
	if w.step != StepBusinessProfile && w.step != StepContactInfo {
		return ErrWrongStep
	}
	w.profile = p
	return nil
}

// UpdateContact replaces the contact block
func (w *Wizard) UpdateContact(c Contact) error {
	if w.step != StepContactInfo {
		return ErrWrongStep
	}
	w.contact = Contact{
		FullName: strings.TrimSpace(c.FullName),
		Role:     strings.TrimSpace(c.Role),
		Email:    strings.TrimSpace(c.Email),
		Phone:    strings.TrimSpace(c.Phone),
	}
	return nil
}

// Submit validates the contact block and hands the application to s.
// On success the wizard moves to step 5; on failure it stays at step 4
// with the error recorded for inline display.
func (w *Wizard) Submit(ctx context.Context, s Submitter) error {
	if w.step != StepContactInfo {
		return ErrWrongStep
	}
	if err := validateContact(w.contact); err != nil {
		w.lastError = err.Error()
		return err
	}

	id, err := s.SubmitApplication(ctx, w.ToApplication())
	if err != nil {
		w.lastError = "We could not submit your application. Please try again."
		return err
	}

	w.applicationID = id
	w.lastError = ""
	w.step = StepSubmitted
	return nil
}

// ToApplication builds the pending application from the entered data
func (w *Wizard) ToApplication() lead.LoanApplication {
	app := lead.LoanApplication{
		Date:         content.Today(),
		Type:         w.track,
		BusinessName: w.profile.BusinessName,
		CACNumber:    w.profile.CACNumber,
		Industry:     w.profile.Industry,
		Description:  w.profile.Description,
		FullName:     w.contact.FullName,
		Role:         w.contact.Role,
		Email:        w.contact.Email,
		Phone:        w.contact.Phone,
		Status:       lead.ApplicationPending,
	}
	if w.track == lead.TrackBusinessSupport {
		app.ServiceType = w.subtype
	} else {
		app.LoanType = w.subtype
	}
	return app
}

// State returns a snapshot of the wizard
func (w *Wizard) State() State {
	return State{
		Step:          w.step,
		StepName:      w.step.String(),
		Track:         w.track,
		Subtype:       w.subtype,
		Subtypes:      w.track.Subtypes(),
		Profile:       w.profile,
		Contact:       w.contact,
		CanAdvance:    w.CanAdvance(),
		ApplicationID: w.applicationID,
		Error:         w.lastError,
	}
}

func validateContact(c Contact) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msg := "This field is required"
		if fe.Tag() == "email" {
			msg = "Invalid email format"
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
