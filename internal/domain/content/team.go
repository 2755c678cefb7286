package content

import (
	"net/mail"
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
)

// TeamMember is a staff bio shown on the team page
type TeamMember struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Bio            string `json:"bio"`
	Specialization string `json:"specialization"`
	ImageGradient  string `json:"imageGradient"`
	ImageURL       string `json:"imageUrl,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Email          string `json:"email,omitempty"`
}

// NewTeamMemberDraft returns the defaults loaded into an empty team form
func NewTeamMemberDraft() TeamMember {
	return TeamMember{ImageGradient: DefaultGradient}
}

// Validate checks the fields required by the console form
func (m TeamMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Team member name cannot be empty")
	}
	if strings.TrimSpace(m.Role) == "" {
		return shared.NewDomainError("INVALID_ROLE", "Team member role cannot be empty")
	}
	if m.Email != "" {
		if _, err := mail.ParseAddress(m.Email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Team member email is not a valid address")
		}
	}
	return nil
}

func (m TeamMember) Label() string { return m.Name }

func (m TeamMember) GetID() string { return m.ID }

func (m TeamMember) WithID(id string) TeamMember {
	m.ID = id
	return m
}

func (m TeamMember) WithImage(url string) TeamMember {
	m.ImageURL = url
	return m
}
