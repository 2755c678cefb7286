package console

import "time"

// State is the authentication state of a console session
type State string

const (
	StateLoggedOut            State = "logged_out"
	StateAwaitingSecondFactor State = "awaiting_second_factor"
	StateAuthenticated        State = "authenticated"
)

// Session is the authentication record of one console session. The ID is
// the bearer value the browser sends back; Token is the Persistence Service
// credential and never leaves the backend.
type Session struct {
	ID              string    `json:"id"`
	State           State     `json:"state"`
	Token           string    `json:"-"`
	Via             string    `json:"via,omitempty"`
	AuthenticatedAt time.Time `json:"authenticatedAt,omitempty"`

	tempToken string
}

// IsAuthenticated reports whether the session may use the console
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Token != ""
}
