package auth

import (
	"github.com/spec-kit/ticket-sync/internal/domain"
)

// Session is the explicit session context passed into the store and view
// builder. There is no ambient global session state.
type Session struct {
	UserID  string
	Role    domain.Role
	Profile *domain.UserProfile
}

// Authenticated reports whether the session carries a user id.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
