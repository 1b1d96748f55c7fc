package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/domain"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// Middleware validates bearer tokens and attaches the session context.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewNotAuthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewNotAuthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewNotAuthenticated("invalid token")
	}

	session := Session{
		UserID: claims.UserID,
		Role:   claims.Role,
	}
	if claims.FullName != "" {
		session.Profile = &domain.UserProfile{
			ID:       claims.UserID,
			FullName: claims.FullName,
			Role:     claims.Role,
			IsActive: true,
		}
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return Session{}, false
	}
	session, ok := val.(Session)
	return session, ok
}
