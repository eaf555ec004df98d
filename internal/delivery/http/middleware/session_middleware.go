package middleware

import (
	"errors"
	"strings"

	"job-portal/internal/pkg/jwt"
	"job-portal/internal/usecase/portal"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxSessionIDKey = "session_id"
	CtxSessionKey   = "session"
)

// SessionMiddleware authenticates the bearer token and attaches the editor
// session it names to the request.
type SessionMiddleware struct {
	jwt      jwt.Service
	registry *portal.Registry
}

func NewSessionMiddleware(jwtSvc jwt.Service, registry *portal.Registry) *SessionMiddleware {
	return &SessionMiddleware{jwt: jwtSvc, registry: registry}
}

func (m *SessionMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		sess, err := m.registry.Get(claims.SessionID)
		if err != nil {
			if errors.Is(err, portal.ErrSessionNotFound) {
				return NewAppError(fiber.StatusNotFound, "Session not found", nil, err)
			}
			return err
		}

		c.Locals(CtxSessionIDKey, sess.ID)
		c.Locals(CtxSessionKey, sess)

		return c.Next()
	}
}

// SessionFromCtx returns the session attached by SessionMiddleware.
func SessionFromCtx(c fiber.Ctx) (*portal.Session, bool) {
	s, ok := c.Locals(CtxSessionKey).(*portal.Session)
	return s, ok && s != nil
}

func BearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
