package events

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultAuthHeader is checked before the standard Authorization header.
	DefaultAuthHeader = "x-auth-token"
	// DefaultAuthScheme is the Authorization scheme we accept.
	DefaultAuthScheme = "Bearer"
	// DefaultContextKey is where validated claims land in ctx locals.
	DefaultContextKey = "session"
)

// GuardConfig configures the auth guard middleware.
type GuardConfig struct {
	// Validator checks the raw token and returns structured claims.
	Validator TokenValidator
	// HeaderName is the custom token header, DefaultAuthHeader if empty.
	HeaderName string
	// AuthScheme is the Authorization scheme, DefaultAuthScheme if empty.
	AuthScheme string
	// ContextKey is the locals key for claims, DefaultContextKey if empty.
	ContextKey string
	// ErrorHandler renders guard failures, renderError by default.
	ErrorHandler fiber.ErrorHandler
}

// NewAuthGuard builds the token middleware. The custom header wins
// over Authorization when both are present.
func NewAuthGuard(cfg GuardConfig) fiber.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultAuthHeader
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return renderError(c, err, false, defLogger{})
		}
	}

	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c, cfg.HeaderName, cfg.AuthScheme)
		if token == "" {
			return cfg.ErrorHandler(c, ErrTokenMissing)
		}

		claims, err := cfg.Validator.Validate(token)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		return c.Next()
	}
}

// RequireAdmin gates a route on the admin claim. It must run after the
// auth guard that populates the context key.
func RequireAdmin(contextKey string, errorHandler fiber.ErrorHandler) fiber.Handler {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	if errorHandler == nil {
		errorHandler = func(c *fiber.Ctx, err error) error {
			return renderError(c, err, false, defLogger{})
		}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromCtx(c, contextKey)
		if !ok {
			return errorHandler(c, ErrTokenMissing)
		}

		if !claims.IsAdmin() {
			return errorHandler(c, ErrAdminRequired)
		}

		return c.Next()
	}
}

// ClaimsFromCtx retrieves validated claims stored by the auth guard.
func ClaimsFromCtx(c *fiber.Ctx, contextKey string) (AuthClaims, bool) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	claims, ok := c.Locals(contextKey).(AuthClaims)
	return claims, ok
}

func tokenFromRequest(c *fiber.Ctx, headerName, authScheme string) string {
	if token := strings.TrimSpace(c.Get(headerName)); token != "" {
		return token
	}

	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		return ""
	}

	prefix := authScheme + " "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return strings.TrimSpace(authorization[len(prefix):])
	}

	return ""
}
