package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *PublicAccount, error)
}

// TokenService signs and validates session tokens
type TokenService interface {
	Generate(account *Account) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator is the subset of TokenService the auth guard needs
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// Notifier delivers one-time codes to an account's email address
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// AuthClaims represents structured session claims
type AuthClaims interface {
	Subject() string
	UserID() string
	AccountUUID() (uuid.UUID, error)
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] EVENTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] EVENTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] EVENTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
