package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the account model. Pending registration and password
// reset live as single-slot nullable columns on the row itself, so a
// re-initiation always overwrites rather than accumulating state.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name" json:"name,omitempty"`
	Email         string    `bun:"email,nullzero" json:"email,omitempty"`
	PasswordHash  string    `bun:"password_hash" json:"-"`
	Admin         bool      `bun:"is_admin" json:"is_admin"`
	EmailVerified bool      `bun:"is_email_verified" json:"is_email_verified"`

	PendingName         *string    `bun:"pending_name,nullzero" json:"-"`
	PendingEmail        *string    `bun:"pending_email,nullzero" json:"-"`
	PendingPasswordHash *string    `bun:"pending_password_hash,nullzero" json:"-"`
	PendingCode         *string    `bun:"pending_code,nullzero" json:"-"`
	PendingExpiresAt    *time.Time `bun:"pending_expires_at,nullzero" json:"-"`

	ResetCode      *string    `bun:"reset_code,nullzero" json:"-"`
	ResetExpiresAt *time.Time `bun:"reset_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasPendingRegistration reports whether a verification code is in flight.
func (a *Account) HasPendingRegistration() bool {
	return a.PendingEmail != nil && a.PendingCode != nil && a.PendingExpiresAt != nil
}

// PendingRegistrationExpired reports whether the in-flight registration
// lapsed. Accounts without pending state are treated as expired so a
// fresh init may always claim the slot.
func (a *Account) PendingRegistrationExpired(now time.Time) bool {
	if !a.HasPendingRegistration() {
		return true
	}
	return now.After(*a.PendingExpiresAt)
}

// HasPendingReset reports whether a reset code is in flight.
func (a *Account) HasPendingReset() bool {
	return a.ResetCode != nil && a.ResetExpiresAt != nil
}

// SetPendingRegistration overwrites the pending slot wholesale.
func (a *Account) SetPendingRegistration(p PendingRegistration) *Account {
	a.PendingName = &p.Name
	a.PendingEmail = &p.Email
	a.PendingPasswordHash = &p.PasswordHash
	a.PendingCode = &p.Code
	a.PendingExpiresAt = &p.ExpiresAt
	return a
}

// ClearPendingRegistration nulls every pending registration column.
func (a *Account) ClearPendingRegistration() *Account {
	a.PendingName = nil
	a.PendingEmail = nil
	a.PendingPasswordHash = nil
	a.PendingCode = nil
	a.PendingExpiresAt = nil
	return a
}

// SetPasswordReset overwrites the reset slot wholesale.
func (a *Account) SetPasswordReset(code string, expiresAt time.Time) *Account {
	a.ResetCode = &code
	a.ResetExpiresAt = &expiresAt
	return a
}

// PendingRegistration is the candidate state staged by a register init.
type PendingRegistration struct {
	Name         string
	Email        string
	PasswordHash string
	Code         string
	ExpiresAt    time.Time
}

// PublicAccount is the projection safe to return to callers. It never
// carries hashes, codes, or pending state.
type PublicAccount struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Admin         bool      `json:"is_admin"`
	EmailVerified bool      `json:"is_email_verified"`
}

// NewPublicAccount builds the public projection of an account.
func NewPublicAccount(a *Account) *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Admin:         a.Admin,
		EmailVerified: a.EmailVerified,
	}
}

// EventStatus is the event lifecycle status
type EventStatus = string

const (
	// EventStatusScheduled is the initial status
	EventStatusScheduled EventStatus = "scheduled"
	// EventStatusCancelled marks an event called off by its owner
	EventStatusCancelled EventStatus = "cancelled"
	// EventStatusCompleted marks an event that already happened
	EventStatusCompleted EventStatus = "completed"
)

// ValidEventStatus reports whether s is a known lifecycle status.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusScheduled, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// Event is the event model. Date and Time are stored as the validated
// strings "YYYY-MM-DD" and "HH:mm" so lexicographic order is
// chronological order.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:evt"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Date          string      `bun:"date,notnull" json:"date"`
	Artist        string      `bun:"artist,notnull" json:"artist"`
	Time          string      `bun:"time,notnull" json:"time"`
	Image         string      `bun:"image,notnull" json:"image"`
	Description   string      `bun:"description,notnull" json:"description"`
	Status        EventStatus `bun:"status,notnull,default:'scheduled'" json:"status"`
	CreatedBy     uuid.UUID   `bun:"created_by,notnull,type:uuid" json:"created_by"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsOwnedBy reports whether the given account created the event.
func (e *Event) IsOwnedBy(accountID uuid.UUID) bool {
	return e.CreatedBy == accountID
}

// NormalizeEmail lowercases and trims an email before any lookup or
// write, so matching is case-insensitive end to end.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
