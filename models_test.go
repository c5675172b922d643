package events_test

import (
	"testing"
	"time"

	events "github.com/goliatone/go-events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccountPendingRegistration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	acc := &events.Account{}
	assert.False(t, acc.HasPendingRegistration())
	assert.True(t, acc.PendingRegistrationExpired(now), "no pending state counts as expired")

	acc.SetPendingRegistration(events.PendingRegistration{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		Code:         "12345",
		ExpiresAt:    now.Add(events.CodeTTL),
	})

	assert.True(t, acc.HasPendingRegistration())
	assert.False(t, acc.PendingRegistrationExpired(now))
	assert.True(t, acc.PendingRegistrationExpired(now.Add(events.CodeTTL+time.Second)))

	acc.ClearPendingRegistration()
	assert.False(t, acc.HasPendingRegistration())
	assert.Nil(t, acc.PendingCode)
}

func TestAccountPasswordReset(t *testing.T) {
	now := time.Now()

	acc := &events.Account{}
	assert.False(t, acc.HasPendingReset())

	acc.SetPasswordReset("54321", now.Add(events.CodeTTL))
	assert.True(t, acc.HasPendingReset())
	assert.Equal(t, "54321", *acc.ResetCode)
}

func TestNewPublicAccount(t *testing.T) {
	code := "12345"
	acc := &events.Account{
		ID:            uuid.New(),
		Name:          "Ada",
		Email:         "ada@example.com",
		PasswordHash:  "hash",
		Admin:         true,
		EmailVerified: true,
		PendingCode:   &code,
	}

	pub := events.NewPublicAccount(acc)
	assert.Equal(t, acc.ID, pub.ID)
	assert.Equal(t, "Ada", pub.Name)
	assert.Equal(t, "ada@example.com", pub.Email)
	assert.True(t, pub.Admin)
	assert.True(t, pub.EmailVerified)

	assert.Nil(t, events.NewPublicAccount(nil))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", events.NormalizeEmail("  Ada@Example.COM "))
}

func TestValidEventStatus(t *testing.T) {
	assert.True(t, events.ValidEventStatus(events.EventStatusScheduled))
	assert.True(t, events.ValidEventStatus(events.EventStatusCancelled))
	assert.True(t, events.ValidEventStatus(events.EventStatusCompleted))
	assert.False(t, events.ValidEventStatus("postponed"))
}

func TestEventOwnership(t *testing.T) {
	owner := uuid.New()
	evt := &events.Event{CreatedBy: owner}

	assert.True(t, evt.IsOwnedBy(owner))
	assert.False(t, evt.IsOwnedBy(uuid.New()))
}
