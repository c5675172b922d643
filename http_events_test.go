package events_test

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	events "github.com/goliatone/go-events"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validEventBody() fiber.Map {
	return fiber.Map{
		"date":        "2026-06-15",
		"artist":      "The Midnight Ramblers",
		"time":        "20:30",
		"image":       "https://cdn.example.com/poster.jpg",
		"description": "An evening of live music at the riverside stage.",
	}
}

func sampleEvent(owner uuid.UUID) *events.Event {
	return &events.Event{
		ID:          uuid.New(),
		Date:        "2026-06-15",
		Artist:      "The Midnight Ramblers",
		Time:        "20:30",
		Image:       "https://cdn.example.com/poster.jpg",
		Description: "An evening of live music at the riverside stage.",
		Status:      events.EventStatusScheduled,
		CreatedBy:   owner,
	}
}

func (ta *testApp) tokenFor(t *testing.T, account *events.Account) string {
	t.Helper()

	token, err := ta.tokens.Generate(account)
	require.NoError(t, err)
	return token
}

func TestEventListRoute(t *testing.T) {
	ta := newTestApp(t)

	records := []*events.Event{sampleEvent(uuid.New()), sampleEvent(uuid.New())}
	ta.events.On("ListFiltered", mock.Anything, events.EventFilter{}).Return(records, nil)

	status, raw := doJSON(t, ta.app, fiber.MethodGet, "/api/events/", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	out := []map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out, 2)
}

func TestEventListRouteStatusFilter(t *testing.T) {
	ta := newTestApp(t)

	ta.events.On("ListFiltered", mock.Anything, events.EventFilter{Status: "cancelled"}).
		Return([]*events.Event{}, nil)

	status, _ := doJSON(t, ta.app, fiber.MethodGet, "/api/events/?status=cancelled", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, ta.app, fiber.MethodGet, "/api/events/?status=postponed", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestEventShowRoute(t *testing.T) {
	ta := newTestApp(t)

	record := sampleEvent(uuid.New())
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)

	status, raw := doJSON(t, ta.app, fiber.MethodGet, "/api/events/"+record.ID.String(), "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "The Midnight Ramblers", body["artist"])
}

func TestEventShowRouteNotFound(t *testing.T) {
	ta := newTestApp(t)

	id := uuid.New()
	ta.events.On("GetByID", mock.Anything, id.String()).
		Return(nil, repository.NewRecordNotFound())

	status, _ := doJSON(t, ta.app, fiber.MethodGet, "/api/events/"+id.String(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestEventShowRouteMalformedID(t *testing.T) {
	ta := newTestApp(t)

	status, _ := doJSON(t, ta.app, fiber.MethodGet, "/api/events/not-a-uuid", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestEventCreateRouteUnauthenticated(t *testing.T) {
	ta := newTestApp(t)

	status, _ := doJSON(t, ta.app, fiber.MethodPost, "/api/events/", "", validEventBody())
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestEventCreateRoute(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	var created *events.Event
	ta.events.On("Create", mock.Anything, mock.AnythingOfType("*events.Event")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*events.Event)
		}).
		Return(sampleEvent(owner.ID), nil)

	status, _ := doJSON(t, ta.app, fiber.MethodPost, "/api/events/", token, validEventBody())
	assert.Equal(t, fiber.StatusCreated, status)

	require.NotNil(t, created)
	assert.Equal(t, owner.ID, created.CreatedBy)
	assert.Equal(t, events.EventStatusScheduled, created.Status)
}

func TestEventCreateRouteInvalidPayload(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	body := validEventBody()
	body["time"] = "25:99"

	status, raw := doJSON(t, ta.app, fiber.MethodPost, "/api/events/", token, body)
	assert.Equal(t, fiber.StatusBadRequest, status)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Contains(t, out, "validation")
}

func TestEventUpdateRouteOwner(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	record := sampleEvent(owner.ID)
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)
	ta.events.On("Update", mock.Anything, mock.AnythingOfType("*events.Event")).Return(record, nil)

	body := validEventBody()
	body["artist"] = "A Different Band"

	status, _ := doJSON(t, ta.app, fiber.MethodPut, "/api/events/"+record.ID.String(), token, body)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestEventUpdateRouteNonOwnerForbidden(t *testing.T) {
	ta := newTestApp(t)

	stranger := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, stranger)

	record := sampleEvent(uuid.New())
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)

	status, _ := doJSON(t, ta.app, fiber.MethodPut, "/api/events/"+record.ID.String(), token, validEventBody())
	assert.Equal(t, fiber.StatusForbidden, status)

	ta.events.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEventUpdateRouteAdminAllowed(t *testing.T) {
	ta := newTestApp(t)

	admin := verifiedAccount(t, "sup3rs3cret", true)
	token := ta.tokenFor(t, admin)

	record := sampleEvent(uuid.New())
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)
	ta.events.On("Update", mock.Anything, mock.AnythingOfType("*events.Event")).Return(record, nil)

	status, _ := doJSON(t, ta.app, fiber.MethodPut, "/api/events/"+record.ID.String(), token, validEventBody())
	assert.Equal(t, fiber.StatusOK, status)
}

func TestEventDeleteRouteOwner(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	record := sampleEvent(owner.ID)
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)
	ta.events.On("DeleteByID", mock.Anything, record.ID).Return(nil)

	status, raw := doJSON(t, ta.app, fiber.MethodDelete, "/api/events/"+record.ID.String(), token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "event deleted")
}

func TestEventCancelRouteOwner(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	record := sampleEvent(owner.ID)
	cancelled := sampleEvent(owner.ID)
	cancelled.ID = record.ID
	cancelled.Status = events.EventStatusCancelled

	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)
	ta.events.On("UpdateStatus", mock.Anything, record.ID, events.EventStatusCancelled).
		Return(cancelled, nil)

	status, raw := doJSON(t, ta.app, fiber.MethodPatch, "/api/events/"+record.ID.String()+"/cancel", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "cancelled", body["status"])
}

func TestEventCancelRouteAdminIsNotOwner(t *testing.T) {
	ta := newTestApp(t)

	admin := verifiedAccount(t, "sup3rs3cret", true)
	token := ta.tokenFor(t, admin)

	record := sampleEvent(uuid.New())
	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)

	// Status transitions stay owner-only, even for admins.
	status, _ := doJSON(t, ta.app, fiber.MethodPatch, "/api/events/"+record.ID.String()+"/cancel", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	ta.events.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventCompleteRouteOwner(t *testing.T) {
	ta := newTestApp(t)

	owner := verifiedAccount(t, "sup3rs3cret", false)
	token := ta.tokenFor(t, owner)

	record := sampleEvent(owner.ID)
	completed := sampleEvent(owner.ID)
	completed.ID = record.ID
	completed.Status = events.EventStatusCompleted

	ta.events.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil)
	ta.events.On("UpdateStatus", mock.Anything, record.ID, events.EventStatusCompleted).
		Return(completed, nil)

	status, raw := doJSON(t, ta.app, fiber.MethodPatch, "/api/events/"+record.ID.String()+"/complete", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "completed", body["status"])
}
