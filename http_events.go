package events

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	imagePattern = regexp.MustCompile(`^https?://.+`)
)

// EventPayload is the create/update request body. Every mutation
// revalidates the full shape.
type EventPayload struct {
	Date        string `json:"date"`
	Artist      string `json:"artist"`
	Time        string `json:"time"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// Validate will validate the payload
func (p EventPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Date, validation.Required, validation.Match(datePattern)),
		validation.Field(&p.Artist, validation.Required, validation.Length(2, 200)),
		validation.Field(&p.Time, validation.Required, validation.Match(timePattern)),
		validation.Field(&p.Image, validation.Required, validation.Match(imagePattern)),
		validation.Field(&p.Description, validation.Required, validation.Length(10, 2000)),
	)
}

func (p EventPayload) apply(e *Event) *Event {
	e.Date = p.Date
	e.Artist = p.Artist
	e.Time = p.Time
	e.Image = p.Image
	e.Description = p.Description
	return e
}

// EventController serves the event routes.
type EventController struct {
	Debug  bool
	Logger Logger

	repo RepositoryManager
}

func NewEventController(repo RepositoryManager) *EventController {
	return &EventController{
		Logger: defLogger{},
		repo:   repo,
	}
}

func (a *EventController) List(c *fiber.Ctx) error {
	filter := EventFilter{
		Status: c.Query("status"),
		Date:   c.Query("date"),
	}

	if filter.Status != "" && !ValidEventStatus(filter.Status) {
		return renderError(c, goerrors.New("unknown event status", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	records, err := a.repo.Events().ListFiltered(c.UserContext(), filter)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(records)
}

func (a *EventController) Show(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.loadEvent(c, id)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(record)
}

func (a *EventController) Create(c *fiber.Ctx) error {
	claims, ok := ClaimsFromCtx(c, DefaultContextKey)
	if !ok {
		return renderError(c, ErrTokenMissing, a.Debug, a.Logger)
	}

	createdBy, err := claims.AccountUUID()
	if err != nil {
		return renderError(c, ErrTokenMalformed, a.Debug, a.Logger)
	}

	payload := new(EventPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("event create parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := goerrors.ValidateWithOzzo(payload.Validate, "invalid event payload"); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record := payload.apply(&Event{
		Status:    EventStatusScheduled,
		CreatedBy: createdBy,
	})

	record, err = a.repo.Events().Create(c.UserContext(), record)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (a *EventController) Update(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.loadEvent(c, id)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	if err := requireOwnerOrAdmin(c, record); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	payload := new(EventPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("event update parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := goerrors.ValidateWithOzzo(payload.Validate, "invalid event payload"); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err = a.repo.Events().Update(c.UserContext(), payload.apply(record))
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(record)
}

func (a *EventController) Delete(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.loadEvent(c, id)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	if err := requireOwnerOrAdmin(c, record); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	if err := a.repo.Events().DeleteByID(c.UserContext(), id); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(fiber.Map{
		"message": "event deleted",
	})
}

func (a *EventController) Cancel(c *fiber.Ctx) error {
	return a.transition(c, EventStatusCancelled)
}

func (a *EventController) Complete(c *fiber.Ctx) error {
	return a.transition(c, EventStatusCompleted)
}

// transition is the owner-only status change shared by cancel and
// complete. Admins do not get a pass here.
func (a *EventController) transition(c *fiber.Ctx, status EventStatus) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.loadEvent(c, id)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	claims, ok := ClaimsFromCtx(c, DefaultContextKey)
	if !ok {
		return renderError(c, ErrTokenMissing, a.Debug, a.Logger)
	}

	caller, err := claims.AccountUUID()
	if err != nil || !record.IsOwnedBy(caller) {
		return renderError(c, goerrors.New("only the event owner may change its status", goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden), a.Debug, a.Logger)
	}

	record, err = a.repo.Events().UpdateStatus(c.UserContext(), id, status)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(record)
}

func (a *EventController) loadEvent(c *fiber.Ctx, id uuid.UUID) (*Event, error) {
	record, err := a.repo.Events().GetByID(c.UserContext(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("event not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}
	return record, nil
}

func requireOwnerOrAdmin(c *fiber.Ctx, record *Event) error {
	claims, ok := ClaimsFromCtx(c, DefaultContextKey)
	if !ok {
		return ErrTokenMissing
	}

	if claims.IsAdmin() {
		return nil
	}

	caller, err := claims.AccountUUID()
	if err != nil || !record.IsOwnedBy(caller) {
		return goerrors.New("only the event owner may modify it", goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden)
	}

	return nil
}

func parseRouteID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, goerrors.New("malformed id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}
