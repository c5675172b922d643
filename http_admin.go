package events

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AdminController serves the administrative surface. Routes are
// mounted behind the auth guard plus the admin check.
type AdminController struct {
	Debug  bool
	Logger Logger

	repo RepositoryManager
}

func NewAdminController(repo RepositoryManager) *AdminController {
	return &AdminController{
		Logger: defLogger{},
		repo:   repo,
	}
}

func (a *AdminController) ListUsers(c *fiber.Ctx) error {
	records, err := a.repo.Accounts().ListAll(c.UserContext())
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	out := make([]*PublicAccount, 0, len(records))
	for _, record := range records {
		out = append(out, NewPublicAccount(record))
	}

	return c.JSON(out)
}

// AdminUserPayload is a partial account update; absent fields are
// left untouched.
type AdminUserPayload struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Admin         *bool   `json:"is_admin"`
	EmailVerified *bool   `json:"is_email_verified"`
}

// Validate will validate the payload
func (p AdminUserPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Length(2, 200)),
		validation.Field(&p.Email, validation.Match(emailPattern)),
	)
}

func (a *AdminController) UpdateUser(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	payload := new(AdminUserPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("admin user update parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := goerrors.ValidateWithOzzo(payload.Validate, "invalid account payload"); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.repo.Accounts().ApplyChanges(c.UserContext(), id, AccountChanges{
		Name:          payload.Name,
		Email:         payload.Email,
		Admin:         payload.Admin,
		EmailVerified: payload.EmailVerified,
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return renderError(c, goerrors.New("account not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound), a.Debug, a.Logger)
		}
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(NewPublicAccount(record))
}

func (a *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	claims, ok := ClaimsFromCtx(c, DefaultContextKey)
	if !ok {
		return renderError(c, ErrTokenMissing, a.Debug, a.Logger)
	}

	// An admin removing their own account would orphan the session
	// mid-request; reject it outright.
	if claims.UserID() == id.String() {
		return renderError(c, goerrors.New("cannot delete your own account", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := a.repo.Accounts().DeleteByID(c.UserContext(), id); err != nil {
		if repository.IsRecordNotFound(err) {
			return renderError(c, goerrors.New("account not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound), a.Debug, a.Logger)
		}
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(fiber.Map{
		"message": "account deleted",
	})
}

func (a *AdminController) ListEvents(c *fiber.Ctx) error {
	filter := EventFilter{
		Status:    c.Query("status"),
		Date:      c.Query("date"),
		CreatedBy: c.Query("createdBy"),
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

func (a *AdminController) UpdateEvent(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	record, err := a.repo.Events().GetByID(c.UserContext(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return renderError(c, goerrors.New("event not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound), a.Debug, a.Logger)
		}
		return renderError(c, err, a.Debug, a.Logger)
	}

	payload := new(EventPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("admin event update parse payload: %s", err)
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

func (a *AdminController) DeleteEvent(c *fiber.Ctx) error {
	id, err := parseRouteID(c)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	if err := a.repo.Events().DeleteByID(c.UserContext(), id); err != nil {
		if repository.IsRecordNotFound(err) {
			return renderError(c, goerrors.New("event not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound), a.Debug, a.Logger)
		}
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(fiber.Map{
		"message": "event deleted",
	})
}
