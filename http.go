package events

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// renderError maps a rich error to its JSON body. The HTTP status
// comes from the error's code, falling back by category. Internal
// detail only leaks when debug is on.
func renderError(c *fiber.Ctx, err error, debug bool, logger Logger) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected server error").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status < fiber.StatusBadRequest || status > 599 {
		status = statusFromCategory(richErr.Category)
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed: %s %s: %s", c.Method(), c.Path(), err)
	}

	message := richErr.Message
	if richErr.Category == goerrors.CategoryInternal && !debug {
		message = "internal server error"
	}

	body := fiber.Map{"message": message}
	if richErr.TextCode != "" {
		body["error"] = richErr.TextCode
	}
	if vm := richErr.ValidationMap(); len(vm) > 0 {
		body["validation"] = vm
	}
	if debug && len(richErr.Metadata) > 0 {
		body["metadata"] = richErr.Metadata
	}

	return c.Status(status).JSON(body)
}

// RenderGuardError is the exported renderer for custom guard error
// handlers wired outside the package.
func RenderGuardError(c *fiber.Ctx, err error) error {
	return renderError(c, err, false, defLogger{})
}

func statusFromCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	}
	return fiber.StatusInternalServerError
}

// RegisterRoutes mounts the public, authenticated, and admin surfaces.
func RegisterRoutes(app *fiber.App, users *UserController, evts *EventController, admin *AdminController, guard, requireAdmin fiber.Handler) {
	api := app.Group("/api")

	usr := api.Group("/users")
	usr.Post("/register/init", users.RegisterInit)
	usr.Post("/register/verify", users.RegisterVerify)
	usr.Post("/login", users.Login)
	usr.Post("/password/forgot", users.ForgotPassword)
	usr.Post("/password/reset", users.ResetPassword)
	usr.Get("/me", guard, users.Me)

	evt := api.Group("/events")
	evt.Get("/", evts.List)
	evt.Get("/:id", evts.Show)
	evt.Post("/", guard, evts.Create)
	evt.Put("/:id", guard, evts.Update)
	evt.Delete("/:id", guard, evts.Delete)
	evt.Patch("/:id/cancel", guard, evts.Cancel)
	evt.Patch("/:id/complete", guard, evts.Complete)

	adm := api.Group("/admin", guard, requireAdmin)
	adm.Get("/users", admin.ListUsers)
	adm.Put("/users/:id", admin.UpdateUser)
	adm.Delete("/users/:id", admin.DeleteUser)
	adm.Get("/events", admin.ListEvents)
	adm.Put("/events/:id", admin.UpdateEvent)
	adm.Delete("/events/:id", admin.DeleteEvent)
}
