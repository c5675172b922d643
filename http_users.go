package events

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
)

// UserController serves the account lifecycle routes.
type UserController struct {
	Debug  bool
	Logger Logger

	repo         RepositoryManager
	auth         Authenticator
	registerInit *RegisterInitHandler
	verify       *VerifyRegistrationHandler
	forgot       *ForgotPasswordHandler
	reset        *ResetPasswordHandler
}

func NewUserController(repo RepositoryManager, auth Authenticator, notifier Notifier) *UserController {
	return &UserController{
		Logger:       defLogger{},
		repo:         repo,
		auth:         auth,
		registerInit: NewRegisterInitHandler(repo, notifier),
		verify:       NewVerifyRegistrationHandler(repo),
		forgot:       NewForgotPasswordHandler(repo, notifier),
		reset:        NewResetPasswordHandler(repo),
	}
}

func (a *UserController) RegisterInit(c *fiber.Ctx) error {
	payload := new(RegisterInitMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register init parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := a.registerInit.Execute(c.UserContext(), *payload); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "verification code sent",
	})
}

func (a *UserController) RegisterVerify(c *fiber.Ctx) error {
	payload := new(VerifyRegistrationMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register verify parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	var account *Account
	payload.OnResponse = func(a *Account) {
		account = a
	}

	if err := a.verify.Execute(c.UserContext(), *payload); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	if a.Debug {
		fmt.Println("======= Registration Verified ======")
		fmt.Println(print.MaybePrettyJSON(NewPublicAccount(account)))
		fmt.Println("====================================")
	}

	return c.JSON(fiber.Map{
		"message": "email verified",
		"user":    NewPublicAccount(account),
	})
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *UserController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	token, account, err := a.auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	c.Set(DefaultAuthHeader, token)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  account,
	})
}

func (a *UserController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := a.forgot.Execute(c.UserContext(), *payload); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	// Same body whether or not the email is registered.
	return c.JSON(fiber.Map{
		"message": "if the email is registered, a reset code was sent",
	})
}

func (a *UserController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordMessage)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset password parse payload: %s", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest), a.Debug, a.Logger)
	}

	if err := a.reset.Execute(c.UserContext(), *payload); err != nil {
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(fiber.Map{
		"message": "password updated",
	})
}

func (a *UserController) Me(c *fiber.Ctx) error {
	claims, ok := ClaimsFromCtx(c, DefaultContextKey)
	if !ok {
		return renderError(c, ErrTokenMissing, a.Debug, a.Logger)
	}

	account, err := a.repo.Accounts().GetByID(c.UserContext(), claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return renderError(c, goerrors.New("account not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound), a.Debug, a.Logger)
		}
		return renderError(c, err, a.Debug, a.Logger)
	}

	return c.JSON(NewPublicAccount(account))
}
