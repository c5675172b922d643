package events

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ForgotPasswordMessage stages a reset code for a verified account.
// The response never reveals whether the email is registered.
type ForgotPasswordMessage struct {
	Email string `json:"email"`
}

func (e ForgotPasswordMessage) Type() string { return "user.password_forgot" }

// Validate will validate the payload
func (e ForgotPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Match(emailPattern)),
	)
}

type ForgotPasswordHandler struct {
	repo     RepositoryManager
	notifier Notifier
	codes    CodeSource
	now      func() time.Time
	logger   Logger
}

type ForgotPasswordOption func(*ForgotPasswordHandler)

func NewForgotPasswordHandler(repo RepositoryManager, notifier Notifier, opts ...ForgotPasswordOption) *ForgotPasswordHandler {
	h := &ForgotPasswordHandler{
		repo:     repo,
		notifier: notifier,
		codes:    GenerateCode,
		now:      time.Now,
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithForgotClock pins the handler's clock
func WithForgotClock(now func() time.Time) ForgotPasswordOption {
	return func(h *ForgotPasswordHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithForgotCodeSource pins the handler's code generator
func WithForgotCodeSource(codes CodeSource) ForgotPasswordOption {
	return func(h *ForgotPasswordHandler) {
		if codes != nil {
			h.codes = codes
		}
	}
}

// WithForgotLogger sets the handler's logger
func WithForgotLogger(logger Logger) ForgotPasswordOption {
	return func(h *ForgotPasswordHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset init",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	if err := goerrors.ValidateWithOzzo(event.Validate, "invalid reset payload"); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	var (
		staged bool
		code   string
	)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Unknown email: do nothing, respond the same.
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account by email")
		}

		if !account.EmailVerified {
			return nil
		}

		code, err = h.codes()
		if err != nil {
			return err
		}

		expiresAt := h.now().Add(CodeTTL)
		if err := h.repo.Accounts().SavePasswordResetTx(ctx, tx, account.ID, code, expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stage password reset")
		}

		staged = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset init transaction failed")
	}

	if !staged {
		h.logger.Debug("password reset requested for unknown or unverified email %s", email)
		return nil
	}

	// The code is durable before it goes out. A failed send is logged
	// and swallowed to keep the response indistinguishable from the
	// unknown-email path.
	if err := h.notifier.SendPasswordResetCode(ctx, email, code); err != nil {
		h.logger.Error("password reset failed to deliver code to %s: %s", email, err)
	}

	return nil
}

// ResetPasswordMessage redeems a reset code for a new password.
type ResetPasswordMessage struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`

	OnResponse func(account *Account)
}

func (e ResetPasswordMessage) Type() string { return "user.password_reset" }

// Validate will validate the payload
func (e ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&e.Code, validation.Required, validation.Length(5, 5)),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(6, 100)),
	)
}

type ResetPasswordHandler struct {
	repo   RepositoryManager
	now    func() time.Time
	logger Logger
}

type ResetPasswordOption func(*ResetPasswordHandler)

func NewResetPasswordHandler(repo RepositoryManager, opts ...ResetPasswordOption) *ResetPasswordHandler {
	h := &ResetPasswordHandler{
		repo:   repo,
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithResetClock pins the handler's clock
func WithResetClock(now func() time.Time) ResetPasswordOption {
	return func(h *ResetPasswordHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithResetLogger sets the handler's logger
func WithResetLogger(logger Logger) ResetPasswordOption {
	return func(h *ResetPasswordHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalize",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := goerrors.ValidateWithOzzo(event.Validate, "invalid reset payload"); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	// Hash before the durable write; plaintext never reaches the store.
	passwordHash, err := HashPassword(event.NewPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid new password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	var account *Account

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err = h.repo.Accounts().FinalizePasswordResetTx(ctx, tx, email, event.Code, passwordHash, h.now())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Wrong code, lapsed code, unknown email, or no reset
				// in flight all collapse into the same answer.
				return ErrResetCodeInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
