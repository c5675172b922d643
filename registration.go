package events

import (
	"context"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)

// RegisterInitMessage starts a registration by staging candidate
// account fields behind an emailed verification code.
type RegisterInitMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e RegisterInitMessage) Type() string { return "user.register_init" }

// Validate will validate the payload
func (e RegisterInitMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&e.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 100)),
	)
}

type RegisterInitHandler struct {
	repo     RepositoryManager
	notifier Notifier
	codes    CodeSource
	now      func() time.Time
	logger   Logger
}

type RegisterInitOption func(*RegisterInitHandler)

func NewRegisterInitHandler(repo RepositoryManager, notifier Notifier, opts ...RegisterInitOption) *RegisterInitHandler {
	h := &RegisterInitHandler{
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

// WithRegisterClock pins the handler's clock
func WithRegisterClock(now func() time.Time) RegisterInitOption {
	return func(h *RegisterInitHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithRegisterCodeSource pins the handler's code generator
func WithRegisterCodeSource(codes CodeSource) RegisterInitOption {
	return func(h *RegisterInitHandler) {
		if codes != nil {
			h.codes = codes
		}
	}
}

// WithRegisterLogger sets the handler's logger
func WithRegisterLogger(logger Logger) RegisterInitOption {
	return func(h *RegisterInitHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *RegisterInitHandler) Execute(ctx context.Context, event RegisterInitMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration init",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterInitHandler) execute(ctx context.Context, event RegisterInitMessage) error {
	if err := goerrors.ValidateWithOzzo(event.Validate, "invalid registration payload"); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	code, err := h.codes()
	if err != nil {
		return err
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	pending := PendingRegistration{
		Name:         event.Name,
		Email:        email,
		PasswordHash: hash,
		Code:         code,
		ExpiresAt:    h.now().Add(CodeTTL),
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByAnyEmailTx(ctx, tx, email)
		if err == nil {
			if account.EmailVerified && account.Email == email {
				return ErrEmailRegistered
			}

			if account.HasPendingRegistration() && !account.PendingRegistrationExpired(h.now()) {
				return ErrRegistrationInProgress
			}

			// Expired or stale pending state loses the slot wholesale.
			return h.repo.Accounts().SavePendingRegistrationTx(ctx, tx, account.ID, pending)
		}

		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account by email")
		}

		// The placeholder row carries a throwaway hash so the column is
		// never empty before the registration is promoted.
		placeholder := &Account{PasswordHash: RandomPasswordHash()}
		placeholder.SetPendingRegistration(pending)
		if id, err := hashid.NewUUID(email); err == nil {
			placeholder.ID = id
		} else {
			placeholder.ID = uuid.New()
		}

		if _, err := h.repo.Accounts().CreateTx(ctx, tx, placeholder); err != nil {
			if IsUniqueViolation(err) {
				return ErrEmailRegistered
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create placeholder account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration init transaction failed")
	}

	// The pending state is durable at this point; a failed delivery is
	// reported distinctly so the caller can retry the init.
	if err := h.notifier.SendVerificationCode(ctx, email, code); err != nil {
		h.logger.Error("registration init failed to deliver verification code to %s: %s", email, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver verification code").
			WithTextCode(TextCodeNotificationFailed).
			WithCode(goerrors.CodeInternal)
	}

	return nil
}

// VerifyRegistrationMessage redeems a verification code and promotes
// the staged fields into the permanent account.
type VerifyRegistrationMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`

	OnResponse func(account *Account)
}

func (e VerifyRegistrationMessage) Type() string { return "user.register_verify" }

// Validate will validate the payload
func (e VerifyRegistrationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&e.Code, validation.Required, validation.Length(5, 5)),
	)
}

type VerifyRegistrationHandler struct {
	repo   RepositoryManager
	now    func() time.Time
	logger Logger
}

type VerifyRegistrationOption func(*VerifyRegistrationHandler)

func NewVerifyRegistrationHandler(repo RepositoryManager, opts ...VerifyRegistrationOption) *VerifyRegistrationHandler {
	h := &VerifyRegistrationHandler{
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

// WithVerifyClock pins the handler's clock
func WithVerifyClock(now func() time.Time) VerifyRegistrationOption {
	return func(h *VerifyRegistrationHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithVerifyLogger sets the handler's logger
func WithVerifyLogger(logger Logger) VerifyRegistrationOption {
	return func(h *VerifyRegistrationHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func (h *VerifyRegistrationHandler) Execute(ctx context.Context, event VerifyRegistrationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration verify",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyRegistrationHandler) execute(ctx context.Context, event VerifyRegistrationMessage) error {
	if err := goerrors.ValidateWithOzzo(event.Validate, "invalid verification payload"); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	var promoted *Account

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByPendingEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrRegistrationNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up pending registration")
		}

		// Distinguish the failure before attempting the promotion so
		// callers get an actionable message; the conditional update
		// below still revalidates both code and presence.
		if account.PendingCode == nil || *account.PendingCode != event.Code {
			return ErrInvalidCode
		}

		if account.PendingRegistrationExpired(h.now()) {
			return ErrCodeExpired
		}

		promoted, err = h.repo.Accounts().PromoteRegistrationTx(ctx, tx, email, event.Code)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrRegistrationNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to promote registration")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration verify transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(promoted)
	}

	return nil
}
