package events

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther implements Authenticator over the accounts repository.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

var _ Authenticator = (*Auther)(nil)

func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger sets the authenticator logger
func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login verifies credentials and mints a session token. An unknown
// email and a wrong password return the same error value so the two
// cases render identically.
func (a *Auther) Login(ctx context.Context, email, password string) (string, *PublicAccount, error) {
	if err := validation.Validate(email, validation.Required, validation.Match(emailPattern)); err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email provided").
			WithCode(goerrors.CodeBadRequest)
	}

	if password == "" {
		return "", nil, ErrInvalidCredentials
	}

	account, err := a.repo.Accounts().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		a.logger.Error("login account lookup failed: %s", err)
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	// Checked after the password so an unverified guess still pays the
	// same bcrypt cost as a normal login.
	if !account.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := a.tokens.Generate(account)
	if err != nil {
		a.logger.Error("login token generation failed: %s", err)
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	return token, NewPublicAccount(account), nil
}
