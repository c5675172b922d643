package events

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PromoteRegistrationSQL finalizes a pending registration in one
// conditional statement. The WHERE clause keys on both the pending
// email and the exact code, so of two concurrent verifies only one
// gets a row back; the loser sees an empty result.
var PromoteRegistrationSQL = `UPDATE "accounts" AS "acc"
SET
	"name" = "pending_name",
	"email" = "pending_email",
	"password_hash" = "pending_password_hash",
	"is_email_verified" = TRUE,
	"pending_name" = NULL,
	"pending_email" = NULL,
	"pending_password_hash" = NULL,
	"pending_code" = NULL,
	"pending_expires_at" = NULL
WHERE
	"acc"."pending_email" = ?
AND (
	"acc"."pending_code" = ?
) RETURNING *;`

// FinalizePasswordResetSQL swaps in a new password hash in one
// conditional statement keyed on email, verified flag, code, and a
// still-live expiry. Zero rows means wrong code, lapsed code, or no
// reset in flight.
var FinalizePasswordResetSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"reset_code" = NULL,
	"reset_expires_at" = NULL
WHERE
	"acc"."email" = ?
AND "acc"."is_email_verified" = TRUE
AND "acc"."reset_code" = ?
AND (
	"acc"."reset_expires_at" > ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetByAnyEmail(ctx context.Context, email string) (*Account, error)
	GetByAnyEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetByPendingEmail(ctx context.Context, email string) (*Account, error)
	GetByPendingEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	SavePendingRegistration(ctx context.Context, id uuid.UUID, pending PendingRegistration) error
	SavePendingRegistrationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pending PendingRegistration) error
	PromoteRegistration(ctx context.Context, email, code string) (*Account, error)
	PromoteRegistrationTx(ctx context.Context, tx bun.IDB, email, code string) (*Account, error)

	SavePasswordReset(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	SavePasswordResetTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error
	FinalizePasswordReset(ctx context.Context, email, code, passwordHash string, now time.Time) (*Account, error)
	FinalizePasswordResetTx(ctx context.Context, tx bun.IDB, email, code, passwordHash string, now time.Time) (*Account, error)

	ApplyChanges(ctx context.Context, id uuid.UUID, changes AccountChanges) (*Account, error)

	ListAll(ctx context.Context) ([]*Account, error)
	ListVerified(ctx context.Context) ([]*Account, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// AccountChanges is a partial administrative update; nil fields are
// left untouched.
type AccountChanges struct {
	Name          *string
	Email         *string
	Admin         *bool
	EmailVerified *bool
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

// GetByEmailTx matches the finalized email column only; placeholder
// rows with just a pending email never show up here.
func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByAnyEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByAnyEmailTx(ctx, a.db, email)
}

// GetByAnyEmailTx matches either the finalized or the pending email,
// which is what register init needs to decide between conflict,
// overwrite, and create.
func (a *accounts) GetByAnyEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	normalized := NormalizeEmail(email)

	record := &Account{}
	err := tx.NewSelect().Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", normalized).
				WhereOr("?TableAlias.pending_email = ?", normalized)
		}).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": normalized,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByPendingEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByPendingEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByPendingEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.pending_email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"pending_email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) SavePendingRegistration(ctx context.Context, id uuid.UUID, pending PendingRegistration) error {
	return a.SavePendingRegistrationTx(ctx, a.db, id, pending)
}

// SavePendingRegistrationTx overwrites the pending slot wholesale. The
// explicit column list keeps the write from touching finalized fields.
func (a *accounts) SavePendingRegistrationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pending PendingRegistration) error {
	record := &Account{ID: id}
	record.SetPendingRegistration(pending)

	_, err := tx.NewUpdate().Model(record).
		Column(
			"pending_name",
			"pending_email",
			"pending_password_hash",
			"pending_code",
			"pending_expires_at",
		).
		WherePK().
		Exec(ctx)

	return err
}

func (a *accounts) PromoteRegistration(ctx context.Context, email, code string) (*Account, error) {
	return a.PromoteRegistrationTx(ctx, a.db, email, code)
}

func (a *accounts) PromoteRegistrationTx(ctx context.Context, tx bun.IDB, email, code string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, PromoteRegistrationSQL, NormalizeEmail(email), code)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"pending_email": NormalizeEmail(email),
			})
	}

	return res[0], nil
}

func (a *accounts) SavePasswordReset(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return a.SavePasswordResetTx(ctx, a.db, id, code, expiresAt)
}

// SavePasswordResetTx stages a reset code and clears any stray pending
// registration columns left on a verified account.
func (a *accounts) SavePasswordResetTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error {
	record := &Account{ID: id}
	record.SetPasswordReset(code, expiresAt)
	record.ClearPendingRegistration()

	_, err := tx.NewUpdate().Model(record).
		Column(
			"reset_code",
			"reset_expires_at",
			"pending_name",
			"pending_email",
			"pending_password_hash",
			"pending_code",
			"pending_expires_at",
		).
		WherePK().
		Exec(ctx)

	return err
}

func (a *accounts) FinalizePasswordReset(ctx context.Context, email, code, passwordHash string, now time.Time) (*Account, error) {
	return a.FinalizePasswordResetTx(ctx, a.db, email, code, passwordHash, now)
}

func (a *accounts) FinalizePasswordResetTx(ctx context.Context, tx bun.IDB, email, code, passwordHash string, now time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, FinalizePasswordResetSQL, passwordHash, NormalizeEmail(email), code, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": NormalizeEmail(email),
			})
	}

	return res[0], nil
}

func (a *accounts) ApplyChanges(ctx context.Context, id uuid.UUID, changes AccountChanges) (*Account, error) {
	record := &Account{ID: id}
	columns := []string{}

	if changes.Name != nil {
		record.Name = *changes.Name
		columns = append(columns, "name")
	}
	if changes.Email != nil {
		record.Email = NormalizeEmail(*changes.Email)
		columns = append(columns, "email")
	}
	if changes.Admin != nil {
		record.Admin = *changes.Admin
		columns = append(columns, "is_admin")
	}
	if changes.EmailVerified != nil {
		record.EmailVerified = *changes.EmailVerified
		columns = append(columns, "is_email_verified")
	}

	if len(columns) > 0 {
		res, err := a.db.NewUpdate().Model(record).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return nil, err
		}

		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
	}

	return a.GetByID(ctx, id.String())
}

func (a *accounts) ListAll(ctx context.Context) ([]*Account, error) {
	records := []*Account{}
	err := a.db.NewSelect().Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *accounts) ListVerified(ctx context.Context) ([]*Account, error) {
	records := []*Account{}
	err := a.db.NewSelect().Model(&records).
		Where("?TableAlias.is_email_verified = ?", true).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *accounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().Model((*Account)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// IsUniqueViolation detects the dialect specific duplicate-key error a
// concurrent placeholder insert surfaces as.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
