package events

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// BootstrapSchema creates the tables and indexes the service needs.
// The partial unique index enforces email uniqueness only among
// verified accounts, so placeholder rows never collide with each
// other while a verified email can exist exactly once.
func BootstrapSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create accounts table")
	}

	if _, err := db.NewCreateTable().
		Model((*Event)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create events table")
	}

	if _, err := db.NewCreateIndex().
		Model((*Account)(nil)).
		Index("accounts_verified_email_uq").
		Unique().
		Column("email").
		Where("is_email_verified = TRUE").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create verified email index")
	}

	if _, err := db.NewCreateIndex().
		Model((*Account)(nil)).
		Index("accounts_pending_email_idx").
		Column("pending_email").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create pending email index")
	}

	if _, err := db.NewCreateIndex().
		Model((*Event)(nil)).
		Index("events_date_time_idx").
		Column("date", "time").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create event schedule index")
	}

	if _, err := db.NewCreateIndex().
		Model((*Event)(nil)).
		Index("events_created_by_idx").
		Column("created_by").
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create event owner index")
	}

	return nil
}
