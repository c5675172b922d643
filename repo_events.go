package events

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventFilter narrows an event listing. Zero values mean no filter.
type EventFilter struct {
	Status    string
	Date      string
	CreatedBy string
}

type Events interface {
	repository.Repository[*Event]

	ListFiltered(ctx context.Context, filter EventFilter) ([]*Event, error)
	ListFilteredTx(ctx context.Context, tx bun.IDB, filter EventFilter) ([]*Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) (*Event, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status EventStatus) (*Event, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type eventsRepo struct {
	repository.Repository[*Event]
	db *bun.DB
}

var (
	_ Events                        = (*eventsRepo)(nil)
	_ repository.Repository[*Event] = (*eventsRepo)(nil)
)

func NewEventsRepository(db *bun.DB) Events {
	repo := repository.NewRepository[*Event](db, repository.ModelHandlers[*Event]{
		NewRecord: func() *Event { return &Event{} },
		GetID: func(e *Event) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Event, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &eventsRepo{
		Repository: repo,
		db:         db,
	}
}

func (r *eventsRepo) Create(ctx context.Context, record *Event, criteria ...repository.InsertCriteria) (*Event, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *eventsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Event, criteria ...repository.InsertCriteria) (*Event, error) {
	prepareEventDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *eventsRepo) ListFiltered(ctx context.Context, filter EventFilter) ([]*Event, error) {
	return r.ListFilteredTx(ctx, r.db, filter)
}

// ListFilteredTx returns events ordered chronologically; the stored
// string encodings make the column order the calendar order.
func (r *eventsRepo) ListFilteredTx(ctx context.Context, tx bun.IDB, filter EventFilter) ([]*Event, error) {
	records := []*Event{}

	q := tx.NewSelect().Model(&records)

	if filter.Status != "" {
		q.Where("?TableAlias.status = ?", filter.Status)
	}
	if filter.Date != "" {
		q.Where("?TableAlias.date = ?", filter.Date)
	}
	if filter.CreatedBy != "" {
		q.Where("?TableAlias.created_by = ?", filter.CreatedBy)
	}

	err := q.
		Order("date ASC").
		Order("time ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *eventsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) (*Event, error) {
	return r.UpdateStatusTx(ctx, r.db, id, status)
}

func (r *eventsRepo) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status EventStatus) (*Event, error) {
	record := &Event{
		ID:     id,
		Status: status,
	}

	return r.Repository.UpdateTx(ctx, tx, record,
		repository.UpdateByID(id.String()),
		repository.UpdateSkipZeroValues(),
	)
}

func (r *eventsRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*Event)(nil)).
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

func prepareEventDefaults(record *Event) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = EventStatusScheduled
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
