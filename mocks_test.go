package events_test

import (
	"context"
	"database/sql"
	"time"

	events "github.com/goliatone/go-events"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fixedClock returns a clock function pinned to the given instant.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// fixedCode returns a code source pinned to the given code.
func fixedCode(code string) events.CodeSource {
	return func() (string, error) { return code, nil }
}

// MockRepositoryManager implements events.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
	accounts *MockAccounts
	events   *MockEvents
}

func newMockRepo() (*MockRepositoryManager, *MockAccounts, *MockEvents) {
	accounts := &MockAccounts{}
	evts := &MockEvents{}
	return &MockRepositoryManager{accounts: accounts, events: evts}, accounts, evts
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

// RunInTx executes the body with a zero transaction handle and
// propagates its error, so handler control flow stays observable.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Accounts() events.Accounts {
	return m.accounts
}

func (m *MockRepositoryManager) Events() events.Events {
	return m.events
}

// MockAccounts implements events.Accounts; unstubbed embedded methods
// panic when reached, which is the point.
type MockAccounts struct {
	mock.Mock
	events.Accounts
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*events.Account, error) {
	args := m.Called(ctx, id)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*events.Account, error) {
	args := m.Called(ctx, email)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*events.Account, error) {
	args := m.Called(ctx, tx, email)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByAnyEmailTx(ctx context.Context, tx bun.IDB, email string) (*events.Account, error) {
	args := m.Called(ctx, tx, email)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByPendingEmailTx(ctx context.Context, tx bun.IDB, email string) (*events.Account, error) {
	args := m.Called(ctx, tx, email)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *events.Account, criteria ...repository.InsertCriteria) (*events.Account, error) {
	args := m.Called(ctx, tx, record)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) SavePendingRegistrationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pending events.PendingRegistration) error {
	args := m.Called(ctx, tx, id, pending)
	return args.Error(0)
}

func (m *MockAccounts) PromoteRegistrationTx(ctx context.Context, tx bun.IDB, email, code string) (*events.Account, error) {
	args := m.Called(ctx, tx, email, code)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) SavePasswordResetTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error {
	args := m.Called(ctx, tx, id, code, expiresAt)
	return args.Error(0)
}

func (m *MockAccounts) FinalizePasswordResetTx(ctx context.Context, tx bun.IDB, email, code, passwordHash string, now time.Time) (*events.Account, error) {
	args := m.Called(ctx, tx, email, code, passwordHash, now)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) ApplyChanges(ctx context.Context, id uuid.UUID, changes events.AccountChanges) (*events.Account, error) {
	args := m.Called(ctx, id, changes)
	if acc, ok := args.Get(0).(*events.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) ListAll(ctx context.Context) ([]*events.Account, error) {
	args := m.Called(ctx)
	if records, ok := args.Get(0).([]*events.Account); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEvents implements events.Events
type MockEvents struct {
	mock.Mock
	events.Events
}

func (m *MockEvents) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*events.Event, error) {
	args := m.Called(ctx, id)
	if record, ok := args.Get(0).(*events.Event); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvents) Create(ctx context.Context, record *events.Event, criteria ...repository.InsertCriteria) (*events.Event, error) {
	args := m.Called(ctx, record)
	if out, ok := args.Get(0).(*events.Event); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvents) Update(ctx context.Context, record *events.Event, criteria ...repository.UpdateCriteria) (*events.Event, error) {
	args := m.Called(ctx, record)
	if out, ok := args.Get(0).(*events.Event); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvents) ListFiltered(ctx context.Context, filter events.EventFilter) ([]*events.Event, error) {
	args := m.Called(ctx, filter)
	if records, ok := args.Get(0).([]*events.Event); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvents) UpdateStatus(ctx context.Context, id uuid.UUID, status events.EventStatus) (*events.Event, error) {
	args := m.Called(ctx, id, status)
	if record, ok := args.Get(0).(*events.Event); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvents) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotifier implements events.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordResetCode(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}
