package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/directory"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn            func(tx *sql.Tx) leave.Repository
	createFn            func(ctx context.Context, l *leave.Leave) error
	findByIDFn          func(ctx context.Context, id string) (*leave.Leave, error)
	findAllByEmployeeFn func(ctx context.Context, employeeID string) ([]leave.Leave, error)
	findAllByApproverFn func(ctx context.Context, approverID string) ([]leave.Leave, error)
	findAllByStatusFn   func(ctx context.Context, status string) ([]leave.Leave, error)
	updateFn            func(ctx context.Context, l *leave.Leave) error
	hasOverlappingFn    func(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.Leave, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]leave.Leave, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindAllByApprover(ctx context.Context, approverID string) ([]leave.Leave, error) {
	if f.findAllByApproverFn != nil {
		return f.findAllByApproverFn(ctx, approverID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindAllByStatus(ctx context.Context, status string) ([]leave.Leave, error) {
	if f.findAllByStatusFn != nil {
		return f.findAllByStatusFn(ctx, status)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) Update(ctx context.Context, l *leave.Leave) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) HasOverlappingPending(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	if f.hasOverlappingFn != nil {
		return f.hasOverlappingFn(ctx, employeeID, startDate, endDate)
	}
	return false, nil
}

type fakeLedger struct {
	getOrCreateFn func(ctx context.Context, employeeID, leaveType string) (*balance.LeaveBalance, error)
	reserveFn     func(ctx context.Context, employeeID, leaveType string, days int) (*balance.LeaveBalance, error)
	commitFn      func(ctx context.Context, employeeID, leaveType string, days int) error
	releaseFn     func(ctx context.Context, employeeID, leaveType string, days int) error
}

func (f *fakeLedger) WithTx(tx *sql.Tx) balance.Ledger { return f }

func (f *fakeLedger) GetOrCreate(ctx context.Context, employeeID, leaveType string) (*balance.LeaveBalance, error) {
	if f.getOrCreateFn != nil {
		return f.getOrCreateFn(ctx, employeeID, leaveType)
	}
	return &balance.LeaveBalance{TotalDays: 20}, nil
}

func (f *fakeLedger) Reserve(ctx context.Context, employeeID, leaveType string, days int) (*balance.LeaveBalance, error) {
	if f.reserveFn != nil {
		return f.reserveFn(ctx, employeeID, leaveType, days)
	}
	return &balance.LeaveBalance{TotalDays: 20, PendingDays: days}, nil
}

func (f *fakeLedger) Commit(ctx context.Context, employeeID, leaveType string, days int) error {
	if f.commitFn != nil {
		return f.commitFn(ctx, employeeID, leaveType, days)
	}
	return nil
}

func (f *fakeLedger) Release(ctx context.Context, employeeID, leaveType string, days int) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, employeeID, leaveType, days)
	}
	return nil
}

type fakeCounter struct {
	nextValue int64
}

func (f *fakeCounter) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	return f.nextValue, nil
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type fakeDirectory struct {
	getEmployeeFn func(ctx context.Context, id string) (directory.Employee, error)
}

func (f *fakeDirectory) GetEmployeeByID(ctx context.Context, id string) (directory.Employee, error) {
	if f.getEmployeeFn != nil {
		return f.getEmployeeFn(ctx, id)
	}
	return directory.Employee{ID: id, FullName: "Jordan Smith"}, nil
}

type fakeDispatcher struct {
	sent   []notification.Notification
	sendFn func(ctx context.Context, n notification.Notification) error
}

func (f *fakeDispatcher) Send(ctx context.Context, n notification.Notification) error {
	f.sent = append(f.sent, n)
	if f.sendFn != nil {
		return f.sendFn(ctx, n)
	}
	return nil
}

type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) Invalidate(ctx context.Context, employeeID string) {
	f.invalidated = append(f.invalidated, employeeID)
}

type leaveServiceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	service    leave.Service
	repo       *fakeLeaveRepository
	ledger     *fakeLedger
	outbox     *fakeOutbox
	directory  *fakeDirectory
	dispatcher *fakeDispatcher
	cache      *fakeCache
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	ledger := &fakeLedger{}
	outbox := &fakeOutbox{}
	dir := &fakeDirectory{}
	dispatcher := &fakeDispatcher{}
	cache := &fakeCache{}

	svc := leave.NewService(db, leave.ServiceDeps{
		Repo:       repo,
		Ledger:     ledger,
		Counter:    &fakeCounter{nextValue: 42},
		Outbox:     outbox,
		Directory:  dir,
		Dispatcher: dispatcher,
		Cache:      cache,
	})

	return &leaveServiceDeps{
		db:         db,
		sqlMock:    sqlMock,
		service:    svc,
		repo:       repo,
		ledger:     ledger,
		outbox:     outbox,
		directory:  dir,
		dispatcher: dispatcher,
		cache:      cache,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func futureRange(days int) (string, string) {
	start := time.Now().UTC().AddDate(0, 1, 0)
	end := start.AddDate(0, 0, days-1)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func pendingLeave(employeeID uuid.UUID) *leave.Leave {
	return &leave.Leave{
		ID:            uuid.New(),
		RequestNumber: "LV-000007",
		EmployeeID:    employeeID,
		LeaveType:     "ANNUAL",
		StartDate:     time.Now().UTC().AddDate(0, 1, 0),
		EndDate:       time.Now().UTC().AddDate(0, 1, 2),
		NumberOfDays:  3,
		Status:        leave.StatusPending,
	}
}

func TestLeaveService_Apply(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		managerID := uuid.New().String()
		deps.directory.getEmployeeFn = func(ctx context.Context, id string) (directory.Employee, error) {
			return directory.Employee{ID: id, FullName: "Jordan Smith", ManagerID: &managerID}, nil
		}

		var reservedDays int
		deps.ledger.reserveFn = func(ctx context.Context, eid, leaveType string, days int) (*balance.LeaveBalance, error) {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, "ANNUAL", leaveType)
			reservedDays = days
			return &balance.LeaveBalance{TotalDays: 20, PendingDays: days}, nil
		}

		start, end := futureRange(5)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, employeeID, leave.ApplyLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: start,
			EndDate:   end,
			Reason:    "family trip",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "LV-000042", resp.RequestNumber)
		assert.Equal(t, 5, resp.NumberOfDays)
		assert.Equal(t, 5, reservedDays)

		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, events.LeaveApplied, deps.outbox.events[0].EventType)
		assert.Equal(t, events.LeaveLifecycleTopic, deps.outbox.events[0].Topic)

		assert.Equal(t, []string{employeeID}, deps.cache.invalidated)

		// manager on record receives the notification, not the employee
		assert.Len(t, deps.dispatcher.sent, 1)
		assert.Equal(t, managerID, deps.dispatcher.sent[0].RecipientID)
		assert.Equal(t, notification.TypeLeaveApplied, deps.dispatcher.sent[0].NotificationType)
		assert.Equal(t, notification.ChannelInApp, deps.dispatcher.sent[0].Channel)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success single day", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		start, _ := futureRange(1)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, employeeID, leave.ApplyLeaveRequest{
			LeaveType: "SICK",
			StartDate: start,
			EndDate:   start,
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.NumberOfDays)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success notification failure is swallowed", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dispatcher.sendFn = func(ctx context.Context, n notification.Notification) error {
			return errors.New("notification service down")
		}

		start, end := futureRange(2)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Apply(ctx, employeeID, leave.ApplyLeaveRequest{
			LeaveType: "CASUAL",
			StartDate: start,
			EndDate:   end,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlap", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.hasOverlappingFn = func(ctx context.Context, eid string, startDate, endDate time.Time) (bool, error) {
			return true, nil
		}

		start, end := futureRange(3)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Apply(ctx, employeeID, leave.ApplyLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: start,
			EndDate:   end,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.Empty(t, deps.outbox.events)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.ledger.getOrCreateFn = func(ctx context.Context, eid, leaveType string) (*balance.LeaveBalance, error) {
			return &balance.LeaveBalance{TotalDays: 20, UsedDays: 5}, nil
		}

		start, end := futureRange(20)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Apply(ctx, employeeID, leave.ApplyLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: start,
			EndDate:   end,
		})

		assert.Error(t, err)
		assert.Equal(t, "Insufficient leave balance. Available: 15", err.Error())
		assert.Empty(t, deps.outbox.events)
		assert.Empty(t, deps.cache.invalidated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative validation", func(t *testing.T) {
		start, end := futureRange(3)

		cases := []struct {
			name       string
			employeeID string
			req        leave.ApplyLeaveRequest
			lookupErr  error
			wantErr    error
		}{
			{
				name:       "invalid employee id",
				employeeID: "not-a-uuid",
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: start, EndDate: end},
				wantErr:    leaveerrors.ErrInvalidEmployeeID,
			},
			{
				name:       "employee not found",
				employeeID: uuid.New().String(),
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: start, EndDate: end},
				lookupErr:  directory.ErrEmployeeNotFound,
				wantErr:    leaveerrors.ErrEmployeeNotFound,
			},
			{
				name:       "employee service down",
				employeeID: uuid.New().String(),
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: start, EndDate: end},
				lookupErr:  directory.ErrUnavailable,
				wantErr:    leaveerrors.ErrEmployeeLookupFailed,
			},
			{
				name:       "bad date format",
				employeeID: uuid.New().String(),
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: "03/01/2026", EndDate: end},
				wantErr:    leaveerrors.ErrInvalidDateFormat,
			},
			{
				name:       "start after end",
				employeeID: uuid.New().String(),
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: end, EndDate: start},
				wantErr:    leaveerrors.ErrInvalidDateRange,
			},
			{
				name:       "start in the past",
				employeeID: uuid.New().String(),
				req:        leave.ApplyLeaveRequest{LeaveType: "ANNUAL", StartDate: "2020-01-01", EndDate: "2020-01-03"},
				wantErr:    leaveerrors.ErrStartDateInPast,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				deps := setupLeaveServiceTest(t)
				defer deps.db.Close()

				if tc.lookupErr != nil {
					deps.directory.getEmployeeFn = func(ctx context.Context, id string) (directory.Employee, error) {
						return directory.Employee{}, tc.lookupErr
					}
				}

				_, err := deps.service.Apply(ctx, tc.employeeID, tc.req)

				assert.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, deps.outbox.events)
				assert.Empty(t, deps.dispatcher.sent)
				assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
			})
		}
	})
}

func TestLeaveService_Decide(t *testing.T) {
	ctx := context.Background()
	approverID := uuid.New().String()

	t.Run("success approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		employeeID := uuid.New()
		l := pendingLeave(employeeID)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		var committedDays int
		deps.ledger.commitFn = func(ctx context.Context, eid, leaveType string, days int) error {
			assert.Equal(t, employeeID.String(), eid)
			committedDays = days
			return nil
		}

		var updated leave.Leave
		deps.repo.updateFn = func(ctx context.Context, l *leave.Leave) error {
			updated = *l
			return nil
		}

		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Decide(ctx, approverID, l.ID.String(), leave.DecideLeaveRequest{Status: leave.StatusApproved})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, 3, committedDays)
		assert.Equal(t, leave.StatusApproved, updated.Status)
		assert.NotNil(t, updated.ApprovedBy)
		assert.Equal(t, approverID, updated.ApprovedBy.String())
		assert.NotNil(t, updated.ApprovedAt)

		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, events.LeaveApproved, deps.outbox.events[0].EventType)
		assert.Equal(t, []string{employeeID.String()}, deps.cache.invalidated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingLeave(uuid.New())
		reason := "coverage conflict"
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		var releasedDays int
		deps.ledger.releaseFn = func(ctx context.Context, eid, leaveType string, days int) error {
			releasedDays = days
			return nil
		}

		var updated leave.Leave
		deps.repo.updateFn = func(ctx context.Context, l *leave.Leave) error {
			updated = *l
			return nil
		}

		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.Decide(ctx, approverID, l.ID.String(), leave.DecideLeaveRequest{
			Status:          leave.StatusRejected,
			RejectionReason: &reason,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Equal(t, 3, releasedDays)
		assert.NotNil(t, updated.RejectionReason)
		assert.Equal(t, reason, *updated.RejectionReason)

		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, events.LeaveRejected, deps.outbox.events[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reject without reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Decide(ctx, approverID, uuid.New().String(), leave.DecideLeaveRequest{
			Status: leave.StatusRejected,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already decided", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingLeave(uuid.New())
		l.Status = leave.StatusApproved
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		ledgerTouched := false
		deps.ledger.commitFn = func(ctx context.Context, eid, leaveType string, days int) error {
			ledgerTouched = true
			return nil
		}
		deps.ledger.releaseFn = func(ctx context.Context, eid, leaveType string, days int) error {
			ledgerTouched = true
			return nil
		}

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Decide(ctx, approverID, l.ID.String(), leave.DecideLeaveRequest{Status: leave.StatusApproved})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotPending)
		assert.False(t, ledgerTouched)
		assert.Empty(t, deps.outbox.events)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Decide(ctx, approverID, uuid.New().String(), leave.DecideLeaveRequest{Status: leave.StatusApproved})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid leave id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Decide(ctx, approverID, "not-a-uuid", leave.DecideLeaveRequest{Status: leave.StatusApproved})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		employeeID := uuid.New()
		l := pendingLeave(employeeID)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		var releasedDays int
		deps.ledger.releaseFn = func(ctx context.Context, eid, leaveType string, days int) error {
			releasedDays = days
			return nil
		}

		var updated leave.Leave
		deps.repo.updateFn = func(ctx context.Context, l *leave.Leave) error {
			updated = *l
			return nil
		}

		expectTx(t, deps.sqlMock, true)

		err := deps.service.Cancel(ctx, employeeID.String(), l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, updated.Status)
		assert.Equal(t, 3, releasedDays)

		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, events.LeaveCancelled, deps.outbox.events[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not owner", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingLeave(uuid.New())
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		expectTx(t, deps.sqlMock, false)

		err := deps.service.Cancel(ctx, uuid.New().String(), l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrCancelNotOwner)
		assert.Empty(t, deps.outbox.events)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		employeeID := uuid.New()
		l := pendingLeave(employeeID)
		l.Status = leave.StatusApproved
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		expectTx(t, deps.sqlMock, false)

		err := deps.service.Cancel(ctx, employeeID.String(), l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrOnlyPendingCancellable)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid leave id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Cancel(ctx, uuid.New().String(), "not-a-uuid")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingLeave(uuid.New())
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			assert.Equal(t, l.ID.String(), id)
			return l, nil
		}

		resp, err := deps.service.GetByID(ctx, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, l.ID.String(), resp.ID)
		assert.Equal(t, "LV-000007", resp.RequestNumber)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("negative invalid leave id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		called := false
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			called = true
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.GetByID(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
		assert.False(t, called)
	})
}

func TestLeaveService_ListPending(t *testing.T) {
	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	deps.repo.findAllByStatusFn = func(ctx context.Context, status string) ([]leave.Leave, error) {
		assert.Equal(t, leave.StatusPending, status)
		return []leave.Leave{*pendingLeave(uuid.New()), *pendingLeave(uuid.New())}, nil
	}

	resp, err := deps.service.ListPending(context.Background())

	assert.NoError(t, err)
	assert.Len(t, resp, 2)
}

func TestLeaveService_ListByApprover(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		approverID := uuid.New().String()
		deps.repo.findAllByApproverFn = func(ctx context.Context, got string) ([]leave.Leave, error) {
			assert.Equal(t, approverID, got)
			return []leave.Leave{*pendingLeave(uuid.New()), *pendingLeave(uuid.New())}, nil
		}

		resp, err := deps.service.ListByApprover(ctx, approverID)

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
	})

	t.Run("negative invalid approver id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.ListByApprover(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidApproverID)
	})
}
