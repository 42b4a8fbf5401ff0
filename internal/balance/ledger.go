package balance

import (
	"context"
	"database/sql"
	"errors"

	balanceerrors "go-leave/internal/balance/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger owns every mutation of the day accounting. Reserve moves days into
// pending, Commit moves a reservation to consumed, Release drops a
// reservation. Callers run all three inside their own transaction via WithTx
// so the check-then-reserve sequence is serialized by the row lock taken in
// GetOrCreate.
//
//go:generate mockgen -source=ledger.go -destination=mock/ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	GetOrCreate(ctx context.Context, employeeID, leaveType string) (*LeaveBalance, error)
	Reserve(ctx context.Context, employeeID, leaveType string, days int) (*LeaveBalance, error)
	Commit(ctx context.Context, employeeID, leaveType string, days int) error
	Release(ctx context.Context, employeeID, leaveType string, days int) error
}

type ledger struct {
	repo        Repository
	allocations Allocations
	logger      *zap.Logger
}

func NewLedger(repo Repository, allocations Allocations, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &ledger{repo: repo, allocations: allocations, logger: l}
}

func (s *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: s.repo.WithTx(tx), allocations: s.allocations, logger: s.logger}
}

func (s *ledger) GetOrCreate(ctx context.Context, employeeID, leaveType string) (*LeaveBalance, error) {
	b, err := s.repo.FindByEmployeeAndTypeForUpdate(ctx, employeeID, leaveType)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	created := &LeaveBalance{
		ID:          uuid.New(),
		EmployeeID:  employeeUUID,
		LeaveType:   leaveType,
		TotalDays:   s.allocations.DefaultFor(leaveType),
		UsedDays:    0,
		PendingDays: 0,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		// Two lazy creates can race on the unique (employee, type) index.
		// The loser re-reads the winner's row under lock.
		if isUniqueViolation(err) {
			s.logger.Debug("balance create lost race, re-reading",
				zap.String("employee_id", employeeID),
				zap.String("leave_type", leaveType),
			)
			return s.repo.FindByEmployeeAndTypeForUpdate(ctx, employeeID, leaveType)
		}
		return nil, err
	}

	s.logger.Info("balance created with default allocation",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.Int("total_days", created.TotalDays),
	)
	return created, nil
}

func (s *ledger) Reserve(ctx context.Context, employeeID, leaveType string, days int) (*LeaveBalance, error) {
	if days <= 0 {
		return nil, balanceerrors.ErrNegativeDays
	}

	b, err := s.fetchForUpdate(ctx, employeeID, leaveType)
	if err != nil {
		return nil, err
	}

	b.PendingDays += days
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Debug("days reserved",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.Int("days", days),
		zap.Int("pending_days", b.PendingDays),
	)
	return b, nil
}

func (s *ledger) Commit(ctx context.Context, employeeID, leaveType string, days int) error {
	if days <= 0 {
		return balanceerrors.ErrNegativeDays
	}

	b, err := s.fetchForUpdate(ctx, employeeID, leaveType)
	if err != nil {
		return err
	}

	b.PendingDays -= days
	b.UsedDays += days
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}

	s.logger.Debug("reservation committed",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.Int("days", days),
		zap.Int("used_days", b.UsedDays),
	)
	return nil
}

func (s *ledger) Release(ctx context.Context, employeeID, leaveType string, days int) error {
	if days <= 0 {
		return balanceerrors.ErrNegativeDays
	}

	b, err := s.fetchForUpdate(ctx, employeeID, leaveType)
	if err != nil {
		return err
	}

	b.PendingDays -= days
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}

	s.logger.Debug("reservation released",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.Int("days", days),
		zap.Int("pending_days", b.PendingDays),
	)
	return nil
}

func (s *ledger) fetchForUpdate(ctx context.Context, employeeID, leaveType string) (*LeaveBalance, error) {
	b, err := s.repo.FindByEmployeeAndTypeForUpdate(ctx, employeeID, leaveType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, balanceerrors.ErrBalanceNotFound
		}
		return nil, err
	}
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
