package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/directory"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error)
	Decide(ctx context.Context, approverID, id string, req DecideLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, employeeID, id string) error
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	ListByApprover(ctx context.Context, approverID string) ([]LeaveResponse, error)
	ListPending(ctx context.Context) ([]LeaveResponse, error)
}

// BalanceCache is the slice of the balance read side the orchestrator needs:
// dropping stale cached balances after every ledger mutation.
type BalanceCache interface {
	Invalidate(ctx context.Context, employeeID string)
}

type service struct {
	db         *sql.DB
	repo       Repository
	ledger     balance.Ledger
	counter    counter.Repository
	outbox     kafka.OutboxRepository
	directory  directory.Client
	dispatcher notification.Dispatcher
	cache      BalanceCache
	logger     *zap.Logger
}

type ServiceDeps struct {
	Repo       Repository
	Ledger     balance.Ledger
	Counter    counter.Repository
	Outbox     kafka.OutboxRepository
	Directory  directory.Client
	Dispatcher notification.Dispatcher
	Cache      BalanceCache
}

func NewService(db *sql.DB, deps ServiceDeps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:         db,
		repo:       deps.Repo,
		ledger:     deps.Ledger,
		counter:    deps.Counter,
		outbox:     deps.Outbox,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     l,
	}
}

func (s *service) Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("apply leave requested",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}

	// The employee record lives in another service; a failed lookup aborts
	// before anything is persisted.
	if _, err := s.directory.GetEmployeeByID(ctx, employeeID); err != nil {
		if errors.Is(err, directory.ErrEmployeeNotFound) {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
		s.logger.Error("apply leave employee lookup failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return LeaveResponse{}, leaveerrors.ErrEmployeeLookupFailed
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}
	if startDate.Before(today()) {
		return LeaveResponse{}, leaveerrors.ErrStartDateInPast
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qledger := s.ledger.WithTx(tx)

	overlap, err := qtx.HasOverlappingPending(ctx, employeeID, startDate, endDate)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.logger.Warn("apply leave overlap detected",
			zap.String("employee_id", employeeID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	numberOfDays := int(endDate.Sub(startDate).Hours()/24) + 1

	// GetOrCreate takes the row lock, so the availability check below and
	// the reservation after it cannot interleave with a concurrent apply
	// for the same (employee, type) key.
	bal, err := qledger.GetOrCreate(ctx, employeeID, req.LeaveType)
	if err != nil {
		s.logger.Error("apply leave load balance failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if bal.AvailableDays() < numberOfDays {
		s.logger.Warn("apply leave insufficient balance",
			zap.String("employee_id", employeeID),
			zap.String("leave_type", req.LeaveType),
			zap.Int("requested_days", numberOfDays),
			zap.Int("available_days", bal.AvailableDays()),
		)
		return LeaveResponse{}, leaveerrors.ErrInsufficientBalance(bal.AvailableDays())
	}

	nextVal, err := s.counter.GetNextValue(ctx, "leave_request")
	if err != nil {
		s.logger.Error("apply leave generate request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:            uuid.New(),
		RequestNumber: fmt.Sprintf("LV-%06d", nextVal),
		EmployeeID:    employeeUUID,
		LeaveType:     req.LeaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		NumberOfDays:  numberOfDays,
		Reason:        req.Reason,
		Status:        StatusPending,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if _, err := qledger.Reserve(ctx, employeeID, req.LeaveType, numberOfDays); err != nil {
		s.logger.Error("apply leave reserve failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.writeLifecycleEvent(ctx, tx, l, events.LeaveApplied); err != nil {
		s.logger.Error("apply leave outbox write failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.invalidateBalances(ctx, employeeID)
	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("employee_id", employeeID),
		zap.Int("number_of_days", numberOfDays),
	)

	s.notify(ctx, l, notification.TypeLeaveApplied, "New leave request submitted")

	return mapToResponse(*l), nil
}

func (s *service) Decide(ctx context.Context, approverID, id string, req DecideLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
		zap.String("target_status", req.Status),
	)

	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidApproverID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	if req.Status != StatusApproved && req.Status != StatusRejected {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}
	if req.Status == StatusRejected && (req.RejectionReason == nil || *req.RejectionReason == "") {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qledger := s.ledger.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if !canTransition(l.Status, req.Status) {
		s.logger.Warn("decide leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
			zap.String("to_status", req.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveNotPending
	}

	employeeID := l.EmployeeID.String()
	now := time.Now().UTC()
	l.Status = req.Status
	l.ApprovedBy = &approverUUID
	l.ApprovedAt = &now

	eventType := events.LeaveApproved
	notificationType := notification.TypeLeaveApproved
	message := "Your leave request has been approved"

	if req.Status == StatusApproved {
		if err := qledger.Commit(ctx, employeeID, l.LeaveType, l.NumberOfDays); err != nil {
			s.logger.Error("decide leave commit days failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	} else {
		l.RejectionReason = req.RejectionReason
		eventType = events.LeaveRejected
		notificationType = notification.TypeLeaveRejected
		message = "Your leave request has been rejected"
		if err := qledger.Release(ctx, employeeID, l.LeaveType, l.NumberOfDays); err != nil {
			s.logger.Error("decide leave release days failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("decide leave persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	if err := s.writeLifecycleEvent(ctx, tx, l, eventType); err != nil {
		s.logger.Error("decide leave outbox write failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}
	s.invalidateBalances(ctx, employeeID)
	s.logger.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.String("approver_id", approverID),
	)

	s.notify(ctx, l, notificationType, message)

	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, employeeID, id string) error {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("employee_id", employeeID),
	)

	if _, err := uuid.Parse(employeeID); err != nil {
		return leaveerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qledger := s.ledger.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrLeaveNotFound
		}
		return err
	}

	// Ownership before status: a stranger is rejected the same way no
	// matter what state the request is in.
	if l.EmployeeID.String() != employeeID {
		return leaveerrors.ErrCancelNotOwner
	}
	if !canTransition(l.Status, StatusCancelled) {
		return leaveerrors.ErrOnlyPendingCancellable
	}

	l.Status = StatusCancelled

	if err := qledger.Release(ctx, employeeID, l.LeaveType, l.NumberOfDays); err != nil {
		s.logger.Error("cancel leave release days failed", zap.Error(err))
		return err
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("cancel leave persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return err
	}

	if err := s.writeLifecycleEvent(ctx, tx, l, events.LeaveCancelled); err != nil {
		s.logger.Error("cancel leave outbox write failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return err
	}
	s.invalidateBalances(ctx, employeeID)
	s.logger.Info("cancel leave success", zap.String("leave_id", id))

	s.notify(ctx, l, notification.TypeLeaveCancelled, "Leave request has been cancelled")

	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}

	leaves, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListByApprover(ctx context.Context, approverID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(approverID); err != nil {
		return nil, leaveerrors.ErrInvalidApproverID
	}

	leaves, err := s.repo.FindAllByApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPending(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAllByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

// writeLifecycleEvent stores the event in the outbox within the same
// transaction as the state change; the worker publishes it to Kafka later.
func (s *service) writeLifecycleEvent(ctx context.Context, tx *sql.Tx, l *Leave, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:  eventType,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		Status:     l.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// notify delivers to the employee's manager when one is on record, otherwise
/// to the employee. Failures are logged and dropped: state is already
// committed and must not be rolled back over a notification.
func (s *service) notify(ctx context.Context, l *Leave, notificationType, message string) {
	if s.dispatcher == nil {
		return
	}

	recipientID := l.EmployeeID.String()
	employee, err := s.directory.GetEmployeeByID(ctx, recipientID)
	if err != nil {
		s.logger.Warn("notify manager lookup failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
	} else if employee.ManagerID != nil && *employee.ManagerID != "" {
		recipientID = *employee.ManagerID
	}

	err = s.dispatcher.Send(ctx, notification.Notification{
		RecipientID:      recipientID,
		NotificationType: notificationType,
		Channel:          notification.ChannelInApp,
		Subject:          "Leave Request Update",
		Message:          fmt.Sprintf("%s - Leave %s", message, l.RequestNumber),
	})
	if err != nil {
		s.logger.Warn("send leave notification failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("notification_type", notificationType),
			zap.Error(err),
		)
	}
}

func (s *service) invalidateBalances(ctx context.Context, employeeID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, employeeID)
	}
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
