package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	balancesKeyPrefix = "leave:balances:"
	balancesCacheTTL  = 5 * time.Minute
)

func BalancesCacheKey(employeeID string) string {
	return balancesKeyPrefix + employeeID
}

// Service is the read side of the ledger: it reports every leave type for an
// employee, lazily creating missing rows with the default allocation.
//
//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	GetBalances(ctx context.Context, employeeID string) ([]BalanceResponse, error)
	Invalidate(ctx context.Context, employeeID string)
}

type service struct {
	db     *sql.DB
	ledger Ledger
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, ledger Ledger, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{
		db:     db,
		ledger: ledger,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetBalances(ctx context.Context, employeeID string) ([]BalanceResponse, error) {
	cacheKey := BalancesCacheKey(employeeID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				s.logger.Debug("balances cache hit", zap.String("employee_id", employeeID))
				return resp, nil
			}
		}
	}

	// Collapse concurrent cache misses for the same employee into one load
	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		return s.loadBalances(ctx, employeeID)
	})
	if err != nil {
		return nil, err
	}
	resp := result.([]BalanceResponse)

	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, balancesCacheTTL).Err(); err != nil {
				s.logger.Warn("balances cache set failed", zap.Error(err))
			}
		}
	}

	return resp, nil
}

func (s *service) loadBalances(ctx context.Context, employeeID string) ([]BalanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("get balances begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qledger := s.ledger.WithTx(tx)

	balances := make([]LeaveBalance, 0, len(LeaveTypes))
	for _, leaveType := range LeaveTypes {
		b, err := qledger.GetOrCreate(ctx, employeeID, leaveType)
		if err != nil {
			s.logger.Error("get balances load failed",
				zap.String("employee_id", employeeID),
				zap.String("leave_type", leaveType),
				zap.Error(err),
			)
			return nil, err
		}
		balances = append(balances, *b)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("get balances commit failed", zap.Error(err))
		return nil, err
	}

	return mapToListResponse(balances), nil
}

func (s *service) Invalidate(ctx context.Context, employeeID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, BalancesCacheKey(employeeID)).Err(); err != nil {
		s.logger.Warn("balances cache invalidate failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
	}
}
