package app

import (
	"database/sql"
	"os"
	"strconv"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/directory"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/notification"
	"go-leave/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	leaveRepo := leave.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- External collaborators ---
	directoryClient := directory.NewHTTPClient(
		os.Getenv("EMPLOYEE_SERVICE_URL"),
		collaboratorTimeout(),
		3,
	)
	dispatcher := notification.NewHTTPDispatcher(
		os.Getenv("NOTIFICATION_SERVICE_URL"),
		collaboratorTimeout(),
	)

	// --- Services ---
	allocations := balance.LoadAllocations()
	ledger := balance.NewLedger(balanceRepo, allocations)
	balanceService := balance.NewService(db, ledger, rdb)
	leaveService := leave.NewService(db, leave.ServiceDeps{
		Repo:       leaveRepo,
		Ledger:     ledger,
		Counter:    counterRepo,
		Outbox:     outboxRepo,
		Directory:  directoryClient,
		Dispatcher: dispatcher,
		Cache:      balanceService,
	})

	// --- Handlers ---
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	balanceHandler := balance.NewHandler(balanceService)

	// --- Routes Registration ---
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, balanceHandler, rdb)
	}

	return nil
}

func collaboratorTimeout() time.Duration {
	seconds, err := strconv.Atoi(os.Getenv("COLLABORATOR_TIMEOUT_SECONDS"))
	if err != nil || seconds <= 0 {
		seconds = 3
	}
	return time.Duration(seconds) * time.Second
}
