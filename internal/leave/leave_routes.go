package leave

import (
	"go-leave/internal/balance"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	balanceHandler *balance.Handler,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	leaves.Use(middleware.ExtractUserID())
	{
		leaves.POST("", middleware.Idempotency(rdb), handler.Apply)
		leaves.GET("/:id", handler.GetByID)
		leaves.GET("/employee/:employeeId", handler.ListByEmployee)
		leaves.GET("/approver/:approverId", handler.ListByApprover)
		leaves.GET("/pending", middleware.RoleMiddleware(RoleManager, RoleAdmin), handler.ListPending)
		leaves.POST("/:id/approve", middleware.RoleMiddleware(RoleManager, RoleAdmin), handler.Decide)
		leaves.POST("/:id/cancel", handler.Cancel)
		leaves.GET("/balance/:employeeId", balanceHandler.GetBalances)
	}
}
