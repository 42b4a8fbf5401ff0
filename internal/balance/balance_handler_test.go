package balance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/balance"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	getBalancesFn func(ctx context.Context, employeeID string) ([]balance.BalanceResponse, error)
}

func (f *fakeService) GetBalances(ctx context.Context, employeeID string) ([]balance.BalanceResponse, error) {
	return f.getBalancesFn(ctx, employeeID)
}
func (f *fakeService) Invalidate(ctx context.Context, employeeID string) {}

func TestHandler_GetBalances(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New().String()

	svc := &fakeService{
		getBalancesFn: func(ctx context.Context, eid string) ([]balance.BalanceResponse, error) {
			assert.Equal(t, employeeID, eid)
			return []balance.BalanceResponse{
				{EmployeeID: eid, LeaveType: balance.TypeAnnual, TotalDays: 20, UsedDays: 3, AvailableDays: 17},
			}, nil
		},
	}

	h := balance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", employeeID)
	c.Set("role", "employee")
	c.Params = gin.Params{{Key: "employeeId", Value: employeeID}}
	c.Request = httptest.NewRequest(http.MethodGet, "/leaves/balance/"+employeeID, nil)
	h.GetBalances(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available_days":17`)
}

func TestHandler_GetBalances_Forbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		getBalancesFn: func(ctx context.Context, eid string) ([]balance.BalanceResponse, error) {
			t.Fatal("service must not be called for a forbidden caller")
			return nil, nil
		},
	}

	h := balance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", uuid.New().String())
	c.Set("role", "employee")
	c.Params = gin.Params{{Key: "employeeId", Value: uuid.New().String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/leaves/balance/other", nil)
	h.GetBalances(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
