package directory_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-leave/internal/directory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClient_GetEmployeeByID(t *testing.T) {
	employeeID := uuid.New().String()
	managerID := uuid.New().String()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/employees/"+employeeID, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"data":{"id":%q,"full_name":"Jordan Smith","email":"jordan@example.com","manager_id":%q}}`, employeeID, managerID)
	}))
	defer srv.Close()

	client := directory.NewHTTPClient(srv.URL, time.Second, 3)
	emp, err := client.GetEmployeeByID(context.Background(), employeeID)
	assert.NoError(t, err)
	assert.Equal(t, employeeID, emp.ID)
	assert.Equal(t, "Jordan Smith", emp.FullName)
	assert.NotNil(t, emp.ManagerID)
	assert.Equal(t, managerID, *emp.ManagerID)
}

func TestClient_GetEmployeeByID_NotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := directory.NewHTTPClient(srv.URL, time.Second, 3)
	_, err := client.GetEmployeeByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
	// a 404 is definitive, never retried
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_GetEmployeeByID_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := directory.NewHTTPClient(srv.URL, time.Second, 2)
	_, err := client.GetEmployeeByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, directory.ErrUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_GetEmployeeByID_RecoversAfterRetry(t *testing.T) {
	employeeID := uuid.New().String()
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"data":{"id":%q,"full_name":"Jordan Smith","email":"jordan@example.com","manager_id":null}}`, employeeID)
	}))
	defer srv.Close()

	client := directory.NewHTTPClient(srv.URL, time.Second, 3)
	emp, err := client.GetEmployeeByID(context.Background(), employeeID)
	assert.NoError(t, err)
	assert.Equal(t, employeeID, emp.ID)
	assert.Nil(t, emp.ManagerID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
