package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-leave/internal/shared/apperror"

	"go.uber.org/zap"
)

// Employee is the slice of the employee service record the leave suite
// cares about.
type Employee struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	ManagerID *string `json:"manager_id"`
}

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"employee service unavailable",
		http.StatusServiceUnavailable,
	)
)

//go:generate mockgen -source=client.go -destination=mock/client_mock.go -package=mock
type Client interface {
	GetEmployeeByID(ctx context.Context, id string) (Employee, error)
}

type httpClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewHTTPClient builds the employee service adapter. Every call is bounded
// by the given timeout and transient failures are retried with a short
// backoff; a 404 is never retried.
func NewHTTPClient(baseURL string, timeout time.Duration, maxRetries int, logger ...*zap.Logger) Client {
	l := zap.L().Named("directory.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory.client")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &httpClient{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     l,
	}
}

type employeeEnvelope struct {
	Ok   bool     `json:"ok"`
	Data Employee `json:"data"`
}

func (c *httpClient) GetEmployeeByID(ctx context.Context, id string) (Employee, error) {
	url := fmt.Sprintf("%s/api/v1/employees/%s", c.baseURL, id)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Employee{}, apperror.Wrap(ctx.Err(), apperror.CodeServiceUnavailable, "employee service unavailable", http.StatusServiceUnavailable)
			case <-time.After(time.Duration(attempt-1) * 200 * time.Millisecond):
			}
		}

		emp, retryable, err := c.fetch(ctx, url)
		if err == nil {
			return emp, nil
		}
		if !retryable {
			return Employee{}, err
		}

		lastErr = err
		c.logger.Warn("employee lookup attempt failed",
			zap.String("employee_id", id),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	c.logger.Error("employee lookup exhausted retries",
		zap.String("employee_id", id),
		zap.Error(lastErr),
	)
	return Employee{}, ErrUnavailable
}

func (c *httpClient) fetch(ctx context.Context, url string) (Employee, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Employee{}, false, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return Employee{}, true, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return Employee{}, false, ErrEmployeeNotFound
	case res.StatusCode >= 500:
		return Employee{}, true, fmt.Errorf("employee service returned %d", res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return Employee{}, false, fmt.Errorf("employee service returned %d", res.StatusCode)
	}

	var env employeeEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return Employee{}, false, err
	}

	return env.Data, false, nil
}
