package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/adamanr/worklog_service/internal/controllers"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/metrics"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (r *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (r *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if v, ok := r.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (r *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.data, k)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	mem     *store.Memory
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret-key"
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Redis.AccessTokenTTL = time.Hour
	cfg.Redis.RefreshTokenTTL = 24 * time.Hour
	cfg.Query.DefaultPageSize = 10
	cfg.Query.MaxPageSize = 100
	cfg.Activity.MinDescription = 10
	cfg.Activity.MaxDescription = 500
	cfg.Bootstrap = config.BootstrapConfig{AdminName: "Administrator", AdminEmail: "admin@example.com", AdminPassword: "admin123"}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory(nil)

	n := 0
	deps := &controllers.Dependens{
		Store:   mem,
		Redis:   &fakeRedis{data: map[string]string{}},
		Logger:  logger,
		Config:  cfg,
		Metrics: m,
		Clock:   fixedClock{t: testNow},
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}

	server := NewServer(deps)
	require.NoError(t, server.Controllers.AuthController.Bootstrap(context.Background()))

	return &testAPI{t: t, handler: NewRouter(server, m, reg, logger), mem: mem, metrics: m}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func (a *testAPI) do(method, path, token string, body any) (int, apiResponse) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()

	code, resp := a.do(http.MethodPost, "/api/auth/login", "", entity.LoginRequest{Email: email, Password: password})
	require.Equal(a.t, http.StatusOK, code, resp.Message)

	var login entity.LoginResponse
	require.NoError(a.t, json.Unmarshal(resp.Data, &login))
	return login.AccessToken
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// setup creates an employee with a linked user and returns admin and employee tokens.
func (a *testAPI) setup() (adminToken, employeeToken, employeeID string) {
	a.t.Helper()

	adminToken = a.login("admin@example.com", "admin123")

	code, resp := a.do(http.MethodPost, "/api/employees", adminToken, map[string]any{
		"firstName":  "John",
		"lastName":   "Doe",
		"email":      "john@example.com",
		"department": "Engineering",
		"position":   "Developer",
		"salary":     55000.5,
	})
	require.Equal(a.t, http.StatusCreated, code, resp.Errors)
	created := decodeData[struct {
		Employee entity.Employee `json:"employee"`
	}](a.t, resp)
	employeeID = created.Employee.ID

	code, resp = a.do(http.MethodPost, "/api/auth/register", adminToken, entity.RegisterRequest{
		Name:       "John Doe",
		Email:      "john@example.com",
		Password:   "secret1",
		Role:       entity.RoleEmployee,
		EmployeeID: &employeeID,
	})
	require.Equal(a.t, http.StatusCreated, code, resp.Errors)

	return adminToken, a.login("john@example.com", "secret1"), employeeID
}

func TestServer_Unauthorized(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)

	code, _ = api.do(http.MethodGet, "/api/employees", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPost, "/api/auth/login", "", entity.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestServer_EmployeeLifecycle(t *testing.T) {
	api := newTestAPI(t)
	adminToken, employeeToken, employeeID := api.setup()

	code, resp := api.do(http.MethodPost, "/api/employees", employeeToken, map[string]any{"firstName": "X"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied", resp.Message)

	code, resp = api.do(http.MethodPost, "/api/employees", adminToken, map[string]any{"firstName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Contains(t, resp.Errors, "Email is required")

	code, resp = api.do(http.MethodPost, "/api/employees", adminToken, map[string]any{
		"firstName": "Johnny", "lastName": "Dup", "email": "JOHN@example.com", "department": "HR", "position": "Recruiter",
	})
	assert.Equal(t, http.StatusConflict, code, resp.Message)

	code, resp = api.do(http.MethodGet, "/api/employees?page=1&limit=5&search=JOHN", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	page := decodeData[struct {
		Employees  []map[string]any `json:"employees"`
		Pagination map[string]any   `json:"pagination"`
	}](t, resp)
	require.Len(t, page.Employees, 1)
	assert.Equal(t, "John Doe", page.Employees[0]["fullName"])
	assert.Equal(t, "2024-03-15", page.Employees[0]["joinDate"])
	assert.Equal(t, float64(1), page.Pagination["totalItems"])
	assert.Equal(t, float64(5), page.Pagination["itemsPerPage"])

	code, _ = api.do(http.MethodGet, "/api/employees/"+employeeID, employeeToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, "/api/employees/missing", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPut, "/api/employees/"+employeeID, employeeToken, map[string]any{"phone": "+1 555 0100"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPut, "/api/employees/"+employeeID, employeeToken, map[string]any{"position": "CTO"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = api.do(http.MethodGet, "/api/employees/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decodeData[entity.EmployeeStats](t, resp)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Active)

	code, _ = api.do(http.MethodGet, "/api/employees/stats", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = api.do(http.MethodGet, "/api/employees?page=abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Errors)

	code, _ = api.do(http.MethodDelete, "/api/employees/"+employeeID, adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_ActivityWorkflow(t *testing.T) {
	api := newTestAPI(t)
	adminToken, employeeToken, employeeID := api.setup()

	code, resp := api.do(http.MethodPost, "/api/activities", employeeToken, map[string]any{
		"date": "2024-03-16", "description": "abc",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Errors, "Activity date cannot be a future date")

	code, resp = api.do(http.MethodPost, "/api/activities", employeeToken, map[string]any{
		"date": "2024-03-15", "description": "Completed the monthly report", "status": "approved",
	})
	require.Equal(t, http.StatusCreated, code, resp.Errors)
	submitted := decodeData[struct {
		Activity entity.Activity `json:"activity"`
	}](t, resp).Activity
	assert.Equal(t, entity.ActivityPending, submitted.Status)
	assert.Equal(t, employeeID, submitted.EmployeeID)

	code, _ = api.do(http.MethodPost, "/api/activities/"+submitted.ID+"/approve", employeeToken, map[string]any{"remarks": "me"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = api.do(http.MethodPost, "/api/activities/"+submitted.ID+"/approve", adminToken, map[string]any{"remarks": "Looks good"})
	require.Equal(t, http.StatusOK, code)
	approved := decodeData[struct {
		Activity entity.Activity `json:"activity"`
	}](t, resp).Activity
	assert.Equal(t, entity.ActivityApproved, approved.Status)
	assert.Equal(t, "Looks good", approved.Remarks)

	code, resp = api.do(http.MethodPost, "/api/activities/"+submitted.ID+"/reject", adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Activity is no longer pending", resp.Message)

	code, _ = api.do(http.MethodPut, "/api/activities/"+submitted.ID, employeeToken, map[string]any{"description": "Changed after approval"})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = api.do(http.MethodGet, "/api/activities?status=approved&from=2024-03-01&to=2024-03-15", employeeToken, nil)
	require.Equal(t, http.StatusOK, code)
	list := decodeData[struct {
		Activities []entity.Activity `json:"activities"`
		Pagination map[string]any    `json:"pagination"`
	}](t, resp)
	require.Len(t, list.Activities, 1)
	assert.Equal(t, submitted.ID, list.Activities[0].ID)

	code, resp = api.do(http.MethodGet, "/api/activities/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, entity.ActivityStats{Total: 1, Approved: 1}, decodeData[entity.ActivityStats](t, resp))

	code, _ = api.do(http.MethodDelete, "/api/activities/"+submitted.ID, employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.do(http.MethodDelete, "/api/activities/"+submitted.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/activities/"+submitted.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_Logout(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("admin@example.com", "admin123")

	code, resp := api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decodeData[struct {
		User entity.User `json:"user"`
	}](t, resp)
	assert.Equal(t, entity.RoleAdmin, me.User.Role)

	code, _ = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestServer_OptionalBodyWithUnknownLength(t *testing.T) {
	api := newTestAPI(t)
	adminToken, employeeToken, _ := api.setup()

	code, resp := api.do(http.MethodPost, "/api/activities", employeeToken, map[string]any{
		"date": "2024-03-14", "description": "Reviewed pull requests for the team",
	})
	require.Equal(t, http.StatusCreated, code, resp.Errors)
	id := decodeData[struct {
		Activity entity.Activity `json:"activity"`
	}](t, resp).Activity.ID

	send := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, io.NopCloser(strings.NewReader(body)))
		req.Header.Set("Authorization", "Bearer "+adminToken)
		require.EqualValues(t, -1, req.ContentLength)

		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, send("/api/activities/"+id+"/reject", "{not json").Code)
	assert.Equal(t, http.StatusOK, send("/api/activities/"+id+"/reject", "").Code)
	assert.Equal(t, http.StatusOK, send("/api/auth/logout", "").Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.NewValidationError("x"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", entity.ErrUnauthorized), http.StatusUnauthorized},
		{entity.ErrForbidden, http.StatusForbidden},
		{entity.ErrNotFound, http.StatusNotFound},
		{entity.ErrConflict, http.StatusConflict},
		{entity.ErrInvalidState, http.StatusConflict},
		{entity.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
