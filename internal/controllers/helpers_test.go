package controllers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockRedis represents a mock Redis client.
type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)

	if statusCmd, ok := args.Get(0).(*redis.StatusCmd); ok {
		return statusCmd
	}

	cmd := redis.NewStatusCmd(ctx)
	if err, ok := args.Get(0).(error); ok && err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("OK")
	}

	return cmd
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)

	if stringCmd, ok := args.Get(0).(*redis.StringCmd); ok {
		return stringCmd
	}

	cmd := redis.NewStringCmd(ctx)
	if err, ok := args.Get(0).(error); ok && err != nil {
		cmd.SetErr(err)
	} else if val, ok := args.Get(0).(string); ok {
		cmd.SetVal(val)
	}

	return cmd
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)

	if intCmd, ok := args.Get(0).(*redis.IntCmd); ok {
		return intCmd
	}

	cmd := redis.NewIntCmd(ctx)
	if err, ok := args.Get(0).(error); ok && err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(int64(len(keys)))
	}

	return cmd
}

// memoryRedis is a map-backed stand-in for the token whitelist.
type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}}
}

func (r *memoryRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (r *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
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

func (r *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := r.data[k]; ok {
			delete(r.data, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func (r *memoryRedis) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.data[key]
	return ok
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

// sequentialIDs returns ids "id-1", "id-2", ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret-key"
	cfg.Redis.AccessTokenTTL = time.Hour
	cfg.Redis.RefreshTokenTTL = time.Hour * 24
	cfg.Query.DefaultPageSize = 10
	cfg.Query.MaxPageSize = 100
	cfg.Activity.MinDescription = 10
	cfg.Activity.MaxDescription = 500
	cfg.Bootstrap.AdminName = "Administrator"
	return cfg
}

// CreateTestDependencies wires controllers over an in-memory store.
func CreateTestDependencies(redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}) (*Dependens, *store.Memory) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := store.NewMemory(nil)

	return &Dependens{
		Store:  mem,
		Redis:  redisClient,
		Logger: logger,
		Config: testConfig(),
		Clock:  fixedClock{t: testNow},
		NewID:  sequentialIDs(),
	}, mem
}

var (
	adminActor   = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	managerActor = entity.Actor{UserID: "u-manager", Role: entity.RoleManager}
)

func employeeActor(employeeID string) entity.Actor {
	return entity.Actor{UserID: "u-" + employeeID, Role: entity.RoleEmployee, EmployeeID: employeeID}
}

// seedEmployee stores an active Engineering employee directly.
func seedEmployee(mem *store.Memory, id, first, email string) entity.Employee {
	emp := entity.Employee{
		ID:         id,
		FirstName:  first,
		LastName:   "Doe",
		Email:      email,
		Department: entity.DepartmentEngineering,
		Position:   "Developer",
		Status:     entity.EmployeeActive,
		JoinDate:   entity.NewDate(testNow),
		CreatedBy:  "u-admin",
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
	if err := mem.CreateEmployee(context.Background(), &emp); err != nil {
		panic(err)
	}
	return emp
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}
