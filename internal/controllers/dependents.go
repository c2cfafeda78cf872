package controllers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/metrics"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Controllers struct {
	AuthController     *AuthController
	EmployeeController *EmployeeController
	ActivityController *ActivityController
}

func NewControllers(deps *Dependens) *Controllers {
	return &Controllers{
		AuthController:     NewAuthController(deps),
		EmployeeController: NewEmployeeController(deps),
		ActivityController: NewActivityController(deps),
	}
}

// Clock supplies the current time; tests pin it to make date rules deterministic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Dependens struct {
	Store store.Store
	Redis interface {
		Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
		Get(ctx context.Context, key string) *redis.StringCmd
		Del(ctx context.Context, keys ...string) *redis.IntCmd
	}
	Logger  *slog.Logger
	Config  *config.Config
	Metrics *metrics.Metrics
	Clock   Clock
	NewID   func() string
}

func (d *Dependens) now() time.Time {
	if d.Clock == nil {
		return systemClock{}.Now()
	}
	return d.Clock.Now()
}

func (d *Dependens) newID() string {
	if d.NewID == nil {
		return uuid.NewString()
	}
	return d.NewID()
}

// storeFailure logs a store error under op. Unavailable stores are counted;
// expected outcomes such as not found pass through quietly.
func (d *Dependens) storeFailure(op string, err error, attrs ...slog.Attr) error {
	if errors.Is(err, entity.ErrUnavailable) {
		d.Metrics.StoreError(op)
		d.Logger.LogAttrs(context.Background(), slog.LevelError, "Store operation failed",
			append([]slog.Attr{slog.String("op", op), slog.String("error", err.Error())}, attrs...)...)
		return err
	}

	d.Logger.LogAttrs(context.Background(), slog.LevelWarn, "Store operation rejected",
		append([]slog.Attr{slog.String("op", op), slog.String("error", err.Error())}, attrs...)...)
	return err
}

// denied logs a forbidden decision and returns it unchanged.
func (d *Dependens) denied(actor entity.Actor, err error) error {
	d.Logger.Warn("Access denied",
		slog.String("user_id", actor.UserID),
		slog.String("role", string(actor.Role)),
		slog.String("error", err.Error()),
	)
	return err
}
