// Package store defines the Record Store contract and its in-memory backend.
// The in-memory backend optionally mirrors every write to JSON files, one
// array per collection, which is the file-based deployment of the service.
package store

import (
	"context"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
)

type EmployeeStore interface {
	// CreateEmployee fails with entity.ErrConflict when the email is taken.
	CreateEmployee(ctx context.Context, emp *entity.Employee) error
	GetEmployee(ctx context.Context, id string) (*entity.Employee, error)
	UpdateEmployee(ctx context.Context, emp *entity.Employee) error
	DeleteEmployee(ctx context.Context, id string) error
	ListEmployees(ctx context.Context, opts query.Options) (query.Page[entity.Employee], error)
	EmployeeStats(ctx context.Context) (*entity.EmployeeStats, error)
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, a *entity.Activity) error
	GetActivity(ctx context.Context, id string) (*entity.Activity, error)
	// UpdateActivity stores description and date edits. It fails with
	// entity.ErrInvalidState when the stored activity is no longer pending.
	UpdateActivity(ctx context.Context, a *entity.Activity) error
	// TransitionActivity moves a pending activity to a terminal status. The
	// pending check and the write are atomic; a lost race yields entity.ErrInvalidState.
	TransitionActivity(ctx context.Context, id string, t entity.Transition) (*entity.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	ListActivities(ctx context.Context, filter entity.ActivityFilter, opts query.Options) (query.Page[entity.Activity], error)
	ActivityStats(ctx context.Context, filter entity.ActivityFilter) (*entity.ActivityStats, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *entity.User) error
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateUser(ctx context.Context, u *entity.User) error
	CountUsers(ctx context.Context) (int, error)
}

type Store interface {
	EmployeeStore
	ActivityStore
	UserStore
	Close()
}
