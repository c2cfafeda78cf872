package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
)

// Memory is a thread-safe Record Store. Collections keep insertion order so
// that stable sorting preserves it for equal keys.
type Memory struct {
	mu         sync.RWMutex
	employees  []entity.Employee
	activities []entity.Activity
	users      []entity.User
	persister  *Persistence
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store. p may be nil for a purely in-process store.
func NewMemory(p *Persistence) *Memory {
	return &Memory{persister: p}
}

// LoadMemory restores a store from the files written by p.
func LoadMemory(p *Persistence) (*Memory, error) {
	m := NewMemory(p)
	if p == nil {
		return m, nil
	}

	if err := p.Load(employeesFile, &m.employees); err != nil {
		return nil, err
	}
	if err := p.Load(activitiesFile, &m.activities); err != nil {
		return nil, err
	}
	if err := p.Load(usersFile, &m.users); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Memory) Close() {}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrUnavailable, err)
	}
	return nil
}

// save persists a collection before the caller swaps it in, so a failed write
// leaves the in-memory state unchanged. Must be called with m.mu held.
func (m *Memory) save(collection string, v any) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.Save(collection, v); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrUnavailable, err)
	}
	return nil
}

// storedEmployee has Employee's fields without its JSON method, so derived
// attributes such as fullName stay out of the collection file.
type storedEmployee entity.Employee

func (m *Memory) saveEmployees(employees []entity.Employee) error {
	if m.persister == nil {
		return nil
	}
	stored := make([]storedEmployee, len(employees))
	for i, e := range employees {
		stored[i] = storedEmployee(e)
	}
	return m.save(employeesFile, stored)
}

// --- employees ---

func (m *Memory) CreateEmployee(ctx context.Context, emp *entity.Employee) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(emp.Email, "") {
		return fmt.Errorf("employee email %s: %w", emp.Email, entity.ErrConflict)
	}

	next := append(slices.Clone(m.employees), *emp)
	if err := m.saveEmployees(next); err != nil {
		return err
	}

	m.employees = next
	return nil
}

func (m *Memory) GetEmployee(ctx context.Context, id string) (*entity.Employee, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.employeeIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("employee %s: %w", id, entity.ErrNotFound)
	}

	emp := m.employees[i]
	return &emp, nil
}

func (m *Memory) UpdateEmployee(ctx context.Context, emp *entity.Employee) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.employeeIndex(emp.ID)
	if i < 0 {
		return fmt.Errorf("employee %s: %w", emp.ID, entity.ErrNotFound)
	}
	if m.emailTaken(emp.Email, emp.ID) {
		return fmt.Errorf("employee email %s: %w", emp.Email, entity.ErrConflict)
	}

	next := slices.Clone(m.employees)
	next[i] = *emp
	if err := m.saveEmployees(next); err != nil {
		return err
	}

	m.employees = next
	return nil
}

func (m *Memory) DeleteEmployee(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.employeeIndex(id)
	if i < 0 {
		return fmt.Errorf("employee %s: %w", id, entity.ErrNotFound)
	}

	next := slices.Delete(slices.Clone(m.employees), i, i+1)
	if err := m.saveEmployees(next); err != nil {
		return err
	}

	m.employees = next
	return nil
}

func (m *Memory) ListEmployees(ctx context.Context, opts query.Options) (query.Page[entity.Employee], error) {
	if err := checkContext(ctx); err != nil {
		return query.Page[entity.Employee]{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return query.Apply(m.employees, opts, EmployeeSchema), nil
}

func (m *Memory) EmployeeStats(ctx context.Context) (*entity.EmployeeStats, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := NewEmployeeStats()
	for _, emp := range m.employees {
		stats.Total++
		stats.ByStatus[string(emp.Status)]++
		stats.ByDepartment[string(emp.Department)]++
		if emp.Status == entity.EmployeeActive {
			stats.Active++
		}
	}

	return stats, nil
}

// NewEmployeeStats returns stats with every known status and department present.
func NewEmployeeStats() *entity.EmployeeStats {
	stats := &entity.EmployeeStats{
		ByStatus: map[string]int{
			string(entity.EmployeeActive):   0,
			string(entity.EmployeeInactive): 0,
		},
		ByDepartment: make(map[string]int, len(entity.Departments)),
	}
	for _, d := range entity.Departments {
		stats.ByDepartment[string(d)] = 0
	}
	return stats
}

func (m *Memory) employeeIndex(id string) int {
	return slices.IndexFunc(m.employees, func(e entity.Employee) bool { return e.ID == id })
}

func (m *Memory) emailTaken(email, exceptID string) bool {
	return slices.ContainsFunc(m.employees, func(e entity.Employee) bool {
		return e.ID != exceptID && strings.EqualFold(e.Email, email)
	})
}

// --- activities ---

func (m *Memory) CreateActivity(ctx context.Context, a *entity.Activity) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := append(slices.Clone(m.activities), *a)
	if err := m.save(activitiesFile, next); err != nil {
		return err
	}

	m.activities = next
	return nil
}

func (m *Memory) GetActivity(ctx context.Context, id string) (*entity.Activity, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.activityIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, entity.ErrNotFound)
	}

	a := m.activities[i]
	return &a, nil
}

func (m *Memory) UpdateActivity(ctx context.Context, a *entity.Activity) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activityIndex(a.ID)
	if i < 0 {
		return fmt.Errorf("activity %s: %w", a.ID, entity.ErrNotFound)
	}

	current := m.activities[i]
	if current.Status != entity.ActivityPending {
		return fmt.Errorf("activity %s is %s: %w", a.ID, current.Status, entity.ErrInvalidState)
	}

	current.Description = a.Description
	current.Date = a.Date
	current.UpdatedAt = a.UpdatedAt

	next := slices.Clone(m.activities)
	next[i] = current
	if err := m.save(activitiesFile, next); err != nil {
		return err
	}

	m.activities = next
	*a = current
	return nil
}

func (m *Memory) TransitionActivity(ctx context.Context, id string, t entity.Transition) (*entity.Activity, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activityIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, entity.ErrNotFound)
	}

	a := m.activities[i]
	if a.Status != entity.ActivityPending {
		return nil, fmt.Errorf("activity %s is %s: %w", id, a.Status, entity.ErrInvalidState)
	}

	applyTransition(&a, t)

	next := slices.Clone(m.activities)
	next[i] = a
	if err := m.save(activitiesFile, next); err != nil {
		return nil, err
	}

	m.activities = next
	return &a, nil
}

func applyTransition(a *entity.Activity, t entity.Transition) {
	actor := t.ActorID
	a.Status = t.Status
	a.Remarks = t.Remarks
	a.UpdatedAt = t.At

	switch t.Status {
	case entity.ActivityApproved:
		a.ApprovedBy = &actor
	case entity.ActivityRejected:
		a.RejectedBy = &actor
	}
}

func (m *Memory) DeleteActivity(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activityIndex(id)
	if i < 0 {
		return fmt.Errorf("activity %s: %w", id, entity.ErrNotFound)
	}

	next := slices.Delete(slices.Clone(m.activities), i, i+1)
	if err := m.save(activitiesFile, next); err != nil {
		return err
	}

	m.activities = next
	return nil
}

func (m *Memory) ListActivities(ctx context.Context, filter entity.ActivityFilter, opts query.Options) (query.Page[entity.Activity], error) {
	if err := checkContext(ctx); err != nil {
		return query.Page[entity.Activity]{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return query.Apply(m.filterActivities(filter), opts, ActivitySchema), nil
}

func (m *Memory) ActivityStats(ctx context.Context, filter entity.ActivityFilter) (*entity.ActivityStats, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &entity.ActivityStats{}
	for _, a := range m.filterActivities(filter) {
		stats.Total++
		switch a.Status {
		case entity.ActivityPending:
			stats.Pending++
		case entity.ActivityApproved:
			stats.Approved++
		case entity.ActivityRejected:
			stats.Rejected++
		}
	}

	return stats, nil
}

func (m *Memory) filterActivities(filter entity.ActivityFilter) []entity.Activity {
	out := make([]entity.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		if filter.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Memory) activityIndex(id string) int {
	return slices.IndexFunc(m.activities, func(a entity.Activity) bool { return a.ID == id })
}

// --- users ---

func (m *Memory) CreateUser(ctx context.Context, u *entity.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userIndexByEmail(u.Email) >= 0 {
		return fmt.Errorf("user email %s: %w", u.Email, entity.ErrConflict)
	}

	next := append(slices.Clone(m.users), *u)
	if err := m.save(usersFile, next); err != nil {
		return err
	}

	m.users = next
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := slices.IndexFunc(m.users, func(u entity.User) bool { return u.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", id, entity.ErrNotFound)
	}

	u := m.users[i]
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.userIndexByEmail(email)
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", email, entity.ErrNotFound)
	}

	u := m.users[i]
	return &u, nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *entity.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.users, func(existing entity.User) bool { return existing.ID == u.ID })
	if i < 0 {
		return fmt.Errorf("user %s: %w", u.ID, entity.ErrNotFound)
	}

	next := slices.Clone(m.users)
	next[i] = *u
	if err := m.save(usersFile, next); err != nil {
		return err
	}

	m.users = next
	return nil
}

func (m *Memory) CountUsers(ctx context.Context) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.users), nil
}

func (m *Memory) userIndexByEmail(email string) int {
	return slices.IndexFunc(m.users, func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}
