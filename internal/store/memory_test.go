package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func testEmployee(id, email string) entity.Employee {
	salary := decimal.RequireFromString("4200.50")
	return entity.Employee{
		ID:         id,
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      email,
		Department: entity.DepartmentEngineering,
		Position:   "Developer",
		Status:     entity.EmployeeActive,
		JoinDate:   entity.NewDate(testNow),
		Salary:     &salary,
		Address:    &entity.Address{City: "Lisbon"},
		CreatedBy:  "admin",
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

func testActivity(id, employeeID string) entity.Activity {
	return entity.Activity{
		ID:          id,
		EmployeeID:  employeeID,
		Description: "Completed the monthly report",
		Date:        entity.NewDate(testNow),
		Status:      entity.ActivityPending,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func TestMemory_EmployeeEmailUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	first := testEmployee("e1", "jane@example.com")
	require.NoError(t, m.CreateEmployee(ctx, &first))

	dup := testEmployee("e2", "JANE@example.com")
	err := m.CreateEmployee(ctx, &dup)
	assert.True(t, errors.Is(err, entity.ErrConflict))

	other := testEmployee("e3", "john@example.com")
	require.NoError(t, m.CreateEmployee(ctx, &other))

	other.Email = "jane@example.com"
	assert.True(t, errors.Is(m.UpdateEmployee(ctx, &other), entity.ErrConflict))

	first.Position = "Lead"
	assert.NoError(t, m.UpdateEmployee(ctx, &first))
}

func TestMemory_EmployeeNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	_, err := m.GetEmployee(ctx, "missing")
	assert.True(t, errors.Is(err, entity.ErrNotFound))

	assert.True(t, errors.Is(m.DeleteEmployee(ctx, "missing"), entity.ErrNotFound))

	emp := testEmployee("missing", "x@example.com")
	assert.True(t, errors.Is(m.UpdateEmployee(ctx, &emp), entity.ErrNotFound))
}

func TestMemory_ListEmployeesDefaultsToNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	for i, id := range []string{"e1", "e2", "e3"} {
		emp := testEmployee(id, id+"@example.com")
		emp.CreatedAt = testNow.Add(time.Duration(i) * time.Hour)
		require.NoError(t, m.CreateEmployee(ctx, &emp))
	}

	page, err := m.ListEmployees(ctx, query.Options{Page: 1, Limit: 10})
	require.NoError(t, err)

	got := make([]string, 0, len(page.Items))
	for _, e := range page.Items {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"e3", "e2", "e1"}, got)
}

func TestMemory_EmployeeStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	a := testEmployee("e1", "a@example.com")
	b := testEmployee("e2", "b@example.com")
	b.Status = entity.EmployeeInactive
	b.Department = entity.DepartmentSales
	require.NoError(t, m.CreateEmployee(ctx, &a))
	require.NoError(t, m.CreateEmployee(ctx, &b))

	stats, err := m.EmployeeStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.ByStatus["inactive"])
	assert.Equal(t, 1, stats.ByDepartment["Sales"])
	assert.Equal(t, 0, stats.ByDepartment["HR"])
}

func TestMemory_TransitionIsExclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	a := testActivity("a1", "e1")
	require.NoError(t, m.CreateActivity(ctx, &a))

	statuses := []entity.ActivityStatus{entity.ActivityApproved, entity.ActivityRejected}
	results := make([]error, len(statuses))

	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status entity.ActivityStatus) {
			defer wg.Done()
			_, results[i] = m.TransitionActivity(ctx, "a1", entity.Transition{
				Status: status, ActorID: "mgr", At: testNow,
			})
		}(i, status)
	}
	wg.Wait()

	var winner entity.ActivityStatus
	successes := 0
	for i, err := range results {
		if err == nil {
			successes++
			winner = statuses[i]
			continue
		}
		assert.True(t, errors.Is(err, entity.ErrInvalidState))
	}
	require.Equal(t, 1, successes)

	stored, err := m.GetActivity(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, winner, stored.Status)
}

func TestMemory_UpdateActivityRequiresPending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	a := testActivity("a1", "e1")
	require.NoError(t, m.CreateActivity(ctx, &a))

	a.Description = "Rewrote the onboarding guide"
	require.NoError(t, m.UpdateActivity(ctx, &a))

	_, err := m.TransitionActivity(ctx, "a1", entity.Transition{Status: entity.ActivityApproved, ActorID: "mgr", At: testNow})
	require.NoError(t, err)

	a.Description = "Too late for changes now"
	assert.True(t, errors.Is(m.UpdateActivity(ctx, &a), entity.ErrInvalidState))

	stored, err := m.GetActivity(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Rewrote the onboarding guide", stored.Description)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, "mgr", *stored.ApprovedBy)
}

func TestMemory_ListActivitiesWithFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	days := []int{0, 1, 2, 3}
	for i, d := range days {
		a := testActivity(string(rune('a'+i)), "e1")
		a.Date = entity.NewDate(testNow.AddDate(0, 0, -d))
		if i == 3 {
			a.EmployeeID = "e2"
		}
		require.NoError(t, m.CreateActivity(ctx, &a))
	}

	from := entity.NewDate(testNow.AddDate(0, 0, -2))
	to := entity.NewDate(testNow.AddDate(0, 0, -1))

	page, err := m.ListActivities(ctx, entity.ActivityFilter{EmployeeID: "e1", From: &from, To: &to},
		query.Options{Page: 1, Limit: 10, SortBy: "date", SortOrder: query.Asc})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].ID)
	assert.Equal(t, "b", page.Items[1].ID)

	stats, err := m.ActivityStats(ctx, entity.ActivityFilter{EmployeeID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)
}

func TestMemory_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	m, err := LoadMemory(p)
	require.NoError(t, err)

	emp := testEmployee("e1", "jane@example.com")
	require.NoError(t, m.CreateEmployee(ctx, &emp))

	a := testActivity("a1", "e1")
	require.NoError(t, m.CreateActivity(ctx, &a))

	u := entity.User{ID: "u1", Name: "Admin", Email: "admin@example.com", PasswordHash: "hash", Role: entity.RoleAdmin}
	require.NoError(t, m.CreateUser(ctx, &u))

	restored, err := LoadMemory(p)
	require.NoError(t, err)

	raw, err := os.ReadFile(p.path(employeesFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"firstName"`)
	assert.NotContains(t, string(raw), "fullName")

	gotEmp, err := restored.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", gotEmp.Email)
	assert.True(t, gotEmp.Salary.Equal(*emp.Salary))
	assert.Equal(t, "Lisbon", gotEmp.Address.City)
	assert.True(t, gotEmp.JoinDate.Equal(emp.JoinDate.Time))

	gotAct, err := restored.GetActivity(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entity.ActivityPending, gotAct.Status)

	gotUser, err := restored.GetUserByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", gotUser.PasswordHash)
}

func TestMemory_CancelledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory(nil).GetEmployee(ctx, "e1")
	assert.True(t, errors.Is(err, entity.ErrUnavailable))
}
