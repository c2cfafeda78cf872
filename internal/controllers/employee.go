package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adamanr/worklog_service/internal/access"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
	"github.com/shopspring/decimal"
)

type EmployeeController struct {
	deps *Dependens
}

func NewEmployeeController(deps *Dependens) *EmployeeController {
	return &EmployeeController{
		deps: deps,
	}
}

func (c *EmployeeController) limits() query.Limits {
	return query.Limits{
		DefaultLimit: c.deps.Config.Query.DefaultPageSize,
		MaxLimit:     c.deps.Config.Query.MaxPageSize,
	}
}

// GetEmployees lists employees. An employee actor always gets exactly their
// own record, whatever filters were requested.
func (c *EmployeeController) GetEmployees(ctx context.Context, actor entity.Actor, params *entity.ListEmployeesParams) (query.Page[entity.Employee], error) {
	if err := access.Decide(actor, access.EmployeeList, access.Any); err != nil {
		return query.Page[entity.Employee]{}, c.deps.denied(actor, err)
	}

	// Query parameters are ignored for an employee actor.
	if actor.Role == entity.RoleEmployee {
		if actor.EmployeeID == "" {
			return query.Page[entity.Employee]{Items: []entity.Employee{}, Pagination: query.NewPagination(0, 1, 1)}, nil
		}
		return c.listEmployees(ctx, query.Options{Filters: map[string]string{"id": actor.EmployeeID}, Page: 1, Limit: 1})
	}

	if params == nil {
		params = &entity.ListEmployeesParams{}
	}

	errs := &entity.ValidationError{}
	page, limit := pageOptions(params.Page, params.Limit, errs)

	opts := query.Options{
		Search:    deref(params.Search),
		Filters:   map[string]string{},
		SortBy:    deref(params.SortBy),
		SortOrder: query.Order(deref(params.SortOrder)),
		Page:      page,
		Limit:     limit,
	}

	if params.Department != nil && *params.Department != "" {
		if !entity.Department(*params.Department).Valid() {
			errs.Add("Invalid department")
		}
		opts.Filters["department"] = *params.Department
	}
	if params.Status != nil && *params.Status != "" {
		if !entity.EmployeeStatus(*params.Status).Valid() {
			errs.Add("Status must be active or inactive")
		}
		opts.Filters["status"] = *params.Status
	}
	if params.SortOrder != nil && *params.SortOrder != "" && query.ParseOrder(*params.SortOrder) == "" {
		errs.Add("Sort order must be asc or desc")
	}

	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid employee list query", slog.String("error", err.Error()))
		return query.Page[entity.Employee]{}, err
	}

	return c.listEmployees(ctx, opts)
}

func (c *EmployeeController) listEmployees(ctx context.Context, opts query.Options) (query.Page[entity.Employee], error) {
	result, err := c.deps.Store.ListEmployees(ctx, opts.Normalize(c.limits()))
	if err != nil {
		return query.Page[entity.Employee]{}, c.deps.storeFailure("list_employees", err)
	}

	return result, nil
}

// GetEmployeeByID checks that the record exists before asking the gate.
func (c *EmployeeController) GetEmployeeByID(ctx context.Context, actor entity.Actor, id string) (*entity.Employee, error) {
	emp, err := c.deps.Store.GetEmployee(ctx, id)
	if err != nil {
		return nil, c.deps.storeFailure("get_employee", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.EmployeeRead, access.Owned(emp.ID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	return emp, nil
}

func (c *EmployeeController) CreateEmployee(ctx context.Context, actor entity.Actor, input entity.EmployeeInput) (*entity.Employee, error) {
	if err := access.Decide(actor, access.EmployeeCreate, access.Any); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	now := c.deps.now()
	emp := entity.Employee{
		ID:               c.deps.newID(),
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Email:            normalizeEmail(input.Email),
		Phone:            strings.TrimSpace(input.Phone),
		Department:       input.Department,
		Position:         strings.TrimSpace(input.Position),
		Status:           input.Status,
		JoinDate:         entity.NewDate(now),
		Salary:           input.Salary,
		Address:          input.Address,
		EmergencyContact: input.EmergencyContact,
		UserID:           input.UserID,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if emp.Status == "" {
		emp.Status = entity.EmployeeActive
	}

	errs := &entity.ValidationError{}

	switch {
	case emp.FirstName == "":
		errs.Add("First name is required")
	case textLength(emp.FirstName) > maxNameLength:
		errs.Add("First name cannot exceed 50 characters")
	}
	switch {
	case emp.LastName == "":
		errs.Add("Last name is required")
	case textLength(emp.LastName) > maxNameLength:
		errs.Add("Last name cannot exceed 50 characters")
	}
	switch {
	case emp.Email == "":
		errs.Add("Email is required")
	case !validEmail(emp.Email):
		errs.Add("Please provide a valid email")
	}
	if emp.Phone != "" && !validPhone(emp.Phone) {
		errs.Add("Please provide a valid phone number")
	}
	switch {
	case emp.Department == "":
		errs.Add("Department is required")
	case !emp.Department.Valid():
		errs.Add("Invalid department")
	}
	if emp.Position == "" {
		errs.Add("Position is required")
	}
	if !emp.Status.Valid() {
		errs.Add("Status must be active or inactive")
	}
	if input.JoinDate != nil && *input.JoinDate != "" {
		joinDate, err := entity.ParseDate(*input.JoinDate)
		if err != nil {
			errs.Add("Please provide a valid date")
		} else {
			emp.JoinDate = joinDate
		}
	}
	validateSalary(emp.Salary, errs)

	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid employee", slog.String("error", err.Error()))
		return nil, err
	}

	if err := c.deps.Store.CreateEmployee(ctx, &emp); err != nil {
		return nil, c.deps.storeFailure("create_employee", err, slog.String("email", emp.Email))
	}

	c.deps.Logger.Info("Employee created", slog.String("id", emp.ID), slog.String("created_by", actor.UserID))
	return &emp, nil
}

// UpdateEmployee applies a partial update. Employees editing their own record
// are limited to contact details.
func (c *EmployeeController) UpdateEmployee(ctx context.Context, actor entity.Actor, id string, patch entity.EmployeePatch) (*entity.Employee, error) {
	emp, err := c.deps.Store.GetEmployee(ctx, id)
	if err != nil {
		return nil, c.deps.storeFailure("get_employee", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.EmployeeUpdate, access.Owned(emp.ID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}
	if actor.Role == entity.RoleEmployee && !patch.OnlyContactFields() {
		return nil, c.deps.denied(actor, fmt.Errorf("employee may only change contact details: %w", entity.ErrForbidden))
	}

	errs := &entity.ValidationError{}
	applyEmployeePatch(emp, patch, errs)
	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid employee update", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}

	updatedBy := actor.UserID
	emp.UpdatedBy = &updatedBy
	emp.UpdatedAt = c.deps.now()

	if err := c.deps.Store.UpdateEmployee(ctx, emp); err != nil {
		return nil, c.deps.storeFailure("update_employee", err, slog.String("id", id))
	}

	c.deps.Logger.Info("Employee updated", slog.String("id", id), slog.String("updated_by", actor.UserID))
	return emp, nil
}

func applyEmployeePatch(emp *entity.Employee, p entity.EmployeePatch, errs *entity.ValidationError) {
	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		switch {
		case v == "":
			errs.Add("First name is required")
		case textLength(v) > maxNameLength:
			errs.Add("First name cannot exceed 50 characters")
		}
		emp.FirstName = v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		switch {
		case v == "":
			errs.Add("Last name is required")
		case textLength(v) > maxNameLength:
			errs.Add("Last name cannot exceed 50 characters")
		}
		emp.LastName = v
	}
	if p.Email != nil {
		v := normalizeEmail(*p.Email)
		if !validEmail(v) {
			errs.Add("Please provide a valid email")
		}
		emp.Email = v
	}
	if p.Phone != nil {
		v := strings.TrimSpace(*p.Phone)
		if v != "" && !validPhone(v) {
			errs.Add("Please provide a valid phone number")
		}
		emp.Phone = v
	}
	if p.Department != nil {
		if !p.Department.Valid() {
			errs.Add("Invalid department")
		}
		emp.Department = *p.Department
	}
	if p.Position != nil {
		v := strings.TrimSpace(*p.Position)
		if v == "" {
			errs.Add("Position is required")
		}
		emp.Position = v
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			errs.Add("Status must be active or inactive")
		}
		emp.Status = *p.Status
	}
	if p.JoinDate != nil {
		joinDate, err := entity.ParseDate(*p.JoinDate)
		if err != nil {
			errs.Add("Please provide a valid date")
		}
		emp.JoinDate = joinDate
	}
	if p.Salary != nil {
		validateSalary(p.Salary, errs)
		emp.Salary = p.Salary
	}
	if p.Address != nil {
		emp.Address = p.Address
	}
	if p.EmergencyContact != nil {
		emp.EmergencyContact = p.EmergencyContact
	}
	if p.UserID != nil {
		emp.UserID = p.UserID
	}
}

func validateSalary(salary *decimal.Decimal, errs *entity.ValidationError) {
	if salary != nil && salary.IsNegative() {
		errs.Add("Salary must be a positive number")
	}
}

func (c *EmployeeController) DeleteEmployee(ctx context.Context, actor entity.Actor, id string) error {
	emp, err := c.deps.Store.GetEmployee(ctx, id)
	if err != nil {
		return c.deps.storeFailure("get_employee", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.EmployeeDelete, access.Owned(emp.ID)); err != nil {
		return c.deps.denied(actor, err)
	}

	if err := c.deps.Store.DeleteEmployee(ctx, id); err != nil {
		return c.deps.storeFailure("delete_employee", err, slog.String("id", id))
	}

	c.deps.Logger.Info("Employee deleted", slog.String("id", id), slog.String("deleted_by", actor.UserID))
	return nil
}

func (c *EmployeeController) GetStats(ctx context.Context, actor entity.Actor) (*entity.EmployeeStats, error) {
	if err := access.Decide(actor, access.EmployeeStats, access.Any); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	stats, err := c.deps.Store.EmployeeStats(ctx)
	if err != nil {
		return nil, c.deps.storeFailure("employee_stats", err)
	}

	return stats, nil
}
