package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adamanr/worklog_service/internal/access"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
)

type ActivityController struct {
	deps *Dependens
}

func NewActivityController(deps *Dependens) *ActivityController {
	return &ActivityController{
		deps: deps,
	}
}

// validateActivity checks description and date against the activity rules and
// returns the trimmed description and parsed date.
func (c *ActivityController) validateActivity(description, date string, errs *entity.ValidationError) (string, entity.Date) {
	description = strings.TrimSpace(description)
	minLen := c.deps.Config.Activity.MinDescription
	maxLen := c.deps.Config.Activity.MaxDescription

	switch n := textLength(description); {
	case n < minLen:
		errs.Add(fmt.Sprintf("Description must be at least %d characters", minLen))
	case n > maxLen:
		errs.Add(fmt.Sprintf("Description must not exceed %d characters", maxLen))
	}

	var day entity.Date
	if strings.TrimSpace(date) == "" {
		errs.Add("Date is required")
		return description, day
	}

	day, err := entity.ParseDate(strings.TrimSpace(date))
	if err != nil {
		errs.Add("Please provide a valid date")
		return description, day
	}

	if day.After(entity.NewDate(c.deps.now()).Time) {
		errs.Add("Activity date cannot be a future date")
	}

	return description, day
}

// Submit records a new pending activity. Any status sent by the client is ignored.
func (c *ActivityController) Submit(ctx context.Context, actor entity.Actor, req entity.SubmitActivityRequest) (*entity.Activity, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" && actor.Role == entity.RoleEmployee {
		employeeID = actor.EmployeeID
	}

	errs := &entity.ValidationError{}
	if employeeID == "" {
		errs.Add("Employee is required")
	}
	description, day := c.validateActivity(req.Description, req.Date, errs)

	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid activity", slog.String("employee_id", employeeID), slog.String("error", err.Error()))
		return nil, err
	}

	emp, err := c.deps.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, c.deps.storeFailure("get_employee", err, slog.String("id", employeeID))
	}

	if err := access.Decide(actor, access.ActivitySubmit, access.Owned(emp.ID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	now := c.deps.now()
	activity := entity.Activity{
		ID:           c.deps.newID(),
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName(),
		Description:  description,
		Date:         day,
		Status:       entity.ActivityPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.deps.Store.CreateActivity(ctx, &activity); err != nil {
		return nil, c.deps.storeFailure("create_activity", err, slog.String("employee_id", emp.ID))
	}

	c.deps.Logger.Info("Activity submitted",
		slog.String("id", activity.ID),
		slog.String("employee_id", activity.EmployeeID),
		slog.String("submitted_by", actor.UserID),
	)

	return &activity, nil
}

// Transition moves a pending activity to approved or rejected. Only the first
// of two racing transitions succeeds; the store enforces the pending check.
func (c *ActivityController) Transition(ctx context.Context, actor entity.Actor, id string, target entity.ActivityStatus, remarks string) (*entity.Activity, error) {
	current, err := c.deps.Store.GetActivity(ctx, id)
	if err != nil {
		return nil, c.deps.storeFailure("get_activity", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.ActivityTransition, access.Owned(current.EmployeeID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	errs := &entity.ValidationError{}
	if !target.Terminal() {
		errs.Add("Status must be approved or rejected")
	}
	remarks = strings.TrimSpace(remarks)
	if textLength(remarks) > maxRemarksLength {
		errs.Add("Remarks must not exceed 500 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if current.Status != entity.ActivityPending {
		c.deps.Logger.Warn("Activity already reviewed", slog.String("id", id), slog.String("status", string(current.Status)))
		return nil, fmt.Errorf("activity %s is %s: %w", id, current.Status, entity.ErrInvalidState)
	}

	updated, err := c.deps.Store.TransitionActivity(ctx, id, entity.Transition{
		Status:  target,
		Remarks: remarks,
		ActorID: actor.UserID,
		At:      c.deps.now(),
	})
	if err != nil {
		return nil, c.deps.storeFailure("transition_activity", err, slog.String("id", id), slog.String("status", string(target)))
	}

	c.deps.Metrics.Transition(string(target))
	c.deps.Logger.Info("Activity reviewed",
		slog.String("id", id),
		slog.String("status", string(target)),
		slog.String("reviewed_by", actor.UserID),
	)

	return updated, nil
}

func (c *ActivityController) Approve(ctx context.Context, actor entity.Actor, id, remarks string) (*entity.Activity, error) {
	return c.Transition(ctx, actor, id, entity.ActivityApproved, remarks)
}

func (c *ActivityController) Reject(ctx context.Context, actor entity.Actor, id, remarks string) (*entity.Activity, error) {
	return c.Transition(ctx, actor, id, entity.ActivityRejected, remarks)
}

// Edit changes description or date of a pending activity.
func (c *ActivityController) Edit(ctx context.Context, actor entity.Actor, id string, patch entity.ActivityPatch) (*entity.Activity, error) {
	current, err := c.deps.Store.GetActivity(ctx, id)
	if err != nil {
		return nil, c.deps.storeFailure("get_activity", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.ActivityEdit, access.Owned(current.EmployeeID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	if current.Status != entity.ActivityPending {
		return nil, fmt.Errorf("activity %s is %s: %w", id, current.Status, entity.ErrInvalidState)
	}

	description := current.Description
	if patch.Description != nil {
		description = *patch.Description
	}
	date := current.Date.String()
	if patch.Date != nil {
		date = *patch.Date
	}

	errs := &entity.ValidationError{}
	description, day := c.validateActivity(description, date, errs)
	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid activity update", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}

	current.Description = description
	current.Date = day
	current.UpdatedAt = c.deps.now()

	if err := c.deps.Store.UpdateActivity(ctx, current); err != nil {
		return nil, c.deps.storeFailure("update_activity", err, slog.String("id", id))
	}

	c.deps.Logger.Info("Activity updated", slog.String("id", id), slog.String("updated_by", actor.UserID))
	return current, nil
}

func (c *ActivityController) GetActivity(ctx context.Context, actor entity.Actor, id string) (*entity.Activity, error) {
	activity, err := c.deps.Store.GetActivity(ctx, id)
	if err != nil {
		return nil, c.deps.storeFailure("get_activity", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.ActivityRead, access.Owned(activity.EmployeeID)); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	return activity, nil
}

func (c *ActivityController) DeleteActivity(ctx context.Context, actor entity.Actor, id string) error {
	activity, err := c.deps.Store.GetActivity(ctx, id)
	if err != nil {
		return c.deps.storeFailure("get_activity", err, slog.String("id", id))
	}

	if err := access.Decide(actor, access.ActivityDelete, access.Owned(activity.EmployeeID)); err != nil {
		return c.deps.denied(actor, err)
	}

	if err := c.deps.Store.DeleteActivity(ctx, id); err != nil {
		return c.deps.storeFailure("delete_activity", err, slog.String("id", id))
	}

	c.deps.Logger.Info("Activity deleted", slog.String("id", id), slog.String("deleted_by", actor.UserID))
	return nil
}

// visibleFilter builds the store filter for a listing. Employees only ever see
// their own activities, whatever employee they asked for.
func (c *ActivityController) visibleFilter(actor entity.Actor, params *entity.ListActivitiesParams, errs *entity.ValidationError) entity.ActivityFilter {
	filter := entity.ActivityFilter{EmployeeID: strings.TrimSpace(deref(params.EmployeeID))}

	if s := strings.TrimSpace(deref(params.Status)); s != "" {
		status := entity.ActivityStatus(s)
		if !status.Valid() {
			errs.Add("Status must be pending, approved, or rejected")
		}
		filter.Status = status
	}

	if s := strings.TrimSpace(deref(params.From)); s != "" {
		from, err := entity.ParseDate(s)
		if err != nil {
			errs.Add("Please provide a valid start date")
		} else {
			filter.From = &from
		}
	}
	if s := strings.TrimSpace(deref(params.To)); s != "" {
		to, err := entity.ParseDate(s)
		if err != nil {
			errs.Add("Please provide a valid end date")
		} else {
			filter.To = &to
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(filter.To.Time) {
		errs.Add("Start date must not be after end date")
	}

	if actor.Role == entity.RoleEmployee {
		filter.EmployeeID = actor.EmployeeID
	}

	return filter
}

// ListFor returns activities matching the optional status and inclusive date
// range, newest first unless another order is requested.
func (c *ActivityController) ListFor(ctx context.Context, actor entity.Actor, params *entity.ListActivitiesParams) (query.Page[entity.Activity], error) {
	if err := access.Decide(actor, access.ActivityList, access.Any); err != nil {
		return query.Page[entity.Activity]{}, c.deps.denied(actor, err)
	}

	if params == nil {
		params = &entity.ListActivitiesParams{}
	}

	errs := &entity.ValidationError{}
	page, limit := pageOptions(params.Page, params.Limit, errs)
	filter := c.visibleFilter(actor, params, errs)
	if params.SortOrder != nil && *params.SortOrder != "" && query.ParseOrder(*params.SortOrder) == "" {
		errs.Add("Sort order must be asc or desc")
	}

	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid activity list query", slog.String("error", err.Error()))
		return query.Page[entity.Activity]{}, err
	}

	if actor.Role == entity.RoleEmployee && actor.EmployeeID == "" {
		return query.Page[entity.Activity]{Items: []entity.Activity{}, Pagination: query.NewPagination(0, page, 1)}, nil
	}

	opts := query.Options{
		Search:    deref(params.Search),
		SortBy:    deref(params.SortBy),
		SortOrder: query.Order(deref(params.SortOrder)),
		Page:      page,
		Limit:     limit,
	}.Normalize(query.Limits{
		DefaultLimit: c.deps.Config.Query.DefaultPageSize,
		MaxLimit:     c.deps.Config.Query.MaxPageSize,
	})

	result, err := c.deps.Store.ListActivities(ctx, filter, opts)
	if err != nil {
		return query.Page[entity.Activity]{}, c.deps.storeFailure("list_activities", err)
	}

	return result, nil
}

// Stats counts activities by status within what the actor may list.
func (c *ActivityController) Stats(ctx context.Context, actor entity.Actor) (*entity.ActivityStats, error) {
	if err := access.Decide(actor, access.ActivityList, access.Any); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	var filter entity.ActivityFilter
	if actor.Role == entity.RoleEmployee {
		if actor.EmployeeID == "" {
			return &entity.ActivityStats{}, nil
		}
		filter.EmployeeID = actor.EmployeeID
	}

	stats, err := c.deps.Store.ActivityStats(ctx, filter)
	if err != nil {
		return nil, c.deps.storeFailure("activity_stats", err)
	}

	return stats, nil
}
