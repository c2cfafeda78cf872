package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/jackc/pgx/v5"
)

const activityColumns = `id, employee_id, employee_name, description, date, status, remarks,
       approved_by, rejected_by, created_at, updated_at`

var activitySortColumns = map[string]string{
	"date":        "date",
	"status":      "status",
	"description": "lower(description)",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

var activityFilterColumns = map[string]string{
	"status":     "status",
	"employeeId": "employee_id",
}

func (s *Store) CreateActivity(ctx context.Context, a *entity.Activity) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, `
        INSERT INTO activities (id, employee_id, employee_name, description, date, status, remarks,
                                approved_by, rejected_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `,
		a.ID, a.EmployeeID, a.EmployeeName, a.Description, a.Date.Time, string(a.Status), a.Remarks,
		a.ApprovedBy, a.RejectedBy, a.CreatedAt, a.UpdatedAt,
	)

	return translate(err, "create activity "+a.ID)
}

func (s *Store) GetActivity(ctx context.Context, id string) (*entity.Activity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)

	a, err := scanActivity(row)
	if err != nil {
		return nil, translate(err, "activity "+id)
	}
	return a, nil
}

// UpdateActivity only touches rows that are still pending.
func (s *Store) UpdateActivity(ctx context.Context, a *entity.Activity) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `
        UPDATE activities
           SET description = $1,
               date = $2,
               updated_at = $3
         WHERE id = $4 AND status = 'pending'
        RETURNING `+activityColumns,
		a.Description, a.Date.Time, a.UpdatedAt, a.ID,
	)

	updated, err := scanActivity(row)
	if err != nil {
		return s.explainMiss(ctx, err, a.ID)
	}

	*a = *updated
	return nil
}

// TransitionActivity is a single conditional UPDATE, so of two concurrent
// decisions on the same pending row exactly one matches.
func (s *Store) TransitionActivity(ctx context.Context, id string, t entity.Transition) (*entity.Activity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var approvedBy, rejectedBy *string
	switch t.Status {
	case entity.ActivityApproved:
		approvedBy = &t.ActorID
	case entity.ActivityRejected:
		rejectedBy = &t.ActorID
	default:
		return nil, fmt.Errorf("transition to %q: %w", t.Status, entity.ErrInvalidState)
	}

	row := s.db.QueryRow(ctx, `
        UPDATE activities
           SET status = $1,
               remarks = $2,
               updated_at = $3,
               approved_by = COALESCE($4, approved_by),
               rejected_by = COALESCE($5, rejected_by)
         WHERE id = $6 AND status = 'pending'
        RETURNING `+activityColumns,
		string(t.Status), t.Remarks, t.At, approvedBy, rejectedBy, id,
	)

	updated, err := scanActivity(row)
	if err != nil {
		return nil, s.explainMiss(ctx, err, id)
	}
	return updated, nil
}

// explainMiss tells a missing row apart from one that is no longer pending
// after a conditional update matched nothing.
func (s *Store) explainMiss(ctx context.Context, err error, id string) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return translate(err, "update activity "+id)
	}

	var status string
	if err := s.db.QueryRow(ctx, `SELECT status FROM activities WHERE id = $1`, id).Scan(&status); err != nil {
		return translate(err, "activity "+id)
	}

	return fmt.Errorf("activity %s is %s: %w", id, status, entity.ErrInvalidState)
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete activity "+id)
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "activity "+id)
	}
	return nil
}

func (s *Store) ListActivities(ctx context.Context, filter entity.ActivityFilter, opts query.Options) (query.Page[entity.Activity], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	w := activityWhere(filter)
	if opts.Search != "" {
		w.add(`description ILIKE ?`, likePattern(opts.Search))
	}
	for _, name := range sortedKeys(opts.Filters) {
		if column, ok := activityFilterColumns[name]; ok {
			w.add(column+` = ?`, opts.Filters[name])
		}
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM activities`+w.clause(), w.args...).Scan(&total); err != nil {
		return query.Page[entity.Activity]{}, translate(err, "count activities")
	}

	key := store.ActivitySchema.SortKey(opts.SortBy)
	desc := store.ActivitySchema.SortOrder(opts.SortOrder) == query.Desc

	limit := w.placeholder(opts.Limit)
	offset := w.placeholder(query.Offset(opts.Page, opts.Limit))

	rows, err := s.db.Query(ctx, `SELECT `+activityColumns+` FROM activities`+w.clause()+
		orderBy(activitySortColumns[key], desc)+` LIMIT `+limit+` OFFSET `+offset, w.args...)
	if err != nil {
		return query.Page[entity.Activity]{}, translate(err, "list activities")
	}
	defer rows.Close()

	items := make([]entity.Activity, 0, opts.Limit)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return query.Page[entity.Activity]{}, translate(err, "scan activity")
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return query.Page[entity.Activity]{}, translate(err, "list activities")
	}

	return query.Page[entity.Activity]{
		Items:      items,
		Pagination: query.NewPagination(total, opts.Page, opts.Limit),
	}, nil
}

func (s *Store) ActivityStats(ctx context.Context, filter entity.ActivityFilter) (*entity.ActivityStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	w := activityWhere(filter)

	var stats entity.ActivityStats
	err := s.db.QueryRow(ctx, `
        SELECT count(*),
               count(*) FILTER (WHERE status = 'pending'),
               count(*) FILTER (WHERE status = 'approved'),
               count(*) FILTER (WHERE status = 'rejected')
          FROM activities`+w.clause(), w.args...,
	).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected)
	if err != nil {
		return nil, translate(err, "activity stats")
	}

	return &stats, nil
}

func activityWhere(filter entity.ActivityFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.EmployeeID != "" {
		w.add(`employee_id = ?`, filter.EmployeeID)
	}
	if filter.Status != "" {
		w.add(`status = ?`, string(filter.Status))
	}
	if filter.From != nil {
		w.add(`date >= ?`, filter.From.Time)
	}
	if filter.To != nil {
		w.add(`date <= ?`, filter.To.Time)
	}
	return w
}

func scanActivity(row pgx.Row) (*entity.Activity, error) {
	var (
		a          entity.Activity
		date       time.Time
		status     string
		approvedBy sql.NullString
		rejectedBy sql.NullString
	)

	if err := row.Scan(
		&a.ID,
		&a.EmployeeID,
		&a.EmployeeName,
		&a.Description,
		&date,
		&status,
		&a.Remarks,
		&approvedBy,
		&rejectedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Date = entity.NewDate(date)
	a.Status = entity.ActivityStatus(status)
	a.ApprovedBy = nullString(approvedBy)
	a.RejectedBy = nullString(rejectedBy)

	return &a, nil
}
