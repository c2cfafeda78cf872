package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const employeeColumns = `id, first_name, last_name, email, phone, department, position, status, join_date,
       salary::text, address, emergency_contact, user_id, created_by, updated_by, created_at, updated_at`

var employeeSortColumns = map[string]string{
	"firstName":  "lower(first_name)",
	"lastName":   "lower(last_name)",
	"email":      "lower(email)",
	"department": "lower(department)",
	"position":   "lower(position)",
	"status":     "status",
	"joinDate":   "join_date",
	"salary":     "salary",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

var employeeFilterColumns = map[string]string{
	"id":         "id",
	"department": "department",
	"status":     "status",
}

func (s *Store) CreateEmployee(ctx context.Context, emp *entity.Employee) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, `
        INSERT INTO employees (id, first_name, last_name, email, phone, department, position, status, join_date,
                               salary, address, emergency_contact, user_id, created_by, updated_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
    `,
		emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Phone,
		string(emp.Department), emp.Position, string(emp.Status), emp.JoinDate.Time,
		nullableDecimal(emp.Salary), emp.Address, emp.EmergencyContact, emp.UserID,
		emp.CreatedBy, emp.UpdatedBy, emp.CreatedAt, emp.UpdatedAt,
	)

	return translate(err, "create employee "+emp.ID)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*entity.Employee, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	emp, err := scanEmployee(row)
	if err != nil {
		return nil, translate(err, "employee "+id)
	}
	return emp, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp *entity.Employee) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               email = $3,
               phone = $4,
               department = $5,
               position = $6,
               status = $7,
               join_date = $8,
               salary = $9,
               address = $10,
               emergency_contact = $11,
               user_id = $12,
               updated_by = $13,
               updated_at = $14
         WHERE id = $15
    `,
		emp.FirstName, emp.LastName, emp.Email, emp.Phone,
		string(emp.Department), emp.Position, string(emp.Status), emp.JoinDate.Time,
		nullableDecimal(emp.Salary), emp.Address, emp.EmergencyContact, emp.UserID,
		emp.UpdatedBy, emp.UpdatedAt, emp.ID,
	)
	if err != nil {
		return translate(err, "update employee "+emp.ID)
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "employee "+emp.ID)
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete employee "+id)
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "employee "+id)
	}
	return nil
}

func (s *Store) ListEmployees(ctx context.Context, opts query.Options) (query.Page[entity.Employee], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var w whereBuilder
	if opts.Search != "" {
		w.add(`(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)`, likePattern(opts.Search))
	}
	for _, name := range sortedKeys(opts.Filters) {
		if column, ok := employeeFilterColumns[name]; ok {
			w.add(column+` = ?`, opts.Filters[name])
		}
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM employees`+w.clause(), w.args...).Scan(&total); err != nil {
		return query.Page[entity.Employee]{}, translate(err, "count employees")
	}

	key := store.EmployeeSchema.SortKey(opts.SortBy)
	desc := store.EmployeeSchema.SortOrder(opts.SortOrder) == query.Desc

	limit := w.placeholder(opts.Limit)
	offset := w.placeholder(query.Offset(opts.Page, opts.Limit))

	rows, err := s.db.Query(ctx, `SELECT `+employeeColumns+` FROM employees`+w.clause()+
		orderBy(employeeSortColumns[key], desc)+` LIMIT `+limit+` OFFSET `+offset, w.args...)
	if err != nil {
		return query.Page[entity.Employee]{}, translate(err, "list employees")
	}
	defer rows.Close()

	items := make([]entity.Employee, 0, opts.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return query.Page[entity.Employee]{}, translate(err, "scan employee")
		}
		items = append(items, *emp)
	}
	if err := rows.Err(); err != nil {
		return query.Page[entity.Employee]{}, translate(err, "list employees")
	}

	return query.Page[entity.Employee]{
		Items:      items,
		Pagination: query.NewPagination(total, opts.Page, opts.Limit),
	}, nil
}

func (s *Store) EmployeeStats(ctx context.Context) (*entity.EmployeeStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `
        SELECT status, department, count(*)
          FROM employees
         GROUP BY status, department
    `)
	if err != nil {
		return nil, translate(err, "employee stats")
	}
	defer rows.Close()

	stats := store.NewEmployeeStats()
	for rows.Next() {
		var (
			status, department string
			count              int
		)
		if err := rows.Scan(&status, &department, &count); err != nil {
			return nil, translate(err, "employee stats")
		}

		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByDepartment[department] += count
		if entity.EmployeeStatus(status) == entity.EmployeeActive {
			stats.Active += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "employee stats")
	}

	return stats, nil
}

func scanEmployee(row pgx.Row) (*entity.Employee, error) {
	var (
		emp              entity.Employee
		department       string
		status           string
		joinDate         time.Time
		salary           sql.NullString
		address          []byte
		emergencyContact []byte
		userID           sql.NullString
		updatedBy        sql.NullString
	)

	if err := row.Scan(
		&emp.ID,
		&emp.FirstName,
		&emp.LastName,
		&emp.Email,
		&emp.Phone,
		&department,
		&emp.Position,
		&status,
		&joinDate,
		&salary,
		&address,
		&emergencyContact,
		&userID,
		&emp.CreatedBy,
		&updatedBy,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	); err != nil {
		return nil, err
	}

	emp.Department = entity.Department(department)
	emp.Status = entity.EmployeeStatus(status)
	emp.JoinDate = entity.NewDate(joinDate)
	emp.UserID = nullString(userID)
	emp.UpdatedBy = nullString(updatedBy)

	if salary.Valid {
		d, err := decimal.NewFromString(salary.String)
		if err != nil {
			return nil, fmt.Errorf("salary %q: %w", salary.String, err)
		}
		emp.Salary = &d
	}

	if err := decodeJSON(address, &emp.Address); err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	if err := decodeJSON(emergencyContact, &emp.EmergencyContact); err != nil {
		return nil, fmt.Errorf("emergency contact: %w", err)
	}

	return &emp, nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
