package postgres

import (
	"context"
	"database/sql"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, role, employee_id, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, role, employee_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.EmployeeID, u.CreatedAt, u.UpdatedAt)

	return translate(err, "create user "+u.Email)
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "user "+id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, translate(err, "user "+email)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *entity.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
        UPDATE users
           SET name = $1,
               email = $2,
               password_hash = $3,
               role = $4,
               employee_id = $5,
               updated_at = $6
         WHERE id = $7
    `, u.Name, u.Email, u.PasswordHash, string(u.Role), u.EmployeeID, u.UpdatedAt, u.ID)
	if err != nil {
		return translate(err, "update user "+u.ID)
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "user "+u.ID)
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, translate(err, "count users")
	}
	return n, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u          entity.User
		role       string
		employeeID sql.NullString
	)

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &employeeID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	u.Role = entity.Role(role)
	u.EmployeeID = nullString(employeeID)
	return &u, nil
}
