// Package postgres implements the Record Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"

	defaultTimeout = 5 * time.Second
)

// Queryer is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db      Queryer
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

// New wraps db. Every call runs under its own timeout.
func New(db Queryer, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Close releases the underlying pool when it owns one.
func (s *Store) Close() {
	if c, ok := s.db.(interface{ Close() }); ok {
		c.Close()
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// translate maps driver errors onto the entity taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%s: %w", what, entity.ErrConflict)
		case checkViolationCode:
			return fmt.Errorf("%s: %w: %s", what, entity.ErrValidation, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s: %w: %v", what, entity.ErrUnavailable, err)
}

// whereBuilder collects numbered conditions. Each "?" in a condition is
// replaced with the placeholder of the argument added with it.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", w.next()))
}

func (w *whereBuilder) next() string {
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) placeholder(arg any) string {
	w.args = append(w.args, arg)
	return w.next()
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// likePattern escapes LIKE metacharacters and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// orderBy renders an ORDER BY that matches the stable in-memory sort: ties
// keep insertion order regardless of direction.
func orderBy(column string, desc bool) string {
	dir := "ASC NULLS FIRST"
	if desc {
		dir = "DESC NULLS LAST"
	}
	return " ORDER BY " + column + " " + dir + ", created_at ASC, id ASC"
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
