// Package query implements search, equality filters, stable sorting and
// 1-indexed pagination over in-memory collections. The Postgres store reuses
// Options, Normalize and NewPagination so both backends report the same metadata.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Limits bounds the page size of a request.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

type Options struct {
	Search    string
	Filters   map[string]string
	SortBy    string
	SortOrder Order
	Page      int
	Limit     int
}

// Normalize fills defaults and clamps the page size to the configured maximum.
func (o Options) Normalize(l Limits) Options {
	if l.MaxLimit <= 0 {
		l.MaxLimit = MaxLimit
	}
	if l.DefaultLimit <= 0 || l.DefaultLimit > l.MaxLimit {
		l.DefaultLimit = min(DefaultLimit, l.MaxLimit)
	}

	if o.Page < 1 {
		o.Page = 1
	}
	switch {
	case o.Limit <= 0:
		o.Limit = l.DefaultLimit
	case o.Limit > l.MaxLimit:
		o.Limit = l.MaxLimit
	}

	o.Search = strings.TrimSpace(o.Search)
	o.SortOrder = ParseOrder(string(o.SortOrder))

	filters := make(map[string]string, len(o.Filters))
	for k, v := range o.Filters {
		if v != "" {
			filters[k] = v
		}
	}
	o.Filters = filters

	return o
}

// ParseOrder returns Asc or Desc, or "" when s names neither.
func ParseOrder(s string) Order {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc
	case Desc:
		return Desc
	default:
		return ""
	}
}

// Offset is the index of the first item of a 1-indexed page.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// NewPagination computes page metadata. An empty result still has one page.
func NewPagination(total, page, limit int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Schema describes how a collection of T is searched, filtered and sorted.
type Schema[T any] struct {
	Search       []func(T) string
	Filters      map[string]func(T) string
	Sort         map[string]func(T) any
	DefaultSort  string
	DefaultOrder Order
}

// SortKey resolves the requested sort field, falling back to the schema default.
func (s Schema[T]) SortKey(field string) string {
	if _, ok := s.Sort[field]; ok {
		return field
	}
	return s.DefaultSort
}

// SortOrder resolves the requested direction, falling back to the schema default.
func (s Schema[T]) SortOrder(o Order) Order {
	if o != "" {
		return o
	}
	if s.DefaultOrder != "" {
		return s.DefaultOrder
	}
	return Asc
}

// Apply runs search, filters, sort and pagination. items is not modified.
// opts is expected to be normalized.
func Apply[T any](items []T, opts Options, schema Schema[T]) Page[T] {
	matched := make([]T, 0, len(items))
	needle := strings.ToLower(opts.Search)

	for _, item := range items {
		if needle != "" && !matchesSearch(item, needle, schema.Search) {
			continue
		}
		if !matchesFilters(item, opts.Filters, schema.Filters) {
			continue
		}
		matched = append(matched, item)
	}

	if key, ok := schema.Sort[schema.SortKey(opts.SortBy)]; ok {
		desc := schema.SortOrder(opts.SortOrder) == Desc
		sort.SliceStable(matched, func(i, j int) bool {
			c := Compare(key(matched[i]), key(matched[j]))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	start := Offset(opts.Page, limit)
	pageItems := []T{}
	if start < len(matched) {
		end := min(start+limit, len(matched))
		pageItems = matched[start:end]
	}

	return Page[T]{
		Items:      pageItems,
		Pagination: NewPagination(len(matched), opts.Page, limit),
	}
}

func matchesSearch[T any](item T, needle string, fields []func(T) string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](item T, filters map[string]string, fields map[string]func(T) string) bool {
	for name, want := range filters {
		field, ok := fields[name]
		if !ok {
			continue
		}
		if field(item) != want {
			return false
		}
	}
	return true
}

// Compare orders two sort keys of the same kind. Strings compare
// case-insensitively and nil sorts before any value.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
	case int:
		bv, _ := b.(int)
		return cmpOrdered(av, bv)
	case int64:
		bv, _ := b.(int64)
		return cmpOrdered(av, bv)
	case float64:
		bv, _ := b.(float64)
		return cmpOrdered(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case decimal.Decimal:
		bv, _ := b.(decimal.Decimal)
		return av.Cmp(bv)
	case *decimal.Decimal:
		bv, _ := b.(*decimal.Decimal)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return -1
		case bv == nil:
			return 1
		}
		return av.Cmp(*bv)
	default:
		return 0
	}
}

func cmpOrdered[V int | int64 | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
