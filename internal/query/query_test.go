package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID         int
	First      string
	Last       string
	Email      string
	Department string
	Status     string
	Joined     time.Time
}

var personSchema = Schema[person]{
	Search: []func(person) string{
		func(p person) string { return p.First },
		func(p person) string { return p.Last },
		func(p person) string { return p.Email },
	},
	Filters: map[string]func(person) string{
		"department": func(p person) string { return p.Department },
		"status":     func(p person) string { return p.Status },
	},
	Sort: map[string]func(person) any{
		"id":        func(p person) any { return p.ID },
		"firstName": func(p person) any { return p.First },
		"joined":    func(p person) any { return p.Joined },
	},
	DefaultSort: "id",
}

func people(n int) []person {
	out := make([]person, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, person{
			ID:    i,
			First: fmt.Sprintf("First%02d", i),
			Last:  fmt.Sprintf("Last%02d", i),
			Email: fmt.Sprintf("user%02d@example.com", i),
		})
	}
	return out
}

func ids(items []person) []int {
	out := make([]int, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func normalized(o Options) Options {
	return o.Normalize(Limits{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit})
}

func TestApply_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	items := []person{
		{ID: 1, First: "Alice", Last: "Walker", Email: "alice@corp.io"},
		{ID: 2, First: "Bob", Last: "Stone", Email: "bob@corp.io"},
		{ID: 3, First: "Carol", Last: "Alison", Email: "carol@else.io"},
	}

	tests := []struct {
		name   string
		search string
		want   []int
	}{
		{name: "lower case first name", search: "ali", want: []int{1, 3}},
		{name: "upper case gives same result", search: "ALI", want: []int{1, 3}},
		{name: "email substring", search: "corp.io", want: []int{1, 2}},
		{name: "last name", search: "sToNe", want: []int{2}},
		{name: "no match", search: "zed", want: []int{}},
		{name: "empty search keeps everything", search: "  ", want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Apply(items, normalized(Options{Search: tt.search}), personSchema)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestApply_FiltersAreConjunctive(t *testing.T) {
	items := []person{
		{ID: 1, Department: "Engineering", Status: "active"},
		{ID: 2, Department: "Engineering", Status: "inactive"},
		{ID: 3, Department: "Sales", Status: "active"},
		{ID: 4, Department: "Engineering", Status: "active"},
	}

	page := Apply(items, normalized(Options{
		Filters: map[string]string{"department": "Engineering", "status": "active"},
	}), personSchema)

	assert.Equal(t, []int{1, 4}, ids(page.Items))
	assert.Equal(t, 2, page.Pagination.TotalItems)
}

func TestApply_SearchAndFiltersCombine(t *testing.T) {
	items := []person{
		{ID: 1, First: "Ann", Department: "Sales"},
		{ID: 2, First: "Anna", Department: "HR"},
		{ID: 3, First: "Ben", Department: "Sales"},
	}

	page := Apply(items, normalized(Options{
		Search:  "ann",
		Filters: map[string]string{"department": "Sales"},
	}), personSchema)

	assert.Equal(t, []int{1}, ids(page.Items))
}

func TestApply_PaginationScenario(t *testing.T) {
	page := Apply(people(12), normalized(Options{Page: 2, Limit: 5}), personSchema)

	assert.Equal(t, []int{6, 7, 8, 9, 10}, ids(page.Items))
	assert.Equal(t, Pagination{
		CurrentPage:  2,
		TotalPages:   3,
		TotalItems:   12,
		ItemsPerPage: 5,
		HasNextPage:  true,
		HasPrevPage:  true,
	}, page.Pagination)
}

func TestApply_PagesCoverCollectionExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 10, 23} {
		for _, size := range []int{1, 3, 10} {
			t.Run(fmt.Sprintf("n=%d size=%d", n, size), func(t *testing.T) {
				items := people(n)
				first := Apply(items, normalized(Options{Page: 1, Limit: size}), personSchema)

				wantPages := (n + size - 1) / size
				if wantPages == 0 {
					wantPages = 1
				}
				require.Equal(t, wantPages, first.Pagination.TotalPages)

				seen := map[int]int{}
				for p := 1; p <= first.Pagination.TotalPages; p++ {
					page := Apply(items, normalized(Options{Page: p, Limit: size}), personSchema)
					for _, id := range ids(page.Items) {
						seen[id]++
					}
				}

				assert.Len(t, seen, n)
				for id, count := range seen {
					assert.Equal(t, 1, count, "id %d", id)
				}
			})
		}
	}
}

func TestApply_EmptyCollection(t *testing.T) {
	page := Apply([]person{}, normalized(Options{}), personSchema)

	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.Pagination.TotalItems)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)
}

func TestApply_PageBeyondEnd(t *testing.T) {
	page := Apply(people(4), normalized(Options{Page: 9, Limit: 2}), personSchema)

	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 9, page.Pagination.CurrentPage)
	assert.False(t, page.Pagination.HasNextPage)
}

func TestApply_SortIsStable(t *testing.T) {
	items := []person{
		{ID: 1, First: "beta"},
		{ID: 2, First: "Alpha"},
		{ID: 3, First: "BETA"},
		{ID: 4, First: "alpha"},
	}

	asc := Apply(items, normalized(Options{SortBy: "firstName", SortOrder: Asc}), personSchema)
	assert.Equal(t, []int{2, 4, 1, 3}, ids(asc.Items))

	desc := Apply(items, normalized(Options{SortBy: "firstName", SortOrder: Desc}), personSchema)
	assert.Equal(t, []int{1, 3, 2, 4}, ids(desc.Items))

	assert.Equal(t, "beta", items[0].First, "input must not be reordered")
}

func TestApply_SortByTimeAndUnknownField(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []person{
		{ID: 1, Joined: base.Add(48 * time.Hour)},
		{ID: 2, Joined: base},
		{ID: 3, Joined: base.Add(24 * time.Hour)},
	}

	byTime := Apply(items, normalized(Options{SortBy: "joined", SortOrder: "DESC"}), personSchema)
	assert.Equal(t, []int{1, 3, 2}, ids(byTime.Items))

	fallback := Apply(items, normalized(Options{SortBy: "password"}), personSchema)
	assert.Equal(t, []int{1, 2, 3}, ids(fallback.Items))
}

func TestOptions_Normalize(t *testing.T) {
	limits := Limits{DefaultLimit: 10, MaxLimit: 100}

	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{
			name: "defaults",
			in:   Options{},
			want: Options{Page: 1, Limit: 10, Filters: map[string]string{}},
		},
		{
			name: "limit clamped",
			in:   Options{Page: 3, Limit: 1000, SortOrder: "Asc"},
			want: Options{Page: 3, Limit: 100, SortOrder: Asc, Filters: map[string]string{}},
		},
		{
			name: "empty filter values dropped",
			in:   Options{Filters: map[string]string{"status": "", "department": "HR"}, SortOrder: "sideways"},
			want: Options{Page: 1, Limit: 10, Filters: map[string]string{"department": "HR"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(limits))
		})
	}
}

func TestCompare(t *testing.T) {
	one := decimal.NewFromInt(1)
	two := decimal.NewFromInt(2)

	assert.Equal(t, 0, Compare("abc", "ABC"))
	assert.Equal(t, -1, Compare(1, 2))
	assert.Equal(t, 1, Compare(2.5, 1.5))
	assert.Equal(t, -1, Compare(one, two))
	assert.Equal(t, -1, Compare((*decimal.Decimal)(nil), &two))
	assert.Equal(t, 1, Compare(&two, &one))
	assert.Equal(t, -1, Compare(nil, "a"))
}
