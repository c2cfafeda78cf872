package entity

import "time"

type ActivityStatus string

const (
	ActivityPending  ActivityStatus = "pending"
	ActivityApproved ActivityStatus = "approved"
	ActivityRejected ActivityStatus = "rejected"
)

func (s ActivityStatus) Valid() bool {
	return s == ActivityPending || s == ActivityApproved || s == ActivityRejected
}

// Terminal reports whether no further transition is possible from s.
func (s ActivityStatus) Terminal() bool {
	return s == ActivityApproved || s == ActivityRejected
}

type Activity struct {
	ID           string         `json:"id"`
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName,omitempty"`
	Description  string         `json:"description"`
	Date         Date           `json:"date"`
	Status       ActivityStatus `json:"status"`
	Remarks      string         `json:"remarks"`
	ApprovedBy   *string        `json:"approvedBy,omitempty"`
	RejectedBy   *string        `json:"rejectedBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SubmitActivityRequest is the body of a submit call. Status is accepted and ignored.
type SubmitActivityRequest struct {
	EmployeeID  string `json:"employeeId"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

type ActivityPatch struct {
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

type TransitionRequest struct {
	Remarks string `json:"remarks"`
}

// Transition is the stored effect of an approve or reject decision.
type Transition struct {
	Status  ActivityStatus
	Remarks string
	ActorID string
	At      time.Time
}

// ActivityFilter narrows a listing before search, sort and pagination.
type ActivityFilter struct {
	EmployeeID string
	Status     ActivityStatus
	From       *Date
	To         *Date
}

// Match applies the filter to a single activity. Date bounds are inclusive.
func (f ActivityFilter) Match(a Activity) bool {
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.From != nil && a.Date.Before(f.From.Time) {
		return false
	}
	if f.To != nil && a.Date.After(f.To.Time) {
		return false
	}
	return true
}

// ListActivitiesParams mirrors the query string of GET /activities.
type ListActivitiesParams struct {
	Page       *int    `json:"page,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	Search     *string `json:"search,omitempty"`
	Status     *string `json:"status,omitempty"`
	EmployeeID *string `json:"employeeId,omitempty"`
	From       *string `json:"from,omitempty"`
	To         *string `json:"to,omitempty"`
	SortBy     *string `json:"sortBy,omitempty"`
	SortOrder  *string `json:"sortOrder,omitempty"`
}

type ActivityStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
