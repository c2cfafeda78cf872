package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Department string

const (
	DepartmentEngineering Department = "Engineering"
	DepartmentDesign      Department = "Design"
	DepartmentHR          Department = "HR"
	DepartmentSales       Department = "Sales"
	DepartmentMarketing   Department = "Marketing"
	DepartmentFinance     Department = "Finance"
	DepartmentOperations  Department = "Operations"
)

// Departments lists the accepted departments in display order.
var Departments = []Department{
	DepartmentEngineering,
	DepartmentDesign,
	DepartmentHR,
	DepartmentSales,
	DepartmentMarketing,
	DepartmentFinance,
	DepartmentOperations,
}

func (d Department) Valid() bool {
	for _, v := range Departments {
		if v == d {
			return true
		}
	}
	return false
}

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

func (s EmployeeStatus) Valid() bool {
	return s == EmployeeActive || s == EmployeeInactive
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type Employee struct {
	ID               string            `json:"id"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone,omitempty"`
	Department       Department        `json:"department"`
	Position         string            `json:"position"`
	Status           EmployeeStatus    `json:"status"`
	JoinDate         Date              `json:"joinDate"`
	Salary           *decimal.Decimal  `json:"salary,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	UserID           *string           `json:"userId,omitempty"`
	CreatedBy        string            `json:"createdBy"`
	UpdatedBy        *string           `json:"updatedBy,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// MarshalJSON adds the derived fullName attribute.
func (e Employee) MarshalJSON() ([]byte, error) {
	type plain Employee
	return json.Marshal(struct {
		plain
		FullName string `json:"fullName"`
	}{plain: plain(e), FullName: e.FullName()})
}

// EmployeeInput is the body of a create request.
type EmployeeInput struct {
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Department       Department        `json:"department"`
	Position         string            `json:"position"`
	Status           EmployeeStatus    `json:"status"`
	JoinDate         *string           `json:"joinDate"`
	Salary           *decimal.Decimal  `json:"salary"`
	Address          *Address          `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
	UserID           *string           `json:"userId"`
}

// EmployeePatch is a partial update; nil fields are left untouched.
type EmployeePatch struct {
	FirstName        *string           `json:"firstName"`
	LastName         *string           `json:"lastName"`
	Email            *string           `json:"email"`
	Phone            *string           `json:"phone"`
	Department       *Department       `json:"department"`
	Position         *string           `json:"position"`
	Status           *EmployeeStatus   `json:"status"`
	JoinDate         *string           `json:"joinDate"`
	Salary           *decimal.Decimal  `json:"salary"`
	Address          *Address          `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
	UserID           *string           `json:"userId"`
}

// OnlyContactFields reports whether the patch touches nothing but self-service fields.
func (p EmployeePatch) OnlyContactFields() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Department == nil && p.Position == nil && p.Status == nil &&
		p.JoinDate == nil && p.Salary == nil && p.UserID == nil
}

// ListEmployeesParams mirrors the query string of GET /employees.
type ListEmployeesParams struct {
	Page       *int    `json:"page,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	Search     *string `json:"search,omitempty"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
	SortBy     *string `json:"sortBy,omitempty"`
	SortOrder  *string `json:"sortOrder,omitempty"`
}

type EmployeeStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus"`
	ByDepartment map[string]int `json:"byDepartment"`
	Active       int            `json:"active"`
}
