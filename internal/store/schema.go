package store

import (
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
)

// EmployeeSchema drives listing of employees.
var EmployeeSchema = query.Schema[entity.Employee]{
	Search: []func(entity.Employee) string{
		func(e entity.Employee) string { return e.FirstName },
		func(e entity.Employee) string { return e.LastName },
		func(e entity.Employee) string { return e.Email },
	},
	Filters: map[string]func(entity.Employee) string{
		"id":         func(e entity.Employee) string { return e.ID },
		"department": func(e entity.Employee) string { return string(e.Department) },
		"status":     func(e entity.Employee) string { return string(e.Status) },
	},
	Sort: map[string]func(entity.Employee) any{
		"firstName":  func(e entity.Employee) any { return e.FirstName },
		"lastName":   func(e entity.Employee) any { return e.LastName },
		"email":      func(e entity.Employee) any { return e.Email },
		"department": func(e entity.Employee) any { return string(e.Department) },
		"position":   func(e entity.Employee) any { return e.Position },
		"status":     func(e entity.Employee) any { return string(e.Status) },
		"joinDate":   func(e entity.Employee) any { return e.JoinDate.Time },
		"salary":     func(e entity.Employee) any { return e.Salary },
		"createdAt":  func(e entity.Employee) any { return e.CreatedAt },
		"updatedAt":  func(e entity.Employee) any { return e.UpdatedAt },
	},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}

// ActivitySchema drives listing of activities.
var ActivitySchema = query.Schema[entity.Activity]{
	Search: []func(entity.Activity) string{
		func(a entity.Activity) string { return a.Description },
	},
	Filters: map[string]func(entity.Activity) string{
		"status":     func(a entity.Activity) string { return string(a.Status) },
		"employeeId": func(a entity.Activity) string { return a.EmployeeID },
	},
	Sort: map[string]func(entity.Activity) any{
		"date":        func(a entity.Activity) any { return a.Date.Time },
		"status":      func(a entity.Activity) any { return string(a.Status) },
		"description": func(a entity.Activity) any { return a.Description },
		"createdAt":   func(a entity.Activity) any { return a.CreatedAt },
		"updatedAt":   func(a entity.Activity) any { return a.UpdatedAt },
	},
	DefaultSort:  "createdAt",
	DefaultOrder: query.Desc,
}
