// Package access holds the single decision table that maps an actor, an
// operation and a target record to allow or deny.
package access

import (
	"fmt"

	"github.com/adamanr/worklog_service/internal/entity"
)

type Operation string

const (
	EmployeeList   Operation = "employee.list"
	EmployeeRead   Operation = "employee.read"
	EmployeeCreate Operation = "employee.create"
	EmployeeUpdate Operation = "employee.update"
	EmployeeDelete Operation = "employee.delete"
	EmployeeStats  Operation = "employee.stats"

	ActivitySubmit     Operation = "activity.submit"
	ActivityRead       Operation = "activity.read"
	ActivityList       Operation = "activity.list"
	ActivityEdit       Operation = "activity.edit"
	ActivityTransition Operation = "activity.transition"
	ActivityDelete     Operation = "activity.delete"

	UserRegister Operation = "user.register"
)

var operations = map[Operation]struct{}{
	EmployeeList: {}, EmployeeRead: {}, EmployeeCreate: {}, EmployeeUpdate: {}, EmployeeDelete: {}, EmployeeStats: {},
	ActivitySubmit: {}, ActivityRead: {}, ActivityList: {}, ActivityEdit: {}, ActivityTransition: {}, ActivityDelete: {},
	UserRegister: {},
}

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	_, ok := operations[op]
	return ok
}

// Target describes the record an operation touches. OwnerID is the employee
// the record belongs to: the employee itself, or the owner of an activity.
type Target struct {
	OwnerID string
}

// Any is the target of collection-level operations.
var Any = Target{}

// Owned returns a target owned by employeeID.
func Owned(employeeID string) Target {
	return Target{OwnerID: employeeID}
}

// Allowed reports whether actor may perform op on target.
func Allowed(actor entity.Actor, op Operation, target Target) bool {
	if !op.Valid() {
		return false
	}

	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleManager:
		return managerAllowed(op)
	case entity.RoleEmployee:
		return employeeAllowed(actor, op, target)
	default:
		return false
	}
}

// Decide is Allowed expressed as an error wrapping entity.ErrForbidden.
func Decide(actor entity.Actor, op Operation, target Target) error {
	if Allowed(actor, op, target) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", actor.Role, op, entity.ErrForbidden)
}

func managerAllowed(op Operation) bool {
	switch op {
	case EmployeeList, EmployeeRead, EmployeeStats,
		ActivityRead, ActivityList, ActivityTransition:
		return true
	default:
		return false
	}
}

func employeeAllowed(actor entity.Actor, op Operation, target Target) bool {
	switch op {
	case EmployeeList, ActivityList:
		// Collection reads are allowed; results are scoped to the actor.
		return true
	case EmployeeRead, EmployeeUpdate, ActivitySubmit, ActivityRead, ActivityEdit:
		return actor.Owns(target.OwnerID)
	default:
		return false
	}
}
