package entity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         Role      `json:"role"`
	EmployeeID   *string   `json:"employeeId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Actor is the identity performing an operation.
type Actor struct {
	UserID     string
	Role       Role
	EmployeeID string
}

// Owns reports whether the actor is linked to the given employee record.
func (a Actor) Owns(employeeID string) bool {
	return a.EmployeeID != "" && a.EmployeeID == employeeID
}

type Claims struct {
	jwt.RegisteredClaims

	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
	TokenID    string `json:"token_id"`
	TokenType  string `json:"token_type"`
}

func (c Claims) Actor() Actor {
	return Actor{UserID: c.ID, Role: c.Role, EmployeeID: c.EmployeeID}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       Role    `json:"role"`
	EmployeeID *string `json:"employeeId"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
