package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adamanr/worklog_service/internal/controllers"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/adamanr/worklog_service/internal/query"
)

type Server struct {
	deps        *controllers.Dependens
	Controllers *controllers.Controllers
}

func NewServer(deps *controllers.Dependens) *Server {
	return &Server{
		deps:        deps,
		Controllers: controllers.NewControllers(deps),
	}
}

var _ ServerInterface = Server{}

type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type employeesPage struct {
	Employees  []entity.Employee `json:"employees"`
	Pagination query.Pagination  `json:"pagination"`
}

type activitiesPage struct {
	Activities []entity.Activity `json:"activities"`
	Pagination query.Pagination  `json:"pagination"`
}

// authenticate resolves the bearer token of r into an actor.
func (s Server) authenticate(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.deps.Logger.Warn("Authorization header missing", slog.String("path", r.URL.Path))
		s.writeError(w, r, fmt.Errorf("authorization header missing: %w", entity.ErrUnauthorized))
		return entity.Actor{}, false
	}

	claims, err := s.Controllers.AuthController.CheckUserToken(r.Context(), authHeader)
	if err != nil {
		s.writeError(w, r, err)
		return entity.Actor{}, false
	}

	return claims.Actor(), true
}

func (s Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.deps.Logger.Warn("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, response{Message: "Invalid request body"})
		return false
	}
	return true
}

// decodeOptional is decode for bodies that may be absent, including chunked
// requests with no content.
func (s Server) decodeOptional(w http.ResponseWriter, r *http.Request, dest any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dest)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	s.deps.Logger.Warn("Error decoding request body", slog.String("error", err.Error()))
	s.httpResponse(w, http.StatusBadRequest, response{Message: "Invalid request body"})
	return false
}

// AuthLogin authenticates a user and returns a JWT token pair.
func (s Server) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.Controllers.AuthController.AuthLogin(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Login successful", resp)
}

func (s Server) AuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req entity.RefreshRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.Controllers.AuthController.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", resp)
}

func (s Server) AuthRegister(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req entity.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.Controllers.AuthController.Register(r.Context(), actor, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusCreated, "User registered successfully", map[string]any{"user": user})
}

func (s Server) AuthMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	user, err := s.Controllers.AuthController.Me(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", map[string]any{"user": user})
}

func (s Server) AuthUpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req entity.UpdatePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.AuthController.UpdatePassword(r.Context(), actor, req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Password updated successfully", nil)
}

// AuthLogout revokes the caller's access token and the refresh token in the body, if any.
func (s Server) AuthLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	var req entity.RefreshRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	accessToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.Controllers.AuthController.Logout(r.Context(), accessToken, req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Logged out successfully", nil)
}

func (s Server) GetEmployees(w http.ResponseWriter, r *http.Request, params GetEmployeesParams) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	entityParams := entity.ListEmployeesParams(params)

	page, err := s.Controllers.EmployeeController.GetEmployees(r.Context(), actor, &entityParams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", employeesPage{Employees: page.Items, Pagination: page.Pagination})
}

func (s Server) GetEmployeeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	stats, err := s.Controllers.EmployeeController.GetStats(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", stats)
}

func (s Server) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var input entity.EmployeeInput
	if !s.decode(w, r, &input) {
		return
	}

	employee, err := s.Controllers.EmployeeController.CreateEmployee(r.Context(), actor, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusCreated, "Employee created successfully", map[string]any{"employee": employee})
}

func (s Server) GetEmployeeByID(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	employee, err := s.Controllers.EmployeeController.GetEmployeeByID(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", map[string]any{"employee": employee})
}

func (s Server) UpdateEmployee(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var patch entity.EmployeePatch
	if !s.decode(w, r, &patch) {
		return
	}

	employee, err := s.Controllers.EmployeeController.UpdateEmployee(r.Context(), actor, id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Employee updated successfully", map[string]any{"employee": employee})
}

func (s Server) DeleteEmployee(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := s.Controllers.EmployeeController.DeleteEmployee(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Employee deleted successfully", nil)
}

func (s Server) GetActivities(w http.ResponseWriter, r *http.Request, params GetActivitiesParams) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	entityParams := entity.ListActivitiesParams(params)

	page, err := s.Controllers.ActivityController.ListFor(r.Context(), actor, &entityParams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", activitiesPage{Activities: page.Items, Pagination: page.Pagination})
}

func (s Server) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	stats, err := s.Controllers.ActivityController.Stats(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", stats)
}

func (s Server) SubmitActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req entity.SubmitActivityRequest
	if !s.decode(w, r, &req) {
		return
	}

	activity, err := s.Controllers.ActivityController.Submit(r.Context(), actor, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusCreated, "Activity submitted successfully", map[string]any{"activity": activity})
}

func (s Server) GetActivityByID(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	activity, err := s.Controllers.ActivityController.GetActivity(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "", map[string]any{"activity": activity})
}

func (s Server) UpdateActivity(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var patch entity.ActivityPatch
	if !s.decode(w, r, &patch) {
		return
	}

	activity, err := s.Controllers.ActivityController.Edit(r.Context(), actor, id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Activity updated successfully", map[string]any{"activity": activity})
}

func (s Server) DeleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := s.Controllers.ActivityController.DeleteActivity(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, "Activity deleted successfully", nil)
}

func (s Server) ApproveActivity(w http.ResponseWriter, r *http.Request, id string) {
	s.transition(w, r, id, entity.ActivityApproved, "Activity approved")
}

func (s Server) RejectActivity(w http.ResponseWriter, r *http.Request, id string) {
	s.transition(w, r, id, entity.ActivityRejected, "Activity rejected")
}

func (s Server) transition(w http.ResponseWriter, r *http.Request, id string, target entity.ActivityStatus, message string) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req entity.TransitionRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	activity, err := s.Controllers.ActivityController.Transition(r.Context(), actor, id, target, req.Remarks)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, http.StatusOK, message, map[string]any{"activity": activity})
}
