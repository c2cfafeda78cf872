package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// GetEmployeesParams defines parameters for GetEmployees.
type GetEmployeesParams struct {
	Page       *int    `form:"page,omitempty" json:"page,omitempty"`
	Limit      *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Search     *string `form:"search,omitempty" json:"search,omitempty"`
	Department *string `form:"department,omitempty" json:"department,omitempty"`
	Status     *string `form:"status,omitempty" json:"status,omitempty"`
	SortBy     *string `form:"sortBy,omitempty" json:"sortBy,omitempty"`
	SortOrder  *string `form:"sortOrder,omitempty" json:"sortOrder,omitempty"`
}

// GetActivitiesParams defines parameters for GetActivities.
type GetActivitiesParams struct {
	Page       *int    `form:"page,omitempty" json:"page,omitempty"`
	Limit      *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Search     *string `form:"search,omitempty" json:"search,omitempty"`
	Status     *string `form:"status,omitempty" json:"status,omitempty"`
	EmployeeID *string `form:"employeeId,omitempty" json:"employeeId,omitempty"`
	From       *string `form:"from,omitempty" json:"from,omitempty"`
	To         *string `form:"to,omitempty" json:"to,omitempty"`
	SortBy     *string `form:"sortBy,omitempty" json:"sortBy,omitempty"`
	SortOrder  *string `form:"sortOrder,omitempty" json:"sortOrder,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /api/auth/login)
	AuthLogin(w http.ResponseWriter, r *http.Request)
	// (POST /api/auth/refresh)
	AuthRefresh(w http.ResponseWriter, r *http.Request)
	// (POST /api/auth/register)
	AuthRegister(w http.ResponseWriter, r *http.Request)
	// (GET /api/auth/me)
	AuthMe(w http.ResponseWriter, r *http.Request)
	// (PUT /api/auth/update-password)
	AuthUpdatePassword(w http.ResponseWriter, r *http.Request)
	// (POST /api/auth/logout)
	AuthLogout(w http.ResponseWriter, r *http.Request)

	// (GET /api/employees)
	GetEmployees(w http.ResponseWriter, r *http.Request, params GetEmployeesParams)
	// (GET /api/employees/stats)
	GetEmployeeStats(w http.ResponseWriter, r *http.Request)
	// (POST /api/employees)
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	// (GET /api/employees/{id})
	GetEmployeeByID(w http.ResponseWriter, r *http.Request, id string)
	// (PUT /api/employees/{id})
	UpdateEmployee(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /api/employees/{id})
	DeleteEmployee(w http.ResponseWriter, r *http.Request, id string)

	// (GET /api/activities)
	GetActivities(w http.ResponseWriter, r *http.Request, params GetActivitiesParams)
	// (GET /api/activities/stats)
	GetActivityStats(w http.ResponseWriter, r *http.Request)
	// (POST /api/activities)
	SubmitActivity(w http.ResponseWriter, r *http.Request)
	// (GET /api/activities/{id})
	GetActivityByID(w http.ResponseWriter, r *http.Request, id string)
	// (PUT /api/activities/{id})
	UpdateActivity(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /api/activities/{id})
	DeleteActivity(w http.ResponseWriter, r *http.Request, id string)
	// (POST /api/activities/{id}/approve)
	ApproveActivity(w http.ResponseWriter, r *http.Request, id string)
	// (POST /api/activities/{id}/reject)
	RejectActivity(w http.ResponseWriter, r *http.Request, id string)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, handler http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (siw *ServerInterfaceWrapper) AuthLogin(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthLogin))
}

func (siw *ServerInterfaceWrapper) AuthRefresh(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthRefresh))
}

func (siw *ServerInterfaceWrapper) AuthRegister(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthRegister))
}

func (siw *ServerInterfaceWrapper) AuthMe(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthMe))
}

func (siw *ServerInterfaceWrapper) AuthUpdatePassword(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthUpdatePassword))
}

func (siw *ServerInterfaceWrapper) AuthLogout(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.AuthLogout))
}

// GetEmployees operation middleware
func (siw *ServerInterfaceWrapper) GetEmployees(w http.ResponseWriter, r *http.Request) {
	var params GetEmployeesParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"page", &params.Page},
		{"limit", &params.Limit},
		{"search", &params.Search},
		{"department", &params.Department},
		{"status", &params.Status},
		{"sortBy", &params.SortBy},
		{"sortOrder", &params.SortOrder},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetEmployees(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) GetEmployeeStats(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.GetEmployeeStats))
}

func (siw *ServerInterfaceWrapper) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.CreateEmployee))
}

func (siw *ServerInterfaceWrapper) GetEmployeeByID(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetEmployeeByID(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateEmployee(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteEmployee(w, r, id)
	}))
}

// GetActivities operation middleware
func (siw *ServerInterfaceWrapper) GetActivities(w http.ResponseWriter, r *http.Request) {
	var params GetActivitiesParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"page", &params.Page},
		{"limit", &params.Limit},
		{"search", &params.Search},
		{"status", &params.Status},
		{"employeeId", &params.EmployeeID},
		{"from", &params.From},
		{"to", &params.To},
		{"sortBy", &params.SortBy},
		{"sortOrder", &params.SortOrder},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetActivities(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.GetActivityStats))
}

func (siw *ServerInterfaceWrapper) SubmitActivity(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.SubmitActivity))
}

func (siw *ServerInterfaceWrapper) GetActivityByID(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetActivityByID(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateActivity(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteActivity(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) ApproveActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ApproveActivity(w, r, id)
	}))
}

func (siw *ServerInterfaceWrapper) RejectActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RejectActivity(w, r, id)
	}))
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux creates http.Handler with the API routes mounted on the provided mux.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Post(base+"/api/auth/login", wrapper.AuthLogin)
		r.Post(base+"/api/auth/refresh", wrapper.AuthRefresh)
		r.Post(base+"/api/auth/register", wrapper.AuthRegister)
		r.Get(base+"/api/auth/me", wrapper.AuthMe)
		r.Put(base+"/api/auth/update-password", wrapper.AuthUpdatePassword)
		r.Post(base+"/api/auth/logout", wrapper.AuthLogout)

		r.Get(base+"/api/employees", wrapper.GetEmployees)
		r.Get(base+"/api/employees/stats", wrapper.GetEmployeeStats)
		r.Post(base+"/api/employees", wrapper.CreateEmployee)
		r.Get(base+"/api/employees/{id}", wrapper.GetEmployeeByID)
		r.Put(base+"/api/employees/{id}", wrapper.UpdateEmployee)
		r.Delete(base+"/api/employees/{id}", wrapper.DeleteEmployee)

		r.Get(base+"/api/activities", wrapper.GetActivities)
		r.Get(base+"/api/activities/stats", wrapper.GetActivityStats)
		r.Post(base+"/api/activities", wrapper.SubmitActivity)
		r.Get(base+"/api/activities/{id}", wrapper.GetActivityByID)
		r.Put(base+"/api/activities/{id}", wrapper.UpdateActivity)
		r.Delete(base+"/api/activities/{id}", wrapper.DeleteActivity)
		r.Post(base+"/api/activities/{id}/approve", wrapper.ApproveActivity)
		r.Post(base+"/api/activities/{id}/reject", wrapper.RejectActivity)
	})

	return r
}
