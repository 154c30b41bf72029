package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orbis-edu/orbis/internal/directory"
)

// DirectoryService is the directory surface the handler needs.
type DirectoryService interface {
	ListEmployees(ctx context.Context, limit, offset int) ([]directory.EmployeeView, error)
	GetEmployee(ctx context.Context, id int64) (*directory.EmployeeView, error)
	CreateEmployee(ctx context.Context, e directory.Employee) (int64, error)
	UpdateEmployee(ctx context.Context, e directory.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	ListDepartments(ctx context.Context) ([]directory.Department, error)
	ListPositions(ctx context.Context) ([]directory.Position, error)
}

// directoryHandler serves the employee directory CRUD routes.
type directoryHandler struct {
	svc    DirectoryService
	logger *slog.Logger
}

// RegisterRoutes registers directory routes on the given mux.
func (h *directoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/employees", h.list)
	mux.HandleFunc("POST /api/employees", h.create)
	mux.HandleFunc("GET /api/employees/{id}", h.get)
	mux.HandleFunc("PUT /api/employees/{id}", h.update)
	mux.HandleFunc("DELETE /api/employees/{id}", h.delete)
	mux.HandleFunc("GET /api/departments", h.listDepartments)
	mux.HandleFunc("GET /api/positions", h.listPositions)
}

// list handles GET /api/employees?limit=N&offset=M.
func (h *directoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", directory.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	views, err := h.svc.ListEmployees(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing employees failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "listing employees failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employees": views,
		"count":     len(views),
	})
}

// get handles GET /api/employees/{id}.
func (h *directoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
			return
		}
		h.logger.Error("getting employee failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "get_failed", "getting employee failed")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// create handles POST /api/employees.
func (h *directoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var emp directory.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	id, err := h.svc.CreateEmployee(r.Context(), emp)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidEmployee) {
			writeError(w, http.StatusBadRequest, "invalid_employee", err.Error())
			return
		}
		h.logger.Error("creating employee failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create_failed", "creating employee failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// update handles PUT /api/employees/{id}.
func (h *directoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var emp directory.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	emp.ID = id

	if err := h.svc.UpdateEmployee(r.Context(), emp); err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound):
			writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
		case errors.Is(err, directory.ErrInvalidEmployee):
			writeError(w, http.StatusBadRequest, "invalid_employee", err.Error())
		default:
			h.logger.Error("updating employee failed", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, "update_failed", "updating employee failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// delete handles DELETE /api/employees/{id}.
func (h *directoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteEmployee(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
			return
		}
		h.logger.Error("deleting employee failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "delete_failed", "deleting employee failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listDepartments handles GET /api/departments.
func (h *directoryHandler) listDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		h.logger.Error("listing departments failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "listing departments failed")
		return
	}
	if deps == nil {
		deps = []directory.Department{}
	}
	writeJSON(w, http.StatusOK, deps)
}

// listPositions handles GET /api/positions.
func (h *directoryHandler) listPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.ListPositions(r.Context())
	if err != nil {
		h.logger.Error("listing positions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "listing positions failed")
		return
	}
	if positions == nil {
		positions = []directory.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
