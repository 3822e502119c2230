package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
	"github.com/Harshitk-cp/truthkeeper/internal/service"
	"github.com/Harshitk-cp/truthkeeper/internal/tms"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Workspaces is the workspace service as seen by the HTTP layer.
type Workspaces interface {
	Create(ctx context.Context, kind domain.EngineKind, strict bool) (domain.Workspace, error)
	List(ctx context.Context) ([]domain.Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Dump(ctx context.Context, id uuid.UUID) (domain.Dump, error)
	AddBelief(ctx context.Context, id uuid.UUID, name string, assumption bool) (tms.Outcome, error)
	AddJustification(ctx context.Context, id uuid.UUID, in, out []string, conclusion string) (tms.Outcome, error)
	SetValidity(ctx context.Context, id uuid.UUID, name string, v domain.Validity) error
	RemoveBelief(ctx context.Context, id uuid.UUID, name string) error
	Belief(ctx context.Context, id uuid.UUID, name string) (domain.BeliefView, error)
	IsConsistent(ctx context.Context, id uuid.UUID, env domain.Environment) (bool, error)
	Holds(ctx context.Context, id uuid.UUID, name string, env domain.Environment) (bool, error)
	RunScenario(ctx context.Context, id uuid.UUID, sc *scenario.Scenario) (scenario.Report, error)
}

var _ Workspaces = (*service.WorkspaceService)(nil)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and engine errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWorkspaceNotFound), errors.Is(err, tms.ErrNameNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tms.ErrConflictingAssertion):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnsupported),
		errors.Is(err, service.ErrScenarioKindMismatch),
		errors.Is(err, scenario.ErrInvalidStep):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTooManyWorkspaces):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func workspaceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
