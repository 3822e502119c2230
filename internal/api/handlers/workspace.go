package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
)

const maxScenarioBytes = 1 << 20

type WorkspaceHandler struct {
	svc           Workspaces
	defaultStrict bool
}

func NewWorkspaceHandler(svc Workspaces, defaultStrict bool) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc, defaultStrict: defaultStrict}
}

type createWorkspaceRequest struct {
	Kind   string `json:"kind"`
	Strict *bool  `json:"strict"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if !decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseEngineKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	strict := h.defaultStrict
	if req.Strict != nil {
		strict = *req.Strict
	}

	ws, err := h.svc.Create(r.Context(), kind, strict)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Workspace{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": list})
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}

	dump, err := h.svc.Dump(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dump)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type consistencyRequest struct {
	Environment []string `json:"environment"`
}

func (h *WorkspaceHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}
	var req consistencyRequest
	if !decode(w, r, &req) {
		return
	}

	env := domain.NewEnvironment(req.Environment...)
	consistent, err := h.svc.IsConsistent(r.Context(), id, env)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"environment": env,
		"consistent":  consistent,
	})
}

// Scenario replays a YAML scenario body against the workspace.
func (h *WorkspaceHandler) Scenario(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}

	sc, err := scenario.Load(http.MaxBytesReader(w, r.Body, maxScenarioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.svc.RunScenario(r.Context(), id, sc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   sc.Name,
		"passed": rep.Passed(),
		"report": rep,
	})
}
