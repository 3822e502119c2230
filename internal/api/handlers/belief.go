package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/go-chi/chi/v5"
)

type BeliefHandler struct {
	svc Workspaces
}

func NewBeliefHandler(svc Workspaces) *BeliefHandler {
	return &BeliefHandler{svc: svc}
}

type addBeliefRequest struct {
	Name       string `json:"name"`
	Assumption bool   `json:"assumption"`
}

func (h *BeliefHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}
	var req addBeliefRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	out, err := h.svc.AddBelief(r.Context(), id, req.Name, req.Assumption)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":    req.Name,
		"added":   out.Added,
		"nogoods": out.Nogoods,
	})
}

// Get returns the belief state. With ?holds_in=A,B on an ATMS workspace it
// also reports whether the belief holds in that environment.
func (h *BeliefHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	view, err := h.svc.Belief(r.Context(), id, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	raw, ok := r.URL.Query()["holds_in"]
	if !ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	var names []string
	for _, v := range raw {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				names = append(names, s)
			}
		}
	}
	env := domain.NewEnvironment(names...)
	holds, err := h.svc.Holds(r.Context(), id, name, env)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node":        view.Node,
		"environment": env,
		"holds":       holds,
	})
}

type setValidityRequest struct {
	Valid domain.Validity `json:"valid"`
}

func (h *BeliefHandler) SetValidity(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}
	var req setValidityRequest
	if !decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "name")

	if err := h.svc.SetValidity(r.Context(), id, name, req.Valid); err != nil {
		writeServiceError(w, err)
		return
	}

	view, err := h.svc.Belief(r.Context(), id, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *BeliefHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveBelief(r.Context(), id, chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
