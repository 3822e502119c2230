package handlers

import (
	"net/http"
)

type JustificationHandler struct {
	svc Workspaces
}

func NewJustificationHandler(svc Workspaces) *JustificationHandler {
	return &JustificationHandler{svc: svc}
}

type addJustificationRequest struct {
	In         []string `json:"in"`
	Out        []string `json:"out"`
	Conclusion string   `json:"conclusion"`
}

func (h *JustificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := workspaceID(w, r)
	if !ok {
		return
	}
	var req addJustificationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Conclusion == "" {
		writeError(w, http.StatusBadRequest, "conclusion is required")
		return
	}

	out, err := h.svc.AddJustification(r.Context(), id, req.In, req.Out, req.Conclusion)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"justification":          out.Justification,
		"added":                  out.Added,
		"nogoods":                out.Nogoods,
		"contradiction_detected": out.ContradictionDetected(),
	})
}
