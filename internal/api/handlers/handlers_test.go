package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
	"github.com/Harshitk-cp/truthkeeper/internal/service"
	"github.com/Harshitk-cp/truthkeeper/internal/tms"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWorkspaces mocks the Workspaces interface.
type MockWorkspaces struct {
	mock.Mock
}

func (m *MockWorkspaces) Create(ctx context.Context, kind domain.EngineKind, strict bool) (domain.Workspace, error) {
	args := m.Called(ctx, kind, strict)
	return args.Get(0).(domain.Workspace), args.Error(1)
}

func (m *MockWorkspaces) List(ctx context.Context) ([]domain.Workspace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Workspace), args.Error(1)
}

func (m *MockWorkspaces) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWorkspaces) Dump(ctx context.Context, id uuid.UUID) (domain.Dump, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Dump), args.Error(1)
}

func (m *MockWorkspaces) AddBelief(ctx context.Context, id uuid.UUID, name string, assumption bool) (tms.Outcome, error) {
	args := m.Called(ctx, id, name, assumption)
	return args.Get(0).(tms.Outcome), args.Error(1)
}

func (m *MockWorkspaces) AddJustification(ctx context.Context, id uuid.UUID, in, out []string, conclusion string) (tms.Outcome, error) {
	args := m.Called(ctx, id, in, out, conclusion)
	return args.Get(0).(tms.Outcome), args.Error(1)
}

func (m *MockWorkspaces) SetValidity(ctx context.Context, id uuid.UUID, name string, v domain.Validity) error {
	return m.Called(ctx, id, name, v).Error(0)
}

func (m *MockWorkspaces) RemoveBelief(ctx context.Context, id uuid.UUID, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockWorkspaces) Belief(ctx context.Context, id uuid.UUID, name string) (domain.BeliefView, error) {
	args := m.Called(ctx, id, name)
	return args.Get(0).(domain.BeliefView), args.Error(1)
}

func (m *MockWorkspaces) IsConsistent(ctx context.Context, id uuid.UUID, env domain.Environment) (bool, error) {
	args := m.Called(ctx, id, env)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkspaces) Holds(ctx context.Context, id uuid.UUID, name string, env domain.Environment) (bool, error) {
	args := m.Called(ctx, id, name, env)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkspaces) RunScenario(ctx context.Context, id uuid.UUID, sc *scenario.Scenario) (scenario.Report, error) {
	args := m.Called(ctx, id, sc)
	return args.Get(0).(scenario.Report), args.Error(1)
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrWorkspaceNotFound, http.StatusNotFound},
		{fmt.Errorf("add: %w", tms.ErrNameNotFound), http.StatusNotFound},
		{tms.ErrConflictingAssertion, http.StatusConflict},
		{service.ErrUnsupported, http.StatusBadRequest},
		{service.ErrScenarioKindMismatch, http.StatusBadRequest},
		{fmt.Errorf("step 2: %w", scenario.ErrInvalidStep), http.StatusBadRequest},
		{service.ErrTooManyWorkspaces, http.StatusServiceUnavailable},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWorkspaceHandler_CreateUsesDefaultStrict(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewWorkspaceHandler(svc, true)

	ws := domain.Workspace{ID: uuid.New(), Kind: domain.KindJTMS, Strict: true}
	svc.On("Create", mock.Anything, domain.KindJTMS, true).Return(ws, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces", strings.NewReader(`{"kind":"JTMS"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), ws.ID.String())
	svc.AssertExpectations(t)
}

func TestWorkspaceHandler_ListEmpty(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewWorkspaceHandler(svc, false)
	svc.On("List", mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/workspaces", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"workspaces":[]}`, rec.Body.String())
}

func TestBeliefHandler_InternalError(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewBeliefHandler(svc)
	id := uuid.New()
	svc.On("Belief", mock.Anything, id, "A").Return(domain.BeliefView{}, errors.New("engine exploded"))

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String(), "name", "A")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
	svc.AssertExpectations(t)
}

func TestBeliefHandler_HoldsIn(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewBeliefHandler(svc)
	id := uuid.New()
	env := domain.NewEnvironment("A", "B")
	node := domain.NodeState{Name: "X", Label: []domain.Environment{env}}
	svc.On("Belief", mock.Anything, id, "X").Return(domain.BeliefView{Node: &node}, nil)
	svc.On("Holds", mock.Anything, id, "X", env).Return(true, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/?holds_in=B,%20A", nil), "id", id.String(), "name", "X")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"holds":true`)
	svc.AssertExpectations(t)
}

func TestBeliefHandler_CreateRequiresName(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewBeliefHandler(svc)

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), "id", uuid.NewString())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "AddBelief", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJustificationHandler_Create(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewJustificationHandler(svc)
	id := uuid.New()
	nogood := domain.NewEnvironment("A", "B")
	svc.On("AddJustification", mock.Anything, id, []string{"A", "B"}, []string(nil), tms.Contradiction).
		Return(tms.Outcome{Nogoods: []domain.Environment{nogood}}, nil)

	body := `{"in":["A","B"],"conclusion":"contradiction"}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "id", id.String())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"contradiction_detected":true`)
	svc.AssertExpectations(t)
}

func TestWorkspaceHandler_ScenarioRejectsInvalidYAML(t *testing.T) {
	svc := new(MockWorkspaces)
	h := NewWorkspaceHandler(svc, false)

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("engine: jtms\nsteps:\n  - {}\n")), "id", uuid.NewString())
	rec := httptest.NewRecorder()
	h.Scenario(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RunScenario", mock.Anything, mock.Anything, mock.Anything)
}
