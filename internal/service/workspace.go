package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
	"github.com/Harshitk-cp/truthkeeper/internal/tms"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrTooManyWorkspaces    = errors.New("workspace limit reached")
	ErrUnsupported          = errors.New("operation not supported by engine")
	ErrScenarioKindMismatch = errors.New("scenario engine does not match workspace")
)

// workspace owns one engine. Engines are single-threaded, so every access
// goes through mu.
type workspace struct {
	mu   sync.Mutex
	info domain.Workspace
	jtms *tms.JTMS
	atms *tms.ATMS
}

func (w *workspace) snapshotInfo() domain.Workspace {
	info := w.info
	if w.jtms != nil {
		info.Beliefs = w.jtms.Len()
	} else {
		info.Beliefs = w.atms.Len()
	}
	return info
}

// WorkspaceConfig holds engine defaults and limits for new workspaces.
type WorkspaceConfig struct {
	MaxWorkspaces   int
	CheckInvariants bool
}

// WorkspaceService hosts independent engines keyed by workspace ID and
// serializes callers per workspace.
type WorkspaceService struct {
	mu         sync.RWMutex
	workspaces map[uuid.UUID]*workspace
	cfg        WorkspaceConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewWorkspaceService(cfg WorkspaceConfig, logger *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		workspaces: make(map[uuid.UUID]*workspace),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Create starts an empty engine of the given kind.
func (s *WorkspaceService) Create(ctx context.Context, kind domain.EngineKind, strict bool) (domain.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return domain.Workspace{}, err
	}
	kind, err := domain.ParseEngineKind(string(kind))
	if err != nil {
		return domain.Workspace{}, err
	}

	now := s.now()
	w := &workspace{info: domain.Workspace{
		ID:         uuid.New(),
		Kind:       kind,
		CreatedAt:  now,
		LastUsedAt: now,
	}}
	opts := []tms.Option{
		tms.WithLogger(s.logger.With(zap.String("workspace_id", w.info.ID.String()))),
		tms.WithInvariantChecks(s.cfg.CheckInvariants),
	}
	if kind == domain.KindJTMS {
		w.info.Strict = strict
		w.jtms = tms.NewJTMS(append(opts, tms.WithStrict(strict))...)
	} else {
		w.atms = tms.NewATMS(opts...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxWorkspaces > 0 && len(s.workspaces) >= s.cfg.MaxWorkspaces {
		return domain.Workspace{}, ErrTooManyWorkspaces
	}
	s.workspaces[w.info.ID] = w

	s.logger.Info("workspace created",
		zap.String("workspace_id", w.info.ID.String()),
		zap.String("kind", string(kind)),
		zap.Bool("strict", strict),
	)
	return w.snapshotInfo(), nil
}

// List returns every workspace, oldest first.
func (s *WorkspaceService) List(ctx context.Context) ([]domain.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]*workspace, 0, len(s.workspaces))
	for _, w := range s.workspaces {
		all = append(all, w)
	}
	s.mu.RUnlock()

	out := make([]domain.Workspace, 0, len(all))
	for _, w := range all {
		w.mu.Lock()
		out = append(out, w.snapshotInfo())
		w.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b domain.Workspace) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// Delete drops the workspace and its engine.
func (s *WorkspaceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[id]; !ok {
		return ErrWorkspaceNotFound
	}
	delete(s.workspaces, id)
	s.logger.Info("workspace deleted", zap.String("workspace_id", id.String()))
	return nil
}

// with runs fn while holding the workspace lock and marks it used.
func (s *WorkspaceService) with(ctx context.Context, id uuid.UUID, fn func(w *workspace) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	w, ok := s.workspaces[id]
	s.mu.RUnlock()
	if !ok {
		return ErrWorkspaceNotFound
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.info.LastUsedAt = s.now()
	return fn(w)
}

// Dump returns the full diagnostic state of a workspace.
func (s *WorkspaceService) Dump(ctx context.Context, id uuid.UUID) (domain.Dump, error) {
	var d domain.Dump
	err := s.with(ctx, id, func(w *workspace) error {
		d.Workspace = w.snapshotInfo()
		if w.jtms != nil {
			d.Beliefs = w.jtms.Snapshot()
		} else {
			d.Nodes = w.atms.Snapshot()
			d.Nogoods = w.atms.Nogoods()
		}
		return nil
	})
	return d, err
}

// AddBelief creates a belief, or an assumption in ATMS workspaces.
func (s *WorkspaceService) AddBelief(ctx context.Context, id uuid.UUID, name string, assumption bool) (tms.Outcome, error) {
	var out tms.Outcome
	err := s.with(ctx, id, func(w *workspace) error {
		if w.jtms != nil {
			if assumption {
				return fmt.Errorf("%w: jtms has no assumptions", ErrUnsupported)
			}
			w.jtms.AddBelief(name)
			return nil
		}
		out = w.atms.AddNode(name, assumption)
		return nil
	})
	return out, err
}

// AddJustification adds a justification to either engine.
func (s *WorkspaceService) AddJustification(ctx context.Context, id uuid.UUID, in, out []string, conclusion string) (tms.Outcome, error) {
	var res tms.Outcome
	err := s.with(ctx, id, func(w *workspace) error {
		if w.jtms != nil {
			j, err := w.jtms.AddJustification(in, out, conclusion)
			res.Justification = j
			return err
		}
		var err error
		res, err = w.atms.AddJustification(in, out, conclusion)
		return err
	})
	return res, err
}

// SetValidity asserts a belief's validity in a JTMS workspace.
func (s *WorkspaceService) SetValidity(ctx context.Context, id uuid.UUID, name string, v domain.Validity) error {
	return s.with(ctx, id, func(w *workspace) error {
		if w.jtms == nil {
			return fmt.Errorf("%w: atms beliefs are not asserted directly", ErrUnsupported)
		}
		return w.jtms.SetBeliefValidity(name, v)
	})
}

// RemoveBelief deletes a belief from a JTMS workspace.
func (s *WorkspaceService) RemoveBelief(ctx context.Context, id uuid.UUID, name string) error {
	return s.with(ctx, id, func(w *workspace) error {
		if w.jtms == nil {
			return fmt.Errorf("%w: atms beliefs cannot be removed", ErrUnsupported)
		}
		return w.jtms.RemoveBelief(name)
	})
}

// Belief returns the state of one belief.
func (s *WorkspaceService) Belief(ctx context.Context, id uuid.UUID, name string) (domain.BeliefView, error) {
	var view domain.BeliefView
	err := s.with(ctx, id, func(w *workspace) error {
		if w.jtms != nil {
			b, err := w.jtms.Belief(name)
			if err != nil {
				return err
			}
			view.Belief = &b
			if j, ok, _ := w.jtms.Support(name); ok {
				view.Support = &j
			}
			return nil
		}
		n, err := w.atms.Node(name)
		if err != nil {
			return err
		}
		view.Node = &n
		return nil
	})
	return view, err
}

// IsConsistent checks an environment against an ATMS workspace's nogoods.
func (s *WorkspaceService) IsConsistent(ctx context.Context, id uuid.UUID, env domain.Environment) (bool, error) {
	var ok bool
	err := s.with(ctx, id, func(w *workspace) error {
		if w.atms == nil {
			return fmt.Errorf("%w: jtms has no environments", ErrUnsupported)
		}
		var err error
		ok, err = w.atms.IsConsistent(env)
		return err
	})
	return ok, err
}

// Holds reports whether a belief holds in env in an ATMS workspace.
func (s *WorkspaceService) Holds(ctx context.Context, id uuid.UUID, name string, env domain.Environment) (bool, error) {
	var ok bool
	err := s.with(ctx, id, func(w *workspace) error {
		if w.atms == nil {
			return fmt.Errorf("%w: jtms has no environments", ErrUnsupported)
		}
		var err error
		ok, err = w.atms.Holds(name, env)
		return err
	})
	return ok, err
}

// RunScenario replays sc against the workspace engine.
func (s *WorkspaceService) RunScenario(ctx context.Context, id uuid.UUID, sc *scenario.Scenario) (scenario.Report, error) {
	var rep scenario.Report
	err := s.with(ctx, id, func(w *workspace) error {
		if sc.Engine != w.info.Kind {
			return fmt.Errorf("%w: %s scenario on %s workspace", ErrScenarioKindMismatch, sc.Engine, w.info.Kind)
		}
		var err error
		if w.jtms != nil {
			rep, err = sc.ReplayJTMS(w.jtms)
		} else {
			rep, err = sc.ReplayATMS(w.atms)
		}
		return err
	})
	return rep, err
}

// EvictIdle drops workspaces unused for longer than ttl and returns how many
// were removed.
func (s *WorkspaceService) EvictIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, w := range s.workspaces {
		if !w.mu.TryLock() {
			continue
		}
		idle := w.info.LastUsedAt.Before(cutoff)
		w.mu.Unlock()
		if idle {
			delete(s.workspaces, id)
			evicted++
		}
	}
	return evicted
}

// Count returns the number of live workspaces.
func (s *WorkspaceService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}
