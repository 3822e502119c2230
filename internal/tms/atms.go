package tms

import (
	"fmt"
	"slices"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"go.uber.org/zap"
)

// ATMS is an assumption-based truth maintenance system.
//
// Every belief carries a label: the minimal environments (sets of
// assumptions) under which it can be derived. Environments that derive the
// Contradiction belief become nogoods; they and all their supersets are
// removed from every label and never admitted again.
type ATMS struct {
	graph
	opts    options
	log     *zap.Logger
	nogoods []domain.Environment
}

// LabelChange records an environment accepted into a belief's label.
type LabelChange struct {
	Belief      string             `json:"belief"`
	Environment domain.Environment `json:"environment"`
}

// Outcome reports what a mutation did to the label and nogood stores.
type Outcome struct {
	Justification domain.Justification `json:"justification"`
	Added         []LabelChange        `json:"added"`
	Nogoods       []domain.Environment `json:"nogoods"`
}

// ContradictionDetected reports whether the mutation registered any nogood.
func (o Outcome) ContradictionDetected() bool {
	return len(o.Nogoods) > 0
}

// NewATMS creates an ATMS holding only the Contradiction belief.
func NewATMS(opts ...Option) *ATMS {
	o := buildOptions(opts)
	a := &ATMS{
		graph: newGraph(),
		opts:  o,
		log:   o.logger.With(zap.String("engine", "atms")),
	}
	a.ensure(Contradiction)
	return a
}

// AddNode creates the belief if it is absent. When isAssumption is set the
// belief becomes an assumption holding in the environment {name}; an existing
// plain belief is promoted and the new environment propagated. Contradiction
// is never promoted.
func (a *ATMS) AddNode(name string, isAssumption bool) Outcome {
	var rec Outcome
	n, created := a.ensure(name)
	if created {
		a.log.Debug("node added", zap.String("belief", name), zap.Bool("assumption", isAssumption))
	}
	if !isAssumption || n.isAssumption {
		return rec
	}
	if name == Contradiction {
		a.log.Warn("contradiction cannot be an assumption")
		return rec
	}

	n.isAssumption = true
	if a.update(n, domain.NewEnvironment(name), &rec) {
		a.run(a.inConsumers(n), &rec)
	}
	a.finish(&rec)
	return rec
}

// AddJustification records that conclusion holds when every in belief holds
// and no out belief holds, and extends labels across every context the new
// justification reaches.
func (a *ATMS) AddJustification(in, out []string, conclusion string) (Outcome, error) {
	j, err := a.link(in, out, conclusion)
	if err != nil {
		return Outcome{}, err
	}
	rec := Outcome{Justification: j.view()}
	a.log.Debug("justification added", zap.String("id", j.id), zap.Stringer("justification", rec.Justification))

	a.run([]*justification{j}, &rec)
	a.finish(&rec)
	return rec, nil
}

// Environments returns the label of the named belief, smallest first.
func (a *ATMS) Environments(name string) ([]domain.Environment, error) {
	n, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	return cloneEnvs(n.label), nil
}

// IsConsistent reports whether env contains no nogood.
func (a *ATMS) IsConsistent(env domain.Environment) (bool, error) {
	for _, name := range env {
		if _, err := a.lookup(name); err != nil {
			return false, err
		}
	}
	return !a.isNogood(domain.NewEnvironment(env...)), nil
}

// Holds reports whether the named belief is derivable in the consistent
// world described by env.
func (a *ATMS) Holds(name string, env domain.Environment) (bool, error) {
	n, err := a.lookup(name)
	if err != nil {
		return false, err
	}
	ok, err := a.IsConsistent(env)
	if err != nil || !ok {
		return false, err
	}
	world := domain.NewEnvironment(env...)
	for _, e := range n.label {
		if e.SubsetOf(world) {
			return true, nil
		}
	}
	return false, nil
}

// Nogoods returns the minimal inconsistent environments, smallest first.
func (a *ATMS) Nogoods() []domain.Environment {
	return cloneEnvs(a.nogoods)
}

// Assumptions returns the names of all assumptions, sorted.
func (a *ATMS) Assumptions() []string {
	var out []string
	for _, name := range a.sortedNames() {
		if a.nodes[name].isAssumption {
			out = append(out, name)
		}
	}
	return out
}

// Node returns the state of the named belief.
func (a *ATMS) Node(name string) (domain.NodeState, error) {
	n, err := a.lookup(name)
	if err != nil {
		return domain.NodeState{}, err
	}
	return a.state(n), nil
}

// Snapshot dumps every belief and its label, sorted by name.
func (a *ATMS) Snapshot() []domain.NodeState {
	names := a.sortedNames()
	out := make([]domain.NodeState, len(names))
	for i, name := range names {
		out[i] = a.state(a.nodes[name])
	}
	return out
}

func (a *ATMS) state(n *node) domain.NodeState {
	return domain.NodeState{
		Name:         n.name,
		IsAssumption: n.isAssumption,
		Label:        cloneEnvs(n.label),
	}
}

// run fires justifications until no label grows.
func (a *ATMS) run(queue []*justification, rec *Outcome) {
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		if a.fire(j, rec) {
			queue = append(queue, a.inConsumers(a.nodes[j.conclusion])...)
		}
	}
}

// fire offers every candidate environment of j to its conclusion and reports
// whether the conclusion's label grew.
func (a *ATMS) fire(j *justification, rec *Outcome) bool {
	labels := make([][]domain.Environment, len(j.in))
	for i, name := range j.in {
		labels[i] = cloneEnvs(a.nodes[name].label)
	}

	conclusion := a.nodes[j.conclusion]
	grew := false
	for env := range combinations(labels) {
		reevaluations.WithLabelValues("atms").Inc()
		if a.blocked(j, env) {
			candidatesRejected.WithLabelValues(rejectBlocked).Inc()
			continue
		}
		if a.update(conclusion, env, rec) {
			grew = true
		}
	}
	return grew
}

// blocked reports whether an out-list belief already holds in env.
func (a *ATMS) blocked(j *justification, env domain.Environment) bool {
	for _, name := range j.out {
		for _, e := range a.nodes[name].label {
			if e.SubsetOf(env) {
				return true
			}
		}
	}
	return false
}

// update adds env to the label of n unless it is inconsistent or subsumed.
// Environments offered to the Contradiction belief become nogoods.
func (a *ATMS) update(n *node, env domain.Environment, rec *Outcome) bool {
	if a.isNogood(env) {
		candidatesRejected.WithLabelValues(rejectNogood).Inc()
		return false
	}
	if n.name == Contradiction {
		a.addNogood(env, rec)
		return false
	}
	for _, e := range n.label {
		if e.SubsetOf(env) {
			candidatesRejected.WithLabelValues(rejectRedundant).Inc()
			return false
		}
	}

	n.label = slices.DeleteFunc(n.label, func(e domain.Environment) bool { return env.SubsetOf(e) })
	n.label = append(n.label, env)
	slices.SortFunc(n.label, domain.CompareEnvironments)
	environmentsAdded.Inc()
	rec.Added = append(rec.Added, LabelChange{Belief: n.name, Environment: env})
	return true
}

// addNogood registers env as inconsistent and prunes it and its supersets
// from every label.
func (a *ATMS) addNogood(env domain.Environment, rec *Outcome) {
	a.nogoods = slices.DeleteFunc(a.nogoods, func(ng domain.Environment) bool { return env.SubsetOf(ng) })
	a.nogoods = append(a.nogoods, env)
	slices.SortFunc(a.nogoods, domain.CompareEnvironments)
	nogoodsRegistered.Inc()
	rec.Nogoods = append(rec.Nogoods, env)
	a.log.Info("contradiction detected", zap.Stringer("nogood", env))

	for _, n := range a.nodes {
		n.label = slices.DeleteFunc(n.label, func(e domain.Environment) bool { return env.SubsetOf(e) })
	}
}

func (a *ATMS) isNogood(env domain.Environment) bool {
	for _, ng := range a.nogoods {
		if ng.SubsetOf(env) {
			return true
		}
	}
	return false
}

// inConsumers returns the justifications that use n as a positive antecedent.
// Out-list consumers are not re-fired: a growing out-list label never creates
// new derivations.
func (a *ATMS) inConsumers(n *node) []*justification {
	var out []*justification
	for _, j := range n.consumers {
		if slices.Contains(j.in, n.name) {
			out = append(out, j)
		}
	}
	return out
}

// finish drops additions that a later nogood pruned and checks invariants.
func (a *ATMS) finish(rec *Outcome) {
	rec.Added = slices.DeleteFunc(rec.Added, func(c LabelChange) bool {
		n, ok := a.nodes[c.Belief]
		return !ok || !slices.ContainsFunc(n.label, c.Environment.Equal)
	})
	a.verify()
}

// verify checks label minimality and soundness and nogood minimality.
func (a *ATMS) verify() {
	if !a.opts.checkInvariants {
		return
	}
	for i, ng := range a.nogoods {
		for k, other := range a.nogoods {
			if i != k && ng.SubsetOf(other) {
				panic(fmt.Sprintf("atms: nogood %s subsumes nogood %s", ng, other))
			}
		}
	}
	for name, n := range a.nodes {
		for i, e := range n.label {
			if a.isNogood(e) {
				panic(fmt.Sprintf("atms: label of %q holds inconsistent environment %s", name, e))
			}
			for k, other := range n.label {
				if i != k && e.SubsetOf(other) {
					panic(fmt.Sprintf("atms: label of %q is not minimal: %s subsumes %s", name, e, other))
				}
			}
		}
	}
}

func cloneEnvs(envs []domain.Environment) []domain.Environment {
	if envs == nil {
		return []domain.Environment{}
	}
	out := make([]domain.Environment, len(envs))
	for i, e := range envs {
		out[i] = slices.Clone(e)
	}
	return out
}
