package tms

import (
	"fmt"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"go.uber.org/zap"
)

// JTMS is a justification-based truth maintenance system.
//
// Each belief has a validity of True, False or Unknown. A belief is True when
// at least one of its justifications fires; unjustified beliefs keep whatever
// value was last asserted for them. A change re-evaluates every belief
// downstream of it from well-founded support, so a loop of justifications
// cannot keep itself True once its outside support is gone. Beliefs caught in
// such a loop are flagged non-monotonic and read Unknown.
type JTMS struct {
	graph
	opts options
	log  *zap.Logger
}

// NewJTMS creates an empty JTMS.
func NewJTMS(opts ...Option) *JTMS {
	o := buildOptions(opts)
	return &JTMS{
		graph: newGraph(),
		opts:  o,
		log:   o.logger.With(zap.String("engine", "jtms")),
	}
}

// Strict reports whether conflicting assertions are rejected.
func (t *JTMS) Strict() bool {
	return t.opts.strict
}

// AddBelief creates the belief with validity Unknown. Existing beliefs are
// left untouched.
func (t *JTMS) AddBelief(name string) {
	if _, created := t.ensure(name); created {
		t.log.Debug("belief added", zap.String("belief", name))
	}
}

// AddJustification records that conclusion holds when every in belief is True
// and no out belief is True, then brings the conclusion and everything that
// depends on it up to date.
func (t *JTMS) AddJustification(in, out []string, conclusion string) (domain.Justification, error) {
	j, err := t.link(in, out, conclusion)
	if err != nil {
		return domain.Justification{}, err
	}
	t.log.Debug("justification added", zap.String("id", j.id), zap.Stringer("justification", j.view()))

	t.revise(conclusion)
	t.verify()
	return j.view(), nil
}

// SetBeliefValidity asserts a value for the belief directly and propagates
// the consequences.
func (t *JTMS) SetBeliefValidity(name string, v domain.Validity) error {
	n, err := t.lookup(name)
	if err != nil {
		return err
	}
	if t.opts.strict && n.valid != domain.Unknown && v != domain.Unknown && n.valid != v {
		return fmt.Errorf("%w: %q is %s, asserted %s", ErrConflictingAssertion, name, n.valid, v)
	}

	t.log.Debug("belief asserted", zap.String("belief", name), zap.Stringer("valid", v))
	n.asserted = true
	n.valid = v
	t.propagate(name)
	t.verify()
	return nil
}

// RemoveBelief deletes the belief together with every justification that
// mentions it. Beliefs that were concluded by a deleted justification are
// re-evaluated.
func (t *JTMS) RemoveBelief(name string) error {
	affected, err := t.unlink(name)
	if err != nil {
		return err
	}
	t.log.Debug("belief removed", zap.String("belief", name), zap.Strings("reevaluate", affected))

	t.revise(affected...)
	t.verify()
	return nil
}

// Belief returns the current state of the named belief.
func (t *JTMS) Belief(name string) (domain.BeliefState, error) {
	n, err := t.lookup(name)
	if err != nil {
		return domain.BeliefState{}, err
	}
	return t.state(n), nil
}

// Support returns the justification currently making the belief True. The
// boolean is false for beliefs that are not True or are True only by
// assertion.
func (t *JTMS) Support(name string) (domain.Justification, bool, error) {
	n, err := t.lookup(name)
	if err != nil {
		return domain.Justification{}, false, err
	}
	if n.valid != domain.True {
		return domain.Justification{}, false, nil
	}
	for _, j := range n.justs {
		if t.fires(j) {
			return j.view(), true, nil
		}
	}
	return domain.Justification{}, false, nil
}

// Snapshot dumps every belief, sorted by name.
func (t *JTMS) Snapshot() []domain.BeliefState {
	names := t.sortedNames()
	out := make([]domain.BeliefState, len(names))
	for i, name := range names {
		out[i] = t.state(t.nodes[name])
	}
	return out
}

func (t *JTMS) state(n *node) domain.BeliefState {
	return domain.BeliefState{
		Name:           n.name,
		Valid:          n.valid,
		NonMonotonic:   n.nonMonotonic,
		Asserted:       n.asserted,
		Justifications: t.views(n),
	}
}

// fires evaluates j against the current validities.
func (t *JTMS) fires(j *justification) bool {
	for _, name := range j.in {
		if t.nodes[name].valid != domain.True {
			return false
		}
	}
	for _, name := range j.out {
		if t.nodes[name].valid == domain.True {
			return false
		}
	}
	return true
}

func (t *JTMS) evaluate(n *node) domain.Validity {
	if len(n.justs) == 0 {
		if n.asserted {
			return n.valid
		}
		return domain.Unknown
	}
	for _, j := range n.justs {
		if t.fires(j) {
			return domain.True
		}
	}
	return domain.Unknown
}

// revise recomputes the named beliefs and everything downstream of them.
func (t *JTMS) revise(names ...string) {
	r := t.newRevision()
	for _, name := range names {
		r.include(name)
	}
	r.spread()
	r.run()
}

// propagate recomputes everything downstream of root. Root itself is only
// recomputed when it depends on its own consequences.
func (t *JTMS) propagate(root string) {
	r := t.newRevision()
	r.queue = append(r.queue, root)
	r.spread()
	r.run()
}

// verify checks that every derived belief outside a detected cycle agrees
// with its justifications. Asserted beliefs hold their value by fiat until
// the next time they are re-evaluated.
func (t *JTMS) verify() {
	if !t.opts.checkInvariants {
		return
	}
	for name, n := range t.nodes {
		if n.nonMonotonic || n.asserted {
			continue
		}
		if v := t.evaluate(n); v != n.valid {
			panic(fmt.Sprintf("jtms: belief %q is %s but its justifications give %s", name, n.valid, v))
		}
	}
}
