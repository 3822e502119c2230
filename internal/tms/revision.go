package tms

import (
	"math"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"go.uber.org/zap"
)

// noDepth marks a value that no longer depends on anything under evaluation.
const noDepth = math.MaxInt

type provisional struct {
	valid domain.Validity
	low   int
}

// revision re-evaluates a region of the JTMS from scratch. Beliefs are
// evaluated depth-first; a belief reached again while its own evaluation is
// still active reads as Unknown. If the belief it re-entered cannot become
// True without that read, both beliefs are flagged non-monotonic and pinned
// at Unknown. Values computed from such a read are kept only until the
// re-entered belief finishes.
type revision struct {
	t *JTMS

	scope map[string]bool
	order []string
	queue []string
	prior map[string]domain.Validity

	done  map[string]bool
	depth map[string]int
	stack []string
	cache map[string]provisional
	byLow map[int][]string
	// reentries maps an active belief to the beliefs that reached it again.
	reentries map[string][]string
}

func (t *JTMS) newRevision() *revision {
	return &revision{
		t:         t,
		scope:     make(map[string]bool),
		prior:     make(map[string]domain.Validity),
		done:      make(map[string]bool),
		depth:     make(map[string]int),
		cache:     make(map[string]provisional),
		byLow:     make(map[int][]string),
		reentries: make(map[string][]string),
	}
}

func (r *revision) include(name string) {
	if r.scope[name] {
		return
	}
	r.scope[name] = true
	r.order = append(r.order, name)
	r.queue = append(r.queue, name)
}

// spread adds every belief downstream of the queued ones to the scope.
func (r *revision) spread() {
	for len(r.queue) > 0 {
		name := r.queue[0]
		r.queue = r.queue[1:]
		for _, j := range r.t.nodes[name].consumers {
			r.include(j.conclusion)
		}
	}
}

func (r *revision) run() {
	for _, name := range r.order {
		n := r.t.nodes[name]
		r.prior[name] = n.valid
		n.nonMonotonic = false
	}
	for _, name := range r.order {
		if !r.done[name] {
			r.value(name)
		}
	}
	for _, name := range r.order {
		n := r.t.nodes[name]
		if old := r.prior[name]; old != n.valid {
			r.t.log.Debug("belief changed",
				zap.String("belief", name), zap.Stringer("from", old), zap.Stringer("to", n.valid))
		}
	}
}

func (r *revision) settled(name string) bool {
	return !r.scope[name] || r.done[name]
}

func (r *revision) value(name string) (domain.Validity, int) {
	if r.settled(name) {
		return r.t.nodes[name].valid, noDepth
	}
	if d, ok := r.depth[name]; ok {
		trigger := r.stack[len(r.stack)-1]
		r.reentries[name] = append(r.reentries[name], trigger)
		return domain.Unknown, d
	}
	if c, ok := r.cache[name]; ok {
		return c.valid, c.low
	}
	return r.eval(name)
}

func (r *revision) eval(name string) (domain.Validity, int) {
	n := r.t.nodes[name]
	d := len(r.stack)
	r.depth[name] = d
	r.stack = append(r.stack, name)
	reevaluations.WithLabelValues("jtms").Inc()

	v, low := domain.Unknown, noDepth
	if len(n.justs) == 0 && n.asserted {
		v = n.valid
	}
	for _, j := range n.justs {
		ok, l := r.fires(j)
		if ok {
			// A provisional read can only stop a justification from
			// firing, so True is final.
			v, low = domain.True, noDepth
			break
		}
		low = min(low, l)
	}

	r.stack = r.stack[:len(r.stack)-1]
	delete(r.depth, name)
	for _, stale := range r.byLow[d] {
		delete(r.cache, stale)
	}
	delete(r.byLow, d)

	if triggers, ok := r.reentries[name]; ok {
		delete(r.reentries, name)
		if v != domain.True {
			for _, trigger := range triggers {
				if r.done[trigger] && r.t.nodes[trigger].valid == domain.True {
					continue
				}
				r.unresolved(name, trigger)
			}
			if n.nonMonotonic {
				return domain.Unknown, noDepth
			}
		}
	}

	if low >= d {
		n.valid = v
		r.done[name] = true
		return v, noDepth
	}
	r.cache[name] = provisional{valid: v, low: low}
	r.byLow[low] = append(r.byLow[low], name)
	return v, low
}

// fires reports whether j holds and the shallowest active depth its answer
// depended on. Antecedents that are already settled are checked first so an
// unsatisfiable justification never descends into a cycle.
func (r *revision) fires(j *justification) (bool, int) {
	for _, name := range j.in {
		if r.settled(name) && r.t.nodes[name].valid != domain.True {
			return false, noDepth
		}
	}
	for _, name := range j.out {
		if r.settled(name) && r.t.nodes[name].valid == domain.True {
			return false, noDepth
		}
	}

	low := noDepth
	for _, name := range j.in {
		if r.settled(name) {
			continue
		}
		v, l := r.value(name)
		low = min(low, l)
		if v != domain.True {
			return false, low
		}
	}
	for _, name := range j.out {
		if r.settled(name) {
			continue
		}
		v, l := r.value(name)
		low = min(low, l)
		if v == domain.True || l != noDepth {
			return false, low
		}
	}
	return true, low
}

func (r *revision) unresolved(name, trigger string) {
	for _, b := range []string{name, trigger} {
		n := r.t.nodes[b]
		n.nonMonotonic = true
		n.valid = domain.Unknown
		r.done[b] = true
		delete(r.cache, b)
	}
	cyclesDetected.Inc()
	r.t.log.Warn("justification cycle detected",
		zap.String("belief", name), zap.String("trigger", trigger))
}
