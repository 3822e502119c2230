// Package tms implements a justification-based and an assumption-based truth
// maintenance system over a shared belief/justification graph.
//
// Engines are not safe for concurrent use. Every exported method runs to
// completion, including all propagation it triggers, before returning.
package tms

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNameNotFound         = errors.New("belief not found")
	ErrConflictingAssertion = errors.New("assertion conflicts with current validity")
)

// Contradiction is the distinguished ATMS belief whose environments become nogoods.
const Contradiction = "contradiction"

type justification struct {
	id         string
	in         []string
	out        []string
	conclusion string
}

func (j *justification) mentions(name string) bool {
	return j.conclusion == name || slices.Contains(j.in, name) || slices.Contains(j.out, name)
}

func (j *justification) view() domain.Justification {
	return domain.Justification{
		ID:         j.id,
		In:         slices.Clone(j.in),
		Out:        slices.Clone(j.out),
		Conclusion: j.conclusion,
	}
}

// node carries both engines' auxiliary state; each engine only touches its own.
type node struct {
	name      string
	justs     []*justification
	consumers []*justification

	// JTMS
	valid        domain.Validity
	asserted     bool
	nonMonotonic bool

	// ATMS
	isAssumption bool
	label        []domain.Environment
}

func (n *node) addConsumer(j *justification) {
	if !slices.Contains(n.consumers, j) {
		n.consumers = append(n.consumers, j)
	}
}

// graph is the name-indexed store of beliefs and the justification hyper-edges
// between them.
type graph struct {
	nodes map[string]*node
	justs map[string]*justification
}

func newGraph() graph {
	return graph{
		nodes: make(map[string]*node),
		justs: make(map[string]*justification),
	}
}

// ensure returns the named node, creating it when absent.
func (g *graph) ensure(name string) (*node, bool) {
	if n, ok := g.nodes[name]; ok {
		return n, false
	}
	n := &node{name: name}
	g.nodes[name] = n
	return n, true
}

func (g *graph) lookup(name string) (*node, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}
	return n, nil
}

// link validates every referenced name and registers a new justification on
// its conclusion and as a consumer edge on each antecedent.
func (g *graph) link(in, out []string, conclusion string) (*justification, error) {
	for _, names := range [][]string{in, out, {conclusion}} {
		for _, name := range names {
			if _, err := g.lookup(name); err != nil {
				return nil, err
			}
		}
	}

	j := &justification{
		id:         uuid.NewString(),
		in:         slices.Clone(in),
		out:        slices.Clone(out),
		conclusion: conclusion,
	}
	g.justs[j.id] = j
	c := g.nodes[conclusion]
	c.justs = append(c.justs, j)
	for _, name := range in {
		g.nodes[name].addConsumer(j)
	}
	for _, name := range out {
		g.nodes[name].addConsumer(j)
	}
	return j, nil
}

// unlink deletes the named node and every justification mentioning it. It
// returns the surviving conclusions of the deleted justifications.
func (g *graph) unlink(name string) ([]string, error) {
	if _, err := g.lookup(name); err != nil {
		return nil, err
	}

	var affected []string
	for id, j := range g.justs {
		if !j.mentions(name) {
			continue
		}
		delete(g.justs, id)
		for _, n := range g.nodes {
			n.justs = slices.DeleteFunc(n.justs, func(x *justification) bool { return x == j })
			n.consumers = slices.DeleteFunc(n.consumers, func(x *justification) bool { return x == j })
		}
		if j.conclusion != name && !slices.Contains(affected, j.conclusion) {
			affected = append(affected, j.conclusion)
		}
	}
	delete(g.nodes, name)
	slices.Sort(affected)
	return affected, nil
}

// Len returns the number of beliefs.
func (g *graph) Len() int {
	return len(g.nodes)
}

func (g *graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (g *graph) views(n *node) []domain.Justification {
	if len(n.justs) == 0 {
		return nil
	}
	out := make([]domain.Justification, len(n.justs))
	for i, j := range n.justs {
		out[i] = j.view()
	}
	return out
}

// Option configures an engine.
type Option func(*options)

type options struct {
	logger          *zap.Logger
	strict          bool
	checkInvariants bool
}

// WithLogger sets the engine logger. Engines log nothing by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrict makes the JTMS reject direct assertions that flip a belief
// between True and False.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithInvariantChecks verifies engine invariants after every mutation and
// panics on violation.
func WithInvariantChecks(on bool) Option {
	return func(o *options) { o.checkInvariants = on }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
