package scenario

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/tms"
)

// Report summarizes a replay. Failed expectations are collected rather than
// stopping the replay.
type Report struct {
	Steps    int                  `json:"steps"`
	Nogoods  []domain.Environment `json:"nogoods,omitempty"`
	Failures []string             `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool {
	return len(r.Failures) == 0
}

// Result is a replay on a fresh engine together with the final dump.
type Result struct {
	Report  Report               `json:"report"`
	Beliefs []domain.BeliefState `json:"beliefs,omitempty"`
	Nodes   []domain.NodeState   `json:"nodes,omitempty"`
}

// Run replays the scenario against a new engine of the requested kind.
func (sc *Scenario) Run(opts ...tms.Option) (Result, error) {
	switch sc.Engine {
	case domain.KindJTMS:
		j := tms.NewJTMS(append(opts, tms.WithStrict(sc.Strict))...)
		rep, err := sc.ReplayJTMS(j)
		return Result{Report: rep, Beliefs: j.Snapshot()}, err
	case domain.KindATMS:
		a := tms.NewATMS(opts...)
		rep, err := sc.ReplayATMS(a)
		return Result{Report: rep, Nodes: a.Snapshot()}, err
	}
	return Result{}, fmt.Errorf("%w: unknown engine %q", ErrInvalidStep, sc.Engine)
}

// ReplayJTMS applies every step to j. Engine errors stop the replay.
func (sc *Scenario) ReplayJTMS(j *tms.JTMS) (Report, error) {
	var rep Report
	for i, step := range sc.Steps {
		var err error
		switch step.action() {
		case "add":
			for _, name := range step.Add {
				j.AddBelief(name)
			}
		case "justify":
			_, err = j.AddJustification(step.Justify.In, step.Justify.Out, step.Justify.Conclusion)
		case "set":
			for _, name := range slices.Sorted(maps.Keys(step.Set)) {
				if err = j.SetBeliefValidity(name, step.Set[name]); err != nil {
					break
				}
			}
		case "remove":
			err = j.RemoveBelief(step.Remove)
		case "expect":
			for _, name := range slices.Sorted(maps.Keys(step.Expect)) {
				b, lookupErr := j.Belief(name)
				if lookupErr != nil {
					err = lookupErr
					break
				}
				if want := step.Expect[name]; b.Valid != want {
					rep.Failures = append(rep.Failures,
						fmt.Sprintf("step %d: %s is %s, expected %s", i+1, name, b.Valid, want))
				}
			}
		default:
			err = fmt.Errorf("%w: %q not supported by jtms", ErrInvalidStep, step.action())
		}
		if err != nil {
			return rep, fmt.Errorf("step %d: %w", i+1, err)
		}
		rep.Steps++
	}
	return rep, nil
}

// ReplayATMS applies every step to a. Engine errors stop the replay. The
// report carries the minimal nogood store as it stands when replay ends.
func (sc *Scenario) ReplayATMS(a *tms.ATMS) (rep Report, err error) {
	defer func() { rep.Nogoods = a.Nogoods() }()
	for i, step := range sc.Steps {
		switch step.action() {
		case "add":
			for _, name := range step.Add {
				a.AddNode(name, false)
			}
		case "assume":
			for _, name := range step.Assume {
				a.AddNode(name, true)
			}
		case "justify":
			_, err = a.AddJustification(step.Justify.In, step.Justify.Out, step.Justify.Conclusion)
		case "expect_label":
			for _, name := range slices.Sorted(maps.Keys(step.ExpectLabel)) {
				got, lookupErr := a.Environments(name)
				if lookupErr != nil {
					err = lookupErr
					break
				}
				if want := toEnvironments(step.ExpectLabel[name]); !sameLabel(got, want) {
					rep.Failures = append(rep.Failures,
						fmt.Sprintf("step %d: label of %s is %v, expected %v", i+1, name, got, want))
				}
			}
		default:
			err = fmt.Errorf("%w: %q not supported by atms", ErrInvalidStep, step.action())
		}
		if err != nil {
			return rep, fmt.Errorf("step %d: %w", i+1, err)
		}
		rep.Steps++
	}
	return rep, nil
}

func toEnvironments(sets [][]string) []domain.Environment {
	out := make([]domain.Environment, len(sets))
	for i, s := range sets {
		out[i] = domain.NewEnvironment(s...)
	}
	slices.SortFunc(out, domain.CompareEnvironments)
	return out
}

func sameLabel(a, b []domain.Environment) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Environment) bool { return x.Equal(y) })
}
