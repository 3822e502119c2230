package tms

import (
	"iter"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
)

// combinations yields, one at a time, the union of one environment drawn from
// each label. With no labels it yields the empty environment once; if any
// label is empty it yields nothing.
func combinations(labels [][]domain.Environment) iter.Seq[domain.Environment] {
	return func(yield func(domain.Environment) bool) {
		for _, l := range labels {
			if len(l) == 0 {
				return
			}
		}

		idx := make([]int, len(labels))
		for {
			env := domain.Environment{}
			for i, l := range labels {
				env = env.Union(l[idx[i]])
			}
			if !yield(env) {
				return
			}

			k := len(labels) - 1
			for ; k >= 0; k-- {
				idx[k]++
				if idx[k] < len(labels[k]) {
					break
				}
				idx[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}
