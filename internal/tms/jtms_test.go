package tms

import (
	"testing"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestJTMS(t *testing.T, opts ...Option) *JTMS {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithInvariantChecks(true)}, opts...)
	return NewJTMS(opts...)
}

func valid(t *testing.T, j *JTMS, name string) domain.Validity {
	t.Helper()
	b, err := j.Belief(name)
	require.NoError(t, err)
	return b.Valid
}

func TestJTMS_DefaultUnknown(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	j.AddBelief("B")

	for _, b := range j.Snapshot() {
		assert.Equal(t, domain.Unknown, b.Valid, "belief %s", b.Name)
		assert.False(t, b.NonMonotonic)
		assert.False(t, b.Asserted)
	}
}

func TestJTMS_AddBeliefIdempotent(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	j.AddBelief("A")

	assert.Len(t, j.Snapshot(), 1)
	assert.Equal(t, domain.True, valid(t, j, "A"), "re-adding must not reset the belief")
}

func TestJTMS_AddJustificationUnknownName(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")

	_, err := j.AddJustification([]string{"A"}, []string{"missing"}, "A")
	assert.ErrorIs(t, err, ErrNameNotFound)

	_, err = j.AddJustification([]string{"A"}, nil, "C")
	assert.ErrorIs(t, err, ErrNameNotFound)

	b, err := j.Belief("A")
	require.NoError(t, err)
	assert.Empty(t, b.Justifications, "failed justification must not be stored")
}

func TestJTMS_ChainPropagation(t *testing.T) {
	j := newTestJTMS(t)
	names := []string{"A", "B", "C", "D", "E"}
	for _, n := range names {
		j.AddBelief(n)
	}
	for i := 1; i < len(names); i++ {
		_, err := j.AddJustification([]string{names[i-1]}, nil, names[i])
		require.NoError(t, err)
	}

	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	for _, n := range names {
		assert.Equal(t, domain.True, valid(t, j, n), "belief %s after asserting A", n)
	}

	require.NoError(t, j.SetBeliefValidity("A", domain.False))
	assert.Equal(t, domain.False, valid(t, j, "A"))
	for _, n := range names[1:] {
		assert.Equal(t, domain.Unknown, valid(t, j, n), "belief %s after retracting A", n)
	}
}

func TestJTMS_JustificationAddedAfterAssertion(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	j.AddBelief("B")
	require.NoError(t, j.SetBeliefValidity("A", domain.True))

	_, err := j.AddJustification([]string{"A"}, nil, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.True, valid(t, j, "B"))
}

func TestJTMS_NonMonotonicJustification(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "C"} {
		j.AddBelief(n)
	}
	_, err := j.AddJustification([]string{"A"}, []string{"B"}, "C")
	require.NoError(t, err)

	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	require.NoError(t, j.SetBeliefValidity("B", domain.False))
	assert.Equal(t, domain.True, valid(t, j, "C"))

	require.NoError(t, j.SetBeliefValidity("B", domain.True))
	assert.Equal(t, domain.Unknown, valid(t, j, "C"), "support withdrawn, not falsified")
}

func TestJTMS_OrAcrossJustifications(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "C", "X"} {
		j.AddBelief(n)
	}
	_, err := j.AddJustification([]string{"A", "B"}, nil, "X")
	require.NoError(t, err)
	_, err = j.AddJustification([]string{"C"}, nil, "X")
	require.NoError(t, err)

	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	assert.Equal(t, domain.Unknown, valid(t, j, "X"), "AND within one justification")

	require.NoError(t, j.SetBeliefValidity("C", domain.True))
	assert.Equal(t, domain.True, valid(t, j, "X"))

	support, ok, err := j.Support("X")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, support.In)

	require.NoError(t, j.SetBeliefValidity("B", domain.True))
	require.NoError(t, j.SetBeliefValidity("C", domain.Unknown))
	assert.Equal(t, domain.True, valid(t, j, "X"), "OR across justifications")
}

func TestJTMS_SelfReferentialCycleTerminates(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	j.AddBelief("B")

	// A <- B ; B <- not A
	_, err := j.AddJustification([]string{"B"}, nil, "A")
	require.NoError(t, err)
	_, err = j.AddJustification(nil, []string{"A"}, "B")
	require.NoError(t, err)

	require.NoError(t, j.SetBeliefValidity("A", domain.True))

	a, err := j.Belief("A")
	require.NoError(t, err)
	b, err := j.Belief("B")
	require.NoError(t, err)
	assert.True(t, a.NonMonotonic)
	assert.True(t, b.NonMonotonic)
}

func TestJTMS_CycleTriggeredByPremise(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "P"} {
		j.AddBelief(n)
	}
	// A <- B, P ; B <- not A
	_, err := j.AddJustification([]string{"B", "P"}, nil, "A")
	require.NoError(t, err)
	_, err = j.AddJustification(nil, []string{"A"}, "B")
	require.NoError(t, err)

	a, _ := j.Belief("A")
	assert.False(t, a.NonMonotonic, "no cycle is reachable while P is unknown")

	require.NoError(t, j.SetBeliefValidity("P", domain.True))

	a, _ = j.Belief("A")
	b, _ := j.Belief("B")
	p, _ := j.Belief("P")
	assert.True(t, a.NonMonotonic)
	assert.True(t, b.NonMonotonic)
	assert.False(t, p.NonMonotonic)
	assert.Equal(t, domain.Unknown, a.Valid)
	assert.Equal(t, domain.Unknown, b.Valid)
}

func positiveLoop(t *testing.T) *JTMS {
	t.Helper()
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "X"} {
		j.AddBelief(n)
	}
	// A <- X ; A <- B ; B <- A
	_, err := j.AddJustification([]string{"X"}, nil, "A")
	require.NoError(t, err)
	_, err = j.AddJustification([]string{"A"}, nil, "B")
	require.NoError(t, err)
	_, err = j.AddJustification([]string{"B"}, nil, "A")
	require.NoError(t, err)
	return j
}

func TestJTMS_PositiveLoopNeedsOutsideSupport(t *testing.T) {
	j := positiveLoop(t)

	require.NoError(t, j.SetBeliefValidity("X", domain.True))
	a, _ := j.Belief("A")
	b, _ := j.Belief("B")
	assert.Equal(t, domain.True, a.Valid)
	assert.Equal(t, domain.True, b.Valid)
	assert.False(t, a.NonMonotonic, "a loop with outside support is not flagged")
	assert.False(t, b.NonMonotonic)

	require.NoError(t, j.SetBeliefValidity("X", domain.False))
	a, _ = j.Belief("A")
	b, _ = j.Belief("B")
	assert.Equal(t, domain.Unknown, a.Valid, "loop must not keep itself True")
	assert.Equal(t, domain.Unknown, b.Valid)
	assert.True(t, a.NonMonotonic)
	assert.True(t, b.NonMonotonic)

	support, ok, err := j.Support("A")
	require.NoError(t, err)
	assert.False(t, ok, "no support reported for %v", support)

	require.NoError(t, j.SetBeliefValidity("X", domain.True))
	a, _ = j.Belief("A")
	assert.Equal(t, domain.True, a.Valid)
	assert.False(t, a.NonMonotonic, "flags clear once the loop is grounded again")
}

func TestJTMS_PositiveLoopRemovedPremise(t *testing.T) {
	j := positiveLoop(t)
	require.NoError(t, j.SetBeliefValidity("X", domain.True))
	require.Equal(t, domain.True, valid(t, j, "B"))

	require.NoError(t, j.RemoveBelief("X"))
	assert.Equal(t, domain.Unknown, valid(t, j, "A"))
	assert.Equal(t, domain.Unknown, valid(t, j, "B"))
}

func TestJTMS_SelfJustification(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	j.AddBelief("P")
	// A <- A ; A <- P
	_, err := j.AddJustification([]string{"A"}, nil, "A")
	require.NoError(t, err)
	_, err = j.AddJustification([]string{"P"}, nil, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.Unknown, valid(t, j, "A"))

	require.NoError(t, j.SetBeliefValidity("P", domain.True))
	a, _ := j.Belief("A")
	assert.Equal(t, domain.True, a.Valid)
	assert.False(t, a.NonMonotonic)

	for _, v := range []domain.Validity{domain.False, domain.Unknown} {
		require.NoError(t, j.SetBeliefValidity("P", domain.True))
		require.NoError(t, j.SetBeliefValidity("P", v))
		a, _ = j.Belief("A")
		assert.Equal(t, domain.Unknown, a.Valid, "A after P set %s", v)
		assert.True(t, a.NonMonotonic, "A after P set %s", v)
	}
}

func TestJTMS_LongLoopFlagsReentryOnly(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "C", "X"} {
		j.AddBelief(n)
	}
	// A <- X ; A <- C ; B <- A ; C <- B
	_, _ = j.AddJustification([]string{"X"}, nil, "A")
	_, _ = j.AddJustification([]string{"A"}, nil, "B")
	_, _ = j.AddJustification([]string{"B"}, nil, "C")
	_, err := j.AddJustification([]string{"C"}, nil, "A")
	require.NoError(t, err)

	require.NoError(t, j.SetBeliefValidity("X", domain.True))
	for _, b := range j.Snapshot() {
		assert.Equal(t, domain.True, b.Valid, "belief %s", b.Name)
		assert.False(t, b.NonMonotonic, "belief %s", b.Name)
	}

	require.NoError(t, j.SetBeliefValidity("X", domain.False))
	flagged := map[string]bool{}
	for _, b := range j.Snapshot() {
		if b.Name == "X" {
			continue
		}
		assert.Equal(t, domain.Unknown, b.Valid, "belief %s", b.Name)
		flagged[b.Name] = b.NonMonotonic
	}
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": false}, flagged)
}

func TestJTMS_LoopBrokenByOtherSupport(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "Q"} {
		j.AddBelief(n)
	}
	require.NoError(t, j.SetBeliefValidity("Q", domain.True))
	// B <- not A ; B <- Q ; A <- not B
	_, _ = j.AddJustification(nil, []string{"A"}, "B")
	_, _ = j.AddJustification([]string{"Q"}, nil, "B")
	_, err := j.AddJustification(nil, []string{"B"}, "A")
	require.NoError(t, err)

	a, _ := j.Belief("A")
	b, _ := j.Belief("B")
	assert.Equal(t, domain.Unknown, a.Valid)
	assert.Equal(t, domain.True, b.Valid)
	assert.False(t, a.NonMonotonic, "B holds through Q, so the loop is resolved")
	assert.False(t, b.NonMonotonic)
}

func TestJTMS_DiamondIsNotACycle(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "C", "D"} {
		j.AddBelief(n)
	}
	_, _ = j.AddJustification([]string{"A"}, nil, "B")
	_, _ = j.AddJustification([]string{"A"}, nil, "C")
	_, err := j.AddJustification([]string{"B", "C"}, nil, "D")
	require.NoError(t, err)

	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	assert.Equal(t, domain.True, valid(t, j, "D"))
	for _, b := range j.Snapshot() {
		assert.False(t, b.NonMonotonic, "belief %s", b.Name)
	}
}

func TestJTMS_RemoveBeliefCascade(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	j.AddBelief("C")
	_, err := j.AddJustification([]string{"A"}, nil, "C")
	require.NoError(t, err)
	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	require.Equal(t, domain.True, valid(t, j, "C"))

	require.NoError(t, j.RemoveBelief("A"))

	c, err := j.Belief("C")
	require.NoError(t, err)
	assert.Equal(t, domain.Unknown, c.Valid)
	assert.Empty(t, c.Justifications)

	_, err = j.Belief("A")
	assert.ErrorIs(t, err, ErrNameNotFound)
	assert.ErrorIs(t, j.SetBeliefValidity("A", domain.True), ErrNameNotFound)
	assert.ErrorIs(t, j.RemoveBelief("A"), ErrNameNotFound)
}

func TestJTMS_RemoveOutListBelief(t *testing.T) {
	j := newTestJTMS(t)
	for _, n := range []string{"A", "B", "C", "D"} {
		j.AddBelief(n)
	}
	_, _ = j.AddJustification([]string{"A"}, []string{"B"}, "C")
	_, _ = j.AddJustification([]string{"D"}, nil, "C")
	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	require.NoError(t, j.SetBeliefValidity("D", domain.True))
	require.Equal(t, domain.True, valid(t, j, "C"))

	require.NoError(t, j.RemoveBelief("B"))
	c, _ := j.Belief("C")
	assert.Equal(t, domain.True, c.Valid, "remaining justification still supports C")
	assert.Len(t, c.Justifications, 1)
}

func TestJTMS_Strict(t *testing.T) {
	j := newTestJTMS(t, WithStrict(true))
	require.True(t, j.Strict())
	j.AddBelief("A")

	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	assert.ErrorIs(t, j.SetBeliefValidity("A", domain.False), ErrConflictingAssertion)
	assert.Equal(t, domain.True, valid(t, j, "A"))

	require.NoError(t, j.SetBeliefValidity("A", domain.Unknown))
	require.NoError(t, j.SetBeliefValidity("A", domain.False))
}

func TestJTMS_NonStrictOverwrites(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	require.NoError(t, j.SetBeliefValidity("A", domain.True))
	require.NoError(t, j.SetBeliefValidity("A", domain.False))
	assert.Equal(t, domain.False, valid(t, j, "A"))
}

func TestJTMS_SupportForAssertedPremise(t *testing.T) {
	j := newTestJTMS(t)
	j.AddBelief("A")
	require.NoError(t, j.SetBeliefValidity("A", domain.True))

	_, ok, err := j.Support("A")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = j.Support("missing")
	assert.ErrorIs(t, err, ErrNameNotFound)
}
