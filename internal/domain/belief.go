package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validity is the JTMS truth status of a belief.
type Validity int

const (
	Unknown Validity = iota
	True
	False
)

func (v Validity) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// ParseValidity accepts "true", "false" and "unknown" (case-insensitive).
func ParseValidity(s string) (Validity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid validity %q", s)
}

func (v Validity) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts the string forms as well as the JSON booleans.
func (v *Validity) UnmarshalJSON(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "true":
		*v = True
		return nil
	case "false":
		*v = False
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid validity %s", b)
	}
	parsed, err := ParseValidity(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Validity) MarshalYAML() (any, error) {
	return v.String(), nil
}

func (v *Validity) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseValidity(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Justification describes a rule "conclusion holds if every In belief holds
// and no Out belief holds".
type Justification struct {
	ID         string   `json:"id"`
	In         []string `json:"in"`
	Out        []string `json:"out"`
	Conclusion string   `json:"conclusion"`
}

func (j Justification) String() string {
	var b strings.Builder
	b.WriteString(j.Conclusion)
	b.WriteString(" <- ")
	parts := make([]string, 0, len(j.In)+len(j.Out))
	parts = append(parts, j.In...)
	for _, o := range j.Out {
		parts = append(parts, "not "+o)
	}
	if len(parts) == 0 {
		b.WriteString("(premise)")
	} else {
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

// BeliefState is one row of a JTMS diagnostic dump.
type BeliefState struct {
	Name           string          `json:"name"`
	Valid          Validity        `json:"valid"`
	NonMonotonic   bool            `json:"non_monotonic"`
	Asserted       bool            `json:"asserted"`
	Justifications []Justification `json:"justifications,omitempty"`
}

// NodeState is one row of an ATMS diagnostic dump.
type NodeState struct {
	Name         string        `json:"name"`
	IsAssumption bool          `json:"is_assumption"`
	Label        []Environment `json:"label"`
}
