// Package scenario loads YAML descriptions of engine mutations and replays
// them against a JTMS or ATMS.
//
//	engine: jtms
//	strict: false
//	steps:
//	  - add: [A, B, C]
//	  - justify: {in: [A], out: [B], conclusion: C}
//	  - set: {A: true}
//	  - expect: {C: true}
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"gopkg.in/yaml.v3"
)

var ErrInvalidStep = errors.New("invalid scenario step")

// Scenario is an ordered list of mutations for one engine.
type Scenario struct {
	Name   string            `yaml:"name,omitempty"`
	Engine domain.EngineKind `yaml:"engine"`
	Strict bool              `yaml:"strict,omitempty"`
	Steps  []Step            `yaml:"steps"`
}

// Rule is a justification in scenario form.
type Rule struct {
	In         []string `yaml:"in,omitempty"`
	Out        []string `yaml:"out,omitempty"`
	Conclusion string   `yaml:"conclusion"`
}

// Step holds exactly one action.
type Step struct {
	Add     []string                   `yaml:"add,omitempty"`
	Assume  []string                   `yaml:"assume,omitempty"`
	Justify *Rule                      `yaml:"justify,omitempty"`
	Set     map[string]domain.Validity `yaml:"set,omitempty"`
	Remove  string                     `yaml:"remove,omitempty"`

	// Expect checks JTMS validities; ExpectLabel checks ATMS labels.
	Expect      map[string]domain.Validity `yaml:"expect,omitempty"`
	ExpectLabel map[string][][]string      `yaml:"expect_label,omitempty"`
}

func (s Step) action() string {
	var set []string
	if len(s.Add) > 0 {
		set = append(set, "add")
	}
	if len(s.Assume) > 0 {
		set = append(set, "assume")
	}
	if s.Justify != nil {
		set = append(set, "justify")
	}
	if len(s.Set) > 0 {
		set = append(set, "set")
	}
	if s.Remove != "" {
		set = append(set, "remove")
	}
	if len(s.Expect) > 0 {
		set = append(set, "expect")
	}
	if len(s.ExpectLabel) > 0 {
		set = append(set, "expect_label")
	}
	if len(set) != 1 {
		return ""
	}
	return set[0]
}

var jtmsOnly = []string{"set", "remove", "expect"}
var atmsOnly = []string{"assume", "expect_label"}

// Validate checks the engine kind and that every step names exactly one
// action supported by that engine.
func (sc *Scenario) Validate() error {
	kind, err := domain.ParseEngineKind(string(sc.Engine))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	sc.Engine = kind
	for i, step := range sc.Steps {
		action := step.action()
		switch {
		case action == "":
			return fmt.Errorf("%w: step %d must hold exactly one action", ErrInvalidStep, i+1)
		case sc.Engine == domain.KindJTMS && slices.Contains(atmsOnly, action),
			sc.Engine == domain.KindATMS && slices.Contains(jtmsOnly, action):
			return fmt.Errorf("%w: step %d: %s is not supported by %s", ErrInvalidStep, i+1, action, sc.Engine)
		case action == "justify" && step.Justify.Conclusion == "":
			return fmt.Errorf("%w: step %d: justify needs a conclusion", ErrInvalidStep, i+1)
		}
	}
	return nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty scenario", ErrInvalidStep)
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario from r.
func Load(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}
