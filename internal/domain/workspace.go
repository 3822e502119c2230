package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EngineKind selects which truth maintenance engine backs a workspace.
type EngineKind string

const (
	KindJTMS EngineKind = "jtms"
	KindATMS EngineKind = "atms"
)

func ParseEngineKind(s string) (EngineKind, error) {
	switch EngineKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindJTMS:
		return KindJTMS, nil
	case KindATMS:
		return KindATMS, nil
	}
	return "", fmt.Errorf("unknown engine kind %q", s)
}

// Workspace describes one hosted engine instance.
type Workspace struct {
	ID         uuid.UUID  `json:"id"`
	Kind       EngineKind `json:"kind"`
	Strict     bool       `json:"strict,omitempty"`
	Beliefs    int        `json:"beliefs"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
}

// Dump is the full diagnostic state of a workspace. Beliefs is set for JTMS
// workspaces; Nodes and Nogoods for ATMS workspaces.
type Dump struct {
	Workspace Workspace     `json:"workspace"`
	Beliefs   []BeliefState `json:"beliefs,omitempty"`
	Nodes     []NodeState   `json:"nodes,omitempty"`
	Nogoods   []Environment `json:"nogoods,omitempty"`
}

// BeliefView is the state of a single belief in either engine.
type BeliefView struct {
	Belief  *BeliefState   `json:"belief,omitempty"`
	Support *Justification `json:"support,omitempty"`
	Node    *NodeState     `json:"node,omitempty"`
}
