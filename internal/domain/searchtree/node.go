// Package searchtree is the append-only tree of explored candidate concepts.
// Nodes live in an arena owned by Tree; parents are stored as ids.
package searchtree

import (
	"fmt"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
)

// NodeID addresses a node inside its Tree.
type NodeID int

// NoParent is the parent id of the root node.
const NoParent NodeID = -1

// State is the scoring lifecycle of a node.
type State int

const (
	// StatePending means the coverage has not been computed yet.
	StatePending State = iota
	// StateTooWeak is terminal: never expanded, never a hypothesis.
	StateTooWeak
	// StateViable means the node may enter the frontier and the best set.
	StateViable
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateTooWeak:
		return "too_weak"
	case StateViable:
		return "viable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Node wraps one candidate concept. Its exported methods only read; the
// owning Tree scores it.
type Node struct {
	id       NodeID
	parent   NodeID
	depth    int
	concept  domain.Concept
	coverage score.Coverage
	state    State
	children []NodeID
}

// ID returns the arena id.
func (n *Node) ID() NodeID { return n.id }

// Parent returns the parent id, NoParent for the root.
func (n *Node) Parent() NodeID { return n.parent }

// Depth returns the distance from the root.
func (n *Node) Depth() int { return n.depth }

// Concept returns the wrapped concept.
func (n *Node) Concept() domain.Concept { return n.concept }

// Coverage returns the coverage score; zero value while pending.
func (n *Node) Coverage() score.Coverage { return n.coverage }

// State returns the scoring state.
func (n *Node) State() State { return n.state }

// IsTooWeak reports the terminal too-weak classification.
func (n *Node) IsTooWeak() bool { return n.state == StateTooWeak }

// IsScored reports whether the coverage has been set.
func (n *Node) IsScored() bool { return n.state != StatePending }

// Children returns the ids of the children in creation order.
func (n *Node) Children() []NodeID {
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) setCoverage(c score.Coverage) error {
	if n.state != StatePending {
		return fmt.Errorf("node %d: %w", n.id, domain.ErrAlreadyScored)
	}
	n.coverage = c
	if c.IsTooWeak() {
		n.state = StateTooWeak
	} else {
		n.state = StateViable
	}
	return nil
}
