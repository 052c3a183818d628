package searchtree

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/celearn/internal/domain"
	"github.com/kailas-cloud/celearn/internal/domain/score"
)

// Tree is the arena holding every node created during one search run.
// It is not safe for concurrent mutation.
type Tree struct {
	nodes []*Node
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{}
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0]
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id], true
}

// NewRoot creates the root node from the seed concept.
func (t *Tree) NewRoot(c domain.Concept) (*Node, error) {
	if len(t.nodes) != 0 {
		return nil, fmt.Errorf("tree already has a root: %w", domain.ErrInvalidState)
	}
	n := &Node{id: 0, parent: NoParent, concept: c}
	t.nodes = append(t.nodes, n)
	return n, nil
}

// AddChild creates a node under parent. Links are fixed at creation.
func (t *Tree) AddChild(parent NodeID, c domain.Concept) (*Node, error) {
	p, ok := t.Node(parent)
	if !ok {
		return nil, fmt.Errorf("parent node %d: %w", parent, domain.ErrNotFound)
	}
	n := &Node{
		id:      NodeID(len(t.nodes)),
		parent:  parent,
		depth:   p.depth + 1,
		concept: c,
	}
	t.nodes = append(t.nodes, n)
	p.children = append(p.children, n.id)
	return n, nil
}

// SetCoverage records the score of node id. A node is scored once.
func (t *Tree) SetCoverage(id NodeID, c score.Coverage) error {
	n, ok := t.Node(id)
	if !ok {
		return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	return n.setCoverage(c)
}

// ParentOf returns the parent node of n.
func (t *Tree) ParentOf(n *Node) (*Node, bool) {
	if n.parent == NoParent {
		return nil, false
	}
	return t.Node(n.parent)
}

// Walk visits nodes depth-first in child creation order. Returning false
// from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	root := t.Root()
	if root == nil {
		return
	}
	stack := []NodeID{root.id}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if !fn(n) {
			continue
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
}

// String renders the tree one node per line, indented by depth.
func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(n *Node) bool {
		b.WriteString(strings.Repeat("  ", n.depth))
		b.WriteString("|--> ")
		b.WriteString(n.concept.String())
		switch n.state {
		case StatePending:
			b.WriteString(" [pending]")
		case StateTooWeak:
			b.WriteString(" [too weak]")
		default:
			fmt.Fprintf(&b, " [pos=%d neg=%d acc=%.4f]",
				n.coverage.PositiveCount(), n.coverage.CoveredNegatives(), n.coverage.Accuracy())
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
