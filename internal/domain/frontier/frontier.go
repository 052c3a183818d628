// Package frontier holds the open nodes of a best-first search.
package frontier

import (
	"container/heap"

	"github.com/kailas-cloud/celearn/internal/domain/heuristic"
	"github.com/kailas-cloud/celearn/internal/domain/searchtree"
)

// Frontier is a priority queue of viable nodes; the most promising node
// under the ordering is always on top. Not safe for concurrent use.
type Frontier struct {
	h    nodeHeap
	keys map[string]struct{}
}

// New creates an empty frontier ordered by order.
func New(order heuristic.Ordering) *Frontier {
	return &Frontier{
		h:    nodeHeap{order: order},
		keys: make(map[string]struct{}),
	}
}

// Insert adds n. Pending and too-weak nodes are refused, and so is a node
// whose concept is structurally identical to one already held.
func (f *Frontier) Insert(n *searchtree.Node) bool {
	if n.State() != searchtree.StateViable {
		return false
	}
	key := n.Concept().String()
	if _, dup := f.keys[key]; dup {
		return false
	}
	f.keys[key] = struct{}{}
	heap.Push(&f.h, n)
	return true
}

// PopBest removes and returns the top node.
func (f *Frontier) PopBest() (*searchtree.Node, bool) {
	if len(f.h.nodes) == 0 {
		return nil, false
	}
	n := heap.Pop(&f.h).(*searchtree.Node) //nolint:forcetypeassert // heap holds only nodes
	delete(f.keys, n.Concept().String())
	return n, true
}

// PeekBest returns the top node without removing it.
func (f *Frontier) PeekBest() (*searchtree.Node, bool) {
	if len(f.h.nodes) == 0 {
		return nil, false
	}
	return f.h.nodes[0], true
}

// Len returns the number of open nodes.
func (f *Frontier) Len() int { return len(f.h.nodes) }

// IsEmpty reports whether no node is open.
func (f *Frontier) IsEmpty() bool { return len(f.h.nodes) == 0 }

// Contains reports whether a node with the same concept is open.
func (f *Frontier) Contains(n *searchtree.Node) bool {
	_, ok := f.keys[n.Concept().String()]
	return ok
}

// Clear drops every node.
func (f *Frontier) Clear() {
	f.h.nodes = nil
	f.keys = make(map[string]struct{})
}

// nodeHeap implements heap.Interface with the best node at index 0.
type nodeHeap struct {
	order heuristic.Ordering
	nodes []*searchtree.Node
}

func (h *nodeHeap) Len() int           { return len(h.nodes) }
func (h *nodeHeap) Less(i, j int) bool { return h.order(h.nodes[i], h.nodes[j]) < 0 }
func (h *nodeHeap) Swap(i, j int)      { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *nodeHeap) Push(x any) { h.nodes = append(h.nodes, x.(*searchtree.Node)) } //nolint:forcetypeassert

func (h *nodeHeap) Pop() any {
	old := h.nodes
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.nodes = old[:n-1]
	return item
}
