// Package worktree implements the mutable scratch tree used to compute cell
// support and to simplify a phylogeny before drawing it.
//
// A [Tree] is built from a validated phylogeny, mutated in place by
// [MergeNodes], [CollapseSimplePaths] and [CollapseLowSupport], and then
// converted back. It is never shared across calls.
//
// Parent links are node IDs resolved through the tree's index rather than
// pointers, so a Tree owns its nodes strictly top-down.
package worktree

import (
	"slices"
	"strings"

	"github.com/plastic-phy/plastic/pkg/errors"
)

// Node is a mutation node of the working tree.
//
// Support is the number of cells attached directly to the node. The other
// counters are derived and only valid after [CalcSupports].
type Node struct {
	ID        string
	Mutations []string
	Deletion  bool

	Support           int
	CumulativeSupport int
	DownstreamSupport int
	Depth             int

	parent   string
	children []*Node
}

// NewNode returns a detached node with no mutations.
func NewNode(id string) *Node {
	return &Node{ID: id}
}

// Children returns the node's children in order. The slice is a copy; the
// nodes are shared with the tree.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ParentID returns the ID of the parent node, or "" for the root or a
// detached node.
func (n *Node) ParentID() string { return n.parent }

// Name joins the node's mutations with sep. Lost mutations of a deletion
// node are suffixed with "-".
func (n *Node) Name(sep string) string {
	if !n.Deletion {
		return strings.Join(n.Mutations, sep)
	}
	names := make([]string, len(n.Mutations))
	for i, m := range n.Mutations {
		names[i] = m + "-"
	}
	return strings.Join(names, sep)
}

// Tree is a rooted tree of mutation nodes with an id index and a
// mutation-label index.
type Tree struct {
	root       *Node
	byID       map[string]*Node
	byMutation map[string]*Node
	deletions  []*Node

	label    string
	hasLabel bool
}

// NewTree creates a tree rooted at root.
func NewTree(root *Node) *Tree {
	t := &Tree{
		root:       root,
		byID:       make(map[string]*Node),
		byMutation: make(map[string]*Node),
	}
	root.parent = ""
	t.byID[root.ID] = root
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.byID) }

// Label returns the tree-level label and whether one is set.
func (t *Tree) Label() (string, bool) { return t.label, t.hasLabel }

// SetLabel sets the tree-level free-text label.
func (t *Tree) SetLabel(label string) {
	t.label = label
	t.hasLabel = true
}

// AddNode registers a detached node. It is attached with [Tree.AddEdge].
func (t *Tree) AddNode(n *Node) error {
	if n.ID == "" {
		return errors.New(errors.ErrCodeInvalidValue, "node ID must not be empty")
	}
	if _, exists := t.byID[n.ID]; exists {
		return errors.New(errors.ErrCodeInvalidValue, "duplicate node ID %q", n.ID)
	}
	t.byID[n.ID] = n
	return nil
}

// AddEdge attaches the registered node childID below parentID.
func (t *Tree) AddEdge(parentID, childID string) error {
	parent, ok := t.byID[parentID]
	if !ok {
		return errors.New(errors.ErrCodeInvalidValue, "unknown node %q", parentID)
	}
	child, ok := t.byID[childID]
	if !ok {
		return errors.New(errors.ErrCodeInvalidValue, "unknown node %q", childID)
	}
	if child == t.root || child.parent != "" {
		return errors.New(errors.ErrCodeNotATree, "node %q already has a parent", childID)
	}
	child.parent = parent.ID
	parent.children = append(parent.children, child)
	child.CumulativeSupport = parent.CumulativeSupport
	return nil
}

// Node returns the node with the given ID, or nil.
func (t *Tree) Node(id string) *Node { return t.byID[id] }

// Parent returns the parent of n, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	if n.parent == "" {
		return nil
	}
	return t.byID[n.parent]
}

// SetMutations sets the ordered mutation labels of node id. Mutations of
// gain nodes are indexed for [Tree.IsAncestor].
func (t *Tree) SetMutations(id string, mutations []string) error {
	n, ok := t.byID[id]
	if !ok {
		return errors.New(errors.ErrCodeInvalidValue, "unknown node %q", id)
	}
	n.Mutations = slices.Clone(mutations)
	if !n.Deletion {
		for _, m := range n.Mutations {
			t.byMutation[m] = n
		}
	}
	return nil
}

// SetDeletion marks node id as a deletion node. Call it before
// [Tree.SetMutations] so the lost mutations are not indexed as gains.
func (t *Tree) SetDeletion(id string) error {
	n, ok := t.byID[id]
	if !ok {
		return errors.New(errors.ErrCodeInvalidValue, "unknown node %q", id)
	}
	if !n.Deletion {
		n.Deletion = true
		t.deletions = append(t.deletions, n)
	}
	return nil
}

// IsAncestor reports whether the node carrying ancestor is a proper ancestor
// of the node carrying mutation.
func (t *Tree) IsAncestor(ancestor, mutation string) (bool, error) {
	anc, ok := t.byMutation[ancestor]
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidValue, "unknown mutation %q", ancestor)
	}
	n, ok := t.byMutation[mutation]
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidValue, "unknown mutation %q", mutation)
	}
	for p := t.Parent(n); p != nil; p = t.Parent(p) {
		if p == anc {
			return true, nil
		}
	}
	return false, nil
}

// DeletionNames returns the display names of the deletion nodes in the order
// they were marked.
func (t *Tree) DeletionNames() []string {
	names := make([]string, len(t.deletions))
	for i, d := range t.deletions {
		names[i] = d.Name(",")
	}
	return names
}

// Nodes returns all nodes in breadth-first order from the root.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.byID))
	queue := []*Node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		queue = append(queue, n.children...)
	}
	return out
}

// TotalSupport returns the sum of the direct support of all nodes.
func (t *Tree) TotalSupport() int {
	total := 0
	for _, n := range t.byID {
		total += n.Support
	}
	return total
}

// detach removes n from the indices and from its parent's children.
// Its own children are left untouched.
func (t *Tree) detach(n *Node) {
	delete(t.byID, n.ID)
	for _, m := range n.Mutations {
		if t.byMutation[m] == n {
			delete(t.byMutation, m)
		}
	}
	t.deletions = slices.DeleteFunc(t.deletions, func(d *Node) bool { return d == n })
	if parent := t.Parent(n); parent != nil {
		parent.children = slices.DeleteFunc(parent.children, func(c *Node) bool { return c == n })
	}
	n.parent = ""
}
