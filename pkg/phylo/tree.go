package phylo

import (
	"maps"
	"slices"
	"strings"

	"github.com/plastic-phy/plastic/pkg/digraph"
	"github.com/plastic-phy/plastic/pkg/errors"
)

// Reserved attribute names.
const (
	AttrLabel     = "label"
	AttrShape     = "shape"
	AttrFillColor = "fillcolor"
	AttrStyle     = "style"
	AttrSupport   = "support"
	AttrColor     = "color"
)

var reservedGraphKeys = []string{"graph", "node", "edge"}

// Edge is a parent-child link of a [Tree].
type Edge struct {
	From  string
	To    string
	Attrs map[string]string
}

// Tree is a validated rooted tree with string attributes. The zero value is
// not usable; build one with [New] or [ParseDOT].
type Tree struct {
	root     string
	order    []string
	nodes    map[string]map[string]string
	children map[string][]string
	parent   map[string]string
	edges    []Edge
	graph    map[string]string
}

// New validates g and returns a Tree holding a copy of it.
//
// Errors:
//   - NOT_A_TREE if g is empty, has more than one root, has a node with two
//     parents, has a cycle or has nodes unreachable from the root
//   - INVALID_TYPE if an attribute value is not a string
//   - INVALID_VALUE if a label is blank or contains a blank entry, or if a
//     graph attribute uses a reserved key
func New(g *digraph.Graph) (*Tree, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeNotATree, "graph is empty")
	}

	sources := g.Sources()
	if len(sources) != 1 {
		return nil, errors.New(errors.ErrCodeNotATree, "graph has %d roots, want exactly 1", len(sources))
	}
	for _, id := range g.NodeIDs() {
		if g.InDegree(id) > 1 {
			return nil, errors.New(errors.ErrCodeNotATree, "node %q has %d parents", id, g.InDegree(id))
		}
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotATree, err, "invalid graph")
	}

	t := &Tree{
		root:     sources[0],
		order:    g.NodeIDs(),
		nodes:    make(map[string]map[string]string, g.NodeCount()),
		children: make(map[string][]string, g.NodeCount()),
		parent:   make(map[string]string, g.NodeCount()),
	}

	var err error
	if t.graph, err = stringAttrs(g.Attrs(), "graph"); err != nil {
		return nil, err
	}
	for _, key := range reservedGraphKeys {
		if _, ok := t.graph[key]; ok {
			return nil, errors.New(errors.ErrCodeInvalidValue, "graph attribute %q is reserved", key)
		}
	}

	for _, n := range g.Nodes() {
		attrs, err := stringAttrs(n.Attrs, "node "+n.ID)
		if err != nil {
			return nil, err
		}
		if label, ok := attrs[AttrLabel]; ok {
			if err := validateLabel(n.ID, label); err != nil {
				return nil, err
			}
		}
		t.nodes[n.ID] = attrs
	}

	for _, e := range g.Edges() {
		attrs, err := stringAttrs(e.Attrs, "edge "+e.From+"->"+e.To)
		if err != nil {
			return nil, err
		}
		t.edges = append(t.edges, Edge{From: e.From, To: e.To, Attrs: attrs})
		t.children[e.From] = append(t.children[e.From], e.To)
		t.parent[e.To] = e.From
	}

	if reached := len(t.bfs()); reached != len(t.order) {
		return nil, errors.New(errors.ErrCodeNotATree, "%d nodes are unreachable from root %q", len(t.order)-reached, t.root)
	}
	return t, nil
}

func stringAttrs(in digraph.Attrs, owner string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidType, "%s: attribute %q has type %T, want string", owner, k, v)
		}
		out[k] = s
	}
	return out, nil
}

func validateLabel(id, label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New(errors.ErrCodeInvalidValue, "node %q has an empty label", id)
	}
	for _, part := range strings.Split(label, ",") {
		if strings.TrimSpace(part) == "" {
			return errors.New(errors.ErrCodeInvalidValue, "node %q has an empty entry in label %q", id, label)
		}
	}
	return nil
}

// bfs returns the node IDs reachable from the root in breadth-first order.
func (t *Tree) bfs() []string {
	out := make([]string, 0, len(t.order))
	seen := make(map[string]bool, len(t.order))
	queue := []string{t.root}
	seen[t.root] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, c := range t.children[id] {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return out
}

// AsDigraph returns an independent copy of the tree as a [digraph.Graph].
func (t *Tree) AsDigraph() *digraph.Graph {
	g := digraph.New(toAttrs(t.graph))
	for _, id := range t.order {
		_ = g.AddNode(id, toAttrs(t.nodes[id]))
	}
	for _, e := range t.edges {
		_ = g.AddEdge(e.From, e.To, toAttrs(e.Attrs))
	}
	return g
}

func toAttrs(m map[string]string) digraph.Attrs {
	out := make(digraph.Attrs, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Root returns the ID of the root node.
func (t *Tree) Root() string { return t.root }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }

// NodeIDs returns all node IDs in insertion order.
func (t *Tree) NodeIDs() []string { return slices.Clone(t.order) }

// HasNode reports whether the tree contains id.
func (t *Tree) HasNode(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Children returns the children of id in insertion order.
func (t *Tree) Children(id string) []string { return slices.Clone(t.children[id]) }

// Parent returns the parent of id. The root has no parent.
func (t *Tree) Parent(id string) (string, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id string) bool { return len(t.children[id]) == 0 }

// NodeAttrs returns a copy of the attributes of id, or nil if id is unknown.
func (t *Tree) NodeAttrs(id string) map[string]string {
	attrs, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return maps.Clone(attrs)
}

// NodeAttr returns a single attribute of id.
func (t *Tree) NodeAttr(id, key string) (string, bool) {
	v, ok := t.nodes[id][key]
	return v, ok
}

// Labels splits the label of id into its mutation names. It returns nil for
// unlabeled nodes.
func (t *Tree) Labels(id string) []string {
	label, ok := t.nodes[id][AttrLabel]
	if !ok {
		return nil
	}
	return strings.Split(label, ",")
}

// GraphAttrs returns a copy of the graph-level attributes.
func (t *Tree) GraphAttrs() map[string]string { return maps.Clone(t.graph) }

// Edges returns a copy of all edges in insertion order.
func (t *Tree) Edges() []Edge {
	out := make([]Edge, len(t.edges))
	for i, e := range t.edges {
		out[i] = Edge{From: e.From, To: e.To, Attrs: maps.Clone(e.Attrs)}
	}
	return out
}
