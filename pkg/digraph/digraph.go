package digraph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node that
	// does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the edge already
	// exists. Graphs are simple: at most one edge per ordered pair.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a directed cycle
	// is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Attrs stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Attrs maps are never nil once stored in a Graph.
type Attrs map[string]any

// Clone returns a shallow copy of a. Values are copied by assignment.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	return out
}

// Node is a vertex of the graph.
type Node struct {
	ID    string
	Attrs Attrs
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From  string
	To    string
	Attrs Attrs
}

type edgeKey struct{ from, to string }

// Graph is a simple directed graph with insertion-ordered nodes and edges.
//
// The zero value is not usable - use New to create a valid Graph instance.
type Graph struct {
	order    []string
	nodes    map[string]*Node
	edges    []edgeKey
	edgeData map[edgeKey]Attrs
	outgoing map[string][]string
	incoming map[string][]string
	attrs    Attrs
}

// New creates an empty Graph with optional graph-level attributes.
// The attrs parameter can be nil, in which case an empty map is created.
func New(attrs Attrs) *Graph {
	if attrs == nil {
		attrs = Attrs{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeData: make(map[edgeKey]Attrs),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		attrs:    attrs,
	}
}

// Attrs returns the graph-level attribute map.
// The returned map is never nil and modifications affect the graph.
func (g *Graph) Attrs() Attrs { return g.attrs }

// AddNode adds a node with the given attributes.
// Returns ErrInvalidNodeID if id is empty, or ErrDuplicateNodeID if a node
// with the same ID already exists.
func (g *Graph) AddNode(id string, attrs Attrs) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[id]; exists {
		return ErrDuplicateNodeID
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	g.nodes[id] = &Node{ID: id, Attrs: attrs}
	g.order = append(g.order, id)
	return nil
}

// SetNodeAttr sets a single attribute on an existing node.
func (g *Graph) SetNodeAttr(id, key string, value any) error {
	n, ok := g.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	n.Attrs[key] = value
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownNode if either endpoint doesn't exist, or
// ErrDuplicateEdge if the edge is already present.
func (g *Graph) AddEdge(from, to string, attrs Attrs) error {
	if _, ok := g.nodes[from]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[to]; !ok {
		return ErrUnknownNode
	}
	key := edgeKey{from, to}
	if _, exists := g.edgeData[key]; exists {
		return ErrDuplicateEdge
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	g.edges = append(g.edges, key)
	g.edgeData[key] = attrs
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// RemoveNode deletes the node and every edge incident to it.
// No error is returned if the node does not exist.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for _, child := range g.outgoing[id] {
		g.incoming[child] = slices.DeleteFunc(g.incoming[child], func(s string) bool { return s == id })
		delete(g.edgeData, edgeKey{id, child})
	}
	for _, parent := range g.incoming[id] {
		g.outgoing[parent] = slices.DeleteFunc(g.outgoing[parent], func(s string) bool { return s == id })
		delete(g.edgeData, edgeKey{parent, id})
	}
	g.edges = slices.DeleteFunc(g.edges, func(e edgeKey) bool { return e.from == id || e.to == id })
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.nodes, id)
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned node refers to the graph's storage.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
// The returned pointers refer to the graph's storage.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns all edges in insertion order. The Attrs of each edge refer
// to the graph's storage.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = Edge{From: e.from, To: e.to, Attrs: g.edgeData[e]}
	}
	return out
}

// Edge returns the edge from→to and true, or a zero Edge and false.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	attrs, ok := g.edgeData[edgeKey{from, to}]
	if !ok {
		return Edge{}, false
	}
	return Edge{From: from, To: to, Attrs: attrs}, true
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of the node's successors in insertion order.
// The returned slice should not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of the node's predecessors.
// The returned slice should not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns the IDs of nodes with no incoming edges, in insertion order.
func (g *Graph) Sources() []string {
	var sources []string
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns the IDs of nodes with no outgoing edges, in insertion order.
func (g *Graph) Sinks() []string {
	var sinks []string
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Clone returns a deep copy of the graph structure. Attribute maps are
// copied; attribute values are copied by assignment.
func (g *Graph) Clone() *Graph {
	out := New(g.attrs.Clone())
	for _, id := range g.order {
		_ = out.AddNode(id, g.nodes[id].Attrs.Clone())
	}
	for _, e := range g.edges {
		_ = out.AddEdge(e.from, e.to, g.edgeData[e].Clone())
	}
	return out
}

// Validate returns ErrGraphHasCycle if the graph contains a directed cycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
