// Package digraph provides a mutable directed graph with loosely typed,
// string-keyed attributes on nodes, edges and the graph itself.
//
// # Overview
//
// A [Graph] is the raw structure exchanged with callers of the phylogeny
// packages: inference engines build one, [phylo.New] validates it, and
// [phylo.Tree.AsDigraph] hands back an independent copy. It deliberately
// carries no tree invariants of its own; it only guarantees that node ids are
// unique and that edges connect existing nodes.
//
//	g := digraph.New(nil)
//	g.AddNode("0", digraph.Attrs{"label": "TP53"})
//	g.AddNode("cell_1", digraph.Attrs{"shape": "box"})
//	g.AddEdge("0", "cell_1", nil)
//
// # Attributes
//
// Attribute maps use [Attrs] (map[string]any) so that callers can pass
// arbitrary values; higher layers decide which value types are acceptable.
// Attribute maps are never nil after insertion.
//
// # Ordering
//
// Nodes and edges keep insertion order. [Graph.Nodes], [Graph.Edges] and
// [Graph.Children] are therefore deterministic, which keeps DOT output and
// breadth-first traversals stable across runs.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use.
//
// [phylo.New]: github.com/plastic-phy/plastic/pkg/phylo.New
// [phylo.Tree.AsDigraph]: github.com/plastic-phy/plastic/pkg/phylo.Tree.AsDigraph
package digraph
