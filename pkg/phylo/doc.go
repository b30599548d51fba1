// Package phylo models tumor phylogenies inferred from single-cell data.
//
// # Overview
//
// A [Tree] is a validated, immutable arborescence whose node IDs and
// attribute values are strings. A [SASC] is a Tree that follows the SASC
// labeling convention:
//
//   - Mutation nodes carry a "label" attribute, a comma-separated list of
//     mutation names. Every inner node is a mutation node.
//   - Cell nodes are unlabeled leaves marked with shape=box. Each one is a
//     sampled cell attached to the mutation node above it.
//   - Deletion nodes are mutation nodes with fillcolor=indianred1; they stand
//     for the loss of previously gained mutations.
//
// # Support
//
// The support of a mutation node is the number of cells attached to it
// directly. [SASC.WithVisualizationFeatures] turns those counts into a
// percentage stored in the "support" attribute and can simplify the tree on
// the way:
//
//	viz, err := tree.WithVisualizationFeatures(phylo.VisualizationOptions{
//	    SupportThreshold:    &threshold,
//	    CollapseSimplePaths: true,
//	})
//	err = viz.DrawToFile(ctx, "tree.pdf", phylo.DrawOptions{ShowSupport: true, ShowColor: true})
//
// # Text Format
//
// Trees are serialized as Graphviz DOT. [ParseDOT] accepts anything the
// gonum DOT parser accepts; node and edge default statements are dropped
// and graph attribute statements become graph attributes. The graph
// attribute keys "graph", "node" and "edge" are reserved.
//
// # Immutability
//
// Trees never expose their internal maps. [Tree.AsDigraph], [Tree.NodeAttrs]
// and the other accessors return fresh copies, and the constructors copy
// their input.
package phylo
