package phylo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plastic-phy/plastic/internal/worktree"
	"github.com/plastic-phy/plastic/pkg/cache"
	"github.com/plastic-phy/plastic/pkg/digraph"
	"github.com/plastic-phy/plastic/pkg/errors"
	"github.com/plastic-phy/plastic/pkg/render"
)

// SASC labeling markers.
const (
	CellShape         = "box"
	DeletionFillColor = "indianred1"
	DeletionStyle     = "filled"
)

// NodeInfo is the typed view of a node of a [SASC] tree.
type NodeInfo struct {
	ID string
	// Labels are the mutation names in order. Empty for cells.
	Labels   []string
	Deletion bool
	Cell     bool
	// Support is the support percentage, present only on trees returned by
	// [SASC.WithVisualizationFeatures] or parsed from one.
	Support *int
	// Extra holds every attribute other than label and support.
	Extra map[string]string
}

// Label joins the mutation names with commas.
func (n NodeInfo) Label() string { return strings.Join(n.Labels, ",") }

// Name is the display name: [NodeInfo.Label] with every lost mutation of a
// deletion node suffixed by "-".
func (n NodeInfo) Name() string {
	if !n.Deletion {
		return n.Label()
	}
	names := make([]string, len(n.Labels))
	for i, l := range n.Labels {
		names[i] = l + "-"
	}
	return strings.Join(names, ",")
}

// SASC is a [Tree] that follows the SASC labeling convention: inner nodes
// are labeled mutation nodes and unlabeled leaves with shape=box are cells.
type SASC struct {
	tree     *Tree
	hasCells bool
}

// NewSASC validates g as a [Tree] and then checks the SASC convention.
func NewSASC(g *digraph.Graph) (*SASC, error) {
	t, err := New(g)
	if err != nil {
		return nil, err
	}
	return FromTree(t)
}

// FromTree checks that an already validated tree follows the SASC
// convention.
//
// The root must always be a labeled mutation node, so a tree made of a
// single unlabeled cell is rejected even though that cell is a leaf.
//
// Errors are NOT_FULLY_LABELED when an inner node or the root has no label,
// when an unlabeled leaf is not marked as a cell, or when a labeled leaf is
// also marked as a cell. A support attribute that is not an integer is
// INVALID_VALUE.
func FromTree(t *Tree) (*SASC, error) {
	if t == nil {
		return nil, errors.New(errors.ErrCodeInvalidValue, "tree is nil")
	}

	s := &SASC{tree: t}
	for _, id := range t.order {
		attrs := t.nodes[id]
		_, labeled := attrs[AttrLabel]
		cellShape := attrs[AttrShape] == CellShape

		switch {
		case !labeled && id == t.root:
			return nil, errors.New(errors.ErrCodeNotFullyLabeled, "root %q must be a labeled mutation node", id)
		case !labeled && !t.IsLeaf(id):
			return nil, errors.New(errors.ErrCodeNotFullyLabeled, "inner node %q has no label", id)
		case !labeled && !cellShape:
			return nil, errors.New(errors.ErrCodeNotFullyLabeled, "unlabeled leaf %q is not marked as a cell (shape=box)", id)
		case labeled && cellShape && t.IsLeaf(id):
			return nil, errors.New(errors.ErrCodeNotFullyLabeled, "leaf %q is labeled but also marked as a cell", id)
		case !labeled:
			s.hasCells = true
		}

		if v, ok := attrs[AttrSupport]; ok {
			if _, err := strconv.Atoi(v); err != nil {
				return nil, errors.New(errors.ErrCodeInvalidValue, "node %q has non-integer support %q", id, v)
			}
		}
	}
	return s, nil
}

// ParseSASC parses a DOT digraph as a SASC tree.
func ParseSASC(data []byte) (*SASC, error) {
	t, err := ParseDOT(data)
	if err != nil {
		return nil, err
	}
	return FromTree(t)
}

// ReadSASCFile loads a SASC tree from a DOT file.
func ReadSASCFile(path string) (*SASC, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromTree(t)
}

// Tree returns the underlying tree.
func (s *SASC) Tree() *Tree { return s.tree }

// HasCells reports whether any cell leaves are attached.
func (s *SASC) HasCells() bool { return s.hasCells }

// Node returns the typed view of node id.
func (s *SASC) Node(id string) (NodeInfo, bool) {
	if !s.tree.HasNode(id) {
		return NodeInfo{}, false
	}
	return s.info(id), true
}

func (s *SASC) info(id string) NodeInfo {
	attrs := s.tree.NodeAttrs(id)
	_, labeled := attrs[AttrLabel]
	n := NodeInfo{
		ID:       id,
		Labels:   s.tree.Labels(id),
		Deletion: labeled && attrs[AttrFillColor] == DeletionFillColor,
		Cell:     !labeled,
	}
	if v, ok := attrs[AttrSupport]; ok {
		pct, _ := strconv.Atoi(v)
		n.Support = &pct
	}
	delete(attrs, AttrLabel)
	delete(attrs, AttrSupport)
	n.Extra = attrs
	return n
}

// Nodes returns all nodes in breadth-first order from the root.
func (s *SASC) Nodes() []NodeInfo {
	ids := s.tree.bfs()
	out := make([]NodeInfo, len(ids))
	for i, id := range ids {
		out[i] = s.info(id)
	}
	return out
}

// MutationNodes returns the mutation nodes in breadth-first order.
func (s *SASC) MutationNodes() []NodeInfo {
	var out []NodeInfo
	for _, n := range s.Nodes() {
		if !n.Cell {
			out = append(out, n)
		}
	}
	return out
}

// CellNodes returns the cell leaves in breadth-first order.
func (s *SASC) CellNodes() []NodeInfo {
	var out []NodeInfo
	for _, n := range s.Nodes() {
		if n.Cell {
			out = append(out, n)
		}
	}
	return out
}

// Deletions returns the display names of the deletion nodes in
// breadth-first order, with every lost mutation suffixed by "-".
func (s *SASC) Deletions() []string {
	return s.workingTree().DeletionNames()
}

// IsAncestor reports whether the gain of mutation ancestor happens on a
// proper ancestor of the node that gains mutation. Mutations that only
// appear on deletion nodes are unknown.
func (s *SASC) IsAncestor(ancestor, mutation string) (bool, error) {
	return s.workingTree().IsAncestor(ancestor, mutation)
}

// WithoutCells returns a copy of the tree with every cell leaf removed.
func (s *SASC) WithoutCells() (*SASC, error) {
	g := s.tree.AsDigraph()
	for _, id := range s.tree.order {
		if _, labeled := s.tree.nodes[id][AttrLabel]; !labeled {
			g.RemoveNode(id)
		}
	}
	return NewSASC(g)
}

// VisualizationOptions controls [SASC.WithVisualizationFeatures].
type VisualizationOptions struct {
	// SupportThreshold, when set, merges every mutation node whose support
	// percentage is below it into its parent.
	SupportThreshold *int
	// CollapseSimplePaths merges unbranched chains of gain nodes into one
	// node. It runs after the threshold step.
	CollapseSimplePaths bool
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
}

// WithVisualizationFeatures computes the support of every mutation node and
// returns a simplified copy of the tree without cells. Each node of the
// result has a label, a support percentage and, for deletions, the deletion
// fill. The graph label is kept.
//
// It fails with UNCOMPUTABLE_SUPPORT if the tree has no cells.
func (s *SASC) WithVisualizationFeatures(opts VisualizationOptions) (*SASC, error) {
	if !s.hasCells {
		return nil, errors.New(errors.ErrCodeUncomputableSupport, "support cannot be computed on a tree without cells")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	wt := s.workingTree()

	if opts.SupportThreshold != nil {
		merged, err := worktree.CollapseLowSupport(wt, wt.Root(), *opts.SupportThreshold)
		if err != nil {
			return nil, err
		}
		logger.Debug("collapsed low-support nodes", "threshold", *opts.SupportThreshold, "merged", merged)
	}
	if opts.CollapseSimplePaths {
		merged, err := worktree.CollapseSimplePaths(wt, wt.Root())
		if err != nil {
			return nil, err
		}
		logger.Debug("collapsed simple paths", "merged", merged)
	}

	levels := worktree.CalcSupports(wt)
	logger.Debug("computed supports", "nodes", wt.Len(), "levels", len(levels), "cells", wt.TotalSupport())
	return fromWorkingTree(wt, logger)
}

// workingTree builds the scratch tree: one node per mutation node, with the
// number of cell children as its support. Supports are computed.
func (s *SASC) workingTree() *worktree.Tree {
	t := s.tree
	wt := worktree.NewTree(worktree.NewNode(t.root))
	if label, ok := t.graph[AttrLabel]; ok {
		wt.SetLabel(label)
	}

	queue := []string{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if t.nodes[id][AttrFillColor] == DeletionFillColor {
			_ = wt.SetDeletion(id)
		}
		_ = wt.SetMutations(id, t.Labels(id))

		current := wt.Node(id)
		for _, c := range t.children[id] {
			if _, labeled := t.nodes[c][AttrLabel]; !labeled {
				current.Support++
				continue
			}
			// IDs are unique and each node has one parent, so these cannot fail.
			_ = wt.AddNode(worktree.NewNode(c))
			_ = wt.AddEdge(id, c)
			queue = append(queue, c)
		}
	}

	worktree.CalcSupports(wt)
	return wt
}

// fromWorkingTree converts wt back into a cell-free SASC. Nodes whose
// support falls back to zero for a reason other than being the root are
// reported at debug level.
func fromWorkingTree(wt *worktree.Tree, logger *log.Logger) (*SASC, error) {
	graph := digraph.Attrs{"labelloc": "t", "penwidth": "2"}
	if label, ok := wt.Label(); ok {
		graph[AttrLabel] = label
	}

	g := digraph.New(graph)
	for _, n := range wt.Nodes() {
		support, why := worktree.SupportPercentDetail(wt, n)
		if why != worktree.NotDegenerate && why != worktree.NoParent {
			logger.Debug("support defaulted to zero", "id", n.ID, "reason", why.String())
		}
		attrs := digraph.Attrs{
			AttrLabel:   strings.Join(n.Mutations, ","),
			AttrSupport: strconv.Itoa(support),
		}
		if n.Deletion {
			attrs[AttrFillColor] = DeletionFillColor
			attrs[AttrStyle] = DeletionStyle
		}
		if err := g.AddNode(n.ID, attrs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add node %q", n.ID)
		}
		if p := wt.Parent(n); p != nil {
			if err := g.AddEdge(p.ID, n.ID, nil); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "add edge %q -> %q", p.ID, n.ID)
			}
		}
	}
	return NewSASC(g)
}

// DrawOptions controls [SASC.DrawToFile].
type DrawOptions struct {
	// ShowSupport appends "[s = x%]" to the label of nodes with support.
	ShowSupport bool
	// ShowColor outlines nodes with [SupportColor].
	ShowColor bool
	// Logger receives warnings. Nil uses log.Default().
	Logger *log.Logger
	// Cache, when set, reuses earlier drawings of identical DOT text.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// DrawToFile draws the tree like [Tree.DrawToFile], optionally annotated
// with support percentages and support colors.
func (s *SASC) DrawToFile(ctx context.Context, path string, opts DrawOptions) error {
	g := s.tree.AsDigraph()
	for _, n := range g.Nodes() {
		support, hasSupport := n.Attrs[AttrSupport].(string)
		label, hasLabel := n.Attrs[AttrLabel].(string)

		if opts.ShowSupport && hasSupport && hasLabel {
			n.Attrs[AttrLabel] = label + "\n[s = " + support + "%]"
		}
		if opts.ShowColor {
			var pct *int
			if hasSupport {
				v, _ := strconv.Atoi(support)
				pct = &v
			}
			n.Attrs[AttrColor] = SupportColor(pct)
		}
	}

	t, err := New(g)
	if err != nil {
		return err
	}
	return t.drawToFile(ctx, path, opts.Logger, render.Renderer{Cache: opts.Cache, TTL: opts.CacheTTL})
}
