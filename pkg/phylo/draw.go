package phylo

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/plastic-phy/plastic/pkg/render"
)

// FallbackLabel is the label drawn for a node without one.
func FallbackLabel(id string) string {
	return "no label for node with ID: " + id
}

// DrawToFile lays the tree out with Graphviz and writes it to path. The
// output format follows the extension of path (.svg, .png, .pdf, .dot or
// .gv); an existing file is overwritten.
//
// Unlabeled nodes are drawn with [FallbackLabel] and reported as a warning
// on logger. A nil logger uses log.Default().
func (t *Tree) DrawToFile(ctx context.Context, path string, logger *log.Logger) error {
	return t.drawToFile(ctx, path, logger, render.Renderer{})
}

func (t *Tree) drawToFile(ctx context.Context, path string, logger *log.Logger, r render.Renderer) error {
	if logger == nil {
		logger = log.Default()
	}

	draw := t.clone()
	for _, id := range draw.order {
		if _, ok := draw.nodes[id][AttrLabel]; !ok {
			logger.Warn("node has no label", "id", id)
			draw.nodes[id][AttrLabel] = FallbackLabel(id)
		}
	}

	data, err := draw.MarshalDOT()
	if err != nil {
		return err
	}
	logger.Debug("rendering tree", "path", path, "nodes", draw.Len())
	return r.WriteFile(ctx, path, data)
}

// clone returns a deep copy that shares no maps with t.
func (t *Tree) clone() *Tree {
	out := &Tree{
		root:     t.root,
		order:    t.NodeIDs(),
		nodes:    make(map[string]map[string]string, len(t.nodes)),
		children: make(map[string][]string, len(t.children)),
		parent:   make(map[string]string, len(t.parent)),
		edges:    t.Edges(),
		graph:    t.GraphAttrs(),
	}
	for id := range t.nodes {
		out.nodes[id] = t.NodeAttrs(id)
	}
	for id := range t.children {
		out.children[id] = t.Children(id)
	}
	for id, p := range t.parent {
		out.parent[id] = p
	}
	return out
}
