package phylo

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"github.com/plastic-phy/plastic/pkg/digraph"
	"github.com/plastic-phy/plastic/pkg/errors"
)

// MarshalDOT serializes the tree as a DOT digraph. Attributes are written
// in key order, so the output is deterministic.
func (t *Tree) MarshalDOT() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteDOT(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDOT writes the DOT serialization of the tree to w.
func (t *Tree) WriteDOT(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("digraph {\n")

	for _, k := range slices.Sorted(maps.Keys(t.graph)) {
		fmt.Fprintf(&buf, "  %s=%s;\n", quoteID(k), quoteID(t.graph[k]))
	}
	if len(t.graph) > 0 {
		buf.WriteString("\n")
	}

	for _, id := range t.order {
		buf.WriteString("  " + quoteID(id))
		writeAttrList(&buf, t.nodes[id])
		buf.WriteString(";\n")
	}

	if len(t.edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range t.edges {
		fmt.Fprintf(&buf, "  %s -> %s", quoteID(e.From), quoteID(e.To))
		writeAttrList(&buf, e.Attrs)
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeAttrList(buf *bytes.Buffer, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		parts = append(parts, quoteID(k)+"="+quoteID(attrs[k]))
	}
	buf.WriteString(" [" + strings.Join(parts, ", ") + "]")
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// quoteID writes s as a double-quoted DOT string. Backslashes, quotes and
// newlines are escaped so that unquoteID restores s exactly. An HTML string
// (see isHTMLID) is written as is, so it stays HTML after a round trip.
// A quoted string that happens to look like one, such as "<x>", is
// indistinguishable after parsing and is written as HTML too.
func quoteID(s string) string {
	if isHTMLID(s) {
		return s
	}
	return `"` + dotEscaper.Replace(s) + `"`
}

// isHTMLID reports whether s is a DOT HTML string: it starts with '<', ends
// with the '>' that closes it, and its angle brackets are balanced.
func isHTMLID(s string) bool {
	if len(s) < 2 || s[0] != '<' || s[len(s)-1] != '>' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
		if depth < 0 {
			return false
		}
	}
	return depth == 0
}

// unquoteID reverses quoteID. Unquoted identifiers and HTML strings, which
// keep their outer angle brackets, are returned unchanged.
func unquoteID(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; next {
		case '\\', '"':
			b.WriteByte(next)
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case '\n':
			// line continuation
			i++
		case '\r':
			i++
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		default:
			b.WriteByte('\\')
		}
	}
	return b.String()
}

// ParseDOT parses a DOT digraph and validates it with [New].
//
// Node and edge default statements (node [...], edge [...]) are dropped.
// Graph attribute statements and bare key=value statements become graph
// attributes. Nodes inside subgraphs are added to the tree and edges to or
// from a subgraph connect every node it contains.
func ParseDOT(data []byte) (*Tree, error) {
	g, err := parseDigraph(data)
	if err != nil {
		return nil, err
	}
	return New(g)
}

// ReadDOT reads all of r and parses it with [ParseDOT].
func ReadDOT(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read DOT")
	}
	return ParseDOT(data)
}

// ReadFile loads a tree from a DOT file.
func ReadFile(path string) (*Tree, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDOT(data)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}

// WriteFile writes the DOT serialization to path, replacing any existing
// file. The parent directory must already exist.
func (t *Tree) WriteFile(path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	data, err := t.MarshalDOT()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func parseDigraph(data []byte) (*digraph.Graph, error) {
	file, err := dot.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	if len(file.Graphs) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected exactly one graph, found %d", len(file.Graphs))
	}
	src := file.Graphs[0]
	if !src.Directed {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graph must be a digraph")
	}

	p := &dotBuilder{g: digraph.New(nil)}
	if err := p.stmts(src.Stmts, true); err != nil {
		return nil, err
	}
	return p.g, nil
}

type dotBuilder struct {
	g *digraph.Graph
}

// stmts adds the statements of a graph body. Graph attributes are only taken
// from the top level.
func (p *dotBuilder) stmts(stmts []ast.Stmt, top bool) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			id := unquoteID(s.Node.ID)
			p.ensureNode(id)
			n, _ := p.g.Node(id)
			for _, a := range s.Attrs {
				n.Attrs[unquoteID(a.Key)] = unquoteID(a.Val)
			}
		case *ast.EdgeStmt:
			if err := p.edge(s); err != nil {
				return err
			}
		case *ast.AttrStmt:
			if s.Kind == ast.GraphKind && top {
				for _, a := range s.Attrs {
					p.g.Attrs()[unquoteID(a.Key)] = unquoteID(a.Val)
				}
			}
		case *ast.Attr:
			if top {
				p.g.Attrs()[unquoteID(s.Key)] = unquoteID(s.Val)
			}
		case *ast.Subgraph:
			if err := p.stmts(s.Stmts, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *dotBuilder) ensureNode(id string) {
	if !p.g.HasNode(id) {
		_ = p.g.AddNode(id, nil)
	}
}

func (p *dotBuilder) vertex(v ast.Vertex) ([]string, error) {
	switch v := v.(type) {
	case *ast.Node:
		id := unquoteID(v.ID)
		p.ensureNode(id)
		return []string{id}, nil
	case *ast.Subgraph:
		if err := p.stmts(v.Stmts, false); err != nil {
			return nil, err
		}
		return subgraphNodes(v.Stmts), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported edge endpoint %v", v)
}

// subgraphNodes returns the node IDs mentioned in a subgraph body.
func subgraphNodes(stmts []ast.Stmt) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	var walk func([]ast.Stmt)
	var walkVertex func(ast.Vertex)
	walkVertex = func(v ast.Vertex) {
		switch v := v.(type) {
		case *ast.Node:
			add(unquoteID(v.ID))
		case *ast.Subgraph:
			walk(v.Stmts)
		}
	}
	walk = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *ast.NodeStmt:
				add(unquoteID(s.Node.ID))
			case *ast.EdgeStmt:
				walkVertex(s.From)
				for e := s.To; e != nil; e = e.To {
					walkVertex(e.Vertex)
				}
			case *ast.Subgraph:
				walk(s.Stmts)
			}
		}
	}
	walk(stmts)
	return ids
}

func (p *dotBuilder) edge(s *ast.EdgeStmt) error {
	from, err := p.vertex(s.From)
	if err != nil {
		return err
	}
	attrs := make(digraph.Attrs, len(s.Attrs))
	for _, a := range s.Attrs {
		attrs[unquoteID(a.Key)] = unquoteID(a.Val)
	}

	for e := s.To; e != nil; e = e.To {
		if !e.Directed {
			return errors.New(errors.ErrCodeInvalidFormat, "undirected edge in digraph")
		}
		to, err := p.vertex(e.Vertex)
		if err != nil {
			return err
		}
		for _, u := range from {
			for _, v := range to {
				if existing, ok := p.g.Edge(u, v); ok {
					for k, val := range attrs {
						existing.Attrs[k] = val
					}
					continue
				}
				if err := p.g.AddEdge(u, v, attrs.Clone()); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge %s -> %s", u, v)
				}
			}
		}
		from = to
	}
	return nil
}
