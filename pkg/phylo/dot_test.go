package phylo

import (
	"bytes"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/plastic-phy/plastic/pkg/digraph"
	"github.com/plastic-phy/plastic/pkg/errors"
)

func sameTree(t *testing.T, got, want *Tree) {
	t.Helper()
	if !slices.Equal(got.NodeIDs(), want.NodeIDs()) {
		t.Fatalf("nodes = %v, want %v", got.NodeIDs(), want.NodeIDs())
	}
	for _, id := range want.NodeIDs() {
		if !maps.Equal(got.NodeAttrs(id), want.NodeAttrs(id)) {
			t.Errorf("attrs(%s) = %v, want %v", id, got.NodeAttrs(id), want.NodeAttrs(id))
		}
	}
	ge, we := got.Edges(), want.Edges()
	if len(ge) != len(we) {
		t.Fatalf("edges = %d, want %d", len(ge), len(we))
	}
	for i := range we {
		if ge[i].From != we[i].From || ge[i].To != we[i].To || !maps.Equal(ge[i].Attrs, we[i].Attrs) {
			t.Errorf("edge %d = %+v, want %+v", i, ge[i], we[i])
		}
	}
	if !maps.Equal(got.GraphAttrs(), want.GraphAttrs()) {
		t.Errorf("graph attrs = %v, want %v", got.GraphAttrs(), want.GraphAttrs())
	}
}

func TestDOT_RoundTrip(t *testing.T) {
	g := digraph.New(digraph.Attrs{"label": `patient "7"`, "labelloc": "t"})
	_ = g.AddNode("0", digraph.Attrs{"label": "TP53,KRAS"})
	_ = g.AddNode("1", digraph.Attrs{"label": "BRAF", "fillcolor": "indianred1", "style": "filled"})
	_ = g.AddNode("cell 1", digraph.Attrs{"shape": "box"})
	_ = g.AddNode(`c:\2`, digraph.Attrs{"shape": "box", "note": "line one\nline two"})
	_ = g.AddEdge("0", "1", digraph.Attrs{"weight": "2"})
	_ = g.AddEdge("0", "cell 1", nil)
	_ = g.AddEdge("1", `c:\2`, nil)

	tree, err := New(g)
	if err != nil {
		t.Fatal(err)
	}
	data, err := tree.MarshalDOT()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseDOT(data)
	if err != nil {
		t.Fatalf("ParseDOT() error: %v\n%s", err, data)
	}
	sameTree(t, back, tree)

	again, _ := back.MarshalDOT()
	if !bytes.Equal(again, data) {
		t.Errorf("serialization is not stable:\n%s\n%s", data, again)
	}
}

func TestDOT_HTMLLabels(t *testing.T) {
	src := []byte(`digraph {
  "0" [label=<<b>TP53</b>,KRAS>];
  "1" [label="x < y"];
  "0" -> "1";
}
`)
	tree, err := ParseDOT(src)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := tree.NodeAttr("0", "label"); got != "<<b>TP53</b>,KRAS>" {
		t.Errorf("HTML label = %q", got)
	}

	data, err := tree.MarshalDOT()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"label"=<<b>TP53</b>,KRAS>`)) {
		t.Errorf("HTML label was quoted:\n%s", data)
	}
	if !bytes.Contains(data, []byte(`"label"="x < y"`)) {
		t.Errorf("quoted label lost its quotes:\n%s", data)
	}

	back, err := ParseDOT(data)
	if err != nil {
		t.Fatalf("ParseDOT() error: %v\n%s", err, data)
	}
	sameTree(t, back, tree)
}

func TestIsHTMLID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`<b>x</b>`, false},
		{`<<b>x</b>>`, true},
		{`<x>`, true},
		{`<>`, true},
		{`<a><b>`, false},
		{`<<a>`, false},
		{`a<b>`, false},
		{`<`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := isHTMLID(tt.in); got != tt.want {
			t.Errorf("isHTMLID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDOT_Defaults(t *testing.T) {
	src := `strict digraph "" {
	graph [label="run 3"];
	node [label="\N", shape=ellipse];
	edge [color=grey];
	rankdir=TB;
	0 [label=A];
	1 [label="B,C"];
	2 [shape=box];
	0 -> 1 -> 2;
}`
	tree, err := ParseDOT([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	wantGraph := map[string]string{"label": "run 3", "rankdir": "TB"}
	if got := tree.GraphAttrs(); !maps.Equal(got, wantGraph) {
		t.Errorf("graph attrs = %v, want %v", got, wantGraph)
	}
	if got := tree.NodeAttrs("2"); !maps.Equal(got, map[string]string{"shape": "box"}) {
		t.Errorf("node defaults leaked: %v", got)
	}
	if got := tree.Edges(); len(got) != 2 || len(got[0].Attrs) != 0 {
		t.Errorf("edges = %+v", got)
	}
	if got := tree.Labels("1"); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("Labels(1) = %v", got)
	}
}

func TestParseDOT_Subgraph(t *testing.T) {
	src := `digraph {
	r [label=R];
	r -> { a [label=A]; b [label=B] };
}`
	tree, err := ParseDOT([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Children("r"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Children(r) = %v", got)
	}
}

func TestParseDOT_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"syntax", `digraph { a -> }`, errors.ErrCodeInvalidFormat},
		{"undirected", `graph { a -- b }`, errors.ErrCodeInvalidFormat},
		{"two graphs", `digraph { a } digraph { b }`, errors.ErrCodeInvalidFormat},
		{"not a tree", `digraph { a -> b; c -> b }`, errors.ErrCodeNotATree},
		{"reserved key", `digraph { "node"="x"; a }`, errors.ErrCodeInvalidValue},
		{"empty label", `digraph { a [label=""] }`, errors.ErrCodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDOT([]byte(tt.src))
			if !errors.Is(err, tt.code) {
				t.Errorf("ParseDOT() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestUnquoteID(t *testing.T) {
	tests := []struct{ in, want string }{
		{`abc`, `abc`},
		{`"abc"`, `abc`},
		{`"a\"b"`, `a"b`},
		{`"a\\b"`, `a\b`},
		{`"a\nb"`, "a\nb"},
		{`"a\lb"`, `a\lb`},
		{"\"a\\\nb\"", "ab"},
		{`<b>x</b>`, `<b>x</b>`},
	}
	for _, tt := range tests {
		if got := unquoteID(tt.in); got != tt.want {
			t.Errorf("unquoteID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	for _, s := range []string{"", `\`, `a"b`, "x\ny", `\n`} {
		if got := unquoteID(quoteID(s)); got != s {
			t.Errorf("unquoteID(quoteID(%q)) = %q", s, got)
		}
	}
}

func TestFileIO(t *testing.T) {
	dir := t.TempDir()
	tree, err := New(chain("a", "b"))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "tree.dot")
	if err := os.WriteFile(path, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := tree.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	sameTree(t, back, tree)

	if _, err := ReadFile(filepath.Join(dir, "missing.dot")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if err := tree.WriteFile(filepath.Join(dir, "no", "such", "tree.dot")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("WriteFile(missing dir) error = %v, want FILE_NOT_FOUND", err)
	}

	r, err := ReadDOT(strings.NewReader(`digraph { x [label=X] }`))
	if err != nil || r.Root() != "x" {
		t.Errorf("ReadDOT() = %v, %v", r, err)
	}
}
