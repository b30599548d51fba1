package worktree

import (
	"slices"
	"strconv"
	"testing"

	"github.com/plastic-phy/plastic/pkg/errors"
)

type nodeSpec struct {
	id       string
	parent   string
	muts     []string
	support  int
	deletion bool
}

// build creates a tree from specs listed parents-first; the first spec is the root.
func build(t *testing.T, specs []nodeSpec) *Tree {
	t.Helper()
	root := NewNode(specs[0].id)
	root.Support = specs[0].support
	tree := NewTree(root)
	if specs[0].deletion {
		_ = tree.SetDeletion(root.ID)
	}
	if err := tree.SetMutations(root.ID, specs[0].muts); err != nil {
		t.Fatal(err)
	}
	for _, s := range specs[1:] {
		n := NewNode(s.id)
		n.Support = s.support
		if err := tree.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", s.id, err)
		}
		if s.deletion {
			_ = tree.SetDeletion(s.id)
		}
		if err := tree.SetMutations(s.id, s.muts); err != nil {
			t.Fatal(err)
		}
		if err := tree.AddEdge(s.parent, s.id); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", s.parent, s.id, err)
		}
	}
	CalcSupports(tree)
	return tree
}

// scenario is root M0 (A) -> M1 (B, 3 cells) -> M2 (C, 2 cells).
func scenario(t *testing.T) *Tree {
	return build(t, []nodeSpec{
		{id: "M0", muts: []string{"A"}},
		{id: "M1", parent: "M0", muts: []string{"B"}, support: 3},
		{id: "M2", parent: "M1", muts: []string{"C"}, support: 2},
	})
}

// branching is a wider tree used for invariant checks.
func branching(t *testing.T) *Tree {
	return build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}, support: 1},
		{id: "a", parent: "r", muts: []string{"A"}, support: 0},
		{id: "b", parent: "a", muts: []string{"B"}, support: 1},
		{id: "c", parent: "a", muts: []string{"C"}, support: 9},
		{id: "d", parent: "r", muts: []string{"D"}, support: 4},
		{id: "e", parent: "d", muts: []string{"E"}, support: 2},
		{id: "f", parent: "e", muts: []string{"F"}, support: 0},
		{id: "g", parent: "f", muts: []string{"G"}, support: 3},
		{id: "x", parent: "d", muts: []string{"B"}, support: 0, deletion: true},
	})
}

func checkInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	for _, n := range tree.Nodes() {
		sum := 0
		for _, c := range n.Children() {
			sum += c.DownstreamSupport
		}
		if n.DownstreamSupport != n.Support+sum {
			t.Errorf("node %s: downstream = %d, want %d", n.ID, n.DownstreamSupport, n.Support+sum)
		}
		parent := tree.Parent(n)
		if parent == nil {
			if n.CumulativeSupport != n.Support || n.Depth != 0 {
				t.Errorf("root %s: cumulative = %d, depth = %d", n.ID, n.CumulativeSupport, n.Depth)
			}
			continue
		}
		if n.CumulativeSupport != parent.CumulativeSupport+n.Support {
			t.Errorf("node %s: cumulative = %d, want %d", n.ID, n.CumulativeSupport, parent.CumulativeSupport+n.Support)
		}
		if n.Depth != parent.Depth+1 {
			t.Errorf("node %s: depth = %d, want %d", n.ID, n.Depth, parent.Depth+1)
		}
	}
}

func TestCalcSupports_Scenario(t *testing.T) {
	tree := scenario(t)

	tests := []struct {
		id                           string
		support, downstream, percent int
	}{
		{"M0", 0, 5, 0},
		{"M1", 3, 5, 100},
		{"M2", 2, 2, 100},
	}
	for _, tt := range tests {
		n := tree.Node(tt.id)
		if n.Support != tt.support {
			t.Errorf("support(%s) = %d, want %d", tt.id, n.Support, tt.support)
		}
		if n.DownstreamSupport != tt.downstream {
			t.Errorf("downstream(%s) = %d, want %d", tt.id, n.DownstreamSupport, tt.downstream)
		}
		if got := SupportPercent(tree, n); got != tt.percent {
			t.Errorf("SupportPercent(%s) = %d, want %d", tt.id, got, tt.percent)
		}
	}
	checkInvariants(t, tree)
}

func TestCalcSupports_LevelCounts(t *testing.T) {
	levels := CalcSupports(branching(t))
	want := LevelCounts{0: 1, 1: 2, 2: 4, 3: 1, 4: 1}
	for depth, count := range want {
		if levels[depth] != count {
			t.Errorf("levels[%d] = %d, want %d", depth, levels[depth], count)
		}
	}
	if len(levels) != len(want) {
		t.Errorf("len(levels) = %d, want %d", len(levels), len(want))
	}
}

func TestCalcSupports_Invariants(t *testing.T) {
	tree := branching(t)
	checkInvariants(t, tree)

	if _, err := CollapseSimplePaths(tree, tree.Root()); err != nil {
		t.Fatal(err)
	}
	CalcSupports(tree)
	checkInvariants(t, tree)
}

func TestCalcSupports_DeepChain(t *testing.T) {
	root := NewNode("n0")
	tree := NewTree(root)
	prev := root.ID
	for i := 1; i < 100000; i++ {
		n := NewNode("n" + strconv.Itoa(i))
		n.Support = 1
		_ = tree.AddNode(n)
		_ = tree.AddEdge(prev, n.ID)
		prev = n.ID
	}
	CalcSupports(tree)
	if got := root.DownstreamSupport; got != 99999 {
		t.Errorf("root downstream = %d, want 99999", got)
	}
	if got := tree.Node(prev).Depth; got != 99999 {
		t.Errorf("leaf depth = %d, want 99999", got)
	}
}

func TestSupportPercent_Degenerate(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}, support: 4},
		{id: "a", parent: "r", muts: []string{"A"}},
		{id: "b", parent: "a", muts: []string{"B"}},
	})

	tests := []struct {
		id   string
		want Degeneracy
	}{
		{"r", NoParent},
		// r: downstream 4, support 4 -> denominator 0
		{"a", NonPositiveDenominator},
		// a: downstream 0, support 0 -> denominator 0
		{"b", NonPositiveDenominator},
	}
	for _, tt := range tests {
		got, why := SupportPercentDetail(tree, tree.Node(tt.id))
		if got != 0 || why != tt.want {
			t.Errorf("SupportPercentDetail(%s) = %d, %v; want 0, %v", tt.id, got, why, tt.want)
		}
		if SupportPercent(tree, tree.Node(tt.id)) != 0 {
			t.Errorf("SupportPercent(%s) should be 0", tt.id)
		}
	}
}

func TestSupportPercent_Floors(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}},
		{id: "a", parent: "r", muts: []string{"A"}, support: 1},
		{id: "b", parent: "r", muts: []string{"B"}, support: 2},
	})
	if got := SupportPercent(tree, tree.Node("a")); got != 33 {
		t.Errorf("SupportPercent(a) = %d, want 33", got)
	}
	if got := SupportPercent(tree, tree.Node("b")); got != 66 {
		t.Errorf("SupportPercent(b) = %d, want 66", got)
	}
}

func TestMergeNodes(t *testing.T) {
	tree := branching(t)
	d, e := tree.Node("d"), tree.Node("e")

	if err := MergeNodes(tree, d, e); err != nil {
		t.Fatalf("MergeNodes() error: %v", err)
	}

	if got, want := d.Mutations, []string{"D", "E"}; !slices.Equal(got, want) {
		t.Errorf("mutations = %v, want %v", got, want)
	}
	if d.Support != 6 {
		t.Errorf("support = %d, want 6", d.Support)
	}
	if tree.Node("e") != nil {
		t.Error("merged node should be removed from the index")
	}
	var childIDs []string
	for _, c := range d.Children() {
		childIDs = append(childIDs, c.ID)
	}
	if want := []string{"x", "f"}; !slices.Equal(childIDs, want) {
		t.Errorf("children = %v, want %v", childIDs, want)
	}
	if f := tree.Node("f"); f.ParentID() != "d" {
		t.Errorf("parent(f) = %q, want d", f.ParentID())
	}
	if ok, err := tree.IsAncestor("E", "G"); err != nil || !ok {
		t.Errorf("IsAncestor(E, G) = %v, %v; want true", ok, err)
	}
}

func TestMergeNodes_ContractViolation(t *testing.T) {
	tree := branching(t)

	tests := []struct {
		name          string
		parent, child string
	}{
		{"grandchild", "r", "b"},
		{"siblings", "a", "d"},
		{"reversed", "a", "r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MergeNodes(tree, tree.Node(tt.parent), tree.Node(tt.child))
			if !errors.Is(err, errors.ErrCodeMergeContract) {
				t.Errorf("MergeNodes(%s, %s) = %v, want MERGE_CONTRACT", tt.parent, tt.child, err)
			}
		})
	}

	detached := NewNode("ghost")
	if err := MergeNodes(tree, tree.Root(), detached); !errors.Is(err, errors.ErrCodeMergeContract) {
		t.Errorf("MergeNodes(detached) = %v, want MERGE_CONTRACT", err)
	}
	if tree.Len() != 9 {
		t.Errorf("failed merges changed the tree: Len() = %d", tree.Len())
	}
}

func TestMergeNodes_PreservesTotalSupport(t *testing.T) {
	tree := branching(t)
	total := tree.TotalSupport()

	pairs := [][2]string{{"a", "b"}, {"e", "f"}, {"d", "e"}, {"a", "c"}, {"r", "a"}, {"d", "g"}}
	for _, p := range pairs {
		if err := MergeNodes(tree, tree.Node(p[0]), tree.Node(p[1])); err != nil {
			t.Fatalf("MergeNodes(%s, %s): %v", p[0], p[1], err)
		}
		if got := tree.TotalSupport(); got != total {
			t.Fatalf("after merging %s into %s: total = %d, want %d", p[1], p[0], got, total)
		}
	}
	CalcSupports(tree)
	if tree.Root().DownstreamSupport != total {
		t.Errorf("root downstream = %d, want %d", tree.Root().DownstreamSupport, total)
	}
}

func TestCollapseSimplePaths_Chain(t *testing.T) {
	tree := scenario(t)

	merged, err := CollapseSimplePaths(tree, tree.Root())
	if err != nil {
		t.Fatal(err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}

	m1 := tree.Node("M1")
	if got := m1.Name(","); got != "B,C" {
		t.Errorf("Name() = %q, want %q", got, "B,C")
	}
	if m1.Support != 5 {
		t.Errorf("support = %d, want 5", m1.Support)
	}
	if tree.Node("M2") != nil {
		t.Error("M2 should have been absorbed")
	}
	if got := tree.Root().Name(","); got != "A" {
		t.Errorf("root should not be collapsed, got %q", got)
	}
}

func TestCollapseSimplePaths_LongChain(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}},
		{id: "a", parent: "r", muts: []string{"A"}, support: 1},
		{id: "b", parent: "a", muts: []string{"B1", "B2"}},
		{id: "c", parent: "b", muts: []string{"C"}, support: 2},
		{id: "d", parent: "c", muts: []string{"D"}},
		{id: "e", parent: "c", muts: []string{"E"}, support: 1},
	})

	if _, err := CollapseSimplePaths(tree, tree.Root()); err != nil {
		t.Fatal(err)
	}
	a := tree.Node("a")
	if got, want := a.Mutations, []string{"A", "B1", "B2", "C"}; !slices.Equal(got, want) {
		t.Errorf("mutations = %v, want %v", got, want)
	}
	if a.NumChildren() != 2 {
		t.Errorf("children = %d, want 2", a.NumChildren())
	}
	if tree.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tree.Len())
	}
}

func TestCollapseSimplePaths_StopsAtDeletion(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}},
		{id: "a", parent: "r", muts: []string{"A"}},
		{id: "del", parent: "a", muts: []string{"A"}, deletion: true},
		{id: "b", parent: "del", muts: []string{"B"}, support: 1},
		{id: "c", parent: "b", muts: []string{"C"}, support: 1},
	})

	if _, err := CollapseSimplePaths(tree, tree.Root()); err != nil {
		t.Fatal(err)
	}
	if tree.Node("del") == nil {
		t.Fatal("deletion node must not be absorbed")
	}
	if got := tree.Node("a").Name(","); got != "A" {
		t.Errorf("a = %q, want A", got)
	}
	if got := tree.Node("del").Name(","); got != "A-" {
		t.Errorf("del = %q, want A-", got)
	}
	if got := tree.Node("b").Name(","); got != "B,C" {
		t.Errorf("b = %q, want B,C", got)
	}
	if got := tree.DeletionNames(); !slices.Equal(got, []string{"A-"}) {
		t.Errorf("DeletionNames() = %v", got)
	}
}

func TestCollapseSimplePaths_Idempotent(t *testing.T) {
	once := branching(t)
	if _, err := CollapseSimplePaths(once, once.Root()); err != nil {
		t.Fatal(err)
	}
	before := snapshot(once)

	merged, err := CollapseSimplePaths(once, once.Root())
	if err != nil {
		t.Fatal(err)
	}
	if merged != 0 {
		t.Errorf("second pass merged %d nodes, want 0", merged)
	}
	if after := snapshot(once); !slices.Equal(before, after) {
		t.Errorf("second pass changed tree:\n%v\n%v", before, after)
	}
}

func snapshot(tree *Tree) []string {
	var out []string
	for _, n := range tree.Nodes() {
		out = append(out, n.ParentID()+">"+n.ID+":"+n.Name(",")+":"+strconv.Itoa(n.Support))
	}
	return out
}

func TestCollapseLowSupport(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}},
		{id: "a", parent: "r", muts: []string{"A"}},
		{id: "b", parent: "a", muts: []string{"B"}, support: 1},
		{id: "c", parent: "a", muts: []string{"C"}, support: 9},
	})
	total := tree.TotalSupport()

	merged, err := CollapseLowSupport(tree, tree.Root(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}
	if tree.Node("b") != nil {
		t.Error("b (10%) should be merged into a")
	}
	if tree.Node("c") == nil {
		t.Error("c (90%) should survive")
	}
	a := tree.Node("a")
	if got, want := a.Mutations, []string{"A", "B"}; !slices.Equal(got, want) {
		t.Errorf("a mutations = %v, want %v", got, want)
	}
	if tree.TotalSupport() != total {
		t.Errorf("total support = %d, want %d", tree.TotalSupport(), total)
	}
}

func TestCollapseLowSupport_Chained(t *testing.T) {
	tests := []struct {
		name      string
		specs     []nodeSpec
		threshold int
		merged    int
		into      string
		mutations []string
		support   int
		survivors []string
		gone      []string
	}{
		{
			// n3 (55%) is merged first; n1 then holds [n7, n6] and n7 is
			// checked against the grown parent: 4/(11-5) = 66%.
			name: "absorbed grandchild checked after sibling",
			specs: []nodeSpec{
				{id: "n0", muts: []string{"R"}, support: 4},
				{id: "n1", parent: "n0", muts: []string{"A"}, support: 2},
				{id: "n3", parent: "n1", muts: []string{"B"}, support: 3},
				{id: "n6", parent: "n3", muts: []string{"C"}, support: 2},
				{id: "n7", parent: "n1", muts: []string{"D"}, support: 4},
			},
			threshold: 75,
			merged:    2,
			into:      "n1",
			mutations: []string{"A", "B", "D"},
			support:   9,
			survivors: []string{"n0", "n1", "n6"},
			gone:      []string{"n3", "n7"},
		},
		{
			name: "siblings merged one after another",
			specs: []nodeSpec{
				{id: "r", muts: []string{"R"}},
				{id: "a", parent: "r", muts: []string{"A"}},
				{id: "b", parent: "a", muts: []string{"B"}, support: 1},
				{id: "c", parent: "a", muts: []string{"C"}, support: 1},
				{id: "d", parent: "a", muts: []string{"D"}, support: 8},
			},
			threshold: 20,
			merged:    2,
			into:      "a",
			mutations: []string{"A", "B", "C"},
			support:   2,
			survivors: []string{"r", "a", "d"},
			gone:      []string{"b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(t, tt.specs)
			total := tree.TotalSupport()

			merged, err := CollapseLowSupport(tree, tree.Root(), tt.threshold)
			if err != nil {
				t.Fatal(err)
			}
			if merged != tt.merged {
				t.Errorf("merged = %d, want %d", merged, tt.merged)
			}
			n := tree.Node(tt.into)
			if got := n.Mutations; !slices.Equal(got, tt.mutations) {
				t.Errorf("%s mutations = %v, want %v", tt.into, got, tt.mutations)
			}
			if n.Support != tt.support {
				t.Errorf("%s support = %d, want %d", tt.into, n.Support, tt.support)
			}
			for _, id := range tt.survivors {
				if tree.Node(id) == nil {
					t.Errorf("node %s should survive", id)
				}
			}
			for _, id := range tt.gone {
				if tree.Node(id) != nil {
					t.Errorf("node %s should be merged", id)
				}
			}
			if tree.TotalSupport() != total {
				t.Errorf("total support = %d, want %d", tree.TotalSupport(), total)
			}
		})
	}
}

func TestCollapseLowSupport_ProtectsRootAndDeletions(t *testing.T) {
	tree := build(t, []nodeSpec{
		{id: "r", muts: []string{"R"}, support: 10},
		{id: "a", parent: "r", muts: []string{"A"}},
		{id: "del", parent: "a", muts: []string{"A"}, deletion: true},
		{id: "b", parent: "del", muts: []string{"B"}, support: 1},
		{id: "c", parent: "b", muts: []string{"C"}},
	})

	if _, err := CollapseLowSupport(tree, tree.Root(), 101); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"r", "a", "del", "b"} {
		if tree.Node(id) == nil {
			t.Errorf("node %s should survive", id)
		}
	}
	if tree.Node("c") != nil {
		t.Error("c should be merged into b")
	}
}

func TestCollapseLowSupport_ZeroThreshold(t *testing.T) {
	tree := branching(t)
	merged, err := CollapseLowSupport(tree, tree.Root(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if merged != 0 || tree.Len() != 9 {
		t.Errorf("threshold 0 merged %d nodes", merged)
	}
}

func TestRemoveSubtree(t *testing.T) {
	tree := branching(t)

	if err := RemoveSubtree(tree, tree.Node("e")); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"e", "f", "g"} {
		if tree.Node(id) != nil {
			t.Errorf("node %s should be removed", id)
		}
	}
	if tree.Len() != 6 {
		t.Errorf("Len() = %d, want 6", tree.Len())
	}
	if _, err := tree.IsAncestor("D", "G"); !errors.Is(err, errors.ErrCodeInvalidValue) {
		t.Errorf("IsAncestor on removed mutation = %v, want INVALID_VALUE", err)
	}
	if err := RemoveSubtree(tree, tree.Root()); !errors.Is(err, errors.ErrCodeInvalidValue) {
		t.Errorf("RemoveSubtree(root) = %v, want INVALID_VALUE", err)
	}
}

func TestIsAncestor(t *testing.T) {
	tree := branching(t)

	tests := []struct {
		anc, mut string
		want     bool
	}{
		{"R", "G", true},
		{"D", "G", true},
		{"A", "G", false},
		{"G", "D", false},
		{"B", "B", false},
	}
	for _, tt := range tests {
		got, err := tree.IsAncestor(tt.anc, tt.mut)
		if err != nil {
			t.Fatalf("IsAncestor(%s, %s): %v", tt.anc, tt.mut, err)
		}
		if got != tt.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tt.anc, tt.mut, got, tt.want)
		}
	}
}

func TestAddEdge_RejectsSecondParent(t *testing.T) {
	tree := branching(t)
	if err := tree.AddEdge("a", "e"); !errors.Is(err, errors.ErrCodeNotATree) {
		t.Errorf("AddEdge(a, e) = %v, want NOT_A_TREE", err)
	}
	if err := tree.AddNode(NewNode("a")); !errors.Is(err, errors.ErrCodeInvalidValue) {
		t.Errorf("AddNode(duplicate) = %v, want INVALID_VALUE", err)
	}
}
