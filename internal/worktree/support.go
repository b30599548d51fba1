package worktree

// LevelCounts maps a depth to the number of nodes found at that depth.
type LevelCounts map[int]int

// CalcSupports recomputes Depth, CumulativeSupport and DownstreamSupport for
// every node reachable from the root and returns the node count per depth.
//
// After it returns:
//
//	DownstreamSupport(n) = Support(n) + Σ DownstreamSupport(c)
//	CumulativeSupport(n) = CumulativeSupport(parent) + Support(n)
//	Depth(n)             = Depth(parent) + 1
//
// The traversal uses an explicit stack, so deep chains do not recurse.
func CalcSupports(t *Tree) LevelCounts {
	levels := make(LevelCounts)

	// Preorder: parents are finalized before their children.
	order := make([]*Node, 0, t.Len())
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if parent := t.Parent(n); parent != nil {
			n.Depth = parent.Depth + 1
			n.CumulativeSupport = parent.CumulativeSupport + n.Support
		} else {
			n.Depth = 0
			n.CumulativeSupport = n.Support
		}
		levels[n.Depth]++
		order = append(order, n)

		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}

	// Reverse preorder visits every child before its parent.
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		n.DownstreamSupport = n.Support
		for _, c := range n.children {
			n.DownstreamSupport += c.DownstreamSupport
		}
	}
	return levels
}

// Degeneracy tells why [SupportPercentDetail] fell back to zero.
type Degeneracy int

const (
	// NotDegenerate means the percentage was computed.
	NotDegenerate Degeneracy = iota
	// NoParent means the node is the root, where support is undefined.
	NoParent
	// NonPositiveDenominator means the parent's descendants hold no cells.
	NonPositiveDenominator
)

func (d Degeneracy) String() string {
	switch d {
	case NoParent:
		return "no parent"
	case NonPositiveDenominator:
		return "non-positive denominator"
	default:
		return "none"
	}
}

// SupportPercent returns the share of the cells below n's parent (excluding
// the parent's own cells) that lie in n's subtree, as a floored percentage:
//
//	floor(Downstream(n) / (Downstream(parent) - Support(parent)) * 100)
//
// It returns 0 for the root and whenever the denominator is not positive, so
// 0 must not be read as "no support" for the root.
func SupportPercent(t *Tree, n *Node) int {
	s, _ := SupportPercentDetail(t, n)
	return s
}

// SupportPercentDetail is [SupportPercent] with the reason for a degenerate
// zero.
func SupportPercentDetail(t *Tree, n *Node) (int, Degeneracy) {
	parent := t.Parent(n)
	if parent == nil {
		return 0, NoParent
	}
	denom := parent.DownstreamSupport - parent.Support
	if denom <= 0 {
		return 0, NonPositiveDenominator
	}
	return n.DownstreamSupport * 100 / denom, NotDegenerate
}
