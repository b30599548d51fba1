package worktree

import (
	"slices"

	"github.com/plastic-phy/plastic/pkg/errors"
)

// MergeNodes folds child into parent: the child's mutations are appended to
// the parent's, its children are re-attached to the parent, its direct
// support is added to the parent's, and it is dropped from the indices.
//
// Derived counters are not refreshed; call [CalcSupports] before reading
// them again. Returns an ErrCodeMergeContract error if child is not a
// direct child of parent.
func MergeNodes(t *Tree, parent, child *Node) error {
	if parent == nil || child == nil {
		return errors.New(errors.ErrCodeMergeContract, "cannot merge a nil node")
	}
	if t.byID[parent.ID] != parent || t.byID[child.ID] != child {
		return errors.New(errors.ErrCodeMergeContract, "nodes %q and %q are not both in the tree", parent.ID, child.ID)
	}
	if child.parent != parent.ID {
		return errors.New(errors.ErrCodeMergeContract, "node %q is not a child of %q", child.ID, parent.ID)
	}

	parent.Mutations = append(parent.Mutations, child.Mutations...)

	grandchildren := child.children
	child.children = nil
	t.detach(child)
	for _, gc := range grandchildren {
		gc.parent = parent.ID
		parent.children = append(parent.children, gc)
	}

	if !parent.Deletion {
		for _, m := range parent.Mutations {
			t.byMutation[m] = parent
		}
	}
	parent.Support += child.Support
	return nil
}

// CollapseSimplePaths contracts every unbranched chain of gain nodes below n
// into a single node whose mutations are the chain's mutations in tree order.
// The root is never merged away. It returns the number of merges.
func CollapseSimplePaths(t *Tree, n *Node) (int, error) {
	merged := 0
	for !n.Deletion && len(n.children) == 1 && n.parent != "" && !n.children[0].Deletion {
		if err := MergeNodes(t, n, n.children[0]); err != nil {
			return merged, err
		}
		merged++
	}
	for _, c := range slices.Clone(n.children) {
		m, err := CollapseSimplePaths(t, c)
		merged += m
		if err != nil {
			return merged, err
		}
	}
	return merged, nil
}

// CollapseLowSupport walks the tree top-down from n and merges every gain
// node whose support percentage is below threshold into its parent, as long
// as the parent is a gain node other than the root.
//
// After a merge the walk continues at the parent: its current children, the
// remaining siblings followed by the absorbed grandchildren, are checked
// next. Children lists are read live, so a node may be checked again by an
// enclosing loop. Decisions use the counters stored by the last
// [CalcSupports]; only direct support is updated between merges. It returns
// the number of merges.
func CollapseLowSupport(t *Tree, n *Node, threshold int) (int, error) {
	merged := 0

	parent := t.Parent(n)
	if parent != nil && parent != t.root && !n.Deletion && !parent.Deletion &&
		SupportPercent(t, n) < threshold {
		if err := MergeNodes(t, parent, n); err != nil {
			return merged, err
		}
		merged++
		n = parent
	}

	for i := 0; i < len(n.children); i++ {
		m, err := CollapseLowSupport(t, n.children[i], threshold)
		merged += m
		if err != nil {
			return merged, err
		}
	}
	return merged, nil
}

// RemoveSubtree deletes n and all of its descendants. Unlike a merge, the
// support of the removed nodes is discarded. The root cannot be removed.
func RemoveSubtree(t *Tree, n *Node) error {
	if t.byID[n.ID] != n {
		return errors.New(errors.ErrCodeInvalidValue, "node %q is not in the tree", n.ID)
	}
	if n == t.root {
		return errors.New(errors.ErrCodeInvalidValue, "cannot remove the root")
	}

	stack := []*Node{n}
	var doomed []*Node
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		doomed = append(doomed, cur)
		stack = append(stack, cur.children...)
	}
	t.detach(n)
	for _, d := range doomed[1:] {
		delete(t.byID, d.ID)
		for _, m := range d.Mutations {
			if t.byMutation[m] == d {
				delete(t.byMutation, m)
			}
		}
		t.deletions = slices.DeleteFunc(t.deletions, func(x *Node) bool { return x == d })
	}
	return nil
}
