// Package pipeline enumerates legal preprocessing-action sequences (the
// pipeline tree, C7) and composes a chosen sequence with a random-forest
// model into a scoreable pipeline (C8).
package pipeline

import "math/rand"

// AddedLeaf is the sentinel pool entry that forces a branch to terminate
// without adding another preprocessing action.
const AddedLeaf = "addedLeaf"

// Node is one step of a candidate preprocessing sequence. The tree is a
// plain Go value graph (not an arena of indices): Go's garbage collector
// reclaims the parent/child cycle, so there is no ownership hazard the way
// there would be in a manually memory-managed language.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
}

// IsLeaf reports whether n has no descendants.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// BuildTree constructs the pipeline tree from pool (the configured action
// names, e.g. "FS","PCA","OS","US","IF"), descending until maxDepth or an
// empty pool, and enforcing:
//
//   - FeatureSelection and PCA are mutually exclusive on any root-to-leaf
//     path (choosing one removes the other from the descendant pool);
//   - Oversampling cannot appear twice in a row;
//   - AddedLeaf clears the descendant pool, forcing a leaf;
//   - Oversampling and Undersampling may each appear at most
//     maxAlgorithmRepetability times on a single path.
func BuildTree(pool []string, maxDepth, maxAlgorithmRepetability int) *Node {
	root := &Node{Name: "root"}
	basePool := append([]string(nil), pool...)
	basePool = append(basePool, AddedLeaf)
	build(root, basePool, 0, maxDepth, maxAlgorithmRepetability, map[string]int{})
	return root
}

func build(node *Node, availablePool []string, depth, maxDepth, maxAlgorithmRepetability int, repeatCounts map[string]int) {
	if depth >= maxDepth || len(availablePool) == 0 {
		return
	}

	for _, name := range availablePool {
		child := &Node{Name: name, Parent: node}
		node.Children = append(node.Children, child)

		childPool := descendantPool(availablePool, name, node.Name, repeatCounts, maxAlgorithmRepetability)
		childCounts := copyCounts(repeatCounts)
		if name == "OS" || name == "US" {
			childCounts[name]++
		}

		build(child, childPool, depth+1, maxDepth, maxAlgorithmRepetability, childCounts)
	}
}

// descendantPool computes the pool available to a node's children, applying
// every structural constraint.
func descendantPool(pool []string, chosen, parentName string, counts map[string]int, maxAlgorithmRepetability int) []string {
	if chosen == AddedLeaf {
		return nil
	}

	next := make([]string, 0, len(pool))
	for _, name := range pool {
		if chosen == "FS" && name == "PCA" {
			continue
		}
		if chosen == "PCA" && name == "FS" {
			continue
		}
		if chosen == "OS" && name == "OS" {
			continue // no two consecutive OS
		}
		if (name == "OS" || name == "US") && counts[name]+repeatIncrement(name, chosen) >= maxAlgorithmRepetability {
			continue
		}
		next = append(next, name)
	}
	return next
}

// repeatIncrement returns 1 when name is the just-chosen node (so counts,
// which reflects the path up to and including chosen's parent, is brought
// up to date before comparing against the repeatability limit).
func repeatIncrement(name, chosen string) int {
	if name == chosen {
		return 1
	}
	return 0
}

func copyCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// RandomPath descends from root picking a uniformly random child at each
// level until a leaf, eliding AddedLeaf nodes from the returned creature.
func RandomPath(root *Node, rng *rand.Rand) []string {
	var path []string
	n := root
	for !n.IsLeaf() {
		n = n.Children[rng.Intn(len(n.Children))]
		if n.Name != AddedLeaf {
			path = append(path, n.Name)
		}
	}
	return path
}

// IsValidPath reports whether creature is a legal root-to-node descent:
// each consecutive name must name a child of the previous node (skipping
// over elided AddedLeaf nodes is allowed, since RandomPath elides them too).
func IsValidPath(root *Node, creature []string) bool {
	n := root
	for _, name := range creature {
		child := childNamed(n, name)
		if child == nil {
			// the child may have been elided as AddedLeaf at this
			// level; check one level deeper before failing.
			leaf := childNamed(n, AddedLeaf)
			if leaf == nil {
				return false
			}
			child = childNamed(leaf, name)
			if child == nil {
				return false
			}
		}
		n = child
	}
	return true
}

func childNamed(n *Node, name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SiblingsOf returns the legal children at the same tree position as node
// (node's parent's children), used by mutation to pick a uniformly random
// sibling while staying within the tree's legal alternatives.
func SiblingsOf(root *Node, creature []string, position int) []*Node {
	n := root
	for i := 0; i < position; i++ {
		child := childNamed(n, creature[i])
		if child == nil {
			return nil
		}
		n = child
	}
	return n.Children
}
