// Package tree implements a CART-style decision tree classifier,
// supporting per-sample instance weights (for AdaBoost-style reweighting),
// a quality metric selector (information gain or Gini reduction), and a
// KDE-based feature-selection variant alongside the default random-attribute
// draw.
//
// Most of the split-search machinery (sort by attribute, sweep midpoints,
// sample maxFeatures attributes per node via Fisher-Yates) follows the
// teacher's tree package; the per-node label histograms carry sample
// weights instead of unweighted counts.
package tree

import (
	"math"
	"math/rand"
	"time"
)

// QualityMetric selects how a candidate split's improvement is scored.
type QualityMetric int

const (
	Gain QualityMetric = iota // information gain (entropy reduction)
	Gini                      // Gini impurity reduction
)

// FeatureSelectionMethod selects how candidate attributes are chosen at
// each split.
type FeatureSelectionMethod int

const (
	RandomFeatureSelection FeatureSelectionMethod = iota
	KDEFeatureSelection
)

// Node is a decision-tree node. A node is a leaf iff Label is set
// (Leaf == true), which holds iff Left == Right == nil.
type Node struct {
	SplittingFeature int // -1 for leaves
	SplittingValue   float64
	Label            int // class id; meaningful only when Leaf
	Leaf             bool
	Left, Right      *Node
	Samples          int
	WeightedCounts   []float64 // weighted label histogram at this node
}

// Classifier is a single CART-style decision tree.
type Classifier struct {
	Root *Node

	MinSamplesAtLeaf      int
	MaxDepth              int // -1 for unlimited
	RandomFeatures        int // 0 selects the default ceil(log2(p))+1
	QualityMetric         QualityMetric
	FeatureSelection      FeatureSelectionMethod
	KDEAttributesPerSplit int

	Classes   []string
	randState *rand.Rand
}

// Option configures a Classifier at construction.
type Option func(*Classifier)

func MinSamplesAtLeaf(n int) Option { return func(c *Classifier) { c.MinSamplesAtLeaf = n } }
func MaxDepth(n int) Option         { return func(c *Classifier) { c.MaxDepth = n } }
func RandomFeatureCount(n int) Option {
	return func(c *Classifier) { c.RandomFeatures = n }
}
func Quality(m QualityMetric) Option { return func(c *Classifier) { c.QualityMetric = m } }
func SelectFeaturesBy(m FeatureSelectionMethod) Option {
	return func(c *Classifier) { c.FeatureSelection = m }
}
func KDEAttributesPerSplit(n int) Option {
	return func(c *Classifier) { c.KDEAttributesPerSplit = n }
}
func RandState(seed int64) Option {
	return func(c *Classifier) { c.randState = rand.New(rand.NewSource(seed)) }
}

// NewClassifier returns a configured decision tree. Defaults: MinSamplesAtLeaf=1,
// MaxDepth=-1 (unlimited), QualityMetric=Gini, FeatureSelection=Random.
func NewClassifier(options ...Option) *Classifier {
	c := &Classifier{
		MinSamplesAtLeaf: 1,
		MaxDepth:         -1,
		QualityMetric:    Gini,
		randState:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// defaultRandomFeatures returns ceil(log2(p)) + 1, the default attribute
// sample size when RandomFeatures is unset.
func defaultRandomFeatures(p int) int {
	if p <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(p)))) + 1
}

// Predict returns the most probable label id for each row of X.
func (c *Classifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		out[i] = c.predictRow(row)
	}
	return out
}

// PredictNames returns the most probable label name for each row of X.
func (c *Classifier) PredictNames(X [][]float64) []string {
	ids := c.Predict(X)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.Classes[id]
	}
	return out
}

func (c *Classifier) predictRow(row []float64) int {
	n := c.Root
	for !n.Leaf {
		if row[n.SplittingFeature] < n.SplittingValue {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Label
}

// PredictProb returns class probabilities (weighted-count fraction at the
// landing leaf) for each row of X.
func (c *Classifier) PredictProb(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		n := c.Root
		for !n.Leaf {
			if row[n.SplittingFeature] < n.SplittingValue {
				n = n.Left
			} else {
				n = n.Right
			}
		}
		total := 0.0
		for _, w := range n.WeightedCounts {
			total += w
		}
		probs := make([]float64, len(n.WeightedCounts))
		if total > 0 {
			for i, w := range n.WeightedCounts {
				probs[i] = w / total
			}
		}
		out[i] = probs
	}
	return out
}

// VarImp returns a naive importance score per feature: the summed sample
// count of nodes that split on that feature.
func (c *Classifier) VarImp(nFeatures int) []float64 {
	imp := make([]float64, nFeatures)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || n.Leaf {
			return
		}
		imp[n.SplittingFeature] += float64(n.Samples)
		walk(n.Left)
		walk(n.Right)
	}
	walk(c.Root)
	return imp
}
