package tree

import (
	"math"
	"math/rand"
)

type stackItem struct {
	node  *Node
	inx   []int // sample indices, index into X/y/weights
	depth int
}

type buildStack []*stackItem

func (s buildStack) Empty() bool        { return len(s) == 0 }
func (s *buildStack) Push(n *stackItem) { *s = append(*s, n) }
func (s *buildStack) Pop() *stackItem {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}

// Fit builds a tree from features X, integer label ids y, and per-sample
// weights, over the full sample set. classes maps label id to name.
func (c *Classifier) Fit(X [][]float64, y []int, weights []float64, classes []string) {
	inx := make([]int, len(y))
	for i := range inx {
		inx[i] = i
	}
	c.FitInx(X, y, weights, inx, classes)
}

// FitInx builds a tree using only the samples named by inx (used by the
// forest's bootstrap bagging).
func (c *Classifier) FitInx(X [][]float64, y []int, weights []float64, inx []int, classes []string) {
	c.Classes = classes
	nFeatures := len(X[0])
	nClasses := len(classes)

	randomFeatures := c.RandomFeatures
	if randomFeatures <= 0 {
		randomFeatures = defaultRandomFeatures(nFeatures)
	}
	if randomFeatures > nFeatures {
		randomFeatures = nFeatures
	}

	c.Root = &Node{}

	s := new(buildStack)
	s.Push(&stackItem{node: c.Root, inx: inx, depth: 0})

	for !s.Empty() {
		w := s.Pop()
		n := w.node
		n.Samples = len(w.inx)

		counts := weightedLabelCounts(y, weights, w.inx, nClasses)
		n.WeightedCounts = counts

		total := sumFloat(counts)
		maxLabel, maxWeight := argmaxFloat(counts)

		if total < 2*float64(c.MinSamplesAtLeaf) || maxWeight == total ||
			(c.MaxDepth >= 0 && w.depth == c.MaxDepth) || len(w.inx) < 2 {
			n.Leaf = true
			n.SplittingFeature = -1
			n.Label = maxLabel
			continue
		}

		feature, splitVal, gain := c.bestSplit(X, y, weights, w.inx, nFeatures, randomFeatures, nClasses)

		if gain <= 0 {
			n.Leaf = true
			n.SplittingFeature = -1
			n.Label = maxLabel
			continue
		}

		left, right := partition(X, w.inx, feature, splitVal)
		if len(left) < c.MinSamplesAtLeaf || len(right) < c.MinSamplesAtLeaf {
			n.Leaf = true
			n.SplittingFeature = -1
			n.Label = maxLabel
			continue
		}

		n.SplittingFeature = feature
		n.SplittingValue = splitVal
		n.Left = &Node{}
		n.Right = &Node{}

		s.Push(&stackItem{node: n.Left, inx: left, depth: w.depth + 1})
		s.Push(&stackItem{node: n.Right, inx: right, depth: w.depth + 1})
	}
}

func weightedLabelCounts(y []int, weights []float64, inx []int, nClasses int) []float64 {
	counts := make([]float64, nClasses)
	for _, i := range inx {
		counts[y[i]] += weights[i]
	}
	return counts
}

func sumFloat(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func argmaxFloat(xs []float64) (int, float64) {
	best, bestVal := 0, xs[0]
	for i, v := range xs[1:] {
		if v > bestVal {
			best, bestVal = i+1, v
		}
	}
	return best, bestVal
}

func partition(X [][]float64, inx []int, feature int, splitVal float64) (left, right []int) {
	for _, i := range inx {
		if X[i][feature] < splitVal {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return
}

// bestSplit draws up to randomFeatures attribute indices (or, under KDE
// feature selection, picks the single attribute with lowest label-group
// kernel-density overlap over a random subset), and for each computes the
// best binary split by sweeping midpoints between sorted distinct values.
// Ties are broken by the smaller attribute index: candidates are visited
// in random order, so an equal gain replaces the current winner only when
// its attribute index is smaller.
func (c *Classifier) bestSplit(X [][]float64, y []int, weights []float64, inx []int, nFeatures, randomFeatures, nClasses int) (feature int, splitVal float64, bestGain float64) {
	var candidates []int
	if c.FeatureSelection == KDEFeatureSelection {
		candidates = []int{c.kdeBestFeature(X, y, inx, nFeatures)}
	} else {
		candidates = sampleFeatures(c.randState, nFeatures, randomFeatures)
	}

	feature = -1
	xBuf := make([]float64, len(inx))
	idxBuf := make([]int, len(inx))

	for _, f := range candidates {
		copy(idxBuf, inx)
		for i, idx := range idxBuf {
			xBuf[i] = X[idx][f]
		}
		bSort(xBuf, idxBuf)

		val, gain := c.sweepSplit(xBuf, idxBuf, y, weights, nClasses)
		if gain > bestGain || (gain > 0 && gain == bestGain && f < feature) {
			bestGain = gain
			splitVal = val
			feature = f
		}
	}

	return feature, splitVal, bestGain
}

// sweepSplit evaluates every midpoint between adjacent distinct sorted
// values of x (co-sorted with idx) and returns the best split value and
// its quality-metric improvement over the parent impurity.
func (c *Classifier) sweepSplit(x []float64, idx []int, y []int, weights []float64, nClasses int) (float64, float64) {
	n := len(x)
	parentCounts := make([]float64, nClasses)
	for _, i := range idx {
		parentCounts[y[i]] += weights[i]
	}
	parentTotal := sumFloat(parentCounts)
	parentImpurity := c.impurity(parentCounts, parentTotal)

	leftCounts := make([]float64, nClasses)
	leftTotal := 0.0

	var bestVal, bestGain float64
	for i := 1; i < n; i++ {
		idxPrev := idx[i-1]
		leftCounts[y[idxPrev]] += weights[idxPrev]
		leftTotal += weights[idxPrev]

		if x[i] == x[i-1] {
			continue
		}

		rightTotal := parentTotal - leftTotal
		if leftTotal <= 0 || rightTotal <= 0 {
			continue
		}

		rightCounts := make([]float64, nClasses)
		for k := range parentCounts {
			rightCounts[k] = parentCounts[k] - leftCounts[k]
		}

		iL := c.impurity(leftCounts, leftTotal)
		iR := c.impurity(rightCounts, rightTotal)

		gain := parentImpurity - (leftTotal/parentTotal)*iL - (rightTotal/parentTotal)*iR
		if gain > bestGain {
			bestGain = gain
			bestVal = (x[i-1] + x[i]) / 2.0
		}
	}

	return bestVal, bestGain
}

func (c *Classifier) impurity(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	switch c.QualityMetric {
	case Gain:
		return entropyWeighted(counts, total)
	default:
		return giniWeighted(counts, total)
	}
}

func giniWeighted(counts []float64, total float64) float64 {
	g := 0.0
	for _, w := range counts {
		if w > 0 {
			p := w / total
			g += p * p
		}
	}
	return 1.0 - g
}

func entropyWeighted(counts []float64, total float64) float64 {
	e := 0.0
	for _, w := range counts {
		if w > 0 {
			p := w / total
			e -= p * math.Log2(p)
		}
	}
	return e
}

// sampleFeatures draws up to k distinct indices in [0,p) without
// replacement via Fisher-Yates.
func sampleFeatures(r *rand.Rand, p, k int) []int {
	features := make([]int, p)
	for i := range features {
		features[i] = i
	}
	if k > p {
		k = p
	}
	j := p - 1
	for i := 0; i < k && j > 0; i++ {
		idx := r.Intn(j + 1)
		features[idx], features[j] = features[j], features[idx]
		j--
	}
	return features[p-k:]
}
