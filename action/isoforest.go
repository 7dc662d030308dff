package action

import (
	"math"
	"math/rand"
	"time"

	"github.com/wlattner/automl/data"
)

// isolationOutlierThreshold is the anomaly-score cutoff above which a
// sample is marked an outlier.
const isolationOutlierThreshold = 0.6

// IsolationForest removes samples whose average isolation-path length
// across TreeCount random trees yields an anomaly score >= 0.6.
type IsolationForest struct {
	TreeCount int

	initValid bool
	rng       *rand.Rand
	outliers  map[string]bool
}

// NewIsolationForest validates TreeCount >= 1.
func NewIsolationForest(treeCount int) *IsolationForest {
	f := &IsolationForest{TreeCount: treeCount, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	f.initValid = treeCount >= 1
	return f
}

func (f *IsolationForest) ID() string { return "IF" }

type isoNode struct {
	left, right *isoNode
	members     []int // sample indices contained in this node's subtree
}

func (f *IsolationForest) Build(train *data.Package) error {
	if !f.initValid {
		return nil
	}

	keys := train.SampleKeys()
	n := len(keys)
	if n == 0 {
		f.initValid = false
		return nil
	}

	rows := make([][]float64, n)
	for i, k := range keys {
		row, err := train.FDB.NumericRow(k)
		if err != nil {
			f.initValid = false
			return nil
		}
		rows[i] = row
	}
	nFeatures := len(rows[0])

	pathLenSum := make([]float64, n)

	for t := 0; t < f.TreeCount; t++ {
		allIdx := make([]int, n)
		for i := range allIdx {
			allIdx[i] = i
		}
		root := f.buildIsoTree(rows, allIdx, nFeatures)
		accumulatePathLengths(root, 0, pathLenSum)
	}

	c := isolationNormalizer(n)

	f.outliers = make(map[string]bool)
	for i, k := range keys {
		avgPath := pathLenSum[i] / float64(f.TreeCount)
		score := math.Pow(2, -avgPath/c)
		if score >= isolationOutlierThreshold {
			f.outliers[k] = true
		}
	}

	return nil
}

// buildIsoTree recursively splits idx by a uniform-random threshold on a
// random feature column until subsets are singletons.
func (f *IsolationForest) buildIsoTree(rows [][]float64, idx []int, nFeatures int) *isoNode {
	n := &isoNode{members: idx}
	if len(idx) <= 1 {
		return n
	}

	feature := f.rng.Intn(nFeatures)
	lo, hi := rows[idx[0]][feature], rows[idx[0]][feature]
	for _, i := range idx {
		v := rows[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return n // constant column, cannot split further
	}

	threshold := lo + f.rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if rows[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return n
	}

	n.left = f.buildIsoTree(rows, left, nFeatures)
	n.right = f.buildIsoTree(rows, right, nFeatures)
	return n
}

// accumulatePathLengths adds depth to pathLenSum for every sample index
// contained in node's subtree (a node's path length is the number of
// ancestor nodes containing it).
func accumulatePathLengths(n *isoNode, depth float64, pathLenSum []float64) {
	if n == nil {
		return
	}
	for _, i := range n.members {
		pathLenSum[i] += depth
	}
	accumulatePathLengths(n.left, depth+1, pathLenSum)
	accumulatePathLengths(n.right, depth+1, pathLenSum)
}

// isolationNormalizer computes c = 2*H(n-1) - 2*(n-1)/n, H the harmonic
// number.
func isolationNormalizer(n int) float64 {
	if n <= 1 {
		return 1
	}
	h := harmonic(n - 1)
	return 2*h - 2*float64(n-1)/float64(n)
}

func harmonic(n int) float64 {
	sum := 0.0
	for i := 1; i <= n; i++ {
		sum += 1.0 / float64(i)
	}
	return sum
}

// Run removes the samples marked as outliers during Build.
func (f *IsolationForest) Run(pkg *data.Package) (*data.Package, error) {
	if !f.initValid || len(f.outliers) == 0 {
		return pkg, nil
	}

	var keep []string
	for _, k := range pkg.FDB.Keys() {
		if !f.outliers[k] {
			keep = append(keep, k)
		}
	}
	return subsetByKeys(pkg, keep)
}

func (f *IsolationForest) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"treeCount": f.TreeCount,
		"removed":   len(f.outliers),
	}
}
