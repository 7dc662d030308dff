// Package forest implements random forests built from the tree package's
// CART-style classifiers, following
// Louppe, G. (2014) "Understanding Random Forests: From Theory to Practice" (PhD thesis)
// http://arxiv.org/abs/1407.7502
//
// Bagging supports three sampling strategies (normal bootstrap, per-class
// equalized bootstrap, and Walker's alias sampling over class weights),
// optional AdaBoost-style instance reweighting across trees, and optional
// out-of-bag tree selection.
package forest

import (
	"encoding/gob"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wlattner/automl/tree"
)

// BaggingMethod selects how each tree's training bag is drawn.
type BaggingMethod int

const (
	// NormalBagging draws BaggingFraction*N samples uniformly with
	// replacement from the full training set.
	NormalBagging BaggingMethod = iota
	// EqualizedBagging draws ceil(BaggingFraction*N/|classes|) samples
	// with replacement from each class independently.
	EqualizedBagging
	// WalkerBagging draws samples via Walker's alias method over
	// inverse-frequency class weights, then uniformly within the chosen
	// class.
	WalkerBagging
)

// TreeSelectionMethod selects which trees survive into the ensemble.
type TreeSelectionMethod int

const (
	// NoSelection keeps every tree built.
	NoSelection TreeSelectionMethod = iota
	// OOBSelection keeps the NumberSelectedTrees trees with the highest
	// out-of-bag accuracy.
	OOBSelection
	// KDESelection is a reserved hook for a kernel-density tree score;
	// not implemented, falls back to NoSelection.
	KDESelection
)

// ErrNoTrainingData is returned by Fit when passed an empty dataset.
var ErrNoTrainingData = errors.New("forest: no training samples")

// Classifier is an ensemble of tree.Classifier decision trees.
type Classifier struct {
	NumberOfTrees    int
	MinSamplesAtLeaf int
	MaxDepth         int
	RandomFeatures   int
	QualityMetric    tree.QualityMetric
	FeatureSelection tree.FeatureSelectionMethod
	KDEAttributesPerSplit int

	BaggingMethod   BaggingMethod
	BaggingFraction float64 // fraction of N drawn per tree, default 1.0

	Boost bool // enable AdaBoost-style instance reweighting across trees

	TreeSelection       TreeSelectionMethod
	NumberSelectedTrees int

	NumWorkers int

	Classes []string
	Trees   []*tree.Classifier

	nFeatures int

	// ConfusionMatrix/Accuracy/OOBPredicted/OOBActual are populated
	// whenever TreeSelection is OOBSelection, or on request via
	// ComputeOOB. OOBPredicted/OOBActual are parallel slices restricted
	// to samples that had at least one out-of-bag vote.
	ComputeOOB      bool
	ConfusionMatrix [][]int
	Accuracy        float64
	OOBPredicted    []int
	OOBActual       []int
}

// Option configures a Classifier at construction.
type Option func(*Classifier)

func NumTrees(n int) Option          { return func(c *Classifier) { c.NumberOfTrees = n } }
func MinSamplesAtLeaf(n int) Option  { return func(c *Classifier) { c.MinSamplesAtLeaf = n } }
func MaxDepth(n int) Option          { return func(c *Classifier) { c.MaxDepth = n } }
func RandomFeatureCount(n int) Option {
	return func(c *Classifier) { c.RandomFeatures = n }
}
func Quality(m tree.QualityMetric) Option { return func(c *Classifier) { c.QualityMetric = m } }
func SelectFeaturesBy(m tree.FeatureSelectionMethod) Option {
	return func(c *Classifier) { c.FeatureSelection = m }
}
func KDEAttributesPerSplit(n int) Option {
	return func(c *Classifier) { c.KDEAttributesPerSplit = n }
}
func Bagging(m BaggingMethod, fraction float64) Option {
	return func(c *Classifier) { c.BaggingMethod = m; c.BaggingFraction = fraction }
}
func AdaBoost() Option { return func(c *Classifier) { c.Boost = true } }
func SelectTrees(m TreeSelectionMethod, n int) Option {
	return func(c *Classifier) { c.TreeSelection = m; c.NumberSelectedTrees = n }
}
func NumWorkers(n int) Option  { return func(c *Classifier) { c.NumWorkers = n } }
func WithOOB() Option          { return func(c *Classifier) { c.ComputeOOB = true } }

// NewClassifier returns a configured forest. Defaults: NumberOfTrees=10,
// MinSamplesAtLeaf=1, MaxDepth=-1, QualityMetric=Gini,
// BaggingMethod=NormalBagging, BaggingFraction=1.0, Boost=false,
// TreeSelection=NoSelection, NumWorkers=1.
func NewClassifier(options ...Option) *Classifier {
	f := &Classifier{
		NumberOfTrees:    10,
		MinSamplesAtLeaf: 1,
		MaxDepth:         -1,
		QualityMetric:    tree.Gini,
		BaggingFraction:  1.0,
		NumWorkers:       1,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Fit builds NumberOfTrees trees from features X and string labels Y.
func (f *Classifier) Fit(X [][]float64, Y []string) error {
	if len(X) == 0 {
		return ErrNoTrainingData
	}

	yIDs, classes := encodeLabels(Y)
	f.Classes = classes
	f.nFeatures = len(X[0])
	n := len(yIDs)

	f.Trees = make([]*tree.Classifier, f.NumberOfTrees)
	inBags := make([][]bool, f.NumberOfTrees)

	instanceWeights := make([]float64, n)
	for i := range instanceWeights {
		instanceWeights[i] = 1.0 / float64(n)
	}

	buildOne := func(i int, weights []float64, seed int64) (*tree.Classifier, []bool) {
		bagInx, inBag := f.drawBag(n, yIDs, len(classes), rand.New(rand.NewSource(seed)))
		t := tree.NewClassifier(
			tree.MinSamplesAtLeaf(f.MinSamplesAtLeaf),
			tree.MaxDepth(f.MaxDepth),
			tree.Quality(f.QualityMetric),
			tree.RandomFeatureCount(f.RandomFeatures),
			tree.SelectFeaturesBy(f.FeatureSelection),
			tree.KDEAttributesPerSplit(f.KDEAttributesPerSplit),
			tree.RandState(seed),
		)
		t.FitInx(X, yIDs, weights, bagInx, classes)
		return t, inBag
	}

	if f.Boost {
		// AdaBoost reweights instances between trees, so trees must be
		// built in sequence.
		for i := 0; i < f.NumberOfTrees; i++ {
			t, inBag := buildOne(i, instanceWeights, time.Now().UnixNano()+int64(i))
			f.Trees[i] = t
			inBags[i] = inBag

			pred := t.Predict(X)
			err := weightedError(pred, yIDs, instanceWeights)
			instanceWeights = adaBoostReweight(pred, yIDs, instanceWeights, err)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(maxInt(1, f.NumWorkers))
		for i := 0; i < f.NumberOfTrees; i++ {
			i := i
			g.Go(func() error {
				t, inBag := buildOne(i, instanceWeights, time.Now().UnixNano()+int64(i)*2654435761)
				f.Trees[i] = t
				inBags[i] = inBag
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if f.TreeSelection == OOBSelection || f.ComputeOOB {
		f.selectByOOB(X, yIDs, inBags)
	}

	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func encodeLabels(Y []string) ([]int, []string) {
	ids := make([]int, len(Y))
	uniq := make(map[string]int)
	var classes []string
	for i, v := range Y {
		id, ok := uniq[v]
		if !ok {
			id = len(uniq)
			uniq[v] = id
			classes = append(classes, v)
		}
		ids[i] = id
	}
	return ids, classes
}

// drawBag draws the training bag for one tree according to f.BaggingMethod,
// returning the (possibly repeated) sample indices and the in-bag mask.
func (f *Classifier) drawBag(n int, yIDs []int, nClasses int, rng *rand.Rand) ([]int, []bool) {
	fraction := f.BaggingFraction
	if fraction <= 0 {
		fraction = 1.0
	}

	byClass := make([][]int, nClasses)
	for i, id := range yIDs {
		byClass[id] = append(byClass[id], i)
	}

	inBag := make([]bool, n)
	var inx []int

	switch f.BaggingMethod {
	case EqualizedBagging:
		perClass := int(math.Ceil(fraction * float64(n) / float64(nClasses)))
		for _, members := range byClass {
			if len(members) == 0 {
				continue
			}
			for i := 0; i < perClass; i++ {
				id := members[rng.Intn(len(members))]
				inx = append(inx, id)
				inBag[id] = true
			}
		}

	case WalkerBagging:
		classWeights := make([]float64, nClasses)
		for c, members := range byClass {
			if len(members) > 0 {
				classWeights[c] = 1.0 / float64(len(members))
			}
		}
		alias := newAliasTable(classWeights)
		total := int(fraction * float64(n))
		for i := 0; i < total; i++ {
			c := alias.draw(rng)
			members := byClass[c]
			if len(members) == 0 {
				continue
			}
			id := members[rng.Intn(len(members))]
			inx = append(inx, id)
			inBag[id] = true
		}

	default: // NormalBagging
		total := int(fraction * float64(n))
		for i := 0; i < total; i++ {
			id := rng.Intn(n)
			inx = append(inx, id)
			inBag[id] = true
		}
	}

	return inx, inBag
}

// weightedError returns the instance-weighted misclassification rate.
func weightedError(pred, actual []int, weights []float64) float64 {
	var num, den float64
	for i := range actual {
		den += weights[i]
		if pred[i] != actual[i] {
			num += weights[i]
		}
	}
	if den == 0 {
		return 0
	}
	e := num / den
	// clamp away from 0/1 to keep alpha finite
	if e <= 0 {
		e = 1e-10
	}
	if e >= 1 {
		e = 1 - 1e-10
	}
	return e
}

// adaBoostReweight applies the SAMME-style multiplier update: correct
// samples are scaled by exp(-alpha), misclassified by exp(alpha), and the
// result is renormalized to sum to 1.
func adaBoostReweight(pred, actual []int, weights []float64, e float64) []float64 {
	alpha := 0.5 * math.Log((1-e)/e)
	out := make([]float64, len(weights))
	var sum float64
	for i := range weights {
		if pred[i] == actual[i] {
			out[i] = weights[i] * math.Exp(-alpha)
		} else {
			out[i] = weights[i] * math.Exp(alpha)
		}
		sum += out[i]
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// Predict returns the plurality-vote class id for each row of X (not
// weighted by AdaBoost alpha).
func (f *Classifier) Predict(X [][]float64) []int {
	votes := make([][]int, len(X))
	for i := range votes {
		votes[i] = make([]int, len(f.Classes))
	}

	for _, t := range f.Trees {
		for i, class := range t.Predict(X) {
			votes[i][class]++
		}
	}

	out := make([]int, len(X))
	for i, v := range votes {
		out[i] = argmaxInt(v)
	}
	return out
}

// PredictNames returns the plurality-vote class name for each row of X.
func (f *Classifier) PredictNames(X [][]float64) []string {
	ids := f.Predict(X)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = f.Classes[id]
	}
	return out
}

// PredictProb returns the per-class vote fraction for each row of X.
func (f *Classifier) PredictProb(X [][]float64) [][]float64 {
	probs := make([][]float64, len(X))
	for i := range probs {
		probs[i] = make([]float64, len(f.Classes))
	}

	nTrees := float64(len(f.Trees))
	for _, t := range f.Trees {
		tProbs := t.PredictProb(X)
		for row := range tProbs {
			for class := range tProbs[row] {
				probs[row][class] += tProbs[row][class] / nTrees
			}
		}
	}
	return probs
}

// VarImp returns importance scores for the model, averaged across trees.
func (f *Classifier) VarImp() []float64 {
	imp := make([]float64, f.nFeatures)
	nTrees := float64(len(f.Trees))
	for _, t := range f.Trees {
		for inx, importance := range t.VarImp(f.nFeatures) {
			imp[inx] += importance / nTrees
		}
	}
	return imp
}

func argmaxInt(v []int) int {
	best, bestCt := 0, v[0]
	for i, ct := range v[1:] {
		if ct > bestCt {
			best, bestCt = i+1, ct
		}
	}
	return best
}

// selectByOOB scores each tree against the samples not in its bag, and,
// when TreeSelection is OOBSelection, keeps only the top NumberSelectedTrees
// by that score. Always records the oob-aggregated confusion matrix and
// accuracy.
func (f *Classifier) selectByOOB(X [][]float64, yIDs []int, inBags [][]bool) {
	n := len(yIDs)
	type scoredTree struct {
		t     *tree.Classifier
		score float64
	}
	scored := make([]scoredTree, len(f.Trees))

	votes := make([][]int, n)
	for i := range votes {
		votes[i] = make([]int, len(f.Classes))
	}

	for ti, t := range f.Trees {
		var oobIdx []int
		for i, in := range inBags[ti] {
			if !in {
				oobIdx = append(oobIdx, i)
			}
		}
		if len(oobIdx) == 0 {
			scored[ti] = scoredTree{t: t, score: 0}
			continue
		}

		rows := make([][]float64, len(oobIdx))
		for j, idx := range oobIdx {
			rows[j] = X[idx]
		}
		pred := t.Predict(rows)

		correct := 0
		for j, idx := range oobIdx {
			votes[idx][pred[j]]++
			if pred[j] == yIDs[idx] {
				correct++
			}
		}
		scored[ti] = scoredTree{t: t, score: float64(correct) / float64(len(oobIdx))}
	}

	confMat := make([][]int, len(f.Classes))
	for i := range confMat {
		confMat[i] = make([]int, len(f.Classes))
	}
	scoredSamples := 0
	correctSamples := 0
	f.OOBPredicted = f.OOBPredicted[:0]
	f.OOBActual = f.OOBActual[:0]
	for i, v := range votes {
		total := 0
		for _, ct := range v {
			total += ct
		}
		if total == 0 {
			continue
		}
		predicted := argmaxInt(v)
		confMat[yIDs[i]][predicted]++
		f.OOBPredicted = append(f.OOBPredicted, predicted)
		f.OOBActual = append(f.OOBActual, yIDs[i])
		scoredSamples++
		if predicted == yIDs[i] {
			correctSamples++
		}
	}
	f.ConfusionMatrix = confMat
	if scoredSamples > 0 {
		f.Accuracy = float64(correctSamples) / float64(scoredSamples)
	}

	if f.TreeSelection != OOBSelection {
		return
	}

	k := f.NumberSelectedTrees
	if k <= 0 || k >= len(scored) {
		return
	}

	// partial selection sort: move the k highest-scoring trees to the front
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < len(scored); j++ {
			if scored[j].score > scored[best].score {
				best = j
			}
		}
		scored[i], scored[best] = scored[best], scored[i]
	}

	kept := make([]*tree.Classifier, k)
	for i := 0; i < k; i++ {
		kept[i] = scored[i].t
	}
	f.Trees = kept
}

// Save persists a fitted forest via gob encoding.
func (f *Classifier) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(f)
}

// Load restores a forest previously written by Save.
func (f *Classifier) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(f)
}
