package pipeline

import (
	"github.com/pkg/errors"

	"github.com/wlattner/automl/action"
	"github.com/wlattner/automl/analytics"
	"github.com/wlattner/automl/config"
	"github.com/wlattner/automl/data"
	"github.com/wlattner/automl/forest"
	"github.com/wlattner/automl/tree"
)

// ErrPipelineInvalid is wrapped by configuration/binding errors raised by
// a Model.
var ErrPipelineInvalid = errors.New("pipeline invalid")

// paramSpec is one enumerated hyperparameter belonging to an action in a
// Model's ordered action list.
type paramSpec struct {
	action string
	name   string
	values []interface{}
}

// Model composes an ordered preprocessing-action sequence (a creature from
// the pipeline tree) with a random-forest model, and exposes that
// sequence's enumerated hyperparameters as a single continuous vector in
// [0,1]^InputCount for the Nelder-Mead optimizer to search.
type Model struct {
	Names []string // ordered action ids, e.g. ["FS", "OS"]

	specs  []paramSpec
	chosen []interface{}

	forestOptions []forest.Option

	train        *data.Package
	actions      []action.Action
	preprocessed *data.Package

	Forest  *forest.Classifier
	Fitness float64
}

// NewModel builds a Model for creature (an ordered action-id sequence from
// RandomPath), sized against nFeatures for IF/FS ranges that scale with the
// feature count, and configured with the RF hyperparameters named under the
// Optimizer/* settings keys.
func NewModel(creature []string, nFeatures int, cfg config.RunConfig) *Model {
	m := &Model{Names: append([]string(nil), creature...)}
	for _, name := range creature {
		m.specs = append(m.specs, enumerateParams(name, nFeatures)...)
	}
	m.forestOptions = forestOptionsFromConfig(cfg)
	return m
}

// InputCount returns the total number of enumerated parameters across all
// actions in the pipeline.
func (m *Model) InputCount() int { return len(m.specs) }

// Bind sets the training package the pipeline is fit against.
func (m *Model) Bind(train *data.Package) { m.train = train }

// Set discretizes vec (first min-max normalizing it across its own
// coordinates) into one selected value per enumerated parameter, rebuilds
// the action list with those values, runs build/run over the bound
// training package, trains a fresh random forest on the result, and
// records the forest's out-of-bag ROC-distance as this vector's fitness.
func (m *Model) Set(vec []float64) error {
	if m.train == nil {
		return errors.Wrap(ErrPipelineInvalid, "Set called before Bind")
	}
	if len(vec) != len(m.specs) {
		return errors.Wrapf(ErrPipelineInvalid, "expected vector of length %d, got %d", len(m.specs), len(vec))
	}

	norm := minMaxNormalize(vec)
	m.chosen = make([]interface{}, len(m.specs))
	for i, spec := range m.specs {
		idx := int(float64(len(spec.values)-1) * norm[i])
		if idx < 0 {
			idx = 0
		}
		if idx >= len(spec.values) {
			idx = len(spec.values) - 1
		}
		m.chosen[i] = spec.values[idx]
	}

	actions, err := m.instantiateActions(nFeaturesOf(m.train))
	if err != nil {
		return err
	}
	m.actions = actions

	pkg := m.train
	for _, a := range actions {
		if err := a.Build(pkg); err != nil {
			return err
		}
		next, err := a.Run(pkg)
		if err != nil {
			return err
		}
		pkg = next
	}
	m.preprocessed = pkg

	X, Y, err := packageToXY(pkg)
	if err != nil {
		return err
	}

	rf := forest.NewClassifier(m.forestOptions...)
	if err := rf.Fit(X, Y); err != nil {
		return err
	}
	m.Forest = rf

	cm := analytics.New(rf.Classes)
	cm.Update(rf.OOBPredicted, rf.OOBActual)
	m.Fitness = cm.ROCDistanceScore()

	return nil
}

// Evaluate forwards feature rows to the trained random forest.
func (m *Model) Evaluate(X [][]float64) []int {
	return m.Forest.Predict(X)
}

// Actions returns the pipeline's current action instances, in order, as
// built by the most recent call to Set.
func (m *Model) Actions() []action.Action { return m.actions }

// FeatureSpaceActions returns the subset of the pipeline's action instances
// safe to apply to a validation package (feature-space only: FS, PCA).
// Oversampling/undersampling/isolation-forest must never be applied to
// validation data.
func (m *Model) FeatureSpaceActions() []action.FeatureSpaceAction {
	var out []action.FeatureSpaceAction
	for _, a := range m.actions {
		if fs, ok := a.(action.FeatureSpaceAction); ok {
			out = append(out, fs)
		}
	}
	return out
}

// PreprocessedTrainingPackage returns the package produced by running this
// model's full action list over the bound training data.
func (m *Model) PreprocessedTrainingPackage() *data.Package { return m.preprocessed }

// FeaturesAndLabels extracts the feature matrix and label column from pkg
// in sample-key order, for callers (e.g. validation scoring) that need raw
// X/Y outside of Set's own training path.
func FeaturesAndLabels(pkg *data.Package) ([][]float64, []string, error) {
	return packageToXY(pkg)
}

func minMaxNormalize(vec []float64) []float64 {
	if len(vec) == 0 {
		return vec
	}
	lo, hi := vec[0], vec[0]
	for _, v := range vec {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(vec))
	if hi == lo {
		return out // all coordinates map to 0
	}
	for i, v := range vec {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

func nFeaturesOf(pkg *data.Package) int {
	return len(pkg.FDB.Header.Names)
}

func packageToXY(pkg *data.Package) ([][]float64, []string, error) {
	keys := pkg.SampleKeys()
	X := make([][]float64, len(keys))
	Y := make([]string, len(keys))
	for i, k := range keys {
		row, err := pkg.FDB.NumericRow(k)
		if err != nil {
			return nil, nil, err
		}
		X[i] = row
		label, _ := pkg.Label(k)
		Y[i] = label
	}
	return X, Y, nil
}

// enumerateParams returns the enumerated hyperparameters for one action
// name, sized against nFeatures where the range scales with the feature
// count (IF.treeCount, FS.featureCount).
func enumerateParams(name string, nFeatures int) []paramSpec {
	switch name {
	case "FS":
		featureCounts := make([]interface{}, 0, nFeatures-2)
		for k := 3; k <= nFeatures; k++ {
			featureCounts = append(featureCounts, k)
		}
		if len(featureCounts) == 0 {
			featureCounts = []interface{}{nFeatures}
		}
		return []paramSpec{
			{action: "FS", name: "featureCount", values: featureCounts},
			{action: "FS", name: "rankMethod", values: []interface{}{"RSquared"}},
		}

	case "PCA":
		vals := make([]interface{}, 0, 10)
		for p := 90; p <= 99; p++ {
			vals = append(vals, p)
		}
		return []paramSpec{
			{action: "PCA", name: "preservationPercentage", values: vals},
		}

	case "OS":
		k1 := intRange(1, 9)
		k2 := intRange(1, 20)
		k3 := intRange(1, 10)
		pct := make([]interface{}, 0, 20)
		for p := 50; p <= 1000; p += 50 {
			pct = append(pct, p)
		}
		return []paramSpec{
			{action: "OS", name: "neighboursNumber", values: k1},
			{action: "OS", name: "m_neighboursNumber", values: k2},
			{action: "OS", name: "n_neighboursNumber", values: k3},
			{action: "OS", name: "oversamplingPercentage", values: pct},
			{action: "OS", name: "auto", values: []interface{}{true, false}},
			{action: "OS", name: "type", values: []interface{}{"SMOTE", "BSMOTE", "RandomOversampling"}},
		}

	case "US":
		return []paramSpec{
			{action: "US", name: "type", values: []interface{}{"RandomUndersampling", "TomekLink"}},
		}

	case "IF":
		return []paramSpec{
			{action: "IF", name: "treeCount", values: []interface{}{5 * nFeatures, 10 * nFeatures, 20 * nFeatures}},
		}

	default:
		return nil
	}
}

func intRange(lo, hi int) []interface{} {
	out := make([]interface{}, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

// instantiateActions builds one action.Action per entry in m.Names, reading
// each action's discretized parameter values from m.chosen in the order
// enumerateParams produced them.
func (m *Model) instantiateActions(nFeatures int) ([]action.Action, error) {
	actions := make([]action.Action, 0, len(m.Names))
	i := 0
	for _, name := range m.Names {
		specsForAction := enumerateParams(name, nFeatures)
		values := m.chosen[i : i+len(specsForAction)]
		i += len(specsForAction)

		a, err := buildAction(name, values)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func buildAction(name string, values []interface{}) (action.Action, error) {
	switch name {
	case "FS":
		return action.NewFeatureSelection(values[0].(int), values[1].(string)), nil
	case "PCA":
		return action.NewPCA(float64(values[0].(int))), nil
	case "OS":
		return action.NewOversampling(
			action.OversamplingType(values[5].(string)),
			values[0].(int), values[1].(int), values[2].(int),
			float64(values[3].(int)), values[4].(bool),
		), nil
	case "US":
		return action.NewUndersampling(action.UndersamplingType(values[0].(string))), nil
	case "IF":
		return action.NewIsolationForest(values[0].(int)), nil
	default:
		return nil, errors.Wrapf(ErrPipelineInvalid, "unknown action %q", name)
	}
}

// forestOptionsFromConfig translates the Optimizer/* settings keys into
// forest.Option values.
func forestOptionsFromConfig(cfg config.RunConfig) []forest.Option {
	numTrees, _ := cfg.Int("Optimizer/NumberOfTrees", 100)
	minLeaf, _ := cfg.Int("Optimizer/MinSamplesAtLeaf", 1)
	maxDepth, _ := cfg.Int("Optimizer/MaxDepth", -1)
	randomFeatures, _ := cfg.Int("Optimizer/RandomFeatures", 0)
	kdeAttrs, _ := cfg.Int("Optimizer/KDEAttributesPerSplit", 0)
	boosting, _ := cfg.Bool("Optimizer/Boosting", false)
	numberSelectedTrees, _ := cfg.Int("Optimizer/NumberSelectedTrees", 0)
	bagFraction, _ := cfg.Float("Optimizer/BagFraction", 1.0)

	opts := []forest.Option{
		forest.NumTrees(numTrees),
		forest.MinSamplesAtLeaf(minLeaf),
		forest.MaxDepth(maxDepth),
		forest.RandomFeatureCount(randomFeatures),
		forest.KDEAttributesPerSplit(kdeAttrs),
		forest.WithOOB(),
	}

	if cfg.String("Optimizer/QualityMetric", "Gini") == "Gain" {
		opts = append(opts, forest.Quality(tree.Gain))
	}
	if cfg.String("Optimizer/FeatureSelection", "Random") == "kde" {
		opts = append(opts, forest.SelectFeaturesBy(tree.KDEFeatureSelection))
	}
	if boosting {
		opts = append(opts, forest.AdaBoost())
	}

	switch cfg.String("Optimizer/BaggingMethod", "normal") {
	case "equalized":
		opts = append(opts, forest.Bagging(forest.EqualizedBagging, bagFraction))
	case "walker":
		opts = append(opts, forest.Bagging(forest.WalkerBagging, bagFraction))
	default:
		opts = append(opts, forest.Bagging(forest.NormalBagging, bagFraction))
	}

	switch cfg.String("Optimizer/TreeSelection", "none") {
	case "oob":
		opts = append(opts, forest.SelectTrees(forest.OOBSelection, numberSelectedTrees))
	case "kde":
		opts = append(opts, forest.SelectTrees(forest.KDESelection, numberSelectedTrees))
	}

	return opts
}
