// Package automl implements the evolutionary pipeline search (C9, the
// "CentralAI" engine): it builds the pipeline tree (C7), maintains a
// fitness-ordered population of scored pipeline models (C8, each
// hyperparameter-optimized by C6), evolves that population by crossover and
// mutation, and finally validates its best candidates on held-out data.
package automl

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/wlattner/automl/analytics"
	"github.com/wlattner/automl/config"
	"github.com/wlattner/automl/data"
	"github.com/wlattner/automl/optimize"
	"github.com/wlattner/automl/pipeline"
)

// ErrPipelineInfeasible marks a programmer error: an offspring that fails
// IsValidPath. Per the propagation policy this aborts the whole run rather
// than being treated as a recoverable condition.
var ErrPipelineInfeasible = errors.New("automl: offspring failed IsValidPath")

// bestFitnessThreshold is the fitness at or below which a scored candidate
// is cached as a best-pipeline contender during the search.
const bestFitnessThreshold = 0.1

// duplicateMutationRate is the mutation rate applied for the remainder of
// an iteration once populationSize consecutive offspring attempts have
// produced duplicates of existing population members.
const duplicateMutationRate = 0.6

// candidate is one scored pipeline in the population: a creature (ordered
// action-name path through the pipeline tree), the model that scored it,
// and its recorded fitness (lower is better; ROC-distance, see analytics).
type candidate struct {
	creature []string
	model    *pipeline.Model
	fitness  float64
}

// Search holds one fold's evolutionary run: its pipeline tree, RNG,
// hyperparameters, and population.
type Search struct {
	tree *pipeline.Node
	rng  *rand.Rand
	cfg  config.RunConfig

	offspringCount int
	iterationCount int
	mutationRate   float64

	nFeatures int

	population []*candidate
	best       []*candidate // cached best-pipeline contenders, see trackBest
}

// New builds a Search from cfg's Tree/* and CentralAi/* settings, sized
// against a training package with nFeatures columns.
func New(cfg config.RunConfig, nFeatures int) *Search {
	pool := cfg.StringList("Tree/pool", []string{"FS", "PCA", "OS", "US", "IF"})
	longNames := map[string]string{
		"FeatureSelection": "FS",
		"Oversampling":     "OS",
		"Undersampling":    "US",
		"IsolationForest":  "IF",
	}
	for i, name := range pool {
		if code, ok := longNames[name]; ok {
			pool[i] = code
		}
	}
	maxDepth, _ := cfg.Int("Tree/maxTreeDepth", 4)
	maxRepeat, _ := cfg.Int("Tree/maxAlgorithmRepetability", 2)
	offspringCount, _ := cfg.Int("CentralAi/offspringCount", 20)
	iterationCount, _ := cfg.Int("CentralAi/iterationCount", 10)
	mutationRate, _ := cfg.Float("CentralAi/mutationRate", 0.1)

	return &Search{
		tree:           pipeline.BuildTree(pool, maxDepth, maxRepeat),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:            cfg,
		offspringCount: offspringCount,
		iterationCount: iterationCount,
		mutationRate:   mutationRate,
		nFeatures:      nFeatures,
	}
}

// Result is the outcome of a fold's search: the best validated candidate's
// confusion-matrix cells, contributed to the aggregated performance report.
type Result struct {
	Creature   []string
	Model      *pipeline.Model // the winning candidate's fitted pipeline, for reporting
	Confusion  *analytics.ConfusionMatrix
	Validation float64 // validation-set fitness of the returned candidate
}

// Run executes the full search: initial population, iterationCount rounds
// of offspring production and best-N survival, then final validation of
// the cached best-pipeline contenders against val.
func (s *Search) Run(train, val *data.Package) (Result, error) {
	if err := s.initPopulation(train); err != nil {
		return Result{}, err
	}

	for i := 0; i < s.iterationCount; i++ {
		if err := s.iterate(train); err != nil {
			return Result{}, err
		}
	}

	return s.finalEvaluate(val)
}

// initPopulation generates offspringCount random creatures, scores each via
// scoreCreature, and sorts the result into a fitness-ordered population.
func (s *Search) initPopulation(train *data.Package) error {
	s.population = make([]*candidate, 0, s.offspringCount)
	for i := 0; i < s.offspringCount; i++ {
		creature := pipeline.RandomPath(s.tree, s.rng)
		c, err := s.scoreCreature(creature, train)
		if err != nil {
			return err
		}
		s.population = append(s.population, c)
		s.trackBest(c)
	}
	sortByFitness(s.population)
	return nil
}

// scoreCreature builds a pipeline.Model for creature, binds it to train, and
// runs the Nelder-Mead optimizer (C6) over its enumerated hyperparameter
// vector to find the creature's best achievable fitness.
func (s *Search) scoreCreature(creature []string, train *data.Package) (*candidate, error) {
	m := pipeline.NewModel(creature, s.nFeatures, s.cfg)
	m.Bind(train)

	n := m.InputCount()
	if n == 0 {
		// an empty action list (the bare root->leaf creature) has no
		// hyperparameters to search; score it once at an arbitrary point.
		if err := m.Set(nil); err != nil {
			return nil, err
		}
		return &candidate{creature: creature, model: m, fitness: m.Fitness}, nil
	}

	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = 0.5
	}

	obj := func(vec []float64) float64 {
		if err := m.Set(clampUnit(vec)); err != nil {
			return math.Sqrt2 // worst possible ROC-distance, push the optimizer away
		}
		return m.Fitness
	}

	res := optimize.Minimize(obj, x0, optimize.Config{
		Scale:         0.25,
		Tolerance:     1e-3,
		MaxIterations: 200 * n,
	})

	// obj may have last been called with a vertex other than the
	// optimizer's chosen result; pin the model (and its trained forest)
	// to that result before reporting its fitness.
	if err := m.Set(clampUnit(res.X)); err != nil {
		return nil, err
	}

	return &candidate{creature: creature, model: m, fitness: m.Fitness}, nil
}

// trackBest caches c if its fitness meets the threshold, or if it matches
// or improves the population's current best cached fitness.
func (s *Search) trackBest(c *candidate) {
	if c.fitness <= bestFitnessThreshold {
		s.best = append(s.best, c)
		return
	}
	if len(s.best) == 0 {
		return
	}
	currentBest := s.best[0].fitness
	for _, b := range s.best {
		if b.fitness < currentBest {
			currentBest = b.fitness
		}
	}
	if c.fitness <= currentBest {
		s.best = append(s.best, c)
	}
}

// iterate produces populationSize offspring by crossover+mutation, merges
// them with the current population, and truncates to the best N.
func (s *Search) iterate(train *data.Package) error {
	populationSize := len(s.population)
	offspring := make([]*candidate, 0, populationSize)

	rate := s.mutationRate
	duplicateStreak := 0

	for len(offspring) < populationSize {
		parentA, parentB := s.selectParents()
		creature := s.crossover(parentA.creature, parentB.creature, rate)

		if !pipeline.IsValidPath(s.tree, creature) {
			return errors.Wrapf(ErrPipelineInfeasible, "creature %v", creature)
		}

		if isDuplicate(creature, s.population) || isDuplicate(creature, offspring) {
			duplicateStreak++
			if duplicateStreak >= populationSize {
				rate = duplicateMutationRate
			}
			continue
		}
		duplicateStreak = 0

		c, err := s.scoreCreature(creature, train)
		if err != nil {
			return err
		}
		offspring = append(offspring, c)
		s.trackBest(c)
	}

	merged := append(append([]*candidate(nil), s.population...), offspring...)
	sortByFitness(merged)
	if len(merged) > populationSize {
		merged = merged[:populationSize]
	}
	s.population = merged
	return nil
}

// selectParents shuffles the population, splits it into two equal halves,
// and returns the fittest member of each half.
func (s *Search) selectParents() (*candidate, *candidate) {
	shuffled := append([]*candidate(nil), s.population...)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	mid := len(shuffled) / 2
	if mid == 0 {
		mid = 1
	}
	first, second := shuffled[:mid], shuffled[mid:]
	if len(second) == 0 {
		second = shuffled[:mid]
	}

	return fittestOf(first), fittestOf(second)
}

func fittestOf(cs []*candidate) *candidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.fitness < best.fitness {
			best = c
		}
	}
	return best
}

// crossover walks parentA/parentB position by position: where both parents
// have a gene at a position, chooseParent picks one uniformly at random;
// where only one has a gene, it contributes it. At each position mutation
// (probability rate) replaces the inherited node with a uniformly random
// sibling drawn from the tree's legal children at that position.
func (s *Search) crossover(parentA, parentB []string, rate float64) []string {
	maxLen := len(parentA)
	if len(parentB) > maxLen {
		maxLen = len(parentB)
	}

	child := make([]string, 0, maxLen)
	for pos := 0; pos < maxLen; pos++ {
		var gene string
		hasA, hasB := pos < len(parentA), pos < len(parentB)
		switch {
		case hasA && hasB:
			if s.rng.Intn(2) == 0 {
				gene = parentA[pos]
			} else {
				gene = parentB[pos]
			}
		case hasA:
			gene = parentA[pos]
		case hasB:
			gene = parentB[pos]
		default:
			continue
		}

		if s.rng.Float64() < rate {
			siblings := pipeline.SiblingsOf(s.tree, child, pos)
			if len(siblings) > 0 {
				sibling := siblings[s.rng.Intn(len(siblings))]
				if sibling.Name == pipeline.AddedLeaf {
					break
				}
				gene = sibling.Name
			}
		}

		child = append(child, gene)
	}
	return child
}

func isDuplicate(creature []string, population []*candidate) bool {
	for _, c := range population {
		if sameCreature(creature, c.creature) {
			return true
		}
	}
	return false
}

func sameCreature(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortByFitness(cs []*candidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].fitness < cs[j].fitness })
}

func clampUnit(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		switch {
		case v < 0:
			out[i] = 0
		case v > 1:
			out[i] = 1
		default:
			out[i] = v
		}
	}
	return out
}

// finalEvaluate retrains nothing further: each cached best candidate's
// pipeline model is already fit on the preprocessed training package. This
// applies only the candidate's feature-space actions (FS, PCA) to val,
// scores the resulting predictions, and returns the candidate with the
// best validation score.
func (s *Search) finalEvaluate(val *data.Package) (Result, error) {
	if len(s.best) == 0 {
		// no candidate ever met the threshold; fall back to the
		// population's single fittest member.
		if len(s.population) == 0 {
			return Result{}, errors.New("automl: empty population, nothing to validate")
		}
		s.best = []*candidate{fittestOf(s.population)}
	}

	var bestResult Result
	bestScore := math.Inf(1)

	for _, c := range s.best {
		pkg := val
		for _, a := range c.model.FeatureSpaceActions() {
			next, err := a.Run(pkg)
			if err != nil {
				return Result{}, err
			}
			pkg = next
		}

		cm, score, err := evaluateOnValidation(c.model, pkg)
		if err != nil {
			return Result{}, err
		}

		if score < bestScore {
			bestScore = score
			bestResult = Result{Creature: c.creature, Model: c.model, Confusion: cm, Validation: score}
		}
	}

	return bestResult, nil
}

// evaluateOnValidation predicts pkg with m's trained forest and scores the
// result, returning the populated confusion matrix alongside its
// ROC-distance (lower is better; reproduces the same always-ROC-distance
// behavior pipeline.Model.Set uses for training-time fitness).
func evaluateOnValidation(m *pipeline.Model, pkg *data.Package) (*analytics.ConfusionMatrix, float64, error) {
	X, Y, err := pipeline.FeaturesAndLabels(pkg)
	if err != nil {
		return nil, 0, err
	}

	classes := m.Forest.Classes
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	actual := make([]int, len(Y))
	for i, label := range Y {
		actual[i] = classIndex[label]
	}
	predicted := m.Forest.Predict(X)

	cm := analytics.New(classes)
	cm.Update(predicted, actual)
	return cm, cm.ROCDistanceScore(), nil
}
