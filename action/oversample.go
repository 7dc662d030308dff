package action

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wlattner/automl/data"
)

// OversamplingType names the supported oversampling strategies.
type OversamplingType string

const (
	SMOTE               OversamplingType = "SMOTE"
	BSMOTE              OversamplingType = "BSMOTE"
	RandomOversampling  OversamplingType = "RandomOversampling"
)

// Oversampling synthesizes minority-class samples to rebalance a training
// package. Neighbor search uses data.Distance, which reproduces a
// documented upstream accumulator bug (see data.Distance).
type Oversampling struct {
	Type                   OversamplingType
	NeighboursNumber       int // k1, SMOTE/BSMOTE seed neighbors
	MNeighboursNumber      int // k2, BSMOTE danger-point neighborhood
	NNeighboursNumber      int // k3, reserved for future neighbor variants
	OversamplingPercentage float64
	Auto                   bool

	initValid bool
	rng       *rand.Rand

	minorityOutcome string
	synthetic       [][]float64 // generated feature rows
	featureNames    []string
}

// NewOversampling validates configuration: neighbour counts must be >= 1,
// type must be recognized.
func NewOversampling(typ OversamplingType, k1, k2, k3 int, pct float64, auto bool) *Oversampling {
	os := &Oversampling{
		Type: typ, NeighboursNumber: k1, MNeighboursNumber: k2, NNeighboursNumber: k3,
		OversamplingPercentage: pct, Auto: auto,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	os.initValid = k1 >= 1 && k2 >= 1 && k3 >= 1 && (typ == SMOTE || typ == BSMOTE || typ == RandomOversampling)
	return os
}

func (os *Oversampling) ID() string { return "OS" }

func (os *Oversampling) Build(train *data.Package) error {
	if !os.initValid {
		return nil
	}

	os.minorityOutcome = train.MinorityOutcome()
	os.featureNames = train.FDB.Header.Names

	keys := train.SampleKeys()
	var minorityRows [][]float64
	for _, k := range keys {
		label, _ := train.Label(k)
		if label != os.minorityOutcome {
			continue
		}
		row, err := train.FDB.NumericRow(k)
		if err != nil {
			os.initValid = false
			return nil
		}
		minorityRows = append(minorityRows, row)
	}
	if len(minorityRows) == 0 {
		os.initValid = false
		return nil
	}

	var allRows [][]float64
	var allLabels []string
	for _, k := range keys {
		label, _ := train.Label(k)
		row, _ := train.FDB.NumericRow(k)
		allRows = append(allRows, row)
		allLabels = append(allLabels, label)
	}

	var nSynthetic int
	if os.Auto {
		nSynthetic = train.MajorityCount() - train.MinorityCount()
		if nSynthetic < 0 {
			nSynthetic = 0
		}
	} else {
		perPoint := int(os.OversamplingPercentage / 100.0)
		nSynthetic = perPoint * len(minorityRows)
	}

	switch os.Type {
	case RandomOversampling:
		os.synthetic = os.buildRandomOversampling(minorityRows, nSynthetic)
	case SMOTE:
		os.synthetic = os.buildSMOTE(minorityRows, minorityRows, nSynthetic)
	case BSMOTE:
		danger := dangerPoints(minorityRows, allRows, allLabels, os.minorityOutcome, os.MNeighboursNumber)
		if len(danger) == 0 {
			danger = minorityRows
		}
		os.synthetic = os.buildSMOTE(danger, minorityRows, nSynthetic)
	}

	return nil
}

func (os *Oversampling) buildRandomOversampling(minority [][]float64, n int) [][]float64 {
	out := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		src := minority[os.rng.Intn(len(minority))]
		out = append(out, append([]float64(nil), src...))
	}
	return out
}

// buildSMOTE draws seed points from seeds, finds each seed's k1 nearest
// minority neighbors, and produces a synthetic point
// p_i + r * d(p, neighbor), applied uniformly to every feature coordinate
// (this deviates from textbook SMOTE, which scales the
// neighbor delta per coordinate; reproduced as implemented).
func (os *Oversampling) buildSMOTE(seeds, minorityPool [][]float64, n int) [][]float64 {
	if len(seeds) == 0 || len(minorityPool) < 2 {
		return nil
	}

	out := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		p := seeds[os.rng.Intn(len(seeds))]
		neighbors := kNearest(p, minorityPool, os.NeighboursNumber, true)
		if len(neighbors) == 0 {
			continue
		}
		neighbor := neighbors[os.rng.Intn(len(neighbors))]
		d := data.Distance(p, neighbor, nil)
		r := os.rng.Float64()
		step := r * d

		synth := make([]float64, len(p))
		for j := range p {
			synth[j] = p[j] + step
		}
		out = append(out, synth)
	}
	return out
}

// dangerPoints restricts seeds to minority points whose k2 nearest
// all-class neighbors are majority in count >= k2/2 but < k2.
func dangerPoints(minority, all [][]float64, allLabels []string, minorityOutcome string, k2 int) [][]float64 {
	if k2 <= 0 {
		return minority
	}

	var danger [][]float64
	for _, p := range minority {
		neighbors := kNearestLabeled(p, all, allLabels, k2)
		majorityCt := 0
		for _, n := range neighbors {
			if n.label != minorityOutcome {
				majorityCt++
			}
		}
		if majorityCt >= k2/2 && majorityCt < k2 {
			danger = append(danger, p)
		}
	}
	return danger
}

type labeledPoint struct {
	row   []float64
	label string
}

func kNearestLabeled(p []float64, all [][]float64, labels []string, k int) []labeledPoint {
	type scored struct {
		d   float64
		pt  labeledPoint
	}
	var cand []scored
	for i, row := range all {
		if sameRow(p, row) {
			continue
		}
		cand = append(cand, scored{d: data.Distance(p, row, nil), pt: labeledPoint{row: row, label: labels[i]}})
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].d < cand[j].d })
	if k > len(cand) {
		k = len(cand)
	}
	out := make([]labeledPoint, k)
	for i := 0; i < k; i++ {
		out[i] = cand[i].pt
	}
	return out
}

// kNearest returns the k nearest rows to p within pool. When excludeSelf is
// true, the pool entry that is p itself (the same slice) is skipped; other
// rows with equal values are kept.
func kNearest(p []float64, pool [][]float64, k int, excludeSelf bool) [][]float64 {
	type scored struct {
		d   float64
		row []float64
	}
	var cand []scored
	for _, row := range pool {
		if excludeSelf && len(p) > 0 && len(row) > 0 && &p[0] == &row[0] {
			continue
		}
		cand = append(cand, scored{d: data.Distance(p, row, nil), row: row})
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].d < cand[j].d })
	if k > len(cand) {
		k = len(cand)
	}
	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		out[i] = cand[i].row
	}
	return out
}

func sameRow(a, b []float64) bool {
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

// Run concatenates synthetic minority samples (keyed "Synthetic sample
// {uuid}") to pkg.
func (os *Oversampling) Run(pkg *data.Package) (*data.Package, error) {
	if !os.initValid || len(os.synthetic) == 0 {
		return pkg, nil
	}

	records := make(map[string][]string, len(os.synthetic))
	var synthKeys []string
	for _, row := range os.synthetic {
		key := fmt.Sprintf("Synthetic sample %s", uuid.NewString())
		strRow := make([]string, len(row))
		for i, v := range row {
			strRow[i] = fmt.Sprintf("%g", v)
		}
		records[key] = strRow
		synthKeys = append(synthKeys, key)
	}

	allKeys := append(append([]string(nil), pkg.FDB.Keys()...), synthKeys...)
	fdbRecords := make(map[string][]string, len(allKeys))
	for _, k := range pkg.FDB.Keys() {
		row, _ := pkg.FDB.Row(k)
		fdbRecords[k] = row
	}
	for k, row := range records {
		fdbRecords[k] = row
	}

	newFDB, err := data.NewTabularData(pkg.FDB.Header, fdbRecords, allKeys)
	if err != nil {
		return pkg, nil
	}

	withLabels, err := pkg.SyntheticLabelSubset(synthKeys, os.minorityOutcome)
	if err != nil {
		return pkg, nil
	}

	return data.NewPackage(newFDB, withLabels.LDB, pkg.LabelName)
}

func (os *Oversampling) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":                   os.Type,
		"neighboursNumber":       os.NeighboursNumber,
		"m_neighboursNumber":     os.MNeighboursNumber,
		"n_neighboursNumber":     os.NNeighboursNumber,
		"oversamplingPercentage": os.OversamplingPercentage,
		"auto":                   os.Auto,
		"generated":              len(os.synthetic),
	}
}
