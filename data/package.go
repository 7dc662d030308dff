package data

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Package pairs a feature table (FDB) and a label table (LDB) under a
// chosen label column. Derived attributes are computed once at
// construction and cached.
type Package struct {
	FDB *TabularData
	LDB *TabularData

	LabelName string

	labelIndex    int
	labelOutcomes []string // sorted, non-"NA"
	sampleKeys    []string // FDB.keys ∩ LDB.keys with non-"NA" label

	minorityOutcome string
	majorityOutcome string
	minorityCount   int
	majorityCount   int
}

// NewPackage builds a Package from FDB, LDB and a label column name,
// computing and caching labelIndex, labelOutcomes, sampleKeys and the
// minority/majority class assignment. Ties between class counts are
// resolved by label-outcome insertion (sorted) order: the earlier outcome
// is treated as minority.
func NewPackage(fdb, ldb *TabularData, labelName string) (*Package, error) {
	labelIndex := ldb.Header.IndexOf(labelName)
	if labelIndex < 0 {
		return nil, errors.Wrapf(ErrDataInvalid, "label column %q not found", labelName)
	}

	p := &Package{
		FDB:       fdb,
		LDB:       ldb,
		LabelName: labelName,
		labelIndex: labelIndex,
	}

	outcomeSet := make(map[string]bool)
	fdbKeys := make(map[string]bool, len(fdb.keys))
	for _, k := range fdb.keys {
		fdbKeys[k] = true
	}

	counts := make(map[string]int)
	var common []string
	for _, k := range ldb.keys {
		if !fdbKeys[k] {
			continue
		}
		label, _ := ldb.Value(k, labelIndex)
		if naTokens[label] || label == "" {
			continue
		}
		common = append(common, k)
		outcomeSet[label] = true
		counts[label]++
	}
	sort.Strings(common)
	p.sampleKeys = common

	outcomes := make([]string, 0, len(outcomeSet))
	for o := range outcomeSet {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	p.labelOutcomes = outcomes

	if len(p.sampleKeys) == 0 {
		return nil, errors.Wrap(ErrDataInvalid, "empty common-key intersection")
	}
	if len(outcomes) < 2 {
		return nil, errors.Wrapf(ErrDataInvalid, "need >= 2 label outcomes, got %d", len(outcomes))
	}

	// minority = fewer samples; ties resolved by outcome insertion (sorted) order
	minOutcome, maxOutcome := outcomes[0], outcomes[1]
	if counts[minOutcome] > counts[maxOutcome] {
		minOutcome, maxOutcome = maxOutcome, minOutcome
	}
	for _, o := range outcomes[2:] {
		if counts[o] < counts[minOutcome] {
			minOutcome = o
		}
		if counts[o] > counts[maxOutcome] {
			maxOutcome = o
		}
	}
	p.minorityOutcome = minOutcome
	p.majorityOutcome = maxOutcome
	p.minorityCount = counts[minOutcome]
	p.majorityCount = counts[maxOutcome]

	return p, nil
}

// SampleKeys returns FDB.keys ∩ LDB.keys with non-"NA" label, sorted.
func (p *Package) SampleKeys() []string { return append([]string(nil), p.sampleKeys...) }

// LabelOutcomes returns the sorted unique non-"NA" label outcomes.
func (p *Package) LabelOutcomes() []string { return append([]string(nil), p.labelOutcomes...) }

// LabelIndex returns the column position of LabelName in LDB.
func (p *Package) LabelIndex() int { return p.labelIndex }

// Label returns the label outcome for key.
func (p *Package) Label(key string) (string, bool) {
	return p.LDB.Value(key, p.labelIndex)
}

// MinorityOutcome / MajorityOutcome name the minority and majority classes.
func (p *Package) MinorityOutcome() string { return p.minorityOutcome }
func (p *Package) MajorityOutcome() string { return p.majorityOutcome }

// MinorityCount returns the sample count of the minority class.
func (p *Package) MinorityCount() int { return p.minorityCount }

// MajorityCount returns the sample count of the majority class.
func (p *Package) MajorityCount() int { return p.majorityCount }

// IsBalanced reports whether |maj-min| / ((maj+min)/2) * 100 < 20.
//
// Returns ErrDataInvalid unless exactly two label outcomes are present.
func (p *Package) IsBalanced() (bool, error) {
	if len(p.labelOutcomes) != 2 {
		return false, errors.Wrapf(ErrDataInvalid, "isBalanced requires exactly 2 label outcomes, got %d", len(p.labelOutcomes))
	}
	maj, min := float64(p.majorityCount), float64(p.minorityCount)
	pct := math.Abs(maj-min) / ((maj + min) / 2.0) * 100.0
	return pct < 20.0, nil
}

// FeatureSubset returns a new Package whose FDB is restricted to the named
// columns (in the order given), keeping LDB and LabelName unchanged.
// FeatureSubset(FDB.HeaderNames()) is a round trip: the resulting FDB
// equals the original.
func (p *Package) FeatureSubset(names []string) (*Package, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j := p.FDB.Header.IndexOf(n)
		if j < 0 {
			return nil, errors.Wrapf(ErrDataInvalid, "feature %q not found", n)
		}
		idx[i] = j
	}

	newHeader := Header{Names: append([]string(nil), names...)}
	for _, j := range idx {
		newHeader.Types = append(newHeader.Types, p.FDB.Header.Types[j])
	}

	records := make(map[string][]string, len(p.FDB.keys))
	for _, k := range p.FDB.keys {
		row, _ := p.FDB.Row(k)
		newRow := make([]string, len(idx))
		for i, j := range idx {
			newRow[i] = row[j]
		}
		records[k] = newRow
	}

	newFDB, err := NewTabularData(newHeader, records, p.FDB.keys)
	if err != nil {
		return nil, err
	}

	return NewPackage(newFDB, p.LDB, p.LabelName)
}

// SampleSubset returns a new Package whose FDB and sampleKeys are
// restricted to keys.
func (p *Package) SampleSubset(keys []string) (*Package, error) {
	records := make(map[string][]string, len(keys))
	for _, k := range keys {
		row, ok := p.FDB.Row(k)
		if !ok {
			continue
		}
		records[k] = row
	}
	newFDB, err := NewTabularData(p.FDB.Header, records, keys)
	if err != nil {
		return nil, err
	}
	return NewPackage(newFDB, p.LDB, p.LabelName)
}

// LabelSubset returns a new Package whose LDB is restricted to keys.
func (p *Package) LabelSubset(keys []string) (*Package, error) {
	records := make(map[string][]string, len(keys))
	for _, k := range keys {
		row, ok := p.LDB.Row(k)
		if !ok {
			continue
		}
		records[k] = row
	}
	newLDB, err := NewTabularData(p.LDB.Header, records, keys)
	if err != nil {
		return nil, err
	}
	return NewPackage(p.FDB, newLDB, p.LabelName)
}

// SyntheticLabelSubset returns a new Package whose LDB additionally assigns
// label to every key in synthKeys (used by Oversampling, which fabricates
// feature rows that need a label before the forest can train on them).
func (p *Package) SyntheticLabelSubset(synthKeys []string, label string) (*Package, error) {
	records := make(map[string][]string, len(p.LDB.keys)+len(synthKeys))
	for _, k := range p.LDB.keys {
		row, _ := p.LDB.Row(k)
		records[k] = row
	}
	row := make([]string, len(p.LDB.Header.Names))
	for i := range row {
		row[i] = label
	}
	synthRow := make([]string, len(p.LDB.Header.Names))
	copy(synthRow, row)
	synthRow[p.labelIndex] = label

	order := append([]string(nil), p.LDB.keys...)
	for _, k := range synthKeys {
		records[k] = synthRow
		order = append(order, k)
	}

	newLDB, err := NewTabularData(p.LDB.Header, records, order)
	if err != nil {
		return nil, err
	}
	return NewPackage(p.FDB, newLDB, p.LabelName)
}

// Normalize returns a new Package whose FDB columns are z-scored using the
// population mean and the non-standard standardDeviation below (no division
// by N). This reproduces a documented upstream quirk: the resulting column
// is scaled by 1/sqrt(N) relative to a textbook z-score, because
// standardDeviation returns sqrt(sum((x-mean)^2)) without the /N term.
func (p *Package) Normalize() (*Package, error) {
	keys := p.FDB.keys
	nCols := len(p.FDB.Header.Names)

	means := make([]float64, nCols)
	cols := make([][]float64, nCols)
	for c := 0; c < nCols; c++ {
		cols[c] = make([]float64, len(keys))
	}

	for i, k := range keys {
		row, err := p.FDB.NumericRow(k)
		if err != nil {
			return nil, err
		}
		for c, v := range row {
			cols[c][i] = v
			means[c] += v
		}
	}
	for c := range means {
		means[c] = mean(means[c], len(keys))
	}

	records := make(map[string][]string, len(keys))
	for i, k := range keys {
		newRow := make([]string, nCols)
		for c := 0; c < nCols; c++ {
			sd := standardDeviationFloat(cols[c], means[c])
			var z float64
			if sd == 0 {
				z = 0
			} else {
				z = (cols[c][i] - means[c]) / sd
			}
			newRow[c] = fmt.Sprintf("%g", z)
		}
		records[k] = newRow
	}

	newFDB, err := NewTabularData(p.FDB.Header, records, keys)
	if err != nil {
		return nil, err
	}
	return NewPackage(newFDB, p.LDB, p.LabelName)
}

// mean computes a population mean from a running sum and count.
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// standardDeviationFloat reproduces DataPackage::standardDeviation: the sum
// of squared deviations, WITHOUT dividing by N. Documented upstream bug,
// reproduced intentionally.
func standardDeviationFloat(col []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range col {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Distance reproduces DataPackage::distance(QVector<double>&, QVector<double>&):
// each iteration overwrites the running accumulator with the current
// coordinate's squared difference, then doubles it
// (`substractedSquared = pow(b[i]-a[i], 2); substractedSquared +=
// substractedSquared;` in the original), discarding every coordinate but
// the last one considered. This is a documented suspected bug; callers
// (SMOTE/Tomek neighbor search) reproduce it as-is. When mask is non-nil,
// only coordinates where mask[i] is true contribute, in the order they
// appear, and only the last such coordinate survives.
func Distance(a, b []float64, mask []bool) float64 {
	substractedSquared := 0.0
	for i := range a {
		if mask != nil && !mask[i] {
			continue
		}
		d := b[i] - a[i]
		substractedSquared = d * d
		substractedSquared += substractedSquared
	}
	return math.Sqrt(substractedSquared)
}
