package action

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wlattner/automl/data"
)

// FeatureSelection selects the top FeatureCount columns by R² against the
// numeric-encoded label (label outcomes enumerated in their sorted order,
// 0, 1, ...).
type FeatureSelection struct {
	FeatureCount int
	RankMethod   string // only "RSquared" is implemented

	initValid bool
	selected  []string // column names kept, in descending-R² order
	scores    map[string]float64
}

// NewFeatureSelection validates the configuration (ConfigInvalid if
// featureCount < 2 or rankMethod unsupported) and returns a FeatureSelection
// ready for Build.
func NewFeatureSelection(featureCount int, rankMethod string) *FeatureSelection {
	fs := &FeatureSelection{FeatureCount: featureCount, RankMethod: rankMethod}
	fs.initValid = featureCount >= 2 && rankMethod == "RSquared"
	return fs
}

func (fs *FeatureSelection) ID() string { return "FS" }

func (fs *FeatureSelection) Build(train *data.Package) error {
	if !fs.initValid {
		return nil
	}

	outcomes := train.LabelOutcomes()
	outcomeID := make(map[string]float64, len(outcomes))
	for i, o := range outcomes {
		outcomeID[o] = float64(i)
	}

	keys := train.SampleKeys()
	y := make([]float64, len(keys))
	for i, k := range keys {
		label, _ := train.Label(k)
		y[i] = outcomeID[label]
	}

	names := train.FDB.Header.Names
	scores := make(map[string]float64, len(names))

	for colIdx, name := range names {
		x := make([]float64, len(keys))
		for i, k := range keys {
			row, err := train.FDB.NumericRow(k)
			if err != nil {
				fs.initValid = false
				return nil
			}
			x[i] = row[colIdx]
		}
		r := stat.Correlation(x, y, nil)
		scores[name] = r * r
	}
	fs.scores = scores

	ranked := append([]string(nil), names...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	k := fs.FeatureCount
	if k > len(ranked) {
		k = len(ranked)
	}
	fs.selected = append([]string(nil), ranked[:k]...)

	return nil
}

// Run returns pkg restricted to the selected columns. Passes pkg through
// unchanged if Build never produced a valid selection (ConfigInvalid).
func (fs *FeatureSelection) Run(pkg *data.Package) (*data.Package, error) {
	if !fs.initValid || len(fs.selected) == 0 {
		return pkg, nil
	}
	return pkg.FeatureSubset(fs.selected)
}

func (fs *FeatureSelection) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"featureCount": fs.FeatureCount,
		"rankMethod":   fs.RankMethod,
		"selected":     fs.selected,
	}
}

func (fs *FeatureSelection) IsFeatureSpaceAction() bool { return true }
