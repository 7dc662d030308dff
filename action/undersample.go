package action

import (
	"math/rand"
	"time"

	"github.com/wlattner/automl/data"
)

// UndersamplingType names the supported undersampling strategies.
type UndersamplingType string

const (
	RandomUndersampling UndersamplingType = "RandomUndersampling"
	TomekLink           UndersamplingType = "TomekLink"
)

// Undersampling removes majority-class samples to rebalance a training
// package, either by random draw or by dropping the majority member of
// every Tomek link.
type Undersampling struct {
	Type UndersamplingType

	initValid bool
	rng       *rand.Rand
	dropKeys  map[string]bool
}

// NewUndersampling validates that Type is recognized.
func NewUndersampling(typ UndersamplingType) *Undersampling {
	u := &Undersampling{Type: typ, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	u.initValid = typ == RandomUndersampling || typ == TomekLink
	return u
}

func (u *Undersampling) ID() string { return "US" }

func (u *Undersampling) Build(train *data.Package) error {
	if !u.initValid {
		return nil
	}

	keys := train.SampleKeys()
	minority := train.MinorityOutcome()
	majority := train.MajorityOutcome()

	u.dropKeys = make(map[string]bool)

	switch u.Type {
	case RandomUndersampling:
		var majorityKeys []string
		for _, k := range keys {
			if label, _ := train.Label(k); label == majority {
				majorityKeys = append(majorityKeys, k)
			}
		}
		toDrop := train.MajorityCount() - train.MinorityCount()
		if toDrop < 0 {
			toDrop = 0
		}
		shuffled := append([]string(nil), majorityKeys...)
		u.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for i := 0; i < toDrop && i < len(shuffled); i++ {
			u.dropKeys[shuffled[i]] = true
		}

	case TomekLink:
		var minorityKeys, majorityKeys []string
		rows := make(map[string][]float64, len(keys))
		for _, k := range keys {
			row, err := train.FDB.NumericRow(k)
			if err != nil {
				u.initValid = false
				return nil
			}
			rows[k] = row
			if label, _ := train.Label(k); label == minority {
				minorityKeys = append(minorityKeys, k)
			} else {
				majorityKeys = append(majorityKeys, k)
			}
		}

		for _, a := range minorityKeys {
			for _, b := range majorityKeys {
				dAB := data.Distance(rows[a], rows[b], nil)
				if isTomekLink(a, b, dAB, keys, rows) {
					u.dropKeys[b] = true
				}
			}
		}
	}

	return nil
}

// isTomekLink reports whether (a, b) is a Tomek link: no third sample c
// satisfies d(a,c) < d(a,b) AND d(b,c) < d(a,b).
func isTomekLink(a, b string, dAB float64, allKeys []string, rows map[string][]float64) bool {
	for _, c := range allKeys {
		if c == a || c == b {
			continue
		}
		dAC := data.Distance(rows[a], rows[c], nil)
		dBC := data.Distance(rows[b], rows[c], nil)
		if dAC < dAB && dBC < dAB {
			return false
		}
	}
	return true
}

// Run returns pkg with the dropped majority keys removed.
func (u *Undersampling) Run(pkg *data.Package) (*data.Package, error) {
	if !u.initValid || len(u.dropKeys) == 0 {
		return pkg, nil
	}

	var keep []string
	for _, k := range pkg.FDB.Keys() {
		if !u.dropKeys[k] {
			keep = append(keep, k)
		}
	}
	return subsetByKeys(pkg, keep)
}

func subsetByKeys(pkg *data.Package, keys []string) (*data.Package, error) {
	sub, err := pkg.SampleSubset(keys)
	if err != nil {
		return nil, err
	}
	return sub.LabelSubset(keys)
}

func (u *Undersampling) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":    u.Type,
		"dropped": len(u.dropKeys),
	}
}
