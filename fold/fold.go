// Package fold implements the stratified Monte-Carlo fold generator (C2):
// patient-granularity train/validation splits that guarantee both classes
// are present on each side.
package fold

import (
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"github.com/wlattner/automl/data"
)

// ErrDataInvalid is returned when a data package cannot yield any valid
// fold (e.g. too few patients in one subgroup).
var ErrDataInvalid = errors.New("fold: data invalid")

// patientSplitToken is the delimiter used to derive a patient key from a
// sample key: everything before the first occurrence is the patient.
const patientSplitToken = "/Scan-"

// Fold is a pair of disjoint training/validation data packages.
type Fold struct {
	Train *data.Package
	Val   *data.Package
}

// Generator produces stratified Monte-Carlo folds at patient granularity.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded from seed. Pass a nondeterministic
// seed (e.g. time.Now().UnixNano()) for production use, or a fixed seed for
// reproducible tests.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func patientOf(key string) string {
	if i := strings.Index(key, patientSplitToken); i >= 0 {
		return key[:i]
	}
	return key
}

// groupPatients partitions pkg's sample keys into minority/majority patient
// sets and records every sample key belonging to each patient.
func groupPatients(pkg *data.Package) (minorityPatients, majorityPatients []string, keysOf map[string][]string) {
	keysOf = make(map[string][]string)
	minoritySet := make(map[string]bool)
	majoritySet := make(map[string]bool)

	for _, k := range pkg.SampleKeys() {
		label, _ := pkg.Label(k)
		patient := patientOf(k)
		keysOf[patient] = append(keysOf[patient], k)

		if label == pkg.MinorityOutcome() {
			minoritySet[patient] = true
		} else {
			majoritySet[patient] = true
		}
	}

	for p := range minoritySet {
		minorityPatients = append(minorityPatients, p)
	}
	for p := range majoritySet {
		majorityPatients = append(majorityPatients, p)
	}
	return
}

// Generate produces up to foldCount unique folds from pkg. validationSize is
// accepted for call-site symmetry but is overridden by the derived rule:
// V = 2 * ceil(0.2 * |minority_patients|) (at least 1 minority patient in
// validation).
func (g *Generator) Generate(pkg *data.Package, validationSize, foldCount int) ([]Fold, error) {
	_ = validationSize // overridden by the derived rule above

	minorityPatients, majorityPatients, keysOf := groupPatients(pkg)
	if len(minorityPatients) == 0 || len(majorityPatients) == 0 {
		return nil, errors.Wrap(ErrDataInvalid, "need at least one minority and one majority patient")
	}

	vMinor := int(math.Ceil(0.2 * float64(len(minorityPatients))))
	if vMinor < 1 {
		vMinor = 1
	}
	v := 2 * vMinor

	if vMinor >= len(minorityPatients) {
		return nil, errors.Wrap(ErrDataInvalid, "not enough minority patients to hold any out for training")
	}
	if vMinor >= len(majorityPatients) {
		return nil, errors.Wrap(ErrDataInvalid, "not enough majority patients to hold any out for training")
	}

	var folds []Fold
	seenValidation := make(map[string]bool)

	maxAttempts := 2 * foldCount
	for attempt := 0; attempt < maxAttempts && len(folds) < foldCount; attempt++ {
		minorityShuffled := shuffled(g.rng, minorityPatients)
		majorityShuffled := shuffled(g.rng, majorityPatients)

		valPatients := append(append([]string(nil), minorityShuffled[:vMinor]...), majorityShuffled[:vMinor]...)
		trainPatients := append(append([]string(nil), minorityShuffled[vMinor:]...), majorityShuffled[vMinor:]...)

		valSig := signature(valPatients)
		if seenValidation[valSig] {
			continue
		}

		trainMinor, trainMajor := 0, 0
		for _, p := range trainPatients {
			for _, k := range keysOf[p] {
				label, _ := pkg.Label(k)
				if label == pkg.MinorityOutcome() {
					trainMinor++
				} else {
					trainMajor++
				}
			}
		}
		if trainMinor < v || trainMajor < v {
			continue
		}

		valMinorPresent, valMajorPresent := false, false
		var valKeys, trainKeys []string
		for _, p := range valPatients {
			for _, k := range keysOf[p] {
				label, _ := pkg.Label(k)
				if label == pkg.MinorityOutcome() {
					valMinorPresent = true
				} else {
					valMajorPresent = true
				}
				valKeys = append(valKeys, k)
			}
		}
		if !valMinorPresent || !valMajorPresent {
			continue
		}
		for _, p := range trainPatients {
			trainKeys = append(trainKeys, keysOf[p]...)
		}

		trainPkg, err := subsetByKeys(pkg, trainKeys)
		if err != nil {
			continue
		}
		valPkg, err := subsetByKeys(pkg, valKeys)
		if err != nil {
			continue
		}

		seenValidation[valSig] = true
		folds = append(folds, Fold{Train: trainPkg, Val: valPkg})
	}

	if len(folds) == 0 {
		return nil, errors.Wrap(ErrDataInvalid, "no valid fold could be produced")
	}

	return folds, nil
}

func subsetByKeys(pkg *data.Package, keys []string) (*data.Package, error) {
	p, err := pkg.SampleSubset(keys)
	if err != nil {
		return nil, err
	}
	return p.LabelSubset(keys)
}

func shuffled(r *rand.Rand, s []string) []string {
	cp := append([]string(nil), s...)
	r.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp
}

func signature(patients []string) string {
	cp := append([]string(nil), patients...)
	// order-independent signature
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j] < cp[j-1]; j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}
	return strings.Join(cp, "|")
}
