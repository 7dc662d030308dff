package forest

import "math/rand"

// aliasTable implements Walker's alias method for O(1) sampling from a
// discrete distribution over a small number of categories (here, classes).
type aliasTable struct {
	prob  []float64
	alias []int
}

// newAliasTable builds an alias table from unnormalized weights. Categories
// with zero weight are never drawn.
func newAliasTable(weights []float64) *aliasTable {
	n := len(weights)
	total := 0.0
	for _, w := range weights {
		total += w
	}

	scaled := make([]float64, n)
	if total > 0 {
		for i, w := range weights {
			scaled[i] = w * float64(n) / total
		}
	}

	prob := make([]float64, n)
	alias := make([]int, n)

	var small, large []int
	for i, p := range scaled {
		if p < 1.0 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		prob[s] = scaled[s]
		alias[s] = l

		scaled[l] = scaled[l] + scaled[s] - 1.0
		if scaled[l] < 1.0 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}

	for _, l := range large {
		prob[l] = 1.0
	}
	for _, s := range small {
		prob[s] = 1.0
	}

	return &aliasTable{prob: prob, alias: alias}
}

// draw returns a category index in [0, n).
func (a *aliasTable) draw(rng *rand.Rand) int {
	n := len(a.prob)
	if n == 0 {
		return 0
	}
	i := rng.Intn(n)
	if rng.Float64() < a.prob[i] {
		return i
	}
	return a.alias[i]
}
