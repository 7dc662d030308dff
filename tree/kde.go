package tree

import "math"

// kdeBestFeature implements the KDEFeatureSelection split-attribute
// strategy: draw KDEAttributesPerSplit candidate columns at random, and
// keep the one whose per-label kernel density estimates overlap the
// least, i.e. the column that best separates the label groups by
// density rather than by a single threshold.
//
// Density is estimated with a Gaussian kernel and Silverman's
// rule-of-thumb bandwidth, evaluated at a fixed grid spanning the
// column's observed range. Overlap is the grid-summed min of the two
// (normalized) per-label densities; lower overlap wins.
func (c *Classifier) kdeBestFeature(X [][]float64, y []int, inx []int, nFeatures int) int {
	k := c.KDEAttributesPerSplit
	if k <= 0 {
		k = defaultRandomFeatures(nFeatures)
	}
	candidates := sampleFeatures(c.randState, nFeatures, k)

	best := candidates[0]
	bestOverlap := math.Inf(1)

	for _, f := range candidates {
		overlap := kdeOverlap(X, y, inx, f)
		if overlap < bestOverlap {
			bestOverlap = overlap
			best = f
		}
	}

	return best
}

const kdeGridPoints = 64

// kdeOverlap estimates the density overlap of column f between samples
// carrying the label of the first sample in inx and all other samples.
func kdeOverlap(X [][]float64, y []int, inx []int, f int) float64 {
	var a, b []float64
	labelA := -1
	for _, i := range inx {
		v := X[i][f]
		if labelA == -1 {
			labelA = y[i]
		}
		if y[i] == labelA {
			a = append(a, v)
		} else {
			b = append(b, v)
		}
	}
	if len(a) < 2 || len(b) < 2 {
		return math.Inf(1) // cannot separate groups on this column
	}

	lo, hi := rangeOf(a, b)
	if hi <= lo {
		return math.Inf(1) // constant column
	}

	bwA := silvermanBandwidth(a)
	bwB := silvermanBandwidth(b)

	overlap := 0.0
	step := (hi - lo) / float64(kdeGridPoints-1)
	for i := 0; i < kdeGridPoints; i++ {
		x := lo + float64(i)*step
		da := gaussianKDE(a, bwA, x)
		db := gaussianKDE(b, bwB, x)
		if da < db {
			overlap += da
		} else {
			overlap += db
		}
	}
	return overlap * step
}

func rangeOf(a, b []float64) (lo, hi float64) {
	lo, hi = a[0], a[0]
	for _, s := range [][]float64{a, b} {
		for _, v := range s {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return
}

func gaussianKDE(samples []float64, bandwidth, x float64) float64 {
	if bandwidth <= 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		u := (x - s) / bandwidth
		sum += math.Exp(-0.5 * u * u)
	}
	norm := 1.0 / (float64(len(samples)) * bandwidth * math.Sqrt(2*math.Pi))
	return sum * norm
}

// silvermanBandwidth returns Silverman's rule-of-thumb bandwidth,
// h = 0.9 * min(sd, IQR/1.34) * n^(-1/5).
func silvermanBandwidth(x []float64) float64 {
	n := float64(len(x))
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= n

	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / n)

	sorted := append([]float64(nil), x...)
	bSort(sorted, make([]int, len(sorted)))

	iqr := interQuartileRange(sorted)

	spread := sd
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	if spread <= 0 {
		spread = sd
	}
	if spread <= 0 {
		spread = 1
	}

	return 0.9 * spread * math.Pow(n, -0.2)
}

func interQuartileRange(sorted []float64) float64 {
	n := len(sorted)
	if n < 4 {
		return 0
	}
	q1 := sorted[n/4]
	q3 := sorted[(3*n)/4]
	return q3 - q1
}
