// Package analytics scores a binary classifier's predictions against a
// confusion matrix indexed cm[predicted][actual], reporting ROC distance,
// AUC, F-score, and the standard accuracy/sensitivity/specificity/
// precision/NPV/MCC family.
package analytics

import "math"

// Measurement names the scalar fitness reported by Evaluate's caller-facing
// configuration. Only "ROCDistance" is actually honored by Evaluate (see
// the doc comment there); the others are scored by Score and must be sign-
// inverted by callers that want "higher is better" semantics to feed a
// lower-is-better optimizer.
type Measurement string

const (
	ROCDistance Measurement = "ROCDistance"
	AUC         Measurement = "AUC"
	FScore      Measurement = "FScore"
	Accuracy    Measurement = "Accuracy"
	Sensitivity Measurement = "Sensitivity"
	Specificity Measurement = "Specificity"
	Precision   Measurement = "Precision"
	NPV         Measurement = "NPV"
	MCC         Measurement = "MCC"
)

// ConfusionMatrix accumulates predicted-vs-actual counts over N classes,
// indexed cm[predicted][actual].
type ConfusionMatrix struct {
	Classes []string
	cm      [][]int
}

// New returns an empty confusion matrix sized for the given class list.
func New(classes []string) *ConfusionMatrix {
	cm := make([][]int, len(classes))
	for i := range cm {
		cm[i] = make([]int, len(classes))
	}
	return &ConfusionMatrix{Classes: classes, cm: cm}
}

// Reset zeroes all cells.
func (c *ConfusionMatrix) Reset() {
	for i := range c.cm {
		for j := range c.cm[i] {
			c.cm[i][j] = 0
		}
	}
}

// Update increments cm[predicted][actual] for every index present in both
// slices.
func (c *ConfusionMatrix) Update(predicted, actual []int) {
	for i := range predicted {
		c.cm[predicted[i]][actual[i]]++
	}
}

// At returns cm[predicted][actual].
func (c *ConfusionMatrix) At(predicted, actual int) int { return c.cm[predicted][actual] }

func (c *ConfusionMatrix) binaryCells() (tp, tn, fp, fn float64) {
	// cm[0,0]=TN, cm[0,1]=FN, cm[1,0]=FP, cm[1,1]=TP
	tn = float64(c.cm[0][0])
	fn = float64(c.cm[0][1])
	fp = float64(c.cm[1][0])
	tp = float64(c.cm[1][1])
	return
}

// ROCDistanceScore returns √((1−TPR)²+FPR²); lower is better.
func (c *ConfusionMatrix) ROCDistanceScore() float64 {
	tp, tn, fp, fn := c.binaryCells()
	tpr := safeDiv(tp, tp+fn)
	fpr := safeDiv(fp, fp+tn)
	return math.Sqrt((1-tpr)*(1-tpr) + fpr*fpr)
}

// AUCScore returns a one-point trapezoidal AUC estimate built from the
// single (FPR,TPR) operating point implied by the confusion matrix.
func (c *ConfusionMatrix) AUCScore() float64 {
	tp, tn, fp, fn := c.binaryCells()
	tpr := safeDiv(tp, tp+fn)
	fpr := safeDiv(fp, fp+tn)
	return fpr*tpr/2 + (1-fpr)*tpr + (1-fpr)*(1-tpr)/2
}

// FScoreBeta returns the F(beta) score.
func (c *ConfusionMatrix) FScoreBeta(beta float64) float64 {
	tp, _, fp, fn := c.binaryCells()
	b2 := beta * beta
	return safeDiv((1+b2)*tp, (1+b2)*tp+b2*fn+fp)
}

// AccuracyScore returns diagonal sum / total sum.
func (c *ConfusionMatrix) AccuracyScore() float64 {
	var diag, total float64
	for i := range c.cm {
		for j := range c.cm[i] {
			total += float64(c.cm[i][j])
			if i == j {
				diag += float64(c.cm[i][j])
			}
		}
	}
	return safeDiv(diag, total)
}

// SensitivityScore (recall, TPR) returns TP/(TP+FN).
func (c *ConfusionMatrix) SensitivityScore() float64 {
	tp, _, _, fn := c.binaryCells()
	return safeDiv(tp, tp+fn)
}

// SpecificityScore (TNR) returns TN/(TN+FP).
func (c *ConfusionMatrix) SpecificityScore() float64 {
	_, tn, fp, _ := c.binaryCells()
	return safeDiv(tn, tn+fp)
}

// PrecisionScore (PPV) returns TP/(TP+FP).
func (c *ConfusionMatrix) PrecisionScore() float64 {
	tp, _, fp, _ := c.binaryCells()
	return safeDiv(tp, tp+fp)
}

// NPVScore returns TN/(TN+FN).
func (c *ConfusionMatrix) NPVScore() float64 {
	_, tn, _, fn := c.binaryCells()
	return safeDiv(tn, tn+fn)
}

// MCCScore returns the Matthews correlation coefficient.
func (c *ConfusionMatrix) MCCScore() float64 {
	tp, tn, fp, fn := c.binaryCells()
	num := tp*tn - fp*fn
	den := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	if den == 0 {
		return 0
	}
	return num / den
}

// MultiClassScore aggregates a per-row (one-vs-rest) score across all
// classes as √Σ(rowScore²), a non-standard geometric-mean-like choice
// carried over from the evaluated system rather than a textbook
// multi-class macro average.
func (c *ConfusionMatrix) MultiClassScore(rowScore func(predicted int) float64) float64 {
	var sumSq float64
	for i := range c.cm {
		s := rowScore(i)
		sumSq += s * s
	}
	return math.Sqrt(sumSq)
}

// Score returns the named measurement. Higher is better for everything
// except ROCDistance.
func (c *ConfusionMatrix) Score(m Measurement) float64 {
	switch m {
	case ROCDistance:
		return c.ROCDistanceScore()
	case AUC:
		return c.AUCScore()
	case FScore:
		return c.FScoreBeta(1.0)
	case Accuracy:
		return c.AccuracyScore()
	case Sensitivity:
		return c.SensitivityScore()
	case Specificity:
		return c.SpecificityScore()
	case Precision:
		return c.PrecisionScore()
	case NPV:
		return c.NPVScore()
	case MCC:
		return c.MCCScore()
	default:
		return c.ROCDistanceScore()
	}
}

// LowerIsBetter reports whether m is minimized (true only for ROCDistance);
// the Nelder-Mead optimizer always minimizes, so callers passing any other
// measurement into it must negate the returned Score themselves.
func LowerIsBetter(m Measurement) bool { return m == ROCDistance }

// Evaluate resets the matrix, predicts every sample in X via predict, and
// returns the fitness that the optimizer will minimize.
//
// This always returns ROC distance regardless of the configured
// measurement -- the source this was ported from computes accuracy into a
// local, falls through the measurement switch without a matching case, and
// returns the ROC-distance variable unconditionally. That behavior is
// reproduced here rather than silently corrected; see the open questions
// this carries forward.
func (c *ConfusionMatrix) Evaluate(X [][]float64, actual []int, predict func([][]float64) []int, measurement Measurement) float64 {
	c.Reset()
	predicted := predict(X)
	c.Update(predicted, actual)
	_ = measurement // retained for interface parity with the source switch
	return c.ROCDistanceScore()
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
