package forest

import (
	"bytes"
	"math/rand"
	"testing"
)

// twoBlobs generates a linearly-separable two-class synthetic dataset,
// mirroring the small hand-built fixtures the tree package tests use.
func twoBlobs(n int, seed int64) ([][]float64, []string) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	Y := make([]string, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			X[i] = []float64{rng.Float64()*0.4 - 2, rng.Float64()*0.4 - 2}
			Y[i] = "neg"
		} else {
			X[i] = []float64{rng.Float64()*0.4 + 2, rng.Float64()*0.4 + 2}
			Y[i] = "pos"
		}
	}
	return X, Y
}

func TestFitPredictSeparable(t *testing.T) {
	X, Y := twoBlobs(100, 1)
	clf := NewClassifier(NumTrees(20))
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	pred := clf.PredictNames(X)
	correct := 0
	for i := range Y {
		if Y[i] == pred[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(Y))
	if acc < 0.95 {
		t.Errorf("expected accuracy >= 0.95 on separable data, got %f", acc)
	}
}

func TestFitEmptyData(t *testing.T) {
	clf := NewClassifier()
	if err := clf.Fit(nil, nil); err != ErrNoTrainingData {
		t.Errorf("expected ErrNoTrainingData, got %v", err)
	}
}

func TestFitEqualizedBagging(t *testing.T) {
	X, Y := twoBlobs(100, 2)
	clf := NewClassifier(NumTrees(10), Bagging(EqualizedBagging, 1.0))
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(clf.Trees) != 10 {
		t.Errorf("expected 10 trees, got %d", len(clf.Trees))
	}
}

func TestFitWalkerBagging(t *testing.T) {
	X, Y := twoBlobs(100, 3)
	clf := NewClassifier(NumTrees(10), Bagging(WalkerBagging, 1.0))
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(clf.Trees) != 10 {
		t.Errorf("expected 10 trees, got %d", len(clf.Trees))
	}
}

func TestFitAdaBoost(t *testing.T) {
	X, Y := twoBlobs(100, 4)
	clf := NewClassifier(NumTrees(10), AdaBoost())
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	pred := clf.PredictNames(X)
	correct := 0
	for i := range Y {
		if Y[i] == pred[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(Y))
	if acc < 0.9 {
		t.Errorf("expected accuracy >= 0.9 with boosting on separable data, got %f", acc)
	}
}

func TestOOBSelection(t *testing.T) {
	X, Y := twoBlobs(200, 5)
	clf := NewClassifier(NumTrees(20), Bagging(NormalBagging, 0.6), SelectTrees(OOBSelection, 5))
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(clf.Trees) != 5 {
		t.Errorf("expected OOB selection to keep 5 trees, got %d", len(clf.Trees))
	}
	if clf.ConfusionMatrix == nil {
		t.Error("expected OOB confusion matrix to be populated")
	}
}

func TestEncodeDecode(t *testing.T) {
	X, Y := twoBlobs(60, 6)
	clf := NewClassifier(NumTrees(8))
	if err := clf.Fit(X, Y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var buf bytes.Buffer
	if err := clf.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	clf2 := NewClassifier()
	if err := clf2.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}

	pred := clf2.PredictNames(X)
	correct := 0
	for i := range Y {
		if Y[i] == pred[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(Y))
	if acc < 0.9 {
		t.Errorf("expected restored model accuracy >= 0.9, got %f", acc)
	}
}
