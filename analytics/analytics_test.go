package analytics

import "testing"

func TestROCDistancePerfect(t *testing.T) {
	cm := New([]string{"neg", "pos"})
	cm.Update([]int{0, 0, 1, 1}, []int{0, 0, 1, 1})
	if d := cm.ROCDistanceScore(); d != 0 {
		t.Errorf("expected 0 distance for perfect classifier, got %v", d)
	}
}

func TestAccuracyScore(t *testing.T) {
	cm := New([]string{"neg", "pos"})
	cm.Update([]int{0, 0, 1, 0}, []int{0, 0, 1, 1})
	if acc := cm.AccuracyScore(); acc != 0.75 {
		t.Errorf("expected accuracy 0.75, got %v", acc)
	}
}

func TestEvaluateAlwaysReturnsROCDistance(t *testing.T) {
	cm := New([]string{"neg", "pos"})
	predict := func(X [][]float64) []int { return []int{0, 1} }
	got := cm.Evaluate([][]float64{{0}, {1}}, []int{0, 1}, predict, Accuracy)
	want := cm.ROCDistanceScore()
	if got != want {
		t.Errorf("expected Evaluate to return ROC distance (%v) regardless of measurement, got %v", want, got)
	}
}

func TestLowerIsBetter(t *testing.T) {
	if !LowerIsBetter(ROCDistance) {
		t.Error("expected ROCDistance to be lower-is-better")
	}
	if LowerIsBetter(Accuracy) {
		t.Error("expected Accuracy to be higher-is-better")
	}
}

func TestMCCPerfectAndInverse(t *testing.T) {
	cm := New([]string{"neg", "pos"})
	cm.Update([]int{0, 1}, []int{0, 1})
	if mcc := cm.MCCScore(); mcc != 1 {
		t.Errorf("expected MCC 1 for perfect classifier, got %v", mcc)
	}

	inv := New([]string{"neg", "pos"})
	inv.Update([]int{1, 0}, []int{0, 1})
	if mcc := inv.MCCScore(); mcc != -1 {
		t.Errorf("expected MCC -1 for inverted classifier, got %v", mcc)
	}
}
