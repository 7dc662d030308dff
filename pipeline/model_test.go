package pipeline

import (
	"fmt"
	"testing"

	"github.com/wlattner/automl/config"
	"github.com/wlattner/automl/data"
)

func syntheticPackage(t *testing.T, n int) *data.Package {
	t.Helper()

	header := data.Header{
		Names: []string{"x0", "x1", "x2"},
		Types: []string{"numeric", "numeric", "numeric"},
	}
	records := make(map[string][]string, n)
	labelRecords := make(map[string][]string, n)
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("s%d", i)
		keys = append(keys, key)
		if i%2 == 0 {
			records[key] = []string{"1.0", "2.0", "0.5"}
			labelRecords[key] = []string{"pos"}
		} else {
			records[key] = []string{"-1.0", "-2.0", "-0.5"}
			labelRecords[key] = []string{"neg"}
		}
	}

	fdb, err := data.NewTabularData(header, records, keys)
	if err != nil {
		t.Fatalf("NewTabularData: %v", err)
	}
	ldb, err := data.NewTabularData(data.Header{Names: []string{"label"}, Types: []string{"categorical"}}, labelRecords, keys)
	if err != nil {
		t.Fatalf("NewTabularData (labels): %v", err)
	}
	pkg, err := data.NewPackage(fdb, ldb, "label")
	if err != nil {
		t.Fatalf("NewPackage: %v", err)
	}
	return pkg
}

func TestModelInputCountMatchesParamTable(t *testing.T) {
	cfg := config.New(map[string]string{})
	m := NewModel([]string{"FS"}, 3, cfg)

	// FS contributes featureCount{3..3} + rankMethod{"RSquared"} = 2 params.
	if got, want := m.InputCount(), 2; got != want {
		t.Errorf("InputCount() = %d, want %d", got, want)
	}
}

func TestModelSetTrainsForestAndRecordsFitness(t *testing.T) {
	cfg := config.New(map[string]string{
		"Optimizer/NumberOfTrees": "5",
	})
	pkg := syntheticPackage(t, 20)

	m := NewModel([]string{"FS"}, 3, cfg)
	m.Bind(pkg)

	vec := make([]float64, m.InputCount())
	for i := range vec {
		vec[i] = 0.5
	}
	if err := m.Set(vec); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m.Forest == nil {
		t.Fatal("expected a trained forest")
	}
	if m.Fitness < 0 {
		t.Errorf("expected non-negative fitness, got %v", m.Fitness)
	}

	preds := m.Evaluate([][]float64{{1.0, 2.0, 0.5}, {-1.0, -2.0, -0.5}})
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
}

func TestModelSetRequiresBind(t *testing.T) {
	cfg := config.New(map[string]string{})
	m := NewModel([]string{"FS"}, 3, cfg)
	if err := m.Set(make([]float64, m.InputCount())); err == nil {
		t.Error("expected an error when Set is called before Bind")
	}
}

func TestModelFeatureSpaceActionsExcludesSamplers(t *testing.T) {
	cfg := config.New(map[string]string{"Optimizer/NumberOfTrees": "5"})
	pkg := syntheticPackage(t, 20)

	m := NewModel([]string{"FS", "US"}, 3, cfg)
	m.Bind(pkg)
	vec := make([]float64, m.InputCount())
	for i := range vec {
		vec[i] = 0.2
	}
	if err := m.Set(vec); err != nil {
		t.Fatalf("Set: %v", err)
	}

	fsActions := m.FeatureSpaceActions()
	if len(fsActions) != 1 {
		t.Errorf("expected exactly one feature-space action (FS), got %d", len(fsActions))
	}
}
