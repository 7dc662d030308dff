package automl

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

func smallConfig() config.RunConfig {
	return config.New(map[string]string{
		"Tree/pool":                    "FS,US",
		"Tree/maxTreeDepth":            "2",
		"Tree/maxAlgorithmRepetability": "1",
		"CentralAi/offspringCount":     "3",
		"CentralAi/iterationCount":     "1",
		"CentralAi/mutationRate":       "0.1",
		"Optimizer/NumberOfTrees":      "5",
	})
}

func TestSearchRunProducesResult(t *testing.T) {
	cfg := smallConfig()
	train := syntheticPackage(t, 20)
	val := syntheticPackage(t, 10)

	s := New(cfg, 3)
	res, err := s.Run(train, val)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Confusion == nil {
		t.Fatal("expected a populated confusion matrix")
	}
	if len(res.Creature) == 0 {
		t.Log("returned creature is the bare root->leaf path (no preprocessing actions), which is legal")
	}
}

func TestCrossoverInheritsFromParents(t *testing.T) {
	cfg := smallConfig()
	s := New(cfg, 3)
	s.population = []*candidate{
		{creature: []string{"FS", "US"}},
		{creature: []string{"US"}},
	}

	child := s.crossover([]string{"FS", "US"}, []string{"US"}, 0)
	if len(child) == 0 {
		t.Fatal("expected a non-empty child creature")
	}
	if child[0] != "FS" && child[0] != "US" {
		t.Errorf("unexpected gene at position 0: %q", child[0])
	}
}

func TestSameCreature(t *testing.T) {
	if !sameCreature([]string{"FS", "US"}, []string{"FS", "US"}) {
		t.Error("expected equal creatures to match")
	}
	if sameCreature([]string{"FS"}, []string{"FS", "US"}) {
		t.Error("expected different-length creatures to not match")
	}
}
