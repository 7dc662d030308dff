package action

import (
	"fmt"
	"testing"

	"github.com/wlattner/automl/data"
)

// syntheticPackage builds a small, separable binary-classification package:
// n samples, 3 numeric features, positives clustered near (1,2,0.5) and
// negatives near (-1,-2,-0.5), plus a handful of outliers far from both
// clusters for IsolationForest to flag.
func syntheticPackage(t *testing.T, n, outliers int) *data.Package {
	t.Helper()

	header := data.Header{
		Names: []string{"x0", "x1", "x2"},
		Types: []string{"numeric", "numeric", "numeric"},
	}
	records := make(map[string][]string, n+outliers)
	labelRecords := make(map[string][]string, n+outliers)
	keys := make([]string, 0, n+outliers)

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("s%d", i)
		keys = append(keys, key)
		if i%3 == 0 {
			records[key] = []string{"-1.0", "-2.0", "-0.5"}
			labelRecords[key] = []string{"neg"}
		} else {
			records[key] = []string{"1.0", "2.0", "0.5"}
			labelRecords[key] = []string{"pos"}
		}
	}
	for i := 0; i < outliers; i++ {
		key := fmt.Sprintf("o%d", i)
		keys = append(keys, key)
		records[key] = []string{"500.0", "500.0", "500.0"}
		labelRecords[key] = []string{"pos"}
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
