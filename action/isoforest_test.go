package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsolationForestValidatesTreeCount(t *testing.T) {
	assert.True(t, NewIsolationForest(10).initValid)
	assert.False(t, NewIsolationForest(0).initValid)
}

func TestIsolationForestFlagsFarOutliers(t *testing.T) {
	pkg := syntheticPackage(t, 20, 4) // 4 points far outside the two normal clusters

	f := NewIsolationForest(50)
	require.NoError(t, f.Build(pkg))

	for i := 0; i < 4; i++ {
		key := "o" + string(rune('0'+i))
		assert.True(t, f.outliers[key], "expected %q to be flagged an outlier", key)
	}
}

func TestIsolationForestRunRemovesFlaggedSamples(t *testing.T) {
	pkg := syntheticPackage(t, 20, 4)

	f := NewIsolationForest(50)
	require.NoError(t, f.Build(pkg))

	out, err := f.Run(pkg)
	require.NoError(t, err)
	assert.Equal(t, len(pkg.FDB.Keys())-len(f.outliers), len(out.FDB.Keys()))
	for k := range f.outliers {
		assert.False(t, out.FDB.HasKey(k))
	}
}

func TestIsolationForestRunPassesThroughWhenInvalid(t *testing.T) {
	pkg := syntheticPackage(t, 10, 0)

	f := NewIsolationForest(0) // invalid: treeCount < 1
	require.NoError(t, f.Build(pkg))

	out, err := f.Run(pkg)
	require.NoError(t, err)
	assert.Same(t, pkg, out)
}

func TestIsolationForestParameters(t *testing.T) {
	pkg := syntheticPackage(t, 20, 4)
	f := NewIsolationForest(50)
	require.NoError(t, f.Build(pkg))

	params := f.Parameters()
	assert.Equal(t, 50, params["treeCount"])
	assert.Equal(t, len(f.outliers), params["removed"])
}
