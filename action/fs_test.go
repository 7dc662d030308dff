package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureSelectionValidatesConfig(t *testing.T) {
	valid := NewFeatureSelection(2, "RSquared")
	assert.True(t, valid.initValid)

	assert.False(t, NewFeatureSelection(1, "RSquared").initValid, "featureCount < 2 must be invalid")
	assert.False(t, NewFeatureSelection(2, "ChiSquared").initValid, "unsupported rankMethod must be invalid")
}

func TestFeatureSelectionBuildRanksByRSquared(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)

	fs := NewFeatureSelection(2, "RSquared")
	require.NoError(t, fs.Build(pkg))
	assert.Len(t, fs.selected, 2, "should keep exactly featureCount columns")

	out, err := fs.Run(pkg)
	require.NoError(t, err)
	assert.Equal(t, fs.selected, out.FDB.Header.Names)
}

func TestFeatureSelectionRunPassesThroughWhenInvalid(t *testing.T) {
	pkg := syntheticPackage(t, 10, 0)

	fs := NewFeatureSelection(1, "RSquared") // invalid: featureCount < 2
	require.NoError(t, fs.Build(pkg))

	out, err := fs.Run(pkg)
	require.NoError(t, err)
	assert.Same(t, pkg, out, "an invalid FeatureSelection must pass pkg through unchanged")
}

func TestFeatureSelectionParameters(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)
	fs := NewFeatureSelection(2, "RSquared")
	require.NoError(t, fs.Build(pkg))

	params := fs.Parameters()
	assert.Equal(t, 2, params["featureCount"])
	assert.Equal(t, "RSquared", params["rankMethod"])
	assert.Equal(t, fs.selected, params["selected"])
}

func TestFeatureSelectionIsFeatureSpaceAction(t *testing.T) {
	fs := NewFeatureSelection(2, "RSquared")
	assert.True(t, fs.IsFeatureSpaceAction())
}
