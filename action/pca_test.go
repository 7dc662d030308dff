package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPCAValidatesPreservationPercentage(t *testing.T) {
	assert.True(t, NewPCA(95).initValid)
	assert.False(t, NewPCA(0).initValid)
	assert.False(t, NewPCA(101).initValid)
}

func TestPCABuildKeepsAtLeastOneComponent(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)

	pca := NewPCA(90)
	require.NoError(t, pca.Build(pkg))
	assert.GreaterOrEqual(t, pca.nKept, 1)
	assert.LessOrEqual(t, pca.nKept, 3)
}

func TestPCARunProjectsOntoKeptComponents(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)

	pca := NewPCA(90)
	require.NoError(t, pca.Build(pkg))

	out, err := pca.Run(pkg)
	require.NoError(t, err)
	assert.Len(t, out.FDB.Header.Names, pca.nKept)
	assert.Equal(t, len(pkg.FDB.Keys()), len(out.FDB.Keys()))
}

func TestPCARunPassesThroughWhenInvalid(t *testing.T) {
	pkg := syntheticPackage(t, 10, 0)

	pca := NewPCA(-5) // invalid preservation percentage
	require.NoError(t, pca.Build(pkg))

	out, err := pca.Run(pkg)
	require.NoError(t, err)
	assert.Same(t, pkg, out)
}

func TestPCAParameters(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)
	pca := NewPCA(90)
	require.NoError(t, pca.Build(pkg))

	params := pca.Parameters()
	assert.Equal(t, 90.0, params["preservationPercentage"])
	assert.Equal(t, pca.nKept, params["componentsKept"])
}
