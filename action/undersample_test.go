package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUndersamplingValidatesType(t *testing.T) {
	assert.True(t, NewUndersampling(RandomUndersampling).initValid)
	assert.True(t, NewUndersampling(TomekLink).initValid)
	assert.False(t, NewUndersampling(UndersamplingType("bogus")).initValid)
}

func TestUndersamplingRandomDropsToMinorityCount(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0) // ~7 neg (minority), ~13 pos (majority)

	u := NewUndersampling(RandomUndersampling)
	require.NoError(t, u.Build(pkg))
	assert.Equal(t, pkg.MajorityCount()-pkg.MinorityCount(), len(u.dropKeys))

	out, err := u.Run(pkg)
	require.NoError(t, err)
	assert.Equal(t, len(pkg.FDB.Keys())-len(u.dropKeys), len(out.FDB.Keys()))
}

func TestUndersamplingTomekLinkDropsOnlyMajorityMembers(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)
	minority := pkg.MinorityOutcome()

	u := NewUndersampling(TomekLink)
	require.NoError(t, u.Build(pkg))

	for k := range u.dropKeys {
		label, _ := pkg.Label(k)
		assert.NotEqual(t, minority, label, "Tomek-link undersampling must never drop a minority sample")
	}
}

func TestUndersamplingRunPassesThroughWhenNothingDropped(t *testing.T) {
	pkg := syntheticPackage(t, 10, 0)

	u := NewUndersampling(UndersamplingType("bogus"))
	require.NoError(t, u.Build(pkg))

	out, err := u.Run(pkg)
	require.NoError(t, err)
	assert.Same(t, pkg, out)
}

func TestUndersamplingParameters(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)
	u := NewUndersampling(RandomUndersampling)
	require.NoError(t, u.Build(pkg))

	params := u.Parameters()
	assert.Equal(t, RandomUndersampling, params["type"])
	assert.Equal(t, len(u.dropKeys), params["dropped"])
}
