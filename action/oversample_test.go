package action

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOversamplingValidatesConfig(t *testing.T) {
	assert.True(t, NewOversampling(SMOTE, 3, 5, 2, 100, false).initValid)
	assert.False(t, NewOversampling(SMOTE, 0, 5, 2, 100, false).initValid, "k1 < 1 must be invalid")
	assert.False(t, NewOversampling(OversamplingType("bogus"), 3, 5, 2, 100, false).initValid)
}

func TestOversamplingRandomOversamplingGeneratesMinorityCopies(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0) // ~7 neg (minority), ~13 pos (majority)

	os := NewOversampling(RandomOversampling, 3, 5, 2, 0, true)
	require.NoError(t, os.Build(pkg))
	assert.Equal(t, pkg.MajorityCount()-pkg.MinorityCount(), len(os.synthetic))

	out, err := os.Run(pkg)
	require.NoError(t, err)
	assert.Equal(t, len(pkg.FDB.Keys())+len(os.synthetic), len(out.FDB.Keys()))
}

func TestOversamplingSMOTEGeneratesRequestedPercentage(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)

	os := NewOversampling(SMOTE, 3, 5, 2, 200, false) // 200% -> 2 synthetic per minority point
	require.NoError(t, os.Build(pkg))
	assert.Equal(t, 2*pkg.MinorityCount(), len(os.synthetic))
}

func TestOversamplingRunAddsSyntheticKeys(t *testing.T) {
	pkg := syntheticPackage(t, 20, 0)

	os := NewOversampling(RandomOversampling, 3, 5, 2, 0, true)
	require.NoError(t, os.Build(pkg))

	out, err := os.Run(pkg)
	require.NoError(t, err)

	var sawSynthetic bool
	for _, k := range out.FDB.Keys() {
		if strings.HasPrefix(k, "Synthetic sample ") {
			sawSynthetic = true
			break
		}
	}
	assert.True(t, sawSynthetic, "expected at least one synthetic sample key")
}

func TestOversamplingParameters(t *testing.T) {
	os := NewOversampling(SMOTE, 3, 5, 2, 150, false)
	params := os.Parameters()
	assert.Equal(t, SMOTE, params["type"])
	assert.Equal(t, 3, params["neighboursNumber"])
	assert.Equal(t, 5, params["m_neighboursNumber"])
	assert.Equal(t, 2, params["n_neighboursNumber"])
	assert.Equal(t, 150.0, params["oversamplingPercentage"])
	assert.Equal(t, false, params["auto"])
}
