package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsConsistent(t *testing.T) {
	u := Default()
	require.NoError(t, u.Validate())
	assert.Len(t, u.Tickers, 7)
	assert.Equal(t, Semiconductors, u.Sector("NVDA"))
	assert.True(t, u.HasSleeve(GrowthUS))
	assert.False(t, u.HasSleeve("Macro-LATAM"))
	assert.False(t, u.HasTicker("TSLA"))
}

func TestNormalizedWeightsSumToOne(t *testing.T) {
	u := Default()
	for _, s := range u.Sleeves {
		total := 0.0
		for _, w := range u.NormalizedWeights(s) {
			total += w
		}
		assert.InDelta(t, 1.0, total, 1e-12, s)
	}
}

func TestBaseOrdersFavourStressedSemis(t *testing.T) {
	u := Default()
	assert.Equal(t, 45, u.BaseOrders[GrowthUS]["NVDA"])
	assert.Equal(t, 28, u.BaseOrders[GrowthUS]["MSFT"])
	assert.Equal(t, 32, u.BaseOrders[CoreEMEA]["AAPL"])
}

func TestSleeveCode(t *testing.T) {
	assert.Equal(t, "GR", SleeveCode(GrowthUS))
	assert.Equal(t, "CO", SleeveCode(CoreEMEA))
	assert.Equal(t, "TE", SleeveCode(TechAPAC))
}
