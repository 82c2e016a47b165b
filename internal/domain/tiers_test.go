package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaAllows(t *testing.T) {
	q := Quota(10)
	assert.True(t, q.Allows(9))
	assert.False(t, q.Allows(10))
	assert.False(t, q.Allows(11))

	assert.True(t, QuotaUnlimited.Allows(0))
	assert.True(t, QuotaUnlimited.Allows(1_000_000))
}

func TestQuotaJSON(t *testing.T) {
	data, err := json.Marshal(QuotaUnlimited)
	require.NoError(t, err)
	assert.Equal(t, `"unlimited"`, string(data))

	data, err = json.Marshal(Quota(10))
	require.NoError(t, err)
	assert.Equal(t, `10`, string(data))

	var q Quota
	require.NoError(t, json.Unmarshal([]byte(`"unlimited"`), &q))
	assert.True(t, q.Unlimited())
	require.NoError(t, json.Unmarshal([]byte(`25`), &q))
	assert.Equal(t, Quota(25), q)
}

func TestTierTableOrderingAndLookup(t *testing.T) {
	table := NewTierTable()
	all := table.All()
	require.Len(t, all, 6)

	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].PriceCents, all[i-1].PriceCents,
			"tiers must be in ascending price order")
	}

	for _, name := range []string{TierFree, TierPro, TierTeam, TierNonprofit, TierEnterprise, TierGovernment} {
		tier, ok := table.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, tier.Name)
	}

	_, ok := table.Lookup("Platinum")
	assert.False(t, ok)
}

func TestMinimumTierWith(t *testing.T) {
	table := NewTierTable()

	tier, ok := table.MinimumTierWith(CapabilityAIRecommendations)
	require.True(t, ok)
	assert.Equal(t, TierPro, tier.Name)

	tier, ok = table.MinimumTierWith(CapabilityDataExport)
	require.True(t, ok)
	assert.Equal(t, TierPro, tier.Name)

	tier, ok = table.MinimumTierWith(CapabilityAPIAccess)
	require.True(t, ok)
	assert.Equal(t, TierTeam, tier.Name)

	tier, ok = table.MinimumTierWith(CapabilityCustomBranding)
	require.True(t, ok)
	assert.Equal(t, TierNonprofit, tier.Name)
}

func TestPaidTiersCarryPriceIDs(t *testing.T) {
	for _, tier := range NewTierTable().All() {
		if tier.PriceCents == 0 {
			assert.Empty(t, tier.PriceID, tier.Name)
			continue
		}
		assert.NotEmpty(t, tier.PriceID, tier.Name)
	}
}

func TestPointsForCategory(t *testing.T) {
	assert.Equal(t, 15, PointsForCategory("Sustainability"))
	assert.Equal(t, 12, PointsForCategory("Mutual Aid"))
	assert.Equal(t, 10, PointsForCategory("Something Else"))

	for _, c := range ActionCategories() {
		assert.GreaterOrEqual(t, PointsForCategory(c), 10, c)
	}
}
