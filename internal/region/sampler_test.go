package region

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededSampler(t *testing.T, seed int64) *Sampler {
	t.Helper()
	return NewSampler(newFixtureStore(t), rand.New(rand.NewSource(seed)))
}

func quotaRequest(total, wib, wita, wit int) SelectionRequest {
	return NewSelectionRequest(total).
		WithQuota(WIB, wib).
		WithQuota(WITA, wita).
		WithQuota(WIT, wit)
}

func countByTimezone(sel []Region) map[Timezone]int {
	counts := make(map[Timezone]int)
	for _, r := range sel {
		counts[r.Timezone]++
	}
	return counts
}

func TestSelectMatchesQuotas(t *testing.T) {
	s := seededSampler(t, 1)

	sel, err := s.Select(quotaRequest(4, 2, 1, 1))
	require.NoError(t, err)
	require.Len(t, sel, 4)

	counts := countByTimezone(sel)
	assert.Equal(t, 2, counts[WIB])
	assert.Equal(t, 1, counts[WITA])
	assert.Equal(t, 1, counts[WIT])
}

func TestSelectNoDuplicatesAcrossSeeds(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		s := seededSampler(t, seed)
		sel, err := s.Select(quotaRequest(4, 2, 1, 1))
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, r := range sel {
			assert.False(t, seen[r.Code], "seed %d: duplicate code %s", seed, r.Code)
			seen[r.Code] = true
		}
	}
}

func TestSelectGroupOrderIsStable(t *testing.T) {
	s := seededSampler(t, 7)

	sel, err := s.Select(quotaRequest(4, 2, 1, 1))
	require.NoError(t, err)

	// WIB first, then WITA, then WIT, whatever the draw order was.
	assert.Equal(t, WIB, sel[0].Timezone)
	assert.Equal(t, WIB, sel[1].Timezone)
	assert.Equal(t, WITA, sel[2].Timezone)
	assert.Equal(t, WIT, sel[3].Timezone)
}

func TestSelectDeterministicForFixedSeed(t *testing.T) {
	first, err := seededSampler(t, 42).Select(quotaRequest(4, 2, 1, 1))
	require.NoError(t, err)
	second, err := seededSampler(t, 42).Select(quotaRequest(4, 2, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectWithPinnedCity(t *testing.T) {
	s := seededSampler(t, 3)

	sel, err := s.Select(quotaRequest(4, 2, 1, 1).Pin("Jakarta"))
	require.NoError(t, err)
	require.Len(t, sel, 4)

	counts := countByTimezone(sel)
	assert.Equal(t, 2, counts[WIB])
	assert.Equal(t, 1, counts[WITA])
	assert.Equal(t, 1, counts[WIT])

	codes := make(map[string]bool)
	for _, r := range sel {
		codes[r.Code] = true
	}
	assert.True(t, codes["31.71"], "pinned Jakarta must appear in the result")
	assert.Len(t, codes, 4)
}

func TestSelectPinnedCityComesFirstInItsGroup(t *testing.T) {
	s := seededSampler(t, 3)

	sel, err := s.Select(quotaRequest(4, 2, 1, 1).Pin("Jakarta"))
	require.NoError(t, err)
	assert.Equal(t, "31.71", sel[0].Code)
}

func TestSelectUnknownPinFails(t *testing.T) {
	s := seededSampler(t, 3)

	_, err := s.Select(quotaRequest(4, 2, 1, 1).Pin("Atlantis"))
	assert.ErrorIs(t, err, ErrRegionNotFound)
}

func TestSelectInsufficientPool(t *testing.T) {
	s := seededSampler(t, 3)

	// The fixture has a single WITA city.
	_, err := s.Select(quotaRequest(5, 2, 2, 1))
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

func TestSelectQuotaSumInvariant(t *testing.T) {
	s := seededSampler(t, 3)

	_, err := s.Select(quotaRequest(5, 2, 1, 1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientPool)
}

func TestSelectMorePinsThanQuota(t *testing.T) {
	s := seededSampler(t, 3)

	_, err := s.Select(quotaRequest(3, 1, 1, 1).Pin("Jakarta Pusat", "Jakarta Utara"))
	require.Error(t, err)
}

func TestSelectExhaustsPoolExactly(t *testing.T) {
	s := seededSampler(t, 9)

	// All seven fixture cities at once.
	sel, err := s.Select(quotaRequest(7, 4, 1, 2))
	require.NoError(t, err)
	assert.Len(t, sel, 7)
}
