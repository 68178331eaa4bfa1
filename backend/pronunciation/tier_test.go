package pronunciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullTier(tier, stars int) map[int]int {
	m := map[int]int{}
	first, last := TierRange(tier)
	for i := first; i <= last; i++ {
		m[i] = stars
	}
	return m
}

func TestTier(t *testing.T) {
	assert.Equal(t, 1, Tier(1))
	assert.Equal(t, 1, Tier(10))
	assert.Equal(t, 2, Tier(11))
	assert.Equal(t, 2, Tier(20))
	assert.Equal(t, 3, Tier(21))
	assert.Equal(t, 60, Tier(600))
}

func TestTierOneIsNeverLocked(t *testing.T) {
	for i := 1; i <= TierSize; i++ {
		assert.False(t, IsLocked(i, nil), "orderIndex %d", i)
		assert.False(t, IsLocked(i, fullTier(1, 0)), "orderIndex %d", i)
	}
}

func TestTierTwoLocking(t *testing.T) {
	for i := 11; i <= 20; i++ {
		assert.True(t, IsLocked(i, nil), "no records")
		assert.True(t, IsLocked(i, fullTier(1, 2)), "all at two stars")
		assert.False(t, IsLocked(i, fullTier(1, 3)), "all at three stars")
		assert.False(t, IsLocked(i, fullTier(1, 5)), "all at five stars")
	}

	for missing := 1; missing <= 10; missing++ {
		stars := fullTier(1, 4)
		delete(stars, missing)
		assert.True(t, IsLocked(15, stars), "missing record %d", missing)

		stars = fullTier(1, 4)
		stars[missing] = 2
		assert.True(t, IsLocked(15, stars), "weak record %d", missing)
	}
}

func TestLockingOnlyLooksAtPreviousTier(t *testing.T) {
	stars := fullTier(2, 3)
	assert.False(t, IsLocked(21, stars), "tier 1 stars are irrelevant for tier 3")
	assert.True(t, IsLocked(11, stars))

	stars[22] = 5
	assert.True(t, IsLocked(31, stars), "tier 3 not cleared")
}

func TestHighestUnlockedTier(t *testing.T) {
	assert.Equal(t, 1, HighestUnlockedTier(0, nil))
	assert.Equal(t, 1, HighestUnlockedTier(30, nil))

	stars := fullTier(1, 3)
	assert.Equal(t, 2, HighestUnlockedTier(30, stars))
	assert.Equal(t, 1, HighestUnlockedTier(10, stars), "no tier 2 challenges exist")

	for k, v := range fullTier(2, 4) {
		stars[k] = v
	}
	assert.Equal(t, 3, HighestUnlockedTier(30, stars))
}
