package pronunciation

// TierSize is the number of consecutive challenges in a tier.
const TierSize = 10

// UnlockStars is the star count every challenge of a tier needs before the
// next tier opens.
const UnlockStars = 3

// Tier returns the 1-based tier of a challenge order index.
func Tier(orderIndex int) int {
	return (orderIndex-1)/TierSize + 1
}

// TierRange returns the first and last order index of a tier.
func TierRange(tier int) (first, last int) {
	return (tier-1)*TierSize + 1, tier * TierSize
}

// IsLocked reports whether the challenge at orderIndex is locked for a user
// whose stars are given per order index. Missing entries count as zero.
// Tier 1 is never locked; any later tier is locked until every challenge of
// the preceding tier has at least UnlockStars.
func IsLocked(orderIndex int, starsByOrder map[int]int) bool {
	tier := Tier(orderIndex)
	if tier <= 1 {
		return false
	}

	first, last := TierRange(tier - 1)
	for i := first; i <= last; i++ {
		if starsByOrder[i] < UnlockStars {
			return true
		}
	}
	return false
}

// HighestUnlockedTier returns the last tier a user can enter given the
// highest order index that exists.
func HighestUnlockedTier(maxOrderIndex int, starsByOrder map[int]int) int {
	if maxOrderIndex < 1 {
		return 1
	}
	highest := 1
	for tier := 2; tier <= Tier(maxOrderIndex); tier++ {
		first, _ := TierRange(tier)
		if IsLocked(first, starsByOrder) {
			break
		}
		highest = tier
	}
	return highest
}
