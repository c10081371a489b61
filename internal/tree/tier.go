package tree

import (
	"math"
	"math/rand"
)

// TierCount turns the remaining expected density of a branch into the number
// of skills for the next tier.
func TierCount(density float64, r *rand.Rand) int {
	switch {
	case density > 0.99:
		return 3
	case density > 0.66:
		if 3*(density-0.66) > r.Float64() {
			return 3
		}
		return 2
	case density > 0.33:
		if 3*(density-0.33) > r.Float64() {
			return 2
		}
		return 1
	case density > 0:
		return 1
	}
	return 0
}

// Layout returns the slot occupancy for n skills: the center slot holds odd
// counts and the outer slots hold pairs.
func Layout(n int) [Slots]bool {
	return [Slots]bool{n > 1, n&1 > 0, n > 1}
}

// UnlockPoints is the number of points spent in a branch before the next tier
// opens up.
func UnlockPoints(maxGrade, totalGrade int, randomize bool, r *rand.Rand) int {
	if !randomize {
		return maxGrade
	}
	hi := int(math.Round(0.66 * float64(totalGrade)))
	if hi < 1 {
		hi = 1
	}
	return r.Intn(hi) + 1
}

// branchBudgets splits the expected skill count over the three branches so
// that earlier branches get the floor of an even share.
func branchBudgets(expected float64) [3]int {
	var out [3]int
	for b := 0; b < 3; b++ {
		out[b] = int(expected / float64(3-b))
		expected -= float64(out[b])
	}
	return out
}
