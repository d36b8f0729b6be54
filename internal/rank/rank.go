// Package rank holds the ladder math: result deltas, the rank floor, and the
// tier labels derived from numeric rank.
package rank

const (
	Floor       = 800
	DefaultRank = 1000

	winDelta        = 25
	lossDelta       = -15
	disconnectDelta = -30

	accuracyBonus          = 5
	accuracyBonusThreshold = 95.0
)

// Deltas returns the winner's and loser's rank changes for one match result.
// A disconnect replaces the normal loss penalty with a harsher one.
func Deltas(winnerAccuracy float64, disconnect bool) (winner, loser int) {
	winner = winDelta
	if winnerAccuracy >= accuracyBonusThreshold {
		winner += accuracyBonus
	}
	loser = lossDelta
	if disconnect {
		loser = disconnectDelta
	}
	return winner, loser
}

// Apply adds a delta to a rank, clamping at the floor.
func Apply(current, delta int) int {
	r := current + delta
	if r < Floor {
		return Floor
	}
	return r
}

func TierName(rank int) string {
	switch {
	case rank < 1200:
		return "Bronze"
	case rank < 1400:
		return "Silver"
	case rank < 1600:
		return "Gold"
	default:
		return "Diamond"
	}
}
