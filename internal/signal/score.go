package signal

const trackedBonus = 10000

// SortScore ranks a signal for display. Tier base plus backing probability
// plus ten points per percentage point of positive edge; tracked targets get a
// fixed bonus that puts them above everything else. Signals with no tier base
// rank on the tracked bonus alone.
func SortScore(s Signal, edgePct *float64, tracked bool) float64 {
	score := 0.0
	if tracked {
		score += trackedBonus
	}

	base := tierBase(s)
	if base == 0 {
		return score
	}
	score += base + float64(s.Prob)
	if edgePct != nil && *edgePct > 0 {
		score += *edgePct * 10
	}
	return score
}

func tierBase(s Signal) float64 {
	switch s.Kind {
	case PredictionBreak:
		return 1000
	case ScalpBreak:
		return 900
	case BuyReach:
		if s.Tier == TierStrong {
			return 800
		}
		return 700
	case Wait:
		return 500
	case Gated:
		return 300
	case Exit:
		return 200
	}
	return 0
}
