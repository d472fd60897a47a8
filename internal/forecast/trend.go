package forecast

import "github.com/lox/tempedge/internal/models"

type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) Arrow() string {
	switch t {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	default:
		return "→"
	}
}

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "flat"
	}
}

// MarshalText renders the trend as its name for JSON and YAML.
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SeedTrend compares the two most recent observations of a fetch batch.
func SeedTrend(obs []models.Observation) Trend {
	if len(obs) < 2 {
		return TrendFlat
	}
	return compare(obs[0].Temp, obs[1].Temp, TrendFlat)
}

// NextTrend updates a sticky trend with a new temperature. An unchanged
// temperature keeps the previous trend.
func NextTrend(prev Trend, last, current float64) Trend {
	return compare(current, last, prev)
}

func compare(current, previous float64, equal Trend) Trend {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return equal
	}
}
