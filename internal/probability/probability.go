// Package probability scores how likely a target's temperature is to reach
// (or break) the day's forecast maximum.
package probability

import (
	"math"
	"time"

	"github.com/lox/tempedge/internal/forecast"
)

const (
	// BreakMargin is added to the target to score the break probability.
	BreakMargin = 0.5

	proximityRange  = 5.0
	proximityWeight = 8.0
	proximityAtMax  = 40.0

	windWindow = 60.0
	windPoints = 20.0

	maxDeviationBonus = 20.0
	cloudPenalty      = 10.0
	trendUpBonus      = 5.0
	trendDownPenalty  = 10.0

	// Running behind the benchmark scales the score by max(floor, 1-dev*slope).
	morningPenaltyFloor = 0.5
	morningPenaltySlope = 0.1
	latePenaltySlope    = 0.4

	// The relaxed morning penalty halves the morning slope and raises the
	// floor. It applies once the realized high is within realizedRelaxMargin
	// of the target.
	relaxedPenaltyFloor = 0.8
	relaxedPenaltySlope = 0.05
	realizedRelaxMargin = 2.0
)

// Input is everything the model looks at for one target at one moment. All
// temperatures are Celsius.
type Input struct {
	Current   float64
	TargetMax float64
	Benchmark *float64
	WindDir   *float64
	Cover     string // lowest cloud layer cover, e.g. "BKN"
	WarmWind  [2]float64
	Trend     forecast.Trend
	TAFMax    *float64
	Raining   bool

	RollingHigh  *float64
	CalendarHigh *float64

	Now      time.Time
	Location *time.Location

	// Adjustments run after the base score on the accumulating path only.
	Adjustments []Adjustment
	Context     AdjustmentContext
}

// Score returns the reach probability for in.TargetMax, 0 to 100.
func Score(in Input) int {
	if in.Benchmark == nil {
		return 0
	}
	if in.Raining && in.Current < in.TargetMax {
		return 0
	}
	if in.Current >= in.TargetMax {
		return 100
	}
	if in.TAFMax != nil && *in.TAFMax >= in.TargetMax {
		return 99
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := in.Now.In(loc)
	if forecast.Remaining(in.Now, loc) <= 0 {
		return 0
	}

	score := proximity(in.TargetMax - in.Current)
	score += windAlignment(in.WindDir, in.WarmWind)
	if isDaytime(now.Hour()) && (in.Cover == "BKN" || in.Cover == "OVC") {
		score -= cloudPenalty
	}

	bonus, penalty := deviation(in, now.Hour())
	final := (score + bonus) * penalty

	switch in.Trend {
	case forecast.TrendUp:
		final += trendUpBonus
	case forecast.TrendDown:
		final -= trendDownPenalty
	}

	ctx := in.Context
	ctx.Current = in.Current
	ctx.Target = in.TargetMax
	for _, adj := range in.Adjustments {
		final += adj.Apply(ctx)
	}

	return clamp(final)
}

// ReachAndBreak scores the target and the target plus BreakMargin.
func ReachAndBreak(in Input) (reach, brk int) {
	reach = Score(in)
	in.TargetMax += BreakMargin
	brk = Score(in)
	return reach, brk
}

func proximity(distance float64) float64 {
	switch {
	case distance <= 0:
		return proximityAtMax
	case distance < proximityRange:
		return (proximityRange - distance) * proximityWeight
	default:
		return 0
	}
}

// windAlignment rewards wind from within 60° of the middle of the warm band.
// Variable or missing wind scores nothing.
func windAlignment(dir *float64, band [2]float64) float64 {
	if dir == nil {
		return 0
	}
	ideal := (band[0] + band[1]) / 2
	diff := math.Abs(*dir - ideal)
	if diff > 180 {
		diff = 360 - diff
	}
	if diff >= windWindow {
		return 0
	}
	return (windWindow - diff) * (windPoints / windWindow)
}

// deviation compares the current temperature with the benchmark. Running
// ahead earns an additive bonus; running behind scales the score down, gently
// in the morning and hard from 14:00.
func deviation(in Input, hour int) (bonus, penalty float64) {
	dev := in.Current - *in.Benchmark
	if dev >= 0 {
		return math.Min(maxDeviationBonus, dev*5), 1
	}

	abs := math.Abs(dev)
	switch {
	case hour < 12:
		if realized, ok := realizedHigh(in); ok && realized >= in.TargetMax-realizedRelaxMargin {
			return 0, math.Max(relaxedPenaltyFloor, 1-abs*relaxedPenaltySlope)
		}
		return 0, math.Max(morningPenaltyFloor, 1-abs*morningPenaltySlope)
	case hour >= 14:
		return 0, math.Max(0, 1-abs*latePenaltySlope)
	default:
		return 0, 1
	}
}

func realizedHigh(in Input) (float64, bool) {
	switch {
	case in.CalendarHigh != nil && in.RollingHigh != nil:
		return math.Max(*in.CalendarHigh, *in.RollingHigh), true
	case in.CalendarHigh != nil:
		return *in.CalendarHigh, true
	case in.RollingHigh != nil:
		return *in.RollingHigh, true
	}
	return 0, false
}

func isDaytime(hour int) bool {
	return hour >= 7 && hour <= 18
}

func clamp(v float64) int {
	v = forecast.RoundHalfUp(v)
	return int(math.Min(100, math.Max(0, v)))
}
