// Package forecast derives the day's expectations for a target from its
// hourly forecast, TAF, and observation history.
package forecast

import (
	"math"
	"time"

	"github.com/lox/tempedge/internal/models"
)

const (
	// maxBenchmarkGap is the furthest a forecast point may be from now and
	// still serve as the benchmark.
	maxBenchmarkGap = 2 * time.Hour

	// DefaultPeakHour is used when no forecast is loaded.
	DefaultPeakHour = 15.0
)

// Benchmark returns the forecast temperature closest in time to now. ok is
// false when there are no points or the nearest is more than two hours away.
func Benchmark(points []models.ForecastPoint, now time.Time) (temp float64, ok bool) {
	var (
		best    models.ForecastPoint
		bestGap time.Duration = -1
	)
	for _, p := range points {
		gap := now.Sub(p.ValidTime)
		if gap < 0 {
			gap = -gap
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = p, gap
		}
	}
	if bestGap < 0 || bestGap > maxBenchmarkGap {
		return 0, false
	}
	return best.Temp, true
}

// TargetMax returns the highest forecast temperature. ok is false when the
// forecast is empty, which leaves the target calibrating.
func TargetMax(points []models.ForecastPoint) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	max := math.Inf(-1)
	for _, p := range points {
		if p.Temp > max {
			max = p.Temp
		}
	}
	return max, true
}

// BlendTarget averages the forecast maximum with the model consensus. A nil
// consensus leaves the forecast maximum unchanged.
func BlendTarget(forecastMax float64, c *models.Consensus) float64 {
	if c == nil {
		return forecastMax
	}
	return (forecastMax + c.Average) / 2
}

// PeakHour returns the local hour of the hottest forecast point, as a
// fractional hour of day. Without points it returns DefaultPeakHour.
func PeakHour(points []models.ForecastPoint, loc *time.Location) float64 {
	if len(points) == 0 {
		return DefaultPeakHour
	}
	peak := points[0]
	for _, p := range points[1:] {
		if p.Temp > peak.Temp {
			peak = p
		}
	}
	return HourOfDay(peak.ValidTime.In(loc))
}

// HourOfDay returns t's hour plus fractional minutes.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}
