package probability

import (
	"math"

	"github.com/lox/tempedge/internal/models"
)

// AdjustmentContext carries the secondary signals the named adjustments read.
// Nil fields mean the signal was unavailable and the adjustment contributes 0.
type AdjustmentContext struct {
	Current  float64
	Target   float64
	Dewpoint *float64

	// UpstreamTemp is the latest temperature at the upwind station.
	UpstreamTemp *float64
	Consensus    *models.Consensus
	Radar        *models.Radar
}

// Adjustment is one named term added to the base score.
type Adjustment struct {
	Name  string
	Apply func(AdjustmentContext) float64
}

// DefaultAdjustments is the ordered scoring pipeline.
var DefaultAdjustments = []Adjustment{
	{Name: "advection", Apply: Advection},
	{Name: "humiditySpread", Apply: HumiditySpread},
	{Name: "ensembleDivergence", Apply: EnsembleDivergence},
	{Name: "consensusBias", Apply: ConsensusBias},
	{Name: "radar", Apply: RadarRain},
}

// Advection rewards warmer air upwind and penalises colder air, two points
// per degree capped at six, ignoring differences under a degree.
func Advection(c AdjustmentContext) float64 {
	if c.UpstreamTemp == nil {
		return 0
	}
	delta := *c.UpstreamTemp - c.Current
	if math.Abs(delta) < 1 {
		return 0
	}
	v := math.Min(6, 2*math.Abs(delta))
	if delta < 0 {
		return -v
	}
	return v
}

// HumiditySpread penalises saturated air and rewards very dry air.
func HumiditySpread(c AdjustmentContext) float64 {
	if c.Dewpoint == nil {
		return 0
	}
	spread := c.Current - *c.Dewpoint
	switch {
	case spread < 2:
		return -5
	case spread > 15:
		return 3
	default:
		return 0
	}
}

// EnsembleDivergence penalises disagreement between the consensus models.
func EnsembleDivergence(c AdjustmentContext) float64 {
	if c.Consensus == nil || len(c.Consensus.Models) < 2 {
		return 0
	}
	if c.Consensus.Spread > 3 {
		return -5
	}
	return 0
}

// ConsensusBias compares the model consensus with the target.
func ConsensusBias(c AdjustmentContext) float64 {
	if c.Consensus == nil {
		return 0
	}
	switch {
	case c.Consensus.Average >= c.Target:
		return 5
	case c.Consensus.Average < c.Target-2:
		return -5
	default:
		return 0
	}
}

// RadarRain penalises precipitation arriving within the next 45 minutes.
func RadarRain(c AdjustmentContext) float64 {
	if c.Radar != nil && c.Radar.Incoming {
		return -15
	}
	return 0
}

// Breakdown returns the non-zero contributions keyed by adjustment name.
func Breakdown(adjustments []Adjustment, c AdjustmentContext) map[string]float64 {
	out := make(map[string]float64, len(adjustments))
	for _, a := range adjustments {
		if v := a.Apply(c); v != 0 {
			out[a.Name] = v
		}
	}
	return out
}
