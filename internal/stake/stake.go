// Package stake sizes positions with fractional Kelly.
package stake

import "math"

const (
	// MaxPrice excludes buckets priced this high: the payout no longer
	// justifies the risk even at high confidence.
	MaxPrice = 0.85
	// MinEdge is the smallest probability edge worth trading.
	MinEdge = 0.02
)

// Edge is model probability minus market price, both in 0..1.
func Edge(myProb, price float64) float64 {
	return myProb - price
}

// EdgePct converts a 0..100 reach probability and a 0..1 price into edge in
// percentage points.
func EdgePct(reach int, price float64) float64 {
	return (float64(reach)/100 - price) * 100
}

// Size returns the fractional-Kelly stake in bankroll units. It is zero for
// prices outside (0, MaxPrice), edges under MinEdge, or a non-positive Kelly
// fraction, and never negative.
func Size(myProb, price, bankroll, kellyFraction float64) float64 {
	if price <= 0 || price >= MaxPrice {
		return 0
	}
	if Edge(myProb, price) < MinEdge {
		return 0
	}
	b := 1/price - 1
	q := 1 - myProb
	f := (b*myProb - q) / b
	stake := math.Max(0, f) * kellyFraction * bankroll
	if stake < 0 || math.IsNaN(stake) {
		return 0
	}
	return stake
}
