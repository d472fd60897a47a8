package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/lox/tempedge/internal/models"
)

func CtoF(c float64) float64 { return c*9/5 + 32 }

// RoundHalfUp rounds to the nearest integer with halves going up, so -0.5
// rounds to 0 and 20.5 to 21.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// ToMarketUnit converts a Celsius temperature to the target's market unit.
func ToMarketUnit(t models.Target, c float64) float64 {
	if t.Unit == "F" {
		return CtoF(c)
	}
	return c
}

// DeltaToMarketUnit converts a Celsius difference to the market unit.
func DeltaToMarketUnit(t models.Target, d float64) float64 {
	if t.Unit == "F" {
		return d * 1.8
	}
	return d
}

// Remaining returns the time left until the next local midnight, when daily
// markets settle.
func Remaining(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return midnight.Sub(now)
}

// FormatRemaining renders d as HH:MM:SS, or CLOSED when no time is left.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "CLOSED"
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
