package signal

import (
	"fmt"

	"github.com/lox/tempedge/internal/models"
)

const (
	defaultEarlyDeadZone    = 6.0
	defaultLateWindow       = 6.0
	defaultLateStopPostPeak = 2.0
	defaultAutoDeadZone     = 2.0
)

// GateInput is the time context of one target.
type GateInput struct {
	Style  models.TradingStyle
	Policy models.PeakPolicy

	// RemainingHours until the market's local close.
	RemainingHours float64
	// HoursNow is the local time of day in fractional hours.
	HoursNow float64
	// PeakHour is the local hour of the forecast maximum.
	PeakHour float64
}

// Decision is the gatekeeper's verdict.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

var allowed = Decision{Allowed: true}

// Gate decides whether the target's trading style permits entering now.
// Zero policy values take the style's defaults. Unknown styles are always
// allowed.
func Gate(in GateInput) Decision {
	switch in.Style {
	case models.StyleEarly:
		dz := orDefault(in.Policy.DeadZoneHours, defaultEarlyDeadZone)
		if in.RemainingHours <= dz {
			return Decision{Reason: fmt.Sprintf("early market: %.1fh left, dead zone %.0fh", in.RemainingHours, dz)}
		}
	case models.StyleLate:
		window := orDefault(in.Policy.WindowHours, defaultLateWindow)
		if in.RemainingHours > window {
			return Decision{Reason: fmt.Sprintf("late market: opens %.0fh before close", window)}
		}
		stop := orDefault(in.Policy.StopPostPeakHours, defaultLateStopPostPeak)
		if in.HoursNow-in.PeakHour > stop {
			return Decision{Reason: fmt.Sprintf("late market: %.1fh past peak", in.HoursNow-in.PeakHour)}
		}
	case models.StyleAuto:
		dz := orDefault(in.Policy.DeadZoneHours, defaultAutoDeadZone)
		if in.RemainingHours <= dz {
			return Decision{Reason: fmt.Sprintf("dead zone: %.1fh left", in.RemainingHours)}
		}
	}
	return allowed
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
