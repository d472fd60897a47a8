// Package signal turns model probabilities into a discrete trade signal and
// decides whether the signal may be acted on right now.
package signal

import "github.com/lox/tempedge/internal/forecast"

type Kind string

const (
	Calibrating     Kind = "CALIBRATING"
	RainKill        Kind = "RAIN_KILL"
	PredictionBreak Kind = "PREDICTION_BREAK"
	ScalpBreak      Kind = "SCALP_BREAK"
	BuyReach        Kind = "BUY_REACH"
	NoTrade         Kind = "NO_TRADE"
	Wait            Kind = "WAIT"
	Gated           Kind = "GATED"
	Exit            Kind = "EXIT"
)

type Tier string

const (
	TierStrong   Tier = "STRONG"
	TierStandard Tier = "STANDARD"
)

// Signal is the classified action for one target. Prob is the probability
// backing the signal: break for SCALP_BREAK, reach otherwise. Gated and Exit
// keep the signal they replaced in Underlying.
type Signal struct {
	Kind       Kind    `json:"kind"`
	Tier       Tier    `json:"tier,omitempty"`
	Prob       int     `json:"prob"`
	Reason     string  `json:"reason,omitempty"`
	Underlying *Signal `json:"underlying,omitempty"`
}

// Actionable reports whether the signal recommends opening a position.
func (s Signal) Actionable() bool {
	switch s.Kind {
	case PredictionBreak, ScalpBreak, BuyReach:
		return true
	}
	return false
}

// Inputs are the facts the classifier looks at.
type Inputs struct {
	Reach        int
	Break        int
	Deviation    *float64
	Trend        forecast.Trend
	Calibrating  bool
	TAFConfirmed bool
	Raining      bool
}

// Classify returns the first matching signal in priority order. A missing
// deviation counts as zero.
func Classify(in Inputs) Signal {
	if in.Calibrating {
		return Signal{Kind: Calibrating, Reason: "forecast not loaded"}
	}
	if in.Raining && in.Reach < 100 {
		return Signal{Kind: RainKill, Prob: in.Reach, Reason: "active precipitation"}
	}
	if in.TAFConfirmed {
		return Signal{Kind: PredictionBreak, Prob: in.Reach, Reason: "TAF maximum meets target"}
	}

	down := in.Trend == forecast.TrendDown
	dev := 0.0
	if in.Deviation != nil {
		dev = *in.Deviation
	}

	if in.Break >= 98 || (in.Break >= 85 && !down) {
		return Signal{Kind: ScalpBreak, Prob: in.Break}
	}
	if in.Reach >= 80 && dev >= -0.5 && !down {
		return Signal{Kind: BuyReach, Tier: TierStrong, Prob: in.Reach}
	}
	if in.Reach >= 70 && dev >= 0 && !down {
		return Signal{Kind: BuyReach, Tier: TierStandard, Prob: in.Reach}
	}
	if in.Reach < 40 || dev < -1.5 || down {
		return Signal{Kind: NoTrade, Prob: in.Reach, Reason: noTradeReason(dev, down)}
	}
	return Signal{Kind: Wait, Prob: in.Reach}
}

func noTradeReason(dev float64, down bool) string {
	switch {
	case down:
		return "trend falling"
	case dev < -1.5:
		return "behind benchmark"
	default:
		return "low probability"
	}
}

// Finalize applies the operator and time-window overrides. A tracked target
// whose signal turns against it becomes EXIT; an untracked actionable signal
// outside its window becomes GATED. Tracked targets are never gated.
func Finalize(s Signal, tracked bool, gate Decision) Signal {
	if tracked {
		if s.Kind == NoTrade || s.Kind == RainKill {
			under := s
			return Signal{Kind: Exit, Prob: s.Prob, Reason: s.Reason, Underlying: &under}
		}
		return s
	}
	if s.Actionable() && !gate.Allowed {
		under := s
		return Signal{Kind: Gated, Prob: s.Prob, Reason: gate.Reason, Underlying: &under}
	}
	return s
}
