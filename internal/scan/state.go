package scan

import (
	"time"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/notify"
)

// TargetState is everything the scanner remembers about one target between
// cycles. It is only touched from the scheduler goroutine.
type TargetState struct {
	LastTemp  *float64
	Trend     forecast.Trend
	LastReach *int
	LastBreak *int

	Forecast     []models.ForecastPoint
	TAF          *models.TAFRecord
	DailyHigh    *models.DailyHigh
	Consensus    *models.Consensus
	ForecastDate string

	// Coordinates from the last observation, used when the target has none
	// configured.
	ObsLat, ObsLon float64

	Alerts AlertLog

	refreshDate   string
	nextForecast  time.Time
	nextTAF       time.Time
	nextDailyHigh time.Time
	nextConsensus time.Time
}

// AlertLog records which alert tiers have fired on the target's local date.
type AlertLog struct {
	Date  string
	Fired map[notify.Tier]bool
}

// roll resets the log when the local date has moved on.
func (l *AlertLog) roll(date string) {
	if l.Date != date || l.Fired == nil {
		l.Date = date
		l.Fired = make(map[notify.Tier]bool)
	}
}

// RunState is the scanner's per-target memory, keyed by target id.
type RunState struct {
	targets map[string]*TargetState
}

func NewRunState() *RunState {
	return &RunState{targets: make(map[string]*TargetState)}
}

// Target returns the state for id, creating it on first use.
func (r *RunState) Target(id string) *TargetState {
	st, ok := r.targets[id]
	if !ok {
		st = &TargetState{}
		r.targets[id] = st
	}
	return st
}

// Coordinates returns the target's configured position, falling back to the
// last observed station position. ok is false when neither is known.
func (st *TargetState) Coordinates(t models.Target) (lat, lon float64, ok bool) {
	if t.Latitude != 0 || t.Longitude != 0 {
		return t.Latitude, t.Longitude, true
	}
	if st.ObsLat != 0 || st.ObsLon != 0 {
		return st.ObsLat, st.ObsLon, true
	}
	return 0, 0, false
}
