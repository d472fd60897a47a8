package scan

import (
	"fmt"
	"time"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/signal"
)

// MarketView is the matched bucket for a decision. Temperatures are in the
// market unit.
type MarketView struct {
	Slug     string   `json:"slug"`
	Status   string   `json:"status"`
	Strategy string   `json:"strategy,omitempty"`
	Bucket   string   `json:"bucket,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// Decision is one target's evaluation result as shown on the board.
// Temperatures are in the market unit unless suffixed with C.
type Decision struct {
	ID      string `json:"id"`
	Station string `json:"station"`
	Unit    string `json:"unit"`

	Signal  signal.Signal   `json:"signal"`
	Gate    signal.Decision `json:"gate"`
	Tracked bool            `json:"tracked"`
	Score   float64         `json:"score"`

	Reach int `json:"reach"`
	Break int `json:"break"`

	Current   float64        `json:"current"`
	Target    *float64       `json:"target,omitempty"`
	Benchmark *float64       `json:"benchmark,omitempty"`
	Deviation *float64       `json:"deviation,omitempty"`
	Realized  *float64       `json:"realized,omitempty"`
	TAFMax    *float64       `json:"taf_max,omitempty"`
	Trend     forecast.Trend `json:"trend"`
	Raining   bool           `json:"raining"`
	Cover     string         `json:"cover"`
	WindDir   *float64       `json:"wind_dir,omitempty"`
	Upstream  string         `json:"upstream,omitempty"`

	Market   MarketView `json:"market"`
	EdgePct  *float64   `json:"edge_pct,omitempty"`
	Stake    float64    `json:"stake"`
	PeakHour float64    `json:"peak_hour"`

	Adjustments map[string]float64 `json:"adjustments,omitempty"`
	Flags       []string           `json:"flags,omitempty"`

	Timer     string    `json:"timer"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeviationDisplay renders the deviation from benchmark with a sign.
func (d Decision) DeviationDisplay() string {
	if d.Deviation == nil {
		return "--"
	}
	return fmt.Sprintf("%+.1f°", *d.Deviation)
}

// PriceDisplay renders the bucket price in cents.
func (d Decision) PriceDisplay() string {
	if d.Market.Price == nil {
		return "--"
	}
	return fmt.Sprintf("%.0f¢", *d.Market.Price*100)
}

// TempDisplay renders a temperature in the decision's unit.
func (d Decision) TempDisplay(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.1f°%s", *v, d.Unit)
}
