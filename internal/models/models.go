package models

import (
	"regexp"
	"time"
)

type TradingStyle string

const (
	StyleEarly TradingStyle = "EARLY"
	StyleLate  TradingStyle = "LATE"
	StyleAuto  TradingStyle = "AUTO"
)

// PeakPolicy holds the per-market gate tuning. Zero values fall back to the
// trading style's defaults.
type PeakPolicy struct {
	WindowHours       float64 `yaml:"window_hours,omitempty"`
	DeadZoneHours     float64 `yaml:"dead_zone_hours,omitempty"`
	StopPostPeakHours float64 `yaml:"stop_post_peak_hours,omitempty"`
}

// Upstream lists the neighbouring stations in each compass direction, used to
// look at the air mass before it arrives.
type Upstream struct {
	N string `yaml:"n,omitempty"`
	S string `yaml:"s,omitempty"`
	E string `yaml:"e,omitempty"`
	W string `yaml:"w,omitempty"`
}

type Target struct {
	ID         string       `yaml:"id"`
	Station    string       `yaml:"station"`
	LocationID string       `yaml:"location_id"`
	Timezone   string       `yaml:"timezone"`
	Unit       string       `yaml:"unit"` // "C" or "F"
	WarmWind   [2]float64   `yaml:"warm_wind,flow"`
	SlugBase   string       `yaml:"slug_base"`
	Style      TradingStyle `yaml:"style"`
	Peak       PeakPolicy   `yaml:"peak,omitempty"`
	Upstream   Upstream     `yaml:"upstream,omitempty"`
	Latitude   float64      `yaml:"latitude,omitempty"`
	Longitude  float64      `yaml:"longitude,omitempty"`

	Loc *time.Location `yaml:"-"`
}

// Location returns the target's timezone, falling back to UTC when it has not
// been resolved.
func (t Target) Location() *time.Location {
	if t.Loc == nil {
		return time.UTC
	}
	return t.Loc
}

// WindMidpoint is the centre of the warm-wind band in degrees.
func (t Target) WindMidpoint() float64 {
	return (t.WarmWind[0] + t.WarmWind[1]) / 2
}

type CloudLayer struct {
	Cover string `json:"cover"`
	Base  int    `json:"base"`
}

type Observation struct {
	Station    string
	ObservedAt time.Time
	Temp       float64
	Dewpoint   *float64
	WindDir    *float64 // nil for variable or missing wind
	Clouds     []CloudLayer
	WxString   string
	Latitude   float64
	Longitude  float64
	RawOb      string
}

var precipCodes = regexp.MustCompile(`RA|DZ|TS|GR|PL`)

// IsRaining reports whether the present-weather group contains active
// precipitation or thunder.
func (o Observation) IsRaining() bool {
	return precipCodes.MatchString(o.WxString)
}

// PrimaryCover returns the lowest reported cloud layer cover, "CLR" if none.
func (o Observation) PrimaryCover() string {
	if len(o.Clouds) == 0 || o.Clouds[0].Cover == "" {
		return "CLR"
	}
	return o.Clouds[0].Cover
}

type HistoryReading struct {
	Temp       float64
	ReportTime time.Time
}

type ForecastPoint struct {
	ValidTime time.Time
	Temp      float64
	Phrase    string
}

type TAFRecord struct {
	Raw       string
	Max       *float64
	Source    string // "api" or "ftp"
	FetchedAt time.Time
}

// DailyHigh is the realized maximum for a target's local calendar day plus the
// rolling 24 hour maximum.
type DailyHigh struct {
	Date       string // local YYYY-MM-DD
	Calendar   *float64
	Rolling    *float64
	ComputedAt time.Time
}

type Consensus struct {
	Average float64
	Models  map[string]float64
	Spread  float64
}

type Radar struct {
	Incoming bool
	Amount   float64
}

// MarketBucket is one priced outcome of a temperature event as returned by the
// market adapter. The numeric range is resolved from Label by the matcher.
type MarketBucket struct {
	Label    string
	Price    float64
	HasPrice bool
	Active   bool
	Closed   bool
}
