package scan

import (
	"context"
	"time"

	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/store"
)

type Observations interface {
	FetchMETAR(ctx context.Context, station string) ([]models.Observation, error)
	FetchHistory(ctx context.Context, station string) ([]models.HistoryReading, error)
}

type TAFSource interface {
	FetchTAF(ctx context.Context, station string) (raw, source string, err error)
}

type ForecastSource interface {
	FetchHourly(ctx context.Context, locationID string) ([]models.ForecastPoint, error)
}

type ModelSource interface {
	FetchConsensus(ctx context.Context, lat, lon float64) (models.Consensus, error)
	FetchRadar(ctx context.Context, lat, lon float64) (models.Radar, error)
}

type MarketQuoter interface {
	Quote(ctx context.Context, t models.Target, now time.Time, predictedC float64, realizedC *float64) (market.Quote, error)
}

// Sources are the scanner's upstream adapters. Observations, Forecast and
// Market are required; TAF and Models may be nil.
type Sources struct {
	Observations Observations
	TAF          TAFSource
	Forecast     ForecastSource
	Models       ModelSource
	Market       MarketQuoter
}

// CycleRecorder persists a record of each cycle.
type CycleRecorder interface {
	StartCycle(id string, targets int, startedAt time.Time) (*store.CycleRun, error)
	CompleteCycle(run *store.CycleRun, finishedAt time.Time) error
}
