package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/models"
)

// Intervals are the slow refresh cadences for per-target caches.
type Intervals struct {
	Forecast  time.Duration
	TAF       time.Duration
	DailyHigh time.Duration
	Consensus time.Duration
}

// retryAfter caps how soon a failed refresh is attempted again.
const retryAfter = time.Minute

func nextRefresh(now time.Time, every time.Duration, err error) time.Time {
	if err != nil && every > retryAfter {
		return now.Add(retryAfter)
	}
	return now.Add(every)
}

func due(at, now time.Time) bool {
	return at.IsZero() || !now.Before(at)
}

// refreshAll brings every target's caches up to date. It runs on the
// scheduler goroutine between cycles.
func (s *Scheduler) refreshAll(ctx context.Context) {
	for _, t := range s.targets {
		if ctx.Err() != nil {
			return
		}
		s.refreshTarget(ctx, t)
	}
}

func (s *Scheduler) refreshTarget(ctx context.Context, t models.Target) {
	now := s.now()
	st := s.state.Target(t.ID)
	today := now.In(t.Location()).Format("2006-01-02")

	if st.refreshDate != today {
		// Forecast and realized high are per local day.
		st.refreshDate = today
		st.nextForecast = time.Time{}
		st.nextDailyHigh = time.Time{}
	}

	if due(st.nextForecast, now) {
		err := s.refreshForecast(ctx, t, st, today)
		st.nextForecast = nextRefresh(now, s.opts.Refresh.Forecast, err)
	}
	if s.src.TAF != nil && due(st.nextTAF, now) {
		err := s.refreshTAF(ctx, t, st)
		st.nextTAF = nextRefresh(now, s.opts.Refresh.TAF, err)
	}
	if due(st.nextDailyHigh, now) {
		err := s.refreshDailyHigh(ctx, t, st)
		st.nextDailyHigh = nextRefresh(now, s.opts.Refresh.DailyHigh, err)
	}
	if s.src.Models != nil && due(st.nextConsensus, now) {
		if _, _, ok := st.Coordinates(t); ok {
			err := s.refreshConsensus(ctx, t, st)
			st.nextConsensus = nextRefresh(now, s.opts.Refresh.Consensus, err)
		}
	}
}

func (s *Scheduler) refreshForecast(ctx context.Context, t models.Target, st *TargetState, today string) error {
	points, err := s.src.Forecast.FetchHourly(ctx, t.LocationID)
	if err != nil {
		log.Warn().Err(err).Str("target", t.ID).Str("location", t.LocationID).Msg("refresh: forecast failed")
		return err
	}
	st.Forecast = points
	st.ForecastDate = today
	if hi, ok := forecast.TargetMax(points); ok {
		log.Debug().Str("target", t.ID).Int("points", len(points)).Float64("max", hi).Msg("refresh: forecast loaded")
	}
	return nil
}

func (s *Scheduler) refreshTAF(ctx context.Context, t models.Target, st *TargetState) error {
	raw, source, err := s.src.TAF.FetchTAF(ctx, t.Station)
	if err != nil {
		log.Warn().Err(err).Str("target", t.ID).Str("station", t.Station).Msg("refresh: TAF failed")
		return err
	}
	st.TAF = &models.TAFRecord{
		Raw:       raw,
		Max:       forecast.ParseTAFMax(raw),
		Source:    source,
		FetchedAt: s.now(),
	}
	ev := log.Debug().Str("target", t.ID).Str("source", source)
	if st.TAF.Max != nil {
		ev = ev.Float64("tx", *st.TAF.Max)
	}
	ev.Msg("refresh: TAF loaded")
	return nil
}

func (s *Scheduler) refreshDailyHigh(ctx context.Context, t models.Target, st *TargetState) error {
	readings, err := s.src.Observations.FetchHistory(ctx, t.Station)
	if err != nil {
		log.Warn().Err(err).Str("target", t.ID).Str("station", t.Station).Msg("refresh: history failed")
		return err
	}
	dh := forecast.ComputeDailyHigh(readings, t.Location(), s.now())
	st.DailyHigh = &dh
	return nil
}

func (s *Scheduler) refreshConsensus(ctx context.Context, t models.Target, st *TargetState) error {
	lat, lon, _ := st.Coordinates(t)
	c, err := s.src.Models.FetchConsensus(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).Str("target", t.ID).Msg("refresh: consensus failed")
		return err
	}
	st.Consensus = &c
	return nil
}
