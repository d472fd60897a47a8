// Package scan drives the evaluation loop: one target at a time, paced, with
// each result published to a ranked board as soon as it is ready.
package scan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/ingest"
	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/metrics"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/notify"
	"github.com/lox/tempedge/internal/probability"
	"github.com/lox/tempedge/internal/signal"
	"github.com/lox/tempedge/internal/stake"
	"github.com/lox/tempedge/internal/store"
)

// marketUnavailable is the market status when the quote could not be fetched.
const marketUnavailable = "UNAVAILABLE"

type Options struct {
	CycleInterval time.Duration
	Pacing        time.Duration
	Refresh       Intervals

	Bankroll       float64
	KellyFraction  float64
	BlendConsensus bool

	// Adjustments defaults to probability.DefaultAdjustments when nil.
	Adjustments []probability.Adjustment
}

func DefaultOptions() Options {
	return Options{
		CycleInterval: 5 * time.Second,
		Pacing:        750 * time.Millisecond,
		Refresh: Intervals{
			Forecast:  30 * time.Minute,
			TAF:       10 * time.Minute,
			DailyHigh: 5 * time.Minute,
			Consensus: 30 * time.Minute,
		},
		Bankroll:      1000,
		KellyFraction: 0.5,
	}
}

// CycleSummary counts the outcome of one pass over the targets.
type CycleSummary struct {
	ID        string
	Evaluated int
	Failed    int
	Duration  time.Duration
}

type Scheduler struct {
	targets  []models.Target
	src      Sources
	opts     Options
	notifier notify.Notifier
	recorder CycleRecorder

	board   *Board
	tracked *Tracked
	state   *RunState
	pacer   *Pacer
	now     func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	looping bool
	wg      sync.WaitGroup
}

func NewScheduler(targets []models.Target, src Sources, opts Options, notifier notify.Notifier) *Scheduler {
	if opts.Adjustments == nil {
		opts.Adjustments = probability.DefaultAdjustments
	}
	if opts.CycleInterval <= 0 {
		opts.CycleInterval = DefaultOptions().CycleInterval
	}
	return &Scheduler{
		targets:  targets,
		src:      src,
		opts:     opts,
		notifier: notifier,
		board:    NewBoard(),
		tracked:  NewTracked(),
		state:    NewRunState(),
		pacer:    NewPacer(opts.Pacing),
		now:      time.Now,
	}
}

// SetCycleRecorder configures the scheduler to persist a record of every
// cycle.
func (s *Scheduler) SetCycleRecorder(r CycleRecorder) {
	s.recorder = r
}

func (s *Scheduler) Board() *Board { return s.board }

func (s *Scheduler) Tracked() *Tracked { return s.tracked }

func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) Targets() []models.Target { return s.targets }

// Target looks up a configured target by id.
func (s *Scheduler) Target(id string) (models.Target, bool) {
	for _, t := range s.targets {
		if t.ID == id {
			return t, true
		}
	}
	return models.Target{}, false
}

// Start sets the run flag and launches the loop if it is not already
// running. It reports whether the flag changed.
func (s *Scheduler) Start(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	log.Info().Int("targets", len(s.targets)).Msg("scheduler: started")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.looping {
		s.looping = true
		s.wg.Add(1)
		go s.loop(ctx)
	}
	return true
}

// Stop clears the run flag. A cycle already in flight finishes; the next
// one does not start. It reports whether the flag changed.
func (s *Scheduler) Stop() bool {
	if !s.running.CompareAndSwap(true, false) {
		return false
	}
	log.Info().Msg("scheduler: stopping after current cycle")
	return true
}

// Wait blocks until the loop goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		case <-timer.C:
		}

		s.mu.Lock()
		if ctx.Err() != nil {
			s.running.Store(false)
		}
		if !s.running.Load() {
			s.looping = false
			s.mu.Unlock()
			log.Info().Msg("scheduler: shutting down")
			return
		}
		s.mu.Unlock()

		s.RunCycle(ctx)
		timer.Reset(s.opts.CycleInterval)
	}
}

// RunCycle refreshes due caches and evaluates every target once, in order,
// publishing each result as soon as it is ready.
func (s *Scheduler) RunCycle(ctx context.Context) CycleSummary {
	start := s.now()
	sum := CycleSummary{ID: uuid.NewString()}

	run := s.startCycleRecord(sum.ID, start)

	s.refreshAll(ctx)

	for i, t := range s.targets {
		if i > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				break
			}
		}

		d, err := s.evaluateSafe(ctx, t)
		if err != nil {
			sum.Failed++
			metrics.EvaluationsTotal.WithLabelValues(t.ID, "error").Inc()
			log.Warn().Err(err).Str("target", t.ID).Msg("scheduler: evaluation failed")
			continue
		}
		sum.Evaluated++
		metrics.EvaluationsTotal.WithLabelValues(t.ID, "ok").Inc()
		s.board.Upsert(d)
	}

	sum.Duration = s.now().Sub(start)
	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(sum.Duration.Seconds())
	log.Info().
		Str("cycle", sum.ID).
		Int("evaluated", sum.Evaluated).
		Int("failed", sum.Failed).
		Dur("duration", sum.Duration).
		Msg("scheduler: cycle complete")

	s.completeCycleRecord(run, sum)
	return sum
}

func (s *Scheduler) evaluateSafe(ctx context.Context, t models.Target) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic evaluating %s: %v", t.ID, r)
		}
	}()
	return s.Evaluate(ctx, t)
}

// Evaluate runs the full decision pipeline for one target. Only a missing or
// implausible primary observation is an error; secondary inputs that fail
// are treated as unavailable.
func (s *Scheduler) Evaluate(ctx context.Context, t models.Target) (Decision, error) {
	now := s.now()
	loc := t.Location()
	st := s.state.Target(t.ID)

	obsList, err := s.src.Observations.FetchMETAR(ctx, t.Station)
	if err != nil {
		return Decision{}, fmt.Errorf("observation %s: %w", t.Station, err)
	}
	if len(obsList) == 0 {
		return Decision{}, fmt.Errorf("observation %s: %w", t.Station, ingest.ErrNoData)
	}
	obs := obsList[0]
	flags := ingest.ValidateObservation(obs, now)
	if !ingest.Usable(flags) {
		return Decision{}, fmt.Errorf("observation %s failed QC: %v", t.Station, flags)
	}
	if obs.Latitude != 0 || obs.Longitude != 0 {
		st.ObsLat, st.ObsLon = obs.Latitude, obs.Longitude
	}

	trend := forecast.SeedTrend(obsList)
	if st.LastTemp != nil {
		trend = forecast.NextTrend(st.Trend, *st.LastTemp, obs.Temp)
	}

	upstreamID, upstreamTemp := s.upstream(ctx, t, obs)
	radar := s.radar(ctx, t, st)

	targetMax, haveTarget := forecast.TargetMax(st.Forecast)
	if haveTarget && s.opts.BlendConsensus {
		targetMax = forecast.BlendTarget(targetMax, st.Consensus)
	}
	var benchmark *float64
	if b, ok := forecast.Benchmark(st.Forecast, now); ok {
		benchmark = &b
	}
	// A stale forecast with no benchmark still classifies; the model scores
	// it 0 and TAF confirmation can carry it.
	calibrating := !haveTarget

	var deviation *float64
	if benchmark != nil {
		dev := obs.Temp - *benchmark
		deviation = &dev
	}

	var tafMax *float64
	if st.TAF != nil {
		tafMax = st.TAF.Max
	}
	var calendar, rolling *float64
	if st.DailyHigh != nil {
		rolling = st.DailyHigh.Rolling
		if v, ok := forecast.Realized(st.DailyHigh, loc, now); ok {
			calendar = &v
		}
	}

	adjCtx := probability.AdjustmentContext{
		Dewpoint:     obs.Dewpoint,
		UpstreamTemp: upstreamTemp,
		Consensus:    st.Consensus,
		Radar:        radar,
	}

	var reach, brk int
	if !calibrating {
		reach, brk = probability.ReachAndBreak(probability.Input{
			Current:      obs.Temp,
			TargetMax:    targetMax,
			Benchmark:    benchmark,
			WindDir:      obs.WindDir,
			Cover:        obs.PrimaryCover(),
			WarmWind:     t.WarmWind,
			Trend:        trend,
			TAFMax:       tafMax,
			Raining:      obs.IsRaining(),
			RollingHigh:  rolling,
			CalendarHigh: calendar,
			Now:          now,
			Location:     loc,
			Adjustments:  s.opts.Adjustments,
			Context:      adjCtx,
		})
	}

	classified := signal.Classify(signal.Inputs{
		Reach:        reach,
		Break:        brk,
		Deviation:    deviation,
		Trend:        trend,
		Calibrating:  calibrating,
		TAFConfirmed: haveTarget && tafMax != nil && *tafMax >= targetMax,
		Raining:      obs.IsRaining(),
	})

	remaining := forecast.Remaining(now, loc)
	peak := forecast.PeakHour(st.Forecast, loc)
	gate := signal.Gate(signal.GateInput{
		Style:          t.Style,
		Policy:         t.Peak,
		RemainingHours: remaining.Hours(),
		HoursNow:       forecast.HourOfDay(now.In(loc)),
		PeakHour:       peak,
	})
	tracked := s.tracked.Is(t.ID)
	final := signal.Finalize(classified, tracked, gate)

	d := Decision{
		ID:        t.ID,
		Station:   t.Station,
		Unit:      t.Unit,
		Signal:    final,
		Gate:      gate,
		Tracked:   tracked,
		Reach:     reach,
		Break:     brk,
		Current:   forecast.ToMarketUnit(t, obs.Temp),
		Benchmark: toMarket(t, benchmark),
		TAFMax:    toMarket(t, tafMax),
		Realized:  toMarket(t, calendar),
		Trend:     trend,
		Raining:   obs.IsRaining(),
		Cover:     obs.PrimaryCover(),
		WindDir:   obs.WindDir,
		Upstream:  upstreamID,
		PeakHour:  peak,
		Flags:     flags,
		Timer:     forecast.FormatRemaining(remaining),
		UpdatedAt: now,
	}
	if deviation != nil {
		dv := forecast.DeltaToMarketUnit(t, *deviation)
		d.Deviation = &dv
	}
	if haveTarget {
		d.Target = toMarket(t, &targetMax)
		if !calibrating {
			bd := adjCtx
			bd.Current, bd.Target = obs.Temp, targetMax
			d.Adjustments = probability.Breakdown(s.opts.Adjustments, bd)
		}
		s.quote(ctx, t, now, targetMax, calendar, &d)
	}

	d.Score = signal.SortScore(final, d.EdgePct, tracked)

	s.fireAlerts(ctx, t, st, d, alertInput{
		classified: classified,
		reach:      reach,
		brk:        brk,
		prevReach:  st.LastReach,
		prevBreak:  st.LastBreak,
		prevTemp:   st.LastTemp,
		temp:       obs.Temp,
	})

	temp := obs.Temp
	st.LastTemp = &temp
	st.Trend = trend
	if !calibrating {
		st.LastReach = &reach
		st.LastBreak = &brk
	}

	metrics.ReachProbability.WithLabelValues(t.ID).Set(float64(reach))
	metrics.SignalState.DeletePartialMatch(prometheus.Labels{"target": t.ID})
	metrics.SignalState.WithLabelValues(t.ID, string(final.Kind)).Set(1)

	log.Debug().
		Str("target", t.ID).
		Float64("temp", obs.Temp).
		Int("reach", reach).
		Int("break", brk).
		Str("signal", signal.Plain(final)).
		Str("trend", trend.String()).
		Msg("scheduler: evaluated")

	return d, nil
}

// quote matches the market and fills in price, edge and stake.
func (s *Scheduler) quote(ctx context.Context, t models.Target, now time.Time, targetMax float64, realized *float64, d *Decision) {
	q, err := s.src.Market.Quote(ctx, t, now, targetMax, realized)
	d.Market.Slug = q.Slug
	if errors.Is(err, market.ErrNoMarket) {
		d.Market.Status = string(market.StatusNoMarket)
		return
	}
	if err != nil {
		d.Market.Status = marketUnavailable
		log.Warn().Err(err).Str("target", t.ID).Str("slug", q.Slug).Msg("scheduler: market quote failed")
		return
	}

	sel := q.Selection
	d.Market.Status = string(sel.Status)
	if !sel.Found() {
		return
	}
	d.Market.Strategy = string(sel.Strategy)
	d.Market.Bucket = sel.Bucket.Label
	price, ok := sel.Price()
	if !ok {
		return
	}
	d.Market.Price = &price

	edge := stake.EdgePct(d.Reach, price)
	d.EdgePct = &edge
	if d.Signal.Actionable() {
		d.Stake = stake.Size(float64(d.Reach)/100, price, s.opts.Bankroll, s.opts.KellyFraction)
	}
}

// upstream observes the station the wind is blowing from.
func (s *Scheduler) upstream(ctx context.Context, t models.Target, obs models.Observation) (string, *float64) {
	station, _ := forecast.UpstreamStation(t.Upstream, obs.WindDir)
	if station == "" {
		return "", nil
	}
	list, err := s.src.Observations.FetchMETAR(ctx, station)
	if err != nil || len(list) == 0 {
		if err != nil && !errors.Is(err, ingest.ErrNoData) {
			log.Warn().Err(err).Str("target", t.ID).Str("station", station).Msg("scheduler: upstream observation failed")
		}
		return station, nil
	}
	temp := list[0].Temp
	return station, &temp
}

func (s *Scheduler) radar(ctx context.Context, t models.Target, st *TargetState) *models.Radar {
	if s.src.Models == nil {
		return nil
	}
	lat, lon, ok := st.Coordinates(t)
	if !ok {
		return nil
	}
	r, err := s.src.Models.FetchRadar(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).Str("target", t.ID).Msg("scheduler: radar failed")
		return nil
	}
	return &r
}

func (s *Scheduler) startCycleRecord(id string, start time.Time) *store.CycleRun {
	if s.recorder == nil {
		return nil
	}
	run, err := s.recorder.StartCycle(id, len(s.targets), start)
	if err != nil {
		log.Warn().Err(err).Msg("scheduler: record cycle start failed")
		return nil
	}
	return run
}

func (s *Scheduler) completeCycleRecord(run *store.CycleRun, sum CycleSummary) {
	if run == nil {
		return
	}
	run.Evaluated = sum.Evaluated
	run.Failed = sum.Failed
	run.Success = sum.Evaluated > 0 || len(s.targets) == 0
	if !run.Success {
		run.ErrorMessage = sql.NullString{String: fmt.Sprintf("all %d targets failed", sum.Failed), Valid: true}
	}
	if err := s.recorder.CompleteCycle(run, s.now()); err != nil {
		log.Warn().Err(err).Msg("scheduler: record cycle completion failed")
	}
}

func toMarket(t models.Target, c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := forecast.ToMarketUnit(t, *c)
	return &v
}
