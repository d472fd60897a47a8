package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/ingest"
	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/notify"
	"github.com/lox/tempedge/internal/signal"
	"github.com/lox/tempedge/internal/store"
)

func ptr(v float64) *float64 { return &v }

var testDay = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fakeObs struct {
	mu      sync.Mutex
	metar   map[string][]models.Observation
	errs    map[string]error
	history []models.HistoryReading
	calls   map[string]int
}

func (f *fakeObs) FetchMETAR(_ context.Context, station string) ([]models.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[station]++
	if station == "BOOM" {
		panic("malformed report")
	}
	if err := f.errs[station]; err != nil {
		return nil, err
	}
	obs, ok := f.metar[station]
	if !ok {
		return nil, ingest.ErrNoData
	}
	return obs, nil
}

func (f *fakeObs) FetchHistory(_ context.Context, _ string) ([]models.HistoryReading, error) {
	if f.history == nil {
		return nil, ingest.ErrNoData
	}
	return f.history, nil
}

type fakeForecast struct {
	points []models.ForecastPoint
	err    error
}

func (f *fakeForecast) FetchHourly(_ context.Context, _ string) ([]models.ForecastPoint, error) {
	return f.points, f.err
}

type fakeTAF struct{ raw string }

func (f *fakeTAF) FetchTAF(_ context.Context, _ string) (string, string, error) {
	return f.raw, "api", nil
}

type fakeBuckets struct{ buckets []models.MarketBucket }

func (f *fakeBuckets) FetchBuckets(_ context.Context, slug string) ([]models.MarketBucket, error) {
	if slug != "highest-temperature-in-testville-on-october-18" {
		return nil, nil
	}
	return f.buckets, nil
}

type recorder struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (r *recorder) Notify(_ context.Context, a notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recorder) tiers() []notify.Tier {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Tier
	for _, a := range r.alerts {
		out = append(out, a.Tier)
	}
	return out
}

// hourly returns 24 points at 17° with a 20° peak at 15:00.
func hourly() []models.ForecastPoint {
	var points []models.ForecastPoint
	for h := 0; h < 24; h++ {
		temp := 17.0
		if h == 15 {
			temp = 20
		}
		points = append(points, models.ForecastPoint{ValidTime: at(h, 0), Temp: temp})
	}
	return points
}

func observation(temp float64, when time.Time) models.Observation {
	return models.Observation{
		Station:    "TEST",
		ObservedAt: when,
		Temp:       temp,
		WindDir:    ptr(220),
		WxString:   "",
	}
}

func testTarget(id, station string) models.Target {
	return models.Target{
		ID:         id,
		Station:    station,
		LocationID: "loc-" + id,
		Unit:       "C",
		WarmWind:   [2]float64{180, 260},
		SlugBase:   "highest-temperature-in-testville-on",
		Style:      models.StyleAuto,
		Loc:        time.UTC,
	}
}

type harness struct {
	sched    *Scheduler
	obs      *fakeObs
	forecast *fakeForecast
	notes    *recorder
	clock    time.Time
}

func newHarness(t *testing.T, targets ...models.Target) *harness {
	t.Helper()
	if len(targets) == 0 {
		targets = []models.Target{testTarget("TESTVILLE", "TEST")}
	}
	h := &harness{
		obs: &fakeObs{metar: map[string][]models.Observation{
			"TEST": {observation(18, at(12, 50)), observation(17, at(12, 20))},
		}},
		forecast: &fakeForecast{points: hourly()},
		notes:    &recorder{},
		clock:    at(13, 0),
	}
	src := Sources{
		Observations: h.obs,
		Forecast:     h.forecast,
		Market: market.NewQuoter(&fakeBuckets{buckets: []models.MarketBucket{
			{Label: "19°C", Price: 0.30, HasPrice: true, Active: true},
			{Label: "20°C", Price: 0.40, HasPrice: true, Active: true},
			{Label: "21°C", Price: 0.20, HasPrice: true, Active: true},
		}}, time.Minute),
	}
	opts := DefaultOptions()
	opts.Pacing = 0
	opts.CycleInterval = 10 * time.Millisecond
	h.sched = NewScheduler(targets, src, opts, h.notes)
	h.sched.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) evaluate(t *testing.T, id string) Decision {
	t.Helper()
	target, ok := h.sched.Target(id)
	require.True(t, ok)
	h.sched.refreshTarget(context.Background(), target)
	d, err := h.sched.Evaluate(context.Background(), target)
	require.NoError(t, err)
	return d
}

func TestEvaluate_Scenario(t *testing.T) {
	h := newHarness(t)

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, 54, d.Reach)
	assert.Equal(t, 50, d.Break)
	assert.Equal(t, signal.Wait, d.Signal.Kind)
	assert.Equal(t, forecast.TrendUp, d.Trend)
	assert.True(t, d.Gate.Allowed)
	require.NotNil(t, d.Target)
	assert.InDelta(t, 20.0, *d.Target, 1e-9)
	require.NotNil(t, d.Deviation)
	assert.InDelta(t, 1.0, *d.Deviation, 1e-9)
	assert.Equal(t, "+1.0°", d.DeviationDisplay())
	assert.Equal(t, "11:00:00", d.Timer)
	assert.InDelta(t, 15.0, d.PeakHour, 1e-9)

	assert.Equal(t, string(market.StatusMatched), d.Market.Status)
	assert.Equal(t, string(market.StrategyPrediction), d.Market.Strategy)
	assert.Equal(t, "20°C", d.Market.Bucket)
	assert.Equal(t, "40¢", d.PriceDisplay())
	require.NotNil(t, d.EdgePct)
	assert.InDelta(t, 14.0, *d.EdgePct, 1e-9)
	assert.Zero(t, d.Stake, "WAIT is not sized")
	assert.InDelta(t, 500+54+140, d.Score, 1e-9)
	assert.Empty(t, d.Adjustments)
}

func TestEvaluate_BuyReachSizesStakeAndAlertsOnce(t *testing.T) {
	h := newHarness(t)
	h.obs.metar["TEST"] = []models.Observation{observation(19.8, at(12, 50)), observation(19, at(12, 20))}

	d := h.evaluate(t, "TESTVILLE")

	// proximity 38.4, wind 20, deviation bonus 14, trend 5.
	assert.Equal(t, 77, d.Reach)
	assert.Equal(t, 73, d.Break)
	assert.Equal(t, signal.BuyReach, d.Signal.Kind)
	assert.Equal(t, signal.TierStandard, d.Signal.Tier)
	// b=1.5, f=(1.5*0.77-0.23)/1.5, half Kelly on 1000.
	assert.InDelta(t, (1.5*0.77-0.23)/1.5*0.5*1000, d.Stake, 1e-6)
	assert.InDelta(t, 700+77+370, d.Score, 1e-6)
	assert.Equal(t, []notify.Tier{notify.TierReach}, h.notes.tiers())

	// Same reading again: no repeat REACH and no temperature change.
	h.clock = at(13, 5)
	h.evaluate(t, "TESTVILLE")
	assert.Equal(t, []notify.Tier{notify.TierReach}, h.notes.tiers())

	// New reading fires TEMP_CHANGE only.
	h.obs.metar["TEST"] = []models.Observation{observation(19.9, at(13, 20))}
	h.clock = at(13, 25)
	h.evaluate(t, "TESTVILLE")
	assert.Equal(t, []notify.Tier{notify.TierReach, notify.TierTempChange}, h.notes.tiers())
}

func TestEvaluate_Calibrating(t *testing.T) {
	h := newHarness(t)
	h.forecast.points = nil
	h.forecast.err = errors.New("forecast unavailable")

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, signal.Calibrating, d.Signal.Kind)
	assert.Zero(t, d.Reach)
	assert.Zero(t, d.Break)
	assert.Nil(t, d.Target)
	assert.Zero(t, d.Score)
	assert.Empty(t, h.notes.tiers())
}

func TestEvaluate_TAFConfirmsPrediction(t *testing.T) {
	h := newHarness(t)
	h.sched.src.TAF = &fakeTAF{raw: "TAF TEST 181100Z 1812/1912 22010KT 9999 FEW040 TX21/1815Z TN12/1905Z"}

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, 99, d.Reach)
	assert.Equal(t, signal.PredictionBreak, d.Signal.Kind)
	require.NotNil(t, d.TAFMax)
	assert.InDelta(t, 21.0, *d.TAFMax, 1e-9)
	assert.Contains(t, h.notes.tiers(), notify.TierPrediction)
}

// staleHourly returns a forecast that stops at 09:00, too far from the 13:00
// harness clock to give a benchmark.
func staleHourly() []models.ForecastPoint {
	var points []models.ForecastPoint
	for h := 0; h < 10; h++ {
		temp := 17.0
		if h == 5 {
			temp = 20
		}
		points = append(points, models.ForecastPoint{ValidTime: at(h, 0), Temp: temp})
	}
	return points
}

func TestEvaluate_StaleForecastStillClassifies(t *testing.T) {
	h := newHarness(t)
	h.forecast.points = staleHourly()

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, signal.NoTrade, d.Signal.Kind)
	assert.Zero(t, d.Reach)
	assert.Zero(t, d.Break)
	assert.Nil(t, d.Benchmark)
	assert.Nil(t, d.Deviation)
	require.NotNil(t, d.Target)
	assert.InDelta(t, 20.0, *d.Target, 1e-9)
}

func TestEvaluate_StaleForecastWithTAFIsPrediction(t *testing.T) {
	h := newHarness(t)
	h.forecast.points = staleHourly()
	h.sched.src.TAF = &fakeTAF{raw: "TAF TEST 181100Z 1812/1912 22010KT 9999 FEW040 TX21/1815Z TN12/1905Z"}

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, signal.PredictionBreak, d.Signal.Kind)
	assert.Zero(t, d.Reach, "no benchmark scores 0")
	assert.Nil(t, d.Deviation)
	assert.Equal(t, []notify.Tier{notify.TierPrediction}, h.notes.tiers())
}

func TestEvaluate_BreakAlertOnFlatTrend(t *testing.T) {
	h := newHarness(t)
	h.obs.metar["TEST"] = []models.Observation{observation(18, at(12, 50)), observation(18, at(12, 20))}
	h.sched.src.TAF = &fakeTAF{raw: "TAF TEST 181100Z 1812/1912 22010KT 9999 FEW040 TX22/1815Z TN12/1905Z"}

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, forecast.TrendFlat, d.Trend)
	assert.Equal(t, 99, d.Break)
	assert.Equal(t, []notify.Tier{notify.TierBreak, notify.TierPrediction}, h.notes.tiers())

	// Unchanged break on the next cycle does not repeat.
	h.clock = at(13, 5)
	h.evaluate(t, "TESTVILLE")
	assert.Equal(t, []notify.Tier{notify.TierBreak, notify.TierPrediction}, h.notes.tiers())
}

type unlistedEvent struct{}

func (unlistedEvent) FetchBuckets(_ context.Context, slug string) ([]models.MarketBucket, error) {
	return nil, fmt.Errorf("event %s: %w", slug, market.ErrNoMarket)
}

func TestEvaluate_UnlistedEventIsNoMarket(t *testing.T) {
	h := newHarness(t)
	h.sched.src.Market = market.NewQuoter(unlistedEvent{}, time.Minute)

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, string(market.StatusNoMarket), d.Market.Status)
	assert.Equal(t, signal.Wait, d.Signal.Kind)
}

func TestEvaluate_GateAndTrackedOverride(t *testing.T) {
	h := newHarness(t)
	h.clock = at(22, 30)
	h.obs.metar["TEST"] = []models.Observation{observation(19.8, at(22, 20)), observation(19, at(21, 50))}

	d := h.evaluate(t, "TESTVILLE")
	assert.Equal(t, signal.Gated, d.Signal.Kind, "AUTO dead zone with 1.5h left")
	require.NotNil(t, d.Signal.Underlying)
	assert.Equal(t, signal.BuyReach, d.Signal.Underlying.Kind)
	assert.Zero(t, d.Stake)

	assert.True(t, h.sched.Tracked().Toggle("TESTVILLE"))
	d = h.evaluate(t, "TESTVILLE")
	assert.Equal(t, signal.BuyReach, d.Signal.Kind, "tracked targets bypass the gate")
	assert.True(t, d.Tracked)
	assert.Greater(t, d.Score, 10000.0)
}

func TestEvaluate_TrackedExitOnRain(t *testing.T) {
	h := newHarness(t)
	rain := observation(18, at(12, 50))
	rain.WxString = "-RA"
	h.obs.metar["TEST"] = []models.Observation{rain}
	h.sched.Tracked().Toggle("TESTVILLE")

	d := h.evaluate(t, "TESTVILLE")
	assert.Equal(t, signal.Exit, d.Signal.Kind)
	require.NotNil(t, d.Signal.Underlying)
	assert.Equal(t, signal.RainKill, d.Signal.Underlying.Kind)
	assert.True(t, d.Raining)
}

func TestEvaluate_UpstreamAdvection(t *testing.T) {
	target := testTarget("TESTVILLE", "TEST")
	target.Upstream = models.Upstream{S: "UPWIND"}
	h := newHarness(t, target)
	h.obs.metar["UPWIND"] = []models.Observation{observation(21, at(12, 50))}

	d := h.evaluate(t, "TESTVILLE")

	assert.Equal(t, "UPWIND", d.Upstream)
	assert.Equal(t, map[string]float64{"advection": 6}, d.Adjustments)
	assert.Equal(t, 60, d.Reach)
}

func TestEvaluate_BankingOnRealizedHigh(t *testing.T) {
	h := newHarness(t)
	h.obs.history = []models.HistoryReading{
		{Temp: 19.4, ReportTime: at(11, 0)},
		{Temp: 16, ReportTime: at(6, 0)},
	}

	d := h.evaluate(t, "TESTVILLE")

	require.NotNil(t, d.Realized)
	assert.InDelta(t, 19.4, *d.Realized, 1e-9)
	assert.Equal(t, string(market.StrategyBanking), d.Market.Strategy)
	assert.Equal(t, "19°C", d.Market.Bucket)
}

func TestEvaluate_ObservationErrors(t *testing.T) {
	h := newHarness(t)

	h.obs.errs = map[string]error{"TEST": errors.New("timeout")}
	_, err := h.sched.Evaluate(context.Background(), testTarget("TESTVILLE", "TEST"))
	require.Error(t, err)

	h.obs.errs = nil
	h.obs.metar["TEST"] = []models.Observation{observation(99, at(12, 50))}
	_, err = h.sched.Evaluate(context.Background(), testTarget("TESTVILLE", "TEST"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed QC")
}

func TestRunCycle_FailureKeepsPreviousEntry(t *testing.T) {
	h := newHarness(t, testTarget("TESTVILLE", "TEST"), testTarget("OTHER", "OTHR"))
	h.obs.metar["OTHR"] = []models.Observation{observation(15, at(12, 50))}

	sum := h.sched.RunCycle(context.Background())
	assert.Equal(t, 2, sum.Evaluated)
	assert.Zero(t, sum.Failed)
	require.Equal(t, 2, h.sched.Board().Len())
	before, _ := h.sched.Board().Get("TESTVILLE")

	h.obs.errs = map[string]error{"TEST": errors.New("timeout")}
	h.clock = at(13, 1)
	sum = h.sched.RunCycle(context.Background())
	assert.Equal(t, 1, sum.Evaluated)
	assert.Equal(t, 1, sum.Failed)

	after, ok := h.sched.Board().Get("TESTVILLE")
	require.True(t, ok)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	other, _ := h.sched.Board().Get("OTHER")
	assert.Equal(t, at(13, 1), other.UpdatedAt)
}

func TestRunCycle_RecoversPanic(t *testing.T) {
	h := newHarness(t, testTarget("BROKEN", "BOOM"), testTarget("TESTVILLE", "TEST"))

	sum := h.sched.RunCycle(context.Background())

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Evaluated)
	_, ok := h.sched.Board().Get("TESTVILLE")
	assert.True(t, ok)
	_, ok = h.sched.Board().Get("BROKEN")
	assert.False(t, ok)
}

func TestRunCycle_PacesFirstPair(t *testing.T) {
	h := newHarness(t, testTarget("ALPHA", "TEST"), testTarget("BRAVO", "TEST"))
	h.sched.pacer = NewPacer(30 * time.Millisecond)

	start := time.Now()
	sum := h.sched.RunCycle(context.Background())

	assert.Equal(t, 2, sum.Evaluated)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRunCycle_RecordsCycles(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	h := newHarness(t)
	h.clock = time.Now().UTC()
	h.sched.SetCycleRecorder(st)
	h.sched.RunCycle(context.Background())

	health, err := st.GetCycleHealth(h.clock.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, health.TotalCycles)
}

func TestRefresh_CachesUntilDue(t *testing.T) {
	h := newHarness(t)
	calls := 0
	counting := &countingForecast{fakeForecast: h.forecast, calls: &calls}
	h.sched.src.Forecast = counting

	ctx := context.Background()
	target := testTarget("TESTVILLE", "TEST")
	h.sched.refreshTarget(ctx, target)
	h.clock = h.clock.Add(10 * time.Minute)
	h.sched.refreshTarget(ctx, target)
	assert.Equal(t, 1, calls)

	h.clock = h.clock.Add(30 * time.Minute)
	h.sched.refreshTarget(ctx, target)
	assert.Equal(t, 2, calls)

	// Failures retry sooner than the full interval.
	h.forecast.err = errors.New("down")
	h.clock = h.clock.Add(30 * time.Minute)
	h.sched.refreshTarget(ctx, target)
	h.clock = h.clock.Add(retryAfter)
	h.sched.refreshTarget(ctx, target)
	assert.Equal(t, 4, calls)
	assert.NotEmpty(t, h.sched.state.Target("TESTVILLE").Forecast, "failed refresh keeps the cached forecast")
}

type countingForecast struct {
	*fakeForecast
	calls *int
}

func (c *countingForecast) FetchHourly(ctx context.Context, id string) ([]models.ForecastPoint, error) {
	*c.calls++
	return c.fakeForecast.FetchHourly(ctx, id)
}

func TestScheduler_StartStop(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.True(t, h.sched.Start(ctx))
	assert.False(t, h.sched.Start(ctx), "already running")
	assert.True(t, h.sched.Running())

	require.Eventually(t, func() bool { return h.sched.Board().Len() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, h.sched.Stop())
	assert.False(t, h.sched.Stop(), "already stopped")
	h.sched.Wait()
	assert.False(t, h.sched.Running())

	assert.True(t, h.sched.Start(ctx))
	cancel()
	h.sched.Wait()
	assert.False(t, h.sched.Running())
}

func TestBoard(t *testing.T) {
	b := NewBoard()
	b.Upsert(Decision{ID: "A", Score: 500})
	b.Upsert(Decision{ID: "B", Score: 900})
	b.Upsert(Decision{ID: "C", Score: 500})

	ids := func() []string {
		var out []string
		for _, d := range b.Snapshot() {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Equal(t, []string{"B", "A", "C"}, ids())

	b.Upsert(Decision{ID: "C", Score: 10500})
	assert.Equal(t, []string{"C", "B", "A"}, ids())
	assert.Equal(t, 3, b.Len())

	snap := b.Snapshot()
	snap[0].ID = "mutated"
	got, ok := b.Get("C")
	require.True(t, ok)
	assert.Equal(t, 10500.0, got.Score)
}

func TestTracked(t *testing.T) {
	tr := NewTracked()
	assert.False(t, tr.Is("LONDON"))
	assert.True(t, tr.Toggle("LONDON"))
	assert.True(t, tr.Toggle("SEOUL"))
	assert.Equal(t, []string{"LONDON", "SEOUL"}, tr.List())
	assert.False(t, tr.Toggle("LONDON"))
	assert.False(t, tr.Is("LONDON"))
}

func TestAlertTiers(t *testing.T) {
	reach := func(v int) *int { return &v }
	buy := signal.Signal{Kind: signal.BuyReach, Tier: signal.TierStandard, Prob: 78}

	tests := []struct {
		name  string
		in    alertInput
		fired map[notify.Tier]bool
		want  []notify.Tier
	}{
		{"reach crossing", alertInput{classified: buy, reach: 78, prevReach: reach(70)}, nil, []notify.Tier{notify.TierReach}},
		{"reach first sight", alertInput{classified: buy, reach: 78}, nil, []notify.Tier{notify.TierReach}},
		{"reach already above", alertInput{classified: buy, reach: 78, prevReach: reach(76)}, nil, nil},
		{"reach already fired", alertInput{classified: buy, reach: 78, prevReach: reach(60)}, map[notify.Tier]bool{notify.TierReach: true}, nil},
		{"break first sight", alertInput{classified: signal.Signal{Kind: signal.ScalpBreak}, reach: 100, brk: 96}, nil, []notify.Tier{notify.TierBreak}},
		{"break rising", alertInput{classified: signal.Signal{Kind: signal.ScalpBreak}, reach: 100, brk: 96, prevBreak: reach(90)}, nil, []notify.Tier{notify.TierBreak}},
		{"break jumps", alertInput{classified: signal.Signal{Kind: signal.ScalpBreak}, reach: 100, brk: 99, prevBreak: reach(0)}, nil, []notify.Tier{notify.TierBreak}},
		{"break not rising", alertInput{classified: signal.Signal{Kind: signal.ScalpBreak}, reach: 100, brk: 96, prevBreak: reach(96)}, nil, nil},
		{"break below threshold", alertInput{classified: signal.Signal{Kind: signal.ScalpBreak}, reach: 100, brk: 94, prevBreak: reach(80)}, nil, nil},
		{"prediction", alertInput{classified: signal.Signal{Kind: signal.PredictionBreak}, reach: 99, brk: 99}, nil, []notify.Tier{notify.TierPrediction}},
		{"prediction fired", alertInput{classified: signal.Signal{Kind: signal.PredictionBreak}, reach: 99}, map[notify.Tier]bool{notify.TierPrediction: true}, nil},
		{"temp change", alertInput{classified: signal.Signal{Kind: signal.Wait}, prevTemp: ptr(18), temp: 18.5}, nil, []notify.Tier{notify.TierTempChange}},
		{"temp change repeats", alertInput{classified: signal.Signal{Kind: signal.Wait}, prevTemp: ptr(18), temp: 18.5}, map[notify.Tier]bool{notify.TierTempChange: true}, []notify.Tier{notify.TierTempChange}},
		{"suppressed calibrating", alertInput{classified: signal.Signal{Kind: signal.Calibrating}, prevTemp: ptr(18), temp: 19}, nil, nil},
		{"suppressed rain", alertInput{classified: signal.Signal{Kind: signal.RainKill}, brk: 99}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alertTiers(tt.in, tt.fired))
		})
	}
}

func TestAlertLog_RollsAtLocalMidnight(t *testing.T) {
	var l AlertLog
	l.roll("2026-10-18")
	l.Fired[notify.TierReach] = true
	l.roll("2026-10-18")
	assert.True(t, l.Fired[notify.TierReach])
	l.roll("2026-10-19")
	assert.False(t, l.Fired[notify.TierReach])
	assert.Equal(t, "2026-10-19", l.Date)
}

func TestPacer(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)
	ctx := context.Background()

	// The first wait of a cycle is paced like the rest.
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, p.Wait(cancelled))
}

func TestPacer_Disabled(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
