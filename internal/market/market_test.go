package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tempedge/internal/models"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label  string
		want   Range
		wantOK bool
	}{
		{"20-22", Range{20, 22}, true},
		{"20-22°C", Range{20, 22}, true},
		{"74-75°F", Range{74, 75}, true},
		{"20 to 22", Range{20, 22}, true},
		{"20 – 22", Range{20, 22}, true},
		{"-5 to -4", Range{-5, -4}, true},
		{"22-20", Range{20, 22}, true},
		{"Above 35", Range{35, OpenHigh}, true},
		{"35°C or higher", Range{35, OpenHigh}, true},
		{"over 90°F", Range{90, OpenHigh}, true},
		{"> 30", Range{30, OpenHigh}, true},
		{"Below -10", Range{OpenLow, -10}, true},
		{"19°C or below", Range{OpenLow, 19}, true},
		{"under 5", Range{OpenLow, 5}, true},
		{"< 0", Range{OpenLow, 0}, true},
		{"-5", Range{-5, -5}, true},
		{"21°C", Range{21, 21}, true},
		{"21 °C", Range{21, 21}, true},
		{"", Range{}, false},
		{"Other", Range{}, false},
		{"Will the highest temperature in London be 21°C on June 1?", Range{}, false},
		{"between 20 and 22", Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseLabel(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func bucket(label string, price float64) models.MarketBucket {
	return models.MarketBucket{Label: label, Price: price, HasPrice: true, Active: true}
}

func ptr(v float64) *float64 { return &v }

func TestMatch(t *testing.T) {
	buckets := []models.MarketBucket{
		bucket("17°C or below", 0.02),
		bucket("18°C", 0.10),
		bucket("19°C", 0.25),
		bucket("20°C", 0.40),
		{Label: "21°C", Price: 0.15, HasPrice: true, Active: true, Closed: true},
		bucket("garbage", 0.99),
		bucket("22°C or higher", 0.08),
	}

	tests := []struct {
		name      string
		predicted float64
		realized  *float64
		status    Status
		strategy  Strategy
		label     string
	}{
		{"prediction exact", 20, nil, StatusMatched, StrategyPrediction, "20°C"},
		{"prediction rounds half up", 19.5, nil, StatusMatched, StrategyPrediction, "20°C"},
		{"prediction rounds down", 19.4, nil, StatusMatched, StrategyPrediction, "19°C"},
		{"open low", 12, nil, StatusMatched, StrategyPrediction, "17°C or below"},
		{"open high", 30, nil, StatusMatched, StrategyPrediction, "22°C or higher"},
		{"banking within margin", 20, ptr(18.2), StatusMatched, StrategyBanking, "18°C"},
		{"banking when prediction below realized", 19, ptr(20), StatusMatched, StrategyBanking, "20°C"},
		{"prediction when ceiling well above realized", 20.3, ptr(18.2), StatusMatched, StrategyPrediction, "20°C"},
		{"closed prediction bucket, realized too far below", 20.5, ptr(18.4), StatusInactive, "", ""},
		{"closed prediction bucket", 21, nil, StatusInactive, "", ""},
		{"closed prediction bucket with banking", 21, ptr(19.6), StatusMatched, StrategyBanking, "20°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Match(buckets, tt.predicted, tt.realized)
			assert.Equal(t, tt.status, sel.Status)
			assert.Equal(t, tt.strategy, sel.Strategy)
			assert.Equal(t, tt.label, sel.Bucket.Label)
		})
	}
}

func TestMatch_NoMarket(t *testing.T) {
	sel := Match([]models.MarketBucket{bucket("garbage", 0.5)}, 20, nil)
	assert.Equal(t, StatusNoMarket, sel.Status)
	assert.False(t, sel.Found())
	_, ok := sel.Price()
	assert.False(t, ok)

	sel = Match(nil, 20, nil)
	assert.Equal(t, StatusNoMarket, sel.Status)
}

func TestSelection_Price(t *testing.T) {
	sel := Match([]models.MarketBucket{{Label: "20", Active: true}}, 20, nil)
	require.True(t, sel.Found())
	_, ok := sel.Price()
	assert.False(t, ok, "bucket without a quoted price")

	sel = Match([]models.MarketBucket{bucket("20", 0.4)}, 20, nil)
	p, ok := sel.Price()
	assert.True(t, ok)
	assert.Equal(t, 0.4, p)
}

func TestSlug(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2025-06-30 20:00 UTC is already July 1 in Seoul.
	now := time.Date(2025, 6, 30, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "highest-temperature-in-seoul-on-july-1", Slug("highest-temperature-in-seoul-on", now, seoul))
	assert.Equal(t, "highest-temperature-in-seoul-on-june-30", Slug("highest-temperature-in-seoul-on", now, time.UTC))
}

type fakeSource struct {
	calls   int
	buckets []models.MarketBucket
	err     error
	slugs   []string
}

func (f *fakeSource) FetchBuckets(ctx context.Context, slug string) ([]models.MarketBucket, error) {
	f.calls++
	f.slugs = append(f.slugs, slug)
	return f.buckets, f.err
}

func TestQuoter_CachesWithinTTL(t *testing.T) {
	src := &fakeSource{buckets: []models.MarketBucket{bucket("19°C", 0.3), bucket("20°C", 0.4)}}
	q := NewQuoter(src, 30*time.Second)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return clock }

	target := models.Target{ID: "LONDON", SlugBase: "highest-temperature-in-london-on", Unit: "C"}

	first, err := q.Quote(context.Background(), target, clock, 20, nil)
	require.NoError(t, err)

	clock = clock.Add(29 * time.Second)
	second, err := q.Quote(context.Background(), target, clock, 20, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, "highest-temperature-in-london-on-june-1", first.Slug)

	clock = clock.Add(time.Second)
	_, err = q.Quote(context.Background(), target, clock, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "refetched once the TTL elapsed")
}

func TestQuoter_DoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	q := NewQuoter(src, time.Minute)

	_, err := q.Buckets(context.Background(), "x")
	require.Error(t, err)
	_, err = q.Buckets(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)

	src.err = nil
	_, err = q.Buckets(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoMarket)
}

func TestQuoter_FahrenheitTarget(t *testing.T) {
	src := &fakeSource{buckets: []models.MarketBucket{bucket("66-67°F", 0.2), bucket("68-69°F", 0.35)}}
	q := NewQuoter(src, time.Minute)

	nyc := models.Target{ID: "NEW YORK", SlugBase: "highest-temperature-in-nyc-on", Unit: "F"}
	quote, err := q.Quote(context.Background(), nyc, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), 20, ptr(19))
	require.NoError(t, err)

	assert.Equal(t, 68.0, quote.Predicted)
	require.NotNil(t, quote.Realized)
	assert.InDelta(t, 66.2, *quote.Realized, 1e-9)
	// 68 - 66.2 = 1.8, within the banking margin.
	assert.Equal(t, StrategyBanking, quote.Selection.Strategy)
	assert.Equal(t, "66-67°F", quote.Selection.Bucket.Label)
}
