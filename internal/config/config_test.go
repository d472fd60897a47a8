package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tempedge/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tempedge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Second, cfg.Scan.CycleInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.Scan.Pacing)
	assert.Equal(t, 8*time.Second, cfg.Scan.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Refresh.Forecast)
	assert.Equal(t, 10*time.Minute, cfg.Refresh.TAF)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.DailyHigh)
	assert.Equal(t, 1000.0, cfg.Trading.Bankroll)
	assert.Equal(t, 0.5, cfg.Trading.KellyFraction)
	assert.Equal(t, 30*time.Second, cfg.Polymarket.CacheTTL)
	assert.Empty(t, cfg.Storage.DBPath)

	targets, err := cfg.ResolveTargets()
	require.NoError(t, err)
	assert.Len(t, targets, 8)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
scan:
  pacing: 1s
trading:
  bankroll: 250
  blend_consensus: true
targets:
  - id: WELLINGTON
    station: nzwn
    timezone: Pacific/Auckland
    unit: c
    warm_wind: [300, 360]
    slug_base: highest-temperature-in-wellington-on
    style: late
    window_hours: 4
    upstream:
      n: NZOH
      s: NZCH
`)
	t.Setenv("TEMPEDGE_WEATHER_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Second, cfg.Scan.Pacing)
	assert.Equal(t, 250.0, cfg.Trading.Bankroll)
	assert.True(t, cfg.Trading.BlendConsensus)
	assert.Equal(t, "secret", cfg.Weather.APIKey)

	targets, err := cfg.ResolveTargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)

	wlg := targets[0]
	assert.Equal(t, "NZWN", wlg.Station)
	assert.Equal(t, "NZWN", wlg.LocationID)
	assert.Equal(t, "C", wlg.Unit)
	assert.Equal(t, models.StyleLate, wlg.Style)
	assert.Equal(t, 4.0, wlg.Peak.WindowHours)
	assert.Equal(t, "NZOH", wlg.Upstream.N)
	assert.Equal(t, "Pacific/Auckland", wlg.Location().String())
	assert.Equal(t, 330.0, wlg.WindMidpoint())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"kelly too large", func(c *Config) { c.Trading.KellyFraction = 1.5 }, "trading.kelly_fraction"},
		{"zero bankroll", func(c *Config) { c.Trading.Bankroll = 0 }, "trading.bankroll"},
		{"fast refresh", func(c *Config) { c.Refresh.TAF = time.Second }, "refresh.taf"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }, "telegram.bot_token"},
		{"bad timezone", func(c *Config) {
			c.Targets = []TargetConfig{{ID: "X", Station: "XXXX", SlugBase: "x", Timezone: "Nowhere/Land", WarmWind: []float64{0, 90}}}
		}, "load timezone"},
		{"bad warm wind", func(c *Config) {
			c.Targets = []TargetConfig{{ID: "X", Station: "XXXX", SlugBase: "x", Timezone: "UTC", WarmWind: []float64{90}}}
		}, "warm_wind"},
		{"duplicate id", func(c *Config) {
			tc := TargetConfig{ID: "X", Station: "XXXX", SlugBase: "x", Timezone: "UTC", WarmWind: []float64{0, 90}}
			c.Targets = []TargetConfig{tc, tc}
		}, "duplicate id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultTargets(t *testing.T) {
	targets, err := DefaultTargets()
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, tgt := range targets {
		ids[tgt.ID] = true
		assert.NotNil(t, tgt.Loc, tgt.ID)
		assert.Contains(t, []string{"C", "F"}, tgt.Unit, tgt.ID)
		assert.NotEmpty(t, tgt.Upstream.N, tgt.ID)
	}
	assert.True(t, ids["LONDON"])
	assert.True(t, ids["DALLAS"])

	// Callers get a copy.
	targets[0].ID = "MUTATED"
	again, err := DefaultTargets()
	require.NoError(t, err)
	assert.Equal(t, "LONDON", again[0].ID)
}
