package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lox/tempedge/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Weather    WeatherConfig    `mapstructure:"weather"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Targets    []TargetConfig   `mapstructure:"targets"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// ScanConfig controls the scheduler loop.
type ScanConfig struct {
	CycleInterval  time.Duration `mapstructure:"cycle_interval"`
	Pacing         time.Duration `mapstructure:"pacing"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RefreshConfig holds the slow cadences for cached upstream data.
type RefreshConfig struct {
	Forecast  time.Duration `mapstructure:"forecast"`
	TAF       time.Duration `mapstructure:"taf"`
	DailyHigh time.Duration `mapstructure:"daily_high"`
	Consensus time.Duration `mapstructure:"consensus"`
}

type TradingConfig struct {
	Bankroll       float64 `mapstructure:"bankroll"`
	KellyFraction  float64 `mapstructure:"kelly_fraction"`
	BlendConsensus bool    `mapstructure:"blend_consensus"`
}

type WeatherConfig struct {
	APIKey       string `mapstructure:"api_key"`
	AviationURL  string `mapstructure:"aviation_url"`
	ForecastURL  string `mapstructure:"forecast_url"`
	OpenMeteoURL string `mapstructure:"open_meteo_url"`
	TAFFTPHost   string `mapstructure:"taf_ftp_host"`
}

type PolymarketConfig struct {
	GammaAPIURL string        `mapstructure:"gamma_api_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// HTTPConfig tunes the shared upstream fetcher.
type HTTPConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	MaxRetries    int     `mapstructure:"max_retries"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig points at the optional sqlite alert log. An empty path
// disables it.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TargetConfig is the file representation of a market target.
type TargetConfig struct {
	ID                string    `mapstructure:"id"`
	Station           string    `mapstructure:"station"`
	LocationID        string    `mapstructure:"location_id"`
	Timezone          string    `mapstructure:"timezone"`
	Unit              string    `mapstructure:"unit"`
	WarmWind          []float64 `mapstructure:"warm_wind"`
	SlugBase          string    `mapstructure:"slug_base"`
	Style             string    `mapstructure:"style"`
	WindowHours       float64   `mapstructure:"window_hours"`
	DeadZoneHours     float64   `mapstructure:"dead_zone_hours"`
	StopPostPeakHours float64   `mapstructure:"stop_post_peak_hours"`
	Upstream          struct {
		N string `mapstructure:"n"`
		S string `mapstructure:"s"`
		E string `mapstructure:"e"`
		W string `mapstructure:"w"`
	} `mapstructure:"upstream"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// Load reads configuration from an optional file and TEMPEDGE_* environment
// variables. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TEMPEDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("scan.cycle_interval", "5s")
	v.SetDefault("scan.pacing", "750ms")
	v.SetDefault("scan.request_timeout", "8s")

	v.SetDefault("refresh.forecast", "30m")
	v.SetDefault("refresh.taf", "10m")
	v.SetDefault("refresh.daily_high", "5m")
	v.SetDefault("refresh.consensus", "30m")

	v.SetDefault("trading.bankroll", 1000.0)
	v.SetDefault("trading.kelly_fraction", 0.5)
	v.SetDefault("trading.blend_consensus", false)

	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.aviation_url", "https://aviationweather.gov")
	v.SetDefault("weather.forecast_url", "https://api.weather.com")
	v.SetDefault("weather.open_meteo_url", "https://api.open-meteo.com")
	v.SetDefault("weather.taf_ftp_host", "tgftp.nws.noaa.gov:21")

	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.cache_ttl", "30s")

	v.SetDefault("http.rate_per_second", 4.0)
	v.SetDefault("http.burst", 2)
	v.SetDefault("http.max_retries", 2)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("storage.db_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Scan.CycleInterval < time.Second {
		return fmt.Errorf("scan.cycle_interval must be at least 1s")
	}
	if c.Scan.Pacing < 0 {
		return fmt.Errorf("scan.pacing must not be negative")
	}
	if c.Scan.RequestTimeout < time.Second || c.Scan.RequestTimeout > time.Minute {
		return fmt.Errorf("scan.request_timeout must be between 1s and 1m")
	}

	for name, d := range map[string]time.Duration{
		"refresh.forecast":   c.Refresh.Forecast,
		"refresh.taf":        c.Refresh.TAF,
		"refresh.daily_high": c.Refresh.DailyHigh,
		"refresh.consensus":  c.Refresh.Consensus,
	} {
		if d < time.Minute {
			return fmt.Errorf("%s must be at least 1 minute", name)
		}
	}

	if c.Trading.Bankroll <= 0 {
		return fmt.Errorf("trading.bankroll must be positive")
	}
	if c.Trading.KellyFraction <= 0 || c.Trading.KellyFraction > 1 {
		return fmt.Errorf("trading.kelly_fraction must be in (0, 1]")
	}

	if c.Weather.AviationURL == "" {
		return fmt.Errorf("weather.aviation_url is required")
	}
	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.CacheTTL <= 0 {
		return fmt.Errorf("polymarket.cache_ttl must be positive")
	}

	if c.HTTP.RatePerSecond <= 0 {
		return fmt.Errorf("http.rate_per_second must be positive")
	}
	if c.HTTP.Burst < 1 {
		return fmt.Errorf("http.burst must be at least 1")
	}
	if c.HTTP.MaxRetries < 0 || c.HTTP.MaxRetries > 10 {
		return fmt.Errorf("http.max_retries must be between 0 and 10")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}

	if _, err := c.ResolveTargets(); err != nil {
		return err
	}
	return nil
}

// ResolveTargets returns the configured targets, or the built-in registry when
// none are configured, with timezones loaded.
func (c *Config) ResolveTargets() ([]models.Target, error) {
	if len(c.Targets) == 0 {
		return DefaultTargets()
	}

	seen := make(map[string]bool, len(c.Targets))
	out := make([]models.Target, 0, len(c.Targets))
	for i, tc := range c.Targets {
		t, err := tc.toTarget()
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("targets[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

func (tc TargetConfig) toTarget() (models.Target, error) {
	if tc.ID == "" || tc.Station == "" || tc.SlugBase == "" {
		return models.Target{}, fmt.Errorf("id, station and slug_base are required")
	}
	if len(tc.WarmWind) != 2 {
		return models.Target{}, fmt.Errorf("%s: warm_wind must have exactly two values", tc.ID)
	}

	t := models.Target{
		ID:         tc.ID,
		Station:    strings.ToUpper(tc.Station),
		LocationID: tc.LocationID,
		Timezone:   tc.Timezone,
		Unit:       strings.ToUpper(tc.Unit),
		WarmWind:   [2]float64{tc.WarmWind[0], tc.WarmWind[1]},
		SlugBase:   tc.SlugBase,
		Style:      models.TradingStyle(strings.ToUpper(tc.Style)),
		Peak: models.PeakPolicy{
			WindowHours:       tc.WindowHours,
			DeadZoneHours:     tc.DeadZoneHours,
			StopPostPeakHours: tc.StopPostPeakHours,
		},
		Upstream: models.Upstream{
			N: tc.Upstream.N,
			S: tc.Upstream.S,
			E: tc.Upstream.E,
			W: tc.Upstream.W,
		},
		Latitude:  tc.Latitude,
		Longitude: tc.Longitude,
	}
	if t.LocationID == "" {
		t.LocationID = t.Station
	}
	if t.Unit == "" {
		t.Unit = "C"
	}
	if t.Unit != "C" && t.Unit != "F" {
		return models.Target{}, fmt.Errorf("%s: unit must be C or F", tc.ID)
	}
	if t.Style == "" {
		t.Style = models.StyleAuto
	}
	return resolveLocation(t)
}

func resolveLocation(t models.Target) (models.Target, error) {
	if t.Timezone == "" {
		return models.Target{}, fmt.Errorf("%s: timezone is required", t.ID)
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return models.Target{}, fmt.Errorf("%s: load timezone: %w", t.ID, err)
	}
	t.Loc = loc
	return t, nil
}
