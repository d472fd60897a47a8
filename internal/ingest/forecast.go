package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lox/tempedge/internal/models"
)

// ForecastClient reads the weather.com 24 hour hourly forecast for an
// airport location id such as "EGLC:9:GB".
type ForecastClient struct {
	baseURL string
	apiKey  string
	getter  Getter
}

func NewForecastClient(baseURL, apiKey string, getter Getter) *ForecastClient {
	return &ForecastClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		getter:  getter,
	}
}

type HourlyResponse struct {
	Forecasts []HourlyForecast `json:"forecasts"`
}

type HourlyForecast struct {
	FcstValidLocal string   `json:"fcst_valid_local"`
	FcstValid      int64    `json:"fcst_valid"`
	Temp           *float64 `json:"temp"`
	Phrase         string   `json:"phrase_32char"`
}

// FetchHourly returns the forecast points ordered as delivered (ascending
// valid time).
func (f *ForecastClient) FetchHourly(ctx context.Context, locationID string) ([]models.ForecastPoint, error) {
	q := url.Values{}
	q.Set("apiKey", f.apiKey)
	q.Set("units", "m")
	u := fmt.Sprintf("%s/v1/location/%s/forecast/hourly/24hour.json?%s", f.baseURL, url.PathEscape(locationID), q.Encode())

	var data HourlyResponse
	if err := f.getter.GetJSON(ctx, u, &data); err != nil {
		return nil, fmt.Errorf("fetch forecast %s: %w", locationID, err)
	}

	var points []models.ForecastPoint
	for _, hf := range data.Forecasts {
		if hf.Temp == nil {
			continue
		}
		valid, ok := hf.validTime()
		if !ok {
			continue
		}
		points = append(points, models.ForecastPoint{
			ValidTime: valid,
			Temp:      *hf.Temp,
			Phrase:    hf.Phrase,
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("forecast %s: %w", locationID, ErrNoData)
	}
	return points, nil
}

func (hf HourlyForecast) validTime() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, hf.FcstValidLocal); err == nil {
			return t, true
		}
	}
	if hf.FcstValid > 0 {
		return time.Unix(hf.FcstValid, 0).UTC(), true
	}
	return time.Time{}, false
}
