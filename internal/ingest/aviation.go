package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lox/tempedge/internal/httputil"
	"github.com/lox/tempedge/internal/models"
)

// AviationClient reads METAR and TAF products from the aviationweather.gov
// data API.
type AviationClient struct {
	baseURL string
	getter  Getter
}

func NewAviationClient(baseURL string, getter Getter) *AviationClient {
	return &AviationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		getter:  getter,
	}
}

type metarResponse struct {
	ICAOId     string              `json:"icaoId"`
	ReportTime string              `json:"reportTime"`
	ObsTime    int64               `json:"obsTime"`
	Temp       *float64            `json:"temp"`
	Dewp       *float64            `json:"dewp"`
	Wdir       windDirection       `json:"wdir"`
	WxString   string              `json:"wxString"`
	Clouds     []models.CloudLayer `json:"clouds"`
	Lat        float64             `json:"lat"`
	Lon        float64             `json:"lon"`
	RawOb      string              `json:"rawOb"`
}

// windDirection accepts either a number of degrees or the string "VRB".
type windDirection struct {
	Degrees *float64
}

func (w *windDirection) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			w.Degrees = &v
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("wind direction: %w", err)
	}
	w.Degrees = &v
	return nil
}

type tafResponse struct {
	ICAOId    string `json:"icaoId"`
	IssueTime string `json:"issueTime"`
	RawTAF    string `json:"rawTAF"`
}

func (a *AviationClient) metarURL(station string, hours int) string {
	q := url.Values{}
	q.Set("ids", strings.ToUpper(station))
	q.Set("format", "json")
	if hours > 0 {
		q.Set("hours", strconv.Itoa(hours))
	}
	return a.baseURL + "/api/data/metar?" + q.Encode()
}

func (a *AviationClient) fetchMETARs(ctx context.Context, station string, hours int) ([]metarResponse, error) {
	var data []metarResponse
	if err := a.getter.GetJSON(ctx, a.metarURL(station, hours), &data); err != nil {
		if errors.Is(err, httputil.ErrNoContent) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch metar %s: %w", station, err)
	}
	return data, nil
}

// FetchMETAR returns the latest observations for a station, most recent
// first. Reports without a temperature are skipped.
func (a *AviationClient) FetchMETAR(ctx context.Context, station string) ([]models.Observation, error) {
	data, err := a.fetchMETARs(ctx, station, 0)
	if err != nil {
		return nil, err
	}

	var out []models.Observation
	for _, m := range data {
		if m.Temp == nil {
			continue
		}
		out = append(out, models.Observation{
			Station:    m.ICAOId,
			ObservedAt: m.observedAt(),
			Temp:       *m.Temp,
			Dewpoint:   m.Dewp,
			WindDir:    m.Wdir.Degrees,
			Clouds:     m.Clouds,
			WxString:   m.WxString,
			Latitude:   m.Lat,
			Longitude:  m.Lon,
			RawOb:      m.RawOb,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("metar %s: %w", station, ErrNoData)
	}
	return out, nil
}

// FetchHistory returns roughly the last 24 hours of reported temperatures.
func (a *AviationClient) FetchHistory(ctx context.Context, station string) ([]models.HistoryReading, error) {
	data, err := a.fetchMETARs(ctx, station, 24)
	if err != nil {
		return nil, err
	}

	var out []models.HistoryReading
	for _, m := range data {
		if m.Temp == nil {
			continue
		}
		at := m.observedAt()
		if at.IsZero() {
			continue
		}
		out = append(out, models.HistoryReading{Temp: *m.Temp, ReportTime: at})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("history %s: %w", station, ErrNoData)
	}
	return out, nil
}

// FetchTAFText returns the raw text of the current TAF for a station.
func (a *AviationClient) FetchTAFText(ctx context.Context, station string) (string, error) {
	q := url.Values{}
	q.Set("ids", strings.ToUpper(station))
	q.Set("format", "json")

	var data []tafResponse
	if err := a.getter.GetJSON(ctx, a.baseURL+"/api/data/taf?"+q.Encode(), &data); err != nil {
		if errors.Is(err, httputil.ErrNoContent) {
			return "", fmt.Errorf("taf %s: %w", station, ErrNoData)
		}
		return "", fmt.Errorf("fetch taf %s: %w", station, err)
	}
	if len(data) == 0 || strings.TrimSpace(data[0].RawTAF) == "" {
		return "", fmt.Errorf("taf %s: %w", station, ErrNoData)
	}
	return data[0].RawTAF, nil
}

var reportTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (m metarResponse) observedAt() time.Time {
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, m.ReportTime); err == nil {
			return t.UTC()
		}
	}
	if m.ObsTime > 0 {
		return time.Unix(m.ObsTime, 0).UTC()
	}
	return time.Time{}
}
