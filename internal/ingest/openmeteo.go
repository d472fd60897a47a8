package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/lox/tempedge/internal/models"
)

// ConsensusModels are the open-meteo models averaged into the consensus.
var ConsensusModels = []string{"gfs_seamless", "ecmwf_ifs04", "icon_seamless"}

// radarThresholdMM is the 45 minute accumulation above which rain is
// considered incoming.
const radarThresholdMM = 0.2

type OpenMeteoClient struct {
	baseURL string
	getter  Getter
}

func NewOpenMeteoClient(baseURL string, getter Getter) *OpenMeteoClient {
	return &OpenMeteoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		getter:  getter,
	}
}

func coords(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	return q
}

type consensusResponse struct {
	Daily map[string]json.RawMessage `json:"daily"`
}

// FetchConsensus returns today's maximum from each consensus model, their
// average rounded to one decimal, and the spread between the extremes.
// Models that return no value are left out.
func (o *OpenMeteoClient) FetchConsensus(ctx context.Context, lat, lon float64) (models.Consensus, error) {
	q := coords(lat, lon)
	q.Set("daily", "temperature_2m_max")
	q.Set("models", strings.Join(ConsensusModels, ","))
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")

	var data consensusResponse
	if err := o.getter.GetJSON(ctx, o.baseURL+"/v1/forecast?"+q.Encode(), &data); err != nil {
		return models.Consensus{}, fmt.Errorf("fetch consensus: %w", err)
	}

	values := make(map[string]float64, len(ConsensusModels))
	for _, m := range ConsensusModels {
		raw, ok := data.Daily["temperature_2m_max_"+m]
		if !ok {
			continue
		}
		var series []*float64
		if err := json.Unmarshal(raw, &series); err != nil {
			return models.Consensus{}, fmt.Errorf("consensus %s: %w", m, err)
		}
		if len(series) > 0 && series[0] != nil {
			values[m] = *series[0]
		}
	}
	if len(values) == 0 {
		return models.Consensus{}, fmt.Errorf("consensus: %w", ErrNoData)
	}

	sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return models.Consensus{
		Average: math.Round(sum/float64(len(values))*10) / 10,
		Models:  values,
		Spread:  hi - lo,
	}, nil
}

type radarResponse struct {
	Minutely15 struct {
		Precipitation []*float64 `json:"precipitation"`
	} `json:"minutely_15"`
}

// FetchRadar sums the next three 15 minute precipitation slots.
func (o *OpenMeteoClient) FetchRadar(ctx context.Context, lat, lon float64) (models.Radar, error) {
	q := coords(lat, lon)
	q.Set("minutely_15", "precipitation")
	q.Set("forecast_minutely_15", "4")

	var data radarResponse
	if err := o.getter.GetJSON(ctx, o.baseURL+"/v1/forecast?"+q.Encode(), &data); err != nil {
		return models.Radar{}, fmt.Errorf("fetch radar: %w", err)
	}

	total := 0.0
	for i, p := range data.Minutely15.Precipitation {
		if i >= 3 {
			break
		}
		if p != nil {
			total += *p
		}
	}
	return models.Radar{
		Incoming: total > radarThresholdMM,
		Amount:   math.Round(total*10) / 10,
	}, nil
}
