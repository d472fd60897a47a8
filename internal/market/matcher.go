package market

import (
	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/models"
)

type Strategy string

const (
	StrategyPrediction Strategy = "PREDICTION"
	StrategyBanking    Strategy = "BANKING"
)

// Status explains why a match did or did not produce a bucket.
type Status string

const (
	StatusMatched  Status = "MATCHED"
	StatusNoMarket Status = "NO_MARKET"
	// StatusInactive means a bucket covers the prediction but it is closed or
	// paused.
	StatusInactive Status = "INACTIVE"
)

// bankingMargin is how far the forecast ceiling may sit above the realized
// high before the realized bucket stops being preferred.
const bankingMargin = 2.0

// Selection is the outcome of matching one event.
type Selection struct {
	Status   Status              `json:"status"`
	Strategy Strategy            `json:"strategy,omitempty"`
	Bucket   models.MarketBucket `json:"bucket"`
	Range    Range               `json:"range"`
}

// Found reports whether a tradable bucket was selected.
func (s Selection) Found() bool { return s.Status == StatusMatched }

// Price returns the selected bucket's first-outcome price, if any.
func (s Selection) Price() (float64, bool) {
	if !s.Found() || !s.Bucket.HasPrice {
		return 0, false
	}
	return s.Bucket.Price, true
}

// Match picks the bucket for the predicted temperature and, separately, the
// bucket holding the realized high. Both temperatures are in the market's
// unit and are rounded half up before comparison. The realized bucket wins
// when the prediction is no more than two degrees above the realized high.
func Match(buckets []models.MarketBucket, predicted float64, realized *float64) Selection {
	pred := int(forecast.RoundHalfUp(predicted))
	var high int
	if realized != nil {
		high = int(forecast.RoundHalfUp(*realized))
	}

	var (
		prediction, banking *Selection
		inactive            bool
	)
	for _, b := range buckets {
		r, ok := ParseLabel(b.Label)
		if !ok {
			continue
		}
		if !b.Active || b.Closed {
			if r.Contains(pred) {
				inactive = true
			}
			continue
		}
		if prediction == nil && r.Contains(pred) {
			prediction = &Selection{Status: StatusMatched, Strategy: StrategyPrediction, Bucket: b, Range: r}
		}
		if realized != nil && banking == nil && r.Contains(high) {
			banking = &Selection{Status: StatusMatched, Strategy: StrategyBanking, Bucket: b, Range: r}
		}
	}

	switch {
	case banking != nil && predicted-*realized <= bankingMargin:
		return *banking
	case prediction != nil:
		return *prediction
	case inactive:
		return Selection{Status: StatusInactive}
	default:
		return Selection{Status: StatusNoMarket}
	}
}
