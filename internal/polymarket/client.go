// Package polymarket reads temperature events from the Polymarket Gamma API.
package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lox/tempedge/internal/httputil"
	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/models"
)

// Getter is the transport the client needs. httputil.Fetcher satisfies it.
type Getter interface {
	GetJSON(ctx context.Context, rawURL string, v any) error
}

// Client provides access to the Gamma events API
type Client struct {
	gammaAPIURL string
	getter      Getter
}

func NewClient(gammaAPIURL string, getter Getter) *Client {
	return &Client{
		gammaAPIURL: strings.TrimRight(gammaAPIURL, "/"),
		getter:      getter,
	}
}

// GammaEvent represents an event from the Gamma API
type GammaEvent struct {
	ID      string        `json:"id"`
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	Active  bool          `json:"active"`
	Closed  bool          `json:"closed"`
	Markets []GammaMarket `json:"markets"`
}

// GammaMarket is one bucket of a multi-outcome event.
type GammaMarket struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	GroupItemTitle string `json:"groupItemTitle"`
	OutcomePrices  string `json:"outcomePrices"` // JSON string: "[\"0.75\", \"0.25\"]"
	ClobTokenIds   string `json:"clobTokenIds"`  // JSON string: "[\"token1\", \"token2\"]"
	Active         bool   `json:"active"`
	Closed         bool   `json:"closed"`
}

// Label is the bucket title, falling back to the full question.
func (m GammaMarket) Label() string {
	if m.GroupItemTitle != "" {
		return m.GroupItemTitle
	}
	return m.Question
}

// YesPrice parses the first outcome price. ok is false when the prices are
// missing or malformed.
func (m GammaMarket) YesPrice() (price float64, ok bool) {
	if m.OutcomePrices == "" {
		return 0, false
	}
	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil || len(prices) == 0 {
		return 0, false
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// YesTokenID returns the CLOB token of the first outcome, or "".
func (m GammaMarket) YesTokenID() string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIds), &ids); err != nil || len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// Bucket converts the market to the normalized form used by the matcher.
func (m GammaMarket) Bucket() models.MarketBucket {
	price, ok := m.YesPrice()
	return models.MarketBucket{
		Label:    m.Label(),
		Price:    price,
		HasPrice: ok,
		Active:   m.Active,
		Closed:   m.Closed,
	}
}

// FetchEvent retrieves one event by slug.
func (c *Client) FetchEvent(ctx context.Context, slug string) (*GammaEvent, error) {
	u := c.gammaAPIURL + "/events/slug/" + url.PathEscape(slug)

	var ev GammaEvent
	if err := c.getter.GetJSON(ctx, u, &ev); err != nil {
		// Daily events are listed some time before they open.
		if errors.Is(err, httputil.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", slug, market.ErrNoMarket)
		}
		return nil, fmt.Errorf("fetch event %s: %w", slug, err)
	}
	return &ev, nil
}

// FetchBuckets returns the normalized buckets of an event.
func (c *Client) FetchBuckets(ctx context.Context, slug string) ([]models.MarketBucket, error) {
	ev, err := c.FetchEvent(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := make([]models.MarketBucket, 0, len(ev.Markets))
	for _, m := range ev.Markets {
		out = append(out, m.Bucket())
	}
	return out, nil
}

// CleanSlug accepts a bare slug or a polymarket.com / gamma-api event URL.
func CleanSlug(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{
		"https://polymarket.com/event/",
		"https://gamma-api.polymarket.com/events/slug/",
	} {
		s = strings.TrimPrefix(s, prefix)
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}
