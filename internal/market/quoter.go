package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lox/tempedge/internal/forecast"
	"github.com/lox/tempedge/internal/models"
)

// ErrNoMarket is returned when the event for today has no buckets.
var ErrNoMarket = errors.New("no market")

const DefaultCacheTTL = 30 * time.Second

// BucketSource fetches the buckets of one event. polymarket.Client satisfies
// it.
type BucketSource interface {
	FetchBuckets(ctx context.Context, slug string) ([]models.MarketBucket, error)
}

// Slug returns the event slug for the target's local calendar date, e.g.
// "highest-temperature-in-london-on-june-1".
func Slug(base string, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	return fmt.Sprintf("%s-%s-%d", base, strings.ToLower(local.Month().String()), local.Day())
}

// Quote is a matched selection for one target at one moment.
type Quote struct {
	Slug      string    `json:"slug"`
	Selection Selection `json:"selection"`
	// Predicted and Realized are in the market unit.
	Predicted float64  `json:"predicted"`
	Realized  *float64 `json:"realized,omitempty"`
}

type cacheEntry struct {
	buckets   []models.MarketBucket
	fetchedAt time.Time
}

// Quoter caches event buckets per slug so repeated matches within the TTL do
// not hit the network.
type Quoter struct {
	src BucketSource
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewQuoter(src BucketSource, ttl time.Duration) *Quoter {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Quoter{
		src:   src,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// Buckets returns the buckets for slug, from cache when fresh. Failed fetches
// are not cached.
func (q *Quoter) Buckets(ctx context.Context, slug string) ([]models.MarketBucket, error) {
	now := q.now()

	q.mu.Lock()
	entry, ok := q.cache[slug]
	q.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < q.ttl {
		return entry.buckets, nil
	}

	buckets, err := q.src.FetchBuckets(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, fmt.Errorf("%s: %w", slug, ErrNoMarket)
	}

	q.mu.Lock()
	q.cache[slug] = cacheEntry{buckets: buckets, fetchedAt: now}
	for k, e := range q.cache {
		if now.Sub(e.fetchedAt) >= q.ttl*10 {
			delete(q.cache, k)
		}
	}
	q.mu.Unlock()
	return buckets, nil
}

// Quote resolves the target's event for the local date of now and matches
// the predicted and realized temperatures, given in Celsius.
func (q *Quoter) Quote(ctx context.Context, t models.Target, now time.Time, predictedC float64, realizedC *float64) (Quote, error) {
	slug := Slug(t.SlugBase, now, t.Location())
	buckets, err := q.Buckets(ctx, slug)
	if err != nil {
		return Quote{Slug: slug}, err
	}

	out := Quote{Slug: slug, Predicted: forecast.ToMarketUnit(t, predictedC)}
	if realizedC != nil {
		r := forecast.ToMarketUnit(t, *realizedC)
		out.Realized = &r
	}
	out.Selection = Match(buckets, out.Predicted, out.Realized)
	return out, nil
}
