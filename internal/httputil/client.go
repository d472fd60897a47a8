package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/lox/tempedge/internal/metrics"
)

const DefaultTimeout = 8 * time.Second

var (
	ErrRateLimited = errors.New("rate limited")
	// ErrNoContent is returned for a 204, which some upstreams use for "no
	// data" rather than an empty list.
	ErrNoContent = errors.New("no content")
	ErrNotFound  = errors.New("not found")
)

// StatusError is a non-200 response.
type StatusError struct {
	Host string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %s: status %d", e.Host, e.Code)
	}
	return fmt.Sprintf("fetch %s: status %d: %s", e.Host, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	case ErrNoContent:
		return e.Code == http.StatusNoContent
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// countsAgainstHost reports whether err says something about the host's
// health. Only transport errors, 429 and 5xx trip the breaker; a 204 or 4xx
// is an answer about one resource.
func countsAgainstHost(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

type Options struct {
	// Timeout bounds one logical call, including limiter waits and retries.
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	RetryInitial  time.Duration
	UserAgent     string
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 4
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 250 * time.Millisecond
	}
	if o.UserAgent == "" {
		o.UserAgent = "tempedge/1.0"
	}
}

// Fetcher performs GET requests with a per-host token bucket, a per-host
// circuit breaker and exponential retry on 429 and 5xx responses.
type Fetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewFetcher(opts Options) *Fetcher {
	opts.applyDefaults()
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.opts.RatePerSecond), f.opts.Burst)
		f.limiters[host] = l
	}
	return l
}

func (f *Fetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return !countsAgainstHost(err)
			},
		})
		f.breakers[host] = cb
	}
	return cb
}

// Get returns the body of a 200 response.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	host := u.Host

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	start := time.Now()
	out, err := f.breaker(host).Execute(func() (interface{}, error) {
		return f.getWithRetry(ctx, host, rawURL)
	})
	metrics.UpstreamLatency.WithLabelValues(host).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamCallsTotal.WithLabelValues(host, "open").Inc()
		return nil, fmt.Errorf("%s: %w", host, err)
	case err != nil:
		metrics.UpstreamCallsTotal.WithLabelValues(host, "error").Inc()
		return nil, err
	}
	metrics.UpstreamCallsTotal.WithLabelValues(host, "ok").Inc()
	return out.([]byte), nil
}

// GetJSON fetches rawURL and decodes the body into v.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func (f *Fetcher) getWithRetry(ctx context.Context, host, rawURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := f.limiter(host).Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate wait: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", host, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &StatusError{Host: host, Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(&StatusError{Host: host, Code: resp.StatusCode, Body: string(b)})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.opts.RetryInitial
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(f.opts.MaxRetries)), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}
