// Package ingest holds the upstream weather adapters. Each adapter returns
// normalized models and never interprets the data beyond unit and shape.
package ingest

import (
	"context"
	"errors"
)

// ErrNoData is returned when an upstream answers successfully but has nothing
// usable for the requested station or location.
var ErrNoData = errors.New("no data")

// Getter is the transport the adapters need. httputil.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
	GetJSON(ctx context.Context, rawURL string, v any) error
}
