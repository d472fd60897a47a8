// Package notify delivers fired alerts. Delivery is fire-and-forget: a
// failing channel is logged and never blocks the scanner.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Tier string

const (
	TierBreak      Tier = "BREAK"
	TierPrediction Tier = "PREDICTION"
	TierReach      Tier = "REACH"
	TierTempChange Tier = "TEMP_CHANGE"
)

// Alert is one fired alert for a target.
type Alert struct {
	ID        string
	Tier      Tier
	TargetID  string
	Signal    string
	Reach     int
	Break     int
	Temp      *float64
	Unit      string
	Bucket    string
	FiredAt   time.Time
	LocalDate string
}

// Summary is a one-line description used by every channel.
func (a Alert) Summary() string {
	temp := "--"
	if a.Temp != nil {
		temp = fmt.Sprintf("%.1f°%s", *a.Temp, a.Unit)
	}
	s := fmt.Sprintf("%s %s: %s reach %d%% break %d%% temp %s", a.Tier, a.TargetID, a.Signal, a.Reach, a.Break, temp)
	if a.Bucket != "" {
		s += " bucket " + a.Bucket
	}
	return s
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Multi fans an alert out to every notifier on its own goroutine.
type Multi struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

const DefaultSendTimeout = 15 * time.Second

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, timeout: DefaultSendTimeout}
}

// Notify returns immediately. Delivery runs detached from ctx so a
// finished scan cycle does not cancel in-flight sends.
func (m *Multi) Notify(ctx context.Context, a Alert) error {
	for _, n := range m.notifiers {
		m.wg.Add(1)
		go func(n Notifier) {
			defer m.wg.Done()
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
			defer cancel()
			if err := n.Notify(sendCtx, a); err != nil {
				log.Warn().Err(err).Str("target", a.TargetID).Str("tier", string(a.Tier)).
					Msgf("notify: %T failed", n)
			}
		}(n)
	}
	return nil
}

// Wait blocks until every in-flight delivery has returned.
func (m *Multi) Wait() {
	m.wg.Wait()
}

// Log writes alerts to the structured log. TEMP_CHANGE goes to debug.
type Log struct{}

func (Log) Notify(_ context.Context, a Alert) error {
	ev := log.Info()
	if a.Tier == TierTempChange {
		ev = log.Debug()
	}
	ev.Str("id", a.ID).
		Str("target", a.TargetID).
		Str("tier", string(a.Tier)).
		Str("signal", a.Signal).
		Int("reach", a.Reach).
		Int("break", a.Break).
		Msg("alert: " + a.Summary())
	return nil
}
