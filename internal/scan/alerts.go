package scan

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/metrics"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/notify"
	"github.com/lox/tempedge/internal/signal"
)

const (
	breakAlertProb = 95
	reachAlertProb = 75
)

// alertInput is what the alert tiers look at for one evaluation.
type alertInput struct {
	classified signal.Signal
	reach, brk int
	prevReach  *int
	prevBreak  *int
	prevTemp   *float64
	temp       float64
}

// alertTiers returns the tiers that fire for in, given those already fired
// today. TEMP_CHANGE may repeat; the others fire at most once per day.
func alertTiers(in alertInput, fired map[notify.Tier]bool) []notify.Tier {
	if in.classified.Kind == signal.Calibrating || in.classified.Kind == signal.RainKill {
		return nil
	}

	var tiers []notify.Tier
	if in.prevTemp != nil && *in.prevTemp != in.temp {
		tiers = append(tiers, notify.TierTempChange)
	}
	rising := in.prevBreak == nil || in.brk > *in.prevBreak
	if !fired[notify.TierBreak] && in.brk >= breakAlertProb && rising {
		tiers = append(tiers, notify.TierBreak)
	}
	if !fired[notify.TierPrediction] && in.classified.Kind == signal.PredictionBreak {
		tiers = append(tiers, notify.TierPrediction)
	}
	crossed := in.prevReach == nil || *in.prevReach < reachAlertProb
	if !fired[notify.TierReach] && in.classified.Kind == signal.BuyReach && in.reach >= reachAlertProb && crossed {
		tiers = append(tiers, notify.TierReach)
	}
	return tiers
}

// fireAlerts sends any alerts due for d and marks them in the day's log.
func (s *Scheduler) fireAlerts(ctx context.Context, t models.Target, st *TargetState, d Decision, in alertInput) {
	local := s.now().In(t.Location())
	st.Alerts.roll(local.Format("2006-01-02"))

	for _, tier := range alertTiers(in, st.Alerts.Fired) {
		if tier != notify.TierTempChange {
			st.Alerts.Fired[tier] = true
		}
		metrics.AlertsFired.WithLabelValues(t.ID, string(tier)).Inc()
		if s.notifier == nil {
			continue
		}

		current := d.Current
		a := notify.Alert{
			ID:        uuid.NewString(),
			Tier:      tier,
			TargetID:  t.ID,
			Signal:    signal.Plain(in.classified),
			Reach:     d.Reach,
			Break:     d.Break,
			Temp:      &current,
			Unit:      d.Unit,
			Bucket:    d.Market.Bucket,
			FiredAt:   local,
			LocalDate: st.Alerts.Date,
		}
		if err := s.notifier.Notify(ctx, a); err != nil {
			log.Warn().Err(err).Str("target", t.ID).Str("tier", string(tier)).Msg("scheduler: alert dispatch failed")
		}
	}
}
