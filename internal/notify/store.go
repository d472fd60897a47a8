package notify

import (
	"context"

	"github.com/lox/tempedge/internal/store"
)

type EventWriter interface {
	InsertAlertEvent(e store.AlertEvent) error
}

// EventLog appends alerts to the sqlite event log. Temperature changes are
// too frequent to keep and are skipped.
type EventLog struct {
	w EventWriter
}

func NewEventLog(w EventWriter) *EventLog {
	return &EventLog{w: w}
}

func (l *EventLog) Notify(_ context.Context, a Alert) error {
	if a.Tier == TierTempChange {
		return nil
	}
	return l.w.InsertAlertEvent(store.AlertEvent{
		ID:        a.ID,
		FiredAt:   a.FiredAt,
		LocalDate: a.LocalDate,
		TargetID:  a.TargetID,
		Tier:      string(a.Tier),
		Signal:    a.Signal,
		Reach:     a.Reach,
		Break:     a.Break,
		Temp:      a.Temp,
		Message:   a.Summary(),
	})
}
