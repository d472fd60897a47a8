package store

import (
	"database/sql"
	"time"
)

// AlertEvent is one fired alert. LocalDate is the target's calendar date
// when it fired.
type AlertEvent struct {
	ID        string    `json:"id"`
	FiredAt   time.Time `json:"fired_at"`
	LocalDate string    `json:"local_date"`
	TargetID  string    `json:"target_id"`
	Tier      string    `json:"tier"`
	Signal    string    `json:"signal"`
	Reach     int       `json:"reach"`
	Break     int       `json:"break"`
	Temp      *float64  `json:"temp,omitempty"`
	Message   string    `json:"message"`
}

// InsertAlertEvent appends an event. Duplicate ids are ignored.
func (s *Store) InsertAlertEvent(e AlertEvent) error {
	var temp sql.NullFloat64
	if e.Temp != nil {
		temp = sql.NullFloat64{Float64: *e.Temp, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO alert_events (id, fired_at, local_date, target_id, tier, signal, reach, break_prob, temp, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.ID, e.FiredAt.UTC(), e.LocalDate, e.TargetID, e.Tier, e.Signal, e.Reach, e.Break, temp, e.Message)
	return err
}

// RecentAlertEvents returns the newest events first.
func (s *Store) RecentAlertEvents(limit int) ([]AlertEvent, error) {
	return s.queryAlertEvents(`
		SELECT id, fired_at, local_date, target_id, tier, signal, reach, break_prob, temp, message
		FROM alert_events
		ORDER BY fired_at DESC
		LIMIT ?
	`, limit)
}

// AlertEventsForTarget returns a target's events on one local date, oldest
// first.
func (s *Store) AlertEventsForTarget(targetID, localDate string) ([]AlertEvent, error) {
	return s.queryAlertEvents(`
		SELECT id, fired_at, local_date, target_id, tier, signal, reach, break_prob, temp, message
		FROM alert_events
		WHERE target_id = ? AND local_date = ?
		ORDER BY fired_at ASC
	`, targetID, localDate)
}

func (s *Store) queryAlertEvents(query string, args ...any) ([]AlertEvent, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AlertEvent
	for rows.Next() {
		var e AlertEvent
		var temp sql.NullFloat64
		var message sql.NullString
		if err := rows.Scan(&e.ID, &e.FiredAt, &e.LocalDate, &e.TargetID, &e.Tier,
			&e.Signal, &e.Reach, &e.Break, &temp, &message); err != nil {
			return nil, err
		}
		if temp.Valid {
			v := temp.Float64
			e.Temp = &v
		}
		e.Message = message.String
		events = append(events, e)
	}
	return events, rows.Err()
}
