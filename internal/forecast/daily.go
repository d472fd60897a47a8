package forecast

import (
	"time"

	"github.com/lox/tempedge/internal/models"
)

// ComputeDailyHigh partitions readings by the target's local calendar day and
// returns today's maximum together with the maximum of the trailing 24 hours.
func ComputeDailyHigh(readings []models.HistoryReading, loc *time.Location, now time.Time) models.DailyHigh {
	localNow := now.In(loc)
	today := localNow.Format("2006-01-02")
	since := now.Add(-24 * time.Hour)

	dh := models.DailyHigh{Date: today, ComputedAt: now}
	for _, r := range readings {
		if r.ReportTime.After(now) {
			continue
		}
		if !r.ReportTime.Before(since) {
			dh.Rolling = maxPtr(dh.Rolling, r.Temp)
		}
		if r.ReportTime.In(loc).Format("2006-01-02") == today {
			dh.Calendar = maxPtr(dh.Calendar, r.Temp)
		}
	}
	return dh
}

// Realized returns the best known realized high for today: the calendar high
// when the cached value is for today, else nothing.
func Realized(dh *models.DailyHigh, loc *time.Location, now time.Time) (float64, bool) {
	if dh == nil || dh.Calendar == nil {
		return 0, false
	}
	if dh.Date != now.In(loc).Format("2006-01-02") {
		return 0, false
	}
	return *dh.Calendar, true
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}
