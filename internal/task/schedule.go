package task

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule returns the firing schedule of t for an external scheduler.
// Nothing here starts a timer.
func Schedule(t Task) cron.Schedule {
	return cron.Every(Interval(t.TotalWaitInterval))
}

// ScheduleSpec renders t as a cron descriptor ("@every 2h5m30s") accepted by
// cron.ParseStandard.
func ScheduleSpec(t Task) string {
	return "@every " + Interval(t.TotalWaitInterval).String()
}

// NextRun is the first fire time after now.
func NextRun(t Task, now time.Time) time.Time {
	return Schedule(t).Next(now)
}
