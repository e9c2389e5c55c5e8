package task

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxInterval is the largest interval, in seconds, a task may carry.
// It is the largest whole number of seconds a time.Duration can represent
// (about 292 years), so every stored interval converts to a Duration safely.
const MaxInterval int64 = math.MaxInt64 / int64(time.Second)

// ParseInterval converts "s", "m:s" or "h:m:s" into seconds.
//
// Components are read right-to-left as seconds, minutes, hours; omitted
// higher units are zero. It returns 0 when the input is malformed, when the
// total overflows or exceeds MaxInterval, or when the total is zero.
// A 0 result always means "rejected".
func ParseInterval(s string) int64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0
	}

	var total int64
	unit := int64(1)
	for i := len(parts) - 1; i >= 0; i-- {
		if strings.HasPrefix(parts[i], "+") {
			return 0
		}
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		if n > MaxInterval/unit {
			return 0
		}
		v := n * unit
		if total > MaxInterval-v {
			return 0
		}
		total += v
		unit *= 60
	}
	return total
}

// Interval returns seconds as a time.Duration.
// Values above MaxInterval are clamped.
func Interval(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	if seconds > MaxInterval {
		seconds = MaxInterval
	}
	return time.Duration(seconds) * time.Second
}
