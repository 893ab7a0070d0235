// Package overtime derives a booking's lifecycle phase and overtime
// charge from its scheduling fields. Everything here is a pure function
// of its inputs; the wall clock is always passed in so the UI can tick
// it every second without touching the store.
package overtime

import (
	"math"
	"strings"
	"time"
)

type Phase string

const (
	PhaseActive   Phase = "active"
	PhaseGrace    Phase = "grace"
	PhaseOvertime Phase = "overtime"
)

// GracePeriod is the fixed window after scheduled end during which no
// overtime charge accrues.
const GracePeriod = 15 * time.Minute

// Month and year lengths are the source system's averages (30.42-day
// month, 365.25-day year), not calendar math. Kept for compatibility.
var unitMinutes = map[string]int64{
	"minute": 1,
	"hour":   60,
	"day":    1440,
	"week":   10080,
	"month":  43800,
	"year":   525600,
}

var unitSeconds = map[string]int64{
	"minute": 60,
	"hour":   3600,
	"day":    86400,
	"week":   604800,
	"month":  2628288,
	"year":   31557600,
}

// normalizeUnit lowercases and strips a trailing plural "s". Unrecognized
// units fall back to minute semantics.
func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, "s")
	if _, ok := unitMinutes[u]; !ok {
		return "minute"
	}
	return u
}

// UnitMinutes returns the length of one duration unit in minutes.
func UnitMinutes(unit string) int64 {
	return unitMinutes[normalizeUnit(unit)]
}

// UnitSeconds returns the length of one duration unit in seconds.
func UnitSeconds(unit string) int64 {
	return unitSeconds[normalizeUnit(unit)]
}

// Snapshot is the derived state of a booking's clock at one instant.
type Snapshot struct {
	Phase           Phase `json:"phase"`
	SecondsLeft     int64 `json:"seconds_left"`
	SecondsOvertime int64 `json:"seconds_overtime"`
}

// At classifies the instant now against the booking's schedule. While the
// booking is paused the clock is frozen at pausedAt: time spent paused
// must not count against the booking.
func At(start time.Time, duration int, unit string, paused bool, pausedAt time.Time, now time.Time) Snapshot {
	durMinutes := int64(duration) * UnitMinutes(unit)
	end := start.Add(time.Duration(durMinutes) * time.Minute)
	graceEnd := end.Add(GracePeriod)

	effective := now
	if paused {
		effective = pausedAt
	}

	switch {
	case !effective.After(end):
		return Snapshot{Phase: PhaseActive, SecondsLeft: clampSeconds(end.Sub(effective))}
	case !effective.After(graceEnd):
		return Snapshot{Phase: PhaseGrace, SecondsLeft: clampSeconds(graceEnd.Sub(effective))}
	default:
		return Snapshot{Phase: PhaseOvertime, SecondsOvertime: clampSeconds(effective.Sub(graceEnd))}
	}
}

func clampSeconds(d time.Duration) int64 {
	s := int64(d.Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// Charge computes the overtime fee once a booking is past its grace
// window. The per-unit rate comes from the booking's own price; free
// bookings fall back to the caller-supplied unit price (typically the
// service's minimum charge over its minimum duration). Partial units are
// charged in full. The result is a non-negative integer-valued amount.
func Charge(totalPrice float64, duration int, unit string, secondsOvertime int64, fallbackUnitPrice float64) float64 {
	if secondsOvertime <= 0 {
		return 0
	}

	perUnit := fallbackUnitPrice
	if totalPrice > 0 && duration > 0 {
		perUnit = totalPrice / float64(duration)
	}

	units := int64(math.Ceil(float64(secondsOvertime) / float64(UnitSeconds(unit))))
	charge := math.Round(perUnit * float64(units))
	if charge < 0 {
		return 0
	}
	return charge
}
