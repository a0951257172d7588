// Package streak owns the last-visit / visit-history state machine and the
// clean-streak computation.
package streak

import (
	"time"

	"github.com/bnema/streakwatch/internal/storage"
)

// ISODate is the calendar date layout used everywhere in the persisted
// state. Comparisons use calendar dates only, never time of day.
const ISODate = "2006-01-02"

// Today returns the current UTC calendar date.
func Today(now time.Time) string {
	return now.UTC().Format(ISODate)
}

// Summary is the computed streak. StreakDays is nil when no detection was
// ever recorded: the streak is undefined, not zero.
type Summary struct {
	StreakDays    *int   `json:"streakDays"`
	LastVisitDate string `json:"lastVisitDate,omitempty"`
}

// RecordDetection marks today as a visit day and rebases the streak clock.
// Idempotent for repeated detections on the same day.
func RecordDetection(st *storage.PersistedState, today string) {
	st.AddVisit(today)
	st.LastVisitDate = today
}

// ComputeStreak returns the number of whole clean days between the last
// detection and today. A detection today yields 0; clock skew that would
// make the difference negative is clamped to 0.
func ComputeStreak(st storage.PersistedState, today string) Summary {
	if st.LastVisitDate == "" {
		return Summary{}
	}
	if st.LastVisitDate == today {
		zero := 0
		return Summary{StreakDays: &zero, LastVisitDate: st.LastVisitDate}
	}
	days := DaysBetween(st.LastVisitDate, today)
	return Summary{StreakDays: &days, LastVisitDate: st.LastVisitDate}
}

// DaysBetween returns the whole days from one ISO date to another, computed
// at UTC midnight, floored and clamped to be non-negative. Unparseable
// dates count as 0.
func DaysBetween(fromISO, toISO string) int {
	from, err := time.ParseInLocation(ISODate, fromISO, time.UTC)
	if err != nil {
		return 0
	}
	to, err := time.ParseInLocation(ISODate, toISO, time.UTC)
	if err != nil {
		return 0
	}
	diff := to.Sub(from)
	if diff < 0 {
		return 0
	}
	return int(diff / (24 * time.Hour))
}
