// Package localtime converts civil dates into local times under an explicit
// POSIX timezone rule, with correct UTC offsets across DST transitions. The
// wall-clock readings that a fall-back transition makes ambiguous, and the
// ones a spring-forward transition skips, are rejected instead of being
// silently resolved to a wrong instant.
package localtime

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAmbiguousTime reports a wall-clock reading that occurs twice during
	// a fall-back transition; the reading alone cannot pick an offset.
	ErrAmbiguousTime = errors.New("ambiguous local time")

	// ErrNonexistentTime reports a wall-clock reading inside the hour a
	// spring-forward transition skips.
	ErrNonexistentTime = errors.New("nonexistent local time")
)

// CivilDate is a calendar reading with no inherent UTC offset. Fields need
// not be pre-normalized: day 32 means the first day of the next month plus
// one, hour -1 means the last hour of the previous day, and so on, exactly as
// an epoch-seconds round-trip normalizes them.
type CivilDate struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int
	Minute int
	Second int
}

// String renders the fields as given, without normalizing.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// naiveUnix interprets the civil fields as if they were UTC, normalizing
// out-of-range values through the epoch round-trip.
func (d CivilDate) naiveUnix() int64 {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC).Unix()
}

// LocalTime is a civil reading resolved against a Rule: normalized calendar
// fields plus the offset and DST flag in effect at that instant.
type LocalTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	Weekday time.Weekday
	YearDay int

	IsDST  bool
	Offset int // seconds east of UTC
	Abbrev string
}

// ISO8601 renders the time as YYYY-MM-DDTHH:MM:SS±HH:MM. The offset keeps
// its colon separator; the calendar API rejects the compact ±HHMM form.
func (lt LocalTime) ISO8601() string {
	off := lt.Offset
	sign := byte('+')
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d%c%02d:%02d",
		lt.Year, lt.Month, lt.Day, lt.Hour, lt.Minute, lt.Second,
		sign, off/secPerHour, off%secPerHour/secPerMinute)
}

// Resolve turns a civil reading into the LocalTime it denotes under the rule.
//
// A naive fields-to-epoch conversion has to assume one offset, and assuming
// the standard offset silently miscomputes every instant that actually falls
// inside DST. Resolve probes the rule at the standard interpretation of the
// reading and at the same interpretation one hour earlier:
//
//   - neither probe in DST: the reading is plain standard time;
//   - both probes in DST: the standard interpretation overshot by the DST
//     bias, and the earlier probe is the requested wall clock, so it is the
//     result (its breakdown equals the candidate with the hour decremented
//     and renormalized);
//   - only the earlier probe in DST: the reading sits in the repeated
//     fall-back hour where standard and DST answers collide, which is
//     ErrAmbiguousTime.
//
// A reading whose final breakdown does not reproduce the (normalized) input
// fields fell in the spring-forward gap and is ErrNonexistentTime.
func (r *Rule) Resolve(d CivilDate) (LocalTime, error) {
	naive := d.naiveUnix()

	// Standard interpretation of the wall clock, no DST asserted.
	t := naive - int64(r.stdOffset)
	t1 := t - secPerHour

	final, instant := r.FromUnix(t), t
	if prev := r.FromUnix(t1); prev.IsDST {
		if !final.IsDST {
			return LocalTime{}, fmt.Errorf("%w: %v under %s", ErrAmbiguousTime, d, r)
		}
		final, instant = prev, t1
	}

	if instant+int64(final.Offset) != naive {
		return LocalTime{}, fmt.Errorf("%w: %v under %s", ErrNonexistentTime, d, r)
	}
	return final, nil
}

// FromUnix breaks an absolute instant (Unix seconds) down into the local
// calendar reading under the rule.
func (r *Rule) FromUnix(sec int64) LocalTime {
	abbrev, offset, isDST := r.zoneAt(sec)
	u := time.Unix(sec+int64(offset), 0).UTC()
	return LocalTime{
		Year:    u.Year(),
		Month:   int(u.Month()),
		Day:     u.Day(),
		Hour:    u.Hour(),
		Minute:  u.Minute(),
		Second:  u.Second(),
		Weekday: u.Weekday(),
		YearDay: u.YearDay(),
		IsDST:   isDST,
		Offset:  offset,
		Abbrev:  abbrev,
	}
}
