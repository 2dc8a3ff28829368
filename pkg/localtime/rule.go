package localtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	secPerMinute = 60
	secPerHour   = 60 * secPerMinute
)

// Rule is a timezone described by a POSIX TZ string such as
// "CET-1CEST,M3.5.0,M10.5.0/3": a standard abbreviation and UTC offset,
// optionally followed by a DST abbreviation, DST offset and the pair of
// annual transition rules. A Rule is immutable after parsing and is threaded
// explicitly into every resolution instead of living in process-wide state.
type Rule struct {
	raw string

	stdAbbrev string
	stdOffset int // seconds east of UTC

	hasDST    bool
	dstAbbrev string
	dstOffset int
	start     transition // DST begins
	end       transition // DST ends
}

// transition is one annual rule: a day-of-year form plus a local time of day.
type transition struct {
	kind tkind
	mon  int // month 1-12, Mm.w.d only
	week int // week 1-5 in the month, 5 meaning last, Mm.w.d only
	day  int // weekday 0-6 for Mm.w.d, day number for Jn and n
	sec  int // local seconds after midnight, may be negative or beyond 24h
}

type tkind int

const (
	tkindMonthWeekDay tkind = iota // Mm.w.d
	tkindJulian                    // Jn, 1-365, never counts Feb 29
	tkindZeroJulian                // n, 0-365, counts Feb 29
)

// defaultTransitionSec is the transition time POSIX assumes when a rule has
// no /time suffix.
const defaultTransitionSec = 2 * secPerHour

// ParseRule parses a POSIX TZ environment string. The grammar is
// "std offset [dst [offset] [,start[/time],end[/time]]]" with zone names
// either three or more letters or bracketed like "<+04>", offsets as signed
// hh[:mm[:ss]] counted positive west of UTC, and transition days in the
// Mm.w.d, Jn or plain n forms. A DST name without transition rules gets the
// common US rule M3.2.0,M11.1.0, matching what libc implementations assume.
func ParseRule(s string) (*Rule, error) {
	r := &Rule{raw: s}

	fail := func(err error) (*Rule, error) {
		return nil, fmt.Errorf("invalid timezone rule %q: %w", s, err)
	}

	var err error
	rest := s
	if r.stdAbbrev, rest, err = parseAbbrev(rest); err != nil {
		return fail(err)
	}
	var off int
	if off, rest, err = parseOffset(rest); err != nil {
		return fail(err)
	}
	// POSIX offsets are positive west of UTC, the opposite of seconds east.
	r.stdOffset = -off

	if rest == "" {
		return r, nil
	}

	if r.dstAbbrev, rest, err = parseAbbrev(rest); err != nil {
		return fail(err)
	}
	r.hasDST = true
	if rest != "" && rest[0] != ',' {
		if off, rest, err = parseOffset(rest); err != nil {
			return fail(err)
		}
		r.dstOffset = -off
	} else {
		r.dstOffset = r.stdOffset + secPerHour
	}

	if rest == "" {
		rest = ",M3.2.0,M11.1.0"
	}
	if rest[0] != ',' {
		return fail(fmt.Errorf("unexpected %q after DST offset", rest))
	}
	if r.start, rest, err = parseTransition(rest[1:]); err != nil {
		return fail(err)
	}
	if rest == "" || rest[0] != ',' {
		return fail(errors.New("missing DST end rule"))
	}
	if r.end, rest, err = parseTransition(rest[1:]); err != nil {
		return fail(err)
	}
	if rest != "" {
		return fail(fmt.Errorf("trailing %q after transition rules", rest))
	}
	return r, nil
}

// MustParseRule is ParseRule for static rule strings, panicking on error.
func MustParseRule(s string) *Rule {
	r, err := ParseRule(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the original TZ string.
func (r *Rule) String() string {
	return r.raw
}

// zoneAt returns the abbreviation, offset in seconds east of UTC, and DST
// flag in effect at the absolute instant sec (Unix seconds).
func (r *Rule) zoneAt(sec int64) (string, int, bool) {
	if !r.hasDST {
		return r.stdAbbrev, r.stdOffset, false
	}

	year := time.Unix(sec+int64(r.stdOffset), 0).UTC().Year()
	// The start rule's time of day is read on a standard-time clock, the end
	// rule's on a DST clock, since that is what the wall shows when each
	// transition happens.
	start := r.start.instant(year, r.stdOffset)
	end := r.end.instant(year, r.dstOffset)

	if start <= end {
		if sec >= start && sec < end {
			return r.dstAbbrev, r.dstOffset, true
		}
		return r.stdAbbrev, r.stdOffset, false
	}
	// Southern hemisphere: the DST window wraps the new year.
	if sec >= start || sec < end {
		return r.dstAbbrev, r.dstOffset, true
	}
	return r.stdAbbrev, r.stdOffset, false
}

// instant returns the Unix second the transition happens in the given year.
// offset is the seconds-east offset the wall clock runs on as the transition
// is reached.
func (tr transition) instant(year, offset int) int64 {
	var d time.Time
	switch tr.kind {
	case tkindJulian:
		d = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, tr.day-1)
		if isLeap(year) && tr.day >= 60 {
			// Jn always means "Feb 28 is 59, Mar 1 is 60".
			d = d.AddDate(0, 0, 1)
		}
	case tkindZeroJulian:
		d = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, tr.day)
	case tkindMonthWeekDay:
		d = monthWeekDay(year, tr.mon, tr.week, tr.day)
	}
	return d.Unix() + int64(tr.sec) - int64(offset)
}

// monthWeekDay returns midnight (as if UTC) of the week'th wday in the month,
// where week 5 means the last occurrence.
func monthWeekDay(year, mon, week, wday int) time.Time {
	first := time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, time.UTC)
	day := 1 + (wday-int(first.Weekday())+7)%7 + (week-1)*7
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day -= 7
	}
	return time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func parseAbbrev(s string) (string, string, error) {
	if s == "" {
		return "", "", errors.New("missing zone abbreviation")
	}
	if s[0] == '<' {
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", errors.New("unterminated quoted zone abbreviation")
		}
		return s[1:end], s[end+1:], nil
	}
	var i int
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i < 3 {
		return "", "", fmt.Errorf("zone abbreviation too short at %q", s)
	}
	return s[:i], s[i:], nil
}

// parseOffset reads a signed hh[:mm[:ss]] value and returns it in seconds
// with the sign as written. Zone offsets get negated by the caller to convert
// from POSIX west-positive to seconds east; transition times are used as-is.
func parseOffset(s string) (int, string, error) {
	if s == "" {
		return 0, "", errors.New("missing offset")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var hours, mins, secs int
	var err error
	// POSIX extends rule times to +/-167 hours; allowing it uniformly keeps
	// the parser simple and rejects nothing valid.
	if hours, s, err = parseNum(s, 0, 167); err != nil {
		return 0, "", fmt.Errorf("bad offset hours: %w", err)
	}
	if len(s) > 0 && s[0] == ':' {
		if mins, s, err = parseNum(s[1:], 0, 59); err != nil {
			return 0, "", fmt.Errorf("bad offset minutes: %w", err)
		}
		if len(s) > 0 && s[0] == ':' {
			if secs, s, err = parseNum(s[1:], 0, 59); err != nil {
				return 0, "", fmt.Errorf("bad offset seconds: %w", err)
			}
		}
	}

	off := hours*secPerHour + mins*secPerMinute + secs
	if neg {
		off = -off
	}
	return off, s, nil
}

func parseTransition(s string) (transition, string, error) {
	var tr transition
	var err error
	switch {
	case s == "":
		return tr, "", errors.New("missing transition rule")
	case s[0] == 'M':
		tr.kind = tkindMonthWeekDay
		if tr.mon, s, err = parseNum(s[1:], 1, 12); err != nil {
			return tr, "", fmt.Errorf("bad transition month: %w", err)
		}
		if len(s) == 0 || s[0] != '.' {
			return tr, "", errors.New("missing transition week")
		}
		if tr.week, s, err = parseNum(s[1:], 1, 5); err != nil {
			return tr, "", fmt.Errorf("bad transition week: %w", err)
		}
		if len(s) == 0 || s[0] != '.' {
			return tr, "", errors.New("missing transition weekday")
		}
		if tr.day, s, err = parseNum(s[1:], 0, 6); err != nil {
			return tr, "", fmt.Errorf("bad transition weekday: %w", err)
		}
	case s[0] == 'J':
		tr.kind = tkindJulian
		if tr.day, s, err = parseNum(s[1:], 1, 365); err != nil {
			return tr, "", fmt.Errorf("bad julian transition day: %w", err)
		}
	default:
		tr.kind = tkindZeroJulian
		if tr.day, s, err = parseNum(s, 0, 365); err != nil {
			return tr, "", fmt.Errorf("bad transition day: %w", err)
		}
	}

	tr.sec = defaultTransitionSec
	if len(s) > 0 && s[0] == '/' {
		if tr.sec, s, err = parseOffset(s[1:]); err != nil {
			return tr, "", fmt.Errorf("bad transition time: %w", err)
		}
	}
	return tr, s, nil
}

func parseNum(s string, min, max int) (int, string, error) {
	if s == "" || !isDigit(s[0]) {
		return 0, "", fmt.Errorf("expected number at %q", s)
	}
	var n, i int
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int(s[i]-'0')
		if n > max {
			return 0, "", fmt.Errorf("number at %q above %d", s, max)
		}
		i++
	}
	if n < min {
		return 0, "", fmt.Errorf("number at %q below %d", s, min)
	}
	return n, s[i:], nil
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
