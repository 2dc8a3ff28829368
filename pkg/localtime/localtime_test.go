package localtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parisTZ matches Europe/Paris: CET in winter, CEST in summer, transitions on
// the last Sundays of March and October.
const parisTZ = "CET-1CEST,M3.5.0,M10.5.0/3"

func TestResolveStandardTime(t *testing.T) {
	r := MustParseRule(parisTZ)

	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 2, Day: 12})
	require.NoError(t, err)

	assert.Equal(t, 2024, lt.Year)
	assert.Equal(t, 2, lt.Month)
	assert.Equal(t, 12, lt.Day)
	assert.Equal(t, 0, lt.Hour)
	assert.False(t, lt.IsDST)
	assert.Equal(t, 3600, lt.Offset)
	assert.Equal(t, "CET", lt.Abbrev)
	assert.Equal(t, time.Monday, lt.Weekday)
	assert.Equal(t, 43, lt.YearDay)
	assert.Equal(t, "2024-02-12T00:00:00+01:00", lt.ISO8601())
}

func TestResolveDaylightTime(t *testing.T) {
	r := MustParseRule(parisTZ)

	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 7, Day: 12})
	require.NoError(t, err)

	assert.Equal(t, 2024, lt.Year)
	assert.Equal(t, 7, lt.Month)
	assert.Equal(t, 12, lt.Day)
	assert.Equal(t, 0, lt.Hour)
	assert.True(t, lt.IsDST)
	assert.Equal(t, 7200, lt.Offset)
	assert.Equal(t, "CEST", lt.Abbrev)
	assert.Equal(t, time.Friday, lt.Weekday)
	assert.Equal(t, "2024-07-12T00:00:00+02:00", lt.ISO8601())
}

func TestResolveDayBoundaryPair(t *testing.T) {
	r := MustParseRule(parisTZ)

	start, err := r.Resolve(CivilDate{Year: 2024, Month: 2, Day: 12})
	require.NoError(t, err)
	end, err := r.Resolve(CivilDate{Year: 2024, Month: 2, Day: 12 + 1})
	require.NoError(t, err)

	assert.Equal(t, "2024-02-12T00:00:00+01:00", start.ISO8601())
	assert.Equal(t, "2024-02-13T00:00:00+01:00", end.ISO8601())
}

func TestResolveAmbiguousFallBackHour(t *testing.T) {
	r := MustParseRule(parisTZ)

	// On 2024-10-27 the wall clock runs from 02:00 to 03:00 twice, once in
	// CEST and once in CET. Every reading in that hour must be rejected.
	for _, d := range []CivilDate{
		{Year: 2024, Month: 10, Day: 27, Hour: 2},
		{Year: 2024, Month: 10, Day: 27, Hour: 2, Minute: 30},
		{Year: 2024, Month: 10, Day: 27, Hour: 2, Minute: 59, Second: 59},
	} {
		_, err := r.Resolve(d)
		require.Error(t, err, "%v", d)
		assert.ErrorIs(t, err, ErrAmbiguousTime, "%v", d)
	}

	// The adjacent readings are unambiguous: 01:59:59 is still CEST and
	// 03:00:00 is the first post-transition CET reading.
	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 10, Day: 27, Hour: 1, Minute: 59, Second: 59})
	require.NoError(t, err)
	assert.True(t, lt.IsDST)
	assert.Equal(t, "2024-10-27T01:59:59+02:00", lt.ISO8601())

	lt, err = r.Resolve(CivilDate{Year: 2024, Month: 10, Day: 27, Hour: 3})
	require.NoError(t, err)
	assert.False(t, lt.IsDST)
	assert.Equal(t, "2024-10-27T03:00:00+01:00", lt.ISO8601())
}

func TestResolveNonexistentSpringForwardHour(t *testing.T) {
	r := MustParseRule(parisTZ)

	// On 2024-03-31 the wall clock jumps from 02:00 to 03:00; the hour in
	// between never happens and must not resolve to a shifted instant.
	for _, d := range []CivilDate{
		{Year: 2024, Month: 3, Day: 31, Hour: 2},
		{Year: 2024, Month: 3, Day: 31, Hour: 2, Minute: 30},
		{Year: 2024, Month: 3, Day: 31, Hour: 2, Minute: 59, Second: 59},
	} {
		_, err := r.Resolve(d)
		require.Error(t, err, "%v", d)
		assert.ErrorIs(t, err, ErrNonexistentTime, "%v", d)
	}

	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 3, Day: 31, Hour: 1, Minute: 59, Second: 59})
	require.NoError(t, err)
	assert.False(t, lt.IsDST)
	assert.Equal(t, "2024-03-31T01:59:59+01:00", lt.ISO8601())

	lt, err = r.Resolve(CivilDate{Year: 2024, Month: 3, Day: 31, Hour: 3})
	require.NoError(t, err)
	assert.True(t, lt.IsDST)
	assert.Equal(t, "2024-03-31T03:00:00+02:00", lt.ISO8601())

	// Midnight of the transition day itself is fine.
	lt, err = r.Resolve(CivilDate{Year: 2024, Month: 3, Day: 31})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31T00:00:00+01:00", lt.ISO8601())
}

func TestResolveNormalizesFields(t *testing.T) {
	r := MustParseRule(parisTZ)

	tests := []struct {
		name string
		in   CivilDate
		want string
	}{
		{"day past end of month", CivilDate{Year: 2024, Month: 1, Day: 32}, "2024-02-01T00:00:00+01:00"},
		{"day past end of year", CivilDate{Year: 2023, Month: 12, Day: 32}, "2024-01-01T00:00:00+01:00"},
		{"day past end of june", CivilDate{Year: 2024, Month: 6, Day: 31}, "2024-07-01T00:00:00+02:00"},
		{"hour 24", CivilDate{Year: 2024, Month: 2, Day: 12, Hour: 24}, "2024-02-13T00:00:00+01:00"},
		{"day zero", CivilDate{Year: 2024, Month: 3, Day: 0}, "2024-02-29T00:00:00+01:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt, err := r.Resolve(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lt.ISO8601())
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := MustParseRule(parisTZ)
	d := CivilDate{Year: 2024, Month: 7, Day: 12}

	first, err := r.Resolve(d)
	require.NoError(t, err)
	second, err := r.Resolve(d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ISO8601(), second.ISO8601())
}

func TestResolveOffsetsAcrossTheYear(t *testing.T) {
	r := MustParseRule(parisTZ)

	// Middle-of-month days far from any transition.
	for month := 1; month <= 12; month++ {
		lt, err := r.Resolve(CivilDate{Year: 2024, Month: month, Day: 15, Hour: 12})
		require.NoError(t, err)
		if month >= 4 && month <= 10 {
			assert.Equal(t, 7200, lt.Offset, "month %d", month)
			assert.True(t, lt.IsDST, "month %d", month)
		} else {
			assert.Equal(t, 3600, lt.Offset, "month %d", month)
			assert.False(t, lt.IsDST, "month %d", month)
		}
	}
}

func TestResolveWithoutDST(t *testing.T) {
	r := MustParseRule("UTC0")

	// No rule transitions, so even late-October readings pass through.
	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 10, Day: 27, Hour: 2, Minute: 30})
	require.NoError(t, err)
	assert.False(t, lt.IsDST)
	assert.Equal(t, "2024-10-27T02:30:00+00:00", lt.ISO8601())
}

func TestResolveWesternZone(t *testing.T) {
	r := MustParseRule("EST5EDT")

	lt, err := r.Resolve(CivilDate{Year: 2024, Month: 1, Day: 15})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T00:00:00-05:00", lt.ISO8601())
	assert.False(t, lt.IsDST)

	lt, err = r.Resolve(CivilDate{Year: 2024, Month: 7, Day: 4, Hour: 12})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04T12:00:00-04:00", lt.ISO8601())
	assert.True(t, lt.IsDST)

	// 2024-03-10 02:30 EST never happens.
	_, err = r.Resolve(CivilDate{Year: 2024, Month: 3, Day: 10, Hour: 2, Minute: 30})
	assert.ErrorIs(t, err, ErrNonexistentTime)

	// 2024-11-03 01:30 happens twice.
	_, err = r.Resolve(CivilDate{Year: 2024, Month: 11, Day: 3, Hour: 1, Minute: 30})
	assert.ErrorIs(t, err, ErrAmbiguousTime)
}

func TestFromUnix(t *testing.T) {
	r := MustParseRule(parisTZ)

	tests := []struct {
		name    string
		instant time.Time
		want    string
		isDST   bool
	}{
		{"winter midnight", time.Date(2024, 2, 11, 23, 0, 0, 0, time.UTC), "2024-02-12T00:00:00+01:00", false},
		{"summer midnight", time.Date(2024, 7, 11, 22, 0, 0, 0, time.UTC), "2024-07-12T00:00:00+02:00", true},
		{"last second of CEST", time.Date(2024, 10, 27, 0, 59, 59, 0, time.UTC), "2024-10-27T02:59:59+02:00", true},
		{"first second of CET", time.Date(2024, 10, 27, 1, 0, 0, 0, time.UTC), "2024-10-27T02:00:00+01:00", false},
		{"last second of CET", time.Date(2024, 3, 31, 0, 59, 59, 0, time.UTC), "2024-03-31T01:59:59+01:00", false},
		{"first second of CEST", time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC), "2024-03-31T03:00:00+02:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := r.FromUnix(tt.instant.Unix())
			assert.Equal(t, tt.want, lt.ISO8601())
			assert.Equal(t, tt.isDST, lt.IsDST)
		})
	}
}

func TestISO8601Offsets(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"utc", 0, "2024-02-12T06:07:08+00:00"},
		{"east", 3600, "2024-02-12T06:07:08+01:00"},
		{"west", -5 * 3600, "2024-02-12T06:07:08-05:00"},
		{"half hour east", 5*3600 + 30*60, "2024-02-12T06:07:08+05:30"},
		{"half hour west", -(9*3600 + 30*60), "2024-02-12T06:07:08-09:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := LocalTime{
				Year: 2024, Month: 2, Day: 12,
				Hour: 6, Minute: 7, Second: 8,
				Offset: tt.offset,
			}
			assert.Equal(t, tt.want, lt.ISO8601())
		})
	}
}

func TestCivilDateString(t *testing.T) {
	d := CivilDate{Year: 2024, Month: 1, Day: 32, Hour: 2, Minute: 3, Second: 4}
	assert.Equal(t, "2024-01-32 02:03:04", d.String())
}
