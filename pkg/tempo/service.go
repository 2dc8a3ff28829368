// Package tempo answers the one question this system has: what color is a
// given day. It resolves day boundaries under a fixed timezone rule, asks the
// RTE calendar API, and keeps definitive answers in a small cache and an
// optional journal.
package tempo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/clock"
	"github.com/tempowatch/tempowatch/pkg/localtime"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/rte"
	"github.com/tempowatch/tempowatch/pkg/storage"
	"github.com/tempowatch/tempowatch/pkg/types"
	"golang.org/x/time/rate"
)

// Calendar is the journal calendar day colors are recorded under.
const Calendar = "tempo"

// DefaultRule is the Paris timezone rule the Tempo calendar runs on.
const DefaultRule = "CET-1CEST,M3.5.0,M10.5.0/3"

// colorCacheSize bounds the in-process day-color cache.
const colorCacheSize = 64

// Service answers day-color queries.
type Service struct {
	rule    *localtime.Rule
	src     rte.Source
	db      storage.Database
	now     clock.Source
	cache   *expirable.LRU[string, types.Color]
	limiter *rate.Limiter
}

// Configured sets up the Service from flags.
func Configured(src rte.Source, db storage.Database, now clock.Source) *Service {
	s := &Service{
		src:   src,
		db:    db,
		now:   now,
		cache: expirable.NewLRU[string, types.Color](colorCacheSize, nil, 0),
	}
	tz := lflag.String("tz", DefaultRule, "POSIX timezone rule that defines day boundaries")
	minInterval := lflag.Duration("tempo-min-interval", 250*time.Millisecond, "Minimum interval between RTE calendar queries (0 disables)")

	lflag.Do(func() {
		rule, err := localtime.ParseRule(*tz)
		if err != nil {
			panic(fmt.Sprintf("invalid tz rule: %v", err))
		}
		s.rule = rule
		s.limiter = rate.NewLimiter(rate.Every(*minInterval), 1)
	})
	return s
}

// New creates a Service with the given dependencies and no rate limit. This
// is primarily used for testing; production wiring goes through Configured.
func New(rule *localtime.Rule, src rte.Source, db storage.Database, now clock.Source) *Service {
	return &Service{
		rule:    rule,
		src:     src,
		db:      db,
		now:     now,
		cache:   expirable.NewLRU[string, types.Color](colorCacheSize, nil, 0),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// DayColor returns the Tempo color of the civil day (year, month, day).
// Out-of-range fields normalize, so month 12 day 32 is January 1 of the next
// year. A day whose midnight cannot be resolved under the rule comes back as
// ColorUndefined with the resolution error; so does a transport failure. A day
// the API simply has no color for is ColorUndefined with no error.
func (s *Service) DayColor(ctx context.Context, year, month, day int) (types.Color, error) {
	start, err := s.rule.Resolve(localtime.CivilDate{Year: year, Month: month, Day: day})
	if err != nil {
		return types.ColorUndefined, fmt.Errorf("cannot resolve day start: %w", err)
	}
	// day+1 stays unnormalized, Resolve's epoch round-trip rolls it over
	end, err := s.rule.Resolve(localtime.CivilDate{Year: year, Month: month, Day: day + 1})
	if err != nil {
		return types.ColorUndefined, fmt.Errorf("cannot resolve day end: %w", err)
	}

	date := fmt.Sprintf("%04d-%02d-%02d", start.Year, start.Month, start.Day)
	if color, ok := s.cache.Get(date); ok {
		log.Ctx(ctx).DebugContext(ctx, "day color cache hit",
			slog.String("date", date),
			slog.String("color", string(color)))
		return color, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return types.ColorUndefined, err
	}
	color, err := s.src.TempoCalendar(ctx, start.ISO8601(), end.ISO8601())
	if err != nil {
		return types.ColorUndefined, err
	}

	if color.Definitive() {
		s.cache.Add(date, color)
		s.record(ctx, date, color)
	}
	return color, nil
}

// record journals a definitive color. Storage failures are logged and
// swallowed, the answer is already in hand.
func (s *Service) record(ctx context.Context, date string, color types.Color) {
	day := types.DayColor{
		Date:      date,
		Color:     color,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.UpsertDayColor(ctx, Calendar, day); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to record day color",
			slog.String("date", date),
			slog.Any("error", err))
	}
}

// Today returns the local breakdown of the current instant under the rule.
func (s *Service) Today(ctx context.Context) (localtime.LocalTime, error) {
	now, err := s.now.Now(ctx)
	if err != nil {
		return localtime.LocalTime{}, err
	}
	return s.rule.FromUnix(now.Unix()), nil
}

// Backfill fetches colors for n consecutive days starting at from
// (YYYY-MM-DD), skipping days the journal already has. It returns one record
// per day in order, UNDEFINED entries included; a day that cannot be resolved
// under the rule is recorded as UNDEFINED and the walk continues, while
// transport failures stop it.
func (s *Service) Backfill(ctx context.Context, from string, n int) ([]types.DayColor, error) {
	startDay, err := time.Parse(types.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", from, err)
	}

	days := make([]types.DayColor, 0, n)
	for i := 0; i < n; i++ {
		d := startDay.AddDate(0, 0, i)
		date := d.Format(types.DateLayout)

		stored, err := s.db.GetDayColor(ctx, Calendar, date)
		if err == nil {
			log.Ctx(ctx).DebugContext(ctx, "day already journaled",
				slog.String("date", date),
				slog.String("color", string(stored.Color)))
			days = append(days, stored)
			continue
		}
		if !errors.Is(err, storage.ErrDayNotFound) {
			return days, fmt.Errorf("journal lookup for %s failed: %w", date, err)
		}

		color, err := s.DayColor(ctx, d.Year(), int(d.Month()), d.Day())
		if err != nil {
			if !errors.Is(err, localtime.ErrAmbiguousTime) && !errors.Is(err, localtime.ErrNonexistentTime) {
				return days, err
			}
			log.Ctx(ctx).WarnContext(ctx, "cannot resolve day",
				slog.String("date", date),
				slog.Any("error", err))
		}
		days = append(days, types.DayColor{Date: date, Color: color, UpdatedAt: time.Now().UTC()})
	}
	return days, nil
}
