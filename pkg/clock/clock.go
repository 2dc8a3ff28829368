// Package clock provides the time source that anchors "today". Tempo colors
// hinge on which civil day it is, so the source of truth for the current
// instant is configurable and its failures are loud.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/ntp"
	"github.com/levenlabs/go-lflag"
	"github.com/sethvargo/go-retry"
	"github.com/tempowatch/tempowatch/pkg/log"
)

// Source provides the current time.
type Source interface {
	// Now returns the current time in UTC. An error means the source could
	// not be read before its deadline; callers should treat that as fatal
	// and exit for a restart instead of trusting a clock they never got.
	Now(ctx context.Context) (time.Time, error)
}

// Configured sets up the time source based on flags.
func Configured() Source {
	source := lflag.String("time-source", "ntp", "Time source to use (available: ntp, system)")
	server := lflag.String("ntp-server", "pool.ntp.org", "NTP server to query")
	timeout := lflag.Duration("ntp-timeout", 10*time.Second, "Overall deadline for an NTP reading")

	var s struct{ Source }

	lflag.Do(func() {
		switch *source {
		case "ntp":
			s.Source = &NTP{Server: *server, Timeout: *timeout}
		case "system":
			s.Source = System{}
		default:
			panic(fmt.Sprintf("unknown time source: %s", *source))
		}
	})

	return &s
}

// System reads the local system clock.
type System struct{}

// Now implements the Source interface.
func (System) Now(ctx context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

// ntpQueryTimeout bounds a single query; Timeout bounds the whole reading
// including retries.
const ntpQueryTimeout = 2 * time.Second

// NTP reads the current time from an NTP server, retrying with backoff until
// Timeout elapses.
type NTP struct {
	Server  string
	Timeout time.Duration
}

// Now implements the Source interface.
func (n *NTP) Now(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()

	var now time.Time
	backoff := retry.WithCappedDuration(ntpQueryTimeout, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := ntp.QueryWithOptions(n.Server, ntp.QueryOptions{Timeout: ntpQueryTimeout})
		if err != nil {
			log.Ctx(ctx).DebugContext(ctx, "ntp query failed",
				slog.Any("error", err),
				slog.String("server", n.Server))
			return retry.RetryableError(err)
		}
		if err := resp.Validate(); err != nil {
			log.Ctx(ctx).DebugContext(ctx, "ntp response failed validation",
				slog.Any("error", err),
				slog.String("server", n.Server))
			return retry.RetryableError(err)
		}
		now = time.Now().Add(resp.ClockOffset).UTC()
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get time from %s: %w", n.Server, err)
	}

	log.Ctx(ctx).DebugContext(ctx, "ntp time obtained",
		slog.Time("now", now),
		slog.String("server", n.Server))
	return now, nil
}
