package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempowatch/tempowatch/pkg/clock"
	"github.com/tempowatch/tempowatch/pkg/common"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/rte"
	"github.com/tempowatch/tempowatch/pkg/storage"
	"github.com/tempowatch/tempowatch/pkg/tempo"
	"github.com/tempowatch/tempowatch/pkg/types"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	src := rte.Configured()
	db := storage.Configured()
	now := clock.Configured()
	svc := tempo.Configured(src, db, now)

	date := lflag.String("date", "2024-02-12", "reference date (YYYY-MM-DD) for the custom day queries")

	// parse flags
	lflag.Configure()

	log.SetDefaultLogLevel(log.ConfiguredLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Ctx(ctx).DebugContext(ctx, "starting", "version", common.Version())

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := db.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	if err := run(ctx, svc, src, *date); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *tempo.Service, src rte.Source, date string) error {
	ref, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	fmt.Println("\nACCESS TO THE RTE API \"TEMPO LIKE SUPPLY CONTRACT\"")

	fmt.Println("\nGET ACCESS TOKEN")
	if err := src.Authenticate(ctx); err != nil {
		return fmt.Errorf("cannot obtain access token: %w", err)
	}
	fmt.Println("Access token obtained")

	fmt.Println("\nGET CUSTOM DAY TEMPO COLOR")
	fmt.Printf("%d/%d/%d :\n", ref.Day(), int(ref.Month()), ref.Year())
	printDay(ctx, svc, "J-1", ref.Year(), int(ref.Month()), ref.Day()-1)
	printDay(ctx, svc, "J", ref.Year(), int(ref.Month()), ref.Day())
	printDay(ctx, svc, "J+1", ref.Year(), int(ref.Month()), ref.Day()+1)

	fmt.Println("\nGET CURRENT DAY TEMPO COLOR")
	today, err := svc.Today(ctx)
	if err != nil {
		return fmt.Errorf("cannot determine current day: %w", err)
	}
	fmt.Printf("%d/%d/%d :\n", today.Day, today.Month, today.Year)
	printDay(ctx, svc, "J", today.Year, today.Month, today.Day)
	// day+2 may run past the end of the month, DayColor normalizes it.
	printDay(ctx, svc, "J+2", today.Year, today.Month, today.Day+2)

	return nil
}

// printDay prints a result line for every queried day. Lookups that fail
// still print, as UNDEFINED, so the output keeps one line per day.
func printDay(ctx context.Context, svc *tempo.Service, label string, year, month, day int) {
	color, err := svc.DayColor(ctx, year, month, day)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to get day color",
			"label", label, "year", year, "month", month, "day", day, "error", err)
	}
	fmt.Printf("Day %s Tempo color : %s\n", label, color)
}
