package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tempowatch/tempowatch/pkg/clock"
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

	startDate := lflag.String("start-date", "", "first date (YYYY-MM-DD) to backfill, empty resumes after the latest journaled day")
	days := lflag.String("days", "7", "number of consecutive days to backfill")

	// parse flags
	lflag.Configure()

	log.SetDefaultLogLevel(log.ConfiguredLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := db.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	n, err := strconv.Atoi(*days)
	if err != nil || n < 1 {
		log.Ctx(ctx).ErrorContext(ctx, "invalid days count", "days", *days)
		os.Exit(1)
	}

	start := *startDate
	if start == "" {
		latest, err := db.GetLatestDayColorDate(ctx, tempo.Calendar)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to find latest journaled day", "error", err)
			os.Exit(1)
		}
		if latest == "" {
			log.Ctx(ctx).ErrorContext(ctx, "journal is empty, start-date is required")
			os.Exit(1)
		}
		d, err := time.Parse(types.DateLayout, latest)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "latest journaled date is invalid", "date", latest, "error", err)
			os.Exit(1)
		}
		start = d.AddDate(0, 0, 1).Format(types.DateLayout)
	}

	log.Ctx(ctx).InfoContext(ctx, "backfilling day colors", "start", start, "days", n)

	if err := src.Authenticate(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "cannot obtain access token", "error", err)
		os.Exit(1)
	}

	colors, err := svc.Backfill(ctx, start, n)
	for _, day := range colors {
		fmt.Printf("Backfilled %s : %s\n", day.Date, day.Color)
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "backfill failed", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "backfilled day colors successfully", "days", len(colors))
}
