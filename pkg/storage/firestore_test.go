package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempowatch/tempowatch/pkg/types"
)

func TestFirestoreProvider(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping firestore tests")
	}

	// Use a random database for isolation between runs.
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	f := &FirestoreProvider{
		projectID: "test-project-id",
		database:  randDB,
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("EmptyCalendar", func(t *testing.T) {
		_, err := f.GetDayColorHistory(ctx, "", "2024-02-10", "2024-02-14")
		assert.ErrorContains(t, err, "calendar cannot be empty")
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		day := types.DayColor{
			Date:      "2024-02-12",
			Color:     types.ColorBlue,
			UpdatedAt: time.Now().Truncate(time.Second).UTC(),
		}
		require.NoError(t, f.UpsertDayColor(ctx, "tempo-upsert", day))

		got, err := f.GetDayColor(ctx, "tempo-upsert", "2024-02-12")
		require.NoError(t, err)
		assert.Equal(t, day.Date, got.Date)
		assert.Equal(t, types.ColorBlue, got.Color)
		assert.True(t, day.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt should round-trip")

		t.Run("Overwrite", func(t *testing.T) {
			day.Color = types.ColorRed
			require.NoError(t, f.UpsertDayColor(ctx, "tempo-upsert", day))

			got, err := f.GetDayColor(ctx, "tempo-upsert", "2024-02-12")
			require.NoError(t, err)
			assert.Equal(t, types.ColorRed, got.Color)
		})
	})

	t.Run("GetDayColorNotFound", func(t *testing.T) {
		_, err := f.GetDayColor(ctx, "tempo-upsert", "1999-01-01")
		assert.ErrorIs(t, err, ErrDayNotFound)
	})

	t.Run("UpsertInvalidDate", func(t *testing.T) {
		day := types.DayColor{Date: "12/02/2024", Color: types.ColorBlue}
		err := f.UpsertDayColor(ctx, "tempo-upsert", day)
		assert.ErrorContains(t, err, "invalid day color date")
	})

	t.Run("History", func(t *testing.T) {
		for _, d := range []types.DayColor{
			{Date: "2024-02-10", Color: types.ColorBlue},
			{Date: "2024-02-11", Color: types.ColorWhite},
			{Date: "2024-02-12", Color: types.ColorRed},
			{Date: "2024-02-13", Color: types.ColorBlue},
		} {
			require.NoError(t, f.UpsertDayColor(ctx, "tempo-history", d))
		}

		// End date is exclusive.
		days, err := f.GetDayColorHistory(ctx, "tempo-history", "2024-02-11", "2024-02-13")
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, "2024-02-11", days[0].Date)
		assert.Equal(t, types.ColorWhite, days[0].Color)
		assert.Equal(t, "2024-02-12", days[1].Date)
		assert.Equal(t, types.ColorRed, days[1].Color)
	})

	t.Run("GetLatestDayColorDate", func(t *testing.T) {
		for _, d := range []types.DayColor{
			{Date: "2024-03-01", Color: types.ColorBlue},
			{Date: "2024-03-03", Color: types.ColorWhite},
			{Date: "2024-03-02", Color: types.ColorRed},
		} {
			require.NoError(t, f.UpsertDayColor(ctx, "tempo-latest", d))
		}

		latest, err := f.GetLatestDayColorDate(ctx, "tempo-latest")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-03", latest)
	})

	t.Run("GetLatestDayColorDateEmpty", func(t *testing.T) {
		latest, err := f.GetLatestDayColorDate(ctx, "tempo-empty")
		require.NoError(t, err)
		assert.Equal(t, "", latest)
	})
}
