package storage

import (
	"context"
	"errors"

	"github.com/tempowatch/tempowatch/pkg/types"
)

// ErrDayNotFound is returned when a calendar has no record for a date.
var ErrDayNotFound = errors.New("day color not found")

// Database defines the interface for the day-color journal.
type Database interface {
	// UpsertDayColor adds or updates the record for one day of a calendar.
	UpsertDayColor(ctx context.Context, calendar string, day types.DayColor) error

	// GetDayColor returns the record for one day, or ErrDayNotFound.
	GetDayColor(ctx context.Context, calendar, date string) (types.DayColor, error)

	// GetDayColorHistory returns the records with startDate <= date < endDate
	// in date order. Dates are YYYY-MM-DD.
	GetDayColorHistory(ctx context.Context, calendar, startDate, endDate string) ([]types.DayColor, error)

	// GetLatestDayColorDate returns the date of the most recent record, or ""
	// when the calendar is empty.
	GetLatestDayColorDate(ctx context.Context, calendar string) (string, error)

	// Lifecycle
	Close() error
}

// Noop discards writes and reports every read as empty. It backs the "none"
// provider so journal-free runs take the same code path as journaled ones.
type Noop struct{}

// UpsertDayColor implements the Database interface.
func (Noop) UpsertDayColor(ctx context.Context, calendar string, day types.DayColor) error {
	return nil
}

// GetDayColor implements the Database interface.
func (Noop) GetDayColor(ctx context.Context, calendar, date string) (types.DayColor, error) {
	return types.DayColor{}, ErrDayNotFound
}

// GetDayColorHistory implements the Database interface.
func (Noop) GetDayColorHistory(ctx context.Context, calendar, startDate, endDate string) ([]types.DayColor, error) {
	return nil, nil
}

// GetLatestDayColorDate implements the Database interface.
func (Noop) GetLatestDayColorDate(ctx context.Context, calendar string) (string, error) {
	return "", nil
}

// Close implements the Database interface.
func (Noop) Close() error {
	return nil
}
