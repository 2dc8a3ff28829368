package rte

import (
	"context"

	"github.com/tempowatch/tempowatch/pkg/types"
)

// Source defines the interface for fetching Tempo calendar data from RTE.
type Source interface {
	// Authenticate exchanges the configured credentials for an access token.
	Authenticate(ctx context.Context) error

	// TempoCalendar returns the Tempo color covering the window [start, end).
	// Both bounds are ISO 8601 timestamps with a numeric UTC offset. A window
	// the API has no color for yet returns ColorUndefined without an error.
	TempoCalendar(ctx context.Context, start, end string) (types.Color, error)
}
