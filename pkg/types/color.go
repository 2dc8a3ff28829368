package types

import (
	"time"
)

// DateLayout is how local calendar days are rendered everywhere: journal
// document IDs, cache keys and flags.
const DateLayout = "2006-01-02"

// Color is the Tempo price tier assigned to a single calendar day.
type Color string

const (
	ColorBlue  Color = "BLUE"
	ColorWhite Color = "WHITE"
	ColorRed   Color = "RED"

	// ColorUndefined is the sentinel for every per-day data failure:
	// unpublished days, client errors and missing or malformed fields. It is
	// never cached or persisted.
	ColorUndefined Color = "UNDEFINED"
)

// ParseColor maps a raw API value to a known Color. Anything unrecognized
// collapses to ColorUndefined.
func ParseColor(s string) Color {
	switch Color(s) {
	case ColorBlue, ColorWhite, ColorRed:
		return Color(s)
	}
	return ColorUndefined
}

// Definitive returns whether the color is a published tier rather than the
// sentinel.
func (c Color) Definitive() bool {
	return c == ColorBlue || c == ColorWhite || c == ColorRed
}

// DayColor is one journal entry: the color assigned to one local calendar day.
type DayColor struct {
	// Date is the local calendar day in DateLayout form.
	Date  string `json:"date"`
	Color Color  `json:"color"`

	// UpdatedAt is when the color was fetched from the API, not when the day
	// was classified upstream.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
