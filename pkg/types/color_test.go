package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"BLUE", ColorBlue},
		{"WHITE", ColorWhite},
		{"RED", ColorRed},
		{"UNDEFINED", ColorUndefined},
		{"", ColorUndefined},
		{"blue", ColorUndefined},
		{"PURPLE", ColorUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseColor(tt.in))
		})
	}
}

func TestColorDefinitive(t *testing.T) {
	assert.True(t, ColorBlue.Definitive())
	assert.True(t, ColorWhite.Definitive())
	assert.True(t, ColorRed.Definitive())
	assert.False(t, ColorUndefined.Definitive())
	assert.False(t, Color("MAGENTA").Definitive())
}
