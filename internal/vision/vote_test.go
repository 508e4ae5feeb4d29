package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMostFrequent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		items []Color
		want  Color
		ok    bool
	}{
		{"majority", []Color{ColorRed, ColorRed, ColorGreen}, ColorRed, true},
		{"all distinct picks first seen", []Color{ColorRed, ColorGreen, ColorYellow}, ColorRed, true},
		{"late majority", []Color{ColorGreen, ColorYellow, ColorYellow}, ColorYellow, true},
		{"tie picks first seen", []Color{ColorYellow, ColorGreen, ColorGreen, ColorYellow}, ColorYellow, true},
		{"single", []Color{ColorGreen}, ColorGreen, true},
		{"empty", nil, ColorUnknown, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MostFrequent(tc.items)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMostFrequent_Strings(t *testing.T) {
	got, ok := MostFrequent([]string{"B", "A", "A", "B", "A"})
	assert.True(t, ok)
	assert.Equal(t, "A", got)
}
