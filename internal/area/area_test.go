package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Uusimaa", "uusimaa"},
		{"Helsinki", "uusimaa"},
		{"Southern Finland", "uusimaa"},
		{"the southern part of the country", "uusimaa"},
		{"Whole country except Lapland", "uusimaa"},
		{"All of Finland", "uusimaa"},
		{"  Pirkanmaa  ", "pirkanmaa"},
		{"Lappi", "lappi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestMatchesTitle(t *testing.T) {
	targets := []string{"Uusimaa"}
	assert.True(t, MatchesTitle("Pedestrian weather warning for Uusimaa", targets))
	assert.True(t, MatchesTitle("Very slippery pavements in southern Finland", targets))
	assert.True(t, MatchesTitle("Warning for the Helsinki region", targets))
	assert.True(t, MatchesTitle("Slippery conditions across the whole country", targets))
	assert.False(t, MatchesTitle("Pedestrian weather warning for Lapland", targets))
	assert.False(t, MatchesTitle("", targets))
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("uusimaa", "uusimaa"))
	assert.True(t, Match("western uusimaa", "uusimaa"))
	assert.True(t, Match("uusimaa", "western uusimaa"))
	assert.False(t, Match("uusimaa", "pirkanmaa"))
	assert.False(t, Match("", "uusimaa"))
	assert.False(t, Match("uusimaa", ""))
}
