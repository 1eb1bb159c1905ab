package timeparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClockForms(t *testing.T) {
	tests := []struct {
		in   string
		hour int
	}{
		{"08:00", 8},
		{"08.00", 8},
		{"0800", 8},
		{"730", 7},
		{"8am", 8},
		{"8 am", 8},
		{"7:30 pm", 19},
		{"11.00pm", 23},
		{"12am", 0},
		{"12pm", 12},
		{"at 9", 9},
		{"klo 21", 21},
		{"0", 0},
		{"23", 23},
		{"7a", 7},
		{"7p", 19},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.True(t, ok, "Parse(%q) should match", tt.in)
		assert.Equal(t, tt.hour, got, "Parse(%q)", tt.in)
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		hour int
	}{
		{"midnight", 0},
		{"midnatt", 0},
		{"noon", 12},
		{"keskipäivä", 12},
		{"dawn", 5},
		{"gryning", 5},
		{"dusk", 21},
		{"early morning", 6},
		{"late morning", 10},
		{"forenoon", 10},
		{"late afternoon", 16},
		{"sen kväll", 20},
		{"morning", 8},
		{"aamulla", 8},
		{"morgonen", 8},
		{"afternoon", 15},
		{"iltapäivällä", 15},
		{"aamupäivällä", 10},
		{"evening", 19},
		{"kvällen", 19},
		{"night", 22},
		{"yöllä", 22},
		{"daytime", 10},
		{"dagtid", 10},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.True(t, ok, "Parse(%q) should match", tt.in)
		assert.Equal(t, tt.hour, got, "Parse(%q)", tt.in)
	}
}

func TestParseCardinals(t *testing.T) {
	tests := []struct {
		in   string
		hour int
	}{
		{"seitsemän", 7},
		{"kahdeksan", 8},
		{"tolv", 12},
		{"eleven", 11},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.True(t, ok, "Parse(%q) should match", tt.in)
		assert.Equal(t, tt.hour, got, "Parse(%q)", tt.in)
	}
}

func TestParseUnparseable(t *testing.T) {
	for _, in := range []string{"", "gibberish", "soon", "24:00 is not an hour alone?", "13pm"} {
		_, ok := Parse(in)
		assert.False(t, ok, "Parse(%q) should be immediate", in)
	}
}
