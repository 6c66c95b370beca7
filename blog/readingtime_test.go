package blog

import (
	"strings"
	"testing"

	"github.com/eringen/spacetraveling/richtext"
)

func section(heading string, body ...string) Section {
	s := Section{Heading: heading}
	for _, b := range body {
		s.Body = append(s.Body, richtext.Block{Type: richtext.TypeParagraph, Text: b})
	}
	return s
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name      string
		sections  []Section
		wantWords int
		wantMin   int
	}{
		{"intro", []Section{section("Intro", "a b c")}, 4, 1},
		{"empty", nil, 0, 1},
		{"blank text", []Section{section("  ", "\n\t")}, 0, 1},
		{"exactly 200", []Section{section("", strings.Repeat("w ", 200))}, 200, 1},
		{"201 rounds up", []Section{section("x", strings.Repeat("w ", 200))}, 201, 2},
		{"multiple sections", []Section{section("one two", "three"), section("four", "five six", "seven")}, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordCount(tt.sections); got != tt.wantWords {
				t.Errorf("WordCount = %d, want %d", got, tt.wantWords)
			}
			if got := ReadingTime(tt.sections); got != tt.wantMin {
				t.Errorf("ReadingTime = %d, want %d", got, tt.wantMin)
			}
		})
	}
}

func TestReadingTimeMonotonic(t *testing.T) {
	prev := 0
	for words := 0; words <= 1000; words += 37 {
		got := ReadingTime([]Section{section("", strings.Repeat("w ", words))})
		if got < prev {
			t.Fatalf("ReadingTime(%d words) = %d, less than %d", words, got, prev)
		}
		prev = got
	}
}
