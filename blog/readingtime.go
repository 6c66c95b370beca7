package blog

import "strings"

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// WordCount counts whitespace-separated tokens across every heading and body.
func WordCount(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(strings.Fields(s.Heading))
		for _, b := range s.Body {
			n += len(strings.Fields(b.Text))
		}
	}
	return n
}

// ReadingTime estimates whole minutes to read sections, rounding up.
// The result is never less than one minute.
func ReadingTime(sections []Section) int {
	minutes := (WordCount(sections) + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
