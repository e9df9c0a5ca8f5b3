package services

import (
	"iter"
	"time"
	"unicode/utf8"
)

// Progressive yields ever-longer prefixes of text, one character at a time,
// pausing delay after each. The text is already complete; this only paces its
// display. Stopping the range loop early stops the pacing too.
func Progressive(text string, delay time.Duration) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range text {
			_, size := utf8.DecodeRuneInString(text[i:])
			if !yield(text[:i+size]) {
				return
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
	}
}

// RevealSteps is Progressive without the pacing, for callers that schedule
// their own ticks.
func RevealSteps(text string) []string {
	steps := make([]string, 0, utf8.RuneCountInString(text))
	for prefix := range Progressive(text, 0) {
		steps = append(steps, prefix)
	}
	return steps
}
