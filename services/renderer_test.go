package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressive_YieldsOnePrefixPerCharacter(t *testing.T) {
	inputs := []string{
		"a",
		"hello world",
		GreetingReply,
		"**Link:** [Read More](https://example.com)\n\n---\n",
	}

	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			var prefixes []string
			for p := range Progressive(s, 0) {
				prefixes = append(prefixes, p)
			}

			require.Len(t, prefixes, utf8.RuneCountInString(s))
			for i, p := range prefixes {
				assert.Equal(t, i+1, utf8.RuneCountInString(p))
				assert.True(t, strings.HasPrefix(s, p))
			}
			assert.Equal(t, s, prefixes[len(prefixes)-1])
		})
	}
}

func TestProgressive_EmptyString(t *testing.T) {
	count := 0
	for range Progressive("", 0) {
		count++
	}
	assert.Zero(t, count)
}

func TestProgressive_IsRestartable(t *testing.T) {
	seq := Progressive("abc", 0)
	var first, second []string
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}
	assert.Equal(t, first, second)
}

func TestProgressive_EarlyBreakAndDelay(t *testing.T) {
	start := time.Now()
	var got []string
	for p := range Progressive("abcdefgh", 5*time.Millisecond) {
		got = append(got, p)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"a", "ab", "abc"}, got)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRevealSteps(t *testing.T) {
	assert.Equal(t, []string{"N", "No", "No."}, RevealSteps("No."))
}
