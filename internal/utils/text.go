package utils

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s and strips everything that is not a letter,
// digit, or space, collapsing runs of whitespace to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '/' || r == '.' || r == ',':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// LeadingDigits returns the run of digits at the start of s, if any.
func LeadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// Tokens splits s on whitespace and keeps normalized tokens of at least
// minLen characters.
func Tokens(s string, minLen int) []string {
	var out []string
	for _, f := range strings.Fields(Normalize(s)) {
		if len(f) >= minLen {
			out = append(out, f)
		}
	}
	return out
}

// FirstDigitRun returns the first run of exactly n consecutive digits in s,
// bounded by non-digits, or "" when none exists.
func FirstDigitRun(s string, n int) string {
	run := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			run++
			continue
		}
		if run == n {
			return s[i-n : i]
		}
		run = 0
	}
	return ""
}
