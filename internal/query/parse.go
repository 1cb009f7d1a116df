// Package query extracts exam references from free text and decides whether
// a message is within the course's subject domain.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dateRegex     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	exerciseRegex = regexp.MustCompile(`(?i)(?:^|\b)(?:es|esercizio)\s*\.?\s*(\d{1,2})(?:\b|$)`)
)

// Query is the best-effort result of parsing a message.
// A zero Date or Exercise means the field was not found.
type Query struct {
	Date     string // YYYY-MM-DD
	Exercise int
}

// Complete reports whether both the exam date and the exercise number were found.
func (q Query) Complete() bool {
	return q.Date != "" && q.Exercise > 0
}

// Parse extracts the first date token and the first exercise token from text.
// The two extractions are independent.
func Parse(text string) Query {
	var q Query
	if m := dateRegex.FindStringSubmatch(text); m != nil {
		if d, ok := NormalizeDate(m[1]); ok {
			q.Date = d
		}
	}
	if m := exerciseRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			q.Exercise = n
		}
	}
	return q
}

// NormalizeDate converts D/M/Y or D-M-Y tokens to YYYY-MM-DD. Two-digit years
// are mapped into the 2000s. ISO tokens are returned unchanged. The boolean is
// false when the token cannot be split into three integers.
func NormalizeDate(raw string) (string, bool) {
	if isoDateRegex.MatchString(raw) {
		return raw, true
	}

	sep := "-"
	if strings.Contains(raw, "/") {
		sep = "/"
	}
	parts := strings.Split(raw, sep)
	if len(parts) != 3 {
		return "", false
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", false
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	if year < 100 {
		year += 2000
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// HasDateToken reports whether text contains anything shaped like a date.
func HasDateToken(text string) bool {
	return dateRegex.MatchString(text)
}

// HasExerciseToken reports whether text contains an "es N" / "esercizio N" token.
func HasExerciseToken(text string) bool {
	return exerciseRegex.MatchString(text)
}
