// Package recurrence turns cron expressions into concrete future instants.
// All results are UTC. Malformed expressions fail soft: callers get a zero
// value instead of an error, and surface it as a validation problem.
package recurrence

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// standard 5-field cron (minute hour dom month dow), plus descriptors like
// @daily. Seconds are not part of the schedule grammar.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextOccurrence returns the next strictly-future UTC instant matching expr,
// counted from the given reference instant. ok is false when expr is
// malformed or the schedule has no future occurrence.
func NextOccurrence(expr string, from time.Time) (time.Time, bool) {
	schedule, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return time.Time{}, false
	}
	next := schedule.Next(from.UTC())
	if next.IsZero() {
		return time.Time{}, false
	}
	return next.UTC(), true
}

// Occurrences returns the next count future occurrences of expr in ascending
// order. It returns an empty slice when expr is malformed.
func Occurrences(expr string, from time.Time, count int) []time.Time {
	schedule, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil || count <= 0 {
		return nil
	}
	occurrences := make([]time.Time, 0, count)
	cursor := from.UTC()
	for i := 0; i < count; i++ {
		next := schedule.Next(cursor)
		if next.IsZero() {
			break
		}
		occurrences = append(occurrences, next.UTC())
		cursor = next
	}
	return occurrences
}

// ParseOneTime parses an absolute timestamp for one-time schedules. RFC3339
// first, then a couple of lenient layouts; naive timestamps are assumed UTC.
func ParseOneTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
