package service

import (
	"sort"
	"time"

	"collector-engine/internal/domain"
)

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from start to today, ignoring
// time-of-day. Both dates are rebuilt at UTC midnight so DST transitions
// cannot shift the count.
func daysBetween(start, today time.Time) int {
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// stepsDueToday returns the enabled steps matching the exact day offset,
// ascending by step order. A step never fires early and never catches up for
// missed days.
func stepsDueToday(steps []domain.Step, daysOffset int) []domain.Step {
	var due []domain.Step

	for _, s := range steps {
		if !s.IsEnabled {
			continue
		}
		if s.DaysAfterStart == daysOffset {
			due = append(due, s)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].StepOrder < due[j].StepOrder
	})

	return due
}

// nextExecutionAt schedules the rule's next pass for tomorrow 09:00 local.
func nextExecutionAt(now time.Time) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, now.Location())
}
