package generator

import (
	"time"

	"sensor-analytics/pkg/models"
)

// Series is a fixed-step walk over [Start, End). It is a value: each copy
// iterates independently, which is how the date and time generators share one
// timeline without sharing a cursor.
type Series struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// NewSeries spans from `years` ago plus offset up to now, in UTC and
// truncated to the second.
func NewSeries(now time.Time, years int, offset, step time.Duration) Series {
	end := now.UTC().Truncate(time.Second)
	return Series{
		Start: end.AddDate(-years, 0, 0).Add(offset),
		End:   end,
		Step:  step,
	}
}

func (s Series) Len() int {
	if s.Step <= 0 || !s.Start.Before(s.End) {
		return 0
	}
	n := s.End.Sub(s.Start) / s.Step
	if s.Start.Add(n * s.Step).Before(s.End) {
		n++
	}
	return int(n)
}

// Timestamps returns a generator over the series.
func (s Series) Timestamps() func() (time.Time, bool) {
	cur := s.Start
	return func() (time.Time, bool) {
		if s.Step <= 0 || !cur.Before(s.End) {
			return time.Time{}, false
		}
		t := cur
		cur = cur.Add(s.Step)
		return t, true
	}
}

// Dates yields the calendar date of each sample.
func (s Series) Dates() func() (string, bool) {
	next := s.Timestamps()
	return func() (string, bool) {
		t, ok := next()
		if !ok {
			return "", false
		}
		return t.Format(models.DateLayout), true
	}
}

// Clocks yields the time of day of each sample.
func (s Series) Clocks() func() (string, bool) {
	next := s.Timestamps()
	return func() (string, bool) {
		t, ok := next()
		if !ok {
			return "", false
		}
		return t.Format(models.ClockLayout), true
	}
}
