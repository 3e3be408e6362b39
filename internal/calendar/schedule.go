package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultHorizonDays bounds how far a projection walks before giving up.
const DefaultHorizonDays = 731

var (
	ErrNoBusinessHoursDefined = errors.New("no business hours defined within lookahead horizon")
	ErrInvalidTimezone        = errors.New("invalid timezone")
)

// Interval is a weekly open window. End is exclusive.
type Interval struct {
	Weekday time.Weekday
	Start   Clock
	End     Clock
}

// Schedule answers business-hours questions for one timezone, weekly schedule
// and holiday list. It is immutable once built.
type Schedule struct {
	loc         *time.Location
	days        [7][]Interval
	holidays    map[Date]struct{}
	horizonDays int
	hasHours    bool
}

// Option customizes a Schedule.
type Option func(*Schedule)

// WithHorizonDays overrides the lookahead horizon.
func WithHorizonDays(days int) Option {
	return func(s *Schedule) {
		if days > 0 {
			s.horizonDays = days
		}
	}
}

// NewSchedule builds a Schedule. An empty timezone means UTC. Zero-length and
// inverted intervals are kept out of the schedule and treated as closed.
func NewSchedule(timezone string, intervals []Interval, holidays []Date, opts ...Option) (*Schedule, error) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return nil, err
	}
	s := &Schedule{
		loc:         loc,
		holidays:    make(map[Date]struct{}, len(holidays)),
		horizonDays: DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, iv := range intervals {
		if iv.Weekday < time.Sunday || iv.Weekday > time.Saturday {
			continue
		}
		if iv.End <= iv.Start {
			continue
		}
		s.days[iv.Weekday] = append(s.days[iv.Weekday], iv)
		s.hasHours = true
	}
	for wd := range s.days {
		day := s.days[wd]
		sort.SliceStable(day, func(i, j int) bool { return day[i].Start < day[j].Start })
	}
	for _, d := range holidays {
		s.holidays[d] = struct{}{}
	}
	return s, nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, timezone, err)
	}
	return loc, nil
}

// Location returns the schedule's timezone.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// IsHoliday reports whether the local calendar date is a holiday.
func (s *Schedule) IsHoliday(d Date) bool {
	_, ok := s.holidays[d]
	return ok
}

// IsOpen reports whether t falls inside an open interval of its local date.
func (s *Schedule) IsOpen(t time.Time) bool {
	d := DateOf(t.In(s.loc))
	if s.IsHoliday(d) {
		return false
	}
	for _, iv := range s.days[d.Weekday()] {
		open, closeAt := d.At(iv.Start, s.loc), d.At(iv.End, s.loc)
		if !t.Before(open) && t.Before(closeAt) {
			return true
		}
	}
	return false
}

// ProjectForward returns the instant at which the given number of business
// minutes, counted from anchor, have elapsed. An anchor outside business hours
// is first advanced to the next opening. When the budget runs out exactly at a
// closing time the closing instant is returned. The result is in UTC.
func (s *Schedule) ProjectForward(anchor time.Time, minutes int) (time.Time, error) {
	if minutes <= 0 {
		return anchor.UTC(), nil
	}
	if !s.hasHours {
		return time.Time{}, ErrNoBusinessHoursDefined
	}

	remaining := time.Duration(minutes) * time.Minute
	cursor := anchor
	first := DateOf(anchor.In(s.loc))

	for i := 0; i <= s.horizonDays; i++ {
		d := first.AddDays(i)
		if s.IsHoliday(d) {
			continue
		}
		for _, iv := range s.days[d.Weekday()] {
			open, closeAt := d.At(iv.Start, s.loc), d.At(iv.End, s.loc)
			if cursor.After(open) {
				open = cursor
			}
			if !open.Before(closeAt) {
				continue
			}
			available := closeAt.Sub(open)
			if available >= remaining {
				return open.Add(remaining).UTC(), nil
			}
			remaining -= available
			cursor = closeAt
		}
	}
	return time.Time{}, ErrNoBusinessHoursDefined
}

// ProjectBackward is the mirror of ProjectForward: it returns the earliest
// instant from which the given business minutes elapse by anchor.
func (s *Schedule) ProjectBackward(anchor time.Time, minutes int) (time.Time, error) {
	if minutes <= 0 {
		return anchor.UTC(), nil
	}
	if !s.hasHours {
		return time.Time{}, ErrNoBusinessHoursDefined
	}

	remaining := time.Duration(minutes) * time.Minute
	cursor := anchor
	first := DateOf(anchor.In(s.loc))

	for i := 0; i <= s.horizonDays; i++ {
		d := first.AddDays(-i)
		if s.IsHoliday(d) {
			continue
		}
		day := s.days[d.Weekday()]
		for j := len(day) - 1; j >= 0; j-- {
			open, closeAt := d.At(day[j].Start, s.loc), d.At(day[j].End, s.loc)
			if cursor.Before(closeAt) {
				closeAt = cursor
			}
			if !open.Before(closeAt) {
				continue
			}
			available := closeAt.Sub(open)
			if available >= remaining {
				return closeAt.Add(-remaining).UTC(), nil
			}
			remaining -= available
			cursor = open
		}
	}
	return time.Time{}, ErrNoBusinessHoursDefined
}

// BusinessDuration returns how much business time lies between from and to.
// It returns zero when to is not after from.
func (s *Schedule) BusinessDuration(from, to time.Time) time.Duration {
	if !to.After(from) || !s.hasHours {
		return 0
	}
	var total time.Duration
	cursor := from
	last := DateOf(to.In(s.loc))
	for d := DateOf(from.In(s.loc)); !d.After(last); d = d.AddDays(1) {
		if s.IsHoliday(d) {
			continue
		}
		for _, iv := range s.days[d.Weekday()] {
			open, closeAt := d.At(iv.Start, s.loc), d.At(iv.End, s.loc)
			if cursor.After(open) {
				open = cursor
			}
			if to.Before(closeAt) {
				closeAt = to
			}
			if !open.Before(closeAt) {
				continue
			}
			total += closeAt.Sub(open)
			cursor = closeAt
		}
	}
	return total
}
