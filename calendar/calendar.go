/*
Package calendar provides the date arithmetic underlying vacation quota
bucketing.

PURPOSE:
  This package contains the pure, stateless calendar functions the rest of
  the engine is built on: week-of-month numbering, week date ranges, the
  6x7 day grid used for month display, and weekly tally statistics over
  sets of date keys.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - MonthKey: a "YYYY-MM" month identifier (zero-padded)
  - DateKey: a "YYYY-MM-DD" day identifier (zero-padded)
  - WeekOfMonth: the fixed week bucketing convention
  - WeekRange: the Monday..Sunday span containing a date (display only)
  - WeeklyStats: per-week selection tallies for one month

WEEK-OF-MONTH CONVENTION:
  Weekly quotas are bucketed by a single pinned rule:

      week = 1 + (day-1 + leading) / 7

  where leading is the weekday index (Sunday = 0) of the 1st of the month.
  This is exactly the row number of the date in the Sunday-first display
  grid (see grid.go), so the bucket a user sees is always the bucket the
  quota engine counts. WeekRange is Monday-first and used for display text
  only; it never feeds bucketing.

DESIGN PRINCIPLES:
  1. No state: every function is deterministic in its arguments
  2. Defensive parsing: malformed date keys are skipped in aggregates,
     never a panic
  3. UTC only: all keys resolve to UTC midnights

SEE ALSO:
  - grid.go: 42-cell day grid generation
  - quota: consumes WeekOfMonth and WeeklyStats for cap enforcement
*/
package calendar

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// MONTH AND DATE KEYS
// =============================================================================

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// DateKey identifies a single day as "YYYY-MM-DD".
type DateKey string

const (
	monthKeyLayout = "2006-01"
	dateKeyLayout  = "2006-01-02"
)

func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
}

// DateKeyOf converts a time to its DateKey, discarding the clock part.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// Parse returns the (year, month) a MonthKey names.
func (k MonthKey) Parse() (int, time.Month, error) {
	t, err := time.ParseInLocation(monthKeyLayout, string(k), time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed month key %q: %w", k, err)
	}
	return t.Year(), t.Month(), nil
}

func (k MonthKey) Valid() bool {
	_, _, err := k.Parse()
	return err == nil
}

// Parse returns the UTC midnight a DateKey names.
func (k DateKey) Parse() (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, string(k), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date key %q: %w", k, err)
	}
	return t, nil
}

// Month returns the MonthKey containing this date.
// Returns an error for keys that do not parse.
func (k DateKey) Month() (MonthKey, error) {
	t, err := k.Parse()
	if err != nil {
		return "", err
	}
	return NewMonthKey(t.Year(), t.Month()), nil
}

// =============================================================================
// DATE SET - Selection sets persisted as sorted date-key arrays
// =============================================================================

// DateSet is a set of selected days. The zero value is not usable; use
// NewDateSet or let JSON decoding build one.
type DateSet map[DateKey]struct{}

func NewDateSet(keys ...DateKey) DateSet {
	s := make(DateSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s DateSet) Contains(k DateKey) bool { _, ok := s[k]; return ok }
func (s DateSet) Add(k DateKey)           { s[k] = struct{}{} }
func (s DateSet) Remove(k DateKey)        { delete(s, k) }
func (s DateSet) Len() int                { return len(s) }

// Sorted returns the members in ascending key order. Date keys are
// zero-padded, so lexical order is chronological order.
func (s DateSet) Sorted() []DateKey {
	out := make([]DateKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted JSON array so serialization is
// deterministic and round-trips exactly.
func (s DateSet) MarshalJSON() ([]byte, error) {
	keys := s.Sorted()
	buf := []byte{'['}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '"')
		buf = append(buf, k...)
		buf = append(buf, '"')
	}
	return append(buf, ']'), nil
}

func (s *DateSet) UnmarshalJSON(data []byte) error {
	var keys []DateKey
	if err := unmarshalDateKeys(data, &keys); err != nil {
		return err
	}
	*s = NewDateSet(keys...)
	return nil
}

// =============================================================================
// WEEK ARITHMETIC
// =============================================================================

// WeekOfMonth returns the 1-based week bucket of t under the pinned
// convention: the row of t in the Sunday-first month grid.
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	leading := int(first.Weekday()) // Sunday = 0
	return 1 + (t.Day()-1+leading)/7
}

// WeekRange returns the Monday..Sunday span containing t.
// Display only; bucketing uses WeekOfMonth.
func WeekRange(t time.Time) (start, end time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// WeeklyStats tallies the dates of a selection into week-of-month buckets.
//
// Dates that fail to parse and dates outside the given month are skipped;
// the computation never fails. Order-independent and deterministic.
func WeeklyStats(dates []DateKey, month MonthKey) map[int]int {
	year, m, err := month.Parse()
	if err != nil {
		return map[int]int{}
	}

	stats := make(map[int]int)
	for _, k := range dates {
		t, err := k.Parse()
		if err != nil {
			continue // malformed keys never crash aggregate computation
		}
		if t.Year() != year || t.Month() != m {
			continue
		}
		stats[WeekOfMonth(t)]++
	}
	return stats
}

// WeeklyStatsOf is WeeklyStats over a DateSet.
func WeeklyStatsOf(s DateSet, month MonthKey) map[int]int {
	return WeeklyStats(s.Sorted(), month)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
