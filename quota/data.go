// Package quota implements the vacation quota validation engine: accept or
// reject date selections against a month's policy, and the per-month
// selection record those decisions mutate.
package quota

import (
	"github.com/warp/vacation-planner/calendar"
)

// =============================================================================
// VACATION DATA - One month's selection, owned by the consuming role
// =============================================================================

// Data is the consuming role's selection for one month.
//
// Lifecycle: created empty on first access to a month, mutated only via
// Engine.Toggle while unsubmitted, persisted after every mutation, and
// reset only by an explicit administrative clear. Once Submitted is true
// the set is frozen: no add or remove may mutate it.
type Data struct {
	Month     calendar.MonthKey `json:"month"`
	Selected  calendar.DateSet  `json:"selectedDates"`
	Submitted bool              `json:"isSubmitted"`
}

// NewData returns the empty selection record for a month.
func NewData(month calendar.MonthKey) Data {
	return Data{Month: month, Selected: calendar.NewDateSet()}
}

// Clone returns a deep copy. Engine operations mutate a clone first so a
// failed persist leaves the original untouched.
func (d Data) Clone() Data {
	return Data{Month: d.Month, Selected: d.Selected.Clone(), Submitted: d.Submitted}
}

// WeeklyCounts tallies the current selection into week-of-month buckets.
func (d Data) WeeklyCounts() map[int]int {
	return calendar.WeeklyStatsOf(d.Selected, d.Month)
}
