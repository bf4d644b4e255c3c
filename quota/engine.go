/*
engine.go - Quota decisions for evolving date selections

PURPOSE:
  Given a month's policy and the current selection, decide whether a date
  may be added, execute toggles, gate submission, and re-check an existing
  selection after the policy changes underneath it.

KEY RULES:
  - A submitted selection rejects every mutation with ErrAlreadySubmitted.
  - Removal is always permitted while unsubmitted, even when the selection
    is over a now-stricter limit: users must be able to correct over-limit
    state.
  - The weekly cap is inclusive of the pending add. The date under test is
    not yet in the set, so the check is count < limit, never <=.
  - Submit re-validates weekly buckets because limits may have tightened
    after the dates were chosen.

The engine is stateless; all state lives in Data and policy.Limits.

SEE ALSO:
  - data.go: the selection record
  - calendar: week bucketing convention
  - policy/errors.go: the rejection taxonomy
*/
package quota

import (
	"sort"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
)

// Engine validates and executes selection changes against a policy.
type Engine struct{}

// =============================================================================
// TOGGLE RESULT AND VALIDATION REPORT
// =============================================================================

// ToggleResult summarizes a successful toggle, including remaining quota
// after the mutation. Remaining values are nil when the corresponding cap
// is absent or not enforced.
type ToggleResult struct {
	Date             calendar.DateKey `json:"date"`
	Added            bool             `json:"added"`
	Week             int              `json:"week"`
	MonthlyRemaining *int             `json:"monthlyRemaining,omitempty"`
	WeeklyRemaining  *int             `json:"weeklyRemaining,omitempty"`
}

// Report is the non-mutating consistency check result. ViolatingWeeks is
// sorted ascending.
type Report struct {
	Valid           bool  `json:"isValid"`
	ViolatingWeeks  []int `json:"violatingWeeks,omitempty"`
	MonthlyExceeded bool  `json:"monthlyExceeded,omitempty"`
}

// =============================================================================
// CAN ADD
// =============================================================================

// CanAdd decides whether date may join the selection. The date under test
// is excluded from its own week count: the count reflects state before the
// add.
func (Engine) CanAdd(date calendar.DateKey, data Data, limits policy.Limits) error {
	if data.Submitted {
		return policy.ErrAlreadySubmitted
	}
	if data.Selected.Contains(date) {
		return nil
	}

	t, err := date.Parse()
	if err != nil {
		return policy.ErrMalformedDateKey
	}
	if calendar.NewMonthKey(t.Year(), t.Month()) != data.Month {
		return policy.ErrDateOutsideMonth
	}

	if limits.MonthlyLimit != nil && data.Selected.Len() >= *limits.MonthlyLimit {
		return &policy.MonthlyLimitError{Limit: *limits.MonthlyLimit, Selected: data.Selected.Len()}
	}

	if limits.WeeklyLimit != nil && limits.Mode().EnforcesWeekly() {
		week := calendar.WeekOfMonth(t)
		count := data.WeeklyCounts()[week]
		if count >= *limits.WeeklyLimit {
			return &policy.WeeklyLimitError{Week: week, Limit: *limits.WeeklyLimit, Count: count}
		}
	}
	return nil
}

// =============================================================================
// TOGGLE
// =============================================================================

// Toggle flips date's membership in the selection. A selected date is
// removed unconditionally while unsubmitted; an unselected date goes
// through CanAdd first. On success the result carries the remaining quota
// after the mutation.
func (e Engine) Toggle(date calendar.DateKey, data *Data, limits policy.Limits) (ToggleResult, error) {
	if data.Submitted {
		return ToggleResult{}, policy.ErrAlreadySubmitted
	}

	if data.Selected.Contains(date) {
		data.Selected.Remove(date)
		return e.result(date, false, *data, limits), nil
	}

	if err := e.CanAdd(date, *data, limits); err != nil {
		return ToggleResult{}, err
	}
	data.Selected.Add(date)
	return e.result(date, true, *data, limits), nil
}

func (Engine) result(date calendar.DateKey, added bool, data Data, limits policy.Limits) ToggleResult {
	res := ToggleResult{Date: date, Added: added}
	if t, err := date.Parse(); err == nil {
		res.Week = calendar.WeekOfMonth(t)
	}
	if limits.MonthlyLimit != nil {
		res.MonthlyRemaining = policy.IntPtr(*limits.MonthlyLimit - data.Selected.Len())
	}
	if limits.WeeklyLimit != nil && limits.Mode().EnforcesWeekly() && res.Week > 0 {
		res.WeeklyRemaining = policy.IntPtr(*limits.WeeklyLimit - data.WeeklyCounts()[res.Week])
	}
	return res
}

// =============================================================================
// VALIDATE AND SUBMIT
// =============================================================================

// Validate re-checks an existing selection against a policy without
// mutating anything. Used before submit and after a policy update arrives
// mid-selection.
func (Engine) Validate(data Data, limits policy.Limits) Report {
	report := Report{Valid: true}

	if limits.MonthlyLimit != nil && data.Selected.Len() > *limits.MonthlyLimit {
		report.Valid = false
		report.MonthlyExceeded = true
	}

	if limits.WeeklyLimit != nil && limits.Mode().EnforcesWeekly() {
		for week, count := range data.WeeklyCounts() {
			if count > *limits.WeeklyLimit {
				report.ViolatingWeeks = append(report.ViolatingWeeks, week)
			}
		}
		if len(report.ViolatingWeeks) > 0 {
			report.Valid = false
			sort.Ints(report.ViolatingWeeks)
		}
	}
	return report
}

// Submit freezes the selection. Rejected when any week exceeds the weekly
// cap - limits may have tightened after the dates were chosen - naming the
// first violating week.
func (e Engine) Submit(data *Data, limits policy.Limits) error {
	if data.Submitted {
		return policy.ErrAlreadySubmitted
	}
	if limits.WeeklyLimit != nil && limits.Mode().EnforcesWeekly() {
		report := e.Validate(*data, limits)
		if len(report.ViolatingWeeks) > 0 {
			week := report.ViolatingWeeks[0]
			return &policy.WeeklyLimitError{
				Week:  week,
				Limit: *limits.WeeklyLimit,
				Count: data.WeeklyCounts()[week],
			}
		}
	}
	data.Submitted = true
	return nil
}
