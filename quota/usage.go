package quota

import (
	"github.com/shopspring/decimal"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
)

// =============================================================================
// USAGE SUMMARY - Quota utilization readback
// =============================================================================

// Usage reports how much of a month's quota the current selection consumes.
// Utilization is a decimal ratio in [0, n] (it can exceed 1 when limits
// tightened after selection); decimal keeps report arithmetic exact.
type Usage struct {
	Month              calendar.MonthKey `json:"month"`
	DaysSelected       int               `json:"daysSelected"`
	Submitted          bool              `json:"isSubmitted"`
	MonthlyLimit       *int              `json:"monthlyLimit,omitempty"`
	MonthlyRemaining   *int              `json:"monthlyRemaining,omitempty"`
	MonthlyUtilization decimal.Decimal   `json:"monthlyUtilization"`
	WeeklyLimit        *int              `json:"weeklyLimit,omitempty"`
	WeeklyCounts       map[int]int       `json:"weeklyCounts"`
}

// Usage summarizes the selection against the policy. Purely derived; never
// fails.
func (Engine) Usage(data Data, limits policy.Limits) Usage {
	u := Usage{
		Month:        data.Month,
		DaysSelected: data.Selected.Len(),
		Submitted:    data.Submitted,
		MonthlyLimit: limits.MonthlyLimit,
		WeeklyLimit:  limits.WeeklyLimit,
		WeeklyCounts: data.WeeklyCounts(),
	}
	if limits.MonthlyLimit != nil {
		u.MonthlyRemaining = policy.IntPtr(*limits.MonthlyLimit - data.Selected.Len())
		if *limits.MonthlyLimit > 0 {
			u.MonthlyUtilization = decimal.NewFromInt(int64(data.Selected.Len())).
				Div(decimal.NewFromInt(int64(*limits.MonthlyLimit))).
				Round(4)
		}
	}
	return u
}
