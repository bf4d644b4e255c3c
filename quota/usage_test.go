package quota_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/quota"
)

func TestUsage_UtilizationIsExactDecimal(t *testing.T) {
	// GIVEN: 3 of 8 monthly days selected
	var e quota.Engine
	limits := capped(8, 2)
	data := newData()
	for _, d := range []calendar.DateKey{"2025-08-04", "2025-08-05", "2025-08-12"} {
		mustToggle(t, e, d, &data, limits)
	}

	u := e.Usage(data, limits)

	if u.DaysSelected != 3 || *u.MonthlyRemaining != 5 {
		t.Fatalf("usage = %+v", u)
	}
	if !u.MonthlyUtilization.Equal(decimal.RequireFromString("0.375")) {
		t.Errorf("utilization = %s, want 0.375", u.MonthlyUtilization)
	}
	if u.WeeklyCounts[2] != 2 || u.WeeklyCounts[3] != 1 {
		t.Errorf("weekly counts = %v", u.WeeklyCounts)
	}
}

func TestUsage_NoMonthlyCapMeansZeroUtilization(t *testing.T) {
	var e quota.Engine
	data := newData()
	u := e.Usage(data, capped(0, 2))
	if !u.MonthlyUtilization.IsZero() {
		t.Errorf("zero-cap utilization = %s, want 0", u.MonthlyUtilization)
	}
	if u.MonthlyRemaining == nil || *u.MonthlyRemaining != 0 {
		t.Errorf("remaining = %v", u.MonthlyRemaining)
	}
}
