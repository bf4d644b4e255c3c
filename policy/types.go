/*
Package policy defines the vacation limits policy records and their
lifecycle values.

PURPOSE:
  A Limits record is the published monthly/weekly cap configuration for one
  (year, month). The authoring role creates one from a Setting and publishes
  it; the consuming role reads it to gate and validate date selection. This
  package holds the value types only - persistence lives in store, cap
  enforcement in quota.

KEY CONCEPTS:
  - Limits: the per-month policy record (caps, type, publication flag)
  - Setting: the authoring input; converting it always publishes
  - Mode: how the consuming role interprets a policy's caps
  - Resolution: three-state lookup result (Published / Draft / None)

INVARIANTS:
  1. One Limits record per (year, month); last write wins
  2. An unpublished record never unlocks editing for the consuming role
  3. Default fallback values (8 monthly / 2 weekly) are advisory only
     until Published is checked

SEE ALSO:
  - errors.go: the error taxonomy shared across the engine
  - store: keyed persistence of these records
  - quota: cap enforcement against selections
*/
package policy

import (
	"time"

	"github.com/warp/vacation-planner/calendar"
)

// =============================================================================
// VACATION TYPE AND MODE
// =============================================================================

// Type classifies which cap(s) of a policy are authoritative.
type Type string

const (
	TypeMonthly  Type = "monthly"
	TypeWeekly   Type = "weekly"
	TypeFlexible Type = "flexible"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMonthly, TypeWeekly, TypeFlexible:
		return true
	}
	return false
}

// Mode is the consuming-role interpretation of a policy.
type Mode string

const (
	ModeMonthly           Mode = "monthly"
	ModeWeekly            Mode = "weekly"
	ModeMonthlyWithWeekly Mode = "monthlyWithWeeklyLimit"
)

// EnforcesWeekly reports whether the weekly cap participates in selection
// decisions under this mode.
func (m Mode) EnforcesWeekly() bool {
	return m == ModeWeekly || m == ModeMonthlyWithWeekly
}

// =============================================================================
// LIMITS - The per-month policy record
// =============================================================================

// Default cap values used when no policy is stored for a month.
const (
	DefaultMonthlyLimit = 8
	DefaultWeeklyLimit  = 2
)

// Limits is the vacation policy for one (year, month). A nil cap means
// "no cap of that kind".
type Limits struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	MonthlyLimit *int       `json:"monthlyLimit,omitempty"`
	WeeklyLimit  *int       `json:"weeklyLimit,omitempty"`
	Type         Type       `json:"vacationType"`
	Published    bool       `json:"isPublished"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

// Key returns the month this policy governs.
func (l Limits) Key() calendar.MonthKey {
	return calendar.NewMonthKey(l.Year, l.Month)
}

// Mode derives how the consuming role treats this policy:
// weekly type enforces the weekly cap alone, flexible collapses to a plain
// monthly cap, and a monthly policy that also carries a weekly cap enforces
// both.
func (l Limits) Mode() Mode {
	switch l.Type {
	case TypeWeekly:
		return ModeWeekly
	case TypeFlexible:
		return ModeMonthly
	default:
		if l.WeeklyLimit != nil {
			return ModeMonthlyWithWeekly
		}
		return ModeMonthly
	}
}

// Default returns the unpublished fallback policy for a month. Its numbers
// are not authoritative until Published is checked.
func Default(year int, month time.Month) Limits {
	return Limits{
		Year:         year,
		Month:        month,
		MonthlyLimit: IntPtr(DefaultMonthlyLimit),
		WeeklyLimit:  IntPtr(DefaultWeeklyLimit),
		Type:         TypeMonthly,
		Published:    false,
	}
}

// IntPtr is a convenience for optional cap fields.
func IntPtr(n int) *int { return &n }

// =============================================================================
// SETTING - Authoring input; only exists to publish
// =============================================================================

// Setting is the authoring role's input for one month. Converting a Setting
// always yields a published policy.
type Setting struct {
	Type        Type       `json:"type"`
	AllowedDays int        `json:"allowedDays"`
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	PublishDate time.Time  `json:"publishDate"`
}

// ToLimits converts the setting deterministically:
//   - weekly: the allowance is the weekly cap, no monthly cap
//   - monthly/flexible: the allowance is the monthly cap, weekly cap
//     defaults to DefaultWeeklyLimit
func (s Setting) ToLimits() Limits {
	l := Limits{
		Year:      s.Year,
		Month:     s.Month,
		Type:      s.Type,
		Published: true,
	}
	at := s.PublishDate
	if at.IsZero() {
		at = time.Now().UTC()
	}
	l.PublishedAt = &at

	if s.Type == TypeWeekly {
		l.WeeklyLimit = IntPtr(s.AllowedDays)
		return l
	}
	l.MonthlyLimit = IntPtr(s.AllowedDays)
	l.WeeklyLimit = IntPtr(DefaultWeeklyLimit)
	return l
}

// =============================================================================
// RESOLUTION - Three-state policy lookup
// =============================================================================

// ResolutionState distinguishes a published policy from an unpublished
// draft and from no record at all, instead of overloading a boolean.
type ResolutionState string

const (
	StatePublished ResolutionState = "published"
	StateDraft     ResolutionState = "draft"
	StateNone      ResolutionState = "none"
)

// Resolution is the result of looking up the policy for one month.
// Limits carries the stored record for Published and Draft, and the
// Default fallback for None.
type Resolution struct {
	State  ResolutionState
	Limits Limits
}

// Editable reports whether the consuming role may edit selections under
// this resolution. Only a published policy unlocks editing.
func (r Resolution) Editable() bool { return r.State == StatePublished }

// =============================================================================
// PUBLISH STATUS AND SCHEDULE DATA - The rest of the publish surface
// =============================================================================

// PublishStatus is the authoring role's denormalized readback of what has
// been published for a month. Reconciled from Limits.Published when the
// cached record is absent.
type PublishStatus struct {
	VacationPublished bool              `json:"vacationPublished"`
	SchedulePublished bool              `json:"schedulePublished"`
	Month             calendar.MonthKey `json:"month"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// ScheduleMode selects how a month's work schedule was produced.
type ScheduleMode string

const (
	ScheduleAuto   ScheduleMode = "auto"
	ScheduleManual ScheduleMode = "manual"
)

// ScheduleData is the work-schedule companion record to a month's vacation
// limits. It shares the publish surface but carries no quota logic.
type ScheduleData struct {
	Mode          ScheduleMode      `json:"mode"`
	SelectedDates calendar.DateSet  `json:"selectedDates"`
	Month         calendar.MonthKey `json:"month"`
}
