/*
dto.go - Request and response types for the HTTP API

PURPOSE:
  Decouples the wire contract from the domain types. Requests carry
  validator tags; validation runs in the handlers before any domain call.

NAMING CONVENTION:
  - *Request: request body types from clients
  - *Response: response wrappers where the domain type alone is not enough

SEE ALSO:
  - handlers.go: validation and error mapping
*/
package api

import (
	"time"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/quota"
)

// =============================================================================
// REQUESTS
// =============================================================================

// PublishLimitsRequest publishes a vacation setting for one month.
type PublishLimitsRequest struct {
	Type        string `json:"type" validate:"required,oneof=monthly weekly flexible"`
	AllowedDays int    `json:"allowedDays" validate:"gte=0"`
	Year        int    `json:"year" validate:"gte=1970,lte=2200"`
	Month       int    `json:"month" validate:"gte=1,lte=12"`
	PublishDate string `json:"publishDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r PublishLimitsRequest) ToSetting() policy.Setting {
	s := policy.Setting{
		Type:        policy.Type(r.Type),
		AllowedDays: r.AllowedDays,
		Year:        r.Year,
		Month:       time.Month(r.Month),
	}
	if r.PublishDate != "" {
		if t, err := calendar.DateKey(r.PublishDate).Parse(); err == nil {
			s.PublishDate = t
		}
	}
	return s
}

// ToggleRequest flips one date in the month's selection.
type ToggleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ScheduleRequest stores a month's work schedule.
type ScheduleRequest struct {
	Mode          string   `json:"mode" validate:"required,oneof=auto manual"`
	SelectedDates []string `json:"selectedDates" validate:"dive,datetime=2006-01-02"`
}

func (r ScheduleRequest) ToScheduleData(month calendar.MonthKey) policy.ScheduleData {
	keys := make([]calendar.DateKey, 0, len(r.SelectedDates))
	for _, d := range r.SelectedDates {
		keys = append(keys, calendar.DateKey(d))
	}
	return policy.ScheduleData{
		Mode:          policy.ScheduleMode(r.Mode),
		SelectedDates: calendar.NewDateSet(keys...),
		Month:         month,
	}
}

// =============================================================================
// RESPONSES
// =============================================================================

// ResolutionResponse is the three-state policy lookup result.
type ResolutionResponse struct {
	State  policy.ResolutionState `json:"state"`
	Limits policy.Limits          `json:"limits"`
}

// VacationResponse pairs a month's selection with its validation report.
type VacationResponse struct {
	Data   quota.Data   `json:"data"`
	Report quota.Report `json:"report"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Week  *int   `json:"week,omitempty"`
}
