/*
handlers.go - HTTP handlers over the planning engine

PURPOSE:
  Maps the HTTP surface onto the role controllers and stores. The authoring
  endpoints drive a single BossSession; the consuming endpoints drive one
  EmployeeSession per month, created lazily and kept for the process
  lifetime so notification reactions and stale-fetch guards stay live.

ERROR MAPPING:
  - business-rule rejections (quota, submitted, awaiting publication): 409
  - missing policy on lookup: 404
  - malformed input: 400
  - persistence failures: 500, retryable
*/
package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/notify"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/session"
	"github.com/warp/vacation-planner/store"
)

type Handler struct {
	limits    *store.LimitsStore
	vacations *store.VacationDataStore
	statuses  *store.PublishStatusStore
	schedules *store.ScheduleStore
	notifier  *notify.Notifier
	remote    session.Remote
	validate  *validator.Validate

	boss *session.BossSession

	mu        sync.Mutex
	employees map[calendar.MonthKey]*session.EmployeeSession
}

// NewHandler wires the stores, notifier, and the authoring session on top
// of the given persistence collaborator. remote may be nil.
func NewHandler(kv store.KV, remote session.Remote) (*Handler, error) {
	h := &Handler{
		limits:    store.NewLimitsStore(kv),
		vacations: store.NewVacationDataStore(kv),
		statuses:  store.NewPublishStatusStore(kv),
		schedules: store.NewScheduleStore(kv),
		remote:    remote,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		employees: make(map[calendar.MonthKey]*session.EmployeeSession),
	}
	h.notifier = notify.New(h.limits)

	now := time.Now().UTC()
	boss, err := session.NewBossSession(h.limits, h.statuses, h.schedules, h.notifier, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	h.boss = boss
	return h, nil
}

func (h *Handler) employee(year int, month time.Month) (*session.EmployeeSession, error) {
	key := calendar.NewMonthKey(year, month)
	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.employees[key]; ok {
		return sess, nil
	}
	sess, err := session.NewEmployeeSession(h.limits, h.vacations, h.remote, h.notifier, year, month)
	if err != nil {
		return nil, err
	}
	h.employees[key] = sess
	return sess, nil
}

// =============================================================================
// LIMITS - Authoring surface
// =============================================================================

func (h *Handler) ListLimits(w http.ResponseWriter, r *http.Request) {
	published, err := h.limits.ListPublished(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if published == nil {
		published = []policy.Limits{}
	}
	writeJSON(w, http.StatusOK, published)
}

func (h *Handler) GetLimits(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	res, err := h.limits.Resolve(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.State == policy.StateNone {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no policy for month", Code: "policy_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, ResolutionResponse{State: res.State, Limits: res.Limits})
}

func (h *Handler) PublishLimits(w http.ResponseWriter, r *http.Request) {
	var req PublishLimitsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.boss.SwitchMonth(r.Context(), req.Year, time.Month(req.Month)); err != nil {
		writeError(w, err)
		return
	}
	if err := h.boss.PublishVacation(r.Context(), req.ToSetting()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"state":  h.boss.State(),
		"status": h.boss.Status(),
	})
}

func (h *Handler) UnpublishLimits(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	if err := h.boss.SwitchMonth(r.Context(), year, month); err != nil {
		writeError(w, err)
		return
	}
	if err := h.boss.Unpublish(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": h.boss.State()})
}

// =============================================================================
// CALENDAR
// =============================================================================

func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, calendar.Grid(year, month))
}

// =============================================================================
// VACATION - Consuming surface
// =============================================================================

func (h *Handler) GetVacation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, VacationResponse{Data: sess.Selection(), Report: sess.Validation()})
}

func (h *Handler) ToggleVacation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	var req ToggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := sess.Toggle(r.Context(), calendar.DateKey(req.Date))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SubmitVacation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	if err := sess.Submit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Selection())
}

func (h *Handler) ClearVacation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Usage())
}

// =============================================================================
// SCHEDULE AND STATUS
// =============================================================================

func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.boss.SwitchMonth(r.Context(), year, month); err != nil {
		writeError(w, err)
		return
	}
	sd := req.ToScheduleData(calendar.NewMonthKey(year, month))
	if err := h.boss.PublishSchedule(r.Context(), sd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sd)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	sd, found, err := h.schedules.Load(r.Context(), calendar.NewMonthKey(year, month))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no schedule for month", Code: "schedule_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, sd)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return
	}
	key := calendar.NewMonthKey(year, month)

	st, found, err := h.statuses.Load(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		// Reconcile from the authoritative records.
		res, err := h.limits.Resolve(r.Context(), year, month)
		if err != nil {
			writeError(w, err)
			return
		}
		st = policy.PublishStatus{Month: key, CreatedAt: time.Now().UTC()}
		st.VacationPublished = res.State == policy.StatePublished
		if _, schedFound, err := h.schedules.Load(r.Context(), key); err == nil && schedFound {
			st.SchedulePublished = true
		}
	}
	writeJSON(w, http.StatusOK, st)
}

// =============================================================================
// HELPERS
// =============================================================================

func monthParam(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	key := calendar.MonthKey(chi.URLParam(r, "month"))
	year, month, err := key.Parse()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "month must be YYYY-MM", Code: "bad_month"})
		return 0, 0, false
	}
	return year, month, true
}

func (h *Handler) employeeParam(w http.ResponseWriter, r *http.Request) (*session.EmployeeSession, bool) {
	year, month, ok := monthParam(w, r)
	if !ok {
		return nil, false
	}
	sess, err := h.employee(year, month)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed request body", Code: "bad_body"})
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var weekly *policy.WeeklyLimitError
	var monthly *policy.MonthlyLimitError

	switch {
	case errors.As(err, &weekly):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: weekly.Error(), Code: "weekly_limit_reached", Week: &weekly.Week})
	case errors.As(err, &monthly):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: monthly.Error(), Code: "monthly_limit_reached"})
	case errors.Is(err, policy.ErrAlreadySubmitted):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "already_submitted"})
	case errors.Is(err, policy.ErrAwaitingPublication):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "awaiting_publication"})
	case errors.Is(err, policy.ErrMalformedDateKey), errors.Is(err, policy.ErrDateOutsideMonth):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_date"})
	case policy.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "internal"})
	}
}
