/*
employee.go - Consuming-side orchestration

PURPOSE:
  Loads the effective policy for the displayed month (remote-preferred,
  local fallback), applies the quota engine to date toggles, tracks
  submission, and reacts to publish notifications scoped to the displayed
  month.

STALENESS:
  Remote fetches and notifications are guarded by the month they were
  issued for. Results are applied only when that month is still the
  displayed month; switching months while a fetch is outstanding drops the
  stale result instead of applying it.

STATE SAFETY:
  Mutations run on a clone of the in-memory record and are persisted before
  the clone replaces it, so a failed save leaves both the stored and the
  in-memory state unchanged.
*/
package session

import (
	"context"
	"sync"
	"time"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/notify"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/quota"
	"github.com/warp/vacation-planner/store"
)

// Remote is the optional authoritative cross-device limits source.
// Implementations return (nil, nil) on a miss and must not panic; any
// error sends the caller to the local store fallback.
type Remote interface {
	FetchLimits(ctx context.Context, year int, month time.Month) (*policy.Limits, error)
}

// =============================================================================
// EMPLOYEE SESSION
// =============================================================================

type EmployeeSession struct {
	limits   *store.LimitsStore
	data     *store.VacationDataStore
	remote   Remote // may be nil
	notifier *notify.Notifier
	engine   quota.Engine

	mu        sync.Mutex
	year      int
	month     time.Month
	effective policy.Limits
	mode      policy.Mode
	vac       quota.Data
	report    quota.Report
	unsub     func()
}

// NewEmployeeSession loads the month's selection and effective policy and
// subscribes to limit-change events. Call Close when done.
func NewEmployeeSession(limits *store.LimitsStore, data *store.VacationDataStore, remote Remote, notifier *notify.Notifier, year int, month time.Month) (*EmployeeSession, error) {
	e := &EmployeeSession{
		limits:   limits,
		data:     data,
		remote:   remote,
		notifier: notifier,
		report:   quota.Report{Valid: true},
	}
	if err := e.SwitchMonth(context.Background(), year, month); err != nil {
		return nil, err
	}
	if notifier != nil {
		e.unsub = notifier.Subscribe(e.onEvent)
	}
	return e, nil
}

// Close removes the notification subscription.
func (e *EmployeeSession) Close() {
	if e.unsub != nil {
		e.unsub()
	}
}

// =============================================================================
// EFFECTIVE POLICY
// =============================================================================

// LoadEffectivePolicy fetches the displayed month's policy, preferring the
// remote source and falling back to the local store on miss or error. The
// result is applied only if the fetched month is still displayed.
func (e *EmployeeSession) LoadEffectivePolicy(ctx context.Context) error {
	e.mu.Lock()
	year, month := e.year, e.month
	e.mu.Unlock()

	l := e.fetchRemote(ctx, year, month)
	if l == nil {
		local, err := e.limits.Get(ctx, year, month)
		if err != nil {
			return err
		}
		l = &local
	}
	e.apply(calendar.NewMonthKey(year, month), *l)
	return nil
}

// fetchRemote is best-effort: a miss, an error, or a panicking
// implementation all resolve to nil and the local fallback.
func (e *EmployeeSession) fetchRemote(ctx context.Context, year int, month time.Month) (l *policy.Limits) {
	if e.remote == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			l = nil
		}
	}()
	fetched, err := e.remote.FetchLimits(ctx, year, month)
	if err != nil {
		return nil
	}
	return fetched
}

// apply installs a fetched policy, dropping it when the target month is no
// longer displayed (stale fetch guard).
func (e *EmployeeSession) apply(target calendar.MonthKey, l policy.Limits) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if target != calendar.NewMonthKey(e.year, e.month) {
		return // stale result, displayed month moved on
	}
	e.effective = l
	e.mode = l.Mode()
	e.report = e.engine.Validate(e.vac, e.effective)
}

// EffectivePolicy returns the policy currently governing the displayed
// month and the derived selection mode.
func (e *EmployeeSession) EffectivePolicy() (policy.Limits, policy.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effective, e.mode
}

// =============================================================================
// EDIT LIFECYCLE
// =============================================================================

// RequestEdit gates entry into edit mode: rejected once submitted, and
// rejected while no published policy exists for the month. The same gate
// is enforced again on every mutation.
func (e *EmployeeSession) RequestEdit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.vac.Submitted {
		return policy.ErrAlreadySubmitted
	}
	published, err := e.limits.Exists(ctx, e.year, e.month)
	if err != nil {
		return err
	}
	if !published {
		return policy.ErrAwaitingPublication
	}
	return nil
}

// editableLocked enforces the publication gate on mutations: an
// unpublished policy never unlocks selection, even though its default
// numbers are loaded for display.
func (e *EmployeeSession) editableLocked() error {
	if e.vac.Submitted {
		return policy.ErrAlreadySubmitted
	}
	if !e.effective.Published {
		return policy.ErrAwaitingPublication
	}
	return nil
}

// Toggle flips a date's membership and persists the result. A failed
// persist leaves the in-memory selection unchanged.
func (e *EmployeeSession) Toggle(ctx context.Context, date calendar.DateKey) (quota.ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editableLocked(); err != nil {
		return quota.ToggleResult{}, err
	}
	next := e.vac.Clone()
	res, err := e.engine.Toggle(date, &next, e.effective)
	if err != nil {
		return quota.ToggleResult{}, err
	}
	if err := e.data.Save(ctx, next); err != nil {
		return quota.ToggleResult{}, err
	}
	e.vac = next
	e.report = e.engine.Validate(e.vac, e.effective)
	return res, nil
}

// Submit freezes the month's selection after the post-hoc weekly check.
func (e *EmployeeSession) Submit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editableLocked(); err != nil {
		return err
	}
	next := e.vac.Clone()
	if err := e.engine.Submit(&next, e.effective); err != nil {
		return err
	}
	if err := e.data.Save(ctx, next); err != nil {
		return err
	}
	e.vac = next
	return nil
}

// Clear wipes the month's selection unconditionally, submitted or not.
// Administrative escape hatch; broadcasts Cleared.
func (e *EmployeeSession) Clear(ctx context.Context) error {
	e.mu.Lock()
	month := calendar.NewMonthKey(e.year, e.month)
	if err := e.data.Clear(ctx, month); err != nil {
		e.mu.Unlock()
		return err
	}
	e.vac = quota.NewData(month)
	e.report = quota.Report{Valid: true}
	e.mu.Unlock()

	// Emit outside the lock; our own subscription hears this too.
	if e.notifier != nil {
		e.notifier.AnnounceCleared(month)
	}
	return nil
}

// SwitchMonth changes the displayed month, reloading selection data and
// the effective policy. Any outstanding fetch for the previous month will
// be dropped by the apply guard.
func (e *EmployeeSession) SwitchMonth(ctx context.Context, year int, month time.Month) error {
	key := calendar.NewMonthKey(year, month)

	vac, err := e.data.Load(ctx, key)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.year, e.month = year, month
	e.vac = vac
	e.report = quota.Report{Valid: true}
	e.mu.Unlock()

	return e.LoadEffectivePolicy(ctx)
}

// =============================================================================
// READBACK
// =============================================================================

// Selection returns a copy of the month's selection record.
func (e *EmployeeSession) Selection() quota.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vac.Clone()
}

// Validation returns the latest consistency report for the selection
// against the effective policy.
func (e *EmployeeSession) Validation() quota.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// Usage returns the quota utilization summary for the displayed month.
func (e *EmployeeSession) Usage() quota.Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Usage(e.vac, e.effective)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// onEvent reacts to limit-change broadcasts. Events for other months are
// ignored for selection purposes; events for the displayed month reload
// the effective policy and re-validate the existing selection.
func (e *EmployeeSession) onEvent(evt notify.Event) {
	e.mu.Lock()
	current := calendar.NewMonthKey(e.year, e.month)
	e.mu.Unlock()

	if evt.TargetMonth != current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	year, month, err := current.Parse()
	if err != nil {
		return
	}

	switch evt.Kind {
	case notify.KindDeleted:
		// Policy withdrawn: fall back to the unpublished default.
		e.apply(current, policy.Default(year, month))
	case notify.KindCleared:
		// Another session wiped the month's selection; pick up the
		// empty record.
		vac, err := e.data.Load(ctx, current)
		if err != nil {
			return
		}
		e.mu.Lock()
		if calendar.NewMonthKey(e.year, e.month) == current {
			e.vac = vac
			e.report = e.engine.Validate(e.vac, e.effective)
		}
		e.mu.Unlock()
	default:
		// The notifier persisted before emitting, so the local store
		// already holds the policy this event announces; no remote
		// round-trip needed.
		local, err := e.limits.Get(ctx, year, month)
		if err != nil {
			return // retryable; keep the cached policy
		}
		e.apply(current, local)
	}
}
