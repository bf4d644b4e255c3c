/*
Package session holds the two role controllers: the authoring (boss) side
that defines and publishes vacation limits, and the consuming (employee)
side that selects dates under them.

Each session is a single logical actor: one mutex serializes user actions
and inbound notifications, so a notification never interleaves with an
in-flight write. Stores are injected; there is no hidden global state.

SEE ALSO:
  - boss.go: publish/unpublish lifecycle and status readback
  - employee.go: effective-policy loading, toggles, submission
  - remote.go: best-effort remote limits source
*/
package session

import (
	"context"
	"sync"
	"time"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/notify"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/store"
)

// =============================================================================
// BOSS SESSION - Authoring-side orchestration
// =============================================================================

// BossState tracks the authoring lifecycle for the displayed month:
// NoPolicy -> Drafted -> Published -> (Unpublished | Republished).
type BossState string

const (
	StateNoPolicy    BossState = "noPolicy"
	StateDrafted     BossState = "drafted"
	StatePublished   BossState = "published"
	StateUnpublished BossState = "unpublished"
	StateRepublished BossState = "republished"
)

type BossSession struct {
	limits    *store.LimitsStore
	status    *store.PublishStatusStore
	schedules *store.ScheduleStore
	notifier  *notify.Notifier

	mu     sync.Mutex
	year   int
	month  time.Month
	state  BossState
	cached policy.PublishStatus
}

func NewBossSession(limits *store.LimitsStore, status *store.PublishStatusStore, schedules *store.ScheduleStore, notifier *notify.Notifier, year int, month time.Month) (*BossSession, error) {
	b := &BossSession{
		limits:    limits,
		status:    status,
		schedules: schedules,
		notifier:  notifier,
	}
	if err := b.SwitchMonth(context.Background(), year, month); err != nil {
		return nil, err
	}
	return b, nil
}

// PublishVacation converts the setting to a published policy, persists it,
// and broadcasts. On failure the session stays in its prior state and the
// error is retryable.
func (b *BossSession) PublishVacation(ctx context.Context, s policy.Setting) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := s.ToLimits()
	if err := b.notifier.Publish(ctx, l); err != nil {
		return err
	}

	if b.state == StatePublished || b.state == StateUnpublished || b.state == StateRepublished {
		b.state = StateRepublished
	} else {
		b.state = StatePublished
	}
	b.cached.VacationPublished = true
	return b.saveStatusLocked(ctx)
}

// Unpublish deletes the displayed month's policy. Consumers observe the
// month as having no policy afterward.
func (b *BossSession) Unpublish(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.notifier.Unpublish(ctx, b.year, b.month); err != nil {
		return err
	}
	b.state = StateUnpublished
	b.cached.VacationPublished = false
	return b.saveStatusLocked(ctx)
}

// PublishSchedule stores the month's schedule data and records it in the
// status readback. Schedule records carry no quota logic and emit no
// limit-change event.
func (b *BossSession) PublishSchedule(ctx context.Context, sd policy.ScheduleData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sd.Month == "" {
		sd.Month = calendar.NewMonthKey(b.year, b.month)
	}
	if err := b.schedules.Save(ctx, sd); err != nil {
		return err
	}
	b.cached.SchedulePublished = true
	return b.saveStatusLocked(ctx)
}

// SwitchMonth changes the displayed month and reloads the publish-status
// readback. Per-month flags from the previous month are discarded.
func (b *BossSession) SwitchMonth(ctx context.Context, year int, month time.Month) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.year, b.month = year, month
	key := calendar.NewMonthKey(year, month)

	res, err := b.limits.Resolve(ctx, year, month)
	if err != nil {
		return err
	}
	switch res.State {
	case policy.StatePublished:
		b.state = StatePublished
	case policy.StateDraft:
		b.state = StateDrafted
	default:
		b.state = StateNoPolicy
	}

	cached, found, err := b.status.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		// Reconcile the readback from the authoritative records.
		cached = policy.PublishStatus{Month: key, CreatedAt: time.Now().UTC()}
		cached.VacationPublished = res.State == policy.StatePublished
		if _, schedFound, err := b.schedules.Load(ctx, key); err == nil && schedFound {
			cached.SchedulePublished = true
		}
	}
	b.cached = cached
	return nil
}

// State returns the lifecycle state for the displayed month.
func (b *BossSession) State() BossState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status returns the publish-status readback for the displayed month.
func (b *BossSession) Status() policy.PublishStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cached
}

// DisplayedMonth returns the month the session is pointed at.
func (b *BossSession) DisplayedMonth() calendar.MonthKey {
	b.mu.Lock()
	defer b.mu.Unlock()
	return calendar.NewMonthKey(b.year, b.month)
}

func (b *BossSession) saveStatusLocked(ctx context.Context) error {
	b.cached.Month = calendar.NewMonthKey(b.year, b.month)
	return b.status.Save(ctx, b.cached)
}
