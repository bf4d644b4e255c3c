package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/session"
	"github.com/warp/vacation-planner/store"
)

// =============================================================================
// REMOTE STUBS
// =============================================================================

// fixedRemote answers every fetch with a copy of one policy.
type fixedRemote struct {
	limits policy.Limits
}

func (r *fixedRemote) FetchLimits(_ context.Context, year int, month time.Month) (*policy.Limits, error) {
	l := r.limits
	l.Year, l.Month = year, month
	return &l, nil
}

type erroringRemote struct{}

func (erroringRemote) FetchLimits(context.Context, int, time.Month) (*policy.Limits, error) {
	return nil, errors.New("network unreachable")
}

type panickingRemote struct{}

func (panickingRemote) FetchLimits(context.Context, int, time.Month) (*policy.Limits, error) {
	panic("remote client bug")
}

// gatedRemote blocks August fetches until released, so a fetch can be made
// to outlive a month switch. Other months answer immediately.
type gatedRemote struct {
	mu      sync.Mutex
	gate    chan struct{} // nil: August answers immediately too
	monthly map[time.Month]int
}

func (r *gatedRemote) FetchLimits(_ context.Context, year int, month time.Month) (*policy.Limits, error) {
	r.mu.Lock()
	gate := r.gate
	days := r.monthly[month]
	r.mu.Unlock()

	if month == time.August && gate != nil {
		<-gate
	}
	return &policy.Limits{
		Year:         year,
		Month:        month,
		MonthlyLimit: policy.IntPtr(days),
		Type:         policy.TypeMonthly,
		Published:    true,
	}, nil
}

func (f *fixture) employee(t *testing.T, remote session.Remote, year int, month time.Month) *session.EmployeeSession {
	t.Helper()
	e, err := session.NewEmployeeSession(f.limits, f.vacations, remote, f.notifier, year, month)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// =============================================================================
// EFFECTIVE POLICY LOADING
// =============================================================================

func TestEmployee_NoRecordsFallsBackToDefault(t *testing.T) {
	f := newFixture(store.NewMemory())
	e := f.employee(t, nil, 2025, time.August)

	l, mode := e.EffectivePolicy()
	assert.False(t, l.Published)
	assert.Equal(t, policy.DefaultMonthlyLimit, *l.MonthlyLimit)
	assert.Equal(t, policy.DefaultWeeklyLimit, *l.WeeklyLimit)
	assert.Equal(t, policy.ModeMonthlyWithWeekly, mode)
}

func TestEmployee_RemotePreferredOverLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 10).ToLimits()))

	remote := &fixedRemote{limits: policy.Limits{
		MonthlyLimit: policy.IntPtr(3),
		Type:         policy.TypeMonthly,
		Published:    true,
	}}
	e := f.employee(t, remote, 2025, time.August)

	l, _ := e.EffectivePolicy()
	assert.Equal(t, 3, *l.MonthlyLimit, "remote answer wins over the local record")
}

func TestEmployee_RemoteFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 10).ToLimits()))

	for name, remote := range map[string]session.Remote{
		"error": erroringRemote{},
		"panic": panickingRemote{},
	} {
		t.Run(name, func(t *testing.T) {
			e := f.employee(t, remote, 2025, time.August)
			l, _ := e.EffectivePolicy()
			assert.Equal(t, 10, *l.MonthlyLimit)
			assert.True(t, l.Published)
		})
	}
}

func TestEmployee_StaleFetchDroppedAfterMonthSwitch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())

	remote := &gatedRemote{monthly: map[time.Month]int{time.August: 4, time.September: 9}}
	e := f.employee(t, remote, 2025, time.August) // construction fetch runs ungated

	remote.mu.Lock()
	remote.gate = make(chan struct{})
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.LoadEffectivePolicy(ctx) }() // blocks on the August gate

	require.NoError(t, e.SwitchMonth(ctx, 2025, time.September))
	l, _ := e.EffectivePolicy()
	require.Equal(t, 9, *l.MonthlyLimit)

	close(remote.gate)
	require.NoError(t, <-done)

	// The late August answer must not clobber September's policy.
	l, _ = e.EffectivePolicy()
	assert.Equal(t, 9, *l.MonthlyLimit)
	assert.Equal(t, time.September, l.Month)
}

// =============================================================================
// EDIT LIFECYCLE
// =============================================================================

func TestEmployee_RequestEditGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	e := f.employee(t, nil, 2025, time.August)

	err := e.RequestEdit(ctx)
	assert.ErrorIs(t, err, policy.ErrAwaitingPublication, "nothing published yet")

	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))
	require.NoError(t, e.LoadEffectivePolicy(ctx))
	require.NoError(t, e.RequestEdit(ctx))

	_, err = e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)
	require.NoError(t, e.Submit(ctx))

	err = e.RequestEdit(ctx)
	assert.ErrorIs(t, err, policy.ErrAlreadySubmitted)
}

func TestEmployee_MutationsLockedUntilPublication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	e := f.employee(t, nil, 2025, time.August)

	// Nothing published: the default policy is loaded for display, but
	// its caps never unlock selection.
	_, err := e.Toggle(ctx, "2025-08-04")
	assert.ErrorIs(t, err, policy.ErrAwaitingPublication)
	assert.ErrorIs(t, e.Submit(ctx), policy.ErrAwaitingPublication)
	assert.Zero(t, e.Selection().Selected.Len())
	assert.False(t, e.Selection().Submitted)

	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))
	require.NoError(t, e.LoadEffectivePolicy(ctx))
	_, err = e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)

	// Withdrawing the policy re-locks the month through the delete event.
	require.NoError(t, f.notifier.Unpublish(ctx, 2025, time.August))
	_, err = e.Toggle(ctx, "2025-08-05")
	assert.ErrorIs(t, err, policy.ErrAwaitingPublication)
	assert.ErrorIs(t, e.Submit(ctx), policy.ErrAwaitingPublication)
	assert.Equal(t, []calendar.DateKey{"2025-08-04"}, e.Selection().Selected.Sorted(),
		"re-locking must not drop existing picks")
}

func TestEmployee_TogglePersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	f := newFixture(kv)
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	e := f.employee(t, nil, 2025, time.August)
	_, err := e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)
	_, err = e.Toggle(ctx, "2025-08-05")
	require.NoError(t, err)

	// A fresh session over the same store sees the saved selection.
	again := f.employee(t, nil, 2025, time.August)
	sel := again.Selection()
	assert.Equal(t, []calendar.DateKey{"2025-08-04", "2025-08-05"}, sel.Selected.Sorted())
}

func TestEmployee_FailedSaveLeavesSelectionUnchanged(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyKV{KV: store.NewMemory()}
	f := newFixture(flaky)
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	e := f.employee(t, nil, 2025, time.August)
	_, err := e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)

	flaky.failSets = true
	_, err = e.Toggle(ctx, "2025-08-05")
	require.Error(t, err)
	assert.True(t, policy.IsRetryable(err))
	assert.Equal(t, []calendar.DateKey{"2025-08-04"}, e.Selection().Selected.Sorted(),
		"failed persist must not half-apply the toggle")

	err = e.Submit(ctx)
	require.Error(t, err)
	assert.False(t, e.Selection().Submitted)

	flaky.failSets = false
	_, err = e.Toggle(ctx, "2025-08-05")
	require.NoError(t, err)
	require.NoError(t, e.Submit(ctx))
	assert.True(t, e.Selection().Submitted)
}

func TestEmployee_ClearAllowedAfterSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	e := f.employee(t, nil, 2025, time.August)
	_, err := e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)
	require.NoError(t, e.Submit(ctx))

	require.NoError(t, e.Clear(ctx))
	sel := e.Selection()
	assert.Zero(t, sel.Selected.Len())
	assert.False(t, sel.Submitted)

	// The month is editable again.
	require.NoError(t, e.RequestEdit(ctx))
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestEmployee_ForeignMonthEventIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	e := f.employee(t, nil, 2025, time.August)
	_, err := e.Toggle(ctx, "2025-08-04")
	require.NoError(t, err)
	before, _ := e.EffectivePolicy()

	// A September publish must not disturb an August session.
	b := f.boss(t, 2025, time.September)
	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.September, 1)))

	after, _ := e.EffectivePolicy()
	assert.Equal(t, before, after)
	assert.True(t, e.Validation().Valid)
	assert.Equal(t, []calendar.DateKey{"2025-08-04"}, e.Selection().Selected.Sorted())
}

func TestEmployee_MatchingMonthEventReloadsAndRevalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	e := f.employee(t, nil, 2025, time.August)
	// Two dates in one week, one in the next: valid under monthly 5 /
	// weekly 2, over a monthly cap of 2.
	for _, d := range []calendar.DateKey{"2025-08-04", "2025-08-05", "2025-08-11"} {
		_, err := e.Toggle(ctx, d)
		require.NoError(t, err)
	}
	require.True(t, e.Validation().Valid)

	b := f.boss(t, 2025, time.August)
	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 2)))

	l, _ := e.EffectivePolicy()
	assert.Equal(t, 2, *l.MonthlyLimit, "tightened policy picked up from the event")

	rep := e.Validation()
	assert.False(t, rep.Valid)
	assert.True(t, rep.MonthlyExceeded)
	assert.Equal(t, []calendar.DateKey{"2025-08-04", "2025-08-05", "2025-08-11"},
		e.Selection().Selected.Sorted(), "existing picks survive a tightened policy")
}

func TestEmployee_DeleteEventRevertsToDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())

	b := f.boss(t, 2025, time.August)
	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 5)))

	e := f.employee(t, nil, 2025, time.August)
	require.NoError(t, e.RequestEdit(ctx))

	require.NoError(t, b.Unpublish(ctx))

	l, _ := e.EffectivePolicy()
	assert.False(t, l.Published)
	assert.Equal(t, policy.DefaultMonthlyLimit, *l.MonthlyLimit)
	assert.ErrorIs(t, e.RequestEdit(ctx), policy.ErrAwaitingPublication)
}
