package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-planner/notify"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/session"
	"github.com/warp/vacation-planner/store"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

type fixture struct {
	kv        store.KV
	limits    *store.LimitsStore
	vacations *store.VacationDataStore
	statuses  *store.PublishStatusStore
	schedules *store.ScheduleStore
	notifier  *notify.Notifier
}

func newFixture(kv store.KV) *fixture {
	f := &fixture{
		kv:        kv,
		limits:    store.NewLimitsStore(kv),
		vacations: store.NewVacationDataStore(kv),
		statuses:  store.NewPublishStatusStore(kv),
		schedules: store.NewScheduleStore(kv),
	}
	f.notifier = notify.New(f.limits)
	return f
}

func (f *fixture) boss(t *testing.T, year int, month time.Month) *session.BossSession {
	t.Helper()
	b, err := session.NewBossSession(f.limits, f.statuses, f.schedules, f.notifier, year, month)
	require.NoError(t, err)
	return b
}

func monthlySetting(year int, month time.Month, days int) policy.Setting {
	return policy.Setting{Type: policy.TypeMonthly, AllowedDays: days, Year: year, Month: month}
}

// flakyKV wraps a KV and fails writes on demand, for no-partial-apply
// checks.
type flakyKV struct {
	store.KV
	failSets bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSets {
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, key, value)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestBoss_PublishLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	b := f.boss(t, 2025, time.August)

	assert.Equal(t, session.StateNoPolicy, b.State())

	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 5)))
	assert.Equal(t, session.StatePublished, b.State())
	assert.True(t, b.Status().VacationPublished)

	exists, err := f.limits.Exists(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Unpublish(ctx))
	assert.Equal(t, session.StateUnpublished, b.State())
	assert.False(t, b.Status().VacationPublished)

	exists, err = f.limits.Exists(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.False(t, exists, "unpublished month must read as absent for consumers")

	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 6)))
	assert.Equal(t, session.StateRepublished, b.State())
}

func TestBoss_InitialStateFromStoredRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())

	require.NoError(t, f.limits.Save(ctx, policy.Default(2025, time.August))) // draft
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.September, 5).ToLimits()))

	assert.Equal(t, session.StateDrafted, f.boss(t, 2025, time.August).State())
	assert.Equal(t, session.StatePublished, f.boss(t, 2025, time.September).State())
	assert.Equal(t, session.StateNoPolicy, f.boss(t, 2025, time.October).State())
}

func TestBoss_SwitchMonthDiscardsStaleFlags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	b := f.boss(t, 2025, time.August)

	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 5)))
	require.True(t, b.Status().VacationPublished)

	// Switching to an untouched month must not retain August's flags.
	require.NoError(t, b.SwitchMonth(ctx, 2025, time.September))
	assert.Equal(t, session.StateNoPolicy, b.State())
	assert.False(t, b.Status().VacationPublished)
	assert.Equal(t, "2025-09", string(b.Status().Month))

	// Switching back reloads August's persisted readback.
	require.NoError(t, b.SwitchMonth(ctx, 2025, time.August))
	assert.Equal(t, session.StatePublished, b.State())
	assert.True(t, b.Status().VacationPublished)
}

func TestBoss_StatusReconciledFromLimitsWhenCacheAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())

	// A published record exists but no readback cache was ever written.
	require.NoError(t, f.limits.Save(ctx, monthlySetting(2025, time.August, 5).ToLimits()))

	b := f.boss(t, 2025, time.August)
	assert.True(t, b.Status().VacationPublished, "readback must be rebuilt from Limits.Published")
}

func TestBoss_PublishFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyKV{KV: store.NewMemory()}
	f := newFixture(flaky)
	b := f.boss(t, 2025, time.August)

	flaky.failSets = true
	err := b.PublishVacation(ctx, monthlySetting(2025, time.August, 5))
	require.Error(t, err)
	assert.True(t, policy.IsRetryable(err))
	assert.Equal(t, session.StateNoPolicy, b.State(), "failed publish must not transition")

	exists, lookupErr := f.limits.Exists(ctx, 2025, time.August)
	require.NoError(t, lookupErr)
	assert.False(t, exists)

	// Retry succeeds once the store recovers.
	flaky.failSets = false
	require.NoError(t, b.PublishVacation(ctx, monthlySetting(2025, time.August, 5)))
	assert.Equal(t, session.StatePublished, b.State())
}

func TestBoss_PublishScheduleMarksStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(store.NewMemory())
	b := f.boss(t, 2025, time.August)

	sd := policy.ScheduleData{Mode: policy.ScheduleAuto, Month: "2025-08"}
	require.NoError(t, b.PublishSchedule(ctx, sd))

	assert.True(t, b.Status().SchedulePublished)
	assert.False(t, b.Status().VacationPublished, "schedule publish must not claim vacation")

	_, found, err := f.schedules.Load(ctx, "2025-08")
	require.NoError(t, err)
	assert.True(t, found)
}
