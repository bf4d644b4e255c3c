package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-planner/notify"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/store"
)

func setup() (*notify.Notifier, *store.LimitsStore) {
	limits := store.NewLimitsStore(store.NewMemory())
	return notify.New(limits), limits
}

func augustSetting(days int) policy.Setting {
	return policy.Setting{Type: policy.TypeMonthly, AllowedDays: days, Year: 2025, Month: time.August}
}

func TestPublish_FirstIsPublishedThenUpdated(t *testing.T) {
	ctx := context.Background()
	n, _ := setup()

	var events []notify.Event
	unsub := n.Subscribe(func(e notify.Event) { events = append(events, e) })
	defer unsub()

	require.NoError(t, n.Publish(ctx, augustSetting(5).ToLimits()))
	require.NoError(t, n.Publish(ctx, augustSetting(6).ToLimits()))

	require.Len(t, events, 2)
	assert.Equal(t, notify.KindPublished, events[0].Kind)
	assert.Equal(t, notify.KindUpdated, events[1].Kind)
	for _, e := range events {
		assert.Equal(t, "2025-08", string(e.TargetMonth))
		assert.Equal(t, policy.TypeMonthly, e.Type)
		assert.False(t, e.At.IsZero())
	}
}

func TestPublish_PersistsBeforeEmitting(t *testing.T) {
	// A subscriber reacting to the event must already see the new record.
	ctx := context.Background()
	n, limits := setup()

	var seen *int
	unsub := n.Subscribe(func(e notify.Event) {
		l, err := limits.Get(ctx, 2025, time.August)
		require.NoError(t, err)
		seen = l.MonthlyLimit
	})
	defer unsub()

	require.NoError(t, n.Publish(ctx, augustSetting(7).ToLimits()))
	require.NotNil(t, seen)
	assert.Equal(t, 7, *seen)
}

func TestUnpublish_DeletesAndEmitsDeleted(t *testing.T) {
	ctx := context.Background()
	n, limits := setup()
	require.NoError(t, n.Publish(ctx, augustSetting(5).ToLimits()))

	var events []notify.Event
	unsub := n.Subscribe(func(e notify.Event) { events = append(events, e) })
	defer unsub()

	require.NoError(t, n.Unpublish(ctx, 2025, time.August))

	exists, err := limits.Exists(ctx, 2025, time.August)
	require.NoError(t, err)
	assert.False(t, exists)

	require.Len(t, events, 1)
	assert.Equal(t, notify.KindDeleted, events[0].Kind)
	assert.Equal(t, "2025-08", string(events[0].TargetMonth))
}

func TestSubscribe_EveryHandlerHearsEveryMonth(t *testing.T) {
	// The notifier never filters by month; relevance is the handler's job.
	ctx := context.Background()
	n, _ := setup()

	var august, september int
	unsubA := n.Subscribe(func(e notify.Event) {
		if e.TargetMonth == "2025-08" {
			august++
		}
	})
	defer unsubA()
	unsubB := n.Subscribe(func(e notify.Event) {
		if e.TargetMonth == "2025-09" {
			september++
		}
	})
	defer unsubB()

	require.NoError(t, n.Publish(ctx, augustSetting(5).ToLimits()))
	sept := policy.Setting{Type: policy.TypeWeekly, AllowedDays: 2, Year: 2025, Month: time.September}
	require.NoError(t, n.Publish(ctx, sept.ToLimits()))

	assert.Equal(t, 1, august)
	assert.Equal(t, 1, september)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	n, _ := setup()

	count := 0
	unsub := n.Subscribe(func(notify.Event) { count++ })
	require.NoError(t, n.Publish(ctx, augustSetting(5).ToLimits()))
	unsub()
	require.NoError(t, n.Publish(ctx, augustSetting(6).ToLimits()))

	assert.Equal(t, 1, count)
}

func TestSameMonthEventsArriveInPublishOrder(t *testing.T) {
	ctx := context.Background()
	n, _ := setup()

	var kinds []notify.Kind
	unsub := n.Subscribe(func(e notify.Event) { kinds = append(kinds, e.Kind) })
	defer unsub()

	require.NoError(t, n.Publish(ctx, augustSetting(5).ToLimits()))
	require.NoError(t, n.Publish(ctx, augustSetting(6).ToLimits()))
	require.NoError(t, n.Unpublish(ctx, 2025, time.August))
	require.NoError(t, n.Publish(ctx, augustSetting(7).ToLimits()))
	n.AnnounceCleared("2025-08")

	assert.Equal(t, []notify.Kind{
		notify.KindPublished,
		notify.KindUpdated,
		notify.KindDeleted,
		notify.KindPublished, // republish after delete starts over
		notify.KindCleared,
	}, kinds)
}
