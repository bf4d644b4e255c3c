/*
Package notify broadcasts limit-change events between the authoring and
consuming roles.

PURPOSE:
  When the authoring role publishes, updates, deletes, or clears a month's
  policy, every subscriber hears about it through a typed event. The
  notifier persists first, then emits: a subscriber that reacts to an event
  always finds the new state in the store.

CONTRACT:
  - The handler, not the notifier, filters by relevance. Events for every
    month reach every subscriber, so multiple displayed months can coexist;
    each handler matches Event.TargetMonth against the month it currently
    cares about.
  - Delivery is at-least-once, in-process. Events for the same month are
    delivered in publish order (dispatch is serialized); ordering across
    distinct months is not guaranteed relative to each other.
  - Handlers run while the dispatch lock is held and must not call back
    into the notifier synchronously (Publish, Unpublish, AnnounceCleared):
    that would self-deadlock. A handler that needs to emit must do so
    after returning, from its own goroutine or call path.

SEE ALSO:
  - store: the LimitsStore the notifier persists through
  - session: the subscribing controllers
*/
package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/store"
)

// =============================================================================
// EVENT - Typed limit-change payload
// =============================================================================

type Kind string

const (
	KindPublished Kind = "published"
	KindUpdated   Kind = "updated"
	KindDeleted   Kind = "deleted"
	KindCleared   Kind = "cleared"
)

// Event carries enough payload for a subscriber to decide relevance
// without re-fetching.
type Event struct {
	Kind        Kind              `json:"kind"`
	TargetMonth calendar.MonthKey `json:"targetMonth"`
	Type        policy.Type       `json:"vacationType,omitempty"`
	At          time.Time         `json:"timestamp"`
}

// Handler receives every event, regardless of month.
type Handler func(Event)

// =============================================================================
// NOTIFIER - Persist-then-broadcast
// =============================================================================

type Notifier struct {
	limits *store.LimitsStore

	mu       sync.Mutex
	dispatch sync.Mutex // serializes emission so same-key events keep order
	subs     map[int]Handler
	next     int
}

func New(limits *store.LimitsStore) *Notifier {
	return &Notifier{limits: limits, subs: make(map[int]Handler)}
}

// Subscribe registers a handler for every event. The returned function
// removes the subscription.
func (n *Notifier) Subscribe(h Handler) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs[id] = h
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish persists the policy and then emits Published or Updated:
// Published when no published record existed for the month, Updated
// otherwise. On persistence failure nothing is emitted.
func (n *Notifier) Publish(ctx context.Context, l policy.Limits) error {
	existed, err := n.limits.Exists(ctx, l.Year, l.Month)
	if err != nil {
		return err
	}
	if err := n.limits.Save(ctx, l); err != nil {
		return err
	}

	kind := KindPublished
	if existed {
		kind = KindUpdated
	}
	n.emit(Event{Kind: kind, TargetMonth: l.Key(), Type: l.Type, At: time.Now().UTC()})
	return nil
}

// Unpublish deletes the month's policy and emits Deleted.
func (n *Notifier) Unpublish(ctx context.Context, year int, month time.Month) error {
	if err := n.limits.Delete(ctx, year, month); err != nil {
		return err
	}
	n.emit(Event{Kind: KindDeleted, TargetMonth: calendar.NewMonthKey(year, month), At: time.Now().UTC()})
	return nil
}

// AnnounceCleared emits Cleared for a month whose selection data was wiped
// administratively. Nothing is persisted here; the caller already did.
func (n *Notifier) AnnounceCleared(month calendar.MonthKey) {
	n.emit(Event{Kind: KindCleared, TargetMonth: month, At: time.Now().UTC()})
}

func (n *Notifier) emit(evt Event) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids) // deliver in subscription order
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, n.subs[id])
	}
	n.mu.Unlock()

	// Held across the handler calls to keep same-key publish order.
	// Handlers must not re-enter the notifier; see the package contract.
	n.dispatch.Lock()
	defer n.dispatch.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}
