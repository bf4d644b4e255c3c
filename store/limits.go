package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/warp/vacation-planner/policy"
)

// =============================================================================
// LIMITS STORE - Keyed persistence of vacation limits policies
// =============================================================================

// LimitsStore persists one policy.Limits record per (year, month).
// Last write wins; there is no versioning.
type LimitsStore struct {
	kv KV
}

func NewLimitsStore(kv KV) *LimitsStore {
	return &LimitsStore{kv: kv}
}

// Save writes the record under its (year, month) key, overwriting any
// prior record. Fails only with a PersistenceError.
func (s *LimitsStore) Save(ctx context.Context, l policy.Limits) error {
	return putRecord(ctx, s.kv, LimitsKey(l.Year, l.Month), &l)
}

// Get returns the stored record for the month, or the default unpublished
// fallback when none is stored. Callers must check Published before
// treating the numbers as authoritative.
func (s *LimitsStore) Get(ctx context.Context, year int, month time.Month) (policy.Limits, error) {
	var l policy.Limits
	ok, err := getRecord(ctx, s.kv, LimitsKey(year, month), &l)
	if err != nil {
		return policy.Default(year, month), err
	}
	if !ok {
		return policy.Default(year, month), nil
	}
	return l, nil
}

// Resolve distinguishes a published policy from an unpublished draft and
// from no record at all.
func (s *LimitsStore) Resolve(ctx context.Context, year int, month time.Month) (policy.Resolution, error) {
	var l policy.Limits
	ok, err := getRecord(ctx, s.kv, LimitsKey(year, month), &l)
	if err != nil {
		return policy.Resolution{State: policy.StateNone, Limits: policy.Default(year, month)}, err
	}
	switch {
	case !ok:
		return policy.Resolution{State: policy.StateNone, Limits: policy.Default(year, month)}, nil
	case l.Published:
		return policy.Resolution{State: policy.StatePublished, Limits: l}, nil
	default:
		return policy.Resolution{State: policy.StateDraft, Limits: l}, nil
	}
}

// Exists reports whether a record is stored AND published. An unpublished
// draft is treated as absent.
func (s *LimitsStore) Exists(ctx context.Context, year int, month time.Month) (bool, error) {
	res, err := s.Resolve(ctx, year, month)
	if err != nil {
		return false, err
	}
	return res.State == policy.StatePublished, nil
}

// Delete removes the record for the month. Succeeds when the key is gone
// afterward, including when it was never there.
func (s *LimitsStore) Delete(ctx context.Context, year int, month time.Month) error {
	return removeRecord(ctx, s.kv, LimitsKey(year, month))
}

// ListPublished returns all published records sorted by (year, month)
// ascending. Drafts are filtered out.
func (s *LimitsStore) ListPublished(ctx context.Context) ([]policy.Limits, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, &policy.PersistenceError{Op: "keys", Key: "VacationLimits_*", Err: err}
	}

	var out []policy.Limits
	for _, key := range keys {
		if !strings.HasPrefix(key, "VacationLimits_") {
			continue
		}
		var l policy.Limits
		ok, err := getRecord(ctx, s.kv, key, &l)
		if err != nil {
			return nil, err
		}
		if ok && l.Published {
			out = append(out, l)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
