/*
Package store provides keyed persistence for the planning engine's records.

PURPOSE:
  Everything the engine persists - limits policies, vacation selections,
  publish-status readback, schedule data - is a small serialized record
  under a well-known string key. The KV interface is the abstract
  persistence collaborator; typed stores layer record semantics (defaults,
  published-only filtering, three-state resolution) on top of it.

KEY LAYOUT:
  VacationLimits_{year}_{month}   limits policy records
  VacationData_{YYYY-MM}          consuming-role selections
  BossPublishStatus_{YYYY-MM}     authoring-role readback cache
  ScheduleData_{YYYY-MM}          work-schedule records

SERIALIZATION:
  Records are encoded with goccy/go-json. Optional caps round-trip as
  absent fields, and date sets as sorted arrays, so every stored record
  decodes back to an equal value.

IMPLEMENTATIONS:
  - memory.go: in-memory KV for tests and the local cache
  - sqlite:    durable KV on SQLite (WAL mode, ":memory:" supported)

SEE ALSO:
  - limits.go: LimitsStore semantics (defaults, exists, resolution)
  - records.go: vacation data / publish status / schedule stores
*/
package store

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
)

// =============================================================================
// KV - Abstract persistence collaborator
// =============================================================================

// KV is the abstract key-value store the engine persists into.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns all stored keys, in no particular order.
	Keys(ctx context.Context) ([]string, error)
}

// Key builders. The limits key carries the raw numeric month; the
// per-month record keys carry the zero-padded "YYYY-MM" month key.

func LimitsKey(year int, month time.Month) string {
	return fmt.Sprintf("VacationLimits_%d_%d", year, int(month))
}

func VacationDataKey(month calendar.MonthKey) string {
	return "VacationData_" + string(month)
}

func PublishStatusKey(month calendar.MonthKey) string {
	return "BossPublishStatus_" + string(month)
}

func ScheduleDataKey(month calendar.MonthKey) string {
	return "ScheduleData_" + string(month)
}

// =============================================================================
// RECORD CODEC - Shared by the typed stores
// =============================================================================

func putRecord(ctx context.Context, kv KV, key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return &policy.PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return &policy.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func getRecord(ctx context.Context, kv KV, key string, record any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, &policy.PersistenceError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return false, &policy.PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

func removeRecord(ctx context.Context, kv KV, key string) error {
	if err := kv.Remove(ctx, key); err != nil {
		return &policy.PersistenceError{Op: "remove", Key: key, Err: err}
	}
	return nil
}
