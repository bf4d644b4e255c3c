package store

import (
	"context"
	"time"

	"github.com/warp/vacation-planner/calendar"
	"github.com/warp/vacation-planner/policy"
	"github.com/warp/vacation-planner/quota"
)

// =============================================================================
// VACATION DATA STORE - The consuming role's per-month selections
// =============================================================================

type VacationDataStore struct {
	kv KV
}

func NewVacationDataStore(kv KV) *VacationDataStore {
	return &VacationDataStore{kv: kv}
}

// Load returns the month's selection record; an empty record on first
// access. The empty record is not persisted until the first mutation.
func (s *VacationDataStore) Load(ctx context.Context, month calendar.MonthKey) (quota.Data, error) {
	var d quota.Data
	ok, err := getRecord(ctx, s.kv, VacationDataKey(month), &d)
	if err != nil {
		return quota.NewData(month), err
	}
	if !ok {
		return quota.NewData(month), nil
	}
	if d.Selected == nil {
		d.Selected = calendar.NewDateSet()
	}
	return d, nil
}

func (s *VacationDataStore) Save(ctx context.Context, d quota.Data) error {
	return putRecord(ctx, s.kv, VacationDataKey(d.Month), &d)
}

// Clear wipes the month's record. Administrative escape hatch; permitted
// even after submission.
func (s *VacationDataStore) Clear(ctx context.Context, month calendar.MonthKey) error {
	return removeRecord(ctx, s.kv, VacationDataKey(month))
}

// =============================================================================
// PUBLISH STATUS STORE - Authoring-role readback cache
// =============================================================================

type PublishStatusStore struct {
	kv KV
}

func NewPublishStatusStore(kv KV) *PublishStatusStore {
	return &PublishStatusStore{kv: kv}
}

// Load returns the cached status and whether it was present. Absent status
// is reconciled by the caller from the limits store.
func (s *PublishStatusStore) Load(ctx context.Context, month calendar.MonthKey) (policy.PublishStatus, bool, error) {
	var st policy.PublishStatus
	ok, err := getRecord(ctx, s.kv, PublishStatusKey(month), &st)
	if err != nil || !ok {
		return policy.PublishStatus{Month: month}, false, err
	}
	return st, true, nil
}

func (s *PublishStatusStore) Save(ctx context.Context, st policy.PublishStatus) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	return putRecord(ctx, s.kv, PublishStatusKey(st.Month), &st)
}

// =============================================================================
// SCHEDULE STORE - Work-schedule companion records
// =============================================================================

type ScheduleStore struct {
	kv KV
}

func NewScheduleStore(kv KV) *ScheduleStore {
	return &ScheduleStore{kv: kv}
}

func (s *ScheduleStore) Load(ctx context.Context, month calendar.MonthKey) (policy.ScheduleData, bool, error) {
	var sd policy.ScheduleData
	ok, err := getRecord(ctx, s.kv, ScheduleDataKey(month), &sd)
	if err != nil || !ok {
		return policy.ScheduleData{Month: month, SelectedDates: calendar.NewDateSet()}, false, err
	}
	if sd.SelectedDates == nil {
		sd.SelectedDates = calendar.NewDateSet()
	}
	return sd, true, nil
}

func (s *ScheduleStore) Save(ctx context.Context, sd policy.ScheduleData) error {
	return putRecord(ctx, s.kv, ScheduleDataKey(sd.Month), &sd)
}

func (s *ScheduleStore) Delete(ctx context.Context, month calendar.MonthKey) error {
	return removeRecord(ctx, s.kv, ScheduleDataKey(month))
}
