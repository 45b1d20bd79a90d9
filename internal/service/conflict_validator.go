package service

import (
	"context"
	"fmt"

	"github.com/campus-sync/timetable-api/internal/models"
)

type persistedConflictFinder interface {
	FindConfirmedConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error)
}

// SlotKey identifies one (entity, day, block) occupancy fact.
type SlotKey struct {
	EntityID string
	Day      int
	BlockID  string
}

// ConflictValidator is the single source of truth for slot occupancy during a
// generation run. It checks two tiers: the persisted store of the period and
// the assignments staged earlier in the same run. Not safe for concurrent
// runs over the same period.
type ConflictValidator struct {
	store    persistedConflictFinder
	periodID string

	teacherSlots map[SlotKey]struct{}
	roomSlots    map[SlotKey]struct{}
	groupSlots   map[SlotKey]struct{}
}

// NewConflictValidator builds a validator for one period with empty in-run state.
func NewConflictValidator(store persistedConflictFinder, periodID string) *ConflictValidator {
	v := &ConflictValidator{store: store, periodID: periodID}
	v.Reset()
	return v
}

// Check reports the first conflict found for the proposed slot, persisted
// store first, then the in-run sets. The fixed order only affects which kind
// is reported; all three axes must be free either way.
func (v *ConflictValidator) Check(ctx context.Context, teacherID, roomID, groupID string, day int, blockID string) (models.ConflictKind, error) {
	if v.store != nil {
		kind, err := v.store.FindConfirmedConflict(ctx, v.periodID, day, blockID, teacherID, roomID, groupID)
		if err != nil {
			return models.ConflictNone, fmt.Errorf("persisted conflict check: %w", err)
		}
		if kind != models.ConflictNone {
			return kind, nil
		}
	}

	if _, ok := v.teacherSlots[SlotKey{EntityID: teacherID, Day: day, BlockID: blockID}]; ok {
		return models.ConflictTeacherSession, nil
	}
	if _, ok := v.roomSlots[SlotKey{EntityID: roomID, Day: day, BlockID: blockID}]; ok {
		return models.ConflictRoomSession, nil
	}
	if _, ok := v.groupSlots[SlotKey{EntityID: groupID, Day: day, BlockID: blockID}]; ok {
		return models.ConflictGroupSession, nil
	}
	return models.ConflictNone, nil
}

// Mark records a staged assignment in the in-run sets. Call it only after the
// assignment has actually been staged, never for probed candidates.
func (v *ConflictValidator) Mark(teacherID, roomID, groupID string, day int, blockID string) {
	v.teacherSlots[SlotKey{EntityID: teacherID, Day: day, BlockID: blockID}] = struct{}{}
	v.roomSlots[SlotKey{EntityID: roomID, Day: day, BlockID: blockID}] = struct{}{}
	v.groupSlots[SlotKey{EntityID: groupID, Day: day, BlockID: blockID}] = struct{}{}
}

// Reset clears the in-run occupancy sets.
func (v *ConflictValidator) Reset() {
	v.teacherSlots = make(map[SlotKey]struct{})
	v.roomSlots = make(map[SlotKey]struct{})
	v.groupSlots = make(map[SlotKey]struct{})
}
