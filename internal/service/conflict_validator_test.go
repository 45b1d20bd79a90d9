package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-sync/timetable-api/internal/models"
)

type conflictFinderStub struct {
	kind models.ConflictKind
	err  error
}

func (s conflictFinderStub) FindConfirmedConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error) {
	return s.kind, s.err
}

func TestConflictValidatorFreeSlot(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{}, "period-1")

	kind, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
}

func TestConflictValidatorPersistedTierWinsOverInRun(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{kind: models.ConflictRoom}, "period-1")
	v.Mark("t1", "r1", "g1", 1, "b1")

	kind, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictRoom, kind)
}

func TestConflictValidatorInRunKinds(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{}, "period-1")
	v.Mark("t1", "r1", "g1", 1, "b1")

	kind, err := v.Check(context.Background(), "t1", "r2", "g2", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictTeacherSession, kind)

	kind, err = v.Check(context.Background(), "t2", "r1", "g2", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictRoomSession, kind)

	kind, err = v.Check(context.Background(), "t2", "r2", "g1", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictGroupSession, kind)
}

func TestConflictValidatorDifferentSlotIsFree(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{}, "period-1")
	v.Mark("t1", "r1", "g1", 1, "b1")

	kind, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b2")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)

	kind, err = v.Check(context.Background(), "t1", "r1", "g1", 2, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
}

func TestConflictValidatorReset(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{}, "period-1")
	v.Mark("t1", "r1", "g1", 1, "b1")
	v.Reset()

	kind, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
}

func TestConflictValidatorStoreError(t *testing.T) {
	v := NewConflictValidator(conflictFinderStub{err: assert.AnError}, "period-1")

	_, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b1")
	require.Error(t, err)
}

func TestConflictValidatorNilStore(t *testing.T) {
	v := NewConflictValidator(nil, "period-1")

	kind, err := v.Check(context.Background(), "t1", "r1", "g1", 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
}
