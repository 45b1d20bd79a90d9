package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type snapshotPeriodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type snapshotGroupLister interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error)
}

type snapshotTeacherLister interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListSpecialties(ctx context.Context) (map[string][]string, error)
}

type snapshotRoomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type snapshotTimeBlockLister interface {
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error)
}

type snapshotSubjectLister interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
	ListRequiredSpecialties(ctx context.Context) (map[string][]string, error)
}

type snapshotAvailabilityLister interface {
	ListAvailableByPeriod(ctx context.Context, periodID string) ([]models.AvailabilityRecord, error)
}

type snapshotRuleLister interface {
	ListActiveForPeriod(ctx context.Context, periodID string) ([]models.ConstraintRule, error)
}

// AvailabilityKey addresses one teacher's declared availability for a slot.
type AvailabilityKey struct {
	TeacherID string
	Day       int
	BlockID   string
}

// GenerationSnapshot is the immutable input of one generation run. All slices
// are sorted on stable keys so iteration order, and through it the produced
// schedule, is reproducible. The snapshot must not be mutated by the search.
type GenerationSnapshot struct {
	Period   models.Period
	Groups   []models.Group
	Teachers []models.Teacher
	Rooms    []models.Room
	Blocks   []models.TimeBlock
	Rules    []models.ConstraintRule

	Subjects            map[string]models.Subject
	TeacherSpecialties  map[string][]string
	RequiredSpecialties map[string][]string

	// Availability holds one entry per (teacher, day, block) the teacher
	// declared available. Slots without an entry are excluded from search.
	Availability map[AvailabilityKey]int
}

// SnapshotLoader assembles generation snapshots from catalog storage.
type SnapshotLoader struct {
	periods      snapshotPeriodReader
	groups       snapshotGroupLister
	teachers     snapshotTeacherLister
	rooms        snapshotRoomLister
	blocks       snapshotTimeBlockLister
	subjects     snapshotSubjectLister
	availability snapshotAvailabilityLister
	rules        snapshotRuleLister
}

// NewSnapshotLoader wires the catalog readers a snapshot needs.
func NewSnapshotLoader(
	periods snapshotPeriodReader,
	groups snapshotGroupLister,
	teachers snapshotTeacherLister,
	rooms snapshotRoomLister,
	blocks snapshotTimeBlockLister,
	subjects snapshotSubjectLister,
	availability snapshotAvailabilityLister,
	rules snapshotRuleLister,
) *SnapshotLoader {
	return &SnapshotLoader{
		periods:      periods,
		groups:       groups,
		teachers:     teachers,
		rooms:        rooms,
		blocks:       blocks,
		subjects:     subjects,
		availability: availability,
		rules:        rules,
	}
}

// Load reads the full candidate universe of a period. A missing period is
// fatal to the run and reported as not found.
func (l *SnapshotLoader) Load(ctx context.Context, periodID string) (*GenerationSnapshot, error) {
	period, err := l.periods.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("period %s not found", periodID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	groups, err := l.groups.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	teachers, err := l.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	teacherSpecialties, err := l.teachers.ListSpecialties(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher specialties")
	}
	rooms, err := l.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	blocks, err := l.blocks.List(ctx, models.TimeBlockFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time blocks")
	}
	subjects, err := l.subjects.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	requiredSpecialties, err := l.subjects.ListRequiredSpecialties(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject specialties")
	}
	records, err := l.availability.ListAvailableByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	rules, err := l.rules.ListActiveForPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraint rules")
	}

	snapshot := &GenerationSnapshot{
		Period:              *period,
		Groups:              groups,
		Teachers:            teachers,
		Rooms:               rooms,
		Blocks:              blocks,
		Rules:               rules,
		Subjects:            make(map[string]models.Subject, len(subjects)),
		TeacherSpecialties:  teacherSpecialties,
		RequiredSpecialties: requiredSpecialties,
		Availability:        make(map[AvailabilityKey]int, len(records)),
	}
	for _, subject := range subjects {
		snapshot.Subjects[subject.ID] = subject
	}
	for _, record := range records {
		key := AvailabilityKey{TeacherID: record.TeacherID, Day: record.DayOfWeek, BlockID: record.TimeBlockID}
		snapshot.Availability[key] = record.Preference
	}

	sort.Slice(snapshot.Groups, func(i, j int) bool {
		if snapshot.Groups[i].Code != snapshot.Groups[j].Code {
			return snapshot.Groups[i].Code < snapshot.Groups[j].Code
		}
		return snapshot.Groups[i].ID < snapshot.Groups[j].ID
	})
	sort.Slice(snapshot.Teachers, func(i, j int) bool {
		return snapshot.Teachers[i].ID < snapshot.Teachers[j].ID
	})
	sort.Slice(snapshot.Rooms, func(i, j int) bool {
		return snapshot.Rooms[i].ID < snapshot.Rooms[j].ID
	})
	sort.Slice(snapshot.Blocks, func(i, j int) bool {
		return snapshot.Blocks[i].Before(snapshot.Blocks[j])
	})

	return snapshot, nil
}
