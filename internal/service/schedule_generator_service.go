package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type assignmentCommitter interface {
	persistedConflictFinder
	ReplaceForPeriod(ctx context.Context, periodID string, assignments []models.Assignment) error
}

type runLocker interface {
	Acquire(ctx context.Context, periodID, token string) (bool, error)
	Release(ctx context.Context, periodID, token string) error
}

type timetableCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type generationMetrics interface {
	ObserveGenerationRun(status string, duration time.Duration, assignments int)
}

// runPhase tracks where a generation run currently is. A run moves
// Loading -> Generating -> Finalizing -> Done, or to Failed from anywhere.
type runPhase string

const (
	phaseLoading    runPhase = "loading"
	phaseGenerating runPhase = "generating"
	phaseFinalizing runPhase = "finalizing"
	phaseDone       runPhase = "done"
	phaseFailed     runPhase = "failed"
)

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	// GenerationTimeout bounds one run. On expiry the run aborts without
	// touching the previously committed schedule.
	GenerationTimeout time.Duration
	// DefaultMaxWeeklyHours applies to teachers without a contract limit.
	DefaultMaxWeeklyHours int
}

// ScheduleGeneratorService produces the assignment set of a period. Each run
// loads an immutable snapshot, searches greedily per group and per session,
// stages assignments in memory and swaps them in atomically at the end.
type ScheduleGeneratorService struct {
	loader      *SnapshotLoader
	assignments assignmentCommitter
	locks       runLocker
	cache       timetableCacheInvalidator
	metrics     generationMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleGeneratorConfig
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	loader *SnapshotLoader,
	assignments assignmentCommitter,
	locks runLocker,
	cache timetableCacheInvalidator,
	metrics generationMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 5 * time.Minute
	}
	if cfg.DefaultMaxWeeklyHours <= 0 {
		cfg.DefaultMaxWeeklyHours = 40
	}
	return &ScheduleGeneratorService{
		loader:      loader,
		assignments: assignments,
		locks:       locks,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate rebuilds the timetable of one period. Runs over the same period
// are serialized through a lock; a second caller gets a conflict error
// instead of a corrupted schedule.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	token := uuid.NewString()
	if s.locks != nil {
		acquired, err := s.locks.Acquire(ctx, req.PeriodID, token)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
		}
		if !acquired {
			return nil, appErrors.Clone(appErrors.ErrRunInProgress, fmt.Sprintf("a generation run for period %s is already in progress", req.PeriodID))
		}
		defer func() {
			if err := s.locks.Release(context.WithoutCancel(ctx), req.PeriodID, token); err != nil {
				s.logger.Warn("failed to release generation lock", zap.String("period_id", req.PeriodID), zap.Error(err))
			}
		}()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	startedAt := time.Now().UTC()
	resp, err := s.run(runCtx, req.PeriodID, startedAt)
	if s.metrics != nil {
		status := string(phaseDone)
		placed := 0
		if err != nil {
			status = string(phaseFailed)
		} else {
			placed = resp.Stats.SuccessfulAssignments
		}
		s.metrics.ObserveGenerationRun(status, time.Since(startedAt), placed)
	}
	return resp, err
}

func (s *ScheduleGeneratorService) run(ctx context.Context, periodID string, startedAt time.Time) (*dto.GenerateScheduleResponse, error) {
	phase := phaseLoading
	snapshot, err := s.loader.Load(ctx, periodID)
	if err != nil {
		return nil, err
	}

	validator := NewConflictValidator(s.assignments, periodID)
	engine := NewConstraintRuleEngine(snapshot.Rules, s.cfg.DefaultMaxWeeklyHours, s.logger)

	phase = phaseGenerating
	var staged []models.Assignment
	var unresolved []string
	var stats dto.GenerationStats
	teacherHours := make(map[string]int)

	for _, group := range snapshot.Groups {
		subject, ok := snapshot.Subjects[group.SubjectID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrSnapshotInvalid, fmt.Sprintf("group %s references unknown subject %s", group.Code, group.SubjectID))
		}

		candidates := s.candidateTeachers(snapshot, group, subject)
		sessionsNeeded := subject.TotalHours()
		placed := 0

		for session := 0; session < sessionsNeeded; session++ {
			if err := ctx.Err(); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("generation aborted during %s", phase))
			}

			best, found, err := s.findBestSlot(ctx, snapshot, engine, validator, group, subject, candidates, teacherHours)
			if err != nil {
				return nil, err
			}
			if !found {
				stats.FailedAttempts++
				unresolved = append(unresolved, fmt.Sprintf(
					"group %s (subject %s): no conflict-free slot for session %d of %d",
					group.Code, subject.Code, session+1, sessionsNeeded))
				break
			}

			staged = append(staged, models.Assignment{
				ID:          uuid.NewString(),
				GroupID:     group.ID,
				TeacherID:   best.Teacher.ID,
				RoomID:      best.Room.ID,
				PeriodID:    periodID,
				DayOfWeek:   best.Block.DayOfWeek,
				TimeBlockID: best.Block.ID,
				Status:      models.AssignmentStatusScheduled,
			})
			validator.Mark(best.Teacher.ID, best.Room.ID, group.ID, best.Block.DayOfWeek, best.Block.ID)
			teacherHours[best.Teacher.ID]++
			stats.SuccessfulAssignments++
			placed++
		}

		if placed == sessionsNeeded {
			stats.GroupsFullyScheduled++
		} else {
			stats.GroupsNotFullyScheduled++
		}
	}

	phase = phaseFinalizing
	if err := s.assignments.ReplaceForPeriod(ctx, periodID, staged); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated schedule")
	}
	validator.Reset()

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, timetableCachePattern(periodID)); err != nil {
			s.logger.Warn("failed to invalidate timetable cache", zap.String("period_id", periodID), zap.Error(err))
		}
	}

	phase = phaseDone
	s.logger.Info("schedule generation finished",
		zap.String("period_id", periodID),
		zap.Int("assignments", stats.SuccessfulAssignments),
		zap.Int("groups_fully_scheduled", stats.GroupsFullyScheduled),
		zap.Int("groups_not_fully_scheduled", stats.GroupsNotFullyScheduled),
		zap.Int("unresolved_conflicts", len(unresolved)))

	if unresolved == nil {
		unresolved = []string{}
	}
	return &dto.GenerateScheduleResponse{
		PeriodID:            periodID,
		Stats:               stats,
		UnresolvedConflicts: unresolved,
		StartedAt:           startedAt,
		FinishedAt:          time.Now().UTC(),
	}, nil
}

// candidateTeachers lists teachers whose specialties intersect the subject's
// required set, in id order. A teacher directly assigned to the group goes
// first regardless of specialties. Subjects declaring no required specialty
// accept any teacher.
func (s *ScheduleGeneratorService) candidateTeachers(snapshot *GenerationSnapshot, group models.Group, subject models.Subject) []models.Teacher {
	required := snapshot.RequiredSpecialties[subject.ID]
	candidates := make([]models.Teacher, 0, len(snapshot.Teachers))
	var preassigned *models.Teacher

	for i := range snapshot.Teachers {
		teacher := snapshot.Teachers[i]
		if group.AssignedTeacherID != nil && teacher.ID == *group.AssignedTeacherID {
			preassigned = &snapshot.Teachers[i]
			continue
		}
		if len(required) > 0 && !hasAnySpecialty(snapshot.TeacherSpecialties[teacher.ID], required) {
			continue
		}
		candidates = append(candidates, teacher)
	}
	if preassigned != nil {
		candidates = append([]models.Teacher{*preassigned}, candidates...)
	}
	return candidates
}

type slotCandidate struct {
	Teacher models.Teacher
	Room    models.Room
	Block   models.TimeBlock
	Score   float64
}

// findBestSlot enumerates teacher x room x block in fixed order and keeps the
// highest scoring feasible tuple. Ties resolve to the first encountered
// candidate, so identical inputs always pick identical slots.
func (s *ScheduleGeneratorService) findBestSlot(
	ctx context.Context,
	snapshot *GenerationSnapshot,
	engine *ConstraintRuleEngine,
	validator *ConflictValidator,
	group models.Group,
	subject models.Subject,
	teachers []models.Teacher,
	teacherHours map[string]int,
) (slotCandidate, bool, error) {
	var best slotCandidate
	found := false

	for _, teacher := range teachers {
		for _, room := range snapshot.Rooms {
			for _, block := range snapshot.Blocks {
				preference, available := snapshot.Availability[AvailabilityKey{TeacherID: teacher.ID, Day: block.DayOfWeek, BlockID: block.ID}]
				if !available || preference < 0 {
					continue
				}

				kind, err := validator.Check(ctx, teacher.ID, room.ID, group.ID, block.DayOfWeek, block.ID)
				if err != nil {
					return slotCandidate{}, false, err
				}
				if kind != models.ConflictNone {
					continue
				}

				verdict := engine.Evaluate(RuleCandidate{
					Group:               group,
					Subject:             subject,
					Teacher:             teacher,
					TeacherSpecialties:  snapshot.TeacherSpecialties[teacher.ID],
					RequiredSpecialties: snapshot.RequiredSpecialties[subject.ID],
					Room:                room,
					Block:               block,
					TeacherWeeklyHours:  teacherHours[teacher.ID],
				})
				if !verdict.Allowed {
					continue
				}

				score := float64(preference) + verdict.ScoreAdjustment
				if !found || score > best.Score {
					best = slotCandidate{Teacher: teacher, Room: room, Block: block, Score: score}
					found = true
				}
			}
		}
	}
	return best, found, nil
}

func timetableCachePattern(periodID string) string {
	return "timetable:view:" + periodID + "*"
}
