package service

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/models"
)

// Configured rule codes the engine understands. Active rules with any other
// code are ignored during evaluation (fail-open) and reported once when the
// engine is built, so silently dropped intent is at least visible.
const (
	RuleMaxWeeklyHours         = "MAX_WEEKLY_HOURS"
	RuleRoomReservedForProgram = "ROOM_RESERVED_FOR_PROGRAM"
	RuleShiftPreferenceWeight  = "SHIFT_PREFERENCE_WEIGHT"
)

var recognizedRuleCodes = map[string]bool{
	RuleMaxWeeklyHours:         true,
	RuleRoomReservedForProgram: true,
	RuleShiftPreferenceWeight:  true,
}

// RuleCandidate is one (group, teacher, room, day, block) tuple under
// evaluation, together with the snapshot context the rules need.
type RuleCandidate struct {
	Group               models.Group
	Subject             models.Subject
	Teacher             models.Teacher
	TeacherSpecialties  []string
	RequiredSpecialties []string
	Room                models.Room
	Block               models.TimeBlock

	// Hours the teacher already holds in this run's staged schedule.
	TeacherWeeklyHours int
}

// RuleVerdict is the outcome of evaluating one candidate tuple.
type RuleVerdict struct {
	Allowed         bool
	Reason          string
	ScoreAdjustment float64
}

// ConstraintRuleEngine evaluates candidate tuples against built-in hard rules
// and the period's configured rules. Evaluate is pure so the generator can
// probe large candidate sets cheaply.
type ConstraintRuleEngine struct {
	rules            []models.ConstraintRule
	defaultMaxWeekly int
}

// NewConstraintRuleEngine builds an engine over the period's active rules.
// Unrecognized active rule codes are logged here, once per code.
func NewConstraintRuleEngine(rules []models.ConstraintRule, defaultMaxWeeklyHours int, logger *zap.Logger) *ConstraintRuleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	recognized := make([]models.ConstraintRule, 0, len(rules))
	warned := make(map[string]bool)
	for _, rule := range rules {
		if recognizedRuleCodes[rule.Code] {
			recognized = append(recognized, rule)
			continue
		}
		if !warned[rule.Code] {
			warned[rule.Code] = true
			logger.Warn("ignoring active constraint rule with unrecognized code",
				zap.String("code", rule.Code),
				zap.String("rule_id", rule.ID))
		}
	}
	return &ConstraintRuleEngine{rules: recognized, defaultMaxWeekly: defaultMaxWeeklyHours}
}

// Evaluate applies hard rules first, then folds soft rule weights into the
// score adjustment. A disallowed verdict carries the first failing reason.
func (e *ConstraintRuleEngine) Evaluate(c RuleCandidate) RuleVerdict {
	if len(c.RequiredSpecialties) > 0 && !hasAnySpecialty(c.TeacherSpecialties, c.RequiredSpecialties) {
		return RuleVerdict{Reason: "teacher lacks required specialty"}
	}
	if c.Subject.RequiredRoomType != nil && *c.Subject.RequiredRoomType != "" && c.Room.RoomType != *c.Subject.RequiredRoomType {
		return RuleVerdict{Reason: "room type mismatch"}
	}
	if c.Room.Capacity != nil && c.Group.EstimatedStudents != nil && *c.Room.Capacity < *c.Group.EstimatedStudents {
		return RuleVerdict{Reason: "room capacity below group size"}
	}
	if limit := e.weeklyHourLimit(c.Teacher); limit > 0 && c.TeacherWeeklyHours+1 > limit {
		return RuleVerdict{Reason: "teacher weekly hour limit reached"}
	}

	var adjustment float64
	for _, rule := range e.rules {
		switch rule.Code {
		case RuleRoomReservedForProgram:
			if rule.Scope == models.RuleScopeRoom &&
				rule.EntityID1 != nil && *rule.EntityID1 == c.Room.ID &&
				rule.EntityID2 != nil && *rule.EntityID2 != c.Group.ProgramID {
				return RuleVerdict{Reason: "room reserved for another program"}
			}
		case RuleShiftPreferenceWeight:
			if rule.Scope == models.RuleScopeProgram &&
				(rule.EntityID1 == nil || *rule.EntityID1 != c.Group.ProgramID) {
				continue
			}
			if c.Group.PreferredShift != nil && c.Block.Shift == *c.Group.PreferredShift {
				adjustment += ruleWeight(rule, 1)
			}
		}
	}

	return RuleVerdict{Allowed: true, ScoreAdjustment: adjustment}
}

// weeklyHourLimit resolves the strictest applicable limit: a teacher-scoped
// MAX_WEEKLY_HOURS rule, the teacher's own contract limit, or the default.
func (e *ConstraintRuleEngine) weeklyHourLimit(teacher models.Teacher) int {
	limit := e.defaultMaxWeekly
	if teacher.MaxWeeklyHours != nil && *teacher.MaxWeeklyHours > 0 {
		limit = *teacher.MaxWeeklyHours
	}
	for _, rule := range e.rules {
		if rule.Code != RuleMaxWeeklyHours || rule.Scope != models.RuleScopeTeacher {
			continue
		}
		if rule.EntityID1 == nil || *rule.EntityID1 != teacher.ID {
			continue
		}
		if value, err := strconv.Atoi(param(rule)); err == nil && value > 0 && (limit == 0 || value < limit) {
			limit = value
		}
	}
	return limit
}

func hasAnySpecialty(have, required []string) bool {
	for _, r := range required {
		for _, h := range have {
			if h == r {
				return true
			}
		}
	}
	return false
}

func param(rule models.ConstraintRule) string {
	if rule.Param == nil {
		return ""
	}
	return *rule.Param
}

func ruleWeight(rule models.ConstraintRule, fallback float64) float64 {
	raw := param(rule)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
