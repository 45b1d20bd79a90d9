package models

import "time"

// RuleScope declares which entity class a constraint rule applies to.
type RuleScope string

const (
	RuleScopeGlobal  RuleScope = "GLOBAL"
	RuleScopeTeacher RuleScope = "TEACHER"
	RuleScopeSubject RuleScope = "SUBJECT"
	RuleScopeRoom    RuleScope = "ROOM"
	RuleScopeProgram RuleScope = "PROGRAM"
	RuleScopePeriod  RuleScope = "PERIOD"
)

// ConstraintRule is a configured scheduling restriction. The model carries no
// interpretation logic; the rule engine maps Code to behaviour and ignores
// codes outside its vocabulary.
type ConstraintRule struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Scope       RuleScope `db:"scope" json:"scope"`
	EntityID1   *string   `db:"entity_id_1" json:"entity_id_1,omitempty"`
	EntityID2   *string   `db:"entity_id_2" json:"entity_id_2,omitempty"`
	Param       *string   `db:"param" json:"param,omitempty"`
	PeriodID    *string   `db:"period_id" json:"period_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ConstraintRuleFilter captures query params for listing rules.
type ConstraintRuleFilter struct {
	Code     string
	Scope    RuleScope
	PeriodID string
	Active   *bool
	Page     int
	PageSize int
}
