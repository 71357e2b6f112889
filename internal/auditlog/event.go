// Package auditlog provides PostgreSQL-backed storage for blocked search
// events. Every rejected query produces exactly one row; rows are never
// updated, only inserted and bulk-deleted by the retention cleanup.
package auditlog

import "time"

// Block reasons, stored in the blocked_reason column.
const (
	ReasonRuleLiteral        = "rule_literal"
	ReasonRulePattern        = "rule_pattern"
	ReasonVerifyMissingToken = "verify_missing_token"
	ReasonVerifyAPIError     = "verify_api_error"
	ReasonVerifyLowScore     = "verify_low_score"
)

// validReasons is the set of allowed reason values, matching the CHECK
// constraint on the blocked_searches table.
var validReasons = map[string]bool{
	ReasonRuleLiteral:        true,
	ReasonRulePattern:        true,
	ReasonVerifyMissingToken: true,
	ReasonVerifyAPIError:     true,
	ReasonVerifyLowScore:     true,
}

// BlockEvent is one persisted record of a rejected query. SearchTerm is
// the original query that triggered the block, not the rule that matched.
type BlockEvent struct {
	ID         int64
	SearchTerm string
	Reason     string
	ClientIP   string
	CreatedAt  time.Time
}

// TermCount is one row of the most-blocked-terms aggregation.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
