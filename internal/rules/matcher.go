package rules

import "strings"

// MatchResult describes which rule blocked a query.
type MatchResult struct {
	Rule Rule
}

// Match evaluates query against the rule list in declared order and
// returns the first rule that matches. Order matters: the first match
// wins and later rules are not evaluated. Inert rules (empty literals,
// patterns that failed to compile) never match.
//
// The query is expected to be trimmed and decoded by the caller; Match
// itself is a pure function with no side effects.
func Match(query string, list []Rule) (MatchResult, bool) {
	if query == "" {
		return MatchResult{}, false
	}

	lower := strings.ToLower(query)
	for _, r := range list {
		switch r.Kind {
		case KindLiteral:
			if r.Text != "" && strings.Contains(lower, strings.ToLower(r.Text)) {
				return MatchResult{Rule: r}, true
			}
		case KindPattern:
			if r.Re != nil && r.Re.MatchString(query) {
				return MatchResult{Rule: r}, true
			}
		}
	}
	return MatchResult{}, false
}
