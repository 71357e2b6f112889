// Package rules implements the blacklist rule list that screens incoming
// search queries. A rule list is parsed from a single comma-delimited
// operator string where plain entries are case-insensitive literal terms
// and entries wrapped in slashes are regular expressions.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind distinguishes the two rule variants.
type Kind int

const (
	KindLiteral Kind = iota
	KindPattern
)

func (k Kind) String() string {
	if k == KindPattern {
		return "pattern"
	}
	return "literal"
}

// Rule is a single blacklist entry. For KindLiteral, Text holds the term
// matched as a case-insensitive substring. For KindPattern, Re holds the
// compiled expression; Re is nil when the operator's pattern did not
// compile, in which case the rule is inert and never matches.
type Rule struct {
	Kind Kind
	Text string         // original entry as the operator wrote it
	Re   *regexp.Regexp // compiled pattern, nil for literals and bad patterns
	Err  error          // compile error for bad patterns, nil otherwise
}

// ParseList splits a raw comma-delimited blacklist into an ordered rule
// list. Entries are trimmed; entries that trim to nothing are dropped.
// Entries delimited by slashes (optionally with trailing i, m or s
// modifiers) are parsed as patterns; everything else is a literal.
//
// A pattern that fails to compile is kept in the list with its compile
// error attached so that settings validation can surface a warning, but
// it never matches and never aborts evaluation of later rules.
func ParseList(raw string) []Rule {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var list []Rule
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		expr, ok := patternBody(entry)
		if !ok {
			list = append(list, Rule{Kind: KindLiteral, Text: entry})
			continue
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			list = append(list, Rule{
				Kind: KindPattern,
				Text: entry,
				Err:  fmt.Errorf("rules: compile %q: %w", entry, err),
			})
			continue
		}
		list = append(list, Rule{Kind: KindPattern, Text: entry, Re: re})
	}
	return list
}

// patternBody reports whether entry is a slash-delimited pattern and, if
// so, returns the expression body with any trailing modifiers converted
// to inline flags.
func patternBody(entry string) (string, bool) {
	if len(entry) < 2 || entry[0] != '/' {
		return "", false
	}

	end := strings.LastIndexByte(entry, '/')
	if end == 0 {
		return "", false
	}

	// Anything after the closing slash must be recognised modifiers.
	var flags strings.Builder
	for _, mod := range entry[end+1:] {
		switch mod {
		case 'i', 'm', 's':
			flags.WriteRune(mod)
		default:
			return "", false
		}
	}

	body := entry[1:end]
	if flags.Len() > 0 {
		body = "(?" + flags.String() + ")" + body
	}
	return body, true
}

// Warnings returns the compile errors of every inert pattern in the list,
// in rule order. An empty result means every rule is effective.
func Warnings(list []Rule) []error {
	var errs []error
	for _, r := range list {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
