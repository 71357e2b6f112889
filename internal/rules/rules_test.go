package rules

import "testing"

// TestParseList_Splitting verifies delimiter handling and empty-entry
// behaviour.
func TestParseList_Splitting(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		count int
	}{
		{"empty string", "", 0},
		{"only whitespace", "   ", 0},
		{"single literal", "spam", 1},
		{"two literals", "spam, judi", 2},
		{"trailing comma", "spam,", 1},
		{"empty entries between commas", "spam,, ,judi", 2},
		{"literal and pattern", `spam, /^[0-9]+$/`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := ParseList(tt.raw)
			if len(list) != tt.count {
				t.Errorf("ParseList(%q) returned %d rules, want %d", tt.raw, len(list), tt.count)
			}
		})
	}
}

// TestParseList_Kinds verifies that slash-delimited entries become
// patterns and everything else becomes a literal.
func TestParseList_Kinds(t *testing.T) {
	list := ParseList(`viagra, /^[a-z]+$/, /[^\x20-\x7E]/, plain/slash`)
	if len(list) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(list))
	}

	wantKinds := []Kind{KindLiteral, KindPattern, KindPattern, KindLiteral}
	for i, want := range wantKinds {
		if list[i].Kind != want {
			t.Errorf("rule %d: kind = %v, want %v", i, list[i].Kind, want)
		}
	}
}

// TestParseList_Modifiers verifies trailing pattern modifiers are mapped
// to inline flags.
func TestParseList_Modifiers(t *testing.T) {
	list := ParseList(`/casino/i`)
	if len(list) != 1 || list[0].Kind != KindPattern || list[0].Re == nil {
		t.Fatalf("expected one compiled pattern rule, got %+v", list)
	}
	if !list[0].Re.MatchString("CASINO night") {
		t.Error("case-insensitive modifier not applied")
	}
}

// TestParseList_InvalidPattern verifies a bad regex is kept inert with an
// attached error rather than dropped or fatal.
func TestParseList_InvalidPattern(t *testing.T) {
	list := ParseList(`/[unclosed/, spam`)
	if len(list) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(list))
	}
	if list[0].Err == nil {
		t.Error("expected compile error on invalid pattern")
	}
	if list[0].Re != nil {
		t.Error("invalid pattern must not carry a compiled regexp")
	}

	warnings := Warnings(list)
	if len(warnings) != 1 {
		t.Errorf("Warnings() returned %d errors, want 1", len(warnings))
	}
}

// TestMatch_Literals verifies case-insensitive substring matching.
func TestMatch_Literals(t *testing.T) {
	list := ParseList("spam, judi")

	tests := []struct {
		name    string
		query   string
		matched bool
		text    string
	}{
		{"exact term", "spam", true, "spam"},
		{"embedded term", "buy cheap spam now", true, "spam"},
		{"uppercase query", "BUY SPAM", true, "spam"},
		{"mixed case", "SpAm offer", true, "spam"},
		{"second rule", "situs judi online", true, "judi"},
		{"no match", "hello world", false, ""},
		{"substring of term absent", "spa day", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Match(tt.query, list)
			if ok != tt.matched {
				t.Fatalf("Match(%q) = %v, want %v", tt.query, ok, tt.matched)
			}
			if ok && res.Rule.Text != tt.text {
				t.Errorf("Match(%q) matched rule %q, want %q", tt.query, res.Rule.Text, tt.text)
			}
		})
	}
}

// TestMatch_Patterns verifies regex rules fire and report KindPattern.
func TestMatch_Patterns(t *testing.T) {
	list := ParseList(`/^[0-9]+$/`)

	res, ok := Match("123456", list)
	if !ok {
		t.Fatal("expected numeric query to match")
	}
	if res.Rule.Kind != KindPattern {
		t.Errorf("kind = %v, want %v", res.Rule.Kind, KindPattern)
	}

	if _, ok := Match("123abc", list); ok {
		t.Error("anchored pattern must not match mixed query")
	}
}

// TestMatch_OrderShortCircuits verifies the first rule in declared order
// wins when several rules could match.
func TestMatch_OrderShortCircuits(t *testing.T) {
	list := ParseList(`spam, /spam/`)
	res, ok := Match("spam", list)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Rule.Kind != KindLiteral {
		t.Errorf("first match kind = %v, want literal (declared first)", res.Rule.Kind)
	}

	reversed := ParseList(`/spam/, spam`)
	res, ok = Match("spam", reversed)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Rule.Kind != KindPattern {
		t.Errorf("first match kind = %v, want pattern (declared first)", res.Rule.Kind)
	}
}

// TestMatch_InvalidPatternNeverMatches verifies an inert rule is skipped
// and later rules still evaluate.
func TestMatch_InvalidPatternNeverMatches(t *testing.T) {
	list := ParseList(`/[unclosed/, spam`)

	if _, ok := Match("[unclosed", list); ok {
		t.Error("inert pattern must never match, even its own source text")
	}

	res, ok := Match("buy spam", list)
	if !ok {
		t.Fatal("rule after inert pattern must still evaluate")
	}
	if res.Rule.Text != "spam" {
		t.Errorf("matched %q, want %q", res.Rule.Text, "spam")
	}
}

// TestMatch_EmptyQuery verifies empty input never matches anything.
func TestMatch_EmptyQuery(t *testing.T) {
	if _, ok := Match("", ParseList("spam")); ok {
		t.Error("empty query must not match")
	}
}
