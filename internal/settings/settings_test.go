package settings

import (
	"bytes"
	"testing"
)

// TestSanitize_Defaults verifies that missing keys fall back to defaults
// and unknown keys are ignored.
func TestSanitize_Defaults(t *testing.T) {
	cfg, warnings := Sanitize(map[string]string{
		"unknown_key": "whatever",
	})
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	def := Defaults()
	if cfg != def {
		t.Errorf("Sanitize with no known keys = %+v, want defaults %+v", cfg, def)
	}
}

// TestSanitize_Toggles verifies "1"/"0" coercion of toggle fields.
func TestSanitize_Toggles(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want bool
	}{
		{"one enables", "1", true},
		{"zero disables", "0", false},
		{"garbage disables", "yes", false},
		{"empty disables", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Sanitize(map[string]string{KeyEnableRecaptcha: tt.val})
			if cfg.RecaptchaEnabled != tt.want {
				t.Errorf("enable_recaptcha=%q -> %v, want %v", tt.val, cfg.RecaptchaEnabled, tt.want)
			}
		})
	}
}

// TestSanitize_RedirectURL verifies only absolute http(s) URLs are kept.
func TestSanitize_RedirectURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		kept    bool
		warning bool
	}{
		{"https url", "https://example.com/blocked", true, false},
		{"http url", "http://example.com/blocked", true, false},
		{"relative path", "/blocked", false, true},
		{"javascript scheme", "javascript:alert(1)", false, true},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, warnings := Sanitize(map[string]string{KeyBlockPageURL: tt.url})
			if tt.kept && cfg.BlockRedirectURL != tt.url {
				t.Errorf("url %q not kept (got %q)", tt.url, cfg.BlockRedirectURL)
			}
			if !tt.kept && cfg.BlockRedirectURL != "" {
				t.Errorf("url %q should have been discarded, got %q", tt.url, cfg.BlockRedirectURL)
			}
			if tt.warning != (len(warnings) > 0) {
				t.Errorf("warnings = %v, want warning=%v", warnings, tt.warning)
			}
		})
	}
}

// TestSanitize_BlacklistWarnings verifies inert patterns surface as
// warnings without invalidating the settings.
func TestSanitize_BlacklistWarnings(t *testing.T) {
	cfg, warnings := Sanitize(map[string]string{KeyBlacklist: `spam, /[bad/`})
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if cfg.Blacklist != `spam, /[bad/` {
		t.Errorf("blacklist not preserved: %q", cfg.Blacklist)
	}
	if len(cfg.Rules()) != 2 {
		t.Errorf("expected 2 parsed rules, got %d", len(cfg.Rules()))
	}
}

// TestSanitize_EmptyMessageFallsBack verifies an empty fail message keeps
// the default text rather than blanking the user-visible response.
func TestSanitize_EmptyMessageFallsBack(t *testing.T) {
	cfg, _ := Sanitize(map[string]string{KeyMsgBadword: "  "})
	if cfg.MsgBadword != Defaults().MsgBadword {
		t.Errorf("empty message overrode default: %q", cfg.MsgBadword)
	}
}

// TestExportImport_RoundTrip verifies an unmodified export imports back
// to an equivalent settings record.
func TestExportImport_RoundTrip(t *testing.T) {
	cfg, _ := Sanitize(map[string]string{
		KeyEnableRecaptcha:  "1",
		KeySiteKey:          "site-abc",
		KeySecretKey:        "secret-xyz",
		KeyBlacklist:        `spam, /^[0-9]+$/`,
		KeyMsgRecaptchaFail: "verify failed",
		KeyMsgBadword:       "bad word",
		KeyMsgRegex:         "bad pattern",
		KeyBlockPageURL:     "https://example.com/blocked",
		KeyAutoCleanup:      "0",
	})

	data, err := Export(cfg)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	got, warnings, err := Import(data)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected import warnings: %v", warnings)
	}
	if got != cfg {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}

	// A second export must be byte-identical.
	again, err := Export(got)
	if err != nil {
		t.Fatalf("second Export() error: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("export is not stable across a round trip")
	}
}

// TestImport_Malformed verifies structurally invalid files are rejected.
func TestImport_Malformed(t *testing.T) {
	for _, raw := range []string{"not json", `{"enable_recaptcha": true}`, `[]`} {
		if _, _, err := Import([]byte(raw)); err == nil {
			t.Errorf("Import(%q) succeeded, want error", raw)
		}
	}
}

// TestRedacted verifies the secret key never renders back to a caller.
func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.SecretKey = "super-secret"
	cfg.SiteKey = "public-site-key"

	red := cfg.Redacted()
	if red.SecretKey != "" {
		t.Error("secret key leaked through Redacted()")
	}
	if red.SiteKey != cfg.SiteKey {
		t.Error("site key should survive redaction")
	}
}
