// Package settings holds the operator configuration for the search
// protection pipeline. A Settings value is an immutable snapshot: it is
// loaded once per incoming request and replaced wholesale on save, so
// there is never partial-field mutation visible to a running evaluation.
package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/searchguard/search-protection/internal/rules"
)

// Canonical field keys, shared by form submission and the legacy
// export/import encoding.
const (
	KeyEnableRecaptcha   = "enable_recaptcha"
	KeySiteKey           = "site_key"
	KeySecretKey         = "secret_key"
	KeyBlacklist         = "blacklist"
	KeyMsgRecaptchaFail  = "msg_recaptcha_fail"
	KeyMsgBadword        = "msg_badword"
	KeyMsgRegex          = "msg_regex"
	KeyBlockPageURL      = "block_page_url"
	KeyAutoCleanup       = "auto_cleanup"
	KeyDeleteOnUninstall = "delete_on_uninstall"
)

// Settings is the operator-controlled configuration snapshot.
type Settings struct {
	RecaptchaEnabled bool   `json:"recaptcha_enabled"`
	SiteKey          string `json:"site_key"`
	SecretKey        string `json:"secret_key"`

	// Blacklist is the raw comma-delimited rule string as the operator
	// wrote it. Rules() parses it on demand.
	Blacklist string `json:"blacklist"`

	MsgRecaptchaFail string `json:"msg_recaptcha_fail"`
	MsgBadword       string `json:"msg_badword"`
	MsgRegex         string `json:"msg_regex"`

	// BlockRedirectURL, when set, turns every block into a redirect
	// instead of a rendered message.
	BlockRedirectURL string `json:"block_redirect_url"`

	AutoCleanupEnabled    bool `json:"auto_cleanup_enabled"`
	DeleteDataOnUninstall bool `json:"delete_data_on_uninstall"`
}

// Defaults returns the configuration used before the operator has saved
// anything. Verification is off and the blacklist is empty, so the
// pipeline passes every query through.
func Defaults() Settings {
	return Settings{
		RecaptchaEnabled:      false,
		MsgRecaptchaFail:      "Verification failed. Please retry your search.",
		MsgBadword:            "Your search was blocked because it contains a disallowed term.",
		MsgRegex:              "Your search was blocked because it contains a disallowed character pattern.",
		AutoCleanupEnabled:    true,
		DeleteDataOnUninstall: false,
	}
}

// Rules parses the blacklist into its ordered rule list.
func (s Settings) Rules() []rules.Rule {
	return rules.ParseList(s.Blacklist)
}

// Redacted returns a copy safe to render back to a caller: the secret
// key is blanked, everything else passes through.
func (s Settings) Redacted() Settings {
	s.SecretKey = ""
	return s
}

// Sanitize builds a Settings value from raw key/value form input. Every
// field is trimmed and validated; unknown keys are ignored and missing
// keys fall back to the defaults. The returned warnings are non-fatal:
// they flag inert blacklist patterns and a discarded redirect URL, but
// the settings are still usable.
func Sanitize(input map[string]string) (Settings, []error) {
	s := Defaults()
	var warnings []error

	get := func(key string) (string, bool) {
		v, ok := input[key]
		return strings.TrimSpace(v), ok
	}

	if v, ok := get(KeyEnableRecaptcha); ok {
		s.RecaptchaEnabled = v == "1"
	}
	if v, ok := get(KeySiteKey); ok {
		s.SiteKey = v
	}
	if v, ok := get(KeySecretKey); ok {
		s.SecretKey = v
	}
	if v, ok := get(KeyBlacklist); ok {
		s.Blacklist = v
		warnings = append(warnings, rules.Warnings(rules.ParseList(v))...)
	}
	if v, ok := get(KeyMsgRecaptchaFail); ok && v != "" {
		s.MsgRecaptchaFail = v
	}
	if v, ok := get(KeyMsgBadword); ok && v != "" {
		s.MsgBadword = v
	}
	if v, ok := get(KeyMsgRegex); ok && v != "" {
		s.MsgRegex = v
	}
	if v, ok := get(KeyBlockPageURL); ok && v != "" {
		if err := validateRedirectURL(v); err != nil {
			warnings = append(warnings, err)
		} else {
			s.BlockRedirectURL = v
		}
	}
	if v, ok := get(KeyAutoCleanup); ok {
		s.AutoCleanupEnabled = v == "1"
	}
	if v, ok := get(KeyDeleteOnUninstall); ok {
		s.DeleteDataOnUninstall = v == "1"
	}

	return s, warnings
}

func validateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("settings: block page url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("settings: block page url %q must be absolute http(s)", raw)
	}
	return nil
}
