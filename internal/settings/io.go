package settings

import (
	"encoding/json"
	"fmt"
)

// The export format is a flat JSON object keyed by the canonical field
// names, with toggle fields encoded as "1"/"0" strings. This matches the
// legacy settings encoding so exports remain importable across versions.

// Export encodes the settings snapshot for operator backup. The secret
// key is included: an export is a full backup, not a display view (the
// read API uses Redacted for that).
func Export(cfg Settings) ([]byte, error) {
	flat := map[string]string{
		KeyEnableRecaptcha:   boolFlag(cfg.RecaptchaEnabled),
		KeySiteKey:           cfg.SiteKey,
		KeySecretKey:         cfg.SecretKey,
		KeyBlacklist:         cfg.Blacklist,
		KeyMsgRecaptchaFail:  cfg.MsgRecaptchaFail,
		KeyMsgBadword:        cfg.MsgBadword,
		KeyMsgRegex:          cfg.MsgRegex,
		KeyBlockPageURL:      cfg.BlockRedirectURL,
		KeyAutoCleanup:       boolFlag(cfg.AutoCleanupEnabled),
		KeyDeleteOnUninstall: boolFlag(cfg.DeleteDataOnUninstall),
	}

	data, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("settings: export: %w", err)
	}
	return data, nil
}

// Import decodes an exported settings file and re-validates every field
// through the same sanitation rules used for direct form submission.
// Unknown keys are ignored; missing keys fall back to the defaults. The
// warnings carry non-fatal validation findings (inert regex rules, a
// rejected redirect URL).
func Import(data []byte) (Settings, []error, error) {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return Settings{}, nil, fmt.Errorf("settings: import: %w", err)
	}

	cfg, warnings := Sanitize(flat)
	return cfg, warnings, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
