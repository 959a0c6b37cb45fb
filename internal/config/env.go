package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"
	EnvAccessToken   = "WHATSAPP_ACCESS_TOKEN"
	EnvAPIVersion    = "WHATSAPP_API_VERSION"
	EnvCountryCode   = "WHATSAPP_COUNTRY_CODE"
	EnvTelegramToken = "WABATCH_TELEGRAM_TOKEN"
)

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays credential variables on cfg. lookup is os.LookupEnv in
// production; tests pass a map-backed func.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if cfg == nil || lookup == nil {
		return
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.WhatsApp.PhoneNumberID, EnvPhoneNumberID)
	set(&cfg.WhatsApp.AccessToken, EnvAccessToken)
	set(&cfg.WhatsApp.APIVersion, EnvAPIVersion)
	set(&cfg.WhatsApp.CountryCode, EnvCountryCode)

	if v, ok := lookup(EnvTelegramToken); ok && strings.TrimSpace(v) != "" {
		if cfg.Report == nil {
			cfg.Report = &ReportConfig{}
		}
		cfg.Report.Telegram.Token = strings.TrimSpace(v)
	}
}
