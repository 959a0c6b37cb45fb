package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// clearEnv unsets the credential variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvPhoneNumberID, EnvAccessToken, EnvAPIVersion, EnvCountryCode, EnvTelegramToken} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestParseYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yml := writeFile(t, dir, "c.yaml", `
whatsapp:
  phone_number_id: "111"
  access_token: abc
  rate_per_sec: 5
dispatch:
  delay: 500ms
schedule:
  cron: "0 9 * * *"
  timezone: Asia/Kolkata
`)
	js := writeFile(t, dir, "c.json", `{"whatsapp":{"phone_number_id":"111","access_token":"abc","rate_per_sec":5},"dispatch":{"delay":"500ms"},"schedule":{"cron":"0 9 * * *","timezone":"Asia/Kolkata"}}`)

	for _, p := range []string{yml, js} {
		cfg, err := NewManager(p).Parse()
		if err != nil {
			t.Fatalf("Parse(%s): %v", filepath.Base(p), err)
		}
		if cfg.WhatsApp.PhoneNumberID != "111" || cfg.WhatsApp.RatePerSec != 5 {
			t.Fatalf("%s: unexpected whatsapp block: %+v", filepath.Base(p), cfg.WhatsApp)
		}
		if cfg.Schedule == nil || cfg.Schedule.Timezone != "Asia/Kolkata" {
			t.Fatalf("%s: schedule not decoded: %+v", filepath.Base(p), cfg.Schedule)
		}
		d, err := cfg.Delay()
		if err != nil || d != 500*time.Millisecond {
			t.Fatalf("%s: Delay()=%v,%v", filepath.Base(p), d, err)
		}
	}
}

func TestParseRejectsUnknownAndTrailing(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown_top.json": `{"whatsap":{}}`,
		"unknown_wa.yaml":  "whatsapp:\n  acess_token: typo\n",
		"trailing.json":    `{} {}`,
		"broken.yaml":      "whatsapp: [\n",
	}
	for name, body := range cases {
		p := writeFile(t, dir, name, body)
		if _, err := NewManager(p).Parse(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseMissingOrEmptyFile(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{filepath.Join(dir, "absent.yaml"), writeFile(t, dir, "empty.yaml", "  \n")} {
		cfg, err := NewManager(p).Parse()
		if err != nil {
			t.Fatalf("Parse(%s): %v", filepath.Base(p), err)
		}
		if cfg == nil {
			t.Fatalf("Parse(%s): nil config", filepath.Base(p))
		}
	}
}

func TestLoadAppliesEnvAndDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	p := writeFile(t, dir, "c.yaml", "whatsapp:\n  phone_number_id: YOUR_PHONE_NUMBER_ID_HERE\n  access_token: YOUR_ACCESS_TOKEN_HERE\n")
	env := writeFile(t, dir, ".env", EnvPhoneNumberID+"=999\n"+EnvAccessToken+"=from-dotenv\n")
	t.Setenv(EnvAccessToken, "from-process")

	m := NewManager(p)
	m.SetEnvFile(env)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WhatsApp.PhoneNumberID != "999" {
		t.Fatalf("dotenv not applied: %q", cfg.WhatsApp.PhoneNumberID)
	}
	// process env wins over the dotenv file
	if cfg.WhatsApp.AccessToken != "from-process" {
		t.Fatalf("access token=%q", cfg.WhatsApp.AccessToken)
	}
	if cfg.WhatsApp.APIVersion != DefaultAPIVersion || cfg.WhatsApp.CountryCode != DefaultCountryCode || cfg.Input.Path != DefaultInputPath {
		t.Fatalf("defaults not applied: %+v %+v", cfg.WhatsApp, cfg.Input)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestApplyEnvTelegramToken(t *testing.T) {
	cfg := &Config{}
	lookup := func(k string) (string, bool) {
		if k == EnvTelegramToken {
			return " 123:abc ", true
		}
		return "", false
	}
	ApplyEnv(cfg, lookup)
	if cfg.Report == nil || cfg.Report.Telegram.Token != "123:abc" {
		t.Fatalf("telegram token not applied: %+v", cfg.Report)
	}
}

func TestIsPlaceholder(t *testing.T) {
	cases := map[string]bool{
		"":                          true,
		"   ":                       true,
		"YOUR_PHONE_NUMBER_ID_HERE": true,
		"your_token_here":           true,
		"1234567890":                false,
		"YOUR_OWN":                  false,
	}
	for in, want := range cases {
		if got := IsPlaceholder(in); got != want {
			t.Fatalf("IsPlaceholder(%q)=%v want %v", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{WhatsApp: WhatsAppConfig{PhoneNumberID: "1", AccessToken: "t"}}
		c.ApplyDefaults()
		return c
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "placeholder id", mutate: func(c *Config) { c.WhatsApp.PhoneNumberID = PlaceholderPhoneNumberID }, field: "phone_number_id"},
		{name: "empty token", mutate: func(c *Config) { c.WhatsApp.AccessToken = "" }, field: "access_token"},
		{name: "country code", mutate: func(c *Config) { c.WhatsApp.CountryCode = "+91" }, field: "country_code"},
		{name: "bad delay", mutate: func(c *Config) { c.Dispatch.Delay = "2" }, field: "dispatch.delay"},
		{name: "bad timeout", mutate: func(c *Config) { c.WhatsApp.Timeout = "-1s" }, field: "whatsapp.timeout"},
		{name: "negative rate", mutate: func(c *Config) { c.WhatsApp.RatePerSec = -1 }, field: "rate_per_sec"},
		{name: "telegram without chat", mutate: func(c *Config) {
			c.Report = &ReportConfig{Telegram: TelegramReport{Enabled: true, Token: "x"}}
		}, field: "report.telegram"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("error %q does not name %s", err, tc.field)
			}
		})
	}
}

func TestDelayZeroDisablesPause(t *testing.T) {
	c := &Config{Dispatch: DispatchConfig{Delay: "0s"}}
	d, err := c.Delay()
	if err != nil || d != 0 {
		t.Fatalf("Delay()=%v,%v want 0", d, err)
	}
	c.Dispatch.Delay = ""
	if d, _ := c.Delay(); d != DefaultDelay {
		t.Fatalf("default delay=%v", d)
	}
}

func TestApplyDefaultsEnablesLogSinks(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults()
	if !c.Logging.FileEnabled() || c.Logging.File.Path != DefaultLogPath {
		t.Fatalf("file sink not defaulted: %+v", c.Logging.File)
	}
	if !c.Logging.ConsoleEnabled() {
		t.Fatalf("console sink not defaulted")
	}

	off := &Config{Logging: LoggingConfig{File: LoggingFile{Enabled: Bool(false)}}}
	off.ApplyDefaults()
	if off.Logging.FileEnabled() || off.Logging.File.Path != "" {
		t.Fatalf("explicit file.enabled=false overridden: %+v", off.Logging.File)
	}
}

func TestParseLoggingSwitches(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "logging:\n  console: false\n  file:\n    enabled: false\n")
	cfg, err := NewManager(p).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.ApplyDefaults()
	if cfg.Logging.ConsoleEnabled() || cfg.Logging.FileEnabled() {
		t.Fatalf("explicit switches lost: %+v", cfg.Logging)
	}
}
