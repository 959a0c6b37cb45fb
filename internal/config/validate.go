package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfiguration marks unset or placeholder settings. It is fatal and is
// reported before any file or network I/O.
var ErrConfiguration = errors.New("configuration not set")

const (
	DefaultAPIVersion  = "v18.0"
	DefaultCountryCode = "91"
	DefaultBaseURL     = "https://graph.facebook.com"
	DefaultInputPath   = "DOBscript.xlsx"
	DefaultLogPath     = "whatsapp_automation.log"
	DefaultTimeout     = 30 * time.Second
	DefaultDelay       = 2 * time.Second

	PlaceholderPhoneNumberID = "YOUR_PHONE_NUMBER_ID_HERE"
	PlaceholderAccessToken   = "YOUR_ACCESS_TOKEN_HERE"
)

// ApplyDefaults fills zero values. It never touches credentials.
func (c *Config) ApplyDefaults() {
	w := &c.WhatsApp
	if strings.TrimSpace(w.APIVersion) == "" {
		w.APIVersion = DefaultAPIVersion
	}
	if strings.TrimSpace(w.CountryCode) == "" {
		w.CountryCode = DefaultCountryCode
	}
	if strings.TrimSpace(w.BaseURL) == "" {
		w.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Input.Path) == "" {
		c.Input.Path = DefaultInputPath
	}
	if c.Logging.Console == nil {
		c.Logging.Console = Bool(true)
	}
	if c.Logging.File.Enabled == nil {
		c.Logging.File.Enabled = Bool(true)
	}
	if c.Logging.FileEnabled() && strings.TrimSpace(c.Logging.File.Path) == "" {
		c.Logging.File.Path = DefaultLogPath
	}
}

// IsPlaceholder reports whether v is empty or one of the template values
// shipped in the sample config (YOUR_..._HERE).
func IsPlaceholder(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return true
	}
	u := strings.ToUpper(s)
	return strings.HasPrefix(u, "YOUR_") && strings.HasSuffix(u, "_HERE")
}

// ValidateCredentials checks the settings every send depends on.
func (c *Config) ValidateCredentials() error {
	if IsPlaceholder(c.WhatsApp.PhoneNumberID) {
		return fmt.Errorf("%w: whatsapp.phone_number_id", ErrConfiguration)
	}
	if IsPlaceholder(c.WhatsApp.AccessToken) {
		return fmt.Errorf("%w: whatsapp.access_token", ErrConfiguration)
	}
	cc := strings.TrimSpace(c.WhatsApp.CountryCode)
	if cc == "" || strings.Trim(cc, "0123456789") != "" {
		return fmt.Errorf("%w: whatsapp.country_code must be digits, got %q", ErrConfiguration, cc)
	}
	return nil
}

// Validate checks everything that can be checked without I/O.
func (c *Config) Validate() error {
	if err := c.ValidateCredentials(); err != nil {
		return err
	}
	if _, err := c.Delay(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if c.WhatsApp.RatePerSec < 0 {
		return fmt.Errorf("%w: whatsapp.rate_per_sec must be >= 0", ErrConfiguration)
	}
	if r := c.Report; r != nil && r.Telegram.Enabled {
		if IsPlaceholder(r.Telegram.Token) || r.Telegram.ChatID == 0 {
			return fmt.Errorf("%w: report.telegram requires token and chat_id", ErrConfiguration)
		}
	}
	return nil
}

// Delay returns the inter-message pause. An explicit "0s" disables it;
// an empty value means DefaultDelay.
func (c *Config) Delay() (time.Duration, error) {
	if strings.TrimSpace(c.Dispatch.Delay) == "" {
		return DefaultDelay, nil
	}
	return ParseDurationField("dispatch.delay", c.Dispatch.Delay)
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("whatsapp.timeout", c.WhatsApp.Timeout, DefaultTimeout)
}
