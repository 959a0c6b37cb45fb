package config

// Config is the complete runtime configuration for a batch run.
//
// It is built once at startup and handed to constructors by value or pointer;
// nothing reads it through package-level state.
type Config struct {
	WhatsApp WhatsAppConfig  `json:"whatsapp"`
	Input    InputConfig     `json:"input"`
	Dispatch DispatchConfig  `json:"dispatch"`
	Logging  LoggingConfig   `json:"logging"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Report   *ReportConfig   `json:"report,omitempty"`
	Schedule *ScheduleConfig `json:"schedule,omitempty"`
}

// WhatsAppConfig holds the Cloud API credentials and request knobs.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type WhatsAppConfig struct {
	PhoneNumberID string `json:"phone_number_id"`
	AccessToken   string `json:"access_token"`
	APIVersion    string `json:"api_version,omitempty"`  // default: "v18.0"
	CountryCode   string `json:"country_code,omitempty"` // default: "91"
	BaseURL       string `json:"base_url,omitempty"`     // default: "https://graph.facebook.com"
	Timeout       string `json:"timeout,omitempty"`      // default: "30s"

	// RatePerSec is a static client-side ceiling. 0 disables it.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type InputConfig struct {
	Path  string `json:"path,omitempty"`  // default: "DOBscript.xlsx"
	Sheet string `json:"sheet,omitempty"` // xlsx only; default: first sheet
}

type DispatchConfig struct {
	// Delay is the fixed pause between two sends (Go duration string).
	Delay string `json:"delay,omitempty"` // default: "2s"
}

// LoggingConfig selects the log sinks. Unset switches default to on, so a run
// without a logging block still writes whatsapp_automation.log and the console.
type LoggingConfig struct {
	Level   string      `json:"level"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Path    string `json:"path"`
}

func (l LoggingConfig) ConsoleEnabled() bool { return l.Console == nil || *l.Console }

func (l LoggingConfig) FileEnabled() bool { return l.File.Enabled == nil || *l.File.Enabled }

// Bool returns a pointer to v for optional switches.
func Bool(v bool) *bool { return &v }

// StorageConfig controls the optional run audit trail.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/audit.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ReportConfig controls where the end-of-run summary is delivered besides stdout.
type ReportConfig struct {
	Telegram TelegramReport `json:"telegram"`
}

type TelegramReport struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token"` // never logged
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
}

// ScheduleConfig turns the one-shot run into a cron-driven daemon.
type ScheduleConfig struct {
	Cron     string `json:"cron,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
