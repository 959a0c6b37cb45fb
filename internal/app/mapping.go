package app

import (
	"fmt"
	"strings"
	"time"

	"wabatch/internal/config"
	"wabatch/internal/storage"
	"wabatch/internal/whatsapp"
	logx "wabatch/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.ConsoleEnabled() || !lc.FileEnabled(),
		File: logx.FileConfig{
			Enabled: lc.FileEnabled(),
			Path:    lc.File.Path,
		},
	}
}

func mapWhatsAppConfig(cfg *config.Config) (whatsapp.Config, error) {
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return whatsapp.Config{}, err
	}
	w := cfg.WhatsApp
	return whatsapp.Config{
		PhoneNumberID: strings.TrimSpace(w.PhoneNumberID),
		AccessToken:   strings.TrimSpace(w.AccessToken),
		APIVersion:    strings.TrimSpace(w.APIVersion),
		CountryCode:   strings.TrimSpace(w.CountryCode),
		BaseURL:       strings.TrimSpace(w.BaseURL),
		Timeout:       timeout,
		RatePerSec:    w.RatePerSec,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.TrimSpace(sc.Driver)
	if driver == "" || strings.EqualFold(driver, "none") {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	dl := strings.ToLower(driver)
	switch dl {
	case "file":
		if path == "" {
			path = "./data/sends.jsonl"
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: dl, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", driver)
	}
}
