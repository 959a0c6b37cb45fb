package storage

import (
	"context"
	"errors"
	"strings"

	logx "wabatch/pkg/logx"
)

// Store is the persistence API used by the dispatcher.
type Store interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// StatusCounter is implemented by stores that can aggregate a run's entries.
type StatusCounter interface {
	CountByStatus(ctx context.Context, runID string) (map[string]int, error)
}
