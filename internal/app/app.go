package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"wabatch/internal/config"
	"wabatch/internal/contacts"
	"wabatch/internal/dispatch"
	"wabatch/internal/report"
	"wabatch/internal/schedule"
	"wabatch/internal/storage"
	"wabatch/internal/whatsapp"
	logx "wabatch/pkg/logx"
)

// App wires the config into the loader, client, dispatcher and reporters.
type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	client   *whatsapp.Client
	disp     *dispatch.Dispatcher
	notifier report.Notifier

	out io.Writer
}

// Overrides are CLI values that take precedence over the config file.
type Overrides struct {
	// EnvFile is a dotenv file loaded before the env overlay; missing is fine.
	EnvFile string
	Cron    string
}

func New(cfgPath string, ov Overrides) (*App, error) {
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "config"))
	cfgm := config.NewManager(cfgPath)
	cfgm.SetLogger(bootLog)
	cfgm.SetEnvFile(ov.EnvFile)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	if strings.TrimSpace(ov.Cron) != "" {
		if cfg.Schedule == nil {
			cfg.Schedule = &config.ScheduleConfig{}
		}
		cfg.Schedule.Cron = ov.Cron
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds the App from an already loaded config. The config is
// validated first; nothing else is opened when it is invalid.
func NewWithConfig(cfg *config.Config) (*App, error) {
	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	a := &App{cfg: cfg, log: log, logs: logSvc, out: logx.Stdout()}

	// Placeholder credentials abort here, before the audit store touches disk.
	if err := cfg.Validate(); err != nil {
		log.Error("configuration invalid", logx.Err(err))
		_ = a.Close()
		return nil, err
	}

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.store = st
		log.Info("audit storage enabled", logx.String("driver", sc.Driver))
	}

	wcfg, err := mapWhatsAppConfig(cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	a.client = whatsapp.New(wcfg, log.With(logx.String("comp", "whatsapp")))

	if r := cfg.Report; r != nil && r.Telegram.Enabled {
		tg, err := report.NewTelegram(report.TelegramConfig{
			Token:    r.Telegram.Token,
			ChatID:   r.Telegram.ChatID,
			ThreadID: r.Telegram.ThreadID,
		}, log.With(logx.String("comp", "report")))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
		a.notifier = tg
	}

	loader := contacts.NewLoader(cfg.Input.Sheet, log.With(logx.String("comp", "contacts")))
	opts := []dispatch.Option{dispatch.WithLogger(log.With(logx.String("comp", "dispatch")))}
	if a.store != nil {
		opts = append(opts, dispatch.WithStore(a.store))
	}
	a.disp = dispatch.New(cfg, loader, a.client, opts...)
	return a, nil
}

// SetOutput redirects the human-readable banner and summary.
func (a *App) SetOutput(w io.Writer) { a.out = w }

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Dispatcher() *dispatch.Dispatcher { return a.disp }

// Scheduled reports whether a cron expression is configured.
func (a *App) Scheduled() bool {
	return a.cfg.Schedule != nil && strings.TrimSpace(a.cfg.Schedule.Cron) != ""
}

// RunOnce executes a batch and prints its summary. The summary is printed and
// reported even when rows failed; fatal errors are returned as-is.
func (a *App) RunOnce(ctx context.Context, opt dispatch.Options) (*dispatch.Summary, error) {
	sum, err := a.disp.Run(ctx, opt)
	if err != nil {
		return nil, err
	}
	report.Print(a.out, sum)
	a.logAuditCounts(ctx, sum)

	if a.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		if err := a.notifier.Notify(nctx, sum); err != nil {
			a.log.Warn("summary notification failed", logx.Err(err))
		}
		cancel()
	}
	return sum, nil
}

// Schedule runs a batch on every cron tick until ctx is done. A resolve func
// computes the filter date for each tick (e.g. "today").
func (a *App) Schedule(ctx context.Context, opt dispatch.Options, resolve func(at time.Time) time.Time) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	sc := a.cfg.Schedule
	if sc == nil {
		return errors.New("schedule: not configured")
	}
	r, err := schedule.New(schedule.Config{Cron: sc.Cron, Timezone: sc.Timezone}, a.log.With(logx.String("comp", "schedule")))
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return r.Run(ctx, func(ctx context.Context, at time.Time) {
		o := opt
		if resolve != nil {
			o.Date = resolve(at)
		}
		if _, err := a.RunOnce(ctx, o); err != nil {
			a.log.Error("scheduled run failed", logx.Err(err))
		}
	})
}

// SendOne delivers a single message outside of a batch.
func (a *App) SendOne(ctx context.Context, phone, message string) (whatsapp.Outcome, error) {
	return a.disp.SendOne(ctx, phone, message)
}

func (a *App) logAuditCounts(ctx context.Context, sum *dispatch.Summary) {
	sc, ok := a.store.(storage.StatusCounter)
	if !ok || sum == nil {
		return
	}
	counts, err := sc.CountByStatus(ctx, sum.RunID)
	if err != nil {
		a.log.Warn("audit count failed", logx.Err(err))
		return
	}
	a.log.Debug("audit recorded", logx.String("run_id", sum.RunID), logx.Any("counts", counts))
}

func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}
