// Package schedule repeats a batch on a cron expression for long-running
// deployments (e.g. a daily birthday greeting under systemd).
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	logx "wabatch/pkg/logx"
)

// Job runs one batch for the tick at.
type Job func(ctx context.Context, at time.Time)

type Config struct {
	Cron     string
	Timezone string
}

// Runner owns a cron instance with a single entry.
type Runner struct {
	spec   string
	sched  cron.Schedule
	loc    *time.Location
	parser cron.Parser
	log    logx.Logger

	// notify reports lifecycle state to the service manager.
	notify func(state string) (bool, error)
}

func New(cfg Config, log logx.Logger) (*Runner, error) {
	spec := strings.TrimSpace(cfg.Cron)
	if spec == "" {
		return nil, errors.New("schedule: cron expression is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Runner{
		spec: spec,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		log:    log,
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	sched, err := r.parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid cron %q: %w", spec, err)
	}
	r.sched = sched
	r.loc = loadLocation(cfg.Timezone, log)
	return r, nil
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// Next returns the first activation strictly after t.
func (r *Runner) Next(t time.Time) time.Time { return r.sched.Next(t.In(r.loc)) }

// Run blocks until ctx is done. Ticks that arrive while a batch is still running
// are skipped. Run waits for an in-flight batch before returning.
func (r *Runner) Run(ctx context.Context, job Job) error {
	if job == nil {
		return errors.New("schedule: nil job")
	}
	c := cron.New(
		cron.WithParser(r.parser),
		cron.WithLocation(r.loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: r.log})),
	)
	id, err := c.AddFunc(r.spec, func() {
		at := time.Now().In(r.loc)
		r.log.Info("scheduled run triggered", logx.Time("at", at))
		job(ctx, at)
	})
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	c.Start()
	r.log.Info("scheduler started",
		logx.String("cron", r.spec),
		logx.String("tz", r.loc.String()),
		logx.Time("next", c.Entry(id).Next),
	)
	r.sdNotify(daemon.SdNotifyReady)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		r.sdNotify(daemon.SdNotifyStopping)
		<-c.Stop().Done()
		r.log.Info("scheduler stopped")
		return nil
	})
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		g.Go(func() error {
			t := time.NewTicker(interval / 2)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					r.sdNotify(daemon.SdNotifyWatchdog)
				}
			}
		})
	}
	return g.Wait()
}

func (r *Runner) sdNotify(state string) {
	if r.notify == nil {
		return
	}
	if _, err := r.notify(state); err != nil {
		r.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
	}
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
