package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"wabatch/internal/config"
	"wabatch/internal/contacts"
	"wabatch/internal/storage"
	"wabatch/internal/whatsapp"
	logx "wabatch/pkg/logx"
)

const previewLen = 100

// Dispatcher walks the contact rows in order and sends one message per row,
// pausing a fixed delay between sends.
//
// It is not safe for concurrent Run calls; a batch is strictly sequential.
type Dispatcher struct {
	cfg    *config.Config
	source ContactSource
	sender Sender

	log   logx.Logger
	store storage.Store
	sleep Sleeper
	now   func() time.Time
}

type Option func(*Dispatcher)

func WithLogger(log logx.Logger) Option { return func(d *Dispatcher) { d.log = log } }

// WithStore records every row outcome in the audit trail (best-effort).
func WithStore(st storage.Store) Option { return func(d *Dispatcher) { d.store = st } }

func WithSleeper(s Sleeper) Option { return func(d *Dispatcher) { d.sleep = s } }

func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.now = now } }

func New(cfg *config.Config, source ContactSource, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:    cfg,
		source: source,
		sender: sender,
		sleep:  time.Sleep,
		now:    time.Now,
	}
	for _, o := range opts {
		if o != nil {
			o(d)
		}
	}
	if d.log.IsZero() {
		d.log = logx.Nop()
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Dispatcher) validate() error {
	if d.cfg == nil {
		return fmt.Errorf("%w: no configuration", config.ErrConfiguration)
	}
	return d.cfg.Validate()
}

// Run executes one batch.
//
// Only configuration and source errors are returned; they abort before any
// message is sent. Row failures are folded into the Summary, which is returned
// even when every row failed. ctx is checked between rows; the pause itself is
// not interrupted.
func (d *Dispatcher) Run(ctx context.Context, opt Options) (*Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.NewString()
	log := d.log.With(logx.String("run_id", runID))

	log.Info("starting whatsapp batch",
		logx.Bool("test", opt.Test),
		logx.String("date", d.now().Format("2006-01-02 15:04:05")),
	)

	if err := d.validate(); err != nil {
		log.Error("configuration invalid", logx.Err(err))
		return nil, err
	}
	delay, err := d.cfg.Delay()
	if err != nil {
		log.Error("configuration invalid", logx.Err(err))
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}

	path := strings.TrimSpace(opt.File)
	if path == "" {
		path = d.cfg.Input.Path
	}
	filter := contacts.Filter{Date: opt.Date}
	rows, err := d.source.Load(path, filter)
	if err != nil {
		log.Error("loading contacts failed", logx.String("path", path), logx.Err(err))
		return nil, err
	}

	sum := &Summary{
		RunID:     runID,
		Test:      opt.Test,
		Total:     len(rows),
		Details:   make([]Detail, 0, len(rows)),
		StartedAt: d.now(),
	}
	if len(rows) == 0 {
		log.Warn("no contacts to process", logx.String("path", path))
		sum.FinishedAt = d.now()
		return sum, nil
	}

	for i, c := range rows {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			sum.Skipped = len(rows) - i
			log.Warn("run cancelled", logx.Int("remaining", sum.Skipped), logx.Err(err))
			break
		}

		log.Info(fmt.Sprintf("processing [%d/%d]: %s", i+1, len(rows), c.Name), logx.Int("row", c.Row))

		var det Detail
		if opt.Test {
			det = d.rehearse(log, c)
			sum.Sent++
		} else {
			det = d.deliver(ctx, c)
			if det.Status == StatusSuccess {
				sum.Sent++
			} else {
				sum.Failed++
			}
		}
		sum.Details = append(sum.Details, det)
		d.audit(ctx, log, runID, opt.Test, det)

		if !opt.Test && i < len(rows)-1 && delay > 0 {
			log.Info("waiting before next message", logx.Duration("delay", delay))
			d.sleep(delay)
		}
	}

	sum.FinishedAt = d.now()
	logSummary(log, sum)
	return sum, nil
}

func (d *Dispatcher) rehearse(log logx.Logger, c contacts.Contact) Detail {
	formatted := d.sender.FormatPhone(c.Phone)
	if missing := c.Missing(); len(missing) > 0 {
		log.Warn("[TEST MODE] row incomplete", logx.Int("row", c.Row), logx.String("missing", strings.Join(missing, ",")))
	}
	log.Info("[TEST MODE] would send",
		logx.String("phone", formatted),
		logx.String("preview", preview(c.Message)),
	)
	return Detail{Row: c.Row, Name: c.Name, Phone: c.Phone, FormattedPhone: formatted, Status: StatusTest}
}

func (d *Dispatcher) deliver(ctx context.Context, c contacts.Contact) Detail {
	det := Detail{Row: c.Row, Name: c.Name, Phone: c.Phone}
	if missing := c.Missing(); len(missing) > 0 {
		err := fmt.Errorf("%w: row %d missing %s", ErrRowValidation, c.Row, strings.Join(missing, ", "))
		d.log.Error("row skipped", logx.Int("row", c.Row), logx.Err(err))
		det.Status = StatusFailed
		det.Error = err.Error()
		if c.Phone != "" {
			det.FormattedPhone = d.sender.FormatPhone(c.Phone)
		}
		return det
	}

	out := d.sender.Send(ctx, c.Phone, c.Message)
	det.FormattedPhone = out.Phone
	det.Outcome = &out
	if out.Success {
		det.Status = StatusSuccess
	} else {
		det.Status = StatusFailed
		det.Error = out.Error
	}
	return det
}

// SendOne delivers a single ad-hoc message after the same configuration check Run does.
func (d *Dispatcher) SendOne(ctx context.Context, phone, message string) (whatsapp.Outcome, error) {
	if err := d.validate(); err != nil {
		d.log.Error("configuration invalid", logx.Err(err))
		return whatsapp.Outcome{}, err
	}
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(message) == "" {
		return whatsapp.Outcome{}, fmt.Errorf("%w: phone and message are required", ErrRowValidation)
	}
	return d.sender.Send(ctx, phone, message), nil
}

func (d *Dispatcher) audit(ctx context.Context, log logx.Logger, runID string, test bool, det Detail) {
	if d.store == nil {
		return
	}
	e := storage.AuditEntry{
		At:     d.now(),
		RunID:  runID,
		Row:    det.Row,
		Name:   det.Name,
		Phone:  det.FormattedPhone,
		Status: det.Status,
		Error:  det.Error,
		Test:   test,
	}
	if det.Outcome != nil {
		e.MessageID = det.Outcome.MessageID
		e.ErrorCode = det.Outcome.ErrorCode
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := d.store.AppendAudit(actx, e); err != nil {
		log.Warn("audit append failed", logx.Int("row", det.Row), logx.Err(err))
	}
}

func logSummary(log logx.Logger, s *Summary) {
	log.Info("batch summary",
		logx.Int("total", s.Total),
		logx.Int("sent", s.Sent),
		logx.Int("failed", s.Failed),
		logx.Int("skipped", s.Skipped),
		logx.Duration("took", s.Duration()),
	)
}

func preview(msg string) string {
	if utf8.RuneCountInString(msg) <= previewLen {
		return msg
	}
	r := []rune(msg)
	return string(r[:previewLen]) + "..."
}
