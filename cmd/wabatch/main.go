package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wabatch/internal/app"
	"wabatch/internal/dispatch"
	"wabatch/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath string
		envFile string
		test    bool
		dateArg string
		file    string
		to      string
		message string
		cronArg string
	)
	flag.StringVar(&cfgPath, "config", "./wabatch.yaml", "path to config (yaml or json)")
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file with WHATSAPP_* credentials")
	flag.BoolVar(&test, "test", false, "rehearse the batch without calling the API")
	flag.StringVar(&dateArg, "date", "", "only rows whose date of birth is this day (YYYY-MM-DD or \"today\")")
	flag.StringVar(&file, "file", "", "contacts file (overrides input.path)")
	flag.StringVar(&to, "to", "", "send a single message to this phone instead of a batch")
	flag.StringVar(&message, "message", "", "message text for --to")
	flag.StringVar(&cronArg, "cron", "", "run on this cron schedule instead of once")
	flag.Parse()

	date, err := parseDate(dateArg, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return dispatch.ExitFatal
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath, app.Overrides{EnvFile: envFile, Cron: cronArg})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return dispatch.ExitFatal
	}
	defer func() { _ = a.Close() }()

	if strings.TrimSpace(to) != "" {
		out, err := a.SendOne(ctx, to, message)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			return dispatch.ExitFatal
		}
		if !out.Success {
			fmt.Fprintf(os.Stderr, "send to %s failed: %s\n", out.Phone, out.Error)
			return dispatch.ExitPartial
		}
		fmt.Printf("sent to %s (message id %s)\n", out.Phone, out.MessageID)
		return dispatch.ExitOK
	}

	opt := dispatch.Options{File: file, Date: date, Test: test}
	report.Banner(os.Stdout, test)

	if a.Scheduled() {
		var resolve func(time.Time) time.Time
		if strings.EqualFold(strings.TrimSpace(dateArg), "today") {
			resolve = dayOf
		}
		if err := a.Schedule(ctx, opt, resolve); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			return dispatch.ExitFatal
		}
		return dispatch.ExitOK
	}

	sum, err := a.RunOnce(ctx, opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
	}
	return dispatch.ExitCode(sum, err)
}

// parseDate accepts "", "today" or an ISO calendar date.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return time.Time{}, nil
	case strings.EqualFold(s, "today"):
		return dayOf(now), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD or today", s)
	}
	return t, nil
}

// dayOf keeps only the local calendar day of t, at midnight UTC like parsed cells.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
