// Package report renders a finished run for people: the console banner and an
// optional Telegram message to an operator chat.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"wabatch/internal/dispatch"
)

const rule = "============================================================"

// Notifier delivers a rendered summary somewhere outside the process.
type Notifier interface {
	Notify(ctx context.Context, s *dispatch.Summary) error
}

// Banner is printed once at startup.
func Banner(w io.Writer, test bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("🟢", 30))
	fmt.Fprintln(w, "  WHATSAPP BUSINESS API MESSAGE SENDER")
	fmt.Fprintln(w, strings.Repeat("🟢", 30))
	fmt.Fprintln(w)
	if test {
		fmt.Fprintln(w, "⚠️  RUNNING IN TEST MODE - No messages will be sent")
		fmt.Fprintln(w)
	}
}

// Render formats the totals and the failed rows.
func Render(s *dispatch.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(rule + "\n")
	if s.Test {
		b.WriteString("📊 SUMMARY (TEST MODE)\n")
	} else {
		b.WriteString("📊 SUMMARY\n")
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "   Total contacts: %d\n", s.Total)
	fmt.Fprintf(&b, "   Successfully sent: %d\n", s.Sent)
	fmt.Fprintf(&b, "   Failed: %d\n", s.Failed)
	if s.Cancelled {
		fmt.Fprintf(&b, "   Not processed (cancelled): %d\n", s.Skipped)
	}
	if failed := s.FailedDetails(); len(failed) > 0 {
		b.WriteString("   Failures:\n")
		for _, d := range failed {
			code := ""
			if d.Outcome != nil && d.Outcome.ErrorCode != "" {
				code = "[" + d.Outcome.ErrorCode + "] "
			}
			fmt.Fprintf(&b, "   - row %d %s (%s): %s%s\n", d.Row, d.Name, phoneOf(d), code, d.Error)
		}
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// Print writes Render(s) followed by the completion line.
func Print(w io.Writer, s *dispatch.Summary) {
	fmt.Fprint(w, Render(s))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✅ Automation complete!")
}

func phoneOf(d dispatch.Detail) string {
	if d.FormattedPhone != "" {
		return d.FormattedPhone
	}
	return d.Phone
}
