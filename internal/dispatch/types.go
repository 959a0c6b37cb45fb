package dispatch

import (
	"context"
	"errors"
	"time"

	"wabatch/internal/contacts"
	"wabatch/internal/whatsapp"
)

// Row statuses recorded in Detail.Status.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusTest    = "TEST"
)

// ErrRowValidation marks a row that lacks a required field. It fails that row only.
var ErrRowValidation = errors.New("row validation failed")

// ContactSource produces the ordered rows for a run.
type ContactSource interface {
	Load(path string, f contacts.Filter) ([]contacts.Contact, error)
}

// Sender delivers one message. *whatsapp.Client implements it.
type Sender interface {
	FormatPhone(raw string) string
	Send(ctx context.Context, phone, message string) whatsapp.Outcome
}

// Sleeper blocks for d. The default is time.Sleep.
type Sleeper func(d time.Duration)

// Options selects what a single run does.
type Options struct {
	// File overrides the configured input path.
	File string
	// Date, when non-zero, keeps only rows whose date of birth is that day.
	Date time.Time
	// Test runs everything except the network call.
	Test bool
}

// Detail is the per-row record of a run.
type Detail struct {
	Row            int               `json:"row"`
	Name           string            `json:"name"`
	Phone          string            `json:"phone"`
	FormattedPhone string            `json:"formatted_phone,omitempty"`
	Status         string            `json:"status"`
	Error          string            `json:"error,omitempty"`
	Outcome        *whatsapp.Outcome `json:"details,omitempty"`
}

// Summary aggregates a run. Sent+Failed+Skipped == Total once Run returns.
type Summary struct {
	RunID      string    `json:"run_id"`
	Test       bool      `json:"test"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped,omitempty"`
	Cancelled  bool      `json:"cancelled,omitempty"`
	Details    []Detail  `json:"details"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s == nil || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedDetails returns the rows that did not go out.
func (s *Summary) FailedDetails() []Detail {
	if s == nil {
		return nil
	}
	var out []Detail
	for _, d := range s.Details {
		if d.Status == StatusFailed {
			out = append(out, d)
		}
	}
	return out
}
