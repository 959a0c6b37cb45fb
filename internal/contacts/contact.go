package contacts

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("contact source not found")
	// ErrSourceRead covers every other open/parse failure of the source.
	ErrSourceRead = errors.New("contact source unreadable")
)

// Column headers, matched case-insensitively after trimming.
const (
	ColName        = "Name"
	ColPhone       = "Phone"
	ColMessage     = "Message"
	ColDateOfBirth = "Date of Birth"
)

// Contact is one row of the source. It is not modified after loading.
type Contact struct {
	// Row is the 1-based row number in the source, header included.
	Row int

	Name    string
	Phone   string
	Message string

	// DateOfBirth is the zero time when the column is absent, blank or unparseable.
	DateOfBirth time.Time
}

func (c Contact) HasDateOfBirth() bool { return !c.DateOfBirth.IsZero() }

// Missing lists the required fields that are blank. Message is kept verbatim
// and only checked here for whitespace.
func (c Contact) Missing() []string {
	var out []string
	if c.Name == "" {
		out = append(out, ColName)
	}
	if c.Phone == "" {
		out = append(out, ColPhone)
	}
	if strings.TrimSpace(c.Message) == "" {
		out = append(out, ColMessage)
	}
	return out
}

// Filter narrows the loaded rows. The zero value keeps every row.
type Filter struct {
	// Date keeps only rows whose date of birth falls on the same calendar day.
	Date time.Time
}

func (f Filter) Active() bool { return !f.Date.IsZero() }

// Match reports whether c passes the filter.
func (f Filter) Match(c Contact) bool {
	if !f.Active() {
		return true
	}
	if !c.HasDateOfBirth() {
		return false
	}
	return SameDay(c.DateOfBirth, f.Date)
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(in []Contact) []Contact {
	if !f.Active() {
		return in
	}
	out := make([]Contact, 0, len(in))
	for _, c := range in {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// SameDay compares calendar dates, ignoring time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
