package contacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	logx "wabatch/pkg/logx"
)

// Loader reads a contact source from disk.
type Loader struct {
	// Sheet selects the xlsx worksheet; empty means the first one.
	Sheet string
	Log   logx.Logger
}

func NewLoader(sheet string, log logx.Logger) *Loader {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loader{Sheet: sheet, Log: log}
}

// Load returns the rows of path that pass f, in source order.
//
// Errors wrap ErrSourceNotFound or ErrSourceRead. An empty result is not an error.
func (l *Loader) Load(path string, f Filter) ([]Contact, error) {
	log := l.Log
	if log.IsZero() {
		log = logx.Nop()
	}

	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Error("contact file not found", logx.String("path", path))
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceRead, path)
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = readXLSX(path, l.Sheet)
	case ".csv", ".txt":
		rows, err = readCSV(path)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		log.Error("error reading contact file", logx.String("path", path), logx.Err(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, path, err)
	}

	all, err := fromRows(rows)
	if err != nil {
		log.Error("error reading contact file", logx.String("path", path), logx.Err(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, path, err)
	}
	log.Info("contacts loaded", logx.String("path", path), logx.Int("count", len(all)))

	if !f.Active() {
		return all, nil
	}
	out := f.Apply(all)
	log.Info("contacts filtered by date",
		logx.String("date", f.Date.Format("2006-01-02")),
		logx.Int("count", len(out)),
	)
	return out, nil
}

type columns struct {
	name, phone, message, dob int
}

func locateColumns(header []string) (columns, error) {
	cols := columns{name: -1, phone: -1, message: -1, dob: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, ColName):
			cols.name = i
		case strings.EqualFold(h, ColPhone):
			cols.phone = i
		case strings.EqualFold(h, ColMessage):
			cols.message = i
		case strings.EqualFold(h, ColDateOfBirth):
			cols.dob = i
		}
	}
	var missing []string
	if cols.name < 0 {
		missing = append(missing, ColName)
	}
	if cols.phone < 0 {
		missing = append(missing, ColPhone)
	}
	if cols.message < 0 {
		missing = append(missing, ColMessage)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// fromRows maps a header row plus data rows to contacts. Blank rows are skipped.
func fromRows(rows [][]string) ([]Contact, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := locateColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]Contact, 0, len(rows)-1)
	for i, r := range rows[1:] {
		if blank(r) {
			continue
		}
		c := Contact{
			Row:     i + 2,
			Name:    strings.TrimSpace(cell(r, cols.name)),
			Phone:   NormalizePhone(cell(r, cols.phone)),
			Message: cell(r, cols.message),
		}
		if cols.dob >= 0 {
			if d, ok := ParseDate(cell(r, cols.dob)); ok {
				c.DateOfBirth = d
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func cell(r []string, i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

func blank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
