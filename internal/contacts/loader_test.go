package contacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	logx "wabatch/pkg/logx"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadCSVPreservesOrder(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "Name,Phone,Message\n"+
		"Alice,9876543210,Hi\n"+
		"Bob,+91 987-654-3211,Hey\n"+
		"Cara,919876543212,Yo\n")

	got, err := NewLoader("", logx.Nop()).Load(path, Filter{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"Alice", "Bob", "Cara"}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("row %d: Name = %q, want %q", i, got[i].Name, name)
		}
		if got[i].Row != i+2 {
			t.Fatalf("row %d: Row = %d, want %d", i, got[i].Row, i+2)
		}
	}
	if got[1].Phone != "+91 987-654-3211" {
		t.Fatalf("text phone should be kept verbatim, got %q", got[1].Phone)
	}
}

func TestLoadHeaderIsCaseInsensitiveAndSkipsBlankRows(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "\ufeff name , PHONE ,message,date of birth\n"+
		"Alice,9876543210.0,Hi,1990-05-17\n"+
		",,,\n"+
		"Bob,9.876543211E9,Hey,\n")

	got, err := NewLoader("", logx.Nop()).Load(path, Filter{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Phone != "9876543210" || got[1].Phone != "9876543211" {
		t.Fatalf("unexpected phones: %q %q", got[0].Phone, got[1].Phone)
	}
	if !got[0].HasDateOfBirth() || got[1].HasDateOfBirth() {
		t.Fatalf("unexpected date presence: %+v", got)
	}
	if got[1].Row != 4 {
		t.Fatalf("Row = %d, want 4", got[1].Row)
	}
}

func TestLoadDateFilter(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "Name,Phone,Message,Date of Birth\n"+
		"Alice,1,Hi,1990-05-17\n"+
		"Bob,2,Hey,17/05/1990\n"+
		"Cara,3,Yo,1991-01-01\n"+
		"Dan,4,Sup,not a date\n"+
		"Eve,5,Hello,12/25/1990\n"+
		"Finn,6,Hola,05/03/1990\n")

	day := time.Date(1990, time.May, 17, 15, 30, 0, 0, time.Local)
	got, err := NewLoader("", logx.Nop()).Load(path, Filter{Date: day})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alice" || got[1].Name != "Bob" {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	xmas, err := NewLoader("", logx.Nop()).Load(path, Filter{Date: time.Date(1990, 12, 25, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(xmas) != 1 || xmas[0].Name != "Eve" {
		t.Fatalf("month-first date not matched: %+v", xmas)
	}

	may3, err := NewLoader("", logx.Nop()).Load(path, Filter{Date: time.Date(1990, 5, 3, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(may3) != 1 || may3[0].Name != "Finn" {
		t.Fatalf("ambiguous date should read month-first: %+v", may3)
	}

	none, err := NewLoader("", logx.Nop()).Load(path, Filter{Date: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no rows, got %d", len(none))
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := NewLoader("", logx.Nop()).Load(filepath.Join(dir, "missing.xlsx"), Filter{})
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	bad := writeCSV(t, "Name,Message\nAlice,Hi\n")
	_, err = NewLoader("", logx.Nop()).Load(bad, Filter{})
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("expected ErrSourceRead for missing column, got %v", err)
	}

	junk := filepath.Join(dir, "junk.xlsx")
	if err := os.WriteFile(junk, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewLoader("", logx.Nop()).Load(junk, Filter{})
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("expected ErrSourceRead for corrupt workbook, got %v", err)
	}

	other := filepath.Join(dir, "contacts.pdf")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewLoader("", logx.Nop()).Load(other, Filter{})
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("expected ErrSourceRead for unsupported type, got %v", err)
	}
}

func TestLoadEmptySource(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "")
	got, err := NewLoader("", logx.Nop()).Load(path, Filter{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestLoadXLSXNumericCells(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "contacts.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Name", "Phone", "Message", "Date of Birth"},
		{"Alice", 9876543210, "Happy birthday!", time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"Bob", "+91 987-654-3211", "Hey", "1991-02-03"},
	}
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	got, err := NewLoader("", logx.Nop()).Load(path, Filter{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Phone != "9876543210" {
		t.Fatalf("Phone = %q, want 9876543210", got[0].Phone)
	}
	if !SameDay(got[0].DateOfBirth, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DateOfBirth = %v", got[0].DateOfBirth)
	}
	if !SameDay(got[1].DateOfBirth, time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DateOfBirth = %v", got[1].DateOfBirth)
	}

	if _, err := NewLoader("Missing", logx.Nop()).Load(path, Filter{}); !errors.Is(err, ErrSourceRead) {
		t.Fatalf("expected ErrSourceRead for unknown sheet, got %v", err)
	}
}

func TestLoadKeepsMessageVerbatim(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "Name,Phone,Message\n"+
		"Alice,1,\"  Happy birthday!\n  See you \"\n"+
		"Bob,2,\"   \"\n")

	got, err := NewLoader("", logx.Nop()).Load(path, Filter{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if want := "  Happy birthday!\n  See you "; got[0].Message != want {
		t.Fatalf("Message = %q, want %q", got[0].Message, want)
	}
	if len(got[0].Missing()) != 0 {
		t.Fatalf("unexpected missing fields: %v", got[0].Missing())
	}
	if m := got[1].Missing(); len(m) != 1 || m[0] != ColMessage {
		t.Fatalf("whitespace-only message should be missing, got %v", m)
	}
}
