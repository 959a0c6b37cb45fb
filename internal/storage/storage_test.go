package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "wabatch/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("driver %q: expected (nil, nil), got (%v, %v)", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreAppendsJSONLines(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit", "sends.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	entries := []AuditEntry{
		{At: time.Now(), RunID: "r1", Row: 2, Name: "Alice", Phone: "919876543210", Status: "SUCCESS", MessageID: "wamid.X"},
		{At: time.Now(), RunID: "r1", Row: 3, Name: "Bob", Phone: "919876543211", Status: "FAILED", Error: "Invalid phone", ErrorCode: "1006"},
	}
	for _, e := range entries {
		if err := st.AppendAudit(ctx, e); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}
	defer f.Close()
	var got []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 || got[0].Name != "Alice" || got[1].ErrorCode != "1006" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestSQLiteStoreCounts(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i, status := range []string{"SUCCESS", "FAILED", "SUCCESS"} {
		if err := st.AppendAudit(ctx, AuditEntry{RunID: "run-a", Row: i + 2, Name: "n", Phone: "91", Status: status}); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}
	if err := st.AppendAudit(ctx, AuditEntry{RunID: "run-b", Row: 2, Name: "n", Phone: "91", Status: "TEST", Test: true}); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}

	sc, ok := st.(StatusCounter)
	if !ok {
		t.Fatalf("sqlite store should implement StatusCounter")
	}
	counts, err := sc.CountByStatus(ctx, "run-a")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts["SUCCESS"] != 2 || counts["FAILED"] != 1 || counts["TEST"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
