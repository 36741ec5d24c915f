package authlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"biometric-device-console/internal/config"
	"biometric-device-console/internal/storage"
)

func newTestStore(t *testing.T) storage.Provider {
	t.Helper()

	cfg := &config.Storage{
		SQLite: &config.SQLiteStorage{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	provider := storage.NewProvider(cfg)
	if provider == nil {
		t.Fatal("NewProvider returned nil")
	}
	t.Cleanup(func() { provider.Close() })
	return provider
}

func writeTempCSV(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing temp CSV: %v", err)
	}
	return path
}

const importFixture = `"ID","Time","UserID","UserName","DeviceSerialNo","AuthMode","Result","Message"
"1","2026-03-01 09:00:00","EMP-1001","Tanaka","BC9001","Face","Success",""
"2","2026-03-01 09:05:00","EMP-1002","Suzuki","BC9001","Dual","Failed","no match"
`

func TestImportFile_UTF8WithBOM(t *testing.T) {
	store := newTestStore(t)

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	buf.WriteString(importFixture)
	path := writeTempCSV(t, buf.Bytes())

	count, err := NewImporter(store).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 imported rows, got %d", count)
	}

	logs, err := store.ListAuthLogs(context.Background(), "2026-03-01")
	if err != nil {
		t.Fatalf("ListAuthLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(logs))
	}
	// Newest first: the 09:05 failure comes back on top
	if logs[0].UserID != "EMP-1002" || logs[0].IsSuccess {
		t.Errorf("unexpected first row: %+v", logs[0])
	}
	if logs[0].AuthMode != storage.AuthModeFaceAndVein {
		t.Errorf("Dual should map to FaceAndVein, got %s", logs[0].AuthMode)
	}
	if logs[0].ErrorMessage != "no match" {
		t.Errorf("message lost: %q", logs[0].ErrorMessage)
	}
}

func TestImportFile_UTF16(t *testing.T) {
	store := newTestStore(t)

	// Terminal exports on some firmware are UTF-16LE with BOM
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, _, err := transform.Bytes(encoder, []byte(importFixture))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	path := writeTempCSV(t, encoded)

	count, err := NewImporter(store).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 imported rows, got %d", count)
	}
}

func TestImportFile_SkipsBadRows(t *testing.T) {
	store := newTestStore(t)

	content := `"ID","Time","UserID","UserName","DeviceSerialNo","AuthMode","Result","Message"
"1","not-a-time","EMP-1001","Tanaka","BC9001","Face","Success",""
"2","2026-03-01 09:05:00","EMP-1002","Suzuki","BC9001","Hologram","Failed",""
"3","2026-03-01 09:10:00","EMP-1003","Sato","BC9002","1","Success",""
`
	path := writeTempCSV(t, []byte(content))

	count, err := NewImporter(store).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 imported row, got %d", count)
	}

	logs, err := store.ListAuthLogs(context.Background(), "")
	if err != nil {
		t.Fatalf("ListAuthLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].AuthMode != storage.AuthModeVein {
		t.Fatalf("expected the numeric-mode row only, got %+v", logs)
	}
}

func TestImportFile_MissingColumn(t *testing.T) {
	store := newTestStore(t)

	content := `"ID","Time","UserName"
"1","2026-03-01 09:00:00","Tanaka"
`
	path := writeTempCSV(t, []byte(content))

	if _, err := NewImporter(store).ImportFile(context.Background(), path); err == nil {
		t.Fatal("expected error for missing required column")
	}
}
