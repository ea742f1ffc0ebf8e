package save

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parallelssh/pssh/internal/dispatch"
)

func TestWriterBasicFlow(t *testing.T) {
	dir := t.TempDir()
	log := zerolog.Nop()

	w, err := NewWriter(dir, "testrun", log)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	responses := []dispatch.Response{
		{Hostname: "10.0.0.1:22", Result: "hello\n", ProcessTime: 10 * time.Millisecond, Status: true},
		{Hostname: "10.0.0.2:22", Result: "unreachable: timeout [-1]", ProcessTime: 200 * time.Millisecond, Status: false},
		{Hostname: "10.0.0.3:22", Result: "agent connection failed: boom [-42]", ProcessTime: 5 * time.Millisecond, Status: false},
	}
	for _, r := range responses {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dataPath := filepath.Join(dir, "incremental_testrun.json")
	data, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	if !strings.Contains(string(data), "10.0.0.1:22") {
		t.Fatalf("data file missing successful host: %s", data)
	}
	if !strings.Contains(string(data), "10.0.0.2:22") {
		t.Fatalf("data file missing [-1] failure host: %s", data)
	}
	if strings.Contains(string(data), "10.0.0.3") {
		t.Fatalf("data file should not contain the [-42] host: %s", data)
	}

	failedPath := filepath.Join(dir, "failed_hosts_testrun.txt")
	failedData, err := os.ReadFile(failedPath)
	if err != nil {
		t.Fatalf("read failed-hosts file: %v", err)
	}
	if strings.TrimSpace(string(failedData)) != "10.0.0.3" {
		t.Fatalf("failed-hosts file = %q, want %q", failedData, "10.0.0.3")
	}
}

func TestWriterRemovesEmptyFailedFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "clean", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(dispatch.Response{Hostname: "10.0.0.1:22", Result: "ok", Status: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	failedPath := filepath.Join(dir, "failed_hosts_clean.txt")
	if _, err := os.Stat(failedPath); !os.IsNotExist(err) {
		t.Fatalf("expected failed-hosts file to be removed, stat err = %v", err)
	}
}

func TestDirForDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	got := DirForDate(d)
	if got != "05_March_2026" {
		t.Fatalf("DirForDate = %q, want %q", got, "05_March_2026")
	}
}

func TestFinalWritesJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	data := []dispatch.Response{
		{Hostname: "10.0.0.1:22", Result: "ok", Status: true},
	}
	if err := Final(path, data, true); err != nil {
		t.Fatalf("Final: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(content), "10.0.0.1:22") {
		t.Fatalf("content = %s", content)
	}
}
