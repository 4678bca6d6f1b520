package logfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	ts := time.Date(2018, 12, 10, 11, 26, 40, 0, time.UTC)
	if err := sink.Append(ts, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #ninja :hello world"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "2018-12-10_11:26:40 — :alice!alice@alice.tmi.twitch.tv PRIVMSG #ninja :hello world\n\n\n"
	if string(data) != want {
		t.Errorf("record = %q, want %q", string(data), want)
	}
}

func TestAppendPreservesEmbeddedNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	// A single receive can contain several protocol lines; they stay one record.
	chunk := "line one\r\nline two"
	if err := sink.Append(time.Now(), chunk); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), chunk) {
		t.Errorf("chunk not preserved verbatim: %q", string(data))
	}
	if got := strings.Count(string(data), RecordDelimiter); got != 1 {
		t.Errorf("expected exactly one record delimiter, got %d", got)
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Append(time.Now(), "late"); err == nil {
		t.Errorf("expected error appending to closed sink")
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	_ = sink.Append(time.Now(), "first")
	_ = sink.Close()

	// Reopening must not truncate existing records.
	sink2, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = sink2.Append(time.Now(), "second")
	_ = sink2.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Errorf("expected both records after reopen, got %q", string(data))
	}
}
