package emotes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApply(t *testing.T) {
	tbl := NewTable(map[string]string{"🔥": "fire", "👍": "thumbs_up"})
	got := tbl.Apply("this stream is 🔥🔥 👍")
	want := "this stream is [fire][fire] [thumbs_up]"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyPassesUnknownThrough(t *testing.T) {
	tbl := NewTable(map[string]string{"🔥": "fire"})
	s := "plain text with 🎉 unknown glyph"
	if got := tbl.Apply(s); got != s {
		t.Errorf("Apply changed text without known glyphs: %q", got)
	}
}

func TestApplyNilAndEmptyTable(t *testing.T) {
	var nilTable *Table
	if got := nilTable.Apply("x"); got != "x" {
		t.Errorf("nil table should pass through, got %q", got)
	}
	empty := NewTable(nil)
	if got := empty.Apply("x"); got != "x" {
		t.Errorf("empty table should pass through, got %q", got)
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotes.yaml")
	if err := os.WriteFile(path, []byte("\"🔥\": fire\n\"👍\": thumbs_up\n"), 0o644); err != nil {
		t.Fatalf("write emote map: %v", err)
	}
	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tbl.Len())
	}
	if got := tbl.Apply("🔥"); got != "[fire]" {
		t.Errorf("Apply = %q, want %q", got, "[fire]")
	}
}

func TestLoadTableBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotes.yaml")
	if err := os.WriteFile(path, []byte(":\n  - bad"), 0o644); err != nil {
		t.Fatalf("write emote map: %v", err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Errorf("expected error for malformed yaml")
	}
}
