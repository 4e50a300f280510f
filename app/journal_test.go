package app

import (
	"path/filepath"
	"testing"
)

func TestJournalRecordAndList(t *testing.T) {
	journal, err := NewJournal(filepath.Join(t.TempDir(), "journal.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	journal.RecordFailure(3, "a.mp4", 0, "decode failed")
	journal.RecordFailure(3, "a.mp4", 1, "decode failed")
	journal.RecordFailure(9, "b.mp4", 0, "no such file")

	failures := journal.ListRecent(10)
	if len(failures) != 3 {
		t.Fatalf("%d failures; want 3", len(failures))
	}
	// newest first
	if failures[0].Path != "b.mp4" || failures[0].Index != 9 {
		t.Errorf("newest failure = %+v", failures[0])
	}
	if failures[2].Trial != 0 || failures[2].Path != "a.mp4" {
		t.Errorf("oldest failure = %+v", failures[2])
	}

	counts := journal.CountByPath()
	if counts["a.mp4"] != 2 || counts["b.mp4"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestJournalListLimit(t *testing.T) {
	journal, err := NewJournal(filepath.Join(t.TempDir(), "journal.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	for i := 0; i < 5; i++ {
		journal.RecordFailure(i, "x.mp4", i, "err")
	}
	if got := len(journal.ListRecent(2)); got != 2 {
		t.Errorf("ListRecent(2) returned %d rows", got)
	}
}

func TestJournalSessionScope(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "journal.sqlite3")
	first, err := NewJournal(fname)
	if err != nil {
		t.Fatal(err)
	}
	first.RecordFailure(0, "a.mp4", 0, "err")
	first.Close()

	second, err := NewJournal(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	second.RecordFailure(1, "b.mp4", 0, "err")

	// ListRecent is per-session; CountByPath spans sessions.
	if got := len(second.ListRecent(10)); got != 1 {
		t.Errorf("ListRecent saw %d rows from this session; want 1", got)
	}
	counts := second.CountByPath()
	if counts["a.mp4"] != 1 || counts["b.mp4"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
