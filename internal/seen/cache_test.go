package seen_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelikov/keywatch/internal/seen"
)

func TestMarkSeenThenIsSeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	now := time.Now()

	c, err := seen.Open(path, now)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	if c.IsSeen(42) {
		t.Error("IsSeen(42) = true before MarkSeen")
	}
	if err := c.MarkSeen(42); err != nil {
		t.Fatalf("MarkSeen() error: %v", err)
	}
	if !c.IsSeen(42) {
		t.Error("IsSeen(42) = false after MarkSeen")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	now := time.Now()

	c, err := seen.Open(path, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.MarkSeen(1); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkSeen(2); err != nil {
		t.Fatal(err)
	}

	// A restart keeps the id set; only the reset window restarts.
	reopened, err := seen.Open(path, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if !reopened.IsSeen(1) || !reopened.IsSeen(2) {
		t.Error("persisted ids lost across reopen")
	}
	if reopened.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reopened.Len())
	}
}

func TestResetIfExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	start := time.Unix(1_700_000_000, 0)

	c, err := seen.Open(path, start)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.MarkSeen(42); err != nil {
		t.Fatal(err)
	}

	// Below the threshold: untouched.
	cleared, err := c.ResetIfExpired(start.Add(seen.ResetWindow - time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if cleared {
		t.Error("cache cleared before the window elapsed")
	}
	if !c.IsSeen(42) {
		t.Error("entry lost before the window elapsed")
	}

	// At the threshold: wiped, and the timestamp advances.
	cleared, err = c.ResetIfExpired(start.Add(seen.ResetWindow))
	if err != nil {
		t.Fatal(err)
	}
	if !cleared {
		t.Error("cache not cleared after the window elapsed")
	}
	if c.IsSeen(42) {
		t.Error("entry survived the reset")
	}

	// Timestamp advanced: an immediate second check does nothing.
	cleared, err = c.ResetIfExpired(start.Add(seen.ResetWindow + time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if cleared {
		t.Error("cache cleared again right after a reset")
	}
}

func TestResetPersistsEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	start := time.Unix(1_700_000_000, 0)

	c, err := seen.Open(path, start)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.MarkSeen(7); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ResetIfExpired(start.Add(seen.ResetWindow)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("persisted set = %s, want []", data)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := seen.Open(path, time.Now()); err == nil {
		t.Error("expected error for corrupt cache file")
	}
}
