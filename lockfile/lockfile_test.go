package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), LockFileName))
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	if err := os.WriteFile(path, []byte("version: 99\nchecksums: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", LockFileName)

	lf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Update("i18n/messages_ru.properties", "greeting", "Hello")
	lf.Update("i18n/messages_ru.properties", "farewell", "Bye")
	lf.Update("i18n/messages_de.properties", "greeting", "Hello")

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(path)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	targets, keys := lf2.Stats()
	if targets != 2 {
		t.Errorf("targets = %d, want 2", targets)
	}
	if keys != 3 {
		t.Errorf("keys = %d, want 3", keys)
	}
	if got, ok := lf2.Snapshot("i18n/messages_de.properties").Checksum("greeting"); !ok || got != Hash("Hello") {
		t.Error("reloaded checksum should match")
	}
}

func TestRemoveTarget(t *testing.T) {
	lf := &LockFile{Checksums: make(map[string]map[string]string)}
	lf.Update("messages_ru.properties", "greeting", "Hello")
	lf.Update("messages_de.properties", "greeting", "Hello")

	lf.RemoveTarget("messages_ru.properties")

	if diff := cmp.Diff([]string{"messages_de.properties"}, lf.Targets()); diff != "" {
		t.Errorf("Targets() (-want +got):\n%s", diff)
	}
}

func TestSnapshot(t *testing.T) {
	lf := &LockFile{Checksums: make(map[string]map[string]string)}

	if lf.Snapshot("messages_de.properties").Known() {
		t.Error("unknown target reported as known")
	}

	lf.UpdateBatch("messages_de.properties", nil)
	snap := lf.Snapshot("messages_de.properties")
	if !snap.Known() {
		t.Error("empty batch should mark target as known")
	}

	lf.Update("messages_de.properties", "greeting", "Hello")
	if _, ok := snap.Checksum("greeting"); ok {
		t.Error("snapshot should not see later updates")
	}

	snap = lf.Snapshot("messages_de.properties")
	if got, ok := snap.Checksum("greeting"); !ok || got != Hash("Hello") {
		t.Errorf("Checksum(greeting) = (%q, %v), want (%q, true)", got, ok, Hash("Hello"))
	}
}

func TestClean(t *testing.T) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}

	lf.Update("messages_ru.properties", "a", "A")
	lf.Update("messages_ru.properties", "b", "B")
	lf.Update("messages_ru.properties", "c", "C")

	lf.Clean("messages_ru.properties", []string{"a", "c"})

	_, keys := lf.Stats()
	if keys != 2 {
		t.Errorf("keys after clean = %d, want 2", keys)
	}
	if _, ok := lf.Checksums["messages_ru.properties"]["b"]; ok {
		t.Error("b should have been cleaned")
	}
}

func TestSummary(t *testing.T) {
	lf := &LockFile{Checksums: make(map[string]map[string]string)}
	if got := lf.Summary(); got != "empty" {
		t.Errorf("Summary() = %q, want empty", got)
	}
	lf.Update("b.properties", "k", "v")
	lf.Update("a.properties", "k", "v")
	got := lf.Summary()
	if !strings.HasPrefix(got, "2 targets, 2 keys (a.properties: 1 keys") {
		t.Errorf("Summary() = %q", got)
	}
}
