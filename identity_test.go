package logWatcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestStatIdentifierDistinguishesPhysicalFiles(t *testing.T) {
	dir := t.TempDir()
	identifier := NewStatIdentifier(afero.NewOsFs())

	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")
	if err := os.WriteFile(first, []byte("12345"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, nil, 0600); err != nil {
		t.Fatal(err)
	}

	firstIdentity, size, err := identifier.Identify(first)
	if err != nil {
		t.Fatal(err)
	}
	if size != 5 {
		t.Errorf("expected size 5, got %d", size)
	}
	secondIdentity, _, err := identifier.Identify(second)
	if err != nil {
		t.Fatal(err)
	}
	if firstIdentity == secondIdentity {
		t.Error("different files must have different identities")
	}

	again, _, err := identifier.Identify(first)
	if err != nil {
		t.Fatal(err)
	}
	if again != firstIdentity {
		t.Error("identity must be stable across calls")
	}
}

func TestStatIdentifierSurvivesRename(t *testing.T) {
	dir := t.TempDir()
	identifier := NewStatIdentifier(afero.NewOsFs())

	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	before, _, err := identifier.Identify(path)
	if err != nil {
		t.Fatal(err)
	}

	renamed := filepath.Join(dir, "app.log.1")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}
	after, _, err := identifier.Identify(renamed)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("renaming must not change a file's identity")
	}
}

func TestStatIdentifierMissingFile(t *testing.T) {
	identifier := NewStatIdentifier(afero.NewOsFs())
	_, _, err := identifier.Identify(filepath.Join(t.TempDir(), "absent.log"))
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

// In-memory filesystems expose no stat identity; the identifier must say so
// instead of fabricating one.
func TestStatIdentifierRejectsMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "mem.log", nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewStatIdentifier(fs).Identify("mem.log"); err == nil {
		t.Error("expected an error for a filesystem without stat identity")
	}
}
