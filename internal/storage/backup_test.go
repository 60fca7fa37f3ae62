package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_Backup(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	if err := store.Sets.InsertSkeleton(ctx, "DSK"); err != nil {
		t.Fatalf("InsertSkeleton failed: %v", err)
	}

	dir := t.TempDir()
	path, err := store.Backup(ctx, dir, 0)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Expected backup in %s, got %s", dir, path)
	}

	restored, err := OpenStore(path)
	if err != nil {
		t.Fatalf("Failed to open backup: %v", err)
	}
	defer restored.Close()

	codes, err := restored.Sets.Codes(ctx)
	if err != nil {
		t.Fatalf("Codes failed: %v", err)
	}
	if !codes["DSK"] {
		t.Errorf("Expected DSK in backup, got %v", codes)
	}
}

func TestStore_BackupPrunes(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	for i := 0; i < 4; i++ {
		if _, err := store.Backup(ctx, dir, 2); err != nil {
			t.Fatalf("Backup %d failed: %v", i, err)
		}
	}

	backups, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("Expected 2 backups kept, got %d", len(backups))
	}
	if backups[0].Name <= backups[1].Name {
		t.Errorf("Expected newest first, got %s then %s", backups[0].Name, backups[1].Name)
	}
}

func TestStore_DefaultBackupDir(t *testing.T) {
	store := NewTestStore(t)
	want := filepath.Join(filepath.Dir(store.DB().Path()), "backups")
	if got := store.DefaultBackupDir(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestVerifyBackup_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings_bogus.db")
	if err := os.WriteFile(path, []byte("not a database"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := VerifyBackup(context.Background(), path); err == nil {
		t.Error("Expected verification to fail")
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("Expected no backups, got %d", len(backups))
	}
}
