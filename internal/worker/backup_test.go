package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
)

func TestBackupDatabase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.worker.BackupDatabase("", 0)
	h.events.waitFor(t, events.BackupFailed)

	if _, err := h.worker.ListBackups(ctx); !errors.Is(err, ErrNotInitialised) {
		t.Errorf("Expected ErrNotInitialised, got %v", err)
	}

	h.initialise(t)
	h.worker.BackupDatabase("", 3)
	e, _ := h.events.waitFor(t, events.BackedUp)

	data, ok := events.GetTypedData[events.BackupEvent](e)
	if !ok {
		t.Fatal("Expected BackupEvent payload")
	}
	if filepath.Base(filepath.Dir(data.Path)) != "backups" {
		t.Errorf("Expected backup in the default directory, got %s", data.Path)
	}

	backups, err := h.worker.ListBackups(ctx)
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 || backups[0].Path != data.Path {
		t.Errorf("Expected the new backup listed, got %+v", backups)
	}
}
