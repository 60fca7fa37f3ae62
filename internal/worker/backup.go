package worker

import (
	"context"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/events"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage"
)

// BackupDatabase copies the database into dir (the "backups" directory next
// to it when empty), keeping the newest keep copies.
func (w *Worker) BackupDatabase(dir string, keep int) {
	w.post(func(ctx context.Context) {
		if !w.requireStore(ctx, events.BackupFailed) {
			return
		}
		path, err := w.store.Backup(ctx, dir, keep)
		if err != nil {
			w.fail(ctx, events.BackupFailed, err)
			return
		}
		w.logger.Info("Database backed up", "path", path)
		w.emit(ctx, events.BackedUp, events.BackupEvent{Path: path})
	})
}

// ListBackups returns the backups in the default backup directory, newest first.
func (w *Worker) ListBackups(ctx context.Context) ([]storage.BackupInfo, error) {
	return query(ctx, w, func(context.Context) ([]storage.BackupInfo, error) {
		if w.store == nil {
			return nil, ErrNotInitialised
		}
		return storage.ListBackups(w.store.DefaultBackupDir())
	})
}
