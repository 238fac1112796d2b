package fixture

import (
	"context"
	"log/slog"

	"github.com/yndnr/supplier-portal/internal/infra/confloader"
)

// Watch reloads path into s whenever it changes, until ctx is done. A
// fixture that fails to load or validate is logged and the previous
// dataset keeps serving.
func Watch(ctx context.Context, s *Store, path string, logger *slog.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return err
	}

	w.OnChange(func(changed string) {
		ds, err := LoadFile(changed)
		if err == nil {
			err = s.Replace(ds)
		}
		if err != nil {
			logger.Error("fixture reload failed", "path", changed, "error", err)
			return
		}
		logger.Info("fixture reloaded", "path", changed,
			"suppliers", len(ds.Suppliers), "maintenance", ds.Maintenance)
	})

	go func() {
		defer w.Stop()
		w.Run(ctx)
	}()
	return nil
}
