package script

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the script whenever its file is written or replaced. It
// blocks until ctx is done. Reload failures are logged; the next write
// triggers another attempt.
func (r *Runtime) Watch(ctx context.Context) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}
	path, err := filepath.Abs(r.path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.reloadDelay)
			} else {
				timer.Reset(r.reloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := r.Reload(ctx); err != nil {
				r.logger.Error("script reload failed", "path", r.path, "error", err)
				continue
			}
			r.logger.Info("script reloaded", "path", r.path)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("script watcher error", "error", err)
		}
	}
}
