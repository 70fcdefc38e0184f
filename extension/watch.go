package extension

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Invalidate drops the cached catalog, including a cached load error, so
// the next lookup reads the directories again. Libraries that are already
// open stay open.
func (r *Registry) Invalidate() {
	r.extMu.Lock()
	defer r.extMu.Unlock()
	r.exts = nil
	r.loadErr = nil
}

// Watch invalidates the registry whenever a control file or script in the
// extension directory changes. It blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(r.extDir); err != nil {
		return errors.Wrapf(err, "watching %q", r.extDir)
	}
	log := logrus.WithField("dir", r.extDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event) {
				continue
			}
			log.WithField("file", filepath.Base(event.Name)).Debug("extension files changed")
			r.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("extension directory watch error")
		}
	}
}

func relevantChange(event fsnotify.Event) bool {
	switch filepath.Ext(event.Name) {
	case ".control", ".sql":
	default:
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
