package settings

import (
	"path/filepath"
	"time"

	"github.com/atinylittleshell/ghostwrite/pkg/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangedMsg carries freshly loaded settings to whoever subscribed.
type ChangedMsg struct {
	Settings Settings
}

// Watcher reloads a settings file whenever it (or an agent file) changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan ChangedMsg
	done    chan struct{}
}

// Watch starts watching the directory holding path plus any extra
// directories. load is called after a burst of events settles.
func Watch(path string, extraDirs []string, load func() (Settings, error), logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := append([]string{filepath.Dir(path)}, extraDirs...)
	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			logger.Debug("not watching settings directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	w := &Watcher{
		watcher: fsWatcher,
		changes: make(chan ChangedMsg, 1),
		done:    make(chan struct{}),
	}

	reload := debounce.Debounce(150*time.Millisecond, func() {
		s, err := load()
		if err != nil {
			logger.Warn("failed to reload settings", zap.Error(err))
			return
		}
		logger.Info("settings reloaded", zap.String("path", path))
		w.publish(ChangedMsg{Settings: s})
	})

	go func() {
		for {
			select {
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					reload()
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Warn("settings watcher error", zap.Error(err))
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// publish keeps only the newest pending change.
func (w *Watcher) publish(msg ChangedMsg) {
	for {
		select {
		case w.changes <- msg:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}

// Changes delivers reloaded settings.
func (w *Watcher) Changes() <-chan ChangedMsg {
	return w.changes
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
