package loader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for before reporting.
const DefaultDebounce = 200 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithDebounce sets the quiet period after the last file event.
func WithDebounce(d time.Duration) WatchOption {
	return func(cfg *watchConfig) {
		if d > 0 {
			cfg.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload failures.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(cfg *watchConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Watch reports the entity names declared by documents in dir that changed.
// Bursts of file events are collapsed into one onChange call once dir has
// been quiet for the debounce period. A removed or renamed file reports the
// name it declared before. Watch blocks until ctx is done.
func Watch(ctx context.Context, dir string, onChange func(names []string), opts ...WatchOption) error {
	cfg := watchConfig{debounce: DefaultDebounce, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	index := indexDir(dir, cfg.logger)
	pending := map[string]struct{}{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(cfg.debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(cfg.debounce)
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			timerC = nil
			names := index.refresh(pending, cfg.logger)
			pending = map[string]struct{}{}
			if len(names) > 0 && onChange != nil {
				onChange(names)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn("loader: watcher error", slog.String("dir", dir), slog.Any("error", err))
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldReload(evt) {
				continue
			}
			pending[evt.Name] = struct{}{}
			resetTimer()
		}
	}
}

func shouldReload(evt fsnotify.Event) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(evt.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := formatOf(base)
	return ok
}

// docIndex maps document paths to the entity names they declare.
type docIndex map[string]string

func indexDir(dir string, logger *slog.Logger) docIndex {
	index := docIndex{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("loader: index dir failed", slog.String("dir", dir), slog.Any("error", err))
		return index
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, ok := formatOf(path); !ok {
			continue
		}
		doc, err := LoadFile(path)
		if err != nil {
			logger.Warn("loader: load document failed", slog.String("path", path), slog.Any("error", err))
			continue
		}
		index[path] = doc.Name
	}
	return index
}

// refresh reloads the changed paths and returns the affected names sorted.
func (idx docIndex) refresh(paths map[string]struct{}, logger *slog.Logger) []string {
	affected := map[string]struct{}{}
	for path := range paths {
		if previous, ok := idx[path]; ok {
			affected[previous] = struct{}{}
		}
		if _, err := os.Stat(path); err != nil {
			delete(idx, path)
			continue
		}
		doc, err := LoadFile(path)
		if err != nil {
			logger.Warn("loader: reload document failed", slog.String("path", path), slog.Any("error", err))
			continue
		}
		idx[path] = doc.Name
		affected[doc.Name] = struct{}{}
	}
	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
