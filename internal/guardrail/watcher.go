package guardrail

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after an fsnotify event before the rules
// file is re-read.
const DebounceInterval = 100 * time.Millisecond

// Watcher keeps a Filter in sync with a rules file.
type Watcher struct {
	path     string
	filter   *Filter
	mu       sync.Mutex
	lastHash [sha256.Size]byte
	// reloaded is signalled after every successful reload; tests use it.
	reloaded chan struct{}
}

// NewWatcher loads path into filter once and returns a watcher for it.
func NewWatcher(path string, filter *Filter) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		filter:   filter,
		reloaded: make(chan struct{}, 1),
	}
	if err := w.reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Run watches the parent directory so atomic replaces (write temp, rename)
// are seen. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	slog.Info("watching guardrail rules", "path", w.path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(DebounceInterval, func() {
				if err := w.reload(); err != nil {
					slog.Warn("keeping previous guardrail rules", "path", w.path, "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", w.path, err)
	}
	hash := sha256.Sum256(data)
	if hash == w.lastHash {
		return nil
	}
	rules, err := ParseRules(data)
	if err != nil {
		return err
	}
	w.filter.SetRules(rules)
	w.lastHash = hash
	slog.Info("guardrail rules loaded", "path", w.path, "version", rules.Version, "denylist", len(rules.Denylist))
	select {
	case w.reloaded <- struct{}{}:
	default:
	}
	return nil
}
