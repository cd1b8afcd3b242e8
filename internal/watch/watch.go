// Package watch detects source file changes and feeds them to the
// ingestion pipeline for incremental processing.
//
// The detector wraps fsnotify with debouncing so a burst of writes to the
// same file produces one batch, and with path filters so only indexable
// source files get through. It is a path producer only: it emits changed
// paths and leaves reading, hashing and any export automation to its
// consumers.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codeintake/codeintake/internal/logging"
)

// Filter reports whether a changed path is interesting.
type Filter func(path string) bool

// ExtensionFilter builds a filter accepting only the given extensions.
func ExtensionFilter(extensions []string) Filter {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return func(path string) bool {
		return set[strings.ToLower(filepath.Ext(path))]
	}
}

// NoHiddenFilter rejects dot-files and paths inside dot-directories.
func NoHiddenFilter(path string) bool {
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(component, ".") && component != "." && component != ".." {
			return false
		}
	}
	return true
}

// Detector watches a workspace for file changes with debouncing.
type Detector struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filters  []Filter
	logger   logging.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
	batches chan []string
}

// NewDetector creates a change detector with the given debounce window.
func NewDetector(debounce time.Duration, logger logging.Logger) (*Detector, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Detector{
		watcher:  watcher,
		debounce: debounce,
		logger:   logger.WithComponent("watch"),
		pending:  make(map[string]struct{}),
		batches:  make(chan []string, 16),
	}, nil
}

// AddFilter adds a path filter; all filters must accept a path for it to
// be emitted.
func (d *Detector) AddFilter(filter Filter) {
	d.filters = append(d.filters, filter)
}

// AddRecursive registers root and every current subdirectory for watching,
// skipping hidden directories. fsnotify does not watch recursively by
// itself.
func (d *Detector) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// Batches returns the channel of debounced change batches. The channel is
// closed when Start's context is cancelled.
func (d *Detector) Batches() <-chan []string {
	return d.batches
}

// Start begins processing filesystem events until ctx is cancelled.
func (d *Detector) Start(ctx context.Context) {
	go d.loop(ctx)
}

func (d *Detector) loop(ctx context.Context) {
	defer d.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				d.shutdown()
				return
			}
			d.handleEvent(ctx, event)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				d.shutdown()
				return
			}
			d.logger.Warn(ctx, err, "filesystem watch error")
		}
	}
}

func (d *Detector) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	// New directories need their own watch to keep recursion current.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				_ = d.watcher.Add(event.Name)
			}
			return
		}
	}

	for _, filter := range d.filters {
		if !filter(event.Name) {
			return
		}
	}

	d.logger.Debug(ctx, "change detected", "path", event.Name, "op", event.Op.String())

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[event.Name] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.debounce, d.emit)
	} else {
		d.timer.Reset(d.debounce)
	}
}

// emit drains the pending set into one batch. The send happens under the
// mutex so shutdown can safely close the channel once stopped is set.
func (d *Detector) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timer = nil
	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(d.pending))
	for path := range d.pending {
		batch = append(batch, path)
	}
	d.pending = make(map[string]struct{})

	select {
	case d.batches <- batch:
	default:
		// Consumer fell behind; drop rather than block the event loop.
	}
}

// shutdown emits whatever is pending and closes the batch channel.
func (d *Detector) shutdown() {
	d.emit()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.stopped = true
	close(d.batches)
}
