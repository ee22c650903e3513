// Package watcher monitors a mod tree for changes and triggers debounced
// repackaging runs.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"weipack/internal/archive"
)

// Config contains watcher settings.
type Config struct {
	// Debounce is the quiet period after the last event before a rebuild
	// fires (default: 2s).
	Debounce time.Duration

	// IgnorePatterns are glob patterns for paths whose events are ignored.
	// Defaults to the archive exclude set plus packaging output.
	IgnorePatterns []string

	// Logger receives watch diagnostics. Nil falls back to log.Default().
	Logger *log.Logger
}

// DefaultIgnorePatterns returns the patterns for events that must not
// trigger a rebuild: everything the archive would exclude anyway, plus zip
// output so a finished package does not immediately retrigger packaging.
func DefaultIgnorePatterns() []string {
	return append(archive.DefaultExcludes(), "*.zip", "*.exe")
}

// RebuildFunc is invoked after file activity under the watched root settles.
type RebuildFunc func()

// Watcher monitors a directory tree for mod file changes.
type Watcher struct {
	root      string
	config    Config
	logger    *log.Logger
	rebuild   RebuildFunc
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	done      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time

	mu        sync.Mutex
	triggered int
	skipped   int
}

// Summary contains stats from a watch session.
type Summary struct {
	Rebuilds      int
	IgnoredEvents int
	Duration      time.Duration
}

// New creates a Watcher over root. Zero-value config fields get defaults.
func New(root string, config Config, rebuild RebuildFunc) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = 2 * time.Second
	}
	if len(config.IgnorePatterns) == 0 {
		config.IgnorePatterns = DefaultIgnorePatterns()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		root:    root,
		config:  config,
		logger:  logger,
		rebuild: rebuild,
		done:    make(chan struct{}),
	}
}

// Start begins watching the root tree. fsnotify watches are not recursive,
// so every existing directory is registered up front and directories created
// later are registered as their create events arrive.
func (w *Watcher) Start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsWatcher

	absRoot, err := filepath.Abs(w.root)
	if err != nil {
		fsWatcher.Close()
		return err
	}
	w.root = absRoot

	if err := w.addDirs(absRoot); err != nil {
		fsWatcher.Close()
		return err
	}

	w.debouncer = NewDebouncer(w.config.Debounce, func(string) {
		w.mu.Lock()
		w.triggered++
		w.mu.Unlock()
		if w.rebuild != nil {
			w.rebuild()
		}
	})

	w.startTime = time.Now()
	w.done = make(chan struct{})

	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop shuts down the watcher and returns a summary of the session.
func (w *Watcher) Stop() *Summary {
	close(w.done)
	w.wg.Wait()

	if w.debouncer != nil {
		w.debouncer.CancelAll()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return &Summary{
		Rebuilds:      w.triggered,
		IgnoredEvents: w.skipped,
		Duration:      time.Since(w.startTime),
	}
}

// addDirs registers dir and all its subdirectories with the fsnotify watcher.
// Directories the ignore patterns would exclude are not descended into.
func (w *Watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.shouldIgnore(path+string(filepath.Separator)+"x") {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		w.mu.Lock()
		w.skipped++
		w.mu.Unlock()
		return
	}

	// New directories must be registered before their content events can
	// be observed.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirs(event.Name); err != nil {
				w.logger.Warn("watching new directory", "path", event.Name, "err", err)
			}
		}
	}

	w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
	w.debouncer.Add(w.root)
}

// shouldIgnore reports whether events for path must not trigger a rebuild.
// Patterns are evaluated against the root-relative slash path with the same
// matching rules the archive writer uses.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return !archive.Selected(filepath.ToSlash(rel), archive.Options{Exclude: w.config.IgnorePatterns})
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	select {
	case <-w.done:
		return false
	default:
		return w.fsWatcher != nil
	}
}
