package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumelift/internal/errors"
)

// Watcher watches the active config file and triggers a reload
// callback on change, debounced to absorb editor write bursts and
// atomic renames.
type Watcher struct {
	mu sync.Mutex

	configFile  string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

// NewWatcher creates a watcher for configFile. The callback runs on
// the watcher goroutine after each debounced change.
func NewWatcher(configFile string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &Watcher{
		configFile:     configFile,
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1), // Buffered to prevent blocking
		reloadCallback: reloadCallback,
		logger:         logger,
	}
}

// Start begins watching the config file.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("config watcher is already running")
	}
	if w.configFile == "" {
		return fmt.Errorf("no config file to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	if stat, err := os.Stat(w.configFile); err == nil {
		w.lastModTime = stat.ModTime()
	}

	// Watch the directory too so atomic writes (rename) are caught.
	if err := fsWatcher.Add(w.configFile); err != nil {
		if !os.IsNotExist(err) {
			w.closeFSWatcher()
			return fmt.Errorf("failed to watch config file %s: %w", w.configFile, err)
		}
	}
	if err := fsWatcher.Add(filepath.Dir(w.configFile)); err != nil {
		w.closeFSWatcher()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Config file watcher started",
			"file", w.configFile,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	if err := w.fsWatcher.Close(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}
	w.running = false

	if w.logger != nil {
		w.logger.Info("Config file watcher stopped")
	}
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) closeFSWatcher() {
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil && w.logger != nil {
			w.logger.LogError(err, "Failed to close file watcher during cleanup")
		}
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "Config watcher error")
			}

		case <-w.reloadChan:
			if w.hasFileChanged() {
				if w.logger != nil {
					w.logger.Info("Config file changed, triggering reload", "file", w.configFile)
				}
				w.reloadCallback()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != w.configFile && filepath.Base(event.Name) != filepath.Base(w.configFile) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) hasFileChanged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	stat, err := os.Stat(w.configFile)
	if err != nil {
		return false
	}
	if stat.ModTime().After(w.lastModTime) {
		w.lastModTime = stat.ModTime()
		return true
	}
	return false
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}
