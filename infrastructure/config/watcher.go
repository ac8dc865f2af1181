package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/simulation"
)

// TuningWatcher watches the force-tuning file for changes so layout
// parameters can be adjusted without restarting the view. Invalid
// tuning is rejected and the current configuration is kept.
type TuningWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  simulation.ForceConfig
	mu       sync.RWMutex
	onChange []func(simulation.ForceConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewTuningWatcher loads the initial tuning from path and prepares a
// watcher. A missing file is not an error: defaults apply until the
// file appears.
func NewTuningWatcher(path string, logger *zap.Logger) (*TuningWatcher, error) {
	current := simulation.DefaultForceConfig()
	if loaded, err := loadTuningFromFile(path); err == nil {
		current = loaded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// watch the directory so atomic saves (write to temp, rename) are
	// seen even when the file itself is replaced
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning directory: %w", err)
	}

	return &TuningWatcher{
		path:    path,
		watcher: watcher,
		current: current,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for tuning changes
func (w *TuningWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("tuning watcher started", zap.String("path", w.path))
}

// Stop stops watching for tuning changes
func (w *TuningWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// Current returns the active tuning
func (w *TuningWatcher) Current() simulation.ForceConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after a valid reload
func (w *TuningWatcher) OnChange(handler func(simulation.ForceConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

func (w *TuningWatcher) watchLoop() {
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, w.handleChange)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("tuning watcher error", zap.Error(err))
		}
	}
}

func (w *TuningWatcher) handleChange() {
	next, err := loadTuningFromFile(w.path)
	if err != nil {
		w.logger.Error("failed to reload tuning", zap.Error(err))
		return
	}
	if err := next.Validate(); err != nil {
		w.logger.Error("invalid tuning, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = next
	handlers := make([]func(simulation.ForceConfig), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(next)
	}

	w.logger.Info("tuning reloaded", zap.String("path", w.path))
}

// loadTuningFromFile reads tuning YAML over the defaults, so a partial
// file only overrides the keys it names
func loadTuningFromFile(path string) (simulation.ForceConfig, error) {
	config := simulation.DefaultForceConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
