/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Configuration Reload
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"banksight/internal/logging"
)

// ReloadableConfig wraps a Config with thread-safe access and reload capability
type ReloadableConfig struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	cliFlags CLIFlags
	onReload []func(*Config)
}

// NewReloadableConfig creates a new reloadable configuration
func NewReloadableConfig(config *Config, path string, cliFlags CLIFlags) *ReloadableConfig {
	return &ReloadableConfig{
		config:   config,
		path:     path,
		cliFlags: cliFlags,
	}
}

// Get returns the current configuration (read-only access)
func (rc *ReloadableConfig) Get() *Config {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.config
}

// OnReload registers a callback invoked after a successful reload
func (rc *ReloadableConfig) OnReload(fn func(*Config)) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.onReload = append(rc.onReload, fn)
}

// Reload reloads the configuration from the file.
// Returns an error if the reload fails, but keeps the old config.
func (rc *ReloadableConfig) Reload() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.path == "" {
		return fmt.Errorf("no configuration file path set")
	}

	// The file is known to exist at this point, so a parse failure must
	// surface rather than silently falling back to defaults.
	flags := rc.cliFlags
	flags.ConfigFileSet = true
	newConfig, err := LoadConfig(rc.path, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	old := rc.config
	if old.HTTP.Address != newConfig.HTTP.Address {
		logging.Warn("http.address changed, requires restart", "address", newConfig.HTTP.Address)
	}
	if old.Database.Path != newConfig.Database.Path {
		logging.Warn("database.path changed, requires restart", "path", newConfig.Database.Path)
	}

	rc.config = newConfig
	for _, callback := range rc.onReload {
		callback(newConfig)
	}

	logging.Info("configuration reloaded", "path", rc.path)
	return nil
}

// Watcher watches the configuration file for changes and triggers reloads
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	reloadFn func() error
	done     chan bool
}

// NewWatcher creates a watcher over the given file. The containing
// directory is watched rather than the file itself because editors often
// delete and recreate files on save.
func NewWatcher(filePath string, reloadFn func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		filePath: filePath,
		reloadFn: reloadFn,
		done:     make(chan bool),
	}

	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return w, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops watching for file changes
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

// watch monitors file events and triggers reloads
func (w *Watcher) watch() {
	// Debounce to avoid multiple reloads for rapid changes
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Name != w.filePath {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := w.reloadFn(); err != nil {
						logging.Error("config reload failed", "path", w.filePath, "error", err.Error())
					}
				})
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.done:
			return
		}
	}
}
